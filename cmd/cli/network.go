package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/uniconnect/backend/internal/dto"
)

var networkCmd = &cobra.Command{
	Use:               "network",
	Short:             "Manage your connections",
	Long:              "Commands for listing connections, answering invitations and finding people",
	PersistentPreRunE: requireToken,
}

var listNetworkCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending invitations and accepted connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNetwork()
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect <user-id>",
	Short: "Send a connection request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postAndConfirm("/api/dashboard/connect", map[string]string{"receiverId": args[0]})
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept <invitation-id>",
	Short: "Accept a connection invitation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondToInvitation(args[0], "accept")
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <invitation-id>",
	Short: "Reject a connection invitation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondToInvitation(args[0], "reject")
	},
}

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "List people you may know",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSuggestions()
	},
}

func init() {
	networkCmd.AddCommand(listNetworkCmd)
	networkCmd.AddCommand(connectCmd)
	networkCmd.AddCommand(acceptCmd)
	networkCmd.AddCommand(rejectCmd)
	networkCmd.AddCommand(suggestionsCmd)
}

func listNetwork() error {
	var network dto.NetworkResponse
	printed, err := decodeAPI(http.MethodGet, "/api/dashboard/network", nil, &network)
	if err != nil || printed {
		return err
	}

	if len(network.Invitations) == 0 {
		fmt.Printf("✓ No pending invitations\n")
	} else {
		fmt.Printf("\n📝 Pending Invitations (%d)\n", len(network.Invitations))
		fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tINSTITUTE")
		for _, inv := range network.Invitations {
			if inv.User == nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", inv.ID, inv.User.Name, inv.User.Institute)
		}
		w.Flush()
		fmt.Printf("\nUse: uniconnect network accept <id>\n")
		fmt.Printf("     uniconnect network reject <id>\n")
	}

	fmt.Printf("\n🤝 Connections (%d)\n", len(network.Connections))
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUSERNAME\tHEADLINE")
	for _, u := range network.Connections {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Username, truncateString(u.Headline, 40))
	}
	return w.Flush()
}

func respondToInvitation(id, action string) error {
	return postAndConfirm("/api/dashboard/network/respond", map[string]string{
		"connectionId": id,
		"action":       action,
	})
}

func listSuggestions() error {
	var suggestions []dto.SuggestionResponse
	printed, err := decodeAPI(http.MethodGet, "/api/dashboard/suggestions", nil, &suggestions)
	if err != nil || printed {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Printf("No suggestions right now\n")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINSTITUTE\tSTATUS")
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Institute, s.Status)
	}
	return w.Flush()
}

// postAndConfirm posts payload and prints the server's message
func postAndConfirm(path string, payload interface{}) error {
	var result struct {
		Message string `json:"message"`
	}
	printed, err := decodeAPI(http.MethodPost, path, payload, &result)
	if err != nil || printed {
		return err
	}
	fmt.Printf("✓ %s\n", result.Message)
	return nil
}
