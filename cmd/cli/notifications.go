package main

import (
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/uniconnect/backend/internal/dto"
)

var notificationsCmd = &cobra.Command{
	Use:               "notifications",
	Short:             "Read your notifications",
	PersistentPreRunE: requireToken,
}

var listNotificationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List your newest notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNotifications()
	},
}

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show how many notifications are unread",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Count int64 `json:"count"`
		}
		printed, err := decodeAPI(http.MethodGet, "/api/notifications/unread-count", nil, &result)
		if err != nil || printed {
			return err
		}
		fmt.Printf("🔔 %d unread\n", result.Count)
		return nil
	},
}

var markReadCmd = &cobra.Command{
	Use:   "mark-read",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		printed, err := decodeAPI(http.MethodPut, "/api/notifications/mark-read", nil, nil)
		if err != nil || printed {
			return err
		}
		fmt.Printf("✓ All notifications marked as read\n")
		return nil
	},
}

func init() {
	notificationsCmd.AddCommand(listNotificationsCmd)
	notificationsCmd.AddCommand(unreadCmd)
	notificationsCmd.AddCommand(markReadCmd)
}

func listNotifications() error {
	var list []dto.NotificationResponse
	printed, err := decodeAPI(http.MethodGet, "/api/notifications", nil, &list)
	if err != nil || printed {
		return err
	}
	if len(list) == 0 {
		fmt.Printf("✓ No notifications\n")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tTYPE\tFROM\tMESSAGE\tWHEN")
	for _, n := range list {
		marker := "•"
		if n.IsRead {
			marker = " "
		}
		from := ""
		if n.Sender != nil {
			from = n.Sender.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			marker, n.Type, from, truncateString(n.Message, 50), n.CreatedAt.Format("Jan 2 15:04"))
	}
	return w.Flush()
}
