package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:5000"
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "uniconnect",
	Short: "UniConnect CLI - operate the backend and your account",
	Long: `UniConnect CLI provides administrative commands for the backend
(migrations, seed data, cache maintenance) and command-line access to
your UniConnect profile, network and notifications.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to UNICONNECT_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(notificationsCmd)
}

// requireToken is the PersistentPreRunE of commands that call the API
func requireToken(cmd *cobra.Command, args []string) error {
	if authToken == "" {
		authToken = os.Getenv("UNICONNECT_TOKEN")
	}
	if authToken == "" {
		return fmt.Errorf("UNICONNECT_TOKEN environment variable not set (export UNICONNECT_TOKEN=<your-token>)")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
