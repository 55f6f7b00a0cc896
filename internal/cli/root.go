// Package cli implements the wardenctl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/chatwarden/chatwarden/internal/cli/client"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "wardenctl",
	Short: "Warden moderation CLI",
	Long: `wardenctl is the command-line interface for the warden moderation daemon.

Inspect moderation status, scan users, query the security event log,
and issue manual moderation actions from your terminal.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "warden daemon base URL")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(warnCmd)
	rootCmd.AddCommand(timeoutCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(reloadCmd)
}

func apiClient() *client.Client {
	return client.New(serverURL)
}
