package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatwarden/chatwarden/internal/cli/output"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent security events",
	Long:  "List recent security events, optionally filtered by event type",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventType, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := apiClient().Events(eventType, limit)
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(resp.Events)
		}

		if resp.Count == 0 {
			output.Info("No events found")
			return nil
		}

		table := output.NewTable([]string{"Time", "Type", "Level", "User", "Description"})
		for _, evt := range resp.Events {
			table.AddRow([]string{
				evt.Timestamp.Format("2006-01-02 15:04:05"),
				string(evt.Type),
				string(evt.Level),
				evt.UserName,
				evt.Description,
			})
		}
		table.Render()
		output.Info("\nShowing %d events", resp.Count)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event statistics",
	Long:  "Show aggregate counts of retained security events by type",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := apiClient().Stats()
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(st)
		}

		if st.TotalEvents == 0 {
			output.Info("No events recorded")
			return nil
		}

		table := output.NewTable([]string{"Type", "Count"})
		for _, tc := range st.TopTypes {
			table.AddRow([]string{string(tc.Type), fmt.Sprintf("%d", tc.Count)})
		}
		table.Render()
		output.Info("\n%d events total", st.TotalEvents)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload daemon configuration",
	Long:  "Ask the warden daemon to re-read its configuration from disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient().ReloadConfig()
		if err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}

		output.Success("Configuration reloaded")
		autoMod := "disabled"
		if resp.AutoModeration {
			autoMod = "enabled"
		}
		output.Info("Auto-moderation: %s, threshold: %d, level: %s",
			autoMod, resp.Threshold, resp.SecurityLevel)
		return nil
	},
}

func init() {
	logsCmd.Flags().String("type", "", "filter by event type (e.g. SPAM, INVITE_LINK)")
	logsCmd.Flags().Int("limit", 10, "maximum events to show (capped at 25)")
}
