package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatwarden/chatwarden/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show moderation status",
	Long:  "Show the moderation layer overview and the most recent security events",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := apiClient().Status()
		if err != nil {
			return fmt.Errorf("failed to fetch status: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(st)
		}

		autoMod := "disabled"
		if st.AutoModeration {
			autoMod = "enabled"
		}
		output.Info("Auto-moderation:  %s", autoMod)
		output.Info("Security level:   %s", st.SecurityLevel)
		output.Info("Threshold:        %d points", st.Threshold)
		output.Info("Tracked users:    %d", st.TrackedUsers)
		output.Info("Retained events:  %d", st.RetainedEvents)

		if len(st.RecentEvents) == 0 {
			output.Info("\nNo recent events")
			return nil
		}

		fmt.Println()
		table := output.NewTable([]string{"Time", "Type", "Level", "User", "Description"})
		for _, evt := range st.RecentEvents {
			table.AddRow([]string{
				evt.Timestamp.Format("2006-01-02 15:04:05"),
				string(evt.Type),
				string(evt.Level),
				evt.UserName,
				evt.Description,
			})
		}
		table.Render()
		return nil
	},
}
