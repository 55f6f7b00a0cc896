package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatwarden/chatwarden/internal/cli/client"
	"github.com/chatwarden/chatwarden/internal/cli/output"
	"github.com/chatwarden/chatwarden/internal/service"
)

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID %q", arg)
	}
	return id, nil
}

func printReport(cmd *cobra.Command, rep *service.UserReport) error {
	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		return output.JSON(rep)
	}

	name := rep.UserName
	if name == "" {
		name = fmt.Sprintf("user %d", rep.UserID)
	}

	switch rep.Rating {
	case service.RatingDangerous:
		output.Error("%s: DANGEROUS (%d points)", name, rep.TotalPoints)
	case service.RatingSuspicious:
		output.Warn("%s: suspicious (%d points)", name, rep.TotalPoints)
	default:
		output.Success("%s: safe (%d points)", name, rep.TotalPoints)
	}

	if len(rep.RecentReasons) > 0 {
		output.Info("Recent reasons: %s", strings.Join(rep.RecentReasons, ", "))
	}
	return nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [user-id]",
	Short: "Scan a user's suspicion standing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		rep, err := apiClient().ScanUser(userID)
		if err != nil {
			return fmt.Errorf("failed to scan user: %w", err)
		}
		return printReport(cmd, rep)
	},
}

var warnCmd = &cobra.Command{
	Use:   "warn [user-id]",
	Short: "Issue a manual warning",
	Long:  "Issue a manual warning against a user and add suspicion points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		reason, _ := cmd.Flags().GetString("reason")

		rep, err := apiClient().Warn(userID, &client.WarnRequest{
			UserName: name,
			Reason:   reason,
		})
		if err != nil {
			return fmt.Errorf("failed to warn user: %w", err)
		}

		output.Success("Warning issued to user %d", userID)
		return printReport(cmd, rep)
	},
}

var timeoutCmd = &cobra.Command{
	Use:   "timeout [user-id]",
	Short: "Issue a manual timeout",
	Long:  "Mute a user for a number of minutes and add suspicion points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		minutes, _ := cmd.Flags().GetInt("minutes")
		name, _ := cmd.Flags().GetString("name")
		reason, _ := cmd.Flags().GetString("reason")

		rep, err := apiClient().Timeout(userID, &client.TimeoutRequest{
			UserName:        name,
			DurationMinutes: minutes,
			Reason:          reason,
		})
		if err != nil {
			return fmt.Errorf("failed to timeout user: %w", err)
		}

		output.Success("Timeout issued to user %d for %d minutes", userID, minutes)
		return printReport(cmd, rep)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [user-id]",
	Short: "Clear a user's suspicion record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		resp, err := apiClient().ClearSuspicion(userID)
		if err != nil {
			return fmt.Errorf("failed to clear suspicion: %w", err)
		}

		if resp.Cleared {
			output.Success("Cleared suspicion record for user %d", userID)
		} else {
			output.Info("User %d had no suspicion record", userID)
		}
		return nil
	},
}

func init() {
	warnCmd.Flags().String("name", "", "user display name")
	warnCmd.Flags().String("reason", "", "reason for the warning")

	timeoutCmd.Flags().Int("minutes", 10, "timeout duration in minutes")
	timeoutCmd.Flags().String("name", "", "user display name")
	timeoutCmd.Flags().String("reason", "", "reason for the timeout")
}
