package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const checkinMethod = "hrms.api.checkin"

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record an attendance check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return recordLog(cmd, "IN")
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Record an attendance check-out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return recordLog(cmd, "OUT")
	},
}

func recordLog(cmd *cobra.Command, logType string) error {
	client, err := newGateway()
	if err != nil {
		return err
	}

	result, err := client.Call(cmd.Context(), checkinMethod, map[string]any{
		"log_type": logType,
	})
	if err != nil {
		notifier.Error("Check-in failed. Please try again.")
		return err
	}

	label := "Checked in"
	if logType == "OUT" {
		label = "Checked out"
	}
	if name, ok := result["message"].(string); ok && name != "" {
		notifier.Success(fmt.Sprintf("%s (%s)", label, name))
	} else {
		notifier.Success(label)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkinCmd, checkoutCmd)
}
