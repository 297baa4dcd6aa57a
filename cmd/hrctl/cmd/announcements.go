package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/richtext"
)

var (
	announcementType  string
	announcementLimit int
)

var announcementsCmd = &cobra.Command{
	Use:   "announcements",
	Short: "Show company announcements",
	Long: `Fetches announcement records and prints their bodies as plain text.
Announcement bodies arrive as HTML; markup is stripped and entities
decoded before display.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGateway()
		if err != nil {
			return err
		}

		records, err := client.List(cmd.Context(), announcementType, gateway.ListOptions{
			Fields:  []string{"name", "title", "description", "posted_on"},
			OrderBy: "posted_on desc",
			Limit:   announcementLimit,
		})
		if err != nil {
			return fmt.Errorf("list announcements: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No announcements")
			return nil
		}

		title := color.New(color.Bold)
		for _, record := range records {
			heading := record.String("title")
			if heading == "" {
				heading = record.String("name")
			}
			title.Println(heading)
			if posted := record.String("posted_on"); posted != "" {
				color.New(color.Faint).Println(posted)
			}
			if body := richtext.PlainText(record.String("description")); body != "" {
				fmt.Println(body)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	announcementsCmd.Flags().StringVar(&announcementType, "record-type", "HR Announcement", "announcement record type")
	announcementsCmd.Flags().IntVar(&announcementLimit, "limit", 10, "maximum announcements")
	rootCmd.AddCommand(announcementsCmd)
}
