package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hrkit/hrclient/pkg/cache"
	"github.com/hrkit/hrclient/pkg/form"
	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/notify"
	"github.com/hrkit/hrclient/pkg/renderers/tui"
	"github.com/hrkit/hrclient/pkg/schemafix"
)

var (
	flagOffline  bool
	flagFixtures string
)

var newCmd = &cobra.Command{
	Use:   "new <record-type>",
	Short: "Create a record through an interactive form",
	Long: `Opens a metadata-driven form for the given record type, prompts for
every visible field and child table row, validates required fields and
saves the record. Types with a submission workflow are submitted after
the save.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recordType := args[0]
		ctx := cmd.Context()

		var (
			gw        form.Gateway
			search    tui.SearchFunc
			respCache *cache.Cache
		)
		if flagOffline {
			fixture, err := loadFixtures(ctx)
			if err != nil {
				return err
			}
			gw = fixture
			respCache = cache.New(cache.NewMemoryStore(), "hrctl", cache.WithLogger(log))
		} else {
			client, err := newGateway()
			if err != nil {
				return err
			}
			gw = client
			search = func(ctx context.Context, query, targetType string) []gateway.Candidate {
				return client.SearchLink(ctx, query, targetType, gateway.SearchOptions{ReferenceType: recordType})
			}
			respCache = newCache()
		}

		ctrl, err := form.NewController(form.Config{
			Gateway:  gw,
			Cache:    respCache,
			Notifier: notifier,
			Warnings: notify.SlogSink{Log: log},
			Logger:   log,
			UserID:   cfg.UserID,
		})
		if err != nil {
			return err
		}
		defer ctrl.Close()

		if err := ctrl.Open(ctx, form.OpenOptions{RecordType: recordType}); err != nil {
			return fmt.Errorf("open %s form: %w", recordType, err)
		}

		renderer := tui.New(tui.WithSearch(search))
		saved, err := renderer.Run(ctx, ctrl)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s %s created\n", recordType, saved.String("name"))
		return nil
	},
}

// loadFixtures builds the offline gateway from fixture documents.
func loadFixtures(ctx context.Context) (*schemafix.Fixture, error) {
	if flagFixtures == "" {
		return nil, fmt.Errorf("--offline requires --fixtures <dir>")
	}
	set := schemafix.NewSet()
	if err := set.LoadDir(ctx, os.DirFS(flagFixtures), "."); err != nil {
		return nil, err
	}
	return schemafix.NewFixture(set), nil
}

func init() {
	newCmd.Flags().BoolVar(&flagOffline, "offline", false, "run against fixture schemas instead of the backend")
	newCmd.Flags().StringVar(&flagFixtures, "fixtures", "", "directory of schema fixture documents")
	rootCmd.AddCommand(newCmd)
}
