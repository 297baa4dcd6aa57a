package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/gateway"
)

var (
	listLimit   int
	listOrderBy string
	listFields  []string
)

var listCmd = &cobra.Command{
	Use:   "list <record-type>",
	Short: "List records of a type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recordType := args[0]
		client, err := newGateway()
		if err != nil {
			return err
		}

		records, err := client.List(cmd.Context(), recordType, gateway.ListOptions{
			Fields:  listFields,
			OrderBy: listOrderBy,
			Limit:   listLimit,
		})
		if err != nil {
			return fmt.Errorf("list %s: %w", recordType, err)
		}
		if len(records) == 0 {
			fmt.Printf("No %s records found\n", recordType)
			return nil
		}

		columns := listFields
		if len(columns) == 0 {
			columns = collectColumns(records)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for i, col := range columns {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, col)
		}
		fmt.Fprintln(w)
		for _, record := range records {
			for i, col := range columns {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprintf(w, "%v", record[col])
			}
			fmt.Fprintln(w)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d record(s)\n", len(records))
		return nil
	},
}

// collectColumns derives a stable column set from the result rows, keeping
// name first when present.
func collectColumns(records []doctype.Document) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			seen[key] = true
		}
	}
	var columns []string
	for key := range seen {
		if key == "name" {
			continue
		}
		columns = append(columns, key)
	}
	sort.Strings(columns)
	if seen["name"] {
		columns = append([]string{"name"}, columns...)
	}
	return columns
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of records")
	listCmd.Flags().StringVar(&listOrderBy, "order-by", "", "server-side sort expression")
	listCmd.Flags().StringSliceVar(&listFields, "fields", nil, "attributes to request and display")
	rootCmd.AddCommand(listCmd)
}
