package changelog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/crucial707/timecard/cmd/cli/api"
	"github.com/crucial707/timecard/cmd/cli/output"
	"github.com/crucial707/timecard/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Changelog
// ==========================
func InitChangelog(rootCmd *cobra.Command) {

	var (
		timesheetID int
		limit       int
	)

	changelogCmd := &cobra.Command{
		Use:   "changelog",
		Short: "List timesheet revision audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := api.NewClient()
			if err != nil {
				return err
			}

			entries, err := client.Changelogs(context.Background(), timesheetID, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No change log entries found.")
				return nil
			}

			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{
					e.ID,
					e.TimesheetID,
					e.ChangedByName,
					e.NumberOfChanges,
					formatChanges(e.Changes),
					e.ChangeReason,
					e.CreatedAt.Format("2006-01-02 15:04"),
				})
			}

			output.RenderTable(
				[]string{"ID", "Timesheet", "Changed By", "#", "Changes", "Reason", "When"},
				rows,
			)
			return nil
		},
	}

	changelogCmd.Flags().IntVar(&timesheetID, "timesheet", 0, "only entries for this timesheet")
	changelogCmd.Flags().IntVar(&limit, "limit", 50, "max entries to fetch")

	rootCmd.AddCommand(changelogCmd)
}

// formatChanges renders a diff as "field: old -> new" lines, one per field,
// in a stable order.
func formatChanges(d models.RevisionDiff) string {
	fields := make([]string, 0, len(d))
	for f := range d {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		c := d[f]
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", f, changeValue(c.Old), changeValue(c.New)))
	}
	return strings.Join(lines, "\n")
}

func changeValue(v any) string {
	if v == nil {
		return "(none)"
	}
	return fmt.Sprint(v)
}
