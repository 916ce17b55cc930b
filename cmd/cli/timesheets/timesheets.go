package timesheets

import (
	"context"
	"fmt"
	"strconv"

	"github.com/crucial707/timecard/cmd/cli/api"
	"github.com/crucial707/timecard/cmd/cli/output"
	"github.com/crucial707/timecard/internal/models"
	"github.com/crucial707/timecard/internal/session"
	"github.com/spf13/cobra"
)

// ==========================
// Init Timesheets
// ==========================
func InitTimesheets(rootCmd *cobra.Command) {

	timesheetsCmd := &cobra.Command{
		Use:   "timesheets",
		Short: "Inspect and revise timesheets",
	}

	timesheetsCmd.AddCommand(
		showCmd(),
		reviseCmd(),
	)

	rootCmd.AddCommand(timesheetsCmd)
}

// ==========================
// SHOW
// ==========================
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one timesheet's editable snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid timesheet id %q", args[0])
			}

			client, _, err := api.NewClient()
			if err != nil {
				return err
			}

			snap, err := client.Details(context.Background(), id)
			if err != nil {
				return err
			}

			output.RenderTable(
				[]string{"Field", "Value"},
				[][]interface{}{
					{"ID", snap.ID},
					{"Start", snap.StartTime},
					{"End", orDash(snap.EndTime)},
					{"Jobsite", refOrDash(snap.Jobsite)},
					{"Cost code", refOrDash(snap.CostCode)},
					{"Comment", orDash(snap.Comment)},
				},
			)
			return nil
		},
	}
}

// ==========================
// REVISE
// ==========================
func reviseCmd() *cobra.Command {

	var (
		start    string
		end      string
		jobsite  string
		costCode string
		comment  string
		reason   string
	)

	cmd := &cobra.Command{
		Use:   "revise <id>",
		Short: "Revise a timesheet with an audit trail",
		Long: `Open an edit session for a timesheet, apply the given field changes,
and save. Changed tracked fields (start, end, jobsite, cost code) are recorded
in the timesheet's change log; --reason is always required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid timesheet id %q", args[0])
			}
			if reason == "" {
				return fmt.Errorf("--reason is required")
			}

			client, auth, err := api.NewClient()
			if err != nil {
				return err
			}

			ctx := context.Background()
			sess, err := session.New(ctx, client, id, auth.UserID,
				session.WithCatalog(client), session.WithQuiet(0))
			if err != nil {
				return err
			}

			sess.SetEdited(ctx, func(d *models.TimesheetSnapshot) {
				if start != "" {
					d.StartTime = start
				}
				if end != "" {
					d.EndTime = &end
				}
				if comment != "" {
					d.Comment = &comment
				}
				if jobsite != "" {
					for _, j := range sess.Jobsites() {
						if j.ID == jobsite || j.Name == jobsite {
							d.Jobsite = &models.EntityRef{ID: j.ID, Name: j.Name}
							break
						}
					}
				}
			})

			// Cost codes are scoped to the draft's jobsite, so resolve the
			// name after any jobsite change has refreshed the pick list.
			if costCode != "" {
				var ref *models.EntityRef
				for _, c := range sess.CostCodes() {
					if c.Name == costCode {
						ref = &models.EntityRef{ID: c.ID, Name: c.Name}
						break
					}
				}
				if ref == nil {
					return fmt.Errorf("cost code %q not valid for the selected jobsite", costCode)
				}
				sess.SetEdited(ctx, func(d *models.TimesheetSnapshot) {
					d.CostCode = ref
				})
			}

			sess.SetChangeReason(reason)
			out := sess.Save(ctx)
			if !out.Success {
				return fmt.Errorf("save failed: %s", out.Error)
			}

			fmt.Printf("Saved. %d tracked change(s) recorded", out.NumberOfChanges)
			if out.Result != nil && out.Result.EditorLog != nil {
				fmt.Printf(" (change log entry #%d)", out.Result.EditorLog.ID)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().StringVar(&start, "start", "", "new start time (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "new end time (RFC3339)")
	cmd.Flags().StringVar(&jobsite, "jobsite", "", "re-point to jobsite (id or name)")
	cmd.Flags().StringVar(&costCode, "costcode", "", "re-point to cost code (name)")
	cmd.Flags().StringVar(&comment, "comment", "", "replace the comment")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the change (required)")

	return cmd
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func refOrDash(r *models.EntityRef) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.ID)
}
