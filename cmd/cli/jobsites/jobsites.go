package jobsites

import (
	"context"

	"github.com/crucial707/timecard/cmd/cli/api"
	"github.com/crucial707/timecard/cmd/cli/output"
	"github.com/spf13/cobra"
)

// ==========================
// Init Jobsites
// ==========================
func InitJobsites(rootCmd *cobra.Command) {

	jobsitesCmd := &cobra.Command{
		Use:   "jobsites",
		Short: "List jobsites and their cost codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := api.NewClient()
			if err != nil {
				return err
			}

			sites, err := client.JobsiteSummary(context.Background())
			if err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(sites))
			for _, s := range sites {
				rows = append(rows, []interface{}{s.ID, s.Name})
			}
			output.RenderTable([]string{"ID", "Name"}, rows)
			return nil
		},
	}

	jobsitesCmd.AddCommand(costcodesCmd())
	rootCmd.AddCommand(jobsitesCmd)
}

func costcodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "costcodes <jobsite-id>",
		Short: "List the cost codes valid for one jobsite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := api.NewClient()
			if err != nil {
				return err
			}

			codes, err := client.CostCodesByJobsite(context.Background(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(codes))
			for _, c := range codes {
				rows = append(rows, []interface{}{c.ID, c.Name})
			}
			output.RenderTable([]string{"ID", "Name"}, rows)
			return nil
		},
	}
}
