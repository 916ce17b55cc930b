package main

import (
	"fmt"
	"os"

	"github.com/crucial707/timecard/cmd/cli/auth"
	"github.com/crucial707/timecard/cmd/cli/changelog"
	"github.com/crucial707/timecard/cmd/cli/jobsites"
	"github.com/crucial707/timecard/cmd/cli/root"
	"github.com/crucial707/timecard/cmd/cli/timesheets"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	timesheets.InitTimesheets(rootCmd)
	changelog.InitChangelog(rootCmd)
	jobsites.InitJobsites(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
