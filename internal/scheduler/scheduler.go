package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/timecard/internal/metrics"
	"github.com/crucial707/timecard/internal/repo"
	"github.com/robfig/cron/v3"
)

// sweepSchedule runs the open-timesheet sweep hourly, on the hour.
const sweepSchedule = "0 * * * *"

// Run starts the background sweep that flags timesheets still open (no end
// time) past maxAge. Findings are logged and exported as a gauge; the sweep
// never mutates rows. Blocks; run in a goroutine.
func Run(timesheetRepo *repo.TimesheetRepo, maxAge time.Duration) {
	c := cron.New()

	sweep := func() {
		cutoff := time.Now().Add(-maxAge)
		open, err := timesheetRepo.ListOpenBefore(context.Background(), cutoff)
		if err != nil {
			slog.Error("open timesheet sweep failed", "error", err)
			return
		}
		metrics.OpenTimesheetsStale.Set(float64(len(open)))
		if len(open) == 0 {
			return
		}
		for _, o := range open {
			slog.Warn("timesheet still open past cutoff",
				"timesheet_id", o.ID,
				"username", o.Username,
				"started_at", o.StartTime)
		}
		slog.Info("open timesheet sweep complete", "stale", len(open), "cutoff", cutoff)
	}

	if _, err := c.AddFunc(sweepSchedule, sweep); err != nil {
		slog.Error("scheduler: invalid sweep schedule", "error", err)
		return
	}

	// Run once at startup so the gauge is populated before the first tick.
	sweep()
	c.Run()
}
