package diff

import (
	"strings"
	"time"

	"github.com/crucial707/timecard/internal/models"
)

// Result is the output of comparing two timesheet snapshots.
type Result struct {
	Changes         models.RevisionDiff `json:"changes"`
	NumberOfChanges int                 `json:"numberOfChanges"`
}

// timeLayouts are the representations a snapshot time may arrive in. Clients
// send ISO strings, but values read back from JSON blobs or older rows show up
// in other shapes; all are normalized before comparing.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"15:04",
}

// Compute compares an original and an edited snapshot and returns the sparse
// set of tracked-field changes. Pure: same inputs always give the same result.
// If either side is nil no diff can be computed and the result is empty.
//
// Times are canonicalized before comparison so that two representations of the
// same instant do not register as a change. Jobsite and cost code are compared
// by referenced id, but the recorded old/new values are the names, which is
// what a reader of the audit trail wants to see.
func Compute(original, edited *models.TimesheetSnapshot) Result {
	res := Result{Changes: models.RevisionDiff{}}
	if original == nil || edited == nil {
		return res
	}

	if canonTime(original.StartTime) != canonTime(edited.StartTime) {
		res.Changes[models.FieldStartTime] = models.FieldChange{
			Old: original.StartTime,
			New: edited.StartTime,
		}
	}

	if !equalOptTime(original.EndTime, edited.EndTime) {
		res.Changes[models.FieldEndTime] = models.FieldChange{
			Old: optString(original.EndTime),
			New: optString(edited.EndTime),
		}
	}

	if refID(original.Jobsite) != refID(edited.Jobsite) {
		res.Changes[models.FieldJobsite] = models.FieldChange{
			Old: refName(original.Jobsite),
			New: refName(edited.Jobsite),
		}
	}

	if refID(original.CostCode) != refID(edited.CostCode) {
		res.Changes[models.FieldCostCode] = models.FieldChange{
			Old: refName(original.CostCode),
			New: refName(edited.CostCode),
		}
	}

	res.NumberOfChanges = len(res.Changes)
	return res
}

// canonTime normalizes a time string to UTC RFC3339 when it parses under any
// known layout, and returns it trimmed but otherwise verbatim when it does not.
func canonTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339Nano)
		}
	}
	return s
}

func equalOptTime(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return canonTime(*a) == canonTime(*b)
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func refID(r *models.EntityRef) string {
	if r == nil {
		return ""
	}
	return r.ID
}

func refName(r *models.EntityRef) any {
	if r == nil {
		return nil
	}
	return r.Name
}
