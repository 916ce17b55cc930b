package models

import "time"

// Tracked field names as they appear in a RevisionDiff.
const (
	FieldStartTime = "startTime"
	FieldEndTime   = "endTime"
	FieldJobsite   = "Jobsite"
	FieldCostCode  = "CostCode"
)

// FieldChange holds the old and new display value of one changed field.
// Values are nil for "was unset" (e.g. an endTime going from null to a value).
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// RevisionDiff maps a tracked field name to its change. Only fields whose
// value actually differs between the original and edited snapshot are present.
type RevisionDiff map[string]FieldChange

// ChangeLogEntry is one append-only audit record of a timesheet revision.
// Entries are written at most once per save and never updated or deleted.
type ChangeLogEntry struct {
	ID              int          `json:"id"`
	TimesheetID     int          `json:"timesheet_id"`
	ChangedBy       int          `json:"changed_by"`
	ChangedByName   string       `json:"changed_by_name"` // denormalized at write time
	Changes         RevisionDiff `json:"changes"`
	ChangeReason    string       `json:"change_reason"`
	NumberOfChanges int          `json:"number_of_changes"`
	CreatedAt       time.Time    `json:"created_at"`
}
