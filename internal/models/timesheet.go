package models

import "time"

// EntityRef is a reference to a jobsite or cost code as seen by the editing UI.
type EntityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TimesheetSnapshot is the editable view of one timesheet at a point in time.
// Times travel as strings so a snapshot round-trips through JSON unchanged;
// parsing happens at the persistence boundary.
type TimesheetSnapshot struct {
	ID        int        `json:"id"`
	Comment   *string    `json:"comment"`
	StartTime string     `json:"startTime"`
	EndTime   *string    `json:"endTime"`
	Jobsite   *EntityRef `json:"jobsite"`
	CostCode  *EntityRef `json:"costCode"`
}

// Clone returns a deep copy so original and edited snapshots never alias.
func (s *TimesheetSnapshot) Clone() *TimesheetSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Comment != nil {
		c := *s.Comment
		out.Comment = &c
	}
	if s.EndTime != nil {
		e := *s.EndTime
		out.EndTime = &e
	}
	if s.Jobsite != nil {
		j := *s.Jobsite
		out.Jobsite = &j
	}
	if s.CostCode != nil {
		c := *s.CostCode
		out.CostCode = &c
	}
	return &out
}

// Timesheet is the persisted row.
type Timesheet struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	Comment    *string    `json:"comment"`
	JobsiteID  *string    `json:"jobsite_id"`
	CostCodeID *string    `json:"cost_code_id"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
