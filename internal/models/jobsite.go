package models

// Jobsite is a work location a timesheet points to.
type Jobsite struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CostCode is a billing category scoped to a jobsite. Timesheets reference it
// by id but the revision workflow re-points it by name (its natural key).
type CostCode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	JobsiteID string `json:"jobsite_id"`
}
