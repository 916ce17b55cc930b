package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/timecard/internal/models"
)

// ==========================
// JobsiteRepo
// ==========================

type JobsiteRepo struct {
	DB *sql.DB
}

func NewJobsiteRepo(db *sql.DB) *JobsiteRepo {
	return &JobsiteRepo{DB: db}
}

// Summary lists all jobsites ordered by name, for the editing UI's picker.
func (r *JobsiteRepo) Summary(ctx context.Context) ([]models.Jobsite, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM jobsites ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []models.Jobsite
	for rows.Next() {
		var j models.Jobsite
		if err := rows.Scan(&j.ID, &j.Name); err != nil {
			return nil, err
		}
		sites = append(sites, j)
	}
	return sites, rows.Err()
}

// ==========================
// CostCodeRepo
// ==========================

type CostCodeRepo struct {
	DB *sql.DB
}

func NewCostCodeRepo(db *sql.DB) *CostCodeRepo {
	return &CostCodeRepo{DB: db}
}

// ListByJobsite lists the cost codes valid for one jobsite, ordered by name.
func (r *CostCodeRepo) ListByJobsite(ctx context.Context, jobsiteID string) ([]models.CostCode, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, jobsite_id FROM cost_codes WHERE jobsite_id = $1 ORDER BY name`,
		jobsiteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []models.CostCode
	for rows.Next() {
		var c models.CostCode
		if err := rows.Scan(&c.ID, &c.Name, &c.JobsiteID); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
