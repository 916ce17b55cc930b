// Package api is the CLI's HTTP client for the timecard service. It satisfies
// session.Store and session.Catalog so the edit session runs unchanged over
// the wire.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/crucial707/timecard/cmd/cli/config"
	"github.com/crucial707/timecard/internal/models"
	"github.com/crucial707/timecard/internal/repo"
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient builds a client from the locally cached login state.
func NewClient() (*Client, config.Auth, error) {
	auth, err := config.LoadAuth()
	if err != nil {
		return nil, auth, fmt.Errorf("please login first")
	}
	return &Client{
		BaseURL: config.APIURL(),
		Token:   auth.Token,
		HTTP:    http.DefaultClient,
	}, auth, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// Details implements session.Store.
func (c *Client) Details(ctx context.Context, id int) (models.TimesheetSnapshot, error) {
	var out struct {
		Timesheet models.TimesheetSnapshot `json:"timesheet"`
	}
	err := c.do(ctx, "GET", fmt.Sprintf("/v1/timesheets/%d/details", id), nil, &out)
	return out.Timesheet, err
}

// SaveRevision implements session.Store. The editor is implied by the bearer
// token server-side; in.EditorID is not sent.
func (c *Client) SaveRevision(ctx context.Context, in repo.RevisionInput) (repo.RevisionResult, error) {
	payload := map[string]any{
		"changes":         in.Changes,
		"changeReason":    in.ChangeReason,
		"numberOfChanges": in.NumberOfChanges,
		"startTime":       in.StartTime,
		"endTime":         in.EndTime,
		"jobsiteId":       in.JobsiteID,
		"costCode":        in.CostCodeName,
		"comment":         in.Comment,
	}

	var out struct {
		Success        bool                     `json:"success"`
		Timesheet      models.TimesheetSnapshot `json:"timesheet"`
		EditorLog      *models.ChangeLogEntry   `json:"editorLog"`
		UserFullname   string                   `json:"userFullname"`
		EditorFullName string                   `json:"editorFullName"`
	}
	err := c.do(ctx, "POST", fmt.Sprintf("/v1/timesheets/%d/revision", in.TimesheetID), payload, &out)
	if err != nil {
		return repo.RevisionResult{}, err
	}
	return repo.RevisionResult{
		Timesheet:      out.Timesheet,
		EditorLog:      out.EditorLog,
		UserFullName:   out.UserFullname,
		EditorFullName: out.EditorFullName,
	}, nil
}

// JobsiteSummary implements session.Catalog.
func (c *Client) JobsiteSummary(ctx context.Context) ([]models.Jobsite, error) {
	var out []models.Jobsite
	err := c.do(ctx, "GET", "/v1/jobsites", nil, &out)
	return out, err
}

// CostCodesByJobsite implements session.Catalog.
func (c *Client) CostCodesByJobsite(ctx context.Context, jobsiteID string) ([]models.CostCode, error) {
	var out []models.CostCode
	err := c.do(ctx, "GET", "/v1/costcodes?jobsiteId="+jobsiteID, nil, &out)
	return out, err
}

// Changelogs lists audit entries, optionally scoped to one timesheet.
func (c *Client) Changelogs(ctx context.Context, timesheetID, limit int) ([]models.ChangeLogEntry, error) {
	path := fmt.Sprintf("/v1/changelogs?limit=%d", limit)
	if timesheetID > 0 {
		path += fmt.Sprintf("&timesheetId=%d", timesheetID)
	}
	var out []models.ChangeLogEntry
	err := c.do(ctx, "GET", path, nil, &out)
	return out, err
}
