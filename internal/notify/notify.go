package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/timecard/internal/metrics"
)

// Topic is the multicast topic revision notifications are published under.
const Topic = "timecards-changes"

// Revision summarizes one saved revision for interested parties.
type Revision struct {
	TimesheetID     int
	NumberOfChanges int
	EditorName      string
	OwnerName       string
}

// multicastMessage is the wire payload of the notification endpoint.
type multicastMessage struct {
	Topic       string `json:"topic"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Link        string `json:"link"`
	ReferenceID string `json:"referenceId"`
}

// Relay delivers best-effort revision notifications to a multicast endpoint.
// Delivery failures are logged and counted, never returned to the save path:
// by the time a notification is attempted the revision has already committed.
type Relay struct {
	url      string
	linkBase string
	client   *http.Client
}

// NewRelay returns a relay posting to url. linkBase is prefixed to the
// timesheet id to build the notification link.
func NewRelay(url, linkBase string) *Relay {
	return &Relay{
		url:      url,
		linkBase: linkBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// RevisionSaved fires one notification and swallows any failure.
func (r *Relay) RevisionSaved(ctx context.Context, rev Revision) {
	if r == nil || r.url == "" {
		metrics.RecordNotification("skipped")
		return
	}
	if err := r.send(ctx, rev); err != nil {
		metrics.RecordNotification("failed")
		slog.Warn("revision notification failed",
			"timesheet_id", rev.TimesheetID,
			"error", err)
		return
	}
	metrics.RecordNotification("sent")
}

func (r *Relay) send(ctx context.Context, rev Revision) error {
	msg := multicastMessage{
		Topic: Topic,
		Title: "Timecard updated",
		Message: fmt.Sprintf("%s made %d change(s) to %s's timesheet #%d",
			rev.EditorName, rev.NumberOfChanges, rev.OwnerName, rev.TimesheetID),
		Link:        fmt.Sprintf("%s/%d", r.linkBase, rev.TimesheetID),
		ReferenceID: strconv.Itoa(rev.TimesheetID),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
