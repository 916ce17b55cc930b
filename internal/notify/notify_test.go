package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRelay_RevisionSaved(t *testing.T) {
	var got multicastMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, "/timecards")
	relay.RevisionSaved(context.Background(), Revision{
		TimesheetID:     42,
		NumberOfChanges: 2,
		EditorName:      "Jane Doe",
		OwnerName:       "Walt Field",
	})

	if got.Topic != Topic {
		t.Errorf("topic: got %q, want %q", got.Topic, Topic)
	}
	if got.ReferenceID != "42" || got.Link != "/timecards/42" {
		t.Errorf("unexpected reference/link: %+v", got)
	}
	if got.Message != "Jane Doe made 2 change(s) to Walt Field's timesheet #42" {
		t.Errorf("unexpected message: %q", got.Message)
	}
}

// A failing endpoint must not panic or propagate: the save already committed.
func TestRelay_FailureSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, "/timecards")
	relay.RevisionSaved(context.Background(), Revision{TimesheetID: 1})
}

func TestRelay_NoEndpointConfigured(t *testing.T) {
	relay := NewRelay("", "/timecards")
	relay.RevisionSaved(context.Background(), Revision{TimesheetID: 1})

	var nilRelay *Relay
	nilRelay.RevisionSaved(context.Background(), Revision{TimesheetID: 1})
}
