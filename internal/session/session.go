package session

import (
	"context"
	"sync"
	"time"

	"github.com/crucial707/timecard/internal/diff"
	"github.com/crucial707/timecard/internal/models"
	"github.com/crucial707/timecard/internal/notify"
	"github.com/crucial707/timecard/internal/repo"
)

// Store is the persistence surface an edit session needs. *repo.TimesheetRepo
// satisfies it directly; the CLI satisfies it over HTTP.
type Store interface {
	Details(ctx context.Context, id int) (models.TimesheetSnapshot, error)
	SaveRevision(ctx context.Context, in repo.RevisionInput) (repo.RevisionResult, error)
}

// Catalog supplies the pick lists the editing UI offers: all jobsites once,
// and the cost codes valid for the currently selected jobsite.
type Catalog interface {
	JobsiteSummary(ctx context.Context) ([]models.Jobsite, error)
	CostCodesByJobsite(ctx context.Context, jobsiteID string) ([]models.CostCode, error)
}

// Notifier fires the best-effort post-save notification.
type Notifier interface {
	RevisionSaved(ctx context.Context, n notify.Revision)
}

// DefaultQuiet is the quiescence window of the guarded setter. Edits arriving
// closer together than this are suppressed to avoid redundant recomputation
// downstream; this is defensive, not a correctness requirement.
const DefaultQuiet = 150 * time.Millisecond

// EditSession holds the original (last-saved truth) and edited (in-progress
// draft) snapshots for one timesheet. All methods are safe for concurrent use.
type EditSession struct {
	mu sync.Mutex

	timesheetID int
	editorID    int

	changeReason string
	original     *models.TimesheetSnapshot
	edited       *models.TimesheetSnapshot

	jobsites  []models.Jobsite
	costCodes []models.CostCode

	lastEdit time.Time
	quiet    time.Duration

	store   Store
	catalog Catalog
	notify  Notifier
}

// Option configures an EditSession.
type Option func(*EditSession)

// WithQuiet overrides the setter's quiescence window.
func WithQuiet(d time.Duration) Option {
	return func(s *EditSession) { s.quiet = d }
}

// WithCatalog makes the session load jobsite and cost-code pick lists.
func WithCatalog(c Catalog) Option {
	return func(s *EditSession) { s.catalog = c }
}

// WithNotifier makes Save fire a best-effort notification after a successful
// revision. Leave unset when the store already notifies post-commit.
func WithNotifier(n Notifier) Option {
	return func(s *EditSession) { s.notify = n }
}

// New opens an edit session for one timesheet: it fetches the current snapshot,
// seeds both original and edited with it, and loads the pick lists when a
// catalog is configured. The editor identity is an explicit dependency.
func New(ctx context.Context, store Store, timesheetID, editorID int, opts ...Option) (*EditSession, error) {
	s := &EditSession{
		timesheetID: timesheetID,
		editorID:    editorID,
		quiet:       DefaultQuiet,
		store:       store,
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := store.Details(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	s.original = snap.Clone()
	s.edited = snap.Clone()

	if s.catalog != nil {
		if s.jobsites, err = s.catalog.JobsiteSummary(ctx); err != nil {
			return nil, err
		}
		if snap.Jobsite != nil {
			if s.costCodes, err = s.catalog.CostCodesByJobsite(ctx, snap.Jobsite.ID); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Original returns a copy of the last-saved snapshot.
func (s *EditSession) Original() *models.TimesheetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original.Clone()
}

// Edited returns a copy of the in-progress draft.
func (s *EditSession) Edited() *models.TimesheetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edited.Clone()
}

// Jobsites returns the jobsite pick list loaded at session start.
func (s *EditSession) Jobsites() []models.Jobsite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Jobsite(nil), s.jobsites...)
}

// CostCodes returns the cost codes valid for the draft's current jobsite.
func (s *EditSession) CostCodes() []models.CostCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CostCode(nil), s.costCodes...)
}

// SetChangeReason records the free-text reason required before saving.
func (s *EditSession) SetChangeReason(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeReason = reason
}

// SetEdited applies update to the draft. Updates arriving within the quiescence
// window of the previous one are suppressed and reported with false. When the
// update re-points the jobsite, the cost-code pick list is refetched.
func (s *EditSession) SetEdited(ctx context.Context, update func(*models.TimesheetSnapshot)) bool {
	s.mu.Lock()
	now := time.Now()
	if now.Sub(s.lastEdit) < s.quiet {
		s.mu.Unlock()
		return false
	}
	s.lastEdit = now

	prevJobsite := ""
	if s.edited.Jobsite != nil {
		prevJobsite = s.edited.Jobsite.ID
	}
	draft := s.edited.Clone()
	update(draft)
	s.edited = draft

	newJobsite := ""
	if draft.Jobsite != nil {
		newJobsite = draft.Jobsite.ID
	}
	catalog := s.catalog
	s.mu.Unlock()

	if catalog != nil && newJobsite != "" && newJobsite != prevJobsite {
		codes, err := catalog.CostCodesByJobsite(ctx, newJobsite)
		if err == nil {
			s.mu.Lock()
			s.costCodes = codes
			s.mu.Unlock()
		}
	}
	return true
}

// Reset discards the draft: edited becomes a copy of original again.
func (s *EditSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edited = s.original.Clone()
}

// SaveOutcome is the tagged result of Save. No error ever escapes Save
// uncaught; failures land here and the draft is retained for retry.
type SaveOutcome struct {
	Success         bool
	Error           string
	NumberOfChanges int
	Result          *repo.RevisionResult
}

// Save computes the diff against the original, submits the revision, and on
// success advances original to the draft and fires the notifier (best-effort).
func (s *EditSession) Save(ctx context.Context) SaveOutcome {
	s.mu.Lock()
	original := s.original.Clone()
	edited := s.edited.Clone()
	reason := s.changeReason
	editorID := s.editorID
	s.mu.Unlock()

	if editorID == 0 {
		return SaveOutcome{Error: "No user detected"}
	}
	if reason == "" {
		return SaveOutcome{Error: repo.ErrChangeReasonRequired.Error()}
	}

	d := diff.Compute(original, edited)

	in := repo.RevisionInput{
		TimesheetID:     edited.ID,
		EditorID:        editorID,
		ChangeReason:    reason,
		StartTime:       edited.StartTime,
		Changes:         d.Changes,
		NumberOfChanges: d.NumberOfChanges,
	}
	if edited.EndTime != nil {
		in.EndTime = *edited.EndTime
	}
	if edited.Comment != nil {
		in.Comment = *edited.Comment
	}
	if edited.Jobsite != nil {
		in.JobsiteID = edited.Jobsite.ID
	}
	if edited.CostCode != nil {
		in.CostCodeName = edited.CostCode.Name
	}

	res, err := s.store.SaveRevision(ctx, in)
	if err != nil {
		// Draft stays as-is so the user can retry without re-entering fields.
		return SaveOutcome{Error: err.Error(), NumberOfChanges: d.NumberOfChanges}
	}

	s.mu.Lock()
	s.original = edited.Clone()
	s.mu.Unlock()

	if s.notify != nil {
		s.notify.RevisionSaved(ctx, notify.Revision{
			TimesheetID:     edited.ID,
			NumberOfChanges: d.NumberOfChanges,
			EditorName:      res.EditorFullName,
			OwnerName:       res.UserFullName,
		})
	}

	return SaveOutcome{Success: true, NumberOfChanges: d.NumberOfChanges, Result: &res}
}
