package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle position of an ImportSession.
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateParsing     SessionState = "parsing"
	StateReconciling SessionState = "reconciling"
	StateDone        SessionState = "done"
	StateFailed      SessionState = "failed"
)

// SessionDeps are the collaborators an import session works against.
// Syncer and Guard are optional.
type SessionDeps struct {
	Roster      RosterSource
	Store       StoreRepository
	Syncer      Syncer
	Guard       *ImportGuard
	SyncTimeout time.Duration
}

// ImportSummary counts what happened to the rows of one file.
type ImportSummary struct {
	TotalRows   int `json:"total_rows"`
	Extracted   int `json:"extracted"`
	Matched     int `json:"matched"`
	Unmatched   int `json:"unmatched"`
	GuessedRows int `json:"guessed_rows"`
}

// SessionResult is what a finished session carries.
type SessionResult struct {
	SessionID string
	Kind      ImportKind
	FileName  string
	Store     *Store
	Roster    []RosterEntry
	Results   []MatchResult
	Unmatched []Record
	Summary   ImportSummary
	// NothingToImport is set when the file was readable but no row had an
	// identifier. The store is left untouched.
	NothingToImport bool
	Sync            *SyncStatus
}

// ImportSession runs one file through extraction and reconciliation.
// A session runs at most once; start a new one for every file.
type ImportSession struct {
	ID   string
	Kind ImportKind

	deps SessionDeps

	mu     sync.Mutex
	state  SessionState
	err    error
	result *SessionResult
}

func NewImportSession(kind ImportKind, deps SessionDeps) *ImportSession {
	return &ImportSession{
		ID:    uuid.NewString(),
		Kind:  kind,
		deps:  deps,
		state: StateIdle,
	}
}

func (s *ImportSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error a failed session ended with.
func (s *ImportSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ImportSession) Result() *SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *ImportSession) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *ImportSession) fail(err error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
	log.Printf("import_session: %s %s failed: %v", s.Kind.Name, s.ID, err)
	return err
}

// Run reads the workbook, reconciles it against the roster and the stored
// values, saves the merged store and starts a background sync of it.
// Only file-level problems fail the session; row-level problems are counted.
func (s *ImportSession) Run(ctx context.Context, r io.Reader, fileName string) (*SessionResult, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrSessionUsed
	}
	s.state = StateParsing
	s.mu.Unlock()

	if s.deps.Guard != nil {
		release, err := s.deps.Guard.Acquire(s.Kind.Name)
		if err != nil {
			return nil, s.fail(err)
		}
		defer release()
	}

	sheet, err := ReadWorkbook(r, fileName)
	if err != nil {
		return nil, s.fail(err)
	}
	roster, err := s.deps.Roster.LoadRoster(ctx)
	if err != nil {
		return nil, s.fail(fmt.Errorf("load roster: %w", err))
	}
	index, err := NewRosterIndex(roster)
	if err != nil {
		return nil, s.fail(err)
	}
	store, err := s.deps.Store.Load(ctx, s.Kind)
	if err != nil {
		return nil, s.fail(fmt.Errorf("load %s store: %w", s.Kind.Name, err))
	}
	records := ExtractRecords(sheet, s.Kind)

	res := &SessionResult{
		SessionID: s.ID,
		Kind:      s.Kind,
		FileName:  fileName,
		Store:     store,
		Roster:    index.Entries(),
		Summary: ImportSummary{
			TotalRows: len(sheet.Rows),
			Extracted: len(records),
		},
	}
	for _, rec := range records {
		if len(rec.Guessed) > 0 {
			res.Summary.GuessedRows++
		}
	}

	if len(records) == 0 {
		res.NothingToImport = true
		return s.finish(res), nil
	}

	s.setState(StateReconciling)
	outcome := Reconcile(records, index, store, s.Kind.Merge)
	res.Results = outcome.Results
	res.Unmatched = outcome.Unmatched
	res.Summary.Matched = outcome.MatchedCount
	res.Summary.Unmatched = outcome.UnmatchedCount

	if len(outcome.Touched) > 0 {
		if err := s.deps.Store.Save(ctx, store); err != nil {
			return nil, s.fail(fmt.Errorf("save %s store: %w", s.Kind.Name, err))
		}
		if s.deps.Syncer != nil {
			items := BuildSyncBatch(s.Kind, store, res.Roster)
			res.Sync = startSync(ctx, s.deps.Syncer, items, s.deps.SyncTimeout)
		}
	}
	return s.finish(res), nil
}

func (s *ImportSession) finish(res *SessionResult) *SessionResult {
	s.mu.Lock()
	s.state = StateDone
	s.result = res
	s.mu.Unlock()
	log.Printf("import_session: %s %s done: %d rows, %d matched, %d unmatched",
		s.Kind.Name, s.ID, res.Summary.TotalRows, res.Summary.Matched, res.Summary.Unmatched)
	return res
}
