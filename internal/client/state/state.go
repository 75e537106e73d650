package state

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sitecrew/internal/dbx"
)

// Persisted metadata keys.
const (
	KeyAuthToken         = "authToken"
	KeyUserID            = "userId"
	KeyUserEmail         = "userEmail"
	KeyUserName          = "userName"
	KeyUserRole          = "userRole"
	KeyEnforceGeofence   = "enforceGeofence"
	KeySelectedProject   = "selectedProject"
	KeySelectedWorkOrder = "selectedWorkOrder"
	KeyClockInData       = "ClockInData"
	KeyClockedIn         = "ClockedIn"
	KeyTimesheetID       = "timesheetId"
	KeySavedNotes        = "savedNotes"
	KeyFallDetected      = "fallDetected"
	KeyFallPending       = "fallPending"
	KeyProjects          = "projects"
)

type State struct {
	db *sql.DB

	Session  *SessionStore
	Clock    *ClockStateStore
	Projects *ProjectStore
	Media    *MediaStore
	Queue    *OfflineQueueStore
	Fall     *FallStore
}

// New builds a State over an opened cache database.
func New(db *sql.DB) *State {
	s := bind(db)
	s.db = db
	return s
}

// Open is InitDatabase followed by New.
func Open(ctx context.Context, dsn string) (*State, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func bind(db dbx.DBTX) *State {
	repos := NewSQLiteRepositories(db)
	return &State{
		Session:  &SessionStore{meta: repos.Metadata},
		Clock:    &ClockStateStore{meta: repos.Metadata, locations: repos.Locations},
		Projects: &ProjectStore{meta: repos.Metadata},
		Media:    &MediaStore{repo: repos.Media},
		Queue:    &OfflineQueueStore{repo: repos.Queue},
		Fall:     &FallStore{meta: repos.Metadata},
	}
}

// WithTx runs fn against stores bound to one transaction. Inside a
// transaction it just calls fn with the same State.
func (s *State) WithTx(ctx context.Context, fn func(ctx context.Context, tx *State) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
}

// Close releases the database. Transaction-bound States have nothing to close.
func (s *State) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
