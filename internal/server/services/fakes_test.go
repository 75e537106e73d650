package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
	"github.com/dmitrijs2005/sitecrew/internal/server/events"
	"github.com/dmitrijs2005/sitecrew/internal/server/models"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/images"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/projects"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/timesheets"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	getErr    error
	createErr error
	created   []*models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "new-user"
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- projects ---

type fakeProjectsRepo struct {
	list    []*models.Project
	listErr error
}

func (f *fakeProjectsRepo) ListForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	return f.list, f.listErr
}

func (f *fakeProjectsRepo) GetWorkOrder(ctx context.Context, projectID, workOrderID string) (*models.WorkOrder, error) {
	for _, p := range f.list {
		if p.ID != projectID {
			continue
		}
		for _, wo := range p.WorkOrders {
			if wo.ID == workOrderID {
				return &wo, nil
			}
		}
	}
	return nil, common.ErrorNotFound
}

// --- timesheets ---

type locKey struct {
	id        string
	at        time.Time
	emergency bool
}

// fakeTimesheetsRepo mirrors the Postgres constraints: one open timesheet
// per user, unique (user, offline id) and deduplicated trail points.
type fakeTimesheetsRepo struct {
	mu     sync.Mutex
	rows   []*models.Timesheet
	locs   map[string][]models.Location
	seen   map[locKey]bool
	nextID int
	failOn string
}

func newFakeTimesheetsRepo() *fakeTimesheetsRepo {
	return &fakeTimesheetsRepo{locs: map[string][]models.Location{}, seen: map[locKey]bool{}}
}

func (f *fakeTimesheetsRepo) fail(op string) error {
	if f.failOn == op {
		return errBoom{}
	}
	return nil
}

func (f *fakeTimesheetsRepo) openFor(userID string) *models.Timesheet {
	for _, r := range f.rows {
		if r.UserID == userID && r.End == nil {
			return r
		}
	}
	return nil
}

func (f *fakeTimesheetsRepo) insert(ts *models.Timesheet) error {
	if ts.End == nil && f.openFor(ts.UserID) != nil {
		return common.ErrorAlreadyExists
	}
	f.nextID++
	ts.ID = "ts-" + strconv.Itoa(f.nextID)
	cp := *ts
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeTimesheetsRepo) Create(ctx context.Context, ts *models.Timesheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create"); err != nil {
		return err
	}
	return f.insert(ts)
}

func (f *fakeTimesheetsRepo) UpsertOffline(ctx context.Context, ts *models.Timesheet) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("upsert"); err != nil {
		return false, err
	}
	for _, r := range f.rows {
		if r.UserID == ts.UserID && r.OfflineID != nil && *r.OfflineID == *ts.OfflineID {
			if r.End == nil && ts.End != nil {
				end := *ts.End
				r.End = &end
				r.Notes = ts.Notes
				r.UsePersonalVehicle = ts.UsePersonalVehicle
			}
			r.FallDetected = r.FallDetected || ts.FallDetected
			ts.ID = r.ID
			return false, nil
		}
	}
	if err := f.insert(ts); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeTimesheetsRepo) Resolve(ctx context.Context, userID, ref string) (*models.Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if r.ID == ref || (r.OfflineID != nil && *r.OfflineID == ref) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTimesheetsRepo) GetOpen(ctx context.Context, userID string) (*models.Timesheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.openFor(userID); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTimesheetsRepo) Close(ctx context.Context, ts *models.Timesheet) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == ts.ID && r.UserID == ts.UserID && r.End == nil {
			end := *ts.End
			r.End = &end
			r.Notes = ts.Notes
			r.UsePersonalVehicle = ts.UsePersonalVehicle
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTimesheetsRepo) MarkFallDetected(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			r.FallDetected = true
		}
	}
	return nil
}

func (f *fakeTimesheetsRepo) AppendLocations(ctx context.Context, id string, locs []models.Location) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("append"); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range locs {
		k := locKey{id: id, at: l.CapturedAt, emergency: l.IsEmergency}
		if f.seen[k] {
			continue
		}
		f.seen[k] = true
		l.TimesheetID = id
		f.locs[id] = append(f.locs[id], l)
		n++
	}
	return n, nil
}

func (f *fakeTimesheetsRepo) ListLocations(ctx context.Context, id string) ([]models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Location{}, f.locs[id]...), nil
}

func (f *fakeTimesheetsRepo) get(id string) *models.Timesheet {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			cp := *r
			return &cp
		}
	}
	return nil
}

// --- images ---

type fakeImagesRepo struct {
	created   []*models.Image
	createErr error
}

func (f *fakeImagesRepo) Create(ctx context.Context, img *models.Image) error {
	if f.createErr != nil {
		return f.createErr
	}
	img.ID = "img"
	f.created = append(f.created, img)
	return nil
}

func (f *fakeImagesRepo) ListByTimesheet(ctx context.Context, id string) ([]*models.Image, error) {
	return f.created, nil
}

// --- manager ---

type fakeRepoManager struct {
	u  *fakeUsersRepo
	p  *fakeProjectsRepo
	ts *fakeTimesheetsRepo
	im *fakeImagesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Projects(db dbx.DBTX) projects.Repository     { return m.p }
func (m *fakeRepoManager) Timesheets(db dbx.DBTX) timesheets.Repository { return m.ts }
func (m *fakeRepoManager) Images(db dbx.DBTX) images.Repository         { return m.im }

// --- media / events ---

type storedObject struct {
	key, contentType, body string
}

type fakeStore struct {
	objects []storedObject
	err     error
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if f.err != nil {
		return f.err
	}
	b, _ := io.ReadAll(body)
	f.objects = append(f.objects, storedObject{key: key, contentType: contentType, body: string(b)})
	return nil
}

type fakePublisher struct {
	events []events.FallDetectedEvent
	err    error
}

func (f *fakePublisher) PublishFallDetected(ctx context.Context, e events.FallDetectedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

var errNoFile = errors.New("no file")
