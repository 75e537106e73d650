package services

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/monitor"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/client/syncclient"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

type fakeNet struct{ online atomic.Bool }

func (f *fakeNet) Reachable(context.Context) bool { return f.online.Load() }

type fakeAPI struct {
	client.API

	mu       sync.Mutex
	requests []client.Request
	uploads  []client.UploadRequest

	respond     func(path string) ([]byte, error)
	loginResp   *client.LoginResponse
	loginErr    error
	projects    []models.Project
	projectsErr error
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*client.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Ping(ctx context.Context) error { return nil }

func (f *fakeAPI) Projects(ctx context.Context, sess *models.Session) ([]models.Project, error) {
	return f.projects, f.projectsErr
}

func (f *fakeAPI) Do(ctx context.Context, req client.Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(req.Path)
	}
	return []byte(`{}`), nil
}

func (f *fakeAPI) Upload(ctx context.Context, req client.UploadRequest) ([]byte, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, req)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(req.Path)
	}
	return []byte(`{}`), nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests) + len(f.uploads)
}

func (f *fakeAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		out = append(out, r.Path)
	}
	return out
}

type fixture struct {
	st      *state.State
	api     *fakeAPI
	net     *fakeNet
	sync    *syncclient.Client
	locator *monitor.StaticLocator
	clock   *ClockService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := state.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	f := &fixture{
		st:      st,
		api:     &fakeAPI{},
		net:     &fakeNet{},
		locator: monitor.NewStaticLocator(),
		now:     time.Date(2024, 5, 2, 7, 31, 12, 0, time.Local),
	}
	f.sync = syncclient.New(f.api, st, f.net, logging.Discard())
	f.clock = NewClockService(st, f.sync, f.locator, ClockConfig{
		LocationTimeout: time.Second,
		LocationMaxAge:  time.Hour,
		MediaDir:        t.TempDir(),
	}, logging.Discard())
	f.clock.now = func() time.Time { return f.now }

	n := 0
	f.clock.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return f
}

// login stores a session and a single project at (0, 0.0045) with work
// order w1, already selected.
func (f *fixture) login(t *testing.T, enforceGeofence bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.st.Session.Save(ctx, &models.Session{
		AuthToken: "tok", UserID: "u1", UserName: "Ann", EnforceGeofence: enforceGeofence,
	}))
	require.NoError(t, f.st.Projects.Save(ctx, []models.Project{{
		ID: "p1", Name: "Tower", Latitude: 0, Longitude: 0.0045,
		WorkOrders: []models.WorkOrder{{ID: "w1", Description: "Framing"}},
	}}))
	require.NoError(t, f.st.Clock.Select(ctx, "p1", "w1"))
}

func (f *fixture) respondClockIn() {
	f.api.respond = func(path string) ([]byte, error) {
		if path == client.PathClockIn {
			return []byte(`{"timesheetId":"ts-1"}`), nil
		}
		return []byte(`{}`), nil
	}
}
