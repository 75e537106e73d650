package syncclient

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

type fakeNet struct{ online atomic.Bool }

func (f *fakeNet) Reachable(context.Context) bool { return f.online.Load() }

// fakeAPI records every request; respond decides the answer per path.
type fakeAPI struct {
	client.API

	mu       sync.Mutex
	requests []client.Request
	uploads  []client.UploadRequest
	respond  func(path string) ([]byte, error)
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

func newFixture(t *testing.T, loggedIn bool) (*Client, *fakeAPI, *fakeNet, *state.State) {
	t.Helper()
	st, err := state.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if loggedIn {
		require.NoError(t, st.Session.Save(context.Background(), &models.Session{AuthToken: "tok", UserID: "u1"}))
	}

	api := &fakeAPI{}
	net := &fakeNet{}
	c := New(api, st, net, logging.Discard())

	var n atomic.Int32
	c.newID = func() string {
		return "off-" + string(rune('a'+n.Add(1)-1))
	}
	return c, api, net, st
}
