// Package syncclient is the single connectivity-aware path for every
// backend mutation the client makes. Online calls go straight to the
// backend; offline calls that allow it land in the durable queue and are
// replayed by Flush once the backend is reachable again.
package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
)

var (
	// ErrOffline is returned for an operation that cannot be queued while
	// the backend is unreachable.
	ErrOffline = errors.New("offline")
	// ErrFlushRunning is returned when a flush is already replaying the queue.
	ErrFlushRunning = errors.New("flush already running")
)

// Operation describes one backend mutation.
type Operation struct {
	Kind    models.QueueKind
	Method  string
	Path    string
	Payload any
	// Files turns the request into a multipart upload of these local paths.
	Files     []string
	MediaKind models.MediaKind

	AllowOffline bool
	// OfflineID reuses an existing queue identity; a new one is minted when
	// empty.
	OfflineID string
	// Held queues the entry without making it replayable.
	Held bool
}

type Result struct {
	Body      []byte
	Queued    bool
	OfflineID string
}

// CommitFunc applies the local state transition of an operation. It runs in
// the same transaction as the enqueue of an offline operation.
type CommitFunc func(ctx context.Context, tx *state.State, res Result) error

// Reachability answers whether the backend can be reached right now.
type Reachability interface {
	Reachable(ctx context.Context) bool
}

type Client struct {
	api    client.API
	state  *state.State
	net    Reachability
	logger logging.Logger

	flushMu sync.Mutex
	now     func() time.Time
	newID   func() string
}

func New(api client.API, st *state.State, net Reachability, logger logging.Logger) *Client {
	return &Client{
		api:    api,
		state:  st,
		net:    net,
		logger: logger.With("module", "syncclient"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Online reports the reachability the client would act on.
func (c *Client) Online(ctx context.Context) bool {
	return c.net.Reachable(ctx)
}

func (c *Client) Execute(ctx context.Context, op Operation, commit CommitFunc) (Result, error) {
	sess, err := c.state.Session.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	payload, err := marshalPayload(op.Payload)
	if err != nil {
		return Result{}, err
	}

	if c.net.Reachable(ctx) {
		body, err := c.send(ctx, sess, op.Kind, op.Method, op.Path, payload, op.Files, op.MediaKind, "")
		if err != nil {
			return Result{}, err
		}
		res := Result{Body: body}
		if err := c.commit(ctx, res, commit); err != nil {
			c.logger.Error(ctx, "local commit failed after backend accepted request", "path", op.Path, "error", err)
			return Result{}, err
		}
		return res, nil
	}

	if !op.AllowOffline {
		return Result{}, ErrOffline
	}

	offlineID := op.OfflineID
	if offlineID == "" {
		offlineID = c.newID()
	}
	entry := &models.OfflineQueueEntry{
		OfflineID: offlineID,
		Kind:      op.Kind,
		Method:    op.Method,
		Path:      op.Path,
		Payload:   payload,
		ImageURIs: op.Files,
		Held:      op.Held,
		CreatedAt: c.now(),
	}
	res := Result{Queued: true, OfflineID: offlineID}

	err = c.state.WithTx(ctx, func(ctx context.Context, tx *state.State) error {
		if err := tx.Queue.Enqueue(ctx, entry); err != nil {
			return err
		}
		if commit != nil {
			return commit(ctx, tx, res)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("queue %s %s: %w", op.Method, op.Path, err)
	}

	c.logger.Info(ctx, "operation queued", "offline_id", offlineID, "kind", string(op.Kind), "path", op.Path)
	return res, nil
}

func (c *Client) commit(ctx context.Context, res Result, commit CommitFunc) error {
	if commit == nil {
		return nil
	}
	return c.state.WithTx(ctx, func(ctx context.Context, tx *state.State) error {
		return commit(ctx, tx, res)
	})
}

func (c *Client) send(ctx context.Context, sess *models.Session, kind models.QueueKind, method, path string,
	payload json.RawMessage, files []string, mediaKind models.MediaKind, idempotencyKey string) ([]byte, error) {

	if len(files) > 0 || kind == models.QueueKindImage || kind == models.QueueKindReceipt {
		if mediaKind == "" {
			mediaKind = mediaKindOf(kind)
		}
		return c.api.Upload(ctx, client.UploadRequest{
			Path:           path,
			Kind:           mediaKind,
			Files:          files,
			Session:        sess,
			IdempotencyKey: idempotencyKey,
		})
	}

	if method == "" {
		method = http.MethodPost
	}
	return c.api.Do(ctx, client.Request{
		Method:         method,
		Path:           path,
		Payload:        payload,
		Session:        sess,
		IdempotencyKey: idempotencyKey,
	})
}

func mediaKindOf(k models.QueueKind) models.MediaKind {
	if k == models.QueueKindReceipt {
		return models.MediaKindReceipt
	}
	return models.MediaKindImage
}

func marshalPayload(v any) (json.RawMessage, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return b, nil
}
