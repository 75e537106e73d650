package client

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
)

// Request is one JSON call on behalf of a session.
type Request struct {
	Method  string
	Path    string
	Payload json.RawMessage
	Session *models.Session
	// IdempotencyKey is sent as Idempotency-Key when set.
	IdempotencyKey string
}

// UploadRequest sends local files as multipart images[] with a kind field.
type UploadRequest struct {
	Path           string
	Kind           models.MediaKind
	Files          []string
	Session        *models.Session
	IdempotencyKey string
}

type API interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Ping(ctx context.Context) error
	Projects(ctx context.Context, sess *models.Session) ([]models.Project, error)
	// Do performs req and returns the body of a 2xx answer.
	Do(ctx context.Context, req Request) ([]byte, error)
	Upload(ctx context.Context, req UploadRequest) ([]byte, error)
}
