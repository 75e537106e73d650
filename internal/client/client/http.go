package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/common"
)

// Backend paths.
const (
	PathLogin           = "/auth/login"
	PathHealth          = "/health"
	PathProjects        = "/projects"
	PathClockIn         = "/timesheets/clock-in"
	PathClockOut        = "/timesheets/clock-out"
	PathClockOutOffline = "/timesheets/clockOutOffline"
	PathCurrent         = "/timesheets/current"
	PathUpdateTimesheet = "/timesheets/update-timesheet"
)

// UploadImagesPath is the media endpoint of one timesheet.
func UploadImagesPath(timesheetID string) string {
	return "/timesheets/" + timesheetID + "/upload-images"
}

const maxErrorBody = 4 << 10

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient talks to baseURL (scheme and host, no trailing slash
// required). A nil hc means http.DefaultClient.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: PathLogin, Payload: body})
	if err != nil {
		return nil, err
	}

	var lr LoginResponse
	if err := Decode(resp, &lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathHealth})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *HTTPClient) Projects(ctx context.Context, sess *models.Session) ([]models.Project, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: PathProjects, Session: sess})
	if err != nil {
		return nil, err
	}
	return decodeProjects(resp)
}

func (c *HTTPClient) Do(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if len(req.Payload) > 0 {
		body = bytes.NewReader(req.Payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	setAuth(httpReq, req.Session, req.IdempotencyKey)

	return c.send(httpReq)
}

func (c *HTTPClient) Upload(ctx context.Context, req UploadRequest) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("kind", string(req.Kind)); err != nil {
		return nil, err
	}
	for _, path := range req.Files {
		if err := addFilePart(mw, path); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+req.Path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	setAuth(httpReq, req.Session, req.IdempotencyKey)

	return c.send(httpReq)
}

func addFilePart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile("images[]", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func setAuth(r *http.Request, sess *models.Session, idempotencyKey string) {
	if sess != nil {
		r.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+sess.AuthToken)
		r.Header.Set(common.UserIDHeaderName, sess.UserID)
	}
	if idempotencyKey != "" {
		r.Header.Set(common.IdempotencyKeyHeaderName, idempotencyKey)
	}
}

func (c *HTTPClient) send(r *http.Request) ([]byte, error) {
	resp, err := c.http.Do(r)
	if err != nil {
		return nil, c.mapError(r.Context(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return b, nil
}

// mapError turns a transport failure into ErrUnavailable unless the caller
// gave up.
func (c *HTTPClient) mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
