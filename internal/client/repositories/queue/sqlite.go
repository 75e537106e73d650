package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `offline_id, kind, method, path, payload, image_uris, held, attempts, last_error, created_at`

func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.OfflineQueueEntry) error {
	if e.OfflineID == "" {
		return fmt.Errorf("queue entry without offline id: %w", common.ErrorValidation)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("queue entry kind %q: %w", e.Kind, common.ErrorValidation)
	}

	uris := e.ImageURIs
	if uris == nil {
		uris = []string{}
	}
	urisJSON, err := json.Marshal(uris)
	if err != nil {
		return fmt.Errorf("failed to marshal image uris: %w", err)
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	held := 0
	if e.Held {
		held = 1
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO offline_queue (offline_id, kind, method, path, payload, image_uris, held, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(offline_id) DO UPDATE SET
			kind       = excluded.kind,
			method     = excluded.method,
			path       = excluded.path,
			payload    = excluded.payload,
			image_uris = excluded.image_uris,
			held       = excluded.held,
			attempts   = excluded.attempts,
			last_error = excluded.last_error
	`, e.OfflineID, string(e.Kind), e.Method, e.Path, []byte(e.Payload), string(urisJSON),
		held, e.Attempts, e.LastError, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert queue entry[%s]: %w", e.OfflineID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, offlineID string) (*models.OfflineQueueEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM offline_queue WHERE offline_id = ?`, offlineID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry[%s]: %w", offlineID, err)
	}
	return e, nil
}

func (r *SQLiteRepository) List(ctx context.Context, kind models.QueueKind) ([]*models.OfflineQueueEntry, error) {
	if kind == "" {
		return r.query(ctx, `SELECT `+selectColumns+` FROM offline_queue ORDER BY seq`)
	}
	return r.query(ctx, `SELECT `+selectColumns+` FROM offline_queue WHERE kind = ? ORDER BY seq`, string(kind))
}

func (r *SQLiteRepository) ListReady(ctx context.Context) ([]*models.OfflineQueueEntry, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM offline_queue WHERE held = 0 ORDER BY seq`)
}

func (r *SQLiteRepository) Delete(ctx context.Context, offlineID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE offline_id = ?`, offlineID)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry[%s]: %w", offlineID, err)
	}
	return nil
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, offlineID string, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE offline_queue SET attempts = attempts + 1, last_error = ?
		WHERE offline_id = ?
	`, reason, offlineID)
	if err != nil {
		return fmt.Errorf("failed to record failure for queue entry[%s]: %w", offlineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (map[models.QueueKind]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM offline_queue GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue entries: %w", err)
	}
	defer rows.Close()

	result := make(map[models.QueueKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan queue count: %w", err)
		}
		result[models.QueueKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue counts: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]*models.OfflineQueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	var result []*models.OfflineQueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue entries: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.OfflineQueueEntry, error) {
	var (
		e         models.OfflineQueueEntry
		kind      string
		payload   []byte
		uris      string
		held      int
		createdAt string
	)
	if err := s.Scan(&e.OfflineID, &kind, &e.Method, &e.Path, &payload, &uris,
		&held, &e.Attempts, &e.LastError, &createdAt); err != nil {
		return nil, err
	}

	e.Kind = models.QueueKind(kind)
	e.Held = held != 0
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	if strings.TrimSpace(uris) != "" {
		if err := json.Unmarshal([]byte(uris), &e.ImageURIs); err != nil {
			return nil, fmt.Errorf("image uris: %w", err)
		}
	}
	if len(e.ImageURIs) == 0 {
		e.ImageURIs = nil
	}

	var err error
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("created_at %q: %w", createdAt, err)
	}
	return &e, nil
}
