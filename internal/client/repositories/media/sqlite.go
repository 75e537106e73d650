package media

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, kind models.MediaKind, uri string) (models.PendingMedia, error) {
	var idx int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO pending_media (kind, idx, uri)
		VALUES (?, (SELECT COALESCE(MAX(idx), -1) + 1 FROM pending_media WHERE kind = ?), ?)
		RETURNING idx
	`, string(kind), string(kind), uri).Scan(&idx)
	if err != nil {
		return models.PendingMedia{}, fmt.Errorf("failed to add %s: %w", kind, err)
	}
	return models.PendingMedia{Kind: kind, Index: idx, URI: uri}, nil
}

// List returns the staged media of kind in capture order; an empty kind
// lists everything.
func (r *SQLiteRepository) List(ctx context.Context, kind models.MediaKind) ([]models.PendingMedia, error) {
	q := `SELECT kind, idx, uri FROM pending_media ORDER BY kind, idx`
	args := []any{}
	if kind != "" {
		q = `SELECT kind, idx, uri FROM pending_media WHERE kind = ? ORDER BY idx`
		args = append(args, string(kind))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var result []models.PendingMedia
	for rows.Next() {
		var m models.PendingMedia
		var k string
		if err := rows.Scan(&k, &m.Index, &m.URI); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		m.Kind = models.MediaKind(k)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_media`); err != nil {
		return fmt.Errorf("failed to clear media: %w", err)
	}
	return nil
}
