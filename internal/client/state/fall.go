package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/metadata"
)

// PendingFall is a free-fall that has been seen but not yet confirmed by an
// impact.
type PendingFall struct {
	ID      string    `json:"id"`
	ArmedAt time.Time `json:"armedAt"`
}

type FallStore struct {
	meta metadata.Repository
}

// Arm stores ev unless another event is already pending. It reports whether
// ev was stored.
func (s *FallStore) Arm(ctx context.Context, ev PendingFall) (bool, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("failed to marshal pending fall: %w", err)
	}
	return s.meta.SetIfAbsent(ctx, KeyFallPending, b)
}

func (s *FallStore) Pending(ctx context.Context) (*PendingFall, error) {
	var ev PendingFall
	ok, err := getJSON(ctx, s.meta, KeyFallPending, &ev)
	if err != nil || !ok {
		return nil, err
	}
	return &ev, nil
}

// Take removes the pending event with id and reports whether this caller got
// it. Of several callers racing on the same event exactly one wins.
func (s *FallStore) Take(ctx context.Context, id string) (bool, error) {
	raw, err := s.meta.Get(ctx, KeyFallPending)
	if err != nil || raw == nil {
		return false, err
	}
	var ev PendingFall
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&ev); err != nil {
		return false, fmt.Errorf("%s: %w: %v", KeyFallPending, ErrCorrupt, err)
	}
	if ev.ID != id {
		return false, nil
	}
	return s.meta.CompareAndDelete(ctx, KeyFallPending, raw)
}

// Discard drops whatever event is pending.
func (s *FallStore) Discard(ctx context.Context) error {
	return s.meta.Delete(ctx, KeyFallPending)
}
