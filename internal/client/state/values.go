package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/metadata"
)

func getString(ctx context.Context, meta metadata.Repository, key string) (string, error) {
	v, err := meta.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func setString(ctx context.Context, meta metadata.Repository, key, value string) error {
	return meta.Set(ctx, key, []byte(value))
}

func getBool(ctx context.Context, meta metadata.Repository, key string) (bool, error) {
	v, err := meta.Get(ctx, key)
	if err != nil || v == nil {
		return false, err
	}
	b, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, ErrCorrupt)
	}
	return b, nil
}

func setBool(ctx context.Context, meta metadata.Repository, key string, value bool) error {
	return meta.Set(ctx, key, []byte(strconv.FormatBool(value)))
}

// getJSON decodes key into dst and reports whether the key was present.
func getJSON(ctx context.Context, meta metadata.Repository, key string, dst any) (bool, error) {
	v, err := meta.Get(ctx, key)
	if err != nil || v == nil {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("%s: %w: %v", key, ErrCorrupt, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, meta metadata.Repository, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return meta.Set(ctx, key, b)
}

func deleteKeys(ctx context.Context, meta metadata.Repository, keys ...string) error {
	for _, k := range keys {
		if err := meta.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
