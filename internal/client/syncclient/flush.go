package syncclient

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sitecrew/internal/client/client"
)

type FlushReport struct {
	Sent      int
	Failed    int
	Remaining int
	// Stopped is set when the flush gave up because the backend went away.
	Stopped bool
}

// Flush replays every replayable queue entry in creation order. Each request
// carries the entry's offline id as Idempotency-Key. Sent entries are
// removed; failed ones stay with their attempt count and last error.
func (c *Client) Flush(ctx context.Context) (FlushReport, error) {
	var report FlushReport

	if !c.flushMu.TryLock() {
		return report, ErrFlushRunning
	}
	defer c.flushMu.Unlock()

	sess, err := c.state.Session.Load(ctx)
	if err != nil {
		return report, err
	}

	entries, err := c.state.Queue.Ready(ctx)
	if err != nil {
		return report, err
	}
	if len(entries) == 0 {
		return report, nil
	}

	if !c.net.Reachable(ctx) {
		report.Stopped = true
		report.Remaining = len(entries)
		return report, nil
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			report.Remaining = len(entries) - report.Sent
			return report, err
		}

		_, err := c.send(ctx, sess, e.Kind, e.Method, e.Path, e.Payload, e.ImageURIs, "", e.OfflineID)
		if err == nil {
			if err := c.state.Queue.Remove(ctx, e.OfflineID); err != nil {
				return report, err
			}
			report.Sent++
			c.logger.Info(ctx, "queued operation replayed", "offline_id", e.OfflineID, "path", e.Path)
			continue
		}

		report.Failed++
		c.logger.Warn(ctx, "replay failed", "offline_id", e.OfflineID, "path", e.Path, "error", err)
		if rerr := c.state.Queue.Fail(ctx, e.OfflineID, err); rerr != nil {
			return report, rerr
		}

		if errors.Is(err, client.ErrUnavailable) || errors.Is(err, client.ErrUnauthorized) || ctx.Err() != nil {
			report.Stopped = true
			report.Remaining = len(entries) - report.Sent
			return report, nil
		}
	}

	report.Remaining = len(entries) - report.Sent
	return report, nil
}
