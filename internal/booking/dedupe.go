package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper guards against webhook redelivery creating duplicate jobs. The
// primary guard is an idempotency key on the upstream call id, claimed with
// SETNX before any job is created; the platform lookback in the orchestrator
// remains as a second net for events arriving without a call id.
type Deduper struct {
	client *redis.Client
	window time.Duration
}

// NewDeduper creates a deduper. A zero window defaults to 5 minutes.
func NewDeduper(client *redis.Client, window time.Duration) *Deduper {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Deduper{client: client, window: window}
}

// Window returns the lookback duration shared with the platform-side check.
func (d *Deduper) Window() time.Duration {
	return d.window
}

// Claim atomically claims the call id for this booking attempt. It returns
// false when another attempt already holds the claim. An empty call id or a
// Redis failure claims nothing and returns true, degrading to the lookback
// check alone.
func (d *Deduper) Claim(ctx context.Context, callID string) (bool, error) {
	if d == nil || d.client == nil || callID == "" {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, d.key(callID), time.Now().UTC().Format(time.RFC3339), d.window).Result()
	if err != nil {
		return true, fmt.Errorf("booking: dedupe claim: %w", err)
	}
	return ok, nil
}

// Release drops a claim so a failed attempt can be retried by a later
// redelivery.
func (d *Deduper) Release(ctx context.Context, callID string) {
	if d == nil || d.client == nil || callID == "" {
		return
	}
	d.client.Del(ctx, d.key(callID))
}

func (d *Deduper) key(callID string) string {
	return "booking:call:" + callID
}
