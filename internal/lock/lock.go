package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/custodia/backend/internal/store"
)

// ErrBusy is returned by WithLock when the lock could not be acquired within
// the configured wait budget. No mutation has happened; safe to retry.
var ErrBusy = errors.New("ledger lock busy")

// Config holds the lease tunables. The lock is an owner-agnostic timestamp in
// the shared property store: absent or stale means free. Stale reclamation
// trades strict exclusion for liveness when a holder dies mid-operation.
type Config struct {
	Key            string
	StaleThreshold time.Duration
	MaxWait        time.Duration
	PollInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Key:            "ledger:write_lock",
		StaleThreshold: 20 * time.Second,
		MaxWait:        15 * time.Second,
		PollInterval:   500 * time.Millisecond,
	}
}

// Coordinator serializes ledger mutations across processes that share nothing
// but the property store.
type Coordinator struct {
	props store.PropertyStore
	cfg   Config
	now   func() time.Time
}

func NewCoordinator(props store.PropertyStore, cfg Config) *Coordinator {
	if cfg.Key == "" {
		cfg = DefaultConfig()
	}
	return &Coordinator{props: props, cfg: cfg, now: time.Now}
}

// TryAcquire claims the lock if it is absent or stale. The get-then-set pair
// is not atomic; the staleness window plus short hold times keep the race
// acceptable for the write volumes this ledger sees.
func (c *Coordinator) TryAcquire(ctx context.Context) (bool, error) {
	now := c.now()

	raw, err := c.props.GetProperty(ctx, c.cfg.Key)
	switch {
	case errors.Is(err, store.ErrPropertyNotFound):
		// Free.
	case err != nil:
		return false, fmt.Errorf("checking lock: %w", err)
	default:
		millis, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr == nil {
			held := now.Sub(time.UnixMilli(millis))
			if held <= c.cfg.StaleThreshold {
				return false, nil
			}
			log.Printf("[LOCK] reclaiming stale lock held for %s", held)
		} else {
			log.Printf("[LOCK] discarding unreadable lock value %q", raw)
		}
	}

	if err := c.props.SetProperty(ctx, c.cfg.Key, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		return false, fmt.Errorf("claiming lock: %w", err)
	}
	return true, nil
}

// AwaitAcquire polls TryAcquire until it succeeds or MaxWait elapses.
func (c *Coordinator) AwaitAcquire(ctx context.Context) (bool, error) {
	deadline := c.now().Add(c.cfg.MaxWait)
	for {
		ok, err := c.TryAcquire(ctx)
		if err != nil || ok {
			return ok, err
		}
		if c.now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// Release unconditionally clears the lock entry.
func (c *Coordinator) Release(ctx context.Context) error {
	return c.props.DeleteProperty(ctx, c.cfg.Key)
}

// WithLock runs body under the lock. The lock is released on every exit path,
// including an error or panic inside body. A failed acquire returns ErrBusy
// without running body.
func (c *Coordinator) WithLock(ctx context.Context, body func(ctx context.Context) error) error {
	ok, err := c.AwaitAcquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring ledger lock: %w", err)
	}
	if !ok {
		return ErrBusy
	}
	defer func() {
		// Release even when the caller's context is already cancelled.
		if err := c.Release(context.WithoutCancel(ctx)); err != nil {
			log.Printf("[LOCK] release failed: %v", err)
		}
	}()
	return body(ctx)
}
