// Package watcher is the background poll loop: it refreshes the observed
// chain height, reconciles pending creations and fans reveal checks out
// across all unrevealed releases on a fixed interval.
package watcher

import (
	"context"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nkovaturient/blocklock-kit/internal/countdown"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
	"github.com/Nkovaturient/blocklock-kit/internal/release"
)

// maxConcurrentChecks bounds the reveal-scan fan-out per tick so a large
// release table cannot stampede the RPC provider.
const maxConcurrentChecks = 4

// Syncer is the slice of the service the watcher drives.
type Syncer interface {
	RefreshHeight(ctx context.Context) (uint64, error)
	ReconcileCreations(ctx context.Context) error
	CheckReveal(ctx context.Context, requestID *big.Int) error
}

// Config tunes the loop.
type Config struct {
	PollInterval time.Duration
	AvgBlockTime time.Duration
}

// Watcher drives a Syncer on every tick. All per-release failures are
// logged and absorbed; one bad release or one flaky provider call must not
// stall the loop.
type Watcher struct {
	syncer Syncer
	store  *release.Store
	cfg    Config
	log    logging.Logger

	// OnUpdate, when set, receives every release with its fresh countdown
	// estimate after each tick. Called sequentially from the loop goroutine.
	OnUpdate func(r *release.Release, e countdown.Estimate)
}

func New(syncer Syncer, store *release.Store, cfg Config, log logging.Logger) *Watcher {
	return &Watcher{syncer: syncer, store: store, cfg: cfg, log: log}
}

// Run ticks immediately, then on every PollInterval until ctx is cancelled.
// It always returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// Tick runs one poll cycle. Exposed so one-shot commands can reuse the
// exact loop body.
func (w *Watcher) Tick(ctx context.Context) {
	w.tick(ctx)
}

func (w *Watcher) tick(ctx context.Context) {
	if _, err := w.syncer.RefreshHeight(ctx); err != nil {
		w.log.Warn(ctx, "height refresh failed, keeping last observed height", "error", err)
	}

	if err := w.syncer.ReconcileCreations(ctx); err != nil {
		w.log.Warn(ctx, "creation reconciliation failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for _, r := range w.store.List() {
		if r.IsRevealed {
			continue
		}
		requestID := r.RequestID
		g.Go(func() error {
			if err := w.syncer.CheckReveal(gctx, requestID); err != nil {
				w.log.Warn(gctx, "reveal check failed", "requestId", requestID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if w.OnUpdate != nil {
		now := time.Now()
		for _, r := range w.store.List() {
			w.OnUpdate(r, countdown.ForRelease(r, w.cfg.AvgBlockTime, now))
		}
	}
}
