package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/observability"
	"github.com/jdevops/portal-login/internal/repository"
)

// MembershipMirror is the cache surface the reconciler rewrites.
type MembershipMirror interface {
	Replace(ctx context.Context, courseCode string, emails []string) error
	Codes(ctx context.Context) ([]string, error)
}

// ReconcileStats summarizes one reconcile pass.
type ReconcileStats struct {
	Courses int
	Members int
	Removed int
	Failed  int
}

// ReconcileWorker periodically rebuilds the membership cache from the store,
// repairing any drift left by failed best-effort cache writes.
type ReconcileWorker struct {
	store    repository.Store
	cache    MembershipMirror
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconcileWorker builds a worker. A non-positive interval means five minutes.
func NewReconcileWorker(store repository.Store, cache MembershipMirror, interval time.Duration, logger *zap.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconcileWorker{
		store:    store,
		cache:    cache,
		interval: interval,
		logger:   observability.Component(logger, "reconcile"),
	}
}

// Start launches the loop. It runs one pass immediately and then one per
// interval until Stop is called or ctx ends. Calling Start twice is a no-op.
func (w *ReconcileWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx, w.done)
	w.logger.Info("reconcile worker started", zap.Duration("interval", w.interval))
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (w *ReconcileWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.logger.Info("reconcile worker stopped")
}

func (w *ReconcileWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("reconcile pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce replaces every cached course set with the store's member list and
// deletes sets for courses that no longer have members.
func (w *ReconcileWorker) RunOnce(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats

	members, err := w.store.Memberships().ListAllMemberEmails(ctx)
	if err != nil {
		return stats, err
	}

	for code, emails := range members {
		if err := w.cache.Replace(ctx, code, emails); err != nil {
			stats.Failed++
			w.logger.Warn("cache replace failed", zap.String("course_code", code), zap.Error(err))
			continue
		}
		stats.Courses++
		stats.Members += len(emails)
	}

	cached, err := w.cache.Codes(ctx)
	if err != nil {
		return stats, err
	}
	for _, code := range cached {
		if _, ok := members[code]; ok {
			continue
		}
		if err := w.cache.Replace(ctx, code, nil); err != nil {
			stats.Failed++
			w.logger.Warn("cache cleanup failed", zap.String("course_code", code), zap.Error(err))
			continue
		}
		stats.Removed++
	}

	w.logger.Debug("reconcile pass complete",
		zap.Int("courses", stats.Courses),
		zap.Int("members", stats.Members),
		zap.Int("removed", stats.Removed),
		zap.Int("failed", stats.Failed))
	return stats, nil
}
