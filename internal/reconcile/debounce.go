package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/model"
)

// RequestPush schedules a push of snapshot after the debounce window.
// A newer request replaces a pending one. Requests made offline or without
// a signed-in user are dropped; the reconnect push picks those changes up.
func (r *Reconciler) RequestPush(snapshot []model.Reminder) {
	if r.backend == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.online {
		r.log.Debug("offline, deferring push", zap.Int("count", len(snapshot)))
		return
	}
	if _, err := r.identity(context.Background()); err != nil {
		r.log.Debug("not signed in, skipping push")
		return
	}
	r.pending = snapshot
	r.queued = true
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.Flush(context.Background())
	})
}

// Flush runs the pending push right away, if there is one.
func (r *Reconciler) Flush(ctx context.Context) (Result, bool) {
	r.mu.Lock()
	if !r.queued {
		r.mu.Unlock()
		return Result{}, false
	}
	snapshot := r.pending
	r.pending = nil
	r.queued = false
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()

	return r.Push(ctx, snapshot), true
}
