package repo

import (
	"go.uber.org/zap"

	"luminachat/pkg/metrics"
	"luminachat/pkg/store"
)

// Reconciler reloads the repository whenever another session writes the
// chat snapshot key. It never diffs or merges: the other session's write
// is trusted as authoritative, so visibility is eventually consistent
// with last-write-observed-wins across concurrent writers.
type Reconciler struct {
	repo        *Repository
	unsubscribe func()
	log         *zap.Logger
}

// NewReconciler subscribes repo to notifier under the session's origin
// token. The subscription lives until Close.
func NewReconciler(r *Repository, n *store.Notifier, origin string, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	rec := &Reconciler{repo: r, log: log}
	rec.unsubscribe = n.Subscribe(origin, rec.onChange)
	return rec
}

func (rec *Reconciler) onChange(ev store.Event) {
	if ev.Key != store.KeyChats {
		return
	}
	metrics.ReconcilerReloads.Inc()
	if err := rec.repo.LoadAll(); err != nil {
		rec.log.Warn("reconcile_reload_failed", zap.Error(err))
	}
}

// Close drops the subscription. Idempotent.
func (rec *Reconciler) Close() {
	if rec.unsubscribe != nil {
		rec.unsubscribe()
		rec.unsubscribe = nil
	}
}
