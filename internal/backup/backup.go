// Package backup periodically copies the live chat snapshot to a
// timestamped backup key and prunes old copies. Chat deletion has no
// lifecycle in this design, so backups are the only retention concern.
package backup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"luminachat/pkg/store"
)

// Lister extends Adapter with prefix iteration, which pruning needs.
type Lister interface {
	store.Adapter
	ListKeys(prefix string) ([]string, error)
}

// Scheduler runs snapshot backups on a cron schedule.
type Scheduler struct {
	adapter Lister
	cron    string
	keep    int
	log     *zap.Logger
}

// New builds a scheduler. keep bounds the number of retained backups;
// values below 1 keep one.
func New(adapter Lister, cronExpr string, keep int, log *zap.Logger) (*Scheduler, error) {
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("backup: invalid cron expression %q", cronExpr)
	}
	if keep < 1 {
		keep = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{adapter: adapter, cron: cronExpr, keep: keep, log: log}, nil
}

// Start runs the scheduler until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("backup_scheduler_started", zap.String("cron", s.cron), zap.Int("keep", s.keep))
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(s.cron, now, false)
		if err != nil {
			s.log.Error("backup_nexttick_failed", zap.String("cron", s.cron), zap.Error(err))
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case <-time.After(time.Until(next)):
			if err := s.RunOnce(); err != nil {
				s.log.Error("backup_run_failed", zap.Error(err))
			}
		case <-ctx.Done():
			s.log.Info("backup_scheduler_stopping")
			return
		}
	}
}

// RunOnce copies the live snapshot to a timestamped backup key and prunes
// backups beyond the keep bound. No live snapshot is a no-op.
func (s *Scheduler) RunOnce() error {
	raw, err := s.adapter.Get(store.KeyChats)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}
	key := fmt.Sprintf("%s%020d", store.KeyBackupPrefix, time.Now().UTC().UnixNano())
	if err := s.adapter.Set(key, raw); err != nil {
		return err
	}
	s.log.Info("snapshot_backed_up", zap.String("key", key))
	return s.prune()
}

func (s *Scheduler) prune() error {
	keys, err := s.adapter.ListKeys(store.KeyBackupPrefix)
	if err != nil {
		return err
	}
	if len(keys) <= s.keep {
		return nil
	}
	// keys are time-ordered by construction; drop the oldest
	sort.Strings(keys)
	for _, k := range keys[:len(keys)-s.keep] {
		if err := s.adapter.Delete(k); err != nil {
			return err
		}
		s.log.Debug("backup_pruned", zap.String("key", k))
	}
	return nil
}
