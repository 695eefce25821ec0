package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/photovault/internal/logging"
)

// ErrSyncInProgress is returned when a pass is requested while one runs.
var ErrSyncInProgress = errors.New("sync already in progress")

type Syncer interface {
	Sync(ctx context.Context) (*SyncReport, error)
}

// Scheduler runs sync passes on a ticker and on demand, one at a time.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	log      logging.Logger
	running  atomic.Bool
	trigger  chan struct{}
}

func NewScheduler(s Syncer, interval time.Duration, log logging.Logger) *Scheduler {
	return &Scheduler{syncer: s, interval: interval, log: log, trigger: make(chan struct{}, 1)}
}

// RunOnce runs one pass now, or fails with ErrSyncInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) (*SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	return s.syncer.Sync(ctx)
}

// Trigger asks Run for an extra pass. Requests made while one is pending
// are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run syncs immediately, then on every tick and trigger until ctx is done.
// Failed passes are logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx)
		case <-s.trigger:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	report, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		s.log.Debug(ctx, "sync skipped, previous pass still running")
	case err != nil && ctx.Err() == nil:
		s.log.Error(ctx, "sync failed", "error", err)
	case err == nil:
		s.log.Info(ctx, "sync pass done", "uploaded", report.Uploaded, "downloaded", report.Downloaded)
	}
}
