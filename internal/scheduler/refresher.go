package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/synchronizer"
)

// Poller is what the refresher drives. *synchronizer.Synchronizer
// implements it.
type Poller interface {
	Poll(ctx context.Context) error
}

// Refresher periodically polls the displayed collection and the counters so
// pending bookmarks show up as completed without any push from the service.
type Refresher struct {
	target        Poller
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
	manualTrigger chan struct{}
}

// NewRefresher creates a refresher. interval <= 0 disables the ticker; the
// manual trigger keeps working.
func NewRefresher(
	target Poller,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Refresher {
	return &Refresher{
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start performs the initial poll and then loops in the background.
// A failed initial poll is logged, not returned: the collection stays
// empty with its error state set until the service answers.
func (r *Refresher) Start(ctx context.Context) {
	r.Refresh(ctx)

	go func() {
		defer close(r.doneCh)

		var tick <-chan time.Time
		if r.interval > 0 {
			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				r.Refresh(ctx)
			case <-r.manualTrigger:
				r.logger.Info("manual refresh triggered")
				r.Refresh(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-progress refresh to return. It
// must only be called after Start.
func (r *Refresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// Refresh runs one poll. Superseded results are expected when a view
// request races the ticker and are not reported.
func (r *Refresher) Refresh(ctx context.Context) {
	err := r.target.Poll(ctx)
	switch {
	case err == nil:
		r.logger.Debug("refresh completed")
	case errors.Is(err, synchronizer.ErrSuperseded):
		r.logger.Debug("refresh superseded by a newer request")
	case errors.Is(err, synchronizer.ErrClosed), errors.Is(err, context.Canceled):
		r.logger.Debug("refresh skipped", logger.Error(err))
	default:
		r.logger.Warn("refresh failed", logger.Error(err))
	}
}

// Trigger asks the loop for a refresh without blocking. Returns false when a
// trigger is already pending.
func Trigger(ch chan<- struct{}) bool {
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
