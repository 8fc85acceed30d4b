package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Retention periodically sweeps a Store.
type Retention struct {
	store  *Store
	maxAge time.Duration
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewRetention schedules Sweep(maxAge) using a standard cron expression or a
// descriptor such as "@hourly".
func NewRetention(store *Store, maxAge time.Duration, schedule string, logger zerolog.Logger) (*Retention, error) {
	r := &Retention{
		store:  store,
		maxAge: maxAge,
		cron:   cron.New(),
		logger: logger,
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("failed to add retention job: %w", err)
	}
	return r, nil
}

func (r *Retention) run() {
	removed, err := r.store.Sweep(r.maxAge)
	if err != nil {
		r.logger.Warn().Err(err).Int("removed", removed).Msg("retention sweep incomplete")
		return
	}
	if removed > 0 {
		r.logger.Info().Int("removed", removed).Dur("max_age", r.maxAge).Msg("retention sweep")
	}
}

// Start starts the scheduler in its own goroutine.
func (r *Retention) Start() {
	r.logger.Info().Dur("max_age", r.maxAge).Msg("starting retention scheduler")
	r.cron.Start()
}

// Stop stops the scheduler and waits for a running sweep, or for ctx.
func (r *Retention) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
