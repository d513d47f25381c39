// Package sweeper periodically deactivates postings nobody has touched for a while.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/events"
)

const DefaultSchedule = "@every 1h"

type Config struct {
	// StaleAfter of zero disables the sweeper.
	StaleAfter time.Duration `mapstructure:"stale-after"`
	Schedule   string        `mapstructure:"sweep-schedule"`
}

type deactivator interface {
	DeactivateJobsBefore(ctx context.Context, t time.Time) (int64, error)
}

type Sweeper struct {
	jobs      deactivator
	publisher events.Publisher
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func New(jobs deactivator, publisher events.Publisher, cfg Config, logger *zap.Logger) *Sweeper {
	if strings.TrimSpace(cfg.Schedule) == "" {
		cfg.Schedule = DefaultSchedule
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		jobs:      jobs,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("sweeper"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sweeper) Enabled() bool {
	return s.cfg.StaleAfter > 0
}

// Run sweeps once, then on every schedule tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Info("stale job sweeper disabled")
		<-ctx.Done()
		return nil
	}

	c := cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(s.logger))))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.sweepAndLog(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	c.Start()
	s.logger.Info("stale job sweeper started",
		zap.String("schedule", s.cfg.Schedule),
		zap.Duration("stale_after", s.cfg.StaleAfter),
	)

	s.sweepAndLog(ctx)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("stale job sweeper stopped")
	return nil
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("stale job sweep failed", zap.Error(err))
	}
}

// Sweep deactivates every active job last updated more than StaleAfter ago.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}

	cutoff := s.now().Add(-s.cfg.StaleAfter)
	n, err := s.jobs.DeactivateJobsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.logger.Info("deactivated stale jobs", zap.Int64("count", n), zap.Time("cutoff", cutoff))
		s.publisher.Publish(ctx, events.JobDeactivated, "", map[string]any{
			"reason": "stale",
			"count":  n,
			"cutoff": cutoff,
		})
	}
	return n, nil
}
