// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package forum

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/logging"
)

// RankingScheduler runs ranking recomputes. Activity marks rankings dirty
// and a recompute follows once the debounce delay has passed since the
// first mark; marks arriving in between join that run. A cron schedule
// adds periodic full recomputes.
type RankingScheduler struct {
	svc       *Service
	debounce  time.Duration
	schedule  string
	onStartup bool
	kick      chan string
}

// NewRankingScheduler validates the cron expression and returns a
// scheduler for svc.
func NewRankingScheduler(svc *Service, cfg *config.RankingConfig) (*RankingScheduler, error) {
	s := &RankingScheduler{
		svc:       svc,
		debounce:  10 * time.Second,
		schedule:  cfg.Schedule,
		onStartup: cfg.RecomputeOnStartup,
		kick:      make(chan string, 1),
	}
	if cfg.Debounce > 0 {
		s.debounce = cfg.Debounce
	}
	if s.schedule != "" {
		if _, err := cron.ParseStandard(s.schedule); err != nil {
			return nil, fmt.Errorf("invalid ranking schedule %q: %w", s.schedule, err)
		}
	}
	return s, nil
}

// String names the scheduler in supervisor logs.
func (s *RankingScheduler) String() string {
	return "ranking-scheduler"
}

// MarkDirty requests a debounced recompute. It never blocks.
func (s *RankingScheduler) MarkDirty(reason string) {
	select {
	case s.kick <- reason:
	default:
	}
}

// Serve runs the scheduler until ctx is canceled. It implements
// suture.Service.
func (s *RankingScheduler) Serve(ctx context.Context) error {
	var c *cron.Cron
	if s.schedule != "" {
		c = cron.New()
		if _, err := c.AddFunc(s.schedule, func() { s.run(ctx, TriggerSchedule) }); err != nil {
			return fmt.Errorf("failed to schedule ranking recompute: %w", err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	if s.onStartup {
		s.run(ctx, TriggerStartup)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-s.kick:
			if timer == nil {
				logging.Debug().Str("reason", reason).Dur("debounce", s.debounce).Msg("rankings marked dirty")
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			s.run(ctx, TriggerEvents)
		}
	}
}

func (s *RankingScheduler) run(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.svc.Recompute(ctx, trigger); err != nil {
		logging.Error().Err(err).Str("trigger", trigger).Msg("ranking recompute failed")
	}
}
