// Package jobs runs the periodic feed retention pass that keeps the
// demo feed bounded.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"mediafeed/api/internal/config"
	"mediafeed/api/internal/feed"
)

type Scheduler struct {
	cron  *cron.Cron
	store feed.Store
	cfg   config.FeedConfig
	log   zerolog.Logger
}

func NewScheduler(store feed.Store, cfg config.FeedConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.cfg.MaxItems <= 0 {
		// Unlimited feed, nothing to schedule.
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.RetentionCron, s.runRetention); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runRetention() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.store.Trim(ctx, s.cfg.MaxItems)
	if err != nil {
		s.log.Error().Err(err).Msg("feed retention failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Int("max", s.cfg.MaxItems).Msg("feed trimmed")
	}
}
