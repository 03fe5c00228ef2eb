// Package scheduler runs the ingestion pipeline on a cron cadence.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"jobmatch-engine/internal/pipeline"
)

type Scheduler struct {
	cron   *cron.Cron
	runner *pipeline.Runner
	spec   string // cron spec, e.g. "@every 6h"
}

func New(runner *pipeline.Runner, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   spec,
	}
}

// Start registers the job and starts the cron loop. Run errors are logged,
// never fatal: a broken scrape at 3am should not take the service down.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		res, err := s.runner.Run(ctx)
		switch {
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			log.Printf("[scheduler] skipped: run already in progress")
		case err != nil:
			log.Printf("[scheduler] run failed (scraped=%d synced=%d): %v",
				res.JobsScraped, res.JobsSynced, err)
		default:
			log.Printf("[scheduler] run ok scraped=%d synced=%d matches=%d",
				res.JobsScraped, res.JobsSynced, res.MatchesCreated+res.MatchesUpdated)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] started spec=%q", s.spec)
	return nil
}

// Stop shuts the scheduler down; a run already in flight finishes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Printf("[scheduler] stopped")
}
