// Package pipeline runs the linear ingestion batch:
// trigger the scraper, read the staging window, sync to the document store,
// match against user profiles. Stages are strict producers for the next; a
// fatal stage error aborts the rest of the run and surfaces with whatever
// partial counts are known.
package pipeline

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/docstore"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/match"
	"jobmatch-engine/internal/notify"
	"jobmatch-engine/internal/scrape"
	"jobmatch-engine/internal/staging"
	"jobmatch-engine/internal/syncer"
)

// ErrAlreadyRunning means another run holds the lock; the caller should just
// wait for that run instead of starting a second one.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// Result carries the counts the trigger endpoint reports. On failure the
// fields hold whatever was confirmed before the failing stage.
type Result struct {
	JobsScraped    int `json:"jobsScraped"`
	JobsSynced     int `json:"jobsSynced"`
	MatchesCreated int `json:"matchesCreated"`
	MatchesUpdated int `json:"matchesUpdated"`
}

type Runner struct {
	Scraper       scrape.Runner
	StagingPath   string
	WindowMinutes int
	MaxBatchSize  int
	Store         docstore.Store
	Engine        *match.Engine
	Hub           *events.Hub
	LockPath      string

	status atomic.Value // Status
}

// NewRunner wires a Runner from config. The store is injected because its
// lifetime (and backend) belongs to main.
func NewRunner(cfg config.Config, st docstore.Store, n notify.Notifier, hub *events.Hub) *Runner {
	r := &Runner{
		Scraper: scrape.Runner{
			Command: cfg.Scraper.Command,
			Args:    cfg.Scraper.Args,
			Dir:     cfg.Scraper.WorkDir,
			Timeout: time.Duration(cfg.Scraper.TimeoutMs) * time.Millisecond,
		},
		StagingPath:   cfg.Staging.Path,
		WindowMinutes: cfg.Staging.WindowMinutes,
		MaxBatchSize:  cfg.Store.MaxBatchSize,
		Store:         st,
		Engine: &match.Engine{
			Store:    st,
			Notifier: n,
			Hub:      hub,
			Policy:   match.PolicyFromConfig(cfg),
		},
		Hub:      hub,
		LockPath: cfg.Staging.Path + ".runlock",
	}
	r.status.Store(Status{})
	return r
}

func (r *Runner) Status() Status {
	st, _ := r.status.Load().(Status)
	return st
}

// Run executes one end-to-end pipeline pass. Safe to re-run on failure: a
// fresh run re-queries the live staging window, and the match layer upserts
// by pair. Re-syncing an overlapping window duplicates job documents; that
// is a known property of the sync stage, not of this orchestration.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var res Result

	if r.LockPath != "" {
		lock := flock.New(r.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return res, err
		}
		if !locked {
			return res, ErrAlreadyRunning
		}
		defer func() { _ = lock.Unlock() }()
	}

	started := time.Now()
	r.setRunning(started)
	r.Hub.Emit("", events.TypeRunStarted, nil)

	res, err := r.run(ctx)

	if err != nil {
		r.setDone(started, res, err)
		r.Hub.Emit("", events.TypeRunFailed, map[string]any{
			"error":       err.Error(),
			"jobsScraped": res.JobsScraped,
			"jobsSynced":  res.JobsSynced,
		})
		return res, err
	}

	r.setDone(started, res, nil)
	r.Hub.Emit("", events.TypeRunFinished, res)
	return res, nil
}

func (r *Runner) run(ctx context.Context) (Result, error) {
	var res Result

	// 1. trigger the external scraper and wait
	log.Printf("[pipeline] scrape start cmd=%q timeout=%s", r.Scraper.Command, r.Scraper.Timeout)
	if _, stderr, err := r.Scraper.Run(ctx); err != nil {
		log.Printf("[pipeline] scrape failed: %v stderr=%q", err, stderr)
		return res, err
	}

	// 2. read the staging window
	db, err := staging.Open(r.StagingPath)
	if err != nil {
		return res, &staging.ReadError{Err: err}
	}
	rows, err := db.FetchRecentJobs(ctx, r.WindowMinutes)
	// close unconditionally before looking at the read result
	_ = db.Close()
	if err != nil {
		return res, err
	}
	res.JobsScraped = len(rows)
	if len(rows) == 0 {
		log.Printf("[pipeline] staging window empty (window=%dm); nothing to sync", r.WindowMinutes)
		return res, nil
	}

	// 3. sync to the document store
	synced, err := syncer.SyncToStore(ctx, r.Store, rows, r.MaxBatchSize)
	res.JobsSynced = len(synced)
	if err != nil {
		return res, err
	}
	for _, sj := range synced {
		r.Hub.Emit("", events.TypeJobSynced, map[string]any{"id": sj.ID, "title": sj.Row.Title})
	}

	// 4. match against active profiles
	outcome, err := r.Engine.MatchJobsWithUsers(ctx, synced)
	res.MatchesCreated = outcome.Created
	res.MatchesUpdated = outcome.Updated
	if err != nil {
		return res, err
	}

	log.Printf("[pipeline] ok scraped=%d synced=%d matches_created=%d matches_updated=%d",
		res.JobsScraped, res.JobsSynced, res.MatchesCreated, res.MatchesUpdated)
	return res, nil
}

func (r *Runner) setRunning(started time.Time) {
	st := r.Status()
	st.Running = true
	st.LastRunAt = started.Format(time.RFC3339)
	st.LastError = ""
	r.status.Store(st)
}

func (r *Runner) setDone(started time.Time, res Result, err error) {
	st := r.Status()
	st.Running = false
	st.LastRunAt = started.Format(time.RFC3339)
	st.LastScraped = res.JobsScraped
	st.LastSynced = res.JobsSynced
	st.LastMatched = res.MatchesCreated + res.MatchesUpdated
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	}
	r.status.Store(st)
}
