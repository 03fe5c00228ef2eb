// Package match scores newly synced jobs against every active user profile
// and persists qualifying matches.
package match

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobmatch-engine/internal/docstore"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/notify"
	"jobmatch-engine/internal/syncer"
)

type Engine struct {
	Store    docstore.Store
	Notifier notify.Notifier
	Hub      *events.Hub
	Policy   Policy
}

// Outcome summarizes one matching pass.
type Outcome struct {
	Records    []domain.MatchRecord
	Created    int
	Updated    int
	PairErrors int
}

// MatchJobsWithUsers scores every (job, user) pair and upserts records that
// clear the user's threshold. Work fans out across jobs with a bounded
// worker group; partitioning by job means no two workers can touch the same
// (user, job) pair, so pair writes never race.
//
// A failure loading the user set is fatal. A failure on a single pair is
// logged and skipped: one malformed profile must not block matching for
// everyone else.
func (e *Engine) MatchJobsWithUsers(ctx context.Context, jobs []syncer.SyncedJob) (Outcome, error) {
	var out Outcome
	if len(jobs) == 0 {
		return out, nil
	}

	users, err := e.loadActiveProfiles(ctx)
	if err != nil {
		return out, err
	}
	if len(users) == 0 {
		log.Printf("[match] no active profiles; nothing to score")
		return out, nil
	}

	now := time.Now().UTC()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := e.Policy.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			canonical := domain.CanonicalFromRow(job.Row, now)
			for _, u := range users {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, created, err := e.matchPair(gctx, canonical, job.ID, u, now)
				mu.Lock()
				switch {
				case err != nil:
					out.PairErrors++
					log.Printf("[match] pair error user=%s job=%s: %v", u.ID, job.ID, err)
				case rec != nil:
					out.Records = append(out.Records, *rec)
					if created {
						out.Created++
					} else {
						out.Updated++
					}
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}

	log.Printf("[match] jobs=%d users=%d persisted=%d created=%d updated=%d pair_errors=%d",
		len(jobs), len(users), len(out.Records), out.Created, out.Updated, out.PairErrors)
	return out, nil
}

// matchPair scores one pair and persists it when it clears the threshold.
// Returns nil record for a discarded pair. created reports whether a record
// for the pair existed before this run.
func (e *Engine) matchPair(ctx context.Context, job domain.CanonicalJob, jobID string, u domain.UserProfile, now time.Time) (rec *domain.MatchRecord, created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, created = nil, false
			err = fmt.Errorf("scoring panic: %v", r)
		}
	}()

	score := Score(job, u, now, e.Policy)
	if score < u.MinMatchScore {
		return nil, false, nil
	}

	key := domain.MatchPairKey(u.ID, jobID)
	prev, existed, err := e.Store.Get(ctx, docstore.CollMatches, key)
	if err != nil {
		return nil, false, err
	}

	m := domain.MatchRecord{UserID: u.ID, JobID: jobID, MatchScore: score, CreatedAt: now}
	if existed {
		// keep the original creation time so re-runs are idempotent
		if t, ok := prev["createdAt"].(time.Time); ok {
			m.CreatedAt = t
		}
	}

	if err := e.Store.Set(ctx, docstore.CollMatches, key, m.ToDoc()); err != nil {
		return nil, false, err
	}

	if !existed {
		e.Hub.Emit("", events.TypeMatchCreated, map[string]any{
			"userId": u.ID, "jobId": jobID, "matchScore": score,
		})
		if score >= e.Policy.InstantAlertScore && e.Notifier != nil {
			// delivery failure is non-fatal to the matching pass
			if nerr := e.Notifier.Notify(ctx, u.ID, jobID, score); nerr != nil {
				log.Printf("[match] instant alert failed user=%s job=%s: %v", u.ID, jobID, nerr)
			}
		}
	}

	return &m, !existed, nil
}

// loadActiveProfiles reads every users doc with active=true and validates it
// at the boundary. Docs that fail validation are logged and dropped rather
// than letting half-shaped profiles into the scorer.
func (e *Engine) loadActiveProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	snaps, err := e.Store.Query(ctx, docstore.CollUsers, "active", "==", true)
	if err != nil {
		return nil, fmt.Errorf("load active users: %w", err)
	}

	out := make([]domain.UserProfile, 0, len(snaps))
	for _, s := range snaps {
		p, err := domain.ProfileFromDoc(s.ID, s.Data)
		if err != nil {
			log.Printf("[match] skipping profile %s: %v", s.ID, err)
			continue
		}
		p.Active = true
		out = append(out, p)
	}
	return out, nil
}
