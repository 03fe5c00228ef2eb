package match

import (
	"math"
	"strings"
	"time"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/domain"
)

// Policy is the scoring policy. Weights and decay are deliberate knobs, not
// constants: product tunes them per cohort.
type Policy struct {
	Weights           config.Weights
	RecencyHalfLife   time.Duration
	InstantAlertScore int
	Concurrency       int
}

func DefaultPolicy() Policy {
	def := config.Defaults()
	return PolicyFromConfig(def)
}

func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		Weights:           cfg.Matching.Weights,
		RecencyHalfLife:   time.Duration(cfg.Matching.RecencyHalfLifeHours) * time.Hour,
		InstantAlertScore: cfg.Matching.InstantAlertScore,
		Concurrency:       cfg.Matching.Concurrency,
	}
}

// Score computes the deterministic weighted match score for one (job, user)
// pair, clamped to 0..100 and rounded to an integer. Each sub-score is
// normalized to [0,1] before weighting so no single feature can dominate
// past its configured share.
func Score(job domain.CanonicalJob, p domain.UserProfile, now time.Time, pol Policy) int {
	w := pol.Weights
	total := float64(w.Keyword)*keywordScore(job, p) +
		float64(w.Seniority)*seniorityScore(job, p) +
		float64(w.Location)*locationScore(job, p) +
		float64(w.Recency)*recencyScore(job, now, pol.RecencyHalfLife)

	s := int(math.Round(total))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// keywordScore is the fraction of the user's search keywords found in the
// job text, case-insensitive substring.
func keywordScore(job domain.CanonicalJob, p domain.UserProfile) float64 {
	if len(p.SearchKeywords) == 0 {
		return 0
	}
	text := job.SearchText()
	hits := 0
	for _, kw := range p.SearchKeywords {
		if strings.Contains(text, strings.ToLower(strings.TrimSpace(kw))) {
			hits++
		}
	}
	return float64(hits) / float64(len(p.SearchKeywords))
}

// seniorityScore is binary set membership. A user with no levels configured
// has no seniority constraint.
func seniorityScore(job domain.CanonicalJob, p domain.UserProfile) float64 {
	if len(p.SeniorityLevels) == 0 {
		return 1
	}
	if p.WantsSeniority(job.Seniority) {
		return 1
	}
	return 0
}

// locationScore passes on substring overlap in either direction. Any mention
// of "remote" in the job location passes regardless of the user's list, and
// a user with no preferred locations accepts everything.
func locationScore(job domain.CanonicalJob, p domain.UserProfile) float64 {
	jobLoc := strings.ToLower(strings.TrimSpace(job.Location))
	if strings.Contains(jobLoc, "remote") {
		return 1
	}
	if len(p.PreferredLocations) == 0 {
		return 1
	}
	for _, loc := range p.PreferredLocations {
		l := strings.ToLower(strings.TrimSpace(loc))
		if l == "" {
			continue
		}
		if strings.Contains(jobLoc, l) || strings.Contains(l, jobLoc) && jobLoc != "" {
			return 1
		}
	}
	return 0
}

// recencyScore decays by half every halfLife since the job was posted.
// Postings from the future (clock skew) count as brand new.
func recencyScore(job domain.CanonicalJob, now time.Time, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		halfLife = 72 * time.Hour
	}
	age := now.Sub(job.PostedAt)
	if age <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(age)/float64(halfLife))
}
