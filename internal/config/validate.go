package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus validation results.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := ApplyDefaults(cfg)
	var res Validation

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if strings.TrimSpace(out.Scraper.Command) == "" {
		res.addErr("scraper.command is required")
	}
	if out.Scraper.TimeoutMs < 1000 {
		res.addErr("scraper.timeout_ms must be >= 1000")
	}

	if strings.TrimSpace(out.Staging.Path) == "" {
		res.addErr("staging.path is required")
	}
	if out.Staging.WindowMinutes <= 0 {
		res.addErr("staging.window_minutes must be > 0")
	} else if out.Staging.WindowMinutes > 7*24*60 {
		res.addWarn("staging.window_minutes is over a week (%d); re-syncs will duplicate job documents.", out.Staging.WindowMinutes)
	}

	switch out.Store.Backend {
	case "firestore":
		if strings.TrimSpace(out.Store.ProjectID) == "" {
			res.addErr("store.project_id is required when store.backend=firestore")
		}
	case "memory":
	default:
		res.addErr("store.backend must be firestore or memory, got %q", out.Store.Backend)
	}
	if out.Store.MaxBatchSize <= 0 || out.Store.MaxBatchSize > 500 {
		res.addErr("store.max_batch_size must be 1..500 (Firestore write limit)")
	}

	w := out.Matching.Weights
	if w.Keyword < 0 || w.Seniority < 0 || w.Location < 0 || w.Recency < 0 {
		res.addErr("matching.weights must all be >= 0")
	}
	if sum := w.Keyword + w.Seniority + w.Location + w.Recency; sum != 100 {
		res.addErr("matching.weights must sum to 100, got %d", sum)
	}
	if out.Matching.InstantAlertScore < 0 || out.Matching.InstantAlertScore > 100 {
		res.addErr("matching.instant_alert_score must be 0..100")
	}
	if out.Matching.RecencyHalfLifeHours <= 0 {
		res.addErr("matching.recency_half_life_hours must be > 0")
	}
	if out.Matching.Concurrency <= 0 {
		res.addErr("matching.concurrency must be > 0")
	} else if out.Matching.Concurrency > 64 {
		res.addWarn("matching.concurrency is very high (%d); the document store may throttle.", out.Matching.Concurrency)
	}

	if out.Notify.WebhookURL == "" {
		res.addWarn("notify.webhook_url is empty; instant alerts will only be logged.")
	}

	if out.Schedule.Enabled && strings.TrimSpace(out.Schedule.Cron) == "" {
		res.addErr("schedule.cron is required when schedule.enabled=true")
	}

	return out, res
}
