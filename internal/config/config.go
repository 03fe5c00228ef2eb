package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the matching sub-score weights, expressed as percentages that
// must sum to 100.
type Weights struct {
	Keyword   int `yaml:"keyword" json:"keyword"`
	Seniority int `yaml:"seniority" json:"seniority"`
	Location  int `yaml:"location" json:"location"`
	Recency   int `yaml:"recency" json:"recency"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Scraper struct {
		Command   string   `yaml:"command" json:"command"`
		Args      []string `yaml:"args" json:"args"`
		WorkDir   string   `yaml:"work_dir" json:"work_dir"`
		TimeoutMs int      `yaml:"timeout_ms" json:"timeout_ms"`
	} `yaml:"scraper" json:"scraper"`

	Staging struct {
		Path          string `yaml:"path" json:"path"`
		WindowMinutes int    `yaml:"window_minutes" json:"window_minutes"`
	} `yaml:"staging" json:"staging"`

	Store struct {
		Backend      string `yaml:"backend" json:"backend"` // firestore | memory
		ProjectID    string `yaml:"project_id" json:"project_id"`
		MaxBatchSize int    `yaml:"max_batch_size" json:"max_batch_size"`
	} `yaml:"store" json:"store"`

	Matching struct {
		Weights              Weights `yaml:"weights" json:"weights"`
		RecencyHalfLifeHours int     `yaml:"recency_half_life_hours" json:"recency_half_life_hours"`
		InstantAlertScore    int     `yaml:"instant_alert_score" json:"instant_alert_score"`
		Concurrency          int     `yaml:"concurrency" json:"concurrency"`
	} `yaml:"matching" json:"matching"`

	Notify struct {
		WebhookURL string  `yaml:"webhook_url" json:"webhook_url"`
		RatePerSec float64 `yaml:"rate_per_sec" json:"rate_per_sec"`
		Burst      int     `yaml:"burst" json:"burst"`
	} `yaml:"notify" json:"notify"`

	Schedule struct {
		Enabled bool   `yaml:"enabled" json:"enabled"`
		Cron    string `yaml:"cron" json:"cron"` // robfig/cron spec, e.g. "@every 6h"
	} `yaml:"schedule" json:"schedule"`
}

// Defaults returns the policy defaults applied on top of a loaded config
// wherever the user left a field zero.
func Defaults() Config {
	var c Config
	c.App.Port = 38471
	c.App.DataDir = "."
	c.Scraper.TimeoutMs = 600000
	c.Staging.WindowMinutes = 60
	c.Store.Backend = "memory"
	c.Store.MaxBatchSize = 500
	c.Matching.Weights = Weights{Keyword: 40, Seniority: 20, Location: 20, Recency: 20}
	c.Matching.RecencyHalfLifeHours = 72
	c.Matching.InstantAlertScore = 85
	c.Matching.Concurrency = 4
	c.Notify.RatePerSec = 2
	c.Notify.Burst = 4
	c.Schedule.Cron = "@every 6h"
	return c
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return ApplyDefaults(cfg), nil
}

func ApplyDefaults(cfg Config) Config {
	def := Defaults()
	if cfg.App.Port == 0 {
		cfg.App.Port = def.App.Port
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = def.App.DataDir
	}
	if cfg.Scraper.TimeoutMs == 0 {
		cfg.Scraper.TimeoutMs = def.Scraper.TimeoutMs
	}
	if cfg.Staging.WindowMinutes == 0 {
		cfg.Staging.WindowMinutes = def.Staging.WindowMinutes
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.Store.MaxBatchSize == 0 {
		cfg.Store.MaxBatchSize = def.Store.MaxBatchSize
	}
	if cfg.Matching.Weights == (Weights{}) {
		cfg.Matching.Weights = def.Matching.Weights
	}
	if cfg.Matching.RecencyHalfLifeHours == 0 {
		cfg.Matching.RecencyHalfLifeHours = def.Matching.RecencyHalfLifeHours
	}
	if cfg.Matching.InstantAlertScore == 0 {
		cfg.Matching.InstantAlertScore = def.Matching.InstantAlertScore
	}
	if cfg.Matching.Concurrency == 0 {
		cfg.Matching.Concurrency = def.Matching.Concurrency
	}
	if cfg.Notify.RatePerSec == 0 {
		cfg.Notify.RatePerSec = def.Notify.RatePerSec
	}
	if cfg.Notify.Burst == 0 {
		cfg.Notify.Burst = def.Notify.Burst
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = def.Schedule.Cron
	}
	return cfg
}
