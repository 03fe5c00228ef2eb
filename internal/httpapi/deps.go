package httpapi

import (
	"context"
	"sync/atomic"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/pipeline"
)

// PipelineRunner is what the sync trigger needs from the pipeline; injected
// for testability.
type PipelineRunner interface {
	Run(ctx context.Context) (pipeline.Result, error)
	Status() pipeline.Status
}

type Deps struct {
	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Sync trigger
	Pipeline PipelineRunner
	Auth     Authorizer
}
