// Package docstore is the pipeline's view of the application document store:
// a mapping store with atomic batch writes, upsert by id, and query by
// filter. Consistency beyond single-batch atomicity and per-id upsert is the
// store's own problem, not ours.
package docstore

import "context"

// Collections this pipeline touches.
const (
	CollJobs    = "jobs"
	CollUsers   = "users"
	CollMatches = "matches"
)

type Doc = map[string]any

type Snapshot struct {
	ID   string
	Data Doc
}

type Store interface {
	// Add writes all docs in one atomic batch with store-generated ids,
	// returned in input order. Either every doc lands or none do.
	Add(ctx context.Context, collection string, docs []Doc) ([]string, error)

	// Set upserts the doc at id.
	Set(ctx context.Context, collection, id string, doc Doc) error

	// Get returns the doc at id, with found=false (not an error) for a
	// missing id.
	Get(ctx context.Context, collection, id string) (Doc, bool, error)

	// Query returns every doc where field op value holds. Only "==" is
	// required by the pipeline.
	Query(ctx context.Context, collection, field, op string, value any) ([]Snapshot, error)
}
