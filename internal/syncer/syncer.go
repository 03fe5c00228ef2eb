// Package syncer moves staged rows into the document store.
package syncer

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobmatch-engine/internal/docstore"
	"jobmatch-engine/internal/domain"
)

// WriteError is a run-fatal commit failure. Committed counts rows confirmed
// written before the failing chunk; those stay in the store. There is no
// cross-chunk atomicity, so a multi-chunk sync is at-least-once, not
// all-or-nothing.
type WriteError struct {
	Committed int
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sync write (%d rows committed before failure): %v", e.Committed, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// SyncedJob pairs a generated document id with the staged row it came from,
// in original input order, for hand-off to matching.
type SyncedJob struct {
	ID  string
	Row domain.StagedJobRow
}

// SyncToStore maps each row to its canonical document and commits in atomic
// chunks of at most maxBatch. Rows are not deduplicated: re-syncing an
// overlapping time window creates duplicate job documents, same as the
// original scraper sync always has.
func SyncToStore(ctx context.Context, st docstore.Store, rows []domain.StagedJobRow, maxBatch int) ([]SyncedJob, error) {
	if maxBatch <= 0 {
		maxBatch = 500
	}
	now := time.Now().UTC()

	out := make([]SyncedJob, 0, len(rows))
	for start := 0; start < len(rows); start += maxBatch {
		if err := ctx.Err(); err != nil {
			return out, &WriteError{Committed: len(out), Err: err}
		}

		end := start + maxBatch
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		docs := make([]docstore.Doc, 0, len(chunk))
		for _, row := range chunk {
			docs = append(docs, domain.CanonicalFromRow(row, now).ToDoc())
		}

		ids, err := st.Add(ctx, docstore.CollJobs, docs)
		if err != nil {
			return out, &WriteError{Committed: len(out), Err: err}
		}
		for i, id := range ids {
			out = append(out, SyncedJob{ID: id, Row: chunk[i]})
		}
		log.Printf("[sync] chunk committed rows=%d total=%d", len(chunk), len(out))
	}
	return out, nil
}
