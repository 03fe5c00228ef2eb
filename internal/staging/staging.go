// Package staging reads the scraper's relational snapshot. The snapshot is
// owned by the scraper; this package never writes to it.
package staging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"jobmatch-engine/internal/domain"
)

// ReadError is a run-fatal staging failure: snapshot unreachable or query
// error. A legitimately empty window is an empty slice with a nil error,
// never a ReadError.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("staging read: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

type DB struct {
	Pool *sql.DB
}

func Open(path string) (*DB, error) {
	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// FetchRecentJobs returns rows discovered within the last windowMinutes,
// highest scraper relevance first, so that under capacity limits the best
// jobs are synced and matched before the rest.
func (d *DB) FetchRecentJobs(ctx context.Context, windowMinutes int) ([]domain.StagedJobRow, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(windowMinutes) * time.Minute)

	rows, err := d.Pool.QueryContext(ctx, `
SELECT title, company, location, url, ats_source, seniority, score, found_at
FROM jobs
WHERE found_at > ?
ORDER BY score DESC;`, cutoff.Format(time.RFC3339))
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	defer rows.Close()

	var out []domain.StagedJobRow
	for rows.Next() {
		var r domain.StagedJobRow
		var seniority, foundAt string
		if err := rows.Scan(&r.Title, &r.Company, &r.Location, &r.URL, &r.Source, &seniority, &r.Score, &foundAt); err != nil {
			return nil, &ReadError{Err: err}
		}
		// Scraper rows can carry levels we don't know yet; map those to
		// unknown instead of dropping the row.
		r.Seniority, _ = domain.ParseSeniority(seniority)
		t, err := time.Parse(time.RFC3339, foundAt)
		if err != nil {
			return nil, &ReadError{Err: fmt.Errorf("bad found_at %q: %w", foundAt, err)}
		}
		r.FoundAt = t.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &ReadError{Err: err}
	}
	return out, nil
}
