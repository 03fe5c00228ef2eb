package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/docstore"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/notify"
	"jobmatch-engine/internal/scrape"
	"jobmatch-engine/internal/staging"
)

// seedSnapshot creates a staging db with the jobs table and the given
// (title, score, age) rows, standing in for a scraper run.
func seedSnapshot(t *testing.T, path string, rows [][3]any) {
	t.Helper()
	db, err := staging.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Pool.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  title TEXT NOT NULL, company TEXT NOT NULL, location TEXT NOT NULL,
  url TEXT NOT NULL, ats_source TEXT NOT NULL, seniority TEXT NOT NULL,
  score INTEGER NOT NULL, found_at TEXT NOT NULL
);`)
	require.NoError(t, err)

	for _, r := range rows {
		foundAt := time.Now().Add(-r[2].(time.Duration)).UTC().Format(time.RFC3339)
		_, err = db.Pool.Exec(`
INSERT INTO jobs(title, company, location, url, ats_source, seniority, score, found_at)
VALUES(?,?,?,?,?,?,?,?);`,
			r[0], "Acme", "Remote", "https://acme.example/j", "greenhouse", "senior", r[1], foundAt)
		require.NoError(t, err)
	}
}

func testConfig(t *testing.T, stagingPath string) config.Config {
	cfg := config.Defaults()
	cfg.Scraper.Command = "true" // scraper already ran; snapshot is seeded
	cfg.Staging.Path = stagingPath
	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	seedSnapshot(t, path, [][3]any{
		{"Senior Platform Engineer", 90, 10 * time.Minute},
		{"Staff Infra Engineer", 70, 20 * time.Minute},
	})

	mem := docstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, docstore.CollUsers, "u1", docstore.Doc{
		"active":         true,
		"searchKeywords": []any{"engineer"},
		"minMatchScore":  50,
	}))

	r := NewRunner(testConfig(t, path), mem, notify.LogNotifier{}, events.NewHub())
	res, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, res.JobsScraped)
	assert.Equal(t, 2, res.JobsSynced)
	assert.Equal(t, 2, res.MatchesCreated)
	assert.Equal(t, 2, mem.Len(docstore.CollJobs))
	assert.Equal(t, 2, mem.Len(docstore.CollMatches))

	st := r.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 2, st.LastSynced)
}

func TestRun_RerunKeepsMatchesMayDuplicateJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	seedSnapshot(t, path, [][3]any{{"Senior Platform Engineer", 90, 10 * time.Minute}})

	mem := docstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, docstore.CollUsers, "u1", docstore.Doc{
		"active":         true,
		"searchKeywords": []any{"engineer"},
		"minMatchScore":  50,
	}))

	r := NewRunner(testConfig(t, path), mem, notify.LogNotifier{}, events.NewHub())
	_, err := r.Run(ctx)
	require.NoError(t, err)
	_, err = r.Run(ctx)
	require.NoError(t, err)

	// job docs duplicate across overlapping windows (no natural key);
	// matches do not: each re-synced copy is a distinct jobId, but the
	// original pair is never duplicated
	assert.Equal(t, 2, mem.Len(docstore.CollJobs))
	firstRunPairs := 1
	assert.Equal(t, firstRunPairs+1, mem.Len(docstore.CollMatches))
}

func TestRun_ScrapeFailureAbortsEverything(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	seedSnapshot(t, path, [][3]any{{"Senior Platform Engineer", 90, 10 * time.Minute}})

	mem := docstore.NewMemory()
	cfg := testConfig(t, path)
	cfg.Scraper.Command = "false"

	r := NewRunner(cfg, mem, notify.LogNotifier{}, events.NewHub())
	res, err := r.Run(context.Background())

	var serr *scrape.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 0, res.JobsSynced)
	assert.Equal(t, 0, mem.Len(docstore.CollJobs))
	assert.Equal(t, 0, mem.Len(docstore.CollMatches))
	assert.NotEmpty(t, r.Status().LastError)
}

func TestRun_ScrapeTimeoutAbortsEverything(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	seedSnapshot(t, path, nil)

	cfg := testConfig(t, path)
	cfg.Scraper.Command = "sleep"
	cfg.Scraper.Args = []string{"10"}
	cfg.Scraper.TimeoutMs = 100

	mem := docstore.NewMemory()
	r := NewRunner(cfg, mem, notify.LogNotifier{}, events.NewHub())
	res, err := r.Run(context.Background())

	var serr *scrape.Error
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Timeout)
	assert.Equal(t, 0, res.JobsSynced)
	assert.Equal(t, 0, mem.Len(docstore.CollJobs))
}

func TestRun_MissingSnapshotIsReadFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, filepath.Join(dir, "jobs.db"))

	mem := docstore.NewMemory()
	r := NewRunner(cfg, mem, notify.LogNotifier{}, events.NewHub())
	_, err := r.Run(context.Background())

	// snapshot file gets created empty by open; the missing table is the
	// read failure
	var rerr *staging.ReadError
	require.ErrorAs(t, err, &rerr)
}

func TestRun_EmptyWindowSucceedsWithZeroCounts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	seedSnapshot(t, path, [][3]any{{"old", 99, 48 * time.Hour}})

	mem := docstore.NewMemory()
	r := NewRunner(testConfig(t, path), mem, notify.LogNotifier{}, events.NewHub())
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.JobsScraped)
	assert.Equal(t, 0, res.JobsSynced)
	assert.NotEmpty(t, r.Status().LastOkAt)
}

func TestRun_PublishesEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	seedSnapshot(t, path, [][3]any{{"Senior Platform Engineer", 90, 10 * time.Minute}})

	hub := events.NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	r := NewRunner(testConfig(t, path), docstore.NewMemory(), notify.LogNotifier{}, hub)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	var types []string
	for len(ch) > 0 {
		types = append(types, <-ch)
	}
	joined := ""
	for _, m := range types {
		joined += m
	}
	assert.Contains(t, joined, events.TypeRunStarted)
	assert.Contains(t, joined, events.TypeJobSynced)
	assert.Contains(t, joined, events.TypeRunFinished)
}
