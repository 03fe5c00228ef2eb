package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/pipeline"
	"jobmatch-engine/internal/scrape"
	"jobmatch-engine/internal/staging"
	"jobmatch-engine/internal/syncer"
)

type stubPipeline struct {
	res pipeline.Result
	err error
}

func (s stubPipeline) Run(ctx context.Context) (pipeline.Result, error) { return s.res, s.err }
func (s stubPipeline) Status() pipeline.Status                          { return pipeline.Status{LastSynced: s.res.JobsSynced} }

const testSecret = "cron-secret"

func doSync(t *testing.T, p PipelineRunner, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	h := SyncHandler{Pipeline: p, Auth: BearerAuth{Secret: testSecret, SessionKey: []byte("session-key")}}
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.Run(rec, req)
	return rec
}

func TestSyncRun_Unauthorized(t *testing.T) {
	for name, header := range map[string]string{
		"no header":    "",
		"wrong secret": "Bearer nope",
		"not bearer":   "Basic abc",
	} {
		t.Run(name, func(t *testing.T) {
			rec := doSync(t, stubPipeline{}, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Unauthorized", body["error"])
		})
	}
}

func TestSyncRun_SharedSecretOK(t *testing.T) {
	p := stubPipeline{res: pipeline.Result{JobsScraped: 3, JobsSynced: 3, MatchesCreated: 2}}
	rec := doSync(t, p, "Bearer "+testSecret)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.JobsScraped)
	assert.Equal(t, 3, body.JobsSynced)
	assert.Equal(t, 2, body.MatchesCreated)
}

func TestSyncRun_SessionTokenOK(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("session-key"))
	require.NoError(t, err)

	rec := doSync(t, stubPipeline{}, "Bearer "+signed)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSyncRun_ExpiredSessionRejected(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("session-key"))
	require.NoError(t, err)

	rec := doSync(t, stubPipeline{}, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncRun_StageFailureDetails(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		stage string
	}{
		{"scrape timeout", &scrape.Error{Timeout: true, Err: context.DeadlineExceeded}, "scrape"},
		{"staging read", &staging.ReadError{Err: assert.AnError}, "staging"},
		{"sync write", &syncer.WriteError{Committed: 4, Err: assert.AnError}, "sync"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := stubPipeline{res: pipeline.Result{JobsScraped: 9, JobsSynced: 4}, err: tc.err}
			rec := doSync(t, p, "Bearer "+testSecret)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			var body syncErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.stage, body.Stage)
			assert.NotEmpty(t, body.Details)
			assert.Equal(t, 9, body.JobsScraped)
			assert.Equal(t, 4, body.JobsSynced)
		})
	}
}

func TestSyncRun_AlreadyRunningConflict(t *testing.T) {
	rec := doSync(t, stubPipeline{err: pipeline.ErrAlreadyRunning}, "Bearer "+testSecret)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSyncStatus(t *testing.T) {
	h := SyncHandler{Pipeline: stubPipeline{res: pipeline.Result{JobsSynced: 5}}}
	req := httptest.NewRequest(http.MethodGet, "/sync/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	var st pipeline.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 5, st.LastSynced)
}
