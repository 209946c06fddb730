package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordRequest(t *testing.T) {
	RecordRequest("/api/test-route", "POST", http.StatusUnprocessableEntity, 15*time.Millisecond)

	body := scrape(t)
	assert.Contains(t, body, `quantfolio_api_requests_total{method="POST",route="/api/test-route",status="422"} 1`)
	assert.Contains(t, body, `quantfolio_api_request_duration_seconds_count{route="/api/test-route"} 1`)
}

func TestRecordOptimization(t *testing.T) {
	RecordOptimization(time.Second, true)
	RecordOptimization(time.Second, false)

	body := scrape(t)
	assert.Contains(t, body, "quantfolio_optimizer_fallbacks_total 1")
	assert.Contains(t, body, "quantfolio_optimizer_duration_seconds_count 2")
}

func TestFetchAndJobCounters(t *testing.T) {
	RecordFetchError("ZZZZ")
	RecordFetchError("ZZZZ")
	RecordJobRun("test_job", false)
	RecordJobRun("test_job", true)
	RecordCacheHit()
	RecordCacheMiss()

	body := scrape(t)
	assert.Contains(t, body, `quantfolio_price_fetch_errors_total{ticker="ZZZZ"} 2`)
	assert.Contains(t, body, `quantfolio_job_runs_total{job="test_job",status="failure"} 1`)
	assert.Contains(t, body, `quantfolio_job_runs_total{job="test_job",status="success"} 1`)
	assert.Contains(t, body, `quantfolio_price_cache_lookups_total{result="hit"}`)
}
