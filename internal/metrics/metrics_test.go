package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ProjectRejected("id")
	m.FieldCorrected("level")
	m.ProjectsLoaded(3)
	m.Reloaded(true)
	m.ImageAttempt("primary", false)
	m.ImageSettled("error")
	m.ObserveRequest(http.MethodGet, 200, time.Millisecond)
	assert.Nil(t, m.Registry())

	totals, err := m.Totals("portfolio_projects_rejected_total", "field")
	require.NoError(t, err)
	assert.Empty(t, totals)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTotals(t *testing.T) {
	m := New()
	m.ProjectRejected("id")
	m.ProjectRejected("id")
	m.ProjectRejected("technologies")
	m.FieldCorrected("date")

	totals, err := m.Totals("portfolio_projects_rejected_total", "field")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"id": 2, "technologies": 1}, totals)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.fieldCorrections.WithLabelValues("date")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ProjectsLoaded(4)
	m.ImageAttempt("fallback", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "portfolio_projects_loaded 4")
	assert.Contains(t, body, `portfolio_image_attempts_total{result="ok",source="fallback"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
