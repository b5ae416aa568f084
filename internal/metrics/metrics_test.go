package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	c := New()
	c.RecordHTTPRequest(http.MethodGet, "/api/subscriptions", 200, 15*time.Millisecond)
	c.RecordHTTPRequest(http.MethodGet, "/api/subscriptions", 200, 5*time.Millisecond)
	c.RecordHTTPRequest(http.MethodPost, "/api/subscriptions", 401, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("GET", "/api/subscriptions", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("POST", "/api/subscriptions", "401")))
}

func TestObserveStatus(t *testing.T) {
	c := New()
	c.ObserveStatus(models.StatusUrgent)
	c.ObserveStatus(models.StatusUrgent)
	c.ObserveStatus(models.StatusSafe)

	require.Equal(t, 2.0, testutil.ToFloat64(c.StatusDerivations.WithLabelValues("urgent")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.StatusDerivations.WithLabelValues("safe")))
	require.Equal(t, 0.0, testutil.ToFloat64(c.StatusDerivations.WithLabelValues("warning")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordSessionCreated()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "cancelbuddy_sessions_created_total 1")
	require.True(t, strings.Contains(body, "go_goroutines"))
}
