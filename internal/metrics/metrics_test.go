package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Middleware(mux)

	for _, p := range []string{"/items/1", "/items/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	got := testutil.ToFloat64(m.httpRequestTotal.WithLabelValues("GET", "GET /items/{id}", "418"))
	assert.Equal(t, 2.0, got)
}

func TestCounters(t *testing.T) {
	m := New()

	m.ExpenseCreated()
	m.EventPublished(nil)
	m.EventPublished(errors.New("down"))
	m.EventPublished(errors.New("down"))
	m.SessionsSwept(3)
	m.SessionsSwept(0)
	m.LoginFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.expensesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ExpenseCreated()
		m.EventPublished(nil)
		m.SessionsSwept(1)
		m.LoginFailed()
		m.ObserveRequest("GET", "/", 200, 0)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ExpenseCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "expenses_created_total 1"))
}
