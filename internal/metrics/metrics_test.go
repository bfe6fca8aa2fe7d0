package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New("ties")
	m.ObserveAppError("CONFLICT")
	m.ObserveAppError("CONFLICT")
	m.ObserveEffect("email:booking_request", nil)
	m.ObserveEffect("email:booking_request", errors.New("smtp down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AppErrors.WithLabelValues("CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Effects.WithLabelValues("email:booking_request", "failed")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveAppError("X") })
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("ties")
	m.ObserveAppError("NOT_FOUND")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ties_app_errors_total{code="NOT_FOUND"} 1`)
}
