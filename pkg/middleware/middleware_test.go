package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
)

// One registry-backed instance for the whole test binary; metrics.New
// registers with the default Prometheus registry.
var testMetrics = metrics.New()

func TestRequestIDEchoesInboundHeader(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/resolve", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied", seen)
	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/resolve", nil))

	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Len(t, id, 16, "8 random bytes hex-encoded")
}

func TestRouteLabelCollapsesUnknownPaths(t *testing.T) {
	assert.Equal(t, "/v1/resolve", routeLabel("/v1/resolve"))
	assert.Equal(t, "/v1/token", routeLabel("/v1/token"))
	assert.Equal(t, "/healthz", routeLabel("/healthz"))
	assert.Equal(t, "other", routeLabel("/v1/resolve/extra"))
	assert.Equal(t, "other", routeLabel("/admin"))
}

func TestMetricsRecordsStatusAndRoute(t *testing.T) {
	h := Metrics(testMetrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", nil))

	counter := testMetrics.HTTPRequestsTotal.WithLabelValues("POST", "/v1/resolve", "400")
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))
}

func TestTimeoutReplies504(t *testing.T) {
	h := Timeout(5 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.JSONEq(t, `{"error":"request timed out"}`, rec.Body.String())
}

func TestTimeoutPassesFastHandlerThrough(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/token", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
