package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/stplive/stp-live/internal/config"
)

func TestMiddlewareRecordsStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/telemetry-ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/telemetry-teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	okBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200"))
	teapotBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418"))

	for _, path := range []string{"/telemetry-ok", "/telemetry-teapot"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.InDelta(t, okBefore+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "200")), 0)
	require.InDelta(t, teapotBefore+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418")), 0)
	require.Positive(t, testutil.CollectAndCount(httpRequestDurationSeconds))
}

func TestObserveHelpers(t *testing.T) {
	ObserveCacheLookup("test:key", true)
	ObserveCacheLookup("test:key", false)
	ObserveCacheLookup("test:key", false)
	ObserveSourceFetch("test-source", "timeout", 2*time.Second)
	ObserveExtraction("test-strategy", "textual")

	require.InDelta(t, 1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("test:key", "hit")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("test:key", "miss")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(sourceFetchTotal.WithLabelValues("test-source", "timeout")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(extractionTotal.WithLabelValues("test-strategy", "textual")), 0)
}

func TestInitTracerProviderDisabled(t *testing.T) {
	tp, err := InitTracerProvider(context.Background(), config.TracingConfig{ServiceName: "stp-live-test"})
	require.NoError(t, err)
	require.NotNil(t, tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := Tracer().Start(context.Background(), "probe")
	span.End()
}
