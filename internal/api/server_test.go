package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/aggregate"
	"github.com/stplive/stp-live/internal/pipeline"
)

func TestServer_FeatureRoutesReturnPayloads(t *testing.T) {
	t.Parallel()

	agg := &fakeAggregator{
		hours: pipeline.Succeed(aggregate.HoursPayload{
			OK:        true,
			Rows:      []pipeline.ScheduleRow{{Station: "Donja postaja", FirstDeparture: "08:00", LastDepartureWeekday: "16:30", LastDepartureWeekend: "17:30"}},
			SourceURL: "https://www.sljemenska-zicara.hr/",
			UpdatedAt: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
			Tier:      "structural",
		}),
		races: pipeline.Succeed(aggregate.RacesPayload{OK: true, Items: []pipeline.RaceEvent{}}),
	}
	server := NewServer(agg, zap.NewNop())

	rec := serve(server, "/cablecar/hours")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["ok"])
	require.Equal(t, "https://www.sljemenska-zicara.hr/", body["sourceUrl"])
	require.Equal(t, "2026-10-01T08:00:00Z", body["updatedAt"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	require.Equal(t, "08:00", rows[0].(map[string]any)["firstDeparture"])

	rec = serve(server, "/races")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true,"items":[],"updatedAt":"0001-01-01T00:00:00Z","sources":null}`, rec.Body.String())
}

func TestServer_SoftFailuresStay200(t *testing.T) {
	t.Parallel()

	agg := &fakeAggregator{
		hours: pipeline.Fail[aggregate.HoursPayload](pipeline.NewExtractionError(pipeline.CodeTableNotFound, "Ne nalazim tablicu.")),
		notices: pipeline.Fail[aggregate.NoticesPayload](&pipeline.FetchError{
			Kind: pipeline.FetchTimeout, URL: "https://x.test",
		}),
	}
	server := NewServer(agg, zap.NewNop())

	rec := serve(server, "/cablecar/hours")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":false,"error":"table_not_found","hint":"Ne nalazim tablicu."}`, rec.Body.String())

	rec = serve(server, "/cablecar/notices")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":false,"error":"fetch_failed","details":"fetch https://x.test: timeout"}`, rec.Body.String())
}

func TestServer_FeaturePanicIsSoft(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeAggregator{panics: true}, zap.NewNop())
	for _, path := range []string{"/cablecar/hours", "/cablecar/notices", "/races", "/weather/now", "/videos/latest"} {
		rec := serve(server, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.JSONEq(t, `{"ok":false,"error":"unexpected"}`, rec.Body.String(), path)
	}
}

func TestServer_HealthAndReady(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeAggregator{}, nil)

	rec := serve(server, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(server, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestServer_MetricsExposesHTTPCounters(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeAggregator{}, zap.NewNop())
	serve(server, "/healthz")

	rec := serve(server, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_UnknownRouteIs404(t *testing.T) {
	t.Parallel()

	rec := serve(NewServer(&fakeAggregator{}, zap.NewNop()), "/v1/jobs")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeAggregator{}, zap.NewNop())
	rec := serve(server, "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddlewareReturns500(t *testing.T) {
	t.Parallel()

	handler := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.EqualError(t, err, "hijacker not supported")

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	require.NoError(t, err)
	require.NotNil(t, buf)
	require.NoError(t, conn.Close())
	require.NoError(t, h.CloseClient())
}

// --- helpers/fakes ---

func serve(server *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

type fakeAggregator struct {
	hours   pipeline.Result[aggregate.HoursPayload]
	notices pipeline.Result[aggregate.NoticesPayload]
	races   pipeline.Result[aggregate.RacesPayload]
	weather pipeline.Result[aggregate.WeatherPayload]
	videos  pipeline.Result[aggregate.VideosPayload]
	panics  bool
}

func (f *fakeAggregator) check() {
	if f.panics {
		panic("aggregator exploded")
	}
}

func (f *fakeAggregator) CablecarHours(context.Context) pipeline.Result[aggregate.HoursPayload] {
	f.check()
	return f.hours
}

func (f *fakeAggregator) CablecarNotices(context.Context) pipeline.Result[aggregate.NoticesPayload] {
	f.check()
	return f.notices
}

func (f *fakeAggregator) Races(context.Context) pipeline.Result[aggregate.RacesPayload] {
	f.check()
	return f.races
}

func (f *fakeAggregator) WeatherNow(context.Context) pipeline.Result[aggregate.WeatherPayload] {
	f.check()
	return f.weather
}

func (f *fakeAggregator) LatestVideos(context.Context) pipeline.Result[aggregate.VideosPayload] {
	f.check()
	return f.videos
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client != nil {
		if err := h.client.Close(); err != nil {
			return fmt.Errorf("close hijacker client: %w", err)
		}
	}
	return nil
}
