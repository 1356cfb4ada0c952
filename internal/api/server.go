package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/aggregate"
	"github.com/stplive/stp-live/internal/pipeline"
	"github.com/stplive/stp-live/internal/telemetry"
)

// Aggregator produces every feature payload.
type Aggregator interface {
	CablecarHours(ctx context.Context) pipeline.Result[aggregate.HoursPayload]
	CablecarNotices(ctx context.Context) pipeline.Result[aggregate.NoticesPayload]
	Races(ctx context.Context) pipeline.Result[aggregate.RacesPayload]
	WeatherNow(ctx context.Context) pipeline.Result[aggregate.WeatherPayload]
	LatestVideos(ctx context.Context) pipeline.Result[aggregate.VideosPayload]
}

// Server wires HTTP handlers to the aggregator.
type Server struct {
	router chi.Router
	agg    Aggregator
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(agg Aggregator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		agg:    agg,
		logger: logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(telemetry.Middleware)
	r.Use(noStoreMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Group(func(r chi.Router) {
		r.Use(softRecoverMiddleware(s.logger))
		r.Get("/cablecar/hours", s.cablecarHours)
		r.Get("/cablecar/notices", s.cablecarNotices)
		r.Get("/races", s.races)
		r.Get("/weather/now", s.weatherNow)
		r.Get("/videos/latest", s.latestVideos)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The service has no downstream it must reach before serving.
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) cablecarHours(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.agg.CablecarHours(r.Context()))
}

func (s *Server) cablecarNotices(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.agg.CablecarNotices(r.Context()))
}

func (s *Server) races(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.agg.Races(r.Context()))
}

func (s *Server) weatherNow(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.agg.WeatherNow(r.Context()))
}

func (s *Server) latestVideos(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.agg.LatestVideos(r.Context()))
}

// failureBody is the soft-error payload of feature routes.
type failureBody struct {
	OK bool `json:"ok"`
	pipeline.Failure
}

// respond always answers 200: soft failures travel in the body.
func respond[T any](s *Server, w http.ResponseWriter, res pipeline.Result[T]) {
	if res.OK() {
		s.writeJSON(w, http.StatusOK, res.Value)
		return
	}
	s.writeJSON(w, http.StatusOK, failureBody{Failure: *res.Failure})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}
