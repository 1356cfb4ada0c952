package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/cache"
	"github.com/stplive/stp-live/internal/classify"
	"github.com/stplive/stp-live/internal/config"
	"github.com/stplive/stp-live/internal/extract"
	"github.com/stplive/stp-live/internal/logging"
	"github.com/stplive/stp-live/internal/pipeline"
	"github.com/stplive/stp-live/internal/telemetry"
)

// Service aggregates every feature. It is safe for concurrent use.
type Service struct {
	fetcher pipeline.Fetcher
	cache   *cache.Store
	clock   pipeline.Clock
	cfg     config.Config
	policy  classify.Policy
	logger  *zap.Logger
	tracer  trace.Tracer

	hours   extract.Strategy[pipeline.ScheduleDraft]
	notices extract.Strategy[pipeline.NoticeItem]
	races   map[string]extract.Strategy[pipeline.RaceDraft]
	weather extract.Strategy[pipeline.StationReading]
	videos  extract.Strategy[pipeline.Video]
}

// New constructs a Service. cfg is expected to have passed Validate.
func New(
	fetcher pipeline.Fetcher,
	store *cache.Store,
	clock pipeline.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	races := make(map[string]extract.Strategy[pipeline.RaceDraft], len(cfg.Races.Sources))
	for _, src := range cfg.Races.SourceList() {
		races[src.Name] = raceStrategy(src, cfg.Races.MinLinkText)
	}
	return &Service{
		fetcher: fetcher,
		cache:   store,
		clock:   clock,
		cfg:     cfg,
		policy: classify.NewPolicy(
			cfg.Races.DisciplineWords,
			cfg.Races.HomeWords,
			cfg.Races.HomeCountry,
			cfg.Races.CountryAliases,
			cfg.Races.TargetDiscipline,
		),
		logger:  logger.Named("aggregate"),
		tracer:  telemetry.Tracer(),
		hours:   extract.ScheduleStrategy(extract.ScheduleOptions{WindowBytes: cfg.Cablecar.WindowBytes}),
		notices: extract.NoticeStrategy(extract.NoticeOptions{MinTitle: cfg.Cablecar.NoticesMinTitle, Denylist: cfg.Cablecar.NoticesDenylist}),
		races:   races,
		weather: extract.WeatherStrategy(cfg.Weather.Station),
		videos:  extract.VideoStrategy(),
	}
}

func raceStrategy(src config.SourceConfig, minLinkText int) extract.Strategy[pipeline.RaceDraft] {
	tag := pipeline.RaceSource(src.Source)
	if src.Kind == config.KindStructured {
		return extract.StructuredRaceStrategy(tag)
	}
	return extract.LinkRaceStrategy(extract.LinkRaceOptions{
		Source:       tag,
		LinkFragment: src.LinkFragment,
		MinLinkText:  minLinkText,
	})
}

// startFeature detaches ctx from the caller so a client disconnect never aborts
// upstream calls; each fetch is still bounded by its own timeout.
func (s *Service) startFeature(ctx context.Context, feature string) (context.Context, trace.Span) {
	return s.tracer.Start(context.WithoutCancel(ctx), "aggregate."+feature,
		trace.WithAttributes(attribute.String("feature", feature)))
}

// fetch retrieves one source document, recording metrics, a child span, and a warning on failure.
func (s *Service) fetch(ctx context.Context, source, url string, allowRender bool) (pipeline.RawDocument, error) {
	ctx, span := s.tracer.Start(ctx, "fetch."+source, trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("url", url),
	))
	defer span.End()

	start := time.Now()
	doc, err := s.fetcher.Fetch(ctx, pipeline.FetchRequest{
		URL:         url,
		Timeout:     s.cfg.FetchTimeout(),
		AllowRender: allowRender,
	})
	if err != nil {
		kind := pipeline.FetchKindOf(err)
		if kind == "" {
			kind = pipeline.FetchNetwork
		}
		telemetry.ObserveSourceFetch(source, string(kind), time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		logging.Source(s.logger, source, url).Warn("source fetch failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return pipeline.RawDocument{}, fmt.Errorf("source %s: %w", source, err)
	}
	telemetry.ObserveSourceFetch(source, "ok", time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", doc.StatusCode), attribute.Bool("rendered", doc.Rendered))
	return doc, nil
}

func (s *Service) fail(span trace.Span, feature string, err error) *pipeline.Failure {
	failure := pipeline.FailureFrom(err)
	span.SetStatus(codes.Error, failure.Code)
	s.logger.Warn("aggregation failed",
		zap.String("feature", feature),
		zap.String("code", failure.Code),
		zap.Error(err),
	)
	return failure
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
