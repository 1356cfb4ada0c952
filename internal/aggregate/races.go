package aggregate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stplive/stp-live/internal/cache"
	"github.com/stplive/stp-live/internal/config"
	"github.com/stplive/stp-live/internal/extract"
	"github.com/stplive/stp-live/internal/merge"
	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

type raceOutcome struct {
	status SourceStatus
	events []pipeline.RaceEvent
}

// Races merges every configured calendar. A failing source contributes nothing and
// never fails the aggregation; the result is cached only when a source succeeded.
func (s *Service) Races(ctx context.Context) pipeline.Result[RacesPayload] {
	if payload, ok := cache.Lookup[RacesPayload](s.cache, keyRaces); ok {
		return pipeline.Succeed(payload)
	}
	ctx, span := s.startFeature(ctx, "races")
	defer span.End()

	sources := s.cfg.Races.SourceList()
	outcomes := make([]raceOutcome, len(sources))

	// Goroutines always return nil so one source never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			outcomes[i] = s.raceSource(gctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var (
		all       []pipeline.RaceEvent
		statuses  = make([]SourceStatus, 0, len(outcomes))
		succeeded int
	)
	for _, outcome := range outcomes {
		statuses = append(statuses, outcome.status)
		if outcome.status.OK {
			succeeded++
		}
		all = append(all, outcome.events...)
	}

	items := merge.DedupeByURL(all, func(ev pipeline.RaceEvent) string { return ev.URL })
	merge.SortRaces(items)
	items = merge.Cap(items, s.cfg.Races.MaxItems)

	payload := RacesPayload{
		OK:        true,
		Items:     items,
		UpdatedAt: s.now(),
		Sources:   statuses,
	}
	span.SetAttributes(attribute.Int("items", len(items)), attribute.Int("sources.ok", succeeded))
	if succeeded > 0 {
		s.cache.Set(keyRaces, payload, s.cfg.Cache.RacesTTL)
	}
	s.logger.Info("aggregated",
		zap.String("feature", "races"),
		zap.Int("items", len(items)),
		zap.Int("sources_ok", succeeded),
		zap.Int("sources", len(sources)),
	)
	return pipeline.Succeed(payload)
}

// raceSource fetches, extracts, normalizes, and filters one calendar. Panics are
// contained here and reported as an unexpected source error.
func (s *Service) raceSource(ctx context.Context, src config.SourceConfig) (out raceOutcome) {
	out.status = SourceStatus{Source: src.Name, URL: src.URL, Tier: string(extract.TierNone)}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("race source panicked",
				zap.String("source", src.Name),
				zap.String("panic", fmt.Sprint(r)),
			)
			out = raceOutcome{status: SourceStatus{
				Source: src.Name,
				URL:    src.URL,
				Tier:   string(extract.TierNone),
				Error:  pipeline.CodeUnexpected,
			}}
		}
	}()

	strategy, ok := s.races[src.Name]
	if !ok {
		strategy = raceStrategy(src, s.cfg.Races.MinLinkText)
	}

	doc, err := s.fetch(ctx, src.Name, src.URL, src.Render)
	if err != nil {
		out.status.Error = pipeline.FailureFrom(err).Code
		return out
	}
	extraction, err := strategy.Extract(doc)
	if err != nil && len(extraction.Candidates) == 0 {
		out.status.Error = pipeline.FailureFrom(err).Code
		s.logger.Warn("race extraction failed", zap.String("source", src.Name), zap.Error(err))
		return out
	}

	out.status.OK = true
	out.status.Tier = string(extraction.Tier)
	for _, draft := range extraction.Candidates {
		event, keep := s.policy.Admit(normalize.Race(draft))
		if !keep || event.URL == "" {
			continue
		}
		out.events = append(out.events, event)
	}
	out.status.Count = len(out.events)
	return out
}
