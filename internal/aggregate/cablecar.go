package aggregate

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/cache"
	"github.com/stplive/stp-live/internal/merge"
	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

const (
	sourceHours   = "cablecar-hours"
	sourceNotices = "cablecar-notices"
)

// CablecarHours returns the operating-hours table. Only results with at least one row are cached.
func (s *Service) CablecarHours(ctx context.Context) pipeline.Result[HoursPayload] {
	if payload, ok := cache.Lookup[HoursPayload](s.cache, keyHours); ok {
		return pipeline.Succeed(payload)
	}
	ctx, span := s.startFeature(ctx, "hours")
	defer span.End()

	doc, err := s.fetch(ctx, sourceHours, s.cfg.Cablecar.HoursURL, false)
	if err != nil {
		return pipeline.Result[HoursPayload]{Failure: s.fail(span, "hours", err)}
	}
	extraction, err := s.hours.Extract(doc)
	if len(extraction.Candidates) == 0 {
		if err == nil {
			err = pipeline.NewExtractionError(pipeline.CodeTableEmpty, "Tablica je prazna ili neočekivan format.")
		}
		return pipeline.Result[HoursPayload]{Failure: s.fail(span, "hours", err)}
	}

	rows := make([]pipeline.ScheduleRow, 0, len(extraction.Candidates))
	for _, draft := range extraction.Candidates {
		rows = append(rows, normalize.Schedule(draft))
	}
	payload := HoursPayload{
		OK:        true,
		Rows:      rows,
		SourceURL: s.cfg.Cablecar.HoursURL,
		UpdatedAt: s.now(),
		Tier:      string(extraction.Tier),
	}
	s.cache.Set(keyHours, payload, s.cfg.Cache.HoursTTL)
	span.SetAttributes(attribute.Int("items", len(rows)))
	s.logger.Info("aggregated",
		zap.String("feature", "hours"),
		zap.Int("items", len(rows)),
		zap.String("tier", payload.Tier),
	)
	return pipeline.Succeed(payload)
}

// CablecarNotices returns same-site notice links, de-duplicated and capped. An empty
// list is a valid, cacheable answer.
func (s *Service) CablecarNotices(ctx context.Context) pipeline.Result[NoticesPayload] {
	if payload, ok := cache.Lookup[NoticesPayload](s.cache, keyNotices); ok {
		return pipeline.Succeed(payload)
	}
	ctx, span := s.startFeature(ctx, "notices")
	defer span.End()

	doc, err := s.fetch(ctx, sourceNotices, s.cfg.Cablecar.NoticesURL, false)
	if err != nil {
		return pipeline.Result[NoticesPayload]{Failure: s.fail(span, "notices", err)}
	}
	extraction, err := s.notices.Extract(doc)
	if err != nil && len(extraction.Candidates) == 0 {
		return pipeline.Result[NoticesPayload]{Failure: s.fail(span, "notices", err)}
	}

	items := make([]pipeline.NoticeItem, 0, len(extraction.Candidates))
	for _, candidate := range extraction.Candidates {
		items = append(items, normalize.Notice(candidate))
	}
	items = merge.DedupeByURL(items, func(n pipeline.NoticeItem) string { return n.URL })
	items = merge.Cap(items, s.cfg.Cablecar.NoticesMaxItems)

	payload := NoticesPayload{
		OK:        true,
		Items:     items,
		SourceURL: s.cfg.Cablecar.NoticesURL,
		UpdatedAt: s.now(),
	}
	s.cache.Set(keyNotices, payload, s.cfg.Cache.NoticesTTL)
	s.logger.Info("aggregated",
		zap.String("feature", "notices"),
		zap.Int("items", len(items)),
		zap.String("tier", string(extraction.Tier)),
	)
	return pipeline.Succeed(payload)
}
