package aggregate

import (
	"context"

	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/cache"
	"github.com/stplive/stp-live/internal/merge"
	"github.com/stplive/stp-live/internal/pipeline"
)

const (
	sourceWeather = "dhmz"
	sourceVideos  = "youtube"
)

// WeatherNow returns the current reading of the configured DHMZ station.
func (s *Service) WeatherNow(ctx context.Context) pipeline.Result[WeatherPayload] {
	key := weatherKey(s.cfg.Weather.Station)
	if payload, ok := cache.Lookup[WeatherPayload](s.cache, key); ok {
		return pipeline.Succeed(payload)
	}
	ctx, span := s.startFeature(ctx, "weather")
	defer span.End()

	doc, err := s.fetch(ctx, sourceWeather, s.cfg.Weather.DHMZURL, false)
	if err != nil {
		return pipeline.Result[WeatherPayload]{Failure: s.fail(span, "weather", err)}
	}
	extraction, err := s.weather.Extract(doc)
	if len(extraction.Candidates) == 0 {
		if err == nil {
			err = pipeline.NewExtractionError(pipeline.CodeStationNotFound, s.cfg.Weather.Station)
		}
		return pipeline.Result[WeatherPayload]{Failure: s.fail(span, "weather", err)}
	}

	payload := WeatherPayload{
		OK:             true,
		StationReading: extraction.Candidates[0],
		SourceURL:      s.cfg.Weather.DHMZURL,
		UpdatedAt:      s.now(),
	}
	s.cache.Set(key, payload, s.cfg.Cache.WeatherTTL)
	s.logger.Info("aggregated", zap.String("feature", "weather"), zap.String("station", payload.Station))
	return pipeline.Succeed(payload)
}

// LatestVideos returns the newest channel uploads in feed order.
func (s *Service) LatestVideos(ctx context.Context) pipeline.Result[VideosPayload] {
	if payload, ok := cache.Lookup[VideosPayload](s.cache, keyVideos); ok {
		return pipeline.Succeed(payload)
	}
	ctx, span := s.startFeature(ctx, "videos")
	defer span.End()

	doc, err := s.fetch(ctx, sourceVideos, s.cfg.Videos.FeedURL, false)
	if err != nil {
		return pipeline.Result[VideosPayload]{Failure: s.fail(span, "videos", err)}
	}
	extraction, err := s.videos.Extract(doc)
	if err != nil {
		return pipeline.Result[VideosPayload]{Failure: s.fail(span, "videos", err)}
	}

	items := make([]pipeline.Video, 0, len(extraction.Candidates))
	items = append(items, merge.Cap(extraction.Candidates, s.cfg.Videos.MaxItems)...)
	payload := VideosPayload{
		OK:        true,
		Items:     items,
		Source:    s.cfg.Videos.FeedURL,
		UpdatedAt: s.now(),
	}
	s.cache.Set(keyVideos, payload, s.cfg.Cache.VideosTTL)
	s.logger.Info("aggregated", zap.String("feature", "videos"), zap.Int("items", len(items)))
	return pipeline.Succeed(payload)
}
