// Package fetcher composes the probe and headless fetchers.
package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/pipeline"
)

// Detector flags probe documents that need a browser render.
type Detector interface {
	ShouldPromote(doc pipeline.RawDocument) bool
}

// Promoting fetches with a plain HTTP probe and re-fetches in a headless browser
// when the request allows it and the detector flags the probe.
type Promoting struct {
	probe    pipeline.Fetcher
	headless pipeline.Fetcher
	detector Detector
	logger   *zap.Logger
}

// NewPromoting builds a Promoting fetcher. A nil headless fetcher or detector disables promotion.
func NewPromoting(probe, headless pipeline.Fetcher, detector Detector, logger *zap.Logger) *Promoting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Promoting{
		probe:    probe,
		headless: headless,
		detector: detector,
		logger:   logger.Named("fetcher"),
	}
}

// Fetch implements pipeline.Fetcher.
func (p *Promoting) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.RawDocument, error) {
	doc, err := p.probe.Fetch(ctx, request)
	if err != nil {
		return pipeline.RawDocument{}, err
	}
	if promoted, ok := p.maybePromote(ctx, request, doc); ok {
		return promoted, nil
	}
	return doc, nil
}

func (p *Promoting) maybePromote(
	ctx context.Context,
	request pipeline.FetchRequest,
	doc pipeline.RawDocument,
) (pipeline.RawDocument, bool) {
	if !request.AllowRender || p.headless == nil || p.detector == nil {
		return doc, false
	}
	if !p.detector.ShouldPromote(doc) {
		return doc, false
	}

	rendered, err := p.headless.Fetch(ctx, request)
	if err != nil {
		p.logger.Warn("headless promotion failed", zap.String("url", request.URL), zap.Error(err))
		return doc, false
	}
	p.logger.Info("headless promotion applied", zap.String("url", request.URL))
	rendered.Rendered = true
	return rendered, true
}

// Renderer returns the fetcher used for promoted documents, or nil when promotion is off.
func (p *Promoting) Renderer() pipeline.Fetcher {
	return p.headless
}
