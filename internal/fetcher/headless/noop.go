package headless

import (
	"context"
	"errors"

	"github.com/stplive/stp-live/internal/pipeline"
)

// ErrDisabled is returned by Noop.
var ErrDisabled = errors.New("headless fetcher not configured")

// Noop implements pipeline.Fetcher for deployments without a browser.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always fails with a network FetchError wrapping ErrDisabled.
func (Noop) Fetch(_ context.Context, request pipeline.FetchRequest) (pipeline.RawDocument, error) {
	return pipeline.RawDocument{}, &pipeline.FetchError{Kind: pipeline.FetchNetwork, URL: request.URL, Err: ErrDisabled}
}
