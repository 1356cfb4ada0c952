package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stplive/stp-live/internal/pipeline"
)

func TestPromotingUsesProbeWhenNotFlagged(t *testing.T) {
	t.Parallel()

	probe := &stubFetcher{doc: pipeline.RawDocument{Body: "probe"}}
	headless := &stubFetcher{doc: pipeline.RawDocument{Body: "rendered"}}
	p := NewPromoting(probe, headless, stubDetector(false), nil)

	doc, err := p.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://a.test", AllowRender: true})
	require.NoError(t, err)
	require.Equal(t, "probe", doc.Body)
	require.Zero(t, headless.calls)
}

func TestPromotingRendersFlaggedDocument(t *testing.T) {
	t.Parallel()

	probe := &stubFetcher{doc: pipeline.RawDocument{Body: "probe"}}
	headless := &stubFetcher{doc: pipeline.RawDocument{Body: "rendered"}}
	p := NewPromoting(probe, headless, stubDetector(true), nil)

	doc, err := p.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://a.test", AllowRender: true})
	require.NoError(t, err)
	require.Equal(t, "rendered", doc.Body)
	require.True(t, doc.Rendered)
}

func TestPromotingRespectsAllowRender(t *testing.T) {
	t.Parallel()

	headless := &stubFetcher{doc: pipeline.RawDocument{Body: "rendered"}}
	p := NewPromoting(&stubFetcher{doc: pipeline.RawDocument{Body: "probe"}}, headless, stubDetector(true), nil)

	doc, err := p.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://a.test"})
	require.NoError(t, err)
	require.Equal(t, "probe", doc.Body)
	require.Zero(t, headless.calls)
}

func TestPromotingFallsBackToProbeOnHeadlessFailure(t *testing.T) {
	t.Parallel()

	headless := &stubFetcher{err: errors.New("no chrome")}
	p := NewPromoting(&stubFetcher{doc: pipeline.RawDocument{Body: "probe"}}, headless, stubDetector(true), nil)

	doc, err := p.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://a.test", AllowRender: true})
	require.NoError(t, err)
	require.Equal(t, "probe", doc.Body)
	require.Equal(t, 1, headless.calls)
}

func TestPromotingReturnsProbeError(t *testing.T) {
	t.Parallel()

	probeErr := &pipeline.FetchError{Kind: pipeline.FetchTimeout, URL: "https://a.test"}
	p := NewPromoting(&stubFetcher{err: probeErr}, nil, nil, nil)

	_, err := p.Fetch(context.Background(), pipeline.FetchRequest{URL: "https://a.test", AllowRender: true})
	require.ErrorIs(t, err, probeErr)
}

type stubFetcher struct {
	doc   pipeline.RawDocument
	err   error
	calls int
	last  pipeline.FetchRequest
}

func (s *stubFetcher) Fetch(_ context.Context, request pipeline.FetchRequest) (pipeline.RawDocument, error) {
	s.calls++
	s.last = request
	return s.doc, s.err
}

type stubDetector bool

func (d stubDetector) ShouldPromote(pipeline.RawDocument) bool {
	return bool(d)
}
