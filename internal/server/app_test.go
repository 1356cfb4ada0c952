package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/clock/system"
	"github.com/stplive/stp-live/internal/config"
	"github.com/stplive/stp-live/internal/fetcher"
	collyfetcher "github.com/stplive/stp-live/internal/fetcher/colly"
	headlessfetcher "github.com/stplive/stp-live/internal/fetcher/headless"
)

func defaultConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestBuildServesHealth(t *testing.T) {
	cfg := defaultConfig(t)

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close(context.Background())) })

	require.NotNil(t, app.Aggregator())
	require.NotNil(t, app.Logger())

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSetupFetcherWithoutHeadless(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	cfg.Headless.Enabled = false
	app := &App{cfg: cfg, logger: zap.NewNop()}

	paced, ok := app.setupFetcher(system.New()).(*fetcher.Paced)
	require.True(t, ok)
	require.IsType(t, &collyfetcher.Fetcher{}, paced.Unwrap())
	require.Nil(t, app.closeHeadless)
}

func TestSetupFetcherWithHeadless(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	cfg.Headless.Enabled = true
	cfg.Headless.MaxParallel = 1
	app := &App{cfg: cfg, logger: zap.NewNop()}

	paced, ok := app.setupFetcher(system.New()).(*fetcher.Paced)
	require.True(t, ok)
	promoting, ok := paced.Unwrap().(*fetcher.Promoting)
	require.True(t, ok)
	require.IsType(t, &headlessfetcher.Fetcher{}, promoting.Renderer())
	require.NotNil(t, app.closeHeadless)
	app.closeHeadless()
}

func TestSetupFetcherFallsBackWhenHeadlessInitFails(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	cfg.Headless.Enabled = true
	cfg.Headless.MaxParallel = -1
	app := &App{cfg: cfg, logger: zap.NewNop()}

	paced, ok := app.setupFetcher(system.New()).(*fetcher.Paced)
	require.True(t, ok)
	promoting, ok := paced.Unwrap().(*fetcher.Promoting)
	require.True(t, ok)
	require.IsType(t, &headlessfetcher.Noop{}, promoting.Renderer())
	require.Nil(t, app.closeHeadless)
}
