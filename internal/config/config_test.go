package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "STP-Live/0.1", cfg.HTTP.UserAgent)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
	require.Equal(t, 15*time.Minute, cfg.Cache.HoursTTL)
	require.Equal(t, 30*time.Minute, cfg.Cache.RacesTTL)
	require.Equal(t, 12, cfg.Cablecar.NoticesMaxItems)
	require.Contains(t, cfg.Cablecar.NoticesDenylist, "Planirani zastoji")
	require.Equal(t, 30, cfg.Races.MaxItems)
	require.Equal(t, "HR", cfg.Races.HomeCountry)
	require.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UClm1wSlhKqn053TfjYqNxXQ", cfg.Videos.FeedURL)

	sources := cfg.Races.SourceList()
	require.Len(t, sources, 3)
	require.Equal(t, []string{"hbs", "mtbhr", "uci"}, []string{sources[0].Name, sources[1].Name, sources[2].Name})
	require.Equal(t, KindStructured, sources[2].Kind)
	require.True(t, sources[2].Render)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
logging:
  development: false
  level: warn
http:
  timeout_seconds: 5
  user_agent: test-agent
cache:
  races_ttl: 45m
cablecar:
  notices_max_items: 5
races:
  max_items: 20
  sources:
    hbs:
      url: https://mirror.example.test/kalendar/
    extra:
      url: https://extra.example.test/events/
      kind: links
      source: primaryB
      link_fragment: /events/
    uci:
      render: false
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.False(t, cfg.Logging.Development)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, 5*time.Second, cfg.FetchTimeout())
	require.Equal(t, "test-agent", cfg.HTTP.UserAgent)
	require.Equal(t, 45*time.Minute, cfg.Cache.RacesTTL)
	require.Equal(t, 10*time.Minute, cfg.Cache.NoticesTTL)
	require.Equal(t, 5, cfg.Cablecar.NoticesMaxItems)
	require.Equal(t, 20, cfg.Races.MaxItems)

	hbs := cfg.Races.Sources["hbs"]
	require.Equal(t, "https://mirror.example.test/kalendar/", hbs.URL)
	require.Equal(t, KindLinks, hbs.Kind)
	require.Equal(t, "primaryA", hbs.Source)
	require.Equal(t, "/kalendar/", hbs.LinkFragment)

	extra := cfg.Races.Sources["extra"]
	require.Equal(t, "extra", extra.Name)
	require.Equal(t, "/events/", extra.LinkFragment)
	require.Len(t, cfg.Races.SourceList(), 4)

	uci := cfg.Races.Sources["uci"]
	require.False(t, uci.Render)
	require.Equal(t, KindStructured, uci.Kind)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "invalid timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, want: "http.timeout_seconds"},
		{
			name: "headless missing max parallel",
			mutate: func(c *Config) {
				c.Headless.Enabled = true
				c.Headless.MaxParallel = 0
			},
			want: "headless.max_parallel",
		},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.WeatherTTL = 0 }, want: "cache.weather_ttl"},
		{name: "race cap", mutate: func(c *Config) { c.Races.MaxItems = 500 }, want: "races.max_items"},
		{name: "home country", mutate: func(c *Config) { c.Races.HomeCountry = " " }, want: "races.home_country"},
		{
			name: "unknown kind",
			mutate: func(c *Config) {
				c.Races.Sources = map[string]SourceConfig{"x": {Name: "x", URL: "https://x.test", Kind: "rss", Source: "primaryA"}}
			},
			want: "races.sources.x.kind",
		},
		{
			name: "unknown source",
			mutate: func(c *Config) {
				c.Races.Sources = map[string]SourceConfig{"x": {Name: "x", URL: "https://x.test", Kind: KindLinks, Source: "tertiary"}}
			},
			want: "races.sources.x.source",
		},
		{
			name: "missing url",
			mutate: func(c *Config) {
				c.Races.Sources = map[string]SourceConfig{"x": {Name: "x", Kind: KindLinks, Source: "primaryA"}}
			},
			want: "races.sources.x.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Races.Sources = DefaultSources()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestMergeSourcesKeepsDefaultFields(t *testing.T) {
	t.Parallel()

	merged, err := mergeSources(DefaultSources(), map[string]SourceOverride{
		"uci": {URL: "https://uci.example.test/calendar"},
	})
	require.NoError(t, err)

	uci := merged["uci"]
	require.Equal(t, "https://uci.example.test/calendar", uci.URL)
	require.Equal(t, KindStructured, uci.Kind)
	require.Equal(t, "international", uci.Source)
	require.True(t, uci.Render)
	require.Equal(t, "uci", uci.Name)

	off := false
	merged, err = mergeSources(DefaultSources(), map[string]SourceOverride{
		"uci": {Render: &off},
	})
	require.NoError(t, err)
	require.False(t, merged["uci"].Render)
	require.Equal(t, DefaultSources()["uci"].URL, merged["uci"].URL)
}
