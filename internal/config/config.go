// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/spf13/viper"

	"github.com/stplive/stp-live/internal/pipeline"
)

// Source kinds understood by the race aggregator.
const (
	KindLinks      = "links"
	KindStructured = "structured"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Cablecar CablecarConfig `mapstructure:"cablecar"`
	Races    RacesConfig    `mapstructure:"races"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Videos   VideosConfig   `mapstructure:"videos"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// HTTPConfig sets the outbound client identity, per-fetch timeout and per-host pacing.
// A HostRPS of zero disables pacing.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	UserAgent      string  `mapstructure:"user_agent"`
	AcceptLanguage string  `mapstructure:"accept_language"`
	HostRPS        float64 `mapstructure:"host_rps"`
	HostBurst      int     `mapstructure:"host_burst"`
}

// HeadlessConfig configures the headless rendering subsystem. PromotionThresh is the
// percentage of a small page covered by <script> that triggers a render.
type HeadlessConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MaxParallel     int  `mapstructure:"max_parallel"`
	NavTimeoutSec   int  `mapstructure:"nav_timeout_seconds"`
	PromotionThresh int  `mapstructure:"promotion_threshold"`
}

// CacheConfig holds per-feature TTLs for the document cache.
type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries"`
	HoursTTL   time.Duration `mapstructure:"hours_ttl"`
	NoticesTTL time.Duration `mapstructure:"notices_ttl"`
	RacesTTL   time.Duration `mapstructure:"races_ttl"`
	WeatherTTL time.Duration `mapstructure:"weather_ttl"`
	VideosTTL  time.Duration `mapstructure:"videos_ttl"`
}

// CablecarConfig points at the cable car operator pages.
type CablecarConfig struct {
	HoursURL        string   `mapstructure:"hours_url"`
	NoticesURL      string   `mapstructure:"notices_url"`
	NoticesMaxItems int      `mapstructure:"notices_max_items"`
	NoticesMinTitle int      `mapstructure:"notices_min_title"`
	NoticesDenylist []string `mapstructure:"notices_denylist"`
	WindowBytes     int      `mapstructure:"window_bytes"`
}

// RacesConfig drives the race calendar aggregation and its filter policy.
type RacesConfig struct {
	MaxItems         int                     `mapstructure:"max_items"`
	HomeCountry      string                  `mapstructure:"home_country"`
	CountryAliases   map[string]string       `mapstructure:"country_aliases"`
	TargetDiscipline string                  `mapstructure:"target_discipline"`
	DisciplineWords  []string                `mapstructure:"discipline_words"`
	HomeWords        []string                `mapstructure:"home_words"`
	MinLinkText      int                     `mapstructure:"min_link_text"`
	Sources          map[string]SourceConfig `mapstructure:"sources"`
}

// SourceConfig describes one race calendar page.
type SourceConfig struct {
	Name         string `mapstructure:"-"`
	URL          string `mapstructure:"url"`
	Kind         string `mapstructure:"kind"`
	Source       string `mapstructure:"source"`
	LinkFragment string `mapstructure:"link_fragment"`
	Render       bool   `mapstructure:"render"`
}

// WeatherConfig selects the DHMZ station table row.
type WeatherConfig struct {
	DHMZURL string `mapstructure:"dhmz_url"`
	Station string `mapstructure:"station"`
}

// VideosConfig points at the YouTube channel feed.
type VideosConfig struct {
	ChannelID string `mapstructure:"channel_id"`
	FeedURL   string `mapstructure:"feed_url"`
	MaxItems  int    `mapstructure:"max_items"`
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STPLIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	var overrides map[string]SourceOverride
	if err := v.UnmarshalKey("races.sources", &overrides); err != nil {
		return Config{}, fmt.Errorf("unmarshal race sources: %w", err)
	}
	sources, err := mergeSources(DefaultSources(), overrides)
	if err != nil {
		return Config{}, err
	}
	cfg.Races.Sources = sources
	if cfg.Videos.FeedURL == "" && cfg.Videos.ChannelID != "" {
		cfg.Videos.FeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(cfg.Videos.ChannelID)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "STP-Live/0.1")
	v.SetDefault("http.accept_language", "hr-HR,hr;q=0.9,en;q=0.7")
	v.SetDefault("http.host_rps", 2.0)
	v.SetDefault("http.host_burst", 2)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.promotion_threshold", 25)
	v.SetDefault("cache.max_entries", 0)
	v.SetDefault("cache.hours_ttl", 15*time.Minute)
	v.SetDefault("cache.notices_ttl", 10*time.Minute)
	v.SetDefault("cache.races_ttl", 30*time.Minute)
	v.SetDefault("cache.weather_ttl", 5*time.Minute)
	v.SetDefault("cache.videos_ttl", 15*time.Minute)
	v.SetDefault("cablecar.hours_url", "https://www.zicarasljeme.hr/radno-vrijeme/")
	v.SetDefault("cablecar.notices_url", "https://www.zicarasljeme.hr/obavijesti/")
	v.SetDefault("cablecar.notices_max_items", 12)
	v.SetDefault("cablecar.notices_min_title", 8)
	v.SetDefault("cablecar.notices_denylist", []string{
		"Početna", "Home", "Radno vrijeme", "Hours", "Karte", "Tickets",
		"Kontakt", "Contact", "O nama", "About", "Galerija", "Gallery",
		"Moje Sljeme", "Planirani zastoji", "Blog",
	})
	v.SetDefault("cablecar.window_bytes", 120000)
	v.SetDefault("races.max_items", 30)
	v.SetDefault("races.home_country", "HR")
	v.SetDefault("races.country_aliases", map[string]string{
		"CRO": "HR", "HRV": "HR", "CROATIA": "HR", "HRVATSKA": "HR",
	})
	v.SetDefault("races.target_discipline", "DH")
	v.SetDefault("races.discipline_words", []string{
		"mtb", "bicikl", "utrk", "enduro", "downhill", "dh", "xco", "xcm",
	})
	v.SetDefault("races.home_words", []string{
		"hrvatska", "croatia", "zagreb", "split", "rijeka", "osijek",
		"zadar", "pula", "dubrovnik", "varaždin", "istra", "sljeme",
	})
	v.SetDefault("races.min_link_text", 5)
	v.SetDefault("weather.dhmz_url", "https://meteo.hr/naslovnica_aktpod.php?tab=aktpod")
	v.SetDefault("weather.station", "Puntijarka")
	v.SetDefault("videos.channel_id", "UClm1wSlhKqn053TfjYqNxXQ")
	v.SetDefault("videos.feed_url", "")
	v.SetDefault("videos.max_items", 10)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "stp-live")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
}

// DefaultSources returns the built-in race calendar sources keyed by name.
func DefaultSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		"hbs": {
			URL:          "https://www.hbs.hr/kalendar/mtb/",
			Kind:         KindLinks,
			Source:       string(pipeline.SourcePrimaryA),
			LinkFragment: "/kalendar/",
		},
		"mtbhr": {
			URL:          "https://www.mtb.hr/dogodki/",
			Kind:         KindLinks,
			Source:       string(pipeline.SourcePrimaryB),
			LinkFragment: "/dogodki/",
		},
		"uci": {
			URL:    "https://www.uci.org/calendar/mtb/1voMyukVGR4iZMhMlDfRv0?discipline=MTB&raceType=DHI",
			Kind:   KindStructured,
			Source: string(pipeline.SourceInternational),
			Render: true,
		},
	}
}

// SourceOverride is one configured race source as read from the config file. Render is a
// pointer so that an explicit false can switch off a default render.
type SourceOverride struct {
	URL          string `mapstructure:"url"`
	Kind         string `mapstructure:"kind"`
	Source       string `mapstructure:"source"`
	LinkFragment string `mapstructure:"link_fragment"`
	Render       *bool  `mapstructure:"render"`
}

// mergeSources lays overrides over the defaults field by field; unknown names are added as-is.
func mergeSources(defaults map[string]SourceConfig, overrides map[string]SourceOverride) (map[string]SourceConfig, error) {
	out := make(map[string]SourceConfig, len(defaults)+len(overrides))
	for name, src := range defaults {
		out[name] = src
	}
	for name, override := range overrides {
		merged := out[name]
		fields := SourceConfig{
			URL:          override.URL,
			Kind:         override.Kind,
			Source:       override.Source,
			LinkFragment: override.LinkFragment,
		}
		if err := mergo.Merge(&merged, fields, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge source %q: %w", name, err)
		}
		if override.Render != nil {
			merged.Render = *override.Render
		}
		out[name] = merged
	}
	for name, src := range out {
		src.Name = name
		out[name] = src
	}
	return out, nil
}

// SourceList returns the race sources ordered by name.
func (r RacesConfig) SourceList() []SourceConfig {
	names := make([]string, 0, len(r.Sources))
	for name := range r.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]SourceConfig, 0, len(names))
	for _, name := range names {
		out = append(out, r.Sources[name])
	}
	return out
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.HostRPS < 0 || c.HTTP.HostBurst < 0 {
		return fmt.Errorf("http.host_rps and http.host_burst must be >= 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	ttls := map[string]time.Duration{
		"cache.hours_ttl":   c.Cache.HoursTTL,
		"cache.notices_ttl": c.Cache.NoticesTTL,
		"cache.races_ttl":   c.Cache.RacesTTL,
		"cache.weather_ttl": c.Cache.WeatherTTL,
		"cache.videos_ttl":  c.Cache.VideosTTL,
	}
	for key, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("%s must be > 0", key)
		}
	}
	if c.Races.MaxItems < 1 || c.Races.MaxItems > 100 {
		return fmt.Errorf("races.max_items must be within 1..100")
	}
	if strings.TrimSpace(c.Races.HomeCountry) == "" {
		return fmt.Errorf("races.home_country must be set")
	}
	for _, src := range c.Races.SourceList() {
		if src.URL == "" {
			return fmt.Errorf("races.sources.%s.url must be set", src.Name)
		}
		if src.Kind != KindLinks && src.Kind != KindStructured {
			return fmt.Errorf("races.sources.%s.kind %q is not one of links, structured", src.Name, src.Kind)
		}
		if !pipeline.RaceSource(src.Source).Valid() {
			return fmt.Errorf("races.sources.%s.source %q is unknown", src.Name, src.Source)
		}
	}
	return nil
}

// FetchTimeout converts the HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
