package aggregate

import (
	"time"

	"github.com/stplive/stp-live/internal/pipeline"
)

// Cache keys, one per logical resource.
const (
	keyHours   = "cablecar:hours"
	keyNotices = "cablecar:notices"
	keyRaces   = "races"
	keyVideos  = "videos"
)

func weatherKey(station string) string {
	return "weather:" + station
}

// HoursPayload is the cablecar operating-hours response.
type HoursPayload struct {
	OK        bool                   `json:"ok"`
	Rows      []pipeline.ScheduleRow `json:"rows"`
	SourceURL string                 `json:"sourceUrl"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Tier      string                 `json:"tier"`
}

// NoticesPayload is the cablecar notices response.
type NoticesPayload struct {
	OK        bool                  `json:"ok"`
	Items     []pipeline.NoticeItem `json:"items"`
	SourceURL string                `json:"sourceUrl"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// RacesPayload is the merged race calendar.
type RacesPayload struct {
	OK        bool                 `json:"ok"`
	Items     []pipeline.RaceEvent `json:"items"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Sources   []SourceStatus       `json:"sources"`
}

// SourceStatus reports how one race calendar contributed to a RacesPayload.
type SourceStatus struct {
	Source string `json:"source"`
	URL    string `json:"url"`
	OK     bool   `json:"ok"`
	Count  int    `json:"count"`
	Tier   string `json:"tier"`
	Error  string `json:"error,omitempty"`
}

// WeatherPayload is the current reading of the configured station.
type WeatherPayload struct {
	OK bool `json:"ok"`
	pipeline.StationReading
	SourceURL string    `json:"sourceUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VideosPayload lists the latest channel uploads.
type VideosPayload struct {
	OK        bool             `json:"ok"`
	Items     []pipeline.Video `json:"items"`
	Source    string           `json:"source"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
