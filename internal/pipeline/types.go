package pipeline

import (
	"net/http"
	"time"
)

// FetchRequest captures everything needed to retrieve one remote document.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
	Headers http.Header
	// AllowRender lets a promoting fetcher re-fetch the page in a headless browser.
	AllowRender bool
}

// RawDocument is a fetched page. It is never mutated after the fetch returns.
type RawDocument struct {
	SourceURL  string
	FetchedAt  time.Time
	StatusCode int
	Body       string
	Rendered   bool
}

// ScheduleRow is one station line of the cablecar operating-hours table.
// All time fields are zero-padded 24-hour HH:MM when recognizable.
type ScheduleRow struct {
	Station              string `json:"station"`
	FirstDeparture       string `json:"firstDeparture"`
	LastDepartureWeekday string `json:"lastDepartureWeekday"`
	LastDepartureWeekend string `json:"lastDepartureWeekend"`
}

// ScheduleDraft is a schedule table row as it appeared on the page.
type ScheduleDraft struct {
	Station     string
	First       string
	LastWeekday string
	LastWeekend string
}

// NoticeItem is a maintenance or news link from the cablecar site.
type NoticeItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RaceSource tags which calendar produced a RaceEvent.
type RaceSource string

// Race calendar sources.
const (
	SourcePrimaryA      RaceSource = "primaryA"
	SourcePrimaryB      RaceSource = "primaryB"
	SourceInternational RaceSource = "international"
)

// Valid reports whether s is one of the known sources.
func (s RaceSource) Valid() bool {
	switch s {
	case SourcePrimaryA, SourcePrimaryB, SourceInternational:
		return true
	default:
		return false
	}
}

// RaceEvent is a normalized race calendar entry.
type RaceEvent struct {
	Title      string     `json:"title"`
	ISODate    *string    `json:"isoDate"`
	Location   *string    `json:"location"`
	URL        string     `json:"url"`
	Source     RaceSource `json:"source"`
	Country    *string    `json:"country"`
	Discipline *string    `json:"discipline"`
}

// RaceDraft is an unnormalized race candidate produced by an extraction strategy.
type RaceDraft struct {
	Title      string
	RawDate    string
	Location   string
	URL        string
	Source     RaceSource
	Country    string
	Discipline string
}

// StationReading is the current conditions row for one weather station.
type StationReading struct {
	Station   string `json:"station"`
	WindDir   string `json:"windDir"`
	WindMs    string `json:"windMs"`
	TempC     string `json:"tempC"`
	Condition string `json:"condition"`
}

// Video is one entry of the channel feed.
type Video struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Thumbnail *string `json:"thumbnail"`
	Published *string `json:"published"`
}

// StringPtr returns nil for empty strings and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
