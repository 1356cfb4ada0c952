package normalize

import (
	"strings"

	"github.com/stplive/stp-live/internal/pipeline"
)

// Schedule converts a drafted table row into a ScheduleRow.
func Schedule(d pipeline.ScheduleDraft) pipeline.ScheduleRow {
	return pipeline.ScheduleRow{
		Station:              Collapse(d.Station),
		FirstDeparture:       ScheduleTime(d.First),
		LastDepartureWeekday: ScheduleTime(d.LastWeekday),
		LastDepartureWeekend: ScheduleTime(d.LastWeekend),
	}
}

// Notice trims and collapses a notice link.
func Notice(n pipeline.NoticeItem) pipeline.NoticeItem {
	return pipeline.NoticeItem{Title: Collapse(n.Title), URL: strings.TrimSpace(n.URL)}
}

// Race converts a race draft into a RaceEvent. Country is upper-cased; discipline is
// left as found for the classifier to canonicalize.
func Race(d pipeline.RaceDraft) pipeline.RaceEvent {
	return pipeline.RaceEvent{
		Title:      Collapse(d.Title),
		ISODate:    Date(d.RawDate),
		Location:   pipeline.StringPtr(Collapse(d.Location)),
		URL:        strings.TrimSpace(d.URL),
		Source:     d.Source,
		Country:    pipeline.StringPtr(strings.ToUpper(Collapse(d.Country))),
		Discipline: pipeline.StringPtr(Collapse(d.Discipline)),
	}
}
