package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

const defaultWindowBytes = 120000

// ScheduleOptions tunes the schedule strategy.
type ScheduleOptions struct {
	// WindowBytes bounds how far after the heading the table may start.
	WindowBytes int
}

var (
	headingPattern = regexp.MustCompile(`(?is)<h[1-3]\b[^>]*>(.*?)</h[1-3]\s*>`)
	scheduleLine   = regexp.MustCompile(
		`(\p{Lu}[\p{L}.\-]*(?:\s+[\p{L}.\-]+){0,2})\s+` +
			`(\d{1,2}[:.]\d{2})\s*(?:h\.?)?\s+` +
			`(\d{1,2}[:.]\d{2})\s*(?:h\.?)?\s+` +
			`(\d{1,2}[:.]\d{2})(?:\s*h\b\.?)?`,
	)
)

var (
	stationLabels = []string{"lokacija polaska", "lokacija", "polazište", "postaja", "station", "location"}
	columnLabels  = []string{"polazak", "prvi", "zadnji", "radnim", "vikend", "first", "last", "weekday", "weekend"}
)

// ScheduleStrategy extracts cablecar operating-hours rows.
func ScheduleStrategy(opts ScheduleOptions) Strategy[pipeline.ScheduleDraft] {
	window := opts.WindowBytes
	if window <= 0 {
		window = defaultWindowBytes
	}
	return Strategy[pipeline.ScheduleDraft]{
		Name: "schedule",
		Passes: []Pass[pipeline.ScheduleDraft]{
			{Tier: TierStructural, Run: func(doc pipeline.RawDocument) ([]pipeline.ScheduleDraft, error) {
				return scheduleTable(doc.Body, window)
			}},
			{Tier: TierTextual, Run: func(doc pipeline.RawDocument) ([]pipeline.ScheduleDraft, error) {
				return scheduleText(doc.Body, window), nil
			}},
		},
	}
}

func scheduleTable(body string, window int) ([]pipeline.ScheduleDraft, error) {
	chunk, ok := scheduleWindow(body, window)
	if !ok {
		return nil, pipeline.NewExtractionError(pipeline.CodeHeadingNotFound, "Ne nalazim naslov 'Radno vrijeme žičare'.")
	}
	doc, err := parseHTML(chunk)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, pipeline.NewExtractionError(pipeline.CodeTableNotFound, "Ne nalazim tablicu radnog vremena žičare.")
	}
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, pipeline.NewExtractionError(pipeline.CodeTableEmpty, "Tablica je prazna ili neočekivan format.")
	}

	var drafts []pipeline.ScheduleDraft
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		if cells.Length() < 4 {
			return
		}
		text := func(i int) string { return normalize.Collapse(cells.Eq(i).Text()) }
		draft := pipeline.ScheduleDraft{
			Station:     text(0),
			First:       text(1),
			LastWeekday: text(2),
			LastWeekend: text(3),
		}
		if looksLikeHeader(draft) {
			return
		}
		drafts = append(drafts, draft)
	})
	if len(drafts) == 0 {
		return nil, pipeline.NewExtractionError(pipeline.CodeTableEmpty, "Tablica je prazna ili neočekivan format.")
	}
	return drafts, nil
}

// scheduleText scans stripped text for "station HH:MM h HH:MM h HH:MM h" runs. It reads
// the heading window when there is one and the whole document otherwise.
func scheduleText(body string, window int) []pipeline.ScheduleDraft {
	chunk, ok := scheduleWindow(body, window)
	if !ok {
		chunk = body
	}
	var drafts []pipeline.ScheduleDraft
	for _, m := range scheduleLine.FindAllStringSubmatch(normalize.Text(chunk), -1) {
		draft := pipeline.ScheduleDraft{Station: m[1], First: m[2], LastWeekday: m[3], LastWeekend: m[4]}
		if looksLikeHeader(draft) {
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// scheduleWindow returns window bytes of body starting at the operating-hours heading.
func scheduleWindow(body string, window int) (string, bool) {
	for _, m := range headingPattern.FindAllStringSubmatchIndex(body, -1) {
		if !isScheduleHeading(normalize.Fold(normalize.Text(body[m[2]:m[3]]))) {
			continue
		}
		end := m[0] + window
		if end >= len(body) {
			return body[m[0]:], true
		}
		for end > m[0] && !utf8.RuneStart(body[end]) {
			end--
		}
		return body[m[0]:end], true
	}
	return "", false
}

func isScheduleHeading(folded string) bool {
	return strings.Contains(folded, "radno vrijeme") &&
		(strings.Contains(folded, "žičare") || strings.Contains(folded, "zicare"))
}

// looksLikeHeader drops repeated header or footer rows.
func looksLikeHeader(d pipeline.ScheduleDraft) bool {
	station := normalize.Fold(d.Station)
	if station == "" || strings.HasPrefix(station, "lokacija polaska") {
		return true
	}
	for _, label := range stationLabels {
		if station == label {
			return true
		}
	}
	for _, cell := range []string{d.First, d.LastWeekday, d.LastWeekend} {
		if !isColumnLabel(cell) {
			return false
		}
	}
	return true
}

func isColumnLabel(cell string) bool {
	folded := normalize.Fold(cell)
	if strings.IndexFunc(folded, unicode.IsDigit) >= 0 {
		return false
	}
	for _, label := range columnLabels {
		if strings.Contains(folded, label) {
			return true
		}
	}
	return false
}
