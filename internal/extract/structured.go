package extract

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"

	"github.com/stplive/stp-live/internal/pipeline"
)

const initialStateMarker = "__INITIAL_STATE__"

var (
	titleKeys      = []string{"name", "title"}
	dateKeys       = []string{"date", "startDate", "start", "dateFrom", "eventDate", "startsAt"}
	countryKeys    = []string{"country", "countryCode", "venueCountry"}
	disciplineKeys = []string{"discipline", "disciplineCode", "raceType"}
	urlKeys        = []string{"url", "link", "href", "slug"}
	locationKeys   = []string{"location", "venue", "city"}
	idKeys         = []string{"id", "eventId", "_id"}
	nestedKeys     = []string{"code", "isoCode", "name", "title", "value", "city"}
)

// StructuredRaceStrategy extracts race drafts from a JSON payload embedded in the page.
// It has no textual fallback: without a payload the source contributes nothing.
func StructuredRaceStrategy(source pipeline.RaceSource) Strategy[pipeline.RaceDraft] {
	return Strategy[pipeline.RaceDraft]{
		Name: "races-structured",
		Passes: []Pass[pipeline.RaceDraft]{
			{Tier: TierStructural, Run: func(doc pipeline.RawDocument) ([]pipeline.RaceDraft, error) {
				return structuredRaces(doc, source)
			}},
		},
	}
}

func structuredRaces(doc pipeline.RawDocument, source pipeline.RaceSource) ([]pipeline.RaceDraft, error) {
	parsed, err := parseHTML(doc.Body)
	if err != nil {
		return nil, err
	}
	raw, ok := findPayload(parsed)
	if !ok {
		return nil, pipeline.NewExtractionError(pipeline.CodePayloadNotFound, "no embedded calendar payload")
	}
	tree, err := decodePayload(raw)
	if err != nil {
		return nil, &pipeline.ExtractionError{
			Code: pipeline.CodePayloadInvalid,
			Hint: "embedded calendar payload is not valid JSON",
			Err:  err,
		}
	}

	base := parseBase(doc.SourceURL)
	var drafts []pipeline.RaceDraft
	walkEvents(tree, func(obj map[string]any) {
		link := firstField(obj, urlKeys)
		abs, ok := resolve(base, link)
		if !ok {
			id := firstField(obj, idKeys)
			if id == "" {
				return
			}
			abs = strings.SplitN(doc.SourceURL, "#", 2)[0] + "#event-" + id
		}
		drafts = append(drafts, pipeline.RaceDraft{
			Title:      firstField(obj, titleKeys),
			RawDate:    firstField(obj, dateKeys),
			Location:   firstField(obj, locationKeys),
			URL:        abs,
			Source:     source,
			Country:    firstField(obj, countryKeys),
			Discipline: firstField(obj, disciplineKeys),
		})
	})
	return drafts, nil
}

// findPayload looks for __NEXT_DATA__, then any JSON script, then a window.__INITIAL_STATE__ assignment.
func findPayload(doc *goquery.Document) (string, bool) {
	if text := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text()); text != "" {
		return text, true
	}
	var payload string
	doc.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		payload = strings.TrimSpace(s.Text())
		return payload == ""
	})
	if payload != "" {
		return payload, true
	}
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, initialStateMarker)
		if idx < 0 {
			return true
		}
		rest := text[idx+len(initialStateMarker):]
		start := strings.Index(rest, "{")
		end := strings.LastIndex(rest, "}")
		if start < 0 || end < start {
			return true
		}
		payload = rest[start : end+1]
		return false
	})
	return payload, payload != ""
}

// decodePayload accepts strict JSON first and JavaScript object literals second.
func decodePayload(raw string) (any, error) {
	var tree any
	strictErr := json.Unmarshal([]byte(raw), &tree)
	if strictErr == nil {
		return tree, nil
	}
	if err := json5.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, errors.Join(strictErr, err)
	}
	return tree, nil
}

// walkEvents visits every object carrying both a title and a date. Matched objects are
// not descended into. Keys are visited in sorted order so output is deterministic.
func walkEvents(node any, visit func(map[string]any)) {
	switch v := node.(type) {
	case map[string]any:
		if firstField(v, titleKeys) != "" && firstField(v, dateKeys) != "" {
			visit(v)
			return
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkEvents(v[k], visit)
		}
	case []any:
		for _, item := range v {
			walkEvents(item, visit)
		}
	}
}

func firstField(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s := scalar(obj[key], true); s != "" {
			return s
		}
	}
	return ""
}

// scalar renders a JSON leaf as text. Objects are read through their code/name fields once.
func scalar(v any, descend bool) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case map[string]any:
		if !descend {
			return ""
		}
		for _, key := range nestedKeys {
			if s := scalar(t[key], false); s != "" {
				return s
			}
		}
	}
	return ""
}
