// Package classify decides which race events are relevant: a general calendar entry
// must mention both the discipline and the home region; an international entry must be
// held in the home country in the target discipline.
package classify

import (
	"strings"
	"unicode"

	"github.com/stplive/stp-live/internal/normalize"
	"github.com/stplive/stp-live/internal/pipeline"
)

// Canonical discipline codes.
const (
	DisciplineDH     = "DH"
	DisciplineEnduro = "ENDURO"
	DisciplineXC     = "XC"
)

var disciplineTokens = []struct {
	code  string
	words []string
}{
	{code: DisciplineDH, words: []string{"downhill", "spust", "dhi", "dh"}},
	{code: DisciplineEnduro, words: []string{"enduro", "edr"}},
	{code: DisciplineXC, words: []string{"xco", "xcm", "xcc", "cross-country", "cross country", "maraton"}},
}

// Policy holds the relevance rules.
type Policy struct {
	DisciplineWords  []string
	HomeWords        []string
	HomeCountry      string
	CountryAliases   map[string]string
	TargetDiscipline string
}

// NewPolicy normalizes keyword lists and alias keys. Config maps arrive lower-cased.
func NewPolicy(disciplineWords, homeWords []string, homeCountry string, aliases map[string]string, target string) Policy {
	upper := make(map[string]string, len(aliases))
	for k, v := range aliases {
		upper[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return Policy{
		DisciplineWords:  foldAll(disciplineWords),
		HomeWords:        foldAll(homeWords),
		HomeCountry:      strings.ToUpper(strings.TrimSpace(homeCountry)),
		CountryAliases:   upper,
		TargetDiscipline: CanonicalDiscipline(target),
	}
}

// Keep reports whether ev is relevant.
func (p Policy) Keep(ev pipeline.RaceEvent) bool {
	if ev.Source == pipeline.SourceInternational {
		return p.CanonicalCountry(pipeline.Deref(ev.Country)) == p.HomeCountry &&
			CanonicalDiscipline(pipeline.Deref(ev.Discipline)) == p.TargetDiscipline
	}
	title := normalize.Fold(ev.Title)
	return containsAny(title, p.DisciplineWords) && containsAny(title, p.HomeWords)
}

// Admit applies Keep and tags the kept event with canonical country and discipline.
// The input is not modified.
func (p Policy) Admit(ev pipeline.RaceEvent) (pipeline.RaceEvent, bool) {
	if !p.Keep(ev) {
		return pipeline.RaceEvent{}, false
	}
	out := ev
	if ev.Source == pipeline.SourceInternational {
		out.Country = pipeline.StringPtr(p.CanonicalCountry(pipeline.Deref(ev.Country)))
		out.Discipline = pipeline.StringPtr(CanonicalDiscipline(pipeline.Deref(ev.Discipline)))
		return out, true
	}
	out.Country = pipeline.StringPtr(p.HomeCountry)
	if ev.Discipline == nil {
		out.Discipline = pipeline.StringPtr(GuessDiscipline(ev.Title))
	} else {
		out.Discipline = pipeline.StringPtr(CanonicalDiscipline(*ev.Discipline))
	}
	return out, true
}

// CanonicalCountry maps aliases such as CRO or Hrvatska to the ISO code.
func (p Policy) CanonicalCountry(country string) string {
	code := strings.ToUpper(strings.TrimSpace(country))
	if alias, ok := p.CountryAliases[code]; ok {
		return alias
	}
	return code
}

// CanonicalDiscipline maps discipline codes to DH, ENDURO or XC. Unknown values are upper-cased.
func CanonicalDiscipline(discipline string) string {
	code := strings.ToUpper(strings.TrimSpace(discipline))
	switch {
	case code == "DHI", code == "DH", code == "DOWNHILL":
		return DisciplineDH
	case code == "END", code == "EDR", code == "ENDURO":
		return DisciplineEnduro
	case strings.HasPrefix(code, "XC"):
		return DisciplineXC
	default:
		return code
	}
}

// GuessDiscipline reads the discipline from keywords contained in a title. Keywords
// match at word boundaries, where hyphens and punctuation separate words, so
// "DH-kup" is downhill and "Dhaka" is not. It returns "" when no keyword appears.
func GuessDiscipline(title string) string {
	words := wordSpan(title)
	for _, set := range disciplineTokens {
		for _, keyword := range set.words {
			if strings.Contains(words, wordSpan(keyword)) {
				return set.code
			}
		}
	}
	return ""
}

// wordSpan folds s into its words joined and surrounded by single spaces.
func wordSpan(s string) string {
	words := strings.FieldsFunc(normalize.Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f := normalize.Fold(w); f != "" {
			out = append(out, f)
		}
	}
	return out
}
