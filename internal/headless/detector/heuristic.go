// Package detector decides when a probe document should be re-fetched in a headless browser.
package detector

import (
	"strings"

	"github.com/stplive/stp-live/internal/pipeline"
)

const (
	defaultBodyThreshold   = 2048
	defaultCoveragePercent = 25
)

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	BodyLengthThreshold int
	ScriptCoverage      int
}

// NewHeuristic creates a new detector. Zero values select the defaults.
func NewHeuristic(bodyThreshold, coveragePercent int) *Heuristic {
	if bodyThreshold <= 0 {
		bodyThreshold = defaultBodyThreshold
	}
	if coveragePercent <= 0 {
		coveragePercent = defaultCoveragePercent
	}
	return &Heuristic{BodyLengthThreshold: bodyThreshold, ScriptCoverage: coveragePercent}
}

var spaMarkers = []string{
	`id="__next"`,
	`id="root"`,
	`id="app"`,
	"data-reactroot",
	"ng-app",
}

// embeddedState markers mean the data is already in the static HTML.
var embeddedState = []string{
	"__NEXT_DATA__",
	"__INITIAL_STATE__",
	`type="application/json"`,
}

// ShouldPromote decides whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(doc pipeline.RawDocument) bool {
	if doc.StatusCode != 200 || doc.Rendered {
		return false
	}
	body := doc.Body
	if strings.TrimSpace(body) == "" {
		return true
	}
	for _, marker := range embeddedState {
		if strings.Contains(body, marker) {
			return false
		}
	}
	if len(body) < h.BodyLengthThreshold && scriptCoverage(body) >= h.ScriptCoverage {
		return true
	}
	for _, marker := range spaMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptCoverage returns the percentage of body bytes inside <script> elements.
func scriptCoverage(body string) int {
	lower := strings.ToLower(body)
	total := len(lower)
	if total == 0 {
		return 0
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	covered := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			covered += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		next := total
		if relativeEnd != -1 {
			next = contentStart + relativeEnd + len(closeTag)
		}

		covered += next - start
		searchPos = next
	}

	return covered * 100 / total
}
