package extract

import (
	"github.com/stplive/stp-live/internal/pipeline"
	"github.com/stplive/stp-live/internal/telemetry"
)

// Tier names the kind of pass that produced an extraction.
type Tier string

// Extraction tiers.
const (
	TierStructural Tier = "structural"
	TierTextual    Tier = "textual"
	TierNone       Tier = "none"
)

// Pass is one heuristic of a Strategy.
type Pass[C any] struct {
	Tier Tier
	Run  func(doc pipeline.RawDocument) ([]C, error)
}

// Strategy is an ordered chain of passes for one source shape.
type Strategy[C any] struct {
	Name   string
	Passes []Pass[C]
}

// Extraction is the outcome of running a Strategy.
type Extraction[C any] struct {
	Candidates []C
	Tier       Tier
}

// Extract runs the passes in order and returns the first non-empty result. When no
// pass yields candidates it returns the first pass error, or an empty extraction.
func (s Strategy[C]) Extract(doc pipeline.RawDocument) (Extraction[C], error) {
	var firstErr error
	for _, pass := range s.Passes {
		candidates, err := pass.Run(doc)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(candidates) > 0 {
			telemetry.ObserveExtraction(s.Name, string(pass.Tier))
			return Extraction[C]{Candidates: candidates, Tier: pass.Tier}, nil
		}
	}
	telemetry.ObserveExtraction(s.Name, string(TierNone))
	return Extraction[C]{Tier: TierNone}, firstErr
}
