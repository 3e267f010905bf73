package rules

import (
	"strings"

	"github.com/abhisek/proofcheck/internal/proof"
)

// Default rule confidences.
const (
	InvalidConfidence = 0.95
	ValidConfidence   = 0.85
)

// DefaultInvalidIndicators are phrases that mark a proof as invalid.
// They signal degenerate or adversarial reasoning.
var DefaultInvalidIndicators = []string{
	"divide by zero",
	"divided by zero",
	"2=1",
	"1=2",
	"all numbers are equal",
	"random",
	"nonsense",
	"feels right",
	"trust me",
}

// DefaultValidIndicators are structural connectives typical of a
// well-formed argument.
var DefaultValidIndicators = []string{
	"assume",
	"therefore",
	"hence",
	"thus",
	"q.e.d",
	"qed",
	"let",
	"for all",
	"induction",
	"contradiction",
	"base case",
	"=>",
}

// IndicatorRule fires when any of its phrases occurs as a substring of the
// lower-cased text.
type IndicatorRule struct {
	name       string
	verdict    proof.Verdict
	confidence float64
	indicators []string
}

// NewIndicatorRule builds a rule from a phrase list. Phrases are
// lower-cased and blank phrases are dropped, since an empty substring
// would match every text.
func NewIndicatorRule(name string, verdict proof.Verdict, confidence float64, indicators []string) *IndicatorRule {
	norm := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		ind = strings.ToLower(strings.TrimSpace(ind))
		if ind != "" {
			norm = append(norm, ind)
		}
	}
	return &IndicatorRule{
		name:       name,
		verdict:    verdict,
		confidence: confidence,
		indicators: norm,
	}
}

func (r *IndicatorRule) Name() string { return r.name }

func (r *IndicatorRule) Match(lowered string) (Opinion, bool) {
	for _, ind := range r.indicators {
		if strings.Contains(lowered, ind) {
			return Opinion{
				Verdict:    r.verdict,
				Confidence: r.confidence,
				Rule:       r.name,
				Indicator:  ind,
			}, true
		}
	}
	return Opinion{}, false
}

// Indicators returns a copy of the normalised phrase list.
func (r *IndicatorRule) Indicators() []string {
	return append([]string(nil), r.indicators...)
}
