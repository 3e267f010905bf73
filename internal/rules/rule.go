package rules

import (
	"strings"

	"github.com/abhisek/proofcheck/internal/proof"
)

// Rule is a lexical rule evaluated against lower-cased proof text.
// It reports an opinion, or ok=false if the rule doesn't apply.
type Rule interface {
	Name() string
	Match(lowered string) (Opinion, bool)
}

// Opinion is the early verdict produced by a rule.
type Opinion struct {
	Verdict    proof.Verdict
	Confidence float64
	Rule       string // name of the rule that fired
	Indicator  string // indicator phrase that matched
}

// Run lower-cases text once and evaluates rules in order.
// Returns the first opinion, or ok=false if no rule applies.
func Run(rules []Rule, text string) (Opinion, bool) {
	lowered := strings.ToLower(text)
	for _, r := range rules {
		if op, ok := r.Match(lowered); ok {
			return op, true
		}
	}
	return Opinion{}, false
}
