package engine

import (
	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/rules"
)

// Kind tags which branch of the engine produced a Decision.
type Kind int

const (
	KindRule Kind = iota
	KindModel
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindModel:
		return "model"
	default:
		return "unavailable"
	}
}

// Decision is the engine's verdict for one proof.
type Decision struct {
	Kind   Kind
	Result proof.Result

	// Rule and Indicator name the rule and phrase that fired; set only
	// for KindRule.
	Rule      string
	Indicator string

	// Degraded is set for KindUnavailable; Cause holds the reason.
	Degraded bool
	Cause    error
}

// Matcher is the lexical stage.
type Matcher interface {
	Match(text string) (rules.Opinion, bool)
}

// Classifier is the statistical stage.
type Classifier interface {
	Available() bool
	Err() error
	Classify(text string) (proof.Verdict, float64, error)
}

// Config holds the engine's calibration.
type Config struct {
	// WordGate is the word count below which rules are consulted.
	WordGate int `mapstructure:"word_gate" yaml:"word_gate" validate:"gte=0"`
}

// DefaultWordGate is the default rule gate.
const DefaultWordGate = 20

// DefaultConfig returns the default engine calibration.
func DefaultConfig() Config {
	return Config{WordGate: DefaultWordGate}
}
