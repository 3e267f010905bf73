package rules

import "github.com/abhisek/proofcheck/internal/proof"

// Config holds the indicator sets and the confidences attached to them.
type Config struct {
	InvalidIndicators []string `mapstructure:"invalid_indicators" yaml:"invalid_indicators" validate:"dive,required"`
	ValidIndicators   []string `mapstructure:"valid_indicators" yaml:"valid_indicators" validate:"dive,required"`
	InvalidConfidence float64  `mapstructure:"invalid_confidence" yaml:"invalid_confidence" validate:"gte=0,lte=1"`
	ValidConfidence   float64  `mapstructure:"valid_confidence" yaml:"valid_confidence" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the canonical indicator sets.
func DefaultConfig() Config {
	return Config{
		InvalidIndicators: append([]string(nil), DefaultInvalidIndicators...),
		ValidIndicators:   append([]string(nil), DefaultValidIndicators...),
		InvalidConfidence: InvalidConfidence,
		ValidConfidence:   ValidConfidence,
	}
}

// DefaultRules returns the rules in priority order. Invalid indicators are
// checked first: a trigger phrase such as "2=1" outweighs any structural
// connective appearing alongside it.
func DefaultRules(cfg Config) []Rule {
	return []Rule{
		NewIndicatorRule("invalid-indicator", proof.Invalid, cfg.InvalidConfidence, cfg.InvalidIndicators),
		NewIndicatorRule("valid-indicator", proof.Valid, cfg.ValidConfidence, cfg.ValidIndicators),
	}
}

// Matcher is the lexical rule stage of the decision engine. It is a pure
// function of its input text and the configured rules.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher over the given rules, evaluated in order.
func NewMatcher(rules ...Rule) *Matcher {
	return &Matcher{rules: rules}
}

// New creates a matcher with DefaultRules for cfg.
func New(cfg Config) *Matcher {
	return NewMatcher(DefaultRules(cfg)...)
}

// Match returns the first opinion among the rules, or ok=false when the
// caller must fall through to the statistical path.
func (m *Matcher) Match(text string) (Opinion, bool) {
	return Run(m.rules, text)
}
