package proof

import (
	"fmt"
	"strings"
)

// Proof is a single proof text submitted for assessment.
type Proof struct {
	ID          string
	Domain      string // optional
	TheoremName string // optional
	Text        string

	// Expected is the ground-truth verdict when the source record was
	// labelled, Unknown otherwise. It never influences a decision.
	Expected Verdict

	// Flaw annotations from the dataset, carried through to reports.
	FlawType  string
	FlawStart *int
	FlawEnd   *int
}

// FlawLocation renders the annotated flaw span as "start-end", or ""
// when the record carries no span.
func (p Proof) FlawLocation() string {
	if p.FlawStart == nil || p.FlawEnd == nil || *p.FlawStart < 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", *p.FlawStart, *p.FlawEnd)
}

// IsEmpty reports whether the proof text is empty or whitespace only.
func (p Proof) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// WordCount returns the number of whitespace-separated words in the
// trimmed text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Verdict is the classification outcome for a proof.
type Verdict int

const (
	// Unknown is only produced when the statistical classifier is unavailable.
	Unknown Verdict = iota
	Valid
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ParseVerdict parses the textual form produced by String.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid":
		return Valid, nil
	case "invalid":
		return Invalid, nil
	case "unknown", "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown verdict %q", s)
}

// VerdictFromLabel maps an is_correct label onto a verdict.
func VerdictFromLabel(correct bool) Verdict {
	if correct {
		return Valid
	}
	return Invalid
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Source identifies which stage produced a result.
type Source int

const (
	SourceRuleBased Source = iota
	SourceModel
)

func (s Source) String() string {
	if s == SourceRuleBased {
		return "rule"
	}
	return "model"
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch string(b) {
	case "rule":
		*s = SourceRuleBased
	case "model":
		*s = SourceModel
	default:
		return fmt.Errorf("unknown source %q", string(b))
	}
	return nil
}

// Result is the verification outcome for one proof. It is produced once
// and never mutated.
type Result struct {
	ProofID    string  `json:"proof_id"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}
