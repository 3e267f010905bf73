package batch

import "github.com/abhisek/proofcheck/internal/proof"

// Summary aggregates a completed list of results. It is derived, never
// stored on the items themselves.
type Summary struct {
	Total        int `json:"total"`
	ValidCount   int `json:"valid_count"`
	InvalidCount int `json:"invalid_count"`
	UnknownCount int `json:"unknown_count"`

	// Skipped counts proofs with empty text; Malformed counts records
	// that never became proofs.
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`

	// AverageConfidence is the mean over every produced result. Nil is
	// the "no data" state of a batch that produced no result.
	AverageConfidence *float64 `json:"average_confidence"`

	// Labeled counts results whose proof carried a ground-truth label.
	Labeled  int      `json:"labeled"`
	Correct  int      `json:"correct"`
	Accuracy *float64 `json:"accuracy"`
}

// Summarize derives a Summary from items.
func Summarize(items []Item) Summary {
	var s Summary
	var sum float64
	for _, it := range items {
		r := it.Result()
		s.Total++
		sum += r.Confidence
		switch r.Verdict {
		case proof.Valid:
			s.ValidCount++
		case proof.Invalid:
			s.InvalidCount++
		default:
			s.UnknownCount++
		}
		if it.Proof.Expected != proof.Unknown {
			s.Labeled++
			if r.Verdict == it.Proof.Expected {
				s.Correct++
			}
		}
	}
	if s.Total > 0 {
		avg := sum / float64(s.Total)
		s.AverageConfidence = &avg
	}
	if s.Labeled > 0 {
		acc := float64(s.Correct) / float64(s.Labeled)
		s.Accuracy = &acc
	}
	return s
}

// HasData reports whether any result was produced.
func (s Summary) HasData() bool { return s.AverageConfidence != nil }
