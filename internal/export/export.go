// Package export writes per-proof results as CSV or JSON Lines.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abhisek/proofcheck/internal/batch"
	"github.com/abhisek/proofcheck/internal/proof"
)

// DefaultPreviewLength is the number of runes of proof text kept in an
// output record.
const DefaultPreviewLength = 100

// Record is one output row.
type Record struct {
	ID          string  `json:"id"`
	ProofText   string  `json:"proof_text"`
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
	Rule        string  `json:"rule,omitempty"`
	Domain      string  `json:"domain,omitempty"`
	TheoremName string  `json:"theorem_name,omitempty"`
	Expected    string  `json:"expected,omitempty"`
	FlawType    string  `json:"flaw_type,omitempty"`
	Location    string  `json:"location,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

var csvHeader = []string{
	"id", "proof_text", "verdict", "confidence", "source", "rule",
	"domain", "theorem_name", "expected", "flaw_type", "location",
	"explanation",
}

// Preview truncates text to n runes, appending "..." when anything was
// cut. n <= 0 disables truncation.
func Preview(text string, n int) string {
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// FromItems builds output records from batch items. explanations is
// keyed by item index and may be nil.
func FromItems(items []batch.Item, previewLen int, explanations map[int]string) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		r := it.Result()
		rec := Record{
			ID:          r.ProofID,
			ProofText:   Preview(it.Proof.Text, previewLen),
			Verdict:     r.Verdict.String(),
			Confidence:  r.Confidence,
			Source:      r.Source.String(),
			Rule:        it.Decision.Rule,
			Domain:      it.Proof.Domain,
			TheoremName: it.Proof.TheoremName,
			FlawType:    it.Proof.FlawType,
			Location:    it.Proof.FlawLocation(),
			Explanation: explanations[it.Index],
		}
		if it.Proof.Expected != proof.Unknown {
			rec.Expected = it.Proof.Expected.String()
		}
		out[i] = rec
	}
	return out
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.ID, r.ProofText, r.Verdict,
			strconv.FormatFloat(r.Confidence, 'f', 4, 64),
			r.Source, r.Rule, r.Domain, r.TheoremName, r.Expected,
			r.FlawType, r.Location, r.Explanation,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// Format is an output encoding.
type Format string

const (
	CSV   Format = "csv"
	JSONL Format = "jsonl"
)

// Write encodes recs to w in the given format.
func Write(w io.Writer, format Format, recs []Record) error {
	switch format {
	case CSV:
		return WriteCSV(w, recs)
	case JSONL:
		return WriteJSONL(w, recs)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// WriteFile writes recs to path in the given format, whatever the
// file's extension.
func WriteFile(path string, format Format, recs []Record) (err error) {
	if format != CSV && format != JSONL {
		return fmt.Errorf("unsupported output format %q", format)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := Write(f, format, recs); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
