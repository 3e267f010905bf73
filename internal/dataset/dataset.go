// Package dataset reads proof datasets from CSV or JSON Lines files.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/textmodel"
)

// Column names of the input record schema.
const (
	ColProofID       = "proof_id"
	ColDomain        = "domain"
	ColTheoremName   = "theorem_name"
	ColProofText     = "proof_text"
	ColIsCorrect     = "is_correct"
	ColFlawType      = "flaw_type"
	ColFlawSpanStart = "flaw_span_start"
	ColFlawSpanEnd   = "flaw_span_end"
)

// Format is a dataset file encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("unsupported dataset extension %q (want .csv, .jsonl or .ndjson)", filepath.Ext(path))
}

// Record is one dataset row. Only ProofText is required by the engine;
// the rest is passed through to reports and exports.
type Record struct {
	Line          int
	ProofID       string
	Domain        string
	TheoremName   string
	ProofText     string
	IsCorrect     *bool
	FlawType      string
	FlawSpanStart *int
	FlawSpanEnd   *int
}

// Proof converts the record into the engine's input type.
func (r Record) Proof() proof.Proof {
	p := proof.Proof{
		ID:          r.ProofID,
		Domain:      r.Domain,
		TheoremName: r.TheoremName,
		Text:        r.ProofText,
		FlawType:    r.FlawType,
		FlawStart:   r.FlawSpanStart,
		FlawEnd:     r.FlawSpanEnd,
	}
	if r.IsCorrect != nil {
		p.Expected = proof.VerdictFromLabel(*r.IsCorrect)
	}
	return p
}

// Dataset is a parsed dataset file. Malformed rows are collected rather
// than aborting the read.
type Dataset struct {
	Records   []Record
	Malformed []*proof.RecordError
}

// Proofs returns the records as proofs, in file order.
func (d *Dataset) Proofs() []proof.Proof {
	out := make([]proof.Proof, len(d.Records))
	for i, r := range d.Records {
		out[i] = r.Proof()
	}
	return out
}

// Examples returns labelled, non-empty records as training examples.
func (d *Dataset) Examples() []textmodel.Example {
	var out []textmodel.Example
	for _, r := range d.Records {
		if r.IsCorrect == nil || strings.TrimSpace(r.ProofText) == "" {
			continue
		}
		out = append(out, textmodel.Example{Text: r.ProofText, Valid: *r.IsCorrect})
	}
	return out
}

// Read parses a dataset in the given format.
func Read(r io.Reader, format Format) (*Dataset, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatJSONL:
		return readJSONL(r)
	}
	return nil, fmt.Errorf("unsupported dataset format %q", format)
}

// Load opens and parses the dataset at path.
func Load(path string) (*Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// parseLabel accepts the usual boolean spellings. Blank or unrecognised
// values leave the record unlabelled.
func parseLabel(s string) *bool {
	s = strings.ToLower(strings.TrimSpace(s))
	var v bool
	switch s {
	case "yes", "y":
		v = true
	case "no", "n":
		v = false
	default:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil
		}
		v = b
	}
	return &v
}

func parseOptionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func fallbackID(r *Record) {
	if strings.TrimSpace(r.ProofID) == "" {
		r.ProofID = fmt.Sprintf("row-%d", r.Line)
	}
}
