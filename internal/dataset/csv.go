package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/proofcheck/internal/proof"
)

func readCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}
	if _, ok := cols[ColProofText]; !ok {
		return nil, fmt.Errorf("missing required column %q", ColProofText)
	}

	ds := &Dataset{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				ds.Malformed = append(ds.Malformed, &proof.RecordError{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		field := func(name string) (string, bool) {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return "", false
			}
			return row[i], true
		}

		text, ok := field(ColProofText)
		if !ok {
			ds.Malformed = append(ds.Malformed, &proof.RecordError{Line: line, Reason: "missing " + ColProofText})
			continue
		}

		rec := Record{Line: line, ProofText: text}
		rec.ProofID, _ = field(ColProofID)
		rec.Domain, _ = field(ColDomain)
		rec.TheoremName, _ = field(ColTheoremName)
		rec.FlawType, _ = field(ColFlawType)
		if v, ok := field(ColIsCorrect); ok {
			rec.IsCorrect = parseLabel(v)
		}
		if v, ok := field(ColFlawSpanStart); ok {
			rec.FlawSpanStart = parseOptionalInt(v)
		}
		if v, ok := field(ColFlawSpanEnd); ok {
			rec.FlawSpanEnd = parseOptionalInt(v)
		}
		fallbackID(&rec)
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}
