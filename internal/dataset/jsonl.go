package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/abhisek/proofcheck/internal/proof"
)

const maxLineSize = 4 << 20

func readJSONL(r io.Reader) (*Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	ds := &Dataset{}
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			ds.Malformed = append(ds.Malformed, &proof.RecordError{Line: line, Reason: "invalid JSON: " + err.Error()})
			continue
		}

		textRaw, ok := obj[ColProofText]
		var text string
		if !ok || json.Unmarshal(textRaw, &text) != nil {
			ds.Malformed = append(ds.Malformed, &proof.RecordError{Line: line, Reason: "missing or non-string " + ColProofText})
			continue
		}

		rec := Record{Line: line, ProofText: text}
		rec.ProofID = scalarString(obj[ColProofID])
		rec.Domain = scalarString(obj[ColDomain])
		rec.TheoremName = scalarString(obj[ColTheoremName])
		rec.FlawType = scalarString(obj[ColFlawType])
		if v, ok := obj[ColIsCorrect]; ok {
			rec.IsCorrect = parseLabel(scalarString(v))
		}
		if v, ok := obj[ColFlawSpanStart]; ok {
			rec.FlawSpanStart = parseOptionalInt(scalarString(v))
		}
		if v, ok := obj[ColFlawSpanEnd]; ok {
			rec.FlawSpanEnd = parseOptionalInt(scalarString(v))
		}
		fallbackID(&rec)
		ds.Records = append(ds.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan line %d: %w", line+1, err)
	}
	return ds, nil
}

// scalarString renders a JSON string, number or bool as plain text.
// Null, objects and arrays yield "".
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
