package proof

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestProof_IsEmpty(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"   \n\t ", true},
		{"x", false},
		{"  Assume x > 0.  ", false},
	}
	for _, tt := range tests {
		if got := (Proof{Text: tt.text}).IsEmpty(); got != tt.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Assume x>0, therefore x+1>0, hence proved.", 6},
		{"  one\ttwo\nthree  ", 3},
	}
	for _, tt := range tests {
		if got := WordCount(tt.text); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestVerdict_TextRoundTrip(t *testing.T) {
	for _, v := range []Verdict{Valid, Invalid, Unknown} {
		b, err := v.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", v, err)
		}
		var got Verdict
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != v {
			t.Errorf("got %v, want %v", got, v)
		}
	}

	if _, err := ParseVerdict("maybe"); err == nil {
		t.Error("expected error for unknown verdict")
	}
}

func TestResult_JSON(t *testing.T) {
	r := Result{ProofID: "p1", Verdict: Invalid, Confidence: 0.95, Source: SourceRuleBased}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"proof_id":"p1","verdict":"invalid","confidence":0.95,"source":"rule"}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestRecordError_IsMalformed(t *testing.T) {
	var err error = &RecordError{Line: 4, Reason: "missing proof_text"}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatal("RecordError should match ErrMalformedRecord")
	}
	var re *RecordError
	if !errors.As(err, &re) || re.Line != 4 {
		t.Fatalf("errors.As failed: %v", err)
	}
	if got := err.Error(); got != "line 4: malformed record: missing proof_text" {
		t.Errorf("got %q", got)
	}
}
