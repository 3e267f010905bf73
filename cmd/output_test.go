package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/proofcheck/internal/batch"
	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/export"
	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/store"
)

func TestPrintSummary_NoData(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &batch.Report{})

	out := buf.String()
	assert.Contains(t, out, "Avg confidence")
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "Accuracy")
}

func TestPrintSummary_WithData(t *testing.T) {
	avg, acc := 0.9, 0.5
	rep := &batch.Report{
		Summary: batch.Summary{
			Total: 2, ValidCount: 1, InvalidCount: 1,
			AverageConfidence: &avg,
			Labeled:           2, Correct: 1, Accuracy: &acc,
		},
		Degraded:      true,
		DegradedCause: errors.New("bundle missing"),
		Cancelled:     true,
	}

	var buf bytes.Buffer
	printSummary(&buf, rep)

	out := buf.String()
	assert.Contains(t, out, "0.9000")
	assert.Contains(t, out, "50.00% (1/2 labelled)")
	assert.Contains(t, out, "bundle missing")
	assert.Contains(t, out, "Cancelled")
	assert.NotContains(t, out, "No data")
}

func TestPrintDecision_Rule(t *testing.T) {
	d := engine.Decision{
		Kind:      engine.KindRule,
		Result:    proof.Result{Verdict: proof.Invalid, Confidence: 0.95, Source: proof.SourceRuleBased},
		Rule:      "invalid",
		Indicator: "divide by zero",
	}

	var buf bytes.Buffer
	printDecision(&buf, d, "Division by a quantity that is zero.")

	out := buf.String()
	assert.Contains(t, out, "0.95")
	assert.Contains(t, out, `"divide by zero"`)
	assert.Contains(t, out, "Division by a quantity that is zero.")
}

func TestRunResults_KeepsOrder(t *testing.T) {
	recs := []export.Record{
		{ID: "a", Verdict: "valid", Confidence: 0.85, Source: "rule_based"},
		{ID: "b", Verdict: "invalid", Confidence: 0.7, Source: "model", Explanation: "x"},
	}
	got := runResults(recs)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	for i, r := range got {
		if r.Position != i {
			t.Errorf("result %d: got position %d", i, r.Position)
		}
		if r.ProofID != recs[i].ID {
			t.Errorf("result %d: got id %q, want %q", i, r.ProofID, recs[i].ID)
		}
	}
	assert.Equal(t, "x", got[1].Explanation)
}

func TestPrintCostTable(t *testing.T) {
	usage := []store.ModelUsage{
		{Model: "gpt-4o-mini", Calls: 2, InputTokens: 1_000_000, OutputTokens: 1_000_000},
		{Model: "local-model", Calls: 1, InputTokens: 10, OutputTokens: 10},
	}

	var buf bytes.Buffer
	printCostTable(&buf, usage)

	out := buf.String()
	assert.Contains(t, out, "$0.75")
	assert.Contains(t, out, "Total (partial)")
	assert.Contains(t, out, "No price for: local-model")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trunc"},
		{"∀x∃y", 2, "∀x"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
