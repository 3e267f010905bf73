package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/proof"
)

type fakeChecker struct {
	allowRules []bool
	err        error
}

func (f *fakeChecker) Decide(_ context.Context, text string, allowRules bool) (engine.Decision, error) {
	f.allowRules = append(f.allowRules, allowRules)
	if f.err != nil {
		return engine.Decision{}, f.err
	}
	return engine.Decision{
		Kind:      engine.KindRule,
		Rule:      "invalid-indicator",
		Indicator: "2=1",
		Result:    proof.Result{ProofID: "interactive", Verdict: proof.Invalid, Confidence: 0.95, Source: proof.SourceRuleBased},
	}, nil
}

func (f *fakeChecker) Available() bool { return false }

type fakeExplainer struct{}

func (fakeExplainer) Text(context.Context, proof.Proof, proof.Result) string { return "Claims 2=1." }

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
		m = next.(Model)
	}
	return m
}

func TestSubmit_ChecksAndRecordsHistory(t *testing.T) {
	checker := &fakeChecker{}
	m := New(Options{Checker: checker, Explainer: fakeExplainer{}})
	m = typeText(t, m, "so 2=1")

	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a check command")
	}
	if !m.checking {
		t.Fatal("expected checking state")
	}
	if got := m.input.Value(); got != "" {
		t.Fatalf("got input %q, want cleared", got)
	}

	next, _ = m.Update(cmd())
	m = next.(Model)
	if m.checking {
		t.Fatal("expected checking to finish")
	}
	if len(m.history) != 1 {
		t.Fatalf("got %d history entries, want 1", len(m.history))
	}
	e := m.history[0]
	if e.text != "so 2=1" || e.explanation != "Claims 2=1." {
		t.Fatalf("got %+v", e)
	}
	if len(checker.allowRules) != 1 || checker.allowRules[0] {
		t.Fatalf("got allowRules %v, want [false]", checker.allowRules)
	}
}

func TestEmptyInputIsIgnored(t *testing.T) {
	m := New(Options{Checker: &fakeChecker{}})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command for empty input")
	}
}

func TestToggleRules(t *testing.T) {
	checker := &fakeChecker{}
	m := New(Options{Checker: checker})
	next, _ := m.Update(tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	m = next.(Model)
	if !m.allowRules {
		t.Fatal("expected rules enabled after ctrl+r")
	}
	if !strings.Contains(m.status(), "rules on") || !strings.Contains(m.status(), "model unavailable") {
		t.Fatalf("got status %q", m.status())
	}

	m = typeText(t, m, "x")
	m, cmd := m.submit()
	cmd()
	if len(checker.allowRules) != 1 || !checker.allowRules[0] {
		t.Fatalf("got allowRules %v, want [true]", checker.allowRules)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	m := New(Options{Checker: &fakeChecker{}})
	for range maxHistory + 3 {
		next, _ := m.Update(checkedMsg{text: "p"})
		m = next.(Model)
	}
	if len(m.history) != maxHistory {
		t.Fatalf("got %d entries, want %d", len(m.history), maxHistory)
	}
}

func TestRenderEntry(t *testing.T) {
	d, _ := (&fakeChecker{}).Decide(context.Background(), "", false)
	out := renderEntry(entry{text: "so 2=1", decision: d}, 70)
	for _, want := range []string{"INVALID", "95%", `rule invalid-indicator ("2=1")`} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered entry missing %q:\n%s", want, out)
		}
	}

	out = renderEntry(entry{text: "x", err: errors.New("empty proof text")}, 70)
	if !strings.Contains(out, "error: empty proof text") {
		t.Errorf("rendered error entry:\n%s", out)
	}
}
