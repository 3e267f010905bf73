package cmd

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/proofcheck/internal/batch"
	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/ui/components"
	"github.com/abhisek/proofcheck/internal/ui/theme"
)

var sectionRule = strings.Repeat("─", 48)

func row(label, value string) string {
	return theme.Label.Render(label) + value
}

func printDecision(w io.Writer, d engine.Decision, explanation string) {
	r := d.Result
	lines := []string{
		row("Verdict", components.VerdictBadge(r.Verdict)),
		row("Confidence", fmt.Sprintf("%.2f", r.Confidence)),
		row("Source", r.Source.String()),
	}
	if d.Kind == engine.KindRule {
		lines = append(lines, row("Rule", fmt.Sprintf("%s (%q)", d.Rule, d.Indicator)))
	}
	if d.Degraded && d.Cause != nil {
		lines = append(lines, theme.Hint.Render("model unavailable: "+d.Cause.Error()))
	}
	if explanation != "" {
		lines = append(lines, "", theme.Body.Render(explanation))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printSummary(w io.Writer, rep *batch.Report) {
	s := rep.Summary
	fmt.Fprintln(w, theme.Title.Render("Evaluation summary"))
	fmt.Fprintln(w, sectionRule)
	fmt.Fprintln(w, row("Total", fmt.Sprint(s.Total)))
	fmt.Fprintln(w, row("Valid", theme.Valid.Render(fmt.Sprint(s.ValidCount))))
	fmt.Fprintln(w, row("Invalid", theme.Invalid.Render(fmt.Sprint(s.InvalidCount))))
	if s.UnknownCount > 0 {
		fmt.Fprintln(w, row("Unknown", theme.Unknown.Render(fmt.Sprint(s.UnknownCount))))
	}
	if s.Skipped > 0 || s.Malformed > 0 {
		fmt.Fprintln(w, row("Skipped", fmt.Sprintf("%d empty, %d malformed", s.Skipped, s.Malformed)))
	}

	avg := theme.Hint.Render("No data")
	if s.AverageConfidence != nil {
		avg = fmt.Sprintf("%.4f", *s.AverageConfidence)
	}
	fmt.Fprintln(w, row("Avg confidence", avg))

	if s.Accuracy != nil {
		fmt.Fprintln(w, row("Accuracy", fmt.Sprintf("%.2f%% (%d/%d labelled)", *s.Accuracy*100, s.Correct, s.Labeled)))
	}
	fmt.Fprintln(w, sectionRule)

	if rep.Degraded {
		fmt.Fprintln(w, lipgloss.NewStyle().Foreground(theme.Warning).Render(
			fmt.Sprintf("Model unavailable; %d proof(s) got verdict unknown: %v", s.UnknownCount, rep.DegradedCause)))
	}
	if rep.Cancelled {
		fmt.Fprintln(w, lipgloss.NewStyle().Foreground(theme.Warning).Render("Cancelled; summary covers decided proofs only."))
	}
}
