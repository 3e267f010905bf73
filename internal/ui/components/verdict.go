package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/ui/theme"
)

// VerdictStyle returns the style for a verdict.
func VerdictStyle(v proof.Verdict) lipgloss.Style {
	switch v {
	case proof.Valid:
		return theme.Valid
	case proof.Invalid:
		return theme.Invalid
	default:
		return theme.Unknown
	}
}

// VerdictBadge renders a verdict as an upper-case coloured label.
func VerdictBadge(v proof.Verdict) string {
	mark := "?"
	switch v {
	case proof.Valid:
		mark = "✓"
	case proof.Invalid:
		mark = "✗"
	}
	return VerdictStyle(v).Render(mark + " " + strings.ToUpper(v.String()))
}
