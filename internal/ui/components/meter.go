package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/proofcheck/internal/ui/theme"
)

// ConfidenceMeter draws a confidence in [0,1] as a horizontal bar.
type ConfidenceMeter struct {
	Value float64
	Width int
}

func (m ConfidenceMeter) View() string {
	barWidth := max(m.Width-6, 4)
	filled := min(max(int(float64(barWidth)*m.Value+0.5), 0), barWidth)

	return theme.MeterFilled.Render(strings.Repeat(" ", filled)) +
		theme.MeterEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %3d%%", int(m.Value*100+0.5)))
}
