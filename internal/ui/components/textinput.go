// Package components holds small reusable TUI widgets.
package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// MaxProofLength caps the characters accepted by ProofInput.
const MaxProofLength = 4000

// ProofInput is a single-line input for proof text.
type ProofInput struct {
	Model textinput.Model
}

func NewProofInput(placeholder string) ProofInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = MaxProofLength
	ti.Focus()
	return ProofInput{Model: ti}
}

func (p ProofInput) Init() tea.Cmd {
	return p.Model.Focus()
}

func (p ProofInput) Update(msg tea.Msg) (ProofInput, tea.Cmd) {
	var cmd tea.Cmd
	p.Model, cmd = p.Model.Update(msg)
	return p, cmd
}

func (p ProofInput) View() string {
	return p.Model.View()
}

// Value returns the trimmed input.
func (p ProofInput) Value() string {
	return strings.TrimSpace(p.Model.Value())
}

// Reset clears the input.
func (p *ProofInput) Reset() {
	p.Model.SetValue("")
}

// Truncate shortens s to n runes with a trailing ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
