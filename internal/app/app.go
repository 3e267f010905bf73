// Package app is the interactive single-proof checker.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/ui/components"
	"github.com/abhisek/proofcheck/internal/ui/layout"
	"github.com/abhisek/proofcheck/internal/ui/theme"
)

const maxHistory = 6

// Checker decides one proof.
type Checker interface {
	Decide(ctx context.Context, text string, allowRules bool) (engine.Decision, error)
	Available() bool
}

// Explainer produces an optional one-line rationale.
type Explainer interface {
	Text(ctx context.Context, p proof.Proof, r proof.Result) string
}

// Options configures the checker UI.
type Options struct {
	Checker    Checker
	Explainer  Explainer // nil disables explanations
	AllowRules bool
}

type entry struct {
	text        string
	decision    engine.Decision
	explanation string
	err         error
}

type checkedMsg entry

// Model is the root Bubble Tea model.
type Model struct {
	opts       Options
	input      components.ProofInput
	allowRules bool
	checking   bool
	history    []entry // newest first
	width      int
	height     int
}

// New creates the model.
func New(opts Options) Model {
	return Model{
		opts:       opts,
		input:      components.NewProofInput("Type or paste a proof and press Enter"),
		allowRules: opts.AllowRules,
	}
}

func (m Model) Init() tea.Cmd {
	return m.input.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case checkedMsg:
		m.checking = false
		m.history = append([]entry{entry(msg)}, m.history...)
		if len(m.history) > maxHistory {
			m.history = m.history[:maxHistory]
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			m.allowRules = !m.allowRules
			return m, nil
		case "ctrl+l":
			m.history = nil
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a check of the current input.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	if text == "" || m.checking {
		return m, nil
	}
	m.checking = true
	m.input.Reset()
	return m, check(m.opts, text, m.allowRules)
}

func check(opts Options, text string, allowRules bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		d, err := opts.Checker.Decide(ctx, text, allowRules)
		e := entry{text: text, decision: d, err: err}
		if err == nil && opts.Explainer != nil {
			e.explanation = opts.Explainer.Text(ctx, proof.Proof{ID: "interactive", Text: text}, d.Result)
		}
		return checkedMsg(e)
	}
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader("Check a proof", m.status(), m.width)
	footer := layout.RenderFooter([]layout.KeyHint{
		{Key: "Enter", Description: "Check"},
		{Key: "Ctrl+R", Description: "Toggle rules"},
		{Key: "Ctrl+L", Description: "Clear"},
		{Key: "Esc", Description: "Quit"},
	}, m.width)

	v.SetContent(layout.RenderFrame(header, m.body(), footer, m.width, m.height))
	return v
}

func (m Model) status() string {
	rules := "rules off"
	if m.allowRules {
		rules = "rules on"
	}
	model := "model ready"
	if !m.opts.Checker.Available() {
		model = "model unavailable"
	}
	return rules + " · " + model
}

func (m Model) body() string {
	var b strings.Builder
	b.WriteString("\n  " + m.input.View() + "\n\n")

	if m.checking {
		b.WriteString("  " + theme.Hint.Render("Checking...") + "\n\n")
	}
	if len(m.history) == 0 && !m.checking {
		b.WriteString("  " + theme.Hint.Render("Short proofs with indicator phrases are decided by rules; the rest by the model.") + "\n")
		return b.String()
	}

	for i, e := range m.history {
		card := renderEntry(e, m.width-8)
		if i > 0 {
			card = lipgloss.NewStyle().Faint(true).Render(card)
		}
		b.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(card) + "\n")
	}
	return b.String()
}

func renderEntry(e entry, width int) string {
	var lines []string
	lines = append(lines, theme.Body.Render(components.Truncate(e.text, max(width-6, 10))))

	if e.err != nil {
		lines = append(lines, theme.Invalid.Render("error: "+e.err.Error()))
		return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
	}

	d := e.decision
	lines = append(lines, "",
		theme.Label.Render("Verdict")+components.VerdictBadge(d.Result.Verdict),
		theme.Label.Render("Confidence")+components.ConfidenceMeter{Value: d.Result.Confidence, Width: 30}.View(),
		theme.Label.Render("Source")+theme.Body.Render(source(d)),
	)
	if d.Degraded && d.Cause != nil {
		lines = append(lines, theme.Hint.Render(d.Cause.Error()))
	}
	if e.explanation != "" {
		lines = append(lines, "", theme.Hint.Render(e.explanation))
	}
	return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
}

func source(d engine.Decision) string {
	switch d.Kind {
	case engine.KindRule:
		return fmt.Sprintf("rule %s (%q)", d.Rule, d.Indicator)
	case engine.KindModel:
		return "model"
	default:
		return "unavailable"
	}
}

// Run starts the program.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
