package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chazu/spiral/pkg/repair"
)

// TUI asks for each decision with a full-screen picker.
type TUI struct {
	opts []tea.ProgramOption
}

// NewTUI returns a picker provider. Options are passed to every program,
// e.g. tea.WithInput for tests.
func NewTUI(opts ...tea.ProgramOption) *TUI {
	return &TUI{opts: opts}
}

// Decide implements repair.DecisionProvider. Cancelling the picker aborts.
func (t *TUI) Decide(cp repair.Checkpoint) (repair.Decision, error) {
	final, err := tea.NewProgram(newDecisionModel(cp), t.opts...).Run()
	if err != nil {
		return repair.Decision{}, fmt.Errorf("prompt: %w", err)
	}
	m, ok := final.(decisionModel)
	if !ok || m.cancelled || !m.done {
		return repair.Abort(), nil
	}
	return m.decision, nil
}

// choice is one row of the picker.
type choice struct {
	label    string
	decision repair.Decision
	landing  bool // row edits the tread input
}

type decisionModel struct {
	cp        repair.Checkpoint
	choices   []choice
	cursor    int
	input     textinput.Model
	decision  repair.Decision
	done      bool
	cancelled bool
	err       error
}

func newDecisionModel(cp repair.Checkpoint) decisionModel {
	m := decisionModel{cp: cp}

	if cp.Kind == repair.CheckpointLanding {
		lo, hi := cp.Treads()
		in := textinput.New()
		in.Placeholder = fmt.Sprintf("%d-%d", lo, hi)
		in.SetValue(strconv.Itoa(DefaultLandingTread(cp)))
		in.CharLimit = 4
		in.Width = 6
		in.Focus()
		in.PromptStyle = focusedStyle
		in.TextStyle = focusedStyle
		m.input = in
		m.choices = append(m.choices, choice{label: "Place mid-landing at tread", landing: true})
	} else {
		for i, s := range cp.Violation.Suggestions {
			m.choices = append(m.choices, choice{label: s.String(), decision: repair.Accept(i)})
		}
	}
	m.choices = append(m.choices,
		choice{label: "Ignore", decision: repair.Ignore()},
		choice{label: "Abort", decision: repair.Abort()},
	)
	return m
}

func (m decisionModel) Init() tea.Cmd {
	if m.cp.Kind == repair.CheckpointLanding {
		return textinput.Blink
	}
	return nil
}

func (m decisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "up", "shift+tab":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, m.updateFocus()

		case "down", "tab":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
			return m, m.updateFocus()

		case "enter":
			d, err := m.selected()
			if err == nil && !m.cp.Allows(d) {
				err = fmt.Errorf("%s is not allowed here", d)
			}
			if err != nil {
				m.err = err
				return m, nil
			}
			m.decision = d
			m.done = true
			return m, tea.Quit
		}
	}

	if m.choices[m.cursor].landing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.err = nil
		return m, cmd
	}
	return m, nil
}

func (m *decisionModel) updateFocus() tea.Cmd {
	if m.cp.Kind != repair.CheckpointLanding {
		return nil
	}
	if m.choices[m.cursor].landing {
		m.input.PromptStyle = focusedStyle
		m.input.TextStyle = focusedStyle
		return m.input.Focus()
	}
	m.input.Blur()
	m.input.PromptStyle = blurredStyle
	m.input.TextStyle = blurredStyle
	return nil
}

func (m decisionModel) selected() (repair.Decision, error) {
	c := m.choices[m.cursor]
	if !c.landing {
		return c.decision, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
	if err != nil {
		return repair.Decision{}, fmt.Errorf("tread must be a number")
	}
	return repair.PlaceLanding(n), nil
}

func (m decisionModel) View() string {
	var b strings.Builder
	b.WriteString(RenderCheckpoint(m.cp))
	b.WriteString("\n\n")

	for i, c := range m.choices {
		line := c.label
		if c.landing {
			line += " " + m.input.View()
		}
		if i == m.cursor {
			b.WriteString(focusedStyle.Render("› " + line))
		} else {
			b.WriteString(blurredStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • enter confirm • esc abort"))
	return b.String()
}
