package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/spiral/pkg/compliance"
	"github.com/chazu/spiral/pkg/repair"
	"github.com/chazu/spiral/pkg/stair"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#505050")).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	fatalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	softStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#505050")).
			Padding(0, 1)
)

// RenderSummary draws the summary lines in a box.
func RenderSummary(s repair.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Spiral Staircase"))
	b.WriteString("\n")
	for _, line := range s.Lines() {
		label, value, ok := strings.Cut(line, ": ")
		if !ok {
			b.WriteString("\n" + line)
			continue
		}
		if label == "Ignored" {
			b.WriteString("\n" + softStyle.Render("! "+value))
			continue
		}
		b.WriteString("\n" + labelStyle.Render(label+":") + " " + valueStyle.Render(value))
	}
	return boxStyle.Render(b.String())
}

// RenderViolation draws one finding with its numbered suggestions.
func RenderViolation(v compliance.Violation) string {
	style := softStyle
	if v.Fatal() {
		style = fatalStyle
	}
	var b strings.Builder
	b.WriteString(style.Render(v.Error()))
	for i, s := range v.Suggestions {
		b.WriteString(fmt.Sprintf("\n  %d) %s", i+1, s))
	}
	return b.String()
}

// RenderReport draws every finding of an audit, or a pass line.
func RenderReport(r compliance.Report) string {
	if r.Clean() {
		return okStyle.Render("All checks passed.")
	}
	all := r.All()
	parts := make([]string, 0, len(all))
	for _, v := range all {
		parts = append(parts, RenderViolation(v))
	}
	return strings.Join(parts, "\n")
}

// RenderCheckpoint draws the question a checkpoint asks.
func RenderCheckpoint(cp repair.Checkpoint) string {
	if cp.Kind == repair.CheckpointLanding {
		lo, hi := cp.Treads()
		return softStyle.Render(fmt.Sprintf(
			"Overall height exceeds %.0f inches. A mid-landing is required (tread %d to %d).",
			stair.MidLandingThreshold, lo, hi))
	}
	return RenderViolation(cp.Violation)
}
