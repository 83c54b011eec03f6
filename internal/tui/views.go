package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/prioritizer/internal/session"
)

// Styles holds the lipgloss styles used by the agent views.
type Styles struct {
	Title    lipgloss.Style
	Border   lipgloss.Style
	Muted    lipgloss.Style
	Task     lipgloss.Style
	Done     lipgloss.Style
	High     lipgloss.Style
	Medium   lipgloss.Style
	Low      lipgloss.Style
	NoPrio   lipgloss.Style
	Progress lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the default agent color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Task:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Done:     lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241")),
		High:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Medium:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		Low:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
		NoPrio:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Progress: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// renderBanner renders the agent's title panel.
func (s Styles) renderBanner() string {
	return s.Border.Render(s.Title.Render("AI Personal Task Prioritizer"))
}

// priorityStyle picks the style for a priority label.
func (s Styles) priorityStyle(p session.Priority) lipgloss.Style {
	switch p {
	case session.PriorityHigh:
		return s.High
	case session.PriorityMedium:
		return s.Medium
	case session.PriorityLow:
		return s.Low
	default:
		return s.NoPrio
	}
}

// renderSession renders the prioritized task list as a table-like view
// with done markers, priority colors, and a progress line.
func (s Styles) renderSession(sess session.Session) string {
	var b strings.Builder

	if sess.Goal != "" {
		b.WriteString(s.Muted.Render("Goal: "))
		b.WriteString(sess.Goal)
		b.WriteString("\n\n")
	}

	if len(sess.Tasks) == 0 {
		b.WriteString(s.Muted.Render("No tasks."))
		b.WriteString("\n")
		return b.String()
	}

	for i, t := range sess.Tasks {
		mark := "[ ]"
		textStyle := s.Task
		if t.Completed {
			mark = "[x]"
			textStyle = s.Done
		}

		label := string(t.Priority)
		if label == "" {
			label = "—"
		}

		fmt.Fprintf(&b, "%2d. %s %-8s %s\n",
			i+1,
			mark,
			s.priorityStyle(t.Priority).Render(label),
			textStyle.Render(t.Text))

		if t.Reason != "" {
			fmt.Fprintf(&b, "       %s\n", s.Muted.Render(t.Reason))
		}
	}

	b.WriteString("\n")
	b.WriteString(s.Progress.Render(
		fmt.Sprintf("%d/%d tasks completed", sess.CompletedCount(), len(sess.Tasks))))
	b.WriteString("\n")

	return b.String()
}
