package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/peerdeck/internal/backend"
	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/seeding"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	p := newPainter(m.theme.Surface)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, p))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, p painter) string {
	compact := m.width < LayoutCompactWidth

	parts := []string{
		p.Text("peerdeck", styles.Logo),
		styles.ConnectionChip(m.connState),
		styles.SeedingChip(m.seedState),
		p.Text("Files:", styles.MutedText) + p.Gap(1) + p.Text(fmt.Sprintf("%d", len(m.rows)), styles.Text),
	}

	if m.health.IsOffline() {
		parts = append(parts, m.formatOffline(styles, p))
	} else if n, ok := m.health.Latest(); ok {
		limit := 60
		if compact {
			limit = 28
		}
		msg := truncate(n.Source+": "+describeError(n.Err), limit)
		parts = append(parts,
			p.Text("! "+msg, styles.DangerText)+p.Gap(1)+p.Text(formatAgo(n.At), styles.FaintText))
	}

	if !compact {
		parts = append(parts, p.Text("polled "+formatAgo(m.health.LastPoll), styles.FaintText))
	}

	return p.Join(parts, "  ")
}

// formatOffline describes repeated poll failures.
func (m Model) formatOffline(styles Styles, p painter) string {
	label := "BACKEND " + classifyConnectionError(m.health.LastPollError)
	return p.Text(label, styles.DangerText) + p.Gap(1) +
		p.Text(fmt.Sprintf("Retrying (%d failures)", m.health.ConsecutiveFailures), styles.WarningText)
}

// classifyConnectionError returns a short description of a poll error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// describeError shortens controller errors for the header.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	var rej *backend.RejectionError
	switch {
	case errors.As(err, &rej):
		return ternary(rej.Message != "", rej.Message, "rejected")
	case backend.IsTransport(err):
		return "backend unreachable"
	case errors.Is(err, seeding.ErrNotConnected):
		return "not connected"
	default:
		return err.Error()
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	p := newPainter(m.theme.Surface)

	if m.confirmDelete != "" {
		name := truncateMiddle(m.recordName(m.confirmDelete), 40)
		prompt := p.Join([]string{
			p.Text(fmt.Sprintf("Delete %q?", name), styles.WarningText.Bold(true)),
			p.Hint("y", "confirm", styles.AccentText, styles.MutedText),
			p.Hint("any", "cancel", styles.AccentText, styles.MutedText),
		}, "  ")
		return styles.Bar.Width(m.width).Render(prompt)
	}

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewNotices:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"x", "Dismiss"},
			{"esc", "Files"},
			{"?", "More"},
		}
	default: // ViewFiles
		commands = []cmd{
			{"c", ternary(m.connState == connection.Connected, "Disconnect", "Connect")},
			{"s", ternary(m.seedState == seeding.On, "Stop seed", "Seed")},
			{"r", "Refresh"},
			{"1/2/3", "Sort " + m.sort.Field.String() + ternary(m.sort.Ascending, " ↑", " ↓")},
			{"D", "Download"},
			{"d", "Delete"},
			{"n", "Notices"},
			{"?", "More"},
		}
	}

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments, p.Hint(c.key, c.desc, styles.AccentText, styles.MutedText))
	}
	segments = append(segments, p.Hint("T", m.theme.Name, styles.AccentText, styles.FaintText))
	if m.flash != "" {
		segments = append(segments, p.Text(truncate(m.flash, 48), styles.InfoText))
	}

	return styles.Bar.Width(m.width).Render(p.Join(segments, "  "))
}
