package ui

import (
	"fmt"
	"strings"
)

// updateNoticesViewport refreshes the notice history content and size.
func (m *Model) updateNoticesViewport() {
	if !m.ready {
		return
	}
	m.noticesViewport.Width = maxInt(m.width-2, 1)
	m.noticesViewport.Height = maxInt(m.height-headerHeight-2, 1)

	atBottom := m.noticesViewport.AtBottom()
	m.noticesViewport.SetContent(m.formatNotices())
	if atBottom {
		m.noticesViewport.GotoBottom()
	}
}

// formatNotices renders the notice history, newest last.
func (m Model) formatNotices() string {
	styles := m.theme.Styles()
	if len(m.health.Notices) == 0 {
		return styles.MutedText.Render("No notices")
	}

	lines := make([]string, 0, len(m.health.Notices))
	for _, n := range m.health.Notices {
		ts := n.At.Local().Format("15:04:05")
		lines = append(lines,
			styles.FaintText.Render(ts)+" "+
				styles.WarningText.Render(padRight(n.Source, 11))+" "+
				styles.Text.Render(describeError(n.Err)))
	}
	return strings.Join(lines, "\n")
}

// renderNotices renders the notice history pane.
func (m Model) renderNotices() string {
	title := fmt.Sprintf("Notices (%d)", len(m.health.Notices))
	return m.renderTitledBox(title, m.noticesViewport.View(), m.width, m.height-headerHeight, true)
}
