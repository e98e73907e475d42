package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/view"
)

// renderFiles renders the file view with split layout (table + detail).
func (m Model) renderFiles() string {
	styles := m.theme.Styles()
	contentHeight := m.height - headerHeight

	if len(m.rows) == 0 {
		msg := "No files available"
		if m.connState != connection.Connected {
			msg = "Not connected. Press c to connect"
		}
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	// Compact: table only
	if m.width < LayoutCompactWidth {
		content := m.renderFileTable(m.width-2, contentHeight-2, m.theme.FocusBg)
		return m.renderTitledBox(m.filesTitle(), content, m.width, contentHeight, true)
	}

	// Extra wide (>= 160): 60% table, 40% detail
	// Default: 65% table, 35% detail
	var tableWidth int
	if m.width >= LayoutExtraWideWidth {
		tableWidth = m.width * 60 / 100
	} else {
		tableWidth = m.width * 65 / 100
	}
	detailWidth := m.width - tableWidth

	tableContent := m.renderFileTable(tableWidth-2, contentHeight-2, m.theme.FocusBg)
	tablePane := m.renderTitledBox(m.filesTitle(), tableContent, tableWidth, contentHeight, true)

	detailBg := m.theme.SurfaceAlt
	var detailContent string
	if idx := view.IndexOf(m.rows, m.selected); idx >= 0 {
		detailContent = m.renderDetailContent(m.rows[idx], detailWidth-4, detailBg)
	} else {
		detailContent = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Muted)).
			Background(lipgloss.Color(detailBg)).
			Render("Select a file")
	}
	detailPane := m.renderTitledBox("Details", detailContent, detailWidth, contentHeight, false)

	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, detailPane)
}

// filesTitle returns the table pane title.
func (m Model) filesTitle() string {
	return fmt.Sprintf("Files (%d)", len(m.rows))
}

// renderFileTable renders a column header and the visible window of rows.
func (m Model) renderFileTable(width, height int, bgColor string) string {
	showModified := width >= LayoutModifiedWidth
	nameWidth := m.nameColumnWidth(width, showModified)

	lines := []string{m.renderColumnHeader(width, nameWidth, showModified, bgColor)}

	visible := maxInt(height-1, 1)
	start, end := visibleWindow(len(m.rows), view.IndexOf(m.rows, m.selected), visible)
	for _, row := range m.rows[start:end] {
		rowBg := bgColor
		if row.Selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatFileRow(row, nameWidth, showModified, rowBg)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

func (m Model) nameColumnWidth(width int, showModified bool) int {
	fixed := sizeColumnWidth + typeColumnWidth + 2 // column gaps
	if showModified {
		fixed += modifiedColumnWidth + 1
	}
	return maxInt(width-fixed-1, 8)
}

// renderColumnHeader renders column titles with the sort indicator.
func (m Model) renderColumnHeader(width, nameWidth int, showModified bool, bgColor string) string {
	p := newPainter(bgColor)
	style := m.theme.Styles().MutedText.Bold(true)
	label := func(title string, field view.Field) string {
		if m.sort.Field != field {
			return title
		}
		return title + ternary(m.sort.Ascending, " ▲", " ▼")
	}

	header := p.Gap(1) +
		p.Cell(label("Name", view.FieldName), nameWidth, false, style) + p.Gap(1) +
		p.Cell(label("Size", view.FieldSize), sizeColumnWidth, true, style) + p.Gap(1) +
		p.Cell("Type", typeColumnWidth, false, style)
	if showModified {
		header += p.Gap(1) + p.Text(label("Modified", view.FieldModified), style)
	}
	return p.Fill(header, width)
}

// formatFileRow formats one file row with inline colors.
// When the row is selected, SelectionText is used for all text to ensure contrast.
func (m Model) formatFileRow(row view.Row, nameWidth int, showModified bool, bgColor string) string {
	p := newPainter(bgColor)

	var nameStyle, sizeStyle, typeStyle, modStyle lipgloss.Style
	if row.Selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		nameStyle, sizeStyle, typeStyle, modStyle = selText, selText, selText, selText
	} else {
		styles := m.theme.Styles()
		nameStyle = styles.Text
		sizeStyle = styles.MutedText
		typeStyle = styles.TypeText(row.Type)
		modStyle = styles.FaintText
	}

	line := p.Gap(1) +
		p.Cell(truncateMiddle(row.Name, nameWidth), nameWidth, false, nameStyle) + p.Gap(1) +
		p.Cell(formatSize(row.SizeMB), sizeColumnWidth, true, sizeStyle) + p.Gap(1) +
		p.Cell(row.Type.String(), typeColumnWidth, false, typeStyle)
	if showModified {
		line += p.Gap(1) + p.Text(formatModified(row.Record), modStyle)
	}
	return line
}

// renderDetailContent renders the detail pane for the selected file.
func (m Model) renderDetailContent(row view.Row, width int, bgColor string) string {
	styles := m.theme.Styles()
	p := newPainter(bgColor)
	valueStyle := styles.Text
	valueWidth := maxInt(width-detailLabelWidth, 8)

	field := func(label, value string, style lipgloss.Style) string {
		return p.Field(label, detailLabelWidth, value, valueWidth, styles.MutedText, style)
	}

	modified := "unknown"
	if row.ModifiedKnown() {
		modified = formatModified(row.Record) + " (" + formatAgo(row.LastModified) + ")"
	}
	hash := row.Hash
	hashStyle := valueStyle
	if hash == "" {
		hash = "none"
		hashStyle = styles.WarningText
	}

	lines := []string{
		p.Text(truncate(row.Name, width), styles.AccentText.Bold(true)),
		"",
		field("Size", formatSize(row.SizeMB), valueStyle),
		field("Type", row.Type.String(), styles.TypeText(row.Type)),
		field("Modified", modified, valueStyle),
		field("Hash", truncateMiddle(hash, valueWidth), hashStyle),
		field("Key", row.Key, styles.FaintText),
	}
	return strings.Join(lines, "\n")
}

// visibleWindow returns the [start, end) slice of n rows that keeps cursor
// visible in a window of the given height.
func visibleWindow(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}

// renderTitledBox renders content in a box with the title embedded in the top border.
// Frame style: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	p := newPainter(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := maxInt(width-2, 0)
	titleLen := lipgloss.Width(title)
	leftPad := maxInt((innerWidth-titleLen-2)/2, 0)
	rightPad := maxInt(innerWidth-titleLen-2-leftPad, 0)

	topBorder := p.Text("┌", borderStyle) +
		p.Text(strings.Repeat("─", leftPad), borderStyle) +
		p.Text(" "+title+" ", titleStyle) +
		p.Text(strings.Repeat("─", rightPad), borderStyle) +
		p.Text("┐", borderStyle)

	bottomBorder := p.Text("└", borderStyle) +
		p.Text(strings.Repeat("─", innerWidth), borderStyle) +
		p.Text("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := height - 2

	paddedLines := make([]string, 0, maxInt(boxHeight, 0))
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines,
			p.Text("│", borderStyle)+
				contentStyle.Render(line)+
				p.Text("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomBorder
}
