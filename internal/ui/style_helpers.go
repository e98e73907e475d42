package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// painter draws line segments on one background color. Every segment,
// including padding between words and columns, carries the background so
// ANSI resets never punch holes through a selected row or a header bar.
type painter struct {
	bg  lipgloss.Color
	gap lipgloss.Style
}

func newPainter(bgColor string) painter {
	bg := lipgloss.Color(bgColor)
	return painter{bg: bg, gap: lipgloss.NewStyle().Background(bg)}
}

// Text renders text in style on the painter's background.
func (p painter) Text(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(p.bg)
	if !strings.Contains(text, " ") {
		return style.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, p.Gap(1))
}

// Gap returns n background-colored spaces.
func (p painter) Gap(n int) string {
	if n <= 0 {
		return ""
	}
	return p.gap.Render(strings.Repeat(" ", n))
}

// Join joins segments with a background-colored separator.
func (p painter) Join(parts []string, sep string) string {
	return strings.Join(parts, p.gap.Render(sep))
}

// Fill pads content to width with the background.
func (p painter) Fill(content string, width int) string {
	return p.gap.Width(width).Render(content)
}

// Cell renders one table column: text truncated and padded to width,
// right-aligned for numeric columns.
func (p painter) Cell(text string, width int, right bool, style lipgloss.Style) string {
	if right {
		return p.Text(padLeft(truncate(text, width), width), style)
	}
	return p.Text(padRight(truncate(text, width), width), style)
}

// Field renders a "Label     value" detail line.
func (p painter) Field(label string, labelWidth int, value string, valueWidth int, labelStyle, valueStyle lipgloss.Style) string {
	return p.Cell(label, labelWidth, false, labelStyle) + p.Text(truncate(value, valueWidth), valueStyle)
}

// Hint renders a "key:action" pair for the command bar.
func (p painter) Hint(key, action string, keyStyle, actionStyle lipgloss.Style) string {
	return p.Text(key, keyStyle) + p.gap.Render(":") + p.Text(action, actionStyle)
}
