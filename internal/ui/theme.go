package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/files"
	"github.com/five82/peerdeck/internal/seeding"
)

// Palette is the raw color set a theme is built from.
type Palette struct {
	Background string // behind the panes
	Surface    string // header and command bar
	SurfaceAlt string // unfocused panes
	FocusBg    string // focused pane

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Theme is a named palette plus a color per file type for the table.
type Theme struct {
	Name string
	Palette
	Types map[files.Type]string
}

// ConnectionColor colors a connection chip: settled states by outcome,
// transitions as warnings.
func (t Theme) ConnectionColor(s connection.State) string {
	switch s {
	case connection.Connected:
		return t.Success
	case connection.Connecting, connection.Disconnecting:
		return t.Warning
	default:
		return t.Danger
	}
}

// SeedingColor colors a seeding chip. Off is quiet rather than alarming.
func (t Theme) SeedingColor(s seeding.State) string {
	switch s {
	case seeding.On:
		return t.Success
	case seeding.TurningOn, seeding.TurningOff:
		return t.Info
	default:
		return t.Faint
	}
}

// TypeColor returns the table color for a file type, muted when unset.
func (t Theme) TypeColor(ft files.Type) string {
	if c := t.Types[ft]; c != "" {
		return c
	}
	return t.Muted
}

// Styles returns text styles with no background.
func (t Theme) Styles() Styles {
	return t.stylesOn("")
}

func (t Theme) stylesOn(bgColor string) Styles {
	fg := func(color string) lipgloss.Style {
		s := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		if bgColor != "" {
			s = s.Background(lipgloss.Color(bgColor))
		}
		return s
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Logo:        fg(t.Warning).Bold(true),
		Bar: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		theme: t,
	}
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style
	Logo        lipgloss.Style
	// Bar frames the header and command bar.
	Bar lipgloss.Style

	theme Theme
}

// WithBackground returns the same styles painted on bgColor.
func (s Styles) WithBackground(bgColor string) Styles {
	return s.theme.stylesOn(bgColor)
}

// ConnectionChip renders the connection state badge.
func (s Styles) ConnectionChip(state connection.State) string {
	return s.chip(s.theme.ConnectionColor(state)).Render(strings.ToUpper(state.String()))
}

// SeedingChip renders the seeding state badge.
func (s Styles) SeedingChip(state seeding.State) string {
	return s.chip(s.theme.SeedingColor(state)).Render("SEED " + strings.ToUpper(state.String()))
}

func (s Styles) chip(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// TypeText returns the foreground style for a file type label.
func (s Styles) TypeText(ft files.Type) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.theme.TypeColor(ft)))
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, Nightfox when unknown.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names in cycle order.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",
		Palette: Palette{
			Background:    "#131a24",
			Surface:       "#192330",
			SurfaceAlt:    "#212e3f",
			FocusBg:       "#29394f",
			SelectionBg:   "#2b3b51",
			SelectionText: "#cdcecf",
			Border:        "#39506d",
			BorderFocus:   "#719cd6",
			Text:          "#cdcecf",
			Muted:         "#738091",
			Faint:         "#71839b",
			Accent:        "#719cd6",
			Success:       "#81b29a",
			Warning:       "#dbc074",
			Danger:        "#c94f6d",
			Info:          "#63cdcf",
		},
		Types: map[files.Type]string{
			files.PDF:          "#c94f6d",
			files.Image:        "#9d79d6",
			files.Presentation: "#f4a261",
			files.Text:         "#63cdcf",
			files.Other:        "#71839b",
		},
	}
}

func kanagawaTheme() Theme {
	// https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name: "Kanagawa",
		Palette: Palette{
			Background:    "#16161D",
			Surface:       "#1F1F28",
			SurfaceAlt:    "#2A2A37",
			FocusBg:       "#2A2A37",
			SelectionBg:   "#2D4F67",
			SelectionText: "#DCD7BA",
			Border:        "#54546D",
			BorderFocus:   "#7E9CD8",
			Text:          "#DCD7BA",
			Muted:         "#C8C093",
			Faint:         "#727169",
			Accent:        "#7E9CD8",
			Success:       "#98BB6C",
			Warning:       "#E6C384",
			Danger:        "#E46876",
			Info:          "#7FB4CA",
		},
		Types: map[files.Type]string{
			files.PDF:          "#E46876",
			files.Image:        "#957FB8",
			files.Presentation: "#E6C384",
			files.Text:         "#7FB4CA",
			files.Other:        "#727169",
		},
	}
}

func slateTheme() Theme {
	// Tailwind slate and sky scales
	return Theme{
		Name: "Slate",
		Palette: Palette{
			Background:    "#020617",
			Surface:       "#0f172a",
			SurfaceAlt:    "#1e293b",
			FocusBg:       "#283548",
			SelectionBg:   "#0284c7",
			SelectionText: "#f8fafc",
			Border:        "#334155",
			BorderFocus:   "#38bdf8",
			Text:          "#f1f5f9",
			Muted:         "#94a3b8",
			Faint:         "#64748b",
			Accent:        "#38bdf8",
			Success:       "#22c55e",
			Warning:       "#f59e0b",
			Danger:        "#ef4444",
			Info:          "#06b6d4",
		},
		Types: map[files.Type]string{
			files.PDF:          "#ef4444",
			files.Image:        "#06b6d4",
			files.Presentation: "#f59e0b",
			files.Text:         "#0ea5e9",
			files.Other:        "#64748b",
		},
	}
}
