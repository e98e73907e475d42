package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/files"
	"github.com/five82/peerdeck/internal/seeding"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Fatalf("NextTheme(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Nope").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Nope).Name = %q, want Nightfox fallback", got)
	}
}

func TestThemesColorEveryType(t *testing.T) {
	types := []files.Type{files.Other, files.PDF, files.Image, files.Presentation, files.Text}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, ft := range types {
			if th.Types[ft] == "" {
				t.Fatalf("%s: no color for file type %q", name, ft)
			}
		}
	}
}

func TestStateColorsSeparateSettledFromTransitions(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)

		conn := map[connection.State]string{
			connection.Connected:     th.Success,
			connection.Connecting:    th.Warning,
			connection.Disconnecting: th.Warning,
			connection.Disconnected:  th.Danger,
		}
		for s, want := range conn {
			if got := th.ConnectionColor(s); got != want {
				t.Fatalf("%s: ConnectionColor(%v) = %q, want %q", name, s, got, want)
			}
		}

		seed := map[seeding.State]string{
			seeding.On:         th.Success,
			seeding.TurningOn:  th.Info,
			seeding.TurningOff: th.Info,
			seeding.Off:        th.Faint,
		}
		for s, want := range seed {
			if got := th.SeedingColor(s); got != want {
				t.Fatalf("%s: SeedingColor(%v) = %q, want %q", name, s, got, want)
			}
		}
	}
}

func TestTypeColorFallsBackToMuted(t *testing.T) {
	th := GetTheme("Nightfox")
	if got := th.TypeColor(files.Type(99)); got != th.Muted {
		t.Fatalf("TypeColor(99) = %q, want muted %q", got, th.Muted)
	}
}

func TestChipsSurviveWithBackground(t *testing.T) {
	th := GetTheme("Kanagawa")
	plain := th.Styles()
	onSurface := plain.WithBackground(th.Surface)

	if got, want := onSurface.ConnectionChip(connection.Connecting), plain.ConnectionChip(connection.Connecting); got != want {
		t.Fatalf("ConnectionChip changed with background: %q vs %q", got, want)
	}
	if got := plain.SeedingChip(seeding.TurningOff); !strings.Contains(got, "SEED TURNING OFF") {
		t.Fatalf("SeedingChip = %q, want label SEED TURNING OFF", got)
	}
	if got := onSurface.Text.GetBackground(); got != lipgloss.Color(th.Surface) {
		t.Fatalf("Text background = %v, want %v", got, th.Surface)
	}
}
