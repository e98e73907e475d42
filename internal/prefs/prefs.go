// Package prefs handles peerdeck user preferences persistence.
// Preferences are stored in ~/.config/peerdeck/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/peerdeck/internal/view"
)

// Prefs holds user preferences for peerdeck.
type Prefs struct {
	Theme         string `toml:"theme"`
	SortField     string `toml:"sort_field"`
	SortAscending bool   `toml:"sort_ascending"`
}

const (
	defaultPrefsPath = "~/.config/peerdeck/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the built-in preferences.
func Default() Prefs {
	s := view.DefaultSort()
	return Prefs{Theme: defaultTheme, SortField: s.Field.String(), SortAscending: s.Ascending}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Sort returns the persisted sort order. Unknown fields fall back to the default.
func (p Prefs) Sort() view.Sort {
	field, err := view.ParseField(p.SortField)
	if err != nil {
		return view.DefaultSort()
	}
	return view.Sort{Field: field, Ascending: p.SortAscending}
}

// WithSort returns a copy with s stored.
func (p Prefs) WithSort(s view.Sort) Prefs {
	p.SortField = s.Field.String()
	p.SortAscending = s.Ascending
	return p
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	prefs := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if _, err := view.ParseField(prefs.SortField); err != nil {
		d := Default()
		prefs.SortField = d.SortField
		prefs.SortAscending = d.SortAscending
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
