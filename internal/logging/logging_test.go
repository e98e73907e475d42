package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_CLIWritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Mode: ModeCLI, Level: zerolog.InfoLevel, Out: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logger.Debug().Msg("hidden")
	logger.Info().Str("component", "files").Msg("refreshed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("output = %q, want debug filtered at info level", out)
	}
	if !strings.Contains(out, "refreshed") || !strings.Contains(out, "component=files") {
		t.Fatalf("output = %q, want console line with component field", out)
	}
}

func TestNew_TUIWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "peerdeck.log")
	logger, closer, err := New(Options{Mode: ModeTUI, Level: zerolog.DebugLevel, File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn().Str("reason", "duplicate hash").Msg("dropped file record")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line %q is not JSON: %v", data, err)
	}
	if entry["level"] != "warn" || entry["reason"] != "duplicate hash" {
		t.Fatalf("entry = %v, want warn with reason", entry)
	}
}

func TestNew_TUIRequiresFile(t *testing.T) {
	if _, _, err := New(Options{Mode: ModeTUI}); err == nil {
		t.Fatalf("New returned nil error, want error for empty file")
	}
}
