package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/five82/peerdeck/internal/backend"
)

// stubBackend answers the command API from in-memory state.
type stubBackend struct {
	mu        sync.Mutex
	connected bool
	seeding   bool
	files     []backend.RawFile
	calls     []string
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/commands/")
	var params backend.HashParams
	_ = json.NewDecoder(r.Body).Decode(&params)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, name)

	reply := func(result any) {
		raw, _ := json.Marshal(result)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": json.RawMessage(raw)})
	}
	reject := func(msg string) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": msg})
	}

	switch backend.Command(name) {
	case backend.CmdIsConnected:
		reply(b.connected)
	case backend.CmdIsSeeding:
		reply(b.seeding)
	case backend.CmdConnect, backend.CmdReconnect:
		b.connected = true
		reply(nil)
	case backend.CmdDisconnect:
		b.connected, b.seeding = false, false
		reply(nil)
	case backend.CmdStartSeeding:
		if !b.connected {
			reject("not connected")
			return
		}
		b.seeding = true
		reply(nil)
	case backend.CmdStopSeeding:
		b.seeding = false
		reply(nil)
	case backend.CmdGetAvailableFiles:
		reply(b.files)
	case backend.CmdDownload:
		for _, f := range b.files {
			if f.Hash == params.Hash {
				reply(nil)
				return
			}
		}
		reject("unknown file")
	case backend.CmdDeleteFile:
		for i, f := range b.files {
			if f.Hash == params.Hash {
				b.files = append(b.files[:i:i], b.files[i+1:]...)
				reply(nil)
				return
			}
		}
		reject("unknown file")
	default:
		http.NotFound(w, r)
	}
}

func (b *stubBackend) called(name backend.Command) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == string(name) {
			n++
		}
	}
	return n
}

func (b *stubBackend) state() (connected, seeding bool, files int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected, b.seeding, len(b.files)
}

func setup(t *testing.T) (*stubBackend, string) {
	t.Helper()
	stub := &stubBackend{
		connected: true,
		files: []backend.RawFile{
			{Name: "b.png", Size: 4.5, Hash: "BB", LastModified: "2024-01-02T10:00:00Z"},
			{Name: "a.pdf", Size: 1.2, Hash: "aa"},
			{Name: "c.txt", Size: 0.5, Hash: "cc"},
		},
	}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)

	cfgPath := filepath.Join(home, "config.toml")
	cfg := "backend_url = \"" + srv.URL + "\"\nlog_level = \"error\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return stub, cfgPath
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(VersionInfo{Version: "test", Commit: "none"})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatus(t *testing.T) {
	_, cfg := setup(t)

	out, err := execute(t, cfg, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"Connection:  connected", "Seeding:     off", "Files:       3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestFilesSorting(t *testing.T) {
	_, cfg := setup(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"files"}, []string{"a.pdf", "b.png", "c.txt"}},
		{[]string{"files", "--sort", "size"}, []string{"c.txt", "a.pdf", "b.png"}},
		{[]string{"files", "--sort", "size", "--desc"}, []string{"b.png", "a.pdf", "c.txt"}},
	}
	for _, tt := range tests {
		out, err := execute(t, cfg, tt.args...)
		if err != nil {
			t.Fatalf("%v error = %v", tt.args, err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != len(tt.want)+1 {
			t.Fatalf("%v printed %d lines, want %d:\n%s", tt.args, len(lines), len(tt.want)+1, out)
		}
		for i, name := range tt.want {
			if !strings.HasPrefix(lines[i+1], name) {
				t.Fatalf("%v line %d = %q, want prefix %q", tt.args, i+1, lines[i+1], name)
			}
		}
	}

	if _, err := execute(t, cfg, "files", "--sort", "color"); err == nil {
		t.Fatal("files --sort color should fail")
	}
}

func TestSeedAndDisconnect(t *testing.T) {
	stub, cfg := setup(t)

	out, err := execute(t, cfg, "seed", "on")
	if err != nil {
		t.Fatalf("seed on error = %v", err)
	}
	if !strings.Contains(out, "Seeding: on") {
		t.Fatalf("seed on output = %q", out)
	}

	if _, err := execute(t, cfg, "disconnect"); err != nil {
		t.Fatalf("disconnect error = %v", err)
	}
	if connected, seeding, _ := stub.state(); connected || seeding {
		t.Fatalf("backend connected=%v seeding=%v after disconnect, want both false", connected, seeding)
	}

	if _, err := execute(t, cfg, "seed", "on"); err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("seed on while disconnected error = %v, want not connected", err)
	}
	if n := stub.called(backend.CmdStartSeeding); n != 1 {
		t.Fatalf("start_seeding calls = %d, want 1", n)
	}

	if _, err := execute(t, cfg, "seed", "sideways"); err == nil {
		t.Fatal("seed sideways should fail argument validation")
	}

	out, err = execute(t, cfg, "connect")
	if err != nil {
		t.Fatalf("connect error = %v", err)
	}
	if !strings.Contains(out, "Connection: connected") {
		t.Fatalf("connect output = %q", out)
	}
}

func TestDeleteAndDownloadResolveNames(t *testing.T) {
	stub, cfg := setup(t)

	out, err := execute(t, cfg, "delete", "A.PDF")
	if err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if !strings.Contains(out, "Deleted: a.pdf") {
		t.Fatalf("delete output = %q", out)
	}
	if _, _, n := stub.state(); n != 2 {
		t.Fatalf("backend files = %d, want 2", n)
	}

	// The backend sees the hash exactly as it sent it.
	out, err = execute(t, cfg, "download", "bb")
	if err != nil {
		t.Fatalf("download error = %v", err)
	}
	if !strings.Contains(out, "Download requested: b.png") {
		t.Fatalf("download output = %q", out)
	}

	if _, err := execute(t, cfg, "download", "missing.bin"); err == nil {
		t.Fatal("download of unknown file should fail")
	}
}
