package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/files"
	"github.com/five82/peerdeck/internal/seeding"
)

// actionMsg reports the end of a user-triggered backend command.
type actionMsg struct {
	action string
	name   string
	err    error
}

// flash returns the status line text for a finished action. Failures are
// also recorded as notices by the controllers, so only a short hint is shown.
func (a actionMsg) flash() string {
	subject := a.action
	if a.name != "" {
		subject = fmt.Sprintf("%s %q", a.action, a.name)
	}
	switch {
	case a.err == nil:
		return titleFirst(subject) + " done"
	case errors.Is(a.err, connection.ErrBusy), errors.Is(a.err, seeding.ErrBusy):
		return "Busy, try again when the change settles"
	case errors.Is(a.err, seeding.ErrNotConnected):
		return "Connect before seeding"
	case errors.Is(a.err, files.ErrNoHash):
		return "File has no hash"
	case errors.Is(a.err, context.Canceled):
		return ""
	default:
		return titleFirst(subject) + " failed"
	}
}

// toggleConnectionCmd connects or disconnects depending on current state.
func (m Model) toggleConnectionCmd() tea.Cmd {
	if m.conn == nil {
		return nil
	}
	ctx, conn := m.ctx, m.conn
	switch m.connState {
	case connection.Disconnected:
		return runAction(ctx, "connect", "", conn.RequestConnect)
	case connection.Connected:
		return runAction(ctx, "disconnect", "", conn.RequestDisconnect)
	default:
		return func() tea.Msg { return actionMsg{action: "connection", err: connection.ErrBusy} }
	}
}

// toggleSeedingCmd turns seeding on or off depending on current state.
func (m Model) toggleSeedingCmd() tea.Cmd {
	if m.seed == nil {
		return nil
	}
	ctx, seed := m.ctx, m.seed
	switch m.seedState {
	case seeding.Off:
		return runAction(ctx, "start seeding", "", seed.RequestStart)
	case seeding.On:
		return runAction(ctx, "stop seeding", "", seed.RequestStop)
	default:
		return func() tea.Msg { return actionMsg{action: "seeding", err: seeding.ErrBusy} }
	}
}

func (m Model) deleteCmd(key string) tea.Cmd {
	if m.files == nil {
		return nil
	}
	fc := m.files
	name := m.recordName(key)
	return runAction(m.ctx, "delete", name, func(ctx context.Context) error {
		return fc.Delete(ctx, key)
	})
}

func (m Model) downloadCmd(key string) tea.Cmd {
	if m.files == nil {
		return nil
	}
	fc := m.files
	name := m.recordName(key)
	return runAction(m.ctx, "download", name, func(ctx context.Context) error {
		return fc.Download(ctx, key)
	})
}

func (m Model) recordName(key string) string {
	if m.files == nil {
		return ""
	}
	if rec, ok := m.files.Get(key); ok {
		return rec.Name
	}
	return ""
}

func runAction(parent context.Context, action, name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		return actionMsg{action: action, name: name, err: fn(ctx)}
	}
}

func titleFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
