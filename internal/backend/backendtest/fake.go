// Package backendtest provides an in-memory backend.Port for tests.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/five82/peerdeck/internal/backend"
)

// Call records one Invoke.
type Call struct {
	Command backend.Command
	Params  any
}

// Gate holds calls to a command until released.
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// WaitArrived blocks until a call reaches the gate or timeout elapses.
func (g *Gate) WaitArrived(timeout time.Duration) bool {
	select {
	case <-g.arrived:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Release lets every held and future call through.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// Fake simulates a backend with a session flag, a seeding flag and a file
// list. Individual commands can be forced to fail or held mid-flight.
type Fake struct {
	mu        sync.Mutex
	connected bool
	seeding   bool
	files     []backend.RawFile
	errs      map[backend.Command]error
	gates     map[backend.Command]*Gate
	calls     []Call
	nextSub   int
	subs      map[string]map[int]func(json.RawMessage)
}

var _ backend.Port = (*Fake)(nil)

// New returns a disconnected Fake with no files.
func New() *Fake {
	return &Fake{
		errs:  make(map[backend.Command]error),
		gates: make(map[backend.Command]*Gate),
		subs:  make(map[string]map[int]func(json.RawMessage)),
	}
}

// SetConnected sets the backend's session flag.
func (f *Fake) SetConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	if !v {
		f.seeding = false
	}
	f.mu.Unlock()
}

// SetSeeding sets the backend's seeding flag.
func (f *Fake) SetSeeding(v bool) {
	f.mu.Lock()
	f.seeding = v
	f.mu.Unlock()
}

// SetFiles replaces the backend's file list.
func (f *Fake) SetFiles(files []backend.RawFile) {
	f.mu.Lock()
	f.files = append([]backend.RawFile(nil), files...)
	f.mu.Unlock()
}

// Files returns a copy of the backend's file list.
func (f *Fake) Files() []backend.RawFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.RawFile(nil), f.files...)
}

// Fail makes cmd return err until cleared with Fail(cmd, nil).
func (f *Fake) Fail(cmd backend.Command, err error) {
	f.mu.Lock()
	if err == nil {
		delete(f.errs, cmd)
	} else {
		f.errs[cmd] = err
	}
	f.mu.Unlock()
}

// Reject makes cmd fail with a RejectionError carrying msg.
func (f *Fake) Reject(cmd backend.Command, msg string) {
	f.Fail(cmd, &backend.RejectionError{Command: cmd, Message: msg})
}

// Unreachable makes cmd fail with a TransportError.
func (f *Fake) Unreachable(cmd backend.Command) {
	f.Fail(cmd, &backend.TransportError{Command: cmd, Err: errors.New("connection refused")})
}

// Hold installs a gate on cmd. Calls block at the gate until Release.
func (f *Fake) Hold(cmd backend.Command) *Gate {
	g := &Gate{
		arrived: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
	f.mu.Lock()
	f.gates[cmd] = g
	f.mu.Unlock()
	return g
}

// Calls returns every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times cmd was invoked.
func (f *Fake) CallCount(cmd backend.Command) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Command == cmd {
			n++
		}
	}
	return n
}

// Subscribe implements backend.Port.
func (f *Fake) Subscribe(event string, handler func(json.RawMessage)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	if f.subs[event] == nil {
		f.subs[event] = make(map[int]func(json.RawMessage))
	}
	f.subs[event][id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[event], id)
			f.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live handlers for event.
func (f *Fake) Subscribers(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[event])
}

// Emit delivers payload to every subscriber of event synchronously.
func (f *Fake) Emit(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	handlers := make([]func(json.RawMessage), 0, len(f.subs[event]))
	for _, h := range f.subs[event] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(raw)
	}
	return nil
}

// Invoke implements backend.Port.
func (f *Fake) Invoke(ctx context.Context, cmd backend.Command, params any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Command: cmd, Params: params})
	gate := f.gates[cmd]
	f.mu.Unlock()

	if gate != nil {
		select {
		case gate.arrived <- struct{}{}:
		default:
		}
		select {
		case <-gate.release:
		case <-ctx.Done():
			return nil, &backend.TransportError{Command: cmd, Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[cmd]; err != nil {
		return nil, err
	}
	result, err := f.apply(cmd, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func (f *Fake) apply(cmd backend.Command, params any) (any, error) {
	switch cmd {
	case backend.CmdConnect, backend.CmdReconnect:
		f.connected = true
		return nil, nil
	case backend.CmdDisconnect:
		f.connected = false
		f.seeding = false
		return nil, nil
	case backend.CmdIsConnected:
		return f.connected, nil
	case backend.CmdIsSeeding:
		return f.seeding, nil
	case backend.CmdStartSeeding:
		if !f.connected {
			return nil, &backend.RejectionError{Command: cmd, Message: "not connected"}
		}
		f.seeding = true
		return nil, nil
	case backend.CmdStopSeeding:
		f.seeding = false
		return nil, nil
	case backend.CmdGetAvailableFiles:
		files := f.files
		if files == nil {
			files = []backend.RawFile{}
		}
		return files, nil
	case backend.CmdDownload:
		if _, ok := f.indexOf(hashParam(params)); !ok {
			return nil, &backend.RejectionError{Command: cmd, Message: "unknown file"}
		}
		return nil, nil
	case backend.CmdDeleteFile:
		i, ok := f.indexOf(hashParam(params))
		if !ok {
			return nil, &backend.RejectionError{Command: cmd, Message: "unknown file"}
		}
		f.files = append(f.files[:i:i], f.files[i+1:]...)
		return nil, nil
	default:
		return nil, &backend.RejectionError{Command: cmd, Message: "unknown command"}
	}
}

func (f *Fake) indexOf(hash string) (int, bool) {
	for i, file := range f.files {
		if file.Hash == hash {
			return i, true
		}
	}
	return -1, false
}

func hashParam(params any) string {
	switch p := params.(type) {
	case backend.HashParams:
		return p.Hash
	case *backend.HashParams:
		if p != nil {
			return p.Hash
		}
	}
	return ""
}
