package backend

import (
	"context"
	"encoding/json"
	"fmt"
)

// Port is the request/response and push boundary to the backend.
// Implementations never retry commands and never panic on failure.
type Port interface {
	// Invoke runs a command and returns its raw result payload.
	Invoke(ctx context.Context, cmd Command, params any) (json.RawMessage, error)
	// Subscribe registers handler for a push event. The returned func removes it.
	Subscribe(event string, handler func(payload json.RawMessage)) (unsubscribe func())
}

// Connect asks the backend to open a session.
func Connect(ctx context.Context, p Port) error {
	_, err := p.Invoke(ctx, CmdConnect, nil)
	return err
}

// Reconnect asks the backend to re-establish a previous session.
func Reconnect(ctx context.Context, p Port) error {
	_, err := p.Invoke(ctx, CmdReconnect, nil)
	return err
}

// Disconnect closes the backend session.
func Disconnect(ctx context.Context, p Port) error {
	_, err := p.Invoke(ctx, CmdDisconnect, nil)
	return err
}

// StartSeeding turns seeding on.
func StartSeeding(ctx context.Context, p Port) error {
	_, err := p.Invoke(ctx, CmdStartSeeding, nil)
	return err
}

// StopSeeding turns seeding off.
func StopSeeding(ctx context.Context, p Port) error {
	_, err := p.Invoke(ctx, CmdStopSeeding, nil)
	return err
}

// IsConnected reports the backend's view of the connection.
func IsConnected(ctx context.Context, p Port) (bool, error) {
	return invokeBool(ctx, p, CmdIsConnected)
}

// IsSeeding reports the backend's view of seeding.
func IsSeeding(ctx context.Context, p Port) (bool, error) {
	return invokeBool(ctx, p, CmdIsSeeding)
}

// AvailableFiles fetches the full file list.
func AvailableFiles(ctx context.Context, p Port) ([]RawFile, error) {
	raw, err := p.Invoke(ctx, CmdGetAvailableFiles, nil)
	if err != nil {
		return nil, err
	}
	files, err := DecodeFiles(raw)
	if err != nil {
		return nil, &TransportError{Command: CmdGetAvailableFiles, Err: err}
	}
	return files, nil
}

// Download requests a download of the file identified by hash.
func Download(ctx context.Context, p Port, hash string) error {
	_, err := p.Invoke(ctx, CmdDownload, HashParams{Hash: hash})
	return err
}

// DeleteFile removes the file identified by hash.
func DeleteFile(ctx context.Context, p Port, hash string) error {
	_, err := p.Invoke(ctx, CmdDeleteFile, HashParams{Hash: hash})
	return err
}

// DecodeFiles parses a file list payload. A null payload is an empty list.
func DecodeFiles(raw json.RawMessage) ([]RawFile, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var files []RawFile
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("decode file list: %w", err)
	}
	return files, nil
}

func invokeBool(ctx context.Context, p Port, cmd Command) (bool, error) {
	raw, err := p.Invoke(ctx, cmd, nil)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, &TransportError{Command: cmd, Err: fmt.Errorf("decode result: %w", err)}
	}
	return v, nil
}
