package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Command names a request/response operation exposed by the backend.
type Command string

const (
	CmdConnect           Command = "connect"
	CmdReconnect         Command = "reconnect"
	CmdDisconnect        Command = "disconnect"
	CmdIsConnected       Command = "is_connected"
	CmdStartSeeding      Command = "start_seeding"
	CmdStopSeeding       Command = "stop_seeding"
	CmdIsSeeding         Command = "is_seeding"
	CmdGetAvailableFiles Command = "get_available_files"
	CmdDownload          Command = "download"
	CmdDeleteFile        Command = "delete_file"
)

// EventFileUpdate is the push notification carrying a full replacement file list.
const EventFileUpdate = "file-update"

// RawFile is a file record as the backend serializes it. Values are not
// validated here.
type RawFile struct {
	Name         string  `json:"name"`
	Size         float64 `json:"size"` // megabytes
	LastModified string  `json:"last_modified"`
	FileType     string  `json:"file_type"`
	Hash         string  `json:"hash"`
}

// HashParams is the parameter payload for download and delete_file.
type HashParams struct {
	Hash string `json:"hash"`
}

// envelope is the reply wrapper for every command.
type envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// TransportError means the command never got a usable answer from the backend.
type TransportError struct {
	Command Command
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError means the backend received the command and refused it.
type RejectionError struct {
	Command Command
	Message string
}

func (e *RejectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "rejected"
	}
	return fmt.Sprintf("%s: %s", e.Command, msg)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejection reports whether err is (or wraps) a RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsRejection(err):
		return "rejected"
	case IsTransport(err):
		return "transport"
	default:
		return "error"
	}
}

// ErrStaleResult marks a late result that was discarded because newer state
// had already been applied. It never reaches the user.
var ErrStaleResult = errors.New("stale result discarded")
