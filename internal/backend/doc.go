// Package backend is the client side of the peer backend's command and event
// boundary.
//
// # Commands
//
// Every operation is a named command posted as JSON to
// /api/commands/{name}. Replies use a single envelope:
//
//	{"ok": true, "result": <payload>}
//	{"ok": false, "error": "reason"}
//
// Failures are classified two ways. A RejectionError means the backend
// answered and refused; a TransportError means no usable answer arrived
// (network failure, error status without an envelope, undecodable body).
// Commands are never retried here. The controllers decide what a failure
// means for their state.
//
// # Events
//
// The backend pushes notifications on a text/event-stream at /api/events.
// Subscribe registers a handler per event name and Listen keeps the stream
// open, reconnecting with capped exponential backoff. Establishing the
// stream goes through go-retryablehttp.
//
// # Port
//
// Port is the narrow interface the controllers depend on. Client is the HTTP
// implementation and backendtest.Fake is the in-memory one used in tests.
// Typed helpers (Connect, AvailableFiles, DeleteFile, ...) wrap Invoke so
// callers never touch raw payloads.
package backend
