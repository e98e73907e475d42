// Package state holds the UI-facing health snapshot: user notices reported
// by the controllers and the outcome of recent poll ticks.
//
// Store is safe for concurrent use. Controllers report through Store.Report
// from whatever goroutine ran the failing command, the poller records each
// tick with RecordPoll, and the UI reads copies via Snapshot on its refresh
// tick. Returned snapshots never share slices with the store.
package state
