// Package app is the composition root for peerdeck.
//
// Open loads configuration and preferences, builds the zerolog logger and
// the backend HTTP client, and wires a Session. A Session owns the three
// controllers (connection, seeding, files), ties seeding to the connection
// through seeding.Follow, and subscribes the files controller to the
// backend's file-update push.
//
// Session.Start launches two goroutines:
//
//   - the poller, which runs connection.Sync then seeding.Sync every tick and
//     backs off exponentially (capped at 30s) while the backend is unreachable
//   - the refresh worker, which drains RefreshRequests into files.Refresh
//
// The returned stop func cancels both and waits for them, so teardown is
// deterministic. Session.Close releases push subscriptions.
//
// Run is the TUI entry point: it additionally keeps the backend event stream
// open, serves metrics when configured, and blocks in ui.Run until the user
// quits. The CLI subcommands in cmd/peerdeck use Open directly and drive the
// controllers one step at a time.
package app
