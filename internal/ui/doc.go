// Package ui provides the peerdeck terminal user interface.
//
// The UI is a Bubble Tea program styled with Lipgloss. It renders a header
// with the connection and seeding state, a command bar, and a split view of
// the file table and the selected file's details. A second view lists the
// error notices collected in state.Store.
//
// # Data Flow
//
// The Model holds no authoritative state. On every tick it reads the
// connection, seeding and file controllers and reprojects the file list
// through view.Project with the active sort. Key presses that talk to the
// backend run as tea.Cmd functions off the update loop and report back with
// an actionMsg; failures are already recorded as notices by the controllers.
//
// # Key Bindings
//
//   - c: Connect or disconnect
//   - s: Turn seeding on or off
//   - r: Request a file list refresh
//   - j/k, g/G: Move the selection
//   - esc: Clear the selection or leave the notices view
//   - 1/2/3: Sort by name, size or modified (repeat to reverse)
//   - D: Download the selected file
//   - d: Delete the selected file (confirm with y)
//   - n: Notice history, x to dismiss
//   - T: Cycle theme
//   - h or ?: Help
//   - e or Ctrl+C: Exit
//
// Theme and sort choices are saved to the preferences file as they change.
package ui
