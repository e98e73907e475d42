package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutModifiedWidth is the minimum width to show the modified column.
	LayoutModifiedWidth = 80

	// LayoutExtraWideWidth is the threshold for extra-wide layouts.
	LayoutExtraWideWidth = 160
)

// Fixed layout sizes.
const (
	// headerHeight counts the header line and the command bar.
	headerHeight = 2

	helpModalWidth = 44

	sizeColumnWidth     = 10
	typeColumnWidth     = 13
	modifiedColumnWidth = 16

	// detailLabelWidth is the label gutter in the detail pane.
	detailLabelWidth = 10
)

// Timing constants.
const (
	// DefaultUIInterval is the ceiling for the UI redraw interval.
	DefaultUIInterval = 250 * time.Millisecond

	// ActionTimeout bounds a single user-triggered backend command.
	ActionTimeout = 15 * time.Second
)
