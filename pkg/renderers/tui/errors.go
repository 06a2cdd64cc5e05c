package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrRequired is reported when a required input is left empty.
	ErrRequired = errors.New("tui: value is required")
)
