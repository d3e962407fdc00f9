package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoChoice is returned by a driver whose selection matches no option.
	ErrNoChoice = errors.New("tui: selection matches no option")
)
