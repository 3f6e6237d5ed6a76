package terminal

import "errors"

var (
	// ErrNotRunning is returned by input operations once the session has
	// exited or errored. A fresh Spawn is required to resume interactivity.
	ErrNotRunning = errors.New("session is not running")

	// ErrEmptyCommand is returned when neither a command nor a usable
	// shell could be resolved at spawn time.
	ErrEmptyCommand = errors.New("empty command")

	// ErrShellNotFound is returned when the resolved command or shell
	// binary does not exist on PATH.
	ErrShellNotFound = errors.New("shell not found")

	// ErrIndexClosed is returned by search index operations after Close.
	ErrIndexClosed = errors.New("search index closed")
)
