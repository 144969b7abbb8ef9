package wasmshim

import (
	"errors"
	"fmt"

	"github.com/hack-pad/hackpadfs"

	"github.com/guregu/wasmshim/libc"
)

var (
	// ErrNotInitialized is returned when a runtime is used before Bootstrap.
	ErrNotInitialized = errors.New("wasmshim: runtime is not initialized")
	// ErrNilLogger is returned when bootstrapping without a logger.
	ErrNilLogger = errors.New("wasmshim: nil logger")
	// ErrRunInProgress is returned by Run while a previous run is still executing.
	ErrRunInProgress = errors.New("wasmshim: run already in progress")
	// ErrUnsupportedFD is returned for I/O on any descriptor other than stdout and stderr.
	ErrUnsupportedFD = fmt.Errorf("unsupported file descriptor: %w", libc.ErrBadFD)
	// ErrNotImplemented is returned by filesystem and process stubs.
	ErrNotImplemented = hackpadfs.ErrNotImplemented
)
