package libc

import (
	"errors"
	"io/fs"

	"github.com/hack-pad/hackpadfs"
)

type Errno = int32

// Only the errno values the shim produces are listed.
const (
	ErrnoSuccess Errno = 0  // No error occurred. System call completed successfully.
	ErrnoAcces   Errno = 2  // Permission denied.
	ErrnoBadf    Errno = 8  // Bad file descriptor.
	ErrnoExist   Errno = 20 // File exists.
	ErrnoFault   Errno = 21 // Bad address.
	ErrnoInval   Errno = 28 // Invalid argument.
	ErrnoIo      Errno = 29 // I/O error.
	ErrnoNoent   Errno = 44 // No such file or directory.
	ErrnoNosys   Errno = 52 // Function not supported.
	ErrnoNotsup  Errno = 58 // Not supported, or operation not supported on socket.
	ErrnoPerm    Errno = 63 // Operation not permitted.
	ErrnoSpipe   Errno = 70 // Invalid seek.
)

// ErrBadFD marks errors caused by an unusable file descriptor.
// Error maps anything wrapping it to ErrnoBadf.
var ErrBadFD = errors.New("bad file descriptor")

// Error maps a host error to the errno reported to the guest.
// Unknown errors become ErrnoIo.
func Error(err error) Errno {
	switch {
	case err == nil:
		return ErrnoSuccess
	case errors.Is(err, ErrBadFD):
		return ErrnoBadf
	case errors.Is(err, hackpadfs.ErrNotImplemented):
		return ErrnoNosys
	case errors.Is(err, fs.ErrInvalid):
		return ErrnoInval
	case errors.Is(err, fs.ErrNotExist):
		return ErrnoNoent
	case errors.Is(err, fs.ErrExist):
		return ErrnoExist
	case errors.Is(err, fs.ErrPermission):
		return ErrnoPerm
	}
	return ErrnoIo
}
