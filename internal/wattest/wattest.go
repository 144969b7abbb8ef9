// Package wattest builds small wasi_snapshot_preview1 guests from WAT for tests.
package wattest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v11"
	"github.com/stretchr/testify/require"

	"github.com/guregu/wasmshim/internal/wasip1"
)

// Compile converts WAT text to a wasm binary.
func Compile(t testing.TB, wat string) []byte {
	t.Helper()
	wasm, err := wasmtime.Wat2Wasm(wat)
	require.NoError(t, err)
	return wasm
}

// Imports declares every wasi_snapshot_preview1 function as $name.
func Imports() string {
	var sb strings.Builder
	for _, sig := range wasip1.Signatures {
		fmt.Fprintf(&sb, "  (import %q %q (func $%s", wasip1.ModuleName, sig.Name, sig.Name)
		if len(sig.Params) > 0 {
			sb.WriteString(" (param")
			for _, p := range sig.Params {
				sb.WriteString(" " + valtype(p))
			}
			sb.WriteString(")")
		}
		if len(sig.Results) > 0 {
			sb.WriteString(" (result i32)")
		}
		sb.WriteString("))\n")
	}
	return sb.String()
}

func valtype(t wasip1.ValueType) string {
	if t == wasip1.I64 {
		return "i64"
	}
	return "i32"
}

// Module wraps body as the _start function of a module importing all of
// wasi_snapshot_preview1 and exporting one page of memory.
// Memory from offset 1024 holds data, one entry per string.
func Module(body string, data ...string) string {
	var sb strings.Builder
	sb.WriteString("(module\n")
	sb.WriteString(Imports())
	sb.WriteString("  (memory (export \"memory\") 1)\n")
	offset := DataOffset
	for _, d := range data {
		fmt.Fprintf(&sb, "  (data (i32.const %d) \"%s\")\n", offset, escape(d))
		offset += len(d)
	}
	sb.WriteString("  (func (export \"_start\")\n")
	sb.WriteString(body)
	sb.WriteString("))\n")
	return sb.String()
}

// DataOffset is where Module places its data strings.
const DataOffset = 1024

func escape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&sb, "\\%02x", s[i])
	}
	return sb.String()
}

// Write returns instructions writing the len bytes at ptr to fd with a
// single iovec at address 0, storing the errno at address 16.
func Write(fd, ptr, length int) string {
	return fmt.Sprintf(`    (i32.store (i32.const 0) (i32.const %d))
    (i32.store (i32.const 4) (i32.const %d))
    (i32.store (i32.const 16) (call $fd_write (i32.const %d) (i32.const 0) (i32.const 1) (i32.const 8)))
`, ptr, length, fd)
}

// WriteString returns a guest that writes s to fd and returns from _start.
func WriteString(fd int, s string) string {
	return Module(Write(fd, DataOffset, len(s)), s)
}

// ExitWith returns instructions calling proc_exit with the i32 expression code.
func ExitWith(code string) string {
	return fmt.Sprintf("    (call $proc_exit %s)\n", code)
}

// Errno is the i32 expression loading the errno stored by Write.
const Errno = "(i32.load (i32.const 16))"
