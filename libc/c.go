// Package libc holds the C ABI of wasi_snapshot_preview1 as seen by a
// 32-bit guest: scalar sizes, errno values and the structs guests pass
// through linear memory.
package libc

type (
	Size = uint32 // size_t
	Ptr  = uint32 // uintptr_t
)

const PtrSize = 4

// Encoded sizes of the structs in file.go.
const (
	IovecSize    = 8
	FdstatSize   = 24
	FilestatSize = 64
)
