package wasip1

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/guregu/wasmshim/libc"
)

type segfault struct {
	addr libc.Ptr
	max  libc.Ptr
}

func (sf segfault) Error() string {
	return fmt.Sprintf("segfault: %x > %x", sf.addr, sf.max)
}

// ensure checks that every end address lies within mem.
func ensure(mem []byte, ends ...uint64) error {
	maxaddr := slices.Max(ends)
	if maxaddr > uint64(len(mem)) {
		return segfault{addr: libc.Ptr(maxaddr), max: libc.Ptr(len(mem))}
	}
	return nil
}

// span returns mem[ptr:ptr+n], checking bounds.
func span(mem []byte, ptr, n libc.Ptr) ([]byte, error) {
	end := uint64(ptr) + uint64(n)
	if err := ensure(mem, end); err != nil {
		return nil, err
	}
	return mem[ptr:end], nil
}

func putUint32(mem []byte, ptr libc.Ptr, v uint32) error {
	b, err := span(mem, ptr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func putUint64(mem []byte, ptr libc.Ptr, v uint64) error {
	b, err := span(mem, ptr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

func readString(mem []byte, ptr, n libc.Ptr) (string, error) {
	b, err := span(mem, ptr, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
