package wasip1

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/guregu/wasmshim/libc"
)

// charbuffer is a list of strings passed to the guest as a NUL-terminated
// string table: args or environ.
type charbuffer []string

func environ(env map[string]string) charbuffer {
	keys := maps.Keys(env)
	slices.Sort(keys)
	strs := make(charbuffer, 0, len(keys))
	for _, k := range keys {
		strs = append(strs, k+"="+env[k])
	}
	return strs
}

func (strs charbuffer) size() libc.Size {
	var size libc.Size
	for _, s := range strs {
		size += libc.Size(len(s) + 1)
	}
	return size
}

func (strs charbuffer) writeSizes(mem []byte, countptr, sizeptr libc.Ptr) error {
	if err := ensure(mem, uint64(countptr)+4, uint64(sizeptr)+4); err != nil {
		return err
	}
	if err := putUint32(mem, countptr, uint32(len(strs))); err != nil {
		return err
	}
	return putUint32(mem, sizeptr, strs.size())
}

func (strs charbuffer) write(mem []byte, listptr, bufptr libc.Ptr) error {
	listend := uint64(listptr) + uint64(libc.PtrSize*len(strs))
	bufend := uint64(bufptr) + uint64(strs.size())
	if err := ensure(mem, listend, bufend); err != nil {
		return err
	}
	ptr := bufptr
	for i, s := range strs {
		if err := putUint32(mem, listptr+libc.Ptr(i*libc.PtrSize), ptr); err != nil {
			return err
		}
		n := copy(mem[ptr:], s)
		mem[ptr+libc.Ptr(n)] = 0
		ptr += libc.Ptr(n + 1)
	}
	return nil
}
