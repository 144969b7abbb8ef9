package libc

import "encoding/binary"

type Filetype = uint8

const (
	// The type of a file descriptor or file is unknown or is different from any of the other types specified.
	FiletypeUnknown Filetype = 0
	// The file descriptor or file refers to a character device inode.
	FiletypeCharacterDevice Filetype = 2
	// The file descriptor or file refers to a directory inode.
	FiletypeDirectory Filetype = 3
	// The file descriptor or file refers to a regular file inode.
	FiletypeRegularFile Filetype = 4
)

type Fdflag = uint16

const (
	// Append mode: Data written to the file is always appended to the file's end.
	FdflagAppend Fdflag = 1 << 0
)

type Rights = uint64

const (
	RightFdWrite       Rights = 1 << 6
	RightFdFilestatGet Rights = 1 << 21
)

type Clockid = uint32

const (
	ClockRealtime  Clockid = 0
	ClockMonotonic Clockid = 1
)

type Iovec struct {
	Buf Ptr
	Len Size
}

// DecodeIovec reads the iovec at the start of b.
func DecodeIovec(b []byte) Iovec {
	return Iovec{
		Buf: binary.LittleEndian.Uint32(b[0:]),
		Len: binary.LittleEndian.Uint32(b[4:]),
	}
}

type Fdstat struct {
	Filetype         Filetype
	Flags            Fdflag
	RightsBase       Rights
	RightsInheriting Rights
}

// Encode writes the fdstat layout (24 bytes) to b.
func (st Fdstat) Encode(b []byte) {
	clear(b[:FdstatSize])
	b[0] = st.Filetype
	binary.LittleEndian.PutUint16(b[2:], st.Flags)
	binary.LittleEndian.PutUint64(b[8:], st.RightsBase)
	binary.LittleEndian.PutUint64(b[16:], st.RightsInheriting)
}

type Filestat struct {
	// Device ID of device containing the file.
	Dev uint64
	// File serial number.
	Ino uint64
	// File type.
	Filetype Filetype
	// Number of hard links to the file.
	Nlink uint64
	// For regular files, the file size in bytes.
	Size uint64
	// Last data access timestamp.
	Atim uint64
	// Last data modification timestamp.
	Mtim uint64
	// Last file status change timestamp.
	Ctim uint64
}

// Encode writes the filestat layout (64 bytes) to b.
func (st Filestat) Encode(b []byte) {
	clear(b[:FilestatSize])
	binary.LittleEndian.PutUint64(b[0:], st.Dev)
	binary.LittleEndian.PutUint64(b[8:], st.Ino)
	b[16] = st.Filetype
	binary.LittleEndian.PutUint64(b[24:], st.Nlink)
	binary.LittleEndian.PutUint64(b[32:], st.Size)
	binary.LittleEndian.PutUint64(b[40:], st.Atim)
	binary.LittleEndian.PutUint64(b[48:], st.Mtim)
	binary.LittleEndian.PutUint64(b[56:], st.Ctim)
}
