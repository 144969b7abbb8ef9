package wasmshim

import (
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"
)

// FS is the filesystem surface a guest runtime probes at startup.
// Only writes to standard output and standard error are expected to succeed.
type FS interface {
	Write(fd int, buf []byte, offset, length int, position *int64) (int, error)
	WriteSync(fd int, buf []byte) (int, error)
	Fstat(fd int) (fs.FileInfo, error)

	Open(path string, flags int, perm fs.FileMode) (int, error)
	Close(fd int) error
	Read(fd int, buf []byte, offset, length int, position *int64) (int, error)
	Fsync(fd int) error
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	Mkdir(path string, perm fs.FileMode) error
	Readdir(path string) ([]string, error)
	Unlink(path string) error
	Rmdir(path string) error
	Rename(from, to string) error
	Readlink(path string) (string, error)
	Truncate(path string, length int64) error
	Ftruncate(fd int, length int64) error
	Chmod(path string, perm fs.FileMode) error
	Fchmod(fd int, perm fs.FileMode) error

	Constants() map[string]int
}

const (
	stdoutFD = 1
	stderrFD = 2
)

// FSStub routes writes on descriptors 1 and 2 to its pipes and rejects
// everything else.
type FSStub struct {
	fds   map[int]io.Writer
	start time.Time
}

var _ FS = (*FSStub)(nil)

// NewFS returns a stub writing descriptor 1 to stdout and descriptor 2 to stderr.
func NewFS(stdout, stderr io.Writer) *FSStub {
	return &FSStub{
		fds: map[int]io.Writer{
			stdoutFD: stdout,
			stderrFD: stderr,
		},
		start: time.Now(),
	}
}

func (fsys *FSStub) get(op string, fd int) (io.Writer, error) {
	w, ok := fsys.fds[fd]
	if !ok || w == nil {
		return nil, fdError(op, fd, ErrUnsupportedFD)
	}
	return w, nil
}

// Write writes buf[offset:offset+length] to fd.
// The position is ignored: standard streams are not seekable.
func (fsys *FSStub) Write(fd int, buf []byte, offset, length int, position *int64) (int, error) {
	w, err := fsys.get("write", fd)
	if err != nil {
		return 0, err
	}
	if offset < 0 || length < 0 || offset > len(buf) || length > len(buf)-offset {
		return 0, fdError("write", fd, fs.ErrInvalid)
	}
	return w.Write(buf[offset : offset+length])
}

func (fsys *FSStub) WriteSync(fd int, buf []byte) (int, error) {
	return fsys.Write(fd, buf, 0, len(buf), nil)
}

// Fstat reports standard output and standard error as character devices.
func (fsys *FSStub) Fstat(fd int) (fs.FileInfo, error) {
	if _, err := fsys.get("fstat", fd); err != nil {
		return nil, err
	}
	return fileinfo{
		name:    "/dev/fd/" + strconv.Itoa(fd),
		mode:    fs.ModeDevice | fs.ModeCharDevice | 0o200,
		modTime: fsys.start,
	}, nil
}

func (*FSStub) Open(path string, _ int, _ fs.FileMode) (int, error) {
	return 0, pathError("open", path)
}

func (*FSStub) Close(fd int) error {
	return fdError("close", fd, ErrNotImplemented)
}

func (*FSStub) Read(fd int, _ []byte, _, _ int, _ *int64) (int, error) {
	return 0, fdError("read", fd, ErrNotImplemented)
}

func (*FSStub) Fsync(fd int) error {
	return fdError("fsync", fd, ErrNotImplemented)
}

func (*FSStub) Stat(path string) (fs.FileInfo, error) {
	return nil, pathError("stat", path)
}

func (*FSStub) Lstat(path string) (fs.FileInfo, error) {
	return nil, pathError("lstat", path)
}

func (*FSStub) Mkdir(path string, _ fs.FileMode) error {
	return pathError("mkdir", path)
}

func (*FSStub) Readdir(path string) ([]string, error) {
	return nil, pathError("readdir", path)
}

func (*FSStub) Unlink(path string) error {
	return pathError("unlink", path)
}

func (*FSStub) Rmdir(path string) error {
	return pathError("rmdir", path)
}

func (*FSStub) Rename(from, _ string) error {
	return pathError("rename", from)
}

func (*FSStub) Readlink(path string) (string, error) {
	return "", pathError("readlink", path)
}

func (*FSStub) Truncate(path string, _ int64) error {
	return pathError("truncate", path)
}

func (*FSStub) Ftruncate(fd int, _ int64) error {
	return fdError("ftruncate", fd, ErrNotImplemented)
}

func (*FSStub) Chmod(path string, _ fs.FileMode) error {
	return pathError("chmod", path)
}

func (*FSStub) Fchmod(fd int, _ fs.FileMode) error {
	return fdError("fchmod", fd, ErrNotImplemented)
}

// Constants returns the open flags guests read before calling Open.
func (*FSStub) Constants() map[string]int {
	return map[string]int{
		"O_RDONLY": os.O_RDONLY,
		"O_WRONLY": os.O_WRONLY,
		"O_RDWR":   os.O_RDWR,
		"O_CREAT":  os.O_CREATE,
		"O_TRUNC":  os.O_TRUNC,
		"O_APPEND": os.O_APPEND,
		"O_EXCL":   os.O_EXCL,
	}
}

func pathError(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: ErrNotImplemented}
}

func fdError(op string, fd int, err error) error {
	return &fs.PathError{Op: op, Path: "fd " + strconv.Itoa(fd), Err: err}
}

type fileinfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi fileinfo) Name() string {
	return fi.name
}

func (fi fileinfo) Size() int64 {
	return fi.size
}

func (fi fileinfo) Mode() fs.FileMode {
	return fi.mode
}

func (fi fileinfo) ModTime() time.Time {
	return fi.modTime
}

func (fi fileinfo) IsDir() bool {
	return fi.mode.IsDir()
}

func (fi fileinfo) Sys() any {
	return nil
}
