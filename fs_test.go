package wasmshim

import (
	"errors"
	"io/fs"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) (*FSStub, *Stdio, *recorder) {
	t.Helper()
	rec := new(recorder)
	stdio, err := NewStdio(rec)
	require.NoError(t, err)
	return NewFS(stdio.Stdout(), stdio.Stderr()), stdio, rec
}

func TestFSWriteRouting(t *testing.T) {
	fsys, _, rec := newTestFS(t)

	n, err := fsys.WriteSync(1, []byte("to stdout\n"))
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, []record{{Stdout, "to stdout"}}, rec.get())

	n, err = fsys.WriteSync(2, []byte("to stderr\n"))
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, []string{"to stderr"}, rec.text(Stderr))
	require.Equal(t, []string{"to stdout"}, rec.text(Stdout))
}

func TestFSUnsupportedDescriptor(t *testing.T) {
	fsys, stdio, rec := newTestFS(t)

	for _, fd := range []int{-1, 0, 3, 42} {
		n, err := fsys.Write(fd, []byte("nope\n"), 0, 5, nil)
		require.ErrorIs(t, err, ErrUnsupportedFD)
		var pathErr *fs.PathError
		require.True(t, errors.As(err, &pathErr))
		require.Equal(t, "write", pathErr.Op)
		require.Zero(t, n)
	}
	require.Empty(t, rec.get())
	require.Empty(t, stdio.Stdout().Buffered())
	require.Empty(t, stdio.Stderr().Buffered())
}

func TestFSWriteBounds(t *testing.T) {
	fsys, _, rec := newTestFS(t)
	buf := []byte("abc\n")

	for _, tc := range []struct{ offset, length int }{
		{-1, 1}, {0, -1}, {0, 5}, {3, 2}, {5, 0}, {1, math.MaxInt},
	} {
		n, err := fsys.Write(1, buf, tc.offset, tc.length, nil)
		require.ErrorIs(t, err, fs.ErrInvalid)
		require.Zero(t, n)
	}
	require.Empty(t, rec.get())

	n, err := fsys.Write(1, []byte("xxab\nyy"), 2, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []string{"ab"}, rec.text(Stdout))
}

// The guest writes "hello\nworld" and later "!\n" to standard output.
func TestFSPartialLineAcrossWrites(t *testing.T) {
	fsys, stdio, rec := newTestFS(t)

	n, err := fsys.Write(1, []byte("hello\nworld"), 0, 11, nil)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, []record{{Stdout, "hello"}}, rec.get())
	require.Equal(t, "world", stdio.Stdout().Buffered())

	n, err = fsys.Write(1, []byte("!\n"), 0, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []record{{Stdout, "hello"}, {Stdout, "world!"}}, rec.get())
	require.Empty(t, stdio.Stdout().Buffered())
}

func TestFSLoggerFault(t *testing.T) {
	boom := errors.New("logger down")
	stdio, err := NewStdio(&recorder{err: boom})
	require.NoError(t, err)
	fsys := NewFS(stdio.Stdout(), stdio.Stderr())

	_, err = fsys.WriteSync(2, []byte("line\n"))
	require.ErrorIs(t, err, boom)
}

func TestFSFstat(t *testing.T) {
	fsys, _, _ := newTestFS(t)

	for _, fd := range []int{1, 2} {
		info, err := fsys.Fstat(fd)
		require.NoError(t, err)
		require.NotZero(t, info.Mode()&fs.ModeCharDevice)
		require.False(t, info.IsDir())
	}
	_, err := fsys.Fstat(0)
	require.ErrorIs(t, err, ErrUnsupportedFD)
}

func TestFSStubsNotImplemented(t *testing.T) {
	fsys, _, rec := newTestFS(t)

	_, err := fsys.Open("/etc/passwd", 0, 0)
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = fsys.Read(0, make([]byte, 4), 0, 4, nil)
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = fsys.Stat("/")
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = fsys.Lstat("/")
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = fsys.Readdir("/")
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = fsys.Readlink("/link")
	require.ErrorIs(t, err, ErrNotImplemented)

	for name, err := range map[string]error{
		"close":     fsys.Close(1),
		"fsync":     fsys.Fsync(1),
		"mkdir":     fsys.Mkdir("/tmp", 0o755),
		"unlink":    fsys.Unlink("/a"),
		"rmdir":     fsys.Rmdir("/tmp"),
		"rename":    fsys.Rename("/a", "/b"),
		"truncate":  fsys.Truncate("/a", 0),
		"ftruncate": fsys.Ftruncate(1, 0),
		"chmod":     fsys.Chmod("/a", 0o644),
		"fchmod":    fsys.Fchmod(1, 0o644),
	} {
		require.ErrorIs(t, err, ErrNotImplemented, name)
		var pathErr *fs.PathError
		require.True(t, errors.As(err, &pathErr), name)
		require.Equal(t, name, pathErr.Op)
	}
	require.Empty(t, rec.get())
}

func TestFSConstants(t *testing.T) {
	fsys, _, _ := newTestFS(t)
	consts := fsys.Constants()
	require.Contains(t, consts, "O_WRONLY")
	require.Contains(t, consts, "O_CREAT")
}
