package wasmshim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessStub(t *testing.T) {
	args := []string{"prog", "-v"}
	env := map[string]string{"HOME": "/"}
	proc := NewProcessStub(args, env)

	args[0] = "changed"
	env["HOME"] = "changed"
	require.Equal(t, []string{"prog", "-v"}, proc.Argv())
	require.Equal(t, map[string]string{"HOME": "/"}, proc.Env())

	proc.Argv()[0] = "mutated"
	proc.Env()["NEW"] = "x"
	require.Equal(t, "prog", proc.Argv()[0])
	require.NotContains(t, proc.Env(), "NEW")
}

func TestProcessStubExit(t *testing.T) {
	proc := NewProcessStub(nil, nil)
	_, ok := proc.ExitCode()
	require.False(t, ok)

	proc.Exit(2)
	proc.Exit(7)
	code, ok := proc.ExitCode()
	require.True(t, ok)
	require.Equal(t, 7, code)

	proc.Reset()
	code, ok = proc.ExitCode()
	require.False(t, ok)
	require.Zero(t, code)
}

func TestProcessStubInert(t *testing.T) {
	var proc Process = NewProcessStub(nil, nil)
	require.Empty(t, proc.Argv())
	require.Empty(t, proc.Env())
	require.Equal(t, -1, proc.Pid())
	require.Equal(t, -1, proc.Ppid())
	require.Equal(t, -1, proc.Getuid())
	require.Equal(t, -1, proc.Getgid())
	require.Equal(t, -1, proc.Geteuid())
	require.Equal(t, -1, proc.Getegid())

	_, err := proc.Getgroups()
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = proc.Umask(0o22)
	require.ErrorIs(t, err, ErrNotImplemented)
	_, err = proc.Cwd()
	require.ErrorIs(t, err, ErrNotImplemented)
	require.ErrorIs(t, proc.Chdir("/"), ErrNotImplemented)
}
