package wasmshim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRuntimeBeforeBootstrap(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	require.Equal(t, Uninitialized, rt.State())
	require.Nil(t, rt.Stdio())
	require.Nil(t, rt.Overlay())

	ran := false
	_, err := rt.Run(context.Background(), func(*Overlay) (int, error) {
		ran = true
		return 0, nil
	})
	require.ErrorIs(t, err, ErrNotInitialized)
	require.False(t, ran)
	require.Empty(t, guests.built)

	im, err := rt.ImportObject()
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Nil(t, im)
}

func TestRuntimeBootstrapOnce(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)

	first := new(recorder)
	require.NoError(t, rt.Bootstrap(first))
	require.Equal(t, Ready, rt.State())
	before, err := rt.ImportObject()
	require.NoError(t, err)
	stdio := rt.Stdio()
	stdio.Stdout().Write([]byte("kept"))

	second := new(recorder)
	require.NoError(t, rt.Bootstrap(second))
	require.Len(t, guests.built, 1)
	after, err := rt.ImportObject()
	require.NoError(t, err)
	require.Same(t, before, after)
	require.Same(t, stdio, rt.Stdio())
	require.Equal(t, "kept", stdio.Stdout().Buffered())

	_, err = rt.Run(context.Background(), write(1, "hi\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"hi"}, first.text(Stdout))
	require.Empty(t, second.get())
}

func TestRuntimeBootstrapErrors(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	require.ErrorIs(t, rt.Bootstrap(nil), ErrNilLogger)
	require.Equal(t, Uninitialized, rt.State())

	boom := errors.New("no engine")
	guests.err = boom
	require.ErrorIs(t, rt.Bootstrap(new(recorder)), boom)
	require.Equal(t, Uninitialized, rt.State())

	guests.err = nil
	require.NoError(t, rt.Bootstrap(new(recorder)))
	require.Equal(t, Ready, rt.State())
}

func TestRuntimeOverlay(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new, WithArgs([]string{"prog"}))
	require.NoError(t, rt.Bootstrap(new(recorder), WithEnv(map[string]string{"K": "V"})))

	ov := rt.Overlay()
	require.Same(t, ov, guests.built[0].ov)
	require.Equal(t, []string{"prog"}, ov.Process().Argv())
	require.Equal(t, map[string]string{"K": "V"}, ov.Process().Env())
	ctor, ok := ov.Lookup(KeyGo)
	require.True(t, ok)
	require.NotNil(t, ctor)
}

func TestRuntimeSequentialRuns(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	rec := new(recorder)
	require.NoError(t, rt.Bootstrap(rec))
	ctx := context.Background()

	_, err := rt.Run(ctx, write(1, "A\n"))
	require.NoError(t, err)
	_, err = rt.Run(ctx, write(1, "B\n"))
	require.NoError(t, err)
	require.Equal(t, []record{{Stdout, "A"}, {Stdout, "B"}}, rec.get())
	require.Equal(t, 2, guests.built[0].runs)
}

func TestRuntimeRunResetsStdio(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	rec := new(recorder)
	require.NoError(t, rt.Bootstrap(rec))
	ctx := context.Background()

	_, err := rt.Run(ctx, write(2, "unterminated"))
	require.NoError(t, err)
	require.Equal(t, "unterminated", rt.Stdio().Stderr().Buffered())

	_, err = rt.Run(ctx, write(2, "fresh\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, rec.text(Stderr))
}

func TestRuntimeRunResult(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	require.NoError(t, rt.Bootstrap(new(recorder)))

	code, err := rt.Run(context.Background(), func(ov *Overlay) (int, error) {
		ov.Process().Exit(3)
		return 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, code)

	_, err = rt.Run(context.Background(), write(7, "x"))
	require.ErrorIs(t, err, ErrUnsupportedFD)
}

func TestRuntimeRunResetsExitCode(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	require.NoError(t, rt.Bootstrap(new(recorder)))
	proc := rt.Overlay().Process().(*ProcessStub)
	ctx := context.Background()

	_, err := rt.Run(ctx, func(ov *Overlay) (int, error) {
		ov.Process().Exit(3)
		return 3, nil
	})
	require.NoError(t, err)
	code, ok := proc.ExitCode()
	require.True(t, ok)
	require.Equal(t, 3, code)

	_, err = rt.Run(ctx, func(ov *Overlay) (int, error) {
		_, exited := ov.Process().(*ProcessStub).ExitCode()
		require.False(t, exited)
		return 0, nil
	})
	require.NoError(t, err)
	_, ok = proc.ExitCode()
	require.False(t, ok)
}

func TestRuntimeRunInProgress(t *testing.T) {
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new)
	require.NoError(t, rt.Bootstrap(new(recorder)))
	ctx := context.Background()

	var nested error
	_, err := rt.Run(ctx, func(*Overlay) (int, error) {
		_, nested = rt.Run(ctx, write(1, "x\n"))
		return 0, nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, nested, ErrRunInProgress)

	_, err = rt.Run(ctx, write(1, "x\n"))
	require.NoError(t, err)
}

func TestRuntimeDebugLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	guests := new(fakeGuests)
	rt := NewRuntime[*imports, program](guests.new, WithDebugLogger(zap.New(core)))
	require.NoError(t, rt.Bootstrap(new(recorder)))
	require.NoError(t, rt.Bootstrap(new(recorder)))

	require.Equal(t, 1, logs.FilterMessage("bootstrapped").Len())
	require.Equal(t, 1, logs.FilterMessage("bootstrap skipped: already initialized").Len())
	require.Same(t, rt.Overlay().Logger(), guests.built[0].ov.Logger())
}
