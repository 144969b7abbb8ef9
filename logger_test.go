package wasmshim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestChannelString(t *testing.T) {
	require.Equal(t, "stdout", Stdout.String())
	require.Equal(t, "stderr", Stderr.String())
	require.Equal(t, "channel(9)", Channel(9).String())
}

func TestWriterLogger(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := WriterLogger{Stdout: &stdout, Stderr: &stderr}
	require.NoError(t, log.WriteLine(Stdout, "out"))
	require.NoError(t, log.WriteLine(Stderr, "err"))
	require.Equal(t, "out\n", stdout.String())
	require.Equal(t, "err\n", stderr.String())

	require.NoError(t, WriterLogger{}.WriteLine(Stdout, "dropped"))
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := ZapLogger(zap.New(core))
	require.NoError(t, log.WriteLine(Stdout, "hello"))
	require.NoError(t, log.WriteLine(Stderr, "oops"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, "hello", entries[0].Message)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, "stdout", entries[0].ContextMap()["channel"])
	require.Equal(t, "oops", entries[1].Message)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "stderr", entries[1].ContextMap()["channel"])
}
