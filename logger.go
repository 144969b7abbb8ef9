package wasmshim

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Channel identifies which standard stream a line was written to.
type Channel int

const (
	Stdout Channel = 1
	Stderr Channel = 2
)

func (ch Channel) String() string {
	switch ch {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	}
	return fmt.Sprintf("channel(%d)", int(ch))
}

// Logger receives completed lines of guest output.
// Lines do not include the trailing newline.
type Logger interface {
	WriteLine(ch Channel, line string) error
}

// LoggerFunc adapts a function into a Logger.
type LoggerFunc func(ch Channel, line string) error

func (fn LoggerFunc) WriteLine(ch Channel, line string) error {
	return fn(ch, line)
}

// WriterLogger writes each line, newline-terminated, to Stdout or Stderr.
// A nil writer discards its channel.
type WriterLogger struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (wl WriterLogger) WriteLine(ch Channel, line string) error {
	w := wl.Stdout
	if ch == Stderr {
		w = wl.Stderr
	}
	if w == nil {
		return nil
	}
	_, err := io.WriteString(w, line+"\n")
	return err
}

// ZapLogger renders guest output as log entries.
// Standard output is logged at info level and standard error at warn level.
func ZapLogger(log *zap.Logger) Logger {
	return zapLogger{log: log}
}

type zapLogger struct {
	log *zap.Logger
}

func (zl zapLogger) WriteLine(ch Channel, line string) error {
	field := zap.Stringer("channel", ch)
	if ch == Stderr {
		zl.log.Warn(line, field)
	} else {
		zl.log.Info(line, field)
	}
	return nil
}
