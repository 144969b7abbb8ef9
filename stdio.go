package wasmshim

// Stdio owns the standard output and standard error pipes of a guest.
type Stdio struct {
	stdout *Pipe
	stderr *Pipe
}

// NewStdio creates both pipes, writing to logger.
func NewStdio(logger Logger) (*Stdio, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &Stdio{
		stdout: newPipe(Stdout, logger),
		stderr: newPipe(Stderr, logger),
	}, nil
}

func (s *Stdio) Stdout() *Pipe { return s.stdout }
func (s *Stdio) Stderr() *Pipe { return s.stderr }

// Reset discards partial lines on both pipes.
// It must be called before each run so leftovers from the previous run
// don't prefix the next run's output.
func (s *Stdio) Reset() {
	s.stdout.Reset()
	s.stderr.Reset()
}
