package wasmshim

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Process is the operating system process surface a guest runtime probes at startup.
type Process interface {
	Argv() []string
	Env() map[string]string
	// Exit is called when the guest exits. It must not terminate the host.
	Exit(code int)

	Pid() int
	Ppid() int
	Getuid() int
	Getgid() int
	Geteuid() int
	Getegid() int
	Getgroups() ([]int, error)
	Umask(mask uint32) (uint32, error)
	Cwd() (string, error)
	Chdir(dir string) error
}

// ProcessStub is an inert Process. It reports fixed arguments and environment,
// and records exit codes instead of acting on them.
type ProcessStub struct {
	args []string
	env  map[string]string

	mu       sync.Mutex
	exitCode int
	exited   bool
}

var _ Process = (*ProcessStub)(nil)

// NewProcessStub returns a stub reporting copies of args and env.
func NewProcessStub(args []string, env map[string]string) *ProcessStub {
	return &ProcessStub{
		args: slices.Clone(args),
		env:  maps.Clone(env),
	}
}

func (p *ProcessStub) Argv() []string {
	return slices.Clone(p.args)
}

func (p *ProcessStub) Env() map[string]string {
	env := make(map[string]string, len(p.env))
	maps.Copy(env, p.env)
	return env
}

func (p *ProcessStub) Exit(code int) {
	p.mu.Lock()
	p.exitCode = code
	p.exited = true
	p.mu.Unlock()
}

// Reset forgets the recorded exit code.
func (p *ProcessStub) Reset() {
	p.mu.Lock()
	p.exitCode, p.exited = 0, false
	p.mu.Unlock()
}

// ExitCode reports the code passed to the most recent Exit call since Reset.
func (p *ProcessStub) ExitCode() (code int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.exited
}

func (*ProcessStub) Pid() int { return -1 }
func (*ProcessStub) Ppid() int { return -1 }
func (*ProcessStub) Getuid() int { return -1 }
func (*ProcessStub) Getgid() int { return -1 }
func (*ProcessStub) Geteuid() int { return -1 }
func (*ProcessStub) Getegid() int { return -1 }

func (*ProcessStub) Getgroups() ([]int, error) { return nil, ErrNotImplemented }
func (*ProcessStub) Umask(uint32) (uint32, error) { return 0, ErrNotImplemented }
func (*ProcessStub) Cwd() (string, error) { return "", ErrNotImplemented }
func (*ProcessStub) Chdir(string) error { return ErrNotImplemented }
