package wasmshim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Guest is the engine glue that drives a guest module.
// I is the import table the module must be instantiated against,
// and M is an instantiated module.
type Guest[I, M any] interface {
	// ImportObject returns the import table. It must return the same value every time.
	ImportObject() I
	// Run executes module to completion and returns its exit code.
	Run(ctx context.Context, module M) (int, error)
}

// Constructor creates a guest runtime whose host calls resolve against ov.
type Constructor[I, M any] func(ov *Overlay) (Guest[I, M], error)

// State is the lifecycle stage of a Runtime.
type State int32

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Runtime holds the single guest runtime instance of a host.
// The zero value is not usable; create one with NewRuntime.
type Runtime[I, M any] struct {
	newGuest Constructor[I, M]
	opts     []Option

	mu      sync.Mutex
	state   State
	stdio   *Stdio
	proc    *ProcessStub
	overlay *Overlay
	guest   Guest[I, M]
	log     *zap.Logger

	running atomic.Bool
}

// NewRuntime returns an uninitialized runtime that will build its guest with newGuest.
func NewRuntime[I, M any](newGuest Constructor[I, M], opts ...Option) *Runtime[I, M] {
	return &Runtime[I, M]{
		newGuest: newGuest,
		opts:     opts,
		log:      zap.NewNop(),
	}
}

// Bootstrap builds the stdio pipes, the overlay and the guest runtime,
// sending guest output to logger. Once the runtime is ready, further calls
// do nothing: the existing instance and logger are kept.
func (rt *Runtime[I, M]) Bootstrap(logger Logger, opts ...Option) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state == Ready {
		rt.log.Debug("bootstrap skipped: already initialized")
		return nil
	}

	stdio, err := NewStdio(logger)
	if err != nil {
		return err
	}
	cfg := newConfig(append(rt.opts[:len(rt.opts):len(rt.opts)], opts...))
	proc := NewProcessStub(cfg.args, cfg.env)
	ov := NewOverlay(NewFS(stdio.Stdout(), stdio.Stderr()), proc, rt.newGuest, cfg.globals)
	ov.log = cfg.log

	guest, err := rt.newGuest(ov)
	if err != nil {
		return fmt.Errorf("wasmshim: creating guest runtime: %w", err)
	}

	rt.stdio = stdio
	rt.proc = proc
	rt.overlay = ov
	rt.guest = guest
	rt.log = cfg.log
	rt.state = Ready
	rt.log.Debug("bootstrapped", zap.Strings("globals", ov.Keys()))
	return nil
}

// State reports the lifecycle stage.
func (rt *Runtime[I, M]) State() State {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state
}

// ImportObject returns the guest runtime's import table.
func (rt *Runtime[I, M]) ImportObject() (I, error) {
	guest, err := rt.ready()
	if err != nil {
		var zero I
		return zero, err
	}
	return guest.ImportObject(), nil
}

// Run resets the stdio pipes and the recorded exit status, then executes
// module to completion, returning its exit code.
// Only one run may be in progress at a time.
func (rt *Runtime[I, M]) Run(ctx context.Context, module M) (int, error) {
	guest, err := rt.ready()
	if err != nil {
		return 0, err
	}
	if !rt.running.CompareAndSwap(false, true) {
		return 0, ErrRunInProgress
	}
	defer rt.running.Store(false)

	rt.stdio.Reset()
	rt.proc.Reset()
	code, err := guest.Run(ctx, module)
	rt.log.Debug("run finished", zap.Int("code", code), zap.Error(err))
	return code, err
}

// Stdio returns the pipes guest output flows through, or nil before Bootstrap.
func (rt *Runtime[I, M]) Stdio() *Stdio {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.stdio
}

// Overlay returns the environment the guest was built against, or nil before Bootstrap.
func (rt *Runtime[I, M]) Overlay() *Overlay {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.overlay
}

func (rt *Runtime[I, M]) ready() (Guest[I, M], error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.state != Ready {
		return nil, ErrNotInitialized
	}
	return rt.guest, nil
}
