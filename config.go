package wasmshim

import (
	"io"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Option configures a Runtime.
type Option func(*config)

type config struct {
	args    []string
	env     map[string]string
	globals Globals
	log     *zap.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		globals: NativeGlobals(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithArgs sets the command line arguments the process stub reports.
func WithArgs(args []string) Option {
	return func(cfg *config) {
		cfg.args = slices.Clone(args)
	}
}

// WithEnv adds env, a map of names to values, to the environment the process stub reports.
func WithEnv(env map[string]string) Option {
	return func(cfg *config) {
		if cfg.env == nil {
			cfg.env = make(map[string]string)
		}
		maps.Copy(cfg.env, env)
	}
}

// WithClock sets the "clock" global.
func WithClock(clock Clock) Option {
	return WithGlobal(GlobalClock, clock)
}

// WithRandom sets the "crypto" global used for random data.
func WithRandom(r io.Reader) Option {
	return WithGlobal(GlobalCrypto, r)
}

// WithGlobal adds a fallback global. Names shadowed by the overlay
// (fs, process, Go) are ignored.
func WithGlobal(name string, v any) Option {
	return func(cfg *config) {
		cfg.globals[name] = v
	}
}

// WithDebugLogger traces every host call to log.
func WithDebugLogger(log *zap.Logger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}
