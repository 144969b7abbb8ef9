package wasmshim

import (
	"crypto/rand"
	"io"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Keys of the overlaid bindings.
const (
	KeyFS      = "fs"
	KeyProcess = "process"
	KeyGo      = "Go"
)

// Keys of the default fallback globals.
const (
	GlobalClock  = "clock"
	GlobalCrypto = "crypto"
)

// Globals is the host environment a guest falls back to for names the
// overlay does not provide.
type Globals map[string]any

// NativeGlobals returns the default fallback environment: the system clock
// and a cryptographically secure random source.
func NativeGlobals() Globals {
	return Globals{
		GlobalClock:  SystemClock,
		GlobalCrypto: rand.Reader,
	}
}

// Overlay is the global environment presented to a guest runtime.
// Lookups consult the three overlaid bindings first and then the fallback
// globals. Both layers are enumerable with Keys.
type Overlay struct {
	fs       FS
	process  Process
	guest    any
	fallback Globals

	log *zap.Logger
}

// NewOverlay layers fsys, proc and the guest constructor over fallback.
func NewOverlay(fsys FS, proc Process, guest any, fallback Globals) *Overlay {
	ov := &Overlay{
		fs:       fsys,
		process:  proc,
		guest:    guest,
		fallback: make(Globals, len(fallback)),
		log:      zap.NewNop(),
	}
	for k, v := range fallback {
		if isOverlaid(k) {
			continue
		}
		ov.fallback[k] = v
	}
	return ov
}

func isOverlaid(key string) bool {
	return key == KeyFS || key == KeyProcess || key == KeyGo
}

// Lookup resolves key against the overlay, then the fallback globals.
func (ov *Overlay) Lookup(key string) (any, bool) {
	switch key {
	case KeyFS:
		return ov.fs, true
	case KeyProcess:
		return ov.process, true
	case KeyGo:
		return ov.guest, true
	}
	v, ok := ov.fallback[key]
	return v, ok
}

// Keys lists every name Lookup can resolve: overlaid keys first,
// then the sorted fallback keys.
func (ov *Overlay) Keys() []string {
	fallback := maps.Keys(ov.fallback)
	slices.Sort(fallback)
	return append([]string{KeyFS, KeyProcess, KeyGo}, fallback...)
}

func (ov *Overlay) FS() FS {
	return ov.fs
}

func (ov *Overlay) Process() Process {
	return ov.process
}

// Clock returns the "clock" global, or SystemClock if it is missing.
func (ov *Overlay) Clock() Clock {
	if c, ok := ov.fallback[GlobalClock].(Clock); ok {
		return c
	}
	return SystemClock
}

// Random returns the "crypto" global, or crypto/rand if it is missing.
func (ov *Overlay) Random() io.Reader {
	if r, ok := ov.fallback[GlobalCrypto].(io.Reader); ok {
		return r
	}
	return rand.Reader
}

// Logger returns the logger host calls are traced to.
// It is not visible to Lookup.
func (ov *Overlay) Logger() *zap.Logger {
	return ov.log
}
