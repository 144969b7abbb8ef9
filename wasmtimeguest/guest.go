// Package wasmtimeguest runs wasi_snapshot_preview1 guests on wasmtime,
// resolving every host call through a wasmshim overlay.
package wasmtimeguest

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/bytecodealliance/wasmtime-go/v11"

	"github.com/guregu/wasmshim"
	"github.com/guregu/wasmshim/internal/wasip1"
)

// ErrNoStart is returned by Run for modules that don't export _start.
var ErrNoStart = errors.New("wasmtimeguest: module does not export _start")

// Imports is the import table guests are instantiated against.
type Imports struct {
	Engine *wasmtime.Engine
	Store  *wasmtime.Store
	Linker *wasmtime.Linker
}

// Instantiate compiles wasm and instantiates it against the import table.
// The module's start function is not run; pass the instance to Run.
func (im *Imports) Instantiate(wasm []byte) (*wasmtime.Instance, error) {
	module, err := wasmtime.NewModule(im.Engine, wasm)
	if err != nil {
		return nil, err
	}
	return im.Linker.Instantiate(im.Store, module)
}

// Guest is a wasmshim guest runtime backed by wasmtime.
type Guest struct {
	imports *Imports
	host    *wasip1.Host

	// fault is the host error that trapped the current run.
	fault error
}

var _ wasmshim.Guest[*Imports, *wasmtime.Instance] = (*Guest)(nil)

// New creates a wasmtime engine and store, and defines every
// wasi_snapshot_preview1 function on a linker.
func New(ov *wasmshim.Overlay) (*Guest, error) {
	engine := wasmtime.NewEngine()
	g := &Guest{
		imports: &Imports{
			Engine: engine,
			Store:  wasmtime.NewStore(engine),
			Linker: wasmtime.NewLinker(engine),
		},
		host: wasip1.NewHost(ov),
	}
	if err := g.link(); err != nil {
		return nil, err
	}
	return g, nil
}

// Constructor adapts New to wasmshim.Constructor.
func Constructor(ov *wasmshim.Overlay) (wasmshim.Guest[*Imports, *wasmtime.Instance], error) {
	g, err := New(ov)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Guest) link() error {
	for _, sig := range wasip1.Signatures {
		ty := wasmtime.NewFuncType(valtypes(sig.Params), valtypes(sig.Results))
		if err := g.imports.Linker.FuncNew(wasip1.ModuleName, sig.Name, ty, g.hostfunc(sig)); err != nil {
			return fmt.Errorf("wasmtimeguest: defining %s: %w", sig.Name, err)
		}
	}
	return nil
}

func (g *Guest) hostfunc(sig wasip1.Signature) func(*wasmtime.Caller, []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
	return func(caller *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
		params := make([]uint64, len(args))
		for i, arg := range args {
			switch arg.Kind() {
			case wasmtime.KindI32:
				params[i] = uint64(uint32(arg.I32()))
			case wasmtime.KindI64:
				params[i] = uint64(arg.I64())
			}
		}

		var data []byte
		var mem *wasmtime.Memory
		if ext := caller.GetExport("memory"); ext != nil {
			mem = ext.Memory()
		}
		if mem != nil {
			data = mem.UnsafeData(caller)
		}
		errno, err := g.host.Call(sig.Name, data, params)
		runtime.KeepAlive(mem)

		if err != nil {
			g.fault = err
			return nil, wasmtime.NewTrap(err.Error())
		}
		if len(sig.Results) == 0 {
			return nil, nil
		}
		return []wasmtime.Val{wasmtime.ValI32(errno)}, nil
	}
}

func valtypes(types []wasip1.ValueType) []*wasmtime.ValType {
	vts := make([]*wasmtime.ValType, len(types))
	for i, t := range types {
		switch t {
		case wasip1.I64:
			vts[i] = wasmtime.NewValType(wasmtime.KindI64)
		default:
			vts[i] = wasmtime.NewValType(wasmtime.KindI32)
		}
	}
	return vts
}

func (g *Guest) ImportObject() *Imports {
	return g.imports
}

// Run calls the instance's _start function. If the guest calls proc_exit,
// its exit code is returned with a nil error.
func (g *Guest) Run(_ context.Context, inst *wasmtime.Instance) (int, error) {
	g.host.Reset()
	g.fault = nil
	start := inst.GetFunc(g.imports.Store, "_start")
	if start == nil {
		return 0, ErrNoStart
	}
	_, err := start.Call(g.imports.Store)
	if code, ok := g.host.Exited(); ok {
		return code, nil
	}
	if err != nil && g.fault != nil {
		return 0, fmt.Errorf("wasmtimeguest: %w", g.fault)
	}
	if err != nil {
		return 0, fmt.Errorf("wasmtimeguest: %w", err)
	}
	return 0, nil
}
