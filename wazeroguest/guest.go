// Package wazeroguest runs wasi_snapshot_preview1 guests on wazero,
// resolving every host call through a wasmshim overlay.
package wazeroguest

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"github.com/guregu/wasmshim"
	"github.com/guregu/wasmshim/internal/wasip1"
)

// ErrNoStart is returned by Run for modules that don't export _start.
var ErrNoStart = errors.New("wazeroguest: module does not export _start")

// Imports is the import table guests are instantiated against:
// a wazero runtime with the wasi_snapshot_preview1 host module in it.
type Imports struct {
	Runtime wazero.Runtime
}

// Instantiate compiles wasm and instantiates it as an anonymous module.
// The module's start function is not run; pass the module to Run.
func (im *Imports) Instantiate(ctx context.Context, wasm []byte) (api.Module, error) {
	compiled, err := im.Runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, err
	}
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	return im.Runtime.InstantiateModule(ctx, compiled, cfg)
}

// Guest is a wasmshim guest runtime backed by wazero.
type Guest struct {
	imports *Imports
	host    *wasip1.Host

	// fault is the host error that trapped the current run.
	fault error
}

var _ wasmshim.Guest[*Imports, api.Module] = (*Guest)(nil)

// New creates a wazero runtime and instantiates the host module in it.
func New(ctx context.Context, ov *wasmshim.Overlay) (*Guest, error) {
	g := &Guest{
		imports: &Imports{Runtime: wazero.NewRuntime(ctx)},
		host:    wasip1.NewHost(ov),
	}
	if err := g.link(ctx); err != nil {
		_ = g.imports.Runtime.Close(ctx)
		return nil, err
	}
	return g, nil
}

// Constructor adapts New to wasmshim.Constructor.
func Constructor(ov *wasmshim.Overlay) (wasmshim.Guest[*Imports, api.Module], error) {
	g, err := New(context.Background(), ov)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Guest) link(ctx context.Context) error {
	builder := g.imports.Runtime.NewHostModuleBuilder(wasip1.ModuleName)
	for _, sig := range wasip1.Signatures {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(g.hostfunc(sig), valueTypes(sig.Params), valueTypes(sig.Results)).
			Export(sig.Name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("wazeroguest: instantiating %s: %w", wasip1.ModuleName, err)
	}
	return nil
}

func (g *Guest) hostfunc(sig wasip1.Signature) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		var data []byte
		if mem := mod.Memory(); mem != nil {
			data, _ = mem.Read(0, mem.Size())
		}
		errno, err := g.host.Call(sig.Name, data, stack[:len(sig.Params)])
		if err != nil {
			var exit *wasip1.ExitError
			if errors.As(err, &exit) {
				_ = mod.CloseWithExitCode(ctx, exit.Code)
				panic(sys.NewExitError(exit.Code))
			}
			g.fault = err
			panic(err)
		}
		if len(sig.Results) > 0 {
			stack[0] = api.EncodeI32(errno)
		}
	}
}

func valueTypes(types []wasip1.ValueType) []api.ValueType {
	vts := make([]api.ValueType, len(types))
	for i, t := range types {
		switch t {
		case wasip1.I64:
			vts[i] = api.ValueTypeI64
		default:
			vts[i] = api.ValueTypeI32
		}
	}
	return vts
}

func (g *Guest) ImportObject() *Imports {
	return g.imports
}

// Run calls the module's _start function. If the guest calls proc_exit,
// its exit code is returned with a nil error.
func (g *Guest) Run(ctx context.Context, mod api.Module) (int, error) {
	g.host.Reset()
	g.fault = nil
	start := mod.ExportedFunction("_start")
	if start == nil {
		return 0, ErrNoStart
	}
	_, err := start.Call(ctx)
	if code, ok := g.host.Exited(); ok {
		return code, nil
	}
	var exit *sys.ExitError
	if errors.As(err, &exit) {
		return int(exit.ExitCode()), nil
	}
	if err != nil && g.fault != nil {
		return 0, fmt.Errorf("wazeroguest: %w", g.fault)
	}
	if err != nil {
		return 0, fmt.Errorf("wazeroguest: %w", err)
	}
	return 0, nil
}

// Close releases the wazero runtime and every module instantiated in it.
func (g *Guest) Close(ctx context.Context) error {
	return g.imports.Runtime.Close(ctx)
}
