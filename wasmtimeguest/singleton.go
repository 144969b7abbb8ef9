package wasmtimeguest

import (
	"context"

	"github.com/bytecodealliance/wasmtime-go/v11"

	"github.com/guregu/wasmshim"
)

// instance is the process-wide wasmtime guest runtime.
var instance = wasmshim.NewRuntime[*Imports, *wasmtime.Instance](Constructor)

// Bootstrap initializes the process-wide runtime, sending guest output to logger.
// Calls after the first successful one do nothing.
func Bootstrap(logger wasmshim.Logger, opts ...wasmshim.Option) error {
	return instance.Bootstrap(logger, opts...)
}

// ImportObject returns the import table to instantiate guests against.
func ImportObject() (*Imports, error) {
	return instance.ImportObject()
}

// Run executes inst to completion and returns its exit code.
func Run(ctx context.Context, inst *wasmtime.Instance) (int, error) {
	return instance.Run(ctx, inst)
}

// State reports whether the process-wide runtime has been bootstrapped.
func State() wasmshim.State {
	return instance.State()
}
