package wazeroguest

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/guregu/wasmshim"
)

// instance is the process-wide wazero guest runtime.
var instance = wasmshim.NewRuntime[*Imports, api.Module](Constructor)

// Bootstrap initializes the process-wide runtime, sending guest output to logger.
// Calls after the first successful one do nothing.
func Bootstrap(logger wasmshim.Logger, opts ...wasmshim.Option) error {
	return instance.Bootstrap(logger, opts...)
}

// ImportObject returns the import table to instantiate guests against.
func ImportObject() (*Imports, error) {
	return instance.ImportObject()
}

// Run executes mod to completion and returns its exit code.
func Run(ctx context.Context, mod api.Module) (int, error) {
	return instance.Run(ctx, mod)
}

// State reports whether the process-wide runtime has been bootstrapped.
func State() wasmshim.State {
	return instance.State()
}
