package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/guregu/wasmshim"
	"github.com/guregu/wasmshim/internal/spa"
	"github.com/guregu/wasmshim/wasmtimeguest"
	"github.com/guregu/wasmshim/wazeroguest"
)

const usage = `Usage:
  wasmshim run [-engine wasmtime|wazero] [-env K=V,...] [-zap] [-debug] <file.wasm> [args...]
  wasmshim serve [-addr :8080] [-root dir] [-spa]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		var code int
		code, err = run(os.Args[2:])
		if err == nil && code != 0 {
			os.Exit(code)
		}
	case "serve":
		err = serve(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) (int, error) {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		engine  = flags.String("engine", "wasmtime", "Guest engine: wasmtime or wazero")
		envVars = flags.String("env", "", "Environment variables (KEY=VAL,KEY2=VAL2)")
		useZap  = flags.Bool("zap", false, "Render guest output as log entries")
		debug   = flags.Bool("debug", false, "Trace host calls")
	)
	flags.Parse(argv)
	if flags.NArg() < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	wasmFile := flags.Arg(0)

	log := zap.NewNop()
	if *debug || *useZap {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return 0, fmt.Errorf("create logger: %w", err)
		}
		defer log.Sync()
	}

	var logger wasmshim.Logger = wasmshim.WriterLogger{Stdout: os.Stdout, Stderr: os.Stderr}
	if *useZap {
		logger = wasmshim.ZapLogger(log.Named("guest"))
	}

	opts := []wasmshim.Option{
		wasmshim.WithArgs(flags.Args()),
		wasmshim.WithEnv(parseEnv(*envVars)),
	}
	if *debug {
		opts = append(opts, wasmshim.WithDebugLogger(log))
	}

	wasm, err := os.ReadFile(wasmFile)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	ctx := context.Background()
	switch *engine {
	case "wasmtime":
		if err := wasmtimeguest.Bootstrap(logger, opts...); err != nil {
			return 0, err
		}
		imports, err := wasmtimeguest.ImportObject()
		if err != nil {
			return 0, err
		}
		inst, err := imports.Instantiate(wasm)
		if err != nil {
			return 0, fmt.Errorf("instantiate: %w", err)
		}
		return wasmtimeguest.Run(ctx, inst)
	case "wazero":
		if err := wazeroguest.Bootstrap(logger, opts...); err != nil {
			return 0, err
		}
		imports, err := wazeroguest.ImportObject()
		if err != nil {
			return 0, err
		}
		defer imports.Runtime.Close(ctx)
		mod, err := imports.Instantiate(ctx, wasm)
		if err != nil {
			return 0, fmt.Errorf("instantiate: %w", err)
		}
		return wazeroguest.Run(ctx, mod)
	}
	return 0, fmt.Errorf("unknown engine %q", *engine)
}

func parseEnv(s string) map[string]string {
	env := make(map[string]string)
	if s == "" {
		return env
	}
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}
	return env
}

func serve(argv []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		addr    = flags.String("addr", ":8080", "Listen address")
		root    = flags.String("root", ".", "Directory holding the web page and its .wasm files")
		spaMode = flags.Bool("spa", false, "Serve index.html for missing paths instead of 404.html")
	)
	flags.Parse(argv)

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	files := spa.NewFileServer(http.Dir(*root))
	if *spaMode {
		files.NotFound = spa.NewIndexHandler(http.Dir(*root))
	}
	mux := http.NewServeMux()
	mux.Handle("/", files)
	log.Info("listening", zap.String("addr", *addr), zap.String("root", *root))
	return http.ListenAndServe(*addr, mux)
}
