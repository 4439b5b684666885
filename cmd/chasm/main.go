// Command chasm is a thin reference driver around the chasm compiler
// library: no REPL, no canvas rendering, no Wasm execution — it only
// turns source text into a .wasm file or reports a structured diagnostic.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/chasm-lang/chasm"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `chasm - compiler for the chasm toy language

Usage:
    chasm <command> [arguments]

Commands:
    build <file>   Compile a .chasm file to a .wasm module
    check <file>   Parse and compile a .chasm file, discarding the output
    help           Show this help message

Use "chasm <command> -h" for more information about a command.
`)
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		buildCommand(os.Args[2:])
	case "check":
		checkCommand(os.Args[2:])
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "chasm: unknown command %q\n\n", os.Args[1])
		showUsage()
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	out := fs.String("o", "", "output .wasm path (defaults to <file> with .wasm extension)")
	verbose := fs.Bool("v", false, "log compile phases")
	asJSON := fs.Bool("json", false, "print a compile error as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chasm build [-o out.wasm] [-v] [-json] <file>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	logger := newLogger(*verbose)
	defer logger.Sync()

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chasm: %v\n", err)
		os.Exit(1)
	}

	logger.Info("compiling", zap.String("file", filename), zap.Int("bytes", len(source)))
	wasm, err := chasm.Compile(string(source))
	if err != nil {
		reportError(err, *asJSON)
		os.Exit(1)
	}
	logger.Info("compiled", zap.Int("wasm_bytes", len(wasm)))

	outPath := *out
	if outPath == "" {
		outPath = withWasmExtension(filename)
	}
	if err := os.WriteFile(outPath, wasm, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "chasm: %v\n", err)
		os.Exit(1)
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print a compile error as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chasm check [-json] <file>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "chasm: %v\n", err)
		os.Exit(1)
	}

	if _, err := chasm.Compile(string(source)); err != nil {
		reportError(err, *asJSON)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func reportError(err error, asJSON bool) {
	if asJSON {
		if cerr, ok := err.(*chasm.Error); ok {
			data, mErr := json.Marshal(cerr)
			if mErr == nil {
				fmt.Fprintln(os.Stderr, string(data))
				return
			}
		}
	}
	fmt.Fprintf(os.Stderr, "chasm: %v\n", err)
}

func withWasmExtension(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ".wasm"
		}
	}
	return path + ".wasm"
}
