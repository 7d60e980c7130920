// cmd/faeyne/main.go
//
// The faeyne command line: run a program, drop into the interactive REPL,
// or check a source file for compile errors without executing it.
//
// Grounded on the teacher's own cmd/sentra/main.go (a flat command surface
// dispatching run/repl/test/etc against the same lexer->parser->compiler->vm
// pipeline), rebuilt here on github.com/urfave/cli/v2 — the command-line
// library a sibling interpreter in the pack uses for the identical job —
// in place of the teacher's hand-rolled os.Args switch and alias table.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"faeyne/internal/compiler"
	"faeyne/internal/interp"
	"faeyne/internal/lexer"
	"faeyne/internal/parser"
	"faeyne/internal/repl"
	"faeyne/internal/scope"
	"faeyne/internal/strtable"
	"faeyne/internal/system"
	"faeyne/internal/value"
)

const defaultMaxStack = 4096
const defaultMaxFrames = 1024

func main() {
	app := &cli.App{
		Name:  "faeyne",
		Usage: "the Faeyne language interpreter",
		Commands: []*cli.Command{
			runCommand(),
			replCommand(),
			checkCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "faeyne:", err)
		os.Exit(1)
	}
}

func maxStackFlag() *cli.IntFlag {
	return &cli.IntFlag{Name: "max-stack", Value: defaultMaxStack, Usage: "value stack capacity"}
}

func maxFramesFlag() *cli.IntFlag {
	return &cli.IntFlag{Name: "max-frames", Value: defaultMaxFrames, Usage: "call stack depth limit"}
}

func traceFlag() *cli.BoolFlag {
	return &cli.BoolFlag{Name: "trace", Usage: "dump compiled bytecode and the final value before exiting"}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "compile and execute a Faeyne source file",
		ArgsUsage: "<file.fy>",
		Flags:     []cli.Flag{maxStackFlag(), maxFramesFlag(), traceFlag()},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("run requires a source file argument", 2)
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(err, 1)
			}

			table, globals, def, err := compileSource(string(src), path)
			if err != nil {
				return cli.Exit(err, 1)
			}

			registry, err := system.NewRegistry(table)
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer registry.Close()

			if c.Bool("trace") {
				fmt.Fprintf(os.Stderr, "--- %s (%s) ---\n", path, humanize.Bytes(uint64(len(src))))
				spew.Fdump(os.Stderr, def.Chunk)
			}

			vm := interp.New(table, globals, c.Int("max-stack"))
			vm.MaxFrames = c.Int("max-frames")

			var args []value.Value
			var argIDs []strtable.Id
			if len(def.ArgIDs) == 1 {
				args = []value.Value{registry.Build()}
				argIDs = def.ArgIDs
			} else if len(def.ArgIDs) != 0 {
				return cli.Exit(fmt.Sprintf("main must take 0 or 1 arguments, got %d", len(def.ArgIDs)), 1)
			}

			start := time.Now()
			result, runErr := vm.Run(def.Chunk, args, argIDs, nil)
			elapsed := time.Since(start)
			if runErr != nil {
				return cli.Exit(runErr, 1)
			}
			defer result.Drop()

			if c.Bool("trace") {
				fmt.Fprintf(os.Stderr, "--- result (%s) ---\n", elapsed)
				spew.Fdump(os.Stderr, result)
			}
			fmt.Println(value.ToDisplayString(result, table))
			return nil
		},
	}
}

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "start an interactive Faeyne session",
		Flags: []cli.Flag{maxStackFlag()},
		Action: func(c *cli.Context) error {
			return repl.Start(repl.Options{MaxStack: c.Int("max-stack")})
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "parse and compile a source file without running it",
		ArgsUsage: "<file.fy>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("check requires a source file argument", 2)
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if _, _, _, err := compileSource(string(src), path); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("%s: ok (%s)\n", path, humanize.Bytes(uint64(len(src))))
			return nil
		},
	}
}

// compileSource runs the full lex/parse/compile pipeline and looks up the
// program's entry point (spec.md §6.2: id 13, `main`), failing if no
// top-level def main exists. It does not check main's arity; the run
// command rejects a main that takes more than one argument.
func compileSource(src, file string) (*strtable.Table, *scope.Global, *value.GlobalDef, error) {
	tokens, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("lex error: %w", err)
	}
	prog, err := parser.NewParser(tokens, file).Parse()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse error: %w", err)
	}

	table := strtable.New()
	globals, err := compiler.Compile(prog, table)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("compile error: %w", err)
	}

	mainDef, ok := globals.LookupGlobal(strtable.Main)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%s: no top-level def main", file)
	}
	return table, globals, mainDef, nil
}
