// internal/repl/repl.go
//
// Package repl is the interactive Faeyne prompt: read one line, parse it as
// a standalone def, compile it, run it against a persistent Interpreter and
// Global table so earlier defs stay callable from later ones.
//
// Grounded on the teacher's own internal/repl/repl.go (read-parse-compile-run
// loop over bufio.Scanner, one VM instance reused across lines), adapted
// here to Faeyne's per-def compilation model and upgraded from a bare
// bufio.Scanner to golang.org/x/term's line editor for history recall and
// raw-mode input, the way a sibling interpreter in the pack drives its REPL.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"faeyne/internal/bytecode"
	"faeyne/internal/compiler"
	"faeyne/internal/interp"
	"faeyne/internal/lexer"
	"faeyne/internal/parser"
	"faeyne/internal/scope"
	"faeyne/internal/strtable"
	"faeyne/internal/system"
	"faeyne/internal/value"
)

// lineScanner is the bufio.Scanner-based fallback reader used when stdin
// isn't a terminal, mirroring the teacher's original REPL's input loop.
type lineScanner struct{ sc *bufio.Scanner }

func newLineScanner(r io.Reader) *lineScanner { return &lineScanner{sc: bufio.NewScanner(r)} }

func (l *lineScanner) next() (string, bool) {
	if !l.sc.Scan() {
		return "", false
	}
	return l.sc.Text(), true
}

const banner = "Faeyne REPL | :quit to exit, a bare expression runs as def main() { ... }"

// Options configures the interpreter backing a Start call.
type Options struct {
	MaxStack int
}

// Start runs the REPL to completion (until :quit, EOF, or a terminal error).
// Every accepted line is wrapped in its own `def main() { <line> }`,
// recompiled against the table and Global accumulated so far, and executed;
// a bare `def name(...) { ... }` line instead adds to the Global table
// without running anything, so multi-line sessions can build up helpers.
func Start(opts Options) error {
	table := strtable.New()
	globals := scope.NewGlobal()
	registry, err := system.NewRegistry(table)
	if err != nil {
		return err
	}
	defer registry.Close()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runPlain(os.Stdin, os.Stdout, table, globals, registry, opts)
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return runPlain(os.Stdin, os.Stdout, table, globals, registry, opts)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "faeyne> ")
	fmt.Fprintln(os.Stdout, banner+"\r")

	for {
		line, err := t.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if handled := evalLine(t, line, table, globals, registry, opts); handled == quit {
			return nil
		}
	}
}

type outcome int

const (
	ran outcome = iota
	quit
)

// evalLine handles one line. A bare expression is wrapped as a synthetic
// `def main() { <expr> }` and run immediately without ever being registered
// into globals — each such line re-runs independently rather than
// accumulating as a duplicate `main`, which compiler.CompileInto would
// otherwise reject outright on the session's second bare expression. A real
// `def name(...) { ... }` line instead goes through CompileInto so it
// becomes permanently callable by every later line.
func evalLine(w io.Writer, line string, table *strtable.Table, globals *scope.Global, registry *system.Registry, opts Options) outcome {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ran
	}
	if trimmed == ":quit" || trimmed == ":exit" {
		return quit
	}

	isExpr := !strings.HasPrefix(trimmed, "def ")
	src := trimmed
	if isExpr {
		src = fmt.Sprintf("def main() { %s }", trimmed)
	}

	tokens, err := lexer.NewScanner(src).ScanTokens()
	if err != nil {
		fmt.Fprintf(w, "lex error: %s\r\n", err)
		return ran
	}
	prog, err := parser.NewParser(tokens, "<repl>").Parse()
	if err != nil {
		fmt.Fprintf(w, "parse error: %s\r\n", err)
		return ran
	}

	if isExpr {
		chunk, argIDs, err := compiler.CompileStandalone(prog.Defs[0], table, globals)
		if err != nil {
			fmt.Fprintf(w, "compile error: %s\r\n", err)
			return ran
		}
		runAndPrint(w, table, globals, chunk, argIDs, registry, opts)
		return ran
	}

	added, err := compiler.CompileInto(prog, table, globals)
	if err != nil {
		fmt.Fprintf(w, "compile error: %s\r\n", err)
		return ran
	}
	for _, name := range added {
		fmt.Fprintf(w, "defined %s\r\n", name)
	}
	return ran
}

func runAndPrint(w io.Writer, table *strtable.Table, globals *scope.Global, chunk *bytecode.Chunk, argIDs []strtable.Id, registry *system.Registry, opts Options) {
	vm := interp.New(table, globals, opts.MaxStack)
	var args []value.Value
	if len(argIDs) == 1 {
		args = []value.Value{registry.Build()}
	}
	result, runErr := vm.Run(chunk, args, argIDs, nil)
	if runErr != nil {
		fmt.Fprintf(w, "runtime error: %s\r\n", runErr)
		return
	}
	fmt.Fprintf(w, "%s\r\n", value.ToDisplayString(result, table))
	result.Drop()
}

// runPlain is the fallback loop used when stdin isn't a terminal (piped
// input, tests): line-buffered, no raw mode, no history.
func runPlain(in io.Reader, out io.Writer, table *strtable.Table, globals *scope.Global, registry *system.Registry, opts Options) error {
	fmt.Fprintln(out, banner)
	sc := newLineScanner(in)
	for {
		fmt.Fprint(out, "faeyne> ")
		line, ok := sc.next()
		if !ok {
			return nil
		}
		if evalLine(out, line, table, globals, registry, opts) == quit {
			return nil
		}
	}
}
