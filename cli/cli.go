package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/zond/wiremesh/value"
)

var errNoEvaluator = errors.New("no evaluator configured")

// Config holds the pieces Run needs beyond argv: the expression evaluator
//, I/O streams, and the
// history file path for the no-argument REPL mode.
type Config struct {
	Eval        Evaluator
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	HistoryPath string // default "./<tool>-history.txt" if empty, set by caller
}

// Run parses an invocation of the form `tool [scriptPath] [args...]`:
// `-e "expr"` evaluates one expression and exits, a bare file path
// evaluates `(load-file "<filename>")`, and no arguments starts an
// interactive REPL. Returns the process exit code: 0 on success, -1 on
// eval error. Most shells only keep the low byte of an exit code, so
// callers that need the true -1 at the OS boundary should special-case
// it.
func Run(args []string, cfg Config) int {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Eval == nil {
		cfg.Eval = NoEvaluator
	}

	if len(args) >= 2 && args[0] == "-e" {
		return evalOne(cfg, args[1])
	}
	if len(args) >= 1 {
		return evalOne(cfg, fmt.Sprintf("(load-file %q)", args[0]))
	}

	historyPath := cfg.HistoryPath
	if historyPath == "" {
		historyPath = "./wiremesh-history.txt"
	}
	return runREPL(cfg, historyPath)
}

// evalOne evaluates a single expression, prints its result unless it is
// the None value, and returns the exit code.
func evalOne(cfg Config, expr string) int {
	v, err := cfg.Eval.Eval(expr)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error: %v\n", err)
		return -1
	}
	if v.Kind != value.None {
		fmt.Fprintln(cfg.Stdout, describeValue(v))
	}
	return 0
}

// describeValue renders a Value for REPL/eval-once output. Values have no
// canonical textual form (only the binary one), so this mirrors Go's own
// %v convention: enough to be legible at a terminal, not a parser
// round-trip format.
func describeValue(v value.Value) string {
	switch v.Kind {
	case value.StringKind:
		return v.StringVal()
	case value.Bool:
		return fmt.Sprintf("%v", v.BoolVal())
	case value.Int:
		return fmt.Sprintf("%d", v.IntVal())
	case value.Float:
		return fmt.Sprintf("%g", v.FloatVal())
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// runREPL reads lines from cfg.Stdin, evaluates each, and prints results,
// appending every line to historyPath as it is entered.
// golang.org/x/term's Terminal only recalls lines typed within the
// current session, so the flat history file supplies persistence across
// invocations.
func runREPL(cfg Config, historyPath string) int {
	hf, err := os.OpenFile(historyPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "error opening history file: %v\n", err)
		hf = nil
	} else {
		defer hf.Close()
	}

	scanner := bufio.NewScanner(cfg.Stdin)
	for {
		fmt.Fprint(cfg.Stdout, "> ")
		if !scanner.Scan() {
			return 0
		}
		line := scanner.Text()
		if hf != nil {
			fmt.Fprintln(hf, line)
		}
		if line == "" {
			continue
		}
		v, err := cfg.Eval.Eval(line)
		if err != nil {
			fmt.Fprintf(cfg.Stdout, "error: %v\n", err)
			continue
		}
		if v.Kind != value.None {
			fmt.Fprintln(cfg.Stdout, describeValue(v))
		}
	}
}
