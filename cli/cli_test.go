package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zond/wiremesh/value"
)

func TestRunEvalExpression(t *testing.T) {
	var out, errOut bytes.Buffer
	eval := EvaluatorFunc(func(expr string) (value.Value, error) {
		if expr == "(+ 1 2)" {
			return value.Int_(3), nil
		}
		return value.Value{}, errNoEvaluator
	})
	code := Run([]string{"-e", "(+ 1 2)"}, Config{Eval: eval, Stdout: &out, Stderr: &errOut})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if strings.TrimSpace(out.String()) != "3" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunEvalError(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"-e", "(bogus)"}, Config{Eval: NoEvaluator, Stdout: &out, Stderr: &errOut})
	if code != -1 {
		t.Fatalf("expected exit -1, got %d", code)
	}
	if errOut.Len() == 0 {
		t.Fatal("expected an error message on stderr")
	}
}

func TestRunLoadFile(t *testing.T) {
	var out bytes.Buffer
	var gotExpr string
	eval := EvaluatorFunc(func(expr string) (value.Value, error) {
		gotExpr = expr
		return value.None_(), nil
	})
	code := Run([]string{"script.scm"}, Config{Eval: eval, Stdout: &out})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if gotExpr != `(load-file "script.scm")` {
		t.Fatalf("unexpected expr: %q", gotExpr)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output for a None result, got %q", out.String())
	}
}

func TestRunREPL(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	eval := EvaluatorFunc(func(expr string) (value.Value, error) {
		return value.String_("echo:" + expr), nil
	})
	in := strings.NewReader("hello\nworld\n")
	code := Run(nil, Config{
		Eval:        eval,
		Stdin:       in,
		Stdout:      &out,
		HistoryPath: dir + "/history.txt",
	})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "echo:hello") || !strings.Contains(out.String(), "echo:world") {
		t.Fatalf("unexpected REPL output: %q", out.String())
	}
}
