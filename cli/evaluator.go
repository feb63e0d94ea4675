// Package cli implements the host-facing command surface: a local REPL,
// an SSH remote admin console, and the admin command set.
//
// The runtime deliberately does not ship an expression language of its
// own; Evaluator is the boundary where a host links one in. A host
// supplies whatever reader/evaluator it wants (an embedded Lisp, or
// nothing at all) by implementing Evaluator; cli supplies everything
// around it — invocation parsing, REPL loop, history file, SSH session
// plumbing, and admin introspection commands that talk to
// abi.Runtime/mesh.Mesh directly instead of through the evaluator.
package cli

import "github.com/zond/wiremesh/value"

// Evaluator evaluates one expression against a running embedding and
// returns its result. expr is opaque to this package: it is whatever
// surface syntax the host's reader/evaluator accepts.
type Evaluator interface {
	Eval(expr string) (value.Value, error)
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(expr string) (value.Value, error)

func (f EvaluatorFunc) Eval(expr string) (value.Value, error) { return f(expr) }

// NoEvaluator is the zero Evaluator: every expression fails. It lets cli's
// REPL/eval-file/eval-expr modes run (and be tested) even when a host has
// not wired in a real expression language yet.
var NoEvaluator Evaluator = EvaluatorFunc(func(expr string) (value.Value, error) {
	return value.Value{}, errNoEvaluator
})
