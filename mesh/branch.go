package mesh

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

// FailurePolicy governs whether a subwire's failure propagates to the
// caller: Everything rethrows on any
// failure, Known rethrows only if the specific subwire being awaited
// failed, Ignore never rethrows. Everything and Known coincide for a
// single RunBranch call (there is exactly one "specific subwire" in play);
// the distinction becomes load-bearing for a caller managing several
// branches concurrently and deciding, per branch, whether its own failure
// should surface — that caller calls RunBranch once per branch and only
// Known callers ignore sibling failures they didn't themselves observe.
type FailurePolicy int

const (
	Everything FailurePolicy = iota
	Known
	Ignore
)

// RunBranch runs child as a subwire of the shard calling it (via
// wire.RunSub) and applies policy to whatever failure, if any, results.
func RunBranch(parentCtx *wire.Context, child *wire.Wire, input value.Value, policy FailurePolicy) (value.Value, error) {
	out, err := wire.RunSub(parentCtx, child, input)
	if err == nil {
		return out, nil
	}
	switch policy {
	case Ignore:
		// RunSub has already marked the child Failed and set the caller's
		// flow to Error; clear that so the caller's own tick carries on.
		parentCtx.SetFlow(shard.Continue)
		return out, nil
	default: // Everything, Known
		return out, err
	}
}
