package wire

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
)

// RunSub runs child to completion inline on the calling shard's own
// coroutine. Go has no stackful fiber to push a
// second coroutine onto, so the nested wire's shard sequence runs directly
// on the parent's goroutine via runShardsOnce, sharing the parent's
// suspension machinery (any Suspend call inside the child parks the
// *parent's* goroutine exactly as if the suspending shard were the
// parent's own). child.parent is set so its scope.Chain sees the parent's
// locals as an enclosing scope.
//
// Outcome mapping: Return collapses to Continue in the caller;
// Restart bubbles (the parent itself restarts, carrying the child's flow
// storage); Stop and Error likewise bubble unchanged.
func RunSub(parentCtx *Context, child *Wire, input value.Value) (value.Value, error) {
	child.parent = parentCtx.wire
	child.ctx = newContext(child, parentCtx.std)

	out, outcome, err := child.runShardsOnce(child.ctx, input)

	// The child never goes through Prepare/the goroutine coroutine (it runs
	// inline on the parent's own goroutine), so its terminal State() is set
	// here directly for observability (mesh.RunBranch and diagnostics read
	// it).
	switch outcome {
	case shard.Error:
		child.finishedErr = err
		child.setState(Failed)
	case shard.Stop:
		child.finishedOutput = out
		child.setState(Stopped)
	default:
		child.finishedOutput = out
		child.setState(Ended)
	}

	switch outcome {
	case shard.Return:
		parentCtx.flow = shard.Continue
	case shard.Restart:
		parentCtx.flow = shard.Restart
		parentCtx.storage = child.ctx.storage
	case shard.Stop:
		parentCtx.flow = shard.Stop
	case shard.Error:
		parentCtx.flow = shard.Error
		parentCtx.flowMsg = child.ctx.flowMsg
	default:
		parentCtx.flow = shard.Continue
	}
	return out, err
}
