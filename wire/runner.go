package wire

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
)

var zeroTime time.Time

// coroutine is the goroutine body spawned by Prepare. It blocks until the
// first Tick after Start, then runs the wire's loop to completion.
func (w *Wire) coroutine() {
	<-w.resumeCh
	if w.shouldStop {
		w.finishAndCleanup(value.Value{}, nil, Stopped)
		w.yieldCh <- struct{}{}
		return
	}
	w.runLoop()
	w.yieldCh <- struct{}{}
}

// runLoop is the coroutine body: reset flow, run nextFrame hooks,
// iterate shards, interpret the terminal flow state, loop again for
// looped wires.
func (w *Wire) runLoop() {
	for {
		w.setState(Iterating)
		w.ctx.flow = shard.Continue

		for _, s := range w.shards {
			if hook, ok := s.(shard.FrameHook); ok {
				if err := hook.NextFrame(w.ctx); err != nil {
					w.finishAndCleanup(value.Value{}, errors.WithStack(err), Failed)
					return
				}
			}
		}

		out, outcome, err := w.runShardsOnce(w.ctx, w.rootTickInput)
		switch outcome {
		case shard.Stop:
			w.finishAndCleanup(out, nil, Stopped)
			return
		case shard.Error:
			w.finishAndCleanup(out, err, Failed)
			return
		case shard.Restart:
			w.rootTickInput = w.ctx.storage
			w.setState(IterationEnded)
			if !w.yieldBetweenIterations() {
				w.finishAndCleanup(out, nil, Stopped)
				return
			}
		default:
			// Continue or Return reaching the end of the sequence: this
			// iteration completed normally.
			if w.Looped {
				w.setState(IterationEnded)
				if !w.yieldBetweenIterations() {
					w.finishAndCleanup(out, nil, Stopped)
					return
				}
				continue
			}
			w.finishAndCleanup(out, nil, Ended)
			return
		}
	}
}

// runShardsOnce drives the shard sequence once, threading each shard's
// output into the next shard's input — except for shards declaring
// SpecialInput/And/Or, which always see the wire's original per-iteration
// input rather than the previous shard's output. It returns the final
// value, the terminal shard.FlowState observed, and an error for the
// Error outcome.
func (w *Wire) runShardsOnce(ctx *Context, rootInput value.Value) (value.Value, shard.FlowState, error) {
	current := rootInput
	i := 0
	for i < len(w.shards) {
		s := w.shards[i]
		in := current
		if s.Special() != shard.SpecialNone {
			in = rootInput
		}
		ctx.flow = shard.Continue
		out, err := w.activateOne(ctx, s, in)
		if err != nil {
			ctx.SetFlowError(err.Error())
			return out, shard.Error, errors.WithStack(err)
		}
		current = out
		switch ctx.flow {
		case shard.Continue:
			i++
		case shard.Return:
			return current, shard.Return, nil
		case shard.Stop:
			return current, shard.Stop, nil
		case shard.Restart:
			return current, shard.Restart, nil
		case shard.Rebase:
			current = rootInput
			i = 0
		case shard.Error:
			return current, shard.Error, errors.New(ctx.flowMsg)
		default:
			i++
		}
	}
	return current, shard.Continue, nil
}

// activateOne prefers a shard's InlineActivator fast path when its
// InlineOp is set, falling through to Activate for everything else.
func (w *Wire) activateOne(ctx *Context, s shard.Shard, in value.Value) (value.Value, error) {
	if s.InlineOp() != shard.OpNone {
		if ia, ok := s.(shard.InlineActivator); ok {
			return ia.InlineActivate(ctx, in)
		}
	}
	return s.Activate(ctx, in)
}

// yieldBetweenIterations suspends once.
// It reports false if a graceful stop was requested while suspended, in
// which case the caller should finish instead of looping again.
func (w *Wire) yieldBetweenIterations() bool {
	w.ctx.next = zeroTime
	w.yieldCh <- struct{}{}
	<-w.resumeCh
	return !(w.shouldStop && w.onLastResume)
}

// finishAndCleanup records the iteration's result, runs cleanup on every
// shard in reverse order, scans wire-local variables for dangling
// (non-zero) refcounts, and sets the final state.
func (w *Wire) finishAndCleanup(out value.Value, err error, final State) {
	w.finishedOutput = out
	w.finishedErr = err
	for i := len(w.shards) - 1; i >= 0; i-- {
		if cleaner, ok := w.shards[i].(shard.Cleaner); ok {
			cleaner.Cleanup(w.ctx)
		}
	}
	w.locals.Each(func(name string, c *scope.Cell) {
		if c.Refcount() > 1 {
			w.dangling = append(w.dangling, name)
		}
	})
	w.setState(final)
}
