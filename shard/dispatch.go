package shard

import "github.com/zond/wiremesh/value"

// InlineOp tags a shard with a well-known operation id so the wire runner
// can recognize it without comparing its Name() string. In Go, unlike
// the original's C++ virtual-call elision, there is no meaningful
// dispatch-overhead difference between this and Activate — the tag is
// preserved because it is part of the observable contract (Shard.InlineOp
// exposes it as shard metadata), but the wire runner's actual fast path
// is the optional InlineActivator interface below. This is an
// optimization, not a correctness requirement: any shard that doesn't
// implement InlineActivator simply falls through to Activate.
type InlineOp int

const (
	OpNone InlineOp = iota
	OpConst
	OpPass
	OpInput
	OpSleep
	OpForRange
	OpRepeat
	OpOnce
	OpSet
	OpUpdate
	OpSwap
	OpPush
	OpCompare
	OpLogic
	OpMathBinary
)

// InlineActivator is an optional fast path a shard may implement for its
// tagged InlineOp. The wire runner prefers this over Activate when present.
type InlineActivator interface {
	InlineActivate(ctx Context, input value.Value) (value.Value, error)
}
