package shard

import (
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// AllowedType is the TypeInfo type used in ParamInfo.AllowedType.
type AllowedType = typeinfo.TypeInfo

// InstanceData is the compose-time bundle threaded through a shard
// sequence: the input type seen so far, the variables visible in scope,
// the owning wire (opaque handle), and target-device hints.
type InstanceData struct {
	InputType      typeinfo.TypeInfo
	Shared         typeinfo.Shared
	Wire           WireHandle
	OnWorkerThread bool
	// Recur composes a nested shard sequence (a parameter that is itself a
	// shards value) using the same instance data, for subshard-containing
	// shards.
	Recur func(shards []Shard, data InstanceData) (ComposeResult, []ComposeDiagnostic)
}

// WireHandle is an opaque reference to the wire a shard is being composed
// for — just enough identity for shards that need to know "which wire am I
// in" without package shard importing package wire.
type WireHandle interface {
	WireName() string
}

// ComposeResult is the composer's output for a shard sequence.
type ComposeResult struct {
	OutputType   typeinfo.TypeInfo
	ExposedInfo  []typeinfo.ExposedTypeInfo
	RequiredInfo []typeinfo.ExposedTypeInfo
	FlowStopper  bool
}

// ComposeDiagnostic is one warning/error emitted during compose.
type ComposeDiagnostic struct {
	ShardName string
	Message   string
	Fatal     bool
}

// Shard is the operator contract. Only Activate is required;
// Compose, Warmup, Cleanup, NextFrame, GetState/SetState are optional and
// are detected via the Composer/Warmer/Cleaner/FrameHook/Stateful
// interfaces below.
type Shard interface {
	// Name is the shard's registered name.
	Name() string
	// Hash is the shard's 128-bit content hash over (name, each
	// parameter's hash, optional getState).
	Hash() [16]byte

	Parameters() []ParamInfo
	GetParam(i int) value.Value
	// SetParam validates value against the slot's allowed types under
	// Match(isParameter=true, strict=true) before accepting it.
	SetParam(i int, v value.Value) error

	InputTypes() []typeinfo.TypeInfo
	OutputTypes() []typeinfo.TypeInfo

	Activate(ctx Context, input value.Value) (value.Value, error)

	ExposedVariables() []typeinfo.ExposedTypeInfo
	RequiredVariables() []typeinfo.ExposedTypeInfo

	// Special reports whether this shard is one of the compose-time
	// specials; most shards return SpecialNone.
	Special() Special

	// InlineOp reports this shard's inline fast-path tag, or OpNone if it
	// has none.
	InlineOp() InlineOp
}

// Composer is implemented by shards with a custom compose step.
type Composer interface {
	Compose(data InstanceData) (typeinfo.TypeInfo, []ComposeDiagnostic)
}

// Warmer is implemented by shards that need per-mesh-start setup.
type Warmer interface {
	Warmup(ctx Context) error
}

// Cleaner is implemented by shards that need per-mesh-stop teardown.
type Cleaner interface {
	Cleanup(ctx Context)
}

// FrameHook is implemented by shards that observe every frame boundary.
type FrameHook interface {
	NextFrame(ctx Context) error
}

// Stateful is implemented by shards with externally inspectable/settable
// state (used by Hash and by hot-reload/serialization).
type Stateful interface {
	GetState() value.Value
	SetState(value.Value) error
}

// FlowStopper is implemented by shards that unconditionally end the wire's
// current iteration (the Stop/Restart/Return/Fail family). The composer
// uses this, rather than comparing Name() against a fixed string set, to
// decide ComposeResult.FlowStopper for a sequence's last shard.
type FlowStopper interface {
	IsFlowStopper() bool
}

// Owned tracks the rule that a shard instance is uniquely owned by at
// most one wire. It is a small embeddable helper, not part of the Shard
// interface itself (ownership is a property the wire enforces on
// insertion, not one every shard implementation must hand-roll).
type Owned struct {
	owner WireHandle
}

// Claim marks the shard as owned by wire. It returns an error if already
// owned by a different wire.
func (o *Owned) Claim(wire WireHandle) error {
	if o.owner != nil && o.owner != wire {
		return errOwnedElsewhere
	}
	o.owner = wire
	return nil
}

// Release clears ownership (a shard "taken out" of a wire).
func (o *Owned) Release() { o.owner = nil }

func (o *Owned) Owner() WireHandle { return o.owner }
