// Package wire implements the per-wire coroutine lifecycle: the
// Stopped→Prepared→Starting→Iterating→IterationEnded↺/Ended/Failed→Stopped
// state machine, warmup/activate/cleanup sequencing, and cooperative
// suspension. Each wire's coroutine body runs on its own goroutine,
// parked on a channel at every suspension point and resumed in lock-step
// by the caller's Tick — so at most one wire's code runs at a time,
// keeping wires on the same mesh single-threaded-cooperative.
package wire

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/wiremesh/compose"
	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// State is a wire's position in the lifecycle state machine.
type State int

const (
	Stopped State = iota
	Prepared
	Starting
	Iterating
	IterationEnded
	Ended
	Failed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Prepared:
		return "Prepared"
	case Starting:
		return "Starting"
	case Iterating:
		return "Iterating"
	case IterationEnded:
		return "IterationEnded"
	case Ended:
		return "Ended"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config is a wire's fixed configuration.
type Config struct {
	Looped    bool
	Unsafe    bool
	Pure      bool
	StackSize int // retained for fidelity/observability; Go goroutines grow their own stacks, so this is not allocated, only recorded (e.g. for diag/abi surfaces that report it).
}

// MeshView is the subset of mesh.Mesh a wire needs for the scope.Chain's
// mesh-level tables, expressed as an interface so package wire never
// imports package mesh (mesh imports wire, not vice versa).
type MeshView interface {
	SharedTable() *scope.Table
	RefsTable() *scope.Table
}

// Wire is an ordered shard sequence run as one coroutine.
type Wire struct {
	name   string
	shards []shard.Shard
	Config

	locals   *scope.Table
	external *scope.Table
	parent   *Wire // set while running as a subwire (wire's EnclosingLocals chain)
	mesh     MeshView

	mu    sync.Mutex
	state State

	inputType, outputType typeinfo.TypeInfo
	exposedInfo            []typeinfo.ExposedTypeInfo
	requiredInfo            []typeinfo.ExposedTypeInfo
	flowStopper             bool

	finishedOutput value.Value
	finishedErr    error
	dangling       []string

	ctx *Context

	resumeCh chan struct{}
	yieldCh  chan struct{}

	rootTickInput value.Value
	shouldStop    bool
	onLastResume  bool
}

// New constructs a wire owning shards in order. Shards implementing the
// Owned helper (embedded shard.Owned) are claimed for this wire; placing an
// already-claimed shard into a second wire is a hard error.
func New(name string, shards []shard.Shard, cfg Config) (*Wire, error) {
	w := &Wire{
		name:     name,
		shards:   shards,
		Config:   cfg,
		locals:   scope.NewTable(),
		external: scope.NewTable(),
		state:    Stopped,
	}
	for _, s := range shards {
		if o, ok := s.(interface{ Claim(shard.WireHandle) error }); ok {
			if err := o.Claim(w); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}
	return w, nil
}

// WireName satisfies shard.WireHandle.
func (w *Wire) WireName() string { return w.name }

// SetMesh attaches the mesh-level shared/refs tables this wire should see
// in its scope.Chain. Nil detaches it (a standalone wire with no mesh).
func (w *Wire) SetMesh(m MeshView) { w.mesh = m }

// Locals exposes the wire's own variable table (used by shards implementing
// Set/Ref/Update/Push; also read for dangling-refcount diagnostics).
func (w *Wire) Locals() *scope.Table { return w.locals }

// External exposes the wire's embedder-owned variable table.
func (w *Wire) External() *scope.Table { return w.external }

func (w *Wire) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wire) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// IsRunning reports whether the wire's coroutine handle is live.
func (w *Wire) IsRunning() bool {
	switch w.State() {
	case Prepared, Starting, Iterating, IterationEnded:
		return true
	default:
		return false
	}
}

// NextDeadline reports the time at which this wire next becomes eligible
// to tick (the zero Time means "ready now"). Used by mesh.Mesh.Run to pick
// a sleep duration instead of busy-polling.
func (w *Wire) NextDeadline() time.Time {
	if w.ctx == nil {
		return zeroTime
	}
	return w.ctx.next
}

func (w *Wire) FinishedOutput() value.Value { return w.finishedOutput }
func (w *Wire) FinishedError() error         { return w.finishedErr }
func (w *Wire) Dangling() []string           { return w.dangling }
func (w *Wire) FlowStopper() bool            { return w.flowStopper }
func (w *Wire) OutputType() typeinfo.TypeInfo { return w.outputType }

// Compose runs the composer over this wire's shards, seeded by inputType
// and the variables visible from the enclosing scope, and stores the
// result on the wire.
func (w *Wire) Compose(c *compose.Composer, inputType typeinfo.TypeInfo, inherited typeinfo.Shared) []shard.ComposeDiagnostic {
	data := shard.InstanceData{InputType: inputType, Shared: inherited, Wire: w}
	result, diags := c.ComposeShards(w.shards, data)
	w.inputType = inputType
	w.outputType = result.OutputType
	w.exposedInfo = result.ExposedInfo
	w.requiredInfo = result.RequiredInfo
	w.flowStopper = result.FlowStopper
	return diags
}

func (w *Wire) RequiredInfo() []typeinfo.ExposedTypeInfo { return w.requiredInfo }
func (w *Wire) ExposedInfo() []typeinfo.ExposedTypeInfo  { return w.exposedInfo }

// Prepare runs warmup on every shard in order, then allocates the
// coroutine (a goroutine parked until the first Tick).
// No shard may suspend during warmup, so this runs synchronously
// on the calling goroutine before the coroutine is spawned.
func (w *Wire) Prepare(std context.Context) error {
	w.ctx = newContext(w, std)
	for _, s := range w.shards {
		if warmer, ok := s.(shard.Warmer); ok {
			if err := warmer.Warmup(w.ctx); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	w.resumeCh = make(chan struct{})
	w.yieldCh = make(chan struct{})
	w.setState(Prepared)
	go w.coroutine()
	return nil
}

// Start transitions to Starting and records input as the wire's per-tick
// input.
func (w *Wire) Start(input value.Value) {
	w.rootTickInput = input
	w.setState(Starting)
}

// Tick resumes the coroutine if its resume deadline has elapsed. It
// blocks until the coroutine reaches its next suspension point or
// finishes, so only one wire's code ever runs at a time.
func (w *Wire) Tick(now time.Time) {
	if !w.IsRunning() {
		return
	}
	if now.Before(w.ctx.next) {
		return
	}
	w.resumeCh <- struct{}{}
	<-w.yieldCh
}

// RequestStop sets the graceful-stop flag and, if the coroutine is
// suspended, forces one more resume with onLastResume=true so cleanup
// runs inside the coroutine. It blocks until the coroutine observes the
// request and finishes.
func (w *Wire) RequestStop() {
	if !w.IsRunning() {
		return
	}
	w.shouldStop = true
	w.onLastResume = true
	w.resumeCh <- struct{}{}
	<-w.yieldCh
}

// CancelFlow records an activation-error message and arranges for the
// coroutine to observe it at its next suspension point.
func (w *Wire) CancelFlow(message string) {
	w.ctx.SetFlowError(message)
}

func (w *Wire) chain() scope.Chain {
	var enclosing []*scope.Table
	for p := w.parent; p != nil; p = p.parent {
		enclosing = append([]*scope.Table{p.locals}, enclosing...)
	}
	var shared, refs *scope.Table
	if w.mesh != nil {
		shared = w.mesh.SharedTable()
		refs = w.mesh.RefsTable()
	}
	return scope.Chain{
		Locals:          w.locals,
		EnclosingLocals: enclosing,
		External:        w.external,
		MeshShared:      shared,
		MeshRefs:        refs,
	}
}
