// Package mesh implements the scheduler that multiplexes wires
// cooperatively on one driver goroutine: scheduling, ticking,
// termination, shared/ref variable tables, and observer hooks.
package mesh

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
	"github.com/zond/wiremesh/wire"
)

const maxFailureHistory = 64

// Failure records one wire's terminal error, for Mesh.Errors/FailedWires.
type Failure struct {
	WireName string
	Err      error
	At       time.Time
}

// Mesh is the cooperative scheduler owning a set of running wires, a
// shared-variable table, external-variable refs, and the instance data
// visible to all hosted wires.
type Mesh struct {
	Observer Observer
	Logger   Logger
	Composer *compose.Composer

	// SharedInfo is merged into every wire's InstanceData.Shared at compose
	// time.
	SharedInfo typeinfo.Shared

	mu       sync.Mutex
	reentry  bool
	wires    []*wire.Wire
	shared   *scope.Table
	refs     *scope.Table
	failures []Failure
	std      context.Context
}

// New creates an empty mesh. std is forwarded to every wire's Prepare as
// its cancellation context.
func New(std context.Context) *Mesh {
	if std == nil {
		std = context.Background()
	}
	return &Mesh{
		Observer: NoopObserver{},
		Logger:   noopLogger{},
		Composer: compose.New(),
		shared:   scope.NewTable(),
		refs:     scope.NewTable(),
		std:      std,
	}
}

// SharedTable / RefsTable satisfy wire.MeshView.
func (m *Mesh) SharedTable() *scope.Table { return m.shared }
func (m *Mesh) RefsTable() *scope.Table   { return m.refs }

// SetRef installs a mesh-wide external variable (embedder-owned storage,
// bypassing the refcount machinery), the mesh-level analogue of a wire's
// external table.
func (m *Mesh) SetRef(name string, v value.Value) {
	m.refs.Set(name, scope.NewExternalCell(name, v))
}

// ReferenceGlobalVariable creates-on-read inside the mesh's shared table
// and increments its refcount.
func (m *Mesh) ReferenceGlobalVariable(name string) *scope.Cell {
	if cell, ok := m.shared.Get(name); ok {
		return cell.Reference()
	}
	cell := scope.NewCell(name)
	m.shared.Set(name, cell)
	return cell
}

// ReleaseVariable decrements a shared variable's refcount, destroying it at
// zero (a no-op for external cells, per scope.Cell.Release).
func (m *Mesh) ReleaseVariable(name string) {
	if cell, ok := m.shared.Get(name); ok {
		cell.Release()
	}
}

// Schedule optionally composes w, links it to the mesh, prepares and
// starts it with input, and adds it to the active set. Wires are kept in
// scheduling order (a slice, not the wake-time heap) so Tick always
// processes them in the order they were scheduled.
func (m *Mesh) Schedule(w *wire.Wire, input value.Value, doCompose bool, inputType typeinfo.TypeInfo) ([]shard.ComposeDiagnostic, error) {
	var diags []shard.ComposeDiagnostic
	if doCompose {
		m.Observer.BeforeCompose(w)
		diags = w.Compose(m.Composer, inputType, m.SharedInfo)
		for _, d := range diags {
			if d.Fatal {
				return diags, errors.Errorf("compose: %s: %s", d.ShardName, d.Message)
			}
		}
	}
	w.SetMesh(m)
	m.Observer.BeforePrepare(w)
	if err := w.Prepare(m.std); err != nil {
		return diags, errors.WithStack(err)
	}
	m.Observer.BeforeStart(w)
	w.Start(input)

	m.mu.Lock()
	m.wires = append(m.wires, w)
	m.mu.Unlock()
	return diags, nil
}

// Tick advances every scheduled wire once, in scheduling order, unlinking
// any that stopped running. It returns false iff at
// least one wire failed this tick.
func (m *Mesh) Tick() bool {
	m.mu.Lock()
	if m.reentry {
		m.mu.Unlock()
		panic("mesh: Tick called re-entrantly")
	}
	m.reentry = true
	wires := append([]*wire.Wire(nil), m.wires...)
	m.mu.Unlock()

	now := time.Now()
	ok := true
	var remaining []*wire.Wire
	for _, w := range wires {
		m.Observer.BeforeTick(w)
		w.Tick(now)
		if w.IsRunning() {
			remaining = append(remaining, w)
			continue
		}
		if err := w.FinishedError(); err != nil {
			ok = false
			m.recordFailure(w.WireName(), err)
		}
		for _, name := range w.Dangling() {
			m.Logger.Event("dangling_variable", map[string]any{"wire": w.WireName(), "variable": name})
		}
		m.Observer.BeforeStop(w)
	}

	m.mu.Lock()
	m.wires = remaining
	m.reentry = false
	m.mu.Unlock()
	return ok
}

// Terminate stops every scheduled wire, clears the shared table (logging
// any dangling refcount rather than silently dropping it), and empties the
// active set.
func (m *Mesh) Terminate() {
	m.mu.Lock()
	wires := append([]*wire.Wire(nil), m.wires...)
	m.wires = nil
	m.mu.Unlock()

	for _, w := range wires {
		w.RequestStop()
	}
	m.shared.Each(func(name string, c *scope.Cell) {
		if c.Refcount() > 0 {
			m.Logger.Event("dangling_variable", map[string]any{"wire": "", "variable": name})
		}
	})
	m.shared = scope.NewTable()
}

func (m *Mesh) recordFailure(wireName string, err error) {
	m.Logger.Event("wire_failed", map[string]any{"wire": wireName, "error": err.Error()})
	m.mu.Lock()
	m.failures = append(m.failures, Failure{WireName: wireName, Err: err, At: time.Now()})
	if len(m.failures) > maxFailureHistory {
		m.failures = m.failures[len(m.failures)-maxFailureHistory:]
	}
	m.mu.Unlock()
}

// Wires returns a snapshot of the currently scheduled wires, for admin
// introspection (cli's wire-listing command).
func (m *Mesh) Wires() []*wire.Wire {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*wire.Wire(nil), m.wires...)
}

// FailedWires lists the names of wires that have failed so far.
func (m *Mesh) FailedWires() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.failures))
	for i, f := range m.failures {
		out[i] = f.WireName
	}
	return out
}

// Errors returns the retained failure history (most recent last).
func (m *Mesh) Errors() []Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Failure(nil), m.failures...)
}

// Run drives Tick in a loop until every scheduled wire has stopped, or ctx
// is done. It sleeps between ticks rather than busy-spinning: a real
// driver loop only has useful work to do once a wire's suspend deadline
// elapses, so Run sleeps until the earliest wire NextDeadline, but never
// less than minPoll. Schedule/Tick are the
// primitives a host composes; this is the batteries-included convenience
// loop for cmd/wiremesh and tests.
func (m *Mesh) Run(ctx context.Context, minPoll time.Duration) {
	for {
		m.mu.Lock()
		wires := append([]*wire.Wire(nil), m.wires...)
		m.mu.Unlock()
		if len(wires) == 0 {
			return
		}

		sleep := m.nextWake(wires, minPoll)
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.Terminate()
			return
		case <-timer.C:
			m.Tick()
		}
	}
}

// nextWake uses a min-heap over each wire's NextDeadline to find how long
// Run may sleep before any wire could have useful work, floored at minPoll
// so a zero/past deadline doesn't spin.
func (m *Mesh) nextWake(wires []*wire.Wire, minPoll time.Duration) time.Duration {
	h := newHeap(func(a, b time.Time) bool { return a.Before(b) })
	now := time.Now()
	for _, w := range wires {
		h.Push(w.NextDeadline())
	}
	earliest, ok := h.Peek()
	if !ok {
		return minPoll
	}
	if d := earliest.Sub(now); d > minPoll {
		return d
	}
	return minPoll
}
