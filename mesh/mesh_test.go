package mesh_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

// funcShard mirrors the wire package's own test helper (package-local copy
// to keep mesh's tests independent of wire_test.go's unexported types).
type funcShard struct {
	shard.Base
	name string
	in   []typeinfo.TypeInfo
	out  []typeinfo.TypeInfo
	fn   func(ctx shard.Context, in value.Value) (value.Value, error)
}

func (f *funcShard) Name() string                    { return f.name }
func (f *funcShard) Hash() [16]byte                  { return [16]byte{} }
func (f *funcShard) Parameters() []shard.ParamInfo   { return nil }
func (f *funcShard) GetParam(int) value.Value        { return value.Value{} }
func (f *funcShard) SetParam(int, value.Value) error { return nil }
func (f *funcShard) InputTypes() []typeinfo.TypeInfo  { return f.in }
func (f *funcShard) OutputTypes() []typeinfo.TypeInfo { return f.out }
func (f *funcShard) Activate(ctx shard.Context, in value.Value) (value.Value, error) {
	return f.fn(ctx, in)
}

func anyType() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{{Kind: value.Any}} }

// boomChild is a one-shot wire whose only shard fails with an error
// containing "boom".
func boomChild(t *testing.T) *wire.Wire {
	t.Helper()
	fail := &funcShard{name: "Boom", in: anyType(), out: anyType(),
		fn: func(shard.Context, value.Value) (value.Value, error) {
			return value.Value{}, errors.New("boom")
		}}
	w, err := wire.New("child", []shard.Shard{fail}, wire.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// parentInvoking builds a parent wire with a single shard that calls
// mesh.RunBranch on child with policy, recording whatever error RunBranch
// returns onto the parent's own flow (Error if non-nil, Continue otherwise),
// so the parent wire's own terminal state reflects the branch outcome.
func parentInvoking(t *testing.T, child *wire.Wire, policy mesh.FailurePolicy) *wire.Wire {
	t.Helper()
	invoke := &funcShard{name: "Invoke", in: anyType(), out: anyType(),
		fn: func(ctx shard.Context, in value.Value) (value.Value, error) {
			wctx, ok := ctx.(*wire.Context)
			if !ok {
				t.Fatal("expected *wire.Context")
			}
			out, err := mesh.RunBranch(wctx, child, in, policy)
			if err != nil {
				return value.Value{}, err
			}
			return out, nil
		}}
	w, err := wire.New("parent", []shard.Shard{invoke}, wire.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// TestRunBranchKnownPropagates: with FailurePolicy Known, the child's
// "boom" failure surfaces as the parent's own tick failure.
func TestRunBranchKnownPropagates(t *testing.T) {
	child := boomChild(t)
	p := parentInvoking(t, child, mesh.Known)

	m := mesh.New(context.Background())
	if _, err := m.Schedule(p, value.Value{}, false, typeinfo.TypeInfo{Kind: value.Any}); err != nil {
		t.Fatal(err)
	}
	m.Tick()

	if p.State() != wire.Failed {
		t.Fatalf("expected parent Failed, got %v", p.State())
	}
	if err := p.FinishedError(); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected parent error containing %q, got %v", "boom", err)
	}
	if child.State() != wire.Failed {
		t.Fatalf("expected child Failed, got %v", child.State())
	}
}

// TestRunBranchIgnoreSwallows: with FailurePolicy Ignore, the parent tick
// succeeds even though the child wire itself failed.
func TestRunBranchIgnoreSwallows(t *testing.T) {
	child := boomChild(t)
	p := parentInvoking(t, child, mesh.Ignore)

	m := mesh.New(context.Background())
	if _, err := m.Schedule(p, value.Value{}, false, typeinfo.TypeInfo{Kind: value.Any}); err != nil {
		t.Fatal(err)
	}
	m.Tick()

	if p.State() != wire.Ended {
		t.Fatalf("expected parent Ended, got %v", p.State())
	}
	if err := p.FinishedError(); err != nil {
		t.Fatalf("expected no parent error, got %v", err)
	}
	if child.State() != wire.Failed {
		t.Fatalf("expected child still marked Failed even though ignored, got %v", child.State())
	}
}

// TestFailedWiresAndErrors checks the mesh's retained failure history after
// a propagating branch failure.
func TestFailedWiresAndErrors(t *testing.T) {
	child := boomChild(t)
	p := parentInvoking(t, child, mesh.Everything)

	m := mesh.New(context.Background())
	if _, err := m.Schedule(p, value.Value{}, false, typeinfo.TypeInfo{Kind: value.Any}); err != nil {
		t.Fatal(err)
	}
	m.Tick()

	names := m.FailedWires()
	if len(names) != 1 || names[0] != "parent" {
		t.Fatalf("expected FailedWires==[parent], got %v", names)
	}
	errs := m.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Err.Error(), "boom") {
		t.Fatalf("expected one recorded failure containing boom, got %+v", errs)
	}
}

// TestMeshRunDrainsUntilIdle exercises the convenience Run loop against a
// short-lived, non-looped wire and checks it returns once the wire stops.
func TestMeshRunDrainsUntilIdle(t *testing.T) {
	pass := &funcShard{name: "Pass", in: anyType(), out: anyType(),
		fn: func(_ shard.Context, in value.Value) (value.Value, error) { return in, nil }}
	w, err := wire.New("solo", []shard.Shard{pass}, wire.Config{})
	if err != nil {
		t.Fatal(err)
	}
	m := mesh.New(context.Background())
	if _, err := m.Schedule(w, value.Int_(1), false, typeinfo.TypeInfo{Kind: value.Any}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the wire finished")
	}
	if w.State() != wire.Ended {
		t.Fatalf("expected wire Ended, got %v", w.State())
	}
}
