package stdshards

import (
	"context"
	"testing"

	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

func runToCompletion(t *testing.T, m *mesh.Mesh, w *wire.Wire, input value.Value, inputType typeinfo.TypeInfo) {
	t.Helper()
	if _, err := m.Schedule(w, input, true, inputType); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	for w.IsRunning() {
		m.Tick()
	}
}

// TestConstPassthrough exercises a one-shard wire whose Const always
// produces the same value regardless of input.
func TestConstPassthrough(t *testing.T) {
	reg := shard.NewRegistry()
	Register(reg)

	s, err := reg.Create("Const")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c := s.(*Const)
	if err := c.SetParam(0, value.Int_(42)); err != nil {
		t.Fatalf("setparam: %v", err)
	}

	w, err := wire.New("s1", []shard.Shard{c}, wire.Config{})
	if err != nil {
		t.Fatalf("new wire: %v", err)
	}

	m := mesh.New(context.Background())
	runToCompletion(t, m, w, value.None_(), typeinfo.NoneType)

	if err := w.FinishedError(); err != nil {
		t.Fatalf("finished with error: %v", err)
	}
	out := w.FinishedOutput()
	if out.Kind != value.Int || out.IntVal() != 42 {
		t.Fatalf("got %v, want Int(42)", out)
	}
}

// TestArithmeticAndVariable exercises Set/Get/Math.Add: store a constant
// into a variable, read it back, and add an operand.
func TestArithmeticAndVariable(t *testing.T) {
	reg := shard.NewRegistry()
	Register(reg)

	constShard, _ := reg.Create("Const")
	cs := constShard.(*Const)
	if err := cs.SetParam(0, value.Int_(7)); err != nil {
		t.Fatalf("const setparam: %v", err)
	}

	setShard, _ := reg.Create("Set")
	ss := setShard.(*SetVar)
	if err := ss.SetParam(0, value.String_("x")); err != nil {
		t.Fatalf("set setparam: %v", err)
	}

	getShard, _ := reg.Create("Get")
	gs := getShard.(*Get)
	if err := gs.SetParam(0, value.String_("x")); err != nil {
		t.Fatalf("get setparam: %v", err)
	}

	mathShard, _ := reg.Create("Math.Add")
	ms := mathShard.(*MathBinary)
	if err := ms.SetParam(0, value.Int_(3)); err != nil {
		t.Fatalf("math setparam: %v", err)
	}

	w, err := wire.New("s2", []shard.Shard{cs, ss, gs, ms}, wire.Config{})
	if err != nil {
		t.Fatalf("new wire: %v", err)
	}

	m := mesh.New(context.Background())
	runToCompletion(t, m, w, value.None_(), typeinfo.NoneType)

	if err := w.FinishedError(); err != nil {
		t.Fatalf("finished with error: %v", err)
	}
	out := w.FinishedOutput()
	if out.Kind != value.Int || out.IntVal() != 10 {
		t.Fatalf("got %v, want Int(10)", out)
	}

	cell, ok := w.Locals().Get("x")
	if !ok {
		t.Fatalf("expected local variable %q to exist", "x")
	}
	if cell.Value.Kind != value.Int || cell.Value.IntVal() != 7 {
		t.Fatalf("variable x = %v, want Int(7)", cell.Value)
	}
}

// TestForRangeAccumulates exercises ForRange's subshard recursion: Push
// each loop index onto a sequence variable.
func TestForRangeAccumulates(t *testing.T) {
	reg := shard.NewRegistry()
	Register(reg)

	pushShard, _ := reg.Create("Push")
	ps := pushShard.(*Push)
	if err := ps.SetParam(0, value.String_("seen")); err != nil {
		t.Fatalf("push setparam: %v", err)
	}

	forShard, _ := reg.Create("ForRange")
	fr := forShard.(*ForRange)
	if err := fr.SetParam(0, value.Int_(0)); err != nil {
		t.Fatalf("from: %v", err)
	}
	if err := fr.SetParam(1, value.Int_(3)); err != nil {
		t.Fatalf("to: %v", err)
	}
	if err := fr.SetParam(2, wrapShards([]shard.Shard{ps})); err != nil {
		t.Fatalf("shards: %v", err)
	}

	w, err := wire.New("s3", []shard.Shard{fr}, wire.Config{})
	if err != nil {
		t.Fatalf("new wire: %v", err)
	}

	m := mesh.New(context.Background())
	runToCompletion(t, m, w, value.None_(), typeinfo.NoneType)

	if err := w.FinishedError(); err != nil {
		t.Fatalf("finished with error: %v", err)
	}

	cell, ok := w.Locals().Get("seen")
	if !ok {
		t.Fatalf("expected local variable %q to exist", "seen")
	}
	items := cell.Value.SeqVal()
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, it := range items {
		if it.Kind != value.Int || it.IntVal() != int64(i) {
			t.Fatalf("item %d = %v, want Int(%d)", i, it, i)
		}
	}
}
