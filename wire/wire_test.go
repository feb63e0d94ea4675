package wire_test

import (
	"context"
	"testing"
	"time"

	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

// funcShard is a minimal test-only shard.Shard wrapping a plain function,
// so the engine tests don't depend on the stdshards operator package.
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

func anyType() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{{Kind: value.Any}} }
func noneType() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{{Kind: value.None}} }

func constShard(name string, v value.Value) *funcShard {
	return &funcShard{name: name, in: noneType(), out: []typeinfo.TypeInfo{{Kind: v.Kind}},
		fn: func(shard.Context, value.Value) (value.Value, error) { return v, nil }}
}

func passShard() *funcShard {
	return &funcShard{name: "Pass", in: anyType(), out: anyType(),
		fn: func(_ shard.Context, in value.Value) (value.Value, error) { return in, nil }}
}

// TestConstPassthrough: [Const(42), Pass] with no input finishes Ended
// with output Int(42).
func TestConstPassthrough(t *testing.T) {
	w, err := wire.New("s1", []shard.Shard{constShard("Const", value.Int_(42)), passShard()}, wire.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Prepare(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Start(value.Value{})
	w.Tick(time.Now())

	if w.State() != wire.Ended {
		t.Fatalf("expected Ended, got %v", w.State())
	}
	if w.FinishedOutput().IntVal() != 42 {
		t.Fatalf("expected 42, got %v", w.FinishedOutput().IntVal())
	}
}

// TestArithmeticAndVariable: [Const(3), Add(4), Set("x"), Get("x"),
// Multiply(2)] -> 14, with x == 7 in the wire's locals until cleanup.
func TestArithmeticAndVariable(t *testing.T) {
	add4 := &funcShard{name: "Add4", in: []typeinfo.TypeInfo{{Kind: value.Int}}, out: []typeinfo.TypeInfo{{Kind: value.Int}},
		fn: func(_ shard.Context, in value.Value) (value.Value, error) {
			return value.Int_(in.IntVal() + 4), nil
		}}
	setX := &funcShard{name: "SetX", in: []typeinfo.TypeInfo{{Kind: value.Int}}, out: []typeinfo.TypeInfo{{Kind: value.Int}},
		fn: func(ctx shard.Context, in value.Value) (value.Value, error) {
			ctx.Scope().Reference("x").Value = value.Int_(in.IntVal())
			return in, nil
		}}
	getX := &funcShard{name: "GetX", in: []typeinfo.TypeInfo{{Kind: value.Int}}, out: []typeinfo.TypeInfo{{Kind: value.Int}},
		fn: func(ctx shard.Context, _ value.Value) (value.Value, error) {
			cell, _ := ctx.Scope().Lookup("x")
			return cell.Value, nil
		}}
	mul2 := &funcShard{name: "Mul2", in: []typeinfo.TypeInfo{{Kind: value.Int}}, out: []typeinfo.TypeInfo{{Kind: value.Int}},
		fn: func(_ shard.Context, in value.Value) (value.Value, error) {
			return value.Int_(in.IntVal() * 2), nil
		}}

	w, err := wire.New("s2", []shard.Shard{constShard("Const", value.Int_(3)), add4, setX, getX, mul2}, wire.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Prepare(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Start(value.Value{})
	w.Tick(time.Now())

	if w.State() != wire.Ended {
		t.Fatalf("expected Ended, got %v", w.State())
	}
	if got := w.FinishedOutput().IntVal(); got != 14 {
		t.Fatalf("expected 14, got %v", got)
	}
	cell, ok := w.Locals().Get("x")
	if !ok || cell.Value.IntVal() != 7 {
		t.Fatalf("expected x==7 in locals, got %+v (ok=%v)", cell, ok)
	}
}

// TestLoopedSuspendCounter: a looped wire increments a variable once per
// tick until it reaches 5, then holds on subsequent ticks.
func TestLoopedSuspendCounter(t *testing.T) {
	step := &funcShard{name: "Step", in: anyType(), out: anyType(),
		fn: func(ctx shard.Context, in value.Value) (value.Value, error) {
			cell := ctx.Scope().Reference("i")
			if cell.Value.Kind == value.None {
				cell.Value = value.Int_(0)
			}
			if cell.Value.IntVal() < 5 {
				cell.Value = value.Int_(cell.Value.IntVal() + 1)
			}
			return in, nil
		}}
	w, err := wire.New("s3", []shard.Shard{step}, wire.Config{Looped: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Prepare(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Start(value.Value{})

	base := time.Now()
	for i := 0; i < 10; i++ {
		w.Tick(base.Add(time.Duration(i) * 10 * time.Millisecond))
	}

	cell, ok := w.Locals().Get("i")
	if !ok {
		t.Fatal("expected variable i to exist")
	}
	if got := cell.Value.IntVal(); got != 5 {
		t.Fatalf("expected i==5 after 10 ticks, got %v", got)
	}
	if w.State() != wire.IterationEnded {
		t.Fatalf("expected a looped wire to still be IterationEnded between ticks, got %v", w.State())
	}
}
