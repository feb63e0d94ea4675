package abi_test

import (
	"context"
	"testing"

	"github.com/zond/wiremesh/abi"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/stdshards"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

func TestVTableRegisterAndRunWire(t *testing.T) {
	rt := abi.NewRuntime()
	v := abi.New(rt)

	stdshards.Register(rt.Registry)
	v.RegisterShard("Extra", func() shard.Shard { return &stdshards.Pass{} })

	constShard, err := rt.Registry.Create("Const")
	if err != nil {
		t.Fatal(err)
	}
	cs := constShard.(*stdshards.Const)
	if err := cs.SetParam(0, value.Int_(9)); err != nil {
		t.Fatal(err)
	}
	passShard, err := rt.Registry.Create("Extra")
	if err != nil {
		t.Fatal(err)
	}

	w, err := v.CreateWire("vtable-wire", []shard.Shard{cs, passShard}, wire.Config{Pure: true})
	if err != nil {
		t.Fatal(err)
	}

	m := v.CreateMesh(context.Background())
	if _, err := v.Schedule(m, w, value.None_(), typeinfo.TypeInfo{}); err != nil {
		t.Fatal(err)
	}
	for w.IsRunning() {
		if !v.Tick(m) {
			break
		}
	}
	info := v.GetWireInfo(w)
	if info.Name != "vtable-wire" {
		t.Fatalf("unexpected info: %+v", info)
	}
	v.DestroyMesh(m)
}

func TestVTableVariables(t *testing.T) {
	rt := abi.NewRuntime()
	v := abi.New(rt)

	w, err := v.CreateWire("vars", nil, wire.Config{})
	if err != nil {
		t.Fatal(err)
	}
	v.SetExternalVariable(w, "x", value.Int_(42))
	got := v.ReferenceWireVariable(w, "x")
	if got.IntVal() != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestVTableCloneDestroy(t *testing.T) {
	rt := abi.NewRuntime()
	v := abi.New(rt)

	src := value.String_("hello")
	var dst value.Value
	v.CloneVar(&dst, src)
	if dst.StringVal() != "hello" {
		t.Fatalf("clone mismatch: %v", dst.StringVal())
	}
	v.DestroyVar(&dst)
	if dst.Kind != value.None {
		t.Fatalf("destroy did not reset kind: %v", dst.Kind)
	}
	value.Destroy(&src)
}
