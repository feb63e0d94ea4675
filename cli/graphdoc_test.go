package cli

import (
	"context"
	"testing"

	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/stdshards"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

const constPassDoc = `{
	"name": "doc",
	"shards": [
		{"shard": "Const", "params": {"Value": 42}},
		{"shard": "Pass"}
	]
}`

func TestGraphDocBuildAndRun(t *testing.T) {
	reg := shard.NewRegistry()
	stdshards.Register(reg)

	doc, err := ParseGraphDoc([]byte(constPassDoc))
	if err != nil {
		t.Fatal(err)
	}
	w, err := doc.Build(reg)
	if err != nil {
		t.Fatal(err)
	}
	if w.WireName() != "doc" {
		t.Fatalf("unexpected wire name %q", w.WireName())
	}
	if got := w.Shards()[0].GetParam(0); got.IntVal() != 42 {
		t.Fatalf("Const param = %v, want 42", got)
	}

	m := mesh.New(context.Background())
	if _, err := m.Schedule(w, value.None_(), true, typeinfo.NoneType); err != nil {
		t.Fatal(err)
	}
	for w.IsRunning() {
		m.Tick()
	}
	if got := w.FinishedOutput(); got.IntVal() != 42 {
		t.Fatalf("finished output = %v, want Int(42)", got)
	}
}

func TestGraphDocUnknownShard(t *testing.T) {
	doc, err := ParseGraphDoc([]byte(`{"name": "x", "shards": [{"shard": "Nope"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Build(shard.NewRegistry()); err == nil {
		t.Fatal("expected unknown-shard error")
	}
}

func TestGraphDocUnknownParam(t *testing.T) {
	reg := shard.NewRegistry()
	stdshards.Register(reg)
	doc, err := ParseGraphDoc([]byte(`{"name": "x", "shards": [{"shard": "Const", "params": {"Nope": 1}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Build(reg); err == nil {
		t.Fatal("expected unknown-parameter error")
	}
}
