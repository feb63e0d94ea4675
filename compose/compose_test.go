package compose_test

import (
	"testing"

	"github.com/zond/wiremesh/compose"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// passShard is a minimal pass-through shard with configurable input and
// output types, used only to exercise compose.
type passShard struct {
	shard.Base
	name string
	in   []typeinfo.TypeInfo
	out  []typeinfo.TypeInfo
}

func (p *passShard) Name() string                    { return p.name }
func (p *passShard) Hash() [16]byte                  { return [16]byte{} }
func (p *passShard) Parameters() []shard.ParamInfo   { return nil }
func (p *passShard) GetParam(int) value.Value        { return value.Value{} }
func (p *passShard) SetParam(int, value.Value) error { return nil }
func (p *passShard) InputTypes() []typeinfo.TypeInfo { return p.in }
func (p *passShard) OutputTypes() []typeinfo.TypeInfo {
	return p.out
}
func (p *passShard) Activate(shard.Context, value.Value) (value.Value, error) {
	return value.Value{}, nil
}

func intShard(name string) *passShard {
	return &passShard{name: name,
		in:  []typeinfo.TypeInfo{{Kind: value.Int}},
		out: []typeinfo.TypeInfo{{Kind: value.Int}},
	}
}

func TestComposeResolvesOutputType(t *testing.T) {
	c := compose.New()
	shards := []shard.Shard{intShard("A"), intShard("B")}
	data := shard.InstanceData{InputType: typeinfo.TypeInfo{Kind: value.Int}}
	result, diags := c.ComposeShards(shards, data)
	for _, d := range diags {
		if d.Fatal {
			t.Fatalf("unexpected fatal diagnostic: %+v", d)
		}
	}
	if result.OutputType.Kind != value.Int {
		t.Fatalf("expected Int output, got %v", result.OutputType.Kind)
	}
}

func TestComposeIdempotent(t *testing.T) {
	c := compose.New()
	shards := []shard.Shard{intShard("A"), intShard("B")}
	data := shard.InstanceData{InputType: typeinfo.TypeInfo{Kind: value.Int}}
	r1, d1 := c.ComposeShards(shards, data)
	r2, d2 := c.ComposeShards(shards, data)
	if r1.OutputType.Kind != r2.OutputType.Kind || r1.FlowStopper != r2.FlowStopper {
		t.Fatalf("compose not idempotent: %+v vs %+v", r1, r2)
	}
	if len(d1) != len(d2) {
		t.Fatalf("diagnostic count differs across identical compose calls: %d vs %d", len(d1), len(d2))
	}
}

func TestComposeFatalOnTypeMismatch(t *testing.T) {
	c := compose.New()
	badInput := &passShard{name: "NeedsString",
		in:  []typeinfo.TypeInfo{{Kind: value.StringKind}},
		out: []typeinfo.TypeInfo{{Kind: value.StringKind}},
	}
	shards := []shard.Shard{intShard("A"), badInput}
	data := shard.InstanceData{InputType: typeinfo.TypeInfo{Kind: value.Int}}
	_, diags := c.ComposeShards(shards, data)
	found := false
	for _, d := range diags {
		if d.Fatal && d.ShardName == "NeedsString" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a fatal diagnostic for the type mismatch")
	}
}

func TestComposeVariableCoherenceRefThenSet(t *testing.T) {
	c := compose.New()
	refShard := &passShard{name: "RefX",
		in:  []typeinfo.TypeInfo{{Kind: value.None}},
		out: []typeinfo.TypeInfo{{Kind: value.None}},
	}
	setShard := &passShard{name: "SetX",
		in:  []typeinfo.TypeInfo{{Kind: value.None}},
		out: []typeinfo.TypeInfo{{Kind: value.None}},
	}
	refExposer := &exposer{passShard: *refShard, vars: []typeinfo.ExposedTypeInfo{{Name: "x", Type: typeinfo.TypeInfo{Kind: value.Int}, Mode: typeinfo.ModeRef}}}
	setExposer := &exposer{passShard: *setShard, vars: []typeinfo.ExposedTypeInfo{{Name: "x", Type: typeinfo.TypeInfo{Kind: value.Int}, Mode: typeinfo.ModeSet}}}

	shards := []shard.Shard{refExposer, setExposer}
	data := shard.InstanceData{InputType: typeinfo.TypeInfo{Kind: value.None}}
	_, diags := c.ComposeShards(shards, data)
	found := false
	for _, d := range diags {
		if d.Fatal {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a coherence violation diagnostic for Ref-then-Set on the same variable")
	}
}

type exposer struct {
	passShard
	vars []typeinfo.ExposedTypeInfo
}

func (e *exposer) ExposedVariables() []typeinfo.ExposedTypeInfo { return e.vars }
