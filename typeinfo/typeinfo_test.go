package typeinfo_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

func TestDeriveCompound(t *testing.T) {
	v := value.Table_(
		[]string{"a", "b"},
		[]value.Value{
			value.Int_(1),
			value.Seq_(value.Int_(2), value.String_("x")),
		},
	)
	got, containsVariables := typeinfo.Derive(v, nil)
	if containsVariables {
		t.Fatal("concrete value should not report variables")
	}
	want := typeinfo.TypeInfo{
		Kind:      value.TableKind,
		TableKeys: []string{"a", "b"},
		TableTypes: []typeinfo.TypeInfo{
			{Kind: value.Int},
			{Kind: value.SeqKind, SeqTypes: []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.StringKind}}, FixedSize: 2},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("got %+v, want %+v: %v", got, want, diff)
	}
}

func TestMatchAnyReceiver(t *testing.T) {
	if !typeinfo.Match(typeinfo.TypeInfo{Kind: value.Int}, typeinfo.AnyType, false, true) {
		t.Fatal("Any receiver should match everything")
	}
}

func TestMatchTableEmptyReceiver(t *testing.T) {
	receiver := typeinfo.TypeInfo{Kind: value.TableKind}
	input := typeinfo.TypeInfo{Kind: value.TableKind, TableKeys: []string{"a"}, TableTypes: []typeinfo.TypeInfo{{Kind: value.Int}}}
	if !typeinfo.Match(input, receiver, false, true) {
		t.Fatal("empty-key, no-allowed-types receiver should match any table")
	}
}

func TestMatchTablePermissiveTail(t *testing.T) {
	receiver := typeinfo.TypeInfo{
		Kind:       value.TableKind,
		TableKeys:  []string{"a", ""},
		TableTypes: []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.StringKind}},
	}
	input := typeinfo.TypeInfo{
		Kind:       value.TableKind,
		TableKeys:  []string{"a", "extra"},
		TableTypes: []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.StringKind}},
	}
	if !typeinfo.Match(input, receiver, false, true) {
		t.Fatal("permissive tail should accept additional keys of the tail type")
	}
	badInput := typeinfo.TypeInfo{
		Kind:       value.TableKind,
		TableKeys:  []string{"a", "extra"},
		TableTypes: []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.Int}},
	}
	if typeinfo.Match(badInput, receiver, false, true) {
		t.Fatal("permissive tail should reject wrong-typed additional keys")
	}
}

func TestHashStableAcrossCalls(t *testing.T) {
	ti := typeinfo.TypeInfo{Kind: value.SeqKind, SeqTypes: []typeinfo.TypeInfo{{Kind: value.Int}}, FixedSize: 2}
	if typeinfo.Hash(ti) != typeinfo.Hash(ti) {
		t.Fatal("hash should be stable")
	}
}

func TestMatchCache(t *testing.T) {
	c := typeinfo.NewMatchCache(8)
	a := typeinfo.TypeInfo{Kind: value.Int}
	if !c.Match(a, typeinfo.AnyType, false, true) {
		t.Fatal("expected match via cache")
	}
	if !c.Match(a, typeinfo.AnyType, false, true) {
		t.Fatal("expected cached match")
	}
}
