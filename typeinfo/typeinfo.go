// Package typeinfo implements compose-time type descriptors:
// derivation from a Value, compatibility matching, and stable hashing used
// to cache compose results.
package typeinfo

import "github.com/zond/wiremesh/value"

// TypeInfo describes a Value's type as seen at compose time.
type TypeInfo struct {
	Kind value.Kind

	// Seq: the set of element types that may appear. FixedSize, when > 0,
	// requires an input to have at least that many elements.
	SeqTypes  []TypeInfo
	FixedSize int

	// Table: parallel keys/types vectors. An empty string as the last key
	// means "additional keys of this type are accepted".
	TableKeys  []string
	TableTypes []TypeInfo

	// Set: element types.
	SetTypes []TypeInfo

	// Array: the payload (element) kind.
	ArrayInner value.Kind

	// Enum / Object: (vendor, type) identity. (0,0) means "any".
	Vendor uint32
	Type   uint32
}

// AnyType is the wildcard TypeInfo: it matches (and is matched by)
// anything.
var AnyType = TypeInfo{Kind: value.Any}

// NoneType describes the absence of a value.
var NoneType = TypeInfo{Kind: value.None}

// ExposureMode tags how a shard introduces a variable into scope, for the
// Set/Ref/Update/Push coherence rule the composer enforces.
type ExposureMode int

const (
	ModeSet ExposureMode = iota
	ModeRef
	ModeUpdate
	ModePush
)

// ExposedTypeInfo names a variable visible at some point in a compose pass
//.
type ExposedTypeInfo struct {
	Name string
	Type TypeInfo
	Mode ExposureMode
}

// Shared is the ordered bag of variables visible at a point in a wire:
// later entries shadow earlier ones with the same name, matching the
// innermost-wins lookup order of variable resolution.
type Shared []ExposedTypeInfo

// Lookup finds the last (innermost) entry named name.
func (s Shared) Lookup(name string) (ExposedTypeInfo, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Name == name {
			return s[i], true
		}
	}
	return ExposedTypeInfo{}, false
}

// Derive produces the TypeInfo describing v as seen at compose time. For a
// ContextVar it resolves the variable against shared and returns that
// variable's exposed type; if not found it returns AnyType and reports
// containsVariables=false.
func Derive(v value.Value, shared Shared) (info TypeInfo, containsVariables bool) {
	if v.Kind == value.ContextVarKind {
		name := v.StringVal()
		if t, ok := shared.Lookup(name); ok {
			return t.Type, true
		}
		return AnyType, false
	}
	return deriveConcrete(v, shared), false
}

func deriveConcrete(v value.Value, shared Shared) TypeInfo {
	switch v.Kind {
	case value.SeqKind:
		items := v.SeqVal()
		seen := map[value.Kind]bool{}
		var types []TypeInfo
		for _, it := range items {
			t, _ := Derive(it, shared)
			if !seen[t.Kind] {
				seen[t.Kind] = true
				types = append(types, t)
			}
		}
		return TypeInfo{Kind: value.SeqKind, SeqTypes: types, FixedSize: len(items)}
	case value.TableKind:
		keys, items := v.TableVal()
		ks := make([]string, len(keys))
		copy(ks, keys)
		ts := make([]TypeInfo, len(items))
		for i, it := range items {
			ts[i], _ = Derive(it, shared)
		}
		return TypeInfo{Kind: value.TableKind, TableKeys: ks, TableTypes: ts}
	case value.SetKind:
		items := v.SetVal()
		seen := map[value.Kind]bool{}
		var types []TypeInfo
		for _, it := range items {
			t, _ := Derive(it, shared)
			if !seen[t.Kind] {
				seen[t.Kind] = true
				types = append(types, t)
			}
		}
		return TypeInfo{Kind: value.SetKind, SetTypes: types}
	case value.ArrayKind:
		inner, _ := v.ArrayVal()
		return TypeInfo{Kind: value.ArrayKind, ArrayInner: inner}
	case value.Enum:
		vendor, typ, _ := v.EnumVals()
		return TypeInfo{Kind: value.Enum, Vendor: vendor, Type: typ}
	case value.ObjectKind:
		vendor, typ, _, _ := v.ObjectVal()
		return TypeInfo{Kind: value.ObjectKind, Vendor: vendor, Type: typ}
	default:
		return TypeInfo{Kind: v.Kind}
	}
}
