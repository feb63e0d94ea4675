package stdshards

import (
	"github.com/pkg/errors"

	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// SetVar backs the Set/Ref/Update registrations: all three store their
// activation input into a named variable and pass it through unchanged.
// The Set/Ref/Update/Push coherence rule is enforced by the
// composer against ExposedVariables' declared Mode, not by any behavioral
// difference at activation time.
type SetVar struct {
	shard.Base
	shard.Owned
	mode     typeinfo.ExposureMode
	opName   string
	varName  string
	composed typeinfo.TypeInfo
}

func (s *SetVar) Name() string   { return s.opName }
func (s *SetVar) Hash() [16]byte { return hash128(s.opName, paramHash(value.String_(s.varName))) }

func (s *SetVar) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Name", Help: "variable name", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}}}
}
func (s *SetVar) GetParam(i int) value.Value { return value.String_(s.varName) }
func (s *SetVar) SetParam(i int, v value.Value) error {
	if err := validateParam("Name", []typeinfo.TypeInfo{{Kind: value.StringKind}}, v); err != nil {
		return err
	}
	s.varName = v.StringVal()
	return nil
}

func (s *SetVar) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (s *SetVar) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (s *SetVar) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	s.composed = data.InputType
	return data.InputType, nil
}

func (s *SetVar) ExposedVariables() []typeinfo.ExposedTypeInfo {
	return []typeinfo.ExposedTypeInfo{{Name: s.varName, Type: s.composed, Mode: s.mode}}
}

func (s *SetVar) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	cell := ctx.Scope().Reference(s.varName)
	value.CloneInto(&cell.Value, input)
	return value.Clone(input), nil
}

func (s *SetVar) InlineOp() shard.InlineOp {
	switch s.mode {
	case typeinfo.ModeSet:
		return shard.OpSet
	case typeinfo.ModeUpdate:
		return shard.OpUpdate
	default:
		return shard.OpNone
	}
}

func (s *SetVar) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return s.Activate(ctx, input)
}

// Push appends the activation input onto a sequence variable, exposing it
// under typeinfo.ModePush.
type Push struct {
	shard.Base
	shard.Owned
	varName  string
	composed typeinfo.TypeInfo
}

func (p *Push) Name() string   { return "Push" }
func (p *Push) Hash() [16]byte { return hash128(p.Name(), paramHash(value.String_(p.varName))) }

func (p *Push) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Name", Help: "sequence variable name", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}}}
}
func (p *Push) GetParam(i int) value.Value { return value.String_(p.varName) }
func (p *Push) SetParam(i int, v value.Value) error {
	if err := validateParam("Name", []typeinfo.TypeInfo{{Kind: value.StringKind}}, v); err != nil {
		return err
	}
	p.varName = v.StringVal()
	return nil
}

func (p *Push) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (p *Push) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (p *Push) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	p.composed = data.InputType
	return typeinfo.TypeInfo{Kind: value.SeqKind, SeqTypes: []typeinfo.TypeInfo{data.InputType}}, nil
}

func (p *Push) ExposedVariables() []typeinfo.ExposedTypeInfo {
	seqType := typeinfo.TypeInfo{Kind: value.SeqKind, SeqTypes: []typeinfo.TypeInfo{p.composed}}
	return []typeinfo.ExposedTypeInfo{{Name: p.varName, Type: seqType, Mode: typeinfo.ModePush}}
}

func (p *Push) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	cell := ctx.Scope().Reference(p.varName)
	var existing []value.Value
	if cell.Value.Kind == value.SeqKind {
		existing = cell.Value.SeqVal()
	}
	items := make([]value.Value, 0, len(existing)+1)
	items = append(items, existing...)
	items = append(items, input)
	newSeq := value.Seq_(items...)
	value.Destroy(&cell.Value)
	cell.Value = newSeq
	return value.Clone(newSeq), nil
}

func (p *Push) InlineOp() shard.InlineOp { return shard.OpPush }
func (p *Push) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return p.Activate(ctx, input)
}

// Get reads a variable's current value, ignoring its input.
type Get struct {
	shard.Base
	shard.Owned
	varName string
}

func (g *Get) Name() string   { return "Get" }
func (g *Get) Hash() [16]byte { return hash128(g.Name(), paramHash(value.String_(g.varName))) }

func (g *Get) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Name", Help: "variable name", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}}}
}
func (g *Get) GetParam(i int) value.Value { return value.String_(g.varName) }
func (g *Get) SetParam(i int, v value.Value) error {
	if err := validateParam("Name", []typeinfo.TypeInfo{{Kind: value.StringKind}}, v); err != nil {
		return err
	}
	g.varName = v.StringVal()
	return nil
}

func (g *Get) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType, typeinfo.NoneType} }
func (g *Get) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (g *Get) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	if t, ok := data.Shared.Lookup(g.varName); ok {
		return t.Type, nil
	}
	return typeinfo.AnyType, nil
}

func (g *Get) RequiredVariables() []typeinfo.ExposedTypeInfo {
	return []typeinfo.ExposedTypeInfo{{Name: g.varName, Type: typeinfo.AnyType, Mode: typeinfo.ModeRef}}
}

func (g *Get) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	cell, ok := ctx.Scope().Lookup(g.varName)
	if !ok {
		return value.Value{}, errors.Errorf("variable %q not found", g.varName)
	}
	return value.Clone(cell.Value), nil
}

// Swap exchanges the contents of two variables, both of which must already
// be declared.
type Swap struct {
	shard.Base
	shard.Owned
	aName, bName string
}

func (s *Swap) Name() string { return "Swap" }
func (s *Swap) Hash() [16]byte {
	return hash128(s.Name(), paramHash(value.String_(s.aName)), paramHash(value.String_(s.bName)))
}

func (s *Swap) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{
		{Name: "A", Help: "first variable name", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}},
		{Name: "B", Help: "second variable name", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}},
	}
}
func (s *Swap) GetParam(i int) value.Value {
	if i == 0 {
		return value.String_(s.aName)
	}
	return value.String_(s.bName)
}
func (s *Swap) SetParam(i int, v value.Value) error {
	if err := validateParam("A/B", []typeinfo.TypeInfo{{Kind: value.StringKind}}, v); err != nil {
		return err
	}
	if i == 0 {
		s.aName = v.StringVal()
	} else {
		s.bName = v.StringVal()
	}
	return nil
}

func (s *Swap) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (s *Swap) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (s *Swap) RequiredVariables() []typeinfo.ExposedTypeInfo {
	return []typeinfo.ExposedTypeInfo{
		{Name: s.aName, Type: typeinfo.AnyType, Mode: typeinfo.ModeRef},
		{Name: s.bName, Type: typeinfo.AnyType, Mode: typeinfo.ModeRef},
	}
}

func (s *Swap) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	cellA, ok := ctx.Scope().Lookup(s.aName)
	if !ok {
		return value.Value{}, errors.Errorf("variable %q not found", s.aName)
	}
	cellB, ok := ctx.Scope().Lookup(s.bName)
	if !ok {
		return value.Value{}, errors.Errorf("variable %q not found", s.bName)
	}
	cellA.Value, cellB.Value = cellB.Value, cellA.Value
	return value.Clone(input), nil
}

func (s *Swap) InlineOp() shard.InlineOp { return shard.OpSwap }
func (s *Swap) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return s.Activate(ctx, input)
}
