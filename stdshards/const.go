package stdshards

import (
	"github.com/pkg/errors"

	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

var errNoParameters = errors.New("shard takes no parameters")

// Const produces a fixed Value regardless of input.
type Const struct {
	shard.Base
	shard.Owned
	val value.Value
}

func (c *Const) Name() string   { return "Const" }
func (c *Const) Hash() [16]byte { return hash128(c.Name(), paramHash(c.val)) }

func (c *Const) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Value", Help: "the constant value to produce", AllowedType: []shard.AllowedType{typeinfo.AnyType}}}
}

func (c *Const) GetParam(i int) value.Value { return c.val }

func (c *Const) SetParam(i int, v value.Value) error {
	if err := validateParam("Value", []typeinfo.TypeInfo{typeinfo.AnyType}, v); err != nil {
		return err
	}
	value.CloneInto(&c.val, v)
	return nil
}

func (c *Const) InputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.NoneType, typeinfo.AnyType} }
func (c *Const) OutputTypes() []typeinfo.TypeInfo {
	info, _ := typeinfo.Derive(c.val, nil)
	return []typeinfo.TypeInfo{info}
}

func (c *Const) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	info, _ := typeinfo.Derive(c.val, data.Shared)
	return info, nil
}

func (c *Const) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	return value.Clone(c.val), nil
}

func (c *Const) InlineOp() shard.InlineOp { return shard.OpConst }
func (c *Const) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return value.Clone(c.val), nil
}

// Pass is the identity shard: output equals input unchanged.
type Pass struct {
	shard.Base
	shard.Owned
}

func (p *Pass) Name() string                         { return "Pass" }
func (p *Pass) Hash() [16]byte                       { return hash128(p.Name()) }
func (p *Pass) Parameters() []shard.ParamInfo        { return nil }
func (p *Pass) GetParam(i int) value.Value           { return value.Value{} }
func (p *Pass) SetParam(i int, v value.Value) error  { return errNoParameters }
func (p *Pass) InputTypes() []typeinfo.TypeInfo      { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (p *Pass) OutputTypes() []typeinfo.TypeInfo     { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (p *Pass) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	return value.Clone(input), nil
}
func (p *Pass) InlineOp() shard.InlineOp { return shard.OpPass }
func (p *Pass) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return value.Clone(input), nil
}

// Input rebases the flowing type/value back onto the wire's own declared
// input. The wire runner already substitutes the
// root input as this shard's activation input whenever Special() !=
// SpecialNone, so Activate is a plain passthrough.
type Input struct {
	shard.Base
	shard.Owned
}

func (i *Input) Name() string                         { return "Input" }
func (i *Input) Hash() [16]byte                       { return hash128(i.Name()) }
func (i *Input) Parameters() []shard.ParamInfo        { return nil }
func (i *Input) GetParam(idx int) value.Value         { return value.Value{} }
func (i *Input) SetParam(idx int, v value.Value) error { return errNoParameters }
func (i *Input) InputTypes() []typeinfo.TypeInfo      { return []typeinfo.TypeInfo{typeinfo.AnyType, typeinfo.NoneType} }
func (i *Input) OutputTypes() []typeinfo.TypeInfo     { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (i *Input) Special() shard.Special               { return shard.SpecialInput }

func (i *Input) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	return value.Clone(input), nil
}
func (i *Input) InlineOp() shard.InlineOp { return shard.OpInput }
func (i *Input) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return value.Clone(input), nil
}

// Sleep suspends the wire's coroutine for Seconds, then passes its input
// through unchanged.
type Sleep struct {
	shard.Base
	shard.Owned
	seconds value.Value
}

func (s *Sleep) Name() string   { return "Sleep" }
func (s *Sleep) Hash() [16]byte { return hash128(s.Name(), paramHash(s.seconds)) }

func (s *Sleep) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Seconds", Help: "how long to suspend for", AllowedType: []shard.AllowedType{{Kind: value.Float}, {Kind: value.Int}}}}
}
func (s *Sleep) GetParam(i int) value.Value { return s.seconds }
func (s *Sleep) SetParam(i int, v value.Value) error {
	if err := validateParam("Seconds", []typeinfo.TypeInfo{{Kind: value.Float}, {Kind: value.Int}}, v); err != nil {
		return err
	}
	value.CloneInto(&s.seconds, v)
	return nil
}
func (s *Sleep) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (s *Sleep) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (s *Sleep) seconds64() float64 {
	if s.seconds.Kind == value.Int {
		return float64(s.seconds.IntVal())
	}
	return s.seconds.FloatVal()
}

func (s *Sleep) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	if _, err := ctx.Suspend(s.seconds64()); err != nil {
		return value.Value{}, err
	}
	return value.Clone(input), nil
}
func (s *Sleep) InlineOp() shard.InlineOp { return shard.OpSleep }
