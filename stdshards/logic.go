package stdshards

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// And evaluates its Shards parameter in order against the wire's original
// input (the wire runner rebases this shard's own activation input to
// rootInput because Special()==SpecialAnd), short-circuiting false as soon
// as one sub-shard's output isn't truthy. It does not transform the wire's
// own flow — it is a boolean combinator, not a terminal.
type And struct {
	shard.Base
	shard.Owned
	shards []shard.Shard
}

func (a *And) Name() string   { return "And" }
func (a *And) Hash() [16]byte { return hash128(a.Name(), paramHash(wrapShards(a.shards))) }

func (a *And) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Shards", Help: "predicates to AND together", AllowedType: []shard.AllowedType{shardsParamType}}}
}
func (a *And) GetParam(i int) value.Value { return wrapShards(a.shards) }
func (a *And) SetParam(i int, v value.Value) error {
	if err := validateParam("Shards", []typeinfo.TypeInfo{shardsParamType}, v); err != nil {
		return err
	}
	a.shards = unwrapShards(v)
	return nil
}

func (a *And) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (a *And) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{{Kind: value.Bool}} }
func (a *And) Special() shard.Special           { return shard.SpecialAnd }

func (a *And) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	_, diags := data.Recur(a.shards, data)
	return typeinfo.TypeInfo{Kind: value.Bool}, diags
}

func (a *And) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	for _, s := range a.shards {
		out, err := s.Activate(ctx, input)
		if err != nil {
			return out, err
		}
		if !isTruthy(out) {
			return value.Bool_(false), nil
		}
	}
	return value.Bool_(true), nil
}

// Or is And's dual: short-circuits true as soon as one sub-shard's output
// is truthy.
type Or struct {
	shard.Base
	shard.Owned
	shards []shard.Shard
}

func (o *Or) Name() string   { return "Or" }
func (o *Or) Hash() [16]byte { return hash128(o.Name(), paramHash(wrapShards(o.shards))) }

func (o *Or) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Shards", Help: "predicates to OR together", AllowedType: []shard.AllowedType{shardsParamType}}}
}
func (o *Or) GetParam(i int) value.Value { return wrapShards(o.shards) }
func (o *Or) SetParam(i int, v value.Value) error {
	if err := validateParam("Shards", []typeinfo.TypeInfo{shardsParamType}, v); err != nil {
		return err
	}
	o.shards = unwrapShards(v)
	return nil
}

func (o *Or) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (o *Or) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{{Kind: value.Bool}} }
func (o *Or) Special() shard.Special           { return shard.SpecialOr }

func (o *Or) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	_, diags := data.Recur(o.shards, data)
	return typeinfo.TypeInfo{Kind: value.Bool}, diags
}

func (o *Or) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	for _, s := range o.shards {
		out, err := s.Activate(ctx, input)
		if err != nil {
			return out, err
		}
		if isTruthy(out) {
			return value.Bool_(true), nil
		}
	}
	return value.Bool_(false), nil
}

// Compare tests the activation input against a fixed operand with Op,
// producing a Bool.
type Compare struct {
	shard.Base
	shard.Owned
	Op string
	to value.Value
}

func (c *Compare) Name() string   { return "Compare" }
func (c *Compare) Hash() [16]byte { return hash128("Compare."+c.Op, paramHash(c.to)) }

func (c *Compare) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{
		{Name: "Operator", Help: "one of ==, !=, <, <=, >, >=", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}},
		{Name: "To", Help: "value to compare the input against", AllowedType: []shard.AllowedType{{Kind: value.Int}, {Kind: value.Float}}},
	}
}
func (c *Compare) GetParam(i int) value.Value {
	if i == 0 {
		return value.String_(c.Op)
	}
	return c.to
}
func (c *Compare) SetParam(i int, v value.Value) error {
	if i == 0 {
		if err := validateParam("Operator", []typeinfo.TypeInfo{{Kind: value.StringKind}}, v); err != nil {
			return err
		}
		c.Op = v.StringVal()
		return nil
	}
	if err := validateParam("To", []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.Float}}, v); err != nil {
		return err
	}
	value.CloneInto(&c.to, v)
	return nil
}

func (c *Compare) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.Float}} }
func (c *Compare) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{{Kind: value.Bool}} }

func numeric(v value.Value) float64 {
	if v.Kind == value.Int {
		return float64(v.IntVal())
	}
	return v.FloatVal()
}

func (c *Compare) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	a, b := numeric(input), numeric(c.to)
	var result bool
	switch c.Op {
	case "!=":
		result = a != b
	case "<":
		result = a < b
	case "<=":
		result = a <= b
	case ">":
		result = a > b
	case ">=":
		result = a >= b
	default:
		result = a == b
	}
	return value.Bool_(result), nil
}

func (c *Compare) InlineOp() shard.InlineOp { return shard.OpCompare }
func (c *Compare) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return c.Activate(ctx, input)
}
