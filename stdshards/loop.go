package stdshards

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// ForRange runs its Shards body once per integer in [From, To), feeding
// each loop index (as an Int) through the body as that iteration's input.
// The body is a nested shard sequence composed recursively via
// data.Recur.
type ForRange struct {
	shard.Base
	shard.Owned
	from, to int64
	shards   []shard.Shard
}

func (f *ForRange) Name() string { return "ForRange" }
func (f *ForRange) Hash() [16]byte {
	return hash128(f.Name(), paramHash(value.Int_(f.from)), paramHash(value.Int_(f.to)), paramHash(wrapShards(f.shards)))
}

func (f *ForRange) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{
		{Name: "From", Help: "inclusive range start", AllowedType: []shard.AllowedType{{Kind: value.Int}}},
		{Name: "To", Help: "exclusive range end", AllowedType: []shard.AllowedType{{Kind: value.Int}}},
		{Name: "Shards", Help: "loop body", AllowedType: []shard.AllowedType{shardsParamType}},
	}
}
func (f *ForRange) GetParam(i int) value.Value {
	switch i {
	case 0:
		return value.Int_(f.from)
	case 1:
		return value.Int_(f.to)
	default:
		return wrapShards(f.shards)
	}
}
func (f *ForRange) SetParam(i int, v value.Value) error {
	switch i {
	case 0, 1:
		if err := validateParam("From/To", []typeinfo.TypeInfo{{Kind: value.Int}}, v); err != nil {
			return err
		}
		if i == 0 {
			f.from = v.IntVal()
		} else {
			f.to = v.IntVal()
		}
	default:
		if err := validateParam("Shards", []typeinfo.TypeInfo{shardsParamType}, v); err != nil {
			return err
		}
		f.shards = unwrapShards(v)
	}
	return nil
}

func (f *ForRange) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (f *ForRange) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (f *ForRange) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	bodyData := data
	bodyData.InputType = typeinfo.TypeInfo{Kind: value.Int}
	result, diags := data.Recur(f.shards, bodyData)
	return result.OutputType, diags
}

func (f *ForRange) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	last := input
	for i := f.from; i < f.to; i++ {
		out, err := runSequence(ctx, f.shards, value.Int_(i))
		if err != nil {
			return out, err
		}
		last = out
		if ctx.Flow() != shard.Continue {
			return last, nil
		}
	}
	return last, nil
}

func (f *ForRange) InlineOp() shard.InlineOp { return shard.OpForRange }

// Repeat runs its Shards body Times times, threading each iteration's
// output into the next iteration's input (seeded by the shard's own
// activation input on the first pass).
type Repeat struct {
	shard.Base
	shard.Owned
	times  int64
	shards []shard.Shard
}

func (r *Repeat) Name() string { return "Repeat" }
func (r *Repeat) Hash() [16]byte {
	return hash128(r.Name(), paramHash(value.Int_(r.times)), paramHash(wrapShards(r.shards)))
}

func (r *Repeat) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{
		{Name: "Times", Help: "iteration count", AllowedType: []shard.AllowedType{{Kind: value.Int}}},
		{Name: "Shards", Help: "loop body", AllowedType: []shard.AllowedType{shardsParamType}},
	}
}
func (r *Repeat) GetParam(i int) value.Value {
	if i == 0 {
		return value.Int_(r.times)
	}
	return wrapShards(r.shards)
}
func (r *Repeat) SetParam(i int, v value.Value) error {
	if i == 0 {
		if err := validateParam("Times", []typeinfo.TypeInfo{{Kind: value.Int}}, v); err != nil {
			return err
		}
		r.times = v.IntVal()
		return nil
	}
	if err := validateParam("Shards", []typeinfo.TypeInfo{shardsParamType}, v); err != nil {
		return err
	}
	r.shards = unwrapShards(v)
	return nil
}

func (r *Repeat) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (r *Repeat) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (r *Repeat) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	result, diags := data.Recur(r.shards, data)
	return result.OutputType, diags
}

func (r *Repeat) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	current := input
	for i := int64(0); i < r.times; i++ {
		out, err := runSequence(ctx, r.shards, current)
		if err != nil {
			return out, err
		}
		current = out
		if ctx.Flow() != shard.Continue {
			return current, nil
		}
	}
	return current, nil
}

func (r *Repeat) InlineOp() shard.InlineOp { return shard.OpRepeat }

// Once runs its Shards body only on the first activation this shard
// instance ever sees, and passes the input straight through on every
// activation after. done is ordinary instance state, also exposed via
// GetState/SetState for hot-reload fidelity.
type Once struct {
	shard.Base
	shard.Owned
	shards []shard.Shard
	done   bool
}

func (o *Once) Name() string   { return "Once" }
func (o *Once) Hash() [16]byte {
	return hash128(o.Name(), paramHash(wrapShards(o.shards)), paramHash(o.GetState()))
}

func (o *Once) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Shards", Help: "body run exactly once", AllowedType: []shard.AllowedType{shardsParamType}}}
}
func (o *Once) GetParam(i int) value.Value { return wrapShards(o.shards) }
func (o *Once) SetParam(i int, v value.Value) error {
	if err := validateParam("Shards", []typeinfo.TypeInfo{shardsParamType}, v); err != nil {
		return err
	}
	o.shards = unwrapShards(v)
	return nil
}

func (o *Once) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (o *Once) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (o *Once) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	result, diags := data.Recur(o.shards, data)
	return result.OutputType, diags
}

func (o *Once) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	if o.done {
		return value.Clone(input), nil
	}
	out, err := runSequence(ctx, o.shards, input)
	if err != nil {
		return out, err
	}
	o.done = true
	return out, nil
}

func (o *Once) InlineOp() shard.InlineOp { return shard.OpOnce }

func (o *Once) GetState() value.Value     { return value.Bool_(o.done) }
func (o *Once) SetState(v value.Value) error {
	o.done = v.Kind == value.Bool && v.BoolVal()
	return nil
}
