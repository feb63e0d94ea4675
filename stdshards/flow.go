package stdshards

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// flowStopper is embedded by the terminal shards (Restart/Stop/Return/Fail)
// so the composer's FlowStopper detection finds them without a
// name comparison.
type flowStopper struct{}

func (flowStopper) IsFlowStopper() bool { return true }

// Restart ends the current iteration and re-runs the wire from its first
// shard, carrying its input as the next iteration's rootTickInput.
type Restart struct {
	shard.Base
	shard.Owned
	flowStopper
}

func (r *Restart) Name() string                        { return "Restart" }
func (r *Restart) Hash() [16]byte                      { return hash128(r.Name()) }
func (r *Restart) Parameters() []shard.ParamInfo       { return nil }
func (r *Restart) GetParam(i int) value.Value          { return value.Value{} }
func (r *Restart) SetParam(i int, v value.Value) error { return errNoParameters }
func (r *Restart) InputTypes() []typeinfo.TypeInfo     { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (r *Restart) OutputTypes() []typeinfo.TypeInfo    { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (r *Restart) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	ctx.SetFlowStorage(value.Clone(input))
	ctx.SetFlow(shard.Restart)
	return input, nil
}

// Stop ends the wire entirely, regardless of Looped.
type Stop struct {
	shard.Base
	shard.Owned
	flowStopper
}

func (s *Stop) Name() string                        { return "Stop" }
func (s *Stop) Hash() [16]byte                      { return hash128(s.Name()) }
func (s *Stop) Parameters() []shard.ParamInfo       { return nil }
func (s *Stop) GetParam(i int) value.Value          { return value.Value{} }
func (s *Stop) SetParam(i int, v value.Value) error { return errNoParameters }
func (s *Stop) InputTypes() []typeinfo.TypeInfo     { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (s *Stop) OutputTypes() []typeinfo.TypeInfo    { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (s *Stop) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	ctx.SetFlow(shard.Stop)
	return input, nil
}

// Return ends the current iteration and the wire's own run (not a loop
// restart): the wire's Looped setting governs whether the scheduler starts
// another full run later, same as reaching the sequence's last shard
// normally.
type Return struct {
	shard.Base
	shard.Owned
	flowStopper
}

func (r *Return) Name() string                        { return "Return" }
func (r *Return) Hash() [16]byte                      { return hash128(r.Name()) }
func (r *Return) Parameters() []shard.ParamInfo       { return nil }
func (r *Return) GetParam(i int) value.Value          { return value.Value{} }
func (r *Return) SetParam(i int, v value.Value) error { return errNoParameters }
func (r *Return) InputTypes() []typeinfo.TypeInfo     { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (r *Return) OutputTypes() []typeinfo.TypeInfo    { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (r *Return) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	ctx.SetFlow(shard.Return)
	return input, nil
}

// Fail ends the current iteration with an activation error carrying
// Message (recorded through Context.SetFlowError).
type Fail struct {
	shard.Base
	shard.Owned
	flowStopper
	message value.Value
}

func (f *Fail) Name() string   { return "Fail" }
func (f *Fail) Hash() [16]byte { return hash128(f.Name(), paramHash(f.message)) }

func (f *Fail) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Message", Help: "error message", AllowedType: []shard.AllowedType{{Kind: value.StringKind}}}}
}
func (f *Fail) GetParam(i int) value.Value { return f.message }
func (f *Fail) SetParam(i int, v value.Value) error {
	if err := validateParam("Message", []typeinfo.TypeInfo{{Kind: value.StringKind}}, v); err != nil {
		return err
	}
	value.CloneInto(&f.message, v)
	return nil
}
func (f *Fail) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{typeinfo.AnyType} }
func (f *Fail) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (f *Fail) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	msg := "Fail"
	if f.message.Kind == value.StringKind {
		msg = f.message.StringVal()
	}
	ctx.SetFlowError(msg)
	return input, nil
}
