package stdshards

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// MathBinary combines the activation input with a fixed Operand under Op.
// The result is Float if either the input or the Operand is Float, and Int
// otherwise.
type MathBinary struct {
	shard.Base
	shard.Owned
	Op      string
	operand value.Value
}

func (m *MathBinary) Name() string   { return "Math." + opName(m.Op) }
func (m *MathBinary) Hash() [16]byte { return hash128("Math."+m.Op, paramHash(m.operand)) }

func opName(op string) string {
	switch op {
	case "+":
		return "Add"
	case "*":
		return "Multiply"
	default:
		return "Binary"
	}
}

func (m *MathBinary) Parameters() []shard.ParamInfo {
	return []shard.ParamInfo{{Name: "Operand", Help: "right-hand operand", AllowedType: []shard.AllowedType{{Kind: value.Int}, {Kind: value.Float}}}}
}
func (m *MathBinary) GetParam(i int) value.Value { return m.operand }
func (m *MathBinary) SetParam(i int, v value.Value) error {
	if err := validateParam("Operand", []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.Float}}, v); err != nil {
		return err
	}
	value.CloneInto(&m.operand, v)
	return nil
}

func (m *MathBinary) InputTypes() []typeinfo.TypeInfo  { return []typeinfo.TypeInfo{{Kind: value.Int}, {Kind: value.Float}} }
func (m *MathBinary) OutputTypes() []typeinfo.TypeInfo { return []typeinfo.TypeInfo{typeinfo.AnyType} }

func (m *MathBinary) Compose(data shard.InstanceData) (typeinfo.TypeInfo, []shard.ComposeDiagnostic) {
	if m.operand.Kind == value.Float {
		return typeinfo.TypeInfo{Kind: value.Float}, nil
	}
	return data.InputType, nil
}

func (m *MathBinary) Activate(ctx shard.Context, input value.Value) (value.Value, error) {
	if input.Kind == value.Float || m.operand.Kind == value.Float {
		a, b := numeric(input), numeric(m.operand)
		switch m.Op {
		case "*":
			return value.Float_(a * b), nil
		default:
			return value.Float_(a + b), nil
		}
	}
	a, b := input.IntVal(), m.operand.IntVal()
	switch m.Op {
	case "*":
		return value.Int_(a * b), nil
	default:
		return value.Int_(a + b), nil
	}
}

func (m *MathBinary) InlineOp() shard.InlineOp { return shard.OpMathBinary }
func (m *MathBinary) InlineActivate(ctx shard.Context, input value.Value) (value.Value, error) {
	return m.Activate(ctx, input)
}
