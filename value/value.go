// Package value implements the tagged-variant Value model:
// blittable kinds copied by byte value, owning kinds with well-defined
// clone/destroy, 128-bit content hashing, and structural equality.
package value

import (
	"encoding/binary"
	"math"
)

// Value is a tagged union of (Kind, payload). For blittable kinds the
// payload lives inline in blit; for owning kinds it lives in owner. The
// zero Value is Kind None, which is always valid and never needs Destroy.
type Value struct {
	Kind  Kind
	blit  [16]byte
	owner any // one of *stringPayload, *bytesPayload, ... or nil
}

// --- Blittable constructors -------------------------------------------------

func None_() Value { return Value{Kind: None} }

func AnyOf(v Value) Value { v.Kind = Any; return v }

func Bool_(b bool) Value {
	v := Value{Kind: Bool}
	if b {
		v.blit[0] = 1
	}
	return v
}

func Int_(i int64) Value {
	v := Value{Kind: Int}
	binary.LittleEndian.PutUint64(v.blit[:8], uint64(i))
	return v
}

// Int2_ constructs an Int2 (2×i64). A single-scalar broadcast is available
// via Int2Scalar.
func Int2_(a, b int64) Value {
	v := Value{Kind: Int2}
	binary.LittleEndian.PutUint64(v.blit[0:8], uint64(a))
	binary.LittleEndian.PutUint64(v.blit[8:16], uint64(b))
	return v
}

func Int2Scalar(s int64) Value { return Int2_(s, s) }

func Int3_(a, b, c int32) Value {
	v := Value{Kind: Int3}
	binary.LittleEndian.PutUint32(v.blit[0:4], uint32(a))
	binary.LittleEndian.PutUint32(v.blit[4:8], uint32(b))
	binary.LittleEndian.PutUint32(v.blit[8:12], uint32(c))
	return v
}

func Int3Scalar(s int32) Value { return Int3_(s, s, s) }

func Int4_(a, b, c, d int32) Value {
	v := Value{Kind: Int4}
	binary.LittleEndian.PutUint32(v.blit[0:4], uint32(a))
	binary.LittleEndian.PutUint32(v.blit[4:8], uint32(b))
	binary.LittleEndian.PutUint32(v.blit[8:12], uint32(c))
	binary.LittleEndian.PutUint32(v.blit[12:16], uint32(d))
	return v
}

func Int4Scalar(s int32) Value { return Int4_(s, s, s, s) }

func Int8_(lanes [8]int16) Value {
	v := Value{Kind: Int8}
	for i, lane := range lanes {
		binary.LittleEndian.PutUint16(v.blit[i*2:i*2+2], uint16(lane))
	}
	return v
}

func Int8Scalar(s int16) Value {
	var lanes [8]int16
	for i := range lanes {
		lanes[i] = s
	}
	return Int8_(lanes)
}

func Int16_(lanes [16]int8) Value {
	v := Value{Kind: Int16}
	for i, lane := range lanes {
		v.blit[i] = byte(lane)
	}
	return v
}

func Int16Scalar(s int8) Value {
	var lanes [16]int8
	for i := range lanes {
		lanes[i] = s
	}
	return Int16_(lanes)
}

func Float_(f float64) Value {
	v := Value{Kind: Float}
	binary.LittleEndian.PutUint64(v.blit[:8], math.Float64bits(f))
	return v
}

func Float2_(a, b float64) Value {
	v := Value{Kind: Float2}
	binary.LittleEndian.PutUint64(v.blit[0:8], math.Float64bits(a))
	binary.LittleEndian.PutUint64(v.blit[8:16], math.Float64bits(b))
	return v
}

func Float2Scalar(s float64) Value { return Float2_(s, s) }

func Float3_(a, b, c float32) Value {
	v := Value{Kind: Float3}
	binary.LittleEndian.PutUint32(v.blit[0:4], math.Float32bits(a))
	binary.LittleEndian.PutUint32(v.blit[4:8], math.Float32bits(b))
	binary.LittleEndian.PutUint32(v.blit[8:12], math.Float32bits(c))
	return v
}

func Float3Scalar(s float32) Value { return Float3_(s, s, s) }

func Float4_(a, b, c, d float32) Value {
	v := Value{Kind: Float4}
	binary.LittleEndian.PutUint32(v.blit[0:4], math.Float32bits(a))
	binary.LittleEndian.PutUint32(v.blit[4:8], math.Float32bits(b))
	binary.LittleEndian.PutUint32(v.blit[8:12], math.Float32bits(c))
	binary.LittleEndian.PutUint32(v.blit[12:16], math.Float32bits(d))
	return v
}

func Float4Scalar(s float32) Value { return Float4_(s, s, s, s) }

// Color_ accepts a partial list of up to 4 lanes and defaults missing
// lanes to (0,0,0,255).
func Color_(lanes ...uint8) Value {
	v := Value{Kind: Color}
	defaults := [4]uint8{0, 0, 0, 255}
	for i := 0; i < 4; i++ {
		if i < len(lanes) {
			v.blit[i] = lanes[i]
		} else {
			v.blit[i] = defaults[i]
		}
	}
	return v
}

func Enum_(vendor, typ uint32, val int32) Value {
	v := Value{Kind: Enum}
	binary.LittleEndian.PutUint32(v.blit[0:4], vendor)
	binary.LittleEndian.PutUint32(v.blit[4:8], typ)
	binary.LittleEndian.PutUint32(v.blit[8:12], uint32(val))
	return v
}

// --- Blittable accessors ----------------------------------------------------

func (v Value) BoolVal() bool { return v.blit[0] != 0 }
func (v Value) IntVal() int64 { return int64(binary.LittleEndian.Uint64(v.blit[:8])) }

func (v Value) Int2Vals() [2]int64 {
	return [2]int64{
		int64(binary.LittleEndian.Uint64(v.blit[0:8])),
		int64(binary.LittleEndian.Uint64(v.blit[8:16])),
	}
}

func (v Value) Int3Vals() [3]int32 {
	return [3]int32{
		int32(binary.LittleEndian.Uint32(v.blit[0:4])),
		int32(binary.LittleEndian.Uint32(v.blit[4:8])),
		int32(binary.LittleEndian.Uint32(v.blit[8:12])),
	}
}

func (v Value) Int4Vals() [4]int32 {
	return [4]int32{
		int32(binary.LittleEndian.Uint32(v.blit[0:4])),
		int32(binary.LittleEndian.Uint32(v.blit[4:8])),
		int32(binary.LittleEndian.Uint32(v.blit[8:12])),
		int32(binary.LittleEndian.Uint32(v.blit[12:16])),
	}
}

func (v Value) Int8Vals() [8]int16 {
	var out [8]int16
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(v.blit[i*2 : i*2+2]))
	}
	return out
}

func (v Value) Int16Vals() [16]int8 {
	var out [16]int8
	for i := range out {
		out[i] = int8(v.blit[i])
	}
	return out
}

func (v Value) FloatVal() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(v.blit[:8]))
}

func (v Value) Float2Vals() [2]float64 {
	return [2]float64{
		math.Float64frombits(binary.LittleEndian.Uint64(v.blit[0:8])),
		math.Float64frombits(binary.LittleEndian.Uint64(v.blit[8:16])),
	}
}

func (v Value) Float3Vals() [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[8:12])),
	}
}

func (v Value) Float4Vals() [4]float32 {
	return [4]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[8:12])),
		math.Float32frombits(binary.LittleEndian.Uint32(v.blit[12:16])),
	}
}

func (v Value) ColorVals() [4]uint8 {
	return [4]uint8{v.blit[0], v.blit[1], v.blit[2], v.blit[3]}
}

func (v Value) EnumVals() (vendor, typ uint32, val int32) {
	vendor = binary.LittleEndian.Uint32(v.blit[0:4])
	typ = binary.LittleEndian.Uint32(v.blit[4:8])
	val = int32(binary.LittleEndian.Uint32(v.blit[8:12]))
	return
}

// --- Owning constructors ----------------------------------------------------

func String_(s string) Value {
	return Value{Kind: StringKind, owner: &stringPayload{data: []byte(s)}}
}

func Path_(s string) Value {
	return Value{Kind: PathKind, owner: &stringPayload{data: []byte(s)}}
}

func ContextVar_(name string) Value {
	return Value{Kind: ContextVarKind, owner: &stringPayload{data: []byte(name)}}
}

func Bytes_(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Kind: BytesKind, owner: &bytesPayload{data: cp}}
}

func Image_(channels uint8, flags uint16, width, height uint16, pixels []byte) Value {
	cp := make([]byte, len(pixels))
	copy(cp, pixels)
	return Value{Kind: ImageKind, owner: &imagePayload{channels: channels, flags: flags, width: width, height: height, pixels: cp}}
}

func Audio_(channels uint16, sampleRate uint32, samples []float32) Value {
	cp := make([]float32, len(samples))
	copy(cp, samples)
	return Value{Kind: AudioKind, owner: &audioPayload{channels: channels, sampleRate: sampleRate, samples: cp}}
}

func Seq_(items ...Value) Value {
	cp := make([]Value, len(items))
	for i, it := range items {
		cp[i] = Clone(it)
	}
	return Value{Kind: SeqKind, owner: &seqPayload{items: cp}}
}

func Table_(keys []string, items []Value) Value {
	ks := make([]string, len(keys))
	copy(ks, keys)
	vs := make([]Value, len(items))
	for i, it := range items {
		vs[i] = Clone(it)
	}
	return Value{Kind: TableKind, owner: &tablePayload{keys: ks, items: vs}}
}

func Set_(items ...Value) Value {
	cp := make([]Value, len(items))
	for i, it := range items {
		cp[i] = Clone(it)
	}
	return Value{Kind: SetKind, owner: &setPayload{items: cp}}
}

func Array_(innerKind Kind, data [][16]byte) Value {
	cp := make([][16]byte, len(data))
	copy(cp, data)
	return Value{Kind: ArrayKind, owner: &arrayPayload{innerKind: innerKind, data: cp}}
}

func ShardRef_(ref ShardRef) Value {
	return Value{Kind: ShardRefKind, owner: &shardRefPayload{ref: ref}}
}

func WireRef_(ref WireRef) Value {
	return Value{Kind: WireRefKind, owner: &wireRefPayload{ref: ref}}
}

func Object_(vendor, typ uint32, ptr any, vtable ObjectBehavior) Value {
	return Value{Kind: ObjectKind, owner: &objectPayload{vendor: vendor, typ: typ, ptr: ptr, vtable: vtable}}
}

// --- Owning accessors --------------------------------------------------------

func (v Value) StringVal() string { return string(v.owner.(*stringPayload).data) }
func (v Value) BytesVal() []byte  { return v.owner.(*bytesPayload).data }

func (v Value) ImageVal() (channels uint8, flags uint16, width, height uint16, pixels []byte) {
	p := v.owner.(*imagePayload)
	return p.channels, p.flags, p.width, p.height, p.pixels
}

func (v Value) AudioVal() (channels uint16, sampleRate uint32, samples []float32) {
	p := v.owner.(*audioPayload)
	return p.channels, p.sampleRate, p.samples
}

func (v Value) SeqVal() []Value { return v.owner.(*seqPayload).items }

func (v Value) TableVal() (keys []string, items []Value) {
	p := v.owner.(*tablePayload)
	return p.keys, p.items
}

// TableGet looks up a key in a Table value.
func (v Value) TableGet(key string) (Value, bool) {
	p := v.owner.(*tablePayload)
	if i := p.indexOf(key); i >= 0 {
		return p.items[i], true
	}
	return Value{}, false
}

func (v Value) SetVal() []Value { return v.owner.(*setPayload).items }

func (v Value) ArrayVal() (innerKind Kind, data [][16]byte) {
	p := v.owner.(*arrayPayload)
	return p.innerKind, p.data
}

func (v Value) ShardRefVal() ShardRef { return v.owner.(*shardRefPayload).ref }
func (v Value) WireRefVal() WireRef   { return v.owner.(*wireRefPayload).ref }

func (v Value) ObjectVal() (vendor, typ uint32, ptr any, vtable ObjectBehavior) {
	p := v.owner.(*objectPayload)
	return p.vendor, p.typ, p.ptr, p.vtable
}
