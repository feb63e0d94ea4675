// Package codec implements the canonical binary encode/decode of Values
// and Wires: the serializer used for wire-provider hot reload and any IPC
// path. The Value/Wire byte layout is fixed field-by-field (exact field
// widths, little-endian), so the low-level framing here is hand-written
// over encoding/binary rather than routed through benc's schema codegen,
// whose tag/varint format is a different wire format entirely. benc is
// still used by this package's Store (store.go), where the on-disk record
// envelope has no fixed layout of its own.
package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/zond/wiremesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
)

// DefaultRecursionLimit bounds decode/encode recursion over nested
// containers, mirroring value.DefaultRecursionLimit.
const DefaultRecursionLimit = value.DefaultRecursionLimit

// Codec bundles the state a Value/Wire encode or decode pass needs beyond
// the raw bytes: the shard registry to reconstruct ShardRef payloads, and
// the wire-dedup table: wires are deduplicated during encode using a
// content hash, and on decode repeated refs resolve to the first-seen
// instance.
type Codec struct {
	Registry *shard.Registry

	// seen (encode) / byHash (decode) implement the dedup contract. Kept on
	// the Codec rather than package-level state so concurrent encode/decode
	// sessions never share a dedup table.
	seen   map[[16]byte]bool
	byHash map[[16]byte]*wireHandle
}

// New creates a Codec that reconstructs ShardRef payloads via reg.
func New(reg *shard.Registry) *Codec {
	return &Codec{Registry: reg}
}

func (c *Codec) resetEncode() { c.seen = map[[16]byte]bool{} }
func (c *Codec) resetDecode() { c.byHash = map[[16]byte]*wireHandle{} }

// EncodeValue produces the canonical bytes for v.
func (c *Codec) EncodeValue(v value.Value) ([]byte, error) {
	c.resetEncode()
	var buf bytes.Buffer
	if err := c.encodeValue(&buf, v, DefaultRecursionLimit); err != nil {
		return nil, wiremesh.WithStack(err)
	}
	return buf.Bytes(), nil
}

// DecodeValue parses b as produced by EncodeValue, requiring the entire
// buffer to be consumed.
func (c *Codec) DecodeValue(b []byte) (value.Value, error) {
	c.resetDecode()
	r := bytes.NewReader(b)
	v, err := c.decodeValue(r, DefaultRecursionLimit)
	if err != nil {
		return value.Value{}, wiremesh.WithStack(err)
	}
	if r.Len() != 0 {
		return value.Value{}, wiremesh.WithStack(&wiremesh.SerializationError{Message: "trailing bytes after Value"})
	}
	return v, nil
}

func tooDeep(depth int) error {
	if depth <= 0 {
		return wiremesh.WithStack(wiremesh.ErrTooDeep)
	}
	return nil
}

func writeU8(buf *bytes.Buffer, v uint8)   { buf.WriteByte(v) }
func writeU16(buf *bytes.Buffer, v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); buf.Write(b[:]) }
func writeU32(buf *bytes.Buffer, v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); buf.Write(b[:]) }
func writeU64(buf *bytes.Buffer, v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); buf.Write(b[:]) }

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

func readU8(r *bytes.Reader) (uint8, error) {
	var b [1]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	n, err := r.Read(b)
	if err != nil || n != len(b) {
		return n, wiremesh.WithStack(&wiremesh.SerializationError{Message: "unexpected end of input"})
	}
	return n, nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// blittableByteSize reports the on-wire size of kind's blittable payload
// (Int2=2×i64, Int3/Int4=3×/4×i32, Int8=8×i16, Int16=16×i8; Float2=2×f64,
// Float3/Float4=3×/4×f32; Color=4×u8; Enum=vendor+type+value, each
// u32/i32).
func blittableByteSize(k value.Kind) int {
	switch k {
	case value.None, value.Any:
		return 0
	case value.Bool:
		return 1
	case value.Int:
		return 8
	case value.Int2:
		return 16
	case value.Int3:
		return 12
	case value.Int4:
		return 16
	case value.Int8:
		return 16
	case value.Int16:
		return 16
	case value.Float:
		return 8
	case value.Float2:
		return 16
	case value.Float3:
		return 12
	case value.Float4:
		return 16
	case value.Color:
		return 4
	case value.Enum:
		return 12
	default:
		return 0
	}
}

func (c *Codec) encodeValue(buf *bytes.Buffer, v value.Value, depth int) error {
	if err := tooDeep(depth); err != nil {
		return err
	}
	writeU8(buf, byte(v.Kind))
	if v.Kind.IsBlittable() {
		return c.encodeBlittablePayload(buf, v)
	}
	switch v.Kind {
	case value.StringKind, value.PathKind, value.ContextVarKind:
		writeString(buf, v.StringVal())
	case value.BytesKind:
		writeBytes(buf, v.BytesVal())
	case value.ImageKind:
		channels, flags, width, height, pixels := v.ImageVal()
		writeU8(buf, channels)
		writeU16(buf, flags)
		writeU16(buf, width)
		writeU16(buf, height)
		buf.Write(pixels)
	case value.AudioKind:
		channels, sampleRate, samples := v.AudioVal()
		writeU16(buf, uint16(len(samples)))
		writeU16(buf, channels)
		writeU32(buf, sampleRate)
		for _, s := range samples {
			writeU32(buf, math.Float32bits(s))
		}
	case value.SeqKind:
		items := v.SeqVal()
		writeU32(buf, uint32(len(items)))
		for _, it := range items {
			if err := c.encodeValue(buf, it, depth-1); err != nil {
				return err
			}
		}
	case value.TableKind:
		keys, items := v.TableVal()
		writeU64(buf, uint64(len(items)))
		for i, it := range items {
			writeString(buf, keys[i])
			if err := c.encodeValue(buf, it, depth-1); err != nil {
				return err
			}
		}
	case value.SetKind:
		items := v.SetVal()
		writeU64(buf, uint64(len(items)))
		for _, it := range items {
			if err := c.encodeValue(buf, it, depth-1); err != nil {
				return err
			}
		}
	case value.ArrayKind:
		inner, data := v.ArrayVal()
		writeU8(buf, byte(inner))
		writeU32(buf, uint32(len(data)))
		n := blittableByteSize(inner)
		for _, d := range data {
			buf.Write(d[:n])
		}
	case value.ShardRefKind:
		return c.encodeShardRef(buf, v.ShardRefVal().(shard.Shard), depth-1)
	case value.WireRefKind:
		return c.encodeWireRef(buf, v.WireRefVal(), depth-1)
	case value.ObjectKind:
		return wiremesh.WithStack(&wiremesh.SerializationError{Message: "Object values are not serializable (embedder-owned pointer)"})
	default:
		return wiremesh.WithStack(&wiremesh.SerializationError{Message: "unknown kind in encode"})
	}
	return nil
}

func (c *Codec) encodeBlittablePayload(buf *bytes.Buffer, v value.Value) error {
	switch v.Kind {
	case value.None, value.Any:
	case value.Bool:
		if v.BoolVal() {
			writeU8(buf, 1)
		} else {
			writeU8(buf, 0)
		}
	case value.Int:
		writeU64(buf, uint64(v.IntVal()))
	case value.Int2:
		a := v.Int2Vals()
		writeU64(buf, uint64(a[0]))
		writeU64(buf, uint64(a[1]))
	case value.Int3:
		a := v.Int3Vals()
		for _, x := range a {
			writeU32(buf, uint32(x))
		}
	case value.Int4:
		a := v.Int4Vals()
		for _, x := range a {
			writeU32(buf, uint32(x))
		}
	case value.Int8:
		a := v.Int8Vals()
		for _, x := range a {
			writeU16(buf, uint16(x))
		}
	case value.Int16:
		a := v.Int16Vals()
		for _, x := range a {
			writeU8(buf, byte(x))
		}
	case value.Float:
		writeU64(buf, math.Float64bits(v.FloatVal()))
	case value.Float2:
		a := v.Float2Vals()
		writeU64(buf, math.Float64bits(a[0]))
		writeU64(buf, math.Float64bits(a[1]))
	case value.Float3:
		a := v.Float3Vals()
		for _, x := range a {
			writeU32(buf, math.Float32bits(x))
		}
	case value.Float4:
		a := v.Float4Vals()
		for _, x := range a {
			writeU32(buf, math.Float32bits(x))
		}
	case value.Color:
		a := v.ColorVals()
		buf.Write(a[:])
	case value.Enum:
		vendor, typ, val := v.EnumVals()
		writeU32(buf, vendor)
		writeU32(buf, typ)
		writeU32(buf, uint32(val))
	default:
		return wiremesh.WithStack(&wiremesh.SerializationError{Message: "unknown blittable kind"})
	}
	return nil
}

func (c *Codec) decodeValue(r *bytes.Reader, depth int) (value.Value, error) {
	if err := tooDeep(depth); err != nil {
		return value.Value{}, err
	}
	kb, err := readU8(r)
	if err != nil {
		return value.Value{}, err
	}
	k := value.Kind(kb)
	if k.IsBlittable() {
		return c.decodeBlittablePayload(r, k)
	}
	switch k {
	case value.StringKind:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.String_(s), nil
	case value.PathKind:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Path_(s), nil
	case value.ContextVarKind:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.ContextVar_(s), nil
	case value.BytesKind:
		b, err := readBytes(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bytes_(b), nil
	case value.ImageKind:
		channels, err := readU8(r)
		if err != nil {
			return value.Value{}, err
		}
		flags, err := readU16(r)
		if err != nil {
			return value.Value{}, err
		}
		width, err := readU16(r)
		if err != nil {
			return value.Value{}, err
		}
		height, err := readU16(r)
		if err != nil {
			return value.Value{}, err
		}
		pixels := make([]byte, int(channels)*int(width)*int(height))
		if _, err := readFull(r, pixels); err != nil {
			return value.Value{}, err
		}
		return value.Image_(channels, flags, width, height, pixels), nil
	case value.AudioKind:
		nsamples, err := readU16(r)
		if err != nil {
			return value.Value{}, err
		}
		channels, err := readU16(r)
		if err != nil {
			return value.Value{}, err
		}
		sampleRate, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		samples := make([]float32, nsamples)
		for i := range samples {
			bits, err := readU32(r)
			if err != nil {
				return value.Value{}, err
			}
			samples[i] = math.Float32frombits(bits)
		}
		return value.Audio_(channels, sampleRate, samples), nil
	case value.SeqKind:
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		items := make([]value.Value, n)
		for i := range items {
			items[i], err = c.decodeValue(r, depth-1)
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.Seq_(items...), nil
	case value.TableKind:
		n, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		keys := make([]string, n)
		items := make([]value.Value, n)
		for i := range items {
			keys[i], err = readString(r)
			if err != nil {
				return value.Value{}, err
			}
			items[i], err = c.decodeValue(r, depth-1)
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.Table_(keys, items), nil
	case value.SetKind:
		n, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		items := make([]value.Value, n)
		for i := range items {
			items[i], err = c.decodeValue(r, depth-1)
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.Set_(items...), nil
	case value.ArrayKind:
		innerB, err := readU8(r)
		if err != nil {
			return value.Value{}, err
		}
		inner := value.Kind(innerB)
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		sz := blittableByteSize(inner)
		data := make([][16]byte, n)
		for i := range data {
			if _, err := readFull(r, data[i][:sz]); err != nil {
				return value.Value{}, err
			}
		}
		return value.Array_(inner, data), nil
	case value.ShardRefKind:
		s, err := c.decodeShardRef(r, depth-1)
		if err != nil {
			return value.Value{}, err
		}
		return value.ShardRef_(shard.Ref{Shard: s}), nil
	case value.WireRefKind:
		w, err := c.decodeWireRef(r, depth-1)
		if err != nil {
			return value.Value{}, err
		}
		return value.WireRef_(w), nil
	default:
		return value.Value{}, wiremesh.WithStack(&wiremesh.SerializationError{Message: "unknown kind in decode"})
	}
}

func (c *Codec) decodeBlittablePayload(r *bytes.Reader, k value.Kind) (value.Value, error) {
	switch k {
	case value.None:
		return value.None_(), nil
	case value.Any:
		return value.AnyOf(value.None_()), nil
	case value.Bool:
		b, err := readU8(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool_(b != 0), nil
	case value.Int:
		x, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int_(int64(x)), nil
	case value.Int2:
		a, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		b, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int2_(int64(a), int64(b)), nil
	case value.Int3:
		var lanes [3]int32
		for i := range lanes {
			x, err := readU32(r)
			if err != nil {
				return value.Value{}, err
			}
			lanes[i] = int32(x)
		}
		return value.Int3_(lanes[0], lanes[1], lanes[2]), nil
	case value.Int4:
		var lanes [4]int32
		for i := range lanes {
			x, err := readU32(r)
			if err != nil {
				return value.Value{}, err
			}
			lanes[i] = int32(x)
		}
		return value.Int4_(lanes[0], lanes[1], lanes[2], lanes[3]), nil
	case value.Int8:
		var lanes [8]int16
		for i := range lanes {
			x, err := readU16(r)
			if err != nil {
				return value.Value{}, err
			}
			lanes[i] = int16(x)
		}
		return value.Int8_(lanes), nil
	case value.Int16:
		var lanes [16]int8
		for i := range lanes {
			x, err := readU8(r)
			if err != nil {
				return value.Value{}, err
			}
			lanes[i] = int8(x)
		}
		return value.Int16_(lanes), nil
	case value.Float:
		x, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float_(math.Float64frombits(x)), nil
	case value.Float2:
		a, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		b, err := readU64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float2_(math.Float64frombits(a), math.Float64frombits(b)), nil
	case value.Float3:
		var lanes [3]float32
		for i := range lanes {
			x, err := readU32(r)
			if err != nil {
				return value.Value{}, err
			}
			lanes[i] = math.Float32frombits(x)
		}
		return value.Float3_(lanes[0], lanes[1], lanes[2]), nil
	case value.Float4:
		var lanes [4]float32
		for i := range lanes {
			x, err := readU32(r)
			if err != nil {
				return value.Value{}, err
			}
			lanes[i] = math.Float32frombits(x)
		}
		return value.Float4_(lanes[0], lanes[1], lanes[2], lanes[3]), nil
	case value.Color:
		var lanes [4]byte
		if _, err := readFull(r, lanes[:]); err != nil {
			return value.Value{}, err
		}
		return value.Color_(lanes[0], lanes[1], lanes[2], lanes[3]), nil
	case value.Enum:
		vendor, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		typ, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		val, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Enum_(vendor, typ, int32(val)), nil
	default:
		return value.Value{}, wiremesh.WithStack(&wiremesh.SerializationError{Message: "unknown blittable kind"})
	}
}
