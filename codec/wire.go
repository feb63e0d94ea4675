package codec

import (
	"bytes"

	"github.com/zond/wiremesh"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

// wireHandle is the dedup table's decode-side entry.
type wireHandle struct{ w *wire.Wire }

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func readI32(r *bytes.Reader) (int32, error) {
	u, err := readU32(r)
	return int32(u), err
}

// EncodeWire produces the canonical bytes for w,
// resetting this Codec's dedup table for a fresh encode session.
func (c *Codec) EncodeWire(w *wire.Wire) ([]byte, error) {
	c.resetEncode()
	var buf bytes.Buffer
	if err := c.encodeWireRef(&buf, w, DefaultRecursionLimit); err != nil {
		return nil, wiremesh.WithStack(err)
	}
	return buf.Bytes(), nil
}

// DecodeWire parses b as produced by EncodeWire, reconstructing shards via
// c.Registry.
func (c *Codec) DecodeWire(b []byte) (*wire.Wire, error) {
	c.resetDecode()
	r := bytes.NewReader(b)
	ref, err := c.decodeWireRef(r, DefaultRecursionLimit)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	if r.Len() != 0 {
		return nil, wiremesh.WithStack(&wiremesh.SerializationError{Message: "trailing bytes after Wire"})
	}
	w, ok := ref.(*wire.Wire)
	if !ok {
		return nil, wiremesh.WithStack(&wiremesh.SerializationError{Message: "decoded WireRef is not a *wire.Wire"})
	}
	return w, nil
}

// encodeWireRef writes one dedup marker byte, then either a 16-byte back
// reference to an already-encoded wire of the same content hash, or the
// full body. The marker byte is how the decoder tells a repeat apart from
// a first occurrence in the stream.
func (c *Codec) encodeWireRef(buf *bytes.Buffer, ref value.WireRef, depth int) error {
	if err := tooDeep(depth); err != nil {
		return err
	}
	h := ref.WireHash()
	if c.seen[h] {
		writeU8(buf, 1)
		buf.Write(h[:])
		return nil
	}
	w, ok := ref.(*wire.Wire)
	if !ok {
		return wiremesh.WithStack(&wiremesh.SerializationError{Message: "WireRef is not a *wire.Wire"})
	}
	c.seen[h] = true
	writeU8(buf, 0)
	writeString(buf, w.WireName())
	buf.Write(h[:])
	writeU8(buf, boolByte(w.Looped))
	writeU8(buf, boolByte(w.Unsafe))
	writeU8(buf, boolByte(w.Pure))
	shards := w.Shards()
	writeU32(buf, uint32(len(shards)))
	for _, s := range shards {
		if err := c.encodeShardRef(buf, s, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (c *Codec) decodeWireRef(r *bytes.Reader, depth int) (value.WireRef, error) {
	if err := tooDeep(depth); err != nil {
		return nil, err
	}
	marker, err := readU8(r)
	if err != nil {
		return nil, err
	}
	if marker == 1 {
		var h [16]byte
		if _, err := readFull(r, h[:]); err != nil {
			return nil, err
		}
		entry, ok := c.byHash[h]
		if !ok {
			return nil, wiremesh.WithStack(&wiremesh.SerializationError{Message: "wire dedup reference to an unseen hash"})
		}
		return entry.w, nil
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	var h [16]byte
	if _, err := readFull(r, h[:]); err != nil {
		return nil, err
	}
	loopedB, err := readU8(r)
	if err != nil {
		return nil, err
	}
	unsafeB, err := readU8(r)
	if err != nil {
		return nil, err
	}
	pureB, err := readU8(r)
	if err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	shards := make([]shard.Shard, n)
	for i := range shards {
		shards[i], err = c.decodeShardRef(r, depth-1)
		if err != nil {
			return nil, err
		}
	}
	w, err := wire.New(name, shards, wire.Config{Looped: loopedB != 0, Unsafe: unsafeB != 0, Pure: pureB != 0})
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	c.byHash[h] = &wireHandle{w: w}
	return w, nil
}

// encodeShardRef writes (nameLen, name, hash, [paramIndex, paramValue]*,
// -1, optional state). The hash field carries the low 32 bits of the
// shard's 128-bit content Hash; decode recomputes the full hash from the
// reconstructed shard rather than trusting this truncation.
func (c *Codec) encodeShardRef(buf *bytes.Buffer, s shard.Shard, depth int) error {
	if err := tooDeep(depth); err != nil {
		return err
	}
	writeString(buf, s.Name())
	h := s.Hash()
	writeU32(buf, uint32(h[0])|uint32(h[1])<<8|uint32(h[2])<<16|uint32(h[3])<<24)
	params := s.Parameters()
	for i := range params {
		writeI32(buf, int32(i))
		if err := c.encodeValue(buf, s.GetParam(i), depth-1); err != nil {
			return err
		}
	}
	writeI32(buf, -1)
	if st, ok := s.(shard.Stateful); ok {
		writeU8(buf, 1)
		if err := c.encodeValue(buf, st.GetState(), depth-1); err != nil {
			return err
		}
	} else {
		writeU8(buf, 0)
	}
	return nil
}

func (c *Codec) decodeShardRef(r *bytes.Reader, depth int) (shard.Shard, error) {
	if err := tooDeep(depth); err != nil {
		return nil, err
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	if _, err := readU32(r); err != nil { // hash, informational only; reconstructed shard recomputes its own
		return nil, err
	}
	s, err := c.Registry.Create(name)
	if err != nil {
		return nil, wiremesh.WithStack(err)
	}
	for {
		idx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if idx == -1 {
			break
		}
		v, err := c.decodeValue(r, depth-1)
		if err != nil {
			return nil, err
		}
		if err := s.SetParam(int(idx), v); err != nil {
			return nil, wiremesh.WithStack(err)
		}
	}
	hasState, err := readU8(r)
	if err != nil {
		return nil, err
	}
	if hasState == 1 {
		v, err := c.decodeValue(r, depth-1)
		if err != nil {
			return nil, err
		}
		if st, ok := s.(shard.Stateful); ok {
			if err := st.SetState(v); err != nil {
				return nil, wiremesh.WithStack(err)
			}
		}
	}
	return s, nil
}
