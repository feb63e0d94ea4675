package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/zond/wiremesh"
)

// DefaultRecursionLimit bounds Hash and Equal recursion over nested
// containers; exceeding it makes Hash return an error (and Equal report
// false) instead of overflowing the stack. Clone is not bounded.
const DefaultRecursionLimit = 100

// Hash computes the 128-bit content hash of v, honoring the default
// recursion limit.
func Hash(v Value) ([16]byte, error) {
	return hashDepth(v, DefaultRecursionLimit)
}

func sum16(parts ...[]byte) [16]byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New(16, nil) cannot fail for a size in [1,64].
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashDepth(v Value, depth int) ([16]byte, error) {
	if depth <= 0 {
		return [16]byte{}, wiremesh.WithStack(wiremesh.ErrTooDeep)
	}
	kindByte := []byte{byte(v.Kind)}
	if v.Kind.IsBlittable() {
		return sum16(kindByte, v.blit[:]), nil
	}
	switch v.Kind {
	case StringKind, PathKind, ContextVarKind:
		return sum16(kindByte, v.owner.(*stringPayload).data), nil
	case BytesKind:
		return sum16(kindByte, v.owner.(*bytesPayload).data), nil
	case ImageKind:
		p := v.owner.(*imagePayload)
		hdr := make([]byte, 7)
		hdr[0] = p.channels
		binary.LittleEndian.PutUint16(hdr[1:3], p.flags)
		binary.LittleEndian.PutUint16(hdr[3:5], p.width)
		binary.LittleEndian.PutUint16(hdr[5:7], p.height)
		return sum16(kindByte, hdr, p.pixels), nil
	case AudioKind:
		p := v.owner.(*audioPayload)
		hdr := make([]byte, 6)
		binary.LittleEndian.PutUint16(hdr[0:2], p.channels)
		binary.LittleEndian.PutUint32(hdr[2:6], p.sampleRate)
		samples := make([]byte, 4*len(p.samples))
		for i, s := range p.samples {
			binary.LittleEndian.PutUint32(samples[i*4:i*4+4], math.Float32bits(s))
		}
		return sum16(kindByte, hdr, samples), nil
	case SeqKind:
		p := v.owner.(*seqPayload)
		parts := [][]byte{kindByte}
		for _, item := range p.items {
			h, err := hashDepth(item, depth-1)
			if err != nil {
				return [16]byte{}, err
			}
			parts = append(parts, h[:])
		}
		return sum16(parts...), nil
	case TableKind:
		p := v.owner.(*tablePayload)
		pairs := make([][]byte, len(p.items))
		for i := range p.items {
			h, err := hashDepth(p.items[i], depth-1)
			if err != nil {
				return [16]byte{}, err
			}
			kh := sum16([]byte(p.keys[i]))
			pairs[i] = append(append([]byte{}, kh[:]...), h[:]...)
		}
		sort.Slice(pairs, func(i, j int) bool { return lessBytes(pairs[i], pairs[j]) })
		parts := append([][]byte{kindByte}, pairs...)
		return sum16(parts...), nil
	case SetKind:
		p := v.owner.(*setPayload)
		hashes := make([][]byte, len(p.items))
		for i, item := range p.items {
			h, err := hashDepth(item, depth-1)
			if err != nil {
				return [16]byte{}, err
			}
			hashes[i] = append([]byte{}, h[:]...)
		}
		sort.Slice(hashes, func(i, j int) bool { return lessBytes(hashes[i], hashes[j]) })
		parts := append([][]byte{kindByte}, hashes...)
		return sum16(parts...), nil
	case ArrayKind:
		p := v.owner.(*arrayPayload)
		parts := [][]byte{kindByte, {byte(p.innerKind)}}
		for _, d := range p.data {
			dd := d
			parts = append(parts, dd[:])
		}
		return sum16(parts...), nil
	case ShardRefKind:
		h := v.owner.(*shardRefPayload).ref.ShardHash()
		return sum16(kindByte, h[:]), nil
	case WireRefKind:
		h := v.owner.(*wireRefPayload).ref.WireHash()
		return sum16(kindByte, h[:]), nil
	case ObjectKind:
		p := v.owner.(*objectPayload)
		idBytes := make([]byte, 8)
		binary.LittleEndian.PutUint32(idBytes[0:4], p.vendor)
		binary.LittleEndian.PutUint32(idBytes[4:8], p.typ)
		if p.vtable != nil {
			h := p.vtable.Hash(p.ptr)
			return sum16(kindByte, idBytes, h[:]), nil
		}
		return sum16(kindByte, idBytes, []byte(fmt.Sprintf("%p", p.ptr))), nil
	case None, Any:
		return sum16(kindByte), nil
	default:
		return sum16(kindByte), nil
	}
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
