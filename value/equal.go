package value

import "github.com/zond/wiremesh"

// Equal reports structural equality between a and b: blittables compare by
// payload, containers element-wise, Wires/Shards by identity (their Hash),
// Objects by pointer+tag. Recursion is bounded exactly like Hash.
func Equal(a, b Value) bool {
	ok, _ := equalDepth(a, b, DefaultRecursionLimit)
	return ok
}

func equalDepth(a, b Value, depth int) (bool, error) {
	if a.Kind != b.Kind {
		return false, nil
	}
	if depth <= 0 {
		return false, wiremesh.WithStack(wiremesh.ErrTooDeep)
	}
	if a.Kind.IsBlittable() {
		return a.blit == b.blit, nil
	}
	switch a.Kind {
	case StringKind, PathKind, ContextVarKind:
		return string(a.owner.(*stringPayload).data) == string(b.owner.(*stringPayload).data), nil
	case BytesKind:
		return bytesEqual(a.owner.(*bytesPayload).data, b.owner.(*bytesPayload).data), nil
	case ImageKind:
		pa, pb := a.owner.(*imagePayload), b.owner.(*imagePayload)
		return pa.channels == pb.channels && pa.flags == pb.flags && pa.width == pb.width &&
			pa.height == pb.height && bytesEqual(pa.pixels, pb.pixels), nil
	case AudioKind:
		pa, pb := a.owner.(*audioPayload), b.owner.(*audioPayload)
		if pa.channels != pb.channels || pa.sampleRate != pb.sampleRate || len(pa.samples) != len(pb.samples) {
			return false, nil
		}
		for i := range pa.samples {
			if pa.samples[i] != pb.samples[i] {
				return false, nil
			}
		}
		return true, nil
	case SeqKind:
		pa, pb := a.owner.(*seqPayload), b.owner.(*seqPayload)
		if len(pa.items) != len(pb.items) {
			return false, nil
		}
		for i := range pa.items {
			ok, err := equalDepth(pa.items[i], pb.items[i], depth-1)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	case TableKind:
		pa, pb := a.owner.(*tablePayload), b.owner.(*tablePayload)
		if len(pa.items) != len(pb.items) {
			return false, nil
		}
		for i, k := range pa.keys {
			j := pb.indexOf(k)
			if j < 0 {
				return false, nil
			}
			ok, err := equalDepth(pa.items[i], pb.items[j], depth-1)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	case SetKind:
		pa, pb := a.owner.(*setPayload), b.owner.(*setPayload)
		if len(pa.items) != len(pb.items) {
			return false, nil
		}
		used := make([]bool, len(pb.items))
		for _, ia := range pa.items {
			found := false
			for j, ib := range pb.items {
				if used[j] {
					continue
				}
				ok, err := equalDepth(ia, ib, depth-1)
				if err != nil {
					return false, err
				}
				if ok {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case ArrayKind:
		pa, pb := a.owner.(*arrayPayload), b.owner.(*arrayPayload)
		if pa.innerKind != pb.innerKind || len(pa.data) != len(pb.data) {
			return false, nil
		}
		for i := range pa.data {
			if pa.data[i] != pb.data[i] {
				return false, nil
			}
		}
		return true, nil
	case ShardRefKind:
		return a.owner.(*shardRefPayload).ref.ShardHash() == b.owner.(*shardRefPayload).ref.ShardHash(), nil
	case WireRefKind:
		return a.owner.(*wireRefPayload).ref.WireHash() == b.owner.(*wireRefPayload).ref.WireHash(), nil
	case ObjectKind:
		pa, pb := a.owner.(*objectPayload), b.owner.(*objectPayload)
		if pa.vendor != pb.vendor || pa.typ != pb.typ {
			return false, nil
		}
		if pa.vtable != nil && pb.vtable != nil {
			return pa.vtable.Equal(pa.ptr, pb.ptr), nil
		}
		return pa.ptr == pb.ptr, nil
	case None, Any:
		return true, nil
	default:
		return true, nil
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
