package value

// Clone returns a deep copy of src. It is a convenience wrapper around
// CloneInto for callers that don't have a recyclable destination.
func Clone(src Value) Value {
	var dst Value
	CloneInto(&dst, src)
	return dst
}

// CloneInto deep-copies src into *dst. For blittable kinds this is a byte
// copy; for owning kinds, if *dst already holds the same Kind with enough
// capacity, its existing allocation is reused, so a caller recycling
// values of matching shape in a hot loop never allocates. CloneInto never
// fails.
func CloneInto(dst *Value, src Value) {
	if dst.Kind != src.Kind {
		Destroy(dst)
	}
	dst.Kind = src.Kind
	if src.Kind.IsBlittable() {
		dst.blit = src.blit
		return
	}
	switch src.Kind {
	case StringKind, PathKind, ContextVarKind:
		sp, _ := dst.owner.(*stringPayload)
		dst.owner = src.owner.(*stringPayload).clone(sp)
	case BytesKind:
		bp, _ := dst.owner.(*bytesPayload)
		dst.owner = src.owner.(*bytesPayload).clone(bp)
	case ImageKind:
		ip, _ := dst.owner.(*imagePayload)
		dst.owner = src.owner.(*imagePayload).clone(ip)
	case AudioKind:
		ap, _ := dst.owner.(*audioPayload)
		dst.owner = src.owner.(*audioPayload).clone(ap)
	case SeqKind:
		srcP := src.owner.(*seqPayload)
		dstP, ok := dst.owner.(*seqPayload)
		if !ok || dstP == nil {
			dstP = &seqPayload{}
		}
		if cap(dstP.items) >= len(srcP.items) {
			dstP.items = dstP.items[:len(srcP.items)]
		} else {
			dstP.items = make([]Value, len(srcP.items))
		}
		for i := range srcP.items {
			CloneInto(&dstP.items[i], srcP.items[i])
		}
		dst.owner = dstP
	case TableKind:
		srcP := src.owner.(*tablePayload)
		dstP, ok := dst.owner.(*tablePayload)
		if !ok || dstP == nil {
			dstP = &tablePayload{}
		}
		if cap(dstP.keys) >= len(srcP.keys) {
			dstP.keys = dstP.keys[:len(srcP.keys)]
		} else {
			dstP.keys = make([]string, len(srcP.keys))
		}
		copy(dstP.keys, srcP.keys)
		if cap(dstP.items) >= len(srcP.items) {
			dstP.items = dstP.items[:len(srcP.items)]
		} else {
			dstP.items = make([]Value, len(srcP.items))
		}
		for i := range srcP.items {
			CloneInto(&dstP.items[i], srcP.items[i])
		}
		dst.owner = dstP
	case SetKind:
		srcP := src.owner.(*setPayload)
		dstP, ok := dst.owner.(*setPayload)
		if !ok || dstP == nil {
			dstP = &setPayload{}
		}
		if cap(dstP.items) >= len(srcP.items) {
			dstP.items = dstP.items[:len(srcP.items)]
		} else {
			dstP.items = make([]Value, len(srcP.items))
		}
		for i := range srcP.items {
			CloneInto(&dstP.items[i], srcP.items[i])
		}
		dst.owner = dstP
	case ArrayKind:
		ap, _ := dst.owner.(*arrayPayload)
		dst.owner = src.owner.(*arrayPayload).clone(ap)
	case ShardRefKind:
		srcP := src.owner.(*shardRefPayload)
		dst.owner = &shardRefPayload{ref: srcP.ref.CloneRef()}
	case WireRefKind:
		srcP := src.owner.(*wireRefPayload)
		dst.owner = &wireRefPayload{ref: srcP.ref.CloneRef()}
	case ObjectKind:
		srcP := src.owner.(*objectPayload)
		np := &objectPayload{vendor: srcP.vendor, typ: srcP.typ, vtable: srcP.vtable}
		if srcP.vtable != nil {
			np.ptr = srcP.vtable.Clone(srcP.ptr)
		} else {
			np.ptr = srcP.ptr
		}
		dst.owner = np
	default:
		dst.owner = src.owner
	}
}

// Destroy frees v's owning payload and resets v to the zero (None) Value.
// Destroy is idempotent and never fails.
func Destroy(v *Value) {
	switch v.Kind {
	case ShardRefKind:
		if p, ok := v.owner.(*shardRefPayload); ok && p.ref != nil {
			p.ref.DestroyRef()
		}
	case WireRefKind:
		if p, ok := v.owner.(*wireRefPayload); ok && p.ref != nil {
			p.ref.DestroyRef()
		}
	case ObjectKind:
		if p, ok := v.owner.(*objectPayload); ok && p.vtable != nil {
			p.vtable.Destroy(p.ptr)
		}
	case SeqKind:
		if p, ok := v.owner.(*seqPayload); ok {
			for i := range p.items {
				Destroy(&p.items[i])
			}
		}
	case TableKind:
		if p, ok := v.owner.(*tablePayload); ok {
			for i := range p.items {
				Destroy(&p.items[i])
			}
		}
	case SetKind:
		if p, ok := v.owner.(*setPayload); ok {
			for i := range p.items {
				Destroy(&p.items[i])
			}
		}
	}
	v.Kind = None
	v.owner = nil
	v.blit = [16]byte{}
}
