package value

// ShardRef is the handle a Value of ShardRefKind carries. It is defined as
// an interface here (rather than importing package shard, which would
// create value↔shard↔compose↔wire↔value import cycles) so that
// package shard's Shard type can satisfy it without value ever importing
// shard. The opaque handle also breaks what would otherwise be a cyclic
// reach from values back into wires.
type ShardRef interface {
	ShardHash() [16]byte
	CloneRef() ShardRef
	DestroyRef()
}

// WireRef is the handle a Value of WireRefKind carries, satisfied by
// package wire's Wire type. Kept weak in spirit: a WireRef never owns the
// wire it names, so destroying a WireRef Value never tears down a wire.
type WireRef interface {
	WireHash() [16]byte
	CloneRef() WireRef
	DestroyRef()
}

// ObjectBehavior is the optional vtable an Object payload may carry. An
// Object without one falls back to pointer identity for every operation,
// matching the original's default object handling.
type ObjectBehavior interface {
	Clone(ptr any) any
	Destroy(ptr any)
	Hash(ptr any) [16]byte
	Equal(a, b any) bool
}

type stringPayload struct {
	data []byte
}

func (p *stringPayload) clone(dst *stringPayload) *stringPayload {
	if dst == nil {
		dst = &stringPayload{}
	}
	if cap(dst.data) >= len(p.data) {
		dst.data = dst.data[:len(p.data)]
	} else {
		dst.data = make([]byte, len(p.data))
	}
	copy(dst.data, p.data)
	return dst
}

type bytesPayload struct {
	data []byte
}

func (p *bytesPayload) clone(dst *bytesPayload) *bytesPayload {
	if dst == nil {
		dst = &bytesPayload{}
	}
	if cap(dst.data) >= len(p.data) {
		dst.data = dst.data[:len(p.data)]
	} else {
		dst.data = make([]byte, len(p.data))
	}
	copy(dst.data, p.data)
	return dst
}

// imagePayload carries channels, flags, width, height, then packed pixel
// bytes (width*height*channels), matching the serialized layout.
type imagePayload struct {
	channels uint8
	flags    uint16
	width    uint16
	height   uint16
	pixels   []byte
}

func (p *imagePayload) clone(dst *imagePayload) *imagePayload {
	if dst == nil {
		dst = &imagePayload{}
	}
	dst.channels, dst.flags, dst.width, dst.height = p.channels, p.flags, p.width, p.height
	if cap(dst.pixels) >= len(p.pixels) {
		dst.pixels = dst.pixels[:len(p.pixels)]
	} else {
		dst.pixels = make([]byte, len(p.pixels))
	}
	copy(dst.pixels, p.pixels)
	return dst
}

// audioPayload carries nsamples, channels, sampleRate, then f32 samples,
// matching the serialized layout.
type audioPayload struct {
	channels   uint16
	sampleRate uint32
	samples    []float32
}

func (p *audioPayload) clone(dst *audioPayload) *audioPayload {
	if dst == nil {
		dst = &audioPayload{}
	}
	dst.channels, dst.sampleRate = p.channels, p.sampleRate
	if cap(dst.samples) >= len(p.samples) {
		dst.samples = dst.samples[:len(p.samples)]
	} else {
		dst.samples = make([]float32, len(p.samples))
	}
	copy(dst.samples, p.samples)
	return dst
}

type seqPayload struct {
	items []Value
}

type tablePayload struct {
	keys  []string
	items []Value
}

func (t *tablePayload) indexOf(key string) int {
	for i, k := range t.keys {
		if k == key {
			return i
		}
	}
	return -1
}

type setPayload struct {
	items []Value
}

// arrayPayload packs a homogeneous run of blittable payloads with a shared
// inner kind tag.
type arrayPayload struct {
	innerKind Kind
	data      [][16]byte
}

func (p *arrayPayload) clone(dst *arrayPayload) *arrayPayload {
	if dst == nil {
		dst = &arrayPayload{}
	}
	dst.innerKind = p.innerKind
	if cap(dst.data) >= len(p.data) {
		dst.data = dst.data[:len(p.data)]
	} else {
		dst.data = make([][16]byte, len(p.data))
	}
	copy(dst.data, p.data)
	return dst
}

type shardRefPayload struct {
	ref ShardRef
}

type wireRefPayload struct {
	ref WireRef
}

type objectPayload struct {
	vendor uint32
	typ    uint32
	ptr    any
	vtable ObjectBehavior
}
