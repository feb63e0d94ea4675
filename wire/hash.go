package wire

import (
	"bytes"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
)

// Shards exposes the wire's ordered shard sequence, read-only.
func (w *Wire) Shards() []shard.Shard { return w.shards }

// Hash computes the wire's 128-bit content hash over (name, looped,
// unsafe, each shard-hash, each wire-variable pair). It is used
// both by codec.EncodeWire's dedup table and to satisfy value.WireRef so a
// Wire can be carried inside a WireRef Value (e.g. a subwire parameter).
func (w *Wire) Hash() [16]byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}
	h.Write([]byte(w.name))
	var flags [2]byte
	if w.Looped {
		flags[0] = 1
	}
	if w.Unsafe {
		flags[1] = 1
	}
	h.Write(flags[:])
	for _, s := range w.shards {
		sh := s.Hash()
		h.Write(sh[:])
	}
	// Variable pairs are sorted so the hash does not depend on map order.
	var pairs [][]byte
	w.locals.Each(func(name string, c *scope.Cell) {
		pair := []byte(name)
		vh, err := value.Hash(c.Value)
		if err == nil {
			pair = append(pair, vh[:]...)
		}
		pairs = append(pairs, pair)
	})
	sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i], pairs[j]) < 0 })
	for _, p := range pairs {
		h.Write(p)
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// WireHash satisfies value.WireRef.
func (w *Wire) WireHash() [16]byte { return w.Hash() }

// CloneRef satisfies value.WireRef. A WireRef is a weak handle, not an
// owner, so
// cloning one aliases the same underlying *Wire rather than deep-copying
// its shard sequence and state.
func (w *Wire) CloneRef() value.WireRef { return w }

// DestroyRef satisfies value.WireRef. A WireRef never owns the wire it
// names, so releasing one never tears the wire down.
func (w *Wire) DestroyRef() {}

var _ value.WireRef = (*Wire)(nil)
