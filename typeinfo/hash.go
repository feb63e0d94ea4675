package typeinfo

import (
	"encoding/binary"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Hash computes a stable 64-bit FNV-1a hash of a TypeInfo, used as the
// key space of MatchCache's memoized Match results.
func Hash(t TypeInfo) uint64 {
	h := fnv.New64a()
	writeHash(h, t)
	return h.Sum64()
}

func writeHash(h interface{ Write([]byte) (int, error) }, t TypeInfo) {
	var buf [8]byte
	h.Write([]byte{byte(t.Kind)})
	binary.LittleEndian.PutUint32(buf[:4], t.Vendor)
	binary.LittleEndian.PutUint32(buf[4:8], t.Type)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(t.FixedSize))
	h.Write(buf[:])
	h.Write([]byte{byte(t.ArrayInner)})
	for _, st := range t.SeqTypes {
		writeHash(h, st)
	}
	h.Write([]byte{0})
	for _, st := range t.SetTypes {
		writeHash(h, st)
	}
	h.Write([]byte{0})
	for i, k := range t.TableKeys {
		h.Write([]byte(k))
		if i < len(t.TableTypes) {
			writeHash(h, t.TableTypes[i])
		}
	}
}

// MatchKey identifies a memoized Match() call.
type MatchKey struct {
	Input, Receiver     uint64
	IsParameter, Strict bool
}

// MatchCache memoizes Match results keyed by the hashes of its operands.
// This is a pure performance layer: eviction never changes
// observable behavior, only how often Match has to re-walk nested types.
type MatchCache struct {
	cache *lru.Cache[MatchKey, bool]
}

// NewMatchCache creates a cache holding up to size entries.
func NewMatchCache(size int) *MatchCache {
	c, err := lru.New[MatchKey, bool](size)
	if err != nil {
		// Only returns an error for size <= 0.
		panic(err)
	}
	return &MatchCache{cache: c}
}

// Match behaves like Match(input, receiver, isParameter, strict) but
// memoizes the result by the operands' structural hashes.
func (c *MatchCache) Match(input, receiver TypeInfo, isParameter, strict bool) bool {
	key := MatchKey{Input: Hash(input), Receiver: Hash(receiver), IsParameter: isParameter, Strict: strict}
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := Match(input, receiver, isParameter, strict)
	c.cache.Add(key, v)
	return v
}
