package shard

import "github.com/zond/wiremesh/value"

// Ref adapts a Shard to value.ShardRef so a Shard instance can be carried
// inside a ShardRef Value. Like wire.Wire's value.WireRef
// implementation, this is a weak handle rather than an owner: CloneRef
// aliases the same Shard instance instead of deep-copying its parameters,
// breaking the Value-Wire-Shard reference cycle.
type Ref struct {
	Shard
}

// ShardHash satisfies value.ShardRef.
func (r Ref) ShardHash() [16]byte { return r.Hash() }

// CloneRef satisfies value.ShardRef.
func (r Ref) CloneRef() value.ShardRef { return r }

// DestroyRef satisfies value.ShardRef. A no-op: the Ref never owns the
// wrapped Shard (the wire that holds it does, per the "uniquely owned"
// invariant).
func (r Ref) DestroyRef() {}

var _ value.ShardRef = Ref{}
