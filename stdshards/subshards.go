package stdshards

import (
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
)

// shardsParamType is the declared parameter type for any slot holding a
// nested shard sequence: a Seq of ShardRef.
var shardsParamType = typeinfo.TypeInfo{Kind: value.SeqKind, SeqTypes: []typeinfo.TypeInfo{{Kind: value.ShardRefKind}}}

// unwrapShards recovers the concrete shard.Shard sequence a Seq-of-ShardRef
// parameter carries, via the shard.Ref type assertion (shard/ref.go).
func unwrapShards(v value.Value) []shard.Shard {
	if v.Kind != value.SeqKind {
		return nil
	}
	items := v.SeqVal()
	out := make([]shard.Shard, 0, len(items))
	for _, it := range items {
		if it.Kind != value.ShardRefKind {
			continue
		}
		if ref, ok := it.ShardRefVal().(shard.Ref); ok {
			out = append(out, ref.Shard)
		}
	}
	return out
}

// wrapShards is the inverse of unwrapShards, used by GetParam so a
// subshard-containing shard round-trips its parameter.
func wrapShards(shards []shard.Shard) value.Value {
	items := make([]value.Value, len(shards))
	for i, s := range shards {
		items[i] = value.ShardRef_(shard.Ref{Shard: s})
	}
	return value.Seq_(items...)
}

// runSequence activates shards in order, threading each output into the
// next shard's input, ignoring each sub-shard's own Special() (the
// brancher-style loop/branch shards in this package are simple enough not
// to need the full composer's Special rebasing at runtime).
func runSequence(ctx shard.Context, shards []shard.Shard, input value.Value) (value.Value, error) {
	current := input
	for _, s := range shards {
		out, err := s.Activate(ctx, current)
		if err != nil {
			return out, err
		}
		current = out
	}
	return current, nil
}

// isTruthy reports whether v should count as "true" for And/Or's
// short-circuit evaluation.
func isTruthy(v value.Value) bool {
	switch v.Kind {
	case value.None:
		return false
	case value.Bool:
		return v.BoolVal()
	case value.Int:
		return v.IntVal() != 0
	case value.Float:
		return v.FloatVal() != 0
	default:
		return true
	}
}
