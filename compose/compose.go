// Package compose implements the static composer: it walks a
// shard sequence once, threading a flowing type through it, checking each
// shard's declared input types, resolving its output type (via the shard's
// own Compose when present, or the declared-output/pass-through fallback),
// and accumulating the exposed/required variable sets under the
// Set/Ref/Update/Push coherence rule.
package compose

import (
	"fmt"

	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
)

// Composer runs compose passes over shard sequences. Apart from its
// optional Match cache it holds no state between calls; the zero value is
// ready to use.
type Composer struct {
	// Cache memoizes Match lookups across calls. Nil disables caching.
	Cache *typeinfo.MatchCache
}

// New returns a Composer with a default-sized Match cache.
func New() *Composer {
	return &Composer{Cache: typeinfo.NewMatchCache(1024)}
}

func (c *Composer) match(input, receiver typeinfo.TypeInfo, isParameter, strict bool) bool {
	if c.Cache != nil {
		return c.Cache.Match(input, receiver, isParameter, strict)
	}
	return typeinfo.Match(input, receiver, isParameter, strict)
}

// ComposeShards runs the composer over shards in order, seeded by data. It
// never mutates a shard; diagnostics (including fatal ones) are collected
// and returned alongside whatever ComposeResult could still be produced, so
// a caller can decide whether to abort.
func (c *Composer) ComposeShards(shards []shard.Shard, data shard.InstanceData) (shard.ComposeResult, []shard.ComposeDiagnostic) {
	data.Recur = c.ComposeShards

	var diags []shard.ComposeDiagnostic
	prev := data.InputType

	var exposed typeinfo.Shared
	modes := map[string]typeinfo.ExposureMode{}
	// required tracks, in first-seen order, the names this sequence needs
	// from outside itself (not satisfied by an earlier shard in the same
	// sequence).
	var required typeinfo.Shared
	requiredSeen := map[string]bool{}

	var lastShard shard.Shard

	for _, s := range shards {
		lastShard = s

		switch s.Special() {
		case shard.SpecialInput, shard.SpecialAnd, shard.SpecialOr:
			// The three specials reset the flowing type back to the
			// sequence's original input instead of consuming prev.
			prev = data.InputType
		}

		if !c.inputAccepted(prev, s.InputTypes()) {
			diags = append(diags, shard.ComposeDiagnostic{
				ShardName: s.Name(),
				Message:   fmt.Sprintf("input type %s not accepted by %s", describe(prev), s.Name()),
				Fatal:     true,
			})
		}

		prev = c.resolveOutput(s, prev, data, exposed, &diags)

		for _, ev := range s.ExposedVariables() {
			if existing, ok := modes[ev.Name]; ok {
				if conflict := coherenceConflict(existing, ev.Mode); conflict != "" {
					diags = append(diags, shard.ComposeDiagnostic{
						ShardName: s.Name(),
						Message:   fmt.Sprintf("variable %q: %s", ev.Name, conflict),
						Fatal:     true,
					})
				}
			} else {
				modes[ev.Name] = ev.Mode
			}
			exposed = upsert(exposed, ev)
		}

		for _, rv := range s.RequiredVariables() {
			if _, ok := exposed.Lookup(rv.Name); ok {
				continue
			}
			if _, ok := data.Shared.Lookup(rv.Name); ok {
				if !requiredSeen[rv.Name] {
					requiredSeen[rv.Name] = true
					required = append(required, rv)
				}
				continue
			}
			diags = append(diags, shard.ComposeDiagnostic{
				ShardName: s.Name(),
				Message:   fmt.Sprintf("variable %q required but not in scope", rv.Name),
				Fatal:     true,
			})
		}
	}

	flowStopper := false
	if lastShard != nil {
		if fs, ok := lastShard.(shard.FlowStopper); ok {
			flowStopper = fs.IsFlowStopper()
		}
	}

	return shard.ComposeResult{
		OutputType:   prev,
		ExposedInfo:  exposed,
		RequiredInfo: required,
		FlowStopper:  flowStopper,
	}, diags
}

// inputAccepted reports whether prev satisfies at least one of a shard's
// declared input types. An empty declared set means "accepts nothing
// specific" and is treated as accepting only None.
func (c *Composer) inputAccepted(prev typeinfo.TypeInfo, declared []typeinfo.TypeInfo) bool {
	if len(declared) == 0 {
		return prev.Kind == typeinfo.NoneType.Kind
	}
	for _, d := range declared {
		if c.match(prev, d, false, true) {
			return true
		}
	}
	return false
}

// resolveOutput computes the shard's output type: via its own Compose when
// it implements shard.Composer, otherwise via the declared-output /
// pass-through fallback.
func (c *Composer) resolveOutput(s shard.Shard, prev typeinfo.TypeInfo, data shard.InstanceData, exposed typeinfo.Shared, diags *[]shard.ComposeDiagnostic) typeinfo.TypeInfo {
	if composer, ok := s.(shard.Composer); ok {
		merged := make(typeinfo.Shared, 0, len(data.Shared)+len(exposed))
		merged = append(merged, data.Shared...)
		merged = append(merged, exposed...)
		callData := data
		callData.InputType = prev
		callData.Shared = merged
		out, cdiags := composer.Compose(callData)
		*diags = append(*diags, cdiags...)
		return out
	}

	outs := s.OutputTypes()
	switch {
	case len(outs) == 1 && outs[0].Kind == typeinfo.AnyType.Kind:
		// Declared output is the wildcard: pass the input straight through
		// unchanged.
		return prev
	case len(outs) > 0:
		return outs[0]
	default:
		return prev
	}
}

func describe(t typeinfo.TypeInfo) string {
	return fmt.Sprintf("%v", t.Kind)
}

// upsert appends ev, or replaces the existing entry with the same name so
// the latest type/mode wins (innermost-wins, matching scope.Chain lookup
// order).
func upsert(s typeinfo.Shared, ev typeinfo.ExposedTypeInfo) typeinfo.Shared {
	for i := range s {
		if s[i].Name == ev.Name {
			s[i] = ev
			return s
		}
	}
	return append(s, ev)
}

// coherenceConflict implements the Set/Ref/Update/Push rule: a
// name first exposed via Ref may never be re-exposed via Set (and vice
// versa), and Update/Push may never target a name only ever seen via Ref
// (a Ref binds an existing variable by reference for read access in the
// exposing shard's own contract, not for a later shard to mutate through).
func coherenceConflict(existing, next typeinfo.ExposureMode) string {
	switch {
	case existing == typeinfo.ModeRef && next == typeinfo.ModeSet:
		return "previously exposed via Ref, cannot Set"
	case existing == typeinfo.ModeSet && next == typeinfo.ModeRef:
		return "previously exposed via Set, cannot Ref"
	case existing == typeinfo.ModeRef && (next == typeinfo.ModeUpdate || next == typeinfo.ModePush):
		return "previously exposed via Ref, cannot Update/Push"
	default:
		return ""
	}
}
