package typeinfo

import "github.com/zond/wiremesh/value"

// Match reports whether input is compatible with receiver.
// isParameter is currently only used to select strict vs. lenient error
// reporting by callers (shard.SetParam always calls with strict=true); the
// matching rules themselves are identical in both modes except where noted.
func Match(input, receiver TypeInfo, isParameter, strict bool) bool {
	if receiver.Kind == value.Any {
		return true
	}
	if input.Kind != receiver.Kind {
		return false
	}
	switch receiver.Kind {
	case value.Enum, value.ObjectKind:
		if receiver.Vendor == 0 && receiver.Type == 0 {
			return true // "any object/enum"
		}
		return input.Vendor == receiver.Vendor && input.Type == receiver.Type
	case value.SeqKind:
		if !strict {
			return true
		}
		if receiver.FixedSize > 0 && input.FixedSize < receiver.FixedSize {
			return false
		}
		if len(input.SeqTypes) == 0 {
			return seqTypesContainAny(receiver.SeqTypes)
		}
		for _, it := range input.SeqTypes {
			if !anyMatches(it, receiver.SeqTypes, isParameter, strict) {
				return false
			}
		}
		return true
	case value.SetKind:
		if !strict {
			return true
		}
		if len(input.SetTypes) == 0 {
			return seqTypesContainAny(receiver.SetTypes)
		}
		for _, it := range input.SetTypes {
			if !anyMatches(it, receiver.SetTypes, isParameter, strict) {
				return false
			}
		}
		return true
	case value.TableKind:
		if !strict {
			return true
		}
		return matchTable(input, receiver, isParameter)
	case value.ArrayKind:
		return input.ArrayInner == receiver.ArrayInner
	default:
		return true
	}
}

func seqTypesContainAny(types []TypeInfo) bool {
	for _, t := range types {
		if t.Kind == value.Any {
			return true
		}
	}
	return false
}

func anyMatches(t TypeInfo, candidates []TypeInfo, isParameter, strict bool) bool {
	for _, c := range candidates {
		if Match(t, c, isParameter, strict) {
			return true
		}
	}
	return false
}

// matchTable implements the two table-matching regimes:
//
//   - the receiver has zero keys: it accepts any keys whose value types
//     are covered by the receiver's allowed SetTypes-as-value-types list
//     (reusing TableTypes as the "allowed value types" list in that case);
//   - the receiver has keys: input must match key-for-key, except the
//     receiver may put an empty string as its last key to mean "additional
//     keys of this type are accepted".
func matchTable(input, receiver TypeInfo, isParameter bool) bool {
	if len(receiver.TableKeys) == 0 {
		if len(receiver.TableTypes) == 0 {
			return true // no allowed types at all: matches any table
		}
		for _, it := range input.TableTypes {
			if !anyMatches(it, receiver.TableTypes, isParameter, true) {
				return false
			}
		}
		return true
	}
	permissiveTail := false
	tailType := TypeInfo{}
	keys := receiver.TableKeys
	types := receiver.TableTypes
	if len(keys) > 0 && keys[len(keys)-1] == "" {
		permissiveTail = true
		tailType = types[len(types)-1]
		keys = keys[:len(keys)-1]
		types = types[:len(types)-1]
	}
	required := map[string]TypeInfo{}
	for i, k := range keys {
		required[k] = types[i]
	}
	seen := map[string]bool{}
	for i, k := range input.TableKeys {
		want, ok := required[k]
		if !ok {
			if permissiveTail && Match(input.TableTypes[i], tailType, isParameter, true) {
				continue
			}
			return false
		}
		if !Match(input.TableTypes[i], want, isParameter, true) {
			return false
		}
		seen[k] = true
	}
	for k := range required {
		if !seen[k] {
			return false
		}
	}
	return true
}
