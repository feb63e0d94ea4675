package shard

import "github.com/zond/wiremesh/typeinfo"

// Base provides the zero-value defaults most shards share (no exposed or
// required variables, no compose-time special, no inline tag), so a
// concrete shard type can embed Base and only implement what it actually
// customizes. Every stdshards type embeds this.
type Base struct{}

func (Base) ExposedVariables() []typeinfo.ExposedTypeInfo  { return nil }
func (Base) RequiredVariables() []typeinfo.ExposedTypeInfo { return nil }
func (Base) Special() Special                              { return SpecialNone }
func (Base) InlineOp() InlineOp                             { return OpNone }
