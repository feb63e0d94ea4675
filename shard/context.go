// Package shard defines the operator contract: the Shard
// interface, its optional lifecycle hooks, parameter validation, the
// name→constructor registry, and the inline fast-path dispatch table.
package shard

import (
	"context"

	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/value"
)

// FlowState is the control-flow status a wire's Context carries between
// shard activations.
type FlowState int

const (
	Continue FlowState = iota
	Restart
	Return
	Stop
	Error
	Rebase
)

func (f FlowState) String() string {
	switch f {
	case Continue:
		return "Continue"
	case Restart:
		return "Restart"
	case Return:
		return "Return"
	case Stop:
		return "Stop"
	case Error:
		return "Error"
	case Rebase:
		return "Rebase"
	default:
		return "Unknown"
	}
}

// Special marks a shard as one of the three compose-time specials
// (Input/And/Or). Modeling this as a method a shard may implement, rather
// than a string comparison against "Input"/"And"/"Or", keeps compose free
// of string comparisons in its hot path.
type Special int

const (
	SpecialNone Special = iota
	SpecialInput
	SpecialAnd
	SpecialOr
)

// Context is the activation-time environment a Shard's Activate (and
// optional Warmup/Cleanup/NextFrame) runs against. It is an interface,
// rather than a concrete *wire.Context, so that package shard never imports
// package wire — wire.Context is the concrete implementation, and wire
// imports shard, not the other way around.
type Context interface {
	// Flow is the current control-flow status; SetFlow transitions it.
	Flow() FlowState
	SetFlow(FlowState)
	// SetFlowError records an activation-error message and sets Flow to
	// Error in one step.
	SetFlowError(message string)
	// FlowStorage / SetFlowStorage carry the value associated with
	// Restart/Return.
	FlowStorage() value.Value
	SetFlowStorage(value.Value)
	// Suspend yields the wire's coroutine back to the scheduler. seconds
	// == 0 means "yield once, resume as soon as possible".
	// Calling Suspend outside a running coroutine is an error.
	Suspend(seconds float64) (FlowState, error)
	// Scope exposes the variable-resolution chain visible at this point.
	Scope() scope.Chain
	// Deadline-aware cancellation, forwarded from the host.
	Context() context.Context
	// ShouldStop reports whether a graceful stop has been requested.
	ShouldStop() bool
}

// ParamInfo describes one parameter slot: its name, help text, and the set
// of TypeInfo values setParam will accept.
type ParamInfo struct {
	Name        string
	Help        string
	AllowedType []AllowedType
}
