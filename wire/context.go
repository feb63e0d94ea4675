package wire

import (
	"context"
	"time"

	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
)

var errNotCoroutine = &notCoroutineError{}

type notCoroutineError struct{}

func (*notCoroutineError) Error() string { return "suspend called outside a running coroutine" }

// Context is the concrete shard.Context implementation: per-wire tick-local
// state.
type Context struct {
	wire    *Wire
	flow    shard.FlowState
	flowMsg string
	storage value.Value
	next    time.Time
	std     context.Context
}

func newContext(w *Wire, std context.Context) *Context {
	if std == nil {
		std = context.Background()
	}
	return &Context{wire: w, std: std}
}

func (c *Context) Flow() shard.FlowState   { return c.flow }
func (c *Context) SetFlow(f shard.FlowState) { c.flow = f }

func (c *Context) SetFlowError(message string) {
	c.flowMsg = message
	c.flow = shard.Error
}

func (c *Context) FlowStorage() value.Value      { return c.storage }
func (c *Context) SetFlowStorage(v value.Value)  { c.storage = v }
func (c *Context) Scope() scope.Chain            { return c.wire.chain() }
func (c *Context) Context() context.Context      { return c.std }
func (c *Context) ShouldStop() bool              { return c.wire.shouldStop }

// Suspend yields the wire's coroutine back to the caller of
// Tick/RequestStop. seconds<=0 means "yield once, resume as soon as
// possible". It is only valid from inside the wire's own coroutine
// goroutine; calling it otherwise (no coroutine channels set up) returns
// an error.
func (c *Context) Suspend(seconds float64) (shard.FlowState, error) {
	if c.wire.yieldCh == nil {
		return c.flow, errNotCoroutine
	}
	if seconds <= 0 {
		c.next = time.Time{}
	} else {
		c.next = time.Now().Add(time.Duration(seconds * float64(time.Second)))
	}
	c.wire.yieldCh <- struct{}{}
	<-c.wire.resumeCh
	return c.flow, nil
}
