package mesh

import "github.com/zond/wiremesh/wire"

// Observer is invoked at each lifecycle boundary of a scheduled wire.
// Callbacks run synchronously on the mesh's own driver goroutine and must
// not themselves schedule work.
type Observer interface {
	BeforeCompose(w *wire.Wire)
	BeforePrepare(w *wire.Wire)
	BeforeStart(w *wire.Wire)
	BeforeTick(w *wire.Wire)
	BeforeStop(w *wire.Wire)
}

// NoopObserver is the default empty observer.
type NoopObserver struct{}

func (NoopObserver) BeforeCompose(*wire.Wire) {}
func (NoopObserver) BeforePrepare(*wire.Wire) {}
func (NoopObserver) BeforeStart(*wire.Wire)   {}
func (NoopObserver) BeforeTick(*wire.Wire)    {}
func (NoopObserver) BeforeStop(*wire.Wire)    {}

// Logger receives failure and dangling-variable diagnostics. Defined
// locally rather than importing package diag so mesh carries no logging
// dependency; diag.Logger satisfies this by having the same method.
type Logger interface {
	Event(name string, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Event(string, map[string]any) {}
