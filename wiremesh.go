// Package wiremesh holds the small set of cross-cutting helpers shared by
// every component package: stack-annotated errors, the runtime's error
// taxonomy, and a generic concurrency-safe map.
package wiremesh

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// WithStack wraps err with a captured stack trace, unless err is already
// nil or already carries one. Every error returned across package
// boundaries in this module is wrapped with WithStack at its point of
// creation.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
		return err
	}
	return errors.WithStack(err)
}

// Errorf creates a new stack-annotated error.
func Errorf(format string, args ...any) error {
	return errors.WithStack(fmt.Errorf(format, args...))
}

// ComposeError is raised during static analysis (compose). Warnings are
// advisory (Fatal == false) and do not abort compose; errors do.
type ComposeError struct {
	ShardName string
	Message   string
	Fatal     bool
}

func (e *ComposeError) Error() string {
	kind := "warning"
	if e.Fatal {
		kind = "error"
	}
	return fmt.Sprintf("compose %s in %s: %s", kind, e.ShardName, e.Message)
}

// ActivationError is raised from inside a shard's Activate and captured
// into the wire's flow-error.
type ActivationError struct {
	ShardName string
	Message   string
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activation error in %s: %s", e.ShardName, e.Message)
}

// WarmupError aborts wire startup.
type WarmupError struct {
	ShardName string
	Message   string
}

func (e *WarmupError) Error() string {
	return fmt.Sprintf("warmup error in %s: %s", e.ShardName, e.Message)
}

// SerializationError marks malformed or unknown-type decoder input. The
// decoder never returns a partially-filled value alongside this error.
type SerializationError struct {
	Message string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %s", e.Message)
}

// RegistryError is raised when constructing an unknown shard name.
type RegistryError struct {
	Name string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("unknown shard: %q", e.Name)
}

// ErrTooDeep is returned by value.Hash when a container's nesting exceeds
// the recursion limit. value.Equal applies the same limit but only reports
// false; value.Clone has no limit.
var ErrTooDeep = errors.New("value graph too deep")

// SyncMap is a minimal generic concurrency-safe map. The mesh's variable
// tables are scope.Table values and the work pool keeps no job map, so
// no package in this module uses it.
type SyncMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: map[K]V{}}
}

func (s *SyncMap[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

func (s *SyncMap[K, V]) Set(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
}

func (s *SyncMap[K, V]) Del(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
}

func (s *SyncMap[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Each calls f for every entry. f must not mutate the map.
func (s *SyncMap[K, V]) Each(f func(K, V)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.m {
		f(k, v)
	}
}
