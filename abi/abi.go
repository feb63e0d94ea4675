// Package abi exposes the runtime's embedding surface as a single,
// linkable struct of function values — the Go-idiomatic stand-in for an
// ABI-stable C vtable (struct of function pointers) embedders link
// against. Every entry point a host needs — registries, value lifecycle,
// variables, compose/run, mesh and wire control, the async bridge — is a
// field on VTable, each a plain Go closure over a *Runtime.
//
// A real C ABI would need cgo export directives, which this package does
// not have (the only cgo in the module is codec's tkrzw binding); VTable is the bridgeable
// core an embedder.go in a cgo-enabled build could export
// function-by-function.
package abi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"time"

	"github.com/zond/wiremesh"
	"github.com/zond/wiremesh/compose"
	"github.com/zond/wiremesh/mesh"
	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/typeinfo"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
	"github.com/zond/wiremesh/workpool"
)

// Runtime is the embedding state a VTable closes over: shard/object/enum
// registries, the work pool backing asyncActivate, and the root path
// external modules load from.
type Runtime struct {
	Registry    *shard.Registry
	Pool        *workpool.Pool
	ObjectTypes map[[2]uint32]ObjectTypeInfo
	EnumTypes   map[[2]uint32]EnumTypeInfo
	rootPath    string

	runCallbacks  map[string]func()
	exitCallbacks map[string]func()
}

// ObjectTypeInfo and EnumTypeInfo are the registries' payloads for
// registerObjectType/registerEnumType. The runtime
// treats both as opaque blobs describing a (vendor, type) pair; it is the
// embedder's job to interpret them.
type ObjectTypeInfo struct {
	Name string
	Data any
}

type EnumTypeInfo struct {
	Name   string
	Values map[int32]string
}

// NewRuntime constructs a Runtime with an empty shard registry and a fresh
// work pool.
func NewRuntime() *Runtime {
	return &Runtime{
		Registry:      shard.NewRegistry(),
		Pool:          workpool.New(),
		ObjectTypes:   map[[2]uint32]ObjectTypeInfo{},
		EnumTypes:     map[[2]uint32]EnumTypeInfo{},
		runCallbacks:  map[string]func(){},
		exitCallbacks: map[string]func(){},
	}
}

// VTable is the flat function table embedders link against, grouped
// (Memory/Registries/Hooks/Values/Variables/Compose-run/Mesh/Wire/
// Root-path/Async) purely for readability; the struct itself is one flat
// table.
type VTable struct {
	rt *Runtime

	// Memory. Go values are garbage collected, so Alloc/Free are a
	// pass-through pair over byte slices rather than a real allocator —
	// kept as named entry points so a host written against the vtable
	// shape has something to call.
	Alloc func(size int) []byte
	Free  func([]byte)

	// Registries.
	RegisterShard      func(name string, ctor shard.Factory)
	RegisterObjectType func(vendor, typ uint32, info ObjectTypeInfo)
	RegisterEnumType   func(vendor, typ uint32, info EnumTypeInfo)

	// Hooks.
	RegisterRunLoopCallback func(name string, fn func())
	UnregisterRunLoopCallback func(name string)
	RegisterExitCallback    func(name string, fn func())
	UnregisterExitCallback  func(name string)

	// Values.
	CloneVar   func(dst *value.Value, src value.Value)
	DestroyVar func(v *value.Value)

	// Variables.
	ReferenceWireVariable   func(w *wire.Wire, name string) value.Value
	ReferenceGlobalVariable func(m *mesh.Mesh, name string) value.Value
	ReleaseVariable         func(m *mesh.Mesh, name string)
	SetExternalVariable     func(w *wire.Wire, name string, v value.Value)

	// Compose/run.
	ComposeWire   func(w *wire.Wire, data shard.InstanceData) []shard.ComposeDiagnostic
	ComposeShards func(shards []shard.Shard, data shard.InstanceData) (shard.ComposeResult, []shard.ComposeDiagnostic)

	// Mesh.
	CreateMesh    func(ctx context.Context) *mesh.Mesh
	DestroyMesh   func(m *mesh.Mesh)
	Schedule      func(m *mesh.Mesh, w *wire.Wire, input value.Value, inputType typeinfo.TypeInfo) ([]shard.ComposeDiagnostic, error)
	Tick          func(m *mesh.Mesh) bool
	Sleep         func(d time.Duration, runCallbacks bool)

	// Wire.
	CreateWire     func(name string, shards []shard.Shard, cfg wire.Config) (*wire.Wire, error)
	SetWireLooped  func(w *wire.Wire, looped bool)
	StopWire       func(w *wire.Wire)
	GetWireInfo    func(w *wire.Wire) WireInfo

	// Root-path.
	GetRootPath func() string
	SetRootPath func(p string) error

	// Async.
	AsyncActivate func(ctx shard.Context, fn func() (any, error), cancel func()) (any, error)
}

// WireInfo is getWireInfo's return shape: a snapshot safe to hand an
// embedder without exposing *wire.Wire's internals.
type WireInfo struct {
	Name      string
	State     string
	Looped    bool
	Unsafe    bool
	Pure      bool
	Dangling  []string
}

// New builds a VTable bound to rt. Every field is a closure so the table
// itself can be handed to a host as a value (struct of function pointers)
// independent of how Runtime stores its state.
func New(rt *Runtime) *VTable {
	composer := compose.New()
	return &VTable{
		rt: rt,

		Alloc: func(size int) []byte { return make([]byte, size) },
		Free:  func([]byte) {},

		RegisterShard: func(name string, ctor shard.Factory) {
			rt.Registry.Register(name, ctor)
		},
		RegisterObjectType: func(vendor, typ uint32, info ObjectTypeInfo) {
			rt.ObjectTypes[[2]uint32{vendor, typ}] = info
		},
		RegisterEnumType: func(vendor, typ uint32, info EnumTypeInfo) {
			rt.EnumTypes[[2]uint32{vendor, typ}] = info
		},

		RegisterRunLoopCallback: func(name string, fn func()) { rt.runCallbacks[name] = fn },
		UnregisterRunLoopCallback: func(name string) { delete(rt.runCallbacks, name) },
		RegisterExitCallback:    func(name string, fn func()) { rt.exitCallbacks[name] = fn },
		UnregisterExitCallback:  func(name string) { delete(rt.exitCallbacks, name) },

		CloneVar:   func(dst *value.Value, src value.Value) { value.CloneInto(dst, src) },
		DestroyVar: func(v *value.Value) { value.Destroy(v) },

		ReferenceWireVariable: func(w *wire.Wire, name string) value.Value {
			chain := scope.Chain{Locals: w.Locals(), External: w.External()}
			return chain.Reference(name).Value
		},
		ReferenceGlobalVariable: func(m *mesh.Mesh, name string) value.Value {
			return m.ReferenceGlobalVariable(name).Value
		},
		ReleaseVariable: func(m *mesh.Mesh, name string) { m.ReleaseVariable(name) },
		SetExternalVariable: func(w *wire.Wire, name string, v value.Value) {
			w.External().Set(name, scope.NewExternalCell(name, v))
		},

		ComposeWire: func(w *wire.Wire, data shard.InstanceData) []shard.ComposeDiagnostic {
			return w.Compose(composer, typeinfo.TypeInfo{}, nil)
		},
		ComposeShards: func(shards []shard.Shard, data shard.InstanceData) (shard.ComposeResult, []shard.ComposeDiagnostic) {
			return composer.ComposeShards(shards, data)
		},

		CreateMesh:  func(ctx context.Context) *mesh.Mesh { return mesh.New(ctx) },
		DestroyMesh: func(m *mesh.Mesh) { m.Terminate() },
		Schedule: func(m *mesh.Mesh, w *wire.Wire, input value.Value, inputType typeinfo.TypeInfo) ([]shard.ComposeDiagnostic, error) {
			return m.Schedule(w, input, true, inputType)
		},
		Tick: func(m *mesh.Mesh) bool { return m.Tick() },
		Sleep: func(d time.Duration, runCallbacks bool) {
			if runCallbacks {
				for _, fn := range rt.runCallbacks {
					fn()
				}
			}
			time.Sleep(d)
		},

		CreateWire: func(name string, shards []shard.Shard, cfg wire.Config) (*wire.Wire, error) {
			return wire.New(name, shards, cfg)
		},
		SetWireLooped: func(w *wire.Wire, looped bool) { w.Looped = looped },
		StopWire:      func(w *wire.Wire) { w.RequestStop() },
		GetWireInfo: func(w *wire.Wire) WireInfo {
			return WireInfo{
				Name:     w.WireName(),
				State:    w.State().String(),
				Looped:   w.Looped,
				Unsafe:   w.Unsafe,
				Pure:     w.Pure,
				Dangling: w.Dangling(),
			}
		},

		GetRootPath: func() string { return rt.rootPath },
		SetRootPath: func(p string) error { return rt.setRootPath(p) },

		AsyncActivate: func(ctx shard.Context, fn func() (any, error), cancel func()) (any, error) {
			return workpool.Await(rt.Pool, ctx, fn, cancel)
		},
	}
}

// setRootPath stores p and loads every $root/externals/*.so module. Go
// has no dlopen-equivalent loader for arbitrary .dll/.dylib files;
// plugin.Open covers the .so case on platforms the plugin package
// supports. Other extensions are skipped rather than failing setRootPath
// outright, since a host may simply not have built any externals for this
// platform.
func (rt *Runtime) setRootPath(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return wiremesh.WithStack(err)
	}
	rt.rootPath = abs
	externals := filepath.Join(abs, "externals")
	entries, err := os.ReadDir(externals)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return wiremesh.WithStack(err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".so" {
			continue
		}
		if _, err := plugin.Open(filepath.Join(externals, e.Name())); err != nil {
			return wiremesh.WithStack(fmt.Errorf("loading external %q: %w", e.Name(), err))
		}
	}
	return nil
}
