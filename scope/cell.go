// Package scope implements the variable cell and scope-resolution chain.
// A variable looked up by name resolves in order: current-wire locals,
// any enclosing wire's locals, the enclosing wire's external table, the
// mesh shared table, then mesh refs. First hit wins; if none and the
// lookup is a reference, a new cell is created at the innermost wire. It
// is a standalone package (rather than living in wire or mesh) so that
// package shard's Context interface can name Cell without creating a
// shard-wire-mesh import cycle.
package scope

import "github.com/zond/wiremesh/value"

// Cell is a named variable slot. Refcount tracks how many live references
// to this cell have been acquired via Reference; it is distinct from
// Value's own clone/destroy bookkeeping. External cells (mesh-injected,
// embedder-owned storage) bypass the refcount machinery entirely: Release
// is a no-op on them.
type Cell struct {
	Name     string
	Value    value.Value
	refcount int32
	external bool
}

// NewCell creates a fresh cell of kind None with refcount 1 — what a
// reference to an undeclared name produces.
func NewCell(name string) *Cell {
	return &Cell{Name: name, Value: value.Value{}, refcount: 1}
}

// NewExternalCell creates a host-owned cell holding v (stored by value);
// the cell bypasses refcounting and Release never destroys it.
func NewExternalCell(name string, v value.Value) *Cell {
	return &Cell{Name: name, Value: v, external: true}
}

// Reference increments the cell's refcount and returns it.
func (c *Cell) Reference() *Cell {
	if !c.external {
		c.refcount++
	}
	return c
}

// Release decrements the refcount; when it reaches zero the cell's Value
// is destroyed. External cells are never destroyed here — the host owns
// their lifetime.
func (c *Cell) Release() {
	if c.external {
		return
	}
	c.refcount--
	if c.refcount <= 0 {
		value.Destroy(&c.Value)
	}
}

// Refcount reports the current reference count (for diagnostics only).
func (c *Cell) Refcount() int32 { return c.refcount }

// External reports whether the cell bypasses refcounting.
func (c *Cell) External() bool { return c.external }

// Table is a name→*Cell map used at every scope level (wire locals, wire
// externals, mesh shared, mesh refs).
type Table struct {
	cells map[string]*Cell
}

func NewTable() *Table { return &Table{cells: map[string]*Cell{}} }

func (t *Table) Get(name string) (*Cell, bool) {
	c, ok := t.cells[name]
	return c, ok
}

func (t *Table) Set(name string, c *Cell) { t.cells[name] = c }

func (t *Table) Del(name string) { delete(t.cells, name) }

// Each calls f for every (name, cell) pair. f must not mutate the table.
func (t *Table) Each(f func(name string, c *Cell)) {
	for k, v := range t.cells {
		f(k, v)
	}
}

func (t *Table) Len() int { return len(t.cells) }

// Chain implements the Invariant's five-level lookup order. Each level is
// optional (nil is skipped) so a bare wire with no mesh can still resolve
// its own locals.
type Chain struct {
	Locals          *Table
	EnclosingLocals []*Table // outermost first, enclosing wires only
	External        *Table
	MeshShared      *Table
	MeshRefs        *Table
}

// Lookup returns the first hit across the chain, preferring the
// innermost scope.
func (c Chain) Lookup(name string) (*Cell, bool) {
	if c.Locals != nil {
		if cell, ok := c.Locals.Get(name); ok {
			return cell, true
		}
	}
	for i := len(c.EnclosingLocals) - 1; i >= 0; i-- {
		if cell, ok := c.EnclosingLocals[i].Get(name); ok {
			return cell, true
		}
	}
	if c.External != nil {
		if cell, ok := c.External.Get(name); ok {
			return cell, true
		}
	}
	if c.MeshShared != nil {
		if cell, ok := c.MeshShared.Get(name); ok {
			return cell, true
		}
	}
	if c.MeshRefs != nil {
		if cell, ok := c.MeshRefs.Get(name); ok {
			return cell, true
		}
	}
	return nil, false
}

// Reference resolves name via Lookup, or — per the Invariant — creates a
// fresh cell in the innermost wire (c.Locals) if nothing is found.
func (c Chain) Reference(name string) *Cell {
	if cell, ok := c.Lookup(name); ok {
		return cell.Reference()
	}
	cell := NewCell(name)
	if c.Locals != nil {
		c.Locals.Set(name, cell)
	}
	return cell
}
