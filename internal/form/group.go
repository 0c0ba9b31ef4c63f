// Package form holds the data-entry form model: repeatable item groups,
// typed field descriptors, conditional field visibility and the aggregator
// that turns a validated form into a submission payload.
//
// Nothing here is safe for concurrent use on its own; Draft serializes
// access for the HTTP layer.
package form

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrIndexOutOfRange = errors.New("item index out of range")
	ErrItemNotFound    = errors.New("item not found")
	ErrUnknownField    = errors.New("unknown field")
)

// Record is a fixed-shape group item addressed field by field.
// With returns a modified copy and false when field does not exist.
type Record[T any] interface {
	Get(field string) (string, bool)
	With(field, value string) (T, bool)
}

// Item is a record with a stable identity that survives removals.
type Item[T any] struct {
	ID    string
	Value T
}

// Group is an ordered, independently mutable list of records backing
// one repeatable form section.
type Group[T Record[T]] struct {
	name    string
	title   string
	columns []Field
	items   []Item[T]
	newID   func() string
}

// NewGroup creates a group with the given number of empty records.
func NewGroup[T Record[T]](name, title string, columns []Field, initial int) *Group[T] {
	g := &Group[T]{
		name:    name,
		title:   title,
		columns: columns,
		items:   make([]Item[T], 0, initial),
		newID:   uuid.NewString,
	}
	for i := 0; i < initial; i++ {
		g.Add()
	}
	return g
}

func (g *Group[T]) Name() string { return g.name }
func (g *Group[T]) Title() string { return g.title }
func (g *Group[T]) Columns() []Field { return g.columns }
func (g *Group[T]) Len() int { return len(g.items) }

// Add appends a record with every field empty and returns it.
func (g *Group[T]) Add() Item[T] {
	var zero T
	item := Item[T]{ID: g.newID(), Value: zero}
	g.items = append(g.items, item)
	return item
}

// RemoveAt deletes the record at index and shifts later records down.
// An invalid index is a no-op and reports false.
func (g *Group[T]) RemoveAt(index int) bool {
	if index < 0 || index >= len(g.items) {
		return false
	}
	g.items = append(g.items[:index], g.items[index+1:]...)
	return true
}

// RemoveByID deletes the record with the given ID, if present.
func (g *Group[T]) RemoveByID(id string) bool {
	return g.RemoveAt(g.IndexOf(id))
}

// UpdateAt replaces a single field of the record at index.
// The value is stored as typed; its shape is not checked.
func (g *Group[T]) UpdateAt(index int, field, value string) error {
	if index < 0 || index >= len(g.items) {
		return ErrIndexOutOfRange
	}
	updated, ok := g.items[index].Value.With(field, value)
	if !ok {
		return ErrUnknownField
	}
	g.items[index].Value = updated
	return nil
}

// UpdateByID replaces a single field of the record with the given ID.
func (g *Group[T]) UpdateByID(id, field, value string) error {
	i := g.IndexOf(id)
	if i < 0 {
		return ErrItemNotFound
	}
	return g.UpdateAt(i, field, value)
}

// IndexOf returns the current position of id, or -1.
func (g *Group[T]) IndexOf(id string) int {
	for i, it := range g.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy of the items in order.
func (g *Group[T]) Items() []Item[T] {
	out := make([]Item[T], len(g.items))
	copy(out, g.items)
	return out
}

// Values returns the records in order. The result is never nil.
func (g *Group[T]) Values() []T {
	out := make([]T, len(g.items))
	for i, it := range g.items {
		out[i] = it.Value
	}
	return out
}

// Rows renders the group for the editor template.
func (g *Group[T]) Rows() []Row {
	rows := make([]Row, len(g.items))
	for i, it := range g.items {
		cells := make([]Cell, len(g.columns))
		for j, col := range g.columns {
			v, _ := it.Value.Get(col.Name)
			cells[j] = Cell{Field: col, Value: v}
		}
		rows[i] = Row{ID: it.ID, Index: i, Cells: cells}
	}
	return rows
}

// Totals sums every column marked Summed. Unparsable values are skipped
// and counted.
func (g *Group[T]) Totals() []ColumnTotal {
	var totals []ColumnTotal
	for _, col := range g.columns {
		if !col.Summed {
			continue
		}
		values := make([]string, len(g.items))
		for i, it := range g.items {
			values[i], _ = it.Value.Get(col.Name)
		}
		totals = append(totals, sumColumn(col, values))
	}
	return totals
}

// Editor is the type-erased view of a Group used by HTTP handlers and
// templates.
type Editor interface {
	Name() string
	Title() string
	Columns() []Field
	Len() int
	AddItem() string
	RemoveByID(id string) bool
	UpdateByID(id, field, value string) error
	Rows() []Row
	Totals() []ColumnTotal
}

// AddItem appends an empty record and returns its ID.
func (g *Group[T]) AddItem() string {
	return g.Add().ID
}

// Row is one rendered group item.
type Row struct {
	ID    string
	Index int
	Cells []Cell
}

// Cell pairs a column descriptor with the item's current value.
type Cell struct {
	Field Field
	Value string
}
