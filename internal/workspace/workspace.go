// Package workspace implements the ordered set of blocks a user is composing.
// Order is significant: it is the order tokens appear in the final query.
package workspace

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

var (
	ErrNotFound     = errors.New("block instance not found")
	ErrInvalidIndex = errors.New("invalid index")
)

// NotFoundError reports a mutation against an instance id that is not (or no
// longer) in the workspace.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("block instance %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidIndexError reports a reorder with an index outside [0, Len).
type InvalidIndexError struct {
	Index  int
	Length int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Length)
}

func (e *InvalidIndexError) Unwrap() error { return ErrInvalidIndex }

// Workspace is the exclusive owner of its block instances. It is not safe for
// concurrent use.
type Workspace struct {
	blocks []schemas.BlockInstance
	nextID int
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{nextID: 1}
}

type addOptions struct {
	index    int
	hasIndex bool
	value    string
}

// AddOption adjusts a single Add call.
type AddOption func(*addOptions)

// AtIndex inserts at i, shifting later blocks right. An index outside
// [0, Len] appends instead.
func AtIndex(i int) AddOption {
	return func(o *addOptions) {
		o.index = i
		o.hasIndex = true
	}
}

// WithValue seeds the new instance's value, e.g. for imported dorks.
func WithValue(v string) AddOption {
	return func(o *addOptions) { o.value = v }
}

// Add places a snapshot of tpl in the workspace and returns the new instance id.
func (w *Workspace) Add(tpl schemas.BlockTemplate, opts ...AddOption) string {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	inst := schemas.BlockInstance{
		ID:          w.mintID(),
		Kind:        tpl.Kind,
		Operator:    tpl.Operator,
		Placeholder: tpl.Placeholder,
		Description: tpl.Description,
		Value:       o.value,
	}

	if o.hasIndex && o.index >= 0 && o.index <= len(w.blocks) {
		w.blocks = append(w.blocks, schemas.BlockInstance{})
		copy(w.blocks[o.index+1:], w.blocks[o.index:])
		w.blocks[o.index] = inst
	} else {
		w.blocks = append(w.blocks, inst)
	}
	return inst.ID
}

// Import wraps raw dork text from an external source (such as GHDB) as a single
// operator-less custom block.
func (w *Workspace) Import(queryText, label string, opts ...AddOption) string {
	tpl := schemas.BlockTemplate{
		Kind:        schemas.KindCustom,
		Placeholder: "Imported dork",
		Description: label,
	}
	return w.Add(tpl, append(opts, WithValue(queryText))...)
}

// Update replaces an instance's value in place.
func (w *Workspace) Update(id, value string) error {
	i := w.Index(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	w.blocks[i].Value = value
	return nil
}

// Remove deletes an instance, preserving the order of the rest.
func (w *Workspace) Remove(id string) error {
	i := w.Index(id)
	if i < 0 {
		return &NotFoundError{ID: id}
	}
	w.blocks = append(w.blocks[:i], w.blocks[i+1:]...)
	return nil
}

// Reorder moves the instance at oldIndex to newIndex. Moving an instance onto
// its own position is a no-op.
func (w *Workspace) Reorder(oldIndex, newIndex int) error {
	n := len(w.blocks)
	if oldIndex < 0 || oldIndex >= n {
		return &InvalidIndexError{Index: oldIndex, Length: n}
	}
	if newIndex < 0 || newIndex >= n {
		return &InvalidIndexError{Index: newIndex, Length: n}
	}
	if oldIndex == newIndex {
		return nil
	}

	moved := w.blocks[oldIndex]
	if oldIndex < newIndex {
		copy(w.blocks[oldIndex:newIndex], w.blocks[oldIndex+1:newIndex+1])
	} else {
		copy(w.blocks[newIndex+1:oldIndex+1], w.blocks[newIndex:oldIndex])
	}
	w.blocks[newIndex] = moved
	return nil
}

// Clear removes every instance. Instance ids keep counting up so an id from
// before the clear can never address a later block.
func (w *Workspace) Clear() {
	w.blocks = nil
}

// Snapshot returns a copy of the instances in order.
func (w *Workspace) Snapshot() []schemas.BlockInstance {
	return append([]schemas.BlockInstance(nil), w.blocks...)
}

// Len returns the number of instances.
func (w *Workspace) Len() int { return len(w.blocks) }

// Index returns the position of id, or -1.
func (w *Workspace) Index(id string) int {
	for i := range w.blocks {
		if w.blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// At returns the instance at position i.
func (w *Workspace) At(i int) (schemas.BlockInstance, bool) {
	if i < 0 || i >= len(w.blocks) {
		return schemas.BlockInstance{}, false
	}
	return w.blocks[i], true
}

func (w *Workspace) mintID() string {
	id := "ws_block_" + strconv.Itoa(w.nextID)
	w.nextID++
	return id
}
