// Package store holds the in-memory entity collections.
package store

import (
	"sync"

	"github.com/go-faster/errors"
)

// ErrDuplicateID is returned when a record id is already taken.
var ErrDuplicateID = errors.New("duplicate id")

// Record is anything a Collection can index.
type Record interface {
	RecordID() string
}

// Collection is an ordered list of records with an id index.
//
// Collection does no locking of its own: callers hold the embedded mutex
// around every sequence of calls that must see a consistent view, such as a
// lookup followed by a mutation.
type Collection[T Record] struct {
	sync.Mutex

	name  string
	items []T
	index map[string]int
}

// NewCollection returns an empty collection.
func NewCollection[T Record](name string) *Collection[T] {
	return &Collection[T]{
		name:  name,
		index: make(map[string]int),
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load appends records in order, failing on the first duplicate id.
func (c *Collection[T]) Load(records []T) error {
	for _, rec := range records {
		if err := c.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// All returns the records in insertion order. The slice is a copy; the
// records are not.
func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the record with the given id.
func (c *Collection[T]) Find(id string) (T, bool) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Append adds a record at the end.
func (c *Collection[T]) Append(rec T) error {
	id := rec.RecordID()
	if _, ok := c.index[id]; ok {
		return errors.Wrapf(ErrDuplicateID, "%s %q", c.name, id)
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, rec)
	return nil
}

// Remove deletes the record with the given id, keeping the order of the rest.
func (c *Collection[T]) Remove(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].RecordID()] = j
	}
	return true
}
