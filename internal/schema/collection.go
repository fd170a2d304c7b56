package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Collection is an insertion-ordered set of nodes keyed by case-insensitive
// full name. It owns its elements: adding an element attaches it to the
// collection owner and registers it in the database index.
type Collection[T Element[T, P], P Node] struct {
	owner P
	items []T
	keys  map[string]int
}

// NewCollection returns an empty collection owned by owner.
func NewCollection[T Element[T, P], P Node](owner P) *Collection[T, P] {
	return &Collection[T, P]{
		owner: owner,
		keys:  make(map[string]int),
	}
}

func collectionKey(name string) string {
	return strings.ToLower(name)
}

// Owner returns the node owning the collection.
func (c *Collection[T, P]) Owner() P {
	return c.owner
}

// Len returns the number of elements.
func (c *Collection[T, P]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the element at position i.
func (c *Collection[T, P]) At(i int) T {
	return c.items[i]
}

// Items returns the elements in insertion order. The slice must not be
// modified.
func (c *Collection[T, P]) Items() []T {
	if c == nil {
		return nil
	}
	return c.items
}

// Has reports whether an element with the given full name exists.
func (c *Collection[T, P]) Has(fullName string) bool {
	if c == nil {
		return false
	}
	_, ok := c.keys[collectionKey(fullName)]
	return ok
}

// Get returns the element with the given full name.
func (c *Collection[T, P]) Get(fullName string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	i, ok := c.keys[collectionKey(fullName)]
	if !ok {
		return zero, false
	}
	return c.items[i], true
}

// Add appends item. It fails if the key is already present.
func (c *Collection[T, P]) Add(item T) error {
	k := collectionKey(item.FullName())
	if _, ok := c.keys[k]; ok {
		return fmt.Errorf("%s %s: %w", item.Type(), item.FullName(), ErrDuplicate)
	}
	item.setParent(c.owner)
	c.keys[k] = len(c.items)
	c.items = append(c.items, item)
	if db := rootOf(c.owner); db != nil {
		db.index().add(item)
	}
	return nil
}

// Set replaces the element holding item's key, keeping its position.
func (c *Collection[T, P]) Set(item T) error {
	k := collectionKey(item.FullName())
	i, ok := c.keys[k]
	if !ok {
		return notFound(item.Type().String(), item.FullName())
	}
	db := rootOf(c.owner)
	if db != nil {
		db.index().remove(c.items[i])
	}
	item.setParent(c.owner)
	c.items[i] = item
	if db != nil {
		db.index().add(item)
	}
	return nil
}

// CloneInto copies every element into dst, attached to dst's owner.
func (c *Collection[T, P]) CloneInto(dst *Collection[T, P]) {
	for _, item := range c.Items() {
		// keys are unique in c, so Add cannot fail
		_ = dst.Add(item.Clone(dst.owner))
	}
}

func (c *Collection[T, P]) nodes() []Node {
	out := make([]Node, 0, c.Len())
	for _, item := range c.Items() {
		out = append(out, item)
	}
	return out
}

// bind attaches owner to a collection decoded from JSON.
func (c *Collection[T, P]) bind(owner P) {
	c.owner = owner
	for _, item := range c.items {
		item.setParent(owner)
		item.link()
	}
}

func (c *Collection[T, P]) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

func (c *Collection[T, P]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.items = items[:0]
	c.keys = make(map[string]int, len(items))
	for _, item := range items {
		k := collectionKey(item.FullName())
		if _, ok := c.keys[k]; ok {
			return fmt.Errorf("%s %s: %w", item.Type(), item.FullName(), ErrDuplicate)
		}
		c.keys[k] = len(c.items)
		c.items = append(c.items, item)
	}
	return nil
}

// ensureCollection returns c, or a fresh collection when c is nil.
func ensureCollection[T Element[T, P], P Node](c *Collection[T, P], owner P) *Collection[T, P] {
	if c == nil {
		return NewCollection[T](owner)
	}
	c.bind(owner)
	return c
}
