package schema

import (
	"cmp"
	"slices"
	"strings"
)

// Entry is one object recorded in the global index.
type Entry struct {
	ID         int
	Type       ObjectType
	FullName   string
	ParentName string
	node       Node
}

// Registry indexes every node under a database by id and, for addressable
// kinds, by full name.
type Registry struct {
	byID   map[int]*Entry
	byName map[string]*Entry
	nextID int
}

func newRegistry() *Registry {
	return &Registry{
		byID:   make(map[int]*Entry),
		byName: make(map[string]*Entry),
		nextID: -1,
	}
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Entry returns the registered entry for id.
func (r *Registry) Entry(id int) (Entry, bool) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns every registered entry ordered by id.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Node returns the indexed node.
func (e Entry) Node() Node { return e.node }

// add registers n and its descendants. A node whose id is unset, or taken
// by a different node, gets a fresh synthetic id.
func (r *Registry) add(n Node) {
	walk(n, func(node Node) {
		m := node.Metadata()
		if existing, ok := r.byID[m.ID]; m.ID == 0 || (ok && existing.node != node) {
			m.ID = r.nextID
			r.nextID--
		}
		e := &Entry{
			ID:       m.ID,
			Type:     node.Type(),
			FullName: node.FullName(),
			node:     node,
		}
		if p := node.Parent(); p != nil {
			e.ParentName = p.FullName()
		}
		r.byID[m.ID] = e
		if node.Type().addressable() {
			r.byName[strings.ToLower(registryName(node))] = e
		}
	})
}

// remove drops n and its descendants from the index.
func (r *Registry) remove(n Node) {
	walk(n, func(node Node) {
		id := node.Metadata().ID
		e, ok := r.byID[id]
		if !ok || e.node != node {
			return
		}
		delete(r.byID, id)
		key := strings.ToLower(registryName(node))
		if named, ok := r.byName[key]; ok && named == e {
			delete(r.byName, key)
		}
	})
}
