// Package compare merges a destination schema tree into an origin tree,
// tagging every node with the status that turns the origin into the
// destination.
package compare

import (
	"fmt"

	"github.com/tordrt/schemadiff/internal/schema"
)

// Comparer merges the elements of one collection kind.
type Comparer[T schema.Element[T, P], P schema.Node] interface {
	// Add merges an element that only exists in the destination.
	Add(origin *schema.Collection[T, P], item T) error
	// Update merges an element that exists on both sides.
	Update(origin *schema.Collection[T, P], existing, item T) error
}

// Funcs builds a Comparer from functions. A nil AddFunc clones the element
// into the origin with status Create; a nil UpdateFunc leaves the origin
// element untouched.
type Funcs[T schema.Element[T, P], P schema.Node] struct {
	AddFunc    func(origin *schema.Collection[T, P], item T) error
	UpdateFunc func(origin *schema.Collection[T, P], existing, item T) error
}

func (f Funcs[T, P]) Add(origin *schema.Collection[T, P], item T) error {
	if f.AddFunc != nil {
		return f.AddFunc(origin, item)
	}
	return AddCreated(origin, item)
}

func (f Funcs[T, P]) Update(origin *schema.Collection[T, P], existing, item T) error {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(origin, existing, item)
	}
	return nil
}

// AddCreated clones item into origin with status Create.
func AddCreated[T schema.Element[T, P], P schema.Node](origin *schema.Collection[T, P], item T) error {
	clone := item.Clone(origin.Owner())
	clone.Metadata().Status = schema.StatusCreate
	return origin.Add(clone)
}

// Replace swaps the origin element with a clone of item carrying status.
func Replace[T schema.Element[T, P], P schema.Node](origin *schema.Collection[T, P], item T, status schema.Status) error {
	if !status.Valid() {
		return fmt.Errorf("failed to replace %s %s: %s: %w", item.Type(), item.FullName(), status, schema.ErrInvalidStatus)
	}
	clone := item.Clone(origin.Owner())
	clone.Metadata().Status = status
	return origin.Set(clone)
}

// Diff merges destination into origin.
//
// The destination scan clones missing elements into origin as Create and
// hands matching ones to the comparer. The origin scan covers only the
// elements origin held before the call and marks those missing from the
// destination as Drop; they stay in the collection. Keys match
// case-insensitively on full name, so a rename is a Drop plus a Create.
func Diff[T schema.Element[T, P], P schema.Node](origin, destination *schema.Collection[T, P], c Comparer[T, P], l Listener) error {
	originCount := origin.Len()
	destinationCount := destination.Len()

	for i := 0; i < max(originCount, destinationCount); i++ {
		if i < destinationCount {
			item := destination.At(i)
			kind := item.Type()
			notify(l, Indeterminate, "Comparing Destination %s: [%s]", kind, item.FullName())
			if existing, ok := origin.Get(item.FullName()); ok {
				notify(l, Indeterminate, "Updating %s: [%s]", kind, item.FullName())
				if err := c.Update(origin, existing, item); err != nil {
					return fmt.Errorf("failed to compare %s %s: %w", kind, item.FullName(), err)
				}
			} else {
				notify(l, Indeterminate, "Adding %s: [%s]", kind, item.FullName())
				if err := c.Add(origin, item); err != nil {
					return fmt.Errorf("failed to add %s %s: %w", kind, item.FullName(), err)
				}
			}
		}
		if i < originCount {
			item := origin.At(i)
			notify(l, Indeterminate, "Comparing Source %s: [%s]", item.Type(), item.FullName())
			if !destination.Has(item.FullName()) {
				notify(l, Indeterminate, "Deleting %s: [%s]", item.Type(), item.FullName())
				if err := schema.MarkStatus(item, schema.StatusDrop); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// toggleStatus is the status of an element whose shape or enabled flag
// changed. A toggle alone is not an Alter.
func toggleStatus(sameShape, toggled bool) schema.Status {
	switch {
	case sameShape && toggled:
		return schema.StatusDisabled
	case toggled:
		return schema.StatusAlter | schema.StatusDisabled
	}
	return schema.StatusAlter
}
