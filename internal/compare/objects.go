package compare

import (
	"slices"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// replaceWhen returns a comparer that replaces the origin element with the
// destination one, carrying status, when equal reports a difference.
func replaceWhen[T schema.Element[T, *schema.Database]](equal func(a, b T) bool, status schema.Status) Funcs[T, *schema.Database] {
	return Funcs[T, *schema.Database]{
		UpdateFunc: func(origin *schema.Collection[T, *schema.Database], existing, item T) error {
			if equal(existing, item) {
				return nil
			}
			return Replace(origin, item, status)
		},
	}
}

func equalReferences(a, b []string) bool {
	return slices.EqualFunc(a, b, strings.EqualFold)
}

type viewComparer struct {
	listener Listener
	indexes  bool
	triggers bool
}

func (c viewComparer) Add(origin *schema.Collection[*schema.View, *schema.Database], item *schema.View) error {
	return AddCreated(origin, item)
}

// Update replaces a view whose body changed. Otherwise its indexes and
// triggers are compared in place.
func (c viewComparer) Update(origin *schema.Collection[*schema.View, *schema.Database], existing, item *schema.View) error {
	if existing.Text != item.Text || !equalReferences(existing.References, item.References) {
		return Replace(origin, item, schema.StatusAlter)
	}
	if c.indexes {
		if err := Diff(existing.Indexes, item.Indexes, indexComparer, c.listener); err != nil {
			return err
		}
	}
	if c.triggers {
		if err := Diff(existing.Triggers, item.Triggers, triggerComparer, c.listener); err != nil {
			return err
		}
	}
	return nil
}

var routineComparer = replaceWhen(func(a, b *schema.Routine) bool {
	return a.Text == b.Text && equalReferences(a.References, b.References)
}, schema.StatusAlter)

var synonymComparer = replaceWhen(func(a, b *schema.Synonym) bool {
	return strings.EqualFold(a.Target, b.Target)
}, schema.StatusAlter)

var namespaceComparer = replaceWhen(func(a, b *schema.Namespace) bool {
	return strings.EqualFold(a.Owner, b.Owner)
}, schema.StatusAlter)

var roleComparer = replaceWhen(func(a, b *schema.Role) bool {
	return a.Application == b.Application && a.Password == b.Password
}, schema.StatusAlter)

var userComparer = replaceWhen(func(a, b *schema.User) bool {
	return strings.EqualFold(a.Login, b.Login) && strings.EqualFold(a.DefaultSchema, b.DefaultSchema)
}, schema.StatusAlter)

var fileGroupComparer = replaceWhen(func(a, b *schema.FileGroup) bool {
	return a.IsDefault == b.IsDefault && a.IsReadOnly == b.IsReadOnly && a.FileStream == b.FileStream
}, schema.StatusAlter)

// A changed alias type cannot be altered; it is dropped and created again.
var userTypeComparer = replaceWhen(func(a, b *schema.UserType) bool {
	return strings.EqualFold(a.BaseType, b.BaseType) &&
		a.Size == b.Size &&
		a.Precision == b.Precision &&
		a.Scale == b.Scale &&
		a.Nullable == b.Nullable
}, schema.StatusAlter|schema.StatusRebuild)
