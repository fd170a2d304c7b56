package compare

import (
	"github.com/tordrt/schemadiff/internal/schema"
)

type columnComparer struct{}

// Add merges a new column. A NOT NULL column without a way to fill existing
// rows forces the table to be rebuilt with a synthesized value.
func (columnComparer) Add(origin *schema.Collection[*schema.Column, *schema.Table], item *schema.Column) error {
	clone := item.Clone(origin.Owner())
	clone.Status = schema.StatusCreate
	if clone.Default != nil {
		clone.Default.Status = schema.StatusCreate
	}
	if !clone.Nullable && !clone.Identity && !clone.Computed {
		clone.ForceValue = true
		if clone.Default == nil {
			if err := schema.MarkStatus(origin.Owner(), schema.StatusRebuild); err != nil {
				return err
			}
		}
	}
	return origin.Add(clone)
}

// Update merges a column present on both sides. Changes an ALTER COLUMN
// cannot express escalate the table to Rebuild; changes on a column other
// objects depend on escalate it to RebuildDependencies.
func (columnComparer) Update(origin *schema.Collection[*schema.Column, *schema.Table], existing, item *schema.Column) error {
	table := origin.Owner()
	def, defaultChanged := mergeDefault(existing.Default, item.Default)

	if existing.EqualShape(item) {
		if defaultChanged {
			existing.SetDefault(def)
		}
		return nil
	}

	clone := item.Clone(table)
	clone.Status = schema.StatusAlter
	clone.SetDefault(def)

	switch {
	case !schema.CanAlterInPlace(existing, item):
		if err := schema.MarkStatus(table, schema.StatusRebuild); err != nil {
			return err
		}
	case schema.HasDependents(existing):
		clone.Status |= schema.StatusRebuildDependencies
		if err := schema.MarkStatus(table, schema.StatusRebuildDependencies); err != nil {
			return err
		}
	}
	if existing.Nullable && !item.Nullable {
		clone.ForceValue = true
	}
	return origin.Set(clone)
}

// mergeDefault returns the default node the merged column carries and
// whether it differs from the origin.
func mergeDefault(origin, destination *schema.Default) (*schema.Default, bool) {
	switch {
	case origin == nil && destination == nil:
		return nil, false
	case origin == nil:
		d := destination.Clone(nil)
		d.Status = schema.StatusCreate
		return d, true
	case destination == nil:
		origin.Status = schema.StatusDrop
		return origin, true
	case origin.Equal(destination):
		return origin, false
	}
	d := destination.Clone(nil)
	d.Status = schema.StatusAlter
	d.OldName = origin.Name
	return d, true
}
