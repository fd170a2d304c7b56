package compare

import (
	"strings"

	"github.com/tordrt/schemadiff/internal/config"
	"github.com/tordrt/schemadiff/internal/schema"
)

type tableComparer struct {
	cfg      *config.Diffs
	listener Listener
}

func (c *tableComparer) Add(origin *schema.Collection[*schema.Table, *schema.Database], item *schema.Table) error {
	return AddCreated(origin, item)
}

// Update compares the table attributes in place and diffs each enabled
// member collection. The origin shape is kept in Original for the rebuild
// planner.
func (c *tableComparer) Update(_ *schema.Collection[*schema.Table, *schema.Database], existing, item *schema.Table) error {
	existing.Original = existing.Clone(nil)

	// A heap moves with its data; a clustered table moves with its index.
	if !sameFileGroup(existing.FileGroup, item.FileGroup) && !existing.HasClusteredIndex() {
		existing.FileGroup = item.FileGroup
		if err := schema.MarkStatus(existing, schema.StatusRebuild); err != nil {
			return err
		}
	}
	if !sameFileGroup(existing.FileGroupText, item.FileGroupText) {
		existing.FileGroupText = item.FileGroupText
		if err := schema.MarkStatus(existing, schema.StatusRebuild); err != nil {
			return err
		}
	}
	if existing.HasChangeTracking != item.HasChangeTracking ||
		existing.HasChangeTrackingTrackColumn != item.HasChangeTrackingTrackColumn {
		existing.HasChangeTracking = item.HasChangeTracking
		existing.HasChangeTrackingTrackColumn = item.HasChangeTrackingTrackColumn
		if err := schema.MarkStatus(existing, schema.StatusDisabled); err != nil {
			return err
		}
	}

	if c.cfg.Columns {
		if err := Diff(existing.Columns, item.Columns, columnComparer{}, c.listener); err != nil {
			return err
		}
	}
	if c.cfg.Constraints {
		if err := Diff(existing.Constraints, item.Constraints, constraintComparer, c.listener); err != nil {
			return err
		}
	}
	if c.cfg.Indexes {
		if err := Diff(existing.Indexes, item.Indexes, indexComparer, c.listener); err != nil {
			return err
		}
	}
	if c.cfg.TableOptions {
		if err := Diff(existing.Options, item.Options, optionComparer, c.listener); err != nil {
			return err
		}
	}
	if c.cfg.Triggers {
		if err := Diff(existing.Triggers, item.Triggers, triggerComparer, c.listener); err != nil {
			return err
		}
	}
	if existing.Rows.Len() > 0 || item.Rows.Len() > 0 {
		if err := Diff(existing.Rows, item.Rows, Funcs[*schema.RowData, *schema.Table]{}, c.listener); err != nil {
			return err
		}
	}

	if existing.HasChanges() {
		return schema.MarkStatus(existing, schema.StatusAlter)
	}
	return nil
}

// sameFileGroup treats an unknown filegroup as matching any other.
func sameFileGroup(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(a, b)
}

var constraintComparer = Funcs[*schema.Constraint, *schema.Table]{
	UpdateFunc: func(origin *schema.Collection[*schema.Constraint, *schema.Table], existing, item *schema.Constraint) error {
		same := existing.EqualIgnoringToggle(item)
		toggled := existing.IsDisabled != item.IsDisabled
		if same && !toggled {
			return nil
		}
		return Replace(origin, item, toggleStatus(same, toggled))
	},
}

var indexComparer = Funcs[*schema.Index, schema.Relation]{
	UpdateFunc: func(origin *schema.Collection[*schema.Index, schema.Relation], existing, item *schema.Index) error {
		same := existing.EqualIgnoringToggle(item)
		toggled := existing.IsDisabled != item.IsDisabled
		if same && !toggled {
			return nil
		}
		return Replace(origin, item, toggleStatus(same, toggled))
	},
}

var triggerComparer = Funcs[*schema.Trigger, schema.Relation]{
	UpdateFunc: func(origin *schema.Collection[*schema.Trigger, schema.Relation], existing, item *schema.Trigger) error {
		same := existing.Text == item.Text
		toggled := existing.IsDisabled != item.IsDisabled
		if same && !toggled {
			return nil
		}
		return Replace(origin, item, toggleStatus(same, toggled))
	},
}

var optionComparer = Funcs[*schema.TableOption, *schema.Table]{
	UpdateFunc: func(origin *schema.Collection[*schema.TableOption, *schema.Table], existing, item *schema.TableOption) error {
		if strings.EqualFold(existing.Value, item.Value) {
			return nil
		}
		return Replace(origin, item, schema.StatusAlter)
	},
}
