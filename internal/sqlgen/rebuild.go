package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

const (
	tempTablePrefix  = "Temp"
	tempUniquePrefix = "Temp_XX_"
)

// rebuildTable replaces t with a copy of the new shape: its dependents are
// dropped, the data is moved through a temporary table, and the
// dependents are recreated in reverse order.
func (e *emitter) rebuildTable(t *schema.Table, w int) {
	deps := e.db.Dependencies().Find(t.ID)
	e.dropDependencies(t, deps, w)
	e.rebuildBody(t, w)
	e.createDependencies(t, deps, w, true)

	lob := t.HasFileStream()
	if e.f.AlterConstraints {
		for _, c := range t.Constraints.Items() {
			switch {
			case !added(c.Status), c.Kind == schema.Unique && lob:
			case c.Kind == schema.ForeignKey:
				e.deferForeignKey(c)
			default:
				e.addConstraint(c, w)
			}
		}
	}
	for _, idx := range t.Indexes.Items() {
		if added(idx.Status) {
			e.createIndex(idx, w)
		}
	}
	for _, tr := range t.Triggers.Items() {
		if !tr.Status.IsDrop() {
			e.createTrigger(tr, w)
		}
	}
	if e.cfg.TableOptions {
		e.alterOptions(t, w)
	}
	if t.HasChangeTracking && e.f.ChangeTracking {
		e.emit(e.changeTrackingSQL(t), w, ActionAlterTableChangeTracking, t.FullName())
	}
	e.rows(t, w, false)
}

// copyColumns returns the target columns and source expressions used to
// move the existing rows, and whether an identity column is being added.
//
// Dropped, computed and row version columns are not copied. New columns
// are copied only when NOT NULL, from their forced value; a new identity
// column generates its own values.
func (e *emitter) copyColumns(t *schema.Table) (columns, values []string, identityAdded bool) {
	for _, c := range t.Columns.Items() {
		s := c.Status
		if s.IsDrop() || c.Computed || (e.f.RowVersion && schema.IsTimestamp(c.DataType)) {
			continue
		}
		if s.IsCreate() {
			if c.Identity {
				identityAdded = true
				continue
			}
			if c.Nullable || schema.IsXML(c.DataType) {
				continue
			}
		}
		name := e.d.Quote(c.Name)
		columns = append(columns, name)
		switch {
		case s.IsCreate():
			values = append(values, e.d.ForcedValue(c))
		case c.HasToForceValue():
			values = append(values, e.d.Coalesce(name, e.d.ForcedValue(c)))
		default:
			values = append(values, name)
		}
	}
	return columns, values, identityAdded
}

// rebuildBody emits the copy and rename sequence. Nothing is emitted when
// no column can be copied.
func (e *emitter) rebuildBody(t *schema.Table, w int) {
	columns, values, identityAdded := e.copyColumns(t)
	if len(columns) == 0 {
		return
	}
	name := e.tableName(t)
	temp := tempTablePrefix + t.Name
	tempName := e.qualify(t.Owner, temp)
	target := t.FullName()

	// Unique keys of large object storage keep a temporary name until the
	// old table is gone.
	lob := t.HasFileStream() && e.f.AlterConstraints
	var renamed []*schema.Constraint
	inline := func(c *schema.Constraint) string {
		switch {
		case !e.f.AlterConstraints:
			return e.constraintDef(c)
		case lob && c.Kind == schema.Unique:
			renamed = append(renamed, c)
			return e.constraintDefAs(c, tempUniquePrefix+c.Name)
		}
		return ""
	}
	e.emit(e.createTableSQL(t, tempName, inline), w, ActionRebuildTable, target)

	copySQL := fmt.Sprintf("INSERT INTO %s (%s)\nSELECT %s FROM %s",
		tempName, strings.Join(columns, ","), strings.Join(values, ","), name)
	if e.f.IdentityInsert && t.HasIdentityColumn() && !identityAdded {
		copySQL = fmt.Sprintf("SET IDENTITY_INSERT %s ON\n%s\nSET IDENTITY_INSERT %s OFF", tempName, copySQL, tempName)
	}
	e.emit(copySQL, w, ActionRebuildTable, target)

	e.emit("DROP TABLE "+name, w, ActionRebuildTable, target)
	for _, c := range renamed {
		e.emit(e.d.RenameConstraint(tempName, t.Owner, tempUniquePrefix+c.Name, c.Name), w, ActionRebuildTable, target)
	}
	e.emit(e.d.RenameTable(t.Owner, temp, t.Name), w, ActionRebuildTable, target)

	if t.Original != nil {
		for _, o := range t.Original.Options.Items() {
			e.emit(e.d.TableOption(name, o), w, ActionAlterTableOption, target)
		}
	}
}
