package sqlgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

func (e *emitter) table(t *schema.Table) error {
	if !t.Status.Valid() {
		return fmt.Errorf("table %s has status %s: %w", t.FullName(), t.Status, schema.ErrInvalidStatus)
	}
	w := t.DependenciesCount()
	switch {
	case t.Status.IsDrop():
		e.dropTable(t, w)
		return nil
	case t.Status.IsCreate():
		e.createTable(t, w)
		return nil
	case t.Status.Has(schema.StatusRebuild), t.Status.IsAlterFamily() && e.mustRebuild(t):
		e.rebuildTable(t, w)
		return nil
	case t.Status.Has(schema.StatusRebuildDependencies):
		e.alterTable(t, w, e.columnDependents(t))
	case t.Status.IsAlterFamily():
		e.alterTable(t, w, nil)
	}
	if t.Status.Has(schema.StatusDisabled) && e.f.ChangeTracking {
		e.emit(e.changeTrackingSQL(t), w, ActionAlterTableChangeTracking, t.FullName())
	}
	return nil
}

// mustRebuild reports whether the dialect cannot express the column or
// constraint changes of t as ALTER statements.
func (e *emitter) mustRebuild(t *schema.Table) bool {
	if !e.f.AlterColumn {
		for _, c := range t.Columns.Items() {
			if !c.Status.IsOriginal() || (c.Default != nil && !c.Default.Status.IsOriginal()) {
				return true
			}
		}
	}
	if !e.f.AlterConstraints {
		for _, c := range t.Constraints.Items() {
			if !c.Status.IsOriginal() {
				return true
			}
		}
	}
	return false
}

// dropTable drops the foreign keys of other tables that reference t, then
// t itself. Foreign keys of tables already dropped are gone with them.
func (e *emitter) dropTable(t *schema.Table, w int) {
	if e.f.AlterConstraints {
		for _, other := range e.db.Tables.Items() {
			if other == t || e.dropped[other] {
				continue
			}
			for _, fk := range other.ForeignKeys() {
				if strings.EqualFold(fk.RefTable, t.FullName()) {
					e.dropNode(fk, w)
				}
			}
		}
	}
	e.emit("DROP TABLE "+e.tableName(t), w, ActionDropTable, t.FullName())
	e.markDropped(t)
}

// markDropped records t and every object that disappears with it.
func (e *emitter) markDropped(t *schema.Table) {
	e.dropped[t] = true
	for _, c := range t.Constraints.Items() {
		e.dropped[c] = true
	}
	for _, idx := range t.Indexes.Items() {
		e.dropped[idx] = true
	}
	for _, tr := range t.Triggers.Items() {
		e.dropped[tr] = true
	}
	for _, c := range t.Columns.Items() {
		if c.Default != nil {
			e.dropped[c.Default] = true
		}
	}
}

// inlineKeys keeps primary keys and unique constraints in the CREATE TABLE
// body. Dialects that cannot add constraints later inline all of them.
func (e *emitter) inlineKeys(c *schema.Constraint) string {
	if !e.f.AlterConstraints || c.Kind == schema.PrimaryKey || c.Kind == schema.Unique {
		return e.constraintDef(c)
	}
	return ""
}

func (e *emitter) createTable(t *schema.Table, w int) {
	e.emit(e.createTableSQL(t, e.tableName(t), e.inlineKeys), w, ActionAddTable, t.FullName())
	delete(e.dropped, t)

	if e.f.AlterConstraints {
		for _, c := range t.Constraints.Items() {
			switch {
			case c.Status.IsDrop():
			case c.Kind == schema.ForeignKey:
				e.deferForeignKey(c)
			case c.Kind == schema.Check:
				e.addConstraint(c, w)
			}
		}
	}
	if t.HasChangeTracking && e.f.ChangeTracking {
		e.emit(e.changeTrackingSQL(t), w, ActionAlterTableChangeTracking, t.FullName())
	}
	if e.cfg.Indexes {
		for _, idx := range t.Indexes.Items() {
			if !idx.Status.IsDrop() {
				e.createIndex(idx, w)
			}
		}
	}
	if e.cfg.TableOptions {
		for _, o := range t.Options.Items() {
			if !o.Status.IsDrop() {
				e.emit(e.d.TableOption(e.tableName(t), o), w, ActionAlterTableOption, t.FullName())
			}
		}
	}
	if e.cfg.Triggers {
		for _, tr := range t.Triggers.Items() {
			if !tr.Status.IsDrop() {
				e.createTrigger(tr, w)
			}
		}
	}
	e.rows(t, w, true)
}

// alterTable changes t in place. deps are the dependents dropped before the
// column changes and recreated after them, in reverse order.
func (e *emitter) alterTable(t *schema.Table, w int, deps []schema.Node) {
	name := e.tableName(t)

	if e.cfg.Constraints {
		for _, fks := range []bool{true, false} {
			for _, c := range t.Constraints.Items() {
				if (c.Kind == schema.ForeignKey) == fks && replaced(c.Status) {
					e.dropNode(c, w)
				}
			}
		}
	}
	if e.cfg.Indexes {
		for _, idx := range t.Indexes.Items() {
			if replaced(idx.Status) {
				e.dropNode(idx, w)
			}
		}
	}
	if e.cfg.Triggers {
		for _, tr := range t.Triggers.Items() {
			if replaced(tr.Status) {
				e.dropNode(tr, w)
			}
		}
	}
	if e.cfg.Columns {
		for _, c := range t.Columns.Items() {
			if d := c.Default; d != nil && !c.Status.IsCreate() && (replaced(d.Status) || c.Status.IsDrop()) {
				e.dropNode(d, w)
			}
		}
	}
	e.dropDependencies(t, deps, w)

	if e.cfg.Columns {
		e.alterColumns(t, name, w)
	}

	e.createDependencies(t, deps, w, false)

	if e.cfg.Columns {
		for _, c := range t.Columns.Items() {
			if d := c.Default; d != nil && !c.Status.IsCreate() && !c.Status.IsDrop() && added(d.Status) {
				e.addDefault(d, w)
			}
		}
	}
	if e.cfg.Constraints {
		for _, c := range t.Constraints.Items() {
			if c.Kind == schema.ForeignKey && toggleOnly(c.Status) {
				e.toggles = append(e.toggles, c)
				continue
			}
			e.alterMember(c, w,
				func() {
					if c.Kind == schema.ForeignKey {
						e.deferForeignKey(c)
						return
					}
					e.addConstraint(c, w)
				},
				func() string { return e.toggleConstraintSQL(c) }, ActionAlterConstraint, c.FullName())
		}
	}
	if e.cfg.Indexes {
		e.alterIndexes(t.Indexes.Items(), w)
	}
	if e.cfg.Triggers {
		e.alterTriggers(t.Triggers.Items(), w)
	}
	if e.cfg.TableOptions {
		e.alterOptions(t, w)
	}
	e.rows(t, w, false)
}

// alterMember creates an added or altered child, or emits only the toggle
// statement when nothing but its enabled flag changed and it was not
// already recreated.
func (e *emitter) alterMember(n schema.Node, w int, create func(), toggle func() string, action Action, target string) {
	s := n.Metadata().Status
	switch {
	case added(s):
		create()
	case toggleOnly(s) && e.f.Toggles && !e.recreated[n]:
		e.emit(toggle(), w, action, target)
	}
}

func (e *emitter) alterIndexes(indexes []*schema.Index, w int) {
	for _, idx := range indexes {
		e.alterMember(idx, w,
			func() { e.createIndex(idx, w) },
			func() string { return e.toggleIndexSQL(idx) }, ActionAlterIndex, idx.FullName())
	}
}

func (e *emitter) alterTriggers(triggers []*schema.Trigger, w int) {
	for _, tr := range triggers {
		e.alterMember(tr, w,
			func() { e.createTrigger(tr, w) },
			func() string { return e.toggleTriggerSQL(tr) }, ActionAlterTrigger, tr.FullName())
	}
}

// alterOptions sets created and changed options. Removed options are left
// as they are.
func (e *emitter) alterOptions(t *schema.Table, w int) {
	for _, o := range t.Options.Items() {
		if added(o.Status) {
			e.emit(e.d.TableOption(e.tableName(t), o), w, ActionAlterTableOption, t.FullName())
		}
	}
}

// alterColumns drops, alters and adds columns in that order. Existing rows
// get the forced value before a column becomes NOT NULL.
func (e *emitter) alterColumns(t *schema.Table, name string, w int) {
	for _, c := range t.Columns.Items() {
		if c.Status.IsDrop() {
			e.emit(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", name, e.d.Quote(c.Name)), w, ActionDropColumn, t.FullName())
		}
	}
	for _, c := range t.Columns.Items() {
		if !c.Status.Has(schema.StatusAlter) {
			continue
		}
		if c.HasToForceValue() {
			e.emit(fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL", name, e.d.Quote(c.Name), e.d.ForcedValue(c), e.d.Quote(c.Name)),
				w, ActionAlterColumn, t.FullName())
		}
		for _, stmt := range e.d.AlterColumn(name, c) {
			e.emit(stmt, w, ActionAlterColumn, t.FullName())
		}
	}
	for _, c := range t.Columns.Items() {
		if c.Status.IsCreate() {
			e.emit(fmt.Sprintf("ALTER TABLE %s ADD %s", name, e.columnDef(c, true)), w, ActionAddColumn, t.FullName())
			if c.Default != nil {
				delete(e.dropped, c.Default)
			}
		}
	}
}

// columnDependents returns the dependents of the columns being altered, or
// of the whole table when no column is marked.
func (e *emitter) columnDependents(t *schema.Table) []schema.Node {
	deps := e.db.Dependencies()
	var out []schema.Node
	for _, c := range t.Columns.Items() {
		if !c.Status.Has(schema.StatusAlter) && !c.Status.Has(schema.StatusRebuildDependencies) {
			continue
		}
		for _, n := range deps.FindColumn(t.ID, c.ID) {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	if len(out) == 0 {
		return deps.Find(t.ID)
	}
	return out
}

// foreignKeysFirst orders dependents so that foreign keys are dropped
// before the keys they reference.
func foreignKeysFirst(deps []schema.Node) []schema.Node {
	out := make([]schema.Node, 0, len(deps))
	for _, fk := range []bool{true, false} {
		for _, n := range deps {
			c, ok := n.(*schema.Constraint)
			if (ok && c.Kind == schema.ForeignKey) == fk {
				out = append(out, n)
			}
		}
	}
	return out
}

// lobStorage reports whether t, before or after the change, stores large
// objects whose unique keys cannot be dropped and recreated around it.
func lobStorage(t *schema.Table) bool {
	return t.HasFileStream() || (t.Original != nil && t.Original.HasFileStream())
}

// dropDependencies drops the dependents of t that are untouched, toggled
// or being dropped, foreign keys first. Foreign keys of other tables are
// dropped in every state so that t can change under them.
func (e *emitter) dropDependencies(t *schema.Table, deps []schema.Node, w int) {
	lob := lobStorage(t)
	for _, n := range foreignKeysFirst(deps) {
		s := n.Metadata().Status
		switch n := n.(type) {
		case *schema.Constraint:
			if !e.f.AlterConstraints || (n.Kind == schema.Unique && lob) {
				continue
			}
			foreign := n.Table() != t
			if !(s.IsOriginal() || toggleOnly(s) || s.IsDrop() || (foreign && s.IsAlterFamily())) {
				continue
			}
			if n.Kind != schema.ForeignKey && s.IsDrop() {
				continue
			}
		case *schema.Default:
			if !e.f.NamedDefaults || n.Column().Status.IsCreate() || s.IsCreate() {
				continue
			}
		default:
			if !s.IsOriginal() && !toggleOnly(s) && !s.IsDrop() {
				continue
			}
		}
		e.dropNode(n, w)
	}
}

// createDependencies recreates, in reverse order, the untouched and
// toggled dependents dropped by dropDependencies. Toggled ones come back in
// their new state. Defaults of a rebuilt table are part of the new table
// body.
func (e *emitter) createDependencies(t *schema.Table, deps []schema.Node, w int, rebuilt bool) {
	lob := lobStorage(t)
	ordered := foreignKeysFirst(deps)
	for i := len(ordered) - 1; i >= 0; i-- {
		n := ordered[i]
		s := n.Metadata().Status
		if !(s.IsOriginal() || toggleOnly(s)) || !e.dropped[n] {
			continue
		}
		if p := n.Parent(); p != nil && p.Metadata().Status.IsDrop() {
			continue
		}
		switch n := n.(type) {
		case *schema.Constraint:
			if n.Kind == schema.Unique && lob {
				continue
			}
		case *schema.Default:
			if rebuilt {
				delete(e.dropped, n)
				continue
			}
		}
		e.createNode(n, w)
		if toggleOnly(s) {
			e.recreated[n] = true
		}
	}
}
