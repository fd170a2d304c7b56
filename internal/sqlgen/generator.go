// Package sqlgen turns a merged, status-tagged schema tree into an ordered
// list of SQL statements.
package sqlgen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/tordrt/schemadiff/internal/config"
	"github.com/tordrt/schemadiff/internal/schema"
)

// Generator emits scripts for one dialect. Categories disabled in Config
// produce no statements.
type Generator struct {
	Dialect Dialect
	Config  *config.Diffs
}

// New returns a generator. A nil dialect selects SQL Server and a nil
// config enables every category.
func New(d Dialect, cfg *config.Diffs) *Generator {
	if d == nil {
		d = MSSQL()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Generator{Dialect: d, Config: cfg}
}

// emitter carries the state of one generation pass.
type emitter struct {
	d   Dialect
	f   Features
	cfg *config.Diffs
	db  *schema.Database
	out List

	// dropped holds the objects whose drop has been emitted and which have
	// not been created again since.
	dropped map[schema.Node]bool
	// fks are foreign keys added after every table exists.
	fks      []*schema.Constraint
	deferred map[*schema.Constraint]bool
	// toggles are foreign keys whose enabled flag changes. They are
	// toggled after the foreign keys are added unless recreated.
	toggles []*schema.Constraint
	// recreated holds toggled dependents dropped and created again around
	// a table change. Their new state is part of the creation.
	recreated map[schema.Node]bool
}

func (g *Generator) newEmitter(db *schema.Database) *emitter {
	d, cfg := g.Dialect, g.Config
	if d == nil {
		d = MSSQL()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &emitter{
		d:         d,
		f:         d.Features(),
		cfg:       cfg,
		db:        db,
		dropped:   make(map[schema.Node]bool),
		deferred:  make(map[*schema.Constraint]bool),
		recreated: make(map[schema.Node]bool),
	}
}

// Diff returns the statements that turn the origin of the merged tree db
// into its destination.
//
// Database-level drops of views, routines and synonyms come first, then
// the support objects tables rely on, then tables in SortTables order
// followed by every deferred foreign key, then created or altered
// routines, views and synonyms, and finally drops of support objects.
func (g *Generator) Diff(db *schema.Database) (List, error) {
	if db == nil {
		return nil, schema.WrapError("generate", fmt.Errorf("no database: %w", schema.ErrInternal))
	}
	e := g.newEmitter(db)

	e.dropObjects()
	e.supportObjects(false)
	if e.cfg.Tables {
		for _, t := range schema.SortTables(db) {
			if err := e.table(t); err != nil {
				return nil, schema.WrapError("generate", err)
			}
		}
		e.foreignKeys()
	}
	e.createObjects(false)
	e.dropSupportObjects()
	return e.out, nil
}

// Create returns the statements that create every object of db, ignoring
// statuses.
func (g *Generator) Create(db *schema.Database) (List, error) {
	if db == nil {
		return nil, schema.WrapError("generate", fmt.Errorf("no database: %w", schema.ErrInternal))
	}
	e := g.newEmitter(db)

	e.supportObjects(true)
	if e.cfg.Tables {
		tables := slices.Clone(db.Tables.Items())
		slices.SortStableFunc(tables, func(a, b *schema.Table) int {
			return cmp.Compare(b.DependenciesCount(), a.DependenciesCount())
		})
		for _, t := range tables {
			e.createTable(t, t.DependenciesCount())
		}
		e.foreignKeys()
	}
	e.createObjects(true)
	return e.out, nil
}

func (e *emitter) emit(sql string, weight int, action Action, target string) {
	if sql == "" {
		return
	}
	e.out.Add(e.d.Terminate(sql), weight, action, target)
}

func (e *emitter) deferForeignKey(c *schema.Constraint) {
	if e.deferred[c] {
		return
	}
	e.deferred[c] = true
	e.fks = append(e.fks, c)
}

// foreignKeys emits the deferred foreign keys in the order they were
// collected, then the toggles of foreign keys that were not recreated.
func (e *emitter) foreignKeys() {
	for _, c := range e.fks {
		if t := c.Table(); t != nil && e.dropped[t] {
			continue
		}
		e.addConstraint(c, 0)
	}
	for _, c := range e.toggles {
		if e.recreated[c] || e.dropped[c] || !e.f.Toggles {
			continue
		}
		e.emit(e.toggleConstraintSQL(c), 0, ActionAlterConstraint, c.FullName())
	}
	e.fks, e.toggles = nil, nil
	clear(e.deferred)
}

// dropNode emits the drop of a dependent object unless it is already gone.
func (e *emitter) dropNode(n schema.Node, weight int) {
	if e.dropped[n] {
		return
	}
	switch n := n.(type) {
	case *schema.Constraint:
		e.dropConstraint(n, weight)
	case *schema.Index:
		e.dropIndex(n, weight)
	case *schema.Trigger:
		e.dropTrigger(n, weight)
	case *schema.Default:
		e.dropDefault(n, weight)
	case *schema.View:
		e.dropView(n)
	case *schema.Routine:
		e.dropRoutine(n)
	}
}

// createNode emits the creation of a dependent object. Foreign keys are
// deferred to the end of the table phase.
func (e *emitter) createNode(n schema.Node, weight int) {
	switch n := n.(type) {
	case *schema.Constraint:
		if n.Kind == schema.ForeignKey {
			e.deferForeignKey(n)
			return
		}
		e.addConstraint(n, weight)
	case *schema.Index:
		e.createIndex(n, weight)
	case *schema.Trigger:
		e.createTrigger(n, weight)
	case *schema.Default:
		e.addDefault(n, weight)
	case *schema.View:
		e.createView(n)
	case *schema.Routine:
		e.createRoutine(n)
	}
}

func (e *emitter) dropConstraint(c *schema.Constraint, weight int) {
	action := ActionDropConstraint
	if c.Kind == schema.ForeignKey {
		action = ActionDropConstraintFK
	}
	e.emit(e.d.DropConstraint(e.tableName(c.Table()), c), weight, action, c.FullName())
	e.dropped[c] = true
}

func (e *emitter) addConstraint(c *schema.Constraint, weight int) {
	action := ActionAddConstraint
	if c.Kind == schema.ForeignKey {
		action = ActionAddConstraintFK
	}
	e.emit(e.addConstraintSQL(c), weight, action, c.FullName())
	if c.IsDisabled && e.f.Toggles && c.Kind != schema.PrimaryKey && c.Kind != schema.Unique {
		e.emit(e.toggleConstraintSQL(c), weight, ActionAlterConstraint, c.FullName())
	}
	delete(e.dropped, c)
}

func (e *emitter) dropIndex(idx *schema.Index, weight int) {
	e.emit(e.d.DropIndex(e.relationName(idx.Relation()), idx), weight, ActionDropIndex, idx.FullName())
	e.dropped[idx] = true
}

func (e *emitter) createIndex(idx *schema.Index, weight int) {
	e.emit(e.createIndexSQL(idx), weight, ActionAddIndex, idx.FullName())
	if idx.IsDisabled && e.f.Toggles {
		e.emit(e.toggleIndexSQL(idx), weight, ActionAlterIndex, idx.FullName())
	}
	delete(e.dropped, idx)
}

func (e *emitter) dropTrigger(tr *schema.Trigger, weight int) {
	e.emit(e.d.DropTrigger(e.relationName(tr.Relation()), tr), weight, ActionDropTrigger, tr.FullName())
	e.dropped[tr] = true
}

func (e *emitter) createTrigger(tr *schema.Trigger, weight int) {
	e.emit(tr.Text, weight, ActionAddTrigger, tr.FullName())
	if tr.IsDisabled && e.f.Toggles {
		e.emit(e.toggleTriggerSQL(tr), weight, ActionAlterTrigger, tr.FullName())
	}
	delete(e.dropped, tr)
}

func (e *emitter) dropDefault(d *schema.Default, weight int) {
	c := d.Column()
	e.emit(e.d.DropDefault(e.tableName(c.Table()), c, d), weight, ActionDropDefault, d.FullName())
	e.dropped[d] = true
}

func (e *emitter) addDefault(d *schema.Default, weight int) {
	c := d.Column()
	e.emit(e.d.AddDefault(e.tableName(c.Table()), c, d), weight, ActionAddDefault, d.FullName())
	delete(e.dropped, d)
}

// toggleOnly reports whether only the enabled flag of s changed.
func toggleOnly(s schema.Status) bool {
	return s == schema.StatusDisabled
}

// replaced reports whether a child has to be dropped before the change.
func replaced(s schema.Status) bool {
	return s.IsDrop() || s.Has(schema.StatusAlter)
}

// added reports whether a child has to be created after the change.
func added(s schema.Status) bool {
	return s.IsCreate() || s.Has(schema.StatusAlter)
}
