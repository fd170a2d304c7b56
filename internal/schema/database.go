package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Database is the root of a schema tree.
type Database struct {
	Meta
	Collation string `json:"collation,omitempty"`

	Tables     *Collection[*Table, *Database]     `json:"tables"`
	Views      *Collection[*View, *Database]      `json:"views,omitempty"`
	Procedures *Collection[*Routine, *Database]   `json:"procedures,omitempty"`
	Functions  *Collection[*Routine, *Database]   `json:"functions,omitempty"`
	Synonyms   *Collection[*Synonym, *Database]   `json:"synonyms,omitempty"`
	Schemas    *Collection[*Namespace, *Database] `json:"schemas,omitempty"`
	Roles      *Collection[*Role, *Database]      `json:"roles,omitempty"`
	Users      *Collection[*User, *Database]      `json:"users,omitempty"`
	FileGroups *Collection[*FileGroup, *Database] `json:"file_groups,omitempty"`
	UserTypes  *Collection[*UserType, *Database]  `json:"user_types,omitempty"`

	registry     *Registry
	dependencies *Dependencies
}

// NewDatabase returns an empty database tree.
func NewDatabase(name string) *Database {
	db := &Database{Meta: Meta{Name: name, GUID: NewGUID()}, registry: newRegistry()}
	db.Tables = NewCollection[*Table](db)
	db.Views = NewCollection[*View](db)
	db.Procedures = NewCollection[*Routine](db)
	db.Functions = NewCollection[*Routine](db)
	db.Synonyms = NewCollection[*Synonym](db)
	db.Schemas = NewCollection[*Namespace](db)
	db.Roles = NewCollection[*Role](db)
	db.Users = NewCollection[*User](db)
	db.FileGroups = NewCollection[*FileGroup](db)
	db.UserTypes = NewCollection[*UserType](db)
	return db
}

func (d *Database) FullName() string { return d.Name }
func (d *Database) Type() ObjectType { return TypeDatabase }
func (d *Database) Parent() Node     { return nil }
func (d *Database) root() *Database  { return d }

func (d *Database) children() []Node {
	var out []Node
	out = append(out, d.FileGroups.nodes()...)
	out = append(out, d.Schemas.nodes()...)
	out = append(out, d.UserTypes.nodes()...)
	out = append(out, d.Tables.nodes()...)
	out = append(out, d.Views.nodes()...)
	out = append(out, d.Functions.nodes()...)
	out = append(out, d.Procedures.nodes()...)
	out = append(out, d.Synonyms.nodes()...)
	out = append(out, d.Roles.nodes()...)
	out = append(out, d.Users.nodes()...)
	return out
}

// Link attaches every node of a decoded tree to its parent and rebuilds the
// global index.
func (d *Database) Link() {
	d.Tables = ensureCollection(d.Tables, d)
	d.Views = ensureCollection(d.Views, d)
	d.Procedures = ensureCollection(d.Procedures, d)
	d.Functions = ensureCollection(d.Functions, d)
	d.Synonyms = ensureCollection(d.Synonyms, d)
	d.Schemas = ensureCollection(d.Schemas, d)
	d.Roles = ensureCollection(d.Roles, d)
	d.Users = ensureCollection(d.Users, d)
	d.FileGroups = ensureCollection(d.FileGroups, d)
	d.UserTypes = ensureCollection(d.UserTypes, d)
	d.registry = newRegistry()
	for _, n := range d.children() {
		d.registry.add(n)
	}
	d.dependencies = nil
}

// AllObjects returns the global index.
func (d *Database) AllObjects() *Registry {
	return d.index()
}

// Dependencies returns the graph built by the last BuildDependency call.
func (d *Database) Dependencies() *Dependencies {
	return d.dependencies
}

// Find looks up an addressable object by full name.
func (d *Database) Find(fullName string) (Node, error) {
	e, ok := d.index().byName[strings.ToLower(fullName)]
	if !ok {
		return nil, notFound("object", fullName)
	}
	if err := d.check(e); err != nil {
		return nil, err
	}
	if !strings.EqualFold(registryName(e.node), fullName) {
		return nil, internal("object %q is indexed as %q", registryName(e.node), fullName)
	}
	return e.node, nil
}

// FindByID looks up any object by id.
func (d *Database) FindByID(id int) (Node, error) {
	e, ok := d.index().byID[id]
	if !ok {
		return nil, notFound("object id", fmt.Sprint(id))
	}
	if err := d.check(e); err != nil {
		return nil, err
	}
	if e.node.Metadata().ID != id {
		return nil, internal("object %s has id %d, indexed as %d", e.FullName, e.node.Metadata().ID, id)
	}
	return e.node, nil
}

func (d *Database) check(e *Entry) error {
	if e.node == nil {
		return internal("entry %d has no object", e.ID)
	}
	if rootOf(e.node) != d {
		return internal("%s %s is indexed but detached from %s", e.Type, e.FullName, d.Name)
	}
	return nil
}

// FindTable is a typed Find for tables.
func (d *Database) FindTable(fullName string) (*Table, error) {
	t, ok := d.Tables.Get(fullName)
	if !ok {
		return nil, notFound("table", fullName)
	}
	return t, nil
}

// Validate checks the tree handed over by an acquirer.
func (d *Database) Validate() error {
	var errs []error
	walk(d, func(n Node) {
		if n == Node(d) {
			return
		}
		if n.Metadata().ID == 0 {
			errs = append(errs, fmt.Errorf("%s %s has no id", n.Type(), n.FullName()))
		}
		if n.Parent() == nil {
			errs = append(errs, fmt.Errorf("%s %s has no parent", n.Type(), n.FullName()))
		}
	})
	for _, t := range d.Tables.Items() {
		if t.Columns.Len() == 0 {
			errs = append(errs, fmt.Errorf("table %s has no columns", t.FullName()))
		}
		for _, c := range t.Constraints.Items() {
			for _, cc := range c.Columns {
				if !t.Columns.Has(cc.Name) {
					errs = append(errs, fmt.Errorf("constraint %s references unknown column %s.%s", c.FullName(), t.FullName(), cc.Name))
				}
			}
		}
		for _, idx := range t.Indexes.Items() {
			for _, ic := range idx.Columns {
				if !t.Columns.Has(ic.Name) {
					errs = append(errs, fmt.Errorf("index %s references unknown column %s.%s", idx.Name, t.FullName(), ic.Name))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// BuildDependency rebuilds the dependency graph over the current tree.
// Column and table references are resolved by name.
func (d *Database) BuildDependency() {
	deps := &Dependencies{}
	for _, t := range d.Tables.Items() {
		for _, idx := range t.Indexes.Items() {
			for _, ic := range idx.Columns {
				if c, ok := t.Columns.Get(ic.Name); ok {
					deps.Add(t.ID, c.ID, idx)
				}
			}
		}
		for _, con := range t.Constraints.Items() {
			if con.Kind == Check {
				deps.Add(t.ID, 0, con)
				continue
			}
			ref, hasRef := d.Tables.Get(con.RefTable)
			for _, cc := range con.Columns {
				if c, ok := t.Columns.Get(cc.Name); ok {
					deps.Add(t.ID, c.ID, con)
				}
				if con.Kind != ForeignKey || !hasRef {
					continue
				}
				if rc, ok := ref.Columns.Get(cc.RefName); ok {
					deps.Add(ref.ID, rc.ID, con)
				}
			}
		}
		for _, c := range t.Columns.Items() {
			if c.Default != nil {
				deps.Add(t.ID, c.ID, c.Default)
			}
		}
	}
	for _, v := range d.Views.Items() {
		d.addReferences(deps, v, v.References)
	}
	for _, f := range d.Functions.Items() {
		d.addReferences(deps, f, f.References)
	}
	d.dependencies = deps
}

func (d *Database) addReferences(deps *Dependencies, n Node, refs []string) {
	for _, name := range refs {
		if t, ok := d.Tables.Get(name); ok {
			deps.Add(t.ID, 0, n)
		}
	}
}

// HasDependents reports whether an index or constraint of the origin tree
// uses the column, including foreign keys of other tables referencing it.
func HasDependents(c *Column) bool {
	t := c.Table()
	if t == nil {
		return false
	}
	for _, idx := range t.Indexes.Items() {
		if idx.References(c.Name) {
			return true
		}
	}
	for _, con := range t.Constraints.Items() {
		if con.Kind != Check && con.References(c.Name) {
			return true
		}
	}
	db := t.Database()
	if db == nil {
		return false
	}
	for _, other := range db.Tables.Items() {
		for _, fk := range other.ForeignKeys() {
			if !strings.EqualFold(fk.RefTable, t.FullName()) {
				continue
			}
			for _, cc := range fk.Columns {
				if strings.EqualFold(cc.RefName, c.Name) {
					return true
				}
			}
		}
	}
	return false
}

func (d *Database) index() *Registry {
	if d.registry == nil {
		d.registry = newRegistry()
	}
	return d.registry
}
