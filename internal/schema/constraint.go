package schema

import "slices"

// ConstraintKind is the kind of a table constraint.
type ConstraintKind int

const (
	PrimaryKey ConstraintKind = iota
	Unique
	ForeignKey
	Check
)

func (k ConstraintKind) String() string {
	switch k {
	case PrimaryKey:
		return "PRIMARY KEY"
	case Unique:
		return "UNIQUE"
	case ForeignKey:
		return "FOREIGN KEY"
	case Check:
		return "CHECK"
	}
	return "UNKNOWN"
}

// ConstraintColumn is one column of a key. RefName is the referenced column
// for foreign keys.
type ConstraintColumn struct {
	Name       string `json:"name"`
	RefName    string `json:"ref,omitempty"`
	Descending bool   `json:"desc,omitempty"`
}

// Constraint is a primary key, unique, foreign key or check constraint.
type Constraint struct {
	Meta
	Kind              ConstraintKind     `json:"kind"`
	Columns           []ConstraintColumn `json:"columns,omitempty"`
	RefTable          string             `json:"ref_table,omitempty"`
	OnDelete          string             `json:"on_delete,omitempty"`
	OnUpdate          string             `json:"on_update,omitempty"`
	Clustered         bool               `json:"clustered,omitempty"`
	Definition        string             `json:"definition,omitempty"`
	IsDisabled        bool               `json:"disabled,omitempty"`
	NotForReplication bool               `json:"not_for_replication,omitempty"`

	parent *Table
}

func (c *Constraint) FullName() string { return Qualify(c.Owner, c.Name) }
func (c *Constraint) Type() ObjectType { return TypeConstraint }
func (c *Constraint) children() []Node { return nil }
func (c *Constraint) link()            {}

func (c *Constraint) Parent() Node {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

// Table returns the table the constraint is defined on.
func (c *Constraint) Table() *Table { return c.parent }

func (c *Constraint) root() *Database { return c.parent.root() }

func (c *Constraint) setParent(t *Table) { c.parent = t }

func (c *Constraint) Clone(parent *Table) *Constraint {
	cp := *c
	cp.Columns = slices.Clone(c.Columns)
	cp.parent = parent
	return &cp
}

// EqualIgnoringToggle compares every attribute except IsDisabled.
func (c *Constraint) EqualIgnoringToggle(o *Constraint) bool {
	return c.Kind == o.Kind &&
		slices.EqualFunc(c.Columns, o.Columns, equalConstraintColumn) &&
		equalFold(c.RefTable, o.RefTable) &&
		equalFold(c.OnDelete, o.OnDelete) &&
		equalFold(c.OnUpdate, o.OnUpdate) &&
		c.Clustered == o.Clustered &&
		c.Definition == o.Definition &&
		c.NotForReplication == o.NotForReplication
}

func equalConstraintColumn(a, b ConstraintColumn) bool {
	return equalFold(a.Name, b.Name) && equalFold(a.RefName, b.RefName) && a.Descending == b.Descending
}

// References reports whether the constraint uses the named column.
func (c *Constraint) References(column string) bool {
	return slices.ContainsFunc(c.Columns, func(cc ConstraintColumn) bool { return equalFold(cc.Name, column) })
}

// IndexColumn is one key or included column of an index.
type IndexColumn struct {
	Name       string `json:"name"`
	Descending bool   `json:"desc,omitempty"`
	Included   bool   `json:"included,omitempty"`
}

// Index is an index on a table or a view.
type Index struct {
	Meta
	Columns    []IndexColumn `json:"columns"`
	Unique     bool          `json:"unique,omitempty"`
	Clustered  bool          `json:"clustered,omitempty"`
	FileGroup  string        `json:"file_group,omitempty"`
	Filter     string        `json:"filter,omitempty"`
	IsDisabled bool          `json:"disabled,omitempty"`

	parent Relation
}

func (i *Index) FullName() string { return i.Name }
func (i *Index) Type() ObjectType { return TypeIndex }
func (i *Index) children() []Node { return nil }
func (i *Index) link()            {}

// Parent returns the indexed table or view.
func (i *Index) Parent() Node {
	if i.parent == nil {
		return nil
	}
	return i.parent
}

// Relation returns the indexed table or view.
func (i *Index) Relation() Relation { return i.parent }

func (i *Index) root() *Database {
	if i.parent == nil {
		return nil
	}
	return i.parent.root()
}

func (i *Index) setParent(r Relation) { i.parent = r }

func (i *Index) qualifiedName() string {
	if i.parent == nil {
		return i.Name
	}
	return i.parent.FullName() + "." + i.Name
}

func (i *Index) Clone(parent Relation) *Index {
	cp := *i
	cp.Columns = slices.Clone(i.Columns)
	cp.parent = parent
	return &cp
}

// EqualIgnoringToggle compares every attribute except IsDisabled.
func (i *Index) EqualIgnoringToggle(o *Index) bool {
	return slices.EqualFunc(i.Columns, o.Columns, func(a, b IndexColumn) bool {
		return equalFold(a.Name, b.Name) && a.Descending == b.Descending && a.Included == b.Included
	}) &&
		i.Unique == o.Unique &&
		i.Clustered == o.Clustered &&
		equalFold(i.FileGroup, o.FileGroup) &&
		i.Filter == o.Filter
}

// References reports whether the index uses the named column.
func (i *Index) References(column string) bool {
	return slices.ContainsFunc(i.Columns, func(ic IndexColumn) bool { return equalFold(ic.Name, column) })
}

// Trigger is a DML trigger on a table or a view.
type Trigger struct {
	Meta
	Text       string `json:"text"`
	IsDisabled bool   `json:"disabled,omitempty"`

	parent Relation
}

func (t *Trigger) FullName() string { return Qualify(t.Owner, t.Name) }
func (t *Trigger) Type() ObjectType { return TypeTrigger }
func (t *Trigger) children() []Node { return nil }
func (t *Trigger) link()            {}

func (t *Trigger) Parent() Node {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// Relation returns the table or view the trigger fires on.
func (t *Trigger) Relation() Relation { return t.parent }

func (t *Trigger) root() *Database {
	if t.parent == nil {
		return nil
	}
	return t.parent.root()
}

func (t *Trigger) setParent(r Relation) { t.parent = r }

func (t *Trigger) Clone(parent Relation) *Trigger {
	cp := *t
	cp.parent = parent
	return &cp
}
