package schema

import "slices"

// dbChild is the parent link of objects owned directly by the database.
type dbChild struct {
	parent *Database
}

func (c *dbChild) Parent() Node {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

func (c *dbChild) setParent(db *Database) { c.parent = db }
func (c *dbChild) root() *Database        { return c.parent }
func (c *dbChild) children() []Node       { return nil }
func (c *dbChild) link()                  {}

// View is a stored query. References lists the full names of the tables
// its body reads.
type View struct {
	Meta
	Text       string   `json:"text"`
	References []string `json:"references,omitempty"`

	Indexes  *Collection[*Index, Relation]   `json:"indexes,omitempty"`
	Triggers *Collection[*Trigger, Relation] `json:"triggers,omitempty"`

	dbChild
}

// NewView returns a detached view.
func NewView(owner, name, text string) *View {
	v := &View{Meta: Meta{Name: name, Owner: owner, GUID: NewGUID()}, Text: text}
	v.Indexes = NewCollection[*Index, Relation](v)
	v.Triggers = NewCollection[*Trigger, Relation](v)
	return v
}

func (v *View) FullName() string { return Qualify(v.Owner, v.Name) }
func (v *View) Type() ObjectType { return TypeView }
func (v *View) relation()        {}

func (v *View) children() []Node {
	return append(v.Indexes.nodes(), v.Triggers.nodes()...)
}

func (v *View) link() {
	v.Indexes = ensureCollection[*Index, Relation](v.Indexes, v)
	v.Triggers = ensureCollection[*Trigger, Relation](v.Triggers, v)
}

func (v *View) Clone(parent *Database) *View {
	c := &View{Meta: v.Meta, Text: v.Text, References: slices.Clone(v.References)}
	c.Indexes = NewCollection[*Index, Relation](c)
	c.Triggers = NewCollection[*Trigger, Relation](c)
	v.Indexes.CloneInto(c.Indexes)
	v.Triggers.CloneInto(c.Triggers)
	c.parent = parent
	return c
}

// RoutineKind distinguishes procedures from functions.
type RoutineKind int

const (
	Procedure RoutineKind = iota
	Function
)

// Routine is a stored procedure or a function.
type Routine struct {
	Meta
	Kind       RoutineKind `json:"kind"`
	Text       string      `json:"text"`
	References []string    `json:"references,omitempty"`

	dbChild
}

func (r *Routine) FullName() string { return Qualify(r.Owner, r.Name) }

func (r *Routine) Type() ObjectType {
	if r.Kind == Function {
		return TypeFunction
	}
	return TypeStoredProcedure
}

func (r *Routine) Clone(parent *Database) *Routine {
	c := *r
	c.References = slices.Clone(r.References)
	c.parent = parent
	return &c
}

// Synonym is an alias for another object.
type Synonym struct {
	Meta
	Target string `json:"target"`

	dbChild
}

func (s *Synonym) FullName() string { return Qualify(s.Owner, s.Name) }
func (s *Synonym) Type() ObjectType { return TypeSynonym }

func (s *Synonym) Clone(parent *Database) *Synonym {
	c := *s
	c.parent = parent
	return &c
}

// Namespace is a database schema. Owner is its authorization.
type Namespace struct {
	Meta

	dbChild
}

func (n *Namespace) FullName() string { return n.Name }
func (n *Namespace) Type() ObjectType { return TypeSchema }

func (n *Namespace) Clone(parent *Database) *Namespace {
	c := *n
	c.parent = parent
	return &c
}

// Role is a database role.
type Role struct {
	Meta
	Application bool   `json:"application,omitempty"`
	Password    string `json:"password,omitempty"`

	dbChild
}

func (r *Role) FullName() string { return r.Name }
func (r *Role) Type() ObjectType { return TypeRole }

func (r *Role) Clone(parent *Database) *Role {
	c := *r
	c.parent = parent
	return &c
}

// User is a database principal mapped to a login.
type User struct {
	Meta
	Login         string `json:"login,omitempty"`
	DefaultSchema string `json:"default_schema,omitempty"`

	dbChild
}

func (u *User) FullName() string { return u.Name }
func (u *User) Type() ObjectType { return TypeUser }

func (u *User) Clone(parent *Database) *User {
	c := *u
	c.parent = parent
	return &c
}

// FileGroup is a named physical storage destination.
type FileGroup struct {
	Meta
	IsDefault  bool `json:"default,omitempty"`
	IsReadOnly bool `json:"read_only,omitempty"`
	FileStream bool `json:"file_stream,omitempty"`

	dbChild
}

func (f *FileGroup) FullName() string { return f.Name }
func (f *FileGroup) Type() ObjectType { return TypeFileGroup }

func (f *FileGroup) Clone(parent *Database) *FileGroup {
	c := *f
	c.parent = parent
	return &c
}

// UserType is an alias data type.
type UserType struct {
	Meta
	BaseType  string `json:"base_type"`
	Size      int    `json:"size,omitempty"`
	Precision int    `json:"precision,omitempty"`
	Scale     int    `json:"scale,omitempty"`
	Nullable  bool   `json:"nullable"`

	dbChild
}

func (u *UserType) FullName() string { return Qualify(u.Owner, u.Name) }
func (u *UserType) Type() ObjectType { return TypeUserDataType }

func (u *UserType) Clone(parent *Database) *UserType {
	c := *u
	c.parent = parent
	return &c
}
