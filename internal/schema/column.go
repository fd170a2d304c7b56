package schema

// Column is a table column.
type Column struct {
	Meta
	DataType          string `json:"type"`
	Size              int    `json:"size,omitempty"`
	Precision         int    `json:"precision,omitempty"`
	Scale             int    `json:"scale,omitempty"`
	Nullable          bool   `json:"nullable"`
	Identity          bool   `json:"identity,omitempty"`
	IdentitySeed      int    `json:"identity_seed,omitempty"`
	IdentityIncrement int    `json:"identity_increment,omitempty"`
	Computed          bool   `json:"computed,omitempty"`
	Formula           string `json:"formula,omitempty"`
	Collation         string `json:"collation,omitempty"`
	IsFileStream      bool   `json:"file_stream,omitempty"`
	RowGUID           bool   `json:"row_guid,omitempty"`

	Default *Default `json:"default,omitempty"`

	// ForceValue is set when existing rows need a value for the column
	// because it becomes NOT NULL.
	ForceValue bool `json:"-"`

	parent *Table
}

func (c *Column) FullName() string { return c.Name }
func (c *Column) Type() ObjectType { return TypeColumn }
func (c *Column) link() {
	if c.Default != nil {
		c.Default.parent = c
	}
}

func (c *Column) Parent() Node {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

// Table returns the owning table.
func (c *Column) Table() *Table { return c.parent }

func (c *Column) root() *Database {
	if c == nil {
		return nil
	}
	return c.parent.root()
}

func (c *Column) setParent(t *Table) { c.parent = t }

func (c *Column) children() []Node {
	if c.Default == nil {
		return nil
	}
	return []Node{c.Default}
}

func (c *Column) Clone(parent *Table) *Column {
	cp := *c
	cp.parent = parent
	if c.Default != nil {
		cp.Default = c.Default.Clone(&cp)
	}
	return &cp
}

// SetDefault binds d to the column, replacing the previous default in the
// global index.
func (c *Column) SetDefault(d *Default) {
	db := rootOf(c)
	if db != nil && c.Default != nil && c.Default != d {
		db.index().remove(c.Default)
	}
	c.Default = d
	if d == nil {
		return
	}
	d.parent = c
	if db != nil {
		db.index().add(d)
	}
}

// HasToForceValue reports whether a value must be supplied for existing rows.
func (c *Column) HasToForceValue() bool {
	return c.ForceValue
}

// EqualShape reports whether both columns have the same definition,
// ignoring the default.
func (c *Column) EqualShape(o *Column) bool {
	return equalFold(c.DataType, o.DataType) &&
		c.Size == o.Size &&
		c.Precision == o.Precision &&
		c.Scale == o.Scale &&
		c.Nullable == o.Nullable &&
		c.Identity == o.Identity &&
		c.IdentitySeed == o.IdentitySeed &&
		c.IdentityIncrement == o.IdentityIncrement &&
		c.Computed == o.Computed &&
		c.Formula == o.Formula &&
		equalFold(c.Collation, o.Collation) &&
		c.IsFileStream == o.IsFileStream &&
		c.RowGUID == o.RowGUID
}

// Default is the named default value bound to a column.
type Default struct {
	Meta
	Definition string `json:"definition"`

	// OldName is the origin name of an altered default, used to drop it.
	OldName string `json:"-"`

	parent *Column
}

func (d *Default) FullName() string { return d.Name }
func (d *Default) Type() ObjectType { return TypeDefault }

func (d *Default) Parent() Node {
	if d.parent == nil {
		return nil
	}
	return d.parent
}

// Column returns the column the default is bound to.
func (d *Default) Column() *Column { return d.parent }

func (d *Default) root() *Database { return d.parent.root() }

func (d *Default) Clone(parent *Column) *Default {
	cp := *d
	cp.parent = parent
	return &cp
}

// Equal reports whether both defaults have the same name and expression.
func (d *Default) Equal(o *Default) bool {
	return equalFold(d.Name, o.Name) && d.Definition == o.Definition
}

// DropName is the name the default has in the origin database.
func (d *Default) DropName() string {
	if d.OldName != "" {
		return d.OldName
	}
	return d.Name
}
