package schema

// Table is a base table and the container of its columns, constraints,
// indexes, triggers, options and data rows.
type Table struct {
	Meta
	FileGroup                    string `json:"file_group,omitempty"`
	FileGroupText                string `json:"file_group_text,omitempty"`
	FileGroupStream              string `json:"file_group_stream,omitempty"`
	CompressType                 string `json:"compress_type,omitempty"`
	HasChangeTracking            bool   `json:"change_tracking,omitempty"`
	HasChangeTrackingTrackColumn bool   `json:"change_tracking_track_columns,omitempty"`

	Columns     *Collection[*Column, *Table]      `json:"columns"`
	Constraints *Collection[*Constraint, *Table]  `json:"constraints"`
	Indexes     *Collection[*Index, Relation]     `json:"indexes"`
	Triggers    *Collection[*Trigger, Relation]   `json:"triggers"`
	Options     *Collection[*TableOption, *Table] `json:"options"`
	Rows        *Collection[*RowData, *Table]     `json:"rows,omitempty"`

	// Original is the origin shape captured before the table was compared.
	Original *Table `json:"-"`

	parent *Database
}

// NewTable returns an empty detached table.
func NewTable(owner, name string) *Table {
	t := &Table{Meta: Meta{Name: name, Owner: owner, GUID: NewGUID()}}
	t.init()
	return t
}

func (t *Table) init() {
	t.Columns = NewCollection[*Column](t)
	t.Constraints = NewCollection[*Constraint](t)
	t.Indexes = NewCollection[*Index, Relation](t)
	t.Triggers = NewCollection[*Trigger, Relation](t)
	t.Options = NewCollection[*TableOption](t)
	t.Rows = NewCollection[*RowData](t)
}

func (t *Table) FullName() string { return Qualify(t.Owner, t.Name) }
func (t *Table) Type() ObjectType { return TypeTable }
func (t *Table) relation()        {}

func (t *Table) Parent() Node {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// Database returns the owning database, or nil when detached.
func (t *Table) Database() *Database { return t.parent }

func (t *Table) root() *Database {
	if t == nil {
		return nil
	}
	return t.parent
}

func (t *Table) setParent(db *Database) { t.parent = db }

func (t *Table) children() []Node {
	var out []Node
	out = append(out, t.Columns.nodes()...)
	out = append(out, t.Constraints.nodes()...)
	out = append(out, t.Indexes.nodes()...)
	out = append(out, t.Triggers.nodes()...)
	out = append(out, t.Options.nodes()...)
	out = append(out, t.Rows.nodes()...)
	return out
}

func (t *Table) link() {
	t.Columns = ensureCollection(t.Columns, t)
	t.Constraints = ensureCollection(t.Constraints, t)
	t.Indexes = ensureCollection[*Index, Relation](t.Indexes, t)
	t.Triggers = ensureCollection[*Trigger, Relation](t.Triggers, t)
	t.Options = ensureCollection(t.Options, t)
	t.Rows = ensureCollection(t.Rows, t)
}

// Clone returns a deep copy of the table attached to parent. The captured
// Original shape is not copied.
func (t *Table) Clone(parent *Database) *Table {
	c := &Table{
		Meta:                         t.Meta,
		FileGroup:                    t.FileGroup,
		FileGroupText:                t.FileGroupText,
		FileGroupStream:              t.FileGroupStream,
		CompressType:                 t.CompressType,
		HasChangeTracking:            t.HasChangeTracking,
		HasChangeTrackingTrackColumn: t.HasChangeTrackingTrackColumn,
	}
	c.init()
	t.Columns.CloneInto(c.Columns)
	t.Constraints.CloneInto(c.Constraints)
	t.Indexes.CloneInto(c.Indexes)
	t.Triggers.CloneInto(c.Triggers)
	t.Options.CloneInto(c.Options)
	t.Rows.CloneInto(c.Rows)
	c.parent = parent
	return c
}

// HasFileStream reports whether any column uses large-object stream storage.
func (t *Table) HasFileStream() bool {
	for _, c := range t.Columns.Items() {
		if c.IsFileStream {
			return true
		}
	}
	return false
}

// HasBlobColumn reports whether any column is stored out of row.
func (t *Table) HasBlobColumn() bool {
	for _, c := range t.Columns.Items() {
		if FamilyOf(c.DataType) == FamilyLOB || c.Size == MaxSize {
			return true
		}
	}
	return false
}

// HasIdentityColumn reports whether a live column is an identity column.
func (t *Table) HasIdentityColumn() bool {
	for _, c := range t.Columns.Items() {
		if c.Identity && !c.Status.IsDrop() {
			return true
		}
	}
	return false
}

// HasClusteredIndex reports whether the table is stored as a clustered
// index rather than a heap.
func (t *Table) HasClusteredIndex() bool {
	for _, idx := range t.Indexes.Items() {
		if idx.Clustered && !idx.Status.IsDrop() {
			return true
		}
	}
	for _, c := range t.Constraints.Items() {
		if c.Clustered && !c.Status.IsDrop() && (c.Kind == PrimaryKey || c.Kind == Unique) {
			return true
		}
	}
	return false
}

// DependenciesCount is the dependency weight of the table: the number of
// foreign keys in other tables that reference it.
func (t *Table) DependenciesCount() int {
	if t.parent == nil {
		return 0
	}
	return t.parent.Dependencies().DependencyCount(t.ID, TypeConstraint)
}

// HasChanges reports whether any member of the table differs from Original.
func (t *Table) HasChanges() bool {
	for _, c := range t.Columns.Items() {
		if !c.Status.IsOriginal() || (c.Default != nil && !c.Default.Status.IsOriginal()) {
			return true
		}
	}
	for _, n := range t.children() {
		if n.Type() != TypeColumn && !n.Metadata().Status.IsOriginal() {
			return true
		}
	}
	return false
}

// ForeignKeys returns the foreign key constraints of the table.
func (t *Table) ForeignKeys() []*Constraint {
	var out []*Constraint
	for _, c := range t.Constraints.Items() {
		if c.Kind == ForeignKey {
			out = append(out, c)
		}
	}
	return out
}

// TableOption is a storage or engine option set on a table.
type TableOption struct {
	Meta
	Value string `json:"value"`

	parent *Table
}

func (o *TableOption) FullName() string { return o.Name }
func (o *TableOption) Type() ObjectType { return TypeTableOption }
func (o *TableOption) children() []Node { return nil }
func (o *TableOption) link()            {}

func (o *TableOption) Parent() Node {
	if o.parent == nil {
		return nil
	}
	return o.parent
}

// Table returns the owning table.
func (o *TableOption) Table() *Table { return o.parent }

func (o *TableOption) root() *Database { return o.parent.root() }

func (o *TableOption) setParent(t *Table) { o.parent = t }

func (o *TableOption) Clone(parent *Table) *TableOption {
	c := *o
	c.parent = parent
	return &c
}
