package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

func (e *emitter) qualify(owner, name string) string {
	if owner == "" {
		return e.d.Quote(name)
	}
	return e.d.Quote(owner) + "." + e.d.Quote(name)
}

func (e *emitter) tableName(t *schema.Table) string {
	return e.qualify(t.Owner, t.Name)
}

// relationName quotes the table or view an index or trigger belongs to.
func (e *emitter) relationName(r schema.Relation) string {
	m := r.Metadata()
	return e.qualify(m.Owner, m.Name)
}

// refTable quotes the table a foreign key references, resolving it by name
// when it is part of the tree.
func (e *emitter) refTable(fullName string) string {
	if t, ok := e.db.Tables.Get(fullName); ok {
		return e.tableName(t)
	}
	owner, name, found := strings.Cut(fullName, ".")
	if !found {
		return e.d.Quote(fullName)
	}
	return e.qualify(owner, name)
}

func (e *emitter) columnDef(c *schema.Column, withDefault bool) string {
	s := e.d.Quote(c.Name) + " " + e.d.ColumnDefinition(c)
	if withDefault && c.Default != nil && !c.Default.Status.IsDrop() && !c.Computed {
		s += " " + e.d.InlineDefault(c.Default)
	}
	return s
}

func (e *emitter) keyColumns(cols []schema.ConstraintColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = e.d.Quote(c.Name)
		if c.Descending {
			parts[i] += " DESC"
		}
	}
	return strings.Join(parts, ", ")
}

func (e *emitter) clustered(clustered bool) string {
	if !e.f.ClusteredKeyword {
		return ""
	}
	if clustered {
		return " CLUSTERED"
	}
	return " NONCLUSTERED"
}

// constraintDef renders the constraint clause used both inline in CREATE
// TABLE and after ALTER TABLE ... ADD.
func (e *emitter) constraintDef(c *schema.Constraint) string {
	return e.constraintDefAs(c, c.Name)
}

func (e *emitter) constraintDefAs(c *schema.Constraint, name string) string {
	head := "CONSTRAINT " + e.d.Quote(name) + " "
	switch c.Kind {
	case schema.PrimaryKey, schema.Unique:
		return fmt.Sprintf("%s%s%s (%s)", head, c.Kind, e.clustered(c.Clustered), e.keyColumns(c.Columns))
	case schema.ForeignKey:
		refs := make([]string, len(c.Columns))
		for i, cc := range c.Columns {
			refs[i] = e.d.Quote(cc.RefName)
		}
		s := fmt.Sprintf("%sFOREIGN KEY (%s) REFERENCES %s (%s)", head, e.keyColumns(c.Columns), e.refTable(c.RefTable), strings.Join(refs, ", "))
		if c.OnDelete != "" && !strings.EqualFold(c.OnDelete, "NO ACTION") {
			s += " ON DELETE " + strings.ToUpper(c.OnDelete)
		}
		if c.OnUpdate != "" && !strings.EqualFold(c.OnUpdate, "NO ACTION") {
			s += " ON UPDATE " + strings.ToUpper(c.OnUpdate)
		}
		if c.NotForReplication && e.f.Toggles {
			s += " NOT FOR REPLICATION"
		}
		return s
	}
	def := strings.TrimSpace(c.Definition)
	if !strings.HasPrefix(def, "(") {
		def = "(" + def + ")"
	}
	return head + "CHECK " + def
}

func (e *emitter) addConstraintSQL(c *schema.Constraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s", e.tableName(c.Table()), e.constraintDef(c))
}

func (e *emitter) createIndexSQL(idx *schema.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	if c := e.clustered(idx.Clustered); c != "" {
		b.WriteString(c[1:] + " ")
	}
	var keys, included []string
	for _, ic := range idx.Columns {
		switch {
		case ic.Included:
			included = append(included, e.d.Quote(ic.Name))
		case ic.Descending:
			keys = append(keys, e.d.Quote(ic.Name)+" DESC")
		default:
			keys = append(keys, e.d.Quote(ic.Name))
		}
	}
	fmt.Fprintf(&b, "INDEX %s ON %s (%s)", e.d.Quote(idx.Name), e.relationName(idx.Relation()), strings.Join(keys, ", "))
	if len(included) > 0 && e.f.IncludeColumns {
		fmt.Fprintf(&b, " INCLUDE (%s)", strings.Join(included, ", "))
	}
	if idx.Filter != "" {
		b.WriteString(" WHERE " + idx.Filter)
	}
	if idx.FileGroup != "" && e.f.FileGroups {
		b.WriteString(" ON " + e.d.Quote(idx.FileGroup))
	}
	return b.String()
}

// storage renders the placement clauses of a table.
func (e *emitter) storage(t *schema.Table) string {
	if !e.f.FileGroups {
		return ""
	}
	var b strings.Builder
	if t.FileGroup != "" {
		b.WriteString(" ON " + e.d.Quote(t.FileGroup))
	}
	if t.FileGroupText != "" && t.HasBlobColumn() {
		b.WriteString(" TEXTIMAGE_ON " + e.d.Quote(t.FileGroupText))
	}
	if t.FileGroupStream != "" && t.HasFileStream() {
		b.WriteString(" FILESTREAM_ON " + e.d.Quote(t.FileGroupStream))
	}
	if t.CompressType != "" {
		b.WriteString(" WITH (DATA_COMPRESSION = " + t.CompressType + ")")
	}
	return b.String()
}

// createTableSQL renders CREATE TABLE under name with the live columns of
// t, their defaults inline, and the constraints accepted by inline.
func (e *emitter) createTableSQL(t *schema.Table, name string, inline func(*schema.Constraint) string) string {
	var lines []string
	for _, c := range t.Columns.Items() {
		if c.Status.IsDrop() {
			continue
		}
		lines = append(lines, "\t"+e.columnDef(c, true))
	}
	for _, c := range t.Constraints.Items() {
		if c.Status.IsDrop() {
			continue
		}
		if def := inline(c); def != "" {
			lines = append(lines, "\t"+def)
		}
	}
	return fmt.Sprintf("CREATE TABLE %s\n(\n%s\n)%s", name, strings.Join(lines, ",\n"), e.storage(t))
}

func (e *emitter) changeTrackingSQL(t *schema.Table) string {
	if !t.HasChangeTracking {
		return fmt.Sprintf("ALTER TABLE %s DISABLE CHANGE_TRACKING", e.tableName(t))
	}
	on := "OFF"
	if t.HasChangeTrackingTrackColumn {
		on = "ON"
	}
	return fmt.Sprintf("ALTER TABLE %s ENABLE CHANGE_TRACKING WITH (TRACK_COLUMNS_UPDATED = %s)", e.tableName(t), on)
}

func (e *emitter) toggleConstraintSQL(c *schema.Constraint) string {
	if c.IsDisabled {
		return fmt.Sprintf("ALTER TABLE %s NOCHECK CONSTRAINT %s", e.tableName(c.Table()), e.d.Quote(c.Name))
	}
	return fmt.Sprintf("ALTER TABLE %s WITH CHECK CHECK CONSTRAINT %s", e.tableName(c.Table()), e.d.Quote(c.Name))
}

func (e *emitter) toggleIndexSQL(idx *schema.Index) string {
	op := "REBUILD"
	if idx.IsDisabled {
		op = "DISABLE"
	}
	return fmt.Sprintf("ALTER INDEX %s ON %s %s", e.d.Quote(idx.Name), e.relationName(idx.Relation()), op)
}

func (e *emitter) toggleTriggerSQL(tr *schema.Trigger) string {
	op := "ENABLE"
	if tr.IsDisabled {
		op = "DISABLE"
	}
	return fmt.Sprintf("%s TRIGGER %s ON %s", op, e.qualify(tr.Owner, tr.Name), e.relationName(tr.Relation()))
}
