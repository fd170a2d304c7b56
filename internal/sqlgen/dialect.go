package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// Features lists the optional capabilities of a dialect. Statements for a
// missing capability are not emitted.
type Features struct {
	FileGroups       bool
	ChangeTracking   bool
	IdentityInsert   bool
	Toggles          bool
	IncludeColumns   bool
	ClusteredKeyword bool
	// NamedDefaults is set when defaults are constraints with their own
	// names that must be dropped before a column or table reuses them.
	NamedDefaults bool
	// RowVersion is set when timestamp columns are server maintained row
	// versions that cannot be copied.
	RowVersion bool
	// AlterColumn and AlterConstraints are false when the table has to be
	// rebuilt to change a column or a constraint.
	AlterColumn      bool
	AlterConstraints bool
}

// Dialect renders the statements whose syntax differs between engines.
// Table arguments are already quoted and qualified.
type Dialect interface {
	Name() string
	Features() Features
	Quote(ident string) string
	Literal(value string) string
	// Terminate ends a statement or a batch of statements.
	Terminate(stmt string) string
	// ColumnDefinition renders a column without its name and default.
	ColumnDefinition(c *schema.Column) string
	InlineDefault(d *schema.Default) string
	// ForcedValue is the literal used to fill existing rows of a column
	// that becomes NOT NULL.
	ForcedValue(c *schema.Column) string
	Coalesce(expr, fallback string) string
	AlterColumn(table string, c *schema.Column) []string
	AddDefault(table string, c *schema.Column, d *schema.Default) string
	DropDefault(table string, c *schema.Column, d *schema.Default) string
	DropConstraint(table string, c *schema.Constraint) string
	DropIndex(table string, idx *schema.Index) string
	DropTrigger(table string, t *schema.Trigger) string
	RenameTable(owner, from, to string) string
	RenameConstraint(table, owner, from, to string) string
	TableOption(table string, o *schema.TableOption) string
	SchemaOwner(namespace, owner string) string
	DeleteOneRow(table, where string) string
}

// Lookup returns the dialect registered under name. An empty name selects
// SQL Server.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "mssql", "sqlserver":
		return MSSQL(), nil
	case "postgres", "postgresql":
		return Postgres(), nil
	case "mysql":
		return MySQL(), nil
	case "sqlite", "sqlite3":
		return SQLite(), nil
	}
	return nil, fmt.Errorf("unsupported dialect: %s (must be mssql, postgres, mysql or sqlite)", name)
}

// ansi holds the statement shapes most engines share. Dialects embed it and
// override what differs.
type ansi struct {
	name  string
	quote func(string) string
}

func (a ansi) Name() string              { return a.name }
func (a ansi) Quote(ident string) string { return a.quote(ident) }

func (a ansi) Literal(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (a ansi) Terminate(stmt string) string {
	return strings.TrimRight(stmt, "\n") + ";\n"
}

func (a ansi) InlineDefault(d *schema.Default) string {
	return "DEFAULT " + d.Definition
}

func (a ansi) ForcedValue(c *schema.Column) string {
	if c.Default != nil && !c.Default.Status.IsDrop() {
		return c.Default.Definition
	}
	switch schema.FamilyOf(c.DataType) {
	case schema.FamilyInteger, schema.FamilyDecimal, schema.FamilyFloat, schema.FamilyBool:
		return "0"
	case schema.FamilyDateTime:
		return "'1900-01-01'"
	case schema.FamilyGUID:
		return "'00000000-0000-0000-0000-000000000000'"
	}
	return "''"
}

func (a ansi) Coalesce(expr, fallback string) string {
	return "COALESCE(" + expr + ", " + fallback + ")"
}

func (a ansi) AddDefault(table string, c *schema.Column, d *schema.Default) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, a.quote(c.Name), d.Definition)
}

func (a ansi) DropDefault(table string, c *schema.Column, _ *schema.Default) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, a.quote(c.Name))
}

func (a ansi) DropConstraint(table string, c *schema.Constraint) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", table, a.quote(c.Name))
}

func (a ansi) DropIndex(_ string, idx *schema.Index) string {
	return "DROP INDEX " + a.qualify(idx.Owner, idx.Name)
}

func (a ansi) DropTrigger(table string, t *schema.Trigger) string {
	return fmt.Sprintf("DROP TRIGGER %s ON %s", a.quote(t.Name), table)
}

func (a ansi) RenameTable(owner, from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", a.qualify(owner, from), a.quote(to))
}

func (a ansi) RenameConstraint(table, _, from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME CONSTRAINT %s TO %s", table, a.quote(from), a.quote(to))
}

func (a ansi) TableOption(string, *schema.TableOption) string { return "" }

func (a ansi) SchemaOwner(namespace, owner string) string {
	return fmt.Sprintf("ALTER SCHEMA %s OWNER TO %s", a.quote(namespace), a.quote(owner))
}

func (a ansi) qualify(owner, name string) string {
	if owner == "" {
		return a.quote(name)
	}
	return a.quote(owner) + "." + a.quote(name)
}

// typeName renders the data type with its length or precision. maxWord
// spells an unbounded length, or is empty when the engine has none.
func typeName(c *schema.Column, maxWord string) string {
	t := strings.ToLower(c.DataType)
	if strings.Contains(t, "(") {
		return t
	}
	switch schema.FamilyOf(t) {
	case schema.FamilyString, schema.FamilyBinary:
		switch {
		case c.Size == schema.MaxSize && maxWord != "":
			return fmt.Sprintf("%s(%s)", t, maxWord)
		case c.Size > 0:
			return fmt.Sprintf("%s(%d)", t, c.Size)
		}
	case schema.FamilyDecimal:
		if c.Precision > 0 && (t == "decimal" || t == "numeric") {
			return fmt.Sprintf("%s(%d,%d)", t, c.Precision, c.Scale)
		}
	}
	return t
}

func nullability(c *schema.Column) string {
	if c.Nullable {
		return " NULL"
	}
	return " NOT NULL"
}
