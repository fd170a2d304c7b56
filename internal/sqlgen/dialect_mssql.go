package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

type mssql struct{ ansi }

// MSSQL returns the SQL Server dialect. Statements are separated by GO
// batch markers.
func MSSQL() Dialect {
	return mssql{ansi{name: "mssql", quote: bracket}}
}

func bracket(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (mssql) Features() Features {
	return Features{
		FileGroups:       true,
		ChangeTracking:   true,
		IdentityInsert:   true,
		Toggles:          true,
		IncludeColumns:   true,
		ClusteredKeyword: true,
		NamedDefaults:    true,
		RowVersion:       true,
		AlterColumn:      true,
		AlterConstraints: true,
	}
}

func (mssql) Literal(value string) string {
	return "N'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (mssql) Terminate(stmt string) string {
	return strings.TrimRight(stmt, "\n") + "\nGO\n"
}

func (m mssql) ColumnDefinition(c *schema.Column) string {
	if c.Computed {
		return "AS " + c.Formula
	}
	s := m.dataType(c)
	if c.IsFileStream {
		s += " FILESTREAM"
	}
	if c.Identity {
		seed, inc := c.IdentitySeed, c.IdentityIncrement
		if inc == 0 {
			seed, inc = 1, 1
		}
		s += fmt.Sprintf(" IDENTITY (%d,%d)", seed, inc)
	}
	if c.RowGUID {
		s += " ROWGUIDCOL"
	}
	return s + nullability(c)
}

func (m mssql) dataType(c *schema.Column) string {
	s := typeName(c, "max")
	if c.Collation != "" && schema.FamilyOf(c.DataType) == schema.FamilyString {
		s += " COLLATE " + c.Collation
	}
	return s
}

func (m mssql) InlineDefault(d *schema.Default) string {
	if d.Name == "" {
		return "DEFAULT " + d.Definition
	}
	return fmt.Sprintf("CONSTRAINT %s DEFAULT %s", bracket(d.Name), d.Definition)
}

func (mssql) Coalesce(expr, fallback string) string {
	return "ISNULL(" + expr + "," + fallback + ")"
}

// AlterColumn leaves identity out: identity changes always rebuild the table.
func (m mssql) AlterColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s%s", table, bracket(c.Name), m.dataType(c), nullability(c))}
}

func (m mssql) AddDefault(table string, c *schema.Column, d *schema.Default) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s FOR %s", table, m.InlineDefault(d), bracket(c.Name))
}

func (mssql) DropDefault(table string, _ *schema.Column, d *schema.Default) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", table, bracket(d.DropName()))
}

func (mssql) DropIndex(table string, idx *schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", bracket(idx.Name), table)
}

func (m mssql) DropTrigger(_ string, t *schema.Trigger) string {
	return "DROP TRIGGER " + m.qualify(t.Owner, t.Name)
}

func (m mssql) RenameTable(owner, from, to string) string {
	return fmt.Sprintf("EXEC sp_rename N'%s', N'%s', 'OBJECT'", m.qualify(owner, from), to)
}

func (m mssql) RenameConstraint(_, owner, from, to string) string {
	return fmt.Sprintf("EXEC sp_rename N'%s', N'%s', 'OBJECT'", m.qualify(owner, from), to)
}

func (mssql) TableOption(table string, o *schema.TableOption) string {
	return fmt.Sprintf("EXEC sp_tableoption N'%s', '%s', '%s'", table, o.Name, o.Value)
}

func (mssql) SchemaOwner(namespace, owner string) string {
	return fmt.Sprintf("ALTER AUTHORIZATION ON SCHEMA::%s TO %s", bracket(namespace), bracket(owner))
}

func (mssql) DeleteOneRow(table, where string) string {
	return fmt.Sprintf("DELETE TOP (1) FROM %s WHERE %s", table, where)
}
