package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

type mysqlDialect struct{ ansi }

// MySQL returns the MySQL dialect.
func MySQL() Dialect {
	return mysqlDialect{ansi{name: "mysql", quote: backtick}}
}

func backtick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) Features() Features {
	return Features{AlterColumn: true, AlterConstraints: true}
}

func (mysqlDialect) Literal(value string) string {
	r := strings.NewReplacer(`\`, `\\`, "'", "''")
	return "'" + r.Replace(value) + "'"
}

func (m mysqlDialect) ColumnDefinition(c *schema.Column) string {
	s := typeName(c, "")
	if c.Computed {
		s += " AS (" + c.Formula + ")"
	}
	if c.Collation != "" && schema.FamilyOf(c.DataType) == schema.FamilyString {
		s += " COLLATE " + c.Collation
	}
	s += nullability(c)
	if c.Identity {
		s += " AUTO_INCREMENT"
	}
	return s
}

func (m mysqlDialect) AlterColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", table, backtick(c.Name), m.ColumnDefinition(c))}
}

func (mysqlDialect) DropConstraint(table string, c *schema.Constraint) string {
	switch c.Kind {
	case schema.PrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", table)
	case schema.ForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", table, backtick(c.Name))
	case schema.Unique:
		return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", table, backtick(c.Name))
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CHECK %s", table, backtick(c.Name))
}

func (mysqlDialect) DropIndex(table string, idx *schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", backtick(idx.Name), table)
}

func (m mysqlDialect) DropTrigger(_ string, t *schema.Trigger) string {
	return "DROP TRIGGER " + m.qualify(t.Owner, t.Name)
}

func (m mysqlDialect) RenameTable(owner, from, to string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s", m.qualify(owner, from), m.qualify(owner, to))
}

func (mysqlDialect) TableOption(table string, o *schema.TableOption) string {
	return fmt.Sprintf("ALTER TABLE %s %s = %s", table, o.Name, o.Value)
}

func (mysqlDialect) SchemaOwner(string, string) string { return "" }

func (mysqlDialect) DeleteOneRow(table, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s LIMIT 1", table, where)
}
