package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

type sqlite struct{ ansi }

// SQLite returns the SQLite dialect. SQLite cannot alter columns or
// constraints, so tables with such changes are always rebuilt.
func SQLite() Dialect {
	return sqlite{ansi{name: "sqlite", quote: doubleQuote}}
}

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqlite) Features() Features { return Features{} }

func (s sqlite) ColumnDefinition(c *schema.Column) string {
	def := typeName(c, "")
	if c.Computed {
		def += " GENERATED ALWAYS AS (" + c.Formula + ")"
	}
	if c.Collation != "" {
		def += " COLLATE " + c.Collation
	}
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def
}

func (sqlite) AlterColumn(string, *schema.Column) []string { return nil }

func (s sqlite) DropIndex(_ string, idx *schema.Index) string {
	return "DROP INDEX " + doubleQuote(idx.Name)
}

func (s sqlite) DropTrigger(_ string, t *schema.Trigger) string {
	return "DROP TRIGGER " + doubleQuote(t.Name)
}

func (s sqlite) RenameTable(_, from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", doubleQuote(from), doubleQuote(to))
}

func (sqlite) SchemaOwner(string, string) string { return "" }

func (sqlite) DeleteOneRow(table, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE rowid = (SELECT rowid FROM %s WHERE %s LIMIT 1)", table, table, where)
}
