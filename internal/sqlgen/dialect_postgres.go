package sqlgen

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/tordrt/schemadiff/internal/schema"
)

type postgres struct{ ansi }

// Postgres returns the PostgreSQL dialect.
func Postgres() Dialect {
	return postgres{ansi{name: "postgres", quote: pq.QuoteIdentifier}}
}

func (postgres) Features() Features {
	return Features{IncludeColumns: true, AlterColumn: true, AlterConstraints: true}
}

func (postgres) Literal(value string) string { return pq.QuoteLiteral(value) }

func (p postgres) ColumnDefinition(c *schema.Column) string {
	s := p.dataType(c)
	switch {
	case c.Computed:
		s += " GENERATED ALWAYS AS (" + c.Formula + ") STORED"
	case c.Identity:
		s += " GENERATED BY DEFAULT AS IDENTITY"
	}
	return s + nullability(c)
}

func (p postgres) dataType(c *schema.Column) string {
	s := typeName(c, "")
	if c.Collation != "" && schema.FamilyOf(c.DataType) == schema.FamilyString {
		s += " COLLATE " + pq.QuoteIdentifier(c.Collation)
	}
	return s
}

func (p postgres) AlterColumn(table string, c *schema.Column) []string {
	col := pq.QuoteIdentifier(c.Name)
	null := "SET NOT NULL"
	if c.Nullable {
		null = "DROP NOT NULL"
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, col, p.dataType(c)),
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", table, col, null),
	}
}

func (postgres) TableOption(table string, o *schema.TableOption) string {
	return fmt.Sprintf("ALTER TABLE %s SET (%s = %s)", table, o.Name, o.Value)
}

func (postgres) DeleteOneRow(table, where string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE ctid = (SELECT ctid FROM %s WHERE %s LIMIT 1)", table, table, where)
}
