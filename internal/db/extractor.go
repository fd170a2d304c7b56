// Package db reads schema trees and table rows from live databases.
package db

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/schemadiff/internal/schema"
)

// Source is an open connection that can describe its schema and read
// table rows.
type Source interface {
	// Extract reads the schema tree selected by f.
	Extract(ctx context.Context, f Filter) (*schema.Database, error)
	// Rows returns at most limit rows of t.
	Rows(ctx context.Context, t *schema.Table, limit int) ([]*schema.RowData, error)
	Close(ctx context.Context) error
}

// Filter selects the tables to extract. Tables takes precedence: when set
// only those tables are read, then Exclude is applied.
type Filter struct {
	Tables  []string
	Exclude []string
	// SchemaName defaults to "public" for PostgreSQL and to the database
	// named in the DSN for MySQL. SQLite has no schemas.
	SchemaName string
}

func (f Filter) keep(table string) bool {
	return !slices.ContainsFunc(f.Exclude, func(x string) bool { return strings.EqualFold(x, table) })
}

// ParseURL detects the database kind from a connection URL and returns the
// driver connection string.
func ParseURL(url string) (kind, connectionStr string, err error) {
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres", url, nil
	}
	if strings.HasPrefix(url, "mysql://") {
		// Strip mysql:// prefix for the Go MySQL driver
		return "mysql", strings.TrimPrefix(url, "mysql://"), nil
	}
	if strings.HasPrefix(url, "sqlite://") {
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), nil
	}
	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, or sqlite://)")
}

// ParseDatabaseName returns the database named in a MySQL DSN.
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name in DSN")
	}
	return cfg.DBName, nil
}

// Open connects to the database at url.
func Open(ctx context.Context, url string) (Source, error) {
	kind, conn, err := ParseURL(url)
	if err != nil {
		return nil, schema.WrapError("open", err)
	}
	var src Source
	switch kind {
	case "postgres":
		src, err = NewPostgresClient(ctx, conn)
	case "mysql":
		src, err = NewMySQLClient(ctx, conn)
	case "sqlite":
		src, err = NewSQLiteClient(ctx, conn)
	}
	if err != nil {
		return nil, schema.WrapError("open "+kind, err)
	}
	return src, nil
}

// rowColumns returns the columns whose values can be read and inserted
// back: computed columns are left out.
func rowColumns(t *schema.Table) []string {
	var cols []string
	for _, c := range t.Columns.Items() {
		if c.Computed {
			continue
		}
		cols = append(cols, c.Name)
	}
	return cols
}

var sizedType = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 _]*?)\s*\(\s*(\w+)\s*(?:,\s*(\d+)\s*)?\)\s*$`)

// splitType separates a declared type such as "VARCHAR(50)" or
// "decimal(10,2)" into its name and length or precision.
func splitType(c *schema.Column, declared string) {
	m := sizedType.FindStringSubmatch(declared)
	if m == nil {
		c.DataType = strings.ToLower(strings.TrimSpace(declared))
		return
	}
	c.DataType = strings.ToLower(m[1])
	if strings.EqualFold(m[2], "max") {
		c.Size = schema.MaxSize
		return
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		c.DataType = strings.ToLower(strings.TrimSpace(declared))
		return
	}
	if m[3] != "" || schema.FamilyOf(c.DataType) == schema.FamilyDecimal {
		c.Precision = n
		c.Scale, _ = strconv.Atoi(m[3])
		return
	}
	c.Size = n
}

// addConstraint adds c to t unless a constraint of the same name exists,
// in which case its columns are appended.
func addConstraint(t *schema.Table, c *schema.Constraint) error {
	if existing, ok := t.Constraints.Get(c.FullName()); ok {
		existing.Columns = append(existing.Columns, c.Columns...)
		return nil
	}
	c.EnsureGUID()
	return t.Constraints.Add(c)
}

// foreignKeyAction spells the referential action of a catalog code or
// name; NO ACTION is left empty.
func foreignKeyAction(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C", "CASCADE":
		return "CASCADE"
	case "N", "SET NULL":
		return "SET NULL"
	case "D", "SET DEFAULT":
		return "SET DEFAULT"
	case "R", "RESTRICT":
		return "RESTRICT"
	}
	return ""
}

// finish assigns a GUID to every node the extractor created without one.
func finish(db *schema.Database) *schema.Database {
	for _, e := range db.AllObjects().Entries() {
		e.Node().Metadata().EnsureGUID()
	}
	return db
}

// columnDefault binds an unnamed default to c under a generated name.
func columnDefault(t *schema.Table, c *schema.Column, definition string) {
	if strings.TrimSpace(definition) == "" {
		return
	}
	c.SetDefault(&schema.Default{
		Meta:       schema.Meta{Name: "DF_" + t.Name + "_" + c.Name},
		Definition: definition,
	})
}
