package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tordrt/schemadiff/internal/schema"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db  *sql.DB
	dsn string
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db, dsn: connString}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close(_ context.Context) error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// Extract reads the database selected by f, or the one named in the DSN.
func (c *MySQLClient) Extract(ctx context.Context, f Filter) (*schema.Database, error) {
	name := f.SchemaName
	if name == "" {
		var err error
		if name, err = ParseDatabaseName(c.dsn); err != nil {
			return nil, schema.WrapError("extract mysql", err)
		}
	}
	db, err := NewMySQLExtractor(c, name).ExtractSchema(ctx, f)
	if err != nil {
		return nil, schema.WrapError("extract mysql", err)
	}
	return db, nil
}

// Rows reads the table data as text, NULLs kept as nil.
func (c *MySQLClient) Rows(ctx context.Context, t *schema.Table, limit int) ([]*schema.RowData, error) {
	cols := rowColumns(t)
	if len(cols) == 0 {
		return nil, nil
	}
	exprs := make([]string, len(cols))
	for i, col := range cols {
		exprs[i] = fmt.Sprintf("CAST(%s AS CHAR)", quoteMySQL(col))
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT ?", strings.Join(exprs, ", "), quoteMySQL(t.Name))
	return scanRows(ctx, c.db, query, cols, limit)
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// scanRows runs a row query on a database/sql connection.
func scanRows(ctx context.Context, db *sql.DB, query string, cols []string, limit int) ([]*schema.RowData, error) {
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*schema.RowData
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		values := make([]*string, len(cols))
		for i, v := range raw {
			if v.Valid {
				values[i] = &v.String
			}
		}
		out = append(out, schema.NewRowData(cols, values))
	}
	return out, rows.Err()
}
