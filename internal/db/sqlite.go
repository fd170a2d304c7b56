package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/schemadiff/internal/schema"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db, path: path}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close(_ context.Context) error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// Extract reads the tables selected by f. The database is named after the
// file.
func (c *SQLiteClient) Extract(ctx context.Context, f Filter) (*schema.Database, error) {
	name := strings.TrimSuffix(filepath.Base(c.path), filepath.Ext(c.path))
	db, err := NewSQLiteExtractor(c).ExtractSchema(ctx, name, f)
	if err != nil {
		return nil, schema.WrapError("extract sqlite", err)
	}
	return db, nil
}

// Rows reads the table data as text, NULLs kept as nil.
func (c *SQLiteClient) Rows(ctx context.Context, t *schema.Table, limit int) ([]*schema.RowData, error) {
	cols := rowColumns(t)
	if len(cols) == 0 {
		return nil, nil
	}
	exprs := make([]string, len(cols))
	for i, col := range cols {
		exprs[i] = fmt.Sprintf("CAST(%s AS TEXT)", quoteSQLite(col))
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT ?", strings.Join(exprs, ", "), quoteSQLite(t.Name))
	return scanRows(ctx, c.db, query, cols, limit)
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
