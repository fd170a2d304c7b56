package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/schemadiff/internal/schema"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// Extract reads the schema selected by f.
func (c *PostgresClient) Extract(ctx context.Context, f Filter) (*schema.Database, error) {
	name := f.SchemaName
	if name == "" {
		name = "public"
	}
	db, err := NewPostgresExtractor(c, name).ExtractSchema(ctx, f)
	if err != nil {
		return nil, schema.WrapError("extract postgres", err)
	}
	return db, nil
}

// Rows reads the table data as text, NULLs kept as nil.
func (c *PostgresClient) Rows(ctx context.Context, t *schema.Table, limit int) ([]*schema.RowData, error) {
	cols := rowColumns(t)
	if len(cols) == 0 {
		return nil, nil
	}
	exprs := make([]string, len(cols))
	for i, col := range cols {
		exprs[i] = pgx.Identifier{col}.Sanitize() + "::text"
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT $1",
		strings.Join(exprs, ", "), pgx.Identifier{t.Owner, t.Name}.Sanitize())

	rows, err := c.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*schema.RowData
	for rows.Next() {
		values := make([]*string, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, schema.NewRowData(cols, values))
	}
	return out, rows.Err()
}
