package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// MySQLExtractor handles schema extraction from MySQL. Objects are read
// without an owner so that two databases of different names compare by
// table name alone.
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates a new MySQL schema extractor
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// ExtractSchema extracts the tables selected by f together with the views,
// triggers and routines of the database.
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, f Filter) (*schema.Database, error) {
	db := schema.NewDatabase(e.schemaName)

	tableNames, err := e.getTableNames(ctx, f.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		if !f.keep(tableName) {
			continue
		}
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		if err := db.Tables.Add(table); err != nil {
			return nil, err
		}
	}

	if err := e.extractViews(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to extract views: %w", err)
	}
	if err := e.extractRoutines(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to extract routines: %w", err)
	}

	return finish(db), nil
}

// getTableNames returns the list of tables to extract
func (e *MySQLExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// extractTable extracts all information for a single table
func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := schema.NewTable("", tableName)

	if err := e.extractColumns(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if err := e.extractKeys(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract keys: %w", err)
	}
	if err := e.extractChecks(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract check constraints: %w", err)
	}
	if err := e.extractIndexes(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	if err := e.extractTriggers(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract triggers: %w", err)
	}

	return table, nil
}

// extractColumns extracts column information for a table
func (e *MySQLExtractor) extractColumns(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra,
			COALESCE(c.generation_expression, ''),
			COALESCE(c.collation_name, '')
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		col := &schema.Column{}
		var columnType, nullable, extra string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &columnType, &nullable, &defaultVal, &extra, &col.Formula, &col.Collation); err != nil {
			return err
		}

		splitType(col, columnType)
		col.Nullable = (nullable == "YES")
		col.Computed = col.Formula != ""
		extra = strings.ToLower(extra)
		if strings.Contains(extra, "auto_increment") {
			col.Identity = true
			col.IdentitySeed, col.IdentityIncrement = 1, 1
		}
		if defaultVal.Valid && !col.Computed {
			columnDefault(table, col, mysqlDefault(col, defaultVal.String, extra))
		}

		if err := table.Columns.Add(col); err != nil {
			return err
		}
	}

	return rows.Err()
}

// mysqlDefault turns the catalog default into an SQL expression. MySQL
// reports literal defaults unquoted and flags expressions as generated.
func mysqlDefault(c *schema.Column, value, extra string) string {
	if strings.Contains(extra, "default_generated") || strings.EqualFold(value, "NULL") {
		return value
	}
	switch schema.FamilyOf(c.DataType) {
	case schema.FamilyInteger, schema.FamilyDecimal, schema.FamilyFloat:
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return value
		}
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// extractKeys extracts primary key, unique and foreign key constraints.
// The primary key is named after its table since MySQL calls every one
// PRIMARY.
func (e *MySQLExtractor) extractKeys(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			kcu.column_name,
			COALESCE(kcu.referenced_table_name, ''),
			COALESCE(kcu.referenced_column_name, ''),
			COALESCE(rc.delete_rule, ''),
			COALESCE(rc.update_rule, '')
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_schema = kcu.constraint_schema
			AND tc.constraint_name = kcu.constraint_name
			AND tc.table_name = kcu.table_name
		LEFT JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = tc.constraint_schema
			AND rc.constraint_name = tc.constraint_name
		WHERE tc.table_schema = ?
			AND tc.table_name = ?
			AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind, column, refTable, refColumn, onDelete, onUpdate string
		if err := rows.Scan(&name, &kind, &column, &refTable, &refColumn, &onDelete, &onUpdate); err != nil {
			return err
		}

		c := &schema.Constraint{
			Meta:    schema.Meta{Name: name},
			Columns: []schema.ConstraintColumn{{Name: column}},
		}
		switch kind {
		case "PRIMARY KEY":
			c.Kind = schema.PrimaryKey
			c.Name = "PK_" + table.Name
			c.Clustered = true
		case "UNIQUE":
			c.Kind = schema.Unique
		default:
			c.Kind = schema.ForeignKey
			c.Columns[0].RefName = refColumn
			c.RefTable = refTable
			c.OnDelete = foreignKeyAction(onDelete)
			c.OnUpdate = foreignKeyAction(onUpdate)
		}
		if err := addConstraint(table, c); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (e *MySQLExtractor) extractChecks(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT cc.constraint_name, cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
			ON cc.constraint_schema = tc.constraint_schema
			AND cc.constraint_name = tc.constraint_name
		WHERE tc.table_schema = ?
			AND tc.table_name = ?
			AND tc.constraint_type = 'CHECK'
		ORDER BY cc.constraint_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c := &schema.Constraint{Kind: schema.Check}
		if err := rows.Scan(&c.Name, &c.Definition); err != nil {
			return err
		}
		if err := addConstraint(table, c); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractIndexes extracts the indexes that do not back a constraint
func (e *MySQLExtractor) extractIndexes(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			s.index_name,
			s.non_unique = 0 AS is_unique,
			COALESCE(s.column_name, ''),
			COALESCE(s.collation, 'A') = 'D' AS descending
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
			AND s.index_name NOT IN (
				SELECT tc.constraint_name
				FROM information_schema.table_constraints tc
				WHERE tc.table_schema = s.table_schema
					AND tc.table_name = s.table_name
			)
			AND s.index_name != 'PRIMARY'
		ORDER BY s.index_name, s.seq_in_index
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var isUnique, descending int
		var col schema.IndexColumn

		if err := rows.Scan(&name, &isUnique, &col.Name, &descending); err != nil {
			return err
		}
		// functional key parts have no column
		if col.Name == "" {
			continue
		}
		col.Descending = descending == 1

		if idx, ok := table.Indexes.Get(name); ok {
			idx.Columns = append(idx.Columns, col)
			continue
		}
		idx := &schema.Index{
			Meta:    schema.Meta{Name: name},
			Columns: []schema.IndexColumn{col},
			Unique:  isUnique == 1,
		}
		if err := table.Indexes.Add(idx); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (e *MySQLExtractor) extractTriggers(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT trigger_name, action_timing, event_manipulation, action_statement
		FROM information_schema.triggers
		WHERE event_object_schema = ? AND event_object_table = ?
		ORDER BY trigger_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, timing, event, body string
		if err := rows.Scan(&name, &timing, &event, &body); err != nil {
			return err
		}
		tr := &schema.Trigger{
			Meta: schema.Meta{Name: name},
			Text: fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW %s",
				quoteMySQL(name), timing, event, quoteMySQL(table.Name), body),
		}
		if err := table.Triggers.Add(tr); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (e *MySQLExtractor) extractViews(ctx context.Context, db *schema.Database) error {
	query := `
		SELECT v.table_name, v.view_definition, COALESCE(GROUP_CONCAT(u.table_name), '')
		FROM information_schema.views v
		LEFT JOIN information_schema.view_table_usage u
			ON u.view_schema = v.table_schema AND u.view_name = v.table_name
		WHERE v.table_schema = ?
		GROUP BY v.table_name, v.view_definition
		ORDER BY v.table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, body, refs string
		if err := rows.Scan(&name, &body, &refs); err != nil {
			return err
		}
		v := schema.NewView("", name, fmt.Sprintf("CREATE VIEW %s AS %s", quoteMySQL(name), body))
		if refs != "" {
			v.References = strings.Split(refs, ",")
		}
		if err := db.Views.Add(v); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractRoutines reads procedures and functions through SHOW CREATE,
// which carries the full parameter list.
func (e *MySQLExtractor) extractRoutines(ctx context.Context, db *schema.Database) error {
	query := `
		SELECT routine_name, routine_type
		FROM information_schema.routines
		WHERE routine_schema = ?
		ORDER BY routine_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return err
	}
	var routines []*schema.Routine
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			rows.Close()
			return err
		}
		r := &schema.Routine{Meta: schema.Meta{Name: name}}
		if kind == "FUNCTION" {
			r.Kind = schema.Function
		}
		routines = append(routines, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range routines {
		kind, target := "PROCEDURE", db.Procedures
		if r.Kind == schema.Function {
			kind, target = "FUNCTION", db.Functions
		}
		var name, mode, charset, collation, dbCollation string
		var text sql.NullString
		show := fmt.Sprintf("SHOW CREATE %s %s.%s", kind, quoteMySQL(e.schemaName), quoteMySQL(r.Name))
		if err := e.client.GetDB().QueryRowContext(ctx, show).Scan(&name, &mode, &text, &charset, &collation, &dbCollation); err != nil {
			return fmt.Errorf("failed to read %s %s: %w", strings.ToLower(kind), r.Name, err)
		}
		r.Text = text.String
		if err := target.Add(r); err != nil {
			return err
		}
	}
	return nil
}
