package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the tables selected by f, their triggers, and
// the views of the database.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, name string, f Filter) (*schema.Database, error) {
	db := schema.NewDatabase(name)

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

	return finish(db), nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := schema.NewTable("", tableName)

	var ddl string
	err := e.client.GetDB().QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&ddl)
	if err != nil {
		return nil, fmt.Errorf("failed to read table definition: %w", err)
	}

	if err := e.extractColumns(ctx, table, ddl); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if err := e.extractRelations(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}
	if err := e.extractIndexes(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	if err := e.extractTriggers(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract triggers: %w", err)
	}

	return table, nil
}

// extractColumns extracts the columns and the primary key of a table.
// Hidden column 2 and 3 are generated columns.
func (e *SQLiteExtractor) extractColumns(ctx context.Context, table *schema.Table, ddl string) error {
	query := fmt.Sprintf("PRAGMA table_xinfo(%s)", quoteSQLite(table.Name))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	type keyPart struct {
		order int
		name  string
	}
	var pk []keyPart
	autoIncrement := strings.Contains(strings.ToUpper(ddl), "AUTOINCREMENT")

	for rows.Next() {
		var cid, notNull, pkOrder, hidden int
		var name, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder, &hidden); err != nil {
			return err
		}

		col := &schema.Column{Meta: schema.Meta{Name: name}, Nullable: notNull == 0 && pkOrder == 0}
		splitType(col, colType)
		col.Computed = hidden == 2 || hidden == 3
		if col.Computed {
			col.Formula = generatedExpression(ddl, name)
		}

		// Track primary key columns
		if pkOrder > 0 {
			pk = append(pk, keyPart{pkOrder, name})
			if autoIncrement && strings.EqualFold(col.DataType, "integer") {
				col.Identity = true
				col.IdentitySeed, col.IdentityIncrement = 1, 1
			}
		}
		if defaultValue.Valid && !col.Computed {
			columnDefault(table, col, defaultValue.String)
		}

		if err := table.Columns.Add(col); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return err
	}
	if len(pk) == 0 {
		return nil
	}

	cols := make([]schema.ConstraintColumn, len(pk))
	for _, p := range pk {
		cols[p.order-1] = schema.ConstraintColumn{Name: p.name}
	}
	return addConstraint(table, &schema.Constraint{
		Meta:    schema.Meta{Name: "PK_" + table.Name},
		Kind:    schema.PrimaryKey,
		Columns: cols,
	})
}

// generatedExpression finds the AS (...) clause of a generated column in
// the table definition.
func generatedExpression(ddl, column string) string {
	re := regexp.MustCompile(`(?is)["` + "`" + `\[]?` + regexp.QuoteMeta(column) + `["` + "`" + `\]]?[^,]*?\bAS\s*\(`)
	loc := re.FindStringIndex(ddl)
	if loc == nil {
		return ""
	}
	depth := 1
	for i := loc[1]; i < len(ddl); i++ {
		switch ddl[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(ddl[loc[1]:i])
			}
		}
	}
	return ""
}

// extractRelations extracts foreign keys. SQLite does not keep their
// names, so they are numbered per table.
func (e *SQLiteExtractor) extractRelations(ctx context.Context, table *schema.Table) error {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLite(table.Name))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return err
		}

		c := &schema.Constraint{
			Meta:     schema.Meta{Name: fmt.Sprintf("FK_%s_%d", table.Name, id)},
			Kind:     schema.ForeignKey,
			Columns:  []schema.ConstraintColumn{{Name: fromCol, RefName: toCol.String}},
			RefTable: targetTable,
			OnDelete: foreignKeyAction(onDelete),
			OnUpdate: foreignKeyAction(onUpdate),
		}
		if err := addConstraint(table, c); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractIndexes extracts indexes; those created by a UNIQUE clause become
// unique constraints.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, table *schema.Table) error {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteSQLite(table.Name))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return err
	}

	type indexInfo struct {
		name    string
		unique  bool
		origin  string
		partial bool
	}
	var list []indexInfo
	for rows.Next() {
		var seq, unique, partial int
		var info indexInfo
		if err := rows.Scan(&seq, &info.name, &unique, &info.origin, &partial); err != nil {
			rows.Close()
			return err
		}
		info.unique, info.partial = unique == 1, partial == 1
		// primary keys are read from table_info
		if info.origin != "pk" {
			list = append(list, info)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, info := range list {
		columns, err := e.indexColumns(ctx, info.name)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			continue
		}

		if info.origin == "u" {
			c := &schema.Constraint{Meta: schema.Meta{Name: info.name}, Kind: schema.Unique}
			for _, ic := range columns {
				c.Columns = append(c.Columns, schema.ConstraintColumn{Name: ic.Name, Descending: ic.Descending})
			}
			if err := addConstraint(table, c); err != nil {
				return err
			}
			continue
		}

		idx := &schema.Index{
			Meta:    schema.Meta{Name: info.name},
			Unique:  info.unique,
			Columns: columns,
		}
		if info.partial {
			if idx.Filter, err = e.indexFilter(ctx, info.name); err != nil {
				return err
			}
		}
		if err := table.Indexes.Add(idx); err != nil {
			return err
		}
	}

	return nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, index string) ([]schema.IndexColumn, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_xinfo(%s)", quoteSQLite(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.IndexColumn
	for rows.Next() {
		var seqno, cid, desc, key int
		var colName, coll sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName, &desc, &coll, &key); err != nil {
			return nil, err
		}
		// key 0 marks the trailing rowid of the index entry
		if key == 0 || !colName.Valid {
			continue
		}
		columns = append(columns, schema.IndexColumn{Name: colName.String, Descending: desc == 1})
	}
	return columns, rows.Err()
}

var whereClause = regexp.MustCompile(`(?is)\bWHERE\b(.*)$`)

func (e *SQLiteExtractor) indexFilter(ctx context.Context, index string) (string, error) {
	var ddl string
	err := e.client.GetDB().QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'index' AND name = ?", index).Scan(&ddl)
	if err != nil {
		return "", err
	}
	m := whereClause.FindStringSubmatch(ddl)
	if m == nil {
		return "", nil
	}
	return strings.TrimSpace(m[1]), nil
}

func (e *SQLiteExtractor) extractTriggers(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'trigger' AND tbl_name = ?
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		tr := &schema.Trigger{}
		if err := rows.Scan(&tr.Name, &tr.Text); err != nil {
			return err
		}
		if err := table.Triggers.Add(tr); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractViews reads every view. A view references each extracted table
// whose name appears as a word in its body.
func (e *SQLiteExtractor) extractViews(ctx context.Context, db *schema.Database) error {
	query := `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'view'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, text string
		if err := rows.Scan(&name, &text); err != nil {
			return err
		}
		v := schema.NewView("", name, text)
		for _, t := range db.Tables.Items() {
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t.Name) + `\b`)
			if re.MatchString(text) {
				v.References = append(v.References, t.Name)
			}
		}
		if err := db.Views.Add(v); err != nil {
			return err
		}
	}

	return rows.Err()
}
