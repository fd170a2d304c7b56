package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/schemadiff/internal/schema"
)

const varcharType = "varchar"

// PostgresExtractor handles schema extraction from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates a new schema extractor
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractSchema extracts the tables selected by f together with the views,
// routines and owner of the schema.
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, f Filter) (*schema.Database, error) {
	var name string
	if err := e.client.GetConnection().QueryRow(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return nil, fmt.Errorf("failed to read database name: %w", err)
	}
	db := schema.NewDatabase(name)

	if err := e.extractNamespace(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to extract schema owner: %w", err)
	}

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

func (e *PostgresExtractor) extractNamespace(ctx context.Context, db *schema.Database) error {
	var owner string
	err := e.client.GetConnection().QueryRow(ctx,
		"SELECT pg_get_userbyid(nspowner) FROM pg_namespace WHERE nspname = $1", e.schema).Scan(&owner)
	if err != nil {
		return err
	}
	return db.Schemas.Add(&schema.Namespace{Meta: schema.Meta{Name: e.schema, Owner: owner}})
}

// getTableNames returns the list of tables to extract
func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
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
func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := schema.NewTable(e.schema, tableName)

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
	if err := e.extractOptions(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract options: %w", err)
	}

	return table, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		return varcharType
	case "character":
		return "char"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[], "_int4" for integer[])
		if len(udtName) > 0 && udtName[0] == '_' {
			elementType := normalizeUdtName(udtName[1:])
			return fmt.Sprintf("%s[]", elementType)
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case varcharType:
		return varcharType
	default:
		return udtName
	}
}

// extractColumns extracts column information for a table
func (e *PostgresExtractor) extractColumns(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.collation_name,
			c.is_identity = 'YES',
			c.is_generated = 'ALWAYS',
			COALESCE(c.generation_expression, '')
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		col := &schema.Column{}
		var dataType, udtName, nullable string
		var defaultVal, collation *string
		var charMaxLength, precision, scale *int

		if err := rows.Scan(&col.Name, &dataType, &udtName, &nullable, &defaultVal,
			&charMaxLength, &precision, &scale, &collation,
			&col.Identity, &col.Computed, &col.Formula); err != nil {
			return err
		}

		col.Nullable = (nullable == "YES")
		col.DataType = normalizePostgresType(dataType, udtName)
		if charMaxLength != nil {
			col.Size = *charMaxLength
		}
		if dataType == "numeric" && precision != nil {
			col.Precision = *precision
			if scale != nil {
				col.Scale = *scale
			}
		}
		if collation != nil {
			col.Collation = *collation
		}

		// serial columns read as a nextval() default
		if defaultVal != nil && strings.HasPrefix(*defaultVal, "nextval(") {
			col.Identity = true
			defaultVal = nil
		}
		if col.Identity {
			col.IdentitySeed, col.IdentityIncrement = 1, 1
		}
		if defaultVal != nil && !col.Computed {
			columnDefault(table, col, *defaultVal)
		}

		if err := table.Columns.Add(col); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractKeys extracts primary key, unique and foreign key constraints,
// one row per key column in key order.
func (e *PostgresExtractor) extractKeys(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			con.conname,
			con.contype::text,
			a.attname,
			COALESCE(refns.nspname, ''),
			COALESCE(ref.relname, ''),
			COALESCE(fa.attname, ''),
			con.confdeltype::text,
			con.confupdtype::text,
			COALESCE(ix.indisclustered, false)
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		LEFT JOIN pg_class ref ON ref.oid = con.confrelid
		LEFT JOIN pg_namespace refns ON refns.oid = ref.relnamespace
		LEFT JOIN pg_attribute fa ON fa.attrelid = con.confrelid AND fa.attnum = con.confkey[k.ord]
		LEFT JOIN pg_index ix ON ix.indexrelid = con.conindid AND con.contype <> 'f'
		WHERE n.nspname = $1
			AND t.relname = $2
			AND con.contype IN ('p', 'u', 'f')
		ORDER BY con.conname, k.ord
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind, column, refSchema, refTable, refColumn, onDelete, onUpdate string
		var clustered bool
		if err := rows.Scan(&name, &kind, &column, &refSchema, &refTable, &refColumn, &onDelete, &onUpdate, &clustered); err != nil {
			return err
		}

		c := &schema.Constraint{
			Meta:      schema.Meta{Name: name, Owner: e.schema},
			Columns:   []schema.ConstraintColumn{{Name: column}},
			Clustered: clustered,
		}
		switch kind {
		case "p":
			c.Kind = schema.PrimaryKey
		case "u":
			c.Kind = schema.Unique
		default:
			c.Kind = schema.ForeignKey
			c.Columns[0].RefName = refColumn
			c.RefTable = schema.Qualify(refSchema, refTable)
			c.OnDelete = foreignKeyAction(onDelete)
			c.OnUpdate = foreignKeyAction(onUpdate)
		}
		if err := addConstraint(table, c); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (e *PostgresExtractor) extractChecks(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT con.conname, pg_get_constraintdef(con.oid), NOT con.convalidated
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
			AND t.relname = $2
			AND con.contype = 'c'
		ORDER BY con.conname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c := &schema.Constraint{Kind: schema.Check}
		var def string
		if err := rows.Scan(&c.Name, &def, &c.IsDisabled); err != nil {
			return err
		}
		c.Owner = e.schema
		def = strings.TrimSuffix(def, " NOT VALID")
		c.Definition = strings.TrimSpace(strings.TrimPrefix(def, "CHECK"))
		if err := addConstraint(table, c); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractIndexes extracts the indexes that do not back a constraint
func (e *PostgresExtractor) extractIndexes(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique,
			ix.indisclustered,
			a.attname,
			k.ord > ix.indnkeyatts AS included,
			(ix.indoption[(k.ord - 1)::int] & 1) = 1 AS descending,
			COALESCE(pg_get_expr(ix.indpred, ix.indrelid), '')
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
			AND NOT EXISTS (
				SELECT 1 FROM pg_constraint c
				WHERE c.conindid = ix.indexrelid AND c.contype IN ('p', 'u', 'x')
			)
		ORDER BY i.relname, k.ord
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, filter string
		var unique, clustered bool
		var col schema.IndexColumn
		if err := rows.Scan(&name, &unique, &clustered, &col.Name, &col.Included, &col.Descending, &filter); err != nil {
			return err
		}
		if idx, ok := table.Indexes.Get(name); ok {
			idx.Columns = append(idx.Columns, col)
			continue
		}
		idx := &schema.Index{
			Meta:      schema.Meta{Name: name, Owner: e.schema},
			Columns:   []schema.IndexColumn{col},
			Unique:    unique,
			Clustered: clustered,
			Filter:    filter,
		}
		if err := table.Indexes.Add(idx); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (e *PostgresExtractor) extractTriggers(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT tg.tgname, pg_get_triggerdef(tg.oid), tg.tgenabled = 'D'
		FROM pg_trigger tg
		JOIN pg_class t ON t.oid = tg.tgrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
			AND t.relname = $2
			AND NOT tg.tgisinternal
		ORDER BY tg.tgname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		tr := &schema.Trigger{}
		if err := rows.Scan(&tr.Name, &tr.Text, &tr.IsDisabled); err != nil {
			return err
		}
		tr.Owner = e.schema
		if err := table.Triggers.Add(tr); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractOptions reads the storage parameters set on the table
func (e *PostgresExtractor) extractOptions(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT unnest(t.reloptions)
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1 AND t.relname = $2
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var opt string
		if err := rows.Scan(&opt); err != nil {
			return err
		}
		name, value, _ := strings.Cut(opt, "=")
		if err := table.Options.Add(&schema.TableOption{Meta: schema.Meta{Name: name}, Value: value}); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (e *PostgresExtractor) extractViews(ctx context.Context, db *schema.Database) error {
	query := `
		SELECT v.table_name, v.view_definition,
			COALESCE(array_agg(u.table_schema || '.' || u.table_name) FILTER (WHERE u.table_name IS NOT NULL), '{}')
		FROM information_schema.views v
		LEFT JOIN information_schema.view_table_usage u
			ON u.view_schema = v.table_schema AND u.view_name = v.table_name
		WHERE v.table_schema = $1
		GROUP BY v.table_name, v.view_definition
		ORDER BY v.table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, body string
		var refs []string
		if err := rows.Scan(&name, &body, &refs); err != nil {
			return err
		}
		text := fmt.Sprintf("CREATE VIEW %s AS\n%s", pgx.Identifier{e.schema, name}.Sanitize(), strings.TrimSpace(body))
		v := schema.NewView(e.schema, name, text)
		v.References = refs
		if err := db.Views.Add(v); err != nil {
			return err
		}
	}

	return rows.Err()
}

// extractRoutines reads the functions and procedures of the schema that
// do not belong to an extension.
func (e *PostgresExtractor) extractRoutines(ctx context.Context, db *schema.Database) error {
	query := `
		SELECT p.proname, p.prokind::text, pg_get_functiondef(p.oid)
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1
			AND p.prokind IN ('f', 'p')
			AND NOT EXISTS (
				SELECT 1 FROM pg_depend d
				WHERE d.objid = p.oid AND d.deptype = 'e'
			)
		ORDER BY p.proname
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind, text string
		if err := rows.Scan(&name, &kind, &text); err != nil {
			return err
		}
		r := &schema.Routine{Meta: schema.Meta{Name: name, Owner: e.schema}, Text: strings.TrimSpace(text)}
		target := db.Procedures
		if kind == "f" {
			r.Kind = schema.Function
			target = db.Functions
		}
		// overloads share a name; the first one wins
		if target.Has(r.FullName()) {
			continue
		}
		if err := target.Add(r); err != nil {
			return err
		}
	}

	return rows.Err()
}
