//go:build integration
// +build integration

package integration

import (
	"strings"
	"testing"

	"github.com/tordrt/schemadiff/internal/schema"
)

// verifyTablesExist checks that exactly the expected tables were extracted
func verifyTablesExist(t *testing.T, db *schema.Database, expectedTables []string) {
	t.Helper()

	if db.Tables.Len() != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), db.Tables.Len())
	}

	for _, tableName := range expectedTables {
		if findTable(db, tableName) == nil {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	for _, colName := range expectedColumns {
		if !table.Columns.Has(colName) {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	for _, c := range table.Constraints.Items() {
		if c.Kind != schema.PrimaryKey {
			continue
		}
		var got []string
		for _, col := range c.Columns {
			got = append(got, col.Name)
		}
		if strings.Join(got, ",") != strings.Join(expectedPK, ",") {
			t.Errorf("Expected primary key %v, got %v", expectedPK, got)
		}
		return
	}

	t.Errorf("Table %s has no primary key", table.Name)
}

// verifyUniqueConstraint checks that a column is covered by a unique
// constraint or a unique index
func verifyUniqueConstraint(t *testing.T, db *schema.Database, tableName, columnName string) {
	t.Helper()

	table := findTable(db, tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, c := range table.Constraints.Items() {
		if c.Kind == schema.Unique && c.References(columnName) {
			return
		}
	}
	for _, idx := range table.Indexes.Items() {
		if idx.Unique && idx.References(columnName) {
			return
		}
	}

	t.Errorf("Expected %s column to have unique constraint", columnName)
}

// verifyForeignKey checks that a foreign key relationship exists
func verifyForeignKey(t *testing.T, db *schema.Database, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := findTable(db, tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, fk := range table.ForeignKeys() {
		ref := fk.RefTable
		if i := strings.LastIndex(ref, "."); i >= 0 {
			ref = ref[i+1:]
		}
		if strings.EqualFold(ref, targetTable) && fk.References(sourceColumn) {
			return
		}
	}

	t.Errorf("Expected foreign key relationship from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyIndex checks that an index exists with the expected columns
func verifyIndex(t *testing.T, db *schema.Database, tableName, indexName string, expectedColumns []string) {
	t.Helper()

	table := findTable(db, tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	idx, ok := table.Indexes.Get(indexName)
	if !ok {
		t.Errorf("Expected index %s on %s table not found", indexName, tableName)
		return
	}
	var got []string
	for _, c := range idx.Columns {
		got = append(got, c.Name)
	}
	if strings.Join(got, ",") != strings.Join(expectedColumns, ",") {
		t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, got)
	}
}

// findTable finds a table by its name without owner
func findTable(db *schema.Database, tableName string) *schema.Table {
	for _, table := range db.Tables.Items() {
		if strings.EqualFold(table.Name, tableName) {
			return table
		}
	}
	return nil
}
