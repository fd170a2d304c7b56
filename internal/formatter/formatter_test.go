package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tordrt/schemadiff/internal/rowdiff"
	"github.com/tordrt/schemadiff/internal/schema"
	"github.com/tordrt/schemadiff/internal/sqlgen"
)

func sampleScript() sqlgen.List {
	var l sqlgen.List
	l.Add("ALTER TABLE [dbo].[Orders] DROP CONSTRAINT [FK_Orders_Customers]\nGO\n", 1, sqlgen.ActionDropConstraintFK, "dbo.FK_Orders_Customers")
	l.Add("ALTER TABLE [dbo].[Customers] ADD [Email] varchar(50) NULL\nGO\n", 5, sqlgen.ActionAddColumn, "dbo.Customers")
	l.Add("ALTER TABLE [dbo].[Customers] ALTER COLUMN [Code] int NOT NULL\nGO\n", 5, sqlgen.ActionAlterColumn, "dbo.Customers")
	return l
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name: "no header",
			want: sampleScript().SQL(),
		},
		{
			name:   "header",
			header: "From: a\nTo: b\n",
			want:   "-- From: a\n-- To: b\n\n" + sampleScript().SQL(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewTextFormatter(&buf, tt.header).Format(sampleScript()); err != nil {
				t.Fatalf("Format() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("Format() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScriptFileRoundTrip(t *testing.T) {
	for _, name := range []string{"diff.sql", "diff.sql.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteScriptFile(path, sampleScript(), "generated"); err != nil {
				t.Fatalf("WriteScriptFile() unexpected error: %v", err)
			}
			got, err := ReadScriptFile(path)
			if err != nil {
				t.Fatalf("ReadScriptFile() unexpected error: %v", err)
			}
			if want := "-- generated\n\n" + sampleScript().SQL(); got != want {
				t.Errorf("ReadScriptFile() = %q, want %q", got, want)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			compressed := !bytes.HasPrefix(raw, []byte("-- generated"))
			if compressed != strings.HasSuffix(name, ".xz") {
				t.Errorf("file compressed = %v for %s", compressed, name)
			}
		})
	}
}

func changedDatabase(t *testing.T) *schema.Database {
	t.Helper()
	db := schema.NewDatabase("shop")

	customers := schema.NewTable("dbo", "Customers")
	_ = customers.Columns.Add(&schema.Column{Meta: schema.Meta{Name: "Id"}, DataType: "int"})
	email := &schema.Column{Meta: schema.Meta{Name: "Email", Status: schema.StatusCreate}, DataType: "varchar", Size: 50, Nullable: true}
	_ = customers.Columns.Add(email)
	customers.Status = schema.StatusAlter
	if err := db.Tables.Add(customers); err != nil {
		t.Fatalf("Tables.Add() unexpected error: %v", err)
	}

	unchanged := schema.NewTable("dbo", "Kinds")
	_ = unchanged.Columns.Add(&schema.Column{Meta: schema.Meta{Name: "Id"}, DataType: "int"})
	_ = db.Tables.Add(unchanged)

	view := schema.NewView("dbo", "ActiveCustomers", "CREATE VIEW dbo.ActiveCustomers AS SELECT 1")
	view.Status = schema.StatusDrop
	_ = db.Views.Add(view)
	return db
}

func TestMarkdownFormatter(t *testing.T) {
	t.Run("no differences", func(t *testing.T) {
		var buf bytes.Buffer
		if err := NewMarkdownFormatter(&buf).Format(&Report{}); err != nil {
			t.Fatalf("Format() unexpected error: %v", err)
		}
		want := "# Schema Diff\n\n## Summary\n\nNo differences found.\n\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("Format() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("changes", func(t *testing.T) {
		var buf bytes.Buffer
		r := &Report{
			Origin:      "old.json",
			Destination: "new.json",
			Database:    changedDatabase(t),
			Script:      sampleScript(),
			Messages: []rowdiff.Message{
				{Level: rowdiff.LevelWarning, Table: "dbo.Status", Text: "Table dbo.Status: too many rows to diff"},
			},
		}
		if err := NewMarkdownFormatter(&buf).Format(r); err != nil {
			t.Fatalf("Format() unexpected error: %v", err)
		}
		got := buf.String()

		for _, want := range []string{
			"- **From:** old.json\n- **To:** new.json\n",
			"| DropConstraintFK | 1 |\n| AddColumn | 1 |\n| AlterColumn | 1 |\n",
			"### dbo.Customers (Alter)\n\n- column **Email** varchar(50): Create\n",
			"| view | dbo.ActiveCustomers | Drop |\n",
			"- **warning:** Table dbo.Status: too many rows to diff\n",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("Format() output missing %q\n%s", want, got)
			}
		}
		if strings.Contains(got, "dbo.Kinds") {
			t.Error("unchanged table listed in the report")
		}
	})
}

func TestMultiFileFormatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	r := &Report{Database: changedDatabase(t), Script: sampleScript()}

	if err := NewMultiFileFormatter(dir).Format(r); err != nil {
		t.Fatalf("Format() unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() unexpected error: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"001_dbo.FK_Orders_Customers.sql", "002_dbo.Customers.sql", "_overview.md", "_script.sql"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	script, err := ReadScriptFile(filepath.Join(dir, "_script.sql"))
	if err != nil {
		t.Fatal(err)
	}
	if script != sampleScript().SQL() {
		t.Errorf("_script.sql = %q", script)
	}

	customers, err := os.ReadFile(filepath.Join(dir, "002_dbo.Customers.sql"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(customers), "-- dbo.Customers\n\n") || strings.Count(string(customers), "GO\n") != 2 {
		t.Errorf("002_dbo.Customers.sql = %q", customers)
	}

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(overview), "- `002_dbo.Customers.sql` (dbo.Customers, 2 statements)\n") {
		t.Errorf("_overview.md does not list the table file:\n%s", overview)
	}
}
