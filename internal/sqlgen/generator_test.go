package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tordrt/schemadiff/internal/compare"
	"github.com/tordrt/schemadiff/internal/config"
	"github.com/tordrt/schemadiff/internal/schema"
)

func column(name, dataType string, size int, nullable bool) *schema.Column {
	return &schema.Column{Meta: schema.Meta{Name: name}, DataType: dataType, Size: size, Nullable: nullable}
}

func newTable(t *testing.T, owner, name string, cols ...*schema.Column) *schema.Table {
	t.Helper()
	tbl := schema.NewTable(owner, name)
	for _, c := range cols {
		if err := tbl.Columns.Add(c); err != nil {
			t.Fatalf("Columns.Add(%s) unexpected error: %v", c.Name, err)
		}
	}
	return tbl
}

func newDatabase(t *testing.T, tables ...*schema.Table) *schema.Database {
	t.Helper()
	db := schema.NewDatabase("shop")
	for _, tbl := range tables {
		if err := db.Tables.Add(tbl); err != nil {
			t.Fatalf("Tables.Add(%s) unexpected error: %v", tbl.FullName(), err)
		}
	}
	return db
}

func addConstraint(t *testing.T, tbl *schema.Table, c *schema.Constraint) {
	t.Helper()
	if err := tbl.Constraints.Add(c); err != nil {
		t.Fatalf("Constraints.Add(%s) unexpected error: %v", c.Name, err)
	}
}

// customers returns dbo.Customers(Id, Code) keyed on Id.
func customers(t *testing.T, codeType string, codeSize int) *schema.Table {
	t.Helper()
	tbl := newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Code", codeType, codeSize, false))
	addConstraint(t, tbl, &schema.Constraint{
		Meta:      schema.Meta{Name: "PK_Customers", Owner: "dbo"},
		Kind:      schema.PrimaryKey,
		Columns:   []schema.ConstraintColumn{{Name: "Id"}},
		Clustered: true,
	})
	return tbl
}

// orders returns dbo.Orders(Id, CustomerId), optionally with a foreign key
// to dbo.Customers.
func orders(t *testing.T, withFK bool) *schema.Table {
	t.Helper()
	tbl := newTable(t, "dbo", "Orders", column("Id", "int", 0, false), column("CustomerId", "int", 0, false))
	if withFK {
		addConstraint(t, tbl, &schema.Constraint{
			Meta:     schema.Meta{Name: "FK_Orders_Customers", Owner: "dbo"},
			Kind:     schema.ForeignKey,
			Columns:  []schema.ConstraintColumn{{Name: "CustomerId", RefName: "Id"}},
			RefTable: "dbo.Customers",
		})
	}
	return tbl
}

func diff(t *testing.T, d Dialect, cfg *config.Diffs, origin, destination *schema.Database) List {
	t.Helper()
	merged, err := compare.Databases(context.Background(), origin, destination, nil, nil)
	if err != nil {
		t.Fatalf("compare.Databases() unexpected error: %v", err)
	}
	list, err := New(d, cfg).Diff(merged)
	if err != nil {
		t.Fatalf("Diff() unexpected error: %v", err)
	}
	return list
}

func statements(l List) []string {
	out := make([]string, len(l))
	for i, s := range l {
		out[i] = s.SQL
	}
	return out
}

func TestDiffRebuildWithForeignKeyDependent(t *testing.T) {
	origin := newDatabase(t, customers(t, "varchar", 50), orders(t, true))
	destination := newDatabase(t, customers(t, "int", 0), orders(t, true))

	list := diff(t, MSSQL(), nil, origin, destination)

	want := []string{
		"ALTER TABLE [dbo].[Orders] DROP CONSTRAINT [FK_Orders_Customers]\nGO\n",
		"ALTER TABLE [dbo].[Customers] DROP CONSTRAINT [PK_Customers]\nGO\n",
		"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Id] int NOT NULL,\n\t[Code] int NOT NULL\n)\nGO\n",
		"INSERT INTO [dbo].[TempCustomers] ([Id],[Code])\nSELECT [Id],[Code] FROM [dbo].[Customers]\nGO\n",
		"DROP TABLE [dbo].[Customers]\nGO\n",
		"EXEC sp_rename N'[dbo].[TempCustomers]', N'Customers', 'OBJECT'\nGO\n",
		"ALTER TABLE [dbo].[Customers] ADD CONSTRAINT [PK_Customers] PRIMARY KEY CLUSTERED ([Id])\nGO\n",
		"ALTER TABLE [dbo].[Orders] ADD CONSTRAINT [FK_Orders_Customers] FOREIGN KEY ([CustomerId]) REFERENCES [dbo].[Customers] ([Id])\nGO\n",
	}
	if d := cmp.Diff(want, statements(list)); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}

	wantActions := []Action{
		ActionDropConstraintFK,
		ActionDropConstraint,
		ActionRebuildTable,
		ActionRebuildTable,
		ActionRebuildTable,
		ActionRebuildTable,
		ActionAddConstraint,
		ActionAddConstraintFK,
	}
	if d := cmp.Diff(wantActions, list.Actions()); d != "" {
		t.Errorf("Actions() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffToggledDependents(t *testing.T) {
	withIndex := func(tbl *schema.Table, name, col string, disabled bool) *schema.Table {
		t.Helper()
		err := tbl.Indexes.Add(&schema.Index{
			Meta:       schema.Meta{Name: name},
			Columns:    []schema.IndexColumn{{Name: col}},
			IsDisabled: disabled,
		})
		if err != nil {
			t.Fatalf("Indexes.Add(%s) unexpected error: %v", name, err)
		}
		return tbl
	}
	disabledFK := func() *schema.Table {
		tbl := orders(t, true)
		tbl.Constraints.At(0).IsDisabled = true
		return tbl
	}
	emails := func(size int, disabled bool) *schema.Table {
		tbl := newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Email", "varchar", size, true))
		return withIndex(tbl, "IX_Customers_Email", "Email", disabled)
	}
	rebuildCustomers := []string{
		"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Id] int NOT NULL,\n\t[Code] int NOT NULL\n)\nGO\n",
		"INSERT INTO [dbo].[TempCustomers] ([Id],[Code])\nSELECT [Id],[Code] FROM [dbo].[Customers]\nGO\n",
		"DROP TABLE [dbo].[Customers]\nGO\n",
		"EXEC sp_rename N'[dbo].[TempCustomers]', N'Customers', 'OBJECT'\nGO\n",
	}

	tests := []struct {
		name        string
		origin      func() *schema.Database
		destination func() *schema.Database
		want        []string
	}{
		{
			name: "index on rebuilt table",
			origin: func() *schema.Database {
				return newDatabase(t, withIndex(customers(t, "varchar", 50), "IX_Customers_Id", "Id", false))
			},
			destination: func() *schema.Database {
				return newDatabase(t, withIndex(customers(t, "int", 0), "IX_Customers_Id", "Id", true))
			},
			want: concatStrings(
				[]string{
					"DROP INDEX [IX_Customers_Id] ON [dbo].[Customers]\nGO\n",
					"ALTER TABLE [dbo].[Customers] DROP CONSTRAINT [PK_Customers]\nGO\n",
				},
				rebuildCustomers,
				[]string{
					"ALTER TABLE [dbo].[Customers] ADD CONSTRAINT [PK_Customers] PRIMARY KEY CLUSTERED ([Id])\nGO\n",
					"CREATE NONCLUSTERED INDEX [IX_Customers_Id] ON [dbo].[Customers] ([Id])\nGO\n",
					"ALTER INDEX [IX_Customers_Id] ON [dbo].[Customers] DISABLE\nGO\n",
				},
			),
		},
		{
			name: "foreign key referencing rebuilt table",
			origin: func() *schema.Database {
				return newDatabase(t, customers(t, "varchar", 50), orders(t, true))
			},
			destination: func() *schema.Database {
				return newDatabase(t, customers(t, "int", 0), disabledFK())
			},
			want: concatStrings(
				[]string{
					"ALTER TABLE [dbo].[Orders] DROP CONSTRAINT [FK_Orders_Customers]\nGO\n",
					"ALTER TABLE [dbo].[Customers] DROP CONSTRAINT [PK_Customers]\nGO\n",
				},
				rebuildCustomers,
				[]string{
					"ALTER TABLE [dbo].[Customers] ADD CONSTRAINT [PK_Customers] PRIMARY KEY CLUSTERED ([Id])\nGO\n",
					"ALTER TABLE [dbo].[Orders] ADD CONSTRAINT [FK_Orders_Customers] FOREIGN KEY ([CustomerId]) REFERENCES [dbo].[Customers] ([Id])\nGO\n",
					"ALTER TABLE [dbo].[Orders] NOCHECK CONSTRAINT [FK_Orders_Customers]\nGO\n",
				},
			),
		},
		{
			name: "foreign key alone",
			origin: func() *schema.Database {
				return newDatabase(t, customers(t, "int", 0), orders(t, true))
			},
			destination: func() *schema.Database {
				return newDatabase(t, customers(t, "int", 0), disabledFK())
			},
			want: []string{"ALTER TABLE [dbo].[Orders] NOCHECK CONSTRAINT [FK_Orders_Customers]\nGO\n"},
		},
		{
			name: "index on widened column",
			origin: func() *schema.Database {
				return newDatabase(t, emails(50, false))
			},
			destination: func() *schema.Database {
				return newDatabase(t, emails(100, true))
			},
			want: []string{
				"DROP INDEX [IX_Customers_Email] ON [dbo].[Customers]\nGO\n",
				"ALTER TABLE [dbo].[Customers] ALTER COLUMN [Email] varchar(100) NULL\nGO\n",
				"CREATE NONCLUSTERED INDEX [IX_Customers_Email] ON [dbo].[Customers] ([Email])\nGO\n",
				"ALTER INDEX [IX_Customers_Email] ON [dbo].[Customers] DISABLE\nGO\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := diff(t, MSSQL(), nil, tt.origin(), tt.destination())
			if d := cmp.Diff(tt.want, statements(list)); d != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDiffRebuild(t *testing.T) {
	option := func(tbl *schema.Table, name, value string) *schema.Table {
		t.Helper()
		if err := tbl.Options.Add(&schema.TableOption{Meta: schema.Meta{Name: name}, Value: value}); err != nil {
			t.Fatalf("Options.Add(%s) unexpected error: %v", name, err)
		}
		return tbl
	}
	identity := func(name string) *schema.Column {
		c := column(name, "int", 0, false)
		c.Identity = true
		return c
	}
	docs := func(titleSize int) *schema.Table {
		id := column("Id", "uniqueidentifier", 0, false)
		id.RowGUID = true
		body := column("Body", "varbinary", schema.MaxSize, true)
		body.IsFileStream = true
		tbl := newTable(t, "dbo", "Docs", id, body, column("Title", "varchar", titleSize, false))
		addConstraint(t, tbl, &schema.Constraint{
			Meta:    schema.Meta{Name: "UQ_Docs_Id", Owner: "dbo"},
			Kind:    schema.Unique,
			Columns: []schema.ConstraintColumn{{Name: "Id"}},
		})
		return tbl
	}
	placed := func(tbl *schema.Table, fileGroup, textFileGroup string) *schema.Table {
		tbl.FileGroup = fileGroup
		tbl.FileGroupText = textFileGroup
		return tbl
	}
	notes := func(textFileGroup string) *schema.Table {
		tbl := newTable(t, "dbo", "Notes", column("Id", "int", 0, false), column("Body", "varchar", schema.MaxSize, true))
		addConstraint(t, tbl, &schema.Constraint{
			Meta:      schema.Meta{Name: "PK_Notes", Owner: "dbo"},
			Kind:      schema.PrimaryKey,
			Columns:   []schema.ConstraintColumn{{Name: "Id"}},
			Clustered: true,
		})
		return placed(tbl, "", textFileGroup)
	}
	renameCustomers := []string{
		"DROP TABLE [dbo].[Customers]\nGO\n",
		"EXEC sp_rename N'[dbo].[TempCustomers]', N'Customers', 'OBJECT'\nGO\n",
	}

	tests := []struct {
		name        string
		origin      *schema.Table
		destination *schema.Table
		want        []string
	}{
		{
			name:        "kept identity is copied with identity insert",
			origin:      newTable(t, "dbo", "Customers", identity("Id"), column("Code", "varchar", 50, false)),
			destination: newTable(t, "dbo", "Customers", identity("Id"), column("Code", "int", 0, false)),
			want: append([]string{
				"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Id] int IDENTITY (1,1) NOT NULL,\n\t[Code] int NOT NULL\n)\nGO\n",
				"SET IDENTITY_INSERT [dbo].[TempCustomers] ON\nINSERT INTO [dbo].[TempCustomers] ([Id],[Code])\nSELECT [Id],[Code] FROM [dbo].[Customers]\nSET IDENTITY_INSERT [dbo].[TempCustomers] OFF\nGO\n",
			}, renameCustomers...),
		},
		{
			name:        "added identity generates its own values",
			origin:      newTable(t, "dbo", "Customers", column("Code", "varchar", 50, false)),
			destination: newTable(t, "dbo", "Customers", identity("Id"), column("Code", "int", 0, false)),
			want: append([]string{
				"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Code] int NOT NULL,\n\t[Id] int IDENTITY (1,1) NOT NULL\n)\nGO\n",
				"INSERT INTO [dbo].[TempCustomers] ([Code])\nSELECT [Code] FROM [dbo].[Customers]\nGO\n",
			}, renameCustomers...),
		},
		{
			name:        "column becoming not null is wrapped",
			origin:      newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Code", "varchar", 50, true)),
			destination: newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Code", "int", 0, false)),
			want: append([]string{
				"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Id] int NOT NULL,\n\t[Code] int NOT NULL\n)\nGO\n",
				"INSERT INTO [dbo].[TempCustomers] ([Id],[Code])\nSELECT [Id],ISNULL([Code],0) FROM [dbo].[Customers]\nGO\n",
			}, renameCustomers...),
		},
		{
			name:        "new not null column gets the forced value",
			origin:      newTable(t, "dbo", "Customers", column("Id", "int", 0, false)),
			destination: newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Code", "varchar", 10, false)),
			want: append([]string{
				"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Id] int NOT NULL,\n\t[Code] varchar(10) NOT NULL\n)\nGO\n",
				"INSERT INTO [dbo].[TempCustomers] ([Id],[Code])\nSELECT [Id],'' FROM [dbo].[Customers]\nGO\n",
			}, renameCustomers...),
		},
		{
			name:        "filestream unique key keeps a temporary name",
			origin:      docs(50),
			destination: docs(20),
			want: []string{
				"CREATE TABLE [dbo].[TempDocs]\n(\n\t[Id] uniqueidentifier ROWGUIDCOL NOT NULL,\n\t[Body] varbinary(max) FILESTREAM NULL,\n\t[Title] varchar(20) NOT NULL,\n\tCONSTRAINT [Temp_XX_UQ_Docs_Id] UNIQUE NONCLUSTERED ([Id])\n)\nGO\n",
				"INSERT INTO [dbo].[TempDocs] ([Id],[Body],[Title])\nSELECT [Id],[Body],[Title] FROM [dbo].[Docs]\nGO\n",
				"DROP TABLE [dbo].[Docs]\nGO\n",
				"EXEC sp_rename N'[dbo].[Temp_XX_UQ_Docs_Id]', N'UQ_Docs_Id', 'OBJECT'\nGO\n",
				"EXEC sp_rename N'[dbo].[TempDocs]', N'Docs', 'OBJECT'\nGO\n",
			},
		},
		{
			name:        "heap moves to another filegroup",
			origin:      placed(newTable(t, "dbo", "Logs", column("Id", "int", 0, false)), "PRIMARY", ""),
			destination: placed(newTable(t, "dbo", "Logs", column("Id", "int", 0, false)), "ARCHIVE", ""),
			want: []string{
				"CREATE TABLE [dbo].[TempLogs]\n(\n\t[Id] int NOT NULL\n) ON [ARCHIVE]\nGO\n",
				"INSERT INTO [dbo].[TempLogs] ([Id])\nSELECT [Id] FROM [dbo].[Logs]\nGO\n",
				"DROP TABLE [dbo].[Logs]\nGO\n",
				"EXEC sp_rename N'[dbo].[TempLogs]', N'Logs', 'OBJECT'\nGO\n",
			},
		},
		{
			name:        "clustered table stays with its index",
			origin:      placed(customers(t, "int", 0), "PRIMARY", ""),
			destination: placed(customers(t, "int", 0), "ARCHIVE", ""),
			want:        []string{},
		},
		{
			name:        "large object filegroup change",
			origin:      notes("PRIMARY"),
			destination: notes("LOBS"),
			want: []string{
				"ALTER TABLE [dbo].[Notes] DROP CONSTRAINT [PK_Notes]\nGO\n",
				"CREATE TABLE [dbo].[TempNotes]\n(\n\t[Id] int NOT NULL,\n\t[Body] varchar(max) NULL\n) TEXTIMAGE_ON [LOBS]\nGO\n",
				"INSERT INTO [dbo].[TempNotes] ([Id],[Body])\nSELECT [Id],[Body] FROM [dbo].[Notes]\nGO\n",
				"DROP TABLE [dbo].[Notes]\nGO\n",
				"EXEC sp_rename N'[dbo].[TempNotes]', N'Notes', 'OBJECT'\nGO\n",
				"ALTER TABLE [dbo].[Notes] ADD CONSTRAINT [PK_Notes] PRIMARY KEY CLUSTERED ([Id])\nGO\n",
			},
		},
		{
			name:        "nothing to copy",
			origin:      placed(newTable(t, "dbo", "Stamps", column("Id", "int", 0, false)), "PRIMARY", ""),
			destination: placed(newTable(t, "dbo", "Stamps", column("Note", "varchar", 10, true)), "ARCHIVE", ""),
			want:        []string{},
		},
		{
			name: "options are restored after the rename",
			origin: option(option(newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Code", "varchar", 50, false)),
				"text in row", "ON"), "large value types out of row", "0"),
			destination: option(option(newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Code", "int", 0, false)),
				"text in row", "ON"), "large value types out of row", "1"),
			want: concatStrings(
				[]string{
					"CREATE TABLE [dbo].[TempCustomers]\n(\n\t[Id] int NOT NULL,\n\t[Code] int NOT NULL\n)\nGO\n",
					"INSERT INTO [dbo].[TempCustomers] ([Id],[Code])\nSELECT [Id],[Code] FROM [dbo].[Customers]\nGO\n",
				},
				renameCustomers,
				[]string{
					"EXEC sp_tableoption N'[dbo].[Customers]', 'text in row', 'ON'\nGO\n",
					"EXEC sp_tableoption N'[dbo].[Customers]', 'large value types out of row', '0'\nGO\n",
					"EXEC sp_tableoption N'[dbo].[Customers]', 'large value types out of row', '1'\nGO\n",
				},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := diff(t, MSSQL(), nil, newDatabase(t, tt.origin), newDatabase(t, tt.destination))
			if d := cmp.Diff(tt.want, statements(list)); d != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDiffIdentical(t *testing.T) {
	for _, d := range []Dialect{MSSQL(), Postgres(), MySQL(), SQLite()} {
		t.Run(d.Name(), func(t *testing.T) {
			origin := newDatabase(t, customers(t, "varchar", 50), orders(t, true))
			destination := newDatabase(t, customers(t, "varchar", 50), orders(t, true))

			if list := diff(t, d, nil, origin, destination); len(list) != 0 {
				t.Errorf("Diff() of identical trees = %q, want nothing", list.SQL())
			}
		})
	}
}

func TestDiffDropTables(t *testing.T) {
	tests := []struct {
		name        string
		destination func() *schema.Database
		wantActions []Action
		wantTargets []string
	}{
		{
			name: "referenced table only",
			destination: func() *schema.Database {
				return newDatabase(t, orders(t, false))
			},
			wantActions: []Action{ActionDropConstraintFK, ActionDropTable},
			wantTargets: []string{"dbo.FK_Orders_Customers", "dbo.Customers"},
		},
		{
			name: "both tables",
			destination: func() *schema.Database {
				return newDatabase(t)
			},
			wantActions: []Action{ActionDropTable, ActionDropTable},
			wantTargets: []string{"dbo.Orders", "dbo.Customers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin := newDatabase(t, customers(t, "int", 0), orders(t, true))
			list := diff(t, MSSQL(), nil, origin, tt.destination())

			if d := cmp.Diff(tt.wantActions, list.Actions()); d != "" {
				t.Errorf("Actions() mismatch (-want +got):\n%s", d)
			}
			var targets []string
			for _, s := range list {
				targets = append(targets, s.Target)
			}
			if d := cmp.Diff(tt.wantTargets, targets); d != "" {
				t.Errorf("targets mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDiffCreateTables(t *testing.T) {
	origin := newDatabase(t)
	destination := newDatabase(t, orders(t, true), customers(t, "int", 0))

	list := diff(t, MSSQL(), nil, origin, destination)

	wantActions := []Action{ActionAddTable, ActionAddTable, ActionAddConstraintFK}
	if d := cmp.Diff(wantActions, list.Actions()); d != "" {
		t.Fatalf("Actions() mismatch (-want +got):\n%s", d)
	}
	if list[0].Target != "dbo.Customers" {
		t.Errorf("first created table = %s, want the referenced dbo.Customers", list[0].Target)
	}
	wantCreate := "CREATE TABLE [dbo].[Customers]\n(\n\t[Id] int NOT NULL,\n\t[Code] int NOT NULL,\n\tCONSTRAINT [PK_Customers] PRIMARY KEY CLUSTERED ([Id])\n)\nGO\n"
	if list[0].SQL != wantCreate {
		t.Errorf("CREATE TABLE =\n%s\nwant\n%s", list[0].SQL, wantCreate)
	}
}

func TestDiffAlterColumnWithIndex(t *testing.T) {
	build := func(size int) *schema.Database {
		tbl := newTable(t, "dbo", "Customers", column("Id", "int", 0, false), column("Email", "varchar", size, true))
		_ = tbl.Indexes.Add(&schema.Index{Meta: schema.Meta{Name: "IX_Customers_Email"}, Columns: []schema.IndexColumn{{Name: "Email"}}})
		return newDatabase(t, tbl)
	}

	list := diff(t, MSSQL(), nil, build(50), build(100))

	want := []string{
		"DROP INDEX [IX_Customers_Email] ON [dbo].[Customers]\nGO\n",
		"ALTER TABLE [dbo].[Customers] ALTER COLUMN [Email] varchar(100) NULL\nGO\n",
		"CREATE NONCLUSTERED INDEX [IX_Customers_Email] ON [dbo].[Customers] ([Email])\nGO\n",
	}
	if d := cmp.Diff(want, statements(list)); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffAddColumnWithDefault(t *testing.T) {
	flag := column("Flag", "int", 0, false)
	flag.Default = &schema.Default{Meta: schema.Meta{Name: "DF_Orders_Flag"}, Definition: "0"}

	origin := newDatabase(t, newTable(t, "dbo", "Orders", column("Id", "int", 0, false)))
	destination := newDatabase(t, newTable(t, "dbo", "Orders", column("Id", "int", 0, false), flag))

	list := diff(t, MSSQL(), nil, origin, destination)

	want := []string{"ALTER TABLE [dbo].[Orders] ADD [Flag] int NOT NULL CONSTRAINT [DF_Orders_Flag] DEFAULT 0\nGO\n"}
	if d := cmp.Diff(want, statements(list)); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffPostgresNotNull(t *testing.T) {
	origin := newDatabase(t, newTable(t, "public", "orders", column("note", "varchar", 10, true)))
	destination := newDatabase(t, newTable(t, "public", "orders", column("note", "varchar", 10, false)))

	list := diff(t, Postgres(), nil, origin, destination)

	want := []string{
		`UPDATE "public"."orders" SET "note" = '' WHERE "note" IS NULL;` + "\n",
		`ALTER TABLE "public"."orders" ALTER COLUMN "note" TYPE varchar(10);` + "\n",
		`ALTER TABLE "public"."orders" ALTER COLUMN "note" SET NOT NULL;` + "\n",
	}
	if d := cmp.Diff(want, statements(list)); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffSQLiteRebuildsOnNewColumn(t *testing.T) {
	origin := newDatabase(t, newTable(t, "", "orders", column("id", "integer", 0, false)))
	destination := newDatabase(t, newTable(t, "", "orders", column("id", "integer", 0, false), column("note", "text", 0, true)))

	list := diff(t, SQLite(), nil, origin, destination)

	want := []string{
		"CREATE TABLE \"Temporders\"\n(\n\t\"id\" integer NOT NULL,\n\t\"note\" text\n);\n",
		"INSERT INTO \"Temporders\" (\"id\")\nSELECT \"id\" FROM \"orders\";\n",
		"DROP TABLE \"orders\";\n",
		"ALTER TABLE \"Temporders\" RENAME TO \"orders\";\n",
	}
	if d := cmp.Diff(want, statements(list)); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffConfigGating(t *testing.T) {
	build := func(filter string) *schema.Database {
		tbl := newTable(t, "dbo", "Orders", column("Id", "int", 0, false), column("Qty", "int", 0, true))
		_ = tbl.Indexes.Add(&schema.Index{
			Meta:    schema.Meta{Name: "IX_Orders_Qty"},
			Columns: []schema.IndexColumn{{Name: "Qty"}},
			Filter:  filter,
		})
		return newDatabase(t, tbl)
	}

	t.Run("enabled", func(t *testing.T) {
		list := diff(t, MSSQL(), nil, build(""), build("[Qty] > 10"))
		want := []Action{ActionDropIndex, ActionAddIndex}
		if d := cmp.Diff(want, list.Actions()); d != "" {
			t.Errorf("Actions() mismatch (-want +got):\n%s", d)
		}
	})

	t.Run("indexes disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Indexes = false
		if list := diff(t, MSSQL(), cfg, build(""), build("[Qty] > 10")); len(list) != 0 {
			t.Errorf("Diff() = %q, want nothing", list.SQL())
		}
	})

	t.Run("tables disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Tables = false
		if list := diff(t, MSSQL(), cfg, newDatabase(t), build("")); len(list) != 0 {
			t.Errorf("Diff() = %q, want nothing", list.SQL())
		}
	})
}

func TestDiffConstraintToggle(t *testing.T) {
	build := func(disabled bool) *schema.Database {
		tbl := newTable(t, "dbo", "Orders", column("Qty", "int", 0, true))
		addConstraint(t, tbl, &schema.Constraint{
			Meta:       schema.Meta{Name: "CK_Orders_Qty", Owner: "dbo"},
			Kind:       schema.Check,
			Definition: "[Qty] > 0",
			IsDisabled: disabled,
		})
		return newDatabase(t, tbl)
	}

	tests := []struct {
		name string
		d    Dialect
		want []string
	}{
		{
			name: "mssql",
			d:    MSSQL(),
			want: []string{"ALTER TABLE [dbo].[Orders] NOCHECK CONSTRAINT [CK_Orders_Qty]\nGO\n"},
		},
		{
			name: "postgres has no toggles",
			d:    Postgres(),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := diff(t, tt.d, nil, build(false), build(true))
			if d := cmp.Diff(tt.want, statements(list)); d != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDiffRows(t *testing.T) {
	str := func(s string) *string { return &s }
	build := func(values ...string) *schema.Database {
		tbl := newTable(t, "dbo", "Status", column("Code", "varchar", 10, false))
		for _, v := range values {
			_ = tbl.Rows.Add(schema.NewRowData([]string{"Code"}, []*string{str(v)}))
		}
		return newDatabase(t, tbl)
	}

	list := diff(t, MSSQL(), nil, build("new", "open"), build("open", "it's closed"))

	want := []string{
		"DELETE TOP (1) FROM [dbo].[Status] WHERE [Code] = N'new'\nGO\n",
		"INSERT INTO [dbo].[Status] ([Code]) VALUES (N'it''s closed')\nGO\n",
	}
	if d := cmp.Diff(want, statements(list)); d != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", d)
	}
}

func TestDiffViewsAroundTables(t *testing.T) {
	build := func(viewText string, extra ...*schema.Table) *schema.Database {
		db := newDatabase(t, append([]*schema.Table{newTable(t, "dbo", "Orders", column("Id", "int", 0, false))}, extra...)...)
		_ = db.Views.Add(schema.NewView("dbo", "OrderIds", viewText))
		return db
	}

	list := diff(t, MSSQL(), nil,
		build("CREATE VIEW [dbo].[OrderIds] AS SELECT Id FROM dbo.Orders"),
		build("CREATE VIEW [dbo].[OrderIds] AS SELECT Id FROM dbo.Orders WHERE Id > 0",
			newTable(t, "dbo", "Fresh", column("Id", "int", 0, false))))

	wantActions := []Action{ActionDropView, ActionAddTable, ActionAlterView}
	if d := cmp.Diff(wantActions, list.Actions()); d != "" {
		t.Errorf("Actions() mismatch (-want +got):\n%s", d)
	}
	if got := list[0].SQL; got != "DROP VIEW [dbo].[OrderIds]\nGO\n" {
		t.Errorf("first statement = %q", got)
	}
}

func TestCreate(t *testing.T) {
	db := newDatabase(t, orders(t, true), customers(t, "int", 0))
	db.BuildDependency()

	list, err := New(Postgres(), nil).Create(db)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	wantActions := []Action{ActionAddTable, ActionAddTable, ActionAddConstraintFK}
	if d := cmp.Diff(wantActions, list.Actions()); d != "" {
		t.Errorf("Actions() mismatch (-want +got):\n%s", d)
	}
	if !strings.HasPrefix(list[0].SQL, `CREATE TABLE "dbo"."Customers"`) {
		t.Errorf("first statement = %q, want CREATE TABLE of Customers", list[0].SQL)
	}
	wantFK := `ALTER TABLE "dbo"."Orders" ADD CONSTRAINT "FK_Orders_Customers" FOREIGN KEY ("CustomerId") REFERENCES "dbo"."Customers" ("Id");` + "\n"
	if list[2].SQL != wantFK {
		t.Errorf("foreign key = %q, want %q", list[2].SQL, wantFK)
	}
}

func TestDiffInvalidInput(t *testing.T) {
	if _, err := New(nil, nil).Diff(nil); !errors.Is(err, schema.ErrInternal) {
		t.Errorf("Diff(nil) error = %v, want ErrInternal", err)
	}

	db := newDatabase(t, newTable(t, "dbo", "Orders", column("Id", "int", 0, false)))
	db.Tables.At(0).Status = schema.StatusCreate | schema.StatusDrop
	db.BuildDependency()
	if _, err := New(nil, nil).Diff(db); !errors.Is(err, schema.ErrInvalidStatus) {
		t.Errorf("Diff() error = %v, want ErrInvalidStatus", err)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "mssql", false},
		{"SQLServer", "mssql", false},
		{"postgresql", "postgres", false},
		{"mysql", "mysql", false},
		{"sqlite3", "sqlite", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Lookup(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("Lookup() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() unexpected error: %v", err)
			}
			if d.Name() != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.name, d.Name(), tt.want)
			}
		})
	}
}

func TestListFilter(t *testing.T) {
	var l List
	l.Add("DROP TABLE a", 0, ActionDropTable, "a")
	l.Add("  ", 0, ActionNone, "")
	l.Add("CREATE TABLE b", 0, ActionAddTable, "b")

	if len(l) != 2 {
		t.Fatalf("List has %d scripts, want 2", len(l))
	}
	drops := l.Filter(func(s Script) bool { return s.Action == ActionDropTable })
	if len(drops) != 1 || drops[0].Target != "a" {
		t.Errorf("Filter() = %+v, want the drop of a", drops)
	}
	if got := l.SQL(); got != "DROP TABLE aCREATE TABLE b" {
		t.Errorf("SQL() = %q", got)
	}
	if got := Action(999).String(); got != "Unknown" {
		t.Errorf("String() = %q, want Unknown", got)
	}
}

// concatStrings mirrors slices.Concat (Go 1.22+) for the Go 1.21 toolchain.
func concatStrings(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
