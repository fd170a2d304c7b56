package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// shopDatabase builds dbo.Customers and dbo.Orders, the latter holding a
// foreign key to the former.
func shopDatabase(t *testing.T) *Database {
	t.Helper()

	db := NewDatabase("shop")

	customers := NewTable("dbo", "Customers")
	mustAdd(t, customers.Columns, &Column{Meta: Meta{Name: "Id"}, DataType: "int"})
	mustAdd(t, customers.Columns, &Column{Meta: Meta{Name: "Email"}, DataType: "varchar", Size: 50, Nullable: true})
	mustAdd(t, customers.Constraints, &Constraint{
		Meta:    Meta{Name: "PK_Customers", Owner: "dbo"},
		Kind:    PrimaryKey,
		Columns: []ConstraintColumn{{Name: "Id"}},
	})
	mustAdd(t, customers.Indexes, &Index{Meta: Meta{Name: "IX_Customers_Email"}, Columns: []IndexColumn{{Name: "Email"}}})

	orders := NewTable("dbo", "Orders")
	mustAdd(t, orders.Columns, &Column{Meta: Meta{Name: "Id"}, DataType: "int"})
	mustAdd(t, orders.Columns, &Column{Meta: Meta{Name: "CustomerId"}, DataType: "int"})
	mustAdd(t, orders.Constraints, &Constraint{
		Meta:     Meta{Name: "FK_Orders_Customers", Owner: "dbo"},
		Kind:     ForeignKey,
		Columns:  []ConstraintColumn{{Name: "CustomerId", RefName: "Id"}},
		RefTable: "dbo.Customers",
	})

	mustAdd(t, db.Tables, customers)
	mustAdd(t, db.Tables, orders)
	return db
}

func mustAdd[T Element[T, P], P Node](t *testing.T, c *Collection[T, P], item T) {
	t.Helper()
	if err := c.Add(item); err != nil {
		t.Fatalf("Add(%s) unexpected error: %v", item.FullName(), err)
	}
}

func TestCollectionCaseInsensitive(t *testing.T) {
	db := shopDatabase(t)

	tbl, ok := db.Tables.Get("DBO.customers")
	if !ok {
		t.Fatal("Get(DBO.customers) found nothing")
	}
	if tbl.Name != "Customers" {
		t.Errorf("Get() returned %s", tbl.FullName())
	}
	if !tbl.Columns.Has("EMAIL") {
		t.Error("Has(EMAIL) = false, want true")
	}

	err := db.Tables.Add(NewTable("DBO", "CUSTOMERS"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Add(duplicate) error = %v, want ErrDuplicate", err)
	}
	if db.Tables.Len() != 2 {
		t.Errorf("Len() = %d after rejected add, want 2", db.Tables.Len())
	}
}

func TestCollectionSet(t *testing.T) {
	db := shopDatabase(t)
	tbl, _ := db.Tables.Get("dbo.Orders")

	replacement := &Column{Meta: Meta{Name: "customerid"}, DataType: "bigint"}
	if err := tbl.Columns.Set(replacement); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	got, _ := tbl.Columns.Get("CustomerId")
	if got != replacement {
		t.Error("Get() after Set() did not return the replacement")
	}
	if got.Table() != tbl {
		t.Error("replacement column is not attached to the table")
	}
	if tbl.Columns.At(1) != replacement {
		t.Error("Set() changed the position of the column")
	}

	err := tbl.Columns.Set(&Column{Meta: Meta{Name: "Missing"}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Set(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegistry(t *testing.T) {
	db := shopDatabase(t)
	entries := db.AllObjects().Entries()

	// 2 tables, 4 columns, 2 constraints, 1 index
	if len(entries) != 9 {
		t.Fatalf("Entries() returned %d entries, want 9", len(entries))
	}
	seen := make(map[int]bool)
	for _, e := range entries {
		if e.ID >= 0 {
			t.Errorf("%s %s has id %d, want a synthetic negative id", e.Type, e.FullName, e.ID)
		}
		if seen[e.ID] {
			t.Errorf("id %d assigned twice", e.ID)
		}
		seen[e.ID] = true
		if e.Node().Metadata().ID != e.ID {
			t.Errorf("entry %d points at a node with id %d", e.ID, e.Node().Metadata().ID)
		}
	}

	n, err := db.Find("dbo.fk_orders_customers")
	if err != nil {
		t.Fatalf("Find() unexpected error: %v", err)
	}
	if n.Type() != TypeConstraint {
		t.Errorf("Find() returned a %s, want a constraint", n.Type())
	}
	if _, err := db.FindByID(n.Metadata().ID); err != nil {
		t.Errorf("FindByID() unexpected error: %v", err)
	}
	if _, err := db.Find("dbo.IX_Customers_Email"); err == nil {
		t.Error("Find() resolved an index without its table prefix")
	}
	if _, err := db.Find("dbo.Customers.IX_Customers_Email"); err != nil {
		t.Errorf("Find(index) unexpected error: %v", err)
	}
	if _, err := db.FindTable("dbo.Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindTable(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTableClone(t *testing.T) {
	db := shopDatabase(t)
	orders, _ := db.Tables.Get("dbo.Orders")
	orders.Columns.At(1).SetDefault(&Default{Meta: Meta{Name: "DF_Orders_CustomerId"}, Definition: "0"})

	clone := orders.Clone(nil)
	if clone == orders {
		t.Fatal("Clone() returned the same table")
	}
	if clone.Database() != nil {
		t.Error("Clone(nil) kept the database parent")
	}

	col := clone.Columns.At(1)
	if col.Table() != clone {
		t.Error("cloned column does not point at the clone")
	}
	if col.Default == orders.Columns.At(1).Default || col.Default.Column() != col {
		t.Error("cloned default is shared with the source")
	}

	fk := clone.ForeignKeys()[0]
	fk.Columns[0].RefName = "Other"
	if orders.ForeignKeys()[0].Columns[0].RefName != "Id" {
		t.Error("changing the clone changed the source constraint")
	}
	if diff := cmp.Diff(orders.GUID, clone.GUID); diff != "" {
		t.Errorf("Clone() GUID mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	db := shopDatabase(t)
	if err := db.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	orders, _ := db.Tables.Get("dbo.Orders")
	orders.Constraints.At(0).Columns = append(orders.Constraints.At(0).Columns, ConstraintColumn{Name: "Ghost"})
	mustAdd(t, db.Tables, NewTable("dbo", "Empty"))

	err := db.Validate()
	if err == nil {
		t.Fatal("Validate() returned no error")
	}
	for _, want := range []string{"table dbo.Empty has no columns", "references unknown column dbo.Orders.Ghost"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %q", err, want)
		}
	}
}

func TestBuildDependency(t *testing.T) {
	db := shopDatabase(t)
	db.BuildDependency()

	customers, _ := db.Tables.Get("dbo.Customers")
	orders, _ := db.Tables.Get("dbo.Orders")

	if got := customers.DependenciesCount(); got != 1 {
		t.Errorf("Customers.DependenciesCount() = %d, want 1", got)
	}
	if got := orders.DependenciesCount(); got != 0 {
		t.Errorf("Orders.DependenciesCount() = %d, want 0", got)
	}

	id, _ := customers.Columns.Get("Id")
	deps := db.Dependencies().FindColumn(customers.ID, id.ID)
	var names []string
	for _, n := range deps {
		names = append(names, n.FullName())
	}
	want := []string{"dbo.PK_Customers", "dbo.FK_Orders_Customers"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("FindColumn(Customers.Id) mismatch (-want +got):\n%s", diff)
	}
}

func TestHasDependents(t *testing.T) {
	db := shopDatabase(t)
	customers, _ := db.Tables.Get("dbo.Customers")
	orders, _ := db.Tables.Get("dbo.Orders")

	tests := []struct {
		name string
		col  *Column
		want bool
	}{
		{"primary key column", customers.Columns.At(0), true},
		{"indexed column", customers.Columns.At(1), true},
		{"foreign key column", orders.Columns.At(1), true},
		{"plain column", orders.Columns.At(0), false},
		{"detached column", &Column{Meta: Meta{Name: "Id"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasDependents(tt.col); got != tt.want {
				t.Errorf("HasDependents() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortTables(t *testing.T) {
	db := shopDatabase(t)
	mustAdd(t, db.Tables, newStatusTable("Archive", StatusDrop))
	mustAdd(t, db.Tables, newStatusTable("Audit", StatusAlter))
	customers, _ := db.Tables.Get("dbo.Customers")
	orders, _ := db.Tables.Get("dbo.Orders")
	orders.Status = StatusCreate
	customers.Status = StatusCreate
	db.BuildDependency()

	var got []string
	for _, tbl := range SortTables(db) {
		got = append(got, tbl.FullName())
	}
	want := []string{"dbo.Archive", "dbo.Customers", "dbo.Orders", "dbo.Audit"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortTables() mismatch (-want +got):\n%s", diff)
	}
}

func newStatusTable(name string, s Status) *Table {
	tbl := NewTable("dbo", name)
	_ = tbl.Columns.Add(&Column{Meta: Meta{Name: "Id"}, DataType: "int"})
	tbl.Status = s
	return tbl
}

func TestRootOf(t *testing.T) {
	db := shopDatabase(t)
	customers, _ := db.Tables.Get("dbo.Customers")
	email, _ := customers.Columns.Get("Email")
	email.SetDefault(&Default{Meta: Meta{Name: "DF_Customers_Email"}, Definition: "''"})
	view := NewView("dbo", "ActiveCustomers", "CREATE VIEW dbo.ActiveCustomers AS SELECT Id FROM dbo.Customers")
	mustAdd(t, db.Views, view)

	tests := []struct {
		name string
		node Node
		want *Database
	}{
		{"database", db, db},
		{"table", customers, db},
		{"column", email, db},
		{"default", email.Default, db},
		{"index", customers.Indexes.At(0), db},
		{"constraint", customers.Constraints.At(0), db},
		{"view", view, db},
		{"detached table", NewTable("dbo", "Loose"), nil},
		{"detached column", &Column{Meta: Meta{Name: "Id"}}, nil},
		{"detached index", &Index{Meta: Meta{Name: "IX_Loose"}}, nil},
		{"cloned table", customers.Clone(nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rootOf(tt.node); got != tt.want {
				t.Errorf("rootOf(%s) = %p, want %p", tt.node.FullName(), got, tt.want)
			}
		})
	}
}
