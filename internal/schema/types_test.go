package schema

import "testing"

func TestCanAlterInPlace(t *testing.T) {
	tests := []struct {
		name string
		from Column
		to   Column
		want bool
	}{
		{
			name: "widen varchar",
			from: Column{DataType: "varchar", Size: 50},
			to:   Column{DataType: "varchar", Size: 100},
			want: true,
		},
		{
			name: "narrow varchar",
			from: Column{DataType: "varchar", Size: 100},
			to:   Column{DataType: "varchar", Size: 50},
			want: false,
		},
		{
			name: "varchar to max",
			from: Column{DataType: "varchar", Size: 50},
			to:   Column{DataType: "varchar", Size: MaxSize},
			want: true,
		},
		{
			name: "max to varchar",
			from: Column{DataType: "nvarchar", Size: MaxSize},
			to:   Column{DataType: "nvarchar", Size: 4000},
			want: false,
		},
		{
			name: "varchar to int",
			from: Column{DataType: "varchar", Size: 50},
			to:   Column{DataType: "int"},
			want: false,
		},
		{
			name: "unicode to ansi",
			from: Column{DataType: "nvarchar", Size: 50},
			to:   Column{DataType: "varchar", Size: 50},
			want: false,
		},
		{
			name: "ansi to unicode",
			from: Column{DataType: "varchar", Size: 50},
			to:   Column{DataType: "nvarchar", Size: 50},
			want: true,
		},
		{
			name: "int to bigint",
			from: Column{DataType: "int"},
			to:   Column{DataType: "BIGINT"},
			want: true,
		},
		{
			name: "bigint to smallint",
			from: Column{DataType: "bigint"},
			to:   Column{DataType: "smallint"},
			want: false,
		},
		{
			name: "decimal gains scale",
			from: Column{DataType: "decimal", Precision: 10, Scale: 2},
			to:   Column{DataType: "decimal", Precision: 12, Scale: 4},
			want: true,
		},
		{
			name: "decimal loses integer digits",
			from: Column{DataType: "decimal", Precision: 10, Scale: 2},
			to:   Column{DataType: "decimal", Precision: 10, Scale: 4},
			want: false,
		},
		{
			name: "identity added",
			from: Column{DataType: "int"},
			to:   Column{DataType: "int", Identity: true},
			want: false,
		},
		{
			name: "formula changed",
			from: Column{DataType: "int", Computed: true, Formula: "a+b"},
			to:   Column{DataType: "int", Computed: true, Formula: "a*b"},
			want: false,
		},
		{
			name: "xml to text",
			from: Column{DataType: "xml"},
			to:   Column{DataType: "text"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAlterInPlace(&tt.from, &tt.to); got != tt.want {
				t.Errorf("CanAlterInPlace() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		dataType string
		want     TypeFamily
	}{
		{"int", FamilyInteger},
		{"Numeric(10,2)", FamilyDecimal},
		{"character varying", FamilyString},
		{"bytea", FamilyBinary},
		{"timestamptz", FamilyDateTime},
		{"uuid", FamilyGUID},
		{"jsonb", FamilyLOB},
		{"geometry", FamilyOther},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			if got := FamilyOf(tt.dataType); got != tt.want {
				t.Errorf("FamilyOf(%q) = %v, want %v", tt.dataType, got, tt.want)
			}
		})
	}
}

func TestRowDataFingerprint(t *testing.T) {
	str := func(s string) *string { return &s }
	cols := []string{"id", "name"}

	a := NewRowData(cols, []*string{str("1"), str("ann")})
	b := NewRowData(cols, []*string{str("1"), str("ann")})
	if a.Name != b.Name {
		t.Errorf("equal rows have different fingerprints %s and %s", a.Name, b.Name)
	}

	distinct := [][]*string{
		{str("1"), str("bob")},
		{str("1"), nil},
		{str("1"), str("")},
		{str("1a"), str("nn")},
	}
	seen := map[string]bool{a.Name: true}
	for _, values := range distinct {
		r := NewRowData(cols, values)
		if seen[r.Name] {
			t.Errorf("row %v shares a fingerprint with an earlier row", values)
		}
		seen[r.Name] = true
	}

	if v, ok := a.Value("NAME"); !ok || v != "ann" {
		t.Errorf("Value(NAME) = %q, %v, want ann, true", v, ok)
	}
	if _, ok := NewRowData(cols, []*string{str("1"), nil}).Value("name"); ok {
		t.Error("Value() reported a NULL as present")
	}

	b.Seq = 2
	if a.FullName() == b.FullName() {
		t.Error("numbered duplicate has the same full name as the first row")
	}
}
