package config

import (
	"fmt"
	"regexp"
)

// DefaultMaxRowsToDiff is the row limit above which a table's data is not
// compared.
const DefaultMaxRowsToDiff = 1000

// Diffs selects which object categories are compared and emitted.
type Diffs struct {
	Tables           bool `json:"tables"`
	Views            bool `json:"views"`
	StoredProcedures bool `json:"stored_procedures"`
	Functions        bool `json:"functions"`
	Synonyms         bool `json:"synonyms"`
	Schemas          bool `json:"schemas"`
	Roles            bool `json:"roles"`
	Users            bool `json:"users"`
	FileGroups       bool `json:"file_groups"`
	UserDataTypes    bool `json:"user_data_types"`

	// Within tables
	Columns      bool `json:"columns"`
	Constraints  bool `json:"constraints"`
	Indexes      bool `json:"indexes"`
	TableOptions bool `json:"table_options"`
	Triggers     bool `json:"triggers"`

	// DataInTables holds regular expressions; the rows of every table whose
	// full name matches one of them are compared too.
	DataInTables []string `json:"data_in_tables"`

	// MaxRowsToDiff skips the data comparison of larger tables.
	MaxRowsToDiff int `json:"max_rows_to_diff"`

	patterns []*regexp.Regexp
}

// Default compares every category and no data.
func Default() *Diffs {
	return &Diffs{
		Tables:           true,
		Views:            true,
		StoredProcedures: true,
		Functions:        true,
		Synonyms:         true,
		Schemas:          true,
		Roles:            true,
		Users:            true,
		FileGroups:       true,
		UserDataTypes:    true,
		Columns:          true,
		Constraints:      true,
		Indexes:          true,
		TableOptions:     true,
		Triggers:         true,
		MaxRowsToDiff:    DefaultMaxRowsToDiff,
	}
}

// Compile validates the data_in_tables patterns.
func (d *Diffs) Compile() error {
	d.patterns = d.patterns[:0]
	for _, p := range d.DataInTables {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid data_in_tables pattern %q: %w", p, err)
		}
		d.patterns = append(d.patterns, re)
	}
	if d.MaxRowsToDiff <= 0 {
		d.MaxRowsToDiff = DefaultMaxRowsToDiff
	}
	return nil
}

// ShouldDiffTableRows reports whether the rows of the table are compared.
func (d *Diffs) ShouldDiffTableRows(fullName string) bool {
	if len(d.patterns) != len(d.DataInTables) {
		if err := d.Compile(); err != nil {
			return false
		}
	}
	for _, re := range d.patterns {
		if re.MatchString(fullName) {
			return true
		}
	}
	return false
}
