package schema

import (
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// RowData is one row of a table selected for data comparison. Rows have no
// identity of their own and are keyed by a hash of their values.
type RowData struct {
	Meta
	Columns []string  `json:"columns"`
	Values  []*string `json:"values"`

	// Seq disambiguates identical rows.
	Seq int `json:"seq,omitempty"`

	parent *Table
}

// NewRowData builds a row. A nil value is SQL NULL.
func NewRowData(columns []string, values []*string) *RowData {
	r := &RowData{Columns: columns, Values: values}
	r.Name = r.Fingerprint()
	return r
}

// Fingerprint is the blake3 hash of the canonical row text.
func (r *RowData) Fingerprint() string {
	h := blake3.New()
	for i, v := range r.Values {
		if i > 0 {
			_, _ = h.Write([]byte{0x1f})
		}
		if v == nil {
			_, _ = h.Write([]byte{0x00})
			continue
		}
		_, _ = h.Write([]byte{0x01})
		_, _ = h.Write([]byte(*v))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (r *RowData) FullName() string {
	if r.Seq > 0 {
		return "Row: " + r.Name + "#" + strconv.Itoa(r.Seq)
	}
	return "Row: " + r.Name
}

func (r *RowData) Type() ObjectType { return TypeRowData }
func (r *RowData) children() []Node { return nil }
func (r *RowData) link()            {}

func (r *RowData) Parent() Node {
	if r.parent == nil {
		return nil
	}
	return r.parent
}

// Table returns the table the row belongs to.
func (r *RowData) Table() *Table { return r.parent }

func (r *RowData) root() *Database { return r.parent.root() }

func (r *RowData) setParent(t *Table) { r.parent = t }

func (r *RowData) Clone(parent *Table) *RowData {
	c := *r
	c.Columns = slices.Clone(r.Columns)
	c.Values = slices.Clone(r.Values)
	c.parent = parent
	return &c
}

// Value returns the value of the named column and whether it is non-null.
func (r *RowData) Value(column string) (string, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, column) && i < len(r.Values) && r.Values[i] != nil {
			return *r.Values[i], true
		}
	}
	return "", false
}
