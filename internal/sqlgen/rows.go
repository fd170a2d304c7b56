package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// rows emits the row changes of t: deletes first, then inserts. With all
// set every live row is inserted, as for a new table.
func (e *emitter) rows(t *schema.Table, w int, all bool) {
	for _, r := range t.Rows.Items() {
		if r.Status.IsDrop() && !all {
			e.emit(e.deleteRowSQL(t, r), w, ActionDeleteRow, t.FullName())
		}
	}
	for _, r := range t.Rows.Items() {
		if r.Status.IsCreate() || (all && !r.Status.IsDrop()) {
			e.emit(e.insertRowSQL(t, r), w, ActionInsertRow, t.FullName())
		}
	}
}

func (e *emitter) rowValue(v *string) string {
	if v == nil {
		return "NULL"
	}
	return e.d.Literal(*v)
}

func (e *emitter) insertRowSQL(t *schema.Table, r *schema.RowData) string {
	cols := make([]string, len(r.Columns))
	vals := make([]string, len(r.Columns))
	identity := false
	for i, name := range r.Columns {
		cols[i] = e.d.Quote(name)
		if i < len(r.Values) {
			vals[i] = e.rowValue(r.Values[i])
		} else {
			vals[i] = "NULL"
		}
		if c, ok := t.Columns.Get(name); ok && c.Identity {
			identity = true
		}
	}
	name := e.tableName(t)
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(cols, ","), strings.Join(vals, ","))
	if identity && e.f.IdentityInsert {
		sql = fmt.Sprintf("SET IDENTITY_INSERT %s ON\n%s\nSET IDENTITY_INSERT %s OFF", name, sql, name)
	}
	return sql
}

// deleteRowSQL removes a single row matching every value of r, so that one
// of several identical rows is kept.
func (e *emitter) deleteRowSQL(t *schema.Table, r *schema.RowData) string {
	conds := make([]string, 0, len(r.Columns))
	for i, name := range r.Columns {
		var v *string
		if i < len(r.Values) {
			v = r.Values[i]
		}
		if v == nil {
			conds = append(conds, e.d.Quote(name)+" IS NULL")
			continue
		}
		conds = append(conds, e.d.Quote(name)+" = "+e.d.Literal(*v))
	}
	return e.d.DeleteOneRow(e.tableName(t), strings.Join(conds, " AND "))
}
