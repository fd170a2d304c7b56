package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemadiff/internal/rowdiff"
	"github.com/tordrt/schemadiff/internal/schema"
	"github.com/tordrt/schemadiff/internal/sqlgen"
)

// Report is everything a diff run produced.
type Report struct {
	Origin      string
	Destination string
	Database    *schema.Database
	Script      sqlgen.List
	Messages    []rowdiff.Message
}

// MarkdownFormatter formats a diff report as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the summary, the changed tables and objects, and the
// row diff warnings.
func (f *MarkdownFormatter) Format(r *Report) error {
	_, _ = fmt.Fprintln(f.writer, "# Schema Diff")
	_, _ = fmt.Fprintln(f.writer)
	if r.Origin != "" || r.Destination != "" {
		_, _ = fmt.Fprintf(f.writer, "- **From:** %s\n- **To:** %s\n\n", r.Origin, r.Destination)
	}

	f.formatSummary(r.Script)
	if r.Database != nil {
		f.formatTables(r.Database)
		f.formatObjects(r.Database)
	}
	f.formatMessages(r.Messages)
	return nil
}

func (f *MarkdownFormatter) formatSummary(list sqlgen.List) {
	_, _ = fmt.Fprintln(f.writer, "## Summary")
	_, _ = fmt.Fprintln(f.writer)
	if len(list) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No differences found.")
		_, _ = fmt.Fprintln(f.writer)
		return
	}

	counts := make(map[sqlgen.Action]int)
	var order []sqlgen.Action
	for _, a := range list.Actions() {
		if counts[a] == 0 {
			order = append(order, a)
		}
		counts[a]++
	}

	_, _ = fmt.Fprintln(f.writer, "| Action | Statements |")
	_, _ = fmt.Fprintln(f.writer, "|--------|------------|")
	for _, a := range order {
		_, _ = fmt.Fprintf(f.writer, "| %s | %d |\n", a, counts[a])
	}
	_, _ = fmt.Fprintln(f.writer)
}

// FormatTable writes the changed members of one table (exported for use by
// the multifile formatter)
func (f *MarkdownFormatter) FormatTable(t *schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "### %s (%s)\n\n", t.FullName(), t.Status)

	for _, c := range t.Columns.Items() {
		if !c.Status.IsOriginal() {
			_, _ = fmt.Fprintf(f.writer, "- column **%s** %s: %s\n", c.Name, typeLabel(c), c.Status)
		}
		if d := c.Default; d != nil && !d.Status.IsOriginal() {
			_, _ = fmt.Fprintf(f.writer, "- default **%s** on %s: %s\n", d.Name, c.Name, d.Status)
		}
	}
	for _, c := range t.Constraints.Items() {
		if !c.Status.IsOriginal() {
			_, _ = fmt.Fprintf(f.writer, "- %s **%s**: %s\n", strings.ToLower(c.Kind.String()), c.Name, c.Status)
		}
	}
	for _, idx := range t.Indexes.Items() {
		if !idx.Status.IsOriginal() {
			_, _ = fmt.Fprintf(f.writer, "- index **%s**: %s\n", idx.Name, idx.Status)
		}
	}
	for _, tr := range t.Triggers.Items() {
		if !tr.Status.IsOriginal() {
			_, _ = fmt.Fprintf(f.writer, "- trigger **%s**: %s\n", tr.Name, tr.Status)
		}
	}
	for _, o := range t.Options.Items() {
		if !o.Status.IsOriginal() {
			_, _ = fmt.Fprintf(f.writer, "- option **%s** = %s: %s\n", o.Name, o.Value, o.Status)
		}
	}

	var inserted, deleted int
	for _, row := range t.Rows.Items() {
		switch {
		case row.Status.IsCreate():
			inserted++
		case row.Status.IsDrop():
			deleted++
		}
	}
	if inserted+deleted > 0 {
		_, _ = fmt.Fprintf(f.writer, "- rows: %d inserted, %d deleted\n", inserted, deleted)
	}
	_, _ = fmt.Fprintln(f.writer)
}

func typeLabel(c *schema.Column) string {
	var b strings.Builder
	b.WriteString(c.DataType)
	switch {
	case c.Size == schema.MaxSize:
		b.WriteString("(max)")
	case c.Size > 0:
		fmt.Fprintf(&b, "(%d)", c.Size)
	case c.Precision > 0:
		fmt.Fprintf(&b, "(%d,%d)", c.Precision, c.Scale)
	}
	if !c.Nullable {
		b.WriteString(" not null")
	}
	return b.String()
}

// changedTables returns the tables in script order that differ from the
// origin.
func changedTables(db *schema.Database) []*schema.Table {
	var out []*schema.Table
	for _, t := range schema.SortTables(db) {
		if !t.Status.IsOriginal() || t.HasChanges() {
			out = append(out, t)
		}
	}
	return out
}

func (f *MarkdownFormatter) formatTables(db *schema.Database) {
	tables := changedTables(db)
	if len(tables) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "## Tables")
	_, _ = fmt.Fprintln(f.writer)
	for _, t := range tables {
		f.FormatTable(t)
	}
}

type objectChange struct {
	kind   string
	name   string
	status schema.Status
}

func changedObjects(db *schema.Database) []objectChange {
	var out []objectChange
	add := func(kind string, m *schema.Meta, fullName string) {
		if !m.Status.IsOriginal() {
			out = append(out, objectChange{kind, fullName, m.Status})
		}
	}
	for _, v := range db.Views.Items() {
		add("view", v.Metadata(), v.FullName())
	}
	for _, r := range db.Functions.Items() {
		add("function", r.Metadata(), r.FullName())
	}
	for _, r := range db.Procedures.Items() {
		add("procedure", r.Metadata(), r.FullName())
	}
	for _, s := range db.Synonyms.Items() {
		add("synonym", s.Metadata(), s.FullName())
	}
	for _, n := range db.Schemas.Items() {
		add("schema", n.Metadata(), n.FullName())
	}
	for _, r := range db.Roles.Items() {
		add("role", r.Metadata(), r.FullName())
	}
	for _, u := range db.Users.Items() {
		add("user", u.Metadata(), u.FullName())
	}
	for _, ut := range db.UserTypes.Items() {
		add("type", ut.Metadata(), ut.FullName())
	}
	for _, fg := range db.FileGroups.Items() {
		add("file group", fg.Metadata(), fg.FullName())
	}
	return out
}

func (f *MarkdownFormatter) formatObjects(db *schema.Database) {
	objects := changedObjects(db)
	if len(objects) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "## Objects")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "| Kind | Name | Status |")
	_, _ = fmt.Fprintln(f.writer, "|------|------|--------|")
	for _, o := range objects {
		_, _ = fmt.Fprintf(f.writer, "| %s | %s | %s |\n", o.kind, o.name, o.status)
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatMessages(messages []rowdiff.Message) {
	if len(messages) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "## Messages")
	_, _ = fmt.Fprintln(f.writer)
	for _, m := range messages {
		_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", m.Level, m.Text)
	}
	_, _ = fmt.Fprintln(f.writer)
}
