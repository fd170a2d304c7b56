// Package rowdiff loads table rows for data comparison.
package rowdiff

import (
	"context"
	"fmt"

	"github.com/tordrt/schemadiff/internal/config"
	"github.com/tordrt/schemadiff/internal/schema"
)

// RowSource reads table data from one side of the comparison.
type RowSource interface {
	// Rows returns at most limit rows of t.
	Rows(ctx context.Context, t *schema.Table, limit int) ([]*schema.RowData, error)
}

// Level is the severity of a Message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "info"
}

// Message reports a table whose data was not compared.
type Message struct {
	Level Level
	Table string
	Text  string
}

// Loader fills the Rows collection of the tables selected by
// Config.DataInTables on both sides of a comparison.
type Loader struct {
	Config      *config.Diffs
	Origin      RowSource
	Destination RowSource
}

// Load reads the rows of every selected table. A table with more rows than
// Config.MaxRowsToDiff on either side is skipped on both sides with a
// warning.
func (l *Loader) Load(ctx context.Context, origin, destination *schema.Database) ([]Message, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = config.Default()
	}
	limit := cfg.MaxRowsToDiff
	if limit <= 0 {
		limit = config.DefaultMaxRowsToDiff
	}

	var msgs []Message
	for _, name := range selectedTables(cfg, origin, destination) {
		if err := ctx.Err(); err != nil {
			return msgs, err
		}
		from, err := readRows(ctx, l.Origin, origin, name, limit)
		if err != nil {
			return msgs, err
		}
		to, err := readRows(ctx, l.Destination, destination, name, limit)
		if err != nil {
			return msgs, err
		}
		if len(from) > limit || len(to) > limit {
			msgs = append(msgs, Message{
				Level: LevelWarning,
				Table: name,
				Text:  fmt.Sprintf("Table %s: too many rows to diff", name),
			})
			continue
		}
		if err := attach(origin, name, from); err != nil {
			return msgs, err
		}
		if err := attach(destination, name, to); err != nil {
			return msgs, err
		}
	}
	return msgs, nil
}

// selectedTables returns the names of matching tables of either side, in
// origin order followed by destination-only tables.
func selectedTables(cfg *config.Diffs, dbs ...*schema.Database) []string {
	seen := make(map[string]bool)
	var out []string
	for _, db := range dbs {
		if db == nil {
			continue
		}
		for _, t := range db.Tables.Items() {
			key := t.FullName()
			if seen[key] || !cfg.ShouldDiffTableRows(key) {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// readRows fetches one row past limit so that overflow can be detected.
func readRows(ctx context.Context, src RowSource, db *schema.Database, name string, limit int) ([]*schema.RowData, error) {
	if src == nil || db == nil {
		return nil, nil
	}
	t, ok := db.Tables.Get(name)
	if !ok {
		return nil, nil
	}
	rows, err := src.Rows(ctx, t, limit+1)
	if err != nil {
		return nil, schema.WrapError("load rows", fmt.Errorf("failed to read rows of %s: %w", name, err))
	}
	return rows, nil
}

// attach adds rows to the table, numbering duplicates so that every row
// has a distinct key.
func attach(db *schema.Database, name string, rows []*schema.RowData) error {
	if db == nil || len(rows) == 0 {
		return nil
	}
	t, ok := db.Tables.Get(name)
	if !ok {
		return nil
	}
	seq := make(map[string]int)
	for _, r := range rows {
		r.Seq = seq[r.Name]
		seq[r.Name]++
		if err := t.Rows.Add(r); err != nil {
			return fmt.Errorf("failed to add row to %s: %w", name, err)
		}
	}
	return nil
}
