package schema

import (
	"cmp"
	"slices"
)

// statusRank orders statuses for emission: drops, creates, alters, then
// untouched objects.
func statusRank(s Status) int {
	switch {
	case s.IsDrop():
		return 0
	case s.IsCreate():
		return 1
	case s.IsAlterFamily():
		return 2
	}
	return 3
}

// CompareTables orders two tables for emission. Tables compare by status
// first and then by dependency weight: drops run from the least referenced
// table up, creates from the most referenced table down.
func CompareTables(a, b *Table) int {
	if r := cmp.Compare(statusRank(a.Status), statusRank(b.Status)); r != 0 {
		return r
	}
	wa, wb := a.DependenciesCount(), b.DependenciesCount()
	if a.Status.IsCreate() {
		return cmp.Compare(wb, wa)
	}
	return cmp.Compare(wa, wb)
}

// SortTables returns the tables of db in emission order. Ties keep
// collection order.
func SortTables(db *Database) []*Table {
	tables := slices.Clone(db.Tables.Items())
	slices.SortStableFunc(tables, CompareTables)
	return tables
}
