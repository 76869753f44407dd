package stats

import (
	"slices"

	"github.com/arloliu/bitrec/record"
)

// Table holds the statistics of every column of a definition.
type Table struct {
	def     *record.Definition
	records uint64
	columns []ColumnStats
}

// Definition returns the definition the table describes.
func (t *Table) Definition() *record.Definition { return t.def }

// Records returns the number of records seen.
func (t *Table) Records() uint64 { return t.records }

// Len returns the number of columns.
func (t *Table) Len() int { return len(t.columns) }

// Column returns the statistics of column i.
func (t *Table) Column(i int) ColumnStats { return t.columns[i] }

// Lookup returns the statistics of the named column.
func (t *Table) Lookup(name string) (ColumnStats, bool) {
	i, ok := t.def.Index(name)
	if !ok {
		return ColumnStats{}, false
	}

	return t.columns[i], true
}

// Columns returns a copy of all column statistics.
func (t *Table) Columns() []ColumnStats { return slices.Clone(t.columns) }
