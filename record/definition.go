// Package record defines immutable record layouts and the order-preserving mapping of
// column values onto unsigned ordinals used by statistics and codes.
//
// A Record is a []any holding, per column, an int64, uint64, float64, bool, string or
// []byte; nil is null and only allowed in nullable columns.
package record

import (
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/bitrec/errs"
)

// Record is one row of values in column order.
type Record = []any

// Column describes one field of a record.
type Column struct {
	Name     string            `json:"name"`
	Type     Type              `json:"type"`
	Nullable bool              `json:"nullable,omitempty"`
	Order    SortOrder         `json:"order"`
	Props    map[string]string `json:"props,omitempty"`
}

func (c Column) clone() Column {
	c.Props = maps.Clone(c.Props)
	return c
}

// Definition is an immutable ordered list of columns. Derived definitions from Restrict
// and Reorder are new values; the source is never modified.
type Definition struct {
	columns []Column
	index   map[string]int
}

// NewDefinition validates columns and builds a definition from copies of them.
func NewDefinition(columns ...Column) (*Definition, error) {
	d := &Definition{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name: %w", i, errs.ErrInvalidDefinition)
		}
		if !c.Type.Valid() {
			return nil, fmt.Errorf("column %q type %d: %w", c.Name, c.Type, errs.ErrInvalidDefinition)
		}
		if c.Order.Direction > Descending || c.Order.Nulls > NullsLast {
			return nil, fmt.Errorf("column %q order %v: %w", c.Name, c.Order, errs.ErrInvalidDefinition)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("column %q: %w", c.Name, errs.ErrDuplicateColumn)
		}
		d.index[c.Name] = i
		d.columns[i] = c.clone()
	}

	return d, nil
}

// Len returns the number of columns.
func (d *Definition) Len() int { return len(d.columns) }

// Column returns a copy of column i.
func (d *Definition) Column(i int) Column { return d.columns[i].clone() }

// Columns returns copies of all columns.
func (d *Definition) Columns() []Column {
	out := make([]Column, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.clone()
	}

	return out
}

// Names returns the column names in order.
func (d *Definition) Names() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}

	return out
}

// Index returns the position of the named column.
func (d *Definition) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Restrict returns a definition holding only the named columns, in the given order.
func (d *Definition) Restrict(names ...string) (*Definition, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		i, ok := d.index[name]
		if !ok {
			return nil, fmt.Errorf("restrict %q: %w", name, errs.ErrUnknownColumn)
		}
		cols = append(cols, d.columns[i])
	}

	return NewDefinition(cols...)
}

// Reorder returns a definition with the same columns in the given order. names must be a
// permutation of the column names.
func (d *Definition) Reorder(names ...string) (*Definition, error) {
	if len(names) != len(d.columns) {
		return nil, fmt.Errorf("reorder with %d of %d columns: %w", len(names), len(d.columns), errs.ErrInvalidDefinition)
	}

	return d.Restrict(names...)
}

// Equal reports whether both definitions have identical columns.
func (d *Definition) Equal(other *Definition) bool {
	if other == nil || len(d.columns) != len(other.columns) {
		return false
	}

	return slices.EqualFunc(d.columns, other.columns, func(a, b Column) bool {
		return a.Name == b.Name && a.Type == b.Type && a.Nullable == b.Nullable &&
			a.Order == b.Order && maps.Equal(a.Props, b.Props)
	})
}

// Project maps rec, laid out by src, onto d. Every column of d must exist in src.
func (d *Definition) Project(src *Definition, rec Record) (Record, error) {
	if len(rec) != src.Len() {
		return nil, fmt.Errorf("record has %d fields, want %d: %w", len(rec), src.Len(), errs.ErrRecordShape)
	}

	out := make(Record, len(d.columns))
	for i, c := range d.columns {
		j, ok := src.index[c.Name]
		if !ok {
			return nil, fmt.Errorf("project %q: %w", c.Name, errs.ErrUnknownColumn)
		}
		out[i] = rec[j]
	}

	return out, nil
}

// Validate checks the shape of rec: field count, Go types and nulls.
func (d *Definition) Validate(rec Record) error {
	if len(rec) != len(d.columns) {
		return fmt.Errorf("record has %d fields, want %d: %w", len(rec), len(d.columns), errs.ErrRecordShape)
	}

	for i, c := range d.columns {
		if err := c.check(rec[i]); err != nil {
			return err
		}
	}

	return nil
}

func (c Column) check(v any) error {
	if v == nil {
		if c.Nullable {
			return nil
		}

		return fmt.Errorf("column %q is not nullable: %w", c.Name, errs.ErrRecordShape)
	}

	var ok bool
	switch c.Type {
	case TypeInt64:
		_, ok = v.(int64)
	case TypeUint64:
		_, ok = v.(uint64)
	case TypeFloat64:
		_, ok = v.(float64)
	case TypeBool:
		_, ok = v.(bool)
	case TypeString:
		_, ok = v.(string)
	case TypeBytes:
		_, ok = v.([]byte)
	}
	if !ok {
		return fmt.Errorf("column %q wants %s, got %T: %w", c.Name, c.Type, v, errs.ErrRecordShape)
	}

	return nil
}
