package record

import (
	"fmt"

	"github.com/arloliu/bitrec/errs"
)

// Builder assembles a Definition column by column:
//
//	def, err := record.NewBuilder().
//		Column("id").Type(record.TypeUint64).Ascending().
//		Column("name").Type(record.TypeString).Nullable().
//		Build()
//
// A column is complete once it has a type. Build fails with errs.ErrIncompleteColumn when
// any started column, including the last one, has none.
type Builder struct {
	columns []Column
	typed   []bool
	err     error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Column starts a new column.
func (b *Builder) Column(name string) *Builder {
	if b.err == nil && len(b.typed) > 0 && !b.typed[len(b.typed)-1] {
		b.err = fmt.Errorf("column %q has no type: %w", b.columns[len(b.columns)-1].Name, errs.ErrIncompleteColumn)
	}
	b.columns = append(b.columns, Column{Name: name})
	b.typed = append(b.typed, false)

	return b
}

func (b *Builder) current(op string) *Column {
	if len(b.columns) == 0 {
		if b.err == nil {
			b.err = fmt.Errorf("%s before Column: %w", op, errs.ErrInvalidDefinition)
		}

		return nil
	}

	return &b.columns[len(b.columns)-1]
}

// Type sets the type of the current column.
func (b *Builder) Type(t Type) *Builder {
	if c := b.current("Type"); c != nil {
		c.Type = t
		b.typed[len(b.typed)-1] = true
	}

	return b
}

// Nullable allows nulls in the current column.
func (b *Builder) Nullable() *Builder {
	if c := b.current("Nullable"); c != nil {
		c.Nullable = true
	}

	return b
}

// Ascending sorts the current column ascending.
func (b *Builder) Ascending() *Builder {
	if c := b.current("Ascending"); c != nil {
		c.Order.Direction = Ascending
	}

	return b
}

// Descending sorts the current column descending.
func (b *Builder) Descending() *Builder {
	if c := b.current("Descending"); c != nil {
		c.Order.Direction = Descending
	}

	return b
}

// NullsLast places nulls after non-null values in the current column.
func (b *Builder) NullsLast() *Builder {
	if c := b.current("NullsLast"); c != nil {
		c.Order.Nulls = NullsLast
	}

	return b
}

// Prop sets a free-form property on the current column.
func (b *Builder) Prop(key, value string) *Builder {
	if c := b.current("Prop"); c != nil {
		if c.Props == nil {
			c.Props = make(map[string]string)
		}
		c.Props[key] = value
	}

	return b
}

// Build returns the definition or the first error recorded while building.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if n := len(b.typed); n > 0 && !b.typed[n-1] {
		return nil, fmt.Errorf("column %q has no type: %w", b.columns[n-1].Name, errs.ErrIncompleteColumn)
	}

	return NewDefinition(b.columns...)
}
