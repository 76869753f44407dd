package record

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/ucode"
)

const signBit = uint64(1) << 63

// Ordinal maps a non-null value of type t onto a uint64 preserving numeric order.
// Strings and byte slices map to their length.
func Ordinal(t Type, v any) (uint64, error) {
	switch t {
	case TypeInt64:
		if x, ok := v.(int64); ok {
			return uint64(x) ^ signBit, nil
		}
	case TypeUint64:
		if x, ok := v.(uint64); ok {
			return x, nil
		}
	case TypeFloat64:
		if x, ok := v.(float64); ok {
			return ucode.SortableFloat(x), nil
		}
	case TypeBool:
		if x, ok := v.(bool); ok {
			if x {
				return 1, nil
			}

			return 0, nil
		}
	case TypeString:
		if x, ok := v.(string); ok {
			return uint64(len(x)), nil
		}
	case TypeBytes:
		if x, ok := v.([]byte); ok {
			return uint64(len(x)), nil
		}
	}

	return 0, fmt.Errorf("ordinal of %T as %s: %w", v, t, errs.ErrRecordShape)
}

// FromOrdinal inverts Ordinal for fixed-size types.
func FromOrdinal(t Type, o uint64) (any, error) {
	switch t {
	case TypeInt64:
		return int64(o ^ signBit), nil
	case TypeUint64:
		return o, nil
	case TypeFloat64:
		return ucode.UnsortableFloat(o), nil
	case TypeBool:
		if o > 1 {
			return nil, errs.Domain("FromOrdinal", o, "bool ordinal above 1")
		}

		return o == 1, nil
	default:
		return nil, fmt.Errorf("no value from ordinal for %s: %w", t, errs.ErrRecordShape)
	}
}

// Compare orders a and b by the sorted columns of d, in column order. Unsorted columns
// are ignored. Both records must be valid for d.
func (d *Definition) Compare(a, b Record) int {
	for i, c := range d.columns {
		if c.Order.Direction == Unsorted {
			continue
		}
		if r := c.compare(a[i], b[i]); r != 0 {
			return r
		}
	}

	return 0
}

func (c Column) compare(x, y any) int {
	switch {
	case x == nil && y == nil:
		return 0
	case x == nil:
		if c.Order.Nulls == NullsFirst {
			return -1
		}

		return 1
	case y == nil:
		if c.Order.Nulls == NullsFirst {
			return 1
		}

		return -1
	}

	r := compareValues(c.Type, x, y)
	if c.Order.Direction == Descending {
		return -r
	}

	return r
}

func compareValues(t Type, x, y any) int {
	switch t {
	case TypeString:
		return strings.Compare(x.(string), y.(string))
	case TypeBytes:
		return bytes.Compare(x.([]byte), y.([]byte))
	default:
		ox, _ := Ordinal(t, x)
		oy, _ := Ordinal(t, y)

		return cmp.Compare(ox, oy)
	}
}
