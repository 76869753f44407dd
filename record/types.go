package record

import (
	"fmt"
	"strings"
)

// Type is the scalar type of a column.
type Type uint8

const (
	TypeInt64   Type = 0x1 // TypeInt64 holds int64 values.
	TypeUint64  Type = 0x2 // TypeUint64 holds uint64 values.
	TypeFloat64 Type = 0x3 // TypeFloat64 holds float64 values.
	TypeBool    Type = 0x4 // TypeBool holds bool values.
	TypeString  Type = 0x5 // TypeString holds string values.
	TypeBytes   Type = 0x6 // TypeBytes holds []byte values.
)

var allTypes = []Type{TypeInt64, TypeUint64, TypeFloat64, TypeBool, TypeString, TypeBytes}

func (t Type) String() string {
	switch t {
	case TypeInt64:
		return "Int64"
	case TypeUint64:
		return "Uint64"
	case TypeFloat64:
		return "Float64"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	case TypeBytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return t >= TypeInt64 && t <= TypeBytes }

// Variable reports whether values of t carry a length and a payload.
func (t Type) Variable() bool { return t == TypeString || t == TypeBytes }

// MarshalText renders the type by name.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown column type %d", uint8(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText parses a type name, case-insensitively.
func (t *Type) UnmarshalText(text []byte) error {
	for _, c := range allTypes {
		if strings.EqualFold(c.String(), string(text)) {
			*t = c
			return nil
		}
	}

	return fmt.Errorf("unknown column type %q", text)
}

// Direction is a column sort direction. The zero value means unsorted.
type Direction uint8

const (
	Unsorted   Direction = 0x0
	Ascending  Direction = 0x1
	Descending Direction = 0x2
)

func (d Direction) String() string {
	switch d {
	case Unsorted:
		return "Unsorted"
	case Ascending:
		return "Ascending"
	case Descending:
		return "Descending"
	default:
		return "Unknown"
	}
}

// Nulls places null values relative to non-null ones.
type Nulls uint8

const (
	NullsFirst Nulls = 0x0
	NullsLast  Nulls = 0x1
)

func (n Nulls) String() string {
	if n == NullsLast {
		return "NullsLast"
	}

	return "NullsFirst"
}

// SortOrder is the ordering of a column.
type SortOrder struct {
	Direction Direction `json:"direction"`
	Nulls     Nulls     `json:"nulls"`
}
