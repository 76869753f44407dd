package hashing

import (
	"fmt"

	"github.com/arloliu/bitrec/record"
)

// Encoder writes the salient fields of a T to a Hasher.
type Encoder[T any] func(h *Hasher, v T)

// Uint64Encoder hashes a uint64.
func Uint64Encoder(h *Hasher, v uint64) { h.Uint64(v) }

// Int64Encoder hashes an int64.
func Int64Encoder(h *Hasher, v int64) { h.Int64(v) }

// Float64Encoder hashes a float64.
func Float64Encoder(h *Hasher, v float64) { h.Float64(v) }

// StringEncoder hashes a string.
func StringEncoder(h *Hasher, v string) { h.String(v) }

// BytesEncoder hashes a byte slice.
func BytesEncoder(h *Hasher, v []byte) { h.Bytes(v) }

// RecordEncoder hashes every field of a record in column order. Each field is tagged
// with its type so that nulls and values of different types never collide.
func RecordEncoder(h *Hasher, rec record.Record) {
	h.Uint64(uint64(len(rec)))
	for _, v := range rec {
		switch x := v.(type) {
		case nil:
			h.buf = append(h.buf, tagNull)
		case int64:
			h.buf = append(h.buf, tagInt64)
			h.Int64(x)
		case uint64:
			h.buf = append(h.buf, tagUint64)
			h.Uint64(x)
		case float64:
			h.buf = append(h.buf, tagFloat64)
			h.Float64(x)
		case bool:
			h.buf = append(h.buf, tagBool)
			h.Bool(x)
		case string:
			h.buf = append(h.buf, tagString)
			h.String(x)
		case []byte:
			h.buf = append(h.buf, tagBytes)
			h.Bytes(x)
		default:
			// records are validated against a definition before they get here
			h.buf = append(h.buf, tagString)
			h.String(fmt.Sprint(x))
		}
	}
}
