package codec

import (
	"fmt"
	"math"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/ucode"
)

// maxPayload bounds the length of a decoded string or byte value.
const maxPayload = math.MaxInt32

var payloadCode = ucode.Extend(mustFixed(8))

func mustFixed(width uint8) ucode.Fixed {
	f, err := ucode.NewFixed(width)
	if err != nil {
		panic(err)
	}

	return f
}

// columnCoder writes and reads the symbols of one column.
type columnCoder struct {
	col      record.Column
	code     ucode.Code
	offset   uint64
	limit    uint64
	reserved uint64
}

func newColumnCoders(p *Plan) []columnCoder {
	out := make([]columnCoder, p.Len())
	for i := range out {
		cp := p.Column(i)
		out[i] = columnCoder{
			col:      p.Definition().Column(i),
			code:     p.Code(i),
			offset:   cp.Offset,
			limit:    cp.Limit,
			reserved: cp.Reserved,
		}
	}

	return out
}

func (c *columnCoder) escape() uint64 { return c.reserved - 1 }

// symbol maps an ordinal to its value symbol, or reports that it must be escaped.
func (c *columnCoder) symbol(o uint64) (uint64, bool) {
	if o < c.offset || o-c.offset > c.limit {
		return 0, false
	}

	return c.reserved + o - c.offset, true
}

func (c *columnCoder) write(w bitio.BitWriter, v any) error {
	if v == nil {
		if !c.col.Nullable {
			return fmt.Errorf("null in column %q: %w", c.col.Name, errs.ErrRecordShape)
		}
		_, err := c.code.Encode(w, 0)

		return err
	}

	o, err := record.Ordinal(c.col.Type, v)
	if err != nil {
		return err
	}

	if sym, ok := c.symbol(o); ok {
		if _, err := c.code.Encode(w, sym); err != nil {
			return err
		}
	} else {
		if _, err := c.code.Encode(w, c.escape()); err != nil {
			return err
		}
		if err := w.WriteBits(o, 64); err != nil {
			return err
		}
	}

	switch x := v.(type) {
	case string:
		_, err = payloadCode.EncodeString(w, x)
	case []byte:
		_, err = payloadCode.EncodeBytes(w, x)
	}

	return err
}

func (c *columnCoder) read(r bitio.BitReader) (any, error) {
	sym, err := c.code.Decode(r)
	if err != nil {
		return nil, err
	}

	var o uint64
	switch {
	case c.col.Nullable && sym == 0:
		return nil, nil
	case sym == c.escape():
		if o, err = r.ReadBits(64); err != nil {
			return nil, err
		}
	default:
		if sym-c.reserved > c.limit {
			return nil, errs.Domain("codec.read", sym, "symbol above column limit")
		}
		o = sym - c.reserved + c.offset
	}

	switch c.col.Type {
	case record.TypeString, record.TypeBytes:
		if o > maxPayload {
			return nil, errs.Domain("codec.read", o, "payload length too large")
		}
		if c.col.Type == record.TypeString {
			return payloadCode.DecodeString(r, int(o))
		}

		return payloadCode.DecodeBytes(r, int(o))
	default:
		return record.FromOrdinal(c.col.Type, o)
	}
}

// bitLength returns the bits write would emit for v, assuming v is valid for the column.
func (c *columnCoder) bitLength(v any) uint64 {
	if v == nil {
		return c.code.BitLength(0)
	}

	o, _ := record.Ordinal(c.col.Type, v)
	var n uint64
	if sym, ok := c.symbol(o); ok {
		n = c.code.BitLength(sym)
	} else {
		n = c.code.BitLength(c.escape()) + 64
	}

	switch c.col.Type {
	case record.TypeString, record.TypeBytes:
		n += 8 * o
	}

	return n
}
