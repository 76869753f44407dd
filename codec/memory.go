package codec

import (
	"fmt"

	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
)

// EncodeRecords encodes recs in memory. The returned bytes are padded with zero bits.
func EncodeRecords(plan *Plan, recs []record.Record, opts ...WriterOption) ([]byte, Summary, error) {
	w, err := NewWriter(plan, opts...)
	if err != nil {
		return nil, Summary{}, err
	}

	if err := pipeline.Run(nil, &pipeline.SliceProducer{Records: recs}, w); err != nil {
		return nil, Summary{}, err
	}

	out := append([]byte(nil), w.Bytes()...)
	w.mem.Release()
	w.mem = nil

	return out, w.Summary(), nil
}

// DecodeRecords decodes count records from data.
func DecodeRecords(plan *Plan, data []byte, count uint64) ([]record.Record, error) {
	r, err := NewReader(plan, WithData(data), WithRecordCount(count))
	if err != nil {
		return nil, err
	}
	if err := r.Prepare(nil); err != nil {
		return nil, err
	}

	seq, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer seq.Close()

	out := make([]record.Record, 0, count)
	for seq.HasNext() {
		rec, err := seq.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := seq.Close(); err != nil {
		return nil, err
	}

	return out, r.Complete()
}

// RecordBits returns the number of bits rec occupies in a stream encoded with p.
func (p *Plan) RecordBits(rec record.Record) (uint64, error) {
	if err := p.def.Validate(rec); err != nil {
		return 0, fmt.Errorf("record bits: %w", err)
	}

	coders := newColumnCoders(p)
	var n uint64
	for i := range coders {
		n += coders[i].bitLength(rec[i])
	}

	return n, nil
}
