package codec

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/coded"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/endian"
	"github.com/arloliu/bitrec/ucode"
)

const (
	// StatsHeaderSize is the fixed size of the stats file header.
	StatsHeaderSize = 16
	// StatsVersion is the current stats file version.
	StatsVersion = 1
	// MaxStatsColumns is the largest column count the header can record.
	MaxStatsColumns = math.MaxUint16

	statsMagic = "BRST"

	// flag bits
	flagBigEndian = 0x01
	flagReserved  = 0xFE
)

// StatsHeader is the fixed-size header of a stats file.
//
//	offset 0-3   magic "BRST"
//	offset 4     version
//	offset 5     flags, bit 0 set means big-endian fields
//	offset 6-7   column count
//	offset 8-15  plan fingerprint
type StatsHeader struct {
	Version     uint8
	Flags       uint8
	Columns     uint16
	Fingerprint uint64
}

// NewStatsHeader creates a little-endian header for plan. Plans with more than
// MaxStatsColumns columns are rejected.
func NewStatsHeader(plan *Plan) (StatsHeader, error) {
	if plan.Len() > MaxStatsColumns {
		return StatsHeader{}, fmt.Errorf("%d columns exceed the stats header limit of %d: %w",
			plan.Len(), MaxStatsColumns, errs.ErrInvalidPlan)
	}

	return StatsHeader{
		Version:     StatsVersion,
		Columns:     uint16(plan.Len()),
		Fingerprint: plan.Fingerprint(),
	}, nil
}

// IsBigEndian reports the byte order of the multi-byte fields.
func (h StatsHeader) IsBigEndian() bool { return h.Flags&flagBigEndian != 0 }

// WithBigEndian switches the header to big-endian fields.
func (h *StatsHeader) WithBigEndian() { h.Flags |= flagBigEndian }

func (h StatsHeader) engine() endian.EndianEngine {
	if h.IsBigEndian() {
		return endian.Big()
	}

	return endian.Little()
}

// Bytes serialises the header.
func (h StatsHeader) Bytes() []byte {
	buf := make([]byte, 0, StatsHeaderSize)
	buf = append(buf, statsMagic...)
	buf = append(buf, h.Version, h.Flags)
	engine := h.engine()
	buf = engine.AppendUint16(buf, h.Columns)
	buf = engine.AppendUint64(buf, h.Fingerprint)

	return buf
}

// Parse decodes and validates a header.
func (h *StatsHeader) Parse(data []byte) error {
	if len(data) != StatsHeaderSize {
		return errs.ErrInvalidHeader
	}
	if string(data[:4]) != statsMagic {
		return errs.ErrInvalidMagic
	}

	h.Version = data[4]
	h.Flags = data[5]
	if h.Version != StatsVersion {
		return fmt.Errorf("stats version %d: %w", h.Version, errs.ErrInvalidVersion)
	}
	if h.Flags&flagReserved != 0 {
		return fmt.Errorf("stats flags %#x: %w", h.Flags, errs.ErrInvalidHeader)
	}

	engine := h.engine()
	h.Columns = engine.Uint16(data[6:8])
	h.Fingerprint = engine.Uint64(data[8:16])

	return nil
}

// Summary is the aggregate of one encode pass.
type Summary struct {
	Records    uint64
	TotalBits  uint64
	ColumnBits []uint64
}

// Bytes returns the data size rounded up to whole bytes.
func (s Summary) Bytes() uint64 { return (s.TotalBits + 7) / 8 }

// counters are written as a unary bit length followed by that many value bits.
var lengthCode = ucode.NewUnary(ucode.OneExtended)

func writeCounter(cw *coded.Writer, w bitio.BitWriter, v uint64) error {
	n := bits.Len64(v)
	if err := cw.WriteUint64(uint64(n)); err != nil {
		return err
	}

	return w.WriteBits(v, n)
}

func readCounter(cr *coded.Reader, r bitio.BitReader) (uint64, error) {
	n, err := cr.ReadUint64()
	if err != nil {
		return 0, err
	}
	if n > 64 {
		return 0, errs.Domain("readCounter", n, "counter wider than 64 bits")
	}

	return r.ReadBits(int(n))
}

func writeSummary(w bitio.BitWriter, s Summary) error {
	cw := coded.NewWriter(w, lengthCode)
	if err := writeCounter(cw, w, s.Records); err != nil {
		return err
	}
	if err := writeCounter(cw, w, s.TotalBits); err != nil {
		return err
	}
	for _, b := range s.ColumnBits {
		if err := writeCounter(cw, w, b); err != nil {
			return err
		}
	}

	return nil
}

func readSummary(r bitio.BitReader, columns int) (Summary, error) {
	cr := coded.NewReader(r, lengthCode)

	var s Summary
	var err error
	if s.Records, err = readCounter(cr, r); err != nil {
		return Summary{}, err
	}
	if s.TotalBits, err = readCounter(cr, r); err != nil {
		return Summary{}, err
	}
	s.ColumnBits = make([]uint64, columns)
	for i := range s.ColumnBits {
		if s.ColumnBits[i], err = readCounter(cr, r); err != nil {
			return Summary{}, err
		}
	}

	return s, nil
}

// WriteStatsFile writes header and summary to path.
func WriteStatsFile(path string, h StatsHeader, s Summary, opts ...bitio.FileOption) (err error) {
	if len(s.ColumnBits) != int(h.Columns) {
		return fmt.Errorf("%d column counters for %d columns: %w", len(s.ColumnBits), h.Columns, errs.ErrStatsMismatch)
	}

	fw, err := bitio.CreateFile(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, b := range h.Bytes() {
		if err := fw.WriteBits(uint64(b), 8); err != nil {
			return err
		}
	}
	if err := writeSummary(fw, s); err != nil {
		return err
	}

	return fw.Flush(0)
}

// ReadStatsFile reads a file written by WriteStatsFile.
func ReadStatsFile(path string) (StatsHeader, Summary, error) {
	fr, err := bitio.OpenFile(path)
	if err != nil {
		return StatsHeader{}, Summary{}, err
	}
	defer fr.Close()

	raw := make([]byte, StatsHeaderSize)
	for i := range raw {
		b, err := fr.ReadBits(8)
		if err != nil {
			if errors.Is(err, errs.ErrEndOfStream) {
				return StatsHeader{}, Summary{}, errs.ErrInvalidHeader
			}

			return StatsHeader{}, Summary{}, err
		}
		raw[i] = byte(b)
	}

	var h StatsHeader
	if err := h.Parse(raw); err != nil {
		return StatsHeader{}, Summary{}, err
	}

	s, err := readSummary(fr, int(h.Columns))
	if err != nil {
		return StatsHeader{}, Summary{}, fmt.Errorf("stats body: %w", err)
	}

	return h, s, nil
}

// ValidateStatsFile reads path and checks it was written for plan.
func ValidateStatsFile(path string, plan *Plan) (Summary, error) {
	h, s, err := ReadStatsFile(path)
	if err != nil {
		return Summary{}, err
	}
	if int(h.Columns) != plan.Len() || h.Fingerprint != plan.Fingerprint() {
		return Summary{}, errs.ErrStatsMismatch
	}

	return s, nil
}
