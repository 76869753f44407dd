package codec

import (
	"errors"
	"fmt"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/options"
	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
)

// ErrUnknownCount is returned when a Reader has neither a stats file nor an explicit
// record count.
var ErrUnknownCount = errors.New("record count unknown")

// ReaderConfig holds Reader settings.
type ReaderConfig struct {
	RecordCount uint64
	HasCount    bool
	// Data replaces the data file with an in-memory stream when InMemory is set.
	Data     []byte
	InMemory bool
}

// ReaderOption configures a Reader.
type ReaderOption = options.Option[*ReaderConfig]

// WithRecordCount sets the number of records to decode instead of reading it from the
// stats file.
func WithRecordCount(n uint64) ReaderOption {
	return options.NoError(func(cfg *ReaderConfig) {
		cfg.RecordCount = n
		cfg.HasCount = true
	})
}

// WithData decodes from data instead of Context.DataPath.
func WithData(data []byte) ReaderOption {
	return options.NoError(func(cfg *ReaderConfig) {
		cfg.Data = data
		cfg.InMemory = true
	})
}

// Reader decodes records written with the same Plan.
type Reader struct {
	plan   *Plan
	cfg    ReaderConfig
	coders []columnCoder

	state State
	ctx   *pipeline.Context
	log   *pipeline.Logger
	count uint64
	open  *sequence
}

var (
	_ pipeline.Producer = (*Reader)(nil)
	_ pipeline.Aborter  = (*Reader)(nil)
)

// NewReader creates a decoder for plan.
func NewReader(plan *Plan, opts ...ReaderOption) (*Reader, error) {
	if plan == nil {
		return nil, fmt.Errorf("nil plan: %w", errs.ErrInvalidPlan)
	}

	var cfg ReaderConfig
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Reader{
		plan:   plan,
		cfg:    cfg,
		coders: newColumnCoders(plan),
		log:    pipeline.NoopLogger(),
	}, nil
}

// State returns the current lifecycle state.
func (r *Reader) State() State { return r.state }

// Count returns the number of records each sequence yields. It is valid after Prepare.
func (r *Reader) Count() uint64 { return r.count }

// Prepare resolves the record count and checks that a data source exists.
func (r *Reader) Prepare(ctx *pipeline.Context) error {
	if r.state != StateNew && r.state != StateComplete {
		return r.misuse("Reader.Prepare")
	}

	r.ctx = ctx
	r.log = ctx.Log().WithJob("decode")

	if !r.cfg.InMemory && (ctx == nil || ctx.DataPath == "") {
		return r.fail(fmt.Errorf("no data source: %w", errs.ErrInvalidPlan))
	}

	switch {
	case r.cfg.HasCount:
		r.count = r.cfg.RecordCount
	case ctx != nil && ctx.StatsPath != "":
		s, err := ValidateStatsFile(ctx.StatsPath, r.plan)
		if err != nil {
			return r.fail(err)
		}
		r.count = s.Records
	default:
		return r.fail(ErrUnknownCount)
	}

	r.state = StatePrepared

	return nil
}

// Open starts a pass over the data. Only one sequence may be open at a time.
func (r *Reader) Open() (pipeline.Sequence, error) {
	if r.state != StatePrepared {
		return nil, r.misuse("Reader.Open")
	}

	seq := &sequence{owner: r, left: r.count}
	if r.cfg.InMemory {
		seq.src = bitio.NewByteReader(r.cfg.Data)
	} else {
		fr, err := bitio.OpenFile(r.ctx.DataPath)
		if err != nil {
			return nil, r.fail(err)
		}
		seq.src, seq.file = fr, fr
	}
	r.open = seq
	r.state = StateInPass
	r.log.Debug("decode pass started", "records", r.count)

	return seq, nil
}

// Complete ends the job. Every sequence must be closed first.
func (r *Reader) Complete() error {
	if r.state != StatePrepared {
		return r.misuse("Reader.Complete")
	}
	r.state = StateComplete

	return nil
}

// Abort closes an open sequence and moves the reader to StateAborted. It does nothing
// after Complete.
func (r *Reader) Abort() error {
	if r.state == StateComplete || r.state == StateAborted {
		return nil
	}
	r.state = StateAborted
	if r.open != nil {
		return r.open.release()
	}

	return nil
}

func (r *Reader) misuse(op string) error {
	return r.fail(errs.State(op, r.state))
}

// fail moves the reader to StateFailed and closes an open sequence.
func (r *Reader) fail(err error) error {
	r.state = StateFailed
	if r.open != nil {
		if cerr := r.open.release(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}

	return err
}

type sequence struct {
	owner  *Reader
	src    bitio.BitReader
	file   *bitio.FileReader
	left   uint64
	closed bool
}

func (s *sequence) HasNext() bool { return !s.closed && s.left > 0 }

func (s *sequence) Next() (record.Record, error) {
	if s.closed || s.owner.state != StateInPass {
		return nil, errs.State("Sequence.Next", s.owner.state)
	}
	if s.left == 0 {
		return nil, errs.ErrEndOfStream
	}

	rec := make(record.Record, len(s.owner.coders))
	for i := range s.owner.coders {
		v, err := s.owner.coders[i].read(s.src)
		if err != nil {
			return nil, s.owner.fail(fmt.Errorf("record %d column %q: %w", s.owner.count-s.left, s.owner.coders[i].col.Name, err))
		}
		rec[i] = v
	}
	s.left--

	return rec, nil
}

// Close releases the file mapping. It returns the Reader to StatePrepared unless the
// job failed.
func (s *sequence) Close() error {
	if s.closed {
		return nil
	}
	if s.owner.state == StateInPass {
		s.owner.state = StatePrepared
	}

	return s.release()
}

func (s *sequence) release() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owner.open == s {
		s.owner.open = nil
	}
	if s.file == nil {
		return nil
	}

	return s.file.Close()
}
