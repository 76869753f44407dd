package codec

import (
	"errors"
	"fmt"
	"os"

	"github.com/arloliu/bitrec/bitio"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/options"
	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
)

// WriterConfig holds Writer settings.
type WriterConfig struct {
	// PadBit fills the last partial byte of the data stream.
	PadBit uint8
	// BigEndianStats writes stats header fields big-endian.
	BigEndianStats bool
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithPadBit sets the bit used to pad the final byte.
func WithPadBit(bit uint8) WriterOption {
	return options.New(func(cfg *WriterConfig) error {
		if bit > 1 {
			return errs.Domain("WithPadBit", bit, "bit must be 0 or 1")
		}
		cfg.PadBit = bit

		return nil
	})
}

// WithBigEndianStats writes the stats header in big-endian order.
func WithBigEndianStats() WriterOption {
	return options.NoError(func(cfg *WriterConfig) {
		cfg.BigEndianStats = true
	})
}

// Writer encodes records with a Plan. It writes to Context.DataPath when set and to an
// in-memory buffer otherwise.
type Writer struct {
	plan   *Plan
	cfg    WriterConfig
	coders []columnCoder

	state   State
	ctx     *pipeline.Context
	log     *pipeline.Logger
	passes  int
	file    *bitio.FileWriter
	mem     *bitio.ByteWriter
	sink    bitio.BitWriter
	summary Summary
}

var (
	_ pipeline.Consumer = (*Writer)(nil)
	_ pipeline.Aborter  = (*Writer)(nil)
)

// NewWriter creates an encoder for plan.
func NewWriter(plan *Plan, opts ...WriterOption) (*Writer, error) {
	if plan == nil {
		return nil, fmt.Errorf("nil plan: %w", errs.ErrInvalidPlan)
	}

	var cfg WriterConfig
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Writer{
		plan:   plan,
		cfg:    cfg,
		coders: newColumnCoders(plan),
		log:    pipeline.NoopLogger(),
	}, nil
}

// State returns the current lifecycle state.
func (w *Writer) State() State { return w.state }

// Summary returns the counters of the last pass, or those loaded from a valid stats file.
func (w *Writer) Summary() Summary {
	s := w.summary
	s.ColumnBits = append([]uint64(nil), s.ColumnBits...)

	return s
}

// Bytes returns the in-memory stream of the last pass. It is nil for file output.
func (w *Writer) Bytes() []byte {
	if w.mem == nil {
		return nil
	}

	return w.mem.Bytes()
}

// Prepare binds the writer to ctx. When ctx names a data file and a stats file that
// validates against the plan, and Clean is false, no pass is required.
func (w *Writer) Prepare(ctx *pipeline.Context) error {
	if w.state != StateNew && w.state != StateComplete {
		return w.misuse("Writer.Prepare")
	}

	w.ctx = ctx
	w.log = ctx.Log().WithJob("encode")
	w.passes = 1
	w.summary = Summary{ColumnBits: make([]uint64, w.plan.Len())}

	if ctx != nil && ctx.StatsPath != "" {
		if _, err := NewStatsHeader(w.plan); err != nil {
			return w.fail(err)
		}
	}

	if ctx != nil && !ctx.Clean && ctx.DataPath != "" && ctx.StatsPath != "" {
		if s, ok := w.upToDate(ctx); ok {
			w.passes = 0
			w.summary = s
			w.log.Info("encoded data up to date", "path", ctx.DataPath, "records", s.Records)
		}
	}

	if w.passes > 0 && ctx != nil && ctx.PlanPath != "" {
		if err := w.plan.Save(ctx.PlanPath); err != nil {
			return w.fail(err)
		}
	}
	w.state = StatePrepared

	return nil
}

func (w *Writer) upToDate(ctx *pipeline.Context) (Summary, bool) {
	s, err := ValidateStatsFile(ctx.StatsPath, w.plan)
	if err != nil {
		w.log.Debug("stats file not reusable", "path", ctx.StatsPath, "error", err)
		return Summary{}, false
	}

	info, err := os.Stat(ctx.DataPath)
	if err != nil || uint64(info.Size()) != s.Bytes() {
		return Summary{}, false
	}

	return s, true
}

// RequiredPasses returns 1, or 0 when existing output is current.
func (w *Writer) RequiredPasses() int { return w.passes }

// BeginPass opens the output stream.
func (w *Writer) BeginPass(pass int) error {
	if w.state != StatePrepared {
		return w.misuse("Writer.BeginPass")
	}

	w.summary = Summary{ColumnBits: make([]uint64, w.plan.Len())}
	if w.ctx != nil && w.ctx.DataPath != "" {
		fw, err := bitio.CreateFile(w.ctx.DataPath, bitio.WithBufferSize(w.ctx.Buffer()))
		if err != nil {
			return w.fail(err)
		}
		w.file, w.sink = fw, fw
	} else {
		if w.mem != nil {
			w.mem.Release()
		}
		w.mem = bitio.NewByteWriter()
		w.sink = w.mem
	}
	w.state = StateInPass
	w.log.Debug("encode pass started", "pass", pass)

	return nil
}

// Consume encodes one record.
func (w *Writer) Consume(rec record.Record) error {
	if w.state != StateInPass {
		return w.misuse("Writer.Consume")
	}
	if err := w.plan.def.Validate(rec); err != nil {
		return w.fail(err)
	}

	for i := range w.coders {
		start := w.sink.Position()
		if err := w.coders[i].write(w.sink, rec[i]); err != nil {
			return w.fail(fmt.Errorf("record %d column %q: %w", w.summary.Records, w.coders[i].col.Name, err))
		}
		w.summary.ColumnBits[i] += w.sink.Position() - start
	}
	w.summary.Records++

	return nil
}

// EndPass flushes and closes the stream and writes the stats file.
func (w *Writer) EndPass() error {
	if w.state != StateInPass {
		return w.misuse("Writer.EndPass")
	}

	w.summary.TotalBits = w.sink.Position()
	if err := w.sink.Flush(w.cfg.PadBit); err != nil {
		return w.fail(err)
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		if err != nil {
			return w.fail(err)
		}
	}

	if w.ctx != nil && w.ctx.StatsPath != "" {
		h, err := NewStatsHeader(w.plan)
		if err != nil {
			return w.fail(err)
		}
		if w.cfg.BigEndianStats {
			h.WithBigEndian()
		}
		if err := WriteStatsFile(w.ctx.StatsPath, h, w.summary); err != nil {
			return w.fail(err)
		}
	}

	w.state = StatePassDone
	w.log.Debug("encode pass done",
		"records", w.summary.Records,
		"bits", w.summary.TotalBits,
		pipeline.Size("size", w.summary.TotalBits))

	return nil
}

// Complete ends the job.
func (w *Writer) Complete() error {
	if w.state != StatePassDone && !(w.state == StatePrepared && w.passes == 0) {
		return w.misuse("Writer.Complete")
	}

	w.state = StateComplete
	w.log.Info("encode complete",
		"records", w.summary.Records,
		pipeline.Size("size", w.summary.TotalBits))

	return nil
}

// Abort discards the job: an open data file is closed and removed, and the writer moves
// to StateAborted. It does nothing after Complete.
func (w *Writer) Abort() error {
	if w.state == StateComplete || w.state == StateAborted {
		return nil
	}

	err := w.release()
	w.state = StateAborted

	return err
}

// misuse reports a call in the wrong state. The job cannot continue after it.
func (w *Writer) misuse(op string) error {
	return w.fail(errs.State(op, w.state))
}

func (w *Writer) fail(err error) error {
	if rerr := w.release(); rerr != nil {
		err = errors.Join(err, rerr)
	}

	return err
}

func (w *Writer) release() error {
	w.state = StateFailed
	w.sink = nil
	if w.mem != nil {
		w.mem.Release()
		w.mem = nil
	}
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	if rerr := os.Remove(w.file.Path()); rerr != nil && !os.IsNotExist(rerr) {
		err = errors.Join(err, errs.IO("Writer.Abort", w.file.Path(), rerr))
	}
	w.file = nil

	return err
}
