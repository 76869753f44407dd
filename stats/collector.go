// Package stats gathers per-column statistics over a record set in a single pass.
//
// The Collector implements pipeline.Consumer so it can share a pass with other jobs. The
// resulting Table is immutable and feeds the code selector.
package stats

import (
	"fmt"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/options"
	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
)

// CollectorConfig holds the collector settings.
type CollectorConfig struct {
	MaxBuckets int
}

// CollectorOption configures a Collector.
type CollectorOption = options.Option[*CollectorConfig]

// WithMaxBuckets bounds the number of histogram buckets kept per column.
func WithMaxBuckets(n int) CollectorOption {
	return options.New(func(cfg *CollectorConfig) error {
		if n < 1 {
			return fmt.Errorf("max buckets %d must be positive", n)
		}
		cfg.MaxBuckets = n

		return nil
	})
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseCollecting
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "Idle"
	case phaseCollecting:
		return "Collecting"
	default:
		return "Done"
	}
}

// Collector accumulates column statistics.
type Collector struct {
	def     *record.Definition
	cfg     CollectorConfig
	phase   phase
	records uint64
	cols    []*accumulator
	log     *pipeline.Logger
}

var _ pipeline.Consumer = (*Collector)(nil)

// NewCollector creates a collector for records of def.
func NewCollector(def *record.Definition, opts ...CollectorOption) (*Collector, error) {
	if def == nil {
		return nil, fmt.Errorf("nil definition: %w", errs.ErrInvalidDefinition)
	}

	cfg := CollectorConfig{MaxBuckets: DefaultMaxBuckets}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	c := &Collector{def: def, cfg: cfg, log: pipeline.NoopLogger()}
	c.reset()

	return c, nil
}

func (c *Collector) reset() {
	c.records = 0
	c.cols = make([]*accumulator, c.def.Len())
	for i := range c.cols {
		c.cols[i] = newAccumulator(c.def.Column(i), c.cfg.MaxBuckets)
	}
}

// Add feeds one record outside of a pipeline pass.
func (c *Collector) Add(rec record.Record) error {
	if err := c.def.Validate(rec); err != nil {
		return err
	}

	for i, v := range rec {
		if err := c.cols[i].add(v); err != nil {
			return fmt.Errorf("column %q: %w", c.def.Column(i).Name, err)
		}
	}
	c.records++

	return nil
}

// Table snapshots the statistics gathered so far.
func (c *Collector) Table() *Table {
	t := &Table{def: c.def, records: c.records, columns: make([]ColumnStats, len(c.cols))}
	for i, a := range c.cols {
		t.columns[i] = a.snapshot()
	}

	return t
}

// Prepare binds the job logger.
func (c *Collector) Prepare(ctx *pipeline.Context) error {
	c.log = ctx.Log().WithJob("stats")
	c.phase = phaseIdle

	return nil
}

// RequiredPasses returns 1.
func (*Collector) RequiredPasses() int { return 1 }

// BeginPass discards anything gathered before.
func (c *Collector) BeginPass(int) error {
	if c.phase == phaseCollecting {
		return errs.State("BeginPass", c.phase)
	}
	c.reset()
	c.phase = phaseCollecting

	return nil
}

// Consume adds rec.
func (c *Collector) Consume(rec record.Record) error {
	if c.phase != phaseCollecting {
		return errs.State("Consume", c.phase)
	}

	return c.Add(rec)
}

// EndPass closes the pass.
func (c *Collector) EndPass() error {
	if c.phase != phaseCollecting {
		return errs.State("EndPass", c.phase)
	}
	c.phase = phaseDone

	return nil
}

// Complete logs a summary.
func (c *Collector) Complete() error {
	if c.phase == phaseCollecting {
		return errs.State("Complete", c.phase)
	}
	c.log.Info("statistics collected", "records", c.records, "columns", len(c.cols))

	return nil
}

// Collect runs a collector over recs and returns the table.
func Collect(def *record.Definition, recs []record.Record, opts ...CollectorOption) (*Table, error) {
	c, err := NewCollector(def, opts...)
	if err != nil {
		return nil, err
	}

	if err := pipeline.Run(nil, &pipeline.SliceProducer{Records: recs}, c); err != nil {
		return nil, err
	}

	return c.Table(), nil
}
