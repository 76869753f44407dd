// Package bitrec compacts record sets into dense bit streams using per-column universal
// codes chosen from the data itself.
//
// A compaction runs in three steps. One pass over the records gathers column statistics
// (package stats). The selector then picks, for every column, the code among unary, Golomb,
// Rice, truncated binary and fixed width that minimises the expected total bits (package
// selector). Finally the records are written one symbol per column with no delimiters
// (package codec). The resulting plan is all a reader needs to decode the stream.
//
// # Core Features
//
//   - Bit-level readers and writers over bytes, words, io streams and memory-mapped files
//   - Unary, Golomb, Rice, truncated binary and fixed codes with exact size prediction
//   - Nullable columns and out-of-range escapes at a fixed cost
//   - Plan and stats files so that unchanged inputs are not re-encoded
//   - Bloom filters and a two-pass uniqueness check with bounded memory
//
// # Basic Usage
//
//	def, _ := record.NewBuilder().
//	    Column("id").Type(record.TypeUint64).
//	    Column("name").Type(record.TypeString).Nullable().
//	    Build()
//
//	c, err := bitrec.Compact(def, records)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(c.Summary.TotalBits)
//
//	back, err := bitrec.Expand(c)
//
// # Package Structure
//
// This package wraps the most common flows. Use stats, selector and codec directly to run
// jobs inside a larger pipeline, or bitio, ucode and coded for raw bit-level coding.
package bitrec

import (
	"fmt"
	"slices"

	"github.com/arloliu/bitrec/codec"
	"github.com/arloliu/bitrec/hashing"
	"github.com/arloliu/bitrec/internal/options"
	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/selector"
	"github.com/arloliu/bitrec/stats"
	"github.com/arloliu/bitrec/unique"
)

// Version is the library version.
const Version = "0.3.0"

// Config collects the options forwarded to each step.
type Config struct {
	Stats    []stats.CollectorOption
	Selector []selector.Option
	Writer   []codec.WriterOption
}

// Option configures a compaction.
type Option = options.Option[*Config]

// WithStatsOptions forwards options to the statistics collector.
func WithStatsOptions(opts ...stats.CollectorOption) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Stats = append(cfg.Stats, opts...)
	})
}

// WithSelectorOptions forwards options to the code selector.
func WithSelectorOptions(opts ...selector.Option) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Selector = append(cfg.Selector, opts...)
	})
}

// WithWriterOptions forwards options to the record writer.
func WithWriterOptions(opts ...codec.WriterOption) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Writer = append(cfg.Writer, opts...)
	})
}

// Compacted is an in-memory compacted record set.
type Compacted struct {
	// Plan holds the definition and the code of every column.
	Plan *codec.Plan
	// Data is the bit stream, padded to whole bytes.
	Data []byte
	// Summary holds the record count and the bits written per column.
	Summary codec.Summary
	// Selection holds the ranking of candidate codes behind the plan.
	Selection *selector.Result
}

// Compact collects statistics over records, selects a code per column and encodes them.
//
// Parameters:
//   - def: Record definition every record must match
//   - records: Records to compact
//   - opts: Options forwarded to the collector, selector and writer
//
// Returns:
//   - *Compacted: The plan, the encoded bytes and the size summary
//   - error: Shape, option or selection error
func Compact(def *record.Definition, records []record.Record, opts ...Option) (*Compacted, error) {
	var cfg Config
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	table, err := stats.Collect(def, records, cfg.Stats...)
	if err != nil {
		return nil, fmt.Errorf("collect statistics: %w", err)
	}

	selection, err := selector.Select(def, table, cfg.Selector...)
	if err != nil {
		return nil, fmt.Errorf("select codes: %w", err)
	}

	data, summary, err := codec.EncodeRecords(selection.Plan, records, cfg.Writer...)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return &Compacted{Plan: selection.Plan, Data: data, Summary: summary, Selection: selection}, nil
}

// Expand decodes every record of c.
func Expand(c *Compacted) ([]record.Record, error) {
	return codec.DecodeRecords(c.Plan, c.Data, c.Summary.Records)
}

// CompactFile runs the statistics pass over producer, selects the codes and writes the
// data, plan and stats files named by ctx. The producer is opened once per pass and must
// yield the same records every time. When ctx is not Clean and the stats file on disk
// matches the selected plan, the data file is kept as is.
func CompactFile(ctx *pipeline.Context, def *record.Definition, producer pipeline.Producer, opts ...Option) (*selector.Result, codec.Summary, error) {
	var cfg Config
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, codec.Summary{}, err
	}

	collector, err := stats.NewCollector(def, cfg.Stats...)
	if err != nil {
		return nil, codec.Summary{}, err
	}
	if err := pipeline.Run(ctx, producer, collector); err != nil {
		return nil, codec.Summary{}, fmt.Errorf("collect statistics: %w", err)
	}

	selection, err := selector.Select(def, collector.Table(), cfg.Selector...)
	if err != nil {
		return nil, codec.Summary{}, fmt.Errorf("select codes: %w", err)
	}

	w, err := codec.NewWriter(selection.Plan, cfg.Writer...)
	if err != nil {
		return nil, codec.Summary{}, err
	}
	if err := pipeline.Run(ctx, producer, w); err != nil {
		return nil, codec.Summary{}, fmt.Errorf("encode: %w", err)
	}

	return selection, w.Summary(), nil
}

// ExpandFile decodes the data file named by ctx with the plan saved next to it.
func ExpandFile(ctx *pipeline.Context) ([]record.Record, error) {
	plan, err := codec.LoadPlan(ctx.PlanPath)
	if err != nil {
		return nil, err
	}

	r, err := codec.NewReader(plan)
	if err != nil {
		return nil, err
	}

	sink := &pipeline.SliceConsumer{}
	if err := pipeline.Run(ctx, r, sink); err != nil {
		return nil, err
	}

	return sink.Records, nil
}

// IsUnique reports whether records contains no repeated record.
func IsUnique(def *record.Definition, records []record.Record, opts ...unique.Option) (bool, error) {
	for _, rec := range records {
		if err := def.Validate(rec); err != nil {
			return false, err
		}
	}

	verdict, err := unique.Check(slices.Values(records), hashing.RecordEncoder, uint64(len(records)), opts...)
	if err != nil {
		return false, err
	}

	return verdict == unique.Unique, nil
}
