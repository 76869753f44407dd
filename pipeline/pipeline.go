// Package pipeline defines the producer and consumer roles that multi-pass jobs are built
// from, and a small driver that sequences passes over a record source.
//
// A producer goes through Prepare, then Open for each pass, iterating the returned
// Sequence, then Complete. A consumer goes through Prepare, reports how many passes it
// needs, then BeginPass, Consume for every record, EndPass per pass, and finally Complete.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/c2h5oh/datasize"

	"github.com/arloliu/bitrec/record"
)

// DefaultBufferSize is the file buffer size used when a Context leaves it unset.
const DefaultBufferSize = 64 * datasize.KB

// Context carries the file locations and settings a job runs with.
type Context struct {
	DataPath  string // compact record stream
	PlanPath  string // record definition and per-column codes
	StatsPath string // aggregate counters of the last encode
	// Clean forces recomputation even when persisted outputs look current.
	Clean      bool
	Logger     *Logger
	BufferSize datasize.ByteSize
}

// Log returns the context logger, or a no-op logger.
func (c *Context) Log() *Logger {
	if c == nil || c.Logger == nil {
		return NoopLogger()
	}

	return c.Logger
}

// Buffer returns the configured buffer size or DefaultBufferSize.
func (c *Context) Buffer() datasize.ByteSize {
	if c == nil || c.BufferSize == 0 {
		return DefaultBufferSize
	}

	return c.BufferSize
}

// Sequence iterates the records of one pass.
type Sequence interface {
	HasNext() bool
	Next() (record.Record, error)
	Close() error
}

// Producer supplies records, possibly several times.
type Producer interface {
	Prepare(ctx *Context) error
	Open() (Sequence, error)
	Complete() error
}

// Consumer receives every record of each pass it asked for.
type Consumer interface {
	Prepare(ctx *Context) error
	// RequiredPasses is valid after Prepare. Zero means the consumer has nothing to do.
	RequiredPasses() int
	BeginPass(pass int) error
	Consume(rec record.Record) error
	EndPass() error
	Complete() error
}

// Aborter is implemented by producers and consumers that hold resources or partial
// output. Run calls Abort on every prepared participant when a job fails; Abort after
// Complete must be a no-op.
type Aborter interface {
	Abort() error
}

// SliceProducer replays an in-memory record slice.
type SliceProducer struct {
	Records []record.Record
}

var _ Producer = (*SliceProducer)(nil)

// Prepare does nothing.
func (*SliceProducer) Prepare(*Context) error { return nil }

// Open starts a new iteration over the records.
func (p *SliceProducer) Open() (Sequence, error) {
	return &sliceSequence{records: p.Records}, nil
}

// Complete does nothing.
func (*SliceProducer) Complete() error { return nil }

type sliceSequence struct {
	records []record.Record
	next    int
}

func (s *sliceSequence) HasNext() bool { return s.next < len(s.records) }

func (s *sliceSequence) Next() (record.Record, error) {
	if s.next >= len(s.records) {
		return nil, errors.New("sequence exhausted")
	}
	rec := s.records[s.next]
	s.next++

	return rec, nil
}

func (*sliceSequence) Close() error { return nil }

// SliceConsumer appends every record of a single pass to Records.
type SliceConsumer struct {
	Records []record.Record
}

var _ Consumer = (*SliceConsumer)(nil)

// Prepare drops previously collected records.
func (c *SliceConsumer) Prepare(*Context) error {
	c.Records = c.Records[:0]
	return nil
}

// RequiredPasses returns 1.
func (*SliceConsumer) RequiredPasses() int { return 1 }

// BeginPass does nothing.
func (*SliceConsumer) BeginPass(int) error { return nil }

// Consume appends rec.
func (c *SliceConsumer) Consume(rec record.Record) error {
	c.Records = append(c.Records, rec)
	return nil
}

// EndPass does nothing.
func (*SliceConsumer) EndPass() error { return nil }

// Complete does nothing.
func (*SliceConsumer) Complete() error { return nil }

// Run prepares the producer and consumers, runs as many passes as the most demanding
// consumer requires, and completes everything. Each pass only feeds the consumers that
// still need it. The sequence of a pass is closed on every exit path, and on failure every
// prepared participant implementing Aborter is aborted.
func Run(ctx *Context, producer Producer, consumers ...Consumer) error {
	log := ctx.Log()

	if err := producer.Prepare(ctx); err != nil {
		return abort(fmt.Errorf("prepare producer: %w", err), producer, nil)
	}

	passes := 0
	for i, c := range consumers {
		if err := c.Prepare(ctx); err != nil {
			return abort(fmt.Errorf("prepare consumer: %w", err), producer, consumers[:i+1])
		}
		passes = max(passes, c.RequiredPasses())
	}

	for pass := range passes {
		active := make([]Consumer, 0, len(consumers))
		for _, c := range consumers {
			if pass < c.RequiredPasses() {
				active = append(active, c)
			}
		}
		if len(active) == 0 {
			break
		}

		records, err := runPass(producer, pass, active)
		if err != nil {
			return abort(fmt.Errorf("pass %d: %w", pass, err), producer, consumers)
		}
		log.WithPass(pass).Debug("pass complete", "records", records, "consumers", len(active))
	}

	for _, c := range consumers {
		if err := c.Complete(); err != nil {
			return abort(fmt.Errorf("complete consumer: %w", err), producer, consumers)
		}
	}

	if err := producer.Complete(); err != nil {
		return abort(fmt.Errorf("complete producer: %w", err), producer, consumers)
	}

	return nil
}

// abort calls Abort on the producer and the given consumers and joins their errors to err.
func abort(err error, producer Producer, consumers []Consumer) error {
	errList := []error{err}
	if a, ok := producer.(Aborter); ok {
		if aerr := a.Abort(); aerr != nil {
			errList = append(errList, fmt.Errorf("abort producer: %w", aerr))
		}
	}
	for _, c := range consumers {
		if a, ok := c.(Aborter); ok {
			if aerr := a.Abort(); aerr != nil {
				errList = append(errList, fmt.Errorf("abort consumer: %w", aerr))
			}
		}
	}

	return errors.Join(errList...)
}

func runPass(producer Producer, pass int, consumers []Consumer) (n uint64, err error) {
	for _, c := range consumers {
		if err := c.BeginPass(pass); err != nil {
			return 0, err
		}
	}

	seq, err := producer.Open()
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := seq.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for seq.HasNext() {
		rec, err := seq.Next()
		if err != nil {
			return n, err
		}
		for _, c := range consumers {
			if err := c.Consume(rec); err != nil {
				return n, err
			}
		}
		n++
	}

	for _, c := range consumers {
		if err := c.EndPass(); err != nil {
			return n, err
		}
	}

	return n, nil
}
