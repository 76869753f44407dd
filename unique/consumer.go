package unique

import (
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/hashing"
	"github.com/arloliu/bitrec/pipeline"
	"github.com/arloliu/bitrec/record"
)

// Consumer runs a uniqueness check over whole records as a pipeline job. It asks for two
// passes and drops out after the first when that pass already decided the verdict.
type Consumer struct {
	def      *record.Definition
	expected uint64
	opts     []Option
	checker  *Checker[record.Record]
	log      *pipeline.Logger
}

var _ pipeline.Consumer = (*Consumer)(nil)

// NewConsumer creates a Consumer for records of def, sized for about expected records.
func NewConsumer(def *record.Definition, expected uint64, opts ...Option) (*Consumer, error) {
	checker, err := New(expected, hashing.RecordEncoder, opts...)
	if err != nil {
		return nil, err
	}

	return &Consumer{def: def, expected: expected, opts: opts, checker: checker}, nil
}

// Prepare binds the pipeline logger and resets the check.
func (c *Consumer) Prepare(ctx *pipeline.Context) error {
	c.log = ctx.Log().WithJob("unique")

	opts := append(c.opts[:len(c.opts):len(c.opts)], WithLogger(c.log))
	checker, err := New(c.expected, hashing.RecordEncoder, opts...)
	if err != nil {
		return err
	}
	c.checker = checker

	return nil
}

// RequiredPasses returns 2 until the verdict is known, then the passes actually used.
func (c *Consumer) RequiredPasses() int {
	switch p := c.checker.Phase().(type) {
	case *PostPass2:
		return p.Passes
	case *DuplicateFound[record.Record]:
		return p.Pass
	default:
		return 2
	}
}

// BeginPass starts the next pass of the check.
func (c *Consumer) BeginPass(int) error {
	return c.checker.BeginPass()
}

// Consume feeds one record. Records after a duplicate are ignored.
func (c *Consumer) Consume(rec record.Record) error {
	if err := c.def.Validate(rec); err != nil {
		return err
	}
	if c.checker.Verdict() == Duplicate {
		return nil
	}

	_, err := c.checker.Observe(rec)

	return err
}

// EndPass finishes the current pass.
func (c *Consumer) EndPass() error {
	if c.checker.Verdict() == Duplicate {
		return nil
	}

	return c.checker.EndPass()
}

// Complete requires a verdict.
func (c *Consumer) Complete() error {
	if c.checker.Verdict() == Undecided {
		return errs.State("unique.Complete", c.checker.Phase())
	}

	return nil
}

// Verdict returns the outcome of the check.
func (c *Consumer) Verdict() Verdict { return c.checker.Verdict() }

// Duplicate returns the repeated record once one has been found.
func (c *Consumer) Duplicate() (*DuplicateFound[record.Record], bool) {
	return c.checker.Duplicate()
}
