package selector

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/bitrec/codec"
	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/internal/options"
	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/stats"
)

// ColumnResult is the outcome for one column.
type ColumnResult struct {
	// Name is the column name.
	Name string
	// Best is the lowest-cost candidate.
	Best *Candidate
	// All holds every evaluated candidate, best first.
	All []*Candidate
}

// String returns the column name and its best code.
func (c *ColumnResult) String() string {
	return fmt.Sprintf("ColumnResult{Name: %s, Best: %s, Candidates: %d}", c.Name, c.Best, len(c.All))
}

// Result is the outcome of a selection.
type Result struct {
	// Plan holds the chosen code of every column.
	Plan *codec.Plan
	// Columns holds the per-column ranking, in definition order.
	Columns []*ColumnResult
}

// ExpectedBits sums the expected bits of the chosen codes, saturating at math.MaxUint64.
func (r *Result) ExpectedBits() uint64 {
	var total uint64
	for _, c := range r.Columns {
		if total+c.Best.Bits < total {
			return math.MaxUint64
		}
		total += c.Best.Bits
	}

	return total
}

// String summarises the result.
func (r *Result) String() string {
	if r.Plan == nil {
		return "Result{Plan: nil}"
	}

	var sb strings.Builder
	sb.WriteString("Result{")
	for i, c := range r.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", c.Name, c.Best.Spec)
	}
	fmt.Fprintf(&sb, ", ExpectedBits: %d}", r.ExpectedBits())

	return sb.String()
}

// Select chooses a code for every column of def from table.
//
// Parameters:
//   - def: Record definition; it must equal the definition the table was built for
//   - table: Column statistics from a full pass over the record set
//   - opts: Candidate policy options
//
// Returns:
//   - *Result: The plan and per-column rankings
//   - error: Option, definition mismatch or plan validation error
func Select(def *record.Definition, table *stats.Table, opts ...Option) (*Result, error) {
	if def == nil || table == nil {
		return nil, errors.New("nil definition or statistics")
	}
	if !def.Equal(table.Definition()) {
		return nil, fmt.Errorf("statistics describe another definition: %w", errs.ErrInvalidPlan)
	}

	policy := defaultPolicy()
	if err := options.Apply(&policy, opts...); err != nil {
		return nil, err
	}

	result := &Result{Columns: make([]*ColumnResult, def.Len())}
	plans := make([]codec.ColumnPlan, def.Len())
	for i := range def.Len() {
		col := def.Column(i)
		cs := table.Column(i)
		reserved := codec.ReservedSymbols(col)

		ranked, err := policy.evaluate(cs, reserved)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		if len(ranked) == 0 {
			return nil, fmt.Errorf("column %q has no usable code: %w", col.Name, errs.ErrInvalidPlan)
		}

		best := ranked[0]
		result.Columns[i] = &ColumnResult{Name: col.Name, Best: best, All: ranked}
		plans[i] = codec.ColumnPlan{
			Name:     col.Name,
			Code:     best.Spec,
			Offset:   cs.Min,
			Limit:    best.Limit,
			Reserved: reserved,
		}
	}

	plan, err := codec.NewPlan(def, plans)
	if err != nil {
		return nil, err
	}
	result.Plan = plan

	return result, nil
}
