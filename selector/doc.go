// Package selector picks, per column, the universal code that minimises the expected
// number of bits for a record set.
//
// Selection works from the statistics table produced by package stats. For each column it
// builds a candidate set of codes, evaluates the expected total bits of every candidate
// against the column's frequency histogram, and ranks them. The best candidate of every
// column goes into a codec.Plan that the encoder and decoder share.
//
// # Candidate Set
//
// With s the largest value symbol of a column (reserved symbols plus max-min):
//
//   - Unary, when s is at most the unary limit (64 by default)
//   - Rice(b) for b in [0, bitlen(s)]
//   - Golomb(d) for d in {d*, d*-1, d*+1, d*/2, 2d*}, where d* = ceil(ln2 * mean symbol)
//   - TruncatedBinary(s+1), sized to the observed range
//   - Fixed(64), always present so that every column has a usable code
//
// Each family can be narrowed or replaced through Options.
//
// # Ranking
//
// Candidates are ordered by expected bits. Ties prefer truncated binary, whose range is
// exactly known and bounded, then the family with fewer parameters in the order
// Unary, Rice, Golomb, Fixed, then the smaller parameter. The order is deterministic, so
// the same statistics always yield the same plan.
//
// # Usage
//
//	table, err := stats.Collect(def, records)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := selector.Select(def, table)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, col := range result.Columns {
//	    fmt.Printf("%s: %s\n", col.Name, col.Best)
//	}
//
//	data, summary, err := codec.EncodeRecords(result.Plan, records)
package selector
