package selector

import (
	"cmp"
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/arloliu/bitrec/stats"
	"github.com/arloliu/bitrec/ucode"
)

// Candidate is one evaluated code for a column.
type Candidate struct {
	// Spec identifies the code.
	Spec ucode.Spec
	// Code is the resolved code.
	Code ucode.Code
	// Bits is the expected total size of the column in bits. math.MaxUint64 marks a code
	// that cannot hold the column.
	Bits uint64
	// Limit is the largest value offset coded directly; larger ones are escaped.
	Limit uint64
}

// String returns a short description of the candidate.
func (c *Candidate) String() string {
	if c.Bits == math.MaxUint64 {
		return fmt.Sprintf("Candidate{Code: %s, Bits: overflow}", c.Spec)
	}

	return fmt.Sprintf("Candidate{Code: %s, Bits: %d}", c.Spec, c.Bits)
}

// familyRank orders code families for ties.
func familyRank(k ucode.Kind) int {
	switch k {
	case ucode.KindTruncatedBinary:
		return 0
	case ucode.KindUnary:
		return 1
	case ucode.KindRice:
		return 2
	case ucode.KindGolomb:
		return 3
	default:
		return 4
	}
}

func compareCandidates(a, b *Candidate) int {
	if c := cmp.Compare(a.Bits, b.Bits); c != 0 {
		return c
	}
	if c := cmp.Compare(familyRank(a.Spec.Kind), familyRank(b.Spec.Kind)); c != 0 {
		return c
	}

	return cmp.Compare(a.Spec.Param, b.Spec.Param)
}

// specs lists the candidate codes for a column whose largest value symbol is top.
func (p *PolicyConfig) specs(col stats.ColumnStats, reserved, top uint64) []ucode.Spec {
	var out []ucode.Spec

	if top <= p.UnaryLimit {
		out = append(out, ucode.Spec{Kind: ucode.KindUnary, Param: uint64(ucode.OneExtended)})
	}

	lo, hi := uint8(0), uint8(min(bits.Len64(top), 63))
	if p.RiceRange {
		lo, hi = p.RiceMin, p.RiceMax
	}
	for b := lo; b <= hi; b++ {
		out = append(out, ucode.Spec{Kind: ucode.KindRice, Param: uint64(b)})
	}

	divisors := p.GolombDivisors
	if len(divisors) == 0 {
		divisors = derivedDivisors(float64(reserved) + col.MeanSymbol)
	}
	for _, d := range divisors {
		out = append(out, ucode.Spec{Kind: ucode.KindGolomb, Param: d})
	}

	if p.TruncatedBinary && top < math.MaxUint64 {
		out = append(out, ucode.Spec{Kind: ucode.KindTruncatedBinary, Param: top + 1})
	}

	out = append(out, ucode.Spec{Kind: ucode.KindFixed, Param: 64})

	return dedupe(out)
}

// derivedDivisors returns d*, d*-1, d*+1, d*/2 and 2d* for d* = ceil(ln2 * mean).
func derivedDivisors(mean float64) []uint64 {
	star := math.Ceil(math.Ln2 * mean)
	if star < 1 || math.IsNaN(star) {
		star = 1
	}
	if star > 1<<62 {
		star = 1 << 62
	}
	d := uint64(star)

	out := make([]uint64, 0, 5)
	for _, x := range []uint64{d, d - 1, d + 1, d / 2, 2 * d} {
		if x >= 1 {
			out = append(out, x)
		}
	}

	return out
}

// dedupe drops specs whose exact spec already appeared.
func dedupe(specs []ucode.Spec) []ucode.Spec {
	seen := make(map[ucode.Spec]struct{}, len(specs))
	out := specs[:0]
	for _, s := range specs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

// evaluate fits every candidate to col and returns them ranked, best first.
func (p *PolicyConfig) evaluate(col stats.ColumnStats, reserved uint64) ([]*Candidate, error) {
	var span uint64
	if col.Count > 0 {
		span = col.Range()
	}
	top, carry := bits.Add64(reserved, span, 0)
	if carry != 0 {
		top = math.MaxUint64
	}

	specs := p.specs(col, reserved, top)
	out := make([]*Candidate, 0, len(specs))
	for _, spec := range specs {
		code, err := ucode.FromSpec(spec)
		if err != nil {
			return nil, err
		}

		hi, _ := code.Max()
		if hi < reserved {
			continue
		}
		limit := min(span, hi-reserved)

		out = append(out, &Candidate{
			Spec:  spec,
			Code:  code,
			Bits:  col.ExpectedBits(code, reserved),
			Limit: limit,
		})
	}
	slices.SortFunc(out, compareCandidates)

	return out, nil
}
