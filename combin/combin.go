// Package combin implements the combinatorial number system: a bijection between the
// integers in [0, C(n, k)) and the k-element subsets of [0, n).
//
// A subset c_1 < c_2 < ... < c_k has rank C(c_1, 1) + C(c_2, 2) + ... + C(c_k, k).
// Binomials grow beyond 64 bits quickly, so ranks are math/big integers.
package combin

import (
	"fmt"
	"math/big"

	"github.com/arloliu/bitrec/errs"
)

// Binomial returns C(n, k), or zero when k > n.
func Binomial(n, k uint64) *big.Int {
	if k > n {
		return new(big.Int)
	}
	k = min(k, n-k)

	result := big.NewInt(1)
	var num, den big.Int
	for j := uint64(1); j <= k; j++ {
		num.SetUint64(n - k + j)
		den.SetUint64(j)
		result.Mul(result, &num)
		result.Quo(result, &den)
	}

	return result
}

// Rank returns the rank of a subset given in strictly increasing order.
func Rank(subset []uint64) (*big.Int, error) {
	rank := new(big.Int)
	for i, c := range subset {
		if i > 0 && c <= subset[i-1] {
			return nil, fmt.Errorf("subset %v is not strictly increasing: %w", subset, errs.ErrInvalidParameter)
		}
		rank.Add(rank, Binomial(c, uint64(i+1)))
	}

	return rank, nil
}

// Unrank returns the k-element subset of [0, n) with the given rank, in increasing
// order. The rank must lie in [0, C(n, k)).
func Unrank(rank *big.Int, k int, n uint64) ([]uint64, error) {
	if k < 0 || uint64(k) > n {
		return nil, fmt.Errorf("choose %d of %d: %w", k, n, errs.ErrInvalidParameter)
	}
	if rank.Sign() < 0 || rank.Cmp(Binomial(n, uint64(k))) >= 0 {
		return nil, fmt.Errorf("rank %s outside C(%d, %d): %w", rank, n, k, errs.ErrInvalidParameter)
	}

	out := make([]uint64, k)
	r := new(big.Int).Set(rank)
	hi := n
	for i := k; i >= 1; i-- {
		c := largestBelow(r, uint64(i), hi)
		out[i-1] = c
		r.Sub(r, Binomial(c, uint64(i)))
		hi = c
	}

	return out, nil
}

// largestBelow finds the largest c < hi with C(c, i) <= r. C(i-1, i) is zero, so the
// search always succeeds at c = i-1.
func largestBelow(r *big.Int, i, hi uint64) uint64 {
	lo, top := i-1, hi-1
	for lo < top {
		mid := lo + (top-lo+1)/2
		if Binomial(mid, i).Cmp(r) <= 0 {
			lo = mid
		} else {
			top = mid - 1
		}
	}

	return lo
}
