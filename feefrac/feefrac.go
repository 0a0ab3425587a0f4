// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feefrac provides the fee and size type used to rank transactions
// and transaction sets by fee efficiency. Feerates are compared exactly as
// fractions; no floating point is involved, so comparisons stay unbiased at
// any magnitude.
package feefrac

import (
	"fmt"
	"math/bits"

	"github.com/btcsuite/btcd/btcutil"
)

// FeeFrac represents the fee and size of a transaction, or of a set of
// transactions taken together. It behaves as the fraction Fee/Size for
// feerate comparisons, but comparisons are carried out exactly on the cross
// products rather than by division, so there is no floating point rounding
// involved at any magnitude.
//
// The fee may be negative. The size must not be; a zero size marks the empty
// FeeFrac, whose feerate compares equal to every other.
type FeeFrac struct {
	// Fee is the absolute fee in satoshi.
	Fee btcutil.Amount

	// Size is the transaction weight or virtual size the fee pays for.
	Size int32
}

// IsEmpty reports whether this FeeFrac carries no size (and therefore no
// meaningful feerate).
func (f FeeFrac) IsEmpty() bool {
	return f.Size == 0
}

// Add returns the FeeFrac representing both f and other taken together.
func (f FeeFrac) Add(other FeeFrac) FeeFrac {
	return FeeFrac{Fee: f.Fee + other.Fee, Size: f.Size + other.Size}
}

// Compare compares the feerates of a and b exactly, returning -1 when a pays
// a lower feerate than b, 0 when equal, and 1 when higher. The comparison is
// performed on the 128-bit cross products a.Fee*b.Size and b.Fee*a.Size.
func Compare(a, b FeeFrac) int {
	negA, hiA, loA := mulWide(int64(a.Fee), b.Size)
	negB, hiB, loB := mulWide(int64(b.Fee), a.Size)

	if negA != negB {
		if negA {
			return -1
		}
		return 1
	}

	// Same sign: compare magnitudes, flipping the result when both
	// products are negative.
	cmp := 0
	if hiA != hiB {
		cmp = 1
		if hiA < hiB {
			cmp = -1
		}
	} else if loA != loB {
		cmp = 1
		if loA < loB {
			cmp = -1
		}
	}
	if negA {
		cmp = -cmp
	}
	return cmp
}

// mulWide computes x*y as a sign plus 128-bit magnitude. y must be
// non-negative. A zero product reports as non-negative.
func mulWide(x int64, y int32) (neg bool, hi, lo uint64) {
	ux := uint64(x)
	if x < 0 {
		neg = true
		ux = -ux
	}
	hi, lo = bits.Mul64(ux, uint64(y))
	if hi == 0 && lo == 0 {
		neg = false
	}
	return neg, hi, lo
}

// String returns the FeeFrac as "fee/size sat/vB".
func (f FeeFrac) String() string {
	return fmt.Sprintf("%d/%d sat/vB", int64(f.Fee), f.Size)
}
