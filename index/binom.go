// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package index

import "math"

const (
	// maxSquareBinom and maxPiecesBinom size the shared binomial-coefficient
	// table (spec.md §4.2: "a 51x9 table of binomial coefficients").
	maxSquareBinom = 50
	maxPiecesBinom = 8
)

// Binomial holds C(n, k) for 0 <= n <= 50, 0 <= k <= 8, computed once and
// shared read-only by every Indexer. Entries that would overflow uint32 are
// saturated to math.MaxUint32, per spec.md §4.2 ("saturated to u32::MAX
// where meaningful") — in practice no entry this table actually needs
// (k <= 5) comes close to overflowing, but the saturation is kept so a
// future widening of MaxPieces fails safe instead of wrapping silently.
type Binomial struct {
	table [maxSquareBinom + 1][maxPiecesBinom + 1]uint32
}

// NewBinomial builds the table via the standard Pascal's-triangle recurrence
// C(n,k) = C(n-1,k-1) + C(n-1,k), with C(n,0) = 1 and C(0,k>0) = 0.
func NewBinomial() *Binomial {
	b := &Binomial{}
	for n := 0; n <= maxSquareBinom; n++ {
		b.table[n][0] = 1
	}
	for k := 1; k <= maxPiecesBinom; k++ {
		b.table[0][k] = 0
	}
	for n := 1; n <= maxSquareBinom; n++ {
		for k := 1; k <= maxPiecesBinom; k++ {
			sum := uint64(b.table[n-1][k-1]) + uint64(b.table[n-1][k])
			if sum > math.MaxUint32 {
				b.table[n][k] = math.MaxUint32
			} else {
				b.table[n][k] = uint32(sum)
			}
		}
	}
	return b
}

// At returns C(n, k), i.e. the number of ways to choose k items from n. Out
// of range (n, k) values return 0, matching "choose 0 from 0... choosing n
// from 0: bicoef = 0" in the original engine's bicoef.cpp for n==0, k>0, and
// extending it to any other out-of-domain argument rather than panicking,
// since index arithmetic routinely evaluates C(n, 0) and C(small, big) at
// slice boundaries.
func (b *Binomial) At(n, k int) uint32 {
	if n < 0 || k < 0 {
		return 0
	}
	if k == 0 {
		return 1
	}
	if n > maxSquareBinom || k > maxPiecesBinom {
		return 0
	}
	return b.table[n][k]
}
