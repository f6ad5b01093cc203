// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package slice defines the material-signature data model shared by every
// other egdb-go component: Position, Slice, Subslice, and the material
// reversal (§3 "Material reversal") that halves on-disk storage by only
// cataloguing the black-dominant half of each slice.
package slice

import (
	"github.com/eygilbert/egdb-go/bitboard"
)

// Color identifies the side to move.
type Color int

const (
	Black Color = iota
	White
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Position is a single board position: which squares are occupied by black
// and white pieces, and which of those pieces are kings.
//
// Invariant: Black&White == 0, King is a subset of Black|White, and Black
// and White both lie within bitboard.AllSquares. Constructors in this
// package do not themselves validate the invariant; callers that build a
// Position from untrusted input (an index file, a network message) should
// call Position.Valid.
type Position struct {
	Black bitboard.Board
	White bitboard.Board
	King  bitboard.Board
}

// Valid reports whether p satisfies the structural invariant from spec.md §3.
func (p Position) Valid() bool {
	if p.Black&p.White != 0 {
		return false
	}
	if p.King & ^(p.Black|p.White) != 0 {
		return false
	}
	if p.Black & ^bitboard.AllSquares != 0 || p.White & ^bitboard.AllSquares != 0 {
		return false
	}
	return true
}

// BlackMen, BlackKings, WhiteMen, WhiteKings decompose the position into its
// four piece-type bitboards.
func (p Position) BlackMen() bitboard.Board   { return p.Black &^ p.King }
func (p Position) BlackKings() bitboard.Board { return p.Black & p.King }
func (p Position) WhiteMen() bitboard.Board   { return p.White &^ p.King }
func (p Position) WhiteKings() bitboard.Board { return p.White & p.King }

// Material returns the Slice signature of p: the piece counts by type.
func (p Position) Material() Slice {
	return Slice{
		BlackMen:   bitboard.Popcount(uint64(p.BlackMen())),
		BlackKings: bitboard.Popcount(uint64(p.BlackKings())),
		WhiteMen:   bitboard.Popcount(uint64(p.WhiteMen())),
		WhiteKings: bitboard.Popcount(uint64(p.WhiteKings())),
	}
}

// Reverse mirrors the board top-to-bottom and swaps the two colors. Combined
// with a caller swapping `color`, this is the canonicalizing transform from
// spec.md §3: lookup(reverse(p), other_color) == lookup(p, color).
func Reverse(p Position) Position {
	return Position{
		Black: bitboard.Reverse(p.White),
		White: bitboard.Reverse(p.Black),
		King:  bitboard.Reverse(p.King),
	}
}

// Slice is the material signature (nbm, nbk, nwm, nwk) of a position: the
// number of black men, black kings, white men and white kings.
type Slice struct {
	BlackMen   int
	BlackKings int
	WhiteMen   int
	WhiteKings int
}

// MaxPieces is the hard ceiling on total pieces this engine supports (§3).
const MaxPieces = 9

// TotalPieces returns nbm+nbk+nwm+nwk.
func (s Slice) TotalPieces() int {
	return s.BlackMen + s.BlackKings + s.WhiteMen + s.WhiteKings
}

// BlackPieces and WhitePieces total one side's men and kings.
func (s Slice) BlackPieces() int { return s.BlackMen + s.BlackKings }
func (s Slice) WhitePieces() int { return s.WhiteMen + s.WhiteKings }

// Valid reports whether s is a legal slice signature per spec.md §3: each
// side's piece count is at most 5, and the total is at most MaxPieces.
func (s Slice) Valid() bool {
	if s.BlackMen < 0 || s.BlackKings < 0 || s.WhiteMen < 0 || s.WhiteKings < 0 {
		return false
	}
	if s.BlackPieces() > 5 || s.WhitePieces() > 5 {
		return false
	}
	return s.TotalPieces() <= MaxPieces
}

// Reversed returns the slice with black and white's piece counts swapped,
// matching the color swap performed by Reverse on a Position.
func (s Slice) Reversed() Slice {
	return Slice{
		BlackMen:   s.WhiteMen,
		BlackKings: s.WhiteKings,
		WhiteMen:   s.BlackMen,
		WhiteKings: s.BlackKings,
	}
}

// less is the canonical ordering over (kings, pieces) pairs used to decide
// which side of a slice is "dominant" and should be catalogued directly.
func less(kingsA, piecesA, kingsB, piecesB int) bool {
	if kingsA != kingsB {
		return kingsA < kingsB
	}
	return piecesA < piecesB
}

// NeedsReversal reports whether s is white-dominant under the canonical
// (kings, pieces) ordering from spec.md §3 ("Material reversal") and so must
// be looked up via its Reversed() signature and a reversed Position.
func (s Slice) NeedsReversal() bool {
	return less(s.BlackKings, s.BlackPieces(), s.WhiteKings, s.WhitePieces())
}

// Canonical returns the slice that is actually catalogued on disk for s,
// together with whether the caller must reverse the position to look it up.
func (s Slice) Canonical() (canonical Slice, reversed bool) {
	if s.NeedsReversal() {
		return s.Reversed(), true
	}
	return s, false
}

// Subslice-size ceilings from spec.md §3: a slice is split into fixed-size
// subslices so that every (subslice, local index) pair fits comfortably in
// signed 32-bit arithmetic in the on-disk index grammar.
const (
	// MaxSubsliceIndicesWLD applies to WLD and MTC formats (2^31).
	MaxSubsliceIndicesWLD int64 = 1 << 31
	// MaxSubsliceIndicesDTW applies to the DTW format (2^30).
	MaxSubsliceIndicesDTW int64 = 1 << 30
)

// NumSubslices returns ceil(sliceSize / maxSubsliceIndices), the number of
// subslices spec.md §3 says a slice of the given total index-space size is
// split into.
func NumSubslices(sliceSize, maxSubsliceIndices int64) int {
	if sliceSize <= 0 {
		return 0
	}
	return int((sliceSize + maxSubsliceIndices - 1) / maxSubsliceIndices)
}
