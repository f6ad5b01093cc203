// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package index implements the perfect-hash bijection between a legal
// position and a 64-bit index within a material slice (spec.md §4.2). The
// algorithm groups pieces by type in a fixed order — black men not on rank
// 0, black men on rank 0, white men, black kings, white kings — and ranks
// each group's occupied squares combinatorially among the squares still
// available after accounting for earlier groups' placements.
package index

import (
	"github.com/cockroachdb/errors"
	"github.com/eygilbert/egdb-go/bitboard"
	"github.com/eygilbert/egdb-go/slice"
)

// row0 is the 5 squares of black's own back rank (squares 0..4), ranked as
// a separate piece group for indexing purposes (see package doc).
var row0 = bitboard.Square(0) | bitboard.Square(1) | bitboard.Square(2) | bitboard.Square(3) | bitboard.Square(4)

// maxPiecesPerSide bounds bm, bk, wm, wk individually (spec.md §3).
const maxPiecesPerSide = 5

// Indexer computes the position_to_index / index_to_position bijection for
// any slice signature within maxPiecesPerSide-per-side, sharing one
// Binomial table and one precomputed man-index-base table across every
// slice, as the original engine's process-wide globals did (see spec.md §9
// "Global state" — here folded into one instance instead of package state).
type Indexer struct {
	binom *Binomial
	// manIndexBase[bm][wm][bm0] is the running total of checker (man)
	// index space consumed by configurations with strictly more men on
	// black's rank 0 than bm0, for given (bm, wm). Built once in
	// NewIndexer, mirroring build_man_index_base() in the original engine.
	manIndexBase [maxPiecesPerSide + 1][maxPiecesPerSide + 1][maxPiecesPerSide + 1]int64
}

// NewIndexer builds the shared binomial table and man-index-base table.
func NewIndexer() *Indexer {
	idx := &Indexer{binom: NewBinomial()}
	idx.buildManIndexBase()
	return idx
}

func (idx *Indexer) buildManIndexBase() {
	b := idx.binom
	for bm := 0; bm <= maxPiecesPerSide; bm++ {
		for wm := 0; wm <= maxPiecesPerSide; wm++ {
			var base int64
			maxBm0 := bm
			if maxBm0 > maxPiecesPerSide {
				maxBm0 = maxPiecesPerSide
			}
			for bm0 := maxBm0; bm0 >= 0; bm0-- {
				idx.manIndexBase[bm][wm][bm0] = base
				partial := int64(b.At(40, bm-bm0)) * int64(b.At(45-bm+bm0, wm))
				partial *= int64(b.At(5, bm0))
				base += partial
			}
		}
	}
}

// checkerRange returns the total size of the "checker" (man) index space
// for a slice with bm black men and wm white men: the sum, over every legal
// split of bm between black's rank 0 and the rest of the board, of the
// number of ways to place those men.
func (idx *Indexer) checkerRange(bm, wm int) int64 {
	b := idx.binom
	var total int64
	maxBm0 := bm
	if maxBm0 > maxPiecesPerSide {
		maxBm0 = maxPiecesPerSide
	}
	for bm0 := 0; bm0 <= maxBm0; bm0++ {
		partial := int64(b.At(40, bm-bm0)) * int64(b.At(45-bm+bm0, wm))
		partial *= int64(b.At(5, bm0))
		total += partial
	}
	return total
}

// SliceSize returns the number of distinct legal positions (for one side to
// move) in slice s: the size of the index space position_to_index/
// index_to_position operate over.
func (idx *Indexer) SliceSize(s slice.Slice) int64 {
	b := idx.binom
	checker := idx.checkerRange(s.BlackMen, s.WhiteMen)
	bkRange := int64(b.At(50-s.BlackMen-s.WhiteMen, s.BlackKings))
	wkRange := int64(b.At(50-s.BlackMen-s.WhiteMen-s.BlackKings, s.WhiteKings))
	return checker * bkRange * wkRange
}

// ErrInvalidSlice is returned when a slice exceeds this engine's piece
// budget (spec.md §4.2 "Error conditions").
var ErrInvalidSlice = errors.New("index: slice exceeds MAX_PIECES")

func validateSlice(s slice.Slice) error {
	if !s.Valid() {
		return errors.Wrapf(ErrInvalidSlice, "slice %+v", errors.Safe(s))
	}
	return nil
}

// PositionToIndex computes (slice, index64) for a legal position p. The
// caller is responsible for having already reversed p to its canonical
// (black-dominant) orientation if s.NeedsReversal(); PositionToIndex always
// indexes p and s exactly as given.
func (idx *Indexer) PositionToIndex(p slice.Position, s slice.Slice) (int64, error) {
	if err := validateSlice(s); err != nil {
		return 0, err
	}

	bmFull := p.BlackMen()
	bm0Mask := bmFull & row0
	bm0 := bitboard.Popcount(uint64(bm0Mask))
	if bm0 > maxPiecesPerSide {
		return 0, errors.Newf("index: %d black men on rank 0 exceeds %d", bm0, maxPiecesPerSide)
	}

	checkerIndexBase := idx.manIndexBase[s.BlackMen][s.WhiteMen][bm0]
	bmIdx := idx.rankForward(bmFull&^bm0Mask, 5)
	bm0Idx := idx.rankForward(bm0Mask, 0)

	wmFull := p.WhiteMen()
	wmIdx := idx.rankReverse(wmFull, bmFull)

	bkFull := p.BlackKings()
	bkIdx := idx.rankInterference(bkFull, bmFull|wmFull)

	wkFull := p.WhiteKings()
	wkIdx := idx.rankInterference(wkFull, bmFull|wmFull|bkFull)

	b := idx.binom
	bmRange := int64(b.At(40, s.BlackMen-bm0))
	bm0Range := int64(b.At(5, bm0))
	bkRange := int64(b.At(50-s.BlackMen-s.WhiteMen, s.BlackKings))
	wkRange := int64(b.At(50-s.BlackMen-s.WhiteMen-s.BlackKings, s.WhiteKings))

	checkerIndex := int64(bm0Idx) + checkerIndexBase +
		int64(bmIdx)*bm0Range +
		int64(wmIdx)*bm0Range*bmRange

	index64 := int64(wkIdx) +
		int64(bkIdx)*wkRange +
		checkerIndex*bkRange*wkRange
	return index64, nil
}

// IndexToPosition is the inverse of PositionToIndex: given a slice and a
// valid index in [0, SliceSize(s)), it reconstructs the unique position
// that maps to that index.
func (idx *Indexer) IndexToPosition(s slice.Slice, index64 int64) (slice.Position, error) {
	if err := validateSlice(s); err != nil {
		return slice.Position{}, err
	}
	if index64 < 0 || index64 >= idx.SliceSize(s) {
		return slice.Position{}, errors.Newf("index: index %d out of range for slice %+v", index64, errors.Safe(s))
	}

	b := idx.binom
	bkRange := int64(b.At(50-s.BlackMen-s.WhiteMen, s.BlackKings))
	wkRange := int64(b.At(50-s.BlackMen-s.WhiteMen-s.BlackKings, s.WhiteKings))

	multiplier := bkRange * wkRange
	checkerIndex := index64 / multiplier
	index64 -= checkerIndex * multiplier

	bm0 := 0
	for bm0 = min(s.BlackMen, maxPiecesPerSide); bm0 > 0; bm0-- {
		if idx.manIndexBase[s.BlackMen][s.WhiteMen][bm0-1] > checkerIndex {
			break
		}
	}
	checkerIndex -= idx.manIndexBase[s.BlackMen][s.WhiteMen][bm0]

	bmRange := int64(b.At(40, s.BlackMen-bm0))
	bm0Range := int64(b.At(5, bm0))

	mul := bmRange * bm0Range
	wmIdx := uint32(checkerIndex / mul)
	checkerIndex -= int64(wmIdx) * mul

	mul = bm0Range
	bmIdx := uint32(checkerIndex / mul)
	checkerIndex -= int64(bmIdx) * mul

	bm0Idx := uint32(checkerIndex)

	bkIdx := uint32(index64 / wkRange)
	index64 -= int64(bkIdx) * wkRange
	wkIdx := uint32(index64)

	bmMask := idx.placeForward(bmIdx, 40, 5, s.BlackMen-bm0)
	bmMask |= idx.placeForward(bm0Idx, 5, 0, bm0)

	wmMask := idx.placeReverseWithInterference(wmIdx, s.WhiteMen, bmMask)

	bkMask := idx.placeForwardWithInterference(bkIdx, s.BlackKings, bmMask|wmMask)
	wkMask := idx.placeForwardWithInterference(wkIdx, s.WhiteKings, bmMask|wmMask|bkMask)

	return slice.Position{
		Black: bmMask | bkMask,
		White: wmMask | wkMask,
		King:  bkMask | wkMask,
	}, nil
}

// rankForward ranks bb's occupied squares (scanned LSB to MSB) within a
// contiguous, interference-free domain that starts offset squares in from
// square 0 (used for the two black-men groups, which are placed before any
// other piece type and so never need to skip already-occupied squares).
func (idx *Indexer) rankForward(bb bitboard.Board, offset int) uint32 {
	var rank uint32
	piece := 1
	rest := uint64(bb)
	for rest != 0 {
		bit := bitboard.LSB(rest)
		rest = bitboard.ClearLSB(rest)
		sq0 := bitboard.BitToSquare(bit) - offset
		rank += idx.binom.At(sq0, piece)
		piece++
	}
	return rank
}

// rankInterference ranks bb's occupied squares (LSB to MSB), subtracting
// from each piece's square the count of interfering-group squares below it
// — the standard combinatorial-rank correction for "this square, minus the
// slots already consumed by earlier groups below it".
func (idx *Indexer) rankInterference(bb, interfering bitboard.Board) uint32 {
	var rank uint32
	piece := 1
	rest := uint64(bb)
	for rest != 0 {
		bit := bitboard.LSB(rest)
		rest = bitboard.ClearLSB(rest)
		sq0 := bitboard.BitToSquare(bit)
		below := uint64(interfering) & ((uint64(1) << uint(bit)) - 1)
		sq0 -= bitboard.Popcount(below)
		rank += idx.binom.At(sq0, piece)
		piece++
	}
	return rank
}

// rankReverse ranks bb's occupied squares scanned MSB to LSB (highest
// square first), used for white men: they are ranked in decreasing square
// order since their legal domain (squares 5..49) runs opposite to black
// men's.
func (idx *Indexer) rankReverse(bb, interfering bitboard.Board) uint32 {
	var rank uint32
	piece := 1
	rest := uint64(bb)
	for rest != 0 {
		bit := bitboard.MSB(rest)
		rest ^= uint64(1) << uint(bit)
		sq0 := (bitboard.NumSquares - 1) - bitboard.BitToSquare(bit)
		above := uint64(interfering) &^ ((uint64(1) << uint(bit)) - 1)
		sq0 -= bitboard.Popcount(above)
		rank += idx.binom.At(sq0, piece)
		piece++
	}
	return rank
}

// placeForward decodes rank into numPieces squares within the domain
// [firstSquare, firstSquare+numSquares), using the standard greedy
// combinatorial-number-system digit decomposition against the binomial
// table, with no skipping (the inverse of rankForward).
func (idx *Indexer) placeForward(rank uint32, numSquares, firstSquare, numPieces int) bitboard.Board {
	var board bitboard.Board
	logical := numSquares - 1
	for piece := numPieces; piece > 0; piece-- {
		for idx.binom.At(logical, piece) > rank {
			logical--
		}
		rank -= idx.binom.At(logical, piece)
		board |= bitboard.Square(logical + firstSquare)
	}
	return board
}

// placeForwardWithInterference is placeForward's inverse for rankInterference:
// decoded logical squares are mapped to actual board squares by skipping
// squares already in occupied, scanning from square 0 upward.
func (idx *Indexer) placeForwardWithInterference(rank uint32, numPieces int, occupied bitboard.Board) bitboard.Board {
	var board bitboard.Board
	logical := bitboard.NumSquares - 1
	for piece := numPieces; piece > 0; piece-- {
		for idx.binom.At(logical, piece) > rank {
			logical--
		}
		rank -= idx.binom.At(logical, piece)
		sq := freeSquareForward(logical, occupied)
		board |= bitboard.Square(sq)
		occupied |= bitboard.Square(sq)
	}
	return board
}

// placeReverseWithInterference is rankReverse's inverse: white men occupy a
// 45-square domain (squares 5..49), decoded logical squares are mapped to
// actual squares by skipping occupied squares, scanning from square 49 down
// to square 5.
func (idx *Indexer) placeReverseWithInterference(rank uint32, numPieces int, occupied bitboard.Board) bitboard.Board {
	var board bitboard.Board
	logical := 44
	for piece := numPieces; piece > 0; piece-- {
		for idx.binom.At(logical, piece) > rank {
			logical--
		}
		rank -= idx.binom.At(logical, piece)
		sq := freeSquareReverseInRange(logical, occupied, 5)
		board |= bitboard.Square(sq)
		occupied |= bitboard.Square(sq)
	}
	return board
}

// freeSquareForward returns the square that is the logicalRank-th (0-based,
// counting from square 0 upward) square not set in occupied.
func freeSquareForward(logicalRank int, occupied bitboard.Board) int {
	count := -1
	for sq := 0; sq < bitboard.NumSquares; sq++ {
		if occupied&bitboard.Square(sq) != 0 {
			continue
		}
		count++
		if count == logicalRank {
			return sq
		}
	}
	panic("index: freeSquareForward ran off the board; occupied/rank inconsistent")
}

// freeSquareReverseInRange returns the square that is the logicalRank-th
// (0-based, counting from square 49 downward) square not set in occupied,
// restricted to squares >= lowSquare.
func freeSquareReverseInRange(logicalRank int, occupied bitboard.Board, lowSquare int) int {
	count := -1
	for sq := bitboard.NumSquares - 1; sq >= lowSquare; sq-- {
		if occupied&bitboard.Square(sq) != 0 {
			continue
		}
		count++
		if count == logicalRank {
			return sq
		}
	}
	panic("index: freeSquareReverseInRange ran off the board; occupied/rank inconsistent")
}
