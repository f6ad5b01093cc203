// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bitboard implements the 54-bit packed board representation used
// throughout egdb-go: a 64-bit word with one bit per playable square plus
// four permanent gap bits, chosen so that a diagonal step of +5 or -5 (and
// +6 or -6) always lands on a legal square or on a gap, never off the board.
package bitboard

import "math/bits"

// Board is a 54-bit packed mask over the 50 playable squares of a 10x10
// international draughts board, plus four permanent gap bits at positions
// 10, 21, 32 and 43. Squares are numbered 0..49 in the usual draughts
// notation order (square 0 is the top-left playable dark square).
type Board uint64

const (
	// gap0..gap3 are the permanent unplayable bit positions, one inserted
	// after every block of 10 playable squares, so a ±5/±6 diagonal shift
	// never has to special-case a board edge.
	gap0 = 10
	gap1 = 21
	gap2 = 32
	gap3 = 43

	// Gaps is the union of the four permanent gap bits.
	Gaps Board = (1 << gap0) | (1 << gap1) | (1 << gap2) | (1 << gap3)

	// NumSquares is the number of playable squares.
	NumSquares = 50

	// NumBits is the width of the packed representation (50 playable + 4 gap).
	NumBits = 54
)

// bitcountTable16 is the 16-bit popcount fallback table, built once. Even
// though math/bits.OnesCount64 compiles to a hardware POPCNT on every
// platform Go supports today, the table is kept (and exercised by
// PopcountTable) because the original engine explicitly falls back to it
// when the CPU lacks a populate-count instruction, and §4.1 calls that
// fallback out by name.
var bitcountTable16 [1 << 16]uint8

func init() {
	for i := range bitcountTable16 {
		bitcountTable16[i] = uint8(bits.OnesCount16(uint16(i)))
	}
}

// PopcountTable returns the population count of n using the 16-bit table
// fallback, bypassing any hardware POPCNT instruction. Use Popcount for the
// hot path.
func PopcountTable(n uint64) int {
	return int(bitcountTable16[n&0xffff]) +
		int(bitcountTable16[(n>>16)&0xffff]) +
		int(bitcountTable16[(n>>32)&0xffff]) +
		int(bitcountTable16[(n>>48)&0xffff])
}

// Popcount returns the number of set bits in n, using a hardware popcount
// instruction when the Go runtime can lower it to one (true on every
// supported GOARCH as of this writing).
func Popcount(n uint64) int {
	return bits.OnesCount64(n)
}

// LSB returns the bit index of the least significant set bit of n, or 64
// if n is zero.
func LSB(n uint64) int {
	return bits.TrailingZeros64(n)
}

// MSB returns the bit index of the most significant set bit of n, or -1 if
// n is zero.
func MSB(n uint64) int {
	return 63 - bits.LeadingZeros64(n)
}

// ClearLSB returns n with its least significant set bit cleared.
func ClearLSB(n uint64) uint64 {
	return n & (n - 1)
}

// Square returns the bitboard with exactly one bit set, corresponding to
// playable square sq (0..49). A gap bit is inserted after every 10 playable
// squares, so the packed bit index is sq + sq/10.
func Square(sq int) Board {
	return 1 << (sq + sq/10)
}

// ToSquare returns the playable square number (0..49) of the single set bit
// in b. The caller must ensure b has exactly one bit set and that bit is not
// one of the four gap bits.
func ToSquare(b Board) int {
	return BitToSquare(LSB(uint64(b)))
}

// BitToSquare converts a packed bit index (not one of the 4 gap bits) back
// to its playable square number.
func BitToSquare(bit int) int {
	return bit - bit/11
}

// BitOf returns the packed bit index (0..53) of the single set bit in b.
func BitOf(b Board) int {
	return LSB(uint64(b))
}

// AllSquares is the union of all 50 playable bits (the gap bits are never
// set here).
var AllSquares Board = func() Board {
	var b Board
	for sq := 0; sq < NumSquares; sq++ {
		b |= Square(sq)
	}
	return b
}()

// Reverse mirrors b top-to-bottom: playable square sq maps to square
// NumSquares-1-sq, and gap bits map to gap bits. This is the bit-level half
// of the "reverse" operation in spec.md §3 (Material reversal); color-swap
// is the caller's responsibility (see slice.Reverse).
func Reverse(b Board) Board {
	var r Board
	rest := uint64(b)
	for rest != 0 {
		bit := LSB(rest)
		rest = ClearLSB(rest)
		r |= 1 << (53 - bit)
	}
	return r
}
