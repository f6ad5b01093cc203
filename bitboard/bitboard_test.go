// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bitboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSquareRoundTrip(t *testing.T) {
	for sq := 0; sq < NumSquares; sq++ {
		b := Square(sq)
		require.Equal(t, 1, Popcount(uint64(b)), "square %d", sq)
		require.Equal(t, sq, ToSquare(b), "square %d", sq)
	}
}

func TestGapsAreNeverPlayable(t *testing.T) {
	require.Zero(t, AllSquares&Gaps)
	require.Equal(t, NumSquares, Popcount(uint64(AllSquares)))
}

func TestPopcountMatchesTable(t *testing.T) {
	cases := []uint64{0, 1, 0xffff, 0xdeadbeef, ^uint64(0)}
	for _, c := range cases {
		require.Equal(t, PopcountTable(c), Popcount(c), "n=%x", c)
	}
}

func TestReverseIsInvolution(t *testing.T) {
	b := Square(0) | Square(5) | Square(49) | Square(24)
	r := Reverse(b)
	require.Equal(t, b, Reverse(r))
}

func TestReverseMapsEndpoints(t *testing.T) {
	require.Equal(t, Square(NumSquares-1), Reverse(Square(0)))
	require.Equal(t, Square(0), Reverse(Square(NumSquares-1)))
}

func TestReversePreservesGaps(t *testing.T) {
	require.Equal(t, Gaps, Reverse(Gaps))
}

func TestLSBMSB(t *testing.T) {
	b := Square(3) | Square(40)
	require.Equal(t, BitOf(Square(3)), LSB(uint64(b)))
	require.Equal(t, BitOf(Square(40)), MSB(uint64(b)))
}
