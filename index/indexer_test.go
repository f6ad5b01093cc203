// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package index

import (
	"testing"

	"github.com/eygilbert/egdb-go/slice"
	"github.com/stretchr/testify/require"
)

// smallSlices covers every legal slice signature of at most 3 total pieces
// with at most 2 of each piece type, small enough to exhaustively walk every index in
// SliceSize(s) within a unit test's time budget.
func smallSlices() []slice.Slice {
	var out []slice.Slice
	for bm := 0; bm <= 2; bm++ {
		for bk := 0; bk <= 2; bk++ {
			for wm := 0; wm <= 2; wm++ {
				for wk := 0; wk <= 2; wk++ {
					s := slice.Slice{BlackMen: bm, BlackKings: bk, WhiteMen: wm, WhiteKings: wk}
					if s.Valid() && s.TotalPieces() <= 3 {
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}

// TestIndexRoundTripExhaustiveSmallSlices walks every index in every small
// slice's index space and checks IndexToPosition(PositionToIndex(p)) == p by
// round-tripping the other direction: index -> position -> index, which
// spec.md §8 "Round-trip laws" states must be the identity.
func TestIndexRoundTripExhaustiveSmallSlices(t *testing.T) {
	idx := NewIndexer()
	for _, s := range smallSlices() {
		size := idx.SliceSize(s)
		require.Greater(t, size, int64(0), "slice %+v", s)
		for i := int64(0); i < size; i++ {
			p, err := idx.IndexToPosition(s, i)
			require.NoError(t, err, "slice %+v index %d", s, i)
			require.True(t, p.Valid(), "slice %+v index %d produced invalid position %+v", s, i, p)
			require.Equal(t, s, p.Material(), "slice %+v index %d round-tripped to a different material signature", s, i)

			got, err := idx.PositionToIndex(p, s)
			require.NoError(t, err, "slice %+v index %d", s, i)
			require.Equal(t, i, got, "slice %+v: index %d -> position -> index mismatch", s, i)
		}
	}
}

// TestIndexRoundTripDistinctIndicesDistinctPositions checks the bijection
// property from the other side: distinct indices within one slice must
// decode to distinct positions, never colliding.
func TestIndexRoundTripDistinctIndicesDistinctPositions(t *testing.T) {
	idx := NewIndexer()
	s := slice.Slice{BlackMen: 2, BlackKings: 1, WhiteMen: 0, WhiteKings: 0}
	size := idx.SliceSize(s)
	seen := make(map[slice.Position]int64, size)
	for i := int64(0); i < size; i++ {
		p, err := idx.IndexToPosition(s, i)
		require.NoError(t, err)
		if prev, ok := seen[p]; ok {
			t.Fatalf("indices %d and %d both decode to position %+v", prev, i, p)
		}
		seen[p] = i
	}
}

// TestIndexOutOfRange checks the boundary behavior spec.md §8 calls for:
// IndexToPosition rejects indices at or beyond SliceSize, and PositionToIndex
// rejects slices that exceed the piece budget.
func TestIndexOutOfRange(t *testing.T) {
	idx := NewIndexer()
	s := slice.Slice{BlackMen: 1}
	size := idx.SliceSize(s)

	_, err := idx.IndexToPosition(s, size)
	require.Error(t, err)

	_, err = idx.IndexToPosition(s, -1)
	require.Error(t, err)

	oversized := slice.Slice{BlackMen: 5, BlackKings: 5, WhiteMen: 5, WhiteKings: 5}
	_, err = idx.PositionToIndex(slice.Position{}, oversized)
	require.ErrorIs(t, err, ErrInvalidSlice)
}

// FuzzIndexRoundTrip drives the index -> position -> index round-trip law
// (spec.md §8) over randomly chosen (slice, index) pairs instead of a fixed
// table, in place of a dedicated property-testing library (see DESIGN.md).
func FuzzIndexRoundTrip(f *testing.F) {
	for _, s := range smallSlices() {
		f.Add(uint8(s.BlackMen), uint8(s.BlackKings), uint8(s.WhiteMen), uint8(s.WhiteKings), uint32(0))
	}

	idx := NewIndexer()
	f.Fuzz(func(t *testing.T, bm, bk, wm, wk uint8, rawIndex uint32) {
		s := slice.Slice{
			BlackMen:   int(bm % 6),
			BlackKings: int(bk % 6),
			WhiteMen:   int(wm % 6),
			WhiteKings: int(wk % 6),
		}
		if !s.Valid() {
			return
		}
		size := idx.SliceSize(s)
		if size == 0 {
			return
		}
		index := int64(rawIndex) % size

		p, err := idx.IndexToPosition(s, index)
		require.NoError(t, err)
		require.True(t, p.Valid())

		got, err := idx.PositionToIndex(p, s)
		require.NoError(t, err)
		require.Equal(t, index, got)
	})
}
