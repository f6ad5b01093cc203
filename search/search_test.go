// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eygilbert/egdb-go/bitboard"
	"github.com/eygilbert/egdb-go/slice"
)

func TestNegate(t *testing.T) {
	require.Equal(t, Loss, negate(Win))
	require.Equal(t, Win, negate(Loss))
	require.Equal(t, Draw, negate(Draw))
	require.Equal(t, DrawOrLoss, negate(WinOrDraw))
	require.Equal(t, WinOrDraw, negate(DrawOrLoss))
	require.Equal(t, Unknown, negate(Unknown))
	require.Equal(t, SubdbUnavailable, negate(SubdbUnavailable))
}

func TestIsGreaterOrEqual(t *testing.T) {
	require.True(t, isGreaterOrEqual(Win, Win))
	require.False(t, isGreaterOrEqual(Draw, Win))
	require.True(t, isGreaterOrEqual(Win, Draw))
	require.True(t, isGreaterOrEqual(WinOrDraw, Draw))
	require.True(t, isGreaterOrEqual(Loss, Loss))
	require.True(t, isGreaterOrEqual(Win, Loss))
}

func TestBestValueImprove(t *testing.T) {
	require.Equal(t, Win, bestValueImprove(Unknown, Win))
	require.Equal(t, WinOrDraw, bestValueImprove(Draw, Unknown))
	require.Equal(t, Draw, bestValueImprove(Draw, Loss))
	require.Equal(t, Loss, bestValueImprove(Loss, Loss))
}

// fixtureMoveGen is a tiny synthetic move graph: positions are compared by
// value equality (slice.Position has no pointer fields), so tests build a
// graph out of distinct bitboard patterns rather than real draughts moves.
type fixtureMoveGen struct {
	jump map[slice.Position]bool
	next map[slice.Position][]slice.Position
}

func (m *fixtureMoveGen) HasJump(p slice.Position, _ slice.Color) bool { return m.jump[p] }
func (m *fixtureMoveGen) Successors(p slice.Position, _ slice.Color) []slice.Position {
	return m.next[p]
}
func (*fixtureMoveGen) IsConversionMove(slice.Position, slice.Position) bool { return false }

func TestLookupWithSearchDirectNoCapture(t *testing.T) {
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(45)}
	moves := &fixtureMoveGen{}
	lookup := func(p slice.Position, c slice.Color) Value {
		require.Equal(t, root, p)
		return WinOrDraw
	}
	s := NewSearcher(lookup, moves)
	require.Equal(t, WinOrDraw, s.LookupWithSearch(root, slice.Black, false))
}

func TestLookupWithSearchResolvesCaptureViaSuccessor(t *testing.T) {
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(2)}
	after := slice.Position{Black: bitboard.Square(3), White: bitboard.Square(2)}

	moves := &fixtureMoveGen{
		jump: map[slice.Position]bool{root: true},
		next: map[slice.Position][]slice.Position{root: {after}},
	}
	lookup := func(p slice.Position, c slice.Color) Value {
		if p == after {
			// after has no capture, so lookup is consulted directly; from
			// White's point of view here, White is losing.
			require.Equal(t, slice.White, c)
			return Loss
		}
		t.Fatalf("unexpected direct lookup of %+v", p)
		return Unknown
	}

	s := NewSearcher(lookup, moves)
	// negate(Loss) from white's perspective is Win for black, the side that
	// captured at the root.
	require.Equal(t, Win, s.LookupWithSearch(root, slice.Black, false))
}

func TestLookupWithSearchNoMovesIsLoss(t *testing.T) {
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(2)}
	moves := &fixtureMoveGen{jump: map[slice.Position]bool{root: true}}
	lookup := func(p slice.Position, c slice.Color) Value {
		t.Fatalf("lookup should not be consulted when a capture is forced")
		return Unknown
	}
	s := NewSearcher(lookup, moves)
	require.Equal(t, Loss, s.LookupWithSearch(root, slice.Black, false))
}

func TestLookupWithSearchZeroMaterialShortcut(t *testing.T) {
	p := slice.Position{White: bitboard.Square(1) | bitboard.Square(2)}
	moves := &fixtureMoveGen{}
	lookup := func(slice.Position, slice.Color) Value {
		t.Fatalf("zero-material positions should never reach lookup or movegen")
		return Unknown
	}
	s := NewSearcher(lookup, moves)
	require.Equal(t, Loss, s.LookupWithSearch(p, slice.Black, false))
	require.Equal(t, Win, s.LookupWithSearch(p, slice.White, false))
}

func TestLookupWithSearchNodeBudgetReturnsUnknown(t *testing.T) {
	// A move graph with no repeating position and no terminal state: every
	// position has a forced capture into a brand new position, so the only
	// way the search can end is by exhausting a budget.
	var counter bitboard.Board
	moves := &infiniteJumpGen{counter: &counter}

	lookup := func(slice.Position, slice.Color) Value {
		t.Fatalf("lookup should never be reached in an all-capture graph")
		return Unknown
	}

	s := NewSearcher(lookup, moves)
	s.MaxNodes = 10
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(2)}
	require.Equal(t, Unknown, s.LookupWithSearch(root, slice.Black, false))
}

// infiniteJumpGen always reports a capture and always returns one brand new
// successor (King field carries a monotonically increasing counter so no
// two generated positions are ever equal, which keeps isRepetition from
// ever firing).
type infiniteJumpGen struct {
	counter *bitboard.Board
}

func (*infiniteJumpGen) HasJump(slice.Position, slice.Color) bool { return true }
func (g *infiniteJumpGen) Successors(p slice.Position, _ slice.Color) []slice.Position {
	*g.counter++
	return []slice.Position{{Black: p.Black, White: p.White, King: *g.counter}}
}
func (*infiniteJumpGen) IsConversionMove(slice.Position, slice.Position) bool { return false }

func TestLookupWithSearchTimeoutReturnsUnknown(t *testing.T) {
	var counter bitboard.Board
	moves := &infiniteJumpGen{counter: &counter}
	lookup := func(slice.Position, slice.Color) Value { return Unknown }

	s := NewSearcher(lookup, moves)
	s.Timeout = time.Nanosecond
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(2)}
	require.Equal(t, Unknown, s.LookupWithSearch(root, slice.Black, false))
}

func TestIsRepetitionDetectsKingShuffle(t *testing.T) {
	var history [MaxRepDepth + 1]slice.Position
	p0 := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(40), King: bitboard.Square(1)}
	history[0] = p0

	// Four plies later, the same position recurs with no man ever moving
	// (the white man stays on square 40 while the black king moves).
	require.True(t, isRepetition(&history, p0, 4))

	// If the men bitboard differs (a man moved along the way), it is not a
	// repetition even though the position coordinates match by coincidence.
	history[0] = slice.Position{Black: bitboard.Square(1), White: bitboard.Square(40)}
	require.False(t, isRepetition(&history, p0, 4))
}

func TestSelfVerifyIgnoresUnknown(t *testing.T) {
	// A root with a forced capture into an ever-growing chain of brand new
	// positions never bottoms out at a decisive value within MaxRepDepth, so
	// the forced root search SelfVerify performs comes back Unknown.
	var counter bitboard.Board
	moves := &infiniteJumpGen{counter: &counter}
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(2)}
	lookup := func(p slice.Position, c slice.Color) Value {
		t.Fatalf("lookup should never be reached in an all-capture graph")
		return Unknown
	}
	s := NewSearcher(lookup, moves)
	require.False(t, s.SelfVerify(root, slice.Black, Win))
}

func TestSelfVerifyDetectsMismatch(t *testing.T) {
	root := slice.Position{Black: bitboard.Square(1), White: bitboard.Square(45)}
	moves := &fixtureMoveGen{}
	lookup := func(p slice.Position, c slice.Color) Value { return Loss }
	s := NewSearcher(lookup, moves)
	require.True(t, s.SelfVerify(root, slice.Black, Win))
	require.False(t, s.SelfVerify(root, slice.Black, Loss))
}
