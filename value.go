// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import "github.com/eygilbert/egdb-go/codec"

// Value is the user-facing result of a Lookup (spec.md §6 "Value
// enumeration"). Its first six members share numeric encoding with
// codec.Value by construction (both list Unknown/Win/Loss/Draw/DrawOrLoss/
// WinOrDraw in the same order), so mapping a decoded codec.Value onto a
// Value is a plain conversion for every format except DTW, which carries a
// half-ply depth instead of a WLD class (see fromDTW).
type Value int32

const (
	// SubdbUnavailable means the position's slice exceeds this driver's
	// piece-count capacity, or its data file could not be opened.
	SubdbUnavailable Value = -2
	// NotInCache means a conditional Lookup found its target block not
	// resident; the caller may retry non-conditionally to force the load.
	NotInCache Value = -1
	// Unknown covers both "this format cannot answer directly" (the
	// position needs the search shim) and "an I/O error occurred, logged,
	// treated as Unknown for this one lookup" (spec.md §7).
	Unknown Value = 0
	Win     Value = 1
	Loss    Value = 2
	Draw    Value = 3
	// DrawOrLoss and WinOrDraw are the two v2/Huffman "partial" classes
	// (spec.md §4.3(d)).
	DrawOrLoss Value = 4
	WinOrDraw  Value = 5
)

// MTC sentinel values (spec.md §6); MTCThreshold is the ply count at or
// above which a stored MTC value is considered "high" for the purposes of
// search.MTCProbe (SPEC_FULL.md "Supplemented features").
const (
	MTCUnknown          Value = 0
	MTCLessThanThreshold Value = 1
	MTCThreshold         Value = 10
)

func (v Value) String() string {
	switch v {
	case SubdbUnavailable:
		return "subdb-unavailable"
	case NotInCache:
		return "not-in-cache"
	case Unknown:
		return "unknown"
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	case DrawOrLoss:
		return "draw-or-loss"
	case WinOrDraw:
		return "win-or-draw"
	default:
		return "value"
	}
}

// fromWLD converts a codec.Value produced by the WLD, Tunstall, or MTC
// codecs directly: all three share Value's numeric encoding already (MTC's
// codec.Value is either MTCLessThanThreshold or a literal ply count that
// codec/runlen_mtc.go has already doubled, matching spec.md §6's
// "2*(byte-94) plies" transform).
func fromWLD(v codec.Value) Value {
	return Value(v)
}

// fromDTW converts the half-ply depth codec/huffman_dtw.go decodes into the
// caller-facing ply count spec.md §6 describes ("returned depth is
// half-plies; caller multiplies by 2 and adds 1 for wins"). isWin is the
// WLD class the same position's WLD subdb reports, since DTW blocks only
// store a depth and rely on a companion WLD lookup for the class.
func fromDTW(halfPlies codec.Value, isWin bool) Value {
	plies := int32(halfPlies) * 2
	if isWin {
		plies++
	}
	return Value(plies)
}
