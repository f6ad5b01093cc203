// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package search implements the search shim (spec.md §4.7, C7): alpha-beta
// over the 5-valued WLD lattice with a repetition check, used both to
// resolve positions a direct database lookup cannot answer (the side to
// move has a capture) and to self-verify a stored value by forcing a search
// of successors even when a direct lookup would succeed.
package search

// Value is the WLD lattice spec.md §4.7 names, plus the two sentinels a
// PositionLookup callback may return. It shares egdb.Value's numeric
// encoding by construction so a Driver can convert a search.Value to an
// egdb.Value with a plain cast; search does not import egdb; egdb imports
// search instead, to avoid a dependency cycle (egdb.Driver.Verify calls into
// search, not the reverse).
type Value int32

const (
	// SubdbUnavailable and Unknown are passed through unchanged by every
	// lattice helper below; they are not part of the WLD total order.
	SubdbUnavailable Value = -2
	Unknown          Value = 0
	Win              Value = 1
	Loss             Value = 2
	Draw             Value = 3
	DrawOrLoss       Value = 4
	WinOrDraw        Value = 5
)

func (v Value) String() string {
	switch v {
	case SubdbUnavailable:
		return "subdb-unavailable"
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

// negate flips a value to the other side's point of view
// (original_source/egdb/egdb_search.cpp: EGDB_INFO::negate).
func negate(v Value) Value {
	switch v {
	case Win:
		return Loss
	case Loss:
		return Win
	case Draw:
		return Draw
	case WinOrDraw:
		return DrawOrLoss
	case DrawOrLoss:
		return WinOrDraw
	default:
		// Unknown and SubdbUnavailable negate to themselves.
		return v
	}
}

// isGreaterOrEqual reports whether left is at least as good as right in the
// WLD lattice (original_source/egdb/egdb_search.cpp: EGDB_INFO::is_greater_or_equal).
func isGreaterOrEqual(left, right Value) bool {
	switch right {
	case Win:
		return left == Win
	case Draw:
		return left == Draw || left == WinOrDraw || left == Win
	case Loss:
		return true
	case WinOrDraw:
		return left == WinOrDraw || left == Win
	case DrawOrLoss:
		return left == Win || left == WinOrDraw || left == Draw || left == DrawOrLoss
	default: // Unknown, SubdbUnavailable
		return left != Loss
	}
}

// isGreater reports whether left is strictly better than right
// (original_source/egdb/egdb_search.cpp: EGDB_INFO::is_greater).
func isGreater(left, right Value) bool {
	switch right {
	case Win:
		return false
	case Draw:
		return left == WinOrDraw || left == Win
	case Loss:
		return left != Loss
	case WinOrDraw:
		return left == Win
	case DrawOrLoss:
		return left != Loss
	default: // Unknown, SubdbUnavailable
		return left != Loss && left != Unknown && left != SubdbUnavailable
	}
}

// bestValueImprove folds value into a running best-so-far
// (original_source/egdb/egdb_search.cpp: EGDB_INFO::bestvalue_improve). The
// running best starts at Loss and only ever moves up the lattice.
func bestValueImprove(value, best Value) Value {
	switch best {
	case Win:
		return Win
	case Draw:
		if value == WinOrDraw || value == Win {
			return value
		}
		if value == Unknown || value == SubdbUnavailable {
			return WinOrDraw
		}
		return best
	case Loss:
		return value
	case WinOrDraw:
		if value == Win {
			return value
		}
		return best
	case DrawOrLoss:
		if value == Loss {
			return best
		}
		return value
	default: // Unknown, SubdbUnavailable
		if value == WinOrDraw || value == Win {
			return value
		}
		if value == Draw {
			return WinOrDraw
		}
		return best
	}
}
