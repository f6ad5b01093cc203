// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package search

import (
	"sort"

	"github.com/eygilbert/egdb-go/movegen"
	"github.com/eygilbert/egdb-go/slice"
)

// MTCLessThanThreshold is the MTC sentinel meaning "no move-to-conversion
// value stored for this position" (spec.md §6's MTC_LESS_THAN_THRESHOLD,
// mirrored here as its own constant so this package need not import egdb).
const MTCLessThanThreshold int32 = 1

// MTCLookup is a direct, non-search lookup into an MTC-format subdb. It
// returns the already-doubled ply count described in spec.md §6, or
// MTCLessThanThreshold.
type MTCLookup func(p slice.Position, color slice.Color) int32

// MoveDistance pairs a successor position with its move-to-conversion
// distance, sorted so the first entry is the best move to play
// (original_source/egdb/mtc_probe.cpp: move_distance, sorted by
// std::sort with the direction depending on whether the root is a win or a
// loss).
type MoveDistance struct {
	Successor slice.Position
	Distance  int32
}

// MTCProbe walks p's successors looking for the fastest conversion,
// transliterating original_source/egdb/mtc_probe.cpp's mtc_probe. It
// requires both a WLD Searcher (to classify p and its successors) and an
// MTCLookup into the companion MTC-format subdb. ok is false whenever the
// original would have returned 0: no MTC heuristic applies and the caller
// should fall back to a plain search.
func MTCProbe(s *Searcher, mtc MTCLookup, moves movegen.MoveGen, p slice.Position, color slice.Color) (wldValue Value, dists []MoveDistance, ok bool) {
	parentDistance := mtc(p, color)
	if parentDistance == MTCLessThanThreshold {
		return Unknown, nil, false
	}

	wldValue = s.LookupWithSearch(p, color, false)
	if wldValue != Win && wldValue != Loss {
		return Unknown, nil, false
	}

	successors := moves.Successors(p, color)

	if wldValue == Win {
		for _, succ := range successors {
			value := s.LookupWithSearch(succ, color.Other(), false)
			switch value {
			case Loss:
				distance := mtc(succ, color.Other())
				if distance == MTCLessThanThreshold {
					// A short win exists; let a plain search find it instead
					// of trusting the MTC heuristic.
					return Unknown, nil, false
				}
				dists = append(dists, MoveDistance{Successor: succ, Distance: distance})
			case Draw, Win:
				// fine, not a candidate conversion move
			default:
				return Unknown, nil, false
			}
		}
		if len(dists) == 0 {
			return Unknown, nil, false
		}
		sort.Slice(dists, func(i, j int) bool { return dists[i].Distance < dists[j].Distance })
	} else { // wldValue == Loss
		for _, succ := range successors {
			if moves.IsConversionMove(p, succ) {
				continue
			}
			distance := mtc(succ, color.Other())
			if distance == MTCLessThanThreshold {
				continue
			}
			dists = append(dists, MoveDistance{Successor: succ, Distance: distance})
		}
		if len(dists) == 0 {
			return Unknown, nil, false
		}
		sort.Slice(dists, func(i, j int) bool { return dists[i].Distance > dists[j].Distance })
	}

	// Fix the even/odd problem: a successor's distance is measured from the
	// other side's perspective, one ply later than the parent's.
	if parentDistance == dists[0].Distance {
		for i := range dists {
			dists[i].Distance--
		}
	}

	return wldValue, dists, true
}
