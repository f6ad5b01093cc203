// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package search

import (
	"sync/atomic"
	"time"

	"github.com/cockroachdb/crlib/crtime"

	"github.com/eygilbert/egdb-go/movegen"
	"github.com/eygilbert/egdb-go/slice"
)

// MaxRepDepth is MAXREPDEPTH from original_source/egdb/egdb_search.h: the
// iterative-deepening ceiling and the size of the repetition-check stack.
const MaxRepDepth = 64

// nodeCheckInterval is how often (in nodes) a running search reevaluates its
// node and wall-clock budgets (spec.md §5 "interruptible only at its
// node-budget/time-budget checkpoints (every 64 nodes)").
const nodeCheckInterval = 64

// PositionLookup is a direct, non-search subdb lookup: the callback
// original_source/egdb/egdb_search.cpp calls through
// handle->lookup(handle, p, color, 0). A Searcher never looks inside a
// cache or catalog itself; it only ever calls this function and
// MoveGen.Successors/HasJump.
type PositionLookup func(p slice.Position, color slice.Color) Value

// Searcher resolves a position's value via alpha-beta search over its
// successors (spec.md §4.7). The zero value is not usable; construct with
// NewSearcher.
type Searcher struct {
	lookup PositionLookup
	moves  movegen.MoveGen

	// MaxNodes and Timeout are the two termination budgets from spec.md §5;
	// either exhausting returns Unknown rather than a guessed value. Zero
	// means unbounded.
	MaxNodes int64
	Timeout  time.Duration

	// RequiresNonsideCaptureTest mirrors egdb_excludes_some_nonside_caps:
	// some v2-format subdbs elide positions where the side not to move
	// could have captured, so a direct lookup is only trusted once this
	// reports false for the position (original_source/egdb/egdb_search.cpp:
	// EGDB_INFO::requires_nonside_capture_test).
	RequiresNonsideCaptureTest func(p slice.Position) bool

	// maxDepthReached tracks get_maxdepth()/reset_maxdepth() from the
	// original EGDB_INFO, across whichever goroutine last ran a search.
	maxDepthReached int64
}

// MaxDepthReached reports the deepest ply the most recent LookupWithSearch
// call expanded (original_source/egdb/egdb_search.h: get_maxdepth).
func (s *Searcher) MaxDepthReached() int {
	return int(atomic.LoadInt64(&s.maxDepthReached))
}

// ResetMaxDepthReached zeroes the counter MaxDepthReached reports.
func (s *Searcher) ResetMaxDepthReached() {
	atomic.StoreInt64(&s.maxDepthReached, 0)
}

// NewSearcher builds a Searcher that resolves positions lookup cannot answer
// directly by walking successors generated by moves.
func NewSearcher(lookup PositionLookup, moves movegen.MoveGen) *Searcher {
	return &Searcher{lookup: lookup, moves: moves}
}

// searchRun holds the mutable state of one LookupWithSearch call: the node
// counter, the deadline, and the repetition-check stack. A fresh one is
// built per call so a *Searcher is safe to reuse (and to call concurrently,
// unlike the original's single shared rep_check_positions array, which its
// own header comments as not thread-safe).
type searchRun struct {
	s           *Searcher
	nodes       int64
	deadline    crtime.Mono
	hasDeadline bool
	history     [MaxRepDepth + 1]slice.Position
}

// budgetExceeded unwinds a searchRun via panic/recover, the Go analogue of
// the original's setjmp/longjmp early exit out of arbitrarily deep
// recursion once maxnodes or the wall clock is exhausted.
type budgetExceeded struct{}

// LookupWithSearch resolves p's value by iterative deepening from depth 1 to
// MaxRepDepth-1, returning as soon as a depth's result is decisive (Win, Draw,
// or Loss) or a budget is exhausted (returning Unknown). forceRootSearch
// mirrors egdb_search.cpp's parameter of the same name: even if a direct
// lookup of p itself would succeed, depth 0 is still expanded into
// successors, used for self-verification (see SelfVerify and egdb.Verify).
func (s *Searcher) LookupWithSearch(p slice.Position, color slice.Color, forceRootSearch bool) (value Value) {
	run := &searchRun{s: s}
	if s.Timeout > 0 {
		run.deadline = crtime.NowMono()
		run.hasDeadline = true
	}

	value = Unknown
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(budgetExceeded); ok {
				value = Unknown
				return
			}
			panic(r)
		}
	}()

	for maxdepth := 1; maxdepth < MaxRepDepth; maxdepth++ {
		value = run.lookupWithRepCheck(p, color, 0, maxdepth, Loss, Win, forceRootSearch)
		switch value {
		case Win, Draw, Loss:
			return value
		}
	}
	return value
}

// checkBudget increments the node counter and panics with budgetExceeded
// once every nodeCheckInterval nodes if either budget is exhausted.
func (run *searchRun) checkBudget() {
	run.nodes++
	if run.nodes%nodeCheckInterval != 0 {
		return
	}
	if run.s.MaxNodes > 0 && run.nodes > run.s.MaxNodes {
		panic(budgetExceeded{})
	}
	if run.hasDeadline && run.deadline.Elapsed() > run.s.Timeout {
		panic(budgetExceeded{})
	}
}

// isRepetition reports whether p repeats an earlier frame in history at the
// same parity, with no man move since (original_source/egdb/egdb_search.cpp:
// is_repetition). Only king shuffles can repeat; any man move changes the
// men bitboard irreversibly.
func isRepetition(history *[MaxRepDepth + 1]slice.Position, p slice.Position, depth int) bool {
	men := (p.Black | p.White) &^ p.King
	for i := depth - 4; i >= 0; i -= 2 {
		earlier := history[i]
		earlierMen := (earlier.Black | earlier.White) &^ earlier.King
		if men != earlierMen {
			break
		}
		if earlier == p {
			return true
		}
	}
	return false
}

// lookupWithRepCheck is EGDB_INFO::lookup_with_rep_check transliterated: a
// depth-limited alpha-beta search whose leaves either answer directly from
// PositionLookup (no capture available) or recurse into Successors (a
// capture forces a search). It negates/swaps alpha-beta the way the
// original does, since the WLD lattice has no signed magnitude to flip.
func (run *searchRun) lookupWithRepCheck(p slice.Position, color slice.Color, depth, maxdepth int, alpha, beta Value, forceRootSearch bool) Value {
	run.history[depth] = p
	run.checkBudget()

	if p.Black == 0 {
		if color == slice.Black {
			return Loss
		}
		return Win
	}
	if p.White == 0 {
		if color == slice.Black {
			return Win
		}
		return Loss
	}

	if isRepetition(&run.history, p, depth) {
		return Draw
	}

	sideCapture := run.s.moves.HasJump(p, color)
	if !sideCapture {
		if depth != 0 || !forceRootSearch {
			needsNonsideTest := run.s.RequiresNonsideCaptureTest != nil && run.s.RequiresNonsideCaptureTest(p)
			if !needsNonsideTest {
				return run.s.lookup(p, color)
			}
			if !run.s.moves.HasJump(p, color.Other()) {
				if value := run.s.lookup(p, color); value != Unknown {
					return value
				}
			}
		}
	}

	if int64(depth) > atomic.LoadInt64(&run.s.maxDepthReached) {
		atomic.StoreInt64(&run.s.maxDepthReached, int64(depth))
	}
	if depth >= maxdepth {
		return Unknown
	}

	successors := run.s.moves.Successors(p, color)
	if len(successors) == 0 {
		return Loss
	}

	best := Loss
	for _, succ := range successors {
		value := negate(run.lookupWithRepCheck(succ, color.Other(), depth+1, maxdepth, negate(beta), negate(alpha), forceRootSearch))
		if isGreaterOrEqual(value, beta) {
			return bestValueImprove(value, beta)
		}
		best = bestValueImprove(value, best)
		if isGreater(best, alpha) {
			alpha = best
		}
	}
	return best
}
