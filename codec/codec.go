// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package codec implements the four compressed block formats a cache block
// may hold (spec.md §4.3): run-length WLD, run-length MTC, Tunstall v1/v2,
// and Huffman+Re-Pair (DTW). Every format shares one shape: a byte or bit
// stream that expands into a sequence of per-position values, decodable
// either all the way to a target local index (Decode) or just far enough to
// fill the 64-entry sub-index table used by the block cache (ScanMini).
package codec

import "github.com/cockroachdb/errors"

// MiniBlockSize is the number of compressed-stream bytes a single mini-block
// covers (spec.md §4.5 "the worst-case linear decode inside a lookup to one
// 64-byte mini-block"). Every cache block holds a whole number of
// mini-blocks, and ScanMini always returns exactly MiniBlocksPerBlock
// entries.
const MiniBlockSize = 64

// MiniBlocksPerBlock is the fixed sub-index table size described in §4.5
// ("the 64 entries").
const MiniBlocksPerBlock = 64

// Value is the raw value a codec decodes for one position. Its
// interpretation is format-specific: WLD codecs produce one of
// Unknown/Win/Loss/Draw/DrawOrLoss/WinOrDraw; the MTC codec produces either
// MTCUnknown, MTCLessThanThreshold, or a literal ply count; the DTW codec
// produces a half-ply depth. egdb.Lookup maps a codec.Value to the
// user-facing egdb.Value according to the subdb's format.
type Value uint32

// WLD values (spec.md §6 "Value enumeration", the subset a codec itself can
// produce — SUBDB_UNAVAILABLE and NOT_IN_CACHE are driver-level sentinels
// with no codec representation).
const (
	Unknown Value = iota
	Win
	Loss
	Draw
	DrawOrLoss
	WinOrDraw
)

// MTC sentinel values (spec.md §6), returned by the MTC codec instead of a
// literal ply count when the stored value is not yet known or has not
// reached the format's reporting threshold.
const (
	MTCUnknown          Value = 0
	MTCLessThanThreshold Value = 1
)

// DecodeState is the position a decoder resumes from: spec.md §4.3 "Decode
// state". For the run-length and Tunstall codecs ByteOffset is the byte
// cursor into the block passed to Decode/ScanMini; RunlenMTC.Decode also
// reads CurrentValue as an optional tail bound (see its doc). The Huffman
// codec uses BitOffset, LastValue and CurrentValue, the two-value LRU that lets it
// predict "same as the value before last" without re-walking the stream.
type DecodeState struct {
	ByteOffset   int
	BitOffset    int
	LastValue    Value
	CurrentValue Value
}

// SubIndexEntry is one mini-block's worth of resume information: the global
// index at the mini-block's start, plus the DecodeState a codec needs to
// keep decoding from exactly that point (spec.md §3 "CacheBlock" — "for
// Huffman the bit offset plus last-two-values state needed to resume
// decoding"). Byte-aligned codecs (run-length, Tunstall) only ever populate
// State.ByteOffset, since every mini-block boundary in those formats is also
// a valid decode boundary; Huffman populates BitOffset/LastValue/
// CurrentValue too, since a Huffman code can straddle a mini-block boundary.
type SubIndexEntry struct {
	Index uint32
	State DecodeState
}

// SubIndex holds the MiniBlocksPerBlock entries ScanMini produces for one
// subdb's portion of a cache block: subindex[k] is the resume point at the
// start of mini-block k (spec.md §4.5 "Sub-index construction").
type SubIndex [MiniBlocksPerBlock]SubIndexEntry

// Codec decodes one compressed-block format. Implementations are stateless
// and safe for concurrent use; all mutable decode state lives in the
// DecodeState/SubIndex values passed and returned.
type Codec interface {
	// Decode returns the value stored at targetLocalIdx, where
	// targetLocalIdx is relative to startState's position (i.e. the caller
	// has already subtracted the sub-index's base as spec.md §4.6 step 9
	// describes). block is the subdb's compressed bytes within the cache
	// block, the same slice ScanMini scanned; start is the saved state of
	// the mini-block the caller selected via the sub-index binary search,
	// so decoding resumes at that mini-block's offset inside block.
	Decode(block []byte, start DecodeState, targetLocalIdx uint32) (Value, error)

	// ScanMini decodes the stream from start, recording the index (relative
	// to start) and the decode state at the start of each of the
	// MiniBlocksPerBlock mini-blocks. When block ends before the last
	// mini-block is reached, every remaining entry holds the index and state
	// at the block's end; only a code cut off by the block's end is an error
	// (spec.md §4.5 "Sub-index construction").
	ScanMini(block []byte, start DecodeState) (SubIndex, error)
}

// ErrShortBlock is returned when a decode runs off the end of block before
// satisfying the request — a corrupt or mis-sized compressed block.
var ErrShortBlock = errors.New("codec: compressed block ended before target index")
