// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

// wldSkip is the "skip" table from the original engine's shared compression
// tables: the run length encoded by each of the wldSkipCount tokens in a
// skip family, increasing from short runs (useful near format boundaries)
// to long ones (useful deep inside a lopsided endgame).
var wldSkip = [...]uint32{
	5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24,
	25, 26, 27, 28, 29, 30, 31, 32, 36, 40, 44, 48, 52, 56, 60, 70, 80, 90,
	100, 150, 200, 250, 300, 400, 500, 650, 800, 1000, 1200, 1400, 1600,
	2000, 2400, 3200, 4000, 5000, 7500, 10000,
}

const wldSkipCount = len(wldSkip) // 58

// wldPackedTokens is the number of bytes (0..80) that pack four known
// values rather than encode a skip run: 3^4, one base-3 digit per position.
const wldPackedTokens = 81

// wldSkipFamily orders the skip-run values. The 174 bytes from
// wldPackedTokens up to (not including) wldEscapeToken split into three
// families of wldSkipCount bytes: runs of win, loss, and draw. The fourth
// entry, unknown, is reached only through the escape token's value byte.
var wldSkipFamily = [4]Value{Win, Loss, Draw, Unknown}

// wldEscapeToken is the dedicated two-byte escape (spec.md §4.3(a)): the
// first following byte is the run's repeat count, and the second selects
// the one value every position of the run gets, as
// wldSkipFamily[byte%4]. The second byte is not decoded as a packed group
// of per-position values. The token is excluded from the generic
// skip-family tables NewRunlenWLD builds, since its run length and value
// come from the stream itself rather than a per-byte table lookup.
const wldEscapeToken = 255

// RunlenWLD implements the legacy run-length WLD format (spec.md §4.3(a),
// table shapes grounded in builddb/compression_tables.cpp's
// init_runlengths — the only surviving construction of this format's tables
// in this exercise; no lookup-side decoder for it survives, so the
// accumulate-then-overshoot decode loop below is carried over from
// egdb_wld_tunstall_v1.cpp's dblookup, which walks bytes the same way
// against a per-byte run-length table).
type RunlenWLD struct {
	runlength [256]uint32
	// compressedValue is the constant value a skip-family byte repeats;
	// meaningful only for byte >= wldPackedTokens.
	compressedValue [256]Value
}

// NewRunlenWLD builds the shared, read-only decode tables.
func NewRunlenWLD() *RunlenWLD {
	c := &RunlenWLD{}
	for b := 0; b < wldPackedTokens; b++ {
		c.runlength[b] = 4
	}
	for b := wldPackedTokens; b < wldEscapeToken; b++ {
		offset := b - wldPackedTokens
		c.runlength[b] = wldSkip[offset%wldSkipCount]
		c.compressedValue[b] = wldSkipFamily[offset/wldSkipCount]
	}
	return c
}

// quadrupleDigit extracts digit k (0 = most significant of 4) of a base-3
// packed byte, mapped through {0: Win, 1: Loss, 2: Draw} — the three values
// a packed token can hold; a packed quadruple has no digit for unknown.
func quadrupleDigit(b byte, k int) Value {
	pow := 1
	for i := 0; i < 3-k; i++ {
		pow *= 3
	}
	switch (int(b) / pow) % 3 {
	case 0:
		return Win
	case 1:
		return Loss
	default:
		return Draw
	}
}

// Decode implements Codec.
func (c *RunlenWLD) Decode(block []byte, start DecodeState, targetLocalIdx uint32) (Value, error) {
	nIdx := uint32(0)
	i := start.ByteOffset
	for {
		if i >= len(block) {
			return Unknown, ErrShortBlock
		}
		b := block[i]
		if b == wldEscapeToken {
			if i+2 >= len(block) {
				return Unknown, ErrShortBlock
			}
			n := uint32(block[i+1])
			value := wldSkipFamily[int(block[i+2])%len(wldSkipFamily)]
			if nIdx+n > targetLocalIdx {
				return value, nil
			}
			nIdx += n
			i += 3
			continue
		}
		n := c.runlength[b]
		if nIdx+n > targetLocalIdx {
			if b < wldPackedTokens {
				return quadrupleDigit(b, int(targetLocalIdx-nIdx)), nil
			}
			return c.compressedValue[b], nil
		}
		nIdx += n
		i++
	}
}

// ScanMini implements Codec.
func (c *RunlenWLD) ScanMini(block []byte, start DecodeState) (SubIndex, error) {
	var sub SubIndex
	index := uint32(0)
	i := start.ByteOffset
	for mini := 0; mini < MiniBlocksPerBlock; mini++ {
		sub[mini] = SubIndexEntry{Index: index, State: DecodeState{ByteOffset: i}}
		end := i + MiniBlockSize
		for i < end && i < len(block) {
			b := block[i]
			if b == wldEscapeToken {
				if i+2 >= len(block) {
					return sub, ErrShortBlock
				}
				index += uint32(block[i+1])
				i += 3
				continue
			}
			index += c.runlength[b]
			i++
		}
	}
	return sub, nil
}
