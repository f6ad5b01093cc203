// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

// mtcSkip is the run-length for each of the mtcSkipTokens "less than
// threshold" tokens, grounded in builddb/compression_tables.cpp's
// mtc_skip table: short runs early on, ballooning to very long runs for
// the common case of a large block of below-threshold positions.
var mtcSkip = [...]uint32{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	21, 22, 23, 24, 25, 26, 27, 28, 29, 30,
	31, 32, 33, 34, 35, 36, 37, 38, 39, 40,
	41, 42, 43, 44, 45, 46, 47, 48, 49, 50,
	100, 150, 200, 250, 300, 350, 400, 450, 500, 550,
	600, 650, 700, 750, 800, 850, 900, 950, 1000, 2000,
	3000, 4000, 5000, 6000, 7000, 8000, 9000, 10000, 20000, 30000,
	40000, 50000, 60000, 70000, 800000, 90000, 100000, 300000, 1000000, 3000000,
	10000000, 30000000, 100000000, 300000000,
}

// mtcSkipTokens is the number of bytes below which a byte is a skip token
// rather than a literal ply count (spec.md's "bytes < 94").
const mtcSkipTokens = 94

// RunlenMTC implements the run-length moves-to-conversion format (spec.md
// §4.3(b), grounded in egdb_mtc_runlen.cpp). Each byte is one of:
//
//   - byte < mtcSkipTokens: a skip token covering mtcSkip[byte] consecutive
//     below-threshold positions.
//   - byte >= mtcSkipTokens: exactly one position, whose MTC is
//     2*(byte-mtcSkipTokens) plies.
type RunlenMTC struct {
	runlength [256]uint32
}

// NewRunlenMTC builds the shared run-length table.
func NewRunlenMTC() *RunlenMTC {
	c := &RunlenMTC{}
	for b := 0; b < 256; b++ {
		if b < mtcSkipTokens {
			c.runlength[b] = mtcSkip[b]
		} else {
			c.runlength[b] = 1
		}
	}
	return c
}

func mtcByteValue(b byte) Value {
	if b < mtcSkipTokens {
		return MTCLessThanThreshold
	}
	return Value(2 * (int(b) - mtcSkipTokens))
}

// Decode implements Codec. Mirroring egdb_mtc_runlen.cpp's dblookup, the
// scan runs forward from start's byte offset unless targetLocalIdx is
// closer to the end of the known index range carried in start.CurrentValue
// (used here as a tail bound in positions, not a DB value) — callers that
// do not have a useful tail bound simply leave it zero, which always
// selects the forward scan (see the Open Question note in DESIGN.md).
func (c *RunlenMTC) Decode(block []byte, start DecodeState, targetLocalIdx uint32) (Value, error) {
	tailIdx := uint32(start.CurrentValue)
	if tailIdx > uint32(start.ByteOffset) && tailIdx-targetLocalIdx < targetLocalIdx {
		return c.decodeReverse(block, start, targetLocalIdx, tailIdx)
	}
	return c.decodeForward(block, start, targetLocalIdx)
}

func (c *RunlenMTC) decodeForward(block []byte, start DecodeState, targetLocalIdx uint32) (Value, error) {
	nIdx := uint32(0)
	i := start.ByteOffset
	for {
		if i >= len(block) {
			return MTCLessThanThreshold, ErrShortBlock
		}
		b := block[i]
		n := c.runlength[b]
		if nIdx+n > targetLocalIdx {
			return mtcByteValue(b), nil
		}
		nIdx += n
		i++
	}
}

// decodeReverse scans backward from the end of the mini-block, used when
// targetLocalIdx is closer to tailIdx (the index just past the last byte of
// the scanned region) than to start.ByteOffset.
func (c *RunlenMTC) decodeReverse(block []byte, start DecodeState, targetLocalIdx, tailIdx uint32) (Value, error) {
	nIdx := tailIdx
	i := len(block) - 1
	for nIdx > targetLocalIdx {
		if i < start.ByteOffset {
			return MTCLessThanThreshold, ErrShortBlock
		}
		nIdx -= c.runlength[block[i]]
		i--
	}
	i++
	if i < 0 || i >= len(block) {
		return MTCLessThanThreshold, ErrShortBlock
	}
	return mtcByteValue(block[i]), nil
}

// ScanMini implements Codec.
func (c *RunlenMTC) ScanMini(block []byte, start DecodeState) (SubIndex, error) {
	var sub SubIndex
	index := uint32(0)
	i := start.ByteOffset
	for mini := 0; mini < MiniBlocksPerBlock; mini++ {
		sub[mini] = SubIndexEntry{Index: index, State: DecodeState{ByteOffset: i}}
		end := i + MiniBlockSize
		for ; i < end && i < len(block); i++ {
			index += c.runlength[block[i]]
		}
	}
	return sub, nil
}
