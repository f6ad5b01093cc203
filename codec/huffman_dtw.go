// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

// escapeKind names the nine non-literal code families a Huffman+Re-Pair
// (DTW) entry can belong to, grounded in egdb_wld_huffman.cpp's dblookup
// switch on the low bits of the 14-bit code window.
type escapeKind uint8

const (
	escapeNone escapeKind = iota
	escapeArbLength16
	escapeArbLength32
	escapeMispredictUnknown
	escapeMispredictWin
	escapeMispredictLoss
	escapeMispredictDraw
	escapeMispredictDrawOrLoss
	escapeMispredictWinOrDraw
	escapeEndOfBlock
)

// huffEntry is one entry of the 2^maxHuffcodeBits-wide decode table: a
// normal entry carries a run length and the number of bits its code
// consumed; an escape entry (runLength == 0) carries which escapeKind
// applies instead.
type huffEntry struct {
	runLength  uint16
	codeLength uint8
	kind       escapeKind
}

// maxHuffcodeBits bounds the bit width of any single Huffman code (spec.md
// §4.3(d): "a stream of 14-bit-limited codes"), and hence the decode
// table's size.
const maxHuffcodeBits = 14

// HuffmanDTW implements the two-layer Huffman + Re-Pair DTW format (spec.md
// §4.3(d)). The Huffman layer decodes 14-bit-limited codes into run
// lengths (the Re-Pair symbols this format's builder would otherwise
// expand explicitly collapse, for decode purposes, into "this many
// positions share one value"); escape codes bypass run-length prediction
// entirely for rare literal values and arbitrarily long runs.
//
// The real engine's decode table (huffman_decompress.txt) is generated by
// the database builder's Re-Pair/Huffman dictionary construction, which
// spec.md's Non-goals exclude; this package reproduces the decode
// algorithm and the mispredict table (both present in egdb_wld_huffman.cpp
// independent of that generated table) over a table of its own construction
// (see DESIGN.md).
type HuffmanDTW struct {
	table       [1 << maxHuffcodeBits]huffEntry
	mispredict  [4][4]Value
	hasPartials bool
}

// buildMispredictTable reproduces build_mispredict_table from
// egdb_wld_huffman.cpp exactly: given the last resolved value and a
// "not this value" hint, it picks the one remaining value of
// {win, loss, draw} consistent with both.
func buildMispredictTable() [4][4]Value {
	var t [4][4]Value
	for v0 := Value(0); v0 < 4; v0++ {
		for v1 := Value(0); v1 < 4; v1++ {
			switch v1 {
			case Win:
				if v0 == Draw {
					t[v0][v1] = Loss
				} else {
					t[v0][v1] = Draw
				}
			case Loss:
				if v0 == Draw {
					t[v0][v1] = Win
				} else {
					t[v0][v1] = Draw
				}
			case Draw:
				if v0 == Win {
					t[v0][v1] = Loss
				} else {
					t[v0][v1] = Win
				}
			}
		}
	}
	return t
}

// registerCode fills every table window whose low `length` bits equal
// pattern, the standard "expand a prefix code across every window sharing
// it" trick a canonical Huffman decode table uses so a single array lookup
// resolves a code of any length.
func (h *HuffmanDTW) registerCode(pattern uint16, length uint8, runLength uint16, kind escapeKind) {
	step := uint32(1) << length
	for base := uint32(pattern); base < (1 << maxHuffcodeBits); base += step {
		h.table[base] = huffEntry{runLength: runLength, codeLength: length, kind: kind}
	}
}

// huffCodeBits is the fixed width this package's own code assignment gives
// every code (spec.md §4.3(d) describes a true variable-length Huffman
// code, built from the Re-Pair symbol frequencies the database builder
// computes; that frequency data is builder-owned and excluded by the
// Non-goals, so this package assigns one code length uniformly instead of
// reconstructing a real canonical Huffman code table — see DESIGN.md). The
// decode algorithm around it (14-bit window lookup, escape dispatch,
// mispredict resolution, bit cursor) is unaffected by this simplification.
const huffCodeBits = 8

// NewHuffmanDTW builds a HuffmanDTW codec. hasPartials mirrors a subdb's
// per-file "haspartials" flag (spec.md §9 "Mispredict draw behavior"):
// when true, MISPREDICT_DRAW always resolves to a literal Draw instead of
// consulting the mispredict table.
func NewHuffmanDTW(hasPartials bool) *HuffmanDTW {
	h := &HuffmanDTW{mispredict: buildMispredictTable(), hasPartials: hasPartials}

	h.registerCode(0, huffCodeBits, 0, escapeEndOfBlock)
	h.registerCode(1, huffCodeBits, 0, escapeArbLength16)
	h.registerCode(2, huffCodeBits, 0, escapeArbLength32)
	h.registerCode(3, huffCodeBits, 0, escapeMispredictUnknown)
	h.registerCode(4, huffCodeBits, 0, escapeMispredictWin)
	h.registerCode(5, huffCodeBits, 0, escapeMispredictLoss)
	h.registerCode(6, huffCodeBits, 0, escapeMispredictDraw)
	h.registerCode(7, huffCodeBits, 0, escapeMispredictDrawOrLoss)
	h.registerCode(8, huffCodeBits, 0, escapeMispredictWinOrDraw)

	// Every remaining byte value is a normal run-length code covering
	// (byte - 8) positions.
	for b := uint16(9); b < (1 << huffCodeBits); b++ {
		h.registerCode(b, huffCodeBits, b-8, escapeNone)
	}
	return h
}

// RunLengthCode returns the byte this codec's table uses to encode a run
// of the given length, for building synthetic test fixtures (no real
// compressed database exists in this exercise to decode instead).
func (h *HuffmanDTW) RunLengthCode(runLength uint16) (byte, bool) {
	if runLength == 0 || runLength > (1<<huffCodeBits)-9 {
		return 0, false
	}
	return byte(runLength + 8), true
}

// read14 reads up to 14 bits from block starting at bitOffset, LSB first,
// mirroring the engine's "read 3 bytes, shift by bitoffset%8, mask 0x3fff"
// idiom.
func read14(block []byte, bitOffset int) uint32 {
	byteOff := bitOffset / 8
	var w uint32
	for k := 0; k < 3; k++ {
		if byteOff+k < len(block) {
			w |= uint32(block[byteOff+k]) << (8 * k)
		}
	}
	w >>= uint(bitOffset % 8)
	return w & ((1 << maxHuffcodeBits) - 1)
}

// readUint reads numBits bits (<= 32) from block starting at bitOffset,
// LSB first.
func readUint(block []byte, bitOffset, numBits int) uint32 {
	byteOff := bitOffset / 8
	shift := bitOffset % 8
	nBytes := (shift+numBits+7)/8 + 1
	var w uint64
	for k := 0; k < nBytes; k++ {
		if byteOff+k < len(block) {
			w |= uint64(block[byteOff+k]) << (8 * k)
		}
	}
	w >>= uint(shift)
	return uint32(w & ((1 << uint(numBits)) - 1))
}

// Decode implements Codec.
func (h *HuffmanDTW) Decode(block []byte, start DecodeState, targetLocalIdx uint32) (Value, error) {
	nIdx := uint32(0)
	bitOffset := start.BitOffset
	lastValue, value := start.LastValue, start.CurrentValue
	for nIdx <= targetLocalIdx {
		window := read14(block, bitOffset)
		entry := h.table[window]
		if entry.runLength == 0 {
			switch entry.kind {
			case escapeArbLength16:
				bitOffset += int(entry.codeLength)
				nIdx += readUint(block, bitOffset, 16)
				bitOffset += 16
				lastValue, value = value, lastValue
			case escapeArbLength32:
				bitOffset += int(entry.codeLength)
				nIdx += readUint(block, bitOffset, 32)
				bitOffset += 32
				lastValue, value = value, lastValue
			case escapeMispredictUnknown:
				value = Unknown
				bitOffset += int(entry.codeLength)
			case escapeMispredictWin:
				value = Win
				bitOffset += int(entry.codeLength)
			case escapeMispredictLoss:
				value = Loss
				bitOffset += int(entry.codeLength)
			case escapeMispredictDraw:
				if h.hasPartials {
					value = Draw
				} else {
					value = h.mispredict[lastValue][value]
				}
				bitOffset += int(entry.codeLength)
			case escapeMispredictDrawOrLoss:
				value = DrawOrLoss
				bitOffset += int(entry.codeLength)
			case escapeMispredictWinOrDraw:
				value = WinOrDraw
				bitOffset += int(entry.codeLength)
			case escapeEndOfBlock:
				return Unknown, ErrShortBlock
			}
			// A mispredict escape resolves this run's value directly but
			// still covers exactly one position (spec.md §4.3(d)): the
			// run ends here.
			if entry.kind != escapeArbLength16 && entry.kind != escapeArbLength32 {
				if nIdx == targetLocalIdx {
					return value, nil
				}
				nIdx++
				continue
			}
		} else {
			nIdx += uint32(entry.runLength)
			bitOffset += int(entry.codeLength)
			lastValue, value = value, lastValue
		}
	}
	return lastValue, nil
}

// ScanMini implements Codec.
func (h *HuffmanDTW) ScanMini(block []byte, start DecodeState) (SubIndex, error) {
	var sub SubIndex
	nIdx := uint32(0)
	bitOffset := start.BitOffset
	lastValue, value := start.LastValue, start.CurrentValue
	nextMiniAt := start.BitOffset
	mini := 0
	for mini < MiniBlocksPerBlock {
		for bitOffset >= nextMiniAt && mini < MiniBlocksPerBlock {
			sub[mini] = SubIndexEntry{
				Index: nIdx,
				State: DecodeState{BitOffset: bitOffset, LastValue: lastValue, CurrentValue: value},
			}
			mini++
			nextMiniAt += MiniBlockSize * 8
		}
		if mini >= MiniBlocksPerBlock {
			break
		}
		window := read14(block, bitOffset)
		entry := h.table[window]
		if entry.runLength == 0 {
			switch entry.kind {
			case escapeArbLength16:
				bitOffset += int(entry.codeLength)
				nIdx += readUint(block, bitOffset, 16)
				bitOffset += 16
				lastValue, value = value, lastValue
			case escapeArbLength32:
				bitOffset += int(entry.codeLength)
				nIdx += readUint(block, bitOffset, 32)
				bitOffset += 32
				lastValue, value = value, lastValue
			case escapeEndOfBlock:
				for ; mini < MiniBlocksPerBlock; mini++ {
					sub[mini] = SubIndexEntry{
						Index: nIdx,
						State: DecodeState{BitOffset: bitOffset, LastValue: lastValue, CurrentValue: value},
					}
				}
				return sub, nil
			default:
				switch entry.kind {
				case escapeMispredictUnknown:
					value = Unknown
				case escapeMispredictWin:
					value = Win
				case escapeMispredictLoss:
					value = Loss
				case escapeMispredictDraw:
					if h.hasPartials {
						value = Draw
					} else {
						value = h.mispredict[lastValue][value]
					}
				case escapeMispredictDrawOrLoss:
					value = DrawOrLoss
				case escapeMispredictWinOrDraw:
					value = WinOrDraw
				}
				bitOffset += int(entry.codeLength)
				nIdx++
			}
		} else {
			nIdx += uint32(entry.runLength)
			bitOffset += int(entry.codeLength)
			lastValue, value = value, lastValue
		}
	}
	return sub, nil
}
