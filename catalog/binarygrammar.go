// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package catalog

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/slice"
)

// repairSymbol is one entry of a DTW subdb's Re-Pair symbol table: two
// indices into the symbol table being composed (a leaf symbol has
// left == right == the literal run length it covers). This exercise's
// HuffmanDTW codec does not consume the real symbol expansion (see
// codec/huffman_dtw.go's documented simplification); the parser still reads
// every field so later records in the same file decode at the right byte
// offset.
type repairSymbol struct {
	Left, Right uint16
}

type huffCode struct {
	Value  uint16
	Length uint8
}

// parseBinaryIndexFile reads the .idx_dtw binary grammar (spec.md §6) and
// returns one Subdb per header record.
func parseBinaryIndexFile(f *File) ([]*Subdb, error) {
	file, err := os.Open(f.IndexPath)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: opening %s", errors.Safe(f.IndexPath))
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var subdbs []*Subdb
	for {
		sdb, err := parseDTWHeader(r, f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		subdbs = append(subdbs, sdb)
	}
	return subdbs, nil
}

func parseDTWHeader(r *bufio.Reader, f *File) (*Subdb, error) {
	var npieces, bm, bk, wm, wk, color uint8
	var subsliceNum uint16
	var permutation uint8

	if err := binary.Read(r, binary.LittleEndian, &npieces); err != nil {
		return nil, err // io.EOF is the expected "no more records" signal
	}
	for _, f := range []*uint8{&bm, &bk, &wm, &wk, &color} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &subsliceNum); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
	}
	if err := binary.Read(r, binary.LittleEndian, &permutation); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
	}

	repairSyms, err := readRepairSyms(r)
	if err != nil {
		return nil, err
	}
	_ = repairSyms

	huffCodes, err := readHuffCodes(r)
	if err != nil {
		return nil, err
	}

	var firstIdxBlock, numIdxBlocks, nMiniblocks uint32
	var firstMiniblock uint16
	if err := binary.Read(r, binary.LittleEndian, &firstIdxBlock); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
	}
	if err := binary.Read(r, binary.LittleEndian, &firstMiniblock); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
	}
	if err := binary.Read(r, binary.LittleEndian, &numIdxBlocks); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
	}
	if err := binary.Read(r, binary.LittleEndian, &nMiniblocks); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated .idx_dtw header")
	}

	// miniblock_lengths: packed 17-bit-per-entry array. This exercise's
	// HuffmanDTW codec derives bit offsets itself by saving decode state at
	// every mini-block boundary as it scans (codec.SubIndexEntry), rather
	// than consulting precomputed lengths, so the packed array is only
	// skipped here to keep the cursor aligned.
	packedBytes := (int(nMiniblocks)*17 + 7) / 8
	if _, err := io.CopyN(io.Discard, r, int64(packedBytes)); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated miniblock_lengths array")
	}

	_ = huffCodes // length/value pairs belong to the builder-generated code table (see huffman_dtw.go); only the cursor position matters here

	// hasPartials (spec.md §9 "Mispredict draw behavior") is a per-subdb
	// property the real engine derives from which escape codes its huffman
	// table actually uses. This exercise assigns its own fixed-width code
	// table, and every subdb parsed here gets a codec built with hasPartials
	// false; no option in egdb.Options changes it.
	sdb := &Subdb{
		Slice:      slice.Slice{BlackMen: int(bm), BlackKings: int(bk), WhiteMen: int(wm), WhiteKings: int(wk)},
		Color:      slice.Color(color),
		File:       f,
		Codec:      codec.NewHuffmanDTW(false),
		FirstBlock: int64(firstIdxBlock),
		// firstMiniblock is a mini-block-granularity index (spec.md §3
		// "first_subidx_block": "modular 64-position mini-block indices"),
		// not the literal byte offset StartByte otherwise holds (spec.md §6
		// "BASE…:<first_block>/<start_byte>", parsed in textgrammar.go);
		// scale it up so every other consumer of StartByte (subdbRangeInBlock
		// included) can keep treating it as a plain byte offset.
		StartByte: int(firstMiniblock) * codec.MiniBlockSize,
		codecKind: "huffman",
	}
	sdb.Indices = make([]int64, 0, numIdxBlocks)
	return sdb, nil
}

func readRepairSyms(r *bufio.Reader) ([]repairSymbol, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated n_repair_syms")
	}
	syms := make([]repairSymbol, n)
	for i := range syms {
		if err := binary.Read(r, binary.LittleEndian, &syms[i]); err != nil {
			return nil, errors.Wrap(err, "catalog: truncated repair_syms")
		}
	}
	return syms, nil
}

func readHuffCodes(r *bufio.Reader) ([]huffCode, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, "catalog: truncated n_huffcodes")
	}
	codes := make([]huffCode, n)
	for i := range codes {
		if err := binary.Read(r, binary.LittleEndian, &codes[i].Value); err != nil {
			return nil, errors.Wrap(err, "catalog: truncated huffcodes")
		}
		if err := binary.Read(r, binary.LittleEndian, &codes[i].Length); err != nil {
			return nil, errors.Wrap(err, "catalog: truncated huffcodes")
		}
	}
	return codes, nil
}
