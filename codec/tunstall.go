// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

import "github.com/cockroachdb/errors"

// TunstallTable is one catalog entry: a 256-entry Tunstall dictionary
// mapping a byte to a run length and an offset into a shared value-run
// list, grounded in egdb_wld_tunstall_v1.cpp's dblookup
// ("decompress_catalog[dbpointer->catalog_entry]").
//
// The real engine ships this table precomputed (its content is the
// product of the database builder's Tunstall dictionary optimization,
// which spec.md's Non-goals exclude as "the database builder"); this
// package reproduces the table's shape and the decode algorithm that reads
// it, not the specific bytes of any particular compiled-in dictionary (see
// DESIGN.md).
type TunstallTable struct {
	Runlength       [256]uint32
	ValueRunsOffset [256]uint32
}

// valueRunTriple is the shared, variable-length list every TunstallTable's
// ValueRunsOffset entries index into: a run of (virtualValue, runLen)
// pairs ending at the run whose cumulative length first exceeds the
// remaining index.
type valueRunTriple struct {
	virtualValue Value
	runLen       uint32
}

// Dictionary holds every catalog entry plus the shared value-run list a
// format's subdbs draw from. One Dictionary is built per open database and
// shared by every Tunstall-coded subdb in it.
type Dictionary struct {
	Catalog   []TunstallTable
	ValueRuns []valueRunTriple
}

// NewDictionary builds an empty dictionary; callers (the catalog package)
// append catalog entries and value runs as they are parsed from the
// database's compiled-in table resource.
func NewDictionary() *Dictionary {
	return &Dictionary{}
}

// AddCatalogEntry appends a catalog entry and returns its index.
func (d *Dictionary) AddCatalogEntry(t TunstallTable) int {
	d.Catalog = append(d.Catalog, t)
	return len(d.Catalog) - 1
}

// AddValueRun appends one (value, runLen) pair to the shared value-run list
// and returns its offset, for use as a TunstallTable.ValueRunsOffset entry.
func (d *Dictionary) AddValueRun(value Value, runLen uint32) uint32 {
	d.ValueRuns = append(d.ValueRuns, valueRunTriple{virtualValue: value, runLen: runLen})
	return uint32(len(d.ValueRuns) - 1)
}

// identityVmap is the no-op virtual-to-real value remap used by Tunstall
// v1, which has no per-block permutation (spec.md §4.3(c): "v2 adds
// per-block vmap[4]").
var identityVmap = [4]Value{Unknown, Win, Loss, Draw}

// tunstallVmapPermutations enumerates the 24 (4!) permutations of
// {unknown, win, loss, draw} a Tunstall v2 block can select, indexed by
// permutation number as stored in the .idx1 grammar's vmap_permutation
// field (spec.md §6).
var tunstallVmapPermutations = buildVmapPermutations()

func buildVmapPermutations() [24][4]Value {
	base := [4]Value{Unknown, Win, Loss, Draw}
	var perms [24][4]Value
	var used [4]bool
	var cur [4]Value
	n := 0
	var permute func(depth int)
	permute = func(depth int) {
		if depth == 4 {
			perms[n] = cur
			n++
			return
		}
		for i, v := range base {
			if used[i] {
				continue
			}
			used[i] = true
			cur[depth] = v
			permute(depth + 1)
			used[i] = false
		}
	}
	permute(0)
	return perms
}

// VmapPermutation returns the permutation named by a .idx1 vmap_permutation
// field. permNum must be in [0, 24).
func VmapPermutation(permNum int) ([4]Value, error) {
	if permNum < 0 || permNum >= len(tunstallVmapPermutations) {
		return [4]Value{}, errors.Newf("codec: vmap permutation %d out of range", permNum)
	}
	return tunstallVmapPermutations[permNum], nil
}

// tunstallCodec implements Codec for one (catalog entry, vmap) pairing,
// i.e. one block of Tunstall-coded data. v1 blocks always use
// identityVmap; v2 blocks use whichever permutation their .idx1 line
// names.
type tunstallCodec struct {
	dict  *Dictionary
	entry int
	vmap  [4]Value
}

// CodecForV1 returns the Codec for a Tunstall v1 subdb's catalog entry.
func (d *Dictionary) CodecForV1(entry int) Codec {
	return &tunstallCodec{dict: d, entry: entry, vmap: identityVmap}
}

// CodecForV2 returns the Codec for one Tunstall v2 block, given the
// catalog entry and vmap permutation its .idx1 line names.
func (d *Dictionary) CodecForV2(entry int, vmap [4]Value) Codec {
	return &tunstallCodec{dict: d, entry: entry, vmap: vmap}
}

// byteResult finds the value run covering targetOffset within the run list
// starting at the table entry's ValueRunsOffset for diskByte, returning the
// remapped real value.
func (c *tunstallCodec) byteResult(table *TunstallTable, diskByte byte, targetOffset uint32) (Value, error) {
	offset := table.ValueRunsOffset[diskByte]
	n := uint32(0)
	for {
		if int(offset) >= len(c.dict.ValueRuns) {
			return Unknown, ErrShortBlock
		}
		run := c.dict.ValueRuns[offset]
		n += run.runLen
		if n > targetOffset {
			return c.vmap[run.virtualValue], nil
		}
		offset++
	}
}

// Decode implements Codec, mirroring egdb_wld_tunstall_v1.cpp's dblookup:
// accumulate runlength_table[byte] until the target index is overshot,
// back up one byte, then walk that byte's value-run list the same way.
func (c *tunstallCodec) Decode(block []byte, start DecodeState, targetLocalIdx uint32) (Value, error) {
	table := &c.dict.Catalog[c.entry]
	nIdx := uint32(0)
	i := start.ByteOffset
	for nIdx <= targetLocalIdx {
		if i >= len(block) {
			return Unknown, ErrShortBlock
		}
		nIdx += table.Runlength[block[i]]
		i++
	}
	i--
	nIdx -= table.Runlength[block[i]]
	return c.byteResult(table, block[i], targetLocalIdx-nIdx)
}

// ScanMini implements Codec, mirroring assign_subindices: walk every byte,
// recording the running index at the start of each mini-block.
func (c *tunstallCodec) ScanMini(block []byte, start DecodeState) (SubIndex, error) {
	table := &c.dict.Catalog[c.entry]
	var sub SubIndex
	index := uint32(0)
	i := start.ByteOffset
	for mini := 0; mini < MiniBlocksPerBlock; mini++ {
		sub[mini] = SubIndexEntry{Index: index, State: DecodeState{ByteOffset: i}}
		end := i + MiniBlockSize
		for ; i < end && i < len(block); i++ {
			index += table.Runlength[block[i]]
		}
	}
	return sub, nil
}
