// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cache implements the block cache (spec.md §4.5): a fixed pool of
// cache control blocks (CCBs) holding recently-read compressed regions, an
// LRU eviction order, and the per-file block-residency index that answers
// "is block# of this file already in RAM". It also performs steps 6-9 of
// the driver's lookup algorithm (spec.md §4.6) once given a subdb and a
// local index, since those steps operate directly on a loaded CCB's bytes
// and its sub-index table.
package cache

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"

	"github.com/eygilbert/egdb-go/catalog"
	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/platform"
)

// cacheAllocCount is CACHE_ALLOC_COUNT (spec.md §5 "Memory"): CCB data
// buffers are grown in page-aligned chunks of this many blocks rather than
// one allocation per block.
const cacheAllocCount = 256

// directArrayMaxBlocks bounds how large a file's direct block#->slot array
// is allowed to grow before switching to the sparse hashtable path (spec.md
// §4.5: "For v1 specifically, a separate open-addressing hashtable... is
// used because the file-local array would be too sparse" — generalized
// here to any format whose file is simply too large for a dense array to be
// worth the memory).
const directArrayMaxBlocks = 1 << 20

// ccbOverheadBytes approximates sizeof(CCB) in the sizing formula (spec.md
// §4.5 "Sizing"): the struct fields plus the mini-entry slice header,
// rounded up generously since an exact count does not change behavior.
const ccbOverheadBytes = 96

// minCacheBytes is the floor spec.md §4.5 names ("Minimum 10 MiB of cache
// buffers").
const minCacheBytes = 10 << 20

// cacheKey addresses one cache block by (file, block#) for the sparse
// hashtable path. fileID is a stable hash of the file's data path rather
// than its slice index in Catalog.Files, so the key survives a catalog
// reopen that reorders files.
type cacheKey struct {
	fileID uint64
	block  int64
}

// miniEntry is the sub-index spec.md §4.5 describes building "on block
// load": one subdb's byte range within a cache block, the global (subdb-
// relative) index its data begins at, and the 64-entry table ScanMini
// produced for it.
type miniEntry struct {
	subdb *catalog.Subdb
	lo, hi int
	base   int64
	sub    codec.SubIndex
}

// ccb is one cache control block: the compressed bytes of one cache block
// from one file, plus the sub-indices built for every subdb that has data
// in it.
type ccb struct {
	data     []byte // always cacheBlockSize long; validLen may be shorter for the file's final block
	validLen int
	mini     []miniEntry

	owner *fileState
	block int64
}

// fileState is the cache's bookkeeping for one non-autoloaded catalog.File:
// its open platform.File handle, a stable id for hashtable keys, its
// filtered+sorted data-bearing subdbs, and its block-residency index.
type fileState struct {
	file       *catalog.File
	pf         *platform.File
	fileID     uint64
	dataSubdbs []*catalog.Subdb

	direct []int32 // dense block# -> slot (1-based, 0 = UNDEFINED_BLOCK_ID)
	sparse bool
}

// Stats are the driver-facing counters spec.md §5 names as "updated under
// the cache lock for the stats that the hot path touches".
type Stats struct {
	Requests   int64
	LRUHits    int64
	Loads      int64
	Evictions  int64
}

// Options configures Open; CacheRAMBytes is the cache_mb budget from
// spec.md §4.6 "Open" converted to bytes.
type Options struct {
	CacheRAMBytes int64
}

// Cache is the open block cache for one driver instance (spec.md §4.5).
// The zero value is not usable; construct with Open.
type Cache struct {
	mu        sync.Mutex
	blockSize int

	files      []*fileState
	indexByPath map[string]int

	ccbs      []ccb
	next, prev []int32 // doubly linked recency list over 1-based slot ids
	head, tail int32
	used       int32 // slots 1..used have been handed out at least once

	sparseMap *swiss.Map[cacheKey, int32]

	stats Stats
}

// Open allocates the CCB pool for cat's non-autoloaded files and opens a
// positioned-read handle to each of them (spec.md §4.6 "Open": "allocates
// C5"). Autoloaded files are not tracked here; callers read their bytes
// directly from catalog.File.AutoloadData via FetchAutoloaded.
func Open(cat *catalog.Catalog, opts Options) (*Cache, error) {
	c := &Cache{
		blockSize:   catalog.CacheBlockSize,
		indexByPath: map[string]int{},
	}

	var staticBytes int64
	var nonAutoloadBlocks int64
	needsSparse := false
	for _, f := range cat.Files {
		if f.Autoloaded {
			continue
		}
		fs := &fileState{
			file:       f,
			fileID:     xxhash.Sum64String(f.DataPath),
			dataSubdbs: filterDataSubdbs(f.Subdbs),
		}
		if f.NumCacheBlocks <= directArrayMaxBlocks {
			fs.direct = make([]int32, f.NumCacheBlocks)
			staticBytes += int64(f.NumCacheBlocks) * 4
		} else {
			fs.sparse = true
			needsSparse = true
		}
		pf, err := platform.OpenFile(f.DataPath)
		if err != nil {
			return nil, errors.Wrapf(err, "cache: opening %s", errors.Safe(f.DataPath))
		}
		fs.pf = pf

		c.indexByPath[f.DataPath] = len(c.files)
		c.files = append(c.files, fs)
		nonAutoloadBlocks += f.NumCacheBlocks
	}
	if needsSparse {
		c.sparseMap = swiss.New[cacheKey, int32](1024)
	}

	effectiveBytes := opts.CacheRAMBytes
	if effectiveBytes < minCacheBytes {
		effectiveBytes = minCacheBytes
	}
	numBlocks := (effectiveBytes - staticBytes) / int64(c.blockSize+ccbOverheadBytes)
	if numBlocks > nonAutoloadBlocks {
		numBlocks = nonAutoloadBlocks
	}
	if numBlocks < 1 {
		numBlocks = 1
	}

	c.ccbs = make([]ccb, numBlocks)
	c.next = make([]int32, numBlocks+1)
	c.prev = make([]int32, numBlocks+1)
	for i, buf := range allocateBlockBuffers(int(numBlocks), c.blockSize) {
		c.ccbs[i].data = buf
	}
	return c, nil
}

// Close releases every open file handle. The CCB pool is left for the
// garbage collector.
func (c *Cache) Close() error {
	var firstErr error
	for _, fs := range c.files {
		if err := fs.pf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// filterDataSubdbs drops single-value and codec-less subdbs from a file's
// sorted subdb arena, leaving only the ones that actually occupy bytes in
// the data file (catalog.go sorts all of File.Subdbs together, including
// the ones with no FirstBlock/StartByte of their own).
func filterDataSubdbs(subdbs []*catalog.Subdb) []*catalog.Subdb {
	out := make([]*catalog.Subdb, 0, len(subdbs))
	for _, s := range subdbs {
		if !s.IsSingle && s.Codec != nil {
			out = append(out, s)
		}
	}
	return out
}

// allocateBlockBuffers hands out numBlocks cacheBlockSize-sized byte slices,
// backed by page-aligned regions grown cacheAllocCount blocks at a time
// (spec.md §5 "Memory": "one allocation per CACHE_ALLOC_COUNT = 256-512
// blocks").
func allocateBlockBuffers(numBlocks, blockSize int) [][]byte {
	bufs := make([][]byte, numBlocks)
	for i := 0; i < numBlocks; i += cacheAllocCount {
		chunk := cacheAllocCount
		if i+chunk > numBlocks {
			chunk = numBlocks - i
		}
		region := platform.AllocAligned(chunk * blockSize)
		for j := 0; j < chunk; j++ {
			bufs[i+j] = region[j*blockSize : (j+1)*blockSize]
		}
	}
	return bufs
}

// indexOf returns f's position in c.files.
func (c *Cache) indexOf(f *catalog.File) (int, bool) {
	i, ok := c.indexByPath[f.DataPath]
	return i, ok
}

// Fetch performs spec.md §4.6 steps 6-9 for a subdb backed by the cache
// (non-autoloaded). conditional mirrors get_conditional: if true and the
// needed block is not resident, Fetch returns (0, false, nil) rather than
// paying the I/O.
func (c *Cache) Fetch(sdb *catalog.Subdb, localIdx int64, conditional bool) (codec.Value, bool, error) {
	fileIdx, ok := c.indexOf(sdb.File)
	if !ok {
		return 0, false, errors.Newf("cache: file %s was not opened (is it autoloaded?)", errors.Safe(sdb.File.Name))
	}
	block, base := locateBlock(sdb, localIdx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Requests++

	fs := c.files[fileIdx]
	slot, resident := c.resident(fs, block)
	if resident {
		c.stats.LRUHits++
		c.touchMRU(slot)
	} else {
		if conditional {
			return 0, false, nil
		}
		var err error
		slot, err = c.load(fs, block)
		if err != nil {
			return 0, false, err
		}
	}

	b := &c.ccbs[slot-1]
	return decodeFromMini(b.data, b.mini, sdb, localIdx-base)
}

// locateBlock runs spec.md §4.6 step 6: binary search over sdb.Indices to
// find the cache block containing localIdx, returning that block number and
// the global index at its start.
func locateBlock(sdb *catalog.Subdb, localIdx int64) (block, base int64) {
	k := sort.Search(len(sdb.Indices), func(i int) bool { return sdb.Indices[i] > localIdx }) - 1
	if k < 0 {
		k = 0
	}
	return sdb.FirstBlock + int64(k), sdb.Indices[k]
}

// resident reports whether block is currently cached for fs, per spec.md
// §4.5's direct-array-or-hashtable residency index.
func (c *Cache) resident(fs *fileState, block int64) (int32, bool) {
	if fs.sparse {
		v, ok := c.sparseMap.Get(cacheKey{fs.fileID, block})
		return v, ok
	}
	if block < 0 || block >= int64(len(fs.direct)) {
		return 0, false
	}
	v := fs.direct[block]
	return v, v != 0
}

func (c *Cache) own(fs *fileState, block int64, slot int32) {
	if fs.sparse {
		c.sparseMap.Put(cacheKey{fs.fileID, block}, slot)
		return
	}
	fs.direct[block] = slot
}

func (c *Cache) disown(fs *fileState, block int64, slot int32) {
	if fs.sparse {
		c.sparseMap.Delete(cacheKey{fs.fileID, block})
		return
	}
	if block >= 0 && block < int64(len(fs.direct)) && fs.direct[block] == slot {
		fs.direct[block] = 0
	}
}

// load brings fs's block into the cache, evicting the LRU victim first if
// the pool is already full (spec.md §4.5 "get": "pop the LRU victim,
// decouple its back-reference, read the block ..., build sub-indices ...,
// install the new node at MRU end").
func (c *Cache) load(fs *fileState, block int64) (int32, error) {
	var slot int32
	if c.used < int32(len(c.ccbs)) {
		c.used++
		slot = c.used
	} else {
		slot = c.tail
		victim := &c.ccbs[slot-1]
		if victim.owner != nil {
			c.disown(victim.owner, victim.block, slot)
			c.stats.Evictions++
		}
		c.unlink(slot)
	}

	b := &c.ccbs[slot-1]
	avail := fs.pf.Size() - block*int64(c.blockSize)
	n := c.blockSize
	if avail < int64(n) {
		n = int(avail)
	}
	if n <= 0 {
		return 0, errors.Newf("cache: block %d is past the end of %s", block, errors.Safe(fs.file.DataPath))
	}
	if err := fs.pf.ReadAt(b.data[:n], block*int64(c.blockSize)); err != nil {
		return 0, err
	}
	mini, err := buildMiniEntries(fs.dataSubdbs, block, b.data[:n])
	if err != nil {
		return 0, err
	}
	b.validLen = n
	b.mini = mini
	b.owner = fs
	b.block = block

	c.own(fs, block, slot)
	c.pushFront(slot)
	c.stats.Loads++
	return slot, nil
}

// pushFront makes slot the new MRU head of the recency list.
func (c *Cache) pushFront(slot int32) {
	c.prev[slot] = 0
	c.next[slot] = c.head
	if c.head != 0 {
		c.prev[c.head] = slot
	}
	c.head = slot
	if c.tail == 0 {
		c.tail = slot
	}
}

// unlink removes slot from wherever it sits in the recency list.
func (c *Cache) unlink(slot int32) {
	p, n := c.prev[slot], c.next[slot]
	if p != 0 {
		c.next[p] = n
	} else {
		c.head = n
	}
	if n != 0 {
		c.prev[n] = p
	} else {
		c.tail = p
	}
	c.prev[slot], c.next[slot] = 0, 0
}

// touchMRU splices slot to the MRU end without changing any other slot's
// residency (spec.md §4.5 "if resident, splice to MRU end").
func (c *Cache) touchMRU(slot int32) {
	if c.head == slot {
		return
	}
	c.unlink(slot)
	c.pushFront(slot)
}

// subdbRangeInBlock returns the [lo,hi) byte range within a cache block
// that belongs to s, given the next data-bearing subdb in File order (nil
// if s is the file's last one). A subdb's byte range in its first block
// starts at StartByte; in every later block it starts at 0 and continues
// until the next subdb's StartByte claims the rest of a shared block.
func subdbRangeInBlock(s, next *catalog.Subdb, block int64, blockSize int) (lo, hi int, ok bool) {
	if block < s.FirstBlock {
		return 0, 0, false
	}
	if next != nil && block > next.FirstBlock {
		return 0, 0, false
	}
	lo = 0
	if block == s.FirstBlock {
		lo = s.StartByte
	}
	hi = blockSize
	if next != nil && block == next.FirstBlock {
		hi = next.StartByte
	}
	if lo >= hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// buildMiniEntries is the "sub-index construction" spec.md §4.5 describes:
// for every data-bearing subdb touching this block, slice out its byte
// range and call its codec's ScanMini to fill the 64-entry sub-index table.
func buildMiniEntries(dataSubdbs []*catalog.Subdb, block int64, data []byte) ([]miniEntry, error) {
	var out []miniEntry
	for i, s := range dataSubdbs {
		var next *catalog.Subdb
		if i+1 < len(dataSubdbs) {
			next = dataSubdbs[i+1]
		}
		lo, hi, ok := subdbRangeInBlock(s, next, block, len(data))
		if !ok {
			continue
		}
		blockPos := block - s.FirstBlock
		if blockPos < 0 || int(blockPos) >= len(s.Indices) {
			return nil, errors.Newf("cache: block %d out of range for subdb %v", block, s.Slice)
		}
		base := s.Indices[blockPos]
		sub, err := s.Codec.ScanMini(data[lo:hi], codec.DecodeState{})
		if err != nil {
			return nil, errors.Wrapf(err, "cache: scanning mini-blocks for subdb %v block %d", s.Slice, block)
		}
		out = append(out, miniEntry{subdb: s, lo: lo, hi: hi, base: base, sub: sub})
	}
	return out, nil
}

// decodeFromMini implements spec.md §4.6 steps 8-9 once a CCB's sub-index
// table is in hand: binary search the 64 entries to find the covering
// mini-block, then resume its saved decode state (spec.md §3 "CacheBlock":
// "for Huffman the bit offset plus last-two-values state needed to resume
// decoding") and decode rel (localIdx - indices_at_mini) from there. The
// decode runs over the subdb's whole in-block range data[m.lo:m.hi] rather
// than a single mini-block slice, since the saved state's offsets are
// relative to that range and a Huffman code can straddle a 64-byte
// mini-block boundary.
func decodeFromMini(data []byte, mini []miniEntry, sdb *catalog.Subdb, rel int64) (codec.Value, bool, error) {
	for _, m := range mini {
		if m.subdb != sdb {
			continue
		}
		target := uint32(rel)
		k := sort.Search(codec.MiniBlocksPerBlock, func(i int) bool { return m.sub[i].Index > target }) - 1
		if k < 0 {
			k = 0
		}
		entry := m.sub[k]
		val, err := sdb.Codec.Decode(data[m.lo:m.hi], entry.State, target-entry.Index)
		return val, true, err
	}
	return 0, false, errors.Newf("cache: loaded block has no data for subdb %v", sdb.Slice)
}
