// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eygilbert/egdb-go/catalog"
	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/platform"
	"github.com/eygilbert/egdb-go/slice"
)

// buildFixtureCatalog writes a two-block, non-autoloaded subdb (5 pieces,
// above FormatWLDRunlen's MinAutoloadPieces) and a one-block, always-
// autoloaded subdb (4 pieces) side by side, both filled with zero bytes:
// under RunlenWLD, byte 0 packs four Win values (quadrupleDigit(0, k) is
// Win for every digit), so every local index in either file decodes to Win.
func buildFixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	dir := t.TempDir()

	idx := "BASE0,3,0,2,0,0:0/0\n0\n16384\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db2-0302.idx"), []byte(idx), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db2-0302.cpr"), make([]byte, 2*catalog.CacheBlockSize), 0o644))

	idxSmall := "BASE1,1,1,1,0,0:0/0\n0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db4-1111.idx"), []byte(idxSmall), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db4-1111.cpr"), make([]byte, catalog.CacheBlockSize), 0o644))

	cat, err := catalog.Open(dir, catalog.FormatWLDRunlen, catalog.Options{CacheRAMBytes: 0})
	require.NoError(t, err)
	return cat
}

func TestCacheFetchReadsBothBlocks(t *testing.T) {
	cat := buildFixtureCatalog(t)
	sdb := cat.Lookup(slice.Slice{BlackKings: 3, WhiteKings: 2}, slice.Black)
	require.NotNil(t, sdb)
	require.False(t, sdb.File.Autoloaded)

	c, err := Open(cat, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	defer c.Close()

	val, resident, err := c.Fetch(sdb, 0, false)
	require.NoError(t, err)
	require.True(t, resident)
	require.Equal(t, codec.Win, val)

	val, resident, err = c.Fetch(sdb, 16384, false)
	require.NoError(t, err)
	require.True(t, resident)
	require.Equal(t, codec.Win, val)

	st := c.Stats()
	require.Equal(t, int64(2), st.Loads)
	require.Equal(t, int64(2), st.Requests)
}

func TestCacheFetchConditionalMissBeforeLoad(t *testing.T) {
	cat := buildFixtureCatalog(t)
	sdb := cat.Lookup(slice.Slice{BlackKings: 3, WhiteKings: 2}, slice.Black)
	require.NotNil(t, sdb)

	c, err := Open(cat, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	defer c.Close()

	val, resident, err := c.Fetch(sdb, 0, true)
	require.NoError(t, err)
	require.False(t, resident)
	require.Equal(t, codec.Value(0), val)
}

func TestCacheFetchHitsAfterFirstLoad(t *testing.T) {
	cat := buildFixtureCatalog(t)
	sdb := cat.Lookup(slice.Slice{BlackKings: 3, WhiteKings: 2}, slice.Black)

	c, err := Open(cat, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	defer c.Close()

	_, _, err = c.Fetch(sdb, 0, false)
	require.NoError(t, err)
	_, resident, err := c.Fetch(sdb, 1, true)
	require.NoError(t, err)
	require.True(t, resident)
	require.Equal(t, int64(1), c.Stats().LRUHits)
}

func TestCacheEvictsLRUVictimFromOnePool(t *testing.T) {
	cat := buildFixtureCatalog(t)
	sdb := cat.Lookup(slice.Slice{BlackKings: 3, WhiteKings: 2}, slice.Black)
	require.NotNil(t, sdb)

	pf, err := platform.OpenFile(sdb.File.DataPath)
	require.NoError(t, err)
	defer pf.Close()

	c := &Cache{
		blockSize: catalog.CacheBlockSize,
		ccbs:      make([]ccb, 1),
		next:      make([]int32, 2),
		prev:      make([]int32, 2),
	}
	c.ccbs[0].data = make([]byte, catalog.CacheBlockSize)
	fs := &fileState{
		file:       sdb.File,
		pf:         pf,
		dataSubdbs: filterDataSubdbs(sdb.File.Subdbs),
		direct:     make([]int32, sdb.File.NumCacheBlocks),
	}

	slot0, err := c.load(fs, 0)
	require.NoError(t, err)
	require.Equal(t, int32(1), slot0)
	_, resident := c.resident(fs, 0)
	require.True(t, resident)

	_, err = c.load(fs, 1)
	require.NoError(t, err)

	_, resident = c.resident(fs, 0)
	require.False(t, resident, "block 0 should have been evicted to make room for block 1")
	_, resident = c.resident(fs, 1)
	require.True(t, resident)
	require.Equal(t, int64(1), c.stats.Evictions)
}

func TestFetchAutoloaded(t *testing.T) {
	cat := buildFixtureCatalog(t)
	sdb := cat.Lookup(slice.Slice{BlackMen: 1, BlackKings: 1, WhiteMen: 1, WhiteKings: 1}, slice.Black)
	require.NotNil(t, sdb)
	require.True(t, sdb.File.Autoloaded)

	val, err := FetchAutoloaded(sdb, 0)
	require.NoError(t, err)
	require.Equal(t, codec.Win, val)
}

func TestFetchAutoloadedRejectsNonAutoloadedSubdb(t *testing.T) {
	cat := buildFixtureCatalog(t)
	sdb := cat.Lookup(slice.Slice{BlackKings: 3, WhiteKings: 2}, slice.Black)
	require.NotNil(t, sdb)

	_, err := FetchAutoloaded(sdb, 0)
	require.Error(t, err)
}
