// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/slice"
)

func writeWLDFixture(t *testing.T, dir string) {
	t.Helper()
	idx := "BASE0,1,0,1,0,0:0/0\n0\nBASE1,0,0,0,0,0:+\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db2.idx"), []byte(idx), 0o644))

	block := make([]byte, CacheBlockSize)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db2.cpr"), block, 0o644))
}

func TestCatalogOpenWLDRunlen(t *testing.T) {
	dir := t.TempDir()
	writeWLDFixture(t, dir)

	c, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	require.Len(t, c.Files, 1)

	kingDuel := c.Lookup(slice.Slice{BlackKings: 1, WhiteKings: 1}, slice.Black)
	require.NotNil(t, kingDuel)
	require.False(t, kingDuel.IsSingle)
	require.NotNil(t, kingDuel.Codec)
	require.Equal(t, []int64{0}, kingDuel.Indices)

	single := c.Lookup(slice.Slice{BlackMen: 1}, slice.Black)
	require.NotNil(t, single)
	require.True(t, single.IsSingle)
	require.Equal(t, codec.Win, single.SingleValue)

	require.Nil(t, c.Lookup(slice.Slice{BlackMen: 5, WhiteMen: 4}, slice.Black))
}

func TestCatalogOpenAutoloadsSmallFile(t *testing.T) {
	dir := t.TempDir()
	writeWLDFixture(t, dir)

	c, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	require.True(t, c.Files[0].Autoloaded)
	require.Len(t, c.Files[0].AutoloadData, CacheBlockSize)
}

func TestCatalogOpenMissingDataFileFatalForSmallBucket(t *testing.T) {
	dir := t.TempDir()
	idx := "BASE0,0,1,1,0,0:0/0\n0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db2.idx"), []byte(idx), 0o644))

	_, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.Error(t, err)
}

func TestCatalogManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeWLDFixture(t, dir)

	first, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, manifestFileName))

	second, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)

	for _, s := range []slice.Slice{{BlackKings: 1, WhiteKings: 1}, {BlackMen: 1}} {
		want := first.Lookup(s, slice.Black)
		got := second.Lookup(s, slice.Black)
		require.NotNil(t, got)
		require.Equal(t, want.IsSingle, got.IsSingle)
		require.Equal(t, want.SingleValue, got.SingleValue)
		require.Equal(t, want.Indices, got.Indices)
	}
}

func TestCatalogManifestStaleAfterFileChange(t *testing.T) {
	dir := t.TempDir()
	writeWLDFixture(t, dir)

	_, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)

	// Touch the index file so its mtime/size changes; the manifest must no
	// longer be trusted.
	idx := "BASE0,1,0,1,0,0:0/0\n0\n1\nBASE1,0,0,0,0,0:+\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db2.idx"), []byte(idx), 0o644))

	c, err := Open(dir, FormatWLDRunlen, Options{CacheRAMBytes: 64 << 20})
	require.NoError(t, err)
	kingDuel := c.Lookup(slice.Slice{BlackKings: 1, WhiteKings: 1}, slice.Black)
	require.Equal(t, []int64{0, 1}, kingDuel.Indices)
}

func TestIdentifyUnrecognizedDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := Identify(dir)
	require.Error(t, err)
}
