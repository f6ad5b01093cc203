// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cache

import (
	"github.com/cockroachdb/errors"

	"github.com/eygilbert/egdb-go/catalog"
	"github.com/eygilbert/egdb-go/codec"
)

// FetchAutoloaded performs the same spec.md §4.6 steps 6-9 as Cache.Fetch,
// but for a subdb whose file was autoloaded at catalog.Open: the whole
// compressed file already sits in File.AutoloadData, so there is no
// eviction, no hashtable lookup, and no lock to take (spec.md §5
// "Autoloaded file accesses are lock-free"). Sub-indices are rebuilt on
// every call rather than cached, since autoloaded files are, by the
// autoload policy, small enough that a 64-mini-block scan is cheap and
// keeping it lock-free is worth more than memoizing it.
func FetchAutoloaded(sdb *catalog.Subdb, localIdx int64) (codec.Value, error) {
	f := sdb.File
	if !f.Autoloaded {
		return 0, errors.Newf("cache: %s was not autoloaded", errors.Safe(f.Name))
	}

	block, base := locateBlock(sdb, localIdx)
	blockSize := int64(catalog.CacheBlockSize)
	off := block * blockSize
	if off < 0 || off >= int64(len(f.AutoloadData)) {
		return 0, errors.Newf("cache: block %d out of range for autoloaded %s", block, errors.Safe(f.Name))
	}
	end := off + blockSize
	if end > int64(len(f.AutoloadData)) {
		end = int64(len(f.AutoloadData))
	}
	data := f.AutoloadData[off:end]

	mini, err := buildMiniEntries(filterDataSubdbs(f.Subdbs), block, data)
	if err != nil {
		return 0, err
	}
	val, _, err := decodeFromMini(data, mini, sdb, localIdx-base)
	return val, err
}
