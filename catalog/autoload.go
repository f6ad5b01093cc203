// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package catalog

import (
	"context"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tokenbucket"
)

// Autoload byte-budget ratios and interpolation bounds, spec.md §4.4
// "Autoload policy".
const (
	minAutoloadRatio = 0.18
	maxAutoloadRatio = 0.35
	ratioLowCacheMB  = 15
	ratioHighCacheMB = 1024
)

// autoloadRatio linearly interpolates between minAutoloadRatio at
// ratioLowCacheMB and maxAutoloadRatio at ratioHighCacheMB, clamped at the
// ends.
func autoloadRatio(cacheMB float64) float64 {
	if cacheMB <= ratioLowCacheMB {
		return minAutoloadRatio
	}
	if cacheMB >= ratioHighCacheMB {
		return maxAutoloadRatio
	}
	t := (cacheMB - ratioLowCacheMB) / (ratioHighCacheMB - ratioLowCacheMB)
	return minAutoloadRatio + t*(maxAutoloadRatio-minAutoloadRatio)
}

// fileTotals returns the representative (totalKings, totalPieces) for a
// File, taken as the maximum over its subdbs: aggregated "dbN" buckets
// group slices of the same totals by construction (spec.md §4.4).
func fileTotals(f *File) (kings, pieces int) {
	for _, sdb := range f.Subdbs {
		k := sdb.Slice.BlackKings + sdb.Slice.WhiteKings
		p := sdb.Slice.TotalPieces()
		if k > kings {
			kings = k
		}
		if p > pieces {
			pieces = p
		}
	}
	return kings, pieces
}

// applyAutoloadPolicy sorts c.Files by (kings ascending, pieces ascending),
// always autoloads files at or below the format's MinAutoloadPieces
// threshold, then greedily autoloads additional files — in that order —
// until the byte budget derived from opts.CacheRAMBytes is exhausted
// (spec.md §4.4).
func applyAutoloadPolicy(c *Catalog, opts Options) error {
	sort.SliceStable(c.Files, func(i, j int) bool {
		ki, pi := fileTotals(c.Files[i])
		kj, pj := fileTotals(c.Files[j])
		if ki != kj {
			return ki < kj
		}
		return pi < pj
	})

	cacheMB := float64(opts.CacheRAMBytes) / (1 << 20)
	budget := int64(autoloadRatio(cacheMB) * float64(opts.CacheRAMBytes))

	var tb tokenbucket.TokenBucket
	throttled := opts.AutoloadIOBytesPerSec > 0
	if throttled {
		tb.Init(tokenbucket.Rate(opts.AutoloadIOBytesPerSec), tokenbucket.Tokens(opts.AutoloadIOBytesPerSec))
	}

	minPieces := c.Format.minAutoloadPieces()
	var spent int64
	for _, f := range c.Files {
		if f.DataPath == "" {
			continue // degraded large bucket with no data file; never autoloaded
		}
		_, pieces := fileTotals(f)
		st, err := os.Stat(f.DataPath)
		if err != nil {
			return errors.Wrapf(err, "catalog: stat %s", errors.Safe(f.DataPath))
		}
		size := st.Size()

		mustLoad := pieces <= minPieces
		if !mustLoad && spent+size > budget {
			continue
		}

		data, err := readAutoloadFile(f.DataPath, size, throttled, &tb)
		if err != nil {
			return err
		}
		f.Autoloaded = true
		f.AutoloadData = data
		spent += size
	}
	return nil
}

// readAutoloadFile reads an entire autoloaded file, throttled through tb
// when the caller configured an AutoloadIOBytesPerSec budget (spec.md §4.4:
// autoload must not "monopolize disk bandwidth that concurrent non-autoload
// reads need").
func readAutoloadFile(path string, size int64, throttled bool, tb *tokenbucket.TokenBucket) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: opening %s", errors.Safe(path))
	}
	defer f.Close()

	if !throttled {
		data := make([]byte, size)
		if _, err := f.Read(data); err != nil {
			return nil, errors.Wrapf(err, "catalog: reading %s", errors.Safe(path))
		}
		return data, nil
	}

	const chunk = 1 << 20
	data := make([]byte, 0, size)
	buf := make([]byte, chunk)
	ctx := context.Background()
	for int64(len(data)) < size {
		n := chunk
		if remaining := size - int64(len(data)); int64(n) > remaining {
			n = int(remaining)
		}
		if err := tb.Wait(ctx, tokenbucket.Tokens(n)); err != nil {
			return nil, errors.Wrap(err, "catalog: autoload throttle wait")
		}
		read, err := f.Read(buf[:n])
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: reading %s", errors.Safe(path))
		}
		data = append(data, buf[:read]...)
	}
	return data, nil
}
