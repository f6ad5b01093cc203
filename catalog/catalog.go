// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package catalog implements the slice catalog (spec.md §4.4): walking a
// database directory, parsing each file's index grammar, and deciding which
// files are autoloaded at open versus served through the block cache.
package catalog

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/slice"
)

// Format names the on-disk codec family a database directory is stored in.
// One Catalog always serves exactly one Format; egdb.Identify decides which
// before catalog.Open is called.
type Format int

const (
	FormatWLDRunlen Format = iota
	FormatTunstallV1
	FormatTunstallV2
	FormatHuffmanDTW
	FormatMTC
)

func (f Format) String() string {
	switch f {
	case FormatWLDRunlen:
		return "wld-runlen"
	case FormatTunstallV1:
		return "tunstall-v1"
	case FormatTunstallV2:
		return "tunstall-v2"
	case FormatHuffmanDTW:
		return "huffman-dtw"
	case FormatMTC:
		return "mtc"
	default:
		return "unknown"
	}
}

// dataExtension and indexExtension return the file suffixes a Format's
// on-disk files use, per spec.md §6 "On-disk files".
func (f Format) dataExtension() string {
	switch f {
	case FormatTunstallV1, FormatTunstallV2:
		return ".cpr1"
	case FormatHuffmanDTW:
		return ".cpr_dtw"
	case FormatMTC:
		return ".cpr_mtc"
	default:
		return ".cpr"
	}
}

func (f Format) indexExtension() string {
	switch f {
	case FormatTunstallV2:
		return ".idx1"
	case FormatHuffmanDTW:
		return ".idx_dtw"
	case FormatMTC:
		return ".idx_mtc"
	default:
		return ".idx"
	}
}

// SamePiecesOneFile mirrors spec.md §4.4: material slices at or below this
// total piece count are aggregated into one "dbN" file pair rather than one
// file pair per slice; a missing data file for such a slice is fatal instead
// of merely marking that slice unavailable.
const SamePiecesOneFile = 5

// MinAutoloadPieces is the piece-count threshold at or below which a file
// is always autoloaded regardless of the byte budget (spec.md §4.4
// "Autoload policy"). It depends on format: Tunstall/Huffman formats pack
// more densely, so their threshold is one piece higher.
func (f Format) minAutoloadPieces() int {
	switch f {
	case FormatTunstallV1, FormatTunstallV2, FormatHuffmanDTW:
		return 5
	default:
		return 4
	}
}

// CacheBlockSize is the fixed compressed-region size every data file is
// chunked into (spec.md §4.5 "Structure").
const CacheBlockSize = 4096

// fileNamePattern matches "dbN[-bmbkwmwk].ext", spec.md §4.4 "Open".
var fileNamePattern = regexp.MustCompile(`^db(\d+)(?:-(\d)(\d)(\d)(\d))?\.(.+)$`)

// File describes one matched (data, index) file pair on disk: the
// aggregated dbN bucket of slices it serves, and the subdbs parsed out of
// its index file.
type File struct {
	Name         string // "dbN" or "dbN-bmbkwmwk", the base name without extension
	DataPath     string
	IndexPath    string
	NumCacheBlocks int64
	Subdbs       []*Subdb
	Autoloaded   bool
	AutoloadData []byte // populated only when Autoloaded
}

// Subdb is one material-signature entry within a File: its codec, its
// block-start index table, and (if the whole subdb fits in one value) the
// single-value shortcut from spec.md §6 ("BASE…:+|=|-|.").
type Subdb struct {
	Slice       slice.Slice
	Color       slice.Color
	File        *File
	Codec       codec.Codec
	SingleValue codec.Value
	IsSingle    bool
	// Indices holds the global index at the start of each cache block this
	// subdb spans, for the binary search in spec.md §4.6 step 6.
	Indices []int64
	// FirstBlock/StartByte locate this subdb's first byte within File's
	// data file (spec.md §6 "BASE…:<first_block>/<start_byte>").
	FirstBlock int64
	StartByte  int

	// codecKind records how Codec was constructed, so the manifest sidecar
	// can serialize enough to reconstruct it without re-parsing the index
	// grammar (manifest.go). One of "", "wld", "mtc", "tunstall1",
	// "tunstall2", "huffman".
	codecKind       string
	codecEntry      int
	codecVmapPerm   int
	codecHasPartial bool
}

// subdbKey addresses one Subdb by its material slice and the side to move
// its stored values answer for (spec.md §3 "Subdb (per subslice, per
// side-to-move)": a material signature alone is not enough, since the two
// colors generally have different values in the same position).
type subdbKey struct {
	slice slice.Slice
	color slice.Color
}

// Catalog is the open, read-only slice catalog for one database directory
// (spec.md §4.4).
type Catalog struct {
	Dir        string
	Format     Format
	Files      []*File
	bySlice    map[subdbKey]*Subdb
	Dictionary *codec.Dictionary // non-nil only for Tunstall formats
}

// Lookup returns the Subdb cataloguing the canonical (already
// reversal-normalized) slice s for the given side to move, or nil if the
// catalog has no entry for it (spec.md §4.6 step 5: "If absent →
// SUBDB_UNAVAILABLE").
func (c *Catalog) Lookup(s slice.Slice, color slice.Color) *Subdb {
	return c.bySlice[subdbKey{s, color}]
}

// Options configures Open beyond the directory and format it is always
// given; see egdb.Options for the user-facing superset.
type Options struct {
	CacheRAMBytes     int64
	AutoloadIOBytesPerSec int64 // 0 = unlimited
}

// Open walks dir, matches every dbN[-bmbkwmwk].* file, parses each index
// file, computes num_cacheblocks from the data file's size, and applies the
// autoload policy (spec.md §4.4).
func Open(dir string, format Format, opts Options) (*Catalog, error) {
	if m := loadManifest(dir); m.matchesCurrent(dir, format) {
		if c, err := rebuildFromManifest(m, opts); err == nil {
			c.Dir = dir
			return c, nil
		}
		// A manifest that fails to rebuild (e.g. a vmap permutation out of
		// range) falls back to a full parse rather than failing Open.
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: reading directory %s", errors.Safe(dir))
	}

	grouped := map[string]*File{}
	var order []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(ent.Name())
		if m == nil {
			continue
		}
		base := m[0][:len(m[0])-len(filepath.Ext(ent.Name()))]
		ext := "." + m[6]
		if ext != format.dataExtension() && ext != format.indexExtension() {
			continue
		}
		f, ok := grouped[base]
		if !ok {
			f = &File{Name: base}
			grouped[base] = f
			order = append(order, base)
		}
		full := filepath.Join(dir, ent.Name())
		if ext == format.dataExtension() {
			f.DataPath = full
		} else {
			f.IndexPath = full
		}
	}

	sort.Strings(order)
	var dict *codec.Dictionary
	var shared codec.Codec
	switch format {
	case FormatTunstallV1, FormatTunstallV2:
		dict = codec.NewDictionary()
	case FormatWLDRunlen:
		shared = codec.NewRunlenWLD()
	case FormatMTC:
		shared = codec.NewRunlenMTC()
	}

	c := &Catalog{Dir: dir, Format: format, bySlice: map[subdbKey]*Subdb{}, Dictionary: dict}
	for _, base := range order {
		f := grouped[base]
		if f.IndexPath == "" {
			return nil, errors.Newf("catalog: %s missing index file", errors.Safe(base))
		}
		if f.DataPath == "" {
			if isSmallBucket(base) {
				return nil, errors.Newf("catalog: %s missing data file (fatal: <= %d pieces)",
					errors.Safe(base), SamePiecesOneFile)
			}
			// Larger buckets degrade gracefully: the bucket's subdbs are
			// parsed (so their slice signatures are known) but every one
			// is left without a Codec, so driver lookups report
			// SUBDB_UNAVAILABLE instead of failing catalog.Open.
		} else {
			st, err := os.Stat(f.DataPath)
			if err != nil {
				return nil, errors.Wrapf(err, "catalog: stat %s", errors.Safe(f.DataPath))
			}
			f.NumCacheBlocks = (st.Size() + CacheBlockSize - 1) / CacheBlockSize
		}

		subdbs, err := parseIndexFile(f, format, dict)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: parsing %s", errors.Safe(f.IndexPath))
		}
		for _, sdb := range subdbs {
			if !sdb.IsSingle && sdb.Codec == nil && shared != nil {
				sdb.Codec = shared
				if format == FormatWLDRunlen {
					sdb.codecKind = "wld"
				} else {
					sdb.codecKind = "mtc"
				}
			}
			c.bySlice[subdbKey{sdb.Slice, sdb.Color}] = sdb
		}
		// Sub-index construction (spec.md §4.5) walks a file's non-single
		// subdbs in on-disk byte order to find which ones a given block
		// covers; an arena slice sorted by FirstBlock replaces the source's
		// raw-pointer doubly-linked list (spec.md §9 "Graph of subdbs").
		sort.Slice(subdbs, func(i, j int) bool {
			if subdbs[i].FirstBlock != subdbs[j].FirstBlock {
				return subdbs[i].FirstBlock < subdbs[j].FirstBlock
			}
			return subdbs[i].StartByte < subdbs[j].StartByte
		})
		f.Subdbs = subdbs
		c.Files = append(c.Files, f)
	}

	if err := applyAutoloadPolicy(c, opts); err != nil {
		return nil, err
	}
	c.Dir = dir
	// The manifest is a pure performance cache: a write failure here (e.g.
	// a read-only database directory) must not fail Open.
	_ = saveManifest(dir, c)
	return c, nil
}

// isSmallBucket reports whether a "dbN" or "dbN-bmbkwmwk" base name encodes
// a material total at or below SamePiecesOneFile, using the -bmbkwmwk
// suffix when present.
func isSmallBucket(base string) bool {
	m := fileNamePattern.FindStringSubmatch(base + ".x")
	if m == nil || m[2] == "" {
		// Aggregated "dbN" buckets (no -bmbkwmwk suffix) are always within
		// SamePiecesOneFile by construction (spec.md §4.4).
		return true
	}
	total := 0
	for _, g := range m[2:6] {
		n, err := strconv.Atoi(g)
		if err != nil {
			return true
		}
		total += n
	}
	return total <= SamePiecesOneFile
}
