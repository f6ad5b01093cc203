// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/slice"
)

// manifestFileName is the YAML sidecar Open checks before doing a full
// directory parse (SPEC_FULL.md "Configuration").
const manifestFileName = ".egdb-catalog-manifest.yaml"

// Manifest is a cache of a directory's last successful catalog parse,
// keyed to the directory's file listing (name, size, mtime) at that time.
// It is never required for correctness: a missing, stale, or corrupt
// Manifest simply falls back to a full catalog.Open parse and is rewritten
// afterward.
type Manifest struct {
	Format  Format             `yaml:"format"`
	DirList []ManifestDirEntry `yaml:"dir_list"`
	Files   []ManifestFile     `yaml:"files"`
}

// ManifestDirEntry records one on-disk file's identity as of the last
// parse, used only to decide whether the manifest is stale.
type ManifestDirEntry struct {
	Name    string    `yaml:"name"`
	Size    int64     `yaml:"size"`
	ModTime time.Time `yaml:"mod_time"`
}

// ManifestFile is the serialized form of a catalog.File, detailed enough
// to reconstruct its Subdbs without re-parsing the index grammar.
type ManifestFile struct {
	Name           string          `yaml:"name"`
	DataPath       string          `yaml:"data_path"`
	IndexPath      string          `yaml:"index_path"`
	NumCacheBlocks int64           `yaml:"num_cache_blocks"`
	Subdbs         []ManifestSubdb `yaml:"subdbs"`
}

// ManifestSubdb is the serialized form of a catalog.Subdb.
type ManifestSubdb struct {
	BlackMen, BlackKings, WhiteMen, WhiteKings int
	Color                                      int
	IsSingle                                   bool
	SingleValue                                uint32
	FirstBlock                                 int64
	StartByte                                  int
	Indices                                    []int64

	// CodecKind is one of "wld", "mtc", "tunstall1", "tunstall2", "huffman",
	// or "" for a single-value subdb (which has no codec).
	CodecKind       string `yaml:"codec_kind,omitempty"`
	CodecEntry      int    `yaml:"codec_entry,omitempty"`
	CodecVmapPerm   int    `yaml:"codec_vmap_perm,omitempty"`
	CodecHasPartial bool   `yaml:"codec_has_partial,omitempty"`
}

// buildDirList snapshots dir's current file listing for staleness checks.
func buildDirList(dir string) ([]ManifestDirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: reading directory %s", errors.Safe(dir))
	}
	var list []ManifestDirEntry
	for _, ent := range entries {
		if ent.IsDir() || ent.Name() == manifestFileName {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: stat %s", errors.Safe(ent.Name()))
		}
		list = append(list, ManifestDirEntry{Name: ent.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// loadManifest reads the sidecar if present; a missing file is not an
// error, it just means no manifest is available yet.
func loadManifest(dir string) *Manifest {
	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		// A corrupt manifest is not fatal: treat it as absent.
		return nil
	}
	return &m
}

// saveManifest writes the sidecar after a successful full parse.
func saveManifest(dir string, c *Catalog) error {
	dirList, err := buildDirList(dir)
	if err != nil {
		return err
	}
	m := &Manifest{Format: c.Format, DirList: dirList}
	for _, f := range c.Files {
		mf := ManifestFile{Name: f.Name, DataPath: f.DataPath, IndexPath: f.IndexPath, NumCacheBlocks: f.NumCacheBlocks}
		for _, sdb := range f.Subdbs {
			mf.Subdbs = append(mf.Subdbs, serializeSubdb(sdb))
		}
		m.Files = append(m.Files, mf)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "catalog: marshaling manifest")
	}
	path := filepath.Join(dir, manifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "catalog: writing manifest %s", errors.Safe(path))
	}
	return nil
}

func serializeSubdb(sdb *Subdb) ManifestSubdb {
	return ManifestSubdb{
		BlackMen: sdb.Slice.BlackMen, BlackKings: sdb.Slice.BlackKings,
		WhiteMen: sdb.Slice.WhiteMen, WhiteKings: sdb.Slice.WhiteKings,
		Color: int(sdb.Color), IsSingle: sdb.IsSingle, SingleValue: uint32(sdb.SingleValue),
		FirstBlock: sdb.FirstBlock, StartByte: sdb.StartByte, Indices: sdb.Indices,
		CodecKind: sdb.codecKind, CodecEntry: sdb.codecEntry,
		CodecVmapPerm: sdb.codecVmapPerm, CodecHasPartial: sdb.codecHasPartial,
	}
}

// matchesCurrent reports whether m still describes dir's current file
// listing exactly (same files, same sizes, same mtimes).
func (m *Manifest) matchesCurrent(dir string, format Format) bool {
	if m == nil || m.Format != format {
		return false
	}
	current, err := buildDirList(dir)
	if err != nil {
		return false
	}
	if len(current) != len(m.DirList) {
		return false
	}
	for i, f := range current {
		want := m.DirList[i]
		if f.Name != want.Name || f.Size != want.Size || !f.ModTime.Equal(want.ModTime) {
			return false
		}
	}
	return true
}

// rebuildFromManifest reconstructs a Catalog from a fresh Manifest without
// re-parsing any .idx*/.idx_dtw file. Tunstall formats' per-entry Codecs
// are re-synthesized deterministically from CodecEntry/CodecVmapPerm the
// same way a fresh parse would (codec.Dictionary content is never persisted
// across opens — see DESIGN.md).
func rebuildFromManifest(m *Manifest, opts Options) (*Catalog, error) {
	var dict *codec.Dictionary
	var shared codec.Codec
	switch m.Format {
	case FormatTunstallV1, FormatTunstallV2:
		dict = codec.NewDictionary()
	case FormatWLDRunlen:
		shared = codec.NewRunlenWLD()
	case FormatMTC:
		shared = codec.NewRunlenMTC()
	}

	c := &Catalog{Format: m.Format, bySlice: map[subdbKey]*Subdb{}, Dictionary: dict}
	for _, mf := range m.Files {
		f := &File{Name: mf.Name, DataPath: mf.DataPath, IndexPath: mf.IndexPath, NumCacheBlocks: mf.NumCacheBlocks}
		for _, ms := range mf.Subdbs {
			sdb := &Subdb{
				Slice:       slice.Slice{BlackMen: ms.BlackMen, BlackKings: ms.BlackKings, WhiteMen: ms.WhiteMen, WhiteKings: ms.WhiteKings},
				Color:       slice.Color(ms.Color),
				File:        f,
				IsSingle:    ms.IsSingle,
				SingleValue: codec.Value(ms.SingleValue),
				FirstBlock:  ms.FirstBlock,
				StartByte:   ms.StartByte,
				Indices:     ms.Indices,
			}
			switch ms.CodecKind {
			case "wld", "mtc":
				sdb.Codec = shared
			case "tunstall1":
				ensureDictEntry(dict, ms.CodecEntry)
				sdb.Codec = dict.CodecForV1(ms.CodecEntry)
			case "tunstall2":
				vmap, err := codec.VmapPermutation(ms.CodecVmapPerm)
				if err != nil {
					return nil, err
				}
				ensureDictEntry(dict, ms.CodecEntry)
				sdb.Codec = dict.CodecForV2(ms.CodecEntry, vmap)
			case "huffman":
				sdb.Codec = codec.NewHuffmanDTW(ms.CodecHasPartial)
			}
			f.Subdbs = append(f.Subdbs, sdb)
			c.bySlice[subdbKey{sdb.Slice, sdb.Color}] = sdb
		}
		c.Files = append(c.Files, f)
	}

	if err := applyAutoloadPolicy(c, opts); err != nil {
		return nil, err
	}
	return c, nil
}
