// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package catalog

import (
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// canonicalCRCFile is, per format, the smallest index file spec.md §6 names
// as the "smallest canonical index file" used to identify a database
// directory by CRC+filename (spec.md §4.6 "Open"). The two-king endgame is
// the smallest slice every supported format ships, so its index file is the
// canonical probe for all of them.
var canonicalCRCFile = map[Format]string{
	FormatWLDRunlen:  "db2-0011.idx",
	FormatTunstallV1: "db2-0011.idx",
	FormatTunstallV2: "db2-0011.idx1",
	FormatHuffmanDTW: "db2-0011.idx_dtw",
	FormatMTC:        "db2-0011.idx_mtc",
}

// crcManifest is the static (filename → crc32) table spec.md §6 describes,
// used by Identify and Verify. Real per-release CRC tables are generated
// by the database builder (excluded by the Non-goals, see DESIGN.md);
// Identify falls back to matching on file extension and file presence when
// no CRC table entry exists for a directory's canonical file, which is
// always the case here.
var crcManifest = map[Format]map[string]uint32{}

// RegisterCRC adds a (filename → crc32) entry for format, for callers that
// ship a real release's manifest alongside their database files.
func RegisterCRC(format Format, filename string, crc uint32) {
	m, ok := crcManifest[format]
	if !ok {
		m = map[string]uint32{}
		crcManifest[format] = m
	}
	m[filename] = crc
}

// IdentifyResult is what Identify derives from a database directory's
// canonical file: the format, and the piece-count ceilings a Driver needs
// to size its catalog (SPEC_FULL.md "Supplemented features").
type IdentifyResult struct {
	Format                Format
	MaxPieces             int
	MaxKings1Side8Pieces  int
	MaxPieces1Side        int
}

// formatCeilings are the per-format (maxPieces, maxKings1Side8Pieces,
// maxPieces1Side) ceilings the original egdb_identify.cpp derives once a
// format is matched (SPEC_FULL.md "Supplemented features").
var formatCeilings = map[Format][3]int{
	FormatWLDRunlen:  {8, 3, 5},
	FormatTunstallV1: {8, 3, 5},
	FormatTunstallV2: {9, 4, 5},
	FormatHuffmanDTW: {9, 4, 5},
	FormatMTC:        {9, 4, 5},
}

// Identify inspects dir and reports which format's files it holds, by
// looking for each format's canonical index file in turn and, if a CRC
// manifest entry is registered for it, verifying the CRC (spec.md §4.6,
// §6 "CRC-32 manifest").
func Identify(dir string) (IdentifyResult, error) {
	for _, format := range []Format{FormatWLDRunlen, FormatTunstallV1, FormatTunstallV2, FormatHuffmanDTW, FormatMTC} {
		name := canonicalCRCFile[format]
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if table, ok := crcManifest[format]; ok {
			if want, ok := table[name]; ok {
				if crc32.ChecksumIEEE(data) != want {
					return IdentifyResult{}, errors.Newf(
						"catalog: %s fails CRC check for format %s", errors.Safe(name), format)
				}
			}
		}
		c := formatCeilings[format]
		return IdentifyResult{Format: format, MaxPieces: c[0], MaxKings1Side8Pieces: c[1], MaxPieces1Side: c[2]}, nil
	}
	return IdentifyResult{}, errors.Newf("catalog: could not identify database format in %s", errors.Safe(dir))
}

// VerifyCRC recomputes the CRC of every file in dir that has a registered
// manifest entry for format, returning the number of mismatches found
// (spec.md §8 "CRC invariance", §7 "CrcMismatch").
func VerifyCRC(dir string, format Format) (mismatches int, err error) {
	table, ok := crcManifest[format]
	if !ok {
		return 0, nil
	}
	for name, want := range table {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			mismatches++
			continue
		}
		if crc32.ChecksumIEEE(data) != want {
			mismatches++
		}
	}
	return mismatches, nil
}
