// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package catalog

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ghemawat/stream"

	"github.com/eygilbert/egdb-go/codec"
	"github.com/eygilbert/egdb-go/slice"
)

// parseIndexFile dispatches to the text or binary grammar for format and
// returns the File's subdbs (spec.md §6 "On-disk files").
func parseIndexFile(f *File, format Format, dict *codec.Dictionary) ([]*Subdb, error) {
	if format == FormatHuffmanDTW {
		return parseBinaryIndexFile(f)
	}
	return parseTextIndexFile(f, format, dict)
}

// baseLinePrefix marks the start of a "BASE<bm>,<bk>,<wm>,<wk>,<subslice>,
// <color>:rest" record. ghemawat/stream handles line splitting; the
// per-record field splitting below mirrors the fixed comma grammar instead
// of a second regexp pass.
const baseLinePrefix = "BASE"

func parseTextIndexFile(f *File, format Format, dict *codec.Dictionary) ([]*Subdb, error) {
	var subdbs []*Subdb
	var cur *Subdb
	var parseErr error

	fail := func(err error) {
		if parseErr == nil {
			parseErr = err
		}
	}

	sink := stream.FilterFunc(func(arg stream.Arg) error {
		for line := range arg.In {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if strings.HasPrefix(line, baseLinePrefix) {
				sdb, singleLine, err := parseBaseLine(line, f)
				if err != nil {
					fail(err)
					continue
				}
				cur = sdb
				subdbs = append(subdbs, cur)
				if singleLine {
					cur = nil
				}
				continue
			}
			if cur == nil {
				fail(errors.Newf("catalog: index line with no preceding BASE record: %q", line))
				continue
			}
			if err := appendIndexLine(cur, line, format, dict); err != nil {
				fail(err)
			}
		}
		return nil
	})

	if err := stream.Run(stream.ReadLines(f.IndexPath), sink); err != nil {
		return nil, errors.Wrapf(err, "catalog: reading %s", errors.Safe(f.IndexPath))
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return subdbs, nil
}

// parseBaseLine parses one "BASE<bm>,<bk>,<wm>,<wk>,<subslice>,<color>:rest"
// record. singleLine reports whether rest was a single-value marker
// (+|=|-|.) rather than "<first_block>/<start_byte>", in which case there
// are no following index lines for this subdb.
func parseBaseLine(line string, f *File) (sdb *Subdb, singleLine bool, err error) {
	rest := strings.TrimPrefix(line, baseLinePrefix)
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return nil, false, errors.Newf("catalog: malformed BASE line (no ':'): %q", line)
	}
	fields := strings.Split(rest[:colon], ",")
	if len(fields) != 6 {
		return nil, false, errors.Newf("catalog: malformed BASE line (want 6 fields, got %d): %q", len(fields), line)
	}
	nums := make([]int, 6)
	for i, s := range fields {
		n, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			return nil, false, errors.Wrapf(convErr, "catalog: malformed BASE field %q", s)
		}
		nums[i] = n
	}

	sdb = &Subdb{
		Slice: slice.Slice{BlackMen: nums[0], BlackKings: nums[1], WhiteMen: nums[2], WhiteKings: nums[3]},
		Color: slice.Color(nums[5]),
		File:  f,
	}

	tail := strings.TrimSpace(rest[colon+1:])
	switch tail {
	case "+":
		sdb.IsSingle, sdb.SingleValue = true, codec.Win
		return sdb, true, nil
	case "=":
		sdb.IsSingle, sdb.SingleValue = true, codec.Draw
		return sdb, true, nil
	case "-":
		sdb.IsSingle, sdb.SingleValue = true, codec.Loss
		return sdb, true, nil
	case ".":
		sdb.IsSingle, sdb.SingleValue = true, codec.Unknown
		return sdb, true, nil
	}

	slash := strings.IndexByte(tail, '/')
	if slash < 0 {
		return nil, false, errors.Newf("catalog: malformed BASE offset (no '/'): %q", tail)
	}
	firstBlock, err := strconv.ParseInt(tail[:slash], 10, 64)
	if err != nil {
		return nil, false, errors.Wrapf(err, "catalog: malformed first_block %q", tail[:slash])
	}
	startByte, err := strconv.Atoi(tail[slash+1:])
	if err != nil {
		return nil, false, errors.Wrapf(err, "catalog: malformed start_byte %q", tail[slash+1:])
	}
	sdb.FirstBlock, sdb.StartByte = firstBlock, startByte
	return sdb, false, nil
}

// appendIndexLine parses one per-block index line into cur.Indices, and for
// Tunstall v2 (.idx1) the trailing ",<catalog_entry>,<vmap_permutation>"
// fields into cur.Codec (spec.md §6 "name.idx1 for Tunstall v2").
func appendIndexLine(cur *Subdb, line string, format Format, dict *codec.Dictionary) error {
	if format != FormatTunstallV2 {
		idx, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "catalog: malformed index line %q", line)
		}
		cur.Indices = append(cur.Indices, idx)
		if format == FormatTunstallV1 && dict != nil && cur.Codec == nil {
			ensureDictEntry(dict, 0)
			cur.Codec = dict.CodecForV1(0)
			cur.codecKind, cur.codecEntry = "tunstall1", 0
		}
		return nil
	}

	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return errors.Newf("catalog: malformed .idx1 line (want 3 fields): %q", line)
	}
	idx, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return errors.Wrapf(err, "catalog: malformed index %q", fields[0])
	}
	entry, err := strconv.Atoi(fields[1])
	if err != nil {
		return errors.Wrapf(err, "catalog: malformed catalog_entry %q", fields[1])
	}
	permNum, err := strconv.Atoi(fields[2])
	if err != nil {
		return errors.Wrapf(err, "catalog: malformed vmap_permutation %q", fields[2])
	}
	vmap, err := codec.VmapPermutation(permNum)
	if err != nil {
		return err
	}
	cur.Indices = append(cur.Indices, idx)
	if dict != nil {
		ensureDictEntry(dict, entry)
		cur.Codec = dict.CodecForV2(entry, vmap)
		cur.codecKind, cur.codecEntry, cur.codecVmapPerm = "tunstall2", entry, permNum
	}
	return nil
}
