// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Options is the parsed form of the ";"- or ","-separated key=value option
// string spec.md §6 names ("Option string is ';'- or ','-separated
// key=value"). Zero-value fields fall back to the ceilings egdb.Identify
// derived from the database directory itself.
//
// This is intentionally a small hand-rolled scanner rather than a
// third-party flag/config library: the grammar is two delimiter runes and an
// '=' split, nothing in the retrieved pack's dependency set (cobra, yaml,
// tablewriter, …) fits a single inline key=value string better than
// strings.FieldsFunc, and introducing a flag-parsing dependency for this
// would not exercise it the way the rest of the option string's few fields
// deserve (see DESIGN.md).
type Options struct {
	// MaxPieces caps how many total pieces a lookup's slice may have before
	// Lookup short-circuits to SubdbUnavailable (spec.md §4.6 step 2). Zero
	// means "use the ceiling Identify reported".
	MaxPieces int
	// MaxKings1Side8Pieces and MaxPieces1Side are the two further per-format
	// ceilings SPEC_FULL.md's "Supplemented features" section derives from
	// Identify; Options lets a caller override either.
	MaxKings1Side8Pieces int
	MaxPieces1Side       int
	// AutoloadIOBytesPerSec throttles the sequential reads catalog.Open
	// issues to populate autoloaded files; 0 means unlimited.
	AutoloadIOBytesPerSec int64
}

// ParseOptions parses spec.md §6's option string. Recognized keys:
// "maxpieces", "maxkings_1side_8pcs", "maxpieces_1side",
// "autoload_io_bytes_per_sec". Unrecognized keys are rejected rather than
// silently ignored, since a typo'd key silently falling back to a default
// ceiling is a worse failure mode than an IndexFileMalformed-adjacent error
// at Open.
func ParseOptions(s string) (Options, error) {
	var opts Options
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return Options{}, errors.Newf("egdb: option %q is missing '='", field)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "maxpieces":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Options{}, errors.Wrapf(err, "egdb: option maxpieces=%q", val)
			}
			opts.MaxPieces = n
		case "maxkings_1side_8pcs":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Options{}, errors.Wrapf(err, "egdb: option maxkings_1side_8pcs=%q", val)
			}
			opts.MaxKings1Side8Pieces = n
		case "maxpieces_1side":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Options{}, errors.Wrapf(err, "egdb: option maxpieces_1side=%q", val)
			}
			opts.MaxPieces1Side = n
		case "autoload_io_bytes_per_sec":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return Options{}, errors.Wrapf(err, "egdb: option autoload_io_bytes_per_sec=%q", val)
			}
			opts.AutoloadIOBytesPerSec = n
		default:
			return Options{}, errors.Newf("egdb: unrecognized option %q", key)
		}
	}
	return opts, nil
}
