// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package notation declares the FEN/PDN notation port named in spec.md §1's
// list of external collaborators this repo does not implement ("FEN/PDN
// notation ... remain out of scope"). It exists purely so a caller's own
// notation package can be handed to diagnostics (Driver's LogFunc payloads,
// search.Searcher's node logging) without this module needing to parse or
// render draughts notation itself.
package notation

import "github.com/eygilbert/egdb-go/slice"

// Notation converts between slice.Position/slice.Color and a caller-defined
// textual notation (FEN, PDN, or anything else). No implementation ships in
// this repo; callers supply one.
type Notation interface {
	Format(p slice.Position, color slice.Color) string
	Parse(s string) (slice.Position, slice.Color, error)
}
