// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package search

import "github.com/eygilbert/egdb-go/slice"

// SelfVerify recomputes p's value by forcing a root search of its
// successors even though stored is what a direct lookup already returned
// (original_source/egdb/egdb_search.cpp's force_root_search path, used by
// its egdb_test verification driver). It reports whether the two disagree;
// Unknown never counts as a disagreement, since an exhausted search budget
// is not evidence the stored value is wrong.
func (s *Searcher) SelfVerify(p slice.Position, color slice.Color, stored Value) (mismatch bool) {
	recomputed := s.LookupWithSearch(p, color, true)
	if recomputed == Unknown {
		return false
	}
	return recomputed != stored
}
