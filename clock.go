// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import "github.com/cockroachdb/crlib/crtime"

// nowMono is the monotonic timestamp Lookup's latency measurement and
// search's wall-clock budget (search package) are built on, instead of raw
// time.Now() subtraction (SPEC_FULL.md domain stack: "the monotonic clock
// used by the search shim's wall-clock budget ... and by cache/driver stats
// timestamps").
func nowMono() crtime.Mono {
	return crtime.NowMono()
}
