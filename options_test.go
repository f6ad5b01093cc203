// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOptionsEmpty(t *testing.T) {
	opts, err := ParseOptions("")
	require.NoError(t, err)
	require.Equal(t, Options{}, opts)
}

func TestParseOptionsAllFields(t *testing.T) {
	opts, err := ParseOptions("maxpieces=8;maxkings_1side_8pcs=3,maxpieces_1side=5;autoload_io_bytes_per_sec=1048576")
	require.NoError(t, err)
	require.Equal(t, Options{
		MaxPieces:             8,
		MaxKings1Side8Pieces:  3,
		MaxPieces1Side:        5,
		AutoloadIOBytesPerSec: 1048576,
	}, opts)
}

func TestParseOptionsWhitespaceTolerant(t *testing.T) {
	opts, err := ParseOptions(" maxpieces = 6 ; maxpieces_1side=4 ")
	require.NoError(t, err)
	require.Equal(t, 6, opts.MaxPieces)
	require.Equal(t, 4, opts.MaxPieces1Side)
}

func TestParseOptionsRejectsUnrecognizedKey(t *testing.T) {
	_, err := ParseOptions("bogus=1")
	require.Error(t, err)
}

func TestParseOptionsRejectsMissingEquals(t *testing.T) {
	_, err := ParseOptions("maxpieces")
	require.Error(t, err)
}

func TestParseOptionsRejectsNonNumericValue(t *testing.T) {
	_, err := ParseOptions("maxpieces=abc")
	require.Error(t, err)
}
