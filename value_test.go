// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package egdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eygilbert/egdb-go/codec"
)

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{SubdbUnavailable, "subdb-unavailable"},
		{NotInCache, "not-in-cache"},
		{Unknown, "unknown"},
		{Win, "win"},
		{Loss, "loss"},
		{Draw, "draw"},
		{DrawOrLoss, "draw-or-loss"},
		{WinOrDraw, "win-or-draw"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.v.String())
	}
}

func TestFromWLDSharesCodecOrdering(t *testing.T) {
	require.Equal(t, Unknown, fromWLD(codec.Unknown))
	require.Equal(t, Win, fromWLD(codec.Win))
	require.Equal(t, Loss, fromWLD(codec.Loss))
	require.Equal(t, Draw, fromWLD(codec.Draw))
	require.Equal(t, DrawOrLoss, fromWLD(codec.DrawOrLoss))
	require.Equal(t, WinOrDraw, fromWLD(codec.WinOrDraw))
}

func TestFromDTW(t *testing.T) {
	// A loss-or-draw-class position: returned depth is a plain doubling.
	require.Equal(t, Value(20), fromDTW(codec.Value(10), false))
	// A win-class position: caller adds one for the side-to-move's own ply.
	require.Equal(t, Value(21), fromDTW(codec.Value(10), true))
	require.Equal(t, Value(0), fromDTW(codec.Value(0), false))
	require.Equal(t, Value(1), fromDTW(codec.Value(0), true))
}
