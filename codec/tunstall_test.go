// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildSimpleDictionary constructs a Dictionary with one catalog entry whose
// byte 0 covers 3 positions of Win and byte 1 covers 2 positions of Loss
// then 1 of Draw.
func buildSimpleDictionary() (*Dictionary, int) {
	d := NewDictionary()
	winOff := d.AddValueRun(Win, 3)
	lossDrawOff := d.AddValueRun(Loss, 2)
	d.AddValueRun(Draw, 1)

	var table TunstallTable
	table.Runlength[0] = 3
	table.ValueRunsOffset[0] = winOff
	table.Runlength[1] = 3
	table.ValueRunsOffset[1] = lossDrawOff

	entry := d.AddCatalogEntry(table)
	return d, entry
}

func TestTunstallV1Decode(t *testing.T) {
	d, entry := buildSimpleDictionary()
	c := d.CodecForV1(entry)
	block := []byte{0, 1}

	want := []Value{Win, Win, Win, Loss, Loss, Draw}
	for i, w := range want {
		got, err := c.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, w, got, "index %d", i)
	}
}

func TestTunstallV2VmapPermutation(t *testing.T) {
	d, entry := buildSimpleDictionary()

	// Find the permutation that swaps Win and Loss, leaving Unknown/Draw
	// fixed, by scanning the generated table.
	var swapWinLoss [4]Value
	found := false
	for i := 0; i < 24; i++ {
		vmap, err := VmapPermutation(i)
		require.NoError(t, err)
		if vmap[Win] == Loss && vmap[Loss] == Win && vmap[Draw] == Draw && vmap[Unknown] == Unknown {
			swapWinLoss = vmap
			found = true
			break
		}
	}
	require.True(t, found, "expected a Win/Loss swap permutation among the 24")

	c := d.CodecForV2(entry, swapWinLoss)
	block := []byte{0, 1}
	want := []Value{Loss, Loss, Loss, Win, Win, Draw}
	for i, w := range want {
		got, err := c.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, w, got, "index %d", i)
	}
}

func TestTunstallVmapPermutationOutOfRange(t *testing.T) {
	_, err := VmapPermutation(-1)
	require.Error(t, err)
	_, err = VmapPermutation(24)
	require.Error(t, err)
}

func TestTunstallScanMini(t *testing.T) {
	d, entry := buildSimpleDictionary()
	c := d.CodecForV1(entry)
	block := make([]byte, MiniBlockSize*2)
	for i := range block {
		block[i] = 0 // byte 0 covers 3 positions
	}
	sub, err := c.ScanMini(block, DecodeState{})
	require.NoError(t, err)
	require.Equal(t, uint32(0), sub[0].Index)
	require.Equal(t, uint32(MiniBlockSize*3), sub[1].Index)
}
