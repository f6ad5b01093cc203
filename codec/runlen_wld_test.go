// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// packedByte builds a token covering 4 positions whose values are the four
// arguments, per RunlenWLD's base-3 digit packing (digit 0 = most
// significant).
func packedByte(v0, v1, v2, v3 int) byte {
	return byte(v0*27 + v1*9 + v2*3 + v3)
}

func TestRunlenWLDDecodePackedToken(t *testing.T) {
	c := NewRunlenWLD()
	block := []byte{packedByte(0, 1, 2, 0)} // win, loss, draw, win
	want := []Value{Win, Loss, Draw, Win}
	for i, w := range want {
		got, err := c.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, w, got, "position %d", i)
	}
}

func TestRunlenWLDDecodeSkipToken(t *testing.T) {
	c := NewRunlenWLD()
	// byte 81 is the first skip token: family 0 (Win), run length skip[0]=5.
	block := []byte{wldPackedTokens}
	for i := 0; i < 5; i++ {
		got, err := c.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, Win, got)
	}
}

func TestRunlenWLDScanMini(t *testing.T) {
	c := NewRunlenWLD()
	block := make([]byte, MiniBlockSize*2)
	for i := range block {
		block[i] = byte(i % wldPackedTokens) // packed tokens only, 4 each
	}
	sub, err := c.ScanMini(block, DecodeState{})
	require.NoError(t, err)
	require.Equal(t, uint32(0), sub[0].Index)
	require.Equal(t, uint32(MiniBlockSize*4), sub[1].Index)
}

func TestRunlenWLDDecodeEscapeToken(t *testing.T) {
	c := NewRunlenWLD()
	// byte 255 escapes to a 2-byte (count, packed-value) pair: 10 positions
	// of Draw (wldSkipFamily[2]).
	block := []byte{wldEscapeToken, 10, 2}
	for i := 0; i < 10; i++ {
		got, err := c.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, Draw, got, "position %d", i)
	}
}

func TestRunlenWLDScanMiniEscapeToken(t *testing.T) {
	c := NewRunlenWLD()
	block := make([]byte, MiniBlockSize*2)
	block[0], block[1], block[2] = wldEscapeToken, 7, 0 // 7 positions of Win
	for i := 3; i < len(block); i++ {
		block[i] = wldPackedTokens // skip token, family Win, run 5
	}
	sub, err := c.ScanMini(block, DecodeState{})
	require.NoError(t, err)
	require.Equal(t, uint32(0), sub[0].Index)
	// First mini-block: the 3-byte escape (7 positions) plus 61 skip-token
	// bytes (5 positions each).
	require.Equal(t, uint32(7+61*5), sub[1].Index)
}
