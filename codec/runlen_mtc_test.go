// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunlenMTCDecodeSkipToken(t *testing.T) {
	c := NewRunlenMTC()
	// byte 0 covers mtcSkip[0] = 1 below-threshold position.
	block := []byte{0, 1}
	got, err := c.Decode(block, DecodeState{}, 0)
	require.NoError(t, err)
	require.Equal(t, MTCLessThanThreshold, got)

	// byte 1 (index 1) is a literal token: 2*(1-94) is negative so pick a
	// literal comfortably above the threshold instead.
	block = []byte{0, 100}
	got, err = c.Decode(block, DecodeState{}, 1)
	require.NoError(t, err)
	require.Equal(t, Value(2*(100-mtcSkipTokens)), got)
}

func TestRunlenMTCDecodeForwardMultiByte(t *testing.T) {
	c := NewRunlenMTC()
	// byte 9 (skip token) covers mtcSkip[9] = 10 positions, then byte 94
	// (first literal token) covers 1 position with MTC 0.
	block := []byte{9, 94}
	for i := 0; i < 10; i++ {
		got, err := c.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, MTCLessThanThreshold, got)
	}
	got, err := c.Decode(block, DecodeState{}, 10)
	require.NoError(t, err)
	require.Equal(t, Value(0), got)
}

func TestRunlenMTCDecodeReverseMatchesForward(t *testing.T) {
	c := NewRunlenMTC()
	block := []byte{9, 94, 95, 96}
	// Total positions covered: 10 (byte 9) + 1 + 1 + 1 = 13.
	tail := uint32(13)
	for target := uint32(0); target < tail; target++ {
		forward, err := c.Decode(block, DecodeState{}, target)
		require.NoError(t, err)
		reverse, err := c.Decode(block, DecodeState{CurrentValue: Value(tail)}, target)
		require.NoError(t, err)
		require.Equal(t, forward, reverse, "target %d", target)
	}
}

func TestRunlenMTCScanMini(t *testing.T) {
	c := NewRunlenMTC()
	block := make([]byte, MiniBlockSize*2)
	for i := range block {
		block[i] = 94 // one position each
	}
	sub, err := c.ScanMini(block, DecodeState{})
	require.NoError(t, err)
	require.Equal(t, uint32(0), sub[0].Index)
	require.Equal(t, uint32(MiniBlockSize), sub[1].Index)
}
