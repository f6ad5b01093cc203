// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanDTWMispredictThenNormalRuns(t *testing.T) {
	h := NewHuffmanDTW(false)

	run3, ok := h.RunLengthCode(3)
	require.True(t, ok)
	run2, ok := h.RunLengthCode(2)
	require.True(t, ok)

	// byte 0: MISPREDICT_WIN escape, covers index 0.
	// byte 1: normal run of 3, covers indices 1-3.
	// byte 2: normal run of 2, covers indices 4-5.
	block := []byte{4, run3, run2}

	want := []Value{Win, Win, Win, Win, Unknown, Unknown}
	for i, w := range want {
		got, err := h.Decode(block, DecodeState{}, uint32(i))
		require.NoError(t, err)
		require.Equal(t, w, got, "index %d", i)
	}
}

func TestHuffmanDTWEndOfBlock(t *testing.T) {
	h := NewHuffmanDTW(false)
	block := []byte{0} // escapeEndOfBlock
	_, err := h.Decode(block, DecodeState{}, 0)
	require.ErrorIs(t, err, ErrShortBlock)
}

func TestHuffmanDTWMispredictDrawHasPartials(t *testing.T) {
	withPartials := NewHuffmanDTW(true)
	block := []byte{6} // escapeMispredictDraw
	got, err := withPartials.Decode(block, DecodeState{}, 0)
	require.NoError(t, err)
	require.Equal(t, Draw, got)

	withoutPartials := NewHuffmanDTW(false)
	got, err = withoutPartials.Decode(block, DecodeState{LastValue: Win, CurrentValue: Loss}, 0)
	require.NoError(t, err)
	require.Equal(t, Draw, got) // lastValue=Win, value=Loss: the only value consistent with neither is Draw

}

func TestHuffmanDTWArbLength16(t *testing.T) {
	h := NewHuffmanDTW(false)
	// byte 0: escapeArbLength16, followed by a 16-bit little-endian run
	// length of 300 occupying the next two bytes.
	block := []byte{1, 0, 0, 0}
	runLen := uint32(300)
	block[1] = byte(runLen)
	block[2] = byte(runLen >> 8)

	got, err := h.Decode(block, DecodeState{CurrentValue: Draw}, 299)
	require.NoError(t, err)
	require.Equal(t, Draw, got)
}

func TestHuffmanDTWScanMini(t *testing.T) {
	h := NewHuffmanDTW(false)
	run1, ok := h.RunLengthCode(1)
	require.True(t, ok)
	block := make([]byte, MiniBlockSize*3)
	for i := range block {
		block[i] = run1
	}
	sub, err := h.ScanMini(block, DecodeState{})
	require.NoError(t, err)
	require.Equal(t, uint32(0), sub[0].Index)
	require.Equal(t, uint32(MiniBlockSize), sub[1].Index)
	require.Equal(t, uint32(MiniBlockSize*2), sub[2].Index)
}

// TestHuffmanDTWScanMiniResumeAcrossBoundary proves a Decode seeded from a
// later mini-block's saved SubIndexEntry.State reaches the same value a
// Decode from the stream's true start would, even though the preceding
// MISPREDICT escape resolved its value from state no mini-block-index alone
// would carry.
func TestHuffmanDTWScanMiniResumeAcrossBoundary(t *testing.T) {
	h := NewHuffmanDTW(false)
	run1, ok := h.RunLengthCode(1)
	require.True(t, ok)

	// byte 0: MISPREDICT_WIN (one position, value Win).
	// bytes 1..MiniBlockSize: normal 1-position runs filling out the first
	// mini-block and crossing into the second.
	block := make([]byte, MiniBlockSize*2)
	block[0] = 4 // escapeMispredictWin
	for i := 1; i < len(block); i++ {
		block[i] = run1
	}

	sub, err := h.ScanMini(block, DecodeState{})
	require.NoError(t, err)
	require.Equal(t, uint32(MiniBlockSize), sub[1].Index)

	want, err := h.Decode(block, DecodeState{}, MiniBlockSize)
	require.NoError(t, err)

	got, err := h.Decode(block, sub[1].State, MiniBlockSize-sub[1].Index)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
