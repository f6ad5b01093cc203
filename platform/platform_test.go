// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestFileReadAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := make([]byte, 4096*3)
	for i := range content {
		content[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, int64(len(content)), f.Size())

	buf := make([]byte, 4096)
	require.NoError(t, f.ReadAt(buf, 4096))
	require.Equal(t, content[4096:8192], buf)
}

func TestFileReadAtMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
}

func TestAllocAlignedIsPageAligned(t *testing.T) {
	buf := AllocAligned(4096)
	require.Len(t, buf, 4096)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	require.Zero(t, int(addr)%PageSize())
}

func TestPageSizePositive(t *testing.T) {
	require.Greater(t, PageSize(), 0)
}
