// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndex_GetPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	idx, err := Open(path)
	require.NoError(t, err)

	// never-written buckets read back as empty
	e, err := idx.Get(42)
	require.NoError(t, err)
	require.True(t, e.Empty())
	require.Equal(t, Entry{}, e)

	want := Entry{Head: 0, Tail: 4096, Count: 3}
	require.NoError(t, idx.Put(7, want))
	require.Equal(t, int64(8), idx.Len())

	got, err := idx.Get(7)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// the gap below bucket 7 is zero-filled
	for b := uint64(0); b < 7; b++ {
		e, err := idx.Get(b)
		require.NoError(t, err)
		require.True(t, e.Empty())
	}

	// last writer wins
	want2 := Entry{Head: 0, Tail: 8192, Count: 4}
	require.NoError(t, idx.Put(7, want2))
	got, err = idx.Get(7)
	require.NoError(t, err)
	require.Equal(t, want2, got)

	stats, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(8*RecordSize), stats.Size())

	require.NoError(t, idx.Close())

	idx, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	got, err = idx.Get(7)
	require.NoError(t, err)
	require.Equal(t, want2, got)
}

func TestIndex_Iter(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.Put(1, Entry{Head: 40, Tail: 40, Count: 1}))
	require.NoError(t, idx.Put(3, Entry{Head: 0, Tail: 120, Count: 2}))

	it := idx.Iter()
	var buckets []uint64
	var used []uint64
	for {
		e, bucket, ok := it.Next()
		if !ok {
			break
		}
		buckets = append(buckets, bucket)
		if !e.Empty() {
			used = append(used, bucket)
		}
	}
	require.NoError(t, it.Err())
	require.Equal(t, []uint64{0, 1, 2, 3}, buckets)
	require.Equal(t, []uint64{1, 3}, used)
}
