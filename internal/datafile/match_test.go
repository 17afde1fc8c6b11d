// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newMixedChain builds one chain holding "k" at even positions and a
// colliding "j" at odd ones.
func newMixedChain(t *testing.T, n int) (*Shard, *chain) {
	s, err := Open(filepath.Join(t.TempDir(), "0"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	c := &chain{}
	for i := 0; i < n; i++ {
		c.append(t, s, 5, "k", fmt.Sprintf("v%d", i))
		c.append(t, s, 5, "j", fmt.Sprintf("other%d", i))
	}
	return s, c
}

func TestShard_FirstLastCount(t *testing.T) {
	s, c := newMixedChain(t, 4)

	item, ok, err := s.First(c.head, c.count, 5, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v0", string(item.Value))

	item, ok, err = s.Last(c.head, c.count, 5, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v3", string(item.Value))

	n, err := s.Count(c.head, c.count, 5, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, int64(4), n)

	// same key, different hash: not a match
	_, ok, err = s.Last(c.head, c.count, 6, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	// an empty chain is never read
	_, ok, err = s.First(NullOffset, 0, 5, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestShard_Nth(t *testing.T) {
	s, c := newMixedChain(t, 4)

	for i, expected := range map[int64]string{
		0:  "v3",
		-1: "v2",
		-3: "v0",
		1:  "v1",
		3:  "v3",
	} {
		item, err := s.Nth(c.head, c.count, 5, []byte("k"), i)
		require.NoError(t, err, "nth(%d)", i)
		require.Equal(t, expected, string(item.Value), "nth(%d)", i)
	}

	for _, i := range []int64{4, -4, math.MinInt64, math.MaxInt64} {
		_, err := s.Nth(c.head, c.count, 5, []byte("k"), i)
		require.True(t, errors.Is(err, ErrOutOfRange), "nth(%d): %v", i, err)
	}
}
