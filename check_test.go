// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/dbhash/internal/datafile"
)

func TestCheck(t *testing.T) {
	table := openTestTable(t, t.TempDir(), WithBuckets(97), WithShards(3))

	report, err := table.Check()
	require.NoError(t, err)
	require.Equal(t, CheckReport{}, report)

	for i := 0; i < 100; i++ {
		require.NoError(t, table.PutString(fmt.Sprintf("k%d", i%13), fmt.Sprintf("v%d", i)))
	}
	report, err = table.Check()
	require.NoError(t, err)
	require.Equal(t, int64(100), report.Reachable)
	require.Zero(t, report.Orphans)

	st, err := table.Stats()
	require.NoError(t, err)
	require.Equal(t, st.BucketsUsed, report.Chains)
}

func TestCheck_Orphan(t *testing.T) {
	table := openTestTable(t, t.TempDir(), WithBuckets(97), WithShards(3))
	require.NoError(t, table.PutString("a", "1"))

	// a Put interrupted after writing the record but before updating the
	// index leaves a record nothing points to
	_, _, shard := table.locate([]byte("b"))
	_, err := shard.Append(datafile.NoChain, 42, []byte("b"), []byte("2"))
	require.NoError(t, err)

	report, err := table.Check()
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Reachable)
	require.Equal(t, int64(1), report.Orphans)

	// the orphan isn't visible by key, only to a full scan
	n, err := table.LenFor([]byte("b"))
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, collect(t, table.Iter()), 2)
}

func TestCheck_WrongTail(t *testing.T) {
	table := openTestTable(t, t.TempDir(), WithBuckets(97), WithShards(3))
	require.NoError(t, table.PutString("a", "1"))
	require.NoError(t, table.PutString("a", "2"))

	_, bucket, _ := table.locate([]byte("a"))
	e, err := table.index.Get(bucket)
	require.NoError(t, err)
	e.Tail = e.Head
	require.NoError(t, table.index.Put(bucket, e))

	_, err = table.Check()
	require.True(t, errors.Is(err, ErrCorrupt), "%v", err)
}

func TestCheck_SharedRecord(t *testing.T) {
	table := openTestTable(t, t.TempDir(), WithBuckets(2), WithShards(1))
	require.NoError(t, table.PutString("a", "1"))

	_, bucket, _ := table.locate([]byte("a"))
	e, err := table.index.Get(bucket)
	require.NoError(t, err)
	require.NoError(t, table.index.Put(1-bucket, e))

	_, err = table.Check()
	require.True(t, errors.Is(err, ErrCorrupt), "%v", err)
}

func TestCheck_ShortChain(t *testing.T) {
	table := openTestTable(t, t.TempDir(), WithBuckets(97), WithShards(3))
	require.NoError(t, table.PutString("a", "1"))

	_, bucket, _ := table.locate([]byte("a"))
	e, err := table.index.Get(bucket)
	require.NoError(t, err)
	e.Count = 2
	require.NoError(t, table.index.Put(bucket, e))

	_, err = table.Check()
	require.True(t, errors.Is(err, ErrCorrupt), "%v", err)

	// reads of the key notice the missing record too
	_, err = table.LenFor([]byte("a"))
	require.True(t, errors.Is(err, ErrCorrupt), "%v", err)
}
