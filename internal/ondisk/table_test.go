// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ondisk

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createUnlinkedTestFile creates a test file that is already removed from the
// file system -- just close it (or exit the program) and it will be cleaned up.
func createUnlinkedTestFile() *os.File {
	f, err := os.CreateTemp("", "dbhash-internal-table.*.test")
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()
	return f
}

func record(b byte, size int) []byte {
	return bytes.Repeat([]byte{b}, size)
}

func TestRecordTable(t *testing.T) {
	const recordSize = 24
	f := createUnlinkedTestFile()
	tbl, err := NewRecordTable(f, recordSize)
	require.NoError(t, err)
	require.Equal(t, int64(0), tbl.Len())

	// wrong-sized records are rejected
	require.Error(t, tbl.Set(0, record(1, recordSize-1)))
	require.Error(t, tbl.Set(-1, record(1, recordSize)))

	for i := int64(0); i < 12; i++ {
		require.NoError(t, tbl.Set(i, record(byte(i+1), recordSize)))
	}
	require.Equal(t, int64(12), tbl.Len())
	for i := int64(0); i < 12; i++ {
		r, err := tbl.Get(i)
		require.NoError(t, err)
		require.Equal(t, record(byte(i+1), recordSize), r)
	}

	// reads past the end are absent, not errors
	r, err := tbl.Get(12)
	require.NoError(t, err)
	require.Nil(t, r)

	// overwriting leaves the length alone
	require.NoError(t, tbl.Set(3, record(0xff, recordSize)))
	require.Equal(t, int64(12), tbl.Len())
	r, err = tbl.Get(3)
	require.NoError(t, err)
	require.Equal(t, record(0xff, recordSize), r)

	id, err := tbl.Append(record(0xaa, recordSize))
	require.NoError(t, err)
	require.Equal(t, int64(12), id)
	require.Equal(t, int64(13), tbl.Len())

	// if we close a file, we expect errors
	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Flush())
	_, err = tbl.Get(0)
	require.Error(t, err)
	err = tbl.Set(0, record(1, recordSize))
	require.Error(t, err)
}

func TestRecordTable_Gaps(t *testing.T) {
	const recordSize = 8
	path := filepath.Join(t.TempDir(), "table")
	tbl, err := OpenRecordTable(path, recordSize)
	require.NoError(t, err)

	require.NoError(t, tbl.Set(5, record(7, recordSize)))
	require.Equal(t, int64(6), tbl.Len())

	for i := int64(0); i < 5; i++ {
		r, err := tbl.Get(i)
		require.NoError(t, err)
		require.Equal(t, make([]byte, recordSize), r)
	}

	stats, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(6*recordSize), stats.Size())
	require.NoError(t, tbl.Close())

	// the length is derived from the file on reopen
	tbl, err = OpenRecordTable(path, recordSize)
	require.NoError(t, err)
	defer func() { _ = tbl.Close() }()
	require.Equal(t, int64(6), tbl.Len())
	r, err := tbl.Get(5)
	require.NoError(t, err)
	require.Equal(t, record(7, recordSize), r)
}

func TestRecordTable_Iter(t *testing.T) {
	const recordSize = 4
	f := createUnlinkedTestFile()
	tbl, err := NewRecordTable(f, recordSize)
	require.NoError(t, err)
	defer func() { _ = tbl.Close() }()

	for i := 0; i < 5; i++ {
		_, err := tbl.Append(record(byte(i), recordSize))
		require.NoError(t, err)
	}

	// iterators are restartable: each call starts from the beginning
	for pass := 0; pass < 2; pass++ {
		it := tbl.Iter()
		var ids []int64
		for {
			r, id, ok := it.Next()
			if !ok {
				break
			}
			assert.Equal(t, record(byte(id), recordSize), r)
			ids = append(ids, id)
		}
		require.NoError(t, it.Err())
		require.Equal(t, []int64{0, 1, 2, 3, 4}, ids)
	}
}

func TestRecordTable_PartialRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table")
	require.NoError(t, os.WriteFile(path, make([]byte, 30), 0644))

	_, err := OpenRecordTable(path, 24)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCorrupt))

	_, err = OpenRecordTable(path, 0)
	require.Error(t, err)
}

func TestRecordTable_Truncated(t *testing.T) {
	const recordSize = 8
	f := createUnlinkedTestFile()
	tbl, err := NewRecordTable(f, recordSize)
	require.NoError(t, err)
	defer func() { _ = tbl.Close() }()
	require.NoError(t, tbl.Set(1, record(1, recordSize)))

	// if we truncate the file underneath the table, reads should fail
	require.NoError(t, f.Truncate(recordSize+3))
	_, err = tbl.Get(1)
	require.Error(t, err)
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}
