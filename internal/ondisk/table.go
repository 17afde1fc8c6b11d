// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ondisk provides a file-backed array of fixed-size records.
package ondisk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ErrCorrupt is returned when on-disk state doesn't match the shape the
// file format requires.
var ErrCorrupt = errors.New("data corrupted")

// ReadFullAt reads exactly len(buf) bytes at off.  A short read is reported
// as io.ErrUnexpectedEOF rather than a bare io.EOF.
func ReadFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("short read of %d bytes at %d (wanted %d): %w", n, off, len(buf), io.ErrUnexpectedEOF)
	}
	return err
}

// RecordTable is a dense array of identically-sized records addressed by id.
// Record id lives at byte offset id*recordSize.  Slots that were skipped over
// by a Set past the end read back as all zeroes.
type RecordTable struct {
	f          *os.File
	recordSize int64
	n          int64 // length in number of records
	isClosed   atomic.Bool
}

// OpenRecordTable opens (creating if necessary) the file at path as a table
// of recordSize-byte records.
func OpenRecordTable(path string, recordSize int) (*RecordTable, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", path, err)
	}
	t, err := NewRecordTable(f, recordSize)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return t, nil
}

// NewRecordTable wraps an already-open file.  The table takes ownership of f.
func NewRecordTable(f *os.File, recordSize int) (*RecordTable, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("record size must be positive (got %d)", recordSize)
	}
	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size%int64(recordSize) != 0 {
		return nil, fmt.Errorf("%s: length %d is not a multiple of record size %d: %w", f.Name(), size, recordSize, ErrCorrupt)
	}
	return &RecordTable{
		f:          f,
		recordSize: int64(recordSize),
		n:          size / int64(recordSize),
	}, nil
}

// RecordSize returns the fixed size of each record in bytes.
func (t *RecordTable) RecordSize() int {
	return int(t.recordSize)
}

// Len returns the number of records, including zero-filled gaps.
func (t *RecordTable) Len() int64 {
	return t.n
}

// Get returns the record stored at id.  An id past the end of the table is
// not an error: it returns a nil slice.
func (t *RecordTable) Get(id int64) ([]byte, error) {
	if id < 0 {
		return nil, fmt.Errorf("id (%d) out of range", id)
	}
	if id >= t.n {
		return nil, nil
	}
	buf := make([]byte, t.recordSize)
	if err := ReadFullAt(t.f, buf, id*t.recordSize); err != nil {
		return nil, fmt.Errorf("ReadFullAt(%d): %w", id, err)
	}
	return buf, nil
}

// Set writes record at id, extending the file if id is past the end.
func (t *RecordTable) Set(id int64, record []byte) error {
	if id < 0 {
		return fmt.Errorf("id (%d) out of range", id)
	}
	if int64(len(record)) != t.recordSize {
		return fmt.Errorf("record length %d doesn't match record size %d", len(record), t.recordSize)
	}
	if _, err := t.f.WriteAt(record, id*t.recordSize); err != nil {
		return fmt.Errorf("f.WriteAt(%d): %w", id, err)
	}
	if id >= t.n {
		t.n = id + 1
	}
	return nil
}

// Append writes record after the last one and returns its id.
func (t *RecordTable) Append(record []byte) (int64, error) {
	id := t.n
	if err := t.Set(id, record); err != nil {
		return 0, err
	}
	return id, nil
}

// Iter returns an iterator over every record in id order.  Records appended
// after the iterator was created are not visited.
func (t *RecordTable) Iter() *RecordIter {
	return &RecordIter{t: t, n: t.n}
}

// Flush forces written records out to stable storage.
func (t *RecordTable) Flush() error {
	if t.isClosed.Load() {
		return nil
	}
	return t.f.Sync()
}

// Close syncs and releases the underlying file.  Calling it more than once
// is a no-op.
func (t *RecordTable) Close() error {
	if t.isClosed.Swap(true) {
		return nil
	}
	if err := t.f.Sync(); err != nil {
		_ = t.f.Close()
		return fmt.Errorf("f.Sync: %w", err)
	}
	return t.f.Close()
}

// RecordIter walks a RecordTable.  Make sure to check Err once Next returns false.
type RecordIter struct {
	t   *RecordTable
	id  int64
	n   int64
	err error
}

// Next returns the next record and its id.
func (i *RecordIter) Next() (record []byte, id int64, ok bool) {
	if i.err != nil || i.id >= i.n {
		return nil, 0, false
	}
	record, err := i.t.Get(i.id)
	if err != nil {
		i.err = err
		return nil, 0, false
	}
	id = i.id
	i.id++
	return record, id, true
}

// Err returns the first error encountered while iterating.
func (i *RecordIter) Err() error {
	return i.err
}
