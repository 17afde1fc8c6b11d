// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package index maps bucket numbers to the location of that bucket's chain
// inside a shard file.  It knows nothing about keys or hashing.
//
// Each bucket owns one 24-byte slot at byte offset bucket*24:
//
//	 0         8         16        24
//	+---------+---------+---------+
//	| head    | tail    | count   |
//	+---------+---------+---------+
//
// A slot of all zeroes (including one that lies past the end of the file)
// means the bucket has never been written.
package index

import (
	"encoding/binary"
	"fmt"

	"github.com/bpowers/dbhash/internal/ondisk"
)

// RecordSize is the on-disk size of a bucket slot.
const RecordSize = 8 + 8 + 8

// Entry is the chain location for a single bucket.
type Entry struct {
	Head  int64  // offset of the first record ever appended
	Tail  int64  // offset of the most recently appended record
	Count uint64 // records appended to this bucket, across all keys
}

// Empty reports whether the bucket has never been written.
func (e Entry) Empty() bool {
	return e.Count == 0
}

func (e Entry) marshal() []byte {
	var buf [RecordSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Head))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Tail))
	binary.LittleEndian.PutUint64(buf[16:24], e.Count)
	return buf[:]
}

func unmarshalEntry(buf []byte) Entry {
	if buf == nil {
		return Entry{}
	}
	_ = buf[RecordSize-1]
	return Entry{
		Head:  int64(binary.LittleEndian.Uint64(buf[0:8])),
		Tail:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Count: binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// Index is a fixed-record map from bucket number to Entry.
type Index struct {
	t *ondisk.RecordTable
}

// Open opens or creates the index file at path.
func Open(path string) (*Index, error) {
	t, err := ondisk.OpenRecordTable(path, RecordSize)
	if err != nil {
		return nil, fmt.Errorf("ondisk.OpenRecordTable: %w", err)
	}
	return &Index{t: t}, nil
}

// Len returns the number of slots in the file, including never-written gaps.
func (idx *Index) Len() int64 {
	return idx.t.Len()
}

// Get returns the entry for bucket; unwritten buckets return a zero Entry.
func (idx *Index) Get(bucket uint64) (Entry, error) {
	buf, err := idx.t.Get(int64(bucket))
	if err != nil {
		return Entry{}, fmt.Errorf("index.Get(%d): %w", bucket, err)
	}
	return unmarshalEntry(buf), nil
}

// Put overwrites the slot for bucket.  Callers must supply all three fields.
func (idx *Index) Put(bucket uint64, e Entry) error {
	if err := idx.t.Set(int64(bucket), e.marshal()); err != nil {
		return fmt.Errorf("index.Put(%d): %w", bucket, err)
	}
	return nil
}

// Iter returns an iterator over every slot in bucket order.
func (idx *Index) Iter() *Iter {
	return &Iter{it: idx.t.Iter()}
}

// Flush forces outstanding writes to disk.
func (idx *Index) Flush() error {
	return idx.t.Flush()
}

// Close releases the index file.
func (idx *Index) Close() error {
	return idx.t.Close()
}

// Iter walks the slots of an Index.
type Iter struct {
	it *ondisk.RecordIter
}

// Next returns the next slot and its bucket number.
func (i *Iter) Next() (e Entry, bucket uint64, ok bool) {
	buf, id, ok := i.it.Next()
	if !ok {
		return Entry{}, 0, false
	}
	return unmarshalEntry(buf), uint64(id), true
}

// Err returns the first error encountered while iterating.
func (i *Iter) Err() error {
	return i.it.Err()
}
