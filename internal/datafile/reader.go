// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"

	"github.com/bpowers/dbhash/internal/ondisk"
)

type recordHeader struct {
	seq      uint64
	hash     uint64
	keyLen   int64
	valueLen int64
	next     int64
}

func readRecordHeader(header []byte) recordHeader {
	// bounds check elimination
	_ = header[recordPrefixSize-1]
	return recordHeader{
		seq:      binary.LittleEndian.Uint64(header[0:headerHashOff]),
		hash:     binary.LittleEndian.Uint64(header[headerHashOff:headerKeyLenOff]),
		keyLen:   int64(binary.LittleEndian.Uint64(header[headerKeyLenOff:headerValueLenOff])),
		valueLen: int64(binary.LittleEndian.Uint64(header[headerValueLenOff:headerNextOff])),
		next:     int64(binary.LittleEndian.Uint64(header[headerNextOff:recordPrefixSize])),
	}
}

func (h recordHeader) recordLen() int64 {
	return recordPrefixSize + h.keyLen + h.valueLen
}

// check validates a header read from off in a file whose data ends at end.
// Forward pointers always point past the end of their own record, since the
// target was appended later.
func (h recordHeader) check(off, end int64) error {
	if err := h.checkExtent(off, end); err != nil {
		return err
	}
	if h.next != NullOffset && h.next >= end {
		return fmt.Errorf("record at %d: forward pointer %d beyond end of data (%d): %w", off, h.next, end, ondisk.ErrCorrupt)
	}
	return nil
}

// checkExtent validates everything but the forward pointer's upper bound.
// A scan uses it against the end of data when the scan started: a later
// Put may link a record it has already passed to one beyond that end.
func (h recordHeader) checkExtent(off, end int64) error {
	if h.keyLen < 0 || h.valueLen < 0 || h.keyLen > end || h.valueLen > end {
		return fmt.Errorf("record at %d: bad lengths (key %d, value %d): %w", off, h.keyLen, h.valueLen, ondisk.ErrCorrupt)
	}
	if off+h.recordLen() > end {
		return fmt.Errorf("record at %d + keyLen %d + valueLen %d beyond end of data (%d): %w", off, h.keyLen, h.valueLen, end, ondisk.ErrCorrupt)
	}
	if h.next != NullOffset && h.next < off+h.recordLen() {
		return fmt.Errorf("record at %d: forward pointer %d doesn't point forward: %w", off, h.next, ondisk.ErrCorrupt)
	}
	return nil
}

func (s *Shard) readHeader(off int64) (recordHeader, error) {
	if off < 0 || off+recordPrefixSize > s.end {
		return recordHeader{}, fmt.Errorf("record offset %d beyond end of data (%d): %w", off, s.end, ondisk.ErrCorrupt)
	}
	var buf [recordPrefixSize]byte
	if err := ondisk.ReadFullAt(s.f, buf[:], off); err != nil {
		return recordHeader{}, fmt.Errorf("ReadFullAt(%d): %w", off, err)
	}
	h := readRecordHeader(buf[:])
	if err := h.check(off, s.end); err != nil {
		return recordHeader{}, err
	}
	return h, nil
}

// IterItem is a single record produced by an Iter.
type IterItem struct {
	Key    []byte
	Value  []byte
	Offset int64
}

// Iter iterates over records in a shard.  Make sure to `defer it.Close()`,
// and check Err once Next returns false.
type Iter interface {
	Next() (IterItem, bool)
	Err() error
	Close() error
}

// Chain returns an iterator over the records in the chain starting at head
// whose stored hash and key equal hash and key, in insertion order.  At most
// count records are visited, matching or not.
func (s *Shard) Chain(head int64, count uint64, hash uint64, key []byte) *ChainIter {
	return &ChainIter{
		s:         s,
		off:       head,
		remaining: count,
		hash:      hash,
		key:       key,
	}
}

// ChainIter walks a single chain by following forward pointers.
type ChainIter struct {
	s         *Shard
	off       int64
	remaining uint64
	hash      uint64
	key       []byte
	err       error
}

var _ Iter = (*ChainIter)(nil)

func (i *ChainIter) Next() (IterItem, bool) {
	for i.err == nil && i.remaining > 0 {
		off := i.off
		h, err := i.s.readHeader(off)
		if err != nil {
			i.err = err
			return IterItem{}, false
		}
		i.remaining--
		if h.next == NullOffset {
			if i.remaining > 0 {
				i.err = fmt.Errorf("chain ended at %d with %d records missing: %w", off, i.remaining, ondisk.ErrCorrupt)
			}
			i.remaining = 0
		} else {
			i.off = h.next
		}

		if h.hash != i.hash || h.keyLen != int64(len(i.key)) {
			continue
		}
		key := make([]byte, h.keyLen)
		if err := ondisk.ReadFullAt(i.s.f, key, off+recordPrefixSize); err != nil {
			i.err = fmt.Errorf("ReadFullAt(%d): %w", off+recordPrefixSize, err)
			return IterItem{}, false
		}
		if !bytes.Equal(key, i.key) {
			// hash collision between distinct keys
			continue
		}
		value := make([]byte, h.valueLen)
		if err := ondisk.ReadFullAt(i.s.f, value, off+recordPrefixSize+h.keyLen); err != nil {
			i.err = fmt.Errorf("ReadFullAt(%d): %w", off+recordPrefixSize+h.keyLen, err)
			return IterItem{}, false
		}
		return IterItem{Key: key, Value: value, Offset: off}, true
	}
	return IterItem{}, false
}

func (i *ChainIter) Err() error {
	return i.err
}

func (i *ChainIter) Close() error {
	i.remaining = 0
	return nil
}

// Iter returns an iterator over every record in the shard in physical write
// order, regardless of chain.  Records appended after Iter is called are not
// visited.
func (s *Shard) Iter() *ScanIter {
	return &ScanIter{
		f:   s.f,
		end: s.end,
	}
}

// ScanIter reads a shard front to back through a read-only mapping of the
// file's data region.
type ScanIter struct {
	f    *os.File
	m    mmap.MMap
	off  int64
	end  int64
	seq  uint64
	done bool
	err  error
}

var _ Iter = (*ScanIter)(nil)

func (i *ScanIter) Next() (IterItem, bool) {
	if i.done || i.err != nil {
		return IterItem{}, false
	}
	if i.off >= i.end {
		i.done = true
		i.err = i.unmap()
		return IterItem{}, false
	}
	if i.m == nil {
		if err := i.mmap(); err != nil {
			i.err = err
			return IterItem{}, false
		}
	}

	if i.off+recordPrefixSize > i.end {
		return i.fail(fmt.Errorf("record offset %d beyond end of data (%d): %w", i.off, i.end, ondisk.ErrCorrupt))
	}
	h := readRecordHeader(i.m[i.off : i.off+recordPrefixSize])
	if err := h.checkExtent(i.off, i.end); err != nil {
		return i.fail(err)
	}
	if h.seq != i.seq {
		return i.fail(fmt.Errorf("record at %d has sequence %d (expected %d): %w", i.off, h.seq, i.seq, ondisk.ErrCorrupt))
	}

	// copy out of the mapping: it goes away when iteration finishes
	keyStart := i.off + recordPrefixSize
	key := make([]byte, h.keyLen)
	copy(key, i.m[keyStart:keyStart+h.keyLen])
	value := make([]byte, h.valueLen)
	copy(value, i.m[keyStart+h.keyLen:keyStart+h.keyLen+h.valueLen])

	item := IterItem{
		Key:    key,
		Value:  value,
		Offset: i.off,
	}
	i.off += h.recordLen()
	i.seq++

	return item, true
}

func (i *ScanIter) mmap() error {
	m, err := mmap.MapRegion(i.f, int(i.end), mmap.RDONLY, 0, 0)
	if err != nil {
		return fmt.Errorf("mmap.MapRegion(%s, %d): %w", i.f.Name(), i.end, err)
	}
	if err := unix.Madvise(m, unix.MADV_SEQUENTIAL); err != nil {
		_ = m.Unmap()
		return fmt.Errorf("madvise: %w", err)
	}
	i.m = m
	return nil
}

func (i *ScanIter) unmap() error {
	if i.m == nil {
		return nil
	}
	m := i.m
	i.m = nil
	if err := m.Unmap(); err != nil {
		return fmt.Errorf("mmap.Unmap: %w", err)
	}
	return nil
}

func (i *ScanIter) fail(err error) (IterItem, bool) {
	i.err = err
	_ = i.unmap()
	return IterItem{}, false
}

func (i *ScanIter) Err() error {
	return i.err
}

// Close releases the mapping if iteration stopped early.
func (i *ScanIter) Close() error {
	i.done = true
	return i.unmap()
}
