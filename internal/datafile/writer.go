// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/bpowers/dbhash/internal/ondisk"
)

const (
	counterSize      = 8
	recordHeaderSize = 8 + 8 + 8 + 8 // hash + key length + value length + next pointer
	recordPrefixSize = counterSize + recordHeaderSize

	headerHashOff     = counterSize
	headerKeyLenOff   = counterSize + 8
	headerValueLenOff = counterSize + 16
	headerNextOff     = counterSize + 24

	// NullOffset terminates a chain.  It is unambiguous: the record at
	// offset 0 is the first one in the file, so nothing ever points at it.
	NullOffset int64 = 0
	// NoChain is passed to Append when the bucket has no records yet.
	NoChain int64 = -1
)

// Shard is a single append-only file of interleaved chains.  It is not safe
// for concurrent use.
type Shard struct {
	f        *os.File
	path     string
	end      int64  // offset of the trailing counter; the next record starts here
	count    uint64 // records in the file
	isClosed atomic.Bool
}

// Open opens the shard at path, creating and initializing it if necessary.
func Open(path string) (*Shard, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", path, err)
	}
	s := &Shard{
		f:    f,
		path: path,
	}
	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Shard) load() error {
	stats, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()

	var counterBuf [counterSize]byte
	if size == 0 {
		// a brand new shard is just a zero trailing counter
		if _, err := s.f.WriteAt(counterBuf[:], 0); err != nil {
			return fmt.Errorf("f.WriteAt: %w", err)
		}
		s.end = 0
		s.count = 0
		return nil
	}
	if size < counterSize {
		return fmt.Errorf("%s: length %d too short for trailing counter: %w", s.path, size, ondisk.ErrCorrupt)
	}

	if err := ondisk.ReadFullAt(s.f, counterBuf[:], size-counterSize); err != nil {
		return fmt.Errorf("ReadFullAt: %w", err)
	}
	count := binary.LittleEndian.Uint64(counterBuf[:])
	end := size - counterSize
	if (count == 0) != (end == 0) || count > uint64(end)/recordPrefixSize {
		return fmt.Errorf("%s: trailing count %d inconsistent with data length %d: %w", s.path, count, end, ondisk.ErrCorrupt)
	}

	s.end = end
	s.count = count
	return nil
}

// Path returns the file name the shard was opened with.
func (s *Shard) Path() string {
	return s.path
}

// Len returns the total number of records in the shard.
func (s *Shard) Len() uint64 {
	return s.count
}

// End returns the end-of-data offset, where the next record will be written.
func (s *Shard) End() int64 {
	return s.end
}

// Append writes a new record at the end of the file and links it onto the
// chain whose tail is at `tail` (or starts a new chain if tail is NoChain).
// The returned offset is the chain's new tail.
func (s *Shard) Append(tail int64, hash uint64, key, value []byte) (int64, error) {
	off := s.end

	last := NoChain
	if tail != NoChain {
		var err error
		if last, err = s.lastLink(tail); err != nil {
			return 0, fmt.Errorf("lastLink(%d): %w", tail, err)
		}
	}

	// the leading counter at off is already on disk: it was the trailing
	// counter.  Write the header, key, value and the new trailing counter.
	keyLen, valueLen := len(key), len(value)
	buf := make([]byte, recordHeaderSize+keyLen+valueLen+counterSize)
	binary.LittleEndian.PutUint64(buf[headerHashOff-counterSize:], hash)
	binary.LittleEndian.PutUint64(buf[headerKeyLenOff-counterSize:], uint64(keyLen))
	binary.LittleEndian.PutUint64(buf[headerValueLenOff-counterSize:], uint64(valueLen))
	binary.LittleEndian.PutUint64(buf[headerNextOff-counterSize:], uint64(NullOffset))
	copy(buf[recordHeaderSize:], key)
	copy(buf[recordHeaderSize+keyLen:], value)
	binary.LittleEndian.PutUint64(buf[len(buf)-counterSize:], s.count+1)

	if n, err := s.f.WriteAt(buf, off+counterSize); err != nil {
		return 0, fmt.Errorf("f.WriteAt(%d): %w", off+counterSize, err)
	} else if n != len(buf) {
		return 0, fmt.Errorf("f.WriteAt: short write of %d (wanted %d)", n, len(buf))
	}

	// only link the new record in once its bytes are on disk
	if last != NoChain {
		var ptr [8]byte
		binary.LittleEndian.PutUint64(ptr[:], uint64(off))
		if _, err := s.f.WriteAt(ptr[:], last+headerNextOff); err != nil {
			return 0, fmt.Errorf("f.WriteAt(%d): %w", last+headerNextOff, err)
		}
	}

	s.count++
	s.end = off + recordPrefixSize + int64(keyLen) + int64(valueLen)

	return off, nil
}

// lastLink follows forward pointers from off until it reaches a record
// whose next pointer is null.  Callers normally pass the known tail, making
// this a single read.
func (s *Shard) lastLink(off int64) (int64, error) {
	for {
		h, err := s.readHeader(off)
		if err != nil {
			return 0, err
		}
		if h.next == NullOffset {
			return off, nil
		}
		off = h.next
	}
}

// Flush forces outstanding writes to disk.
func (s *Shard) Flush() error {
	if s.isClosed.Load() {
		return nil
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("f.Sync(%s): %w", s.path, err)
	}
	return nil
}

// Close syncs and releases the shard's file handle.  Calling it more than
// once is a no-op.
func (s *Shard) Close() error {
	if s.isClosed.Swap(true) {
		return nil
	}
	if err := s.f.Sync(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("f.Sync(%s): %w", s.path, err)
	}
	return s.f.Close()
}
