// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"

	"github.com/bpowers/dbhash/internal/ondisk"
)

// Walk calls fn with the offset and sequence number of every record in the
// chain starting at head, regardless of key, visiting at most count records.
// Keys and values are not read.
func (s *Shard) Walk(head int64, count uint64, fn func(off int64, seq uint64) error) error {
	off := head
	for n := uint64(1); n <= count; n++ {
		h, err := s.readHeader(off)
		if err != nil {
			return err
		}
		if h.seq >= s.count {
			return fmt.Errorf("record at %d has sequence %d, shard has %d records: %w", off, h.seq, s.count, ondisk.ErrCorrupt)
		}
		if err := fn(off, h.seq); err != nil {
			return err
		}
		if h.next == NullOffset {
			if n < count {
				return fmt.Errorf("chain ended at %d with %d records missing: %w", off, count-n, ondisk.ErrCorrupt)
			}
			break
		}
		off = h.next
	}
	return nil
}
