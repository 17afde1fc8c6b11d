// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Nth when the chain has no match at the
// requested index.
var ErrOutOfRange = errors.New("index out of range")

// First returns the oldest record in the chain matching hash and key.
func (s *Shard) First(head int64, count uint64, hash uint64, key []byte) (IterItem, bool, error) {
	it := s.Chain(head, count, hash, key)
	item, ok := it.Next()
	return item, ok, it.Err()
}

// Last returns the newest record in the chain matching hash and key.
func (s *Shard) Last(head int64, count uint64, hash uint64, key []byte) (last IterItem, found bool, err error) {
	it := s.Chain(head, count, hash, key)
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		last, found = item, true
	}
	if err := it.Err(); err != nil {
		return IterItem{}, false, err
	}
	return last, found, nil
}

// Count returns the number of records in the chain matching hash and key.
func (s *Shard) Count(head int64, count uint64, hash uint64, key []byte) (int64, error) {
	it := s.Chain(head, count, hash, key)
	var n int64
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		n++
	}
	return n, it.Err()
}

// Nth returns a single matching record.  For i > 0 it is the i-th match
// counting from 0, oldest first.  For i <= 0 it counts back from the newest
// match: 0 is the newest, -1 the one before it (not the newest again), and
// so on.
func (s *Shard) Nth(head int64, count uint64, hash uint64, key []byte, i int64) (IterItem, error) {
	it := s.Chain(head, count, hash, key)
	if i > 0 {
		var n int64
		for {
			item, ok := it.Next()
			if !ok {
				break
			}
			if n == i {
				return item, nil
			}
			n++
		}
		if err := it.Err(); err != nil {
			return IterItem{}, err
		}
		return IterItem{}, fmt.Errorf("nth(%d) of %d matches: %w", i, n, ErrOutOfRange)
	}

	// keep a sliding window of the newest `back+1` matches.  uint64(-i) is
	// the right magnitude even for math.MinInt64.
	back := uint64(-i)
	var window []IterItem
	var n int64
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		n++
		window = append(window, item)
		if uint64(len(window)) > back+1 {
			window = window[1:]
		}
	}
	if err := it.Err(); err != nil {
		return IterItem{}, err
	}
	if uint64(len(window)) <= back {
		return IterItem{}, fmt.Errorf("nth(%d) of %d matches: %w", i, n, ErrOutOfRange)
	}
	return window[0], nil
}
