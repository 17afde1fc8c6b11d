// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"github.com/bpowers/dbhash/internal/datafile"
)

// Item is a single key/value pair produced by an Iter.  Key and Value are
// owned by the caller.
type Item struct {
	Key   []byte
	Value []byte
}

// Iter iterates over records in a Table.  Make sure to `defer it.Close()`,
// and check Err once Next returns false.
type Iter interface {
	Next() (Item, bool)
	Err() error
	Close() error
}

type itemIter struct {
	it datafile.Iter
}

func (i *itemIter) Next() (Item, bool) {
	item, ok := i.it.Next()
	if !ok {
		return Item{}, false
	}
	return Item{Key: item.Key, Value: item.Value}, true
}

func (i *itemIter) Err() error {
	return i.it.Err()
}

func (i *itemIter) Close() error {
	return i.it.Close()
}

// tableIter scans each shard in turn, opening the next shard's scan only
// once the previous one is exhausted.
type tableIter struct {
	shards []*datafile.Shard
	cur    datafile.Iter
	err    error
}

func (i *tableIter) Next() (Item, bool) {
	for i.err == nil {
		if i.cur == nil {
			if len(i.shards) == 0 {
				return Item{}, false
			}
			i.cur = i.shards[0].Iter()
			i.shards = i.shards[1:]
		}
		item, ok := i.cur.Next()
		if ok {
			return Item{Key: item.Key, Value: item.Value}, true
		}
		if err := i.cur.Err(); err != nil {
			i.err = err
		}
		i.cur = nil
	}
	return Item{}, false
}

func (i *tableIter) Err() error {
	return i.err
}

func (i *tableIter) Close() error {
	i.shards = nil
	if i.cur == nil {
		return nil
	}
	cur := i.cur
	i.cur = nil
	return cur.Close()
}

type errIter struct {
	err error
}

func (i *errIter) Next() (Item, bool) { return Item{}, false }
func (i *errIter) Err() error         { return i.err }
func (i *errIter) Close() error       { return nil }
