// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/bpowers/dbhash/hashfn"
	"github.com/bpowers/dbhash/internal/config"
	"github.com/bpowers/dbhash/internal/datafile"
	"github.com/bpowers/dbhash/internal/flock"
	"github.com/bpowers/dbhash/internal/index"
	"github.com/bpowers/dbhash/internal/unsafestring"
)

const (
	IndexFileName = "index"
	StateFileName = config.FileName
	LockFileName  = "LOCK"
)

// Config is the persisted bucket/shard/seed configuration of a Table.
type Config = config.Config

// Table is an on-disk, append-only multimap.  Putting a key that already
// exists adds a new version rather than replacing the old one; every version
// stays retrievable in insertion order.
//
// A Table is not safe for concurrent use.  Only one Table may have a given
// directory open at a time, across processes.
type Table struct {
	dir    string
	conf   Config
	hash   hashfn.Func
	index  *index.Index
	shards []*datafile.Shard
	lock   *flock.Lock
	logger *slog.Logger
	closed bool
}

// Open opens the table stored in dir, creating the directory and its files
// if they don't exist.  Bucket count, shard count, seed and hash function are
// fixed when a table is created; options for them only take effect then.
// Reopening with an explicit option that conflicts with the stored
// configuration fails with ErrConfigMismatch.
func Open(dir string, opts ...Option) (_ *Table, err error) {
	o := newOptions(opts)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s): %w", dir, err)
	}

	lock, err := flock.Acquire(filepath.Join(dir, LockFileName))
	if err != nil {
		return nil, fmt.Errorf("flock.Acquire: %w", err)
	}

	t := &Table{
		dir:    dir,
		lock:   lock,
		logger: o.logger,
	}
	defer func() {
		if err != nil {
			_ = t.release()
		}
	}()

	conf, existed, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if existed {
		if err := o.check(conf); err != nil {
			return nil, err
		}
	} else {
		conf = o.apply(config.Default())
		if err := config.Save(dir, conf); err != nil {
			return nil, fmt.Errorf("config.Save: %w", err)
		}
	}
	t.conf = conf

	if t.hash, err = hashfn.Lookup(conf.Hash); err != nil {
		return nil, err
	}

	if t.index, err = index.Open(filepath.Join(dir, IndexFileName)); err != nil {
		return nil, fmt.Errorf("index.Open: %w", err)
	}

	t.shards = make([]*datafile.Shard, 0, conf.Shards)
	for i := uint64(0); i < conf.Shards; i++ {
		s, err := datafile.Open(filepath.Join(dir, strconv.FormatUint(i, 10)))
		if err != nil {
			return nil, fmt.Errorf("datafile.Open: %w", err)
		}
		t.shards = append(t.shards, s)
	}

	t.logger.Info("opened table",
		"dir", dir,
		"created", !existed,
		"buckets", conf.Buckets,
		"shards", conf.Shards,
		"seed", conf.Seed,
		"hash", conf.Hash,
		"records", t.Len())

	return t, nil
}

// check compares explicitly set options against a persisted configuration.
func (o *options) check(c Config) error {
	if o.buckets != nil && *o.buckets != c.Buckets {
		return fmt.Errorf("buckets: asked for %d, table has %d: %w", *o.buckets, c.Buckets, ErrConfigMismatch)
	}
	if o.shards != nil && *o.shards != c.Shards {
		return fmt.Errorf("shards: asked for %d, table has %d: %w", *o.shards, c.Shards, ErrConfigMismatch)
	}
	if o.seed != nil && *o.seed != c.Seed {
		return fmt.Errorf("seed: asked for %d, table has %d: %w", *o.seed, c.Seed, ErrConfigMismatch)
	}
	if o.hash != nil && *o.hash != c.Hash {
		return fmt.Errorf("hash: asked for %q, table has %q: %w", *o.hash, c.Hash, ErrConfigMismatch)
	}
	return nil
}

// apply overrides c with any explicitly set options.
func (o *options) apply(c Config) Config {
	if o.buckets != nil {
		c.Buckets = *o.buckets
	}
	if o.shards != nil {
		c.Shards = *o.shards
	}
	if o.seed != nil {
		c.Seed = *o.seed
	}
	if o.hash != nil {
		c.Hash = *o.hash
	}
	return c
}

// Config returns the table's persisted configuration.
func (t *Table) Config() Config {
	return t.conf
}

// Dir returns the directory the table lives in.
func (t *Table) Dir() string {
	return t.dir
}

// locate resolves a key to its hash, bucket and shard.  It only depends on
// the key and the configuration.
func (t *Table) locate(key []byte) (hash uint32, bucket uint64, shard *datafile.Shard) {
	hash = t.hash(key, t.conf.Seed)
	bucket = uint64(hash) % t.conf.Buckets
	shard = t.shards[bucket%t.conf.Shards]
	return
}

// Put appends value as the newest version of key.  Earlier versions are
// never modified or removed.
//
// If the record is written but updating the index fails, the record is only
// reachable through Iter, not through the key's lookups.
func (t *Table) Put(key, value []byte) error {
	if t.closed {
		return ErrClosed
	}
	hash, bucket, shard := t.locate(key)

	e, err := t.index.Get(bucket)
	if err != nil {
		return err
	}

	tail := datafile.NoChain
	if !e.Empty() {
		tail = e.Tail
	}
	off, err := shard.Append(tail, uint64(hash), key, value)
	if err != nil {
		return fmt.Errorf("shard.Append(%s): %w", shard.Path(), err)
	}

	if e.Empty() {
		e.Head = off
	}
	e.Tail = off
	e.Count++
	if err := t.index.Put(bucket, e); err != nil {
		return err
	}

	t.logger.Debug("put",
		"bucket", bucket,
		"shard", bucket%t.conf.Shards,
		"offset", off,
		"chainLen", e.Count)

	return nil
}

// PutString is Put for string keys and values.
func (t *Table) PutString(key, value string) error {
	return t.Put(unsafestring.ToBytes(key), unsafestring.ToBytes(value))
}

// chain returns the location of key's bucket chain.
func (t *Table) chain(key []byte) (hash uint64, e index.Entry, shard *datafile.Shard, err error) {
	if t.closed {
		return 0, index.Entry{}, nil, ErrClosed
	}
	h, bucket, shard := t.locate(key)
	if e, err = t.index.Get(bucket); err != nil {
		return 0, index.Entry{}, nil, err
	}
	return uint64(h), e, shard, nil
}

// IterFor returns an iterator over every value stored for key, oldest first.
func (t *Table) IterFor(key []byte) Iter {
	hash, e, shard, err := t.chain(key)
	if err != nil {
		return &errIter{err: err}
	}
	return &itemIter{it: shard.Chain(e.Head, e.Count, hash, key)}
}

// First returns the oldest value stored for key.  ok is false if the key has
// never been written.
func (t *Table) First(key []byte) (value []byte, ok bool, err error) {
	hash, e, shard, err := t.chain(key)
	if err != nil {
		return nil, false, err
	}
	item, ok, err := shard.First(e.Head, e.Count, hash, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return item.Value, true, nil
}

// FirstString is First for string keys.
func (t *Table) FirstString(key string) (string, bool, error) {
	v, ok, err := t.First(unsafestring.ToBytes(key))
	return string(v), ok, err
}

// Last returns the newest value stored for key.  ok is false if the key has
// never been written.
func (t *Table) Last(key []byte) (value []byte, ok bool, err error) {
	hash, e, shard, err := t.chain(key)
	if err != nil {
		return nil, false, err
	}
	item, ok, err := shard.Last(e.Head, e.Count, hash, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return item.Value, true, nil
}

// LastString is Last for string keys.
func (t *Table) LastString(key string) (string, bool, error) {
	v, ok, err := t.Last(unsafestring.ToBytes(key))
	return string(v), ok, err
}

// GetString returns the current, newest value of key.  It is LastString,
// named for callers that treat the table as a plain map.
func (t *Table) GetString(key string) (string, bool, error) {
	return t.LastString(key)
}

// LenFor returns the number of values stored for key.
func (t *Table) LenFor(key []byte) (int64, error) {
	hash, e, shard, err := t.chain(key)
	if err != nil {
		return 0, err
	}
	return shard.Count(e.Head, e.Count, hash, key)
}

// Nth returns a single value stored for key.  For i > 0 it is the i-th value
// counting from 0, oldest first.  For i <= 0 it counts back from the newest:
// 0 is the newest value, -1 the one before it, and 1-n the oldest of n.
// Note that -1 is not an alias for 0 as it is in some slice APIs: Nth(k, -1)
// is the second-newest value.  An index with no corresponding value returns
// ErrOutOfRange.
func (t *Table) Nth(key []byte, i int64) ([]byte, error) {
	hash, e, shard, err := t.chain(key)
	if err != nil {
		return nil, err
	}
	item, err := shard.Nth(e.Head, e.Count, hash, key, i)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Iter returns an iterator over every key/value pair ever written, shard by
// shard in physical write order.  Nothing is filtered or deduplicated.
// Puts made while iterating are visited only if they land in a shard the
// iterator hasn't started yet.
func (t *Table) Iter() Iter {
	if t.closed {
		return &errIter{err: ErrClosed}
	}
	return &tableIter{shards: t.shards}
}

// Len returns the total number of records in the table.
func (t *Table) Len() int64 {
	var n uint64
	for _, s := range t.shards {
		n += s.Len()
	}
	return int64(n)
}

// Flush forces all written data out to disk.
func (t *Table) Flush() error {
	if t.closed {
		return nil
	}
	var g errgroup.Group
	for _, s := range t.shards {
		g.Go(s.Flush)
	}
	g.Go(t.index.Flush)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close flushes and releases every file the table holds, including the
// directory lock.  Calling Close more than once is a no-op.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.release()
	t.logger.Debug("closed table", "dir", t.dir, "error", err)
	return err
}

func (t *Table) release() error {
	var errs []error
	for _, s := range t.shards {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("shard.Close(%s): %w", s.Path(), err))
		}
	}
	if t.index != nil {
		if err := t.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("index.Close: %w", err))
		}
	}
	if t.lock != nil {
		if err := t.lock.Release(); err != nil {
			errs = append(errs, fmt.Errorf("lock.Release: %w", err))
		}
	}
	return errors.Join(errs...)
}
