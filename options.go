// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"io"
	"log/slog"

	"github.com/bpowers/dbhash/internal/config"
)

// Configuration used for new tables unless overridden by options.
const (
	DefaultBuckets = config.DefaultBuckets
	DefaultShards  = config.DefaultShards
	DefaultSeed    = config.DefaultSeed
)

// Option configures a Table at Open time.
type Option func(*options)

// options records which settings the caller asked for explicitly, so that
// reopening an existing table can tell a deliberate conflict from a default.
type options struct {
	logger  *slog.Logger
	buckets *uint64
	shards  *uint64
	seed    *uint32
	hash    *string
}

func newOptions(opts []Option) options {
	var o options
	o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBuckets sets the number of hash buckets for a new table.
func WithBuckets(n uint64) Option {
	return func(o *options) {
		o.buckets = &n
	}
}

// WithShards sets the number of shard files for a new table.
func WithShards(n uint64) Option {
	return func(o *options) {
		o.shards = &n
	}
}

// WithSeed sets the hash seed for a new table.
func WithSeed(seed uint32) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithHash selects a hash function by name (see package hashfn).
func WithHash(name string) Option {
	return func(o *options) {
		o.hash = &name
	}
}

// WithLogger sets an optional logger.  If not provided, no logging output
// will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
