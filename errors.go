// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"errors"

	"github.com/bpowers/dbhash/hashfn"
	"github.com/bpowers/dbhash/internal/config"
	"github.com/bpowers/dbhash/internal/datafile"
	"github.com/bpowers/dbhash/internal/flock"
	"github.com/bpowers/dbhash/internal/ondisk"
)

var (
	// ErrConfigMismatch is returned by Open when an explicitly requested
	// option disagrees with the table's persisted configuration.
	ErrConfigMismatch = errors.New("configuration doesn't match existing table")
	// ErrClosed is returned by operations on a closed Table.
	ErrClosed = errors.New("table is closed")

	// ErrOutOfRange is returned by Nth when no match corresponds to the index.
	ErrOutOfRange = datafile.ErrOutOfRange
	// ErrCorrupt is returned when files don't have the shape the format
	// requires.
	ErrCorrupt = ondisk.ErrCorrupt
	// ErrLocked is returned by Open when another Table has the directory open.
	ErrLocked = flock.ErrLocked
	// ErrInvalidConfig is returned by Open when the requested or stored
	// configuration can't describe a table, such as zero buckets.
	ErrInvalidConfig = config.ErrInvalid
	// ErrUnknownHash is returned by Open for an unregistered hash name.
	ErrUnknownHash = hashfn.ErrUnknownHash
)
