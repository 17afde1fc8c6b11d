// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var ErrBadLine = errors.New("expected a line of the form key:value")

// Load Puts every `key:value` line read from r, splitting on the first
// colon, and returns the number of records written.  Empty lines are
// skipped.
func (t *Table) Load(r io.Reader) (int64, error) {
	var n int64
	s := bufio.NewScanner(bufio.NewReaderSize(r, 16*1024))
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; s.Scan(); line++ {
		buf := s.Bytes()
		if len(buf) == 0 {
			continue
		}
		k, v, ok := split2(buf, ':')
		if !ok {
			return n, fmt.Errorf("line %d: %w", line, ErrBadLine)
		}
		if err := t.Put(k, v); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := s.Err(); err != nil {
		return n, fmt.Errorf("bufio.Scanner: %w", err)
	}
	return n, nil
}
