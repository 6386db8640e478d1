// Copyright 2019 The Wuffs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"errors"
	"fmt"

	"github.com/pixeldrift/wzarchive/reader"
)

// ErrBadMagic is returned when the fixed preamble does not begin with the
// 4-byte "PKG1" literal.
var ErrBadMagic = errors.New("archive: bad preamble magic")

const magic = "PKG1"

// header holds the fields recovered from the fixed file preamble.
type header struct {
	FileStart uint32
}

// parseHeader reads the preamble at position 0: the "PKG1" literal, an
// ignored u64 size, the file_start offset that anchors every later
// in-file position, and an ignored NUL-terminated copyright string.
func parseHeader(c *reader.Cursor) (header, error) {
	c.Seek(0)
	got, err := c.FixedString(len(magic))
	if err != nil {
		return header{}, fmt.Errorf("archive: reading magic: %w", err)
	}
	if got != magic {
		return header{}, fmt.Errorf("%w: got %q", ErrBadMagic, got)
	}

	if _, err := c.U64(); err != nil { // total size, ignored
		return header{}, fmt.Errorf("archive: reading size: %w", err)
	}
	fileStart, err := c.U32()
	if err != nil {
		return header{}, fmt.Errorf("archive: reading file_start: %w", err)
	}
	if _, err := c.CString(); err != nil { // copyright notice, ignored
		return header{}, fmt.Errorf("archive: reading copyright string: %w", err)
	}

	return header{FileStart: fileStart}, nil
}
