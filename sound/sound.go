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

// ----------------

// Package sound reads the raw header and PCM/MP3 buffer bytes described by
// a node.Sound value. It does not synthesize a playable file (a .wav
// header, say): that conversion is left to an external collaborator, which
// is handed these raw bytes plus DurationMS.
package sound

import (
	"fmt"

	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
)

// HeaderMagic is the fixed 51-byte preamble every Sound_DX8 header begins
// with (an embedded WAVEFORMATEX-adjacent GUID sequence used by the
// original client's sound subsystem). A caller synthesizing a playable
// file does not need this constant -- it is exported for callers that want
// to sanity-check a header's first 51 bytes against it.
var HeaderMagic = [51]byte{
	0x02, 0x83, 0xEB, 0x36, 0xE4, 0x4F, 0x52, 0xCE, 0x11, 0x9F, 0x53, 0x00, 0x20, 0xAF, 0x0B,
	0xA7, 0x70, 0x8B, 0xEB, 0x36, 0xE4, 0x4F, 0x52, 0xCE, 0x11, 0x9F, 0x53, 0x00, 0x20, 0xAF,
	0x0B, 0xA7, 0x70, 0x00, 0x01, 0x81, 0x9F, 0x58, 0x05, 0x56, 0xC3, 0xCE, 0x11, 0xBF, 0x01,
	0x00, 0xAA, 0x00, 0x55, 0x59, 0x5A,
}

// Header reads and returns s's raw header bytes, saving and restoring c's
// position.
func Header(s node.Sound, c *reader.Cursor) ([]byte, error) {
	return readAt(c, s.HeaderOffset, s.HeaderSize)
}

// Buffer reads and returns s's raw PCM/MP3 buffer bytes, saving and
// restoring c's position.
func Buffer(s node.Sound, c *reader.Cursor) ([]byte, error) {
	return readAt(c, s.BufferOffset, s.BufferSize)
}

func readAt(c *reader.Cursor, offset, size uint64) ([]byte, error) {
	resume := c.Tell()
	defer c.Seek(resume)

	c.Seek(uint32(offset))
	out := make([]byte, size)
	for i := range out {
		b, err := c.U8()
		if err != nil {
			return nil, fmt.Errorf("sound: reading byte %d at offset %d: %w", i, offset, err)
		}
		out[i] = b
	}
	return out, nil
}
