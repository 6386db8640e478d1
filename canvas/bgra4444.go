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

package canvas

// decodeBGRA4444 expands a buffer of little-endian nibble-pair BGRA4444
// pixels (2 bytes/pixel) to RGBA8888. Each nibble n expands to a full byte
// as n*0x11, the standard 4-bit to 8-bit replication. Byte 2i holds B in
// its low nibble and G in its high nibble; byte 2i+1 holds R in its low
// nibble and A in its high nibble.
func decodeBGRA4444(data []byte, width, height uint32) []byte {
	count := int(width) * int(height)
	out := make([]byte, count*4)
	for i := 0; i < count; i++ {
		lo := data[2*i]
		hi := data[2*i+1]
		b := (lo & 0x0F) * 0x11
		g := (lo >> 4) * 0x11
		r := (hi & 0x0F) * 0x11
		a := (hi >> 4) * 0x11
		out[4*i+0] = r
		out[4*i+1] = g
		out[4*i+2] = b
		out[4*i+3] = a
	}
	return out
}
