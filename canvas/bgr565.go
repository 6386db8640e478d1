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

// decodeBGR565Tiled expands the coarse 16x16-block BGR565 encoding: the
// compressed buffer is a (width/16)x(height/16) grid of 2-byte cells, and
// each cell's BGR565 value fills a solid 16x16 block of the output image,
// expanded to RGBA8888 by the standard 5/6/5 to 8-bit replication.
func decodeBGR565Tiled(data []byte, width, height uint32) []byte {
	w, h := int(width), int(height)
	out := make([]byte, w*h*4)
	cols := w / 16
	rows := h / 16

	for cellY := 0; cellY < rows; cellY++ {
		for cellX := 0; cellX < cols; cellX++ {
			idx := (cellX + cellY*cols) * 2
			v := uint16(data[idx]) | uint16(data[idx+1])<<8
			r5 := (v >> 11) & 0x1F
			g6 := (v >> 5) & 0x3F
			b5 := v & 0x1F
			r := byte(r5 << 3)
			g := byte(g6 << 2)
			b := byte(b5 << 3)

			for dy := 0; dy < 16; dy++ {
				py := cellY*16 + dy
				rowBase := py * w * 4
				for dx := 0; dx < 16; dx++ {
					px := cellX*16 + dx
					o := rowBase + px*4
					out[o+0] = r
					out[o+1] = g
					out[o+2] = b
					out[o+3] = 255
				}
			}
		}
	}
	return out
}
