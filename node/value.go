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

package node

// Value is the tagged value carried by a Node. It is a closed sum type:
// the only implementations are the ones in this file. Callers discriminate
// with a type switch.
type Value interface {
	isValue()
}

// Structural markers. These carry no scalar payload; their data lives in
// the owning Node's children.
type (
	Null      struct{}
	Directory struct{}
	Img       struct{}
	Extended  struct{}
	Convex    struct{}
)

func (Null) isValue()      {}
func (Directory) isValue() {}
func (Img) isValue()       {}
func (Extended) isValue()  {}
func (Convex) isValue()    {}

// Scalars.
type (
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	Double float64
	String string
	// Uol is a symbolic link: a relative path string resolved by package
	// uol, not dereferenced automatically during tree parsing.
	Uol string
)

func (Short) isValue()  {}
func (Int) isValue()    {}
func (Long) isValue()   {}
func (Float) isValue()  {}
func (Double) isValue() {}
func (String) isValue() {}
func (Uol) isValue()    {}

// Vector is a 2D integer point, used both standalone (Shape2D#Vector2D
// properties) and as a Canvas's Origin.
type Vector struct {
	X, Y int32
}

func (Vector) isValue() {}

// Canvas describes a rasterized image payload. The pixel bytes are not
// held here -- see package canvas's Decode, which re-reads PayloadOffset
// through a live reader.Cursor.
type Canvas struct {
	Width, Height uint32
	Format1       uint32
	Format2       uint8
	PayloadOffset uint32
	Origin        Vector
}

func (Canvas) isValue() {}

// Sound describes an audio payload's location and size. Like Canvas, the
// bytes are not held here; see package sound.
type Sound struct {
	Name         string
	DurationMS   uint32
	HeaderOffset uint64
	HeaderSize   uint64
	BufferOffset uint64
	BufferSize   uint64
}

func (Sound) isValue() {}
