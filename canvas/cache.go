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

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
)

// Cache memoizes decoded Images by their owning node's offset, which is
// stable for the lifetime of an archive handle (see node.Node.Offset). It
// sits outside the node tree itself -- node trees stay immutable and never
// cache pixel data -- so using one is purely an opt-in performance choice
// for a caller that repeatedly decodes the same canvases (an animation's
// frames, a UI atlas reused across screens).
type Cache struct {
	lru *lru.Cache
}

// NewCache returns a Cache holding at most size decoded Images, evicting
// least-recently-used entries once full.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Decode is Decode, memoized on canvasNode.Offset(). A cache hit returns
// the exact *Image produced by the original decode, so callers must treat
// returned Images as read-only if they share a Cache across goroutines.
func (ch *Cache) Decode(canvasNode, parentImg, archiveRoot *node.Node, c *reader.Cursor) (*Image, error) {
	key := canvasNode.Offset()
	if v, ok := ch.lru.Get(key); ok {
		return v.(*Image), nil
	}

	img, err := Decode(canvasNode, parentImg, archiveRoot, c)
	if err != nil {
		return nil, err
	}
	ch.lru.Add(key, img)
	return img, nil
}

// Len reports the number of cached entries.
func (ch *Cache) Len() int { return ch.lru.Len() }
