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

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Resolve when a path segment has no matching
// child.
var ErrNotFound = errors.New("node: not found")

// Resolve walks path, a "/"-separated list of exact child names, starting
// at start. The empty path returns start unchanged. Resolution is pure: it
// never dereferences a Uol value, even if a segment names one -- UOL
// dereferencing is package uol's job, invoked explicitly by the caller.
func Resolve(start *Node, path string) (*Node, error) {
	if path == "" {
		return start, nil
	}
	cur := start
	for _, seg := range strings.Split(path, "/") {
		child, ok := cur.Child(seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrNotFound, seg, path)
		}
		cur = child
	}
	return cur, nil
}
