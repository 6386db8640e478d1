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
	"fmt"
	"strings"

	"github.com/pixeldrift/wzarchive/node"
)

const (
	inlinkChildName  = "_inlink"
	outlinkChildName = "_outlink"
)

// resolveLink checks canvasNode for the supplemental _inlink/_outlink child
// properties that mark this canvas as a reference to another canvas's pixel
// data rather than carrying its own. An _inlink path is relative to
// parentImg (the Img node that owns canvasNode); an _outlink path is of the
// form "{WzFile}/{path}" and its tail is resolved against archiveRoot,
// since this library exposes one archive at a time and has no notion of
// cross-archive resolution -- a multi-archive collaborator would need to
// dispatch on the WzFile component itself.
//
// When a link is found and resolved, ok is true and newOrigin is this
// node's own origin, which Decode grafts onto the resolved image (the
// linking node's placement on screen, not the linked-to node's).
func resolveLink(canvasNode, parentImg, archiveRoot *node.Node) (target *node.Node, newOrigin node.Vector, ok bool, err error) {
	canvasValue, _ := canvasNode.Value().(node.Canvas)

	if parentImg != nil {
		if inlink, found := canvasNode.Child(inlinkChildName); found {
			path, isString := inlink.Value().(node.String)
			if !isString {
				return nil, node.Vector{}, false, fmt.Errorf("%s: %s is not a string", canvasNode, inlinkChildName)
			}
			resolved, err := node.Resolve(parentImg, string(path))
			if err != nil {
				return nil, node.Vector{}, false, fmt.Errorf("resolving inlink %q: %w", path, err)
			}
			return resolved, canvasValue.Origin, true, nil
		}
	}

	if archiveRoot != nil {
		if outlink, found := canvasNode.Child(outlinkChildName); found {
			path, isString := outlink.Value().(node.String)
			if !isString {
				return nil, node.Vector{}, false, fmt.Errorf("%s: %s is not a string", canvasNode, outlinkChildName)
			}
			_, tail, hasSlash := strings.Cut(string(path), "/")
			if !hasSlash {
				return nil, node.Vector{}, false, fmt.Errorf("outlink %q missing archive/path separator", path)
			}
			resolved, err := node.Resolve(archiveRoot, tail)
			if err != nil {
				return nil, node.Vector{}, false, fmt.Errorf("resolving outlink %q: %w", tail, err)
			}
			return resolved, canvasValue.Origin, true, nil
		}
	}

	return nil, node.Vector{}, false, nil
}
