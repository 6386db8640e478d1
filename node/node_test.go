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

package node_test

import (
	"testing"

	"github.com/pixeldrift/wzarchive/node"
	"github.com/stretchr/testify/require"
)

func buildTree() *node.Node {
	children := node.NewChildren(2)
	children.Append(node.New("n", 10, node.Int(42)))
	children.Append(node.New("s", 11, node.String("hi")))
	img := node.NewWithChildren("Root.img", 5, node.Img{}, children)

	root := node.NewChildren(1)
	root.Append(img)
	return node.NewWithChildren("", 0, node.Directory{}, root)
}

func TestResolveWalksSegments(t *testing.T) {
	root := buildTree()

	n, err := node.Resolve(root, "Root.img/n")
	require.NoError(t, err)
	require.Equal(t, node.Int(42), n.Value())

	s, err := node.Resolve(root, "Root.img/s")
	require.NoError(t, err)
	require.Equal(t, node.String("hi"), s.Value())
}

func TestResolveEmptyPathReturnsStart(t *testing.T) {
	root := buildTree()
	n, err := node.Resolve(root, "")
	require.NoError(t, err)
	require.Same(t, root, n)
}

func TestResolveMissingSegmentFails(t *testing.T) {
	root := buildTree()
	_, err := node.Resolve(root, "Root.img/missing")
	require.ErrorIs(t, err, node.ErrNotFound)
}

func TestResolveLastSegmentNameMatches(t *testing.T) {
	root := buildTree()
	n, err := node.Resolve(root, "Root.img/n")
	require.NoError(t, err)
	require.Equal(t, "n", n.Name())
}

func TestChildrenPreserveInsertionOrder(t *testing.T) {
	children := node.NewChildren(3)
	children.Append(node.New("c", 0, node.Null{}))
	children.Append(node.New("a", 0, node.Null{}))
	children.Append(node.New("b", 0, node.Null{}))
	parent := node.NewWithChildren("p", 0, node.Directory{}, children)

	var names []string
	for _, c := range parent.Children() {
		names = append(names, c.Name())
	}
	require.Equal(t, []string{"c", "a", "b"}, names)
}

func TestStringFormat(t *testing.T) {
	n := node.New("foo", 123, node.Null{})
	require.Equal(t, "foo(123)", n.String())
}
