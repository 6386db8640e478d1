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

// Package node provides the immutable tree of named nodes that a parsed WZ
// archive is made of, plus exact-path resolution over that tree.
package node

import "fmt"

// Node is one element of a parsed archive tree: a directory, an image, or
// a property within an image. Nodes are built bottom-up during parsing and
// never mutated afterwards; multiple owners may safely share a *Node.
type Node struct {
	name     string
	offset   uint32
	value    Value
	children *ChildMap
}

// New returns a leaf node (no children) with the given name, offset, and
// value.
func New(name string, offset uint32, value Value) *Node {
	return &Node{name: name, offset: offset, value: value}
}

// NewWithChildren returns a node with the given ordered children. children
// is used as-is (not copied); callers should build it with NewChildren and
// Append and not touch it again afterwards.
func NewWithChildren(name string, offset uint32, value Value, children *ChildMap) *Node {
	if children == nil {
		children = NewChildren(0)
	}
	return &Node{name: name, offset: offset, value: value, children: children}
}

// Name is the node's name as it appears in its parent's children.
func (n *Node) Name() string { return n.name }

// Offset is the byte position in the archive where this node's body
// begins. It is stable for the lifetime of the archive handle and is the
// identity callers should use to key caches (see package canvas's Cache).
func (n *Node) Offset() uint32 { return n.offset }

// Value is the node's tagged scalar/structural value.
func (n *Node) Value() Value { return n.value }

// Child returns the named child and whether it exists.
func (n *Node) Child(name string) (*Node, bool) {
	if n.children == nil {
		return nil, false
	}
	return n.children.get(name)
}

// Children returns the node's children in on-disk (insertion) order. The
// returned slice must not be mutated.
func (n *Node) Children() []*Node {
	if n.children == nil {
		return nil
	}
	return n.children.ordered
}

// String is the node's canonical display name, "{name}({offset})", used by
// debugging dumps and by external serializers.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%d)", n.name, n.offset)
}

// ChildMap is an insertion-order-preserving string-keyed map. WZ archives
// rely on children being visited in on-disk order (spec.md section 4/8);
// no container library in the example pack provides this (the reference
// Rust implementation reaches for indexmap::IndexMap), so it is hand
// rolled as a slice plus an index, same shape any Go codebase uses when it
// needs insertion order without taking a dependency for it. It is exported
// so that package tree, which builds one entry at a time while parsing, can
// name it as a return/parameter type; its fields stay unexported.
type ChildMap struct {
	index   map[string]int
	ordered []*Node
}

// NewChildren returns an empty ChildMap with capacity hint n.
func NewChildren(n int) *ChildMap {
	return &ChildMap{index: make(map[string]int, n), ordered: make([]*Node, 0, n)}
}

// Append adds a child, overwriting any previous child of the same name in
// place (preserving its original position) to match map-insertion
// semantics; WZ directories are not expected to repeat a name, but parsing
// does not assume that.
func (m *ChildMap) Append(child *Node) {
	if i, ok := m.index[child.name]; ok {
		m.ordered[i] = child
		return
	}
	m.index[child.name] = len(m.ordered)
	m.ordered = append(m.ordered, child)
}

func (m *ChildMap) get(name string) (*Node, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.ordered[i], true
}

// Len reports the number of children.
func (m *ChildMap) Len() int { return len(m.ordered) }
