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

// Package tree implements the recursive directory/image/property parser
// that turns a reader.Cursor positioned over a WZ archive into a node.Node
// tree.
package tree

import (
	"errors"
	"fmt"
	"math"

	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "tree")

var (
	// ErrBadDirectoryEntryTag is returned for a directory entry tag
	// outside the known {2, 3, 4} set.
	ErrBadDirectoryEntryTag = errors.New("tree: unrecognized directory entry tag")

	// ErrScriptedNodeRejected is returned when an image's header byte is
	// the "lua" marker (0x01): scripted node bodies are explicitly out of
	// scope (see spec Non-goals); this error lets a caller tell that case
	// apart from generic corruption.
	ErrScriptedNodeRejected = errors.New("tree: scripted (lua) image bodies are not supported")

	// ErrBadImageHeader covers any other malformed image preamble: a
	// header byte other than 0x73/0x01, a missing literal "Property", or
	// a non-zero trailing u16.
	ErrBadImageHeader = errors.New("tree: malformed image header")

	// ErrBadPropertyTag is returned for a property tag outside the known
	// set. Unlike an unrecognized *extended* kind (see extended.go), there
	// is no self-describing size to resync on, so this always aborts the
	// enclosing property list.
	ErrBadPropertyTag = errors.New("tree: unrecognized property tag")
)

const (
	headerByteLua           = 0x01
	headerByteWithOffset    = 0x1B
	headerByteWithoutOffset = 0x73
)

// directoryEntryTag values.
const (
	entryTagShared = 2
	entryTagSubdir = 3
	entryTagImageA = 4
)

// ParseRoot parses the whole tree reachable from base, with unlimited
// recursion depth.
func ParseRoot(c *reader.Cursor, base uint32, rootName string) (*node.Node, error) {
	return parseDirectory(c, base, rootName, math.MaxInt32, nil)
}

// ProbeEntry records an immediate directory entry seen during a
// ParseDirectoryProbe call: its computed offset and whether it is a
// subdirectory (as opposed to an image). The placeholder node the probe
// returns for such an entry always carries node.Directory as its value
// (per spec), so this side channel is what lets a caller tell the two
// apart without descending.
type ProbeEntry struct {
	Offset      uint32
	IsDirectory bool
}

// ParseDirectoryProbe parses only the immediate entries of the directory at
// base, without descending into any of them (maxDepth == 0, in spec terms).
// It is used by archive's version-recovery probe, kept here (rather than
// exported as a maxDepth parameter on ParseRoot) so the probe's intent is
// explicit at the call site. The returned entries mirror on-disk order and
// line up with the returned node's Children().
func ParseDirectoryProbe(c *reader.Cursor, base uint32, name string) (*node.Node, []ProbeEntry, error) {
	var entries []ProbeEntry
	n, err := parseDirectory(c, base, name, 0, &entries)
	return n, entries, err
}

func parseDirectory(c *reader.Cursor, base uint32, name string, maxDepth int, probe *[]ProbeEntry) (*node.Node, error) {
	c.Seek(base)
	count, err := c.VarInt()
	if err != nil {
		return nil, fmt.Errorf("tree: directory %q at %d: reading entry count: %w", name, base, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("tree: directory %q at %d: negative entry count %d", name, base, count)
	}

	children := node.NewChildren(int(count))
	for i := int32(0); i < count; i++ {
		entryTag, err := c.U8()
		if err != nil {
			return nil, fmt.Errorf("tree: directory %q entry %d: reading tag: %w", name, i, err)
		}

		var entryName string
		var resumeAt uint32
		switch entryTag {
		case entryTagShared:
			sharedOffset, err := c.U32()
			if err != nil {
				return nil, fmt.Errorf("tree: directory %q entry %d: reading shared offset: %w", name, i, err)
			}
			resumeAt = c.Tell()
			c.Seek(c.FileStart + sharedOffset)
			entryTag, err = c.U8()
			if err != nil {
				return nil, fmt.Errorf("tree: directory %q entry %d: reading shared tag: %w", name, i, err)
			}
			entryName, err = c.ObfuscatedString()
			if err != nil {
				return nil, fmt.Errorf("tree: directory %q entry %d: reading shared name: %w", name, i, err)
			}
			c.Seek(resumeAt)
		case entryTagSubdir, entryTagImageA:
			entryName, err = c.ObfuscatedString()
			if err != nil {
				return nil, fmt.Errorf("tree: directory %q entry %d: reading name: %w", name, i, err)
			}
			resumeAt = c.Tell()
		default:
			return nil, fmt.Errorf("%w: 0x%02x in directory %q entry %d", ErrBadDirectoryEntryTag, entryTag, name, i)
		}

		c.Seek(resumeAt)
		if _, err := c.VarInt(); err != nil { // file size, ignored
			return nil, fmt.Errorf("tree: directory %q entry %d: reading size: %w", name, i, err)
		}
		if _, err := c.VarInt(); err != nil { // checksum, ignored
			return nil, fmt.Errorf("tree: directory %q entry %d: reading checksum: %w", name, i, err)
		}
		entryOffset, err := c.ObfuscatedOffset()
		if err != nil {
			return nil, fmt.Errorf("tree: directory %q entry %d: reading offset: %w", name, i, err)
		}

		isDirectory := entryTag == entryTagSubdir
		var child *node.Node
		if maxDepth > 0 {
			resume := c.Tell()
			if isDirectory {
				child, err = parseDirectory(c, entryOffset, entryName, maxDepth-1, probe)
			} else {
				child, err = parseImage(c, entryOffset, entryName)
			}
			if err != nil {
				return nil, err
			}
			c.Seek(resume)
		} else {
			child = node.New(entryName, entryOffset, node.Directory{})
			if probe != nil {
				*probe = append(*probe, ProbeEntry{Offset: entryOffset, IsDirectory: isDirectory})
			}
		}
		children.Append(child)
	}

	return node.NewWithChildren(name, base, node.Directory{}, children), nil
}

func parseImage(c *reader.Cursor, base uint32, name string) (*node.Node, error) {
	c.Seek(base)
	header, err := c.U8()
	if err != nil {
		return nil, fmt.Errorf("tree: image %q at %d: reading header byte: %w", name, base, err)
	}
	switch header {
	case headerByteLua:
		return nil, fmt.Errorf("%w: image %q at %d", ErrScriptedNodeRejected, name, base)
	case headerByteWithoutOffset:
		// fallthrough below
	default:
		return nil, fmt.Errorf("%w: image %q at %d has header byte 0x%02x", ErrBadImageHeader, name, base, header)
	}

	prop, err := c.ObfuscatedString()
	if err != nil {
		return nil, fmt.Errorf("tree: image %q at %d: reading property literal: %w", name, base, err)
	}
	zero, err := c.U16()
	if err != nil {
		return nil, fmt.Errorf("tree: image %q at %d: reading trailing u16: %w", name, base, err)
	}
	if prop != "Property" || zero != 0 {
		return nil, fmt.Errorf("%w: image %q at %d: got %q/%d", ErrBadImageHeader, name, base, prop, zero)
	}

	children, err := parsePropertyList(c, base)
	if err != nil {
		return nil, fmt.Errorf("tree: image %q at %d: %w", name, base, err)
	}
	return node.NewWithChildren(name, base, node.Img{}, children), nil
}
