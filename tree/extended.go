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

package tree

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
)

// ErrUnknownExtendedKind is returned by parseExtended for any kind literal
// other than the known set ("Property", "Canvas", "Shape2D#Vector2D",
// "Shape2D#Convex2D", "Sound_DX8", "UOL"). Its caller, parseProperty, has
// already computed the end-of-slot position before dispatching, so this
// specific error is resynchronizable and is handled as the one deliberate
// recovery point in the failure semantics (see parsePropertyList).
var ErrUnknownExtendedKind = errors.New("tree: unrecognized extended property kind")

// sound header constants, mirroring the fixed preamble original WZ tooling
// writes ahead of a Sound_DX8 payload's own wav_len byte.
const soundHeaderFixedSize = 51

// parseExtended reads an extended property body: a kind literal followed by
// a kind-specific payload. It returns the decoded value and, for kinds that
// carry a child property list ("Property" and "Canvas"), the children; for
// "Shape2D#Convex2D" the children are its numbered elements.
func parseExtended(c *reader.Cursor, parentOffset uint32, name string) (node.Value, *node.ChildMap, error) {
	kind, err := c.StringBlock(parentOffset)
	if err != nil {
		return nil, nil, fmt.Errorf("reading kind: %w", err)
	}

	switch kind {
	case "Property":
		c.Skip(2)
		children, err := parsePropertyList(c, parentOffset)
		if err != nil {
			return nil, nil, fmt.Errorf("Property: %w", err)
		}
		return node.Extended{}, children, nil

	case "Canvas":
		return parseCanvasExtended(c, parentOffset)

	case "Shape2D#Vector2D":
		x, err := c.VarInt()
		if err != nil {
			return nil, nil, fmt.Errorf("Vector2D: reading x: %w", err)
		}
		y, err := c.VarInt()
		if err != nil {
			return nil, nil, fmt.Errorf("Vector2D: reading y: %w", err)
		}
		return node.Vector{X: x, Y: y}, nil, nil

	case "Shape2D#Convex2D":
		count, err := c.VarInt()
		if err != nil {
			return nil, nil, fmt.Errorf("Convex2D: reading count: %w", err)
		}
		children := node.NewChildren(int(count))
		for i := int32(0); i < count; i++ {
			childName := strconv.FormatInt(int64(i), 10)
			offset := c.Tell()
			value, grandchildren, err := parseExtended(c, parentOffset, childName)
			if err != nil {
				return nil, nil, fmt.Errorf("Convex2D: element %d: %w", i, err)
			}
			children.Append(node.NewWithChildren(childName, offset, value, grandchildren))
		}
		return node.Convex{}, children, nil

	case "Sound_DX8":
		return parseSoundExtended(c, name)

	case "UOL":
		c.Skip(1)
		text, err := c.StringBlock(parentOffset)
		if err != nil {
			return nil, nil, fmt.Errorf("UOL: reading text: %w", err)
		}
		return node.Uol(text), nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownExtendedKind, kind)
	}
}

func parseCanvasExtended(c *reader.Cursor, parentOffset uint32) (node.Value, *node.ChildMap, error) {
	c.Skip(1)
	hasChildren, err := c.U8()
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas: reading has_children: %w", err)
	}

	var children *node.ChildMap
	if hasChildren == 1 {
		c.Skip(2)
		children, err = parsePropertyList(c, parentOffset)
		if err != nil {
			return nil, nil, fmt.Errorf("Canvas: %w", err)
		}
	} else {
		children = node.NewChildren(0)
	}

	width, err := c.VarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas: reading width: %w", err)
	}
	height, err := c.VarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas: reading height: %w", err)
	}
	format1, err := c.VarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas: reading format1: %w", err)
	}
	format2, err := c.U8()
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas: reading format2: %w", err)
	}
	c.Skip(4)

	payloadOffset := c.Tell()
	payloadSizeField, err := c.I32()
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas: reading payload size: %w", err)
	}
	payloadSize := payloadSizeField - 1
	c.Skip(1)
	if payloadSize > 0 {
		c.Skip(int(payloadSize))
	}

	origin := node.Vector{}
	if originNode, ok := children.Child("origin"); ok {
		if v, ok := originNode.Value().(node.Vector); ok {
			origin = v
		}
	}

	return node.Canvas{
		Width:         uint32(width),
		Height:        uint32(height),
		Format1:       uint32(format1),
		Format2:       format2,
		PayloadOffset: payloadOffset,
		Origin:        origin,
	}, children, nil
}

func parseSoundExtended(c *reader.Cursor, name string) (node.Value, *node.ChildMap, error) {
	c.Skip(1)
	bufferSize, err := c.VarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("Sound_DX8: reading buffer_size: %w", err)
	}
	duration, err := c.VarInt()
	if err != nil {
		return nil, nil, fmt.Errorf("Sound_DX8: reading duration: %w", err)
	}

	headerOffset := c.Tell()
	c.Skip(soundHeaderFixedSize)
	wavLen, err := c.U8()
	if err != nil {
		return nil, nil, fmt.Errorf("Sound_DX8: reading wav_len: %w", err)
	}
	c.Seek(headerOffset)

	headerSize := soundHeaderFixedSize + 1 + int(wavLen)
	c.Skip(headerSize)
	bufferOffset := c.Tell()
	c.Skip(int(bufferSize))

	return node.Sound{
		Name:         name,
		DurationMS:   uint32(duration),
		HeaderOffset: uint64(headerOffset),
		HeaderSize:   uint64(headerSize),
		BufferOffset: uint64(bufferOffset),
		BufferSize:   uint64(bufferSize),
	}, nil, nil
}
