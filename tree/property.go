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

	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
)

// Property tags, per the dispatch table parse_property switches on.
const (
	tagNull      = 0
	tagShortA    = 2
	tagIntA      = 3
	tagFloat     = 4
	tagDouble    = 5
	tagString    = 8
	tagExtended  = 9
	tagShortB    = 11
	tagIntB      = 19
	tagLong      = 20
	floatPresent = 0x80
)

// errSkippedProperty marks an entry that was dropped from a property list
// because its extended kind was unrecognized; the cursor has already been
// resynchronized past the entry's body by the time this is returned, so the
// caller (parsePropertyList) can log and continue rather than abort.
var errSkippedProperty = errors.New("tree: unrecognized extended property kind")

// parsePropertyList reads a property-list body at parent offset
// parentOffset: a var_int count followed by that many (name, property)
// pairs, and returns the assembled children in on-disk order.
func parsePropertyList(c *reader.Cursor, parentOffset uint32) (*node.ChildMap, error) {
	count, err := c.VarInt()
	if err != nil {
		return nil, fmt.Errorf("tree: property list at %d: reading count: %w", parentOffset, err)
	}
	if count < 0 {
		return nil, fmt.Errorf("tree: property list at %d: negative count %d", parentOffset, count)
	}

	children := node.NewChildren(int(count))
	for i := int32(0); i < count; i++ {
		name, err := c.StringBlock(parentOffset)
		if err != nil {
			return nil, fmt.Errorf("tree: property list at %d entry %d: reading name: %w", parentOffset, i, err)
		}

		child, err := parseProperty(c, parentOffset, name)
		if err != nil {
			if errors.Is(err, errSkippedProperty) {
				log.WithFields(logrusFields(parentOffset, name)).Warn(err.Error())
				continue
			}
			return nil, fmt.Errorf("tree: property list at %d entry %q: %w", parentOffset, name, err)
		}
		children.Append(child)
	}
	return children, nil
}

// parseProperty reads one property slot: the offset of the tag byte is the
// node's recorded offset, never an offset into an inner sub-field.
func parseProperty(c *reader.Cursor, parentOffset uint32, name string) (*node.Node, error) {
	offset := c.Tell()
	tag, err := c.U8()
	if err != nil {
		return nil, fmt.Errorf("reading tag: %w", err)
	}

	switch tag {
	case tagNull:
		return node.New(name, offset, node.Null{}), nil
	case tagShortA, tagShortB:
		v, err := c.I16()
		if err != nil {
			return nil, fmt.Errorf("reading short: %w", err)
		}
		return node.New(name, offset, node.Short(v)), nil
	case tagIntA, tagIntB:
		v, err := c.VarInt()
		if err != nil {
			return nil, fmt.Errorf("reading int: %w", err)
		}
		return node.New(name, offset, node.Int(v)), nil
	case tagLong:
		v, err := c.VarLong()
		if err != nil {
			return nil, fmt.Errorf("reading long: %w", err)
		}
		return node.New(name, offset, node.Long(v)), nil
	case tagFloat:
		present, err := c.U8()
		if err != nil {
			return nil, fmt.Errorf("reading float presence byte: %w", err)
		}
		if present != floatPresent {
			return node.New(name, offset, node.Float(0)), nil
		}
		v, err := c.F32()
		if err != nil {
			return nil, fmt.Errorf("reading float: %w", err)
		}
		return node.New(name, offset, node.Float(v)), nil
	case tagDouble:
		v, err := c.F64()
		if err != nil {
			return nil, fmt.Errorf("reading double: %w", err)
		}
		return node.New(name, offset, node.Double(v)), nil
	case tagString:
		v, err := c.StringBlock(parentOffset)
		if err != nil {
			return nil, fmt.Errorf("reading string: %w", err)
		}
		return node.New(name, offset, node.String(v)), nil
	case tagExtended:
		size, err := c.U32()
		if err != nil {
			return nil, fmt.Errorf("reading extended size: %w", err)
		}
		end := c.Tell() + size
		value, children, err := parseExtended(c, parentOffset, name)
		if err != nil {
			if errors.Is(err, ErrUnknownExtendedKind) {
				c.Seek(end)
				return nil, fmt.Errorf("%w: %v", errSkippedProperty, err)
			}
			return nil, fmt.Errorf("reading extended value: %w", err)
		}
		c.Seek(end)
		return node.NewWithChildren(name, offset, value, children), nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadPropertyTag, tag)
	}
}

func logrusFields(parentOffset uint32, name string) map[string]interface{} {
	return map[string]interface{}{"parent_offset": parentOffset, "property": name}
}
