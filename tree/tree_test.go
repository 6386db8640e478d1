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
	"bytes"
	"testing"

	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
	"github.com/stretchr/testify/require"
)

// writeVarInt appends a WZ var_int encoding of v. Every fixture in this
// file stays within the single-byte i8 range, so the -128 marker path is
// exercised separately in package reader's own tests.
func writeVarInt(buf *bytes.Buffer, v int32) {
	buf.WriteByte(byte(int8(v)))
}

// writeObfuscatedASCII appends an ASCII obfuscated string (negative size
// prefix, mask-XOR body, no key stream) for s, which must be short enough
// to use the single-byte size form.
func writeObfuscatedASCII(buf *bytes.Buffer, s string) {
	buf.WriteByte(byte(int8(-len(s))))
	mask := byte(0xAA)
	for i := 0; i < len(s); i++ {
		buf.WriteByte(s[i] ^ mask)
		mask++
	}
}

// writeStringBlock appends an inline string-block tag followed by an
// obfuscated ASCII string.
func writeStringBlock(buf *bytes.Buffer, s string) {
	buf.WriteByte(0x73)
	writeObfuscatedASCII(buf, s)
}

func TestParsePropertyListTwoScalarEntries(t *testing.T) {
	// S2: {"n": Int(42), "s": String("hi")}
	var buf bytes.Buffer
	writeVarInt(&buf, 2)

	writeStringBlock(&buf, "n")
	buf.WriteByte(tagIntA)
	writeVarInt(&buf, 42)

	writeStringBlock(&buf, "s")
	buf.WriteByte(tagString)
	writeStringBlock(&buf, "hi")

	c := reader.New(buf.Bytes())
	children, err := parsePropertyList(c, 0)
	require.NoError(t, err)
	require.Equal(t, 2, children.Len())

	n, ok := children.Child("n")
	require.True(t, ok)
	require.Equal(t, node.Int(42), n.Value())

	s, ok := children.Child("s")
	require.True(t, ok)
	require.Equal(t, node.String("hi"), s.Value())
}

func TestParseImageRoot(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(headerByteWithoutOffset)
	writeObfuscatedASCII(&buf, "Property")
	buf.WriteByte(0)
	buf.WriteByte(0) // u16 zero, little-endian low byte
	writeVarInt(&buf, 1)
	writeStringBlock(&buf, "n")
	buf.WriteByte(tagIntA)
	writeVarInt(&buf, 42)

	c := reader.New(buf.Bytes())
	n, err := parseImage(c, 0, "Root.img")
	require.NoError(t, err)
	require.Equal(t, node.Img{}, n.Value())

	child, ok := n.Child("n")
	require.True(t, ok)
	require.Equal(t, node.Int(42), child.Value())
}

func TestParseImageRejectsLuaHeader(t *testing.T) {
	c := reader.New([]byte{headerByteLua})
	_, err := parseImage(c, 0, "script.img")
	require.ErrorIs(t, err, ErrScriptedNodeRejected)
}

func TestParseImageRejectsBadHeader(t *testing.T) {
	c := reader.New([]byte{0xFF})
	_, err := parseImage(c, 0, "bad.img")
	require.ErrorIs(t, err, ErrBadImageHeader)
}

func TestParsePropertyRejectsUnknownTopLevelTag(t *testing.T) {
	c := reader.New([]byte{0x7F})
	_, err := parseProperty(c, 0, "x")
	require.ErrorIs(t, err, ErrBadPropertyTag)
}

func TestParsePropertyListSkipsUnknownExtendedKind(t *testing.T) {
	var buf bytes.Buffer
	writeVarInt(&buf, 2)

	// Entry 0: extended property with an unrecognized kind. size covers
	// everything after the u32, so the list can resync past it.
	writeStringBlock(&buf, "bogus")
	buf.WriteByte(tagExtended)
	var body bytes.Buffer
	writeStringBlock(&body, "Nope")
	body.Write([]byte{1, 2, 3, 4}) // junk payload the unknown kind would have consumed
	sizeBytes := uint32(body.Len())
	buf.WriteByte(byte(sizeBytes))
	buf.WriteByte(byte(sizeBytes >> 8))
	buf.WriteByte(byte(sizeBytes >> 16))
	buf.WriteByte(byte(sizeBytes >> 24))
	buf.Write(body.Bytes())

	// Entry 1: a normal scalar that must still be reached afterwards.
	writeStringBlock(&buf, "n")
	buf.WriteByte(tagIntA)
	writeVarInt(&buf, 7)

	c := reader.New(buf.Bytes())
	children, err := parsePropertyList(c, 0)
	require.NoError(t, err)
	require.Equal(t, 1, children.Len())
	n, ok := children.Child("n")
	require.True(t, ok)
	require.Equal(t, node.Int(7), n.Value())
}

func TestParseExtendedVector(t *testing.T) {
	var buf bytes.Buffer
	writeStringBlock(&buf, "Shape2D#Vector2D")
	writeVarInt(&buf, 3)
	writeVarInt(&buf, -4)

	c := reader.New(buf.Bytes())
	v, children, err := parseExtended(c, 0, "origin")
	require.NoError(t, err)
	require.Nil(t, children)
	require.Equal(t, node.Vector{X: 3, Y: -4}, v)
}

func TestParseDirectoryProbeDoesNotDescend(t *testing.T) {
	var buf bytes.Buffer
	writeVarInt(&buf, 1)
	buf.WriteByte(entryTagImageA)
	writeObfuscatedASCII(&buf, "Root.img")
	writeVarInt(&buf, 0)  // size
	writeVarInt(&buf, 0)  // checksum
	buf.Write([]byte{0, 0, 0, 0}) // obfuscated offset, value irrelevant for a probe

	c := reader.New(buf.Bytes())
	n, entries, err := ParseDirectoryProbe(c, 0, "")
	require.NoError(t, err)
	require.Equal(t, 1, len(n.Children()))
	child := n.Children()[0]
	require.Equal(t, "Root.img", child.Name())
	require.Equal(t, node.Directory{}, child.Value())
	require.Equal(t, 0, len(child.Children()))
	require.Equal(t, 1, len(entries))
	require.False(t, entries[0].IsDirectory)
}

func TestParseDirectoryRejectsBadEntryTag(t *testing.T) {
	var buf bytes.Buffer
	writeVarInt(&buf, 1)
	buf.WriteByte(0x09)

	c := reader.New(buf.Bytes())
	_, err := parseDirectory(c, 0, "", 1, nil)
	require.ErrorIs(t, err, ErrBadDirectoryEntryTag)
}
