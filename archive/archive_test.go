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

package archive

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pixeldrift/wzarchive/node"
	"github.com/stretchr/testify/require"
)

// treeDump renders a Node tree for structural comparison, with pointer
// addresses disabled so two independently-parsed trees with the same
// content compare equal regardless of allocation order.
var treeDump = spew.ConfigState{DisablePointerAddresses: true, DisableMethods: true}

// minimalArchive is a hand-built PKG1 buffer whose schema version (1) is
// only recoverable by the brute-force search: file_start is 17, the
// encoded_version at that offset is 0xCD (matching versionHashOf(1) == 50
// through matchHash), and the root directory at file_start+2 holds a single
// image entry "Root.img" with one scalar property {"n": Int(42)}. Every
// obfuscated offset and string in it was computed independently of this
// package's own encoder, so a passing test exercises the real decode path
// end to end.
func minimalArchive() []byte {
	return []byte{
		0x50, 0x4B, 0x47, 0x31, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x11, 0x00, 0x00, 0x00, 0x00,
		0xCD, 0x00,
		0x01, 0x04,
		0xF8, 0xF8, 0xC4, 0xC3, 0xD9, 0x80, 0xC6, 0xDD, 0xD6,
		0x00, 0x00,
		0x1F, 0x3F, 0x9D, 0xEB,
		0x73, 0xF8, 0xFA, 0xD9, 0xC3, 0xDD, 0xCB, 0xDD, 0xC4, 0xC8,
		0x00, 0x00,
		0x01, 0x73, 0xFF, 0xC4, 0x03, 0x2A,
	}
}

func TestOpenBytesRecoversVersionByBruteForce(t *testing.T) {
	a, err := OpenBytes(minimalArchive(), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, a.Version())
	require.Equal(t, uint32(50), a.VersionHash())
}

func TestOpenBytesParsesRootTree(t *testing.T) {
	a, err := OpenBytes(minimalArchive(), Options{})
	require.NoError(t, err)

	root := a.Root()
	require.Equal(t, 1, len(root.Children()))

	img := root.Children()[0]
	require.Equal(t, "Root.img", img.Name())
	require.Equal(t, node.Img{}, img.Value())

	n, ok := img.Child("n")
	require.True(t, ok)
	require.Equal(t, node.Int(42), n.Value())
}

func TestOpenBytesRejectsBadMagic(t *testing.T) {
	data := minimalArchive()
	data[0] = 'X'
	_, err := OpenBytes(data, Options{})
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestOpenBytesFailsWhenCandidateCapTooLow(t *testing.T) {
	_, err := OpenBytes(minimalArchive(), Options{MaxVersionCandidate: 1})
	require.ErrorIs(t, err, ErrUnknownVersion)
}

func TestResolveWalksFromRoot(t *testing.T) {
	a, err := OpenBytes(minimalArchive(), Options{})
	require.NoError(t, err)

	n, err := a.Resolve("Root.img/n")
	require.NoError(t, err)
	require.Equal(t, node.Int(42), n.Value())
}

func TestParseRootIsPureAndLeavesArchiveCursorAlone(t *testing.T) {
	a, err := OpenBytes(minimalArchive(), Options{})
	require.NoError(t, err)

	before := a.cursor.Tell()
	reparsed, err := a.ParseRoot()
	require.NoError(t, err)
	require.Equal(t, a.cursor.Tell(), before)
	require.Equal(t, treeDump.Sdump(a.root), treeDump.Sdump(reparsed))
}

func TestParentPath(t *testing.T) {
	require.Equal(t, "", parentPath("Root.img"))
	require.Equal(t, "Root.img", parentPath("Root.img/n"))
	require.Equal(t, "a/b", parentPath("a/b/c"))
}
