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

	"github.com/pixeldrift/wzarchive/reader"
	"github.com/stretchr/testify/require"
)

func TestVersionHashOfKnownCandidates(t *testing.T) {
	require.Equal(t, uint32(49), versionHashOf(0))
	require.Equal(t, uint32(50), versionHashOf(1))
	require.Equal(t, uint32(59192), versionHashOf(777))
}

func TestMatchHashAgainstHandComputedTable(t *testing.T) {
	// encoded_version 0xCD matches candidate 1's hash (50) and nothing
	// else nearby, so the brute-force loop must skip candidate 0.
	require.False(t, matchHash(0xCD, versionHashOf(0)))
	require.True(t, matchHash(0xCD, versionHashOf(1)))
}

func TestLooksLikeKnownVersionOnPlainEncodedVersion(t *testing.T) {
	c := reader.New([]byte{0x00})
	require.False(t, looksLikeKnownVersion(c, 0, 0xCD))
}

func TestLooksLikeKnownVersionOnWideEncodedVersion(t *testing.T) {
	c := reader.New([]byte{0x00})
	require.True(t, looksLikeKnownVersion(c, 0, 0x100))
}

func TestLooksLikeKnownVersionOnMarkerRequiresPlausibleVarInt(t *testing.T) {
	// fileStart points at a var_int encoding 0x0100 (256): plausible.
	data := []byte{0x80, 0x00, 0x01, 0x00, 0x00}
	c := reader.New(data)
	require.True(t, looksLikeKnownVersion(c, 0, 0x80))

	// Same marker, but the var_int at fileStart decodes to zero: not
	// plausible, so the known-version path should not be attempted.
	c2 := reader.New([]byte{0x00})
	require.False(t, looksLikeKnownVersion(c2, 0, 0x80))
}

func TestRecoverVersionUnknownReturnsSentinel(t *testing.T) {
	// Two bytes of junk immediately past file_start: no candidate's hash
	// will match, so the brute-force loop exhausts maxCandidate.
	c := reader.New([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	c.FileStart = 0
	_, _, err := recoverVersion(c, 5)
	require.ErrorIs(t, err, ErrUnknownVersion)
}
