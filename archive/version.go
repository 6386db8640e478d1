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
	"errors"
	"strconv"

	"github.com/pixeldrift/wzarchive/reader"
	"github.com/pixeldrift/wzarchive/tree"
)

// MaxVersionCandidate bounds the brute-force version search. It is a
// tuning constant carried over from the historical reference client lineup
// (spec section 9) and should not be lowered without a compatibility study
// against archives still in the wild.
var MaxVersionCandidate = 230

// knownVersionCandidate is the only version probed by the fast path; no
// other "known" version has ever needed this shortcut in the reference
// implementation.
const knownVersionCandidate = 777

// ErrUnknownVersion is returned when neither the known-version fast path
// nor the brute-force search finds a candidate whose probe parse succeeds.
var ErrUnknownVersion = errors.New("archive: could not recover schema version")

const (
	imageHeaderWithOffset    = 0x1B
	imageHeaderWithoutOffset = 0x73
)

// recoverVersion reads the encoded version u16 at c.FileStart and
// determines the real schema version and its version hash, per spec
// section 4.C. c.FileStart must already be set; on success c.VersionHash is
// left set to the winning candidate's hash. maxCandidate bounds the
// brute-force loop (see MaxVersionCandidate).
func recoverVersion(c *reader.Cursor, maxCandidate int) (version int, versionHash uint32, err error) {
	fileStart := c.FileStart
	c.Seek(fileStart)
	encodedVersion, err := c.U16()
	if err != nil {
		return 0, 0, err
	}

	if looksLikeKnownVersion(c, fileStart, encodedVersion) {
		// Unlike the brute-force path below, the known-version shortcut
		// does not check matchHash against the on-disk encoded_version:
		// it trusts the single candidate and accepts it purely on a
		// successful probe parse.
		hash := versionHashOf(knownVersionCandidate)
		if probeParseWithHash(c, fileStart, hash) {
			c.VersionHash = hash
			return knownVersionCandidate, hash, nil
		}
		// Known-version path declined; fall through to brute force, same
		// as the reference implementation.
	}

	for candidate := 0; candidate < maxCandidate; candidate++ {
		hash := versionHashOf(candidate)
		if !matchHash(encodedVersion, hash) {
			log.WithField("candidate", candidate).Trace("version hash did not match encoded version")
			continue
		}
		base := fileStart
		if candidate <= 230 {
			base = fileStart + 2
		}
		if probeParseWithHash(c, base, hash) {
			c.VersionHash = hash
			return candidate, hash, nil
		}
		log.WithField("candidate", candidate).Trace("version hash matched but probe parse failed")
	}

	return 0, 0, ErrUnknownVersion
}

// looksLikeKnownVersion implements the "known-version path" gate: either
// encoded_version is already out of single-byte range, or it is the
// specific 0x80 marker and the first var_int at fileStart decodes to a
// plausible newer-schema sentinel.
func looksLikeKnownVersion(c *reader.Cursor, fileStart uint32, encodedVersion uint16) bool {
	if encodedVersion > 0xFF {
		return true
	}
	if encodedVersion != 0x80 {
		return false
	}
	resume := c.Tell()
	defer c.Seek(resume)

	c.Seek(fileStart)
	v, err := c.VarInt()
	if err != nil {
		return false
	}
	return v > 0 && v&0xFF == 0 && v <= 0xFFFF
}

// versionHashOf computes the version hash of candidate's decimal text:
// hash = 0; hash = 32*hash + codepoint + 1 for each character, wrapping in
// uint32.
func versionHashOf(candidate int) uint32 {
	s := strconv.Itoa(candidate)
	var hash uint32
	for _, r := range s {
		hash = 32*hash + uint32(r) + 1
	}
	return hash
}

// matchHash reimplements the header/hash match test: decoded = 0xFF xor
// each byte of versionHash (MSB first), and the candidate matches iff
// encoded_version == decoded.
func matchHash(encodedVersion uint16, versionHash uint32) bool {
	a := byte(versionHash >> 24)
	b := byte(versionHash >> 16)
	d := byte(versionHash >> 8)
	e := byte(versionHash)
	decoded := uint32(0xFF) ^ uint32(a) ^ uint32(b) ^ uint32(d) ^ uint32(e)
	return uint32(encodedVersion) == decoded
}

// probeParseWithHash sets c.VersionHash to versionHash for the duration of
// a probe parse at base (ObfuscatedOffset depends on it), restoring both
// the hash and the cursor position on return. It reports whether the probe
// looks like a real root directory: non-empty, and every non-directory
// entry's body starts with a recognized image header byte.
func probeParseWithHash(c *reader.Cursor, base, versionHash uint32) bool {
	resume := c.Tell()
	prevHash := c.VersionHash
	defer func() {
		c.Seek(resume)
		c.VersionHash = prevHash
	}()
	c.VersionHash = versionHash

	n, entries, err := tree.ParseDirectoryProbe(c, base, "")
	if err != nil {
		return false
	}
	if n == nil || len(entries) == 0 {
		return false
	}

	for _, e := range entries {
		if e.IsDirectory {
			continue
		}
		c.Seek(e.Offset)
		header, err := c.U8()
		if err != nil {
			return false
		}
		if header != imageHeaderWithOffset && header != imageHeaderWithoutOffset {
			return false
		}
	}
	return true
}
