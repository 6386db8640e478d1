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

// Package keystream provides the lazily-expanded AES-256-ECB byte stream
// used to de-obfuscate strings in WZ archives.
package keystream

import (
	"crypto/aes"

	"github.com/sirupsen/logrus"
)

// BatchSize is how many bytes are materialized at a time once the stream
// needs to grow past its current length.
const BatchSize = 4096

const blockSize = 16

// ModernIV is the seed used by modern (unencrypted-string) archive variants.
var ModernIV = [4]byte{0x00, 0x00, 0x00, 0x00}

// LegacyIV is the seed used by the legacy, string-obfuscated archive variant.
var LegacyIV = [4]byte{0x4D, 0x23, 0xC7, 0x2B}

// masterKey is the AES-256 key compiled into every client of this archive
// family. It is not a secret in the cryptographic sense -- it is a fixed,
// publicly known constant -- but it is only ever used to derive the
// deobfuscation stream, never for anything resembling real confidentiality.
var masterKey = [32]byte{
	0x13, 0x08, 0x20, 0x68, 0x08, 0x19, 0x32, 0x18,
	0x23, 0x18, 0x28, 0x19, 0x28, 0x18, 0x18, 0x28,
	0x30, 0x3A, 0x82, 0x02, 0x38, 0x18, 0x80, 0x28,
	0x9E, 0x2F, 0x3A, 0x28, 0x08, 0x19, 0x38, 0x0B,
}

var log = logrus.WithField("component", "keystream")

// Stream is a growable, lazily-materialized byte sequence derived from an IV
// and the fixed master key. Block 0 is the IV repeated four times; block n
// (n >= 1) is AES-256-ECB applied to block n-1's ciphertext. Blocks are
// materialized in batches of BatchSize bytes.
//
// A zero Stream has no cipher, so At panics on it; use New. The all-zero-IV
// variant is normally represented by a nil *Stream rather than a Stream at
// all -- see archive.Options.
type Stream struct {
	iv     [4]byte
	cipher interface {
		Encrypt(dst, src []byte)
	}
	buf []byte
}

// New returns a Stream seeded with iv. It does not eagerly derive any bytes.
func New(iv [4]byte) *Stream {
	block, err := aes.NewCipher(masterKey[:])
	if err != nil {
		// aes.NewCipher only fails for a key of the wrong length, and
		// masterKey is a compile-time 32-byte array.
		panic("keystream: invalid master key length: " + err.Error())
	}
	return &Stream{iv: iv, cipher: block}
}

// At returns the byte at index i, growing the stream in BatchSize-byte
// batches if necessary.
func (s *Stream) At(i int) byte {
	if i >= len(s.buf) {
		s.grow(i + 1)
	}
	return s.buf[i]
}

// grow extends s.buf to at least newSize bytes (a multiple of BatchSize).
// Block 0 is the IV repeated four times; block n (n >= 1) is AES-256-ECB
// applied to block n-1's ciphertext, never to the plaintext IV.
func (s *Stream) grow(size int) {
	batches := (size + BatchSize - 1) / BatchSize
	newSize := batches * BatchSize
	if newSize <= len(s.buf) {
		return
	}
	log.WithFields(logrus.Fields{"from": len(s.buf), "to": newSize}).Trace("growing key stream")

	newBuf := make([]byte, newSize)
	copy(newBuf, s.buf)

	start := len(s.buf)
	if start == 0 {
		newBuf[0], newBuf[1], newBuf[2], newBuf[3] = s.iv[0], s.iv[1], s.iv[2], s.iv[3]
		newBuf[4], newBuf[5], newBuf[6], newBuf[7] = s.iv[0], s.iv[1], s.iv[2], s.iv[3]
		newBuf[8], newBuf[9], newBuf[10], newBuf[11] = s.iv[0], s.iv[1], s.iv[2], s.iv[3]
		newBuf[12], newBuf[13], newBuf[14], newBuf[15] = s.iv[0], s.iv[1], s.iv[2], s.iv[3]
		start = blockSize
	}
	for off := start; off < newSize; off += blockSize {
		s.cipher.Encrypt(newBuf[off:off+blockSize], newBuf[off-blockSize:off])
	}

	s.buf = newBuf
}
