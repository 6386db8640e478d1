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

// Package canvas decodes a WZ Canvas property's pixel payload into an
// RGBA8888 image. Decoding is re-entrant and read-only with respect to the
// archive: it re-reads the payload through a live reader.Cursor rather than
// holding pixel bytes on the node.
package canvas

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zlib"
	"github.com/pixeldrift/wzarchive/node"
	"github.com/pixeldrift/wzarchive/reader"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "canvas")

var (
	// ErrNotCanvas is returned when Decode is given a node whose value is
	// not node.Canvas.
	ErrNotCanvas = errors.New("canvas: node is not a Canvas")

	// ErrUnsupportedPayload is returned when the payload is not a single
	// zlib stream (the segmented "list" form is not implemented).
	ErrUnsupportedPayload = errors.New("canvas: unsupported segmented payload")

	// ErrUnsupportedFormat is returned for a format1+format2 combination
	// outside the known set (1, 2, 517, 1026, 2050).
	ErrUnsupportedFormat = errors.New("canvas: unsupported pixel format")
)

// zlib header candidates that mark a single-stream payload, per the low
// byte / window-size combinations a compliant zlib writer can emit for the
// default compression levels WZ tooling uses.
var zlibHeaders = [4]uint16{0x9C78, 0xDA78, 0x0178, 0x5E78}

// Image is a decoded canvas: width*height*4 bytes of RGBA8888 pixels, plus
// the metadata carried alongside it.
type Image struct {
	Width, Height uint32
	Origin        node.Vector
	Pixels        []byte
}

// Decode renders canvasNode (whose Value must be node.Canvas) to an RGBA8888
// Image using c to re-read the archive's payload bytes.
//
// parentImg and archiveRoot resolve the supplemental _inlink/_outlink
// indirections (see link.go): parentImg anchors a relative _inlink path,
// archiveRoot anchors an _outlink's tail path. Either may be nil, in which
// case the corresponding indirection is treated as absent rather than
// resolved -- a caller that never expects linked canvases can pass nil for
// both and get ordinary non-link decoding.
func Decode(canvasNode, parentImg, archiveRoot *node.Node, c *reader.Cursor) (*Image, error) {
	canvasValue, ok := canvasNode.Value().(node.Canvas)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCanvas, canvasNode)
	}

	if target, newOrigin, ok, err := resolveLink(canvasNode, parentImg, archiveRoot); err != nil {
		return nil, fmt.Errorf("canvas: resolving link on %s: %w", canvasNode, err)
	} else if ok {
		img, err := Decode(target, parentImg, archiveRoot, c)
		if err != nil {
			return nil, err
		}
		linked := *img
		linked.Origin = newOrigin
		return &linked, nil
	}

	raw, err := extractPayload(c, canvasValue.PayloadOffset)
	if err != nil {
		return nil, fmt.Errorf("canvas: %s: %w", canvasNode, err)
	}

	inflated, err := inflatePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("canvas: %s: %w", canvasNode, err)
	}

	format := canvasValue.Format1 + uint32(canvasValue.Format2)
	width, height := canvasValue.Width, canvasValue.Height

	pixels, err := convert(format, inflated, width, height)
	if err != nil {
		return nil, fmt.Errorf("canvas: %s: %w", canvasNode, err)
	}

	return &Image{Width: width, Height: height, Origin: canvasValue.Origin, Pixels: pixels}, nil
}

// extractPayload saves the cursor, seeks to payloadOffset, reads the
// length-prefixed compressed bytes, and restores the cursor.
func extractPayload(c *reader.Cursor, payloadOffset uint32) ([]byte, error) {
	resume := c.Tell()
	defer c.Seek(resume)

	c.Seek(payloadOffset)
	lenPlusOne, err := c.U32()
	if err != nil {
		return nil, fmt.Errorf("reading payload length: %w", err)
	}
	c.Skip(1)
	n := int(lenPlusOne) - 1
	if n < 0 {
		return nil, fmt.Errorf("reading payload: negative length %d", n)
	}
	raw := make([]byte, n)
	for i := range raw {
		b, err := c.U8()
		if err != nil {
			return nil, fmt.Errorf("reading payload byte %d: %w", i, err)
		}
		raw[i] = b
	}
	return raw, nil
}

func inflatePayload(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, ErrUnsupportedPayload
	}
	h := uint16(raw[0]) | uint16(raw[1])<<8
	isZlib := false
	for _, candidate := range zlibHeaders {
		if h == candidate {
			isZlib = true
			break
		}
	}
	if !isZlib {
		return nil, ErrUnsupportedPayload
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, fmt.Errorf("inflating: %w", err)
	}
	return out.Bytes(), nil
}

func convert(format uint32, inflated []byte, width, height uint32) ([]byte, error) {
	switch format {
	case 1:
		u := int(width) * int(height) * 2
		if err := truncate(&inflated, u); err != nil {
			return nil, err
		}
		return decodeBGRA4444(inflated, width, height), nil
	case 2:
		u := int(width) * int(height) * 4
		if err := truncate(&inflated, u); err != nil {
			return nil, err
		}
		return decodeBGRA8888(inflated), nil
	case 517:
		u := int(width) * int(height) / 128
		if err := truncate(&inflated, u); err != nil {
			return nil, err
		}
		return decodeBGR565Tiled(inflated, width, height), nil
	case 1026, 2050:
		u := int(width) * int(height)
		if err := truncate(&inflated, u); err != nil {
			return nil, err
		}
		return decodeBC3(inflated, width, height), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

func truncate(data *[]byte, u int) error {
	if u < 0 || u > len(*data) {
		return fmt.Errorf("canvas: inflated payload too short: have %d, want %d", len(*data), u)
	}
	*data = (*data)[:u]
	return nil
}
