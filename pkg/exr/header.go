package exr

import (
	"fmt"
	"strings"
)

// Compression is the OpenEXR block compression method
type Compression uint8

const (
	Uncompressed Compression = iota
	RLE
	ZIPS
	ZIP
	PIZ
	PXR24
	B44
	B44A
	DWAA
	DWAB
)

var compressionNames = [...]string{"none", "rle", "zips", "zip", "piz", "pxr24", "b44", "b44a", "dwaa", "dwab"}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

// ParseCompression accepts the names returned by String
func ParseCompression(s string) (Compression, error) {
	for i, n := range compressionNames {
		if strings.EqualFold(n, s) {
			return Compression(i), nil
		}
	}
	return 0, fmt.Errorf("unknown compression %q", s)
}

// ScanLinesPerBlock is the block height for scanline images using c
func (c Compression) ScanLinesPerBlock() int {
	switch c {
	case ZIP, PXR24:
		return 16
	case PIZ, B44, B44A, DWAA:
		return 32
	case DWAB:
		return 256
	}
	return 1
}

// LineOrder is the order in which blocks are stored in the file
type LineOrder uint8

const (
	IncreasingY LineOrder = iota
	DecreasingY
	RandomY
)

// LevelMode describes the resolution pyramid of a tiled layer
type LevelMode uint8

const (
	Singular LevelMode = iota
	MipMap
	RipMap
)

// RoundingMode decides how level sizes are rounded when halving
type RoundingMode uint8

const (
	RoundDown RoundingMode = iota
	RoundUp
)

// TileDescription is the tiling of a tiled layer
type TileDescription struct {
	TileSize     Vec2
	LevelMode    LevelMode
	RoundingMode RoundingMode
}

// BlockDescription is the block shape stored in a header.
// A nil Tiles means scanline blocks.
type BlockDescription struct {
	Tiles *TileDescription
}

// HasTiles reports whether the layer is tiled
func (b BlockDescription) HasTiles() bool { return b.Tiles != nil }

// IntegerBounds is a pixel rectangle
type IntegerBounds struct {
	Position Vec2
	Size     Vec2
}

// ImageAttributes are shared by every layer of an image
type ImageAttributes struct {
	DisplayWindow IntegerBounds
	PixelAspect   float32
	// Other holds additional string attributes
	Other map[string]string
}

// NewImageAttributes uses the display window as the full image size
func NewImageAttributes(size Vec2) ImageAttributes {
	return ImageAttributes{
		DisplayWindow: IntegerBounds{Size: size},
		PixelAspect:   1,
	}
}

// LayerAttributes belong to one layer
type LayerAttributes struct {
	LayerName          string
	LayerPosition      Vec2
	ScreenWindowCenter [2]float32
	ScreenWindowWidth  float32
	Other              map[string]string
}

// NamedLayerAttributes returns default attributes with a layer name
func NamedLayerAttributes(name string) LayerAttributes {
	return LayerAttributes{LayerName: name, ScreenWindowWidth: 1}
}

// Header describes one layer: its channels, geometry and encoding
type Header struct {
	Channels    ChannelList
	Compression Compression
	Blocks      BlockDescription
	LineOrder   LineOrder
	LayerSize   Vec2

	Deep               bool
	DeepDataVersion    *int
	ChunkCount         int
	MaxSamplesPerPixel *int

	SharedAttributes ImageAttributes
	OwnAttributes    LayerAttributes
}

// BytesPerPixel is the size of one pixel across all channels
func (h *Header) BytesPerPixel() int { return h.Channels.BytesPerPixel() }

// LayerName returns the layer name attribute, possibly empty
func (h *Header) LayerName() string { return h.OwnAttributes.LayerName }

// TextAttributes merges the shared and own string attributes; the layer's win.
func (h *Header) TextAttributes() map[string]string {
	merged := make(map[string]string, len(h.SharedAttributes.Other)+len(h.OwnAttributes.Other))
	for k, v := range h.SharedAttributes.Other {
		merged[k] = v
	}
	for k, v := range h.OwnAttributes.Other {
		merged[k] = v
	}
	return merged
}

// BlockIndices enumerates the full resolution blocks of the layer in increasing y order
func (h *Header) BlockIndices(layer int) []BlockIndex {
	size := h.LayerSize
	if size.Area() <= 0 {
		return nil
	}
	var blockSize Vec2
	if h.Blocks.HasTiles() {
		blockSize = h.Blocks.Tiles.TileSize
	} else {
		blockSize = Vec2{size.X, h.Compression.ScanLinesPerBlock()}
	}
	if blockSize.X <= 0 || blockSize.Y <= 0 {
		return nil
	}
	var indices []BlockIndex
	for y := 0; y < size.Y; y += blockSize.Y {
		for x := 0; x < size.X; x += blockSize.X {
			indices = append(indices, BlockIndex{
				Layer:         layer,
				PixelPosition: Vec2{x, y},
				PixelSize:     Vec2{min(blockSize.X, size.X-x), min(blockSize.Y, size.Y-y)},
			})
		}
	}
	return indices
}
