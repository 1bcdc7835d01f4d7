package exr

// TileCoordinates locates a block within the tile grid and resolution pyramid.
// Scanline blocks use TileIndex.Y as the block row and a zero LevelIndex.
type TileCoordinates struct {
	TileIndex  Vec2
	LevelIndex Vec2
}

// IsLargestResolutionLevel reports whether the block belongs to the full resolution image
func (t TileCoordinates) IsLargestResolutionLevel() bool {
	return t.LevelIndex == Vec2{}
}

// BlockIndex identifies the pixels covered by one block of one layer
type BlockIndex struct {
	// Layer is the index into the image's layers and headers
	Layer int
	// PixelPosition is the top left pixel of the block, relative to the layer
	PixelPosition Vec2
	// PixelSize is the width and height of the block, clipped to the layer
	PixelSize Vec2
	// Level is the resolution level, (0,0) for the full resolution image
	Level Vec2
}

// UncompressedBlock is the decompressed, channel-planar bytes of one block
type UncompressedBlock struct {
	Index BlockIndex
	Data  []byte
}

// ExpectedBytes returns the byte count a block of the given size must have
func ExpectedBytes(channels ChannelList, size Vec2) int {
	return channels.BytesPerPixel() * size.Area()
}
