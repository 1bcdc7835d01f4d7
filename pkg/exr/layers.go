package exr

import "fmt"

// Blocks is the block shape requested for writing a layer
type Blocks struct {
	Tiled        bool
	TileSize     Vec2
	RoundingMode RoundingMode
}

// ScanLineBlocks stores the layer as scanline blocks
func ScanLineBlocks() Blocks { return Blocks{} }

// TileBlocks stores the layer as tiles of the given size
func TileBlocks(size Vec2, rounding RoundingMode) Blocks {
	return Blocks{Tiled: true, TileSize: size, RoundingMode: rounding}
}

// Encoding controls how a layer is stored
type Encoding struct {
	Compression Compression
	Blocks      Blocks
	LineOrder   LineOrder
}

// DefaultEncoding is ZIP compressed scanlines in increasing y order
func DefaultEncoding() Encoding {
	return Encoding{Compression: ZIP, Blocks: ScanLineBlocks(), LineOrder: IncreasingY}
}

// UncompressedEncoding is uncompressed scanlines in increasing y order
func UncompressedEncoding() Encoding {
	return Encoding{Compression: Uncompressed, Blocks: ScanLineBlocks(), LineOrder: IncreasingY}
}

// Layer is one image plane to be written
type Layer[C WritableChannels] struct {
	ChannelData C
	Attributes  LayerAttributes
	Size        Vec2
	Encoding    Encoding
}

// NewLayer creates a layer
func NewLayer[C WritableChannels](size Vec2, attributes LayerAttributes, encoding Encoding, channels C) Layer[C] {
	return Layer[C]{ChannelData: channels, Attributes: attributes, Size: size, Encoding: encoding}
}

// InferHeader builds the header of this layer. Deep fields stay unset.
func (l Layer[C]) InferHeader(image ImageAttributes) Header {
	var blocks BlockDescription
	if l.Encoding.Blocks.Tiled {
		blocks.Tiles = &TileDescription{
			TileSize:     l.Encoding.Blocks.TileSize,
			LevelMode:    l.ChannelData.InferLevelMode(),
			RoundingMode: l.Encoding.Blocks.RoundingMode,
		}
	}
	header := Header{
		Channels:         l.ChannelData.InferChannelList(),
		Compression:      l.Encoding.Compression,
		Blocks:           blocks,
		LineOrder:        l.Encoding.LineOrder,
		LayerSize:        l.Size,
		Deep:             false,
		SharedAttributes: image,
		OwnAttributes:    l.Attributes,
	}
	header.ChunkCount = len(header.BlockIndices(0))
	return header
}

// CreateWriter prepares block extraction for this layer's header
func (l Layer[C]) CreateWriter(header *Header) (*LayerWriter, error) {
	channels, err := l.ChannelData.CreateWriter(header)
	if err != nil {
		return nil, err
	}
	return &LayerWriter{channels: channels}, nil
}

// LayerWriter extracts the blocks of one layer
type LayerWriter struct {
	channels ChannelsWriter
}

// ExtractUncompressedBlock encodes one block using the layer's own header
func (w *LayerWriter) ExtractUncompressedBlock(header *Header, block BlockIndex) ([]byte, error) {
	return w.channels.ExtractUncompressedBlock(header, block)
}

// Layers is an ordered collection of layers. Header i always describes layer i.
type Layers[C WritableChannels] []Layer[C]

// InferHeaders returns one header per layer, in layer order
func (ls Layers[C]) InferHeaders(image ImageAttributes) []Header {
	headers := make([]Header, 0, len(ls))
	for _, l := range ls {
		headers = append(headers, l.InferHeader(image))
	}
	return headers
}

// CreateWriter pairs every layer with its header
func (ls Layers[C]) CreateWriter(headers []Header) (*LayersWriter, error) {
	if len(headers) != len(ls) {
		return nil, fmt.Errorf("got %d headers for %d layers", len(headers), len(ls))
	}
	w := &LayersWriter{layers: make([]*LayerWriter, len(ls))}
	for i, l := range ls {
		lw, err := l.CreateWriter(&headers[i])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		w.layers[i] = lw
	}
	return w, nil
}

// LayersWriter routes block extraction to the layer the block belongs to
type LayersWriter struct {
	layers []*LayerWriter
}

// ExtractUncompressedBlock encodes block with the writer and header of block.Layer.
// An index outside the layers panics.
func (w *LayersWriter) ExtractUncompressedBlock(headers []Header, block BlockIndex) ([]byte, error) {
	return w.layers[block.Layer].ExtractUncompressedBlock(&headers[block.Layer], block)
}
