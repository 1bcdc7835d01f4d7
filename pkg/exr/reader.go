package exr

import (
	"errors"
	"fmt"
	"iter"
)

// ReadSpecificChannels describes which channels to read from every layer
// and how to store them.
type ReadSpecificChannels[S any] struct {
	Selection Selection
	// Create allocates the storage of one layer
	Create PixelStorageFactory[S]
	// Set stores every decoded pixel
	Set PixelSink[S]
}

// ReadFlattened reads the selection into Flattened[Pixel] storage
func ReadFlattened(sel Selection) ReadSpecificChannels[Flattened[Pixel]] {
	return ReadSpecificChannels[Flattened[Pixel]]{
		Selection: sel,
		Create:    CreateFlattened[Pixel](),
		Set:       SetFlattenedPixel(),
	}
}

// SpecificChannels is the finished channel data of one layer
type SpecificChannels[S any] struct {
	SampleTypes []ResolvedChannel
	Storage     S
}

// SpecificChannelsReader accumulates the blocks of one layer into its storage.
//
// The reader owns its storage and does no locking. Blocks of one layer cover
// disjoint pixels, so they may be decoded concurrently only when the sink
// tolerates concurrent writes to distinct positions; Flattened does not, and
// callers must serialize ReadBlock for it. Readers of different layers are
// independent.
type SpecificChannelsReader[S any] struct {
	storage     S
	set         PixelSink[S]
	info        ChannelsInfo
	pixelReader PixelReader
}

// CreateReader resolves the selection against the layer header and allocates
// the layer's storage. Deep layers fail with ErrInvalidLayer, missing required
// channels with a *MissingChannelError; in both cases no storage is created.
func (r ReadSpecificChannels[S]) CreateReader(header *Header) (*SpecificChannelsReader[S], error) {
	if header.Deep {
		return nil, fmt.Errorf("%w: layer %q has deep data, no flat channel data", ErrInvalidLayer, header.LayerName())
	}

	sampleTypes, pixelReader, err := Resolve(r.Selection, header.Channels)
	if err != nil {
		var missing *MissingChannelError
		if errors.As(err, &missing) {
			missing.Layer = header.LayerName()
		}
		return nil, err
	}

	info := ChannelsInfo{SampleTypes: sampleTypes, Resolution: header.LayerSize}
	return &SpecificChannelsReader[S]{
		storage:     r.Create.Create(info),
		set:         r.Set,
		info:        info,
		pixelReader: pixelReader,
	}, nil
}

// Info returns the resolved channels and resolution of the layer
func (r *SpecificChannelsReader[S]) Info() ChannelsInfo { return r.info }

// FilterBlock accepts only blocks of the full resolution level
func (r *SpecificChannelsReader[S]) FilterBlock(tile TileCoordinates) bool {
	return tile.IsLargestResolutionLevel()
}

// ReadBlock decodes every pixel of block into the storage, row by row from the
// top and left to right within each row.
func (r *SpecificChannelsReader[S]) ReadBlock(header *Header, block UncompressedBlock) error {
	size := block.Index.PixelSize
	expected := ExpectedBytes(header.Channels, size)
	if len(block.Data) != expected {
		return &InvalidBlockError{Index: block.Index, Expected: expected, Actual: len(block.Data)}
	}

	width, height := size.Width(), size.Height()
	lineBytes := width * header.BytesPerPixel()
	initial := r.pixelReader.LineReader(width)

	for y := 0; y < height; y++ {
		row := block.Data[y*lineBytes : (y+1)*lineBytes]
		line := initial
		for x := 0; x < width; x++ {
			pixel, err := line.ReadPixel(row)
			if err != nil {
				return err
			}
			r.set.SetPixel(&r.storage, block.Index.PixelPosition.Add(Vec2{x, y}), pixel)
		}
	}
	return nil
}

// IntoChannels hands the accumulated storage to the caller.
// The reader must not be used afterwards.
func (r *SpecificChannelsReader[S]) IntoChannels() SpecificChannels[S] {
	return SpecificChannels[S]{SampleTypes: r.info.SampleTypes, Storage: r.storage}
}

// ReadBlocks feeds every eligible block to the reader and stops at the first error
func ReadBlocks[S any](r *SpecificChannelsReader[S], header *Header, blocks iter.Seq2[TileCoordinates, UncompressedBlock]) error {
	for tile, block := range blocks {
		if !r.FilterBlock(tile) {
			continue
		}
		if err := r.ReadBlock(header, block); err != nil {
			return err
		}
	}
	return nil
}
