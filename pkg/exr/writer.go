package exr

import "fmt"

// WritableChannels is the channel data of a layer that can be written to a file
type WritableChannels interface {
	// InferChannelList returns the channel list to store in the layer header
	InferChannelList() ChannelList
	// InferLevelMode returns the resolution levels the channel data provides
	InferLevelMode() LevelMode
	// CreateWriter prepares block extraction for the header inferred from this data
	CreateWriter(header *Header) (ChannelsWriter, error)
}

// ChannelsWriter encodes blocks of one layer
type ChannelsWriter interface {
	ExtractUncompressedBlock(header *Header, block BlockIndex) ([]byte, error)
}

// WriteSpecificChannels writes a fixed set of channels from caller storage.
// Pixel slot i is written to Channels[i].
type WriteSpecificChannels[S any] struct {
	Channels []ChannelDescription
	Storage  S
	Get      PixelSource[S]
}

// WriteFlattened writes Flattened[Pixel] storage
func WriteFlattened(storage Flattened[Pixel], channels ...ChannelDescription) *WriteSpecificChannels[Flattened[Pixel]] {
	return &WriteSpecificChannels[Flattened[Pixel]]{
		Channels: channels,
		Storage:  storage,
		Get:      GetFlattenedPixel(),
	}
}

// InferChannelList orders the channels by name, as OpenEXR requires
func (w *WriteSpecificChannels[S]) InferChannelList() ChannelList {
	return SortedChannelList(w.Channels...)
}

// InferLevelMode is always Singular; only the full resolution level is written.
func (w *WriteSpecificChannels[S]) InferLevelMode() LevelMode { return Singular }

// CreateWriter maps every pixel slot onto its position in the header's channel list
func (w *WriteSpecificChannels[S]) CreateWriter(header *Header) (ChannelsWriter, error) {
	if header.Deep {
		return nil, fmt.Errorf("%w: layer %q: deep data cannot be written", ErrInvalidLayer, header.LayerName())
	}
	requests := make([]ChannelRequest, len(w.Channels))
	for i, c := range w.Channels {
		requests[i] = Required(c.Name)
	}
	sel, err := NewSelection(requests...)
	if err != nil {
		return nil, err
	}
	_, pixels, err := Resolve(sel, header.Channels)
	if err != nil {
		return nil, err
	}
	return &specificChannelsWriter[S]{source: w, pixels: pixels}, nil
}

type specificChannelsWriter[S any] struct {
	source *WriteSpecificChannels[S]
	pixels PixelReader
}

// ExtractUncompressedBlock encodes the block's pixels in the header's byte layout
func (w *specificChannelsWriter[S]) ExtractUncompressedBlock(header *Header, block BlockIndex) ([]byte, error) {
	width, height := block.PixelSize.Width(), block.PixelSize.Height()
	lineBytes := width * header.BytesPerPixel()
	data := make([]byte, lineBytes*height)
	initial := w.pixels.LineWriter(width)

	for y := 0; y < height; y++ {
		row := data[y*lineBytes : (y+1)*lineBytes]
		line := initial
		for x := 0; x < width; x++ {
			pixel := w.source.Get.GetPixel(&w.source.Storage, block.PixelPosition.Add(Vec2{x, y}))
			if err := line.WritePixel(row, pixel); err != nil {
				return nil, err
			}
		}
	}
	return data, nil
}
