package openexr

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"
	"testing"

	"github.com/jpfielding/exrchan/pkg/exr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayer(size exr.Vec2, encoding exr.Encoding, types ...exr.SampleType) exr.Layer[*exr.WriteSpecificChannels[exr.Flattened[exr.Pixel]]] {
	names := []string{"R", "G", "B", "A"}
	samples := make([]exr.Pixel, size.Area())
	for i := range samples {
		for c, t := range types {
			samples[i][c] = exr.SampleFromFloat32(t, float32(i%50+c))
		}
	}
	descs := make([]exr.ChannelDescription, len(types))
	for c, t := range types {
		descs[c] = exr.NewChannelDescription(names[c], t)
	}
	attrs := exr.NamedLayerAttributes("beauty")
	attrs.Other = map[string]string{"owner": "lighting"}
	return exr.NewLayer(size, attrs, encoding,
		exr.WriteFlattened(exr.NewFlattened(size, samples), descs...))
}

func TestFile_RoundTrip(t *testing.T) {
	for _, compression := range []exr.Compression{exr.Uncompressed, exr.RLE, exr.ZIPS, exr.ZIP} {
		for _, typ := range []exr.SampleType{exr.F16, exr.F32, exr.U32} {
			t.Run(compression.String()+"/"+typ.String(), func(t *testing.T) {
				size := exr.Vec2{X: 13, Y: 37}
				encoding := exr.Encoding{Compression: compression}
				layer := testLayer(size, encoding, typ, typ, typ)

				var buf bytes.Buffer
				require.NoError(t, WriteLayer(&buf, layer, exr.NewImageAttributes(size)))

				channels, header, err := ReadLayer(bytes.NewReader(buf.Bytes()), exr.ReadFlattened(exr.RGBA()))
				require.NoError(t, err)
				assert.Equal(t, compression, header.Compression)
				assert.Equal(t, size, header.LayerSize)
				assert.Equal(t, "beauty", header.LayerName())
				assert.Equal(t, "lighting", header.OwnAttributes.Other["owner"])
				assert.Equal(t, []string{"B", "G", "R"}, header.Channels.Names())
				assert.False(t, channels.SampleTypes[3].Present, "no alpha written")

				want := layer.ChannelData.Storage.Samples
				got := channels.Storage.Samples
				require.Len(t, got, len(want))
				for i := range want {
					for c := 0; c < 3; c++ {
						assert.Equal(t, typ, got[i][c].Type())
						assert.Equal(t, want[i][c].Float32(), got[i][c].Float32(), "pixel %d channel %d", i, c)
					}
					assert.False(t, got[i][3].IsPresent())
				}
			})
		}
	}
}

func TestFile_LayerPositionAndOrder(t *testing.T) {
	size := exr.Vec2{X: 4, Y: 20}
	layer := testLayer(size, exr.Encoding{Compression: exr.ZIP, LineOrder: exr.DecreasingY}, exr.F32)
	layer.Attributes.LayerPosition = exr.Vec2{X: -3, Y: 100}

	var buf bytes.Buffer
	require.NoError(t, WriteLayer(&buf, layer, exr.NewImageAttributes(exr.Vec2{X: 200, Y: 200})))

	header, offsets, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.Greater(t, offsets[0], offsets[1], "decreasing y stores the last block first")
	assert.Equal(t, exr.Vec2{X: -3, Y: 100}, header.OwnAttributes.LayerPosition)
	assert.Equal(t, exr.Vec2{X: 200, Y: 200}, header.SharedAttributes.DisplayWindow.Size)

	channels, _, err := ReadLayer(bytes.NewReader(buf.Bytes()), exr.ReadFlattened(exr.MustSelection(exr.Required("R"))))
	require.NoError(t, err)
	assert.Equal(t, layer.ChannelData.Storage.Samples, channels.Storage.Samples)
}

func TestFile_MissingChannel(t *testing.T) {
	size := exr.Vec2{X: 2, Y: 2}
	var buf bytes.Buffer
	require.NoError(t, WriteLayer(&buf, testLayer(size, exr.UncompressedEncoding(), exr.F16), exr.NewImageAttributes(size)))

	_, _, err := ReadLayer(bytes.NewReader(buf.Bytes()), exr.ReadFlattened(exr.RGB()))
	assert.ErrorIs(t, err, exr.ErrMissingChannel)
	assert.Contains(t, err.Error(), `"beauty"`)
}

func TestFile_DeepRejected(t *testing.T) {
	size := exr.Vec2{X: 2, Y: 2}
	var buf bytes.Buffer
	require.NoError(t, WriteLayer(&buf, testLayer(size, exr.UncompressedEncoding(), exr.F16), exr.NewImageAttributes(size)))

	data := buf.Bytes()
	version := binary.LittleEndian.Uint32(data[4:])
	binary.LittleEndian.PutUint32(data[4:], version|flagNonImage)

	_, header, err := ReadLayer(bytes.NewReader(data), exr.ReadFlattened(exr.MustSelection(exr.Required("R"))))
	assert.ErrorIs(t, err, exr.ErrInvalidLayer)
	require.NotNil(t, header)
	assert.True(t, header.Deep)
}

func TestFile_Unsupported(t *testing.T) {
	size := exr.Vec2{X: 4, Y: 4}
	var buf bytes.Buffer

	tiled := exr.Encoding{Compression: exr.ZIP, Blocks: exr.TileBlocks(exr.Vec2{X: 2, Y: 2}, exr.RoundDown)}
	assert.ErrorIs(t, WriteLayer(&buf, testLayer(size, tiled, exr.F16), exr.NewImageAttributes(size)), ErrUnsupported)

	piz := exr.Encoding{Compression: exr.PIZ}
	assert.ErrorIs(t, WriteLayer(&buf, testLayer(size, piz, exr.F16), exr.NewImageAttributes(size)), ErrUnsupported)

	_, _, err := ReadHeader(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.Error(t, err)
}

func TestFile_TruncatedChunk(t *testing.T) {
	size := exr.Vec2{X: 3, Y: 3}
	var buf bytes.Buffer
	require.NoError(t, WriteLayer(&buf, testLayer(size, exr.UncompressedEncoding(), exr.F32), exr.NewImageAttributes(size)))

	data := buf.Bytes()[:buf.Len()-5]
	_, _, err := ReadLayer(bytes.NewReader(data), exr.ReadFlattened(exr.MustSelection(exr.Required("R"))))
	assert.Error(t, err)
}

func headerBytes(size exr.Vec2, compression exr.Compression, channels ...exr.ChannelDescription) []byte {
	header := exr.Header{
		Channels:         exr.NewChannelList(channels...),
		Compression:      compression,
		LayerSize:        size,
		SharedAttributes: exr.NewImageAttributes(size),
		OwnAttributes:    exr.NamedLayerAttributes("huge"),
	}
	return encodeHeader(&header)
}

func TestFile_HugeDataWindow(t *testing.T) {
	// a tall layer whose offset table is missing
	data := headerBytes(exr.Vec2{X: 1, Y: 1 << 23}, exr.Uncompressed, exr.NewChannelDescription("R", exr.F16))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, _, err := ReadHeader(bytes.NewReader(data))
	runtime.ReadMemStats(&after)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(8<<20), "allocation must follow the input size")

	// more pixels than any layer may have
	data = headerBytes(exr.Vec2{X: 1 << 14, Y: 1 << 14}, exr.ZIP, exr.NewChannelDescription("R", exr.F16))
	_, _, err = ReadHeader(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFile_LayerLargerThanFile(t *testing.T) {
	size := exr.Vec2{X: 4096, Y: 4096}
	data := headerBytes(size, exr.ZIP, exr.NewChannelDescription("R", exr.F32))
	data = append(data, make([]byte, 8*(4096/16))...)

	created := 0
	read := exr.ReadFlattened(exr.MustSelection(exr.Required("R")))
	read.Create = exr.CreateFunc[exr.Flattened[exr.Pixel]](func(info exr.ChannelsInfo) exr.Flattened[exr.Pixel] {
		created++
		return exr.CreateFlattened[exr.Pixel]()(info)
	})

	_, header, err := ReadLayer(bytes.NewReader(data), read)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot hold")
	require.NotNil(t, header)
	assert.Equal(t, 256, header.ChunkCount)
	assert.Zero(t, created, "storage must not be created")
}

func TestFile_DuplicateChunk(t *testing.T) {
	size := exr.Vec2{X: 3, Y: 3}
	var buf bytes.Buffer
	require.NoError(t, WriteLayer(&buf, testLayer(size, exr.UncompressedEncoding(), exr.F32), exr.NewImageAttributes(size)))

	data := buf.Bytes()
	r := bytes.NewReader(data)
	_, offsets, err := ReadHeader(r)
	require.NoError(t, err)
	require.Len(t, offsets, 3)
	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)

	// point the second table entry at the first chunk
	table := int(pos) - 8*len(offsets)
	binary.LittleEndian.PutUint64(data[table+8:], offsets[0])

	_, _, err = ReadLayer(bytes.NewReader(data), exr.ReadFlattened(exr.MustSelection(exr.Required("R"))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored twice")
}
