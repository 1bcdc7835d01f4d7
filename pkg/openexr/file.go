// Package openexr reads and writes single part scanline OpenEXR files around the exr core.
package openexr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/jpfielding/exrchan/pkg/compress/rle"
	"github.com/jpfielding/exrchan/pkg/compress/zip"
	"github.com/jpfielding/exrchan/pkg/exr"
)

// Magic is the first four bytes of every OpenEXR file
const Magic = 20000630

const (
	versionNumber  = 2
	flagTiled      = 0x200
	flagLongNames  = 0x400
	flagNonImage   = 0x800
	flagMultiPart  = 0x1000
	maxShortName   = 31
	maxHeaderBytes = 1 << 24
	offsetBatch    = 4096
)

// MaxLayerPixels bounds the data window area accepted by ReadHeader
var MaxLayerPixels = 1 << 26

// ErrUnsupported is returned for files or layers this package cannot store
var ErrUnsupported = errors.New("openexr: unsupported")

// ReadHeader reads the header and chunk offset table of a single part scanline file.
// Deep files return a header with Deep set and no offsets.
func ReadHeader(r io.Reader) (*exr.Header, []uint64, error) {
	var prefix [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &prefix); err != nil {
		return nil, nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if prefix[0] != Magic {
		return nil, nil, errors.New("not an OpenEXR file")
	}
	version := prefix[1]
	if version&0xff != versionNumber {
		return nil, nil, fmt.Errorf("%w: version %d", ErrUnsupported, version&0xff)
	}
	if version&flagMultiPart != 0 {
		return nil, nil, fmt.Errorf("%w: multi-part file", ErrUnsupported)
	}
	if version&flagTiled != 0 {
		return nil, nil, fmt.Errorf("%w: tiled file", ErrUnsupported)
	}

	header := &exr.Header{
		SharedAttributes: exr.ImageAttributes{PixelAspect: 1},
		OwnAttributes:    exr.LayerAttributes{ScreenWindowWidth: 1},
		Deep:             version&flagNonImage != 0,
	}
	var dataWindow exr.IntegerBounds
	var hasChannels, hasDataWindow bool

	br := bytes.NewReader(nil)
	total := 0
	for {
		name, err := readNullStringFrom(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read attribute name: %w", err)
		}
		if name == "" {
			break
		}
		typ, err := readNullStringFrom(r)
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		size, err := readI32(r)
		if err != nil {
			return nil, nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		total += int(size)
		if size < 0 || total > maxHeaderBytes {
			return nil, nil, fmt.Errorf("attribute %q: invalid size %d", name, size)
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		br.Reset(payload)

		switch {
		case name == "channels" && typ == "chlist":
			if header.Channels, err = parseChannels(payload); err != nil {
				return nil, nil, fmt.Errorf("channels: %w", err)
			}
			hasChannels = true
		case name == "compression" && typ == "compression":
			if len(payload) != 1 {
				return nil, nil, errors.New("invalid compression attribute")
			}
			header.Compression = exr.Compression(payload[0])
		case name == "lineOrder" && typ == "lineOrder":
			if len(payload) != 1 {
				return nil, nil, errors.New("invalid lineOrder attribute")
			}
			header.LineOrder = exr.LineOrder(payload[0])
		case name == "dataWindow" && typ == "box2i":
			if dataWindow, err = parseBox2i(payload); err != nil {
				return nil, nil, fmt.Errorf("dataWindow: %w", err)
			}
			hasDataWindow = true
		case name == "displayWindow" && typ == "box2i":
			if header.SharedAttributes.DisplayWindow, err = parseBox2i(payload); err != nil {
				return nil, nil, fmt.Errorf("displayWindow: %w", err)
			}
		case name == "pixelAspectRatio" && typ == "float":
			if header.SharedAttributes.PixelAspect, err = parseFloat(payload); err != nil {
				return nil, nil, fmt.Errorf("pixelAspectRatio: %w", err)
			}
		case name == "screenWindowWidth" && typ == "float":
			if header.OwnAttributes.ScreenWindowWidth, err = parseFloat(payload); err != nil {
				return nil, nil, fmt.Errorf("screenWindowWidth: %w", err)
			}
		case name == "screenWindowCenter" && typ == "v2f":
			if err := binary.Read(br, binary.LittleEndian, &header.OwnAttributes.ScreenWindowCenter); err != nil {
				return nil, nil, fmt.Errorf("screenWindowCenter: %w", err)
			}
		case name == "name" && typ == "string":
			header.OwnAttributes.LayerName = string(payload)
		case typ == "string":
			if header.OwnAttributes.Other == nil {
				header.OwnAttributes.Other = map[string]string{}
			}
			header.OwnAttributes.Other[name] = string(payload)
		default:
			slog.Debug("skipping attribute", "name", name, "type", typ, "size", size)
		}
	}

	if !hasChannels {
		return nil, nil, errors.New("OpenEXR header missing channels")
	}
	if !hasDataWindow {
		return nil, nil, errors.New("OpenEXR header missing dataWindow")
	}
	if dataWindow.Size.X <= 0 || dataWindow.Size.Y <= 0 {
		return nil, nil, fmt.Errorf("invalid data window size %v", dataWindow.Size)
	}
	if area := dataWindow.Size.Area(); area > MaxLayerPixels {
		return nil, nil, fmt.Errorf("%w: data window %v has %d pixels, limit %d",
			ErrUnsupported, dataWindow.Size, area, MaxLayerPixels)
	}
	header.LayerSize = dataWindow.Size
	header.OwnAttributes.LayerPosition = dataWindow.Position
	if header.Deep {
		return header, nil, nil
	}
	if err := header.Channels.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	lines := header.Compression.ScanLinesPerBlock()
	header.ChunkCount = (header.LayerSize.Y + lines - 1) / lines
	offsets, err := readOffsets(r, header.ChunkCount)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read offset table: %w", err)
	}
	return header, offsets, nil
}

// readOffsets grows the table only as entries actually arrive
func readOffsets(r io.Reader, count int) ([]uint64, error) {
	offsets := make([]uint64, 0, min(count, offsetBatch))
	var batch [offsetBatch]uint64
	for len(offsets) < count {
		n := min(count-len(offsets), offsetBatch)
		if err := binary.Read(r, binary.LittleEndian, batch[:n]); err != nil {
			return nil, err
		}
		offsets = append(offsets, batch[:n]...)
	}
	return offsets, nil
}

func readNullStringFrom(r io.Reader) (string, error) {
	var buf []byte
	var b [1]byte
	for len(buf) <= 255 {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
	return "", errors.New("string exceeds 255 bytes")
}

// ReadLayer decodes the selected channels of a single part scanline file
func ReadLayer[S any](r io.ReadSeeker, read exr.ReadSpecificChannels[S]) (exr.SpecificChannels[S], *exr.Header, error) {
	var none exr.SpecificChannels[S]
	header, offsets, err := ReadHeader(r)
	if err != nil {
		return none, nil, err
	}
	if !header.Deep {
		if err := checkCompression(header.Compression); err != nil {
			return none, header, err
		}
		if err := checkDataSize(r, header); err != nil {
			return none, header, err
		}
	}
	reader, err := read.CreateReader(header)
	if err != nil {
		return none, header, err
	}

	lines := header.Compression.ScanLinesPerBlock()
	origin := header.OwnAttributes.LayerPosition
	seen := make([]bool, len(offsets))
	for i, offset := range offsets {
		if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
			return none, header, fmt.Errorf("chunk %d: %w", i, err)
		}
		y, err := readI32(r)
		if err != nil {
			return none, header, fmt.Errorf("chunk %d: %w", i, err)
		}
		size, err := readI32(r)
		if err != nil {
			return none, header, fmt.Errorf("chunk %d: %w", i, err)
		}

		startY := int(y) - origin.Y
		if startY < 0 || startY >= header.LayerSize.Y || startY%lines != 0 {
			return none, header, fmt.Errorf("chunk %d: scanline %d out of bounds", i, y)
		}
		if seen[startY/lines] {
			return none, header, fmt.Errorf("chunk %d: scanline %d stored twice", i, y)
		}
		seen[startY/lines] = true
		index := exr.BlockIndex{
			PixelPosition: exr.Vec2{Y: startY},
			PixelSize:     exr.Vec2{X: header.LayerSize.X, Y: min(lines, header.LayerSize.Y-startY)},
		}
		expected := exr.ExpectedBytes(header.Channels, index.PixelSize)
		if size < 0 || int(size) > max(expected, 64)*2 {
			return none, header, fmt.Errorf("chunk %d: invalid size %d", i, size)
		}

		raw := make([]byte, size)
		if _, err := io.ReadFull(r, raw); err != nil {
			return none, header, fmt.Errorf("chunk %d: %w", i, err)
		}
		data, err := decompress(header.Compression, raw, expected)
		if err != nil {
			return none, header, fmt.Errorf("chunk %d: %w", i, err)
		}

		tile := exr.TileCoordinates{TileIndex: exr.Vec2{Y: startY / lines}}
		if !reader.FilterBlock(tile) {
			continue
		}
		if err := reader.ReadBlock(header, exr.UncompressedBlock{Index: index, Data: data}); err != nil {
			return none, header, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	slog.Debug("read layer", "layer", header.LayerName(), "size", header.LayerSize.String(), "chunks", len(offsets))
	return reader.IntoChannels(), header, nil
}

// WriteLayer writes one layer as a single part scanline file
func WriteLayer[C exr.WritableChannels](w io.Writer, layer exr.Layer[C], image exr.ImageAttributes) error {
	header := layer.InferHeader(image)
	if header.Blocks.HasTiles() {
		return fmt.Errorf("%w: tiled layers", ErrUnsupported)
	}
	if err := checkCompression(header.Compression); err != nil {
		return err
	}
	if err := header.Channels.Validate(); err != nil {
		return err
	}
	if header.LayerSize.Area() <= 0 {
		return fmt.Errorf("invalid layer size %v", header.LayerSize)
	}

	headers := []exr.Header{header}
	writer, err := exr.Layers[C]{layer}.CreateWriter(headers)
	if err != nil {
		return err
	}

	indices := header.BlockIndices(0)
	chunks := make([][]byte, len(indices))
	for i, index := range indices {
		data, err := writer.ExtractUncompressedBlock(headers, index)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if chunks[i], err = compress(header.Compression, data); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	head := encodeHeader(&header)
	order := make([]int, len(indices))
	for i := range order {
		order[i] = i
		if header.LineOrder == exr.DecreasingY {
			order[i] = len(indices) - 1 - i
		}
	}

	offsets := make([]uint64, len(indices))
	next := uint64(len(head) + 8*len(indices))
	for _, i := range order {
		offsets[i] = next
		next += uint64(8 + len(chunks[i]))
	}

	var out bytes.Buffer
	out.Write(head)
	for _, o := range offsets {
		out.Write(binary.LittleEndian.AppendUint64(nil, o))
	}
	origin := header.OwnAttributes.LayerPosition
	for _, i := range order {
		out.Write(appendI32(nil, origin.Y+indices[i].PixelPosition.Y))
		out.Write(appendI32(nil, len(chunks[i])))
		out.Write(chunks[i])
	}
	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	slog.Debug("wrote layer", "layer", header.LayerName(), "size", header.LayerSize.String(), "bytes", out.Len())
	return nil
}

func encodeHeader(h *exr.Header) []byte {
	version := uint32(versionNumber)
	for _, c := range h.Channels.List {
		if len(c.Name) > maxShortName {
			version |= flagLongNames
		}
	}

	var aw attributeWriter
	aw.channels(h.Channels)
	aw.attribute("compression", "compression", []byte{byte(h.Compression)})
	aw.box2i("dataWindow", exr.IntegerBounds{Position: h.OwnAttributes.LayerPosition, Size: h.LayerSize})
	display := h.SharedAttributes.DisplayWindow
	if display.Size.Area() <= 0 {
		display = exr.IntegerBounds{Size: h.LayerSize}
	}
	aw.box2i("displayWindow", display)
	aw.attribute("lineOrder", "lineOrder", []byte{byte(h.LineOrder)})
	aw.float("pixelAspectRatio", h.SharedAttributes.PixelAspect)
	aw.v2f("screenWindowCenter", h.OwnAttributes.ScreenWindowCenter)
	aw.float("screenWindowWidth", h.OwnAttributes.ScreenWindowWidth)
	if h.OwnAttributes.LayerName != "" {
		aw.str("name", h.OwnAttributes.LayerName)
	}
	text := h.TextAttributes()
	for _, k := range slices.Sorted(maps.Keys(text)) {
		if k != "name" {
			aw.str(k, text[k])
		}
	}
	aw.buf.WriteByte(0)

	out := binary.LittleEndian.AppendUint32(nil, Magic)
	out = binary.LittleEndian.AppendUint32(out, version)
	return append(out, aw.buf.Bytes()...)
}

// checkDataSize rejects layers whose pixels cannot fit in the chunk bytes that
// follow the offset table, before any storage is allocated.
func checkDataSize(r io.Seeker, header *exr.Header) error {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	need := int64(exr.ExpectedBytes(header.Channels, header.LayerSize))
	if have := end - pos; need > have*maxInflation(header.Compression) {
		return fmt.Errorf("%d bytes of chunk data cannot hold a %v layer of %d bytes", have, header.LayerSize, need)
	}
	return nil
}

// maxInflation is the largest raw to stored size ratio a compression reaches
func maxInflation(c exr.Compression) int64 {
	switch c {
	case exr.RLE:
		return 64
	case exr.ZIPS, exr.ZIP:
		return 1032
	}
	return 1
}

func checkCompression(c exr.Compression) error {
	switch c {
	case exr.Uncompressed, exr.RLE, exr.ZIPS, exr.ZIP:
		return nil
	}
	return fmt.Errorf("%w: %v compression", ErrUnsupported, c)
}

func compress(c exr.Compression, raw []byte) ([]byte, error) {
	var packed []byte
	switch c {
	case exr.Uncompressed:
		return raw, nil
	case exr.RLE:
		packed = rle.Compress(raw)
	default:
		var err error
		if packed, err = zip.Compress(raw); err != nil {
			return nil, err
		}
	}
	if len(packed) >= len(raw) {
		// stored raw; readers detect this by the size
		return raw, nil
	}
	return packed, nil
}

func decompress(c exr.Compression, data []byte, expected int) ([]byte, error) {
	if c == exr.Uncompressed || len(data) == expected {
		return data, nil
	}
	if c == exr.RLE {
		return rle.Decompress(data, expected)
	}
	return zip.Decompress(data, expected)
}
