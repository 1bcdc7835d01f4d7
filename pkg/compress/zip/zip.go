// Package zip implements the OpenEXR ZIP and ZIPS block compression.
package zip

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jpfielding/exrchan/pkg/compress/predictor"
	"github.com/klauspost/compress/zlib"
)

// OpenEXR ZIP compression: predictor preconditioning, then zlib deflate.

// Compress encodes one uncompressed block
func Compress(raw []byte) ([]byte, error) {
	tmp := predictor.Encode(raw)

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	if _, err := zw.Write(tmp); err != nil {
		return nil, fmt.Errorf("zip: deflate failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: deflate failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes one block. expected is the uncompressed size; a negative
// value skips the size check.
func Decompress(data []byte, expected int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	defer zr.Close()

	var src io.Reader = zr
	if expected >= 0 {
		src = io.LimitReader(zr, int64(expected)+1)
	}
	tmp, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("zip: inflate failed: %w", err)
	}
	if expected >= 0 && len(tmp) > expected {
		return nil, fmt.Errorf("zip: inflated more than %d bytes", expected)
	}
	if expected >= 0 && len(tmp) != expected {
		return nil, fmt.Errorf("zip: inflated %d bytes, expected %d", len(tmp), expected)
	}
	return predictor.Decode(tmp), nil
}
