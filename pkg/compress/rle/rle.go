// Package rle implements the OpenEXR RLE block compression.
package rle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jpfielding/exrchan/pkg/compress/predictor"
)

// OpenEXR RLE compression
// A non-negative count byte n repeats the following byte n+1 times,
// a negative count byte -n copies the following n bytes literally.

const (
	minRun = 3
	maxRun = 127
)

// Compress encodes one uncompressed block
func Compress(raw []byte) []byte {
	return encodeRuns(predictor.Encode(raw))
}

// Decompress decodes one block. expected is the uncompressed size; a negative
// value skips the size check.
func Decompress(data []byte, expected int) ([]byte, error) {
	tmp, err := decodeRuns(data, expected)
	if err != nil {
		return nil, err
	}
	if expected >= 0 && len(tmp) != expected {
		return nil, fmt.Errorf("rle: decoded %d bytes, expected %d", len(tmp), expected)
	}
	return predictor.Decode(tmp), nil
}

func encodeRuns(data []byte) []byte {
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		runLen := 1
		for i+runLen < len(data) && runLen < maxRun+1 && data[i+runLen] == data[i] {
			runLen++
		}
		if runLen >= minRun {
			buf.WriteByte(byte(runLen - 1))
			buf.WriteByte(data[i])
			i += runLen
			continue
		}

		// literal until the next run of minRun identical bytes
		litLen := 1
		for i+litLen < len(data) && litLen < maxRun+1 {
			j := i + litLen
			if j+2 < len(data) && data[j] == data[j+1] && data[j] == data[j+2] {
				break
			}
			litLen++
		}
		buf.WriteByte(byte(int8(-litLen)))
		buf.Write(data[i : i+litLen])
		i += litLen
	}
	return buf.Bytes()
}

func decodeRuns(data []byte, expected int) ([]byte, error) {
	var buf bytes.Buffer
	if expected > 0 {
		buf.Grow(expected)
	}

	i := 0
	for i < len(data) {
		n := int8(data[i])
		i++

		if n < 0 {
			count := -int(n)
			if i+count > len(data) {
				return nil, fmt.Errorf("rle: compressed data truncated in literal run (i=%d, count=%d, len=%d)", i, count, len(data))
			}
			buf.Write(data[i : i+count])
			i += count
		} else {
			if i >= len(data) {
				return nil, errors.New("rle: compressed data truncated in replicate run")
			}
			val := data[i]
			i++
			for k := 0; k <= int(n); k++ {
				buf.WriteByte(val)
			}
		}
		if expected >= 0 && buf.Len() > expected {
			return nil, fmt.Errorf("rle: decoded more than %d bytes", expected)
		}
	}
	return buf.Bytes(), nil
}
