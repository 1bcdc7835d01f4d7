package rle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Single", []byte{0xAA}},
		{"Run2", []byte{0xAA, 0xAA}},
		{"Run3", []byte{0xAA, 0xAA, 0xAA}},
		{"Literal", []byte{0x01, 0x02, 0x03}},
		{"Mixed", []byte{0xAA, 0xAA, 0xAA, 0x01, 0x02, 0xBB, 0xBB}},
		{"LongRun", makeBytes(0xCC, 130)},
		{"LongLiteral", makeSequence(0, 130)},
		{"MaxRun", makeBytes(0xAA, 128)},
		{"MaxRunPlus1", makeBytes(0xAA, 129)},
		{"MaxLiteral", makeSequence(0, 128)},
		{"MaxLiteralPlus1", makeSequence(0, 129)},
		{"Alternating", []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeRuns(tt.data)
			decoded, err := decodeRuns(encoded, -1)
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(decoded))
			if len(tt.data) > 0 {
				assert.Equal(t, tt.data, decoded)
			}
		})
	}
}

func TestRunsEncoding(t *testing.T) {
	// a run of 4 then a literal of 2
	assert.Equal(t, []byte{3, 0x07, 0xFE, 0x01, 0x02}, encodeRuns([]byte{7, 7, 7, 7, 1, 2}))
}

func TestDecodeRuns_Truncated(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		errString string
	}{
		{
			name:      "TruncatedLiteral",
			input:     []byte{0xFD, 0x01}, // literal of 3, 1 byte provided
			errString: "rle: compressed data truncated in literal run",
		},
		{
			name:      "TruncatedReplicate",
			input:     []byte{0x02},
			errString: "rle: compressed data truncated in replicate run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRuns(tt.input, -1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestRLE_RoundTrip(t *testing.T) {
	// two half float rows with flat and ramped regions
	raw := make([]byte, 0, 400)
	for i := 0; i < 100; i++ {
		raw = append(raw, 0x00, 0x3c)
	}
	for i := 0; i < 100; i++ {
		raw = append(raw, byte(i), 0x3c)
	}

	compressed := Compress(raw)
	assert.Less(t, len(compressed), len(raw))

	decoded, err := Decompress(compressed, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = Decompress(compressed, len(raw)-1)
	assert.Error(t, err)
}

func makeBytes(val byte, n int) []byte {
	res := make([]byte, n)
	for i := range res {
		res[i] = val
	}
	return res
}

func makeSequence(start byte, n int) []byte {
	res := make([]byte, n)
	val := start
	for i := range res {
		res[i] = val
		val++
	}
	return res
}
