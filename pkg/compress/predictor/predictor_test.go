package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterleave(t *testing.T) {
	assert.Equal(t, []byte{0, 2, 4, 1, 3}, Interleave([]byte{0, 1, 2, 3, 4}))
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, Deinterleave([]byte{0, 2, 4, 1, 3}))
	assert.Empty(t, Interleave(nil))
}

func TestDeltas(t *testing.T) {
	data := []byte{10, 12, 9, 200}
	EncodeDeltas(data)
	assert.Equal(t, []byte{10, 130, 125, 63}, data)
	DecodeDeltas(data)
	assert.Equal(t, []byte{10, 12, 9, 200}, data)
}

func TestEncode_RoundTrip(t *testing.T) {
	raw := []byte{0x00, 0x3c, 0x00, 0x40, 0x00, 0x42, 0xff}
	encoded := Encode(raw)
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0x40, 0x00, 0x42, 0xff}, raw, "input untouched")
	assert.Equal(t, raw, Decode(encoded))
}
