package predictor

// Byte preconditioning shared by the OpenEXR RLE and ZIP compressors.
// Even-indexed bytes go to the first half, odd-indexed bytes to the second,
// then every byte is replaced by its difference to the previous one plus 128.

// Encode returns the interleaved, delta coded copy of raw
func Encode(raw []byte) []byte {
	tmp := Interleave(raw)
	EncodeDeltas(tmp)
	return tmp
}

// Decode reverses Encode in place and returns the restored bytes
func Decode(data []byte) []byte {
	DecodeDeltas(data)
	return Deinterleave(data)
}

// Interleave moves even-indexed bytes to the first half and odd-indexed bytes to the second
func Interleave(raw []byte) []byte {
	out := make([]byte, len(raw))
	half := (len(raw) + 1) / 2
	for i, b := range raw {
		if i%2 == 0 {
			out[i/2] = b
		} else {
			out[half+i/2] = b
		}
	}
	return out
}

func Deinterleave(data []byte) []byte {
	out := make([]byte, len(data))
	half := (len(data) + 1) / 2
	for i := range out {
		if i%2 == 0 {
			out[i] = data[i/2]
		} else {
			out[i] = data[half+i/2]
		}
	}
	return out
}

func EncodeDeltas(data []byte) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] = byte(int(data[i]) - int(data[i-1]) + 128)
	}
}

func DecodeDeltas(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}
