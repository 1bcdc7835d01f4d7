package exr

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// SampleType is the numeric encoding of one channel sample.
// Values match the OpenEXR pixel type codes.
type SampleType uint8

const (
	U32 SampleType = 0 // 32-bit unsigned integer
	F16 SampleType = 1 // IEEE 754 half precision
	F32 SampleType = 2 // IEEE 754 single precision
)

// BytesPerSample returns the encoded size of one sample
func (t SampleType) BytesPerSample() int {
	switch t {
	case F16:
		return 2
	case F32, U32:
		return 4
	}
	return 0
}

// Valid reports whether t is one of the three supported encodings
func (t SampleType) Valid() bool {
	return t == U32 || t == F16 || t == F32
}

func (t SampleType) String() string {
	switch t {
	case U32:
		return "u32"
	case F16:
		return "f16"
	case F32:
		return "f32"
	}
	return fmt.Sprintf("SampleType(%d)", uint8(t))
}

// ParseSampleType accepts the short names used by String as well as the
// OpenEXR spellings (half, float, uint).
func ParseSampleType(s string) (SampleType, error) {
	switch s {
	case "f16", "half":
		return F16, nil
	case "f32", "float":
		return F32, nil
	case "u32", "uint":
		return U32, nil
	}
	return 0, fmt.Errorf("unknown sample type %q", s)
}

// Sample is one decoded channel value. The zero Sample carries no value and
// is what absent channels produce.
type Sample struct {
	typ     SampleType
	bits    uint32
	present bool
}

// NoSample is the "no value" sample
var NoSample = Sample{}

func F16Sample(v float16.Float16) Sample { return Sample{typ: F16, bits: uint32(v.Bits()), present: true} }
func F32Sample(v float32) Sample         { return Sample{typ: F32, bits: math.Float32bits(v), present: true} }
func U32Sample(v uint32) Sample          { return Sample{typ: U32, bits: v, present: true} }

// SampleFromFloat32 builds a sample of type t holding v.
// Negative and NaN values saturate to zero for U32.
func SampleFromFloat32(t SampleType, v float32) Sample {
	switch t {
	case F16:
		return F16Sample(float16.Fromfloat32(v))
	case U32:
		return U32Sample(float32ToUint32(v))
	default:
		return F32Sample(v)
	}
}

func (s Sample) Type() SampleType { return s.typ }
func (s Sample) IsPresent() bool  { return s.present }

// Float32 returns the value widened or converted to float32; 0 when absent.
func (s Sample) Float32() float32 {
	if !s.present {
		return 0
	}
	switch s.typ {
	case F16:
		return float16.Frombits(uint16(s.bits)).Float32()
	case U32:
		return float32(s.bits)
	default:
		return math.Float32frombits(s.bits)
	}
}

// Float16 returns the value as a half float; 0 when absent.
func (s Sample) Float16() float16.Float16 {
	if s.typ == F16 && s.present {
		return float16.Frombits(uint16(s.bits))
	}
	return float16.Fromfloat32(s.Float32())
}

// Uint32 returns the value as an unsigned integer; floats are truncated and
// saturated.
func (s Sample) Uint32() uint32 {
	if !s.present {
		return 0
	}
	if s.typ == U32 {
		return s.bits
	}
	return float32ToUint32(s.Float32())
}

// Convert re-encodes the sample as t. Absent samples stay absent.
func (s Sample) Convert(t SampleType) Sample {
	if !s.present || s.typ == t {
		return s
	}
	if t == U32 {
		return U32Sample(s.Uint32())
	}
	if s.typ == U32 {
		return SampleFromFloat32(t, float32(s.bits))
	}
	return SampleFromFloat32(t, s.Float32())
}

// IsNaN reports whether a float sample holds NaN
func (s Sample) IsNaN() bool {
	if !s.present {
		return false
	}
	switch s.typ {
	case F16:
		return float16.Frombits(uint16(s.bits)).IsNaN()
	case F32:
		return math.IsNaN(float64(math.Float32frombits(s.bits)))
	}
	return false
}

func (s Sample) String() string {
	if !s.present {
		return "none"
	}
	if s.typ == U32 {
		return fmt.Sprintf("%d", s.bits)
	}
	return fmt.Sprintf("%g", s.Float32())
}

func float32ToUint32(v float32) uint32 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

// readSample decodes one little-endian sample of type t from the front of b.
// The caller guarantees len(b) >= t.BytesPerSample().
func readSample(t SampleType, b []byte) Sample {
	switch t {
	case F16:
		return Sample{typ: F16, bits: uint32(binary.LittleEndian.Uint16(b)), present: true}
	default:
		return Sample{typ: t, bits: binary.LittleEndian.Uint32(b), present: true}
	}
}

// writeSample encodes s, converted to t, at the front of b.
// A missing value encodes as zero.
func writeSample(t SampleType, b []byte, s Sample) {
	s = s.Convert(t)
	switch t {
	case F16:
		binary.LittleEndian.PutUint16(b, uint16(s.bits))
	default:
		binary.LittleEndian.PutUint32(b, s.bits)
	}
}
