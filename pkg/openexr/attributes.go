package openexr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/jpfielding/exrchan/pkg/exr"
)

// attributeWriter appends OpenEXR header attributes: name, type, size, value
type attributeWriter struct {
	buf bytes.Buffer
}

func (w *attributeWriter) attribute(name, typ string, value []byte) {
	w.buf.WriteString(name)
	w.buf.WriteByte(0)
	w.buf.WriteString(typ)
	w.buf.WriteByte(0)
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(value))))
	w.buf.Write(value)
}

func (w *attributeWriter) box2i(name string, b exr.IntegerBounds) {
	var v []byte
	v = appendI32(v, b.Position.X)
	v = appendI32(v, b.Position.Y)
	v = appendI32(v, b.Position.X+b.Size.X-1)
	v = appendI32(v, b.Position.Y+b.Size.Y-1)
	w.attribute(name, "box2i", v)
}

func (w *attributeWriter) float(name string, f float32) {
	w.attribute(name, "float", binary.LittleEndian.AppendUint32(nil, math.Float32bits(f)))
}

func (w *attributeWriter) v2f(name string, f [2]float32) {
	v := binary.LittleEndian.AppendUint32(nil, math.Float32bits(f[0]))
	w.attribute(name, "v2f", binary.LittleEndian.AppendUint32(v, math.Float32bits(f[1])))
}

func (w *attributeWriter) str(name, s string) {
	w.attribute(name, "string", []byte(s))
}

func (w *attributeWriter) channels(list exr.ChannelList) {
	var v []byte
	for _, c := range list.List {
		v = append(v, c.Name...)
		v = append(v, 0)
		v = appendI32(v, int(c.SampleType))
		if c.QuantizeLinearly {
			v = append(v, 1, 0, 0, 0)
		} else {
			v = append(v, 0, 0, 0, 0)
		}
		v = appendI32(v, 1)
		v = appendI32(v, 1)
	}
	w.attribute("channels", "chlist", append(v, 0))
}

func appendI32(b []byte, v int) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(int32(v)))
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

func readI32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func parseChannels(payload []byte) (exr.ChannelList, error) {
	r := bytes.NewReader(payload)
	var list []exr.ChannelDescription
	for {
		name, err := readNullString(r)
		if err != nil {
			return exr.ChannelList{}, err
		}
		if name == "" {
			break
		}
		var raw struct {
			PixelType int32
			PLinear   uint8
			Reserved  [3]uint8
			XSampling int32
			YSampling int32
		}
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return exr.ChannelList{}, fmt.Errorf("channel %q: %w", name, err)
		}
		typ := exr.SampleType(raw.PixelType)
		if raw.PixelType < 0 || !typ.Valid() {
			return exr.ChannelList{}, fmt.Errorf("channel %q: unsupported pixel type %d", name, raw.PixelType)
		}
		list = append(list, exr.ChannelDescription{
			Name:             name,
			SampleType:       typ,
			QuantizeLinearly: raw.PLinear != 0,
			Sampling:         exr.Vec2{X: int(raw.XSampling), Y: int(raw.YSampling)},
		})
	}
	return exr.NewChannelList(list...), nil
}

func parseBox2i(payload []byte) (exr.IntegerBounds, error) {
	if len(payload) != 16 {
		return exr.IntegerBounds{}, fmt.Errorf("box2i has %d bytes", len(payload))
	}
	v := func(i int) int { return int(int32(binary.LittleEndian.Uint32(payload[i*4:]))) }
	return exr.IntegerBounds{
		Position: exr.Vec2{X: v(0), Y: v(1)},
		Size:     exr.Vec2{X: v(2) - v(0) + 1, Y: v(3) - v(1) + 1},
	}, nil
}

func parseFloat(payload []byte) (float32, error) {
	if len(payload) != 4 {
		return 0, fmt.Errorf("float has %d bytes", len(payload))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(payload)), nil
}
