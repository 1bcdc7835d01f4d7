package exr

import "fmt"

// Pixel holds one sample per selection slot, in selection order.
// Slots of absent channels and slots past the selection's arity hold NoSample.
type Pixel [MaxChannels]Sample

// NewPixel fills the leading slots with the given samples
func NewPixel(samples ...Sample) Pixel {
	var px Pixel
	copy(px[:], samples)
	return px
}

// Float32s returns the first n samples as float32, absent samples as 0
func (px Pixel) Float32s(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = px[i].Float32()
	}
	return out
}

// channelCursor walks one channel's run of samples within a row
type channelCursor struct {
	name    string
	typ     SampleType
	index   int
	present bool
}

func (c *channelCursor) span(row []byte) (start, end int, err error) {
	start = c.index
	end = start + c.typ.BytesPerSample()
	if end > len(row) {
		return 0, 0, fmt.Errorf("%w: channel %q sample at byte %d exceeds row of %d bytes",
			ErrTruncatedRow, c.name, start, len(row))
	}
	c.index = end
	return start, end, nil
}

func (c *channelCursor) read(row []byte) (Sample, error) {
	if !c.present {
		return NoSample, nil
	}
	start, end, err := c.span(row)
	if err != nil {
		return NoSample, err
	}
	return readSample(c.typ, row[start:end]), nil
}

func (c *channelCursor) write(row []byte, s Sample) error {
	if !c.present {
		return nil
	}
	start, end, err := c.span(row)
	if err != nil {
		return err
	}
	writeSample(c.typ, row[start:end], s)
	return nil
}

// PixelReader is built once per layer from the resolved selection.
// It produces a LineReader for every row.
type PixelReader struct {
	slots []ResolvedChannel
}

func newPixelReader(slots []ResolvedChannel) PixelReader {
	return PixelReader{slots: slots}
}

// Arity is the number of selection slots
func (r PixelReader) Arity() int { return len(r.slots) }

// LineReader starts a cursor at the beginning of a row of width pixels
func (r PixelReader) LineReader(width int) LineReader {
	return LineReader{lineCursors(r.slots, width)}
}

// LineWriter starts an encoding cursor at the beginning of a row of width pixels
func (r PixelReader) LineWriter(width int) LineWriter {
	return LineWriter{lineCursors(r.slots, width)}
}

func lineCursors(slots []ResolvedChannel, width int) lineState {
	var ls lineState
	ls.n = len(slots)
	for i, rc := range slots {
		if !rc.Present {
			continue
		}
		ls.cursors[i] = channelCursor{
			name:    rc.Channel.Name,
			typ:     rc.Channel.SampleType,
			index:   rc.RowByteOffset(width),
			present: true,
		}
	}
	return ls
}

type lineState struct {
	cursors [MaxChannels]channelCursor
	n       int
}

// LineReader decodes the pixels of one row from left to right.
// It is a value type; copying it forks the cursor position.
type LineReader struct {
	lineState
}

// ReadPixel decodes the next pixel of the row
func (l *LineReader) ReadPixel(row []byte) (Pixel, error) {
	var px Pixel
	for i := 0; i < l.n; i++ {
		s, err := l.cursors[i].read(row)
		if err != nil {
			return Pixel{}, err
		}
		px[i] = s
	}
	return px, nil
}

// LineWriter encodes the pixels of one row from left to right
type LineWriter struct {
	lineState
}

// WritePixel encodes px at the next column of the row
func (l *LineWriter) WritePixel(row []byte, px Pixel) error {
	for i := 0; i < l.n; i++ {
		if err := l.cursors[i].write(row, px[i]); err != nil {
			return err
		}
	}
	return nil
}
