package exr

import (
	"fmt"
	"sort"
	"strings"
)

// Vec2 is a pair of pixel coordinates or a width/height
type Vec2 struct {
	X, Y int
}

func (v Vec2) Width() int  { return v.X }
func (v Vec2) Height() int { return v.Y }
func (v Vec2) Area() int   { return v.X * v.Y }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// FlatIndexForSize returns the row-major index of v within an image of the given size.
// Panics when v lies outside size.
func (v Vec2) FlatIndexForSize(size Vec2) int {
	if v.X < 0 || v.Y < 0 || v.X >= size.X || v.Y >= size.Y {
		panic(fmt.Sprintf("exr: position %v out of bounds for size %v", v, size))
	}
	return v.Y*size.X + v.X
}

func (v Vec2) String() string { return fmt.Sprintf("(%d,%d)", v.X, v.Y) }

// ChannelDescription is one entry of a layer's channel list
type ChannelDescription struct {
	Name       string
	SampleType SampleType
	// QuantizeLinearly is the OpenEXR pLinear hint; it has no effect on decoding.
	QuantizeLinearly bool
	// Sampling must be (1,1); subsampled channels are not supported.
	Sampling Vec2
}

// NewChannelDescription creates a full resolution channel
func NewChannelDescription(name string, t SampleType) ChannelDescription {
	return ChannelDescription{Name: name, SampleType: t, Sampling: Vec2{1, 1}}
}

// ChannelList is the ordered channel list of a layer. The order defines
// the byte layout of every row in every block.
type ChannelList struct {
	List []ChannelDescription
}

// NewChannelList keeps the given order
func NewChannelList(list ...ChannelDescription) ChannelList {
	return ChannelList{List: list}
}

// BytesPerPixel is the size of one pixel across all channels
func (cl ChannelList) BytesPerPixel() int {
	bpp := 0
	for _, c := range cl.List {
		bpp += c.SampleType.BytesPerSample()
	}
	return bpp
}

// SortedChannelList orders channels by name, as OpenEXR files store them
func SortedChannelList(list ...ChannelDescription) ChannelList {
	sorted := make([]ChannelDescription, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return NewChannelList(sorted...)
}

// Len returns the number of channels
func (cl ChannelList) Len() int { return len(cl.List) }

// Find returns the index of the first channel with the given name, or -1
func (cl ChannelList) Find(name string) int {
	for i, c := range cl.List {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the channel names in list order
func (cl ChannelList) Names() []string {
	names := make([]string, len(cl.List))
	for i, c := range cl.List {
		names[i] = c.Name
	}
	return names
}

// Validate rejects empty or duplicate names, unknown sample types and subsampling
func (cl ChannelList) Validate() error {
	seen := make(map[string]struct{}, len(cl.List))
	for _, c := range cl.List {
		if c.Name == "" {
			return fmt.Errorf("channel list contains an unnamed channel")
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("duplicate channel %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if !c.SampleType.Valid() {
			return fmt.Errorf("channel %q: unsupported sample type %v", c.Name, c.SampleType)
		}
		if c.Sampling != (Vec2{1, 1}) && c.Sampling != (Vec2{}) {
			return fmt.Errorf("channel %q: subsampling %v not supported", c.Name, c.Sampling)
		}
	}
	return nil
}

func (cl ChannelList) String() string {
	parts := make([]string, len(cl.List))
	for i, c := range cl.List {
		parts[i] = c.Name + ":" + c.SampleType.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
