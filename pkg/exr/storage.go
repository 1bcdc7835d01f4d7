package exr

import "fmt"

// PixelStorageFactory allocates the caller's storage for one layer.
// It is called once per layer before any block of the layer is decoded.
type PixelStorageFactory[S any] interface {
	Create(info ChannelsInfo) S
}

// PixelSink stores one decoded pixel. Positions are within the layer resolution.
type PixelSink[S any] interface {
	SetPixel(storage *S, position Vec2, pixel Pixel)
}

// PixelSource provides one pixel to encode
type PixelSource[S any] interface {
	GetPixel(storage *S, position Vec2) Pixel
}

// CreateFunc adapts a function to PixelStorageFactory
type CreateFunc[S any] func(info ChannelsInfo) S

func (f CreateFunc[S]) Create(info ChannelsInfo) S { return f(info) }

// SetPixelFunc adapts a function to PixelSink
type SetPixelFunc[S any] func(storage *S, position Vec2, pixel Pixel)

func (f SetPixelFunc[S]) SetPixel(storage *S, position Vec2, pixel Pixel) { f(storage, position, pixel) }

// GetPixelFunc adapts a function to PixelSource
type GetPixelFunc[S any] func(storage *S, position Vec2) Pixel

func (f GetPixelFunc[S]) GetPixel(storage *S, position Vec2) Pixel { return f(storage, position) }

// Flattened stores all pixels of a layer row by row in one slice
type Flattened[T any] struct {
	Size    Vec2
	Samples []T
}

// NewFlattened wraps samples, which must hold exactly size.Area() pixels
func NewFlattened[T any](size Vec2, samples []T) Flattened[T] {
	if size.Area() != len(samples) {
		panic(fmt.Sprintf("exr: expected %d samples, but slice length is %d", size.Area(), len(samples)))
	}
	return Flattened[T]{Size: size, Samples: samples}
}

// PixelIndex is the index of position in Samples. Panics outside the image.
func (f *Flattened[T]) PixelIndex(position Vec2) int {
	return position.FlatIndexForSize(f.Size)
}

// At returns the pixel at position
func (f *Flattened[T]) At(position Vec2) T {
	return f.Samples[f.PixelIndex(position)]
}

// Set replaces the pixel at position
func (f *Flattened[T]) Set(position Vec2, pixel T) {
	f.Samples[f.PixelIndex(position)] = pixel
}

// CreateFlattened is a PixelStorageFactory for zeroed Flattened storage
func CreateFlattened[T any]() CreateFunc[Flattened[T]] {
	return func(info ChannelsInfo) Flattened[T] {
		return NewFlattened(info.Resolution, make([]T, info.Resolution.Area()))
	}
}

// SetFlattenedPixel is a PixelSink for Flattened[Pixel]
func SetFlattenedPixel() SetPixelFunc[Flattened[Pixel]] {
	return func(storage *Flattened[Pixel], position Vec2, pixel Pixel) {
		storage.Set(position, pixel)
	}
}

// GetFlattenedPixel is a PixelSource for Flattened[Pixel]
func GetFlattenedPixel() GetPixelFunc[Flattened[Pixel]] {
	return func(storage *Flattened[Pixel], position Vec2) Pixel {
		return storage.At(position)
	}
}

// ContainsNaN reports whether any sample of any pixel is NaN
func ContainsNaN(f Flattened[Pixel]) bool {
	for _, px := range f.Samples {
		for _, s := range px {
			if s.IsNaN() {
				return true
			}
		}
	}
	return false
}
