package exr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayer is returned for layers that cannot hold flat channel data (deep layers)
	ErrInvalidLayer = errors.New("exr: invalid layer")
	// ErrMissingChannel is returned when a required channel is not in the layer
	ErrMissingChannel = errors.New("exr: missing channel")
	// ErrInvalidBlock is returned when a block's byte count does not match its header
	ErrInvalidBlock = errors.New("exr: invalid block")
	// ErrTruncatedRow is returned when a row ends before a selected channel's sample
	ErrTruncatedRow = errors.New("exr: truncated row")
	// ErrInvalidSelection is returned for empty, oversized or duplicate selections
	ErrInvalidSelection = errors.New("exr: invalid channel selection")
)

// MissingChannelError names the layer and the required channel it lacks
type MissingChannelError struct {
	Layer   string
	Channel string
}

func (e *MissingChannelError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("%v: layer does not contain required channel %q", ErrMissingChannel, e.Channel)
	}
	return fmt.Sprintf("%v: layer %q does not contain required channel %q", ErrMissingChannel, e.Layer, e.Channel)
}

func (e *MissingChannelError) Unwrap() error { return ErrMissingChannel }

// InvalidBlockError reports the expected and actual byte counts of a block
type InvalidBlockError struct {
	Index    BlockIndex
	Expected int
	Actual   int
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("%v: block at %v size %v has %d bytes, header expects %d",
		ErrInvalidBlock, e.Index.PixelPosition, e.Index.PixelSize, e.Actual, e.Expected)
}

func (e *InvalidBlockError) Unwrap() error { return ErrInvalidBlock }
