package exr

// ResolvedChannel is a selection slot matched against a channel list.
// Absent optional slots have Present == false and nothing else set.
type ResolvedChannel struct {
	Present bool
	Channel ChannelDescription
	// ByteOffset is the per-pixel size of all channels before this one in the list
	ByteOffset int
	// Index is the position of the channel in the list
	Index int
}

// RowByteOffset is where this channel's samples begin in a row of width pixels
func (rc ResolvedChannel) RowByteOffset(width int) int { return rc.ByteOffset * width }

// SampleType returns the channel's encoding and whether the slot is present
func (rc ResolvedChannel) SampleType() (SampleType, bool) {
	return rc.Channel.SampleType, rc.Present
}

// ChannelsInfo summarizes a resolved selection for a storage factory.
// It does not contain pixel data.
type ChannelsInfo struct {
	SampleTypes []ResolvedChannel
	Resolution  Vec2
}

// Resolve matches each requested name against the channel list in a single pass.
// When a name occurs more than once in the list the first occurrence wins.
// A required request without a match fails with a *MissingChannelError.
func Resolve(sel Selection, channels ChannelList) ([]ResolvedChannel, PixelReader, error) {
	resolved := make([]ResolvedChannel, sel.Len())
	offset := 0
	for index, ch := range channels.List {
		for slot, req := range sel.requests {
			if !resolved[slot].Present && req.Name == ch.Name {
				resolved[slot] = ResolvedChannel{
					Present:    true,
					Channel:    ch,
					ByteOffset: offset,
					Index:      index,
				}
				break
			}
		}
		offset += ch.SampleType.BytesPerSample()
	}

	for slot, req := range sel.requests {
		if req.Required && !resolved[slot].Present {
			return nil, PixelReader{}, &MissingChannelError{Channel: req.Name}
		}
	}
	return resolved, newPixelReader(resolved), nil
}
