// Package exr selects, decodes and encodes named channels of OpenEXR style layers.
//
// Rows of an uncompressed block are channel-planar: each channel's samples for
// the whole row are contiguous, channels follow the header's channel list order,
// and samples are little-endian U32, F16 or F32.
//
// A caller picks up to four channels, each required or optional, and supplies
// the storage they are decoded into:
//
//	read := exr.ReadFlattened(exr.RGBA())
//	reader, err := read.CreateReader(header)
//	if err != nil {
//		return err // *MissingChannelError when R, G or B is absent
//	}
//	for _, block := range blocks {
//		if err := reader.ReadBlock(header, block); err != nil {
//			return err
//		}
//	}
//	pixels := reader.IntoChannels().Storage
//
// Container parsing and block compression live in other packages.
package exr
