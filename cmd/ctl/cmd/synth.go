package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpfielding/exrchan/pkg/exr"
	"github.com/jpfielding/exrchan/pkg/openexr"
	"github.com/spf13/cobra"
)

type synthLayer = exr.Layer[*exr.WriteSpecificChannels[exr.Flattened[exr.Pixel]]]

// gradientLayer ramps R along x, G along y and B along the diagonal.
// Alpha, when requested, is opaque.
func gradientLayer(size exr.Vec2, typ exr.SampleType, alpha bool, name string, encoding exr.Encoding) synthLayer {
	samples := make([]exr.Pixel, size.Area())
	scale := float32(1)
	if typ == exr.U32 {
		scale = 255
	}
	fx := float32(max(size.X-1, 1))
	fy := float32(max(size.Y-1, 1))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			r := float32(x) / fx
			g := float32(y) / fy
			px := exr.NewPixel(
				exr.SampleFromFloat32(typ, r*scale),
				exr.SampleFromFloat32(typ, g*scale),
				exr.SampleFromFloat32(typ, (r+g)/2*scale),
			)
			if alpha {
				px[3] = exr.SampleFromFloat32(typ, scale)
			}
			samples[exr.Vec2{X: x, Y: y}.FlatIndexForSize(size)] = px
		}
	}

	descs := []exr.ChannelDescription{
		exr.NewChannelDescription("R", typ),
		exr.NewChannelDescription("G", typ),
		exr.NewChannelDescription("B", typ),
	}
	if alpha {
		descs = append(descs, exr.NewChannelDescription("A", typ))
	}
	return exr.NewLayer(size, exr.NamedLayerAttributes(name), encoding,
		exr.WriteFlattened(exr.NewFlattened(size, samples), descs...))
}

// NewSynthCmd writes a gradient test layer
func NewSynthCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "write a gradient test file",
		Long:  "Writes a single part scanline OpenEXR file holding an RGB(A) gradient.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			typeName, _ := cmd.Flags().GetString("type")
			compressionName, _ := cmd.Flags().GetString("compression")
			alpha, _ := cmd.Flags().GetBool("alpha")
			name, _ := cmd.Flags().GetString("name")
			decreasing, _ := cmd.Flags().GetBool("decreasing")

			if width <= 0 || height <= 0 {
				return fmt.Errorf("invalid size %dx%d", width, height)
			}
			typ, err := exr.ParseSampleType(typeName)
			if err != nil {
				return err
			}
			compression, err := exr.ParseCompression(compressionName)
			if err != nil {
				return err
			}
			encoding := exr.Encoding{Compression: compression}
			if decreasing {
				encoding.LineOrder = exr.DecreasingY
			}

			size := exr.Vec2{X: width, Y: height}
			layer := gradientLayer(size, typ, alpha, name, encoding)

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create file: %w", err)
				}
				defer f.Close()
				w = f
			}
			bw := bufio.NewWriter(w)
			if err := openexr.WriteLayer(bw, layer, exr.NewImageAttributes(size)); err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return err
			}
			slog.InfoContext(ctx, "synthesized", "out", out, "size", size.String(), "type", typ.String(), "compression", compression.String())
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("out", "o", "gradient.exr", "output path, - for stdout")
	pf.Int("width", 64, "layer width")
	pf.Int("height", 64, "layer height")
	pf.StringP("type", "t", "half", "sample type (half|float|uint)")
	pf.String("compression", "zip", "compression (none|rle|zips|zip)")
	pf.Bool("alpha", false, "add an opaque A channel")
	pf.String("name", "", "layer name attribute")
	pf.Bool("decreasing", false, "store scanlines in decreasing y order")
	return cmd
}
