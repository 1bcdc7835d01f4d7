package cmd

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"

	"github.com/jpfielding/exrchan/pkg/exr"
	"github.com/jpfielding/exrchan/pkg/openexr"
	"github.com/nfnt/resize"
	"github.com/spf13/cobra"
)

// previewChannels decodes R, G, B and an optional A straight into an 8 bit
// image, applying exposure in stops and the sRGB transfer curve.
func previewChannels(exposure float64) exr.ReadSpecificChannels[image.NRGBA] {
	gain := float32(math.Exp2(exposure))
	return exr.ReadSpecificChannels[image.NRGBA]{
		Selection: exr.RGBA(),
		Create: exr.CreateFunc[image.NRGBA](func(info exr.ChannelsInfo) image.NRGBA {
			return *image.NewNRGBA(image.Rect(0, 0, info.Resolution.X, info.Resolution.Y))
		}),
		Set: exr.SetPixelFunc[image.NRGBA](func(img *image.NRGBA, pos exr.Vec2, px exr.Pixel) {
			a := uint8(255)
			if px[3].IsPresent() {
				a = unitToByte(px[3].Float32())
			}
			img.SetNRGBA(pos.X, pos.Y, color.NRGBA{
				R: unitToByte(linearToSRGB(px[0].Float32() * gain)),
				G: unitToByte(linearToSRGB(px[1].Float32() * gain)),
				B: unitToByte(linearToSRGB(px[2].Float32() * gain)),
				A: a,
			})
		}),
	}
}

func linearToSRGB(v float32) float32 {
	if v <= 0.0031308 || v != v {
		return max(v*12.92, 0)
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

func unitToByte(v float32) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// NewPreviewCmd renders the RGB channels of a file to a png thumbnail
func NewPreviewCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "render a png preview",
		Long:  "Decodes R, G, B and an optional A channel, applies exposure and sRGB encoding, resizes and writes a png.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			verbose, _ := cmd.Flags().GetBool("verbose")
			out, _ := cmd.Flags().GetString("out")
			width, _ := cmd.Flags().GetInt("width")
			exposure, _ := cmd.Flags().GetFloat64("exposure")

			in, err := openInput(ctx, inputPath(path, args), verbose)
			if err != nil {
				return err
			}
			defer in.Close()

			channels, header, err := openexr.ReadLayer(in, previewChannels(exposure))
			if err != nil {
				return fmt.Errorf("decode error: %w", err)
			}
			var img image.Image = &channels.Storage
			if width > 0 && width != header.LayerSize.X {
				img = resize.Resize(uint(width), 0, img, resize.Lanczos3)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return fmt.Errorf("failed to encode png: %w", err)
			}
			slog.InfoContext(ctx, "preview", "layer", header.LayerName(), "out", out, "bounds", img.Bounds().String())
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "OpenEXR file path or url")
	pf.StringP("out", "o", "preview.png", "png output path")
	pf.Int("width", 256, "thumbnail width, 0 keeps the layer width")
	pf.Float64("exposure", 0, "exposure adjustment in stops")
	pf.BoolP("verbose", "v", false, "dump http exchanges")
	return cmd
}
