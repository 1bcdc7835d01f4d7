package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/exrchan/pkg/exr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "testsha")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "ERROR"))
	err := root.Execute()
	return out.String(), err
}

func synthFile(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gradient.exr")
	_, err := run(t, append([]string{"synth", "-o", path}, args...)...)
	require.NoError(t, err)
	return path
}

func TestRoot_Version(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "testsha\n", out)
}

func TestRoot_BadLogFormat(t *testing.T) {
	_, err := run(t, "version", "--log-format", "xml")
	assert.Error(t, err)
}

func TestExtract_Stats(t *testing.T) {
	path := synthFile(t, "--width", "8", "--height", "4", "--type", "float", "--alpha")

	out, err := run(t, "extract", "-f", path, "-c", "R,G,B,A?", "-F", "json")
	require.NoError(t, err)
	var stats []slotStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 4)

	assert.Equal(t, "R", stats[0].Request)
	assert.Equal(t, "f32", stats[0].Type)
	assert.Equal(t, 0.0, stats[0].Min)
	assert.Equal(t, 1.0, stats[0].Max)
	assert.InDelta(t, 0.5, stats[0].Mean, 1e-6)
	assert.Equal(t, "A?", stats[3].Request)
	assert.True(t, stats[3].Present)
	assert.Equal(t, 1.0, stats[3].Min)
}

func TestExtract_OptionalAbsent(t *testing.T) {
	path := synthFile(t, "--width", "3", "--height", "3", "--compression", "none")

	out, err := run(t, "extract", "-f", path, "-c", "G,Z?")
	require.NoError(t, err)
	assert.Contains(t, out, "Pixels: 9")
	assert.Regexp(t, `Z\?\s+absent`, out)
}

func TestExtract_MissingChannel(t *testing.T) {
	path := synthFile(t, "--width", "2", "--height", "2")
	_, err := run(t, "extract", "-f", path, "-c", "Y")
	assert.ErrorIs(t, err, exr.ErrMissingChannel)

	_, err = run(t, "extract", "-f", path, "-c", "R,G,B,A,Y")
	assert.ErrorIs(t, err, exr.ErrInvalidSelection)
}

func TestInspect_JSON(t *testing.T) {
	path := synthFile(t, "--width", "5", "--height", "20", "--type", "uint", "--compression", "zips", "--name", "beauty")

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	var summary layerSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "beauty", summary.Layer)
	assert.Equal(t, exr.Vec2{X: 5, Y: 20}, summary.Size)
	assert.Equal(t, "zips", summary.Compression)
	assert.Equal(t, 20, summary.Chunks)
	assert.Equal(t, 12, summary.BytesPerPixel)
	require.Len(t, summary.Channels, 3)
	assert.Equal(t, "B", summary.Channels[0].Name)
	assert.Equal(t, "u32", summary.Channels[0].Type)
	assert.NotEmpty(t, summary.Layout)

	again, err := run(t, "inspect", "-F", "text", path)
	require.NoError(t, err)
	assert.Contains(t, again, summary.Layout)
}

func TestPreview_Resized(t *testing.T) {
	path := synthFile(t, "--width", "16", "--height", "8", "--alpha")
	out := filepath.Join(t.TempDir(), "preview.png")

	_, err := run(t, "preview", "-f", path, "-o", out, "--width", "4")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestPreview_Transfer(t *testing.T) {
	assert.Equal(t, uint8(0), unitToByte(-1))
	assert.Equal(t, uint8(255), unitToByte(2))
	assert.Equal(t, uint8(128), unitToByte(0.5))
	assert.InDelta(t, 0.7354, linearToSRGB(0.5), 1e-3)
	assert.Equal(t, float32(0), linearToSRGB(-0.5))
}

func TestGradientLayer(t *testing.T) {
	size := exr.Vec2{X: 3, Y: 2}
	layer := gradientLayer(size, exr.U32, true, "g", exr.UncompressedEncoding())
	assert.Equal(t, []string{"A", "B", "G", "R"}, layer.ChannelData.InferChannelList().Names())
	px := layer.ChannelData.Storage.At(exr.Vec2{X: 2, Y: 1})
	assert.Equal(t, uint32(255), px[0].Uint32())
	assert.Equal(t, uint32(255), px[1].Uint32())
	assert.Equal(t, uint32(255), px[3].Uint32())
}
