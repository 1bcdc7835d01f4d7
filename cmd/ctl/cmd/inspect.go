package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/jpfielding/exrchan/pkg/exr"
	"github.com/jpfielding/exrchan/pkg/openexr"
	"github.com/jpfielding/exrchan/pkg/util"
	"github.com/spf13/cobra"
)

// layerSummary is the printable form of a layer header
type layerSummary struct {
	Layer         string            `json:"layer"`
	Size          exr.Vec2          `json:"size"`
	Position      exr.Vec2          `json:"position"`
	Compression   string            `json:"compression"`
	LineOrder     int               `json:"lineOrder"`
	Deep          bool              `json:"deep"`
	Chunks        int               `json:"chunks"`
	BytesPerPixel int               `json:"bytesPerPixel"`
	Channels      []channelSummary  `json:"channels"`
	Layout        string            `json:"layout"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

type channelSummary struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Linear bool   `json:"linear,omitempty"`
}

func summarize(h *exr.Header, chunks int) layerSummary {
	s := layerSummary{
		Layer:         h.LayerName(),
		Size:          h.LayerSize,
		Position:      h.OwnAttributes.LayerPosition,
		Compression:   h.Compression.String(),
		LineOrder:     int(h.LineOrder),
		Deep:          h.Deep,
		Chunks:        chunks,
		BytesPerPixel: h.BytesPerPixel(),
		Layout:        util.HashUUID(h.Channels.List),
		Attributes:    h.TextAttributes(),
	}
	for _, c := range h.Channels.List {
		s.Channels = append(s.Channels, channelSummary{Name: c.Name, Type: c.SampleType.String(), Linear: c.QuantizeLinearly})
	}
	return s
}

func (s layerSummary) writeText(w io.Writer) {
	fmt.Fprintf(w, "Layer: %q\n", s.Layer)
	fmt.Fprintf(w, "Size: %s at %s\n", s.Size, s.Position)
	fmt.Fprintf(w, "Compression: %s\n", s.Compression)
	fmt.Fprintf(w, "Deep: %v\n", s.Deep)
	fmt.Fprintf(w, "Chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "BytesPerPixel: %d\n", s.BytesPerPixel)
	fmt.Fprintf(w, "Layout: %s\n", s.Layout)
	fmt.Fprintln(w, "=== Channels ===")
	for _, c := range s.Channels {
		fmt.Fprintf(w, "  %-12s %s\n", c.Name, c.Type)
	}
	for _, k := range slices.Sorted(maps.Keys(s.Attributes)) {
		fmt.Fprintf(w, "  @%s = %q\n", k, s.Attributes[k])
	}
}

// NewInspectCmd prints the layer header of a file
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "OpenEXR header summary",
		Long:  "Prints the layer header and a fingerprint of its channel layout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			verbose, _ := cmd.Flags().GetBool("verbose")
			in, err := openInput(ctx, inputPath(path, args), verbose)
			if err != nil {
				return err
			}
			defer in.Close()

			header, offsets, err := openexr.ReadHeader(in)
			if err != nil {
				return fmt.Errorf("parse error: %w", err)
			}
			slog.DebugContext(ctx, "inspected", "layer", header.LayerName(), "chunks", len(offsets))

			summary := summarize(header, len(offsets))
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				summary.writeText(cmd.OutOrStdout())
			default:
				j, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(j))
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "OpenEXR file path or url")
	pf.StringP("format", "F", "json", "output format (text|json)")
	pf.BoolP("verbose", "v", false, "dump http exchanges")
	return cmd
}
