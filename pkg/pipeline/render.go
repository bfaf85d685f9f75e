package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/render/nodelink"
)

// RenderFromLayout generates output artifacts in the requested formats.
// The DOT source is built once and shared by the svg, png and dot formats.
func RenderFromLayout(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed, Labels: opts.Labels})
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			data, err = layout.MarshalLayout(l)
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
