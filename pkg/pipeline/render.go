package pipeline

import (
	"context"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/render/nodelink"
)

// Render produces one artifact from a DOT description.
func Render(ctx context.Context, dot, format string, opts Options) ([]byte, error) {
	if format == FormatDOT {
		return []byte(dot), nil
	}
	if opts.Styled {
		dot = nodelink.Decorate(dot)
	}

	switch format {
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		scale := opts.Scale
		if scale == 0 {
			scale = DefaultScale
		}
		return nodelink.RenderPNG(ctx, dot, scale)
	case FormatPDF:
		return nodelink.RenderPDF(ctx, dot)
	default:
		return nil, tverrors.New(tverrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}
