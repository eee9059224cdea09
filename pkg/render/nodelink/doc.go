// Package nodelink renders DOT graph descriptions as node-link diagrams.
//
// Rendering runs in-process through [github.com/goccy/go-graphviz]; no
// Graphviz installation is needed for SVG:
//
//	res := relations.Translate(text)
//	svg, err := nodelink.RenderSVG(ctx, res.DOT)
//
// [Decorate] adds the house style (rounded boxes, top-to-bottom ranks,
// transparent background) to a bare description before rendering.
//
// PDF and PNG output convert the SVG with rsvg-convert, see [RenderPDF] and
// [RenderPNG]. Every render reports to the registered
// [observability.RenderHooks].
//
// [observability.RenderHooks]: github.com/matzehuels/tagviewer/pkg/observability.RenderHooks
package nodelink
