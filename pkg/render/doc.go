// Package render converts rendered graph SVG into the other output formats.
//
// SVG itself comes from [nodelink.RenderSVG]; [ToPDF] and [ToPNG] post-process
// it with the external rsvg-convert tool (librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [Formats] lists every output format the pipeline accepts, including the
// raw "dot" description.
//
// [nodelink.RenderSVG]: github.com/matzehuels/tagviewer/pkg/render/nodelink.RenderSVG
package render
