package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/observability"
	"github.com/matzehuels/tagviewer/pkg/render"
)

// houseStyle is inserted after the opening brace by [Decorate].
var houseStyle = []string{
	`rankdir=TB;`,
	`bgcolor="transparent";`,
	`node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14, margin="0.2,0.1"];`,
	`edge [fontsize=11, color="#555555"];`,
	`ranksep=0.5;`,
	`nodesep=0.3;`,
}

// Decorate returns dot with the default graph, node and edge attributes
// added after the first opening brace. Statements already in dot come later
// and therefore take precedence. Input without a brace is returned as is.
func Decorate(dot string) string {
	i := strings.IndexByte(dot, '{')
	if i < 0 {
		return dot
	}
	var b strings.Builder
	b.WriteString(dot[:i+1])
	for _, s := range houseStyle {
		b.WriteString("\n")
		b.WriteString(s)
	}
	b.WriteString(dot[i+1:])
	return b.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Parse and layout failures are returned as RENDER_FAILED errors.
func RenderSVG(ctx context.Context, dot string) (svg []byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, render.FormatSVG)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, render.FormatSVG, len(svg), time.Since(start), err)
	}()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeRender, err, "layout")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return convert(ctx, render.FormatPDF, func() ([]byte, error) { return render.ToPDF(ctx, svg) })
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return convert(ctx, render.FormatPNG, func() ([]byte, error) { return render.ToPNG(ctx, svg, scale) })
}

func convert(ctx context.Context, format string, fn func() ([]byte, error)) (out []byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	out, err = fn()
	hooks.OnRenderComplete(ctx, format, len(out), time.Since(start), err)
	return out, err
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin and scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
