// Package pipeline runs the translate → render pipeline behind the CLI and
// the HTTP API.
//
// # Stages
//
//  1. Translate: relation lines become a DOT description (see
//     [relations.Translate]); DOT input passes through unchanged
//  2. Render: the description becomes SVG, PNG or PDF through Graphviz
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "1 dog\n2 cat is_a 1",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Rendered artifacts are cached by the hash of the description. Concurrent
// requests for the same artifact share one render.
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tagviewer/pkg/cache"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/relations"
	"github.com/matzehuels/tagviewer/pkg/render"
)

// Input formats.
const (
	InputRelations = "relations"
	InputDOT       = "dot"
)

// Format constants for output formats.
const (
	FormatDOT = render.FormatDOT
	FormatSVG = render.FormatSVG
	FormatPNG = render.FormatPNG
	FormatPDF = render.FormatPDF
)

const (
	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0

	// MaxInputBytes bounds the accepted input text.
	MaxInputBytes = 4 << 20
)

// Options configures one pipeline run.
type Options struct {
	Input       string   `json:"input"`
	InputFormat string   `json:"input_format,omitempty"`
	Formats     []string `json:"formats,omitempty"`

	// Styled applies the default graph style before rendering images. The
	// "dot" artifact is always the plain description.
	Styled bool    `json:"styled,omitempty"`
	Scale  float64 `json:"scale,omitempty"`

	// Strict turns translation diagnostics into an error.
	Strict bool `json:"strict,omitempty"`

	// Refresh ignores cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// DOT is the graph description that was rendered.
	DOT string

	// DOTHash is the content hash of DOT, used for cache keys and ETags.
	DOTHash string

	// Translation is the translator's result; nil for DOT input.
	Translation *relations.Result

	// Artifacts contains outputs keyed by format.
	Artifacts map[string][]byte

	// ETags holds a strong entity tag per format. It covers the description
	// and every option that changes the rendered bytes.
	ETags map[string]string

	Stats     Stats
	CacheInfo CacheInfo
}

// Diagnostics returns the translation diagnostics, if any.
func (r *Result) Diagnostics() []relations.Diagnostic {
	if r.Translation == nil {
		return nil
	}
	return r.Translation.Diagnostics
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes         int
	Edges         int
	Skipped       int
	Warnings      int
	TranslateTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo reports which artifacts came from the cache.
type CacheInfo struct {
	// Hits lists the formats served from the cache.
	Hits []string

	// RenderHit is true when every image format was cached.
	RenderHit bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !render.ValidFormat(format) {
		return tverrors.New(tverrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInputFormat checks the input format name.
func ValidateInputFormat(f string) error {
	if f != InputRelations && f != InputDOT {
		return tverrors.New(tverrors.ErrCodeInvalidFormat, "invalid input format: %q (must be relations or dot)", f)
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and checks the options. Duplicate
// formats are dropped.
func (o *Options) ValidateAndSetDefaults() error {
	if o.InputFormat == "" {
		o.InputFormat = InputRelations
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := ValidateInputFormat(o.InputFormat); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	if len(o.Input) > MaxInputBytes {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "input too large (%d bytes, max %d)", len(o.Input), MaxInputBytes)
	}
	o.Formats = uniqueFormats(o.Formats)
	return nil
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Styled: o.Styled && format != FormatDOT}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

func uniqueFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
