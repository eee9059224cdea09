package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/pipeline"
	"github.com/matzehuels/tagviewer/pkg/relations"
)

// maxListedDiagnostics caps the problem lines printed after a render.
const maxListedDiagnostics = 10

// graphCommand creates the graph command that renders relation lines.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{InputFormat: pipeline.InputRelations, Scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Render dependency relations as a node-link diagram",
		Long: `Render dependency relations as a node-link diagram.

Each input line is "<id> <label> [<relation> <parent-id>]". Lines with a
parent become an edge from the parent to the line's node. Read from stdin
when no file is given or the file is "-".

Pass --input dot to render an existing DOT description instead.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateInputFormat(opts.InputFormat); err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), inputArg(args), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.InputFormat, "input", opts.InputFormat, "input format: relations (default), dot")
	cmd.Flags().BoolVar(&opts.Styled, "styled", false, "apply the default node and edge styling")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on malformed, incomplete or unresolved lines")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	text, err := readInput(input)
	if err != nil {
		return err
	}
	opts.Input = text
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		if result != nil {
			printDiagnostics(result.Diagnostics(), maxListedDiagnostics)
		}
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, input, output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, p := range paths {
		printFile(p)
	}
	printGraphStats(result.Stats, result.CacheInfo.RenderHit)
	if diags := result.Diagnostics(); len(diags) > 0 {
		printNewline()
		printDiagnostics(diags, maxListedDiagnostics)
	}
	return nil
}

// translateCommand prints the DOT description of relation lines.
func (c *CLI) translateCommand() *cobra.Command {
	var (
		asJSON bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Print the DOT description of relation lines",
		Long: `Print the DOT description of relation lines without rendering it.

Problem lines are reported on stderr. With --json the description and the
diagnostics are printed as one JSON document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(inputArg(args))
			if err != nil {
				return err
			}
			dot, res, err := pipeline.Translate(cmd.Context(), pipeline.Options{Input: text, Strict: strict})
			if asJSON {
				if res == nil {
					return err
				}
				if jerr := writeTranslation(cmd.OutOrStdout(), res); jerr != nil {
					return jerr
				}
				return err
			}
			if res != nil {
				for _, d := range res.Diagnostics {
					c.Logger.Warn("problem line", "line", d.Line, "kind", d.Kind, "text", d.Text)
				}
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dot)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the description and diagnostics as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on malformed, incomplete or unresolved lines")

	return cmd
}

type translation struct {
	DOT         string                 `json:"dot"`
	Nodes       int                    `json:"nodes"`
	Edges       int                    `json:"edges"`
	Diagnostics []relations.Diagnostic `json:"diagnostics"`
}

func writeTranslation(w io.Writer, res *relations.Result) error {
	diags := res.Diagnostics
	if diags == nil {
		diags = []relations.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(translation{DOT: res.DOT, Nodes: res.Nodes, Edges: res.Edges, Diagnostics: diags})
}

// =============================================================================
// Input & Output
// =============================================================================

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// readInput reads a file, or stdin for "-", up to the pipeline's input limit.
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", tverrors.Wrap(tverrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, pipeline.MaxInputBytes+1))
	if err != nil {
		return "", tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "read %s", path)
	}
	if len(data) > pipeline.MaxInputBytes {
		return "", tverrors.New(tverrors.ErrCodeInvalidInput, "%s exceeds %d bytes", path, pipeline.MaxInputBytes)
	}
	return string(data), nil
}

// artifactPaths decides where each format is written. A single format goes
// to output when it is set; otherwise files are named <base>.<format>, with
// the base taken from output or the input file name.
func artifactPaths(formats []string, input, output string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}

	base := output
	if base == "" {
		if input == "-" {
			base = "graph"
		} else {
			base = strings.TrimSuffix(input, filepath.Ext(input))
		}
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	paths := artifactPaths(formats, input, output)
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		p := paths[f]
		if err := os.WriteFile(p, artifacts[f], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}
