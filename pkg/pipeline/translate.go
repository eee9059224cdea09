package pipeline

import (
	"context"
	"strings"
	"time"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/observability"
	"github.com/matzehuels/tagviewer/pkg/relations"
)

// maxReportedDiagnostics caps the lines listed in a strict-mode error.
const maxReportedDiagnostics = 5

// Translate produces the DOT description for opts.Input. For relation input
// the translator's result is returned as well.
func Translate(ctx context.Context, opts Options) (string, *relations.Result, error) {
	if opts.InputFormat == InputDOT {
		dot := strings.TrimSpace(opts.Input)
		if dot == "" {
			return "", nil, tverrors.New(tverrors.ErrCodeInvalidInput, "empty DOT input")
		}
		return dot, nil, nil
	}

	start := time.Now()
	res := relations.Translate(opts.Input)
	observability.Translate().OnTranslate(ctx, res.Nodes, res.Edges, res.Skipped(), res.Warnings(), time.Since(start))

	if opts.Strict && len(res.Diagnostics) > 0 {
		return "", &res, strictError(res.Diagnostics)
	}
	return res.DOT, &res, nil
}

func strictError(diags []relations.Diagnostic) error {
	lines := make([]string, 0, maxReportedDiagnostics)
	for i, d := range diags {
		if i == maxReportedDiagnostics {
			break
		}
		lines = append(lines, d.Error())
	}
	msg := strings.Join(lines, "; ")
	if extra := len(diags) - len(lines); extra > 0 {
		msg += "; and more"
	}
	return tverrors.New(tverrors.ErrCodeInvalidRelation, "%d problem line(s): %s", len(diags), msg)
}
