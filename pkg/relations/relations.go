package relations

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies a problem found while reading relation lines.
type DiagnosticKind int

const (
	// Malformed lines have fewer than two tokens and are skipped entirely.
	Malformed DiagnosticKind = iota + 1

	// Incomplete lines have a relation label but no parent id. The node is
	// declared, the edge is not.
	Incomplete

	// UnresolvedTarget marks an edge whose parent id is not declared by any
	// line. The edge is still emitted.
	UnresolvedTarget
)

// String returns the diagnostic kind name.
func (k DiagnosticKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Incomplete:
		return "incomplete"
	case UnresolvedTarget:
		return "unresolved-target"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsWarning reports whether the line still contributed to the output.
func (k DiagnosticKind) IsWarning() bool {
	return k != Malformed
}

// Diagnostic describes a single input line that was skipped or only partly
// translated.
type Diagnostic struct {
	Line int            `json:"line"` // 1-based line number in the input
	Text string         `json:"text"` // the trimmed line
	Kind DiagnosticKind `json:"kind"`
}

// Error formats the diagnostic as "line N: kind: text".
func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s: %q", d.Line, d.Kind, d.Text)
}

// Relation is one accepted input line.
type Relation struct {
	Line          int    `json:"line"`
	SourceID      string `json:"source_id"`
	SourceLabel   string `json:"source_label"`
	RelationLabel string `json:"relation_label,omitempty"`
	TargetID      string `json:"target_id,omitempty"`
}

// HasEdge reports whether the relation declares an edge to a parent.
func (r Relation) HasEdge() bool {
	return r.RelationLabel != "" && r.TargetID != ""
}

// Parse reads relation lines from text. Blank lines are ignored. Lines that
// cannot be used as relations are returned as diagnostics instead.
//
// Parse only reports [Malformed] and [Incomplete]; target resolution is done
// by [Translate] once every line is known.
func Parse(text string) ([]Relation, []Diagnostic) {
	var (
		rels  []Relation
		diags []Diagnostic
	)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 {
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Kind: Malformed})
			continue
		}

		rel := Relation{Line: i + 1, SourceID: words[0], SourceLabel: words[1]}
		switch {
		case len(words) >= 4:
			rel.RelationLabel = words[2]
			rel.TargetID = words[3]
		case len(words) == 3:
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Kind: Incomplete})
		}
		rels = append(rels, rel)
	}
	return rels, diags
}
