package relations

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// GraphName is the name of the emitted digraph.
const GraphName = "G"

// idPrefix namespaces source ids so that numeric ids are valid DOT identifiers.
const idPrefix = "n"

// Result is the outcome of a translation.
type Result struct {
	// DOT is the generated graph description.
	DOT string

	// Relations holds the accepted lines in input order.
	Relations []Relation

	// Nodes and Edges count the emitted statements.
	Nodes int
	Edges int

	// Diagnostics lists skipped and partly translated lines, ordered by line.
	Diagnostics []Diagnostic
}

// Skipped returns the number of lines that produced no output at all.
func (r Result) Skipped() int {
	n := 0
	for _, d := range r.Diagnostics {
		if !d.Kind.IsWarning() {
			n++
		}
	}
	return n
}

// Warnings returns the number of lines that were only partly translated or
// reference an undeclared parent.
func (r Result) Warnings() int {
	return len(r.Diagnostics) - r.Skipped()
}

// Translate converts relation text into a DOT digraph.
//
// All node statements precede all edge statements, each group in input
// order. The same id may be declared more than once; Graphviz keeps the last
// label. Empty input yields "digraph G {\n}".
func Translate(text string) Result {
	rels, diags := Parse(text)

	declared := make(map[string]bool, len(rels))
	for _, r := range rels {
		declared[r.SourceID] = true
	}
	for _, r := range rels {
		if r.HasEdge() && !declared[r.TargetID] {
			diags = append(diags, Diagnostic{Line: r.Line, Text: r.SourceID + " -> " + r.TargetID, Kind: UnresolvedTarget})
		}
	}
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Line < diags[j].Line })

	dot, edges := WriteDOT(rels)
	return Result{
		DOT:         dot,
		Relations:   rels,
		Nodes:       len(rels),
		Edges:       edges,
		Diagnostics: diags,
	}
}

// WriteDOT renders already parsed relations and returns the description
// together with the number of edge statements written.
func WriteDOT(rels []Relation) (string, int) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {", GraphName)

	for _, r := range rels {
		fmt.Fprintf(&buf, "\n%s [label=%s];", NodeID(r.SourceID), quote(r.SourceLabel))
	}

	edges := 0
	for _, r := range rels {
		if !r.HasEdge() {
			continue
		}
		fmt.Fprintf(&buf, "\n%s -> %s [label=%s, dir=\"back\"];",
			NodeID(r.TargetID), NodeID(r.SourceID), quote(r.RelationLabel))
		edges++
	}

	buf.WriteString("\n}")
	return buf.String(), edges
}

var bareID = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dotKeywords are reserved in DOT regardless of case.
var dotKeywords = []string{"node", "edge", "graph", "digraph", "subgraph", "strict"}

// NodeID returns the namespaced DOT identifier for a source id. Ids that
// are not bare identifiers, or that spell a keyword once prefixed ("ode"),
// are quoted.
func NodeID(id string) string {
	nid := idPrefix + id
	if bareID.MatchString(nid) && !isKeyword(nid) {
		return nid
	}
	return quote(nid)
}

func isKeyword(s string) bool {
	for _, k := range dotKeywords {
		if strings.EqualFold(s, k) {
			return true
		}
	}
	return false
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + labelEscaper.Replace(s) + `"`
}
