// Package relations translates dependency-relation text into Graphviz DOT.
//
// # Input Format
//
// Each non-blank line is one relation, made of whitespace-separated tokens:
//
//	<id> <label>                      a node with no parent
//	<id> <label> <relation> <parent>  a node plus an edge to its parent
//
// This is the usual shape of a dependency parse written one word per line,
// for example:
//
//	1 dog nsubj 2
//	2 barks
//
// Tokens beyond the fourth are ignored.
//
// # Output
//
// [Translate] emits every node declaration first and every edge second, both
// in input order, wrapped in a "digraph G" block. Edges are declared from the
// parent to the child and carry dir="back", so the arrow is drawn pointing at
// the parent while the layout keeps parents above children:
//
//	digraph G {
//	n1 [label="dog"];
//	n2 [label="barks"];
//	n2 -> n1 [label="nsubj", dir="back"];
//	}
//
// Node identifiers are prefixed with "n" so numeric ids remain valid DOT
// identifiers. Ids that still contain characters outside [A-Za-z0-9_] are
// quoted.
//
// # Diagnostics
//
// Lines that cannot be translated never abort the translation. They are
// reported in [Result.Diagnostics]:
//
//   - [Malformed]: fewer than two tokens; the line is skipped
//   - [Incomplete]: exactly three tokens; the node is kept, the edge dropped
//   - [UnresolvedTarget]: the parent id is never declared; the edge is kept
//
// Translation is a pure function of its input and is safe for concurrent use.
package relations
