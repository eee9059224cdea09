// Package pkg provides the core libraries for Tagviewer.
//
// # Overview
//
// Tagviewer turns the dependency relations found in tag tables into rendered
// graphs and shows the tag tables themselves as browsable widgets. The pkg
// directory is organized into three areas:
//
//  1. Domain logic: [relations] (relation text to DOT) and [table] (tag
//     CSV files to widget descriptors)
//  2. Orchestration: [pipeline] (translate, render, cache)
//  3. Infrastructure: [cache], [config], [httputil], [comment], [errors]
//     and [observability]
//
// # Architecture
//
// The data flow for a graph:
//
//	relation lines ("0 A 1 B")
//	         ↓
//	    [relations] package (nodes, back edges, diagnostics)
//	         ↓
//	    [render/nodelink] package (Graphviz layout, SVG)
//	         ↓
//	    [render] package (PDF/PNG via rsvg-convert)
//
// And for a tag:
//
//	meta.csv, table_<id>.csv, meta_<id>.csv (directory or remote URL)
//	         ↓
//	    [table] package (columns, rows, description lines)
//	         ↓
//	    widget descriptor (JSON), HTML fragment or terminal table
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), cache.DefaultKeyer{}, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "0 parser 1 lexer\n1 lexer\n",
//	    Formats: []string{"svg", "dot"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("graph.svg", res.Artifacts["svg"], 0o644)
//
// Load a tag and build its widget descriptor:
//
//	src := table.DirSource{Dir: "data"}
//	tag, err := table.LoadTag(ctx, src, "001")
//	desc := tag.Descriptor(table.DefaultOptions())
//
// # Main Packages
//
// [relations] - The translator. Each "<src-id> <src-label> [<tgt-id>
// <tgt-label>]" line becomes a node and, with a target, an edge drawn from
// target to source with dir="back". Malformed lines are skipped and reported.
//
// [table] - CSV parsing for tag tables and the index, column titles, the
// widget descriptor and the HTML fragment used by the server.
//
// [pipeline] - Translate and render in one place, used by both the CLI and
// the HTTP server so both produce identical artifacts.
//
// [cache] - File, Redis and no-op caches for rendered artifacts and remote
// tag files.
//
// [comment] - Client for the endpoint that receives cell comments.
//
// [config] - TOML configuration shared by the CLI and the server.
//
// # Testing
//
//	go test ./...
//	go test -run Example ./pkg/...
//
// [relations]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/relations
// [table]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/table
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/config
// [httputil]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/httputil
// [comment]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/comment
// [errors]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/tagviewer/pkg/render/nodelink
package pkg
