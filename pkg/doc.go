// Package pkg provides the libraries behind flowtower, a layout engine for
// Salesforce Flow metadata.
//
// # Overview
//
// Flowtower turns a Flow's metadata XML into a positioned diagram that reads
// top-down the way Flow Builder draws it. The pkg directory is organized
// into three areas:
//
//  1. Domain: [flow] (graph types), [flowxml] (XML to graph),
//     [transform] (End synthesis and relationship normalization) and
//     [layout] (grid placement)
//  2. Output: [render/nodelink] (DOT, SVG and PNG)
//  3. Infrastructure: [pipeline], [cache], [store], [config],
//     [observability], [errors] and [buildinfo]
//
// # Architecture
//
// The data flow through flowtower:
//
//	Flow metadata XML
//	         ↓
//	    [flowxml] package (typed nodes and connectors)
//	         ↓
//	    [transform] package (close dangling paths, derive Next/Children/Parent)
//	         ↓
//	    [layout] package (grid rows and columns, fault lanes, pixels)
//	         ↓
//	    SVG/PNG/DOT/JSON output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/flowtower/pkg/flowxml"
//	    "github.com/matzehuels/flowtower/pkg/layout"
//	    "github.com/matzehuels/flowtower/pkg/transform"
//	)
//
//	g, err := flowxml.BuildFile("Opportunity_Router.flow-meta.xml")
//	if err != nil {
//	    return err
//	}
//	l := layout.Build(transform.CloseTerminals(g))
//	for _, n := range l.Nodes {
//	    fmt.Printf("%s at (%g, %g)\n", n.ID, n.X, n.Y)
//	}
//
// For caching and rendering in one call, use [pipeline.Runner].
//
// [flow]: github.com/matzehuels/flowtower/pkg/flow
// [flowxml]: github.com/matzehuels/flowtower/pkg/flowxml
// [transform]: github.com/matzehuels/flowtower/pkg/transform
// [layout]: github.com/matzehuels/flowtower/pkg/layout
// [render/nodelink]: github.com/matzehuels/flowtower/pkg/render/nodelink
// [pipeline]: github.com/matzehuels/flowtower/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/flowtower/pkg/pipeline#Runner
// [cache]: github.com/matzehuels/flowtower/pkg/cache
// [store]: github.com/matzehuels/flowtower/pkg/store
// [config]: github.com/matzehuels/flowtower/pkg/config
// [observability]: github.com/matzehuels/flowtower/pkg/observability
// [errors]: github.com/matzehuels/flowtower/pkg/errors
// [buildinfo]: github.com/matzehuels/flowtower/pkg/buildinfo
package pkg
