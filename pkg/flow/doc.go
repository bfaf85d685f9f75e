// Package flow defines the graph model shared by every stage of flowtower.
//
// A [Graph] is the typed node/edge form of a Flow document. It is produced by
// package flowxml, closed and annotated by package transform, and positioned
// by package layout:
//
//	xml -> flowxml.Build -> transform.CloseTerminals -> transform.Normalize -> layout.Apply
//
// # Core Types
//
//   - [Node]: a Flow element (or synthetic Start/End) with fixed size, optional
//     position, opaque element data, and the relations derived by the normalizer
//   - [Edge]: a typed connector; its ID is {source}-{target}-{discriminator}
//   - [Metadata]: flow label, API version, process type and trigger descriptors
//   - [Index]: adjacency lookup built once per stage
//
// # Node and Edge Types
//
// [NodeType] and [EdgeType] are closed enumerations. Methods such as
// [NodeType.IsBranching] and [EdgeType.IsForward] switch over every value, so
// a new type has to be added in one place and every switch is revisited.
//
// # Serialization
//
// Graphs round-trip through JSON ([MarshalGraph], [ReadGraphFile]) and can be
// exported as YAML ([MarshalGraphYAML]). Keys are camelCase to match the
// record shapes consumed by renderers:
//
//	{"id": "Decision_1", "type": "decision", "label": "Check Amount", "x": 0, "y": 160, ...}
//	{"id": "Decision_1-Create_Record-rule-0", "source": "Decision_1", "target": "Create_Record", "type": "normal"}
//
// # Concurrency
//
// Graphs are plain values. Concurrent reads are safe; transforms never mutate
// their input.
package flow
