// Package transform prepares a built Flow graph for layout.
//
// # Overview
//
// A graph fresh from flowxml.Build mirrors the document: outcomes without a
// connector simply stop, and nodes know nothing about their neighbours. The
// two transforms in this package fix that:
//
//	g = transform.CloseTerminals(g) // every path ends in an End node
//	g = transform.Normalize(g)      // derive next/children/parent/prev/...
//
// Both return a new graph and leave their input untouched. Both are total and
// idempotent.
//
// # Terminal Synthesis
//
// [CloseTerminals] adds End nodes. Each implicit end recorded by the builder
// (a decision rule or default, or a wait default, that has a label but no
// connector) gets its own End carrying the outcome label. Then any remaining
// node without a non-fault outgoing edge gets one End:
//
//	Before: Update_Record (no connector)
//	After:  Update_Record -> END_Update_Record
//
// Ends that close a fault path, one only reachable through a fault connector,
// are flagged IsFaultPath and joined with a fault-end edge so renderers can
// keep them in the fault lane. See [FaultPathNodes].
//
// # Relationship Normalization
//
// [Normalize] derives the relational fields placement walks. Branch order is
// decided by [OrderBranches]: document order, except that default/else/other
// outcomes, a loop's After Last edge and a Start's scheduled paths go last.
// Goto and fault edges never produce Next or Children.
package transform
