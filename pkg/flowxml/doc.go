// Package flowxml builds a [flow.Graph] from Flow metadata XML.
//
// The builder streams the document with encoding/xml and decodes each
// top-level element in document order. It understands the start element
// (including record and schedule triggers and scheduled paths), decisions,
// loops, waits, screens, assignments, the four record operations, action
// calls, subflows and custom errors. Unknown elements are skipped.
//
// # Connectors
//
// Every connector becomes one edge whose ID is {source}-{target}-{kind}, with
// an index for repeated kinds:
//
//	connector              -> next      (normal)
//	faultConnector         -> fault     (fault, labeled "Fault")
//	rules[i].connector     -> rule-i    (normal, labeled by the rule)
//	defaultConnector       -> default   (normal, "Default Outcome" unless labeled)
//	nextValueConnector     -> loop-next (loop-next, "For Each")
//	noMoreValuesConnector  -> loop-end  (loop-end, "After Last")
//	waitEvents[i]          -> event-i   (normal)
//	scheduledPaths[i]      -> path-i    (normal, from START)
//
// A connector with isGoTo set is typed goto unless it is a fault connector.
// Outcomes that have a label but no connector are kept on the node as
// [flow.ImplicitEnd] entries for the terminal synthesizer.
//
// # Errors
//
// Malformed XML yields a [*ParseError]; a document whose root is not Flow or
// that has no start element yields a [*ValidationError]. Both carry an error
// code recognized by errors.GetCode. Anything else that looks wrong is
// recorded in Graph.Warnings and the build continues.
package flowxml
