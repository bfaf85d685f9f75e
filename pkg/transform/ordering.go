package transform

import (
	"slices"
	"strings"
	"unicode"

	"github.com/matzehuels/flowtower/pkg/flow"
)

var (
	fallbackWords  = []string{"default", "else", "other", "otherwise"}
	scheduledWords = []string{"scheduled", "async", "asynchronous", "asynchronously"}
)

// OrderBranches returns the branch edges of n in display order.
//
// Edges keep document order except that fallback branches move to the end:
// a decision or wait default (by kind or a default/else/other label), a
// loop's After Last edge, and a Start's scheduled or asynchronous paths.
// The input slice is not modified.
func OrderBranches(n *flow.Node, edges []flow.Edge) []flow.Edge {
	out := slices.Clone(edges)
	slices.SortStableFunc(out, func(a, b flow.Edge) int {
		return branchRank(n, a) - branchRank(n, b)
	})
	return out
}

func branchRank(n *flow.Node, e flow.Edge) int {
	if e.Kind == flow.KindDefault || hasWord(e.Label, fallbackWords) {
		return 1
	}
	switch n.Type {
	case flow.TypeLoop:
		if e.Type == flow.EdgeLoopEnd || e.Kind == flow.KindLoopEnd {
			return 1
		}
	case flow.TypeStart:
		if e.Kind == flow.KindPath || hasWord(e.Label, scheduledWords) {
			return 1
		}
	}
	return 0
}

// hasWord reports whether label contains one of words as a whole word,
// ignoring case.
func hasWord(label string, words []string) bool {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, f := range fields {
		if slices.Contains(words, f) {
			return true
		}
	}
	return false
}
