package graph

import (
	"fmt"
	"slices"
)

// FlowResult is the outcome of a flow validation pass.
// Errors is ordered: flow-level problems first, then per-node problems
// sorted by node ID.
type FlowResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateFlow checks that a graph snapshot forms a well-shaped flow:
//
//  1. Exactly one node is tagged as the entry.
//  2. At least one node is tagged as a terminal.
//  3. Every step node (neither entry nor terminal) has at least one
//     incoming and at least one outgoing edge.
//
// It is a pure function of the snapshot: it never mutates anything and
// depends on nothing but its argument. Edge endpoints are counted as
// written, whether or not they resolve to existing nodes.
func ValidateFlow(d Data) FlowResult {
	var errs []string

	entries := 0
	terminals := 0
	for _, n := range d.Nodes {
		switch {
		case n.IsEntry():
			entries++
		case n.IsTerminal():
			terminals++
		}
	}

	switch {
	case entries == 0:
		errs = append(errs, "flow must have an entry node")
	case entries > 1:
		errs = append(errs, fmt.Sprintf("flow must have exactly one entry node, found %d", entries))
	}
	if terminals == 0 {
		errs = append(errs, "flow must have at least one terminal node")
	}

	incoming := make(map[string]int, len(d.Nodes))
	outgoing := make(map[string]int, len(d.Nodes))
	for _, e := range d.Edges {
		outgoing[e.From]++
		incoming[e.To]++
	}

	steps := make([]Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if !n.IsEntry() && !n.IsTerminal() {
			steps = append(steps, n)
		}
	}
	slices.SortFunc(steps, func(a, b Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	for _, n := range steps {
		if incoming[n.ID] == 0 {
			errs = append(errs, fmt.Sprintf("step node %q must have at least one incoming edge", n.ID))
		}
		if outgoing[n.ID] == 0 {
			errs = append(errs, fmt.Sprintf("step node %q must have at least one outgoing edge", n.ID))
		}
	}

	return FlowResult{Valid: len(errs) == 0, Errors: errs}
}
