// Package visitor implements the dispatch-by-node-kind traversal
// framework: monotone id allocation is delegated to cfgmodel.Graph,
// while this package owns fragment composition, the control-flow
// scoping stacks (loop and switch), and the routine-entry helper that hands a finished
// routine off to the post-processor.
package visitor

import "github.com/cflowgraph/cflow/pkg/cfgmodel"

// Fragment is a partial CFG with one entry node and a set of still-open
// exit points. A fragment with an empty ExitIDs models code that falls
// off the end unreachably (after a return/break/continue/goto).
type Fragment struct {
	EntryID int
	ExitIDs []int
}

// SingleNode returns a fragment whose entry and only exit are id.
func SingleNode(id int) Fragment {
	return Fragment{EntryID: id, ExitIDs: []int{id}}
}

// DeadEnd returns a fragment with no open exits, entering at id — the
// shape returned by break/continue/return/goto handlers.
func DeadEnd(id int) Fragment {
	return Fragment{EntryID: id, ExitIDs: nil}
}

// Chain connects every exit of a to the entry of b, modeling sequential
// composition. If a has no open exits, b is still returned but left
// disconnected from a — the code following an unconditional jump.
func Chain(g *cfgmodel.Graph, a, b Fragment) Fragment {
	for _, exit := range a.ExitIDs {
		g.AddEdge(exit, b.EntryID, "")
	}
	return Fragment{EntryID: a.EntryID, ExitIDs: b.ExitIDs}
}

// ChainAll folds Chain over a sequence of fragments in order, as a
// compound/block statement's sequential composition. Returns the zero
// Fragment for an empty sequence.
func ChainAll(g *cfgmodel.Graph, frags []Fragment) Fragment {
	if len(frags) == 0 {
		return Fragment{}
	}
	result := frags[0]
	for _, f := range frags[1:] {
		result = Chain(g, result, f)
	}
	return result
}

// Placeholder allocates an internal PLACEHOLDER node standing in for a
// missing branch arm, or for a loop's exit point before the loop body
// has been visited (a language visitor pre-allocates this so break
// statements deep in the body can wire to it directly), so a
// CONDITION/LOOP_HEADER/SWITCH_HEAD node always has both its true and
// false successor edges the moment it is created. The post-processor
// compacts placeholders away once the real successor is known.
func Placeholder(g *cfgmodel.Graph) int {
	return g.NewNode(cfgmodel.KindPlaceholder, "", nil, nil)
}

// Branch wires a CONDITION-kind decision node to its two labeled arms
// and returns the combined fragment. Pass hasTrue/hasElse false for a
// missing then/else body (a malformed conditional) — a placeholder
// stands in so the labeled-edge invariant holds immediately.
func Branch(g *cfgmodel.Graph, condID int, trueFrag Fragment, hasTrue bool, falseFrag Fragment, hasElse bool) Fragment {
	var exits []int

	if hasTrue {
		g.AddEdge(condID, trueFrag.EntryID, cfgmodel.LabelTrue)
		exits = append(exits, trueFrag.ExitIDs...)
	} else {
		ph := Placeholder(g)
		g.AddEdge(condID, ph, cfgmodel.LabelTrue)
		exits = append(exits, ph)
	}

	if hasElse {
		g.AddEdge(condID, falseFrag.EntryID, cfgmodel.LabelFalse)
		exits = append(exits, falseFrag.ExitIDs...)
	} else {
		ph := Placeholder(g)
		g.AddEdge(condID, ph, cfgmodel.LabelFalse)
		exits = append(exits, ph)
	}

	return Fragment{EntryID: condID, ExitIDs: exits}
}

// Loop wires a LOOP_HEADER-kind node to a body fragment: header --true-->
// body, every body exit loops back to header, header --false--> exitID.
// exitID is allocated by the caller with Placeholder before the body is
// visited, since a break statement deep in the body needs the loop's
// exit target while the body fragment itself does not exist yet.
// Returns the loop's own fragment, whose single exit is exitID.
func Loop(g *cfgmodel.Graph, headerID int, body Fragment, hasBody bool, exitID int) Fragment {
	if hasBody {
		g.AddEdge(headerID, body.EntryID, cfgmodel.LabelTrue)
		for _, exit := range body.ExitIDs {
			g.AddEdge(exit, headerID, "")
		}
	} else {
		ph := Placeholder(g)
		g.AddEdge(headerID, ph, cfgmodel.LabelTrue)
	}

	g.AddEdge(headerID, exitID, cfgmodel.LabelFalse)

	return Fragment{EntryID: headerID, ExitIDs: []int{exitID}}
}
