// Package postprocess implements the translation-unit-level passes that
// run once every routine in a file has been built: forward-goto
// resolution, cross-routine function-call/function-return edge wiring,
// PLACEHOLDER passthrough compaction, a reachability sweep, and
// invariant checking.
package postprocess

import (
	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/coreerrors"
	"github.com/cflowgraph/cflow/pkg/visitor"
)

// Unit bundles every routine built from one translation unit plus the
// scoping state left over from their traversal, so the passes below can
// resolve references that only make sense once every routine exists.
type Unit struct {
	Graphs []*cfgmodel.Graph
	Scopes []*visitor.ScopeContext
}

// Run executes every post-processing pass in order — goto resolution,
// call wiring, passthrough compaction, the reachability sweep, then
// invariant checking — and returns the accumulated non-fatal warnings.
// A malformed unresolved goto is downgraded to a warning when
// cfg.WarnOnUnresolvedGoto is set; otherwise it is fatal.
func Run(u Unit, warnOnUnresolvedGoto bool) ([]warning.Warning, error) {
	var warnings []warning.Warning

	for i, g := range u.Graphs {
		if !u.Scopes[i].StacksEmpty() {
			return warnings, coreerrors.NewInternalAssertion(g.Name, "scoping stacks not empty after traversal")
		}
		w, err := resolveGotos(g, u.Scopes[i], warnOnUnresolvedGoto)
		warnings = append(warnings, w...)
		if err != nil {
			return warnings, err
		}
	}

	wireFunctionCalls(u.Graphs, u.Scopes)

	for _, g := range u.Graphs {
		compactPassthroughs(g)
	}

	for _, g := range u.Graphs {
		sweepUnreachable(g)
	}

	for _, g := range u.Graphs {
		if err := checkInvariants(g); err != nil {
			return warnings, err
		}
	}

	return warnings, nil
}

// resolveGotos wires every pending goto to its label's node, in the
// order gotos were recorded during traversal — backward gotos are
// already wired by the visitor at the point the label is seen, so only
// forward references reach here.
func resolveGotos(g *cfgmodel.Graph, scope *visitor.ScopeContext, warnOnUnresolved bool) ([]warning.Warning, error) {
	var warnings []warning.Warning
	table := scope.LabelTable()

	for _, pg := range scope.PendingGotos() {
		target, ok := table[pg.Label]
		if !ok {
			msg := "goto references undefined label %q"
			if warnOnUnresolved {
				warnings = append(warnings, warning.New(warning.KindUnresolvedGoto, g.Name, pg.GotoID, msg, pg.Label))
				continue
			}
			return warnings, coreerrors.NewInputError(msg, pg.Label)
		}
		g.AddEdge(pg.GotoID, target, "")
	}

	return warnings, nil
}

// wireFunctionCalls resolves every recorded call site's callee name to
// the matching routine's ENTRY/EXIT ids and adds the function_call edge
// from the call site to callee ENTRY and the function_return edge from
// callee EXIT back to the call's designated return point. A callee name
// matching no routine in the unit (e.g. an external library call) is
// left unwired: analysis is scoped to the routines present in the
// input, not whole-program resolution.
func wireFunctionCalls(graphs []*cfgmodel.Graph, scopes []*visitor.ScopeContext) {
	byName := make(map[string]*cfgmodel.Graph, len(graphs))
	for _, g := range graphs {
		byName[g.Name] = g
	}

	for i, g := range graphs {
		for _, call := range scopes[i].PendingCalls() {
			callee, ok := byName[call.CalleeName]
			if !ok || len(callee.EntryIDs) == 0 || len(callee.ExitIDs) == 0 {
				continue
			}
			callSite := g.Nodes[call.CallSiteID]
			calleeEntry := callee.Nodes[callee.EntryIDs[0]]
			cfgmodel.LinkCrossGraph(callSite, calleeEntry, cfgmodel.LabelFunctionCall)

			calleeExit := callee.Nodes[callee.ExitIDs[0]]
			returnPoint := g.Nodes[call.ReturnPointID]
			cfgmodel.LinkCrossGraph(calleeExit, returnPoint, cfgmodel.LabelFunctionReturn)
		}
	}
}

// compactPassthroughs removes every PLACEHOLDER, CASE, and DEFAULT node,
// rethreading each one's predecessors directly to its successors.
// RemoveNode's rethread rule already implements the Cartesian-product
// labeling this needs: a case node's own outgoing edge is unlabeled, so
// its predecessor's label (the case value, or the DEFAULT label, carried
// on the SWITCH_HEAD -> CASE edge) is the one that survives onto the
// rewired SWITCH_HEAD -> body edge. A fallthrough predecessor (the
// previous case's exit) carries no label, so the labels a compacted
// switch produces are the case values dispatched from SWITCH_HEAD, with
// no leftover CASE/DEFAULT nodes. An edge holds one label, so where
// several cases lead to the same node (an empty case falling through),
// that edge keeps the label of the first case compacted and the others'
// values are dropped.
func compactPassthroughs(g *cfgmodel.Graph) {
	for _, id := range g.NodeOrder() {
		node, ok := g.Nodes[id]
		if !ok {
			continue
		}
		switch node.Kind {
		case cfgmodel.KindPlaceholder, cfgmodel.KindCase, cfgmodel.KindDefault:
			g.RemoveNode(id, true)
		}
	}
}

// sweepUnreachable removes every node not reachable from ENTRY by a BFS
// over successor edges. LABEL nodes are always reachable in a
// well-formed graph because a goto that targets one is itself reachable
// transitively from ENTRY, so no special-casing is needed beyond the
// ordinary traversal.
func sweepUnreachable(g *cfgmodel.Graph) {
	if len(g.EntryIDs) == 0 {
		return
	}
	visited := make(map[int]bool)
	queue := append([]int{}, g.EntryIDs...)
	for _, id := range queue {
		visited[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node, ok := g.Nodes[id]
		if !ok {
			continue
		}
		for _, succ := range node.Successors() {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}

	for _, id := range g.NodeOrder() {
		if !visited[id] {
			g.RemoveNode(id, false)
		}
	}
}

// checkInvariants verifies the structural guarantees a finished graph
// must hold, raising InternalAssertion on violation — a defect in a
// visitor, never something well-formed source input can trigger.
func checkInvariants(g *cfgmodel.Graph) error {
	if len(g.EntryIDs) != 1 {
		return coreerrors.NewInternalAssertion(g.Name, "expected exactly one ENTRY node, found %d", len(g.EntryIDs))
	}
	if len(g.ExitIDs) != 1 {
		return coreerrors.NewInternalAssertion(g.Name, "expected exactly one EXIT node, found %d", len(g.ExitIDs))
	}

	for _, id := range g.NodeOrder() {
		node := g.Nodes[id]
		for _, succ := range node.Successors() {
			label := node.EdgeLabels[succ]
			succNode, ok := g.Nodes[succ]
			if !ok {
				// A function_call/function_return edge legitimately
				// targets a node in another routine's Graph; anything
				// else pointing outside this Graph is a defect.
				if label == cfgmodel.LabelFunctionCall || label == cfgmodel.LabelFunctionReturn {
					continue
				}
				return coreerrors.NewInternalAssertion(g.Name, "node %d has successor %d that does not exist", id, succ)
			}
			if !succNode.HasPredecessor(id) {
				return coreerrors.NewInternalAssertion(g.Name, "edge %d->%d is not mirrored in predecessors", id, succ)
			}
		}

		switch node.Kind {
		case cfgmodel.KindCondition, cfgmodel.KindLoopHeader:
			labels := map[string]bool{}
			for _, succ := range node.Successors() {
				labels[node.EdgeLabels[succ]] = true
			}
			if !labels[cfgmodel.LabelTrue] || !labels[cfgmodel.LabelFalse] || len(labels) != 2 {
				return coreerrors.NewInternalAssertion(g.Name, "node %d (%s) must have exactly the labels {true,false}", id, node.Kind)
			}
		case cfgmodel.KindPlaceholder, cfgmodel.KindCase, cfgmodel.KindDefault:
			return coreerrors.NewInternalAssertion(g.Name, "node %d (%s) should have been compacted away by post-processing", id, node.Kind)
		}
	}

	return nil
}
