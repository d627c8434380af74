package visitor

import (
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/sourcetree"
)

// BuildRoutine constructs the Graph for one function/method body: it
// creates the routine's ENTRY and EXIT nodes, visits the body through
// the language's handler table, chains every fragment left open at the
// end of the traversal into EXIT, and returns the scoping state so the
// caller (pkg/analysis, once every routine in the translation unit has
// been built) can resolve pending gotos and cross-routine call edges.
//
// A body with no statements (an empty block) still produces a valid
// two-node ENTRY->EXIT graph.
func BuildRoutine(
	name string,
	parameters []string,
	statements []sourcetree.Node,
	handlers map[string]Handler,
	isComment sourcetree.CommentPredicate,
	alloc *cfgmodel.IDAllocator,
) (*cfgmodel.Graph, *ScopeContext) {
	g := cfgmodel.NewGraph(name, alloc)
	g.Parameters = parameters

	entryID := g.NewNode(cfgmodel.KindEntry, name, nil, nil)
	exitID := g.NewNode(cfgmodel.KindExit, name, nil, nil)
	g.EntryIDs = []int{entryID}
	g.ExitIDs = []int{exitID}
	for _, p := range parameters {
		g.Nodes[entryID].Metadata.Defs.Add(p)
	}

	rc := NewRoutineContext(g, handlers, isComment)
	bodyFrag := ChainAll(g, visitAll(rc, statements))

	if bodyFrag.EntryID != 0 {
		Chain(g, Fragment{EntryID: entryID, ExitIDs: []int{entryID}}, bodyFrag)
		for _, exit := range bodyFrag.ExitIDs {
			g.AddEdge(exit, exitID, "")
		}
	} else {
		g.AddEdge(entryID, exitID, "")
	}

	return g, rc.Scope
}

func visitAll(rc *RoutineContext, nodes []sourcetree.Node) []Fragment {
	frags := make([]Fragment, 0, len(nodes))
	for _, n := range nodes {
		frags = append(frags, rc.Visit(n))
	}
	return frags
}
