package defuse

import (
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/dataflow"
)

// LiveVariables holds, for every node in a routine, the set of
// variables live coming into that node (LiveIn) and live going out of
// it towards its successors (LiveOut). A variable is live at a point
// if some path from that point uses it before redefining it.
type LiveVariables struct {
	LiveIn  map[int][]string
	LiveOut map[int][]string
}

// liveVariableUniverse assigns one FactID per distinct variable name
// referenced anywhere in g, by either a def or a use. Unlike Reaching
// Definitions, live variables are a property of the variable alone, not
// of (variable, defining-node) pairs.
type liveVariableUniverse struct {
	names  []string
	factID map[string]dataflow.FactID
}

func buildLiveVariableUniverse(g *cfgmodel.Graph) *liveVariableUniverse {
	st := &liveVariableUniverse{factID: make(map[string]dataflow.FactID)}
	add := func(v string) {
		if _, ok := st.factID[v]; ok {
			return
		}
		st.factID[v] = dataflow.FactID(len(st.names))
		st.names = append(st.names, v)
	}
	for _, id := range g.NodeOrder() {
		node := g.Nodes[id]
		for _, v := range node.Metadata.Defs.Items() {
			add(v)
		}
		for _, v := range node.Metadata.Uses.Items() {
			add(v)
		}
	}
	return st
}

// AnalyzeLiveVariables runs Live Variable analysis over g as a backward
// instantiation of the same generic worklist solver Reaching
// Definitions uses forward: GEN(n) is the set of variables n uses,
// KILL(n) is the set of variables n (re)defines, and facts propagate
// from EXIT towards ENTRY. A variable in LiveIn(n) but absent from
// LiveOut(n) is used at n itself and is dead once n has run; a variable
// that drops out of LiveOut entirely past some point has become dead.
func AnalyzeLiveVariables(g *cfgmodel.Graph, bitsetThreshold, maxIterations int) (*LiveVariables, error) {
	st := buildLiveVariableUniverse(g)

	var exitFacts []dataflow.FactID
	// Live Variables has no analog of Reaching Definitions' synthetic
	// ENTRY-parameter bindings: nothing is live past EXIT, so the
	// boundary condition seeds no facts.

	problem := dataflow.Problem{
		Graph:      g,
		Direction:  dataflow.Backward,
		EntryFacts: exitFacts,
		NewFactSet: dataflow.FactSetFactory(len(st.names), bitsetThreshold),
		Gen: func(nodeID int) []dataflow.FactID {
			node := g.Nodes[nodeID]
			if node == nil {
				return nil
			}
			var out []dataflow.FactID
			for _, v := range node.Metadata.Uses.Items() {
				out = append(out, st.factID[v])
			}
			return out
		},
		Kill: func(nodeID int) []dataflow.FactID {
			node := g.Nodes[nodeID]
			if node == nil {
				return nil
			}
			var out []dataflow.FactID
			for _, v := range node.Metadata.Defs.Items() {
				out = append(out, st.factID[v])
			}
			return out
		},
		MaxIterations: maxIterations,
	}

	result, err := dataflow.Solve(problem)
	if err != nil {
		return nil, err
	}

	live := &LiveVariables{
		LiveIn:  make(map[int][]string, len(g.Nodes)),
		LiveOut: make(map[int][]string, len(g.Nodes)),
	}
	for _, id := range g.NodeOrder() {
		// Result.Out is the transformed (GEN/KILL-applied) set flowing
		// towards predecessors, i.e. LiveIn; Result.In is the raw union
		// collected from successors, i.e. LiveOut. See dataflow.Result's
		// doc comment for why the roles swap under Direction=Backward.
		live.LiveIn[id] = namesOf(st, result.Out[id])
		live.LiveOut[id] = namesOf(st, result.In[id])
	}
	return live, nil
}

func namesOf(st *liveVariableUniverse, s dataflow.FactSet) []string {
	if s == nil {
		return nil
	}
	items := s.Items()
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, fid := range items {
		out = append(out, st.names[fid])
	}
	return out
}
