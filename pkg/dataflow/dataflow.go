// Package dataflow implements a generic monotone dataflow solver,
// forward or backward, parameterized by GEN/KILL/meet/transfer over a
// fact universe, solved with a FIFO worklist. The fact-set
// representation is chosen per analysis by fact-count: a plain map
// below a configurable threshold, a Roaring-bitmap-backed set at or
// above it, mirroring the sparse-bitset architecture panbanda-omen's
// HierarchicalBitSet uses for large reachable-node sets.
package dataflow

import (
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/coreerrors"
)

// FactID indexes into the analysis's fact universe. Callers assign
// these however suits their analysis; defuse.ReachingDefinitions maps
// each (variable, defining-node) pair to one FactID.
type FactID uint32

// FactSet is a mutable set of FactIDs. Implementations must support the
// meet operation as an in-place union via Union.
type FactSet interface {
	Add(FactID)
	Contains(FactID) bool
	Union(FactSet) (changed bool)
	Clone() FactSet
	Equal(FactSet) bool
	Items() []FactID
}

// Direction selects which way facts flow through the graph. Forward
// problems (Reaching Definitions) propagate from ENTRY towards EXIT;
// Backward problems (Live Variables) propagate from EXIT towards
// ENTRY. Both are instances of the same worklist algorithm with the
// predecessor/successor roles swapped.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Problem is one instantiation of the generic solver: the set of program
// points to solve over (by node id, in a graph-appropriate order), and
// the GEN/KILL/transfer functions the instantiation supplies.
type Problem struct {
	// Graph is the CFG the analysis runs over.
	Graph *cfgmodel.Graph
	// Direction picks the traversal order. The zero value is Forward.
	Direction Direction
	// Gen returns the facts a node generates.
	Gen func(nodeID int) []FactID
	// Kill returns the facts a node kills (removed from the incoming set
	// before Gen's facts are added).
	Kill func(nodeID int) []FactID
	// EntryFacts seeds the facts available at the boundary: ENTRY for a
	// Forward problem (e.g. parameters), EXIT for a Backward one.
	EntryFacts []FactID
	// NewFactSet constructs an empty FactSet; the caller picks the
	// bitset or map implementation based on universe size.
	NewFactSet func() FactSet
	// MaxIterations bounds the worklist loop as a safety trip-wire
	// against a non-monotone Gen/Kill (coreconfig.Options.MaxWorklistIterations).
	MaxIterations int
}

// Result holds the solved fact sets for every node, keyed by node id.
// For a Forward problem, In is the set flowing in from predecessors and
// Out is In transformed by Kill/Gen, flowing out to successors. For a
// Backward problem the roles mirror the traversal: In is the set
// flowing in from successors, and Out is In transformed by Kill/Gen,
// flowing out to predecessors — i.e. Result.In is what Live Variables
// calls LiveOut, and Result.Out is what it calls LiveIn.
type Result struct {
	In  map[int]FactSet
	Out map[int]FactSet
}

// Solve runs the generic monotone dataflow algorithm. For a Forward
// problem, for each node n: in[n] = union of out[p] over predecessors
// p, out[n] = (in[n] - kill[n]) + gen[n], and a change to out[n]
// re-enqueues n's successors. A Backward problem runs the identical
// algorithm with predecessor and successor swapped throughout, and
// EntryFacts seeded at Graph.ExitIDs instead of Graph.EntryIDs. In both
// directions the worklist starts with every node in creation order. Both
// converge when the queue empties at a fixed point.
func Solve(p Problem) (*Result, error) {
	order := p.Graph.NodeOrder()
	result := &Result{
		In:  make(map[int]FactSet, len(order)),
		Out: make(map[int]FactSet, len(order)),
	}

	for _, id := range order {
		result.In[id] = p.NewFactSet()
		result.Out[id] = p.NewFactSet()
	}

	queue := append([]int{}, order...)
	inQueue := make(map[int]bool, len(order))
	for _, id := range order {
		inQueue[id] = true
	}

	boundary := p.Graph.EntryIDs
	upstream := func(n *cfgmodel.Node) []int { return n.Predecessors() }
	downstream := func(n *cfgmodel.Node) []int { return n.Successors() }
	if p.Direction == Backward {
		boundary = p.Graph.ExitIDs
		upstream, downstream = downstream, upstream
	}

	iterations := 0
	for len(queue) > 0 {
		iterations++
		if p.MaxIterations > 0 && iterations > p.MaxIterations {
			return nil, coreerrors.NewInternalAssertion(p.Graph.Name, "dataflow worklist exceeded %d iterations without converging", p.MaxIterations)
		}

		id := queue[0]
		queue = queue[1:]
		inQueue[id] = false

		node, ok := p.Graph.Nodes[id]
		if !ok {
			continue
		}

		inSet := p.NewFactSet()
		for _, up := range upstream(node) {
			if out, ok := result.Out[up]; ok {
				inSet.Union(out)
			}
		}
		for _, f := range p.EntryFacts {
			if containsAny(boundary, id) {
				inSet.Add(f)
			}
		}
		result.In[id] = inSet

		outSet := inSet.Clone()
		for _, f := range p.Kill(id) {
			outSet = removeFact(p, outSet, f)
		}
		for _, f := range p.Gen(id) {
			outSet.Add(f)
		}

		if !outSet.Equal(result.Out[id]) {
			result.Out[id] = outSet
			for _, down := range downstream(node) {
				if !inQueue[down] {
					queue = append(queue, down)
					inQueue[down] = true
				}
			}
		}
	}

	return result, nil
}

func containsAny(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeFact rebuilds a FactSet without f, since FactSet exposes no
// direct removal (kill sets are usually small relative to the universe,
// so this is not the hot path map/bitset implementations need to optimize).
func removeFact(p Problem, s FactSet, f FactID) FactSet {
	out := p.NewFactSet()
	for _, item := range s.Items() {
		if item != f {
			out.Add(item)
		}
	}
	return out
}
