package visitor

import (
	"testing"

	"github.com/cflowgraph/cflow/pkg/cfgmodel"
)

func newTestGraph() *cfgmodel.Graph {
	return cfgmodel.NewGraph("test", cfgmodel.NewIDAllocator())
}

func TestChainConnectsExitsToEntry(t *testing.T) {
	g := newTestGraph()
	a := g.NewNode(cfgmodel.KindStatement, "", nil, nil)
	b := g.NewNode(cfgmodel.KindStatement, "", nil, nil)

	result := Chain(g, SingleNode(a), SingleNode(b))

	if result.EntryID != a {
		t.Fatalf("expected chained entry to be a, got %d", result.EntryID)
	}
	if len(result.ExitIDs) != 1 || result.ExitIDs[0] != b {
		t.Fatalf("expected chained exit to be b, got %v", result.ExitIDs)
	}
	if !g.Nodes[a].HasSuccessor(b) {
		t.Fatalf("expected a->b edge from chaining")
	}
}

func TestChainWithDeadEndLeavesBDisconnected(t *testing.T) {
	g := newTestGraph()
	a := g.NewNode(cfgmodel.KindReturn, "", nil, nil)
	b := g.NewNode(cfgmodel.KindStatement, "", nil, nil)

	result := Chain(g, DeadEnd(a), SingleNode(b))

	if g.Nodes[a].HasSuccessor(b) {
		t.Fatalf("expected no edge out of a dead end")
	}
	if result.EntryID != a {
		t.Fatalf("expected entry to remain a")
	}
}

func TestChainAllEmptyReturnsZeroFragment(t *testing.T) {
	result := ChainAll(newTestGraph(), nil)
	if result.EntryID != 0 || result.ExitIDs != nil {
		t.Fatalf("expected zero fragment for empty sequence, got %+v", result)
	}
}

func TestChainAllSequencesInOrder(t *testing.T) {
	g := newTestGraph()
	a := g.NewNode(cfgmodel.KindStatement, "", nil, nil)
	b := g.NewNode(cfgmodel.KindStatement, "", nil, nil)
	c := g.NewNode(cfgmodel.KindStatement, "", nil, nil)

	result := ChainAll(g, []Fragment{SingleNode(a), SingleNode(b), SingleNode(c)})

	if result.EntryID != a {
		t.Fatalf("expected entry a, got %d", result.EntryID)
	}
	if len(result.ExitIDs) != 1 || result.ExitIDs[0] != c {
		t.Fatalf("expected exit c, got %v", result.ExitIDs)
	}
	if !g.Nodes[a].HasSuccessor(b) || !g.Nodes[b].HasSuccessor(c) {
		t.Fatalf("expected a->b->c chain")
	}
}

func TestBranchWithBothArmsHasTrueAndFalseLabels(t *testing.T) {
	g := newTestGraph()
	cond := g.NewNode(cfgmodel.KindCondition, "", nil, nil)
	trueNode := g.NewNode(cfgmodel.KindStatement, "", nil, nil)
	falseNode := g.NewNode(cfgmodel.KindStatement, "", nil, nil)

	result := Branch(g, cond, SingleNode(trueNode), true, SingleNode(falseNode), true)

	if g.Nodes[cond].EdgeLabels[trueNode] != cfgmodel.LabelTrue {
		t.Fatalf("expected true label on true arm")
	}
	if g.Nodes[cond].EdgeLabels[falseNode] != cfgmodel.LabelFalse {
		t.Fatalf("expected false label on false arm")
	}
	if len(result.ExitIDs) != 2 {
		t.Fatalf("expected two open exits, got %v", result.ExitIDs)
	}
}

func TestBranchWithMissingArmUsesPlaceholder(t *testing.T) {
	g := newTestGraph()
	cond := g.NewNode(cfgmodel.KindCondition, "", nil, nil)
	trueNode := g.NewNode(cfgmodel.KindStatement, "", nil, nil)

	Branch(g, cond, SingleNode(trueNode), true, Fragment{}, false)

	labels := map[string]bool{}
	for _, succ := range g.Nodes[cond].Successors() {
		labels[g.Nodes[cond].EdgeLabels[succ]] = true
	}
	if !labels[cfgmodel.LabelTrue] || !labels[cfgmodel.LabelFalse] {
		t.Fatalf("expected both true and false labels even with a missing else arm, got %v", labels)
	}
}

func TestLoopWiresBodyBackToHeaderAndFalseToExit(t *testing.T) {
	g := newTestGraph()
	header := g.NewNode(cfgmodel.KindLoopHeader, "", nil, nil)
	body := g.NewNode(cfgmodel.KindStatement, "", nil, nil)
	exitPh := Placeholder(g)

	result := Loop(g, header, SingleNode(body), true, exitPh)

	if g.Nodes[header].EdgeLabels[body] != cfgmodel.LabelTrue {
		t.Fatalf("expected true edge into loop body")
	}
	if !g.Nodes[body].HasSuccessor(header) {
		t.Fatalf("expected body to loop back to header")
	}
	if g.Nodes[header].EdgeLabels[exitPh] != cfgmodel.LabelFalse {
		t.Fatalf("expected false edge to loop exit")
	}
	if len(result.ExitIDs) != 1 || result.ExitIDs[0] != exitPh {
		t.Fatalf("expected single open exit at exitPh, got %v", result.ExitIDs)
	}
}

func TestPlaceholderAllocatesPlaceholderKind(t *testing.T) {
	g := newTestGraph()
	id := Placeholder(g)
	if g.Nodes[id].Kind != cfgmodel.KindPlaceholder {
		t.Fatalf("expected placeholder kind, got %s", g.Nodes[id].Kind)
	}
}
