package defuse

import (
	"testing"

	"github.com/cflowgraph/cflow/pkg/cfgmodel"
)

// buildSimpleDefUseGraph constructs ENTRY -> defNode -> useNode -> EXIT, where
// defNode defines "a" and useNode uses it. Mirrors `int f(){int a=1;
// return a;}`.
func buildSimpleDefUseGraph() (*cfgmodel.Graph, int, int) {
	g := cfgmodel.NewGraph("f", cfgmodel.NewIDAllocator())
	entry := g.NewNode(cfgmodel.KindEntry, "", nil, nil)
	def := g.NewNode(cfgmodel.KindStatement, "int a = 1;", nil, nil)
	use := g.NewNode(cfgmodel.KindReturn, "return a;", nil, nil)
	exit := g.NewNode(cfgmodel.KindExit, "", nil, nil)
	g.Nodes[def].Metadata.Defs.Add("a")
	g.Nodes[use].Metadata.Uses.Add("a")
	g.AddEdge(entry, def, "")
	g.AddEdge(def, use, "")
	g.AddEdge(use, exit, "")
	g.EntryIDs = []int{entry}
	g.ExitIDs = []int{exit}
	return g, def, use
}

func TestAnalyzeBuildsDefUseChainForSimpleAssignment(t *testing.T) {
	g, def, use := buildSimpleDefUseGraph()

	chains, err := Analyze(g, 64, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := Def{Variable: "a", NodeID: def}
	uses := chains.DefUse[d]
	if len(uses) != 1 || uses[0] != use {
		t.Fatalf("expected def of a at node %d to reach use at node %d, got %v", def, use, uses)
	}

	defsAtUse := chains.UseDef[use]
	if len(defsAtUse) != 1 || defsAtUse[0] != d {
		t.Fatalf("expected use at node %d to resolve back to def %v, got %v", use, d, defsAtUse)
	}
}

func TestAnalyzeParametersCountAsDefinitionsAtEntry(t *testing.T) {
	// int g(int a){int b=a+1; return b;}
	g := cfgmodel.NewGraph("g", cfgmodel.NewIDAllocator())
	g.Parameters = []string{"a"}
	entry := g.NewNode(cfgmodel.KindEntry, "", nil, nil)
	def := g.NewNode(cfgmodel.KindStatement, "int b = a + 1;", nil, nil)
	use := g.NewNode(cfgmodel.KindReturn, "return b;", nil, nil)
	exit := g.NewNode(cfgmodel.KindExit, "", nil, nil)
	g.Nodes[def].Metadata.Uses.Add("a")
	g.Nodes[def].Metadata.Defs.Add("b")
	g.Nodes[use].Metadata.Uses.Add("b")
	g.AddEdge(entry, def, "")
	g.AddEdge(def, use, "")
	g.AddEdge(use, exit, "")
	g.EntryIDs = []int{entry}
	g.ExitIDs = []int{exit}

	chains, err := Analyze(g, 64, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paramDef := Def{Variable: "a", NodeID: entry}
	uses := chains.DefUse[paramDef]
	if len(uses) != 1 || uses[0] != def {
		t.Fatalf("expected parameter a's ENTRY definition to reach its use at node %d, got %v", def, uses)
	}
}

func TestAnalyzeSelfReferenceUsesPriorDefinitionAndItself(t *testing.T) {
	// a = 1; a++; — the increment uses the prior value of a (the first
	// statement's definition) before redefining it, and that redefinition
	// is itself a def-and-use of a in the same node, so a++'s use-def set
	// must include both the earlier def and a++'s own self-def.
	g := cfgmodel.NewGraph("f", cfgmodel.NewIDAllocator())
	entry := g.NewNode(cfgmodel.KindEntry, "", nil, nil)
	firstDef := g.NewNode(cfgmodel.KindStatement, "a = 1;", nil, nil)
	incr := g.NewNode(cfgmodel.KindStatement, "a++;", nil, nil)
	exit := g.NewNode(cfgmodel.KindExit, "", nil, nil)
	g.Nodes[firstDef].Metadata.Defs.Add("a")
	g.Nodes[incr].Metadata.Uses.Add("a")
	g.Nodes[incr].Metadata.Defs.Add("a")
	g.AddEdge(entry, firstDef, "")
	g.AddEdge(firstDef, incr, "")
	g.AddEdge(incr, exit, "")
	g.EntryIDs = []int{entry}
	g.ExitIDs = []int{exit}

	chains, err := Analyze(g, 64, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolvedDefs := chains.UseDef[incr]
	if len(resolvedDefs) != 2 {
		t.Fatalf("expected a++ to resolve to two defs (the prior statement and itself), got %v", resolvedDefs)
	}
	foundPrior, foundSelf := false, false
	for _, d := range resolvedDefs {
		if d.NodeID == firstDef {
			foundPrior = true
		}
		if d.NodeID == incr {
			foundSelf = true
		}
	}
	if !foundPrior || !foundSelf {
		t.Fatalf("expected both the prior definition and the self-def to resolve, got %v", resolvedDefs)
	}

	selfDef := Def{Variable: "a", NodeID: incr}
	if uses := chains.DefUse[selfDef]; len(uses) != 1 || uses[0] != incr {
		t.Fatalf("expected a++'s self-def to reach its own node as a use, got %v", uses)
	}
}

// emptyChains returns a Chains with initialized, empty maps, standing in
// for a routine with no reaching-definitions results relevant to the
// test at hand.
func emptyChains() *Chains {
	return &Chains{DefUse: make(map[Def][]int), UseDef: make(map[int][]Def)}
}

func TestResolveParameterAliasesMapsArgumentToParameter(t *testing.T) {
	// int m(){int x=5; return g(x);}  int g(int a){...}
	caller := cfgmodel.NewGraph("m", cfgmodel.NewIDAllocator())
	callSite := caller.NewNode(cfgmodel.KindStatement, "g(x)", nil, nil)
	caller.Nodes[callSite].Metadata.Calls.Add("g")

	callee := cfgmodel.NewGraph("g", cfgmodel.NewIDAllocator())
	callee.Parameters = []string{"a"}

	warnings, aliases := ResolveParameterAliases(caller, callee, emptyChains(), emptyChains(), true)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings on a matching-arity call, got %v", warnings)
	}
	if got := aliases["a"]; len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected parameter a aliased to argument x, got %v", got)
	}
}

func TestResolveParameterAliasesWarnsOnArityMismatch(t *testing.T) {
	caller := cfgmodel.NewGraph("m", cfgmodel.NewIDAllocator())
	callSite := caller.NewNode(cfgmodel.KindStatement, "g(x, y)", nil, nil)
	caller.Nodes[callSite].Metadata.Calls.Add("g")

	callee := cfgmodel.NewGraph("g", cfgmodel.NewIDAllocator())
	callee.Parameters = []string{"a"}

	warnings, aliases := ResolveParameterAliases(caller, callee, emptyChains(), emptyChains(), true)
	if len(warnings) != 1 {
		t.Fatalf("expected one arity-mismatch warning, got %d", len(warnings))
	}
	if len(aliases) != 0 {
		t.Fatalf("expected no aliases recorded on an arity mismatch, got %v", aliases)
	}
}

func TestResolveParameterAliasesSkipsNonIdentifierArguments(t *testing.T) {
	caller := cfgmodel.NewGraph("m", cfgmodel.NewIDAllocator())
	callSite := caller.NewNode(cfgmodel.KindStatement, "g(5)", nil, nil)
	caller.Nodes[callSite].Metadata.Calls.Add("g")

	callee := cfgmodel.NewGraph("g", cfgmodel.NewIDAllocator())
	callee.Parameters = []string{"a"}

	_, aliases := ResolveParameterAliases(caller, callee, emptyChains(), emptyChains(), false)
	if len(aliases) != 0 {
		t.Fatalf("expected a literal argument not to be recorded as an alias, got %v", aliases)
	}
}

func TestResolveParameterAliasesExtendsCalleeChainWithCallerDefinition(t *testing.T) {
	// int main(){int x=5; return f(x);}  int f(int a){return a;}
	// f's use of a must resolve to two defs: ENTRY(f) and the x=5 site
	// in main.
	alloc := cfgmodel.NewIDAllocator()

	caller := cfgmodel.NewGraph("main", alloc)
	callerEntry := caller.NewNode(cfgmodel.KindEntry, "", nil, nil)
	xDef := caller.NewNode(cfgmodel.KindStatement, "int x = 5;", nil, nil)
	callSite := caller.NewNode(cfgmodel.KindStatement, "f(x)", nil, nil)
	caller.Nodes[xDef].Metadata.Defs.Add("x")
	caller.Nodes[callSite].Metadata.Uses.Add("x")
	caller.Nodes[callSite].Metadata.Calls.Add("f")
	caller.AddEdge(callerEntry, xDef, "")
	caller.AddEdge(xDef, callSite, "")
	caller.EntryIDs = []int{callerEntry}

	callee := cfgmodel.NewGraph("f", alloc)
	callee.Parameters = []string{"a"}
	calleeEntry := callee.NewNode(cfgmodel.KindEntry, "", nil, nil)
	useA := callee.NewNode(cfgmodel.KindReturn, "return a;", nil, nil)
	callee.Nodes[useA].Metadata.Uses.Add("a")
	callee.AddEdge(calleeEntry, useA, "")
	callee.EntryIDs = []int{calleeEntry}

	callerChains, err := Analyze(caller, 64, 1000)
	if err != nil {
		t.Fatalf("unexpected error analyzing caller: %v", err)
	}
	calleeChains, err := Analyze(callee, 64, 1000)
	if err != nil {
		t.Fatalf("unexpected error analyzing callee: %v", err)
	}

	paramDef := Def{Variable: "a", NodeID: calleeEntry}
	if uses := calleeChains.DefUse[paramDef]; len(uses) != 1 || uses[0] != useA {
		t.Fatalf("expected a's ENTRY binding to reach its use before alias resolution, got %v", uses)
	}

	_, aliases := ResolveParameterAliases(caller, callee, callerChains, calleeChains, false)
	if got := aliases["a"]; len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected parameter a aliased to argument x, got %v", got)
	}

	resolved := calleeChains.UseDef[useA]
	if len(resolved) != 2 {
		t.Fatalf("expected a's use to resolve to two defs (ENTRY(f) and x=5 in main), got %v", resolved)
	}
	foundEntry, foundCaller := false, false
	for _, d := range resolved {
		if d == paramDef {
			foundEntry = true
		}
		if d.Variable == "x" && d.NodeID == xDef {
			foundCaller = true
		}
	}
	if !foundEntry || !foundCaller {
		t.Fatalf("expected resolved defs to include both ENTRY(f) and main's x=5, got %v", resolved)
	}

	xDefKey := Def{Variable: "x", NodeID: xDef}
	if uses := calleeChains.DefUse[xDefKey]; len(uses) != 1 || uses[0] != useA {
		t.Fatalf("expected main's x=5 def-use chain to be extended with f's use of a, got %v", uses)
	}
}

func TestExtractCallArgumentsHandlesNestedParens(t *testing.T) {
	args := extractCallArguments("f(g(a, b), c)", "f")
	if len(args) != 2 || args[0] != "g(a, b)" || args[1] != "c" {
		t.Fatalf("expected two arguments [g(a, b) c], got %v", args)
	}
}

func TestExtractCallArgumentsHandlesEmptyArgumentList(t *testing.T) {
	args := extractCallArguments("f()", "f")
	if len(args) != 0 {
		t.Fatalf("expected no arguments for an empty call, got %v", args)
	}
}

func TestIsIdentifierRejectsNumbersAndLeadingDigits(t *testing.T) {
	if !isIdentifier("x") || !isIdentifier("_foo") || !isIdentifier("foo2") {
		t.Fatalf("expected valid identifiers to be accepted")
	}
	if isIdentifier("5") || isIdentifier("2x") || isIdentifier("") {
		t.Fatalf("expected numeric literals and empty strings to be rejected")
	}
}
