package java

import (
	"testing"

	tsjava "github.com/smacker/go-tree-sitter/java"
	"github.com/stretchr/testify/require"

	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/sourcetree"
	"github.com/cflowgraph/cflow/pkg/visitor"
)

func parseJava(t *testing.T, src string) *sourcetree.Tree {
	t.Helper()
	tree, err := sourcetree.Parse([]byte(src), tsjava.GetLanguage())
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	require.False(t, tree.Root().HasError())
	return tree
}

func TestMethodsFindsMethodsAndConstructors(t *testing.T) {
	tree := parseJava(t, `
class Widget {
	Widget() {}
	int size() { return 0; }
}
`)
	methods := Methods(tree.Root())
	require.Len(t, methods, 2)
}

func TestSignatureExtractsNameParamsAndBody(t *testing.T) {
	tree := parseJava(t, `
class Calc {
	int add(int a, int b) { return a + b; }
}
`)
	methods := Methods(tree.Root())
	require.Len(t, methods, 1)

	name, params, body := Signature(methods[0])
	require.Equal(t, "add", name)
	require.Equal(t, []string{"a", "b"}, params)
	require.NotEmpty(t, body)
}

func buildJavaRoutine(t *testing.T, src string) (*cfgmodel.Graph, *visitor.ScopeContext) {
	t.Helper()
	tree := parseJava(t, src)
	methods := Methods(tree.Root())
	require.Len(t, methods, 1)
	name, params, body := Signature(methods[0])
	alloc := cfgmodel.NewIDAllocator()
	return visitor.BuildRoutine(name, params, body, Handlers(), IsComment, alloc)
}

func TestEnhancedForDefinesLoopVariable(t *testing.T) {
	g, _ := buildJavaRoutine(t, `
class C {
	int sum(int[] xs) {
		int total = 0;
		for (int x : xs) {
			total = total + x;
		}
		return total;
	}
}
`)
	headers := 0
	var loopVarDefined bool
	for _, id := range g.NodeOrder() {
		n := g.Nodes[id]
		if n.Kind == cfgmodel.KindLoopHeader {
			headers++
			if n.Metadata.Defs.Contains("x") {
				loopVarDefined = true
			}
		}
	}
	require.Equal(t, 1, headers)
	require.True(t, loopVarDefined)
}

func TestThrowStatementEdgesToExitLikeReturn(t *testing.T) {
	g, _ := buildJavaRoutine(t, `
class C {
	void check(boolean ok) {
		if (!ok) {
			throw new RuntimeException("bad");
		}
	}
}
`)
	found := false
	for _, id := range g.NodeOrder() {
		n := g.Nodes[id]
		if n.Kind == cfgmodel.KindReturn {
			for _, succ := range n.Successors() {
				if succ == g.ExitIDs[0] {
					found = true
				}
			}
		}
	}
	require.True(t, found, "expected the throw statement's node to edge directly to EXIT")
}

func TestSwitchLabelValueStripsCasePrefix(t *testing.T) {
	g, _ := buildJavaRoutine(t, `
class C {
	int classify(int x) {
		switch (x) {
			case 1:
				return 1;
			default:
				return 0;
		}
	}
}
`)
	var caseNode *cfgmodel.Node
	for _, id := range g.NodeOrder() {
		if g.Nodes[id].Kind == cfgmodel.KindCase {
			caseNode = g.Nodes[id]
		}
	}
	require.NotNil(t, caseNode)
	require.Equal(t, "1", caseNode.SourceText)
}

func TestMethodInvocationRecordsCallAndReceiverUse(t *testing.T) {
	g, _ := buildJavaRoutine(t, `
class C {
	int compute(Helper h) {
		int r = h.value();
		return r;
	}
}
`)
	var callNode *cfgmodel.Node
	for _, id := range g.NodeOrder() {
		if g.Nodes[id].Metadata.Calls.Contains("value") {
			callNode = g.Nodes[id]
		}
	}
	require.NotNil(t, callNode)
	require.True(t, callNode.Metadata.Uses.Contains("h"))
}
