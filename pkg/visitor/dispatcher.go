package visitor

import (
	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/sourcetree"
)

// Handler builds the fragment for one syntax-tree node kind. Handlers
// receive the shared RoutineContext so they can allocate nodes, push and
// pop scope frames, and recurse into RoutineContext.Visit for children.
type Handler func(rc *RoutineContext, n sourcetree.Node) Fragment

// RoutineContext carries everything a single routine's traversal shares:
// the Graph being built, its scoping stacks, the language's handler
// table and comment predicate, and the warnings accumulated along the
// way. A registered-handler dispatch table stands in for a dynamic
// visit_<kind> method-name lookup, since Go has no equivalent reflection
// idiom worth reaching for here.
type RoutineContext struct {
	Graph     *cfgmodel.Graph
	Scope     *ScopeContext
	Handlers  map[string]Handler
	IsComment sourcetree.CommentPredicate

	Warnings []warning.Warning
}

// NewRoutineContext builds a RoutineContext for one routine's traversal.
func NewRoutineContext(g *cfgmodel.Graph, handlers map[string]Handler, isComment sourcetree.CommentPredicate) *RoutineContext {
	return &RoutineContext{
		Graph:     g,
		Scope:     NewScopeContext(),
		Handlers:  handlers,
		IsComment: isComment,
	}
}

// Warn records a non-fatal StructuralWarning.
func (rc *RoutineContext) Warn(kind warning.Kind, nodeID int, format string, args ...interface{}) {
	rc.Warnings = append(rc.Warnings, warning.New(kind, rc.Graph.Name, nodeID, format, args...))
}

// Visit dispatches n to its registered handler by AST kind, falling back
// to the framework default for any kind no language visitor recognizes:
// a generic STATEMENT node, plus a language-independent "identifier" use
// scan so unmodeled constructs at least contribute to def-use data
// rather than disappearing silently.
func (rc *RoutineContext) Visit(n sourcetree.Node) Fragment {
	if n.IsNil() {
		return Fragment{}
	}
	if h, ok := rc.Handlers[n.Kind()]; ok {
		return h(rc, n)
	}
	return rc.defaultHandler(n)
}

// VisitSequence visits each of n's non-comment children and chains their
// fragments in order, the shape every compound/block-statement handler
// needs.
func (rc *RoutineContext) VisitSequence(children []sourcetree.Node) Fragment {
	frags := make([]Fragment, 0, len(children))
	for _, c := range children {
		frags = append(frags, rc.Visit(c))
	}
	return ChainAll(rc.Graph, frags)
}

// defaultHandler covers any AST kind without a registered handler: one
// generic STATEMENT node spanning the whole subtree, with every
// descendant "identifier" token recorded as a use. This keeps analysis
// best-effort on constructs a language visitor hasn't modeled instead of
// failing the whole routine.
func (rc *RoutineContext) defaultHandler(n sourcetree.Node) Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindStatement, n.Text(), &start, &end)
	rc.Warn(warning.KindUnknownNodeKind, id, "no visitor registered for node kind %q", n.Kind())
	scanIdentifierUses(n, rc.Graph.Nodes[id], rc.IsComment)
	return SingleNode(id)
}

// scanIdentifierUses walks a subtree collecting every bare "identifier"
// token as a use. It is intentionally shallow and language-agnostic: it
// has no notion of declarations or assignment targets, so it only ever
// contributes to Uses, never Defs or Calls.
func scanIdentifierUses(n sourcetree.Node, node *cfgmodel.Node, isComment sourcetree.CommentPredicate) {
	if n.Kind() == "identifier" {
		node.Metadata.Uses.Add(n.Text())
		return
	}
	for _, c := range n.Children(isComment) {
		scanIdentifierUses(c, node, isComment)
	}
}
