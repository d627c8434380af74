// Package cfgmodel defines the Control-Flow Graph data model shared by
// every language visitor: node kinds, per-routine graphs, and the
// mutation operations the visitor framework and post-processor use to
// build and normalize them.
package cfgmodel

// NodeKind tags the role a CFG node plays. PLACEHOLDER is internal-only:
// it never survives past the post-processor.
type NodeKind string

const (
	KindEntry       NodeKind = "ENTRY"
	KindExit        NodeKind = "EXIT"
	KindStatement   NodeKind = "STATEMENT"
	KindCondition   NodeKind = "CONDITION"
	KindLoopHeader  NodeKind = "LOOP_HEADER"
	KindBreak       NodeKind = "BREAK"
	KindContinue    NodeKind = "CONTINUE"
	KindReturn      NodeKind = "RETURN"
	KindSwitchHead  NodeKind = "SWITCH_HEAD"
	KindCase        NodeKind = "CASE"
	KindDefault     NodeKind = "DEFAULT"
	KindLabel       NodeKind = "LABEL"
	KindGoto        NodeKind = "GOTO"
	KindPlaceholder NodeKind = "PLACEHOLDER"
)

// Edge label strings.
const (
	LabelTrue           = "true"
	LabelFalse          = "false"
	LabelDefault        = "default"
	LabelFunctionCall   = "function_call"
	LabelFunctionReturn = "function_return"
)

// Metadata holds the three identifier sets recorded on a node: variables
// defined, variables used, and call target names invoked at that node.
// Each is an insertion-ordered set of names.
type Metadata struct {
	Defs  *OrderedStringSet
	Uses  *OrderedStringSet
	Calls *OrderedStringSet
}

func newMetadata() Metadata {
	return Metadata{
		Defs:  NewOrderedStringSet(),
		Uses:  NewOrderedStringSet(),
		Calls: NewOrderedStringSet(),
	}
}

// Node is one CFG program point. Successors is an ordered set (insertion
// order preserved); Predecessors and EdgeLabels are maintained by Graph
// mutation methods and should not be edited directly.
type Node struct {
	ID         int
	Kind       NodeKind
	SourceText string
	StartByte  *int
	EndByte    *int

	successors   *OrderedIntSet
	predecessors *OrderedIntSet
	EdgeLabels   map[int]string

	Metadata Metadata
}

// Successors returns the node's outgoing edge targets in insertion order.
func (n *Node) Successors() []int { return n.successors.Items() }

// Predecessors returns the node's incoming edge sources.
func (n *Node) Predecessors() []int { return n.predecessors.Items() }

// HasSuccessor reports whether to is already a successor of n.
func (n *Node) HasSuccessor(to int) bool { return n.successors.Contains(to) }

// HasPredecessor reports whether from is already a predecessor of n.
func (n *Node) HasPredecessor(from int) bool { return n.predecessors.Contains(from) }

// Graph is one routine's Control-Flow Graph: an id-keyed node map plus
// its routine-level bookkeeping (name, parameters, entry/exit ids).
type Graph struct {
	Name       string
	Parameters []string

	EntryIDs []int
	ExitIDs  []int

	alloc     *IDAllocator
	nodeOrder []int
	Nodes     map[int]*Node
}

// NewGraph creates an empty Graph for routine name, allocating node ids
// from alloc. Passing a shared allocator across routines from the same
// translation unit is required for cross-routine function-call edges to
// resolve (see IDAllocator's doc comment).
func NewGraph(name string, alloc *IDAllocator) *Graph {
	return &Graph{
		Name:  name,
		alloc: alloc,
		Nodes: make(map[int]*Node),
	}
}

// NewNode allocates a fresh node of the given kind and adds it to the
// graph, returning its id. start/end may be nil for synthetic nodes.
func (g *Graph) NewNode(kind NodeKind, sourceText string, start, end *int) int {
	id := g.alloc.Next()
	node := &Node{
		ID:           id,
		Kind:         kind,
		SourceText:   sourceText,
		StartByte:    start,
		EndByte:      end,
		successors:   NewOrderedIntSet(),
		predecessors: NewOrderedIntSet(),
		EdgeLabels:   make(map[int]string),
		Metadata:     newMetadata(),
	}
	g.Nodes[id] = node
	g.nodeOrder = append(g.nodeOrder, id)
	return id
}

// NodeOrder returns node ids in the order they were created, for
// deterministic serialization.
func (g *Graph) NodeOrder() []int {
	out := make([]int, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// AddEdge adds a directed edge from -> to, recording label if non-empty.
// Both endpoints must already exist in the graph; a caller adding a
// cross-routine function-call/function-return edge should still hold
// the target id in the same shared IDAllocator space even though the
// target node itself lives in another Graph.
func (g *Graph) AddEdge(from, to int, label string) {
	fromNode, ok := g.Nodes[from]
	if !ok {
		return
	}
	if !fromNode.successors.Contains(to) {
		fromNode.successors.Add(to)
	}
	if label != "" {
		fromNode.EdgeLabels[to] = label
	}
	if toNode, ok := g.Nodes[to]; ok {
		toNode.predecessors.Add(from)
	}
}

// LinkCrossGraph adds a directed edge between two nodes that may belong
// to different Graphs, as function_call/function_return edges do: a call
// site in the caller's Graph to the callee's ENTRY, or the callee's EXIT
// back to a return point in the caller's Graph. Graph.AddEdge cannot do
// this itself because it only resolves node objects through its own
// Graph's Nodes map.
func LinkCrossGraph(from, to *Node, label string) {
	if from == nil || to == nil {
		return
	}
	if !from.successors.Contains(to.ID) {
		from.successors.Add(to.ID)
	}
	if label != "" {
		from.EdgeLabels[to.ID] = label
	}
	to.predecessors.Add(from.ID)
}

// ReplaceTarget rewires the edge from -> oldTo to from -> newTo,
// preserving the edge's label and its position among from's successors.
func (g *Graph) ReplaceTarget(from, oldTo, newTo int) {
	fromNode, ok := g.Nodes[from]
	if !ok {
		return
	}
	label := fromNode.EdgeLabels[oldTo]
	if !fromNode.successors.Replace(oldTo, newTo) {
		return
	}
	delete(fromNode.EdgeLabels, oldTo)
	if label != "" {
		fromNode.EdgeLabels[newTo] = label
	}
	if oldNode, ok := g.Nodes[oldTo]; ok {
		oldNode.predecessors.Remove(from)
	}
	if newNode, ok := g.Nodes[newTo]; ok {
		newNode.predecessors.Add(from)
	}
}

// RemoveNode deletes id from the graph. If rethread is true, every
// predecessor's edge to id is rewired to every successor of id,
// preserving the predecessor's own edge label unless id itself carried a
// label on that outgoing edge, in which case id's label wins.
func (g *Graph) RemoveNode(id int, rethread bool) {
	node, ok := g.Nodes[id]
	if !ok {
		return
	}

	if rethread {
		preds := node.Predecessors()
		succs := node.Successors()
		for _, pred := range preds {
			predNode := g.Nodes[pred]
			if predNode == nil {
				continue
			}
			predLabel := predNode.EdgeLabels[id]
			for _, succ := range succs {
				label := node.EdgeLabels[succ]
				if label == "" {
					label = predLabel
				}
				g.AddEdge(pred, succ, label)
			}
		}
	}

	for _, pred := range node.Predecessors() {
		if predNode := g.Nodes[pred]; predNode != nil {
			predNode.successors.Remove(id)
			delete(predNode.EdgeLabels, id)
		}
	}
	for _, succ := range node.Successors() {
		if succNode := g.Nodes[succ]; succNode != nil {
			succNode.predecessors.Remove(id)
		}
	}

	delete(g.Nodes, id)
	for i, nid := range g.nodeOrder {
		if nid == id {
			g.nodeOrder = append(g.nodeOrder[:i], g.nodeOrder[i+1:]...)
			break
		}
	}
}
