package analysis

import "github.com/cflowgraph/cflow/pkg/cfgmodel"

// CyclomaticComplexity computes McCabe's metric directly off a finished
// CFG using the standard E - N + 2P formula (edges, nodes, one connected
// component per routine). This is arithmetically equivalent to counting
// decision points (each CONDITION/LOOP_HEADER/CASE/GOTO branch adds
// exactly one edge beyond a straight-line graph) plus one, but reads the
// count off the graph instead of re-walking the source AST a second
// time.
func CyclomaticComplexity(g *cfgmodel.Graph) int {
	edges := 0
	for _, id := range g.NodeOrder() {
		for _, succ := range g.Nodes[id].Successors() {
			// function_call/function_return edges lead into another
			// routine's Graph and are not counted here.
			if _, ok := g.Nodes[succ]; ok {
				edges++
			}
		}
	}
	nodes := len(g.Nodes)
	if nodes == 0 {
		return 1
	}
	return edges - nodes + 2
}
