package analysis

import (
	"strconv"

	"github.com/cflowgraph/cflow/pkg/cfgmodel"
)

// NodeDTO is the wire shape for one CFG node: id, node_type,
// source_text, byte span, successor/predecessor id lists, edge labels
// keyed by target id, and metadata. Field names match the fixed
// external JSON contract exactly.
type NodeDTO struct {
	ID           int               `json:"id"`
	NodeType     string            `json:"node_type"`
	SourceText   string            `json:"source_text"`
	StartIndex   *int              `json:"start_index"`
	EndIndex     *int              `json:"end_index"`
	Successors   []int             `json:"successors"`
	Predecessors []int             `json:"predecessors"`
	EdgeLabels   map[string]string `json:"edge_labels"`
	Metadata     MetadataDTO       `json:"metadata"`
}

// MetadataDTO is the wire shape of a node's def/use/call sets.
type MetadataDTO struct {
	Defs  []string `json:"variable_definitions"`
	Uses  []string `json:"variable_uses"`
	Calls []string `json:"function_calls"`
}

// RoutineDTO is one routine's serialized CFG: its node map plus its
// routine-level entry/exit ids. Parameters and CyclomaticComplexity are
// additions beyond the fixed contract fields, which downstream frontends
// depending on the bit-exact shape are free to ignore.
type RoutineDTO struct {
	Name                 string          `json:"function_name"`
	Parameters           []string        `json:"parameters"`
	EntryIDs             []int           `json:"entry_node_ids"`
	ExitIDs              []int           `json:"exit_node_ids"`
	CyclomaticComplexity int             `json:"decision_points"`
	Nodes                map[int]NodeDTO `json:"nodes"`
}

// ToDTO renders a Graph into its JSON wire shape. Edge labels are keyed
// by the string form of the target node id, since JSON object keys must
// be strings.
func ToDTO(g *cfgmodel.Graph) RoutineDTO {
	nodes := make(map[int]NodeDTO, len(g.Nodes))
	for _, id := range g.NodeOrder() {
		n := g.Nodes[id]
		labels := make(map[string]string, len(n.EdgeLabels))
		for target, label := range n.EdgeLabels {
			labels[strconv.Itoa(target)] = label
		}
		nodes[id] = NodeDTO{
			ID:           n.ID,
			NodeType:     string(n.Kind),
			SourceText:   n.SourceText,
			StartIndex:   n.StartByte,
			EndIndex:     n.EndByte,
			Successors:   n.Successors(),
			Predecessors: n.Predecessors(),
			EdgeLabels:   labels,
			Metadata: MetadataDTO{
				Defs:  n.Metadata.Defs.Items(),
				Uses:  n.Metadata.Uses.Items(),
				Calls: n.Metadata.Calls.Items(),
			},
		}
	}
	return RoutineDTO{
		Name:                 g.Name,
		Parameters:           g.Parameters,
		EntryIDs:             g.EntryIDs,
		ExitIDs:              g.ExitIDs,
		CyclomaticComplexity: CyclomaticComplexity(g),
		Nodes:                nodes,
	}
}
