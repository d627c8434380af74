package analysis

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cflowgraph/cflow/internal/coreconfig"
)

func TestToDTORoundTripsThroughJSON(t *testing.T) {
	src := []byte(`
int max(int a, int b) {
	if (a > b) {
		return a;
	}
	return b;
}
`)
	result, err := BuildCFGs(src, "c", coreconfig.Default())
	require.NoError(t, err)
	require.Len(t, result.Routines, 1)

	dto := ToDTO(result.Routines[0])
	require.Equal(t, "max", dto.Name)
	require.Equal(t, []string{"a", "b"}, dto.Parameters)
	require.Len(t, dto.EntryIDs, 1)
	require.Len(t, dto.ExitIDs, 1)
	require.NotEmpty(t, dto.Nodes)

	data, err := json.Marshal(dto)
	require.NoError(t, err)

	var decoded RoutineDTO
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, dto.Name, decoded.Name)
	require.Equal(t, dto.CyclomaticComplexity, decoded.CyclomaticComplexity)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "function_name")
	require.Contains(t, raw, "entry_node_ids")
	require.Contains(t, raw, "exit_node_ids")
	require.Contains(t, raw, "nodes")

	nodes, ok := raw["nodes"].(map[string]any)
	require.True(t, ok)
	var oneNode map[string]any
	for _, n := range nodes {
		oneNode = n.(map[string]any)
		break
	}
	require.Contains(t, oneNode, "node_type")
	require.Contains(t, oneNode, "source_text")
	require.Contains(t, oneNode, "start_index")
	require.Contains(t, oneNode, "end_index")
	require.Contains(t, oneNode, "successors")
	require.Contains(t, oneNode, "predecessors")
	require.Contains(t, oneNode, "edge_labels")

	metadata, ok := oneNode["metadata"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, metadata, "function_calls")
	require.Contains(t, metadata, "variable_definitions")
	require.Contains(t, metadata, "variable_uses")
}

func TestToDTOEdgeLabelsKeyedByStringNodeID(t *testing.T) {
	src := []byte(`
int max(int a, int b) {
	if (a > b) {
		return a;
	}
	return b;
}
`)
	result, err := BuildCFGs(src, "c", coreconfig.Default())
	require.NoError(t, err)
	dto := ToDTO(result.Routines[0])

	found := false
	for _, node := range dto.Nodes {
		for target, label := range node.EdgeLabels {
			if label == "true" || label == "false" {
				found = true
				_, err := strconv.Atoi(target)
				require.NoError(t, err)
			}
		}
	}
	require.True(t, found, "expected at least one true/false edge label keyed by a numeric string")
}
