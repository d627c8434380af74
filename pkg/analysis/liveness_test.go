package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cflowgraph/cflow/internal/coreconfig"
)

func TestAnalyzeLiveVariablesRunsPerRoutine(t *testing.T) {
	src := []byte(`
int f() {
	int x = 1;
	int y = 2;
	return x;
}
`)
	built, err := BuildCFGs(src, "c", coreconfig.Default())
	require.NoError(t, err)

	result, err := AnalyzeLiveVariables(built.Routines, coreconfig.Default())
	require.NoError(t, err)
	require.Contains(t, result.Routines, "f")

	live := result.Routines["f"]
	found := false
	for _, id := range built.Routines[0].NodeOrder() {
		for _, v := range live.LiveIn[id] {
			if v == "x" {
				found = true
			}
		}
	}
	require.True(t, found, "expected x to be live somewhere before its use in the return statement")

	for _, id := range built.Routines[0].NodeOrder() {
		for _, v := range live.LiveOut[id] {
			require.NotEqual(t, "y", v, "expected y never to be live, since it's never used")
		}
	}
}
