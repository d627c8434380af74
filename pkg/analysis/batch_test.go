package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cflowgraph/cflow/internal/coreconfig"
)

func TestBuildCFGsForRoutinesReturnsOnePerUnit(t *testing.T) {
	units := []Unit{
		{Name: "a.c", Source: []byte(`int f() { return 1; }`), Language: "c"},
		{Name: "b.c", Source: []byte(`int g() { return 2; }`), Language: "c"},
		{Name: "bad.c", Source: []byte(``), Language: "c"},
	}

	results := BuildCFGsForRoutines(units, coreconfig.Default())
	require.Len(t, results, 3)

	byName := make(map[string]UnitResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	assert.NoError(t, byName["a.c"].Err)
	require.Len(t, byName["a.c"].Result.Routines, 1)
	assert.Equal(t, "f", byName["a.c"].Result.Routines[0].Name)

	assert.NoError(t, byName["b.c"].Err)
	require.Len(t, byName["b.c"].Result.Routines, 1)
	assert.Equal(t, "g", byName["b.c"].Result.Routines[0].Name)

	assert.Error(t, byName["bad.c"].Err)
	assert.Nil(t, byName["bad.c"].Result)
}

func TestBuildCFGsForRoutinesEmptyInputReturnsNil(t *testing.T) {
	results := BuildCFGsForRoutines(nil, coreconfig.Default())
	assert.Nil(t, results)
}

func TestBuildCFGsForRoutinesRespectsMaxParallelUnits(t *testing.T) {
	cfg := coreconfig.Default()
	cfg.MaxParallelUnits = 1

	units := make([]Unit, 0, 5)
	for i := 0; i < 5; i++ {
		units = append(units, Unit{Name: "u", Source: []byte(`int f() { return 0; }`), Language: "c"})
	}

	results := BuildCFGsForRoutines(units, cfg)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}
