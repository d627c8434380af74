package analysis

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/cflowgraph/cflow/internal/coreconfig"
)

// Unit is one translation unit to build CFGs for: its raw source and the
// language it's written in.
type Unit struct {
	Name     string
	Source   []byte
	Language string
}

// UnitResult pairs a Unit's Name back up with its BuildCFGs outcome, since
// results return in arbitrary order under concurrent construction.
type UnitResult struct {
	Name   string
	Result *Result
	Err    error
}

// BuildCFGsForRoutines builds CFGs for every unit concurrently. Each
// goroutine gets its own visitor.RoutineContext, cfgmodel.IDAllocator and
// parse tree by construction, since BuildCFGs allocates all three fresh
// per call, so no locking is needed inside BuildCFGs itself for safe
// concurrent invocation. cfg.MaxParallelUnits caps the goroutine count;
// zero or negative falls back to 2x NumCPU.
func BuildCFGsForRoutines(units []Unit, cfg coreconfig.Options) []UnitResult {
	if len(units) == 0 {
		return nil
	}

	maxWorkers := cfg.MaxParallelUnits
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 2
	}

	results := make([]UnitResult, 0, len(units))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, u := range units {
		u := u
		p.Go(func() {
			res, err := BuildCFGs(u.Source, u.Language, cfg)
			mu.Lock()
			results = append(results, UnitResult{Name: u.Name, Result: res, Err: err})
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}
