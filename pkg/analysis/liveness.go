package analysis

import (
	"github.com/cflowgraph/cflow/internal/coreconfig"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/defuse"
)

// LivenessResult holds the Live Variable results for every routine
// BuildCFGs produced, keyed by routine name.
type LivenessResult struct {
	Routines map[string]*defuse.LiveVariables
}

// AnalyzeLiveVariables runs Live Variable analysis independently over
// every routine in routines. Unlike AnalyzeDefUse, liveness needs no
// cross-routine resolution: a call site's arguments are already
// recorded as uses on the call node itself, so a variable passed to a
// callee is live up to the call regardless of what the callee does with
// it.
func AnalyzeLiveVariables(routines []*cfgmodel.Graph, cfg coreconfig.Options) (*LivenessResult, error) {
	out := &LivenessResult{Routines: make(map[string]*defuse.LiveVariables, len(routines))}
	for _, g := range routines {
		live, err := defuse.AnalyzeLiveVariables(g, cfg.BitsetThreshold, cfg.MaxWorklistIterations)
		if err != nil {
			return nil, err
		}
		out.Routines[g.Name] = live
	}
	return out, nil
}
