package analysis

import (
	"github.com/cflowgraph/cflow/internal/coreconfig"
	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/defuse"
)

// DefUseResult holds the def-use chains for every routine BuildCFGs
// produced, keyed by routine name. A callee's Chains are mutated in
// place during alias resolution: a use of an aliased parameter resolves
// to both its ENTRY binding and the caller-side definitions of the
// argument it was called with. ParameterAliases records the same
// aliasing textually (parameter name -> argument names) for callers that
// only want the flat name correlation.
type DefUseResult struct {
	Chains           map[string]*defuse.Chains
	ParameterAliases map[string]map[string][]string
	Warnings         []warning.Warning
}

// AnalyzeDefUse runs Reaching Definitions over every routine in routines,
// then resolves intra-file parameter aliasing at call sites, extending
// each callee's Chains with the caller's reaching definitions of the
// aliased argument. routines is expected to be the Result.Routines slice
// BuildCFGs returned for the same translation unit, since alias
// resolution needs every routine's Graph and solved Chains to match call
// sites against callee parameter lists.
func AnalyzeDefUse(routines []*cfgmodel.Graph, cfg coreconfig.Options) (*DefUseResult, error) {
	out := &DefUseResult{
		Chains:           make(map[string]*defuse.Chains, len(routines)),
		ParameterAliases: make(map[string]map[string][]string, len(routines)),
	}

	for _, g := range routines {
		chains, err := defuse.Analyze(g, cfg.BitsetThreshold, cfg.MaxWorklistIterations)
		if err != nil {
			return nil, err
		}
		out.Chains[g.Name] = chains
	}

	for _, caller := range routines {
		for _, callee := range routines {
			if caller.Name == callee.Name {
				continue
			}
			calls := false
			for _, id := range caller.NodeOrder() {
				if caller.Nodes[id].Metadata.Calls.Contains(callee.Name) {
					calls = true
					break
				}
			}
			if !calls {
				continue
			}
			warnings, aliases := defuse.ResolveParameterAliases(
				caller, callee, out.Chains[caller.Name], out.Chains[callee.Name], cfg.WarnOnArityMismatch,
			)
			out.Warnings = append(out.Warnings, warnings...)
			if len(aliases) > 0 {
				if out.ParameterAliases[callee.Name] == nil {
					out.ParameterAliases[callee.Name] = make(map[string][]string)
				}
				for param, args := range aliases {
					out.ParameterAliases[callee.Name][param] = append(out.ParameterAliases[callee.Name][param], args...)
				}
			}
		}
	}

	return out, nil
}
