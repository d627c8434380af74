// Package defuse implements Reaching Definitions as an instantiation of
// the generic dataflow solver in pkg/dataflow, plus def-use/use-def
// chain extraction and inter-procedural parameter-alias resolution.
package defuse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/dataflow"
)

// Def identifies one definition site: a variable name defined at a
// specific node.
type Def struct {
	Variable string
	NodeID   int
}

// Chains holds the def-use and use-def edges extracted from a solved
// Reaching Definitions problem: DefUse maps a definition to every use it
// reaches, UseDef maps a use to every definition reaching it.
type Chains struct {
	DefUse map[Def][]int
	UseDef map[int][]Def
}

// solveState carries the fact universe built for one graph: every
// distinct (variable, node) definition gets its own FactID, and
// factsByVariable indexes them for kill-set computation (a new
// definition of x kills every other definition of x).
type solveState struct {
	facts           []Def
	factID          map[Def]dataflow.FactID
	factsByVariable map[string][]dataflow.FactID
}

func buildUniverse(g *cfgmodel.Graph) *solveState {
	st := &solveState{
		factID:          make(map[Def]dataflow.FactID),
		factsByVariable: make(map[string][]dataflow.FactID),
	}
	for _, id := range g.NodeOrder() {
		node := g.Nodes[id]
		for _, v := range node.Metadata.Defs.Items() {
			d := Def{Variable: v, NodeID: id}
			fid := dataflow.FactID(len(st.facts))
			st.facts = append(st.facts, d)
			st.factID[d] = fid
			st.factsByVariable[v] = append(st.factsByVariable[v], fid)
		}
	}
	return st
}

// Analyze runs Reaching Definitions over g and returns the def-use/
// use-def chains. Parameters count as definitions at ENTRY, letting a
// use of a parameter with no local definition still resolve.
func Analyze(g *cfgmodel.Graph, bitsetThreshold, maxIterations int) (*Chains, error) {
	st := buildUniverse(g)

	var entryFacts []dataflow.FactID
	if len(g.EntryIDs) > 0 {
		entryID := g.EntryIDs[0]
		for _, p := range g.Parameters {
			d := Def{Variable: p, NodeID: entryID}
			fid, ok := st.factID[d]
			if !ok {
				fid = dataflow.FactID(len(st.facts))
				st.facts = append(st.facts, d)
				st.factID[d] = fid
				st.factsByVariable[p] = append(st.factsByVariable[p], fid)
			}
			entryFacts = append(entryFacts, fid)
		}
	}

	problem := dataflow.Problem{
		Graph:      g,
		EntryFacts: entryFacts,
		NewFactSet: dataflow.FactSetFactory(len(st.facts), bitsetThreshold),
		Gen: func(nodeID int) []dataflow.FactID {
			node := g.Nodes[nodeID]
			if node == nil {
				return nil
			}
			var out []dataflow.FactID
			for _, v := range node.Metadata.Defs.Items() {
				out = append(out, st.factID[Def{Variable: v, NodeID: nodeID}])
			}
			return out
		},
		Kill: func(nodeID int) []dataflow.FactID {
			node := g.Nodes[nodeID]
			if node == nil {
				return nil
			}
			var out []dataflow.FactID
			for _, v := range node.Metadata.Defs.Items() {
				for _, fid := range st.factsByVariable[v] {
					if st.facts[fid].NodeID != nodeID {
						out = append(out, fid)
					}
				}
			}
			return out
		},
		MaxIterations: maxIterations,
	}

	result, err := dataflow.Solve(problem)
	if err != nil {
		return nil, err
	}

	chains := &Chains{
		DefUse: make(map[Def][]int),
		UseDef: make(map[int][]Def),
	}

	for _, id := range g.NodeOrder() {
		node := g.Nodes[id]
		// Self-referencing statements like a++ use the prior value of a
		// before redefining it, so uses are evaluated against in[n],
		// before Gen(n) is applied — exactly what result.In already
		// holds. But in[n] by construction never contains n's own Gen(n)
		// fact (that only appears in out[n]), so a node that both defines
		// and uses the same variable needs its own (v, id) fact unioned
		// in explicitly to chain to itself alongside whatever prior
		// definitions in[n] carries.
		inSet := result.In[id]
		for _, v := range node.Metadata.Uses.Items() {
			for _, fid := range inSet.Items() {
				d := st.facts[fid]
				if d.Variable != v {
					continue
				}
				chains.DefUse[d] = append(chains.DefUse[d], id)
				chains.UseDef[id] = append(chains.UseDef[id], d)
			}
			if node.Metadata.Defs.Contains(v) {
				self := Def{Variable: v, NodeID: id}
				chains.DefUse[self] = append(chains.DefUse[self], id)
				chains.UseDef[id] = append(chains.UseDef[id], self)
			}
		}
	}

	return chains, nil
}

// ResolveParameterAliases scans call sites in caller for arguments that
// are bare identifiers, and for each one occurring at the k-th argument
// position of a call to callee, resolves the caller's own reaching
// definitions of that argument at the call site (via callerChains,
// caller's already-solved Chains) and injects those definitions into
// calleeChains as additional reaching definitions for every use of the
// aliased parameter inside callee — the callee's def-use/use-def chains
// are extended in place, not just recorded in the returned alias map.
// This is intra-file, textual-only parameter aliasing, not general
// pointer or alias analysis: it resolves one hop (the call site's
// argument to the callee's parameter uses), not transitively through
// further calls. A call whose argument count differs from callee's
// parameter count is skipped whole: it contributes no aliases, not even
// for the argument positions that do line up. Such a call is recorded
// as a StructuralWarning, never a fatal error, when warnOnArityMismatch
// is set.
func ResolveParameterAliases(caller, callee *cfgmodel.Graph, callerChains, calleeChains *Chains, warnOnArityMismatch bool) ([]warning.Warning, map[string][]string) {
	var warnings []warning.Warning
	aliases := make(map[string][]string)

	// Without an ENTRY node calleeEntry stays 0, the "no node" id: aliases
	// and arity warnings are still reported, but no chain is injected.
	calleeEntry := 0
	if len(callee.EntryIDs) > 0 {
		calleeEntry = callee.EntryIDs[0]
	}

	for _, id := range caller.NodeOrder() {
		node := caller.Nodes[id]
		for _, callName := range node.Metadata.Calls.Items() {
			if callName != callee.Name {
				continue
			}
			args := extractCallArguments(node.SourceText, callName)
			if len(args) != len(callee.Parameters) {
				if warnOnArityMismatch {
					warnings = append(warnings, warning.New(
						warning.KindArityMismatch, caller.Name, id,
						"call to %s passes %d argument(s), expected %d",
						callee.Name, len(args), len(callee.Parameters),
					))
				}
				continue
			}
			for k, arg := range args {
				if !isIdentifier(arg) {
					continue
				}
				param := callee.Parameters[k]
				aliases[param] = append(aliases[param], arg)
				injectParameterAliasChain(callerChains, calleeChains, id, arg, param, calleeEntry)
			}
		}
	}

	return warnings, aliases
}

// injectParameterAliasChain finds every definition of arg reaching the
// call site (callSiteID) in the caller, and every use of param inside
// callee (found off the parameter's ENTRY-site binding definition), and
// cross-links them in calleeChains so a use of param inside callee
// resolves back to the actual caller-side definitions of the argument
// it was called with — not just the synthetic ENTRY(callee) binding.
func injectParameterAliasChain(callerChains, calleeChains *Chains, callSiteID int, arg, param string, calleeEntry int) {
	var callerDefs []Def
	for _, d := range callerChains.UseDef[callSiteID] {
		if d.Variable == arg {
			callerDefs = append(callerDefs, d)
		}
	}
	if len(callerDefs) == 0 {
		return
	}

	paramBinding := Def{Variable: param, NodeID: calleeEntry}
	for _, useID := range calleeChains.DefUse[paramBinding] {
		for _, cd := range callerDefs {
			calleeChains.UseDef[useID] = append(calleeChains.UseDef[useID], cd)
			calleeChains.DefUse[cd] = append(calleeChains.DefUse[cd], useID)
		}
	}
}

// extractCallArguments does a purely textual split of a call
// expression's argument list. It only needs to be correct for simple,
// unnested argument lists; a comma inside nested parentheses is still
// tracked so `f(g(a, b), c)` splits into two arguments, not three.
func extractCallArguments(sourceText, callName string) []string {
	open := strings.Index(sourceText, callName+"(")
	if open == -1 {
		return nil
	}
	start := open + len(callName) + 1
	depth := 1
	end := -1
	for i := start; i < len(sourceText); i++ {
		switch sourceText[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil
	}
	inner := sourceText[start:end]
	if strings.TrimSpace(inner) == "" {
		return nil
	}

	var args []string
	depth = 0
	last := 0
	for i, r := range inner {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[last:i]))
				last = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(inner[last:]))
	return args
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if i > 0 && !isLetter && !isDigit {
			return false
		}
	}
	return true
}

// String renders a Def for diagnostics.
func (d Def) String() string { return fmt.Sprintf("%s@%d", d.Variable, d.NodeID) }
