// Package analysis wires syntax-tree parsing, CFG construction, and
// dataflow analysis together behind three external entry points:
// BuildCFGs, AnalyzeDefUse, and AnalyzeLiveVariables.
package analysis

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsc "github.com/smacker/go-tree-sitter/c"
	tsjava "github.com/smacker/go-tree-sitter/java"

	"github.com/cflowgraph/cflow/internal/coreconfig"
	"github.com/cflowgraph/cflow/internal/corelog"
	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/coreerrors"
	"github.com/cflowgraph/cflow/pkg/lang/c"
	"github.com/cflowgraph/cflow/pkg/lang/java"
	"github.com/cflowgraph/cflow/pkg/postprocess"
	"github.com/cflowgraph/cflow/pkg/sourcetree"
	"github.com/cflowgraph/cflow/pkg/visitor"
)

// languageBinding adapts one language's tree-sitter grammar and visitor
// package behind a uniform interface, so BuildCFGs stays language-
// agnostic. Registering a new language means adding one entry to
// languages below.
type languageBinding struct {
	grammar   *sitter.Language
	handlers  map[string]visitor.Handler
	isComment sourcetree.CommentPredicate
	functions func(root sourcetree.Node) []sourcetree.Node
	signature func(fn sourcetree.Node) (name string, params []string, body []sourcetree.Node)
}

func languages() map[string]languageBinding {
	return map[string]languageBinding{
		"c": {
			grammar:   tsc.GetLanguage(),
			handlers:  c.Handlers(),
			isComment: c.IsComment,
			functions: c.Functions,
			signature: c.Signature,
		},
		"java": {
			grammar:   tsjava.GetLanguage(),
			handlers:  java.Handlers(),
			isComment: java.IsComment,
			functions: java.Methods,
			signature: java.Signature,
		},
	}
}

// Result is what BuildCFGs returns: every routine's finished graph
// alongside the accumulated non-fatal warnings.
type Result struct {
	Routines []*cfgmodel.Graph
	Warnings []warning.Warning
}

// BuildCFGs parses source in the given language, builds one CFG per
// routine (function/method) found, wires every post-processing pass,
// and returns the finished graphs. An unsupported language is an
// UnsupportedLanguage error; empty source or a syntax tree that reports
// a parse error is an InputError. Neither returns a partial result.
func BuildCFGs(source []byte, language string, cfg coreconfig.Options) (*Result, error) {
	logger := corelog.Default()

	binding, ok := languages()[language]
	if !ok {
		return nil, &coreerrors.UnsupportedLanguage{Language: language}
	}
	if len(source) == 0 {
		return nil, coreerrors.NewInputError("source is empty")
	}

	tree, err := sourcetree.Parse(source, binding.grammar)
	if err != nil {
		return nil, coreerrors.NewInputError("parsing source: %v", err)
	}
	defer tree.Close()

	root := tree.Root()
	if root.HasError() {
		return nil, coreerrors.NewInputError("source contains a syntax error")
	}

	routineNodes := binding.functions(root)
	logger.Debug("discovered routines", "language", language, "count", len(routineNodes))

	alloc := cfgmodel.NewIDAllocator()
	graphs := make([]*cfgmodel.Graph, 0, len(routineNodes))
	scopes := make([]*visitor.ScopeContext, 0, len(routineNodes))

	for _, fn := range routineNodes {
		name, params, body := binding.signature(fn)
		if name == "" {
			continue
		}
		g, scope := visitor.BuildRoutine(name, params, body, binding.handlers, binding.isComment, alloc)
		graphs = append(graphs, g)
		scopes = append(scopes, scope)
	}

	warnings, err := postprocess.Run(postprocess.Unit{Graphs: graphs, Scopes: scopes}, cfg.WarnOnUnresolvedGoto)
	if err != nil {
		return nil, err
	}

	return &Result{Routines: graphs, Warnings: warnings}, nil
}
