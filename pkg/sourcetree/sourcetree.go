// Package sourcetree gives the rest of the analysis core a uniform view
// over a tree produced by the external incremental parser
// (github.com/smacker/go-tree-sitter): typed nodes, named children, byte
// spans, source-text extraction, and a language-parameterized comment
// predicate so comment nodes never reach the visitor framework.
package sourcetree

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is a read-only view over one syntax-tree node plus the source
// bytes it was parsed from, letting callers slice text without threading
// the source buffer through every call site.
type Node struct {
	raw *sitter.Node
	src []byte
}

// Wrap adapts a raw *sitter.Node into a Node. Returns the zero Node
// (IsNil() true) when raw is nil.
func Wrap(raw *sitter.Node, src []byte) Node {
	return Node{raw: raw, src: src}
}

// IsNil reports whether the node is absent, e.g. a missing optional
// child such as an if-statement's alternative branch.
func (n Node) IsNil() bool { return n.raw == nil }

// Kind returns the node's grammar type, e.g. "if_statement".
func (n Node) Kind() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Type()
}

// Span returns the node's byte offsets into the original source.
func (n Node) Span() (start, end int) {
	if n.raw == nil {
		return 0, 0
	}
	return int(n.raw.StartByte()), int(n.raw.EndByte())
}

// Text returns the verbatim source slice the node spans.
func (n Node) Text() string {
	if n.raw == nil {
		return ""
	}
	start, end := n.Span()
	if start < 0 || end > len(n.src) || start > end {
		return ""
	}
	return string(n.src[start:end])
}

// ChildCount returns the number of children, named and anonymous.
func (n Node) ChildCount() int {
	if n.raw == nil {
		return 0
	}
	return int(n.raw.ChildCount())
}

// Child returns the i-th child, named or anonymous.
func (n Node) Child(i int) Node {
	if n.raw == nil {
		return Node{}
	}
	return Node{raw: n.raw.Child(i), src: n.src}
}

// NamedChildren returns every named child in source order, skipping
// nodes the language's comment predicate identifies as comments so they
// never reach the visitor framework.
func (n Node) NamedChildren(isComment CommentPredicate) []Node {
	if n.raw == nil {
		return nil
	}
	count := int(n.raw.NamedChildCount())
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		child := Node{raw: n.raw.NamedChild(i), src: n.src}
		if child.IsNil() {
			continue
		}
		if isComment != nil && isComment(child.Kind()) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Children returns every child (named and anonymous) in source order,
// skipping comment nodes. Language visitors that need to see anonymous
// tokens (e.g. to distinguish "else" placement) use this instead of
// NamedChildren.
func (n Node) Children(isComment CommentPredicate) []Node {
	if n.raw == nil {
		return nil
	}
	count := n.ChildCount()
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child.IsNil() {
			continue
		}
		if isComment != nil && isComment(child.Kind()) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// ChildByField returns the child bound to the named grammar field (e.g.
// "condition", "consequence", "alternative"), if any.
func (n Node) ChildByField(name string) Node {
	if n.raw == nil {
		return Node{}
	}
	return Node{raw: n.raw.ChildByFieldName(name), src: n.src}
}

// HasError reports whether this subtree contains a parse error node.
func (n Node) HasError() bool {
	if n.raw == nil {
		return false
	}
	return n.raw.HasError()
}

// CommentPredicate reports whether kind identifies a comment node in a
// given language's grammar. It is language-parameterized because each
// tree-sitter grammar names its comment node kind differently.
type CommentPredicate func(kind string) bool

// Tree owns a parsed syntax tree and the source bytes behind it.
type Tree struct {
	raw *sitter.Tree
	src []byte
}

// Parse runs the external incremental parser over src using lang and
// returns the resulting Tree. Close must be called once the caller is
// done with it.
func Parse(src []byte, lang *sitter.Language) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	raw := parser.Parse(nil, src)
	return &Tree{raw: raw, src: src}, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() Node {
	if t.raw == nil {
		return Node{}
	}
	return Node{raw: t.raw.RootNode(), src: t.src}
}

// Close releases the underlying parser resources.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}
