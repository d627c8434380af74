// Package warning defines the StructuralWarning value type accumulated
// during CFG construction and def-use resolution. Warnings never abort
// a request; they are collected and returned alongside the analysis
// result.
package warning

import "fmt"

// Kind classifies a StructuralWarning.
type Kind string

const (
	// KindUnknownNodeKind fires when the visitor framework falls back to
	// the default STATEMENT handler for an AST kind no visitor recognizes.
	KindUnknownNodeKind Kind = "unknown_node_kind"
	// KindMalformedControl fires when an if/loop/switch subtree is
	// missing its condition or body.
	KindMalformedControl Kind = "malformed_control"
	// KindUnresolvedGoto fires when a forward goto has no matching label
	// at routine finalization and coreconfig.Options.WarnOnUnresolvedGoto
	// is set; with that option unset the request fails instead.
	KindUnresolvedGoto Kind = "unresolved_goto"
	// KindArityMismatch fires when a call site's argument count does not
	// match the callee's parameter count during alias resolution.
	KindArityMismatch Kind = "arity_mismatch"
)

// Warning is one non-fatal diagnostic produced while analyzing a routine.
type Warning struct {
	Kind        Kind
	Message     string
	RoutineName string
	NodeID      int
}

// String renders a flat single-line message.
func (w Warning) String() string {
	if w.RoutineName == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s (node %d)", w.RoutineName, w.Message, w.NodeID)
}

// New builds a Warning with a formatted message.
func New(kind Kind, routine string, nodeID int, format string, args ...interface{}) Warning {
	return Warning{
		Kind:        kind,
		Message:     fmt.Sprintf(format, args...),
		RoutineName: routine,
		NodeID:      nodeID,
	}
}
