// Package java is the Java language visitor, mirroring pkg/lang/c's
// structure with Java's own node kinds and field names. Exception
// control flow (try/catch/finally) is not modeled as branching CFG
// structure — analysis here is scoped to structured control flow, and
// Java's checked-exception edges would require a points-to-quality
// analysis this package's parameter-alias-only model does not attempt.
// A throw statement is treated like a return: it terminates the routine
// and edges straight to EXIT, which is a reasonable approximation for
// reachability purposes without pretending to model catch dispatch.
package java

import (
	"strings"

	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/sourcetree"
	"github.com/cflowgraph/cflow/pkg/visitor"
)

// IsComment reports whether kind is tree-sitter-java's comment node.
func IsComment(kind string) bool { return kind == "line_comment" || kind == "block_comment" }

// Handlers returns the Java statement dispatch table.
func Handlers() map[string]visitor.Handler {
	return map[string]visitor.Handler{
		"block":                      handleBlock,
		"if_statement":               handleIf,
		"while_statement":            handleWhile,
		"do_statement":               handleDoWhile,
		"for_statement":              handleFor,
		"enhanced_for_statement":     handleEnhancedFor,
		"switch_statement":           handleSwitch,
		"switch_expression":          handleSwitch,
		"break_statement":            handleBreak,
		"continue_statement":         handleContinue,
		"return_statement":           handleReturn,
		"throw_statement":            handleThrow,
		"labeled_statement":          handleLabel,
		"synchronized_statement":     handleSynchronized,
		"local_variable_declaration": handleLeaf,
		"expression_statement":       handleLeaf,
	}
}

// Methods returns every method_declaration and constructor_declaration
// node in the translation unit, in source order.
func Methods(root sourcetree.Node) []sourcetree.Node {
	var out []sourcetree.Node
	var walkTree func(n sourcetree.Node)
	walkTree = func(n sourcetree.Node) {
		if n.Kind() == "method_declaration" || n.Kind() == "constructor_declaration" {
			out = append(out, n)
		}
		for _, c := range n.Children(IsComment) {
			walkTree(c)
		}
	}
	walkTree(root)
	return out
}

// Signature extracts a method/constructor's name, parameter names, and
// body statement list. An abstract or interface method with no body
// returns a nil body.
func Signature(m sourcetree.Node) (name string, params []string, body []sourcetree.Node) {
	nameNode := m.ChildByField("name")
	name = nameNode.Text()

	if paramList := m.ChildByField("parameters"); !paramList.IsNil() {
		for _, p := range paramList.NamedChildren(IsComment) {
			if p.Kind() != "formal_parameter" && p.Kind() != "spread_parameter" {
				continue
			}
			if pname := p.ChildByField("name"); !pname.IsNil() {
				params = append(params, pname.Text())
			}
		}
	}

	bodyNode := m.ChildByField("body")
	if bodyNode.IsNil() {
		return name, params, nil
	}
	body = bodyNode.NamedChildren(IsComment)
	return name, params, body
}

func handleBlock(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	return rc.VisitSequence(n.NamedChildren(IsComment))
}

func handleLeaf(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindStatement, n.Text(), &start, &end)
	walk(n, rc.Graph.Nodes[id], IsComment, rc, id)
	return visitor.SingleNode(id)
}

func handleSynchronized(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	body := n.ChildByField("body")
	lockNode := n.ChildByField("lock")
	if body.IsNil() {
		return visitor.Fragment{}
	}
	frag := rc.Visit(body)
	if !lockNode.IsNil() && frag.EntryID != 0 {
		walk(lockNode, rc.Graph.Nodes[frag.EntryID], IsComment, rc, frag.EntryID)
	}
	return frag
}

func handleIf(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	condNode := n.ChildByField("condition")
	consequent := n.ChildByField("consequence")
	alternative := n.ChildByField("alternative")

	start, end := n.Span()
	condID := rc.Graph.NewNode(cfgmodel.KindCondition, condNode.Text(), &start, &end)
	if !condNode.IsNil() {
		walk(condNode, rc.Graph.Nodes[condID], IsComment, rc, condID)
	}

	var trueFrag, falseFrag visitor.Fragment
	hasTrue, hasElse := false, false
	if !consequent.IsNil() {
		trueFrag = rc.Visit(consequent)
		hasTrue = true
	} else {
		rc.Warn(warning.KindMalformedControl, condID, "if statement missing its consequence")
	}
	if !alternative.IsNil() {
		falseFrag = rc.Visit(alternative)
		hasElse = true
	}

	return visitor.Branch(rc.Graph, condID, trueFrag, hasTrue, falseFrag, hasElse)
}

func handleWhile(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	condNode := n.ChildByField("condition")
	bodyNode := n.ChildByField("body")

	start, end := n.Span()
	headerID := rc.Graph.NewNode(cfgmodel.KindLoopHeader, condNode.Text(), &start, &end)
	if !condNode.IsNil() {
		walk(condNode, rc.Graph.Nodes[headerID], IsComment, rc, headerID)
	}

	exitPh := visitor.Placeholder(rc.Graph)
	rc.Scope.PushLoop(visitor.LoopFrame{ContinueTarget: headerID, BreakTarget: exitPh})

	var bodyFrag visitor.Fragment
	hasBody := false
	if !bodyNode.IsNil() {
		bodyFrag = rc.Visit(bodyNode)
		hasBody = true
	} else {
		rc.Warn(warning.KindMalformedControl, headerID, "while loop missing its body")
	}
	rc.Scope.PopLoop()

	return visitor.Loop(rc.Graph, headerID, bodyFrag, hasBody, exitPh)
}

func handleDoWhile(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	condNode := n.ChildByField("condition")
	bodyNode := n.ChildByField("body")

	start, end := n.Span()
	headerID := rc.Graph.NewNode(cfgmodel.KindLoopHeader, condNode.Text(), &start, &end)
	if !condNode.IsNil() {
		walk(condNode, rc.Graph.Nodes[headerID], IsComment, rc, headerID)
	}

	exitPh := visitor.Placeholder(rc.Graph)
	rc.Scope.PushLoop(visitor.LoopFrame{ContinueTarget: headerID, BreakTarget: exitPh})

	var bodyFrag visitor.Fragment
	hasBody := false
	if !bodyNode.IsNil() {
		bodyFrag = rc.Visit(bodyNode)
		hasBody = true
	} else {
		rc.Warn(warning.KindMalformedControl, headerID, "do-while loop missing its body")
	}
	rc.Scope.PopLoop()

	entryID := headerID
	if hasBody {
		entryID = bodyFrag.EntryID
		for _, exit := range bodyFrag.ExitIDs {
			rc.Graph.AddEdge(exit, headerID, "")
		}
		rc.Graph.AddEdge(headerID, bodyFrag.EntryID, cfgmodel.LabelTrue)
	} else {
		ph := visitor.Placeholder(rc.Graph)
		rc.Graph.AddEdge(headerID, ph, cfgmodel.LabelTrue)
	}
	rc.Graph.AddEdge(headerID, exitPh, cfgmodel.LabelFalse)

	return visitor.Fragment{EntryID: entryID, ExitIDs: []int{exitPh}}
}

func handleFor(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	inits := n.ChildByField("init")
	condNode := n.ChildByField("condition")
	updates := n.ChildByField("update")
	bodyNode := n.ChildByField("body")

	var initFrag visitor.Fragment
	hasInit := false
	if !inits.IsNil() {
		is, ie := inits.Span()
		initID := rc.Graph.NewNode(cfgmodel.KindStatement, inits.Text(), &is, &ie)
		walk(inits, rc.Graph.Nodes[initID], IsComment, rc, initID)
		initFrag = visitor.SingleNode(initID)
		hasInit = true
	}

	hs, he := n.Span()
	condText := ""
	if !condNode.IsNil() {
		condText = condNode.Text()
	}
	headerID := rc.Graph.NewNode(cfgmodel.KindLoopHeader, condText, &hs, &he)
	if !condNode.IsNil() {
		walk(condNode, rc.Graph.Nodes[headerID], IsComment, rc, headerID)
	}

	var updateFrag visitor.Fragment
	hasUpdate := false
	continueTarget := headerID
	if !updates.IsNil() {
		us, ue := updates.Span()
		updateID := rc.Graph.NewNode(cfgmodel.KindStatement, updates.Text(), &us, &ue)
		walk(updates, rc.Graph.Nodes[updateID], IsComment, rc, updateID)
		updateFrag = visitor.SingleNode(updateID)
		hasUpdate = true
		continueTarget = updateID
	}

	exitPh := visitor.Placeholder(rc.Graph)
	rc.Scope.PushLoop(visitor.LoopFrame{ContinueTarget: continueTarget, BreakTarget: exitPh})

	var bodyFrag visitor.Fragment
	hasBody := false
	if !bodyNode.IsNil() {
		bodyFrag = rc.Visit(bodyNode)
		hasBody = true
	} else {
		rc.Warn(warning.KindMalformedControl, headerID, "for loop missing its body")
	}
	rc.Scope.PopLoop()

	bodyEntry := headerID
	if hasBody {
		bodyEntry = bodyFrag.EntryID
	} else {
		bodyEntry = visitor.Placeholder(rc.Graph)
	}
	rc.Graph.AddEdge(headerID, bodyEntry, cfgmodel.LabelTrue)

	var backEdgeSources []int
	if hasBody {
		backEdgeSources = bodyFrag.ExitIDs
	}
	if hasUpdate {
		for _, e := range backEdgeSources {
			rc.Graph.AddEdge(e, updateFrag.EntryID, "")
		}
		if !hasBody {
			rc.Graph.AddEdge(bodyEntry, updateFrag.EntryID, "")
		}
		for _, e := range updateFrag.ExitIDs {
			rc.Graph.AddEdge(e, headerID, "")
		}
	} else {
		for _, e := range backEdgeSources {
			rc.Graph.AddEdge(e, headerID, "")
		}
		if !hasBody {
			rc.Graph.AddEdge(bodyEntry, headerID, "")
		}
	}

	rc.Graph.AddEdge(headerID, exitPh, cfgmodel.LabelFalse)
	loopFrag := visitor.Fragment{EntryID: headerID, ExitIDs: []int{exitPh}}
	if hasInit {
		return visitor.Chain(rc.Graph, initFrag, loopFrag)
	}
	return loopFrag
}

// handleEnhancedFor models a for-each loop as a LOOP_HEADER whose
// condition text is the iterable expression; the loop variable counts as
// a def on every iteration, mirroring the fresh binding Java gives it
// each time around.
func handleEnhancedFor(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	nameNode := n.ChildByField("name")
	valueNode := n.ChildByField("value")
	bodyNode := n.ChildByField("body")

	start, end := n.Span()
	headerText := ""
	if !valueNode.IsNil() {
		headerText = valueNode.Text()
	}
	headerID := rc.Graph.NewNode(cfgmodel.KindLoopHeader, headerText, &start, &end)
	if name := nameNode.Text(); name != "" {
		rc.Graph.Nodes[headerID].Metadata.Defs.Add(name)
	}
	if !valueNode.IsNil() {
		walk(valueNode, rc.Graph.Nodes[headerID], IsComment, rc, headerID)
	}

	exitPh := visitor.Placeholder(rc.Graph)
	rc.Scope.PushLoop(visitor.LoopFrame{ContinueTarget: headerID, BreakTarget: exitPh})

	var bodyFrag visitor.Fragment
	hasBody := false
	if !bodyNode.IsNil() {
		bodyFrag = rc.Visit(bodyNode)
		hasBody = true
	} else {
		rc.Warn(warning.KindMalformedControl, headerID, "for-each loop missing its body")
	}
	rc.Scope.PopLoop()

	return visitor.Loop(rc.Graph, headerID, bodyFrag, hasBody, exitPh)
}

func handleSwitch(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	condNode := n.ChildByField("condition")
	bodyNode := n.ChildByField("body")

	start, end := n.Span()
	condText := ""
	if !condNode.IsNil() {
		condText = condNode.Text()
	}
	headID := rc.Graph.NewNode(cfgmodel.KindSwitchHead, condText, &start, &end)
	if !condNode.IsNil() {
		walk(condNode, rc.Graph.Nodes[headID], IsComment, rc, headID)
	}

	exitPh := visitor.Placeholder(rc.Graph)
	rc.Scope.PushSwitch(visitor.SwitchFrame{BreakTarget: exitPh, SwitchHeadID: headID})

	var groups []sourcetree.Node
	if !bodyNode.IsNil() {
		for _, c := range bodyNode.NamedChildren(IsComment) {
			if c.Kind() == "switch_block_statement_group" {
				groups = append(groups, c)
			}
		}
	}

	var prevExits []int
	for _, group := range groups {
		var labels []sourcetree.Node
		var stmts []sourcetree.Node
		for _, c := range group.NamedChildren(IsComment) {
			if c.Kind() == "switch_label" {
				labels = append(labels, c)
			} else {
				stmts = append(stmts, c)
			}
		}

		kind := cfgmodel.KindCase
		text := strings.Join(labelTexts(labels), ", ")
		isDefault := len(labels) == 0
		for _, l := range labels {
			if strings.HasPrefix(strings.TrimSpace(l.Text()), "default") {
				isDefault = true
			}
		}
		if isDefault {
			kind = cfgmodel.KindDefault
			text = "default"
		}

		gs, ge := group.Span()
		groupID := rc.Graph.NewNode(kind, text, &gs, &ge)
		for _, l := range labels {
			label := labelValue(l)
			rc.Graph.AddEdge(headID, groupID, label)
		}
		if len(labels) == 0 {
			rc.Graph.AddEdge(headID, groupID, cfgmodel.LabelDefault)
		}

		for _, e := range prevExits {
			rc.Graph.AddEdge(e, groupID, "")
		}

		bodyFrag := rc.VisitSequence(stmts)
		if bodyFrag.EntryID != 0 {
			rc.Graph.AddEdge(groupID, bodyFrag.EntryID, "")
			prevExits = bodyFrag.ExitIDs
		} else {
			prevExits = []int{groupID}
		}
	}

	if len(groups) == 0 {
		rc.Graph.AddEdge(headID, exitPh, "")
	}
	for _, e := range prevExits {
		rc.Graph.AddEdge(e, exitPh, "")
	}

	rc.Scope.PopSwitch()
	return visitor.Fragment{EntryID: headID, ExitIDs: []int{exitPh}}
}

func labelTexts(labels []sourcetree.Node) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelValue(l))
	}
	return out
}

// labelValue extracts a switch_label's case-constant text, or the
// literal "default" string for a default label. tree-sitter-java's
// switch_label has no dedicated field for the constant, so this reads
// past the leading "case"/"default" keyword by text.
func labelValue(l sourcetree.Node) string {
	text := strings.TrimSpace(l.Text())
	text = strings.TrimSuffix(text, ":")
	if strings.HasPrefix(text, "case") {
		return strings.TrimSpace(strings.TrimPrefix(text, "case"))
	}
	return cfgmodel.LabelDefault
}

func handleBreak(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindBreak, n.Text(), &start, &end)
	if target, ok := rc.Scope.BreakTarget(); ok {
		rc.Graph.AddEdge(id, target, "")
	} else {
		rc.Warn(warning.KindMalformedControl, id, "break outside a loop or switch")
	}
	return visitor.DeadEnd(id)
}

func handleContinue(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindContinue, n.Text(), &start, &end)
	if target, ok := rc.Scope.ContinueTarget(); ok {
		rc.Graph.AddEdge(id, target, "")
	} else {
		rc.Warn(warning.KindMalformedControl, id, "continue outside a loop")
	}
	return visitor.DeadEnd(id)
}

func handleReturn(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindReturn, n.Text(), &start, &end)
	for _, c := range n.NamedChildren(IsComment) {
		walk(c, rc.Graph.Nodes[id], IsComment, rc, id)
	}
	if len(rc.Graph.ExitIDs) > 0 {
		rc.Graph.AddEdge(id, rc.Graph.ExitIDs[0], "")
	}
	return visitor.DeadEnd(id)
}

// handleThrow terminates the routine at EXIT the same way return does;
// see the package doc comment for why exception dispatch itself is not
// modeled.
func handleThrow(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindReturn, n.Text(), &start, &end)
	for _, c := range n.NamedChildren(IsComment) {
		walk(c, rc.Graph.Nodes[id], IsComment, rc, id)
	}
	if len(rc.Graph.ExitIDs) > 0 {
		rc.Graph.AddEdge(id, rc.Graph.ExitIDs[0], "")
	}
	return visitor.DeadEnd(id)
}

func handleLabel(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	labelName := ""
	var stmt sourcetree.Node
	for i, c := range n.NamedChildren(IsComment) {
		if i == 0 {
			labelName = c.Text()
			continue
		}
		stmt = c
	}

	start, end := n.Span()
	labelID := rc.Graph.NewNode(cfgmodel.KindLabel, labelName, &start, &end)
	rc.Scope.RegisterLabel(labelName, labelID)

	if stmt.IsNil() {
		return visitor.SingleNode(labelID)
	}
	inner := rc.Visit(stmt)
	rc.Graph.AddEdge(labelID, inner.EntryID, "")
	return visitor.Fragment{EntryID: labelID, ExitIDs: inner.ExitIDs}
}

// walk recursively classifies identifiers into a node's Defs/Uses/Calls
// sets. A method_invocation's callee name is the receiver chain's
// rightmost identifier — tree-sitter-java's "name" field already gives
// exactly that for a.b().c(), so no additional unwrapping is needed; the
// receiver expression itself is still walked for its own uses. rc and
// nodeID identify the enclosing CFG node so a method call can also queue
// a PendingCall (see the identical note on pkg/lang/c's walk).
func walk(n sourcetree.Node, node *cfgmodel.Node, isComment sourcetree.CommentPredicate, rc *visitor.RoutineContext, nodeID int) {
	if n.IsNil() {
		return
	}
	switch n.Kind() {
	case "identifier":
		node.Metadata.Uses.Add(n.Text())

	case "local_variable_declaration":
		for _, c := range n.Children(isComment) {
			if c.Kind() != "variable_declarator" {
				continue
			}
			if name := c.ChildByField("name"); !name.IsNil() {
				node.Metadata.Defs.Add(name.Text())
			}
			if val := c.ChildByField("value"); !val.IsNil() {
				walk(val, node, isComment, rc, nodeID)
			}
		}

	case "assignment_expression":
		left := n.ChildByField("left")
		right := n.ChildByField("right")
		walkAssignTarget(left, node, isComment, rc, nodeID)
		walk(right, node, isComment, rc, nodeID)

	case "update_expression":
		operand := firstIdentifierChild(n)
		if operand != "" {
			node.Metadata.Defs.Add(operand)
			node.Metadata.Uses.Add(operand)
		} else {
			for _, c := range n.Children(isComment) {
				walk(c, node, isComment, rc, nodeID)
			}
		}

	case "method_invocation":
		if object := n.ChildByField("object"); !object.IsNil() {
			walk(object, node, isComment, rc, nodeID)
		}
		if name := n.ChildByField("name"); !name.IsNil() {
			node.Metadata.Calls.Add(name.Text())
			rc.Scope.RecordCall(name.Text(), nodeID, nodeID)
		}
		if args := n.ChildByField("arguments"); !args.IsNil() {
			for _, a := range args.Children(isComment) {
				walk(a, node, isComment, rc, nodeID)
			}
		}

	case "object_creation_expression":
		if args := n.ChildByField("arguments"); !args.IsNil() {
			for _, a := range args.Children(isComment) {
				walk(a, node, isComment, rc, nodeID)
			}
		}

	default:
		for _, c := range n.Children(isComment) {
			walk(c, node, isComment, rc, nodeID)
		}
	}
}

func walkAssignTarget(n sourcetree.Node, node *cfgmodel.Node, isComment sourcetree.CommentPredicate, rc *visitor.RoutineContext, nodeID int) {
	if n.Kind() == "identifier" {
		node.Metadata.Defs.Add(n.Text())
		return
	}
	walk(n, node, isComment, rc, nodeID)
}

func firstIdentifierChild(n sourcetree.Node) string {
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.Kind() == "identifier" {
			return c.Text()
		}
	}
	return ""
}
