// Package c is the C language visitor: it registers a Handler for every
// C statement kind the control-flow model names, and classifies each
// node's defs, uses, and calls. Field access uses the real
// go-tree-sitter ChildByFieldName binding rather than matching child
// node kinds against field-name strings.
package c

import (
	"github.com/cflowgraph/cflow/internal/warning"
	"github.com/cflowgraph/cflow/pkg/cfgmodel"
	"github.com/cflowgraph/cflow/pkg/sourcetree"
	"github.com/cflowgraph/cflow/pkg/visitor"
)

// IsComment reports whether kind is tree-sitter-c's comment node.
func IsComment(kind string) bool { return kind == "comment" }

// Handlers returns the C statement dispatch table.
func Handlers() map[string]visitor.Handler {
	return map[string]visitor.Handler{
		"compound_statement":   handleCompound,
		"if_statement":         handleIf,
		"while_statement":      handleWhile,
		"do_statement":         handleDoWhile,
		"for_statement":        handleFor,
		"switch_statement":     handleSwitch,
		"break_statement":      handleBreak,
		"continue_statement":   handleContinue,
		"return_statement":     handleReturn,
		"goto_statement":       handleGoto,
		"labeled_statement":    handleLabel,
		"expression_statement": handleLeaf,
		"declaration":          handleLeaf,
	}
}

// Functions returns every function_definition node in the translation
// unit, in source order.
func Functions(root sourcetree.Node) []sourcetree.Node {
	var out []sourcetree.Node
	var walkTree func(n sourcetree.Node)
	walkTree = func(n sourcetree.Node) {
		if n.Kind() == "function_definition" {
			out = append(out, n)
			return
		}
		for _, c := range n.Children(IsComment) {
			walkTree(c)
		}
	}
	walkTree(root)
	return out
}

// Signature extracts a function_definition's name, parameter names, and
// body statement list.
func Signature(fn sourcetree.Node) (name string, params []string, body []sourcetree.Node) {
	declarator := fn.ChildByField("declarator")
	inner := unwrapFunctionDeclarator(declarator)
	if inner.IsNil() {
		return "", nil, nil
	}
	name = identifierOf(inner.ChildByField("declarator"))

	if paramList := inner.ChildByField("parameters"); !paramList.IsNil() {
		for _, p := range paramList.NamedChildren(IsComment) {
			if p.Kind() != "parameter_declaration" {
				continue
			}
			if pname := identifierOf(p.ChildByField("declarator")); pname != "" {
				params = append(params, pname)
			}
		}
	}

	bodyNode := fn.ChildByField("body")
	body = bodyNode.NamedChildren(IsComment)
	return name, params, body
}

// unwrapFunctionDeclarator finds the innermost function_declarator,
// looking through pointer_declarator wrappers for functions returning a
// pointer type.
func unwrapFunctionDeclarator(n sourcetree.Node) sourcetree.Node {
	for !n.IsNil() {
		if n.Kind() == "function_declarator" {
			return n
		}
		n = n.ChildByField("declarator")
	}
	return sourcetree.Node{}
}

func handleCompound(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	return rc.VisitSequence(n.NamedChildren(IsComment))
}

func handleLeaf(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindStatement, n.Text(), &start, &end)
	walk(n, rc.Graph.Nodes[id], IsComment, rc, id)
	return visitor.SingleNode(id)
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
	initNode := n.ChildByField("initializer")
	condNode := n.ChildByField("condition")
	updateNode := n.ChildByField("update")
	bodyNode := n.ChildByField("body")

	var initFrag visitor.Fragment
	hasInit := false
	if !initNode.IsNil() {
		is, ie := initNode.Span()
		initID := rc.Graph.NewNode(cfgmodel.KindStatement, initNode.Text(), &is, &ie)
		walk(initNode, rc.Graph.Nodes[initID], IsComment, rc, initID)
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
	if !updateNode.IsNil() {
		us, ue := updateNode.Span()
		updateID := rc.Graph.NewNode(cfgmodel.KindStatement, updateNode.Text(), &us, &ue)
		walk(updateNode, rc.Graph.Nodes[updateID], IsComment, rc, updateID)
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

	var cases []sourcetree.Node
	if !bodyNode.IsNil() {
		for _, c := range bodyNode.NamedChildren(IsComment) {
			if c.Kind() == "case_statement" {
				cases = append(cases, c)
			}
		}
	}

	var prevExits []int
	for _, caseNode := range cases {
		valueNode := caseNode.ChildByField("value")
		isDefault := valueNode.IsNil()

		kind := cfgmodel.KindCase
		label := valueNode.Text()
		text := "case " + label
		if isDefault {
			kind = cfgmodel.KindDefault
			label = cfgmodel.LabelDefault
			text = "default"
		}

		cstart, cend := caseNode.Span()
		caseID := rc.Graph.NewNode(kind, text, &cstart, &cend)
		rc.Graph.AddEdge(headID, caseID, label)

		for _, e := range prevExits {
			rc.Graph.AddEdge(e, caseID, "")
		}

		bodyFrag := rc.VisitSequence(caseBodyStatements(caseNode, valueNode))
		if bodyFrag.EntryID != 0 {
			rc.Graph.AddEdge(caseID, bodyFrag.EntryID, "")
			prevExits = bodyFrag.ExitIDs
		} else {
			prevExits = []int{caseID}
		}
	}

	if len(cases) == 0 {
		rc.Graph.AddEdge(headID, exitPh, "")
	}
	for _, e := range prevExits {
		rc.Graph.AddEdge(e, exitPh, "")
	}

	rc.Scope.PopSwitch()
	return visitor.Fragment{EntryID: headID, ExitIDs: []int{exitPh}}
}

// caseBodyStatements returns a case_statement's trailing statement
// children, skipping its case-value expression (tree-sitter-c models a
// case's statements as flat siblings within the case_statement node
// itself, which is what lets fallthrough happen without extra syntax).
func caseBodyStatements(caseNode, valueNode sourcetree.Node) []sourcetree.Node {
	var out []sourcetree.Node
	for _, c := range caseNode.NamedChildren(IsComment) {
		if !valueNode.IsNil() && spanEqual(c, valueNode) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func spanEqual(a, b sourcetree.Node) bool {
	as, ae := a.Span()
	bs, be := b.Span()
	return as == bs && ae == be
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

func handleGoto(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	label := identifierOf(n.ChildByField("label"))
	start, end := n.Span()
	id := rc.Graph.NewNode(cfgmodel.KindGoto, n.Text(), &start, &end)
	if target, ok := rc.Scope.LabelTable()[label]; ok {
		rc.Graph.AddEdge(id, target, "")
	} else {
		rc.Scope.RecordGoto(id, label)
	}
	return visitor.DeadEnd(id)
}

func handleLabel(rc *visitor.RoutineContext, n sourcetree.Node) visitor.Fragment {
	labelNode := n.ChildByField("label")
	labelName := identifierOf(labelNode)
	start, end := n.Span()
	labelID := rc.Graph.NewNode(cfgmodel.KindLabel, labelName, &start, &end)
	rc.Scope.RegisterLabel(labelName, labelID)

	var stmt sourcetree.Node
	for _, c := range n.NamedChildren(IsComment) {
		if !labelNode.IsNil() && spanEqual(c, labelNode) {
			continue
		}
		stmt = c
		break
	}

	if stmt.IsNil() {
		return visitor.SingleNode(labelID)
	}
	inner := rc.Visit(stmt)
	rc.Graph.AddEdge(labelID, inner.EntryID, "")
	return visitor.Fragment{EntryID: labelID, ExitIDs: inner.ExitIDs}
}

// walk recursively classifies identifiers into a node's Defs/Uses/Calls
// sets: declarations and assignment left-hand sides define, call
// arguments and everything else use, and a call expression's callee
// name is recorded separately as a call target. Compound
// assignment/increment targets count as both a def and a use since they
// read the prior value. rc and nodeID identify the enclosing CFG node so
// a call_expression can also queue a PendingCall — the call site and its
// return point are the same node, since that node's normal successor
// edges already carry control to whatever follows the call.
func walk(n sourcetree.Node, node *cfgmodel.Node, isComment sourcetree.CommentPredicate, rc *visitor.RoutineContext, nodeID int) {
	if n.IsNil() {
		return
	}
	switch n.Kind() {
	case "identifier":
		node.Metadata.Uses.Add(n.Text())

	case "declaration":
		for _, c := range n.Children(isComment) {
			switch c.Kind() {
			case "init_declarator":
				if name := identifierOf(c.ChildByField("declarator")); name != "" {
					node.Metadata.Defs.Add(name)
				}
				if val := c.ChildByField("value"); !val.IsNil() {
					walk(val, node, isComment, rc, nodeID)
				}
			case "identifier", "pointer_declarator", "array_declarator":
				if name := identifierOf(c); name != "" {
					node.Metadata.Defs.Add(name)
				}
			}
		}

	case "assignment_expression":
		left := n.ChildByField("left")
		right := n.ChildByField("right")
		walkAssignTarget(left, node, isComment, rc, nodeID)
		if op := n.ChildByField("operator"); !op.IsNil() && op.Text() != "=" && left.Kind() == "identifier" {
			node.Metadata.Uses.Add(left.Text())
		}
		walk(right, node, isComment, rc, nodeID)

	case "update_expression":
		arg := n.ChildByField("argument")
		if name := identifierOf(arg); name != "" {
			node.Metadata.Defs.Add(name)
			node.Metadata.Uses.Add(name)
		} else {
			walk(arg, node, isComment, rc, nodeID)
		}

	case "call_expression":
		fn := n.ChildByField("function")
		if name := identifierOf(fn); name != "" {
			node.Metadata.Calls.Add(name)
			rc.Scope.RecordCall(name, nodeID, nodeID)
		} else {
			walk(fn, node, isComment, rc, nodeID)
		}
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

// walkAssignTarget records the def for a simple identifier target;
// anything more complex (a.b, a[i], *p) still reads its base identifier,
// so it is classified through walk as a use rather than a def.
func walkAssignTarget(n sourcetree.Node, node *cfgmodel.Node, isComment sourcetree.CommentPredicate, rc *visitor.RoutineContext, nodeID int) {
	if n.Kind() == "identifier" {
		node.Metadata.Defs.Add(n.Text())
		return
	}
	walk(n, node, isComment, rc, nodeID)
}

// identifierOf unwraps a declarator chain (pointer/array/parenthesized
// declarators nest a "declarator" field) down to its leaf identifier.
func identifierOf(n sourcetree.Node) string {
	for !n.IsNil() {
		if n.Kind() == "identifier" {
			return n.Text()
		}
		inner := n.ChildByField("declarator")
		if inner.IsNil() {
			return ""
		}
		n = inner
	}
	return ""
}
