package unit

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dooosp/ghostcode-auditor/pkg/parser"
)

// nestingTypes are the control-flow constructs that deepen nesting.
var nestingTypes = map[string]bool{
	"if_statement":       true,
	"for_statement":      true,
	"for_in_statement":   true,
	"while_statement":    true,
	"do_statement":       true,
	"switch_statement":   true,
	"try_statement":      true,
	"ternary_expression": true,
}

// branchTypes contribute to the branch count. Binary expressions only
// count when the operator is short-circuiting (&&, ||, ??).
var branchTypes = map[string]bool{
	"if_statement":       true,
	"else_clause":        true,
	"switch_case":        true,
	"ternary_expression": true,
}

var jsxTypes = map[string]bool{
	"jsx_element":              true,
	"jsx_self_closing_element": true,
	"jsx_fragment":             true,
}

// effectHooks are the hooks whose first callback argument may return a
// cleanup function.
var effectHooks = map[string]bool{
	"useEffect":       true,
	"useLayoutEffect": true,
}

// sideEffectRoots are callees (or member-expression roots) that reach
// outside the render: network and browser storage access.
var sideEffectRoots = map[string]bool{
	"fetch":          true,
	"localStorage":   true,
	"sessionStorage": true,
	"XMLHttpRequest": true,
}

// ambiguousNames are identifiers too generic to convey intent.
var ambiguousNames = map[string]bool{
	"data": true, "tmp": true, "temp": true, "result": true, "res": true,
	"ret": true, "val": true, "value": true, "item": true, "items": true,
	"obj": true, "arr": true, "list": true, "info": true, "response": true,
	"output": true, "input": true, "x": true, "y": true, "z": true,
	"a": true, "b": true, "foo": true, "bar": true, "baz": true,
	"cb": true, "fn": true, "func": true, "handler": true,
}

// maxNesting returns the deepest chain of nested control-flow
// constructs beneath node.
func maxNesting(node *sitter.Node, depth int) int {
	maxDepth := depth
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childDepth := depth
		if nestingTypes[child.Type()] {
			childDepth = depth + 1
		}
		if d := maxNesting(child, childDepth); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// countBranches counts decision points: conditionals, switch cases,
// ternaries, and short-circuit operators.
func countBranches(node *sitter.Node, source []byte) int {
	count := 0
	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if branchTypes[nodeType] {
			count++
		} else if nodeType == "binary_expression" && isShortCircuit(n) {
			count++
		}
		return true
	})
	return count
}

func isShortCircuit(n *sitter.Node) bool {
	op := n.ChildByFieldName("operator")
	if op == nil {
		return false
	}
	switch op.Type() {
	case "&&", "||", "??":
		return true
	}
	return false
}

// countEarlyReturns counts return statements at the top level of the
// function body, excluding the final one. Expression-bodied arrows
// have no statement block and so no early returns.
func countEarlyReturns(fn *sitter.Node) int {
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return 0
	}
	returns := 0
	for i := range int(body.NamedChildCount()) {
		if body.NamedChild(i).Type() == "return_statement" {
			returns++
		}
	}
	if returns > 0 {
		returns--
	}
	return returns
}

// countNodeType counts all descendants of a given type.
func countNodeType(node *sitter.Node, nodeType string) int {
	count := 0
	parser.WalkTyped(node, nil, func(_ *sitter.Node, t string, _ []byte) bool {
		if t == nodeType {
			count++
		}
		return true
	})
	return count
}

// collectHookCalls returns the names of React hooks invoked in the
// body, in source order,duplicates preserved.
func collectHookCalls(body *sitter.Node, source []byte) []string {
	var calls []string
	parser.WalkTyped(body, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if nodeType != "call_expression" {
			return true
		}
		callee := n.ChildByFieldName("function")
		if callee == nil || callee.Type() != "identifier" {
			return true
		}
		name := parser.GetNodeText(callee, src)
		if hookNamePattern.MatchString(name) {
			calls = append(calls, name)
		}
		return true
	})
	return calls
}

// hasEffectCleanup reports whether any effect hook's callback returns a
// function, which React treats as the cleanup handler.
func hasEffectCleanup(body *sitter.Node, source []byte) bool {
	found := false
	parser.WalkTyped(body, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if found {
			return false
		}
		if nodeType != "call_expression" {
			return true
		}
		callee := n.ChildByFieldName("function")
		if callee == nil || !effectHooks[parser.GetNodeText(callee, src)] {
			return true
		}
		if cb := firstFunctionArgument(n); cb != nil && callbackReturnsFunction(cb) {
			found = true
			return false
		}
		return true
	})
	return found
}

func firstFunctionArgument(call *sitter.Node) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	for i := range int(args.NamedChildCount()) {
		arg := args.NamedChild(i)
		if isFunctionValue(arg.Type()) {
			return arg
		}
	}
	return nil
}

func callbackReturnsFunction(cb *sitter.Node) bool {
	body := cb.ChildByFieldName("body")
	if body == nil {
		return false
	}
	// Expression-bodied arrow returning a function directly.
	if isFunctionValue(body.Type()) {
		return true
	}
	for i := range int(body.NamedChildCount()) {
		stmt := body.NamedChild(i)
		if stmt.Type() != "return_statement" {
			continue
		}
		for j := range int(stmt.NamedChildCount()) {
			if isFunctionValue(stmt.NamedChild(j).Type()) {
				return true
			}
		}
	}
	return false
}

// countSideEffectCalls counts calls reaching network or browser
// storage anywhere in the body, including inside effect callbacks.
func countSideEffectCalls(body *sitter.Node, source []byte) int {
	count := 0
	parser.WalkTyped(body, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if nodeType != "call_expression" {
			return true
		}
		if sideEffectRoots[calleeRoot(n, src)] {
			count++
		}
		return true
	})
	return count
}

// calleeRoot resolves the leftmost name of a call's callee: the
// identifier itself, or the object of a member expression, so
// localStorage.setItem resolves to localStorage.
func calleeRoot(call *sitter.Node, source []byte) string {
	callee := call.ChildByFieldName("function")
	if callee == nil {
		return ""
	}
	for callee.Type() == "member_expression" {
		obj := callee.ChildByFieldName("object")
		if obj == nil {
			break
		}
		callee = obj
	}
	return parser.GetNodeText(callee, source)
}

// countBooleanOperators counts && and || occurrences.
func countBooleanOperators(body *sitter.Node, source []byte) int {
	count := 0
	parser.WalkTyped(body, source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if nodeType != "binary_expression" {
			return true
		}
		if op := n.ChildByFieldName("operator"); op != nil {
			switch op.Type() {
			case "&&", "||":
				count++
			}
		}
		return true
	})
	return count
}

// maxCallbackDepth measures how deeply function literals nest as call
// arguments. fetch(url, () => { setTimeout(() => {...}) }) is depth 2.
func maxCallbackDepth(node *sitter.Node, depth int) int {
	maxDepth := depth
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childDepth := depth
		if isFunctionValue(child.Type()) && isCallArgument(child) {
			childDepth = depth + 1
		}
		if d := maxCallbackDepth(child, childDepth); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

func isCallArgument(n *sitter.Node) bool {
	p := n.Parent()
	return p != nil && p.Type() == "arguments" &&
		p.Parent() != nil && p.Parent().Type() == "call_expression"
}

// identifierAmbiguity returns the fraction of identifier occurrences
// whose lowercase form is a generic throwaway name.
func identifierAmbiguity(body *sitter.Node, source []byte) float64 {
	total, ambiguous := 0, 0
	parser.WalkTyped(body, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if nodeType != "identifier" {
			return true
		}
		total++
		if ambiguousNames[strings.ToLower(parser.GetNodeText(n, src))] {
			ambiguous++
		}
		return true
	})
	if total == 0 {
		return 0
	}
	return float64(ambiguous) / float64(total)
}

// containsJSX reports whether the subtree produces JSX.
func containsJSX(node *sitter.Node) bool {
	found := false
	parser.WalkTyped(node, nil, func(_ *sitter.Node, nodeType string, _ []byte) bool {
		if jsxTypes[nodeType] {
			found = true
			return false
		}
		return !found
	})
	return found
}
