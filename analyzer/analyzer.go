// Package analyzer implements the static pass described in spec.md §4.3:
// it walks a freshly parsed AST and wraps function arguments that are
// scalar-only for their position in an automatic ImplicitIntersection,
// using funcset's per-function argument-kind table to decide which
// positions need it.
package analyzer

import (
	"github.com/vogtb/sheetcore/funcset"
	"github.com/vogtb/sheetcore/parser"
)

// Analyze rewrites node in place (returning the possibly-new root, since
// Go can't mutate through an interface value in place) inserting
// automatic implicit-intersection markers.
func Analyze(node parser.Node) parser.Node {
	switch n := node.(type) {
	case *parser.BinaryNode:
		n.Left = Analyze(n.Left)
		n.Right = Analyze(n.Right)
		return n
	case *parser.UnaryNode:
		n.Child = Analyze(n.Child)
		return n
	case *parser.ImplicitIntersectionNode:
		n.Child = Analyze(n.Child)
		return n
	case *parser.FunctionNode:
		sig, _ := funcset.Lookup(n.Name)
		for i, arg := range n.Args {
			analyzed := Analyze(arg)
			if sig.ArgKindAt(i) == funcset.Scalar && mayBeRange(analyzed) {
				analyzed = &parser.ImplicitIntersectionNode{Automatic: true, Child: analyzed}
			}
			n.Args[i] = analyzed
		}
		return n
	case *parser.InvalidFunctionNode:
		for i, arg := range n.Args {
			n.Args[i] = Analyze(arg)
		}
		return n
	case *parser.ArrayNode, *parser.ReferenceNode, *parser.RangeNode,
		*parser.NumberNode, *parser.StringNode, *parser.BooleanNode,
		*parser.ErrorNode, *parser.EmptyArgNode, *parser.DefinedNameNode,
		*parser.TableReferenceNode:
		return n
	default:
		return n
	}
}

// mayBeRange reports whether the analyzed subtree can evaluate to a
// Range: a direct range/reference node, a function call, or a defined
// name — anything whose runtime result isn't statically known to be a
// scalar. Literals, arithmetic, and comparisons are never ranges.
func mayBeRange(n parser.Node) bool {
	switch v := n.(type) {
	case *parser.RangeNode, *parser.ReferenceNode, *parser.DefinedNameNode:
		return true
	case *parser.FunctionNode:
		sig, ok := funcset.Lookup(v.Name)
		return ok && rangeReturningFunctions[sig.Name]
	case *parser.ImplicitIntersectionNode:
		return false // already collapsed to a scalar
	default:
		return false
	}
}

// rangeReturningFunctions lists functions whose result can itself be a
// multi-cell range/array that a caller might feed into a scalar-only
// position (e.g. OFFSET, INDEX with omitted row/col, CHOOSE).
var rangeReturningFunctions = map[string]bool{
	"OFFSET": true, "INDEX": true, "CHOOSE": true, "INDIRECT": true,
}
