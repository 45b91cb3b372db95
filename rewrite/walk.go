package rewrite

import "github.com/vogtb/sheetcore/parser"

// refHandler rewrites a single-cell reference found anywhere in a
// formula tree; rangeHandler does the same for a two-corner range,
// handled separately because row/column deletion can contract or
// truncate a range in ways that don't reduce to rewriting each corner
// independently (see structuralRangeHandler).
type refHandler func(parser.ReferenceNode, parser.RenderContext) parser.Node
type rangeHandler func(parser.RangeNode, parser.RenderContext) parser.Node

// walk recurses through n, replacing every ReferenceNode and RangeNode
// via the given handlers and rebuilding composite nodes around the
// results. n is assumed to already be a private clone (see Clone) —
// walk mutates the nodes it's handed rather than allocating fresh
// copies for the non-reference node kinds.
func walk(n parser.Node, ctx parser.RenderContext, onRef refHandler, onRange rangeHandler) parser.Node {
	switch v := n.(type) {
	case *parser.ReferenceNode:
		return onRef(*v, ctx)
	case *parser.RangeNode:
		return onRange(*v, ctx)
	case *parser.UnaryNode:
		v.Child = walk(v.Child, ctx, onRef, onRange)
		return v
	case *parser.BinaryNode:
		v.Left = walk(v.Left, ctx, onRef, onRange)
		v.Right = walk(v.Right, ctx, onRef, onRange)
		return v
	case *parser.FunctionNode:
		for i, a := range v.Args {
			v.Args[i] = walk(a, ctx, onRef, onRange)
		}
		return v
	case *parser.InvalidFunctionNode:
		for i, a := range v.Args {
			v.Args[i] = walk(a, ctx, onRef, onRange)
		}
		return v
	case *parser.ImplicitIntersectionNode:
		v.Child = walk(v.Child, ctx, onRef, onRange)
		return v
	default:
		// literals, defined names, table references (already expanded
		// by the parser) and errors carry no cell references.
		return n
	}
}

// reencodeRef rebuilds ref so its Absolute(ctx) resolves to (absRow,
// absCol) on the given sheet, preserving whichever coordinates were
// marked absolute in the source formula and forcing an explicit sheet
// qualifier when the reference now crosses into a different sheet than
// its new host.
func reencodeRef(ref parser.ReferenceNode, ctx parser.RenderContext, absRow, absCol, sheet int, sheetChanged bool) parser.ReferenceNode {
	out := ref
	out.SheetIndex = sheet
	if sheetChanged && sheet != ctx.HostSheet {
		out.SheetExplicit = true
	}
	if ref.AbsoluteRow {
		out.Row = absRow
	} else {
		out.Row = absRow - ctx.HostRow
	}
	if ref.AbsoluteCol {
		out.Col = absCol
	} else {
		out.Col = absCol - ctx.HostCol
	}
	return out
}

func refError() parser.Node { return &parser.ErrorNode{Kind: parser.ErrRef} }
