// Package rewrite implements the reference rewriter described in
// spec.md §4.5: given a formula's AST and the host cell it lives at, it
// produces the AST that should replace it after a fill/extend, a
// cut-and-paste move, a forward-reference push, or a row/column
// insert/delete. Every entry point clones its input (parser.Node trees
// are otherwise shared across cells via the formula pool, spec.md §3)
// and mutates only the clone, then leaves it to the caller to compare
// the clone's Stringify output against the original before writing it
// back. That write-only-if-different check belongs at the call site
// since it needs the caller's RenderContext for both the old and new
// host; Changed in move.go does the comparison once both are known.
//
// Fill/extend needs no entry point here at all: this package's
// ReferenceNode stores relative coordinates as an offset from the host
// cell (parser/ast.go), so dragging a formula to a new host without
// touching its AST already reproduces fill semantics exactly (relative
// references shift with the new host, absolute ones don't move because
// they're stored as true coordinates). The caller just binds the
// source cell's existing formula-pool entry to the new host.
package rewrite

import "github.com/vogtb/sheetcore/parser"

// Area is an inclusive, 0-based rectangular block of cells on one sheet.
type Area struct {
	Sheet              int
	FirstRow, FirstCol int
	LastRow, LastCol   int
}

func (a Area) contains(sheet, row, col int) bool {
	return sheet == a.Sheet && row >= a.FirstRow && row <= a.LastRow && col >= a.FirstCol && col <= a.LastCol
}

// Translation maps every cell inside From to the corresponding cell
// inside To; From and To must be the same shape. It is the shared
// primitive behind both "cut & paste / move" (spec.md §4.5's second
// bullet) and "forward references" (its third bullet); the two differ
// only in which formulas get scanned, not in how a matched coordinate
// moves.
type Translation struct {
	From, To Area
}

// translate reports whether (sheet,row,col) falls inside t.From, and if
// so returns its image in t.To.
func (t Translation) translate(sheet, row, col int) (nsheet, nrow, ncol int, matched bool) {
	if !t.From.contains(sheet, row, col) {
		return sheet, row, col, false
	}
	return t.To.Sheet, row - t.From.FirstRow + t.To.FirstRow, col - t.From.FirstCol + t.To.FirstCol, true
}

// Clone deep-copies a formula AST so a rewrite can mutate it without
// disturbing other cells still sharing the original node through the
// formula pool.
func Clone(n parser.Node) parser.Node {
	switch v := n.(type) {
	case nil:
		return nil
	case *parser.NumberNode:
		cp := *v
		return &cp
	case *parser.StringNode:
		cp := *v
		return &cp
	case *parser.BooleanNode:
		cp := *v
		return &cp
	case *parser.ErrorNode:
		cp := *v
		return &cp
	case *parser.EmptyArgNode:
		cp := *v
		return &cp
	case *parser.ReferenceNode:
		cp := *v
		return &cp
	case *parser.RangeNode:
		cp := *v
		return &cp
	case *parser.ArrayNode:
		cp := *v
		cp.Rows = make([][]parser.ArrayLeaf, len(v.Rows))
		for i, row := range v.Rows {
			cp.Rows[i] = append([]parser.ArrayLeaf(nil), row...)
		}
		return &cp
	case *parser.UnaryNode:
		cp := *v
		cp.Child = Clone(v.Child)
		return &cp
	case *parser.BinaryNode:
		cp := *v
		cp.Left = Clone(v.Left)
		cp.Right = Clone(v.Right)
		return &cp
	case *parser.FunctionNode:
		cp := *v
		cp.Args = cloneArgs(v.Args)
		return &cp
	case *parser.InvalidFunctionNode:
		cp := *v
		cp.Args = cloneArgs(v.Args)
		return &cp
	case *parser.DefinedNameNode:
		cp := *v
		return &cp
	case *parser.ImplicitIntersectionNode:
		cp := *v
		cp.Child = Clone(v.Child)
		return &cp
	case *parser.TableReferenceNode:
		cp := *v
		return &cp
	default:
		return n
	}
}

func cloneArgs(args []parser.Node) []parser.Node {
	out := make([]parser.Node, len(args))
	for i, a := range args {
		out[i] = Clone(a)
	}
	return out
}
