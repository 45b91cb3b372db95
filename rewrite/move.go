package rewrite

import "github.com/vogtb/sheetcore/parser"

// Move rewrites formula n, hosted at oldCtx before the operation and at
// newCtx after it, under translation t. A single primitive covers both
// halves of spec.md §4.5's move/forward-reference bullets:
//
//   - a formula that itself lived inside the moved area supplies its old
//     and new host (oldCtx != newCtx) together with t describing the
//     move; references landing inside t.From track the move, references
//     landing outside keep pointing at the same absolute cell even
//     though the host changed underneath them.
//   - a formula elsewhere in the workbook that merely references into
//     the moved area supplies oldCtx == newCtx (its own host doesn't
//     move) with the same t; only the reference translation applies.
//
// Forward-reference pushes that aren't tied to an actual cell move (a
// pure source_area -> target_area relabeling) are the oldCtx == newCtx
// case too, so no separate entry point is needed for spec.md's third
// bullet.
func Move(n parser.Node, oldCtx, newCtx parser.RenderContext, t Translation) parser.Node {
	clone := Clone(n)
	return walk(clone, oldCtx, moveRefHandler(newCtx, t), moveRangeHandler(newCtx, t))
}

// Changed reports whether rewritten, stringified against its new host
// context, differs from original stringified against its old one — the
// write-only-if-different rule spec.md §4.5 calls determinism.
func Changed(original parser.Node, oldCtx parser.RenderContext, rewritten parser.Node, newCtx parser.RenderContext) bool {
	return original.Stringify(oldCtx) != rewritten.Stringify(newCtx)
}

func moveRefHandler(newCtx parser.RenderContext, t Translation) refHandler {
	return func(ref parser.ReferenceNode, oldCtx parser.RenderContext) parser.Node {
		row, col := ref.Absolute(oldCtx)
		sheet := ref.SheetIndex
		if nsheet, nrow, ncol, matched := t.translate(sheet, row, col); matched {
			sheet, row, col = nsheet, nrow, ncol
		}
		out := reencodeRef(ref, newCtx, row, col, sheet, sheet != ref.SheetIndex)
		return &out
	}
}

func moveRangeHandler(newCtx parser.RenderContext, t Translation) rangeHandler {
	return func(rng parser.RangeNode, oldCtx parser.RenderContext) parser.Node {
		lr, lc := rng.Left.Absolute(oldCtx)
		rr, rc := rng.Right.Absolute(oldCtx)
		lsheet, rsheet := rng.Left.SheetIndex, rng.Right.SheetIndex
		if nsheet, nrow, ncol, matched := t.translate(lsheet, lr, lc); matched {
			lsheet, lr, lc = nsheet, nrow, ncol
		}
		if nsheet, nrow, ncol, matched := t.translate(rsheet, rr, rc); matched {
			rsheet, rr, rc = nsheet, nrow, ncol
		}
		out := rng
		out.Left = reencodeRef(rng.Left, newCtx, lr, lc, lsheet, lsheet != rng.Left.SheetIndex)
		out.Right = reencodeRef(rng.Right, newCtx, rr, rc, rsheet, rsheet != rng.Right.SheetIndex)
		out.SheetIndex = out.Left.SheetIndex
		if out.Left.SheetExplicit || out.Right.SheetExplicit {
			out.SheetExplicit = true
		}
		return &out
	}
}
