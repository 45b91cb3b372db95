package rewrite

import "github.com/vogtb/sheetcore/parser"

// Axis distinguishes a row insert/delete from a column insert/delete;
// the rewrite only ever touches one coordinate axis per structural
// edit.
type Axis int

const (
	AxisRow Axis = iota
	AxisCol
)

func shiftInsert(n, at, count int) int {
	if n >= at {
		return n + count
	}
	return n
}

// shiftDelete reports the post-deletion coordinate for n, or deleted =
// true if n fell inside the removed [at, at+count) band.
func shiftDelete(n, at, count int) (newN int, deleted bool) {
	if n < at {
		return n, false
	}
	if n < at+count {
		return 0, true
	}
	return n - count, false
}

// InsertRowsColumns rewrites every reference in n to account for count
// rows/columns inserted at index at on sheet. oldCtx is the formula's
// host before the edit (used to resolve what each reference currently
// points to); newCtx is its host after the edit, i.e. oldCtx shifted the
// same way if the host cell itself sits at or past at (the caller must
// compute this the same way it physically relocates the cell — see
// sheetcore's rewriteAllFormulas). Passing the wrong newCtx for a host
// that moved silently reintroduces the "move" case (oldCtx != newCtx)
// handled by package rewrite's Move; the two pieces share the same
// reencodeRef but must not be conflated: a formula's own host shift is
// not itself a reference rewrite, only its surviving effect on every
// reference's stored relative offset is. Insert never deletes a cell, so
// no reference becomes #REF!; it only shifts.
func InsertRowsColumns(n parser.Node, oldCtx, newCtx parser.RenderContext, sheet int, axis Axis, at, count int) parser.Node {
	clone := Clone(n)
	shift := func(x int) (int, bool) { return shiftInsert(x, at, count), false }
	return walk(clone, oldCtx, structuralRefHandler(newCtx, sheet, axis, shift), structuralRangeHandler(newCtx, sheet, axis, at, count, false))
}

// DeleteRowsColumns is InsertRowsColumns' counterpart for count
// rows/columns deleted starting at index at. A reference that pointed
// squarely inside the deleted band becomes #REF!; a range that strictly
// contained the band contracts around it; a range with exactly one
// corner inside the band is truncated to the surviving edge.
func DeleteRowsColumns(n parser.Node, oldCtx, newCtx parser.RenderContext, sheet int, axis Axis, at, count int) parser.Node {
	clone := Clone(n)
	shift := func(x int) (int, bool) { return shiftDelete(x, at, count) }
	return walk(clone, oldCtx, structuralRefHandler(newCtx, sheet, axis, shift), structuralRangeHandler(newCtx, sheet, axis, at, count, true))
}

func structuralRefHandler(newCtx parser.RenderContext, sheet int, axis Axis, shift func(int) (int, bool)) refHandler {
	return func(ref parser.ReferenceNode, oldCtx parser.RenderContext) parser.Node {
		if ref.SheetIndex != sheet {
			return &ref
		}
		row, col := ref.Absolute(oldCtx)
		if axis == AxisRow {
			nrow, deleted := shift(row)
			if deleted {
				return refError()
			}
			out := reencodeRef(ref, newCtx, nrow, col, sheet, false)
			return &out
		}
		ncol, deleted := shift(col)
		if deleted {
			return refError()
		}
		out := reencodeRef(ref, newCtx, row, ncol, sheet, false)
		return &out
	}
}

// structuralRangeHandler applies the shift to both corners of a range
// independently when isDelete is false (insert only ever shifts, never
// contracts) and applies the contract/truncate/REF rules from spec.md
// §4.5 when isDelete is true. The range's two stored corners are not
// assumed to be in row/column order (spec.md §8.4 scenario 3 allows
// A3:A1 as well as A1:A3), so which corner is the "low" one is resolved
// per call rather than assumed from field position.
func structuralRangeHandler(newCtx parser.RenderContext, sheet int, axis Axis, at, count int, isDelete bool) rangeHandler {
	return func(rng parser.RangeNode, oldCtx parser.RenderContext) parser.Node {
		if rng.Left.SheetIndex != sheet && rng.Right.SheetIndex != sheet {
			return &rng
		}
		lr, lc := rng.Left.Absolute(oldCtx)
		rr, rc := rng.Right.Absolute(oldCtx)
		laxis, raxis := lr, rr
		if axis == AxisCol {
			laxis, raxis = lc, rc
		}
		if !isDelete {
			nl, nr := shiftInsert(laxis, at, count), shiftInsert(raxis, at, count)
			return rebuildRange(rng, newCtx, axis, lr, lc, rr, rc, nl, nr)
		}

		leftIsLow := laxis <= raxis
		loVal, hiVal := laxis, raxis
		if !leftIsLow {
			loVal, hiVal = raxis, laxis
		}
		nlo, delLo := shiftDelete(loVal, at, count)
		nhi, delHi := shiftDelete(hiVal, at, count)
		if delLo && delHi {
			return refError()
		}
		if delLo && !delHi {
			nlo = at
		}
		if delHi && !delLo {
			nhi = at - 1
		}
		nl, nr := nlo, nhi
		if !leftIsLow {
			nl, nr = nhi, nlo
		}
		return rebuildRange(rng, newCtx, axis, lr, lc, rr, rc, nl, nr)
	}
}

func rebuildRange(rng parser.RangeNode, newCtx parser.RenderContext, axis Axis, lr, lc, rr, rc, nl, nr int) parser.Node {
	out := rng
	if axis == AxisRow {
		out.Left = reencodeRef(rng.Left, newCtx, nl, lc, rng.Left.SheetIndex, false)
		out.Right = reencodeRef(rng.Right, newCtx, nr, rc, rng.Right.SheetIndex, false)
	} else {
		out.Left = reencodeRef(rng.Left, newCtx, lr, nl, rng.Left.SheetIndex, false)
		out.Right = reencodeRef(rng.Right, newCtx, rr, nr, rng.Right.SheetIndex, false)
	}
	return &out
}
