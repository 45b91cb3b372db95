package sheetcore

import (
	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/parser"
	"github.com/vogtb/sheetcore/rewrite"
)

// Rect is an inclusive, 0-based rectangular cell range on one sheet,
// the shape spec.md §4.5 calls a source_area / target_area.
type Rect struct {
	Sheet              int
	FirstRow, FirstCol int
	LastRow, LastCol   int
}

func (r Rect) area() rewrite.Area {
	return rewrite.Area{Sheet: r.Sheet, FirstRow: r.FirstRow, FirstCol: r.FirstCol, LastRow: r.LastRow, LastCol: r.LastCol}
}

func (r Rect) rows() int { return r.LastRow - r.FirstRow + 1 }
func (r Rect) cols() int { return r.LastCol - r.FirstCol + 1 }

// ForwardReferences rewrites every formula in the workbook that
// references into source so it instead references the corresponding
// cell in target, without moving any cell value (spec.md §4.5's third
// bullet: a pure relabeling, used e.g. after a host application moves
// data around without going through MoveCellValueToArea). source and
// target must be the same shape.
func (wb *Workbook) ForwardReferences(source, target Rect) error {
	if source.rows() != target.rows() || source.cols() != target.cols() {
		return &model.Error{Code: model.InvalidArgument, Message: "source and target areas must be the same shape"}
	}
	t := rewrite.Translation{From: source.area(), To: target.area()}
	wb.rewriteAgainstTranslation(t)
	wb.invalidate()
	return nil
}

// MoveCellValueToArea relocates every cell in source to target (cut and
// paste, spec.md §4.5's second bullet), then rewrites every formula in
// the workbook: a formula that itself lived inside source has its own
// host advance to the matching cell in target as well as every
// reference it holds, while a formula elsewhere keeps its own host and
// only updates references that pointed into source. source and target
// must be the same shape and on sheets that already exist.
func (wb *Workbook) MoveCellValueToArea(source, target Rect) error {
	if source.rows() != target.rows() || source.cols() != target.cols() {
		return &model.Error{Code: model.InvalidArgument, Message: "source and target areas must be the same shape"}
	}
	srcWs, err := wb.sheet(source.Sheet)
	if err != nil {
		return err
	}
	dstWs, err := wb.sheet(target.Sheet)
	if err != nil {
		return err
	}
	t := rewrite.Translation{From: source.area(), To: target.area()}

	var moved []placedCell
	for row := source.FirstRow; row <= source.LastRow; row++ {
		for col := source.FirstCol; col <= source.LastCol; col++ {
			if c := srcWs.GetCell(row, col); c != nil {
				moved = append(moved, placedCell{row: row - source.FirstRow + target.FirstRow, col: col - source.FirstCol + target.FirstCol, cell: c})
			}
			srcWs.ClearCell(row, col)
		}
	}

	wb.rewriteAgainstTranslation(t)

	for _, p := range moved {
		dstWs.SetCell(p.row, p.col, p.cell)
	}
	wb.invalidate()
	return nil
}

// rewriteAgainstTranslation applies rewrite.Move, under translation t,
// to every formula cell in the workbook. A formula whose own host falls
// inside t.From moves to the matching cell in t.To (oldCtx != newCtx,
// spec.md's cut-and-paste case); every other formula keeps its host in
// place and only has matching references rewritten (oldCtx == newCtx,
// the forward-reference case). Both are the same call into
// rewrite.Move, which is why ForwardReferences and
// MoveCellValueToArea share this helper.
func (wb *Workbook) rewriteAgainstTranslation(t rewrite.Translation) {
	type rewriteOp struct {
		ws             *model.Worksheet
		oldRow, oldCol int
		idx            uint32
	}
	var ops []rewriteOp

	for _, ws := range wb.Sheets {
		ws.EachFormulaCell(func(row, col int, cell *model.Cell) {
			node := wb.Formulas.Node(cell.FormulaIndex)
			if node == nil {
				return
			}
			newSheet, newRow, newCol := ws.Index, row, col
			if ws.Index == t.From.Sheet && row >= t.From.FirstRow && row <= t.From.LastRow && col >= t.From.FirstCol && col <= t.From.LastCol {
				newSheet = t.To.Sheet
				newRow = row - t.From.FirstRow + t.To.FirstRow
				newCol = col - t.From.FirstCol + t.To.FirstCol
			}
			oldCtx := parser.RenderContext{HostSheet: ws.Index, HostRow: row, HostCol: col, SheetName: wb.SheetName}
			newCtx := parser.RenderContext{HostSheet: newSheet, HostRow: newRow, HostCol: newCol, SheetName: wb.SheetName}
			rewritten := rewrite.Move(node, oldCtx, newCtx, t)
			idx := wb.Formulas.Intern(rewritten, rewritten.Stringify(newCtx))
			ops = append(ops, rewriteOp{ws: ws, oldRow: row, oldCol: col, idx: idx})
		})
	}

	// the cell itself hasn't been physically relocated yet when this runs
	// (MoveCellValueToArea moves values only after this returns), so every
	// rewritten formula's own host is still found at its pre-move address.
	for _, op := range ops {
		if c := op.ws.GetCell(op.oldRow, op.oldCol); c != nil {
			c.FormulaIndex = op.idx
		}
	}
}

// ExtendTo fills every cell in target with a copy of the formula hosted
// at source, using each target cell as its own new host (spec.md §4.5's
// fill/extend case). Because parser.ReferenceNode stores relative
// coordinates as an offset from the host cell, no AST rewrite is
// needed at all: every target cell is bound to the very same
// FormulaIndex as source, and its relative references are
// reinterpreted for free the next time the formula is evaluated at that
// host (package rewrite's doc comment). Absolute references don't move,
// matching fill-handle semantics in any spreadsheet.
func (wb *Workbook) ExtendTo(source model.CellAddress, target Rect) error {
	srcWs, err := wb.sheet(source.Sheet)
	if err != nil {
		return err
	}
	dstWs, err := wb.sheet(target.Sheet)
	if err != nil {
		return err
	}
	srcCell := srcWs.GetCell(source.Row, source.Col)
	if srcCell == nil || !srcCell.IsFormula() {
		return &model.Error{Code: model.FailedPrecondition, Message: "extend source must be a formula cell"}
	}
	for row := target.FirstRow; row <= target.LastRow; row++ {
		for col := target.FirstCol; col <= target.LastCol; col++ {
			if err := checkAnchor(dstWs, row, col); err != nil {
				return err
			}
			clone := *srcCell
			dstWs.SetCell(row, col, &clone)
		}
	}
	wb.invalidate()
	return nil
}

// ExtendCopiedValue is ExtendTo for a single target cell, the common
// case of dragging a fill handle by one cell or pasting a copied
// formula once.
func (wb *Workbook) ExtendCopiedValue(source, target model.CellAddress) error {
	return wb.ExtendTo(source, Rect{Sheet: target.Sheet, FirstRow: target.Row, FirstCol: target.Col, LastRow: target.Row, LastCol: target.Col})
}
