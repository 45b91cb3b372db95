package sheetcore

import (
	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/parser"
	"github.com/vogtb/sheetcore/rewrite"
)

// InsertRows inserts count rows at index at on sheet, shifting every
// cell at or below at down by count and rewriting every formula in the
// workbook to account for the shift (spec.md §4.5's insert bullet, §6's
// insert_row(s)). count must be positive; the shift must not push any
// occupied cell past model.LastRow.
func (wb *Workbook) InsertRows(sheet, at, count int) error {
	return wb.insertAxis(sheet, at, count, rewrite.AxisRow)
}

func (wb *Workbook) InsertColumns(sheet, at, count int) error {
	return wb.insertAxis(sheet, at, count, rewrite.AxisCol)
}

func (wb *Workbook) DeleteRows(sheet, at, count int) error {
	return wb.deleteAxis(sheet, at, count, rewrite.AxisRow)
}

func (wb *Workbook) DeleteColumns(sheet, at, count int) error {
	return wb.deleteAxis(sheet, at, count, rewrite.AxisCol)
}

func (wb *Workbook) insertAxis(sheet, at, count int, axis rewrite.Axis) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if count <= 0 {
		return &model.Error{Code: model.InvalidArgument, Message: "insert count must be positive"}
	}
	if at < 0 {
		return &model.Error{Code: model.OutOfRange, Message: "insert index out of range"}
	}
	limit := model.LastRow
	if axis == rewrite.AxisCol {
		limit = model.LastColumn
	}
	if !fitsWithinLimit(ws, axis, at, count, limit) {
		return &model.Error{Code: model.OutOfRange, Message: "insert would push existing cells past the sheet boundary"}
	}

	shift := func(pos int) (int, bool) {
		if pos >= at {
			return pos + count, true
		}
		return pos, true
	}
	wb.rewriteAllFormulas(sheet, axis, shift, func(n parser.Node, oldCtx, newCtx parser.RenderContext) parser.Node {
		return rewrite.InsertRowsColumns(n, oldCtx, newCtx, sheet, axis, at, count)
	})
	shiftCells(ws, axis, shift)
	wb.invalidate()
	return nil
}

func (wb *Workbook) deleteAxis(sheet, at, count int, axis rewrite.Axis) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if count <= 0 {
		return &model.Error{Code: model.InvalidArgument, Message: "delete count must be positive"}
	}
	if at < 0 {
		return &model.Error{Code: model.OutOfRange, Message: "delete index out of range"}
	}

	shift := func(pos int) (int, bool) {
		if pos < at {
			return pos, true
		}
		if pos < at+count {
			return 0, false // dropped: inside the deleted band
		}
		return pos - count, true
	}
	wb.rewriteAllFormulas(sheet, axis, shift, func(n parser.Node, oldCtx, newCtx parser.RenderContext) parser.Node {
		return rewrite.DeleteRowsColumns(n, oldCtx, newCtx, sheet, axis, at, count)
	})
	shiftCells(ws, axis, shift)
	wb.invalidate()
	return nil
}

// fitsWithinLimit reports whether shifting every occupied row/column at
// or past at by count keeps every cell inside [0, limit).
func fitsWithinLimit(ws *model.Worksheet, axis rewrite.Axis, at, count, limit int) bool {
	fits := true
	ws.EachCell(func(row, col int, _ *model.Cell) {
		pos := row
		if axis == rewrite.AxisCol {
			pos = col
		}
		if pos >= at && pos+count >= limit {
			fits = false
		}
	})
	return fits
}

type placedCell struct {
	row, col int
	cell     *model.Cell
}

// shiftCells relocates every occupied (row, col) on ws under move,
// dropping a cell when move reports false. Cells are collected and
// cleared before any are written back since a shift can send two
// different source positions to positions that briefly collide with
// still-unprocessed sources. Run this after rewriteAllFormulas: moving a
// formula cell changes its own host, so its own references must already
// be rewritten against its future host before its address changes.
func shiftCells(ws *model.Worksheet, axis rewrite.Axis, move func(pos int) (int, bool)) {
	var all []placedCell
	ws.EachCell(func(row, col int, cell *model.Cell) { all = append(all, placedCell{row, col, cell}) })

	for _, p := range all {
		ws.ClearCell(p.row, p.col)
	}
	for _, p := range all {
		row, col := p.row, p.col
		if axis == rewrite.AxisRow {
			nrow, keep := move(row)
			if !keep {
				continue
			}
			row = nrow
		} else {
			ncol, keep := move(col)
			if !keep {
				continue
			}
			col = ncol
		}
		ws.SetCell(row, col, p.cell)
	}
}

// rewriteAllFormulas re-points every formula cell's FormulaIndex at the
// result of rewriteNode applied to its current AST under its old host
// context and future host context. A formula hosted on editedSheet has
// its own host position advanced through shift along axis before
// rewriting (mirroring the physical move shiftCells performs right
// after); a formula hosted elsewhere, or on editedSheet but on the other
// axis, keeps the same host context in both positions — only the
// references it holds into editedSheet change. Re-interning the
// rewritten AST lets the formula pool's own dedup-by-key stand in for
// spec.md §4.5's write-only-if-different rule: an edit that doesn't
// actually change a formula's meaning re-derives the same canonical key
// and its FormulaIndex doesn't move.
func (wb *Workbook) rewriteAllFormulas(editedSheet int, axis rewrite.Axis, shift func(int) (int, bool), rewriteNode func(n parser.Node, oldCtx, newCtx parser.RenderContext) parser.Node) {
	for _, ws := range wb.Sheets {
		ws.EachFormulaCell(func(row, col int, cell *model.Cell) {
			node := wb.Formulas.Node(cell.FormulaIndex)
			if node == nil {
				return
			}
			oldCtx := parser.RenderContext{HostSheet: ws.Index, HostRow: row, HostCol: col, SheetName: wb.SheetName}
			newCtx := oldCtx
			if ws.Index == editedSheet {
				if axis == rewrite.AxisRow {
					if nrow, keep := shift(row); keep {
						newCtx.HostRow = nrow
					}
				} else if ncol, keep := shift(col); keep {
					newCtx.HostCol = ncol
				}
			}
			rewritten := rewriteNode(node, oldCtx, newCtx)
			text := rewritten.Stringify(newCtx)
			cell.FormulaIndex = wb.Formulas.Intern(rewritten, text)
		})
	}
}
