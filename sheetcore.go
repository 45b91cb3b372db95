// Package sheetcore is the external, workbook-oriented API described in
// spec.md §6: it wraps package model's data structures with the
// operations a host application actually calls (worksheet management,
// cell I/O, structural edits, merges, styles, view state, evaluation),
// translating between the raw pools and a host's natural inputs (plain
// text, numbers, bools, formula strings) the way the teacher's sheet.go
// RunnableSpreadsheet wrapped its own cell storage.
package sheetcore

import (
	"github.com/vogtb/sheetcore/eval"
	"github.com/vogtb/sheetcore/locale"
	"github.com/vogtb/sheetcore/model"
)

// Workbook is the host-facing handle. It embeds *model.Workbook so
// callers that need the lower-level pools directly (for tooling, tests,
// or the rewrite package) aren't blocked from reaching them, while the
// methods in this package cover the day-to-day surface spec.md §6 names.
type Workbook struct {
	*model.Workbook

	namedStyles namedStyles
}

// New creates an empty workbook with one worksheet named "Sheet1", the
// same default IronCalc and Excel both start a new workbook with.
func New() *Workbook {
	wb := &Workbook{Workbook: model.New()}
	wb.NewSheet("Sheet1")
	return wb
}

// --- worksheet management (spec.md §6; thin wrappers over model.Workbook) ---

func (wb *Workbook) NewSheet(name string) (int, error)          { return wb.Workbook.NewSheet(name) }
func (wb *Workbook) InsertSheet(name string, at int) (int, error) { return wb.Workbook.InsertSheet(name, at) }
func (wb *Workbook) RenameSheet(oldName, newName string) error  { return wb.Workbook.RenameSheet(oldName, newName) }
func (wb *Workbook) DeleteSheetByName(name string) error        { return wb.Workbook.DeleteSheetByName(name) }
func (wb *Workbook) DeleteSheet(index int) error                { return wb.Workbook.DeleteSheet(index) }
func (wb *Workbook) WorksheetNames() []string                   { return wb.Workbook.WorksheetNames() }

// Evaluate recomputes every formula cell in the workbook (spec.md §4.4's
// evaluate_workbook()).
func (wb *Workbook) Evaluate() {
	eval.EvaluateWorkbook(wb.Workbook)
}

// EvaluateCell forces recomputation of one cell and returns its value.
func (wb *Workbook) EvaluateCell(sheet, row, col int) eval.Value {
	return eval.EvaluateCell(wb.Workbook, sheet, row, col)
}

func (wb *Workbook) sheet(index int) (*model.Worksheet, error) {
	if index < 0 || index >= len(wb.Sheets) {
		return nil, &model.Error{Code: model.OutOfRange, Message: "sheet index out of range"}
	}
	return wb.Sheets[index], nil
}

func checkBounds(row, col int) error {
	if row < 0 || row >= model.LastRow || col < 0 || col >= model.LastColumn {
		return &model.Error{Code: model.OutOfRange, Message: "cell address out of range"}
	}
	return nil
}

// checkAnchor reports an error if (row, col) falls inside a merge but
// isn't that merge's top-left anchor: only the anchor accepts direct
// input (spec.md §6, §8.4 scenario 8).
func checkAnchor(ws *model.Worksheet, row, col int) error {
	if m, merged := ws.MergeAnchor(row, col); merged && !m.IsAnchor(row, col) {
		return &model.Error{Code: model.FailedPrecondition, Message: "cell is part of a merged range; write to the anchor cell instead"}
	}
	return nil
}

// localeTable returns the locale table formulas and typed-input
// classification should use for this workbook (spec.md §9).
func (wb *Workbook) localeTable() locale.Table {
	if wb.Language != nil {
		return wb.Language
	}
	return locale.EnglishUS()
}
