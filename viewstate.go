package sheetcore

import "github.com/vogtb/sheetcore/model"

// SetSelection records which cell is selected, the view state a host
// application round-trips through save/load even though it has no
// effect on calculation (spec.md §6).
func (wb *Workbook) SetSelection(sheet, row, col int) error {
	if _, err := wb.sheet(sheet); err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	wb.SelectedSheet = sheet
	wb.SelectedRow = row
	wb.SelectedCol = col
	return nil
}

// SetFrozenRows pins the first n rows of sheet so they stay visible
// while the rest scrolls. n must be within the sheet's row limit.
func (wb *Workbook) SetFrozenRows(sheet, n int) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if n < 0 || n > model.LastRow {
		return &model.Error{Code: model.OutOfRange, Message: "frozen row count out of range"}
	}
	ws.FrozenRows = n
	return nil
}

// SetFrozenColumns pins the first n columns of sheet.
func (wb *Workbook) SetFrozenColumns(sheet, n int) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if n < 0 || n > model.LastColumn {
		return &model.Error{Code: model.OutOfRange, Message: "frozen column count out of range"}
	}
	ws.FrozenCols = n
	return nil
}
