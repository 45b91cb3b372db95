package sheetcore

import "github.com/vogtb/sheetcore/model"

// MergeCells merges [firstRow,firstCol]..[lastRow,lastCol] into one
// block anchored at its top-left corner (spec.md §6, §8.4 scenario 8).
// Any merge it overlaps is replaced, matching model.Worksheet.AddMerge.
func (wb *Workbook) MergeCells(sheet, firstRow, firstCol, lastRow, lastCol int) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if firstRow > lastRow || firstCol > lastCol {
		return &model.Error{Code: model.InvalidArgument, Message: "merge range corners out of order"}
	}
	if err := checkBounds(firstRow, firstCol); err != nil {
		return err
	}
	if err := checkBounds(lastRow, lastCol); err != nil {
		return err
	}
	ws.AddMerge(model.MergedRange{FirstRow: firstRow, FirstCol: firstCol, LastRow: lastRow, LastCol: lastCol})
	return nil
}

// UnmergeCells removes whatever merge exactly spans the given block, if
// any. A partial or mismatched span is a no-op, the same tolerance
// model.Worksheet.RemoveMerge already has.
func (wb *Workbook) UnmergeCells(sheet, firstRow, firstCol, lastRow, lastCol int) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	ws.RemoveMerge(model.MergedRange{FirstRow: firstRow, FirstCol: firstCol, LastRow: lastRow, LastCol: lastCol})
	return nil
}

// MergeAnchor reports the merge block containing (row, col), if any.
func (wb *Workbook) MergeAnchor(sheet, row, col int) (model.MergedRange, bool, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return model.MergedRange{}, false, err
	}
	m, ok := ws.MergeAnchor(row, col)
	return m, ok, nil
}
