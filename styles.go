package sheetcore

import "github.com/vogtb/sheetcore/model"

// namedStyles is package sheetcore's own addition on top of
// model.StylePool: model only ever de-duplicates styles by value, it
// has no concept of a style being given a name a host application can
// recall later (spec.md §6's set_cell_style_by_name). The registry maps
// a name to the style-pool index it currently resolves to, kept
// per-workbook the same way model keeps its pools per-workbook.
type namedStyles map[string]uint32

// DefineStyle registers name as an alias for style, overwriting any
// previous definition. Cells already painted with the old definition
// keep their old StyleIndex; only future SetCellStyleByName calls pick
// up the new one, matching how renaming a named range doesn't reach
// back into cells that already resolved it.
func (wb *Workbook) DefineStyle(name string, style model.Style) {
	if wb.namedStyles == nil {
		wb.namedStyles = make(namedStyles)
	}
	wb.namedStyles[name] = wb.Styles.Intern(style)
}

// SetCellStyle paints (row, col) with style directly.
func (wb *Workbook) SetCellStyle(sheet, row, col int, style model.Style) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}
	cell := ws.GetCell(row, col)
	if cell == nil {
		cell = &model.Cell{}
		ws.SetCell(row, col, cell)
	}
	cell.StyleIndex = wb.Styles.Intern(style)
	return nil
}

// SetCellStyleByName paints (row, col) with whatever style name
// currently resolves to.
func (wb *Workbook) SetCellStyleByName(sheet, row, col int, name string) error {
	idx, ok := wb.namedStyles[name]
	if !ok {
		return &model.Error{Code: model.NotFound, Message: "no style registered under that name"}
	}
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}
	cell := ws.GetCell(row, col)
	if cell == nil {
		cell = &model.Cell{}
		ws.SetCell(row, col, cell)
	}
	cell.StyleIndex = idx
	return nil
}

// GetCellStyle returns the resolved style at (row, col), model's
// default zero-value style if the cell has never been written.
func (wb *Workbook) GetCellStyle(sheet, row, col int) (model.Style, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return model.Style{}, err
	}
	cell := ws.GetCell(row, col)
	if cell == nil {
		return model.Style{}, nil
	}
	return wb.Styles.Get(cell.StyleIndex), nil
}

// GetCellStyleIndex is GetCellStyle without the pool lookup, for
// callers that just want to compare two cells for the same style.
func (wb *Workbook) GetCellStyleIndex(sheet, row, col int) (uint32, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return 0, err
	}
	cell := ws.GetCell(row, col)
	if cell == nil {
		return 0, nil
	}
	return cell.StyleIndex, nil
}
