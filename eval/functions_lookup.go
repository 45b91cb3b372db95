package eval

import "github.com/vogtb/sheetcore/parser"

func init() {
	register("VLOOKUP", fnVlookup)
	register("HLOOKUP", fnHlookup)
	register("INDEX", fnIndex)
	register("MATCH", fnMatch)
	register("ROW", fnRow)
	register("ROWS", fnRows)
	register("COLUMN", fnColumn)
	register("COLUMNS", fnColumns)
	register("CHOOSE", fnChoose)
}

func (c *Context) tableFromArg(v Value) (sheet int, rows, cols int, cell func(r, col int) Value, ok bool) {
	switch v.Kind {
	case KindRange:
		return v.RangeSheet, v.RangeRows(), v.RangeCols(), func(r, cc int) Value {
			return c.readCellValue(v.RangeSheet, v.RangeFirstRow+r, v.RangeFirstCol+cc)
		}, true
	case KindArray:
		return -1, v.Array.NumRows(), v.Array.NumCols(), func(r, cc int) Value {
			return v.Array.Rows[r][cc]
		}, true
	default:
		return 0, 0, 0, nil, false
	}
}

func fnVlookup(c *Context, args []parser.Node) Value {
	key := c.Eval(args[0])
	if key.IsError() {
		return key
	}
	table := c.Eval(args[1])
	if table.IsError() {
		return table
	}
	colIdx := c.ToNumber(c.Eval(args[2]))
	if colIdx.IsError() {
		return colIdx
	}
	rangeLookup := true
	if len(args) == 4 {
		rl := c.ToBoolean(c.Eval(args[3]))
		if rl.IsError() {
			return rl
		}
		rangeLookup = rl.Boolean
	}
	_, rows, cols, cell, ok := c.tableFromArg(table)
	if !ok {
		return c.errHere(parser.ErrValue, "VLOOKUP: second argument must be a range or array")
	}
	ci := int(colIdx.Number) - 1
	if ci < 0 || ci >= cols {
		return c.errHere(parser.ErrRef, "VLOOKUP: col_index out of range")
	}
	row, found := lookupRow(rows, func(r int) Value { return cell(r, 0) }, key, rangeLookup)
	if !found {
		return c.errHere(parser.ErrNA, "VLOOKUP: not found")
	}
	return cell(row, ci)
}

func fnHlookup(c *Context, args []parser.Node) Value {
	key := c.Eval(args[0])
	if key.IsError() {
		return key
	}
	table := c.Eval(args[1])
	if table.IsError() {
		return table
	}
	rowIdx := c.ToNumber(c.Eval(args[2]))
	if rowIdx.IsError() {
		return rowIdx
	}
	rangeLookup := true
	if len(args) == 4 {
		rl := c.ToBoolean(c.Eval(args[3]))
		if rl.IsError() {
			return rl
		}
		rangeLookup = rl.Boolean
	}
	_, rows, cols, cell, ok := c.tableFromArg(table)
	if !ok {
		return c.errHere(parser.ErrValue, "HLOOKUP: second argument must be a range or array")
	}
	ri := int(rowIdx.Number) - 1
	if ri < 0 || ri >= rows {
		return c.errHere(parser.ErrRef, "HLOOKUP: row_index out of range")
	}
	col, found := lookupRow(cols, func(cc int) Value { return cell(0, cc) }, key, rangeLookup)
	if !found {
		return c.errHere(parser.ErrNA, "HLOOKUP: not found")
	}
	return cell(ri, col)
}

// lookupRow implements the shared VLOOKUP/HLOOKUP/MATCH search: an exact
// match scan when approximate=false, or the largest value <= key under
// an assumed-ascending-sorted vector when approximate=true (spec.md
// §4.4.4's lookup/reference family).
func lookupRow(n int, at func(int) Value, key Value, approximate bool) (int, bool) {
	if !approximate {
		for i := 0; i < n; i++ {
			if Equal(at(i), key) {
				return i, true
			}
		}
		return 0, false
	}
	best := -1
	for i := 0; i < n; i++ {
		v := at(i)
		if compareCoerced(v, key) <= 0 {
			best = i
		} else {
			break
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func fnIndex(c *Context, args []parser.Node) Value {
	table := c.Eval(args[0])
	if table.IsError() {
		return table
	}
	_, rows, cols, cell, ok := c.tableFromArg(table)
	if !ok {
		return c.errHere(parser.ErrValue, "INDEX: first argument must be a range or array")
	}
	rowNum, colNum := 0, 0
	if len(args) >= 2 {
		r := c.ToNumber(c.Eval(args[1]))
		if r.IsError() {
			return r
		}
		rowNum = int(r.Number)
	}
	if len(args) == 3 {
		cc := c.ToNumber(c.Eval(args[2]))
		if cc.IsError() {
			return cc
		}
		colNum = int(cc.Number)
	}
	switch {
	case rowNum == 0 && colNum == 0:
		if rows == 1 && cols == 1 {
			return cell(0, 0)
		}
		return c.errHere(parser.ErrValue, "INDEX: row/col required for a multi-cell area")
	case rowNum == 0:
		if colNum < 1 || colNum > cols {
			return c.errHere(parser.ErrRef, "INDEX: column out of range")
		}
		if rows == 1 {
			return cell(0, colNum-1)
		}
		return c.errHere(parser.ErrNImpl, "INDEX: whole-column array slice")
	case colNum == 0:
		if rowNum < 1 || rowNum > rows {
			return c.errHere(parser.ErrRef, "INDEX: row out of range")
		}
		if cols == 1 {
			return cell(rowNum-1, 0)
		}
		return c.errHere(parser.ErrNImpl, "INDEX: whole-row array slice")
	default:
		if rowNum < 1 || rowNum > rows || colNum < 1 || colNum > cols {
			return c.errHere(parser.ErrRef, "INDEX: coordinates out of range")
		}
		return cell(rowNum-1, colNum-1)
	}
}

func fnMatch(c *Context, args []parser.Node) Value {
	key := c.Eval(args[0])
	if key.IsError() {
		return key
	}
	arr := c.Eval(args[1])
	if arr.IsError() {
		return arr
	}
	matchType := 1.0
	if len(args) == 3 {
		mt := c.ToNumber(c.Eval(args[2]))
		if mt.IsError() {
			return mt
		}
		matchType = mt.Number
	}
	values := c.flattenToValues(arr)
	switch {
	case matchType == 0:
		for i, v := range values {
			if Equal(v, key) {
				return Num(float64(i + 1))
			}
		}
		return c.errHere(parser.ErrNA, "MATCH: not found")
	case matchType > 0:
		best := -1
		for i, v := range values {
			if compareCoerced(v, key) <= 0 {
				best = i
			} else {
				break
			}
		}
		if best == -1 {
			return c.errHere(parser.ErrNA, "MATCH: not found")
		}
		return Num(float64(best + 1))
	default:
		best := -1
		for i, v := range values {
			if compareCoerced(v, key) >= 0 {
				best = i
			} else {
				break
			}
		}
		if best == -1 {
			return c.errHere(parser.ErrNA, "MATCH: not found")
		}
		return Num(float64(best + 1))
	}
}

func fnRow(c *Context, args []parser.Node) Value {
	if len(args) == 0 {
		return Num(float64(c.host.Row + 1))
	}
	v := c.Eval(args[0])
	if v.Kind == KindRange {
		return Num(float64(v.RangeFirstRow + 1))
	}
	return c.errHere(parser.ErrValue, "ROW: argument must be a reference")
}

func fnColumn(c *Context, args []parser.Node) Value {
	if len(args) == 0 {
		return Num(float64(c.host.Col + 1))
	}
	v := c.Eval(args[0])
	if v.Kind == KindRange {
		return Num(float64(v.RangeFirstCol + 1))
	}
	return c.errHere(parser.ErrValue, "COLUMN: argument must be a reference")
}

func fnRows(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	if v.IsError() {
		return v
	}
	if v.Kind == KindRange {
		return Num(float64(v.RangeRows()))
	}
	if v.Kind == KindArray {
		return Num(float64(v.Array.NumRows()))
	}
	return Num(1)
}

func fnColumns(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	if v.IsError() {
		return v
	}
	if v.Kind == KindRange {
		return Num(float64(v.RangeCols()))
	}
	if v.Kind == KindArray {
		return Num(float64(v.Array.NumCols()))
	}
	return Num(1)
}

func fnChoose(c *Context, args []parser.Node) Value {
	idx := c.ToNumber(c.Eval(args[0]))
	if idx.IsError() {
		return idx
	}
	i := int(idx.Number)
	if i < 1 || i >= len(args) {
		return c.errHere(parser.ErrValue, "CHOOSE: index out of range")
	}
	return c.Eval(args[i])
}
