package eval

import (
	"github.com/vogtb/sheetcore/funcset"
	"github.com/vogtb/sheetcore/lexer"
	"github.com/vogtb/sheetcore/locale"
	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/parser"
)

// init seeds package locale's identifier table with the canonical function
// set (spec.md §4.1: function-name identifiers are case-folded and looked
// up in the active language's table), so a locale table can validate and
// translate function names without locale importing eval or funcset
// importing either.
func init() {
	locale.RegisterFunctionNames(funcset.Names())
}

// EvaluateWorkbook recomputes every formula cell in wb (spec.md §4.4's
// evaluate_workbook()). It uses the coarse "mark all dirty" invalidation
// strategy spec.md §4.6 calls out: every formula cell is revisited each
// call, and eval_cell's own in-progress memoization keeps a cell from
// being recomputed twice within the same pass even though visit order is
// unspecified (spec.md §5).
func EvaluateWorkbook(wb *model.Workbook) {
	ctx := NewContext(wb)
	for _, sheet := range wb.Sheets {
		sheet.EachFormulaCell(func(row, col int, cell *model.Cell) {
			// Only cells still in the raw "dirty" discriminant need
			// computing; one already carrying a FormulaNumber/String/
			// Boolean/Error result was computed earlier in this same
			// pass via an on-demand reference lookup (spec.md §5:
			// "each cell is computed at most once per pass via
			// memoization in its stored value discriminant").
			if cell.Kind == model.KindFormula {
				ctx.evalCell(sheet.Index, row, col, cell)
			}
		})
	}
}

// EvaluateCell forces (re)computation of one formula cell and returns its
// value, reusing the same machinery EvaluateWorkbook drives.
func EvaluateCell(wb *model.Workbook, sheet, row, col int) Value {
	ctx := NewContext(wb)
	ws := wb.Sheets[sheet]
	cell := ws.GetCell(row, col)
	if cell == nil || !cell.IsFormula() {
		return readNonFormulaCell(wb, cell)
	}
	return ctx.evalCell(sheet, row, col, cell)
}

// evalCell is the cycle-guarded recomputation of one formula cell
// (spec.md §4.4 steps 2-3).
func (c *Context) evalCell(sheet, row, col int, cell *model.Cell) Value {
	addr := model.CellAddress{Sheet: sheet, Row: row, Col: col}
	if c.inProgress[addr] {
		return Err(parser.ErrCirc, addr, "circular reference")
	}
	c.inProgress[addr] = true
	defer delete(c.inProgress, addr)

	node := c.WB.Formulas.Node(cell.FormulaIndex)
	if node == nil {
		return Err(parser.ErrCalc, addr, "missing formula AST")
	}
	sub := c.withHost(Host{Sheet: sheet, Row: row, Col: col})
	result := sub.Eval(node)
	if result.Kind == KindRange {
		result = c.readCellValue(result.RangeSheet, result.RangeFirstRow, result.RangeFirstCol)
	}
	writeBack(cell, result, c.WB)
	return result
}

// writeBack stores a computed Value into the formula cell's cached
// discriminant (spec.md §3's Formula{Number,String,Boolean,Error}).
func writeBack(cell *model.Cell, v Value, wb *model.Workbook) {
	switch v.Kind {
	case KindNumber:
		cell.Kind = model.KindFormulaNumber
		cell.Number = v.Number
	case KindString:
		cell.Kind = model.KindFormulaString
		cell.StringIndex = wb.Strings.Intern(v.Str)
	case KindBoolean:
		cell.Kind = model.KindFormulaBoolean
		cell.Boolean = v.Boolean
	case KindError:
		cell.Kind = model.KindFormulaError
		cell.ErrorKind = v.ErrKind
	case KindRange, KindArray:
		// A range/array that survives to the top of a formula without
		// being reduced collapses to its top-left cell, mirroring how a
		// single-cell host absorbs a dynamic-array result without spill
		// support (spec.md §9: spilling is acknowledged, not built out).
		top := topLeftOf(v)
		writeBack(cell, top, wb)
	default:
		cell.Kind = model.KindFormulaNumber
		cell.Number = 0
	}
}

func topLeftOf(v Value) Value {
	switch v.Kind {
	case KindRange:
		return Empty()
	case KindArray:
		if v.Array.NumRows() > 0 && v.Array.NumCols() > 0 {
			return v.Array.Rows[0][0]
		}
		return Empty()
	default:
		return v
	}
}

func readNonFormulaCell(wb *model.Workbook, cell *model.Cell) Value {
	if cell.IsEmpty() {
		return Empty()
	}
	switch cell.Kind {
	case model.KindNumber:
		return Num(cell.Number)
	case model.KindBoolean:
		return Bool(cell.Boolean)
	case model.KindError:
		return Value{Kind: KindError, ErrKind: cell.ErrorKind}
	case model.KindSharedString:
		return Str(wb.Strings.Get(cell.StringIndex))
	default:
		return Empty()
	}
}

// Eval dispatches one AST node to its CalcResult (spec.md §4.4 step 4).
func (c *Context) Eval(n parser.Node) Value {
	c.recursionDepth++
	defer func() { c.recursionDepth-- }()
	if c.recursionDepth > maxRecursionDepth {
		return c.errHere(parser.ErrCalc, "recursion limit exceeded")
	}

	switch v := n.(type) {
	case *parser.NumberNode:
		return Num(v.Value)
	case *parser.StringNode:
		return Str(v.Value)
	case *parser.BooleanNode:
		return Bool(v.Value)
	case *parser.ErrorNode:
		return c.errHere(v.Kind, v.Message)
	case *parser.EmptyArgNode:
		return EmptyArg()
	case *parser.ReferenceNode:
		return c.evalReference(v)
	case *parser.RangeNode:
		return c.evalRange(v)
	case *parser.ArrayNode:
		return c.evalArrayLiteral(v)
	case *parser.UnaryNode:
		return c.evalUnary(v)
	case *parser.BinaryNode:
		return c.evalBinary(v)
	case *parser.FunctionNode:
		return c.callFunction(v.Name, v.Args)
	case *parser.InvalidFunctionNode:
		return c.errHere(parser.ErrName, "unknown function: "+v.Name)
	case *parser.DefinedNameNode:
		return c.evalDefinedName(v)
	case *parser.ImplicitIntersectionNode:
		return c.evalImplicitIntersection(v)
	case *parser.TableReferenceNode:
		// The parser rewrites structured references to Range/Reference
		// before an AST is stored; seeing one here means the rewrite
		// grammar didn't recognize it.
		return c.errHere(parser.ErrRef, "unresolved structured reference")
	default:
		return c.errHere(parser.ErrCalc, "unhandled node type")
	}
}

func (c *Context) evalReference(n *parser.ReferenceNode) Value {
	row, col := n.Absolute(c.renderCtx())
	if n.SheetIndex < 0 || n.SheetIndex >= len(c.WB.Sheets) {
		return c.errHere(parser.ErrRef, "sheet not found")
	}
	if row < 0 || row >= model.LastRow || col < 0 || col >= model.LastColumn {
		return c.errHere(parser.ErrRef, "reference out of bounds")
	}
	ws := c.WB.Sheets[n.SheetIndex]
	cell := ws.GetCell(row, col)
	if cell == nil {
		return Empty()
	}
	if cell.IsFormula() {
		if cell.Kind == model.KindFormula {
			return c.evalCell(n.SheetIndex, row, col, cell)
		}
		addr := model.CellAddress{Sheet: n.SheetIndex, Row: row, Col: col}
		if c.inProgress[addr] {
			return Err(parser.ErrCirc, addr, "circular reference")
		}
		return c.readCachedFormula(cell)
	}
	return readNonFormulaCell(c.WB, cell)
}

func (c *Context) readCachedFormula(cell *model.Cell) Value {
	switch cell.Kind {
	case model.KindFormulaNumber:
		return Num(cell.Number)
	case model.KindFormulaBoolean:
		return Bool(cell.Boolean)
	case model.KindFormulaError:
		return Value{Kind: KindError, ErrKind: cell.ErrorKind}
	case model.KindFormulaString:
		return Str(c.WB.Strings.Get(cell.StringIndex))
	default:
		return Empty()
	}
}

func (c *Context) evalRange(n *parser.RangeNode) Value {
	lr, lc := n.Left.Absolute(c.renderCtx())
	rr, rc := n.Right.Absolute(c.renderCtx())
	if n.SheetIndex < 0 || n.SheetIndex >= len(c.WB.Sheets) {
		return c.errHere(parser.ErrRef, "sheet not found")
	}
	if lr > rr {
		lr, rr = rr, lr
	}
	if lc > rc {
		lc, rc = rc, lc
	}
	return Value{Kind: KindRange, RangeSheet: n.SheetIndex, RangeFirstRow: lr, RangeFirstCol: lc, RangeLastRow: rr, RangeLastCol: rc}
}

func (c *Context) evalArrayLiteral(n *parser.ArrayNode) Value {
	arr := NewArray(len(n.Rows), 0)
	if len(n.Rows) > 0 {
		arr = NewArray(len(n.Rows), len(n.Rows[0]))
	}
	for i, row := range n.Rows {
		for j, leaf := range row {
			arr.Rows[i][j] = valueFromLeaf(leaf)
		}
	}
	return ArrVal(arr)
}

func valueFromLeaf(l parser.ArrayLeaf) Value {
	switch l.Kind {
	case parser.ArrayLeafNumber:
		return Num(l.Num)
	case parser.ArrayLeafString:
		return Str(l.Str)
	case parser.ArrayLeafBoolean:
		return Bool(l.Bool)
	case parser.ArrayLeafError:
		return Value{Kind: KindError, ErrKind: l.Error}
	default:
		return Empty()
	}
}

// evalDefinedName re-lexes and re-parses the name's formula text at the
// current host cell (spec.md §9: name formulas are re-parsed per host
// because their relative references depend on the host), then evaluates
// the result. Re-parsing rather than caching an AST is deliberate: the
// same name used from two different host cells must resolve its
// relative references differently.
func (c *Context) evalDefinedName(n *parser.DefinedNameNode) Value {
	dn, ok := c.WB.Names.Lookup(n.Name, c.host.Sheet)
	if !ok {
		return c.errHere(parser.ErrName, "undefined name: "+n.Name)
	}
	toks, lexErr := lexer.New(dn.Formula, lexer.ModeA1, c.language()).Tokenize()
	if lexErr != nil {
		return c.errHere(parser.ErrError, "malformed defined name: "+n.Name)
	}
	node := parser.Parse(toks, parser.Host{Sheet: c.host.Sheet, Row: c.host.Row, Col: c.host.Col}, c.WB, lexer.ModeA1)
	return c.Eval(node)
}

// evalImplicitIntersection resolves an ImplicitIntersection node
// (spec.md §4.4 step 4): evaluate the child; if it's a Range sharing the
// host's row (single column) or the host's column (single row), pick
// that one cell; otherwise VALUE. Non-range children pass through.
func (c *Context) evalImplicitIntersection(n *parser.ImplicitIntersectionNode) Value {
	v := c.Eval(n.Child)
	if v.Kind != KindRange {
		return v
	}
	if v.RangeSheet != c.host.Sheet {
		return c.errHere(parser.ErrValue, "intersection across sheets")
	}
	row, col := c.host.Row, c.host.Col
	switch {
	case v.RangeCols() == 1 && row >= v.RangeFirstRow && row <= v.RangeLastRow:
		return c.readCellValue(v.RangeSheet, row, v.RangeFirstCol)
	case v.RangeRows() == 1 && col >= v.RangeFirstCol && col <= v.RangeLastCol:
		return c.readCellValue(v.RangeSheet, v.RangeFirstRow, col)
	case v.RangeRows() == 1 && v.RangeCols() == 1:
		return c.readCellValue(v.RangeSheet, v.RangeFirstRow, v.RangeFirstCol)
	default:
		return c.errHere(parser.ErrValue, "implicit intersection has no single cell on host row/column")
	}
}

func (c *Context) readCellValue(sheet, row, col int) Value {
	ws := c.WB.Sheets[sheet]
	cell := ws.GetCell(row, col)
	if cell == nil {
		return Empty()
	}
	if cell.IsFormula() {
		if cell.Kind == model.KindFormula {
			return c.evalCell(sheet, row, col, cell)
		}
		return c.readCachedFormula(cell)
	}
	return readNonFormulaCell(c.WB, cell)
}
