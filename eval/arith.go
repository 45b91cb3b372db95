package eval

import (
	"math"
	"strings"

	"github.com/vogtb/sheetcore/parser"
)

func (c *Context) evalUnary(n *parser.UnaryNode) Value {
	v := c.Eval(n.Child)
	if v.IsError() {
		return v
	}
	switch n.Op {
	case parser.UnaryPlus:
		return c.broadcastUnary(v, func(x float64) float64 { return x })
	case parser.UnaryMinus:
		return c.broadcastUnary(v, func(x float64) float64 { return -x })
	case parser.UnaryPercent:
		return c.broadcastUnary(v, func(x float64) float64 { return x / 100 })
	default:
		return c.errHere(parser.ErrError, "unknown unary operator")
	}
}

func (c *Context) broadcastUnary(v Value, f func(float64) float64) Value {
	if v.Kind == KindArray {
		out := NewArray(v.Array.NumRows(), v.Array.NumCols())
		for i, row := range v.Array.Rows {
			for j, leaf := range row {
				out.Rows[i][j] = c.broadcastUnary(leaf, f)
			}
		}
		return ArrVal(out)
	}
	n := c.ToNumber(v)
	if n.IsError() {
		return n
	}
	return Num(f(n.Number))
}

func (c *Context) evalBinary(n *parser.BinaryNode) Value {
	if n.Op == parser.OpUnion {
		return c.evalUnion(n)
	}
	if n.Op == parser.OpIntersect {
		return c.evalIntersect(n)
	}

	left := c.Eval(n.Left)
	right := c.Eval(n.Right)

	switch n.Op {
	case parser.OpConcat:
		return c.concat(left, right)
	case parser.OpEq, parser.OpNe, parser.OpLt, parser.OpLe, parser.OpGt, parser.OpGe:
		return c.compareOp(n.Op, left, right)
	default:
		return c.arithOp(n.Op, left, right)
	}
}

// arithOp implements spec.md §4.4.1: resolve both sides to
// number-or-array, apply the operator elementwise when either side is an
// array (broadcasting over the max dimension, with out-of-range
// positions yielding VALUE leaves rather than aborting), or apply it
// directly when both are scalars.
func (c *Context) arithOp(op parser.BinaryOp, left, right Value) Value {
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	if left.Kind == KindArray || right.Kind == KindArray {
		return c.broadcastArith(op, left, right)
	}
	ln := c.ToNumber(left)
	if ln.IsError() {
		return ln
	}
	rn := c.ToNumber(right)
	if rn.IsError() {
		return rn
	}
	return c.applyArith(op, ln.Number, rn.Number)
}

func (c *Context) applyArith(op parser.BinaryOp, a, b float64) Value {
	switch op {
	case parser.OpAdd:
		return Num(a + b)
	case parser.OpSub:
		return Num(a - b)
	case parser.OpMul:
		return Num(a * b)
	case parser.OpDiv:
		if b == 0 {
			return c.errHere(parser.ErrDiv, "Divide by 0")
		}
		return Num(a / b)
	case parser.OpPow:
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			return c.errHere(parser.ErrNum, "invalid power")
		}
		return Num(r)
	default:
		return c.errHere(parser.ErrError, "unknown arithmetic operator")
	}
}

func (c *Context) asArray(v Value, rows, cols int) *Array {
	if v.Kind == KindArray {
		return v.Array
	}
	out := NewArray(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Rows[i][j] = v
		}
	}
	return out
}

func (c *Context) broadcastArith(op parser.BinaryOp, left, right Value) Value {
	lr, lc := 1, 1
	if left.Kind == KindArray {
		lr, lc = left.Array.NumRows(), left.Array.NumCols()
	}
	rr, rc := 1, 1
	if right.Kind == KindArray {
		rr, rc = right.Array.NumRows(), right.Array.NumCols()
	}
	rows, cols := lr, lc
	if rr > rows {
		rows = rr
	}
	if rc > cols {
		cols = rc
	}
	la := c.asArray(left, lr, lc)
	ra := c.asArray(right, rr, rc)
	out := NewArray(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i >= la.NumRows() || j >= la.NumCols() || i >= ra.NumRows() || j >= ra.NumCols() {
				out.Rows[i][j] = c.errHere(parser.ErrValue, "array dimension mismatch")
				continue
			}
			out.Rows[i][j] = c.arithOp(op, la.Rows[i][j], ra.Rows[i][j])
		}
	}
	return ArrVal(out)
}

func (c *Context) concat(left, right Value) Value {
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	if left.Kind == KindArray || right.Kind == KindArray {
		lr, lc := 1, 1
		if left.Kind == KindArray {
			lr, lc = left.Array.NumRows(), left.Array.NumCols()
		}
		rr, rc := 1, 1
		if right.Kind == KindArray {
			rr, rc = right.Array.NumRows(), right.Array.NumCols()
		}
		rows, cols := lr, lc
		if rr > rows {
			rows = rr
		}
		if rc > cols {
			cols = rc
		}
		la := c.asArray(left, lr, lc)
		ra := c.asArray(right, rr, rc)
		out := NewArray(rows, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if i >= la.NumRows() || j >= la.NumCols() || i >= ra.NumRows() || j >= ra.NumCols() {
					out.Rows[i][j] = c.errHere(parser.ErrValue, "array dimension mismatch")
					continue
				}
				out.Rows[i][j] = c.concat(la.Rows[i][j], ra.Rows[i][j])
			}
		}
		return ArrVal(out)
	}
	ls := c.ToString(left)
	if ls.IsError() {
		return ls
	}
	rs := c.ToString(right)
	if rs.IsError() {
		return rs
	}
	return Str(ls.Str + rs.Str)
}

func (c *Context) compareOp(op parser.BinaryOp, left, right Value) Value {
	if left.Kind == KindArray || right.Kind == KindArray {
		lr, lc := 1, 1
		if left.Kind == KindArray {
			lr, lc = left.Array.NumRows(), left.Array.NumCols()
		}
		rr, rc := 1, 1
		if right.Kind == KindArray {
			rr, rc = right.Array.NumRows(), right.Array.NumCols()
		}
		rows, cols := lr, lc
		if rr > rows {
			rows = rr
		}
		if rc > cols {
			cols = rc
		}
		la := c.asArray(left, lr, lc)
		ra := c.asArray(right, rr, rc)
		out := NewArray(rows, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Rows[i][j] = c.compareOp(op, la.Rows[i][j], ra.Rows[i][j])
			}
		}
		return ArrVal(out)
	}
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	left = c.reduceRange(left)
	right = c.reduceRange(right)
	cmp := compareCoerced(left, right)
	switch op {
	case parser.OpEq:
		return Bool(cmp == 0)
	case parser.OpNe:
		return Bool(cmp != 0)
	case parser.OpLt:
		return Bool(cmp < 0)
	case parser.OpLe:
		return Bool(cmp <= 0)
	case parser.OpGt:
		return Bool(cmp > 0)
	case parser.OpGe:
		return Bool(cmp >= 0)
	default:
		return c.errHere(parser.ErrError, "unknown comparison operator")
	}
}

// compareCoerced compares two scalar values for the comparison operators:
// values of the same kind compare directly (strings case-insensitively,
// per spec.md §4.4.1); values of different kinds fall back to the total
// order over kinds (number < string < boolean < empty, spec.md §3), since
// Excel's comparison operators never raise a type error.
func compareCoerced(a, b Value) int {
	if a.Kind == KindEmptyCell || a.Kind == KindEmptyArg {
		a = emptyAsKind(b)
	}
	if b.Kind == KindEmptyCell || b.Kind == KindEmptyArg {
		b = emptyAsKind(a)
	}
	if a.Kind == b.Kind {
		return Compare(a, b)
	}
	ra, rb := compareRank(a), compareRank(b)
	return ra - rb
}

func emptyAsKind(other Value) Value {
	switch other.Kind {
	case KindNumber:
		return Num(0)
	case KindString:
		return Str("")
	case KindBoolean:
		return Bool(false)
	default:
		return Empty()
	}
}

func compareRank(v Value) int {
	switch v.Kind {
	case KindNumber:
		return 0
	case KindString:
		return 1
	case KindBoolean:
		return 2
	default:
		return 3
	}
}

// evalUnion evaluates the comma "multi-area reference" operator. Ranges
// on different sheets or discontiguous areas cannot be represented by
// the single-Range CalcResult variant, so a union always yields a
// one-row array holding the left side's cell values followed by the
// right side's, each in reading order; it never yields a Range, even
// when the two areas are adjacent on the same sheet.
func (c *Context) evalUnion(n *parser.BinaryNode) Value {
	left := c.Eval(n.Left)
	right := c.Eval(n.Right)
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	values := append(c.flattenToValues(left), c.flattenToValues(right)...)
	out := NewArray(1, len(values))
	copy(out.Rows[0], values)
	return ArrVal(out)
}

func (c *Context) evalIntersect(n *parser.BinaryNode) Value {
	left := c.Eval(n.Left)
	right := c.Eval(n.Right)
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	if left.Kind != KindRange || right.Kind != KindRange || left.RangeSheet != right.RangeSheet {
		return c.errHere(parser.ErrValue, "intersection requires two ranges on the same sheet")
	}
	fr := maxInt(left.RangeFirstRow, right.RangeFirstRow)
	fc := maxInt(left.RangeFirstCol, right.RangeFirstCol)
	lr := minInt(left.RangeLastRow, right.RangeLastRow)
	lc := minInt(left.RangeLastCol, right.RangeLastCol)
	if fr > lr || fc > lc {
		return c.errHere(parser.ErrNull, "intersection is empty")
	}
	return Value{Kind: KindRange, RangeSheet: left.RangeSheet, RangeFirstRow: fr, RangeFirstCol: fc, RangeLastRow: lr, RangeLastCol: lc}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// flattenToValues materializes a Range/Array/scalar Value into a flat
// slice of scalar Values in row-major reading order, used by array-aware
// aggregation functions (SUM, AVERAGE, ...) and by union concatenation.
func (c *Context) flattenToValues(v Value) []Value {
	switch v.Kind {
	case KindRange:
		var out []Value
		for row := v.RangeFirstRow; row <= v.RangeLastRow; row++ {
			for col := v.RangeFirstCol; col <= v.RangeLastCol; col++ {
				out = append(out, c.readCellValue(v.RangeSheet, row, col))
			}
		}
		return out
	case KindArray:
		var out []Value
		for _, row := range v.Array.Rows {
			out = append(out, row...)
		}
		return out
	default:
		return []Value{v}
	}
}

func isBlankString(s string) bool { return strings.TrimSpace(s) == "" }
