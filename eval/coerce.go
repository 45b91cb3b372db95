package eval

import (
	"strconv"
	"strings"

	"github.com/vogtb/sheetcore/locale"
	"github.com/vogtb/sheetcore/numfmt"
	"github.com/vogtb/sheetcore/parser"
)

// reduceRange collapses a Range/Array Value to a single scalar via
// implicit intersection against the host cell, the step every cast in
// spec.md §4.4.2 performs before the corresponding scalar conversion.
func (c *Context) reduceRange(v Value) Value {
	switch v.Kind {
	case KindRange:
		if v.RangeSheet != c.host.Sheet {
			return c.errHere(parser.ErrValue, "implicit intersection across sheets")
		}
		row, col := c.host.Row, c.host.Col
		switch {
		case v.RangeRows() == 1 && v.RangeCols() == 1:
			return c.readCellValue(v.RangeSheet, v.RangeFirstRow, v.RangeFirstCol)
		case v.RangeCols() == 1 && row >= v.RangeFirstRow && row <= v.RangeLastRow:
			return c.readCellValue(v.RangeSheet, row, v.RangeFirstCol)
		case v.RangeRows() == 1 && col >= v.RangeFirstCol && col <= v.RangeLastCol:
			return c.readCellValue(v.RangeSheet, v.RangeFirstRow, col)
		default:
			return c.errHere(parser.ErrValue, "range has no single cell on host row/column")
		}
	case KindArray:
		if v.Array.NumRows() == 1 && v.Array.NumCols() == 1 {
			return v.Array.Rows[0][0]
		}
		return c.errHere(parser.ErrValue, "array has no single cell on host row/column")
	default:
		return v
	}
}

// ToNumber implements the "to number" cast from spec.md §4.4.2.
func (c *Context) ToNumber(v Value) Value {
	return c.toNumber(v, true)
}

// ToNumberNoBooleans implements the "to number, no booleans" cast used
// by Bessel, bit-ops, and distribution functions (spec.md §4.4.2).
func (c *Context) ToNumberNoBooleans(v Value) Value {
	return c.toNumber(v, false)
}

func (c *Context) toNumber(v Value, allowBool bool) Value {
	if v.Kind == KindRange || v.Kind == KindArray {
		v = c.reduceRange(v)
	}
	switch v.Kind {
	case KindNumber:
		return v
	case KindString:
		n, ok := parseLocaleNumber(v.Str, c.language())
		if !ok {
			return c.errHere(parser.ErrValue, "cannot parse number: "+v.Str)
		}
		return Num(n)
	case KindBoolean:
		if !allowBool {
			return c.errHere(parser.ErrValue, "boolean not allowed here")
		}
		if v.Boolean {
			return Num(1)
		}
		return Num(0)
	case KindEmptyCell, KindEmptyArg:
		return Num(0)
	case KindError:
		return v
	default:
		return c.errHere(parser.ErrValue, "cannot coerce to number")
	}
}

// ToString implements the "to string" cast from spec.md §4.4.2.
func (c *Context) ToString(v Value) Value {
	if v.Kind == KindRange || v.Kind == KindArray {
		v = c.reduceRange(v)
	}
	switch v.Kind {
	case KindString:
		return v
	case KindNumber:
		return Str(numfmt.ToExcelPrecisionString(v.Number))
	case KindBoolean:
		if v.Boolean {
			return Str("TRUE")
		}
		return Str("FALSE")
	case KindEmptyCell, KindEmptyArg:
		return Str("")
	case KindError:
		return v
	default:
		return c.errHere(parser.ErrValue, "cannot coerce to string")
	}
}

// ToBoolean implements the "to boolean" cast from spec.md §4.4.2.
func (c *Context) ToBoolean(v Value) Value {
	if v.Kind == KindRange || v.Kind == KindArray {
		v = c.reduceRange(v)
	}
	switch v.Kind {
	case KindBoolean:
		return v
	case KindNumber:
		return Bool(v.Number != 0)
	case KindString:
		switch strings.ToUpper(v.Str) {
		case "TRUE":
			return Bool(true)
		case "FALSE":
			return Bool(false)
		default:
			return c.errHere(parser.ErrValue, "cannot parse boolean: "+v.Str)
		}
	case KindEmptyCell, KindEmptyArg:
		return Bool(false)
	case KindError:
		return v
	default:
		return c.errHere(parser.ErrValue, "cannot coerce to boolean")
	}
}

// ToReference implements the "to reference" cast from spec.md §4.4.2:
// only a Reference/Range node (or a formula evaluating to a Range)
// yields a usable range; everything else is VALUE.
func (c *Context) ToReference(n Value) (Value, bool) {
	if n.Kind == KindRange {
		return n, true
	}
	return Value{}, false
}

// parseLocaleNumber parses a string to a float under the active locale's
// decimal/group separators, also recognizing a currency prefix/suffix
// and a trailing percent sign (spec.md §4.6's number-parse matrix, reused
// here for to-number string coercion).
func parseLocaleNumber(s string, lang locale.Table) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	percent := false
	if strings.HasSuffix(t, "%") {
		percent = true
		t = strings.TrimSuffix(t, "%")
		t = strings.TrimSpace(t)
	}
	t = strings.TrimPrefix(t, "$")
	t = strings.TrimSuffix(t, "$")
	t = strings.ReplaceAll(t, ",", "")
	dec := lang.DecimalSeparator()
	if dec != '.' {
		t = strings.ReplaceAll(t, string(dec), ".")
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}
