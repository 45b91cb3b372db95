package eval

import (
	"math"

	"github.com/vogtb/sheetcore/parser"
)

func init() {
	register("ISEVEN", fnIseven)
	register("ISODD", fnIsodd)
	register("ISREF", fnIsref)
	register("N", fnN)
	register("T", fnT)
	register("TYPE", fnType)
}

func fnIseven(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	return Bool(int64(math.Trunc(n.Number))%2 == 0)
}

func fnIsodd(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	return Bool(int64(math.Trunc(n.Number))%2 != 0)
}

func fnIsref(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.Kind == KindRange)
}

func fnN(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	switch v.Kind {
	case KindNumber:
		return v
	case KindBoolean:
		if v.Boolean {
			return Num(1)
		}
		return Num(0)
	case KindError:
		return v
	default:
		return Num(0)
	}
}

func fnT(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	if v.Kind == KindString {
		return v
	}
	return Str("")
}

// fnType reports the TYPE() discriminant code: 1 number, 2 text,
// 4 logical, 16 error, 64 array.
func fnType(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	switch v.Kind {
	case KindNumber, KindEmptyCell:
		return Num(1)
	case KindString:
		return Num(2)
	case KindBoolean:
		return Num(4)
	case KindError:
		return Num(16)
	case KindArray, KindRange:
		return Num(64)
	default:
		return Num(1)
	}
}
