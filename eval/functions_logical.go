package eval

import "github.com/vogtb/sheetcore/parser"

func init() {
	register("IF", fnIf)
	register("IFERROR", fnIferror)
	register("IFNA", fnIfna)
	register("AND", fnAnd)
	register("OR", fnOr)
	register("XOR", fnXor)
	register("NOT", fnNot)
	register("TRUE", func(c *Context, args []parser.Node) Value { return Bool(true) })
	register("FALSE", func(c *Context, args []parser.Node) Value { return Bool(false) })
	register("ISERROR", fnIserror)
	register("ISERR", fnIserr)
	register("ISNA", fnIsna)
	register("ISBLANK", fnIsblank)
	register("ISNUMBER", fnIsnumber)
	register("ISTEXT", fnIstext)
	register("ISNONTEXT", fnIsnontext)
	register("ISLOGICAL", fnIslogical)
	register("NA", fnNa)
	register("ERROR.TYPE", fnErrorType)
}

func fnIf(c *Context, args []parser.Node) Value {
	cond := c.ToBoolean(c.Eval(args[0]))
	if cond.IsError() {
		return cond
	}
	if cond.Boolean {
		if len(args) >= 2 {
			return c.Eval(args[1])
		}
		return Bool(true)
	}
	if len(args) >= 3 {
		return c.Eval(args[2])
	}
	return Bool(false)
}

func fnIferror(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	if v.IsError() {
		return c.Eval(args[1])
	}
	return v
}

func fnIfna(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	if v.IsError() && v.ErrKind == parser.ErrNA {
		return c.Eval(args[1])
	}
	return v
}

func fnAnd(c *Context, args []parser.Node) Value {
	result := true
	any := false
	for _, a := range args {
		v := c.Eval(a)
		if v.Kind == KindRange || v.Kind == KindArray {
			for _, leaf := range c.flattenToValues(v) {
				if leaf.Kind != KindNumber && leaf.Kind != KindBoolean {
					continue
				}
				b := c.ToBoolean(leaf)
				if b.IsError() {
					return b
				}
				any = true
				result = result && b.Boolean
			}
			continue
		}
		b := c.ToBoolean(v)
		if b.IsError() {
			return b
		}
		any = true
		result = result && b.Boolean
	}
	if !any {
		return c.errHere(parser.ErrValue, "AND requires at least one logical value")
	}
	return Bool(result)
}

func fnOr(c *Context, args []parser.Node) Value {
	result := false
	any := false
	for _, a := range args {
		v := c.Eval(a)
		if v.Kind == KindRange || v.Kind == KindArray {
			for _, leaf := range c.flattenToValues(v) {
				if leaf.Kind != KindNumber && leaf.Kind != KindBoolean {
					continue
				}
				b := c.ToBoolean(leaf)
				if b.IsError() {
					return b
				}
				any = true
				result = result || b.Boolean
			}
			continue
		}
		b := c.ToBoolean(v)
		if b.IsError() {
			return b
		}
		any = true
		result = result || b.Boolean
	}
	if !any {
		return c.errHere(parser.ErrValue, "OR requires at least one logical value")
	}
	return Bool(result)
}

func fnXor(c *Context, args []parser.Node) Value {
	count := 0
	for _, a := range args {
		v := c.Eval(a)
		if v.Kind == KindRange || v.Kind == KindArray {
			for _, leaf := range c.flattenToValues(v) {
				if leaf.Kind != KindNumber && leaf.Kind != KindBoolean {
					continue
				}
				b := c.ToBoolean(leaf)
				if b.IsError() {
					return b
				}
				if b.Boolean {
					count++
				}
			}
			continue
		}
		b := c.ToBoolean(v)
		if b.IsError() {
			return b
		}
		if b.Boolean {
			count++
		}
	}
	return Bool(count%2 == 1)
}

func fnNot(c *Context, args []parser.Node) Value {
	b := c.ToBoolean(c.Eval(args[0]))
	if b.IsError() {
		return b
	}
	return Bool(!b.Boolean)
}

func fnIserror(c *Context, args []parser.Node) Value {
	return Bool(c.Eval(args[0]).IsError())
}

func fnIserr(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.IsError() && v.ErrKind != parser.ErrNA)
}

func fnIsna(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.IsError() && v.ErrKind == parser.ErrNA)
}

func fnIsblank(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.IsEmpty())
}

func fnIsnumber(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.Kind == KindNumber)
}

func fnIstext(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.Kind == KindString)
}

func fnIsnontext(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.Kind != KindString)
}

func fnIslogical(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	return Bool(v.Kind == KindBoolean)
}

func fnNa(c *Context, args []parser.Node) Value {
	return c.errHere(parser.ErrNA, "")
}

func fnErrorType(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	if !v.IsError() {
		return c.errHere(parser.ErrNA, "ERROR.TYPE of a non-error value")
	}
	codes := map[parser.ErrorKind]float64{
		parser.ErrNull: 1, parser.ErrDiv: 2, parser.ErrValue: 3, parser.ErrRef: 4,
		parser.ErrName: 5, parser.ErrNum: 6, parser.ErrNA: 7, parser.ErrError: 8,
		parser.ErrNImpl: 8, parser.ErrCirc: 8, parser.ErrSpill: 8, parser.ErrCalc: 8,
	}
	if n, ok := codes[v.ErrKind]; ok {
		return Num(n)
	}
	return Num(8)
}
