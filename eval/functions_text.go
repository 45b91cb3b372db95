package eval

import (
	"strings"
	"unicode"

	"github.com/vogtb/sheetcore/numfmt"
	"github.com/vogtb/sheetcore/parser"
)

func init() {
	register("CONCATENATE", fnConcatenate)
	register("CONCAT", fnConcat)
	register("LEN", fnLen)
	register("UPPER", textUnary(strings.ToUpper))
	register("LOWER", textUnary(strings.ToLower))
	register("PROPER", textUnary(properCase))
	register("TRIM", textUnary(func(s string) string { return strings.Join(strings.Fields(s), " ") }))
	register("LEFT", fnLeft)
	register("RIGHT", fnRight)
	register("MID", fnMid)
	register("FIND", fnFind)
	register("SEARCH", fnSearch)
	register("SUBSTITUTE", fnSubstitute)
	register("REPLACE", fnReplace)
	register("REPT", fnRept)
	register("VALUE", fnValue)
	register("TEXT", fnText)
	register("EXACT", fnExact)
}

func textUnary(f func(string) string) fn {
	return func(c *Context, args []parser.Node) Value {
		s := c.ToString(c.Eval(args[0]))
		if s.IsError() {
			return s
		}
		return Str(f(s.Str))
	}
}

func properCase(s string) string {
	var b strings.Builder
	atStart := true
	for _, r := range s {
		if unicode.IsLetter(r) {
			if atStart {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			atStart = false
		} else {
			b.WriteRune(r)
			atStart = true
		}
	}
	return b.String()
}

func fnConcatenate(c *Context, args []parser.Node) Value {
	var b strings.Builder
	for _, a := range args {
		s := c.ToString(c.Eval(a))
		if s.IsError() {
			return s
		}
		b.WriteString(s.Str)
	}
	return Str(b.String())
}

func fnConcat(c *Context, args []parser.Node) Value {
	var b strings.Builder
	for _, a := range args {
		v := c.Eval(a)
		if v.IsError() {
			return v
		}
		if v.Kind == KindRange || v.Kind == KindArray {
			for _, leaf := range c.flattenToValues(v) {
				s := c.ToString(leaf)
				if s.IsError() {
					return s
				}
				b.WriteString(s.Str)
			}
			continue
		}
		s := c.ToString(v)
		if s.IsError() {
			return s
		}
		b.WriteString(s.Str)
	}
	return Str(b.String())
}

func fnLen(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	return Num(float64(len([]rune(s.Str))))
}

func fnLeft(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	n := 1
	if len(args) == 2 {
		nv := c.ToNumber(c.Eval(args[1]))
		if nv.IsError() {
			return nv
		}
		n = int(nv.Number)
	}
	r := []rune(s.Str)
	if n < 0 {
		return c.errHere(parser.ErrValue, "LEFT: negative length")
	}
	if n > len(r) {
		n = len(r)
	}
	return Str(string(r[:n]))
}

func fnRight(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	n := 1
	if len(args) == 2 {
		nv := c.ToNumber(c.Eval(args[1]))
		if nv.IsError() {
			return nv
		}
		n = int(nv.Number)
	}
	r := []rune(s.Str)
	if n < 0 {
		return c.errHere(parser.ErrValue, "RIGHT: negative length")
	}
	if n > len(r) {
		n = len(r)
	}
	return Str(string(r[len(r)-n:]))
}

func fnMid(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	start := c.ToNumber(c.Eval(args[1]))
	if start.IsError() {
		return start
	}
	length := c.ToNumber(c.Eval(args[2]))
	if length.IsError() {
		return length
	}
	r := []rune(s.Str)
	startIdx := int(start.Number) - 1
	if startIdx < 0 || length.Number < 0 {
		return c.errHere(parser.ErrValue, "MID: invalid start/length")
	}
	if startIdx >= len(r) {
		return Str("")
	}
	end := startIdx + int(length.Number)
	if end > len(r) {
		end = len(r)
	}
	return Str(string(r[startIdx:end]))
}

func fnFind(c *Context, args []parser.Node) Value {
	return findImpl(c, args, true)
}

func fnSearch(c *Context, args []parser.Node) Value {
	return findImpl(c, args, false)
}

func findImpl(c *Context, args []parser.Node, caseSensitive bool) Value {
	needle := c.ToString(c.Eval(args[0]))
	if needle.IsError() {
		return needle
	}
	hay := c.ToString(c.Eval(args[1]))
	if hay.IsError() {
		return hay
	}
	start := 1
	if len(args) == 3 {
		s := c.ToNumber(c.Eval(args[2]))
		if s.IsError() {
			return s
		}
		start = int(s.Number)
	}
	hr := []rune(hay.Str)
	if start < 1 || start > len(hr)+1 {
		return c.errHere(parser.ErrValue, "FIND/SEARCH: start out of range")
	}
	n, h := needle.Str, string(hr[start-1:])
	if !caseSensitive {
		n, h = strings.ToUpper(n), strings.ToUpper(h)
	}
	idx := strings.Index(h, n)
	if idx < 0 {
		return c.errHere(parser.ErrValue, "text not found")
	}
	return Num(float64(start + len([]rune(h[:idx]))))
}

func fnSubstitute(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	old := c.ToString(c.Eval(args[1]))
	if old.IsError() {
		return old
	}
	newv := c.ToString(c.Eval(args[2]))
	if newv.IsError() {
		return newv
	}
	if len(args) == 3 {
		return Str(strings.ReplaceAll(s.Str, old.Str, newv.Str))
	}
	idx := c.ToNumber(c.Eval(args[3]))
	if idx.IsError() {
		return idx
	}
	occurrence := int(idx.Number)
	if occurrence < 1 {
		return c.errHere(parser.ErrValue, "SUBSTITUTE: occurrence must be >= 1")
	}
	count := 0
	result := s.Str
	for {
		i := strings.Index(result, old.Str)
		if i < 0 || old.Str == "" {
			break
		}
		count++
		if count == occurrence {
			return Str(result[:i] + newv.Str + result[i+len(old.Str):])
		}
		result = result[i+len(old.Str):]
	}
	return Str(s.Str)
}

func fnReplace(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	start := c.ToNumber(c.Eval(args[1]))
	if start.IsError() {
		return start
	}
	length := c.ToNumber(c.Eval(args[2]))
	if length.IsError() {
		return length
	}
	newText := c.ToString(c.Eval(args[3]))
	if newText.IsError() {
		return newText
	}
	r := []rune(s.Str)
	startIdx := int(start.Number) - 1
	if startIdx < 0 {
		return c.errHere(parser.ErrValue, "REPLACE: invalid start")
	}
	end := startIdx + int(length.Number)
	if startIdx > len(r) {
		startIdx = len(r)
	}
	if end > len(r) {
		end = len(r)
	}
	if end < startIdx {
		end = startIdx
	}
	return Str(string(r[:startIdx]) + newText.Str + string(r[end:]))
}

func fnRept(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	n := c.ToNumber(c.Eval(args[1]))
	if n.IsError() {
		return n
	}
	if n.Number < 0 {
		return c.errHere(parser.ErrValue, "REPT: negative count")
	}
	return Str(strings.Repeat(s.Str, int(n.Number)))
}

func fnValue(c *Context, args []parser.Node) Value {
	s := c.ToString(c.Eval(args[0]))
	if s.IsError() {
		return s
	}
	n, ok := parseLocaleNumber(s.Str, c.language())
	if !ok {
		return c.errHere(parser.ErrValue, "VALUE: cannot parse number")
	}
	return Num(n)
}

func fnText(c *Context, args []parser.Node) Value {
	v := c.Eval(args[0])
	format := c.ToString(c.Eval(args[1]))
	if format.IsError() {
		return format
	}
	if v.Kind == KindRange || v.Kind == KindArray {
		v = c.reduceRange(v)
	}
	if v.IsError() {
		return v
	}
	if v.Kind != KindNumber {
		s := c.ToString(v)
		return s
	}
	return Str(numfmt.Render(v.Number, format.Str))
}

func fnExact(c *Context, args []parser.Node) Value {
	a := c.ToString(c.Eval(args[0]))
	if a.IsError() {
		return a
	}
	b := c.ToString(c.Eval(args[1]))
	if b.IsError() {
		return b
	}
	return Bool(a.Str == b.Str)
}
