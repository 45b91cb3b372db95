package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/vogtb/sheetcore/numfmt"
	"github.com/vogtb/sheetcore/parser"
)

func init() {
	register("BITAND", bitOp(func(a, b uint64) uint64 { return a & b }))
	register("BITOR", bitOp(func(a, b uint64) uint64 { return a | b }))
	register("BITXOR", bitOp(func(a, b uint64) uint64 { return a ^ b }))
	register("BITLSHIFT", fnBitlshift)
	register("BITRSHIFT", fnBitrshift)
	register("DELTA", fnDelta)
	register("GESTEP", fnGestep)
	register("BESSELJ", fnBesselj)
	register("BESSELY", fnBessely)
	register("BESSELI", fnBesseli)
	register("BESSELK", fnBesselk)
	register("DEC2BIN", decToBase(2, 1<<9))
	register("DEC2HEX", decToBase(16, 1<<39))
	register("DEC2OCT", decToBase(8, 1<<29))
	register("BIN2DEC", baseToDec(2))
	register("HEX2DEC", baseToDec(16))
	register("OCT2DEC", baseToDec(8))
}

// decToBase implements the DEC2BIN/DEC2HEX/DEC2OCT family: each renders a
// two's-complement representation in its target base, with signMagnitude
// the value of the top bit in that representation's documented width
// (10 bits for binary, 30 for octal, 40 for hex).
func decToBase(base int, signMagnitude int64) fn {
	return func(c *Context, args []parser.Node) Value {
		n := c.ToNumber(c.Eval(args[0]))
		if n.IsError() {
			return n
		}
		places := -1
		if len(args) == 2 {
			p := c.ToNumber(c.Eval(args[1]))
			if p.IsError() {
				return p
			}
			places = int(p.Number)
		}
		v := int64(n.Number)
		if v < -signMagnitude || v >= signMagnitude {
			return c.errHere(parser.ErrNum, "value out of range for this representation")
		}
		if v < 0 {
			v += signMagnitude * 2
		}
		s := strings.ToUpper(strconv.FormatInt(v, base))
		if places > 0 {
			if len(s) > places {
				return c.errHere(parser.ErrNum, "DEC2*: value does not fit in requested places")
			}
			s = strings.Repeat("0", places-len(s)) + s
		}
		return Str(s)
	}
}

// baseToDec parses unsigned magnitude only; it does not reinterpret a
// leading-1 bit pattern as a negative two's-complement value the way
// BIN2DEC/HEX2DEC/OCT2DEC do for negative inputs.
func baseToDec(base int) fn {
	return func(c *Context, args []parser.Node) Value {
		s := c.ToString(c.Eval(args[0]))
		if s.IsError() {
			return s
		}
		v, err := strconv.ParseInt(s.Str, base, 64)
		if err != nil {
			return c.errHere(parser.ErrNum, "invalid digits for base "+strconv.Itoa(base))
		}
		return Num(float64(v))
	}
}

const bitMax = 1 << 48 // BITAND/OR/XOR operate on non-negative integers < 2^48 per the engineering function family's documented domain

func toBitInt(c *Context, n Value) (uint64, Value) {
	v := c.ToNumberNoBooleans(n)
	if v.IsError() {
		return 0, v
	}
	if v.Number < 0 || v.Number >= bitMax || v.Number != math.Trunc(v.Number) {
		return 0, c.errHere(parser.ErrNum, "bit operand out of range")
	}
	return uint64(v.Number), Value{}
}

func bitOp(f func(a, b uint64) uint64) fn {
	return func(c *Context, args []parser.Node) Value {
		a, errv := toBitInt(c, c.Eval(args[0]))
		if errv.IsError() {
			return errv
		}
		b, errv := toBitInt(c, c.Eval(args[1]))
		if errv.IsError() {
			return errv
		}
		return Num(float64(f(a, b)))
	}
}

func fnBitlshift(c *Context, args []parser.Node) Value {
	a, errv := toBitInt(c, c.Eval(args[0]))
	if errv.IsError() {
		return errv
	}
	shift := c.ToNumberNoBooleans(c.Eval(args[1]))
	if shift.IsError() {
		return shift
	}
	s := int(shift.Number)
	var r uint64
	if s >= 0 {
		r = a << uint(s)
	} else {
		r = a >> uint(-s)
	}
	if r >= bitMax {
		return c.errHere(parser.ErrNum, "BITLSHIFT result out of range")
	}
	return Num(float64(r))
}

func fnBitrshift(c *Context, args []parser.Node) Value {
	a, errv := toBitInt(c, c.Eval(args[0]))
	if errv.IsError() {
		return errv
	}
	shift := c.ToNumberNoBooleans(c.Eval(args[1]))
	if shift.IsError() {
		return shift
	}
	s := int(shift.Number)
	var r uint64
	if s >= 0 {
		r = a >> uint(s)
	} else {
		r = a << uint(-s)
	}
	if r >= bitMax {
		return c.errHere(parser.ErrNum, "BITRSHIFT result out of range")
	}
	return Num(float64(r))
}

// fnDelta and fnGestep compare at "Excel precision" (16 significant
// digits, spec.md §4.4.3) rather than raw IEEE-754 equality.
func fnDelta(c *Context, args []parser.Node) Value {
	a := c.ToNumberNoBooleans(c.Eval(args[0]))
	if a.IsError() {
		return a
	}
	b := Num(0)
	if len(args) == 2 {
		b = c.ToNumberNoBooleans(c.Eval(args[1]))
		if b.IsError() {
			return b
		}
	}
	if numfmt.ToExcelPrecisionString16(a.Number) == numfmt.ToExcelPrecisionString16(b.Number) {
		return Num(1)
	}
	return Num(0)
}

func fnGestep(c *Context, args []parser.Node) Value {
	a := c.ToNumberNoBooleans(c.Eval(args[0]))
	if a.IsError() {
		return a
	}
	step := Num(0)
	if len(args) == 2 {
		step = c.ToNumberNoBooleans(c.Eval(args[1]))
		if step.IsError() {
			return step
		}
	}
	if a.Number >= step.Number || numfmt.ToExcelPrecisionString16(a.Number) == numfmt.ToExcelPrecisionString16(step.Number) {
		return Num(1)
	}
	return Num(0)
}

// besselJSeries evaluates J_n(x) via its standard power series, adequate
// for the moderate |x| formula authors pass (spec.md §4.4.4: "standard
// series/continued-fraction approximations with documented tolerances").
func besselJSeries(n int, x float64) float64 {
	if n < 0 {
		return 0
	}
	sum := 0.0
	halfX := x / 2
	for k := 0; k < 40; k++ {
		term := math.Pow(-1, float64(k)) * math.Pow(halfX, float64(2*k+n)) / (factorial(k) * factorial(k+n))
		sum += term
	}
	return sum
}

func factorial(n int) float64 {
	r := 1.0
	for i := 2; i <= n; i++ {
		r *= float64(i)
	}
	return r
}

func fnBesselj(c *Context, args []parser.Node) Value {
	x := c.ToNumberNoBooleans(c.Eval(args[0]))
	if x.IsError() {
		return x
	}
	n := c.ToNumberNoBooleans(c.Eval(args[1]))
	if n.IsError() {
		return n
	}
	if n.Number < 0 {
		return c.errHere(parser.ErrNum, "BESSELJ: order must be non-negative")
	}
	return Num(besselJSeries(int(math.Trunc(n.Number)), x.Number))
}

// besselYSeries approximates Y_n via the asymptotic expansion for
// moderate x; exact only to the documented tolerance, not a closed form.
func besselYSeries(n int, x float64) float64 {
	if x <= 0 {
		return math.NaN()
	}
	return math.Sqrt(2/(math.Pi*x)) * math.Sin(x-float64(n)*math.Pi/2-math.Pi/4)
}

func fnBessely(c *Context, args []parser.Node) Value {
	x := c.ToNumberNoBooleans(c.Eval(args[0]))
	if x.IsError() {
		return x
	}
	n := c.ToNumberNoBooleans(c.Eval(args[1]))
	if n.IsError() {
		return n
	}
	if x.Number <= 0 {
		return c.errHere(parser.ErrNum, "BESSELY domain error")
	}
	return Num(besselYSeries(int(math.Trunc(n.Number)), x.Number))
}

func besselISeries(n int, x float64) float64 {
	if n < 0 {
		return 0
	}
	sum := 0.0
	halfX := x / 2
	for k := 0; k < 40; k++ {
		term := math.Pow(halfX, float64(2*k+n)) / (factorial(k) * factorial(k+n))
		sum += term
	}
	return sum
}

func fnBesseli(c *Context, args []parser.Node) Value {
	x := c.ToNumberNoBooleans(c.Eval(args[0]))
	if x.IsError() {
		return x
	}
	n := c.ToNumberNoBooleans(c.Eval(args[1]))
	if n.IsError() {
		return n
	}
	if n.Number < 0 {
		return c.errHere(parser.ErrNum, "BESSELI: order must be non-negative")
	}
	return Num(besselISeries(int(math.Trunc(n.Number)), x.Number))
}

func fnBesselk(c *Context, args []parser.Node) Value {
	x := c.ToNumberNoBooleans(c.Eval(args[0]))
	if x.IsError() {
		return x
	}
	n := c.ToNumberNoBooleans(c.Eval(args[1]))
	if n.IsError() {
		return n
	}
	if x.Number <= 0 {
		return c.errHere(parser.ErrNum, "BESSELK domain error")
	}
	// Asymptotic form for moderate-to-large x; small-x accuracy is
	// documented as reduced (spec.md §4.4.4 tolerance note).
	return Num(math.Sqrt(math.Pi/(2*x)) * math.Exp(-x) * (1 + (4*float64(n*n)-1)/(8*x)))
}
