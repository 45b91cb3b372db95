package eval

import (
	"math"
	"sort"

	"github.com/vogtb/sheetcore/parser"
)

func init() {
	register("LARGE", fnLarge)
	register("SMALL", fnSmall)
	register("MEDIAN", fnMedian)
	register("STDEV.S", fnStdevS)
	register("STDEV.P", fnStdevP)
	register("VAR.S", fnVarS)
	register("VAR.P", fnVarP)
	register("RANK.EQ", fnRankEq)
	register("RANK.AVG", fnRankAvg)
	register("QUARTILE.INC", fnQuartileInc)
	register("QUARTILE.EXC", fnQuartileExc)
	register("PERCENTRANK.INC", fnPercentrankInc)
	register("PERCENTRANK.EXC", fnPercentrankExc)
	register("PEARSON", fnPearson)
	register("CORREL", fnPearson)
	register("BETA.DIST", fnBetaDist)
	register("CHISQ.DIST", fnChisqDist)
	register("T.INV", fnTInv)
	register("T.INV.2T", fnTInv2T)
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

func fnLarge(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	k := c.ToNumber(c.Eval(args[1]))
	if k.IsError() {
		return k
	}
	ki := int(k.Number)
	if ki < 1 || ki > len(xs) {
		return c.errHere(parser.ErrNum, "LARGE: k out of range")
	}
	s := sortedCopy(xs)
	return Num(s[len(s)-ki])
}

func fnSmall(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	k := c.ToNumber(c.Eval(args[1]))
	if k.IsError() {
		return k
	}
	ki := int(k.Number)
	if ki < 1 || ki > len(xs) {
		return c.errHere(parser.ErrNum, "SMALL: k out of range")
	}
	s := sortedCopy(xs)
	return Num(s[ki-1])
}

func fnMedian(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args)
	if errv.IsError() {
		return errv
	}
	if len(xs) == 0 {
		return c.errHere(parser.ErrNum, "MEDIAN: no numbers")
	}
	s := sortedCopy(xs)
	n := len(s)
	if n%2 == 1 {
		return Num(s[n/2])
	}
	return Num((s[n/2-1] + s[n/2]) / 2)
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sumSquaredDev(xs []float64, mean float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum
}

func fnVarS(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args)
	if errv.IsError() {
		return errv
	}
	if len(xs) < 2 {
		return c.errHere(parser.ErrDiv, "VAR.S: needs at least 2 values")
	}
	mean := meanOf(xs)
	return Num(sumSquaredDev(xs, mean) / float64(len(xs)-1))
}

func fnVarP(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args)
	if errv.IsError() {
		return errv
	}
	if len(xs) == 0 {
		return c.errHere(parser.ErrDiv, "VAR.P: no values")
	}
	mean := meanOf(xs)
	return Num(sumSquaredDev(xs, mean) / float64(len(xs)))
}

func fnStdevS(c *Context, args []parser.Node) Value {
	v := fnVarS(c, args)
	if v.IsError() {
		return v
	}
	return Num(math.Sqrt(v.Number))
}

func fnStdevP(c *Context, args []parser.Node) Value {
	v := fnVarP(c, args)
	if v.IsError() {
		return v
	}
	return Num(math.Sqrt(v.Number))
}

// fnRankEq / fnRankAvg share the "1-based rank in descending order unless
// order arg is nonzero" rule; RANK.AVG additionally averages over a tie
// group instead of reporting the first rank that hits it.
func rankPosition(xs []float64, key float64, ascending bool) (firstRank, tieCount int) {
	for _, x := range xs {
		less := x > key
		if ascending {
			less = x < key
		}
		if less {
			firstRank++
		}
		if x == key {
			tieCount++
		}
	}
	return firstRank + 1, tieCount
}

func fnRankEq(c *Context, args []parser.Node) Value {
	key := c.ToNumber(c.Eval(args[0]))
	if key.IsError() {
		return key
	}
	xs, errv := c.numbersFromRangeArgs(args[1:2])
	if errv.IsError() {
		return errv
	}
	ascending := false
	if len(args) == 3 {
		o := c.ToNumber(c.Eval(args[2]))
		if o.IsError() {
			return o
		}
		ascending = o.Number != 0
	}
	rank, tieCount := rankPosition(xs, key.Number, ascending)
	if tieCount == 0 {
		return c.errHere(parser.ErrNA, "RANK.EQ: value not found")
	}
	return Num(float64(rank))
}

func fnRankAvg(c *Context, args []parser.Node) Value {
	key := c.ToNumber(c.Eval(args[0]))
	if key.IsError() {
		return key
	}
	xs, errv := c.numbersFromRangeArgs(args[1:2])
	if errv.IsError() {
		return errv
	}
	ascending := false
	if len(args) == 3 {
		o := c.ToNumber(c.Eval(args[2]))
		if o.IsError() {
			return o
		}
		ascending = o.Number != 0
	}
	rank, tieCount := rankPosition(xs, key.Number, ascending)
	if tieCount == 0 {
		return c.errHere(parser.ErrNA, "RANK.AVG: value not found")
	}
	// average of rank..rank+tieCount-1
	sum := 0.0
	for i := 0; i < tieCount; i++ {
		sum += float64(rank + i)
	}
	return Num(sum / float64(tieCount))
}

// quartile via linear interpolation over the sorted sample; .INC uses the
// inclusive (0..1 over n-1 gaps) method, .EXC the exclusive (1..n/(n+1))
// method matching spec.md §4.4.4's two named variants.
func quantileInc(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func quantileExc(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	pos := p * float64(n+1)
	if pos < 1 || pos > float64(n) {
		return 0, false
	}
	lo := int(math.Floor(pos)) - 1
	hi := int(math.Ceil(pos)) - 1
	if hi >= n {
		hi = n - 1
	}
	frac := pos - math.Floor(pos)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo]), true
}

var quartileFractions = [5]float64{0, 0.25, 0.5, 0.75, 1}

func fnQuartileInc(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	q := c.ToNumber(c.Eval(args[1]))
	if q.IsError() {
		return q
	}
	qi := int(q.Number)
	if qi < 0 || qi > 4 {
		return c.errHere(parser.ErrNum, "QUARTILE.INC: quart out of range")
	}
	if len(xs) == 0 {
		return c.errHere(parser.ErrNum, "QUARTILE.INC: no data")
	}
	return Num(quantileInc(sortedCopy(xs), quartileFractions[qi]))
}

func fnQuartileExc(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	q := c.ToNumber(c.Eval(args[1]))
	if q.IsError() {
		return q
	}
	qi := int(q.Number)
	if qi < 1 || qi > 3 {
		return c.errHere(parser.ErrNum, "QUARTILE.EXC: quart out of range")
	}
	v, ok := quantileExc(sortedCopy(xs), quartileFractions[qi])
	if !ok {
		return c.errHere(parser.ErrNum, "QUARTILE.EXC: quart not computable for this sample size")
	}
	return Num(v)
}

// fnPercentrankInc / fnPercentrankExc invert the quartile functions: given
// a value, find its fractional position in the sorted sample by
// bisection over p in [0,1], since quantileInc/quantileExc are monotone.
func (c *Context) percentrank(sorted []float64, x float64, exclusive bool, significance int) Value {
	n := len(sorted)
	if n == 0 {
		return c.errHere(parser.ErrNA, "PERCENTRANK: no data")
	}
	if n == 1 {
		if exclusive {
			return c.errHere(parser.ErrNA, "PERCENTRANK.EXC: not computable for n=1")
		}
		return Num(0)
	}
	if x < sorted[0] || x > sorted[n-1] {
		return c.errHere(parser.ErrNA, "PERCENTRANK: value outside sample range")
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		var v float64
		if exclusive {
			vv, ok := quantileExc(sorted, mid)
			if !ok {
				lo = mid
				continue
			}
			v = vv
		} else {
			v = quantileInc(sorted, mid)
		}
		if v < x {
			lo = mid
		} else {
			hi = mid
		}
	}
	p := (lo + hi) / 2
	scale := math.Pow(10, float64(significance))
	return Num(math.Trunc(p*scale) / scale)
}

func fnPercentrankInc(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	x := c.ToNumber(c.Eval(args[1]))
	if x.IsError() {
		return x
	}
	sig := 3
	if len(args) == 3 {
		s := c.ToNumber(c.Eval(args[2]))
		if s.IsError() {
			return s
		}
		sig = int(s.Number)
	}
	return c.percentrank(sortedCopy(xs), x.Number, false, sig)
}

func fnPercentrankExc(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	x := c.ToNumber(c.Eval(args[1]))
	if x.IsError() {
		return x
	}
	sig := 3
	if len(args) == 3 {
		s := c.ToNumber(c.Eval(args[2]))
		if s.IsError() {
			return s
		}
		sig = int(s.Number)
	}
	return c.percentrank(sortedCopy(xs), x.Number, true, sig)
}

func fnPearson(c *Context, args []parser.Node) Value {
	xs, errv := c.numbersFromRangeArgs(args[:1])
	if errv.IsError() {
		return errv
	}
	ys, errv := c.numbersFromRangeArgs(args[1:2])
	if errv.IsError() {
		return errv
	}
	if len(xs) != len(ys) || len(xs) < 2 {
		return c.errHere(parser.ErrNA, "PEARSON/CORREL: arrays must be the same non-trivial length")
	}
	mx, my := meanOf(xs), meanOf(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	denom := math.Sqrt(sxx * syy)
	if denom == 0 {
		return c.errHere(parser.ErrDiv, "PEARSON/CORREL: zero variance")
	}
	return Num(sxy / denom)
}

// fnBetaDist implements BETA.DIST(x, alpha, beta, cumulative, [A], [B]),
// rescaling to the standard [0,1] interval when bounds are supplied
// (anchor: BETA.DIST(0.234,2,2.5,TRUE,0.15,1.2) ~= 0.588288667).
func fnBetaDist(c *Context, args []parser.Node) Value {
	x := c.ToNumber(c.Eval(args[0]))
	if x.IsError() {
		return x
	}
	alpha := c.ToNumber(c.Eval(args[1]))
	if alpha.IsError() {
		return alpha
	}
	beta := c.ToNumber(c.Eval(args[2]))
	if beta.IsError() {
		return beta
	}
	cumulative := c.ToBoolean(c.Eval(args[3]))
	if cumulative.IsError() {
		return cumulative
	}
	lo, hi := 0.0, 1.0
	if len(args) >= 5 {
		a := c.ToNumber(c.Eval(args[4]))
		if a.IsError() {
			return a
		}
		lo = a.Number
	}
	if len(args) == 6 {
		b := c.ToNumber(c.Eval(args[5]))
		if b.IsError() {
			return b
		}
		hi = b.Number
	}
	if hi <= lo {
		return c.errHere(parser.ErrNum, "BETA.DIST: upper bound must exceed lower bound")
	}
	xs := (x.Number - lo) / (hi - lo)
	if xs < 0 || xs > 1 {
		return c.errHere(parser.ErrNum, "BETA.DIST: x out of [A,B]")
	}
	if cumulative.Boolean {
		return Num(betainc(alpha.Number, beta.Number, xs))
	}
	if xs == 0 || xs == 1 {
		return Num(0)
	}
	pdf := math.Pow(xs, alpha.Number-1) * math.Pow(1-xs, beta.Number-1) / betaFn(alpha.Number, beta.Number)
	return Num(pdf / (hi - lo))
}

// fnChisqDist implements CHISQ.DIST(x, deg_freedom, cumulative) (anchors:
// CHISQ.DIST(0.5,4,TRUE) ~= 0.026499021, CHISQ.DIST(0.5,4,FALSE) ~=
// 0.097350098).
func fnChisqDist(c *Context, args []parser.Node) Value {
	x := c.ToNumber(c.Eval(args[0]))
	if x.IsError() {
		return x
	}
	df := c.ToNumber(c.Eval(args[1]))
	if df.IsError() {
		return df
	}
	cumulative := c.ToBoolean(c.Eval(args[2]))
	if cumulative.IsError() {
		return cumulative
	}
	if x.Number < 0 {
		return c.errHere(parser.ErrNum, "CHISQ.DIST: x must be non-negative")
	}
	k := df.Number
	if cumulative.Boolean {
		return Num(gammaP(k/2, x.Number/2))
	}
	if x.Number == 0 {
		if k < 2 {
			return c.errHere(parser.ErrNum, "CHISQ.DIST: density undefined at 0 for df<2")
		}
		if k == 2 {
			return Num(0.5)
		}
		return Num(0)
	}
	logPdf := (k/2-1)*math.Log(x.Number) - x.Number/2 - (k/2)*math.Log(2) - logGamma(k/2)
	return Num(math.Exp(logPdf))
}

// fnTInv implements T.INV(probability, deg_freedom), the left-tailed
// inverse of the Student t distribution (anchor: T.INV(0.95,10) ~=
// 1.812461123).
func fnTInv(c *Context, args []parser.Node) Value {
	p := c.ToNumber(c.Eval(args[0]))
	if p.IsError() {
		return p
	}
	df := c.ToNumber(c.Eval(args[1]))
	if df.IsError() {
		return df
	}
	if p.Number <= 0 || p.Number >= 1 {
		return c.errHere(parser.ErrNum, "T.INV: probability must be in (0,1)")
	}
	return Num(studentTInv(p.Number, df.Number))
}

// fnTInv2T implements T.INV.2T(probability, deg_freedom), the two-tailed
// inverse (anchor: T.INV.2T(0.05,10) ~= 2.228138852), related to T.INV by
// T.INV.2T(p,df) = T.INV(1-p/2,df).
func fnTInv2T(c *Context, args []parser.Node) Value {
	p := c.ToNumber(c.Eval(args[0]))
	if p.IsError() {
		return p
	}
	df := c.ToNumber(c.Eval(args[1]))
	if df.IsError() {
		return df
	}
	if p.Number <= 0 || p.Number >= 1 {
		return c.errHere(parser.ErrNum, "T.INV.2T: probability must be in (0,1)")
	}
	return Num(studentTInv(1-p.Number/2, df.Number))
}
