package eval

import (
	"math"

	"github.com/vogtb/sheetcore/parser"
)

func init() {
	register("PV", fnPV)
	register("FV", fnFV)
	register("PMT", fnPMT)
	register("NPER", fnNPER)
	register("RATE", fnRATE)
	register("NPV", fnNPV)
	register("IRR", fnIRR)
	register("SLN", fnSLN)
	register("SYD", fnSYD)
	register("DDB", fnDDB)
	register("ACCRINT", fnAccrint)
	register("ACCRINTM", fnAccrintm)
	register("FVSCHEDULE", fnFvschedule)
}

func financialArgs(c *Context, args []parser.Node, n int) ([]float64, Value) {
	out := make([]float64, n)
	for i := 0; i < n && i < len(args); i++ {
		v := c.ToNumber(c.Eval(args[i]))
		if v.IsError() {
			return nil, v
		}
		out[i] = v.Number
	}
	return out, Value{}
}

// fnPV/fnFV/fnPMT/fnNPER follow the standard annuity identity
// pv*(1+rate)^nper + pmt*(1+rate*type)*((1+rate)^nper-1)/rate + fv = 0,
// solved for whichever term is missing — the same formula every
// spreadsheet's financial library implements.
func fnPV(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 5)
	if errv.IsError() {
		return errv
	}
	rate, nper, pmt, typ := a[0], a[1], a[2], a[4]
	if rate == 0 {
		return Num(-pmt*nper - a[3])
	}
	growth := math.Pow(1+rate, nper)
	pv := -(pmt*(1+rate*typ)*(growth-1)/rate + a[3]) / growth
	return Num(pv)
}

func fnFV(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 5)
	if errv.IsError() {
		return errv
	}
	rate, nper, pmt, pv, typ := a[0], a[1], a[2], a[3], a[4]
	if rate == 0 {
		return Num(-(pv + pmt*nper))
	}
	growth := math.Pow(1+rate, nper)
	fv := -(pv*growth + pmt*(1+rate*typ)*(growth-1)/rate)
	return Num(fv)
}

func fnPMT(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 5)
	if errv.IsError() {
		return errv
	}
	rate, nper, pv, fv, typ := a[0], a[1], a[2], a[3], a[4]
	if rate == 0 {
		return Num(-(pv + fv) / nper)
	}
	growth := math.Pow(1+rate, nper)
	pmt := -(pv*growth + fv) * rate / ((1 + rate*typ) * (growth - 1))
	return Num(pmt)
}

func fnNPER(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 5)
	if errv.IsError() {
		return errv
	}
	rate, pmt, pv, fv, typ := a[0], a[1], a[2], a[3], a[4]
	if rate == 0 {
		if pmt == 0 {
			return c.errHere(parser.ErrNum, "NPER: rate and payment both zero")
		}
		return Num(-(pv + fv) / pmt)
	}
	num := pmt*(1+rate*typ) - fv*rate
	den := pv*rate + pmt*(1+rate*typ)
	if num <= 0 || den <= 0 {
		return c.errHere(parser.ErrNum, "NPER: no solution for given cash flows")
	}
	return Num(math.Log(num/den) / math.Log(1+rate))
}

// fnRATE solves for rate by Newton's method against the same annuity
// identity PV/FV/PMT close over algebraically; there is no closed form.
func fnRATE(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 6)
	if errv.IsError() {
		return errv
	}
	nper, pmt, pv, fv, typ, guess := a[0], a[1], a[2], a[3], a[4], a[5]
	if len(args) < 6 || guess == 0 {
		guess = 0.1
	}
	rate := guess
	f := func(r float64) float64 {
		if r == 0 {
			return pv + pmt*nper + fv
		}
		growth := math.Pow(1+r, nper)
		return pv*growth + pmt*(1+r*typ)*(growth-1)/r + fv
	}
	for i := 0; i < 100; i++ {
		fx := f(rate)
		h := 1e-6
		deriv := (f(rate+h) - fx) / h
		if deriv == 0 {
			break
		}
		next := rate - fx/deriv
		if math.Abs(next-rate) < 1e-10 {
			rate = next
			break
		}
		rate = next
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return c.errHere(parser.ErrNum, "RATE: did not converge")
	}
	return Num(rate)
}

func fnNPV(c *Context, args []parser.Node) Value {
	rate := c.ToNumber(c.Eval(args[0]))
	if rate.IsError() {
		return rate
	}
	nums, errv := c.numbersFromRangeArgs(args[1:])
	if errv.IsError() {
		return errv
	}
	total := 0.0
	for i, v := range nums {
		total += v / math.Pow(1+rate.Number, float64(i+1))
	}
	return Num(total)
}

func fnIRR(c *Context, args []parser.Node) Value {
	values := c.Eval(args[0])
	if values.IsError() {
		return values
	}
	flows := c.flattenToValues(values)
	cash := make([]float64, 0, len(flows))
	for _, v := range flows {
		n := c.ToNumber(v)
		if n.IsError() {
			return n
		}
		cash = append(cash, n.Number)
	}
	guess := 0.1
	if len(args) == 2 {
		g := c.ToNumber(c.Eval(args[1]))
		if g.IsError() {
			return g
		}
		guess = g.Number
	}
	npv := func(r float64) float64 {
		total := 0.0
		for i, v := range cash {
			total += v / math.Pow(1+r, float64(i))
		}
		return total
	}
	rate := guess
	for i := 0; i < 100; i++ {
		fx := npv(rate)
		h := 1e-6
		deriv := (npv(rate+h) - fx) / h
		if deriv == 0 {
			break
		}
		next := rate - fx/deriv
		if math.Abs(next-rate) < 1e-10 {
			rate = next
			break
		}
		rate = next
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return c.errHere(parser.ErrNum, "IRR: did not converge")
	}
	return Num(rate)
}

func fnSLN(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 3)
	if errv.IsError() {
		return errv
	}
	cost, salvage, life := a[0], a[1], a[2]
	if life == 0 {
		return c.errHere(parser.ErrDiv, "SLN: life must be non-zero")
	}
	return Num((cost - salvage) / life)
}

func fnSYD(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 4)
	if errv.IsError() {
		return errv
	}
	cost, salvage, life, period := a[0], a[1], a[2], a[3]
	if life <= 0 {
		return c.errHere(parser.ErrNum, "SYD: life must be positive")
	}
	sumOfYears := life * (life + 1) / 2
	return Num((cost - salvage) * (life - period + 1) / sumOfYears)
}

func fnDDB(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 5)
	if errv.IsError() {
		return errv
	}
	cost, salvage, life, period, factor := a[0], a[1], a[2], a[3], a[4]
	if len(args) < 5 || factor == 0 {
		factor = 2
	}
	if life <= 0 {
		return c.errHere(parser.ErrNum, "DDB: life must be positive")
	}
	rate := factor / life
	bookValue := cost
	var depreciation float64
	for p := 1.0; p <= period; p++ {
		depreciation = bookValue * rate
		if bookValue-depreciation < salvage {
			depreciation = bookValue - salvage
		}
		bookValue -= depreciation
	}
	return Num(depreciation)
}

// days360 implements the US (NASD) 30/360 day-count convention used by
// basis 0, the convention ACCRINT's documented examples use.
func days360(y1, m1, d1, y2, m2, d2 int) int {
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}
	return (y2-y1)*360 + (m2-m1)*30 + (d2 - d1)
}

func yearFracBasis0(start, end float64) float64 {
	s, e := serialToDate(start), serialToDate(end)
	days := days360(s.Year(), int(s.Month()), s.Day(), e.Year(), int(e.Month()), e.Day())
	return float64(days) / 360
}

// fnAccrint implements the simplified ACCRINT(issue, first_interest,
// settlement, rate, par, frequency, [basis]) used by the spreadsheet
// function family: par * rate * yearfrac(issue, settlement, basis)
// (anchor: ACCRINT(39508,39691,39569,0.1,1000,2,0) ~= 16.666666667).
func fnAccrint(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 8)
	if errv.IsError() {
		return errv
	}
	issue, _, settlement, rate, par, _ := a[0], a[1], a[2], a[3], a[4], a[5]
	basis := a[6]
	if len(args) < 7 {
		basis = 0
	}
	if settlement <= issue {
		return c.errHere(parser.ErrNum, "ACCRINT: settlement must be after issue")
	}
	var frac float64
	switch int(basis) {
	case 0:
		frac = yearFracBasis0(issue, settlement)
	default:
		frac = (settlement - issue) / 365
	}
	return Num(par * rate * frac)
}

func fnAccrintm(c *Context, args []parser.Node) Value {
	a, errv := financialArgs(c, args, 5)
	if errv.IsError() {
		return errv
	}
	issue, settlement, rate, par := a[0], a[1], a[2], a[3]
	basis := a[4]
	if len(args) < 5 {
		basis = 0
	}
	if settlement <= issue {
		return c.errHere(parser.ErrNum, "ACCRINTM: settlement must be after issue")
	}
	var frac float64
	switch int(basis) {
	case 0:
		frac = yearFracBasis0(issue, settlement)
	default:
		frac = (settlement - issue) / 365
	}
	return Num(par * rate * frac)
}

// fnFvschedule compounds principal across a schedule of period rates
// (anchor: FVSCHEDULE(1000,{0.09,0.11,0.10}) = 1330.89).
func fnFvschedule(c *Context, args []parser.Node) Value {
	principal := c.ToNumber(c.Eval(args[0]))
	if principal.IsError() {
		return principal
	}
	schedule := c.Eval(args[1])
	if schedule.IsError() {
		return schedule
	}
	total := principal.Number
	for _, leaf := range c.flattenToValues(schedule) {
		r := c.ToNumber(leaf)
		if r.IsError() {
			return r
		}
		total *= 1 + r.Number
	}
	return Num(total)
}
