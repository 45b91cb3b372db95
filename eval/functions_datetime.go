package eval

import (
	"math"
	"time"

	"github.com/vogtb/sheetcore/parser"
)

func init() {
	register("DATE", fnDate)
	register("YEAR", fnYear)
	register("MONTH", fnMonth)
	register("DAY", fnDay)
	register("WEEKDAY", fnWeekday)
	register("NOW", fnNow)
	register("TODAY", fnToday)
	register("EDATE", fnEdate)
	register("DATEDIF", fnDatedif)
}

// excelEpoch is December 30, 1899 — serial day 0 under the classic
// Lotus-compatible 1900 date system Excel and this engine both use.
// Serial 60 is the non-existent February 29, 1900 the 1900 system
// deliberately reproduces for file-format compatibility.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func dateToSerial(y, m, d int) float64 {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	days := t.Sub(excelEpoch).Hours() / 24
	serial := math.Round(days)
	if serial < 61 {
		serial-- // before March 1 1900 serials sit one lower: 1 is Jan 1 1900, 60 the fictitious Feb 29
	}
	return serial
}

func serialToDate(serial float64) time.Time {
	if serial < 61 {
		serial++ // undo dateToSerial's shift; serial 60 has no real date and lands on March 1 1900
	}
	return excelEpoch.AddDate(0, 0, int(serial))
}

func fnDate(c *Context, args []parser.Node) Value {
	y := c.ToNumber(c.Eval(args[0]))
	if y.IsError() {
		return y
	}
	m := c.ToNumber(c.Eval(args[1]))
	if m.IsError() {
		return m
	}
	d := c.ToNumber(c.Eval(args[2]))
	if d.IsError() {
		return d
	}
	year := int(y.Number)
	if year < 1900 {
		year += 1900
	}
	return Num(dateToSerial(year, int(m.Number), int(d.Number)))
}

func fnYear(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	return Num(float64(serialToDate(n.Number).Year()))
}

func fnMonth(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	return Num(float64(serialToDate(n.Number).Month()))
}

func fnDay(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	return Num(float64(serialToDate(n.Number).Day()))
}

func fnWeekday(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	returnType := 1.0
	if len(args) == 2 {
		rt := c.ToNumber(c.Eval(args[1]))
		if rt.IsError() {
			return rt
		}
		returnType = rt.Number
	}
	wd := int(serialToDate(n.Number).Weekday()) // Sunday = 0
	switch returnType {
	case 1:
		return Num(float64(wd + 1))
	case 2:
		return Num(float64((wd+6)%7 + 1))
	case 3:
		return Num(float64((wd + 6) % 7))
	default:
		return c.errHere(parser.ErrNum, "WEEKDAY: unsupported return type")
	}
}

func fnNow(c *Context, args []parser.Node) Value {
	now := time.Now().UTC()
	days := now.Sub(excelEpoch).Hours() / 24
	return Num(days)
}

func fnToday(c *Context, args []parser.Node) Value {
	now := time.Now().UTC()
	y, m, d := now.Date()
	return Num(dateToSerial(y, int(m), d))
}

func fnEdate(c *Context, args []parser.Node) Value {
	n := c.ToNumber(c.Eval(args[0]))
	if n.IsError() {
		return n
	}
	months := c.ToNumber(c.Eval(args[1]))
	if months.IsError() {
		return months
	}
	t := serialToDate(n.Number).AddDate(0, int(months.Number), 0)
	return Num(dateToSerial(t.Year(), int(t.Month()), t.Day()))
}

func fnDatedif(c *Context, args []parser.Node) Value {
	start := c.ToNumber(c.Eval(args[0]))
	if start.IsError() {
		return start
	}
	end := c.ToNumber(c.Eval(args[1]))
	if end.IsError() {
		return end
	}
	unit := c.ToString(c.Eval(args[2]))
	if unit.IsError() {
		return unit
	}
	if end.Number < start.Number {
		return c.errHere(parser.ErrNum, "DATEDIF: end date before start date")
	}
	s, e := serialToDate(start.Number), serialToDate(end.Number)
	switch unit.Str {
	case "d", "D":
		return Num(end.Number - start.Number)
	case "y", "Y":
		years := e.Year() - s.Year()
		if e.Month() < s.Month() || (e.Month() == s.Month() && e.Day() < s.Day()) {
			years--
		}
		return Num(float64(years))
	case "m", "M":
		months := (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month())
		if e.Day() < s.Day() {
			months--
		}
		return Num(float64(months))
	default:
		return c.errHere(parser.ErrNum, "DATEDIF: unsupported unit "+unit.Str)
	}
}
