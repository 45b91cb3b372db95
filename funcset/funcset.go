// Package funcset is the flat registry of canonical function identifiers
// shared by the parser, the static analyzer, and the evaluator. Per
// spec.md §9 ("prefer a flat FunctionKind sum type... do not allow
// runtime registration"), the function set is fixed at compile time: this
// package is populated by init() and never mutated afterward. Splitting
// it out of package eval (which holds the actual Go implementations)
// avoids an import cycle, since both the parser and the analyzer need to
// know the function set without depending on how functions are evaluated.
package funcset

import "strings"

// ArgKind controls whether the static analyzer (spec.md §4.3) wraps a
// given argument position in an automatic ImplicitIntersection.
type ArgKind uint8

const (
	// Scalar arguments are wrapped in automatic implicit intersection
	// when fed a range or an array-valued expression.
	Scalar ArgKind = iota
	// ArrayAware arguments are passed ranges/arrays unchanged.
	ArrayAware
)

// Signature describes one function's arity and per-argument kind.
type Signature struct {
	Name     string
	MinArgs  int
	MaxArgs  int // -1 means unbounded
	ArgKinds []ArgKind // kind of the Nth fixed argument; args beyond len(ArgKinds) reuse the last entry (or Scalar if empty)
}

// ArgKindAt returns the implicit-intersection kind for the nth (0-based)
// argument of a function, applying the repeat-last-kind rule for variadic
// tails.
func (s Signature) ArgKindAt(n int) ArgKind {
	if len(s.ArgKinds) == 0 {
		return Scalar
	}
	if n < len(s.ArgKinds) {
		return s.ArgKinds[n]
	}
	return s.ArgKinds[len(s.ArgKinds)-1]
}

var registry = map[string]Signature{}

func reg(name string, min, max int, kinds ...ArgKind) {
	registry[name] = Signature{Name: name, MinArgs: min, MaxArgs: max, ArgKinds: kinds}
}

// Lookup returns the signature for a canonical (already uppercased)
// function name.
func Lookup(name string) (Signature, bool) {
	s, ok := registry[strings.ToUpper(name)]
	return s, ok
}

// Names returns every registered canonical function name, used to seed
// package locale's identifier table.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

func init() {
	s, a := Scalar, ArrayAware

	// --- math / trig: mostly array-aware aggregates, scalar-only unary fns ---
	reg("SUM", 1, -1, a)
	reg("SUMIF", 2, 3, a, a, a)
	reg("SUMIFS", 3, -1, a)
	reg("SUMPRODUCT", 1, -1, a)
	reg("SUMSQ", 1, -1, a)
	reg("PRODUCT", 1, -1, a)
	reg("ABS", 1, 1, s)
	reg("SIGN", 1, 1, s)
	reg("SQRT", 1, 1, s)
	reg("SQRTPI", 1, 1, s)
	reg("POWER", 2, 2, s, s)
	reg("EXP", 1, 1, s)
	reg("LN", 1, 1, s)
	reg("LOG", 1, 2, s, s)
	reg("LOG10", 1, 1, s)
	reg("MOD", 2, 2, s, s)
	reg("QUOTIENT", 2, 2, s, s)
	reg("INT", 1, 1, s)
	reg("TRUNC", 1, 2, s, s)
	reg("ROUND", 2, 2, s, s)
	reg("ROUNDUP", 2, 2, s, s)
	reg("ROUNDDOWN", 2, 2, s, s)
	reg("FLOOR", 2, 2, s, s)
	reg("FLOOR.PRECISE", 1, 2, s, s)
	reg("CEILING", 2, 2, s, s)
	reg("CEILING.PRECISE", 1, 2, s, s)
	reg("MROUND", 2, 2, s, s)
	reg("GCD", 1, -1, a)
	reg("LCM", 1, -1, a)
	reg("FACT", 1, 1, s)
	reg("FACTDOUBLE", 1, 1, s)
	reg("COMBIN", 2, 2, s, s)
	reg("PERMUT", 2, 2, s, s)
	reg("PI", 0, 0)
	reg("RAND", 0, 0)
	reg("RANDBETWEEN", 2, 2, s, s)
	reg("SIN", 1, 1, s)
	reg("COS", 1, 1, s)
	reg("TAN", 1, 1, s)
	reg("ASIN", 1, 1, s)
	reg("ACOS", 1, 1, s)
	reg("ATAN", 1, 1, s)
	reg("ATAN2", 2, 2, s, s)
	reg("SINH", 1, 1, s)
	reg("COSH", 1, 1, s)
	reg("TANH", 1, 1, s)
	reg("DEGREES", 1, 1, s)
	reg("RADIANS", 1, 1, s)
	reg("ROMAN", 1, 2, s, s)
	reg("ARABIC", 1, 1, s)

	// --- statistical ---
	reg("AVERAGE", 1, -1, a)
	reg("AVERAGEA", 1, -1, a)
	reg("AVERAGEIF", 2, 3, a, a, a)
	reg("AVERAGEIFS", 3, -1, a)
	reg("COUNT", 1, -1, a)
	reg("COUNTA", 1, -1, a)
	reg("COUNTBLANK", 1, 1, a)
	reg("COUNTIF", 2, 2, a, a)
	reg("COUNTIFS", 2, -1, a)
	reg("MAX", 1, -1, a)
	reg("MAXA", 1, -1, a)
	reg("MIN", 1, -1, a)
	reg("MINA", 1, -1, a)
	reg("MEDIAN", 1, -1, a)
	reg("MODE.SNGL", 1, -1, a)
	reg("STDEV.S", 1, -1, a)
	reg("STDEV.P", 1, -1, a)
	reg("VAR.S", 1, -1, a)
	reg("VAR.P", 1, -1, a)
	reg("LARGE", 2, 2, a, s)
	reg("SMALL", 2, 2, a, s)
	reg("RANK.EQ", 2, 3, s, a, s)
	reg("RANK.AVG", 2, 3, s, a, s)
	reg("QUARTILE.INC", 2, 2, a, s)
	reg("QUARTILE.EXC", 2, 2, a, s)
	reg("PERCENTILE.INC", 2, 2, a, s)
	reg("PERCENTILE.EXC", 2, 2, a, s)
	reg("PERCENTRANK.INC", 2, 3, a, s, s)
	reg("PERCENTRANK.EXC", 2, 3, a, s, s)
	reg("PEARSON", 2, 2, a, a)
	reg("RSQ", 2, 2, a, a)
	reg("SLOPE", 2, 2, a, a)
	reg("INTERCEPT", 2, 2, a, a)
	reg("STEYX", 2, 2, a, a)
	reg("CORREL", 2, 2, a, a)
	reg("DEVSQ", 1, -1, a)
	reg("GEOMEAN", 1, -1, a)
	reg("HARMEAN", 1, -1, a)
	reg("TRIMMEAN", 2, 2, a, s)
	reg("SKEW", 1, -1, a)
	reg("KURT", 1, -1, a)
	reg("BETA.DIST", 4, 6, s)
	reg("BETA.INV", 3, 5, s)
	reg("CHISQ.DIST", 3, 3, s, s, s)
	reg("CHISQ.INV", 2, 2, s, s)
	reg("CHISQ.TEST", 2, 2, a, a)
	reg("T.DIST", 3, 3, s, s, s)
	reg("T.INV", 2, 2, s, s)
	reg("T.INV.2T", 2, 2, s, s)
	reg("F.DIST", 4, 4, s, s, s, s)
	reg("F.INV", 3, 3, s, s, s)
	reg("GAMMA.DIST", 4, 4, s, s, s, s)
	reg("GAMMA.INV", 3, 3, s, s, s)
	reg("GAMMALN", 1, 1, s)
	reg("HYPGEOM.DIST", 5, 5, s)
	reg("LOGNORM.DIST", 4, 4, s)
	reg("LOGNORM.INV", 3, 3, s)
	reg("WEIBULL.DIST", 4, 4, s)
	reg("POISSON.DIST", 3, 3, s)
	reg("NORM.DIST", 4, 4, s)
	reg("NORM.INV", 3, 3, s)
	reg("NORM.S.DIST", 2, 2, s)
	reg("NORM.S.INV", 1, 1, s)
	reg("CONFIDENCE.NORM", 3, 3, s)
	reg("CONFIDENCE.T", 3, 3, s)
	reg("FISHER", 1, 1, s)
	reg("FISHERINV", 1, 1, s)
	reg("BINOM.DIST", 4, 4, s)
	reg("EXPON.DIST", 3, 3, s)
	reg("Z.TEST", 2, 3, a, s, s)

	// --- engineering ---
	reg("BESSELJ", 2, 2, s, s)
	reg("BESSELY", 2, 2, s, s)
	reg("BESSELI", 2, 2, s, s)
	reg("BESSELK", 2, 2, s, s)
	reg("BITAND", 2, 2, s, s)
	reg("BITOR", 2, 2, s, s)
	reg("BITXOR", 2, 2, s, s)
	reg("BITLSHIFT", 2, 2, s, s)
	reg("BITRSHIFT", 2, 2, s, s)
	reg("ERF", 1, 2, s, s)
	reg("ERFC", 1, 1, s)
	reg("DELTA", 1, 2, s, s)
	reg("GESTEP", 1, 2, s, s)
	reg("CONVERT", 3, 3, s, s, s)
	reg("COMPLEX", 2, 3, s, s, s)
	reg("IMREAL", 1, 1, s)
	reg("IMAGINARY", 1, 1, s)
	reg("IMABS", 1, 1, s)
	reg("IMSUM", 1, -1, s)
	reg("IMSUB", 2, 2, s, s)
	reg("IMPRODUCT", 1, -1, s)
	reg("IMDIV", 2, 2, s, s)
	reg("IMCONJUGATE", 1, 1, s)
	reg("DEC2BIN", 1, 2, s, s)
	reg("DEC2HEX", 1, 2, s, s)
	reg("DEC2OCT", 1, 2, s, s)
	reg("BIN2DEC", 1, 1, s)
	reg("HEX2DEC", 1, 1, s)
	reg("OCT2DEC", 1, 1, s)

	// --- financial ---
	reg("PV", 3, 5, s)
	reg("FV", 3, 5, s)
	reg("PMT", 3, 5, s)
	reg("NPER", 3, 5, s)
	reg("RATE", 3, 6, s)
	reg("NPV", 2, -1, s, a)
	reg("IRR", 1, 2, a, s)
	reg("XNPV", 3, 3, s, a, a)
	reg("XIRR", 2, 3, a, a, s)
	reg("SLN", 3, 3, s, s, s)
	reg("SYD", 4, 4, s, s, s, s)
	reg("DDB", 4, 5, s)
	reg("ACCRINT", 6, 8, s)
	reg("ACCRINTM", 4, 5, s)
	reg("FVSCHEDULE", 2, 2, s, a)
	reg("COUPDAYS", 3, 4, s, s, s, s)
	reg("COUPDAYSNC", 3, 4, s, s, s, s)
	reg("COUPDAYBS", 3, 4, s, s, s, s)
	reg("COUPNUM", 3, 4, s, s, s, s)
	reg("COUPPCD", 3, 4, s, s, s, s)
	reg("COUPNCD", 3, 4, s, s, s, s)

	// --- text ---
	reg("CONCATENATE", 1, -1, s)
	reg("CONCAT", 1, -1, a)
	reg("TEXTJOIN", 3, -1, s, s, a)
	reg("LEN", 1, 1, s)
	reg("UPPER", 1, 1, s)
	reg("LOWER", 1, 1, s)
	reg("PROPER", 1, 1, s)
	reg("TRIM", 1, 1, s)
	reg("LEFT", 1, 2, s, s)
	reg("RIGHT", 1, 2, s, s)
	reg("MID", 3, 3, s, s, s)
	reg("FIND", 2, 3, s, s, s)
	reg("SEARCH", 2, 3, s, s, s)
	reg("SUBSTITUTE", 3, 4, s, s, s, s)
	reg("REPLACE", 4, 4, s, s, s, s)
	reg("REPT", 2, 2, s, s)
	reg("CHAR", 1, 1, s)
	reg("CODE", 1, 1, s)
	reg("UNICHAR", 1, 1, s)
	reg("UNICODE", 1, 1, s)
	reg("VALUE", 1, 1, s)
	reg("TEXT", 2, 2, s, s)
	reg("EXACT", 2, 2, s, s)
	reg("T", 1, 1, s)
	reg("CLEAN", 1, 1, s)
	reg("NUMBERVALUE", 1, 3, s)
	reg("DOLLAR", 1, 2, s, s)
	reg("FIXED", 1, 3, s)

	// --- date/time ---
	reg("DATE", 3, 3, s, s, s)
	reg("TIME", 3, 3, s, s, s)
	reg("DATEVALUE", 1, 1, s)
	reg("TIMEVALUE", 1, 1, s)
	reg("YEAR", 1, 1, s)
	reg("MONTH", 1, 1, s)
	reg("DAY", 1, 1, s)
	reg("HOUR", 1, 1, s)
	reg("MINUTE", 1, 1, s)
	reg("SECOND", 1, 1, s)
	reg("WEEKDAY", 1, 2, s, s)
	reg("WEEKNUM", 1, 2, s, s)
	reg("NOW", 0, 0)
	reg("TODAY", 0, 0)
	reg("EDATE", 2, 2, s, s)
	reg("EOMONTH", 2, 2, s, s)
	reg("DATEDIF", 3, 3, s, s, s)
	reg("DAYS", 2, 2, s, s)
	reg("DAYS360", 2, 3, s, s, s)
	reg("NETWORKDAYS", 2, 3, s, s, a)
	reg("WORKDAY", 2, 3, s, s, a)
	reg("ISOWEEKNUM", 1, 1, s)
	reg("YEARFRAC", 2, 3, s, s, s)

	// --- lookup / reference ---
	reg("VLOOKUP", 3, 4, s, a, s, s)
	reg("HLOOKUP", 3, 4, s, a, s, s)
	reg("LOOKUP", 2, 3, s, a, a)
	reg("INDEX", 2, 3, a, s, s)
	reg("MATCH", 2, 3, s, a, s)
	reg("XLOOKUP", 3, 6, s, a, a)
	reg("OFFSET", 3, 5, a, s, s, s, s)
	reg("INDIRECT", 1, 2, s, s)
	reg("ROW", 0, 1, a)
	reg("ROWS", 1, 1, a)
	reg("COLUMN", 0, 1, a)
	reg("COLUMNS", 1, 1, a)
	reg("CHOOSE", 2, -1, s, a)
	reg("ADDRESS", 2, 5, s)
	reg("SORT", 1, 4, a, s, s, a)
	reg("TRANSPOSE", 1, 1, a)
	reg("UNIQUE", 1, 3, a, s, s)

	// --- information ---
	reg("ISBLANK", 1, 1, s)
	reg("ISNUMBER", 1, 1, s)
	reg("ISTEXT", 1, 1, s)
	reg("ISNONTEXT", 1, 1, s)
	reg("ISLOGICAL", 1, 1, s)
	reg("ISERROR", 1, 1, s)
	reg("ISERR", 1, 1, s)
	reg("ISNA", 1, 1, s)
	reg("ISREF", 1, 1, s)
	reg("ISFORMULA", 1, 1, s)
	reg("ISEVEN", 1, 1, s)
	reg("ISODD", 1, 1, s)
	reg("N", 1, 1, s)
	reg("NA", 0, 0)
	reg("ERROR.TYPE", 1, 1, s)
	reg("TYPE", 1, 1, s)
	reg("SHEET", 0, 1, s)
	reg("SHEETS", 0, 1, s)
	reg("FORMULATEXT", 1, 1, s)

	// --- logical ---
	reg("IF", 2, 3, s, a, a)
	reg("IFS", 2, -1, s)
	reg("IFERROR", 2, 2, a, a)
	reg("IFNA", 2, 2, a, a)
	reg("AND", 1, -1, a)
	reg("OR", 1, -1, a)
	reg("NOT", 1, 1, s)
	reg("XOR", 1, -1, a)
	reg("TRUE", 0, 0)
	reg("FALSE", 0, 0)
	reg("SWITCH", 3, -1, s)

	// --- array ---
	reg("SEQUENCE", 1, 4, s)
	reg("FREQUENCY", 2, 2, a, a)
	reg("AGGREGATE", 3, -1, s, s, a)
	reg("SUBTOTAL", 2, -1, s, a)
}
