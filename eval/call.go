package eval

import (
	"github.com/vogtb/sheetcore/funcset"
	"github.com/vogtb/sheetcore/parser"
)

// fn is the signature every built-in function implementation has: it
// receives the unevaluated argument nodes (so it can decide how to
// coerce/flatten each one, per spec.md §4.4.4's per-argument coercion
// rule) and the calling context.
type fn func(c *Context, args []parser.Node) Value

// callFunction dispatches a canonical function name to its
// implementation (spec.md §4.4 step 4's Function(kind, args) case).
// Functions present in funcset but without a Go implementation here
// return #N/IMPL! rather than panicking, per the error taxonomy in
// spec.md §7.
func (c *Context) callFunction(name string, args []parser.Node) Value {
	sig, ok := funcset.Lookup(name)
	if !ok {
		return c.errHere(parser.ErrName, "unknown function: "+name)
	}
	if len(args) < sig.MinArgs || (sig.MaxArgs >= 0 && len(args) > sig.MaxArgs) {
		return c.errHere(parser.ErrError, "wrong number of arguments to "+name)
	}
	impl, ok := builtins[name]
	if !ok {
		return c.errHere(parser.ErrNImpl, name+" is not implemented")
	}
	return impl(c, args)
}

// builtins is populated by register() calls in each functions_*.go file's
// init(), grouped by category the way spec.md §4.4.4 groups the library.
var builtins = map[string]fn{}

func register(name string, f fn) { builtins[name] = f }

// --- shared argument helpers ---

// evalAll evaluates every argument node, short-circuiting on the first
// error the way arithmetic and most functions propagate errors (spec.md
// §7).
func (c *Context) evalAll(args []parser.Node) ([]Value, Value) {
	out := make([]Value, len(args))
	for i, a := range args {
		v := c.Eval(a)
		if v.IsError() {
			return out, v
		}
		out[i] = v
	}
	return out, Value{}
}

// numbersFromRangeArgs evaluates and flattens every argument to a list of numbers,
// skipping text/boolean/empty leaves the way SUM/AVERAGE/COUNT family
// functions do for range arguments while still requiring a directly
// supplied scalar string/boolean to coerce (Excel's "ignore non-numeric
// cells in ranges, but error on the literal you typed" rule).
func (c *Context) numbersFromRangeArgs(args []parser.Node) ([]float64, Value) {
	var out []float64
	for _, a := range args {
		v := c.Eval(a)
		if v.IsError() {
			return nil, v
		}
		if v.Kind == KindRange || v.Kind == KindArray {
			for _, leaf := range c.flattenToValues(v) {
				if leaf.IsError() {
					return nil, leaf
				}
				if leaf.Kind == KindNumber {
					out = append(out, leaf.Number)
				}
				// strings/booleans/empties inside ranges are ignored.
			}
			continue
		}
		n := c.ToNumber(v)
		if n.IsError() {
			return nil, n
		}
		out = append(out, n.Number)
	}
	return out, Value{}
}

// numbersStrict is like numbersFromRangeArgs but also counts booleans
// found inside ranges (TRUE as 1, FALSE as 0); text inside ranges is
// still skipped. Used by the handful of functions that need every cell's
// coerced numeric value rather than a numeric-only filter.
func (c *Context) numbersStrict(args []parser.Node) ([]float64, Value) {
	var out []float64
	for _, a := range args {
		v := c.Eval(a)
		if v.IsError() {
			return nil, v
		}
		if v.Kind == KindRange || v.Kind == KindArray {
			for _, leaf := range c.flattenToValues(v) {
				if leaf.IsError() {
					return nil, leaf
				}
				if leaf.Kind == KindNumber {
					out = append(out, leaf.Number)
				} else if leaf.Kind == KindBoolean {
					if leaf.Boolean {
						out = append(out, 1)
					} else {
						out = append(out, 0)
					}
				}
			}
			continue
		}
		n := c.ToNumber(v)
		if n.IsError() {
			return nil, n
		}
		out = append(out, n.Number)
	}
	return out, Value{}
}
