// Package parser turns a lexer.Token stream into the AST described in
// spec.md §3, resolving sheet qualifiers and structured references
// relative to a host cell. It depends only on package lexer and funcset;
// package model depends on parser (to store parsed ASTs), not the other
// way around.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is the common AST interface. Eval lives in package eval (which
// type-switches on the concrete node types below) rather than on the
// interface itself, so that parser has no evaluation-time dependencies
// and AST construction stays a pure syntactic step.
type Node interface {
	// Stringify renders the node back to formula text relative to a host
	// cell, used for canonical-formula dedup, round-tripping, and the
	// reference rewriter.
	Stringify(ctx RenderContext) string
}

// RenderContext supplies what Stringify needs to turn relative offsets
// back into absolute text and sheet-qualify references that cross sheets.
type RenderContext struct {
	HostSheet int
	HostRow   int // 0-based
	HostCol   int // 0-based
	SheetName func(index int) string
	Mode      int // 0 = A1, 1 = R1C1; mirrors lexer.Mode without importing it
}

func quoteSheetIfNeeded(name string) string {
	needsQuote := false
	for _, r := range name {
		switch r {
		case ' ', '(', ')', '\'', '$', ',', ';', '-', '+', '{', '}':
			needsQuote = true
		}
	}
	if !needsQuote {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// --- literals ---

type NumberNode struct{ Value float64 }

func (n *NumberNode) Stringify(RenderContext) string {
	if n.Value == float64(int64(n.Value)) && n.Value < 1e15 && n.Value > -1e15 {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type StringNode struct{ Value string }

func (n *StringNode) Stringify(RenderContext) string {
	return `"` + strings.ReplaceAll(n.Value, `"`, `""`) + `"`
}

type BooleanNode struct{ Value bool }

func (n *BooleanNode) Stringify(RenderContext) string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// ErrorKind is the canonical short alphabet from spec.md §7.
type ErrorKind string

const (
	ErrRef    ErrorKind = "REF"
	ErrName   ErrorKind = "NAME"
	ErrValue  ErrorKind = "VALUE"
	ErrDiv    ErrorKind = "DIV"
	ErrNum    ErrorKind = "NUM"
	ErrNA     ErrorKind = "N/A"
	ErrNull   ErrorKind = "NULL"
	ErrError  ErrorKind = "ERROR"
	ErrNImpl  ErrorKind = "N/IMPL"
	ErrCirc   ErrorKind = "CIRC"
	ErrSpill  ErrorKind = "SPILL"
	ErrCalc   ErrorKind = "CALC"
)

var errorShortNames = map[ErrorKind]string{
	ErrRef: "#REF!", ErrName: "#NAME?", ErrValue: "#VALUE!", ErrDiv: "#DIV/0!",
	ErrNum: "#NUM!", ErrNA: "#N/A", ErrNull: "#NULL!", ErrError: "#ERROR!",
	ErrNImpl: "#N/IMPL!", ErrCirc: "#CIRC!", ErrSpill: "#SPILL!", ErrCalc: "#CALC!",
}

type ErrorNode struct {
	Kind    ErrorKind
	Message string
}

func (n *ErrorNode) Stringify(RenderContext) string {
	if name, ok := errorShortNames[n.Kind]; ok {
		return name
	}
	return "#ERROR!"
}

// EmptyArgNode represents an omitted function argument, e.g. the missing
// middle argument of IF(A1,,B1).
type EmptyArgNode struct{}

func (n *EmptyArgNode) Stringify(RenderContext) string { return "" }

// --- references ---

// ReferenceNode is a single-cell reference. When a coordinate is relative
// (not absolute), it is stored as a displacement from the host cell so
// the same AST can be reused after displacement (spec.md §3, §4.2).
type ReferenceNode struct {
	SheetIndex      int
	SheetExplicit   bool // true if the user wrote an explicit sheet qualifier
	AbsoluteRow     bool
	AbsoluteCol     bool
	Row             int // absolute 0-based row if AbsoluteRow, else signed offset from host
	Col             int // absolute 0-based col if AbsoluteCol, else signed offset from host
}

// Absolute resolves the node's (possibly host-relative) coordinates to
// absolute 0-based row/col, the step package eval needs before it can
// look a reference up in the workbook.
func (n *ReferenceNode) Absolute(ctx RenderContext) (row, col int) {
	row = n.Row
	if !n.AbsoluteRow {
		row = ctx.HostRow + n.Row
	}
	col = n.Col
	if !n.AbsoluteCol {
		col = ctx.HostCol + n.Col
	}
	return
}

func (n *ReferenceNode) Stringify(ctx RenderContext) string {
	row, col := n.Absolute(ctx)
	body := formatA1(row, col, n.AbsoluteRow, n.AbsoluteCol)
	if n.SheetExplicit && ctx.SheetName != nil {
		return quoteSheetIfNeeded(ctx.SheetName(n.SheetIndex)) + "!" + body
	}
	return body
}

// RangeNode is a two-endpoint range reference.
type RangeNode struct {
	SheetIndex    int
	SheetExplicit bool
	Left, Right   ReferenceNode
}

func (n *RangeNode) Stringify(ctx RenderContext) string {
	lr, lc := n.Left.Absolute(ctx)
	rr, rc := n.Right.Absolute(ctx)
	left := formatA1(lr, lc, n.Left.AbsoluteRow, n.Left.AbsoluteCol)
	right := formatA1(rr, rc, n.Right.AbsoluteRow, n.Right.AbsoluteCol)
	body := left + ":" + right
	if n.SheetExplicit && ctx.SheetName != nil {
		return quoteSheetIfNeeded(ctx.SheetName(n.SheetIndex)) + "!" + body
	}
	return body
}

func formatA1(row, col int, absRow, absCol bool) string {
	var b strings.Builder
	if absCol {
		b.WriteByte('$')
	}
	b.WriteString(columnLetters(col + 1))
	if absRow {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(row + 1))
	return b.String()
}

// columnLetters converts a 1-based column number to its A1 letters.
func columnLetters(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// ColumnNumber converts A1 column letters (any case) to a 1-based column
// number, or (0, false) if c is out of the 1..16384 range.
func ColumnNumber(letters string) (int, bool) {
	n := 0
	for _, r := range letters {
		switch {
		case r >= 'A' && r <= 'Z':
			n = n*26 + int(r-'A'+1)
		case r >= 'a' && r <= 'z':
			n = n*26 + int(r-'a'+1)
		default:
			return 0, false
		}
		if n > 16384 {
			return 0, false
		}
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

// --- arrays ---

type ArrayLeaf struct {
	Kind  ArrayLeafKind
	Num   float64
	Str   string
	Bool  bool
	Error ErrorKind
}

type ArrayLeafKind uint8

const (
	ArrayLeafNumber ArrayLeafKind = iota
	ArrayLeafString
	ArrayLeafBoolean
	ArrayLeafError
)

type ArrayNode struct {
	Rows [][]ArrayLeaf
}

func (n *ArrayNode) Stringify(ctx RenderContext) string {
	rows := make([]string, len(n.Rows))
	for i, row := range n.Rows {
		cells := make([]string, len(row))
		for j, leaf := range row {
			cells[j] = stringifyLeaf(leaf)
		}
		rows[i] = strings.Join(cells, ",")
	}
	return "{" + strings.Join(rows, ";") + "}"
}

func stringifyLeaf(l ArrayLeaf) string {
	switch l.Kind {
	case ArrayLeafNumber:
		return (&NumberNode{Value: l.Num}).Stringify(RenderContext{})
	case ArrayLeafString:
		return (&StringNode{Value: l.Str}).Stringify(RenderContext{})
	case ArrayLeafBoolean:
		return (&BooleanNode{Value: l.Bool}).Stringify(RenderContext{})
	case ArrayLeafError:
		return (&ErrorNode{Kind: l.Error}).Stringify(RenderContext{})
	}
	return ""
}

// --- operators ---

type UnaryOp uint8

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryPercent
)

type UnaryNode struct {
	Op    UnaryOp
	Child Node
}

func (n *UnaryNode) Stringify(ctx RenderContext) string {
	switch n.Op {
	case UnaryPlus:
		return "+" + n.Child.Stringify(ctx)
	case UnaryMinus:
		return "-" + n.Child.Stringify(ctx)
	case UnaryPercent:
		return n.Child.Stringify(ctx) + "%"
	}
	return ""
}

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpUnion
	OpIntersect
)

var binaryOpText = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^", OpConcat: "&",
	OpEq: "=", OpNe: "<>", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpUnion: ",", OpIntersect: " ",
}

type BinaryNode struct {
	Op          BinaryOp
	Left, Right Node
}

func (n *BinaryNode) Stringify(ctx RenderContext) string {
	return n.Left.Stringify(ctx) + binaryOpText[n.Op] + n.Right.Stringify(ctx)
}

// --- functions ---

type FunctionNode struct {
	Name string // canonical, uppercased
	Args []Node
}

func (n *FunctionNode) Stringify(ctx RenderContext) string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Stringify(ctx)
	}
	return n.Name + "(" + strings.Join(parts, ",") + ")"
}

// InvalidFunctionNode is emitted when an identifier is used as a call
// (followed by '(') but is not a known function, named range, or table;
// it evaluates to #NAME?.
type InvalidFunctionNode struct {
	Name string
	Args []Node
}

func (n *InvalidFunctionNode) Stringify(ctx RenderContext) string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Stringify(ctx)
	}
	return n.Name + "(" + strings.Join(parts, ",") + ")"
}

// DefinedNameNode refers to a workbook- or sheet-scoped named formula,
// re-parsed at the host cell at evaluation time (spec.md §9).
type DefinedNameNode struct {
	Name       string
	ScopeSheet int // -1 for workbook scope
}

func (n *DefinedNameNode) Stringify(RenderContext) string { return n.Name }

// ImplicitIntersectionNode wraps a subtree that may evaluate to a Range;
// Automatic distinguishes analyzer-inserted wrapping from a literal `@`
// written by the user (spec.md §3, §4.3).
type ImplicitIntersectionNode struct {
	Automatic bool
	Child     Node
}

func (n *ImplicitIntersectionNode) Stringify(ctx RenderContext) string {
	if n.Automatic {
		return n.Child.Stringify(ctx)
	}
	return "@" + n.Child.Stringify(ctx)
}

// TableReferenceNode is transient: the parser rewrites it to a
// RangeNode/ReferenceNode before returning the AST (spec.md §4.2, §9), so
// it should not normally appear in a finished tree. It is kept as a type
// so tests can exercise the rewrite step directly.
type TableReferenceNode struct {
	Table      string
	Specifier  string
	ColumnRef  string
}

func (n *TableReferenceNode) Stringify(RenderContext) string {
	spec := n.Specifier
	col := n.ColumnRef
	switch {
	case spec != "" && col != "":
		return fmt.Sprintf("%s[[%s],[%s]]", n.Table, spec, col)
	case spec != "":
		return fmt.Sprintf("%s[%s]", n.Table, spec)
	case col != "":
		return fmt.Sprintf("%s[%s]", n.Table, col)
	default:
		return n.Table + "[]"
	}
}
