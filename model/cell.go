// Package model holds the workbook-level data structures from spec.md
// §3: cell encoding, the shared-string and style pools, the parsed-
// formula pool, defined names, and the table catalog. It depends on
// package parser (to store ASTs) but nothing evaluates here; package
// eval walks these structures to compute and write back values.
package model

import "github.com/vogtb/sheetcore/parser"

// CellKind is the on-sheet storage discriminant from spec.md §3. A
// formula cell's discriminant changes as its cached result's kind
// changes, mirroring FormulaNumber/FormulaString/... in the spec.
type CellKind uint8

const (
	KindEmpty CellKind = iota
	KindNumber
	KindBoolean
	KindError
	KindSharedString
	KindFormula        // not yet evaluated this pass
	KindFormulaNumber
	KindFormulaString
	KindFormulaBoolean
	KindFormulaError
)

// Cell is one worksheet slot. Only the fields relevant to Kind are
// meaningful; the rest are zero. QuotePrefix marks "quote-prefix" text
// entered as '123 (spec.md §4.6, §9).
type Cell struct {
	Kind         CellKind
	Number       float64
	Boolean      bool
	ErrorKind    parser.ErrorKind
	StringIndex  uint32
	FormulaIndex uint32
	StyleIndex   uint32
	QuotePrefix  bool
}

// IsEmpty reports whether the cell has no content at all (distinct from
// a cell holding the empty string).
func (c *Cell) IsEmpty() bool {
	return c == nil || c.Kind == KindEmpty
}

// IsFormula reports whether the cell's storage is formula-backed,
// regardless of whether it has a cached result yet.
func (c *Cell) IsFormula() bool {
	switch c.Kind {
	case KindFormula, KindFormulaNumber, KindFormulaString, KindFormulaBoolean, KindFormulaError:
		return true
	}
	return false
}

// CellAddress identifies a cell across the whole workbook.
type CellAddress struct {
	Sheet int
	Row   int
	Col   int
}

// CellType is the external, user-facing type reported by the workbook
// API (spec.md §6): one of Number, Text, LogicalValue, ErrorValue. Empty
// cells report Number's zero-value-equivalent per the host convention;
// callers distinguish emptiness via IsEmpty on the Cell itself.
type CellType uint8

const (
	CellTypeNumber CellType = iota
	CellTypeText
	CellTypeLogicalValue
	CellTypeErrorValue
)
