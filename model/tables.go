package model

import (
	"strings"

	"github.com/vogtb/sheetcore/parser"
)

// Table is a structured-reference table entry (spec.md §3, §6):
// Table1[[#Headers],[Q1]:[Q4]] resolves against whichever area the table
// currently projects to. Columns are stored in declaration order so
// offsets round-trip with parser.TableInfo.Columns.
type Table struct {
	Name           string
	SheetIndex     int
	FirstRow       int // 0-based, first row of the whole table (header, if any)
	FirstCol       int
	LastRow        int
	LastCol        int
	HeaderRowCount int
	TotalsRowCount int
	HasFilters     bool
	Columns        []string // column names in left-to-right order
}

// TableCatalog holds every table in the workbook, keyed case-insensitively.
type TableCatalog struct {
	byName map[string]*Table
}

func NewTableCatalog() *TableCatalog {
	return &TableCatalog{byName: make(map[string]*Table)}
}

func (c *TableCatalog) Add(t *Table) { c.byName[strings.ToUpper(t.Name)] = t }

func (c *TableCatalog) Remove(name string) { delete(c.byName, strings.ToUpper(name)) }

func (c *TableCatalog) Get(name string) (*Table, bool) {
	t, ok := c.byName[strings.ToUpper(name)]
	return t, ok
}

// ResolverInfo converts a Table into the parser.TableInfo the parser
// package needs to rewrite a structured reference.
func (t *Table) ResolverInfo() parser.TableInfo {
	cols := make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		cols[strings.ToUpper(name)] = i
	}
	return parser.TableInfo{
		SheetIndex: t.SheetIndex,
		FirstRow:   t.FirstRow,
		FirstCol:   t.FirstCol,
		LastRow:    t.LastRow,
		LastCol:    t.LastCol,
		HeaderRows: t.HeaderRowCount,
		TotalsRows: t.TotalsRowCount,
		Columns:    cols,
	}
}
