package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/parser"
)

// buildChain wires A1 <- A2 <- A3, each formula referencing the
// previous cell directly above it in the same column.
func buildChain(t *testing.T) *model.Workbook {
	t.Helper()
	wb := model.New()
	ws := wb.Sheets[0]
	ws.SetCell(0, 0, &model.Cell{Kind: model.KindNumber, Number: 1})

	refTo := func(row int) parser.Node {
		return &parser.ReferenceNode{SheetIndex: 0, Row: row, Col: 0, AbsoluteRow: true, AbsoluteCol: true}
	}
	b1 := refTo(0)
	idx := wb.Formulas.Intern(b1, "A1")
	ws.SetCell(1, 0, &model.Cell{Kind: model.KindFormula, FormulaIndex: idx})

	c1 := refTo(1)
	idx2 := wb.Formulas.Intern(c1, "A2")
	ws.SetCell(2, 0, &model.Cell{Kind: model.KindFormula, FormulaIndex: idx2})

	return wb
}

func TestBuildDependencyGraphDirectPrecedentsAndDependents(t *testing.T) {
	wb := buildChain(t)
	g := BuildDependencyGraph(wb)

	a1 := model.CellAddress{Sheet: 0, Row: 0, Col: 0}
	b1 := model.CellAddress{Sheet: 0, Row: 1, Col: 0}
	c1 := model.CellAddress{Sheet: 0, Row: 2, Col: 0}

	assert.ElementsMatch(t, []model.CellAddress{a1}, g.DirectPrecedents(b1))
	assert.ElementsMatch(t, []model.CellAddress{b1}, g.DirectPrecedents(c1))
	assert.Empty(t, g.DirectPrecedents(a1))

	assert.ElementsMatch(t, []model.CellAddress{b1}, g.DirectDependents(a1))
	assert.ElementsMatch(t, []model.CellAddress{c1}, g.DirectDependents(b1))
}

func TestBuildDependencyGraphAllDependentsIsTransitive(t *testing.T) {
	wb := buildChain(t)
	g := BuildDependencyGraph(wb)
	a1 := model.CellAddress{Sheet: 0, Row: 0, Col: 0}
	b1 := model.CellAddress{Sheet: 0, Row: 1, Col: 0}
	c1 := model.CellAddress{Sheet: 0, Row: 2, Col: 0}

	require.ElementsMatch(t, []model.CellAddress{b1, c1}, g.AllDependents(a1))
}

func TestBuildDependencyGraphHasCycleFalseForAcyclicChain(t *testing.T) {
	wb := buildChain(t)
	g := BuildDependencyGraph(wb)
	assert.False(t, g.HasCycle())
}

func TestBuildDependencyGraphHasCycleTrueForSelfReference(t *testing.T) {
	wb := model.New()
	ws := wb.Sheets[0]
	self := &parser.ReferenceNode{SheetIndex: 0, Row: 0, Col: 0, AbsoluteRow: true, AbsoluteCol: true}
	idx := wb.Formulas.Intern(self, "A1")
	ws.SetCell(0, 0, &model.Cell{Kind: model.KindFormula, FormulaIndex: idx})

	g := BuildDependencyGraph(wb)
	assert.True(t, g.HasCycle())
}
