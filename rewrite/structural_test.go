package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/sheetcore/parser"
)

func sheetName(i int) string {
	if i == 0 {
		return "Sheet1"
	}
	return "Other"
}

func ref(row, col int, absRow, absCol bool) *parser.ReferenceNode {
	return &parser.ReferenceNode{SheetIndex: 0, Row: row, Col: col, AbsoluteRow: absRow, AbsoluteCol: absCol}
}

func TestInsertRowsColumnsFollowsReferenceThatAlsoMoved(t *testing.T) {
	// B1 holds =A1*2, host at row 0. Insert one row at index 0: both the
	// formula's own host and its A1 reference move down by one row, so
	// the rewritten formula follows its target to A2, the same
	// auto-adjustment a spreadsheet does after a row insert.
	oldCtx := parser.RenderContext{HostSheet: 0, HostRow: 0, HostCol: 1, SheetName: sheetName}
	newCtx := parser.RenderContext{HostSheet: 0, HostRow: 1, HostCol: 1, SheetName: sheetName}
	n := &parser.BinaryNode{Op: parser.OpMul, Left: ref(0, -1, false, false), Right: &parser.NumberNode{Value: 2}}

	out := InsertRowsColumns(n, oldCtx, newCtx, 0, AxisRow, 0, 1)
	require.Equal(t, "A2*2", out.Stringify(newCtx))
}

func TestInsertRowsColumnsLeavesReferenceAboveInsertionPointAlone(t *testing.T) {
	// Formula lives below the insertion point; its reference above the
	// point doesn't move, and neither does the formula's own host.
	oldCtx := parser.RenderContext{HostSheet: 0, HostRow: 5, HostCol: 1, SheetName: sheetName}
	n := &parser.ReferenceNode{SheetIndex: 0, Row: -5, Col: -1} // points at A1 relative to B6

	out := InsertRowsColumns(n, oldCtx, oldCtx, 0, AxisRow, 10, 3)
	require.Equal(t, "A1", out.Stringify(oldCtx))
}

func TestDeleteRowsColumnsTurnsReferenceIntoRefErrorWhenInsideDeletedBand(t *testing.T) {
	ctx := parser.RenderContext{HostSheet: 0, HostRow: 10, HostCol: 0, SheetName: sheetName}
	n := &parser.ReferenceNode{SheetIndex: 0, Row: -10, Col: 0} // points at A1 (absolute row 0)
	out := DeleteRowsColumns(n, ctx, ctx, 0, AxisRow, 0, 1)
	errNode, ok := out.(*parser.ErrorNode)
	require.True(t, ok)
	assert.Equal(t, parser.ErrRef, errNode.Kind)
}

func TestDeleteRowsColumnsShiftsReferenceBelowDeletedBand(t *testing.T) {
	ctx := parser.RenderContext{HostSheet: 0, HostRow: 10, HostCol: 0, SheetName: sheetName}
	n := &parser.ReferenceNode{SheetIndex: 0, Row: -5, Col: 0} // points at A6 (row 5)
	out := DeleteRowsColumns(n, ctx, ctx, 0, AxisRow, 0, 2)
	require.Equal(t, "A4", out.Stringify(ctx))
}

func TestDeleteRowsColumnsContractsRangeCornerInsideBand(t *testing.T) {
	ctx := parser.RenderContext{HostSheet: 0, HostRow: 0, HostCol: 0, SheetName: sheetName}
	// A1:A5 (rows 0..4), deleting rows 3..4 truncates to A1:A3.
	rng := &parser.RangeNode{
		Left:  parser.ReferenceNode{SheetIndex: 0, Row: 0, Col: 0},
		Right: parser.ReferenceNode{SheetIndex: 0, Row: 4, Col: 0},
	}
	out := DeleteRowsColumns(rng, ctx, ctx, 0, AxisRow, 3, 2)
	require.Equal(t, "A1:A3", out.Stringify(ctx))
}

func TestInsertDeleteAreExactInverses(t *testing.T) {
	ctx := parser.RenderContext{HostSheet: 0, HostRow: 20, HostCol: 0, SheetName: sheetName}
	n := &parser.ReferenceNode{SheetIndex: 0, Row: -15, Col: 0} // A6
	inserted := InsertRowsColumns(n, ctx, ctx, 0, AxisRow, 2, 4)
	back := DeleteRowsColumns(inserted, ctx, ctx, 0, AxisRow, 2, 4)
	require.Equal(t, n.Stringify(ctx), back.Stringify(ctx))
}
