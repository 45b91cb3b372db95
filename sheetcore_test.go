package sheetcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/sheetcore/model"
)

func TestSetUserInputClassifiesPlainNumber(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "42"))
	v, err := wb.GetCellValueByIndex(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestSetUserInputClassifiesFormula(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "42"))
	require.NoError(t, wb.SetUserInput(0, 0, 1, "=A1*2"))
	wb.Evaluate()
	v, err := wb.GetCellValueByIndex(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 84.0, v)
}

func TestSetUserInputClassifiesBoolean(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "TRUE"))
	v, err := wb.GetCellValueByIndex(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestSetUserInputQuotePrefixStoresAsText(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "'123"))
	v, err := wb.GetCellValueByIndex(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "123", v)
	content, err := wb.GetCellContent(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "'123", content)
}

func TestSetUserInputFallsBackToText(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "hello world"))
	v, err := wb.GetCellValueByIndex(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)
}

func TestSetUserInputLeadingUnarySignTriggersFormulaMode(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 1, "5"))  // B1
	require.NoError(t, wb.SetUserInput(0, 0, 2, "10")) // C1
	require.NoError(t, wb.SetUserInput(0, 0, 0, "-B1-C1"))

	content, err := wb.GetCellContent(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "=-B1-C1", content)

	wb.Evaluate()
	v, err := wb.GetCellValueByIndex(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, -15.0, v)
}

func TestSetUserInputLeadingSignLoneCharacterFallsBackToText(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "-"))
	v, err := wb.GetCellValueByIndex(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "-", v)
}

func TestMergeAnchorRejectsWriteToNonAnchorCell(t *testing.T) {
	wb := New()
	require.NoError(t, wb.MergeCells(0, 1, 1, 2, 2)) // B2:C3
	err := wb.SetUserInput(0, 1, 2, "blocked")        // C2, inside merge but not anchor
	require.Error(t, err)
	var modelErr *model.Error
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, model.FailedPrecondition, modelErr.Code)

	// the anchor cell itself still accepts input.
	require.NoError(t, wb.SetUserInput(0, 1, 1, "42"))
}

func TestInsertRowsPropagatesFormulaToNewHost(t *testing.T) {
	// A1=42, B1==A1*2. Insert a row at index 0: both move down one row,
	// and B2's rewritten formula follows A1 to its new home at A2.
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "42"))
	require.NoError(t, wb.SetUserInput(0, 0, 1, "=A1*2"))

	require.NoError(t, wb.InsertRows(0, 0, 1))
	wb.Evaluate()

	content, err := wb.GetCellContent(0, 1, 1) // B2
	require.NoError(t, err)
	assert.Equal(t, "=A2*2", content)

	v, err := wb.GetCellValueByIndex(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 84.0, v)

	// the old B1 slot is empty now.
	old := wb.Sheets[0].GetCell(0, 1)
	assert.True(t, old.IsEmpty())
}

func TestMoveCellValueToAreaRewritesExternalForwardReferences(t *testing.T) {
	// H8==F6*G9, H9==SUM(D4:F6). Move D4:F6 to B10; H8/H9 should track
	// the move even though neither formula itself lived inside the
	// moved area.
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 5, 5, "6"))  // F6 (row5,col5)
	require.NoError(t, wb.SetUserInput(0, 8, 6, "7"))  // G9 (row8,col6)
	require.NoError(t, wb.SetUserInput(0, 7, 7, "=F6*G9"))     // H8 (row7,col7)
	require.NoError(t, wb.SetUserInput(0, 8, 7, "=SUM(D4:F6)")) // H9 (row8,col7)

	source := Rect{Sheet: 0, FirstRow: 3, FirstCol: 3, LastRow: 5, LastCol: 5} // D4:F6
	target := Rect{Sheet: 0, FirstRow: 9, FirstCol: 1, LastRow: 11, LastCol: 3} // B10:D12
	require.NoError(t, wb.MoveCellValueToArea(source, target))
	wb.Evaluate()

	h8, err := wb.GetCellContent(0, 7, 7)
	require.NoError(t, err)
	assert.Equal(t, "=D12*G9", h8)

	h9, err := wb.GetCellContent(0, 8, 7)
	require.NoError(t, err)
	assert.Equal(t, "=SUM(B10:D12)", h9)
}

func TestExtendToFillsRelativeReferenceAcrossRange(t *testing.T) {
	wb := New()
	require.NoError(t, wb.SetUserInput(0, 0, 0, "1"))
	require.NoError(t, wb.SetUserInput(0, 1, 0, "2"))
	require.NoError(t, wb.SetUserInput(0, 2, 0, "3"))
	require.NoError(t, wb.SetUserInput(0, 0, 1, "=A1*10"))

	target := Rect{Sheet: 0, FirstRow: 1, FirstCol: 1, LastRow: 2, LastCol: 1}
	require.NoError(t, wb.ExtendTo(model.CellAddress{Sheet: 0, Row: 0, Col: 1}, target))
	wb.Evaluate()

	v1, err := wb.GetCellValueByIndex(0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v1)

	v2, err := wb.GetCellValueByIndex(0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, v2)
}
