package sheetcore

import (
	"strconv"
	"strings"
	"time"

	"github.com/vogtb/sheetcore/analyzer"
	"github.com/vogtb/sheetcore/eval"
	"github.com/vogtb/sheetcore/lexer"
	"github.com/vogtb/sheetcore/locale"
	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/numfmt"
	"github.com/vogtb/sheetcore/parser"
)

// inputEpoch mirrors package eval's own Excel-serial epoch (December 30,
// 1899); set_user_input needs it to turn a recognized date literal into
// the number cell the evaluator expects (spec.md §4.6), independent of
// eval's own date *functions*, which operate on cells already holding a
// serial number rather than on typed text.
var inputEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// SetUserInput implements the classification pipeline from spec.md §4.6:
// validate the address, classify text, and store it under whichever
// cell kind the classification produces.
func (wb *Workbook) SetUserInput(sheet, row, col int, text string) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(text, "="):
		return wb.UpdateCellWithFormula(sheet, row, col, text)
	case strings.HasPrefix(text, "'"):
		return wb.setQuotePrefixText(ws, row, col, text[1:])
	}
	if b, ok := wb.localeTable().BooleanLiteral(text); ok {
		return wb.UpdateCellWithBool(sheet, row, col, b)
	}
	if hasLeadingUnarySign(text) && lexesAsExpression(text, wb.localeTable()) {
		return wb.UpdateCellWithFormula(sheet, row, col, "="+text)
	}
	if n, format, ok := classifyNumber(text, wb.localeTable()); ok {
		return wb.setNumberWithFormat(ws, row, col, n, format)
	}
	if serial, ok := classifyDate(text); ok {
		return wb.setNumberWithFormat(ws, row, col, serial, numfmt.DefaultFormatFor(numfmt.ClassDate))
	}
	return wb.UpdateCellWithText(sheet, row, col, text)
}

func (wb *Workbook) setQuotePrefixText(ws *model.Worksheet, row, col int, text string) error {
	style := model.Style{QuotePrefix: true}
	ws.SetCell(row, col, &model.Cell{
		Kind:        model.KindSharedString,
		StringIndex: wb.Strings.Intern(text),
		StyleIndex:  wb.Styles.Intern(style),
		QuotePrefix: true,
	})
	wb.invalidate()
	return nil
}

func (wb *Workbook) setNumberWithFormat(ws *model.Worksheet, row, col int, n float64, format string) error {
	styleIdx := uint32(0)
	if format != "" && format != "General" {
		styleIdx = wb.Styles.Intern(model.Style{NumberFormatIndex: wb.NumberFormats.Intern(format)})
	}
	ws.SetCell(row, col, &model.Cell{Kind: model.KindNumber, Number: n, StyleIndex: styleIdx})
	wb.invalidate()
	return nil
}

// hasLeadingUnarySign reports whether text opens with a unary sign
// followed by further content, spec.md §4.2's "leading unary sign at
// start of input triggers formula mode" rule: "-B1-B2" becomes the
// formula "=-B1-B2" even without an explicit leading "=". A bare "-" or
// "+" with nothing after it isn't content, so it falls through to the
// later number/date/text classification instead.
func hasLeadingUnarySign(text string) bool {
	return len(text) > 1 && (text[0] == '-' || text[0] == '+')
}

// lexesAsExpression reports whether text tokenizes cleanly under loc,
// the cheap test set_user_input uses to decide a leading-sign input is
// "formula mode" rather than text that merely happens to start with a
// sign. Tokenizing rather than fully parsing is enough: the parser never
// fails outright, it degrades to an ErrorNode, so a lex error is the only
// signal available before committing to the formula path.
func lexesAsExpression(text string, loc locale.Table) bool {
	toks, err := lexer.New(text, lexer.ModeA1, loc).Tokenize()
	return err == nil && len(toks) > 0
}

// classifyNumber recognizes a plain, currency-prefixed, or
// percentage-suffixed localized number literal (spec.md §4.6). The
// returned format is the auto-derived display format for that shape, or
// "" for a plain number (no format override needed).
func classifyNumber(text string, loc locale.Table) (float64, string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, "", false
	}
	class := numfmt.ClassGeneral
	body := t
	if strings.ContainsAny(t, "$€£¥") {
		body = strings.TrimFunc(body, func(r rune) bool {
			return r == '$' || r == '€' || r == '£' || r == '¥' || r == ' '
		})
		class = numfmt.ClassCurrency
	}
	if strings.HasSuffix(body, "%") {
		body = strings.TrimSuffix(body, "%")
		body = strings.TrimSpace(body)
		class = numfmt.ClassPercentage
	}
	sep := loc.DecimalSeparator()
	if sep != '.' {
		body = strings.ReplaceAll(body, string(sep), ".")
	}
	body = strings.ReplaceAll(body, ",", "")
	n, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, "", false
	}
	if class == numfmt.ClassPercentage {
		n /= 100
	}
	if class == numfmt.ClassGeneral {
		return n, "", true
	}
	return n, numfmt.DefaultFormatFor(class), true
}

// dateLayouts are the literal formats set_user_input recognizes as a
// typed date (spec.md §4.6's "date-parse matrix"); a host wanting a
// broader locale-specific matrix supplies its own classification ahead
// of calling SetUserInput and falls through to UpdateCellWithNumber.
var dateLayouts = []string{"1/2/2006", "2006-01-02", "1/2/06", "Jan 2, 2006", "2-Jan-2006"}

func classifyDate(text string) (float64, bool) {
	t := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, t); err == nil {
			days := parsed.Sub(inputEpoch).Hours() / 24
			serial := float64(int(days + 0.5))
			if serial < 61 {
				serial-- // same pre-March-1900 shift as eval's dateToSerial
			}
			return serial, true
		}
	}
	return 0, false
}

// --- direct typed setters (spec.md §6's update_cell_with_{text|number|bool|formula}) ---

func (wb *Workbook) UpdateCellWithText(sheet, row, col int, text string) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}
	ws.SetCell(row, col, &model.Cell{Kind: model.KindSharedString, StringIndex: wb.Strings.Intern(text)})
	wb.invalidate()
	return nil
}

func (wb *Workbook) UpdateCellWithNumber(sheet, row, col int, n float64) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}
	ws.SetCell(row, col, &model.Cell{Kind: model.KindNumber, Number: n})
	wb.invalidate()
	return nil
}

func (wb *Workbook) UpdateCellWithBool(sheet, row, col int, b bool) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}
	ws.SetCell(row, col, &model.Cell{Kind: model.KindBoolean, Boolean: b})
	wb.invalidate()
	return nil
}

// UpdateCellWithFormula lexes, parses, and static-analyzes text (which
// must start with "="), then interns the resulting AST into the
// workbook's formula pool and stores the cell as Formula(index)
// (spec.md §4.6 step 3's formula path).
func (wb *Workbook) UpdateCellWithFormula(sheet, row, col int, text string) error {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return err
	}
	if err := checkBounds(row, col); err != nil {
		return err
	}
	if err := checkAnchor(ws, row, col); err != nil {
		return err
	}
	body := strings.TrimPrefix(text, "=")
	toks, lexErr := lexer.New(body, lexer.ModeA1, wb.localeTable()).Tokenize()
	var node parser.Node
	if lexErr != nil {
		node = &parser.ErrorNode{Kind: parser.ErrError, Message: lexErr.Error()}
	} else {
		node = parser.Parse(toks, parser.Host{Sheet: sheet, Row: row, Col: col}, wb.Workbook, lexer.ModeA1)
		node = analyzer.Analyze(node)
	}
	idx := wb.Formulas.Intern(node, body)
	ws.SetCell(row, col, &model.Cell{Kind: model.KindFormula, FormulaIndex: idx})
	wb.invalidate()
	return nil
}

// invalidate marks every formula cell dirty again under the coarse
// strategy spec.md §4.6 step 4 and §5 sanction: the next Evaluate() call
// recomputes everything rather than tracing precise dependents.
func (wb *Workbook) invalidate() {
	for _, ws := range wb.Sheets {
		ws.EachFormulaCell(func(row, col int, cell *model.Cell) {
			cell.Kind = model.KindFormula
		})
	}
}

// GetCellValueByIndex returns the evaluated value at (sheet, row, col),
// computing it on demand if it hasn't been evaluated this pass.
func (wb *Workbook) GetCellValueByIndex(sheet, row, col int) (interface{}, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(row, col); err != nil {
		return nil, err
	}
	cell := ws.GetCell(row, col)
	if cell == nil || cell.IsEmpty() {
		return nil, nil
	}
	if cell.IsFormula() {
		v := eval.EvaluateCell(wb.Workbook, sheet, row, col)
		return valueToHost(wb, v), nil
	}
	switch cell.Kind {
	case model.KindNumber:
		return cell.Number, nil
	case model.KindBoolean:
		return cell.Boolean, nil
	case model.KindError:
		return wb.localeTable().LocalizedErrorLiteral(string(cell.ErrorKind)), nil
	case model.KindSharedString:
		return wb.Strings.Get(cell.StringIndex), nil
	default:
		return nil, nil
	}
}

// GetCellContent returns the cell's literal content: the formula text
// for a formula cell (prefixed with "="), or the display text otherwise.
func (wb *Workbook) GetCellContent(sheet, row, col int) (string, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return "", err
	}
	if err := checkBounds(row, col); err != nil {
		return "", err
	}
	cell := ws.GetCell(row, col)
	if cell == nil || cell.IsEmpty() {
		return "", nil
	}
	if cell.IsFormula() {
		return "=" + wb.Formulas.Text(cell.FormulaIndex), nil
	}
	switch cell.Kind {
	case model.KindNumber:
		return numfmt.ToExcelPrecisionString(cell.Number), nil
	case model.KindBoolean:
		if cell.Boolean {
			return "TRUE", nil
		}
		return "FALSE", nil
	case model.KindError:
		return wb.localeTable().LocalizedErrorLiteral(string(cell.ErrorKind)), nil
	case model.KindSharedString:
		text := wb.Strings.Get(cell.StringIndex)
		if cell.QuotePrefix {
			return "'" + text, nil
		}
		return text, nil
	default:
		return "", nil
	}
}

// GetFormattedCellValue renders the cell's value through its style's
// number format, the one place this module produces a display string
// (spec.md §6; formatting itself stays out of scope per §1's non-goals).
func (wb *Workbook) GetFormattedCellValue(sheet, row, col int) (string, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return "", err
	}
	if err := checkBounds(row, col); err != nil {
		return "", err
	}
	cell := ws.GetCell(row, col)
	if cell == nil || cell.IsEmpty() {
		return "", nil
	}
	if cell.IsFormula() {
		v := eval.EvaluateCell(wb.Workbook, sheet, row, col)
		if v.Kind == eval.KindNumber {
			style := wb.Styles.Get(cell.StyleIndex)
			format := wb.NumberFormats.Get(style.NumberFormatIndex)
			return numfmt.Render(v.Number, format), nil
		}
		return wb.GetCellContent(sheet, row, col)
	}
	if cell.Kind == model.KindNumber {
		style := wb.Styles.Get(cell.StyleIndex)
		format := wb.NumberFormats.Get(style.NumberFormatIndex)
		return numfmt.Render(cell.Number, format), nil
	}
	return wb.GetCellContent(sheet, row, col)
}

// GetCellType reports the external type spec.md §6 wants surfaced:
// {Number, Text, LogicalValue, ErrorValue}. An empty cell reports Number
// (its zero-value-equivalent per host convention); callers distinguish
// emptiness via GetCellValueByIndex returning nil.
func (wb *Workbook) GetCellType(sheet, row, col int) (model.CellType, error) {
	ws, err := wb.sheet(sheet)
	if err != nil {
		return model.CellTypeNumber, err
	}
	if err := checkBounds(row, col); err != nil {
		return model.CellTypeNumber, err
	}
	cell := ws.GetCell(row, col)
	if cell == nil {
		return model.CellTypeNumber, nil
	}
	kind := cell.Kind
	if cell.IsFormula() {
		if kind == model.KindFormula {
			eval.EvaluateCell(wb.Workbook, sheet, row, col)
			kind = cell.Kind
		}
		switch kind {
		case model.KindFormulaNumber:
			return model.CellTypeNumber, nil
		case model.KindFormulaString:
			return model.CellTypeText, nil
		case model.KindFormulaBoolean:
			return model.CellTypeLogicalValue, nil
		case model.KindFormulaError:
			return model.CellTypeErrorValue, nil
		default:
			return model.CellTypeNumber, nil
		}
	}
	switch kind {
	case model.KindBoolean:
		return model.CellTypeLogicalValue, nil
	case model.KindError:
		return model.CellTypeErrorValue, nil
	case model.KindSharedString:
		return model.CellTypeText, nil
	default:
		return model.CellTypeNumber, nil
	}
}

func valueToHost(wb *Workbook, v eval.Value) interface{} {
	switch v.Kind {
	case eval.KindNumber:
		return v.Number
	case eval.KindString:
		return v.Str
	case eval.KindBoolean:
		return v.Boolean
	case eval.KindError:
		return wb.localeTable().LocalizedErrorLiteral(string(v.ErrKind))
	default:
		return nil
	}
}
