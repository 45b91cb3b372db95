package model

import (
	"strings"

	"github.com/vogtb/sheetcore/locale"
	"github.com/vogtb/sheetcore/parser"
)

// Workbook is the top-level container from spec.md §3: an ordered
// worksheet list plus the shared pools (strings, styles, number
// formats, formulas), the defined-name list, the table catalog, and a
// monotonic version counter. View/selection state lives here too since
// spec.md §6 treats it as part of the external surface even though it's
// not part of the core's evaluation semantics.
type Workbook struct {
	Sheets []*Worksheet

	Strings      *StringPool
	Styles       *StylePool
	NumberFormats *NumberFormatPool
	Formulas     *FormulaPool
	Names        *NameTable
	Tables       *TableCatalog

	Locale   locale.Table
	Language locale.Table

	Version uint64

	SelectedSheet int
	SelectedRow   int
	SelectedCol   int
}

func New() *Workbook {
	return &Workbook{
		Strings:       NewStringPool(),
		Styles:        NewStylePool(),
		NumberFormats: NewNumberFormatPool(),
		Formulas:      NewFormulaPool(),
		Names:         NewNameTable(),
		Tables:        NewTableCatalog(),
		Locale:        locale.EnglishUS(),
		Language:      locale.EnglishUS(),
	}
}

// --- worksheet management (spec.md §6) ---

const maxSheetNameLen = 31

var forbiddenSheetNameChars = `\/*[]:?`

func validSheetName(name string) bool {
	if name == "" || len(name) > maxSheetNameLen {
		return false
	}
	return !strings.ContainsAny(name, forbiddenSheetNameChars)
}

func (wb *Workbook) sheetIndexByName(name string) (int, bool) {
	for i, s := range wb.Sheets {
		if strings.EqualFold(s.Name, name) {
			return i, true
		}
	}
	return 0, false
}

func (wb *Workbook) NewSheet(name string) (int, error) {
	if !validSheetName(name) {
		return 0, &Error{Code: InvalidArgument, Message: "invalid worksheet name: " + name}
	}
	if _, exists := wb.sheetIndexByName(name); exists {
		return 0, &Error{Code: AlreadyExists, Message: "worksheet already exists: " + name}
	}
	idx := len(wb.Sheets)
	wb.Sheets = append(wb.Sheets, NewWorksheet(idx, name))
	wb.Version++
	return idx, nil
}

func (wb *Workbook) InsertSheet(name string, at int) (int, error) {
	if !validSheetName(name) {
		return 0, &Error{Code: InvalidArgument, Message: "invalid worksheet name: " + name}
	}
	if _, exists := wb.sheetIndexByName(name); exists {
		return 0, &Error{Code: AlreadyExists, Message: "worksheet already exists: " + name}
	}
	if at < 0 || at > len(wb.Sheets) {
		return 0, &Error{Code: OutOfRange, Message: "insert index out of range"}
	}
	ws := NewWorksheet(at, name)
	wb.Sheets = append(wb.Sheets, nil)
	copy(wb.Sheets[at+1:], wb.Sheets[at:])
	wb.Sheets[at] = ws
	for i, s := range wb.Sheets {
		s.Index = i
	}
	wb.Version++
	return at, nil
}

func (wb *Workbook) RenameSheet(oldName, newName string) error {
	idx, ok := wb.sheetIndexByName(oldName)
	if !ok {
		return &Error{Code: NotFound, Message: "worksheet not found: " + oldName}
	}
	if !validSheetName(newName) {
		return &Error{Code: InvalidArgument, Message: "invalid worksheet name: " + newName}
	}
	if other, exists := wb.sheetIndexByName(newName); exists && other != idx {
		return &Error{Code: AlreadyExists, Message: "worksheet already exists: " + newName}
	}
	wb.Sheets[idx].Name = newName
	wb.Version++
	return nil
}

func (wb *Workbook) DeleteSheetByName(name string) error {
	idx, ok := wb.sheetIndexByName(name)
	if !ok {
		return &Error{Code: NotFound, Message: "worksheet not found: " + name}
	}
	return wb.DeleteSheet(idx)
}

func (wb *Workbook) DeleteSheet(index int) error {
	if index < 0 || index >= len(wb.Sheets) {
		return &Error{Code: OutOfRange, Message: "sheet index out of range"}
	}
	wb.Sheets = append(wb.Sheets[:index], wb.Sheets[index+1:]...)
	for i, s := range wb.Sheets {
		s.Index = i
	}
	wb.Version++
	return nil
}

func (wb *Workbook) WorksheetNames() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

// --- parser.Resolver ---

var _ parser.Resolver = (*Workbook)(nil)

func (wb *Workbook) SheetIndex(name string) (int, bool) { return wb.sheetIndexByName(name) }

func (wb *Workbook) SheetName(index int) string {
	if index < 0 || index >= len(wb.Sheets) {
		return ""
	}
	return wb.Sheets[index].Name
}

func (wb *Workbook) Table(name string) (parser.TableInfo, bool) {
	t, ok := wb.Tables.Get(name)
	if !ok {
		return parser.TableInfo{}, false
	}
	return t.ResolverInfo(), true
}

func (wb *Workbook) DefinedNameExists(name string, hostSheet int) bool {
	return wb.Names.Exists(name, hostSheet)
}

// --- application-level errors (spec.md §6 validation failures; distinct
// from in-cell SpreadsheetError per spec.md §7) ---

type Code int

const (
	OK Code = iota
	InvalidArgument
	NotFound
	AlreadyExists
	FailedPrecondition
	OutOfRange
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }
