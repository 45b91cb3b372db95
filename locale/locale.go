// Package locale provides the read-only language and locale tables that
// parameterize the lexer and stringifier: localized function names,
// boolean and error literals, and the decimal/group/list separators used
// when lexing numbers and array literals.
//
// Locale data files themselves (month names, currency symbols, full
// separator tables for every language) are an external collaborator per
// the core's scope; this package defines the interface the evaluator
// consumes them through, plus a built-in English table so the module is
// usable standalone.
package locale

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Table is the read-only interface the lexer, parser, and stringifier use
// to resolve localized identifiers. Hosts that embed additional languages
// implement this interface themselves; Table never mutates.
type Table interface {
	// Name is the language/locale tag, e.g. "en-US".
	Name() string

	// CanonicalFunctionName maps a localized function name (already
	// case-folded) to its canonical identifier, or returns ok=false if
	// the identifier is not a known function in this language.
	CanonicalFunctionName(localized string) (canonical string, ok bool)

	// LocalizedFunctionName is the inverse of CanonicalFunctionName, used
	// by the stringifier.
	LocalizedFunctionName(canonical string) string

	// BooleanLiteral recognizes TRUE/FALSE spellings in this language.
	BooleanLiteral(s string) (value bool, ok bool)

	// ErrorLiteral recognizes localized error short-names (e.g. "#BEZUG!")
	// and returns the canonical error kind string (REF, NAME, ...).
	ErrorLiteral(s string) (kind string, ok bool)

	// LocalizedErrorLiteral is the inverse, used to render error cells.
	LocalizedErrorLiteral(kind string) string

	// DecimalSeparator, GroupSeparator, and ListSeparator are single
	// characters used when lexing numbers and array literals.
	DecimalSeparator() rune
	GroupSeparator() rune
	ListSeparator() rune

	// FoldCase normalizes an identifier for case-insensitive comparison
	// under this locale's casing rules (§3 total order, §4.1 lexing).
	FoldCase(s string) string
}

// enUS is the built-in English (United States) table. Every canonical
// function identifier used by package eval is its own localized spelling
// in this table, so CanonicalFunctionName is effectively an identity
// lookup restricted to the known function set.
type enUS struct {
	caser     cases.Caser
	functions map[string]struct{}
}

// knownFunctions is populated by package eval via RegisterFunctionNames so
// that the locale table can validate identifiers without importing eval
// (which would create an import cycle: eval depends on locale).
var knownFunctions = map[string]struct{}{}

// RegisterFunctionNames tells the locale package which canonical function
// identifiers exist. Called once from eval's package init.
func RegisterFunctionNames(names []string) {
	for _, n := range names {
		knownFunctions[strings.ToUpper(n)] = struct{}{}
	}
}

// EnglishUS returns the built-in en-US locale/language table.
func EnglishUS() Table {
	return &enUS{caser: cases.Upper(language.AmericanEnglish)}
}

func (t *enUS) Name() string { return "en-US" }

func (t *enUS) FoldCase(s string) string {
	return t.caser.String(s)
}

func (t *enUS) CanonicalFunctionName(localized string) (string, bool) {
	upper := t.FoldCase(localized)
	if _, ok := knownFunctions[upper]; ok {
		return upper, true
	}
	return "", false
}

func (t *enUS) LocalizedFunctionName(canonical string) string {
	return strings.ToUpper(canonical)
}

func (t *enUS) BooleanLiteral(s string) (bool, bool) {
	switch t.FoldCase(s) {
	case "TRUE":
		return true, true
	case "FALSE":
		return false, true
	}
	return false, false
}

var errorShortNames = map[string]string{
	"#NULL!":   "NULL",
	"#DIV/0!":  "DIV",
	"#VALUE!":  "VALUE",
	"#REF!":    "REF",
	"#NAME?":   "NAME",
	"#NUM!":    "NUM",
	"#N/A":     "N/A",
	"#ERROR!":  "ERROR",
	"#N/IMPL!": "N/IMPL",
	"#CIRC!":   "CIRC",
	"#SPILL!":  "SPILL",
	"#CALC!":   "CALC",
}

var kindToErrorName = func() map[string]string {
	m := make(map[string]string, len(errorShortNames))
	for name, kind := range errorShortNames {
		m[kind] = name
	}
	return m
}()

func (t *enUS) ErrorLiteral(s string) (string, bool) {
	kind, ok := errorShortNames[strings.ToUpper(s)]
	return kind, ok
}

func (t *enUS) LocalizedErrorLiteral(kind string) string {
	if name, ok := kindToErrorName[kind]; ok {
		return name
	}
	return "#ERROR!"
}

func (t *enUS) DecimalSeparator() rune { return '.' }
func (t *enUS) GroupSeparator() rune   { return ',' }
func (t *enUS) ListSeparator() rune    { return ',' }
