package model

import "strings"

// DefinedNameScope distinguishes workbook-wide names from sheet-scoped
// ones, which shadow workbook names on their own sheet (spec.md §4.2).
type DefinedNameScope struct {
	Workbook bool
	Sheet    int // meaningful only when !Workbook
}

// DefinedName is a name bound to formula text, re-parsed at each host
// cell because its relative references depend on the host (spec.md §9).
type DefinedName struct {
	Name    string
	Formula string
	Scope   DefinedNameScope
}

// NameTable holds both workbook- and sheet-scoped defined names.
type NameTable struct {
	workbook map[string]*DefinedName
	bySheet  map[int]map[string]*DefinedName
}

func NewNameTable() *NameTable {
	return &NameTable{
		workbook: make(map[string]*DefinedName),
		bySheet:  make(map[int]map[string]*DefinedName),
	}
}

func key(name string) string { return strings.ToUpper(name) }

func (t *NameTable) Define(d *DefinedName) {
	k := key(d.Name)
	if d.Scope.Workbook {
		t.workbook[k] = d
		return
	}
	m, ok := t.bySheet[d.Scope.Sheet]
	if !ok {
		m = make(map[string]*DefinedName)
		t.bySheet[d.Scope.Sheet] = m
	}
	m[k] = d
}

func (t *NameTable) Remove(name string, scope DefinedNameScope) {
	k := key(name)
	if scope.Workbook {
		delete(t.workbook, k)
		return
	}
	if m, ok := t.bySheet[scope.Sheet]; ok {
		delete(m, k)
	}
}

// Lookup resolves name at hostSheet, preferring a sheet-scoped name over
// a workbook-scoped one with the same identifier (spec.md §4.2).
func (t *NameTable) Lookup(name string, hostSheet int) (*DefinedName, bool) {
	k := key(name)
	if m, ok := t.bySheet[hostSheet]; ok {
		if d, ok := m[k]; ok {
			return d, true
		}
	}
	d, ok := t.workbook[k]
	return d, ok
}

func (t *NameTable) Exists(name string, hostSheet int) bool {
	_, ok := t.Lookup(name, hostSheet)
	return ok
}

// Names lists every defined name in the table: the workbook-scoped ones
// first, then the sheet-scoped ones of every sheet.
func (t *NameTable) Names() []*DefinedName {
	var out []*DefinedName
	for _, d := range t.workbook {
		out = append(out, d)
	}
	for _, m := range t.bySheet {
		for _, d := range m {
			out = append(out, d)
		}
	}
	return out
}
