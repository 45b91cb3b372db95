package model

// Style is a cell's formatting record. Number formatting for *display* is
// an explicit non-goal (spec.md §1); NumberFormatIndex exists so
// set_user_input can auto-derive a format (currency/percentage/date, per
// §4.6) and so package numfmt can classify a format for the limited
// string coercion the evaluator needs (§4.4.2).
type Style struct {
	NumberFormatIndex uint32
	QuotePrefix       bool
}

// StylePool de-duplicates Style records the same way StringPool
// de-duplicates text.
type StylePool struct {
	byIndex []Style
	byValue map[Style]uint32
}

func NewStylePool() *StylePool {
	p := &StylePool{byValue: make(map[Style]uint32)}
	p.byIndex = append(p.byIndex, Style{}) // index 0: default style
	return p
}

func (p *StylePool) Intern(s Style) uint32 {
	if idx, ok := p.byValue[s]; ok {
		return idx
	}
	idx := uint32(len(p.byIndex))
	p.byIndex = append(p.byIndex, s)
	p.byValue[s] = idx
	return idx
}

func (p *StylePool) Get(idx uint32) Style {
	if int(idx) >= len(p.byIndex) {
		return Style{}
	}
	return p.byIndex[idx]
}

// NumberFormatPool de-duplicates number-format code strings ("0.00%",
// "$#,##0.00", "m/d/yyyy"), parsed on demand by package numfmt.
type NumberFormatPool struct {
	*StringPool
}

func NewNumberFormatPool() *NumberFormatPool {
	p := &NumberFormatPool{StringPool: NewStringPool()}
	p.Intern("General")
	return p
}
