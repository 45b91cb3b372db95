package model

// StringPool is a de-duplicated string table: two cells with identical
// text share the same index (spec.md §3, §8.1). Entries are never
// removed once interned — the teacher's string.go table takes the same
// monotonic-growth approach, which spec.md §5 explicitly sanctions for
// these pools.
type StringPool struct {
	byValue map[string]uint32
	byIndex []string
}

// NewStringPool creates an empty pool; index 0 is reserved and never
// issued, so a zero-value uint32 can mean "no string" where useful.
func NewStringPool() *StringPool {
	return &StringPool{byValue: make(map[string]uint32), byIndex: []string{""}}
}

// Intern returns the index for s, creating a new entry if s is new.
func (p *StringPool) Intern(s string) uint32 {
	if idx, ok := p.byValue[s]; ok {
		return idx
	}
	idx := uint32(len(p.byIndex))
	p.byIndex = append(p.byIndex, s)
	p.byValue[s] = idx
	return idx
}

// Get returns the string at idx, or "" if idx is out of range.
func (p *StringPool) Get(idx uint32) string {
	if int(idx) >= len(p.byIndex) {
		return ""
	}
	return p.byIndex[idx]
}

// Len returns the number of distinct interned strings, excluding the
// reserved zero entry.
func (p *StringPool) Len() int { return len(p.byIndex) - 1 }
