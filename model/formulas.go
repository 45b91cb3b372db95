package model

import "github.com/vogtb/sheetcore/parser"

// FormulaPool stores parsed ASTs centrally, de-duplicated by canonical
// R1C1-normalized key (spec.md §3, §8.1): two cells with the same
// canonical formula share a FormulaIndex. Entries are immortal for the
// life of the workbook; an unused entry is benign (spec.md §3 Lifecycle).
type FormulaPool struct {
	keyToIndex map[string]uint32
	nodes      []parser.Node
	text       []string // original textual form, for FORMULATEXT / display
	refCounts  []int
}

func NewFormulaPool() *FormulaPool {
	return &FormulaPool{
		keyToIndex: make(map[string]uint32),
		nodes:      []parser.Node{nil}, // index 0 reserved
		text:       []string{""},
		refCounts:  []int{0},
	}
}

// Intern stores node (whose original text was formulaText), returning
// its index. If an equivalent formula already exists, its reference
// count is bumped and its index returned instead of growing the pool.
func (p *FormulaPool) Intern(node parser.Node, formulaText string) uint32 {
	key := parser.CanonicalKey(node)
	if idx, ok := p.keyToIndex[key]; ok {
		p.refCounts[idx]++
		return idx
	}
	idx := uint32(len(p.nodes))
	p.nodes = append(p.nodes, node)
	p.text = append(p.text, formulaText)
	p.refCounts = append(p.refCounts, 1)
	p.keyToIndex[key] = idx
	return idx
}

func (p *FormulaPool) Node(idx uint32) parser.Node {
	if int(idx) >= len(p.nodes) {
		return nil
	}
	return p.nodes[idx]
}

func (p *FormulaPool) Text(idx uint32) string {
	if int(idx) >= len(p.text) {
		return ""
	}
	return p.text[idx]
}

func (p *FormulaPool) Release(idx uint32) {
	if int(idx) < len(p.refCounts) && p.refCounts[idx] > 0 {
		p.refCounts[idx]--
	}
}

func (p *FormulaPool) Len() int { return len(p.nodes) - 1 }
