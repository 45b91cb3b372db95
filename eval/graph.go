package eval

import (
	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/parser"
)

// DependencyGraph is a read-only precedent/dependent index over a
// workbook's formula cells, built in one pass by scanning every formula
// AST for the references and ranges it touches. It answers "what feeds
// this cell" and "what would break if this cell disappeared" without
// running a recalculation pass; it is not itself part of the
// recalculation strategy, which stays the mark-all-dirty loop in
// eval.go.
//
// A range precedent fans out to every cell address inside it rather than
// being tracked as a separate range-shaped edge, which keeps the lookup
// API down to one kind of edge at the cost of one node per cell in a
// referenced range; that tradeoff is fine at the cell counts a formula
// graph realistically reaches, and keeps BuildDependencyGraph a single
// rebuild-from-scratch pass with no incremental bookkeeping to keep in
// sync with edits.
type DependencyGraph struct {
	precedents map[model.CellAddress]map[model.CellAddress]struct{}
	dependents map[model.CellAddress]map[model.CellAddress]struct{}
}

// BuildDependencyGraph scans every formula cell in wb and records which
// cells it references.
func BuildDependencyGraph(wb *model.Workbook) *DependencyGraph {
	g := &DependencyGraph{
		precedents: make(map[model.CellAddress]map[model.CellAddress]struct{}),
		dependents: make(map[model.CellAddress]map[model.CellAddress]struct{}),
	}
	for _, ws := range wb.Sheets {
		ws.EachFormulaCell(func(row, col int, cell *model.Cell) {
			addr := model.CellAddress{Sheet: ws.Index, Row: row, Col: col}
			node := wb.Formulas.Node(cell.FormulaIndex)
			if node == nil {
				return
			}
			ctx := parser.RenderContext{HostSheet: ws.Index, HostRow: row, HostCol: col}
			collectReferences(node, ctx, func(refAddr model.CellAddress) {
				g.addEdge(addr, refAddr)
			})
		})
	}
	return g
}

func (g *DependencyGraph) addEdge(from, to model.CellAddress) {
	if g.precedents[from] == nil {
		g.precedents[from] = make(map[model.CellAddress]struct{})
	}
	g.precedents[from][to] = struct{}{}
	if g.dependents[to] == nil {
		g.dependents[to] = make(map[model.CellAddress]struct{})
	}
	g.dependents[to][from] = struct{}{}
}

// collectReferences walks n looking for ReferenceNode and RangeNode leaves,
// calling emit once per absolute cell address they touch. A range of more
// than maxEnumerated (10000) cells emits only its two corner cells, so a
// whole-column reference doesn't enumerate a million rows; the cells
// between the corners are then not recorded.
func collectReferences(n parser.Node, ctx parser.RenderContext, emit func(model.CellAddress)) {
	switch v := n.(type) {
	case *parser.ReferenceNode:
		row, col := v.Absolute(ctx)
		emit(model.CellAddress{Sheet: v.SheetIndex, Row: row, Col: col})
	case *parser.RangeNode:
		lr, lc := v.Left.Absolute(ctx)
		rr, rc := v.Right.Absolute(ctx)
		if lr > rr {
			lr, rr = rr, lr
		}
		if lc > rc {
			lc, rc = rc, lc
		}
		const maxEnumerated = 10000
		if (rr-lr+1)*(rc-lc+1) > maxEnumerated {
			// too large to enumerate cell-by-cell; record just the corners
			// as a coarse approximation rather than blowing up memory.
			emit(model.CellAddress{Sheet: v.SheetIndex, Row: lr, Col: lc})
			emit(model.CellAddress{Sheet: v.SheetIndex, Row: rr, Col: rc})
			return
		}
		for row := lr; row <= rr; row++ {
			for col := lc; col <= rc; col++ {
				emit(model.CellAddress{Sheet: v.SheetIndex, Row: row, Col: col})
			}
		}
	case *parser.UnaryNode:
		collectReferences(v.Child, ctx, emit)
	case *parser.BinaryNode:
		collectReferences(v.Left, ctx, emit)
		collectReferences(v.Right, ctx, emit)
	case *parser.FunctionNode:
		for _, a := range v.Args {
			collectReferences(a, ctx, emit)
		}
	case *parser.InvalidFunctionNode:
		for _, a := range v.Args {
			collectReferences(a, ctx, emit)
		}
	case *parser.ImplicitIntersectionNode:
		collectReferences(v.Child, ctx, emit)
	}
}

// DirectPrecedents returns the cells addr's formula reads directly.
func (g *DependencyGraph) DirectPrecedents(addr model.CellAddress) []model.CellAddress {
	return setToSlice(g.precedents[addr])
}

// DirectDependents returns the cells that directly reference addr.
func (g *DependencyGraph) DirectDependents(addr model.CellAddress) []model.CellAddress {
	return setToSlice(g.dependents[addr])
}

// AllDependents returns the transitive closure of cells affected by a
// change to addr, the set that would need recalculating if invalidation
// were precise rather than mark-all-dirty.
func (g *DependencyGraph) AllDependents(addr model.CellAddress) []model.CellAddress {
	visited := make(map[model.CellAddress]struct{})
	var order []model.CellAddress
	var visit func(model.CellAddress)
	visit = func(a model.CellAddress) {
		for dep := range g.dependents[a] {
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			order = append(order, dep)
			visit(dep)
		}
	}
	visit(addr)
	return order
}

// HasCycle reports whether the graph contains a circular reference,
// independent of evaluating any cell (eval.go's own circular-reference
// detection happens lazily, one call stack at a time, during
// evaluation; this answers the same question for the whole workbook up
// front).
func (g *DependencyGraph) HasCycle() bool {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[model.CellAddress]int)
	var visit func(model.CellAddress) bool
	visit = func(a model.CellAddress) bool {
		switch state[a] {
		case visiting:
			return true
		case done:
			return false
		}
		state[a] = visiting
		for p := range g.precedents[a] {
			if visit(p) {
				return true
			}
		}
		state[a] = done
		return false
	}
	for a := range g.precedents {
		if state[a] == unvisited && visit(a) {
			return true
		}
	}
	return false
}

func setToSlice(s map[model.CellAddress]struct{}) []model.CellAddress {
	out := make([]model.CellAddress, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	return out
}
