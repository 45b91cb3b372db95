package model

const (
	// LastRow and LastColumn are the OOXML dimension limits spec.md §5
	// and §6 cite: 1,048,576 rows by 16,384 columns, both 1-based in the
	// text grammar. Internally rows/cols are 0-based, so valid 0-based
	// indices are [0, LastRow) and [0, LastColumn).
	LastRow    = 1048576
	LastColumn = 16384
)

// MergedRange is a top-left-anchored merge block (spec.md §6); only the
// anchor cell accepts direct user input.
type MergedRange struct {
	FirstRow, FirstCol, LastRow, LastCol int
}

func (m MergedRange) Contains(row, col int) bool {
	return row >= m.FirstRow && row <= m.LastRow && col >= m.FirstCol && col <= m.LastCol
}

func (m MergedRange) IsAnchor(row, col int) bool {
	return row == m.FirstRow && col == m.FirstCol
}

// Worksheet is one sheet: a sparse row -> column -> cell map, per
// spec.md §3. Rows/columns are stored lazily; nothing is allocated for
// cells that were never written.
type Worksheet struct {
	Index int
	Name  string

	rows map[int]map[int]*Cell

	rowDefaultStyle map[int]uint32
	colDefaultStyle map[int]uint32

	Merges []MergedRange

	FrozenRows int
	FrozenCols int
}

func NewWorksheet(index int, name string) *Worksheet {
	return &Worksheet{
		Index:           index,
		Name:            name,
		rows:            make(map[int]map[int]*Cell),
		rowDefaultStyle: make(map[int]uint32),
		colDefaultStyle: make(map[int]uint32),
	}
}

// GetCell returns the cell at (row, col), or nil if it has never been
// written (distinct from a cell explicitly set to KindEmpty).
func (w *Worksheet) GetCell(row, col int) *Cell {
	cols, ok := w.rows[row]
	if !ok {
		return nil
	}
	return cols[col]
}

// SetCell writes a cell, replacing whatever was there.
func (w *Worksheet) SetCell(row, col int, c *Cell) {
	cols, ok := w.rows[row]
	if !ok {
		cols = make(map[int]*Cell)
		w.rows[row] = cols
	}
	cols[col] = c
}

// ClearCell removes a cell entirely (distinguished from setting it to
// KindEmpty, which still occupies the sparse map — ClearCell is used by
// row/column deletion).
func (w *Worksheet) ClearCell(row, col int) {
	if cols, ok := w.rows[row]; ok {
		delete(cols, col)
		if len(cols) == 0 {
			delete(w.rows, row)
		}
	}
}

// EachFormulaCell calls fn for every cell whose storage is formula-backed.
func (w *Worksheet) EachFormulaCell(fn func(row, col int, c *Cell)) {
	for row, cols := range w.rows {
		for col, c := range cols {
			if c.IsFormula() {
				fn(row, col, c)
			}
		}
	}
}

// EachCell calls fn for every occupied cell, formula-backed or not; used
// by row/column insert and delete, which need to relocate every cell in
// the shifted band rather than just formula cells.
func (w *Worksheet) EachCell(fn func(row, col int, c *Cell)) {
	for row, cols := range w.rows {
		for col, c := range cols {
			fn(row, col, c)
		}
	}
}

// MergeAnchor returns the merge range containing (row, col), if any.
func (w *Worksheet) MergeAnchor(row, col int) (MergedRange, bool) {
	for _, m := range w.Merges {
		if m.Contains(row, col) {
			return m, true
		}
	}
	return MergedRange{}, false
}

// AddMerge inserts a new top-left-anchored merge, replacing any existing
// merges it overlaps (spec.md §6).
func (w *Worksheet) AddMerge(m MergedRange) {
	kept := w.Merges[:0]
	for _, existing := range w.Merges {
		if overlaps(existing, m) {
			continue
		}
		kept = append(kept, existing)
	}
	w.Merges = append(kept, m)
}

func overlaps(a, b MergedRange) bool {
	return a.FirstRow <= b.LastRow && b.FirstRow <= a.LastRow &&
		a.FirstCol <= b.LastCol && b.FirstCol <= a.LastCol
}

// RemoveMerge deletes the merge exactly matching r, if present.
func (w *Worksheet) RemoveMerge(r MergedRange) {
	for i, m := range w.Merges {
		if m == r {
			w.Merges = append(w.Merges[:i], w.Merges[i+1:]...)
			return
		}
	}
}
