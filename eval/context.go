package eval

import (
	"github.com/vogtb/sheetcore/locale"
	"github.com/vogtb/sheetcore/model"
	"github.com/vogtb/sheetcore/parser"
)

// Host identifies the cell an AST is being evaluated relative to, the
// same notion package parser uses to resolve relative offsets.
type Host struct {
	Sheet, Row, Col int
}

// Context carries everything a single evaluate() pass needs: the
// workbook being read, the in_progress cycle-detection set (spec.md
// §4.4, thread-confined to one evaluate() call per §5), and the current
// host cell for resolving relative references and defined names.
type Context struct {
	WB *model.Workbook

	inProgress map[model.CellAddress]bool
	host       Host

	// recursionDepth guards against AST shapes (e.g. runaway defined-name
	// self-expansion through distinct cells) that don't trip the
	// same-cell cycle detector but still diverge.
	recursionDepth int
}

const maxRecursionDepth = 512

// NewContext creates a fresh evaluation context for one evaluate() pass.
func NewContext(wb *model.Workbook) *Context {
	return &Context{WB: wb, inProgress: make(map[model.CellAddress]bool)}
}

func (c *Context) withHost(h Host) *Context {
	return &Context{WB: c.WB, inProgress: c.inProgress, host: h, recursionDepth: c.recursionDepth}
}

func (c *Context) renderCtx() parser.RenderContext {
	return parser.RenderContext{
		HostSheet: c.host.Sheet,
		HostRow:   c.host.Row,
		HostCol:   c.host.Col,
		SheetName: c.WB.SheetName,
	}
}

func (c *Context) language() locale.Table {
	if c.WB.Language != nil {
		return c.WB.Language
	}
	return locale.EnglishUS()
}

func (c *Context) address() model.CellAddress {
	return model.CellAddress{Sheet: c.host.Sheet, Row: c.host.Row, Col: c.host.Col}
}

func (c *Context) errHere(kind parser.ErrorKind, message string) Value {
	return Err(kind, c.address(), message)
}
