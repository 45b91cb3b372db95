package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vogtb/sheetcore/funcset"
	"github.com/vogtb/sheetcore/lexer"
)

// Host is the cell a formula is being parsed relative to (spec.md §4.2).
type Host struct {
	Sheet int
	Row   int // 0-based
	Col   int // 0-based
}

// TableInfo is the slice of a table catalog entry the parser needs to
// rewrite a structured reference into an absolute range (spec.md §4.1,
// §4.2, §9). Columns maps a case-folded column name to its 0-based
// offset from FirstCol.
type TableInfo struct {
	SheetIndex int
	FirstRow   int
	FirstCol   int
	LastRow    int
	LastCol    int
	HeaderRows int
	TotalsRows int
	Columns    map[string]int
}

// Resolver is the minimal read-only view into the workbook the parser
// needs: sheet name lookup, the table catalog, and defined names. Package
// model implements this; parser itself stays workbook-agnostic.
type Resolver interface {
	SheetIndex(name string) (int, bool)
	SheetName(index int) string
	Table(name string) (TableInfo, bool)
	DefinedNameExists(name string, hostSheet int) bool
}

// Parser is a recursive-descent Pratt parser over a token stream,
// following the teacher's hand-written-precedence style rather than a
// parser generator (spec.md §4.2 gives the precedence table directly).
type Parser struct {
	tokens   []lexer.Token
	pos      int
	host     Host
	resolver Resolver
	mode     lexer.Mode
}

// Parse builds one cell's AST. A parse failure at any point is reported
// as a single Error(ERROR) node per spec.md §4.2, never as a Go error,
// because a malformed formula still has to occupy a cell.
func Parse(tokens []lexer.Token, host Host, resolver Resolver, mode lexer.Mode) Node {
	p := &Parser{tokens: tokens, host: host, resolver: resolver, mode: mode}
	defer func() { recover() }() //nolint: keeps a malformed formula from panicking the whole evaluate() pass
	node := p.parseUnion()
	if p.cur().Type != lexer.TokenEOF {
		return &ErrorNode{Kind: ErrError, Message: "trailing tokens"}
	}
	return node
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if p.cur().Type != tt {
		panic(fmt.Sprintf("expected %s, got %s", tt, p.cur().Type))
	}
	return p.advance()
}

// parseUnion: lowest precedence, range union via ','. Note that ',' is
// also the function-argument separator; parseFunctionArgs consumes
// commas itself and never calls into parseUnion at the top level, so
// this level is only reachable for a bare top-level/parenthesized
// expression list, matching spec.md §4.2's precedence table.
func (p *Parser) parseUnion() Node {
	left := p.parseIntersect()
	for p.cur().Type == lexer.TokenComma {
		p.advance()
		right := p.parseIntersect()
		left = &BinaryNode{Op: OpUnion, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseIntersect() Node {
	left := p.parseComparison()
	for p.cur().Type == lexer.TokenIntersect {
		p.advance()
		right := p.parseComparison()
		left = &BinaryNode{Op: OpIntersect, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() Node {
	left := p.parseConcat()
	for {
		var op BinaryOp
		switch p.cur().Type {
		case lexer.TokenEqual:
			op = OpEq
		case lexer.TokenNotEqual:
			op = OpNe
		case lexer.TokenLess:
			op = OpLt
		case lexer.TokenLessEqual:
			op = OpLe
		case lexer.TokenGreater:
			op = OpGt
		case lexer.TokenGreaterEqual:
			op = OpGe
		default:
			return left
		}
		p.advance()
		right := p.parseConcat()
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseConcat() Node {
	left := p.parseAdd()
	for p.cur().Type == lexer.TokenAmpersand {
		p.advance()
		right := p.parseAdd()
		left = &BinaryNode{Op: OpConcat, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdd() Node {
	left := p.parseMul()
	for {
		var op BinaryOp
		switch p.cur().Type {
		case lexer.TokenPlus:
			op = OpAdd
		case lexer.TokenMinus:
			op = OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMul()
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMul() Node {
	left := p.parsePow()
	for {
		var op BinaryOp
		switch p.cur().Type {
		case lexer.TokenStar:
			op = OpMul
		case lexer.TokenSlash:
			op = OpDiv
		default:
			return left
		}
		p.advance()
		right := p.parsePow()
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parsePow() Node {
	left := p.parseUnary()
	if p.cur().Type == lexer.TokenCaret {
		p.advance()
		right := p.parsePow() // right-associative
		return &BinaryNode{Op: OpPow, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() Node {
	switch p.cur().Type {
	case lexer.TokenPlus:
		p.advance()
		return &UnaryNode{Op: UnaryPlus, Child: p.parseUnary()}
	case lexer.TokenMinus:
		p.advance()
		return &UnaryNode{Op: UnaryMinus, Child: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Node {
	node := p.parsePrimary()
	for p.cur().Type == lexer.TokenPercent {
		p.advance()
		node = &UnaryNode{Op: UnaryPercent, Child: node}
	}
	return node
}

func (p *Parser) parsePrimary() Node {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Text, 64)
		return &NumberNode{Value: v}
	case lexer.TokenString:
		p.advance()
		return &StringNode{Value: tok.Text}
	case lexer.TokenBoolean:
		p.advance()
		return &BooleanNode{Value: tok.Text == "TRUE"}
	case lexer.TokenErrorLiteral:
		p.advance()
		return &ErrorNode{Kind: ErrorKind(tok.Text)}
	case lexer.TokenAt:
		p.advance()
		return &ImplicitIntersectionNode{Automatic: false, Child: p.parseUnary()}
	case lexer.TokenLParen:
		p.advance()
		inner := p.parseUnion()
		p.expect(lexer.TokenRParen)
		return inner
	case lexer.TokenLBrace:
		return p.parseArray()
	case lexer.TokenReference:
		p.advance()
		return p.parseReferenceToken(tok)
	case lexer.TokenRangeRef:
		p.advance()
		return p.parseRangeToken(tok)
	case lexer.TokenStructuredRef:
		p.advance()
		return p.parseStructuredRef(tok)
	case lexer.TokenFunction:
		p.advance()
		return p.parseFunctionCall(tok.Text)
	case lexer.TokenIdent:
		p.advance()
		return p.parseIdentifier(tok.Text)
	}
	panic("unexpected token " + tok.Type.String())
}

func (p *Parser) parseFunctionCall(name string) Node {
	p.expect(lexer.TokenLParen)
	args := p.parseArgList()
	p.expect(lexer.TokenRParen)

	if sig, ok := funcset.Lookup(name); ok {
		if (len(args) < sig.MinArgs) || (sig.MaxArgs >= 0 && len(args) > sig.MaxArgs) {
			return &ErrorNode{Kind: ErrError, Message: "wrong number of arguments to " + name}
		}
		return &FunctionNode{Name: name, Args: args}
	}
	return &InvalidFunctionNode{Name: name, Args: args}
}

func (p *Parser) parseArgList() []Node {
	var args []Node
	if p.cur().Type == lexer.TokenRParen {
		return args
	}
	args = append(args, p.parseArgOrEmpty())
	for p.cur().Type == lexer.TokenComma {
		p.advance()
		args = append(args, p.parseArgOrEmpty())
	}
	return args
}

func (p *Parser) parseArgOrEmpty() Node {
	if p.cur().Type == lexer.TokenComma || p.cur().Type == lexer.TokenRParen {
		return &EmptyArgNode{}
	}
	return p.parseUnion()
}

func (p *Parser) parseIdentifier(name string) Node {
	if p.resolver != nil && p.resolver.DefinedNameExists(name, p.host.Sheet) {
		return &DefinedNameNode{Name: name, ScopeSheet: p.host.Sheet}
	}
	// Unresolved bareword used as a value position (not a call) is a
	// defined-name reference that evaluates to #NAME? at eval time; we
	// still emit DefinedNameNode so the evaluator produces a consistent
	// error rather than special-casing "unknown identifier" here.
	return &DefinedNameNode{Name: name, ScopeSheet: p.host.Sheet}
}

// parseReferenceToken turns lexer reference text ("A1", "$A$1",
// "Sheet2!A1", "'My Sheet'!A1", or the R1C1 equivalents) into a
// host-relative ReferenceNode.
func (p *Parser) parseReferenceToken(tok lexer.Token) Node {
	sheetName, body, explicit := splitSheetQualifier(tok.Text)
	sheetIdx := p.host.Sheet
	if explicit {
		idx, ok := p.resolver.SheetIndex(sheetName)
		if !ok {
			return &ErrorNode{Kind: ErrRef, Message: "unknown sheet: " + sheetName}
		}
		sheetIdx = idx
	}
	ref, err := p.parseCellBody(body)
	if err != nil {
		return &ErrorNode{Kind: ErrRef, Message: err.Error()}
	}
	ref.SheetIndex = sheetIdx
	ref.SheetExplicit = explicit
	return ref
}

func (p *Parser) parseRangeToken(tok lexer.Token) Node {
	sheetName, body, explicit := splitSheetQualifier(tok.Text)
	sheetIdx := p.host.Sheet
	if explicit {
		idx, ok := p.resolver.SheetIndex(sheetName)
		if !ok {
			return &ErrorNode{Kind: ErrRef, Message: "unknown sheet: " + sheetName}
		}
		sheetIdx = idx
	}
	parts := strings.SplitN(body, ":", 2)
	if len(parts) != 2 {
		return &ErrorNode{Kind: ErrError, Message: "malformed range"}
	}
	left, err := p.parseCellBody(parts[0])
	if err != nil {
		return &ErrorNode{Kind: ErrRef, Message: err.Error()}
	}
	right, err := p.parseCellBody(parts[1])
	if err != nil {
		return &ErrorNode{Kind: ErrRef, Message: err.Error()}
	}
	return &RangeNode{SheetIndex: sheetIdx, SheetExplicit: explicit, Left: *left, Right: *right}
}

func splitSheetQualifier(text string) (sheet, body string, explicit bool) {
	if strings.HasPrefix(text, "'") {
		end := strings.Index(text[1:], "'!")
		if end >= 0 {
			raw := text[1 : end+1]
			sheet = strings.ReplaceAll(raw, "''", "'")
			body = text[end+3:]
			return sheet, body, true
		}
	}
	if idx := strings.IndexByte(text, '!'); idx >= 0 {
		return text[:idx], text[idx+1:], true
	}
	return "", text, false
}

// parseCellBody parses an A1 or R1C1 cell body into a host-relative
// ReferenceNode (sheet fields left for the caller to fill in).
func (p *Parser) parseCellBody(body string) (*ReferenceNode, error) {
	if p.mode == lexer.ModeR1C1 {
		return parseR1C1(body, p.host)
	}
	return parseA1(body, p.host)
}

func parseA1(body string, host Host) (*ReferenceNode, error) {
	i := 0
	absCol := false
	if i < len(body) && body[i] == '$' {
		absCol = true
		i++
	}
	letterStart := i
	for i < len(body) && ((body[i] >= 'A' && body[i] <= 'Z') || (body[i] >= 'a' && body[i] <= 'z')) {
		i++
	}
	if i == letterStart {
		return nil, fmt.Errorf("invalid column in %q", body)
	}
	colNum, ok := ColumnNumber(body[letterStart:i])
	if !ok {
		return nil, fmt.Errorf("column out of range in %q", body)
	}
	absRow := false
	if i < len(body) && body[i] == '$' {
		absRow = true
		i++
	}
	digitStart := i
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i == digitStart || i != len(body) {
		return nil, fmt.Errorf("invalid row in %q", body)
	}
	rowNum, err := strconv.Atoi(body[digitStart:i])
	if err != nil || rowNum < 1 || rowNum > 1048576 {
		return nil, fmt.Errorf("row out of range in %q", body)
	}

	row0 := rowNum - 1
	col0 := colNum - 1
	n := &ReferenceNode{AbsoluteRow: absRow, AbsoluteCol: absCol}
	if absRow {
		n.Row = row0
	} else {
		n.Row = row0 - host.Row
	}
	if absCol {
		n.Col = col0
	} else {
		n.Col = col0 - host.Col
	}
	return n, nil
}

// parseR1C1 parses R[n]C[n]-style bodies. Bracketed offsets are relative;
// unbracketed numbers are absolute (classic R1C1 semantics).
func parseR1C1(body string, host Host) (*ReferenceNode, error) {
	if len(body) == 0 || (body[0] != 'R' && body[0] != 'r') {
		return nil, fmt.Errorf("invalid R1C1 reference %q", body)
	}
	i := 1
	rowAbs, rowVal, ni, err := readR1C1Component(body, i)
	if err != nil {
		return nil, err
	}
	i = ni
	if i >= len(body) || (body[i] != 'C' && body[i] != 'c') {
		return nil, fmt.Errorf("invalid R1C1 reference %q", body)
	}
	i++
	colAbs, colVal, ni2, err := readR1C1Component(body, i)
	if err != nil {
		return nil, err
	}
	i = ni2
	if i != len(body) {
		return nil, fmt.Errorf("trailing characters in %q", body)
	}

	n := &ReferenceNode{AbsoluteRow: rowAbs, AbsoluteCol: colAbs}
	if rowAbs {
		if rowVal == 0 {
			n.Row = host.Row
		} else {
			n.Row = rowVal - 1
		}
	} else {
		n.Row = rowVal
	}
	if colAbs {
		if colVal == 0 {
			n.Col = host.Col
		} else {
			n.Col = colVal - 1
		}
	} else {
		n.Col = colVal
	}
	return n, nil
}

// readR1C1Component reads either "" (meaning "same row/col", absolute,
// value 0), "[n]" (relative offset n), or "n" (absolute row/col n).
func readR1C1Component(body string, i int) (absolute bool, value int, next int, err error) {
	if i < len(body) && body[i] == '[' {
		j := i + 1
		neg := false
		if j < len(body) && body[j] == '-' {
			neg = true
			j++
		}
		start := j
		for j < len(body) && body[j] >= '0' && body[j] <= '9' {
			j++
		}
		if j == start || j >= len(body) || body[j] != ']' {
			return false, 0, i, fmt.Errorf("malformed R1C1 offset in %q", body)
		}
		n, _ := strconv.Atoi(body[start:j])
		if neg {
			n = -n
		}
		return false, n, j + 1, nil
	}
	start := i
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i == start {
		return true, 0, i, nil // bare "R" or "C" means current row/col
	}
	n, _ := strconv.Atoi(body[start:i])
	return true, n, i, nil
}

func (p *Parser) parseArray() Node {
	p.expect(lexer.TokenLBrace)
	var rows [][]ArrayLeaf
	row := []ArrayLeaf{}
	for {
		leaf, err := p.parseArrayLeaf()
		if err != nil {
			panic(err.Error())
		}
		row = append(row, leaf)
		switch p.cur().Type {
		case lexer.TokenComma:
			p.advance()
			continue
		case lexer.TokenSemicolon:
			p.advance()
			rows = append(rows, row)
			row = []ArrayLeaf{}
			continue
		case lexer.TokenRBrace:
			rows = append(rows, row)
			p.advance()
			return &ArrayNode{Rows: rows}
		default:
			panic("malformed array literal")
		}
	}
}

func (p *Parser) parseArrayLeaf() (ArrayLeaf, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Text, 64)
		return ArrayLeaf{Kind: ArrayLeafNumber, Num: v}, nil
	case lexer.TokenMinus:
		p.advance()
		leaf, err := p.parseArrayLeaf()
		if err != nil {
			return ArrayLeaf{}, err
		}
		leaf.Num = -leaf.Num
		return leaf, nil
	case lexer.TokenString:
		p.advance()
		return ArrayLeaf{Kind: ArrayLeafString, Str: tok.Text}, nil
	case lexer.TokenBoolean:
		p.advance()
		return ArrayLeaf{Kind: ArrayLeafBoolean, Bool: tok.Text == "TRUE"}, nil
	case lexer.TokenErrorLiteral:
		p.advance()
		return ArrayLeaf{Kind: ArrayLeafError, Error: ErrorKind(tok.Text)}, nil
	}
	return ArrayLeaf{}, fmt.Errorf("non-literal expression in array literal")
}

// parseStructuredRef rewrites Table[...] to an absolute RangeNode (or
// ReferenceNode for a single column with no row spread) per spec.md
// §4.1/§4.2/§9: unknown table => #REF!, unknown column => #NAME?.
func (p *Parser) parseStructuredRef(tok lexer.Token) Node {
	table, spec, col, err := parseStructuredRefGrammar(tok.Text)
	if err != nil {
		return &ErrorNode{Kind: ErrError, Message: err.Error()}
	}
	if p.resolver == nil {
		return &ErrorNode{Kind: ErrRef, Message: "no table catalog"}
	}
	info, ok := p.resolver.Table(table)
	if !ok {
		return &ErrorNode{Kind: ErrRef, Message: "unknown table: " + table}
	}

	firstRow, lastRow := info.FirstRow+info.HeaderRows, info.LastRow-info.TotalsRows
	switch spec {
	case "#ALL":
		firstRow, lastRow = info.FirstRow, info.LastRow
	case "#HEADERS":
		if info.HeaderRows == 0 {
			return &ErrorNode{Kind: ErrRef, Message: "table has no header row"}
		}
		firstRow, lastRow = info.FirstRow, info.FirstRow+info.HeaderRows-1
	case "#TOTALS":
		if info.TotalsRows == 0 {
			return &ErrorNode{Kind: ErrRef, Message: "table has no totals row"}
		}
		firstRow, lastRow = info.LastRow-info.TotalsRows+1, info.LastRow
	case "#THIS ROW":
		firstRow, lastRow = p.host.Row, p.host.Row
	}

	firstCol, lastCol := info.FirstCol, info.LastCol
	if col != "" {
		names := strings.Split(col, ":")
		offA, ok := info.Columns[strings.ToUpper(names[0])]
		if !ok {
			return &ErrorNode{Kind: ErrName, Message: "unknown column: " + names[0]}
		}
		firstCol = info.FirstCol + offA
		lastCol = firstCol
		if len(names) == 2 {
			offB, ok := info.Columns[strings.ToUpper(names[1])]
			if !ok {
				return &ErrorNode{Kind: ErrName, Message: "unknown column: " + names[1]}
			}
			lastCol = info.FirstCol + offB
		}
	}

	left := ReferenceNode{SheetIndex: info.SheetIndex, AbsoluteRow: true, AbsoluteCol: true, Row: firstRow, Col: firstCol}
	right := ReferenceNode{SheetIndex: info.SheetIndex, AbsoluteRow: true, AbsoluteCol: true, Row: lastRow, Col: lastCol}
	if firstRow == lastRow && firstCol == lastCol {
		left.SheetExplicit = true
		return &left
	}
	return &RangeNode{SheetIndex: info.SheetIndex, SheetExplicit: true, Left: left, Right: right}
}

// parseStructuredRefGrammar parses the raw "Table[...]" text captured by
// the lexer into (table, specifier, columnRef), per spec.md §4.1's
// grammar: table '[' ( ']' | specifier | column | '[' specifier? ','
// column_or_range ']' ) .
func parseStructuredRefGrammar(text string) (table, specifier, columnRef string, err error) {
	open := strings.IndexByte(text, '[')
	if open < 0 || !strings.HasSuffix(text, "]") {
		return "", "", "", fmt.Errorf("malformed structured reference %q", text)
	}
	table = text[:open]
	inner := text[open+1 : len(text)-1]
	inner = unescapeStructuredRef(inner)
	if inner == "" {
		return table, "", "", nil
	}
	if strings.HasPrefix(inner, "[") && strings.HasSuffix(inner, "]") {
		// [[#Headers],[Col]] or [[Col1]:[Col2]] or [[#Data],[Col]]
		parts := splitTopLevelBrackets(inner)
		for _, part := range parts {
			up := strings.ToUpper(part)
			switch up {
			case "#ALL", "#DATA", "#HEADERS", "#TOTALS", "#THIS ROW":
				specifier = strings.TrimPrefix(up, "")
			default:
				if columnRef == "" {
					columnRef = part
				} else {
					columnRef = columnRef + ":" + part
				}
			}
		}
		return table, specifier, columnRef, nil
	}
	up := strings.ToUpper(inner)
	switch up {
	case "#ALL", "#DATA", "#HEADERS", "#TOTALS", "#THIS ROW":
		return table, up, "", nil
	}
	return table, "", inner, nil
}

func unescapeStructuredRef(s string) string {
	r := strings.NewReplacer("'[", "[", "']", "]", "'#", "#", "'@", "@", "''", "'")
	return r.Replace(s)
}

// splitTopLevelBrackets splits "[#Headers],[Col]" into ["#Headers", "Col"].
func splitTopLevelBrackets(s string) []string {
	var out []string
	depth := 0
	start := -1
	for i, ch := range s {
		switch ch {
		case '[':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ']':
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		}
	}
	return out
}
