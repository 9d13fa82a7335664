// Package parser implements the recursive-descent, context-sensitive parser
// described by the project's design: a Reader-driven mode state machine
// alternating between element-mode and object-mode scanning, consuming the
// list structure scanner's flat descriptor vector instead of re-scanning
// nested lists, and never erroring on malformed input — only on a violation
// of its own invariants.
//
// The driving loop shape (functional-option constructor, mode dispatch
// switch, narrow-then-recurse on every greater element) carries over a
// lexer/parser pair's usual ergonomics; what changed is what the cursor
// scans (bytes under a narrow window, not a pre-built token stream) and
// what mode means (a position in the element-mode state machine, not
// "am I inside a block").
package parser

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/rasendubi/braindump/ast"
	"github.com/rasendubi/braindump/listscan"
	"github.com/rasendubi/braindump/reader"
)

// Parser holds the parse state for a single document. It is not safe for
// concurrent use — construct one per Parse call.
type Parser struct {
	r            *reader.Reader
	buf          string
	logger       *slog.Logger
	ctx          context.Context
	todoKeywords []string
}

// Option configures a Parser via the functional-options pattern.
type Option func(*Parser)

// WithLogger overrides the structured logger that internal parser errors are
// reported to, at Error level. Default is slog.Default(). No debug-level
// tracing is emitted.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithContext wires cooperative cancellation : parseElements and
// parseObjects check ctx.Done() at the top of each iteration and abort with
// ctx.Err() if it has fired.
func WithContext(ctx context.Context) Option {
	return func(p *Parser) { p.ctx = ctx }
}

// WithTodoKeywords is the reserved configuration slot named for future use: it is
// threaded through to the config but does not yet change parse behavior. A
// future todo-state-aware keyword/planning extension would read it here.
func WithTodoKeywords(kws []string) Option {
	return func(p *Parser) { p.todoKeywords = kws }
}

// New constructs a Parser over text.
func New(text string, opts ...Option) *Parser {
	p := &Parser{
		r:      reader.New(text),
		buf:    text,
		logger: slog.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) checkCancelled() error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
		return nil
	}
}

// Parse runs the parser to completion and returns the document root.
func (p *Parser) Parse() (*ast.OrgData, error) {
	children, err := p.parseElements(ModeFirstSection, nil)
	if err != nil {
		return nil, err
	}
	root := ast.NewOrgData(0, len(p.buf))
	root.Children = children
	return root, nil
}

// parseElements drives the element-mode loop : repeatedly dispatch
// one element/greater-element at the cursor, append it, and advance mode per
// the sibling-transition table, until the visible window is exhausted.
// structure threads the enclosing list's shared descriptor vector when mode
// indicates we are inside list content (directly, or via a nested item
// body); it is nil everywhere else.
func (p *Parser) parseElements(mode Mode, structure []ast.ItemDescriptor) ([]ast.Node, error) {
	var children []ast.Node
	for !p.r.EOF() {
		if err := p.checkCancelled(); err != nil {
			return nil, err
		}
		before := p.r.Offset()

		node, err := p.parseElement(mode, structure)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, p.internalErrorf("parseElement returned no node and no error in mode %q", mode)
		}
		children = append(children, node)

		if p.r.Offset() <= before {
			return nil, p.internalErrorf("no progress in parseElements (mode=%s, produced=%s)", mode, node.Type())
		}
		mode = nextSiblingMode(mode, node.Type())
	}
	return children, nil
}

// headingAnchoredRe matches a headline's leading stars anchored at the
// cursor (not searching ahead).
var headingAnchoredRe = regexp.MustCompile(`^(?P<stars>\*+)[ \t]`)

var keywordLineRe = regexp.MustCompile(`^#\+(?P<key>[^\n:]+):[ \t]*(?P<value>[^\n]*)`)

var drawerBeginRe = regexp.MustCompile(`^:([A-Za-z_][A-Za-z0-9_-]*):[ \t]*$`)

var planningLineRe = regexp.MustCompile(`^(SCHEDULED|DEADLINE|CLOSED):[ \t]*(.*)$`)

var tableRowLineRe = regexp.MustCompile(`^[ \t]*\|`)

var nextHeadlineRe = regexp.MustCompile(`(?m)^\*+[ \t]`)

// parseElement dispatches a single element or greater element at the
// cursor, per the ordered element dispatch rules plus
// the extension constructs this parser adds on top of the core grammar.
func (p *Parser) parseElement(mode Mode, structure []ast.ItemDescriptor) (ast.Node, error) {
	switch {
	case mode == ModeItem:
		return p.parseItem(structure)
	case headingAnchoredRe.MatchString(p.r.Rest()):
		return p.parseHeadline()
	case mode == ModeSection:
		return p.parseSectionLike(ModePlanning)
	case mode == ModeFirstSection:
		return p.parseSectionLike(ModeTopComment)
	case mode == ModeTableRow:
		return p.parseTableRow()
	case mode == ModePlanning && planningLineRe.MatchString(strings.TrimRight(p.r.Line(), "\n")):
		return p.parsePlanning()
	case keywordLineRe.MatchString(p.r.Rest()):
		return p.parseKeyword()
	case isCommentLine(p.r.Line()):
		return p.parseComment()
	case drawerBeginRe.MatchString(strings.TrimSpace(strings.TrimRight(p.r.Line(), "\n"))):
		return p.parseDrawer()
	case tableRowLineRe.MatchString(p.r.Line()):
		return p.parseTable()
	case listscan.IsItemLine(p.r):
		return p.parsePlainList(structure)
	default:
		return p.parseParagraph()
	}
}

func isCommentLine(line string) bool {
	t := strings.TrimRight(line, "\n")
	if !strings.HasPrefix(t, "#") {
		return false
	}
	// "#+KEY:" is a keyword line, not a comment.
	return !strings.HasPrefix(t, "#+")
}

// parseSectionLike implements both the first-section and section dispatch
// branches: a Section spans from the cursor up to the next headline of any
// level, or to the window end. innerMode is the mode used to parse that
// span's own children.
func (p *Parser) parseSectionLike(innerMode Mode) (ast.Node, error) {
	begin := p.r.Offset()
	end := p.r.EndOffset()
	if m := p.r.Match(nextHeadlineRe); m != nil {
		end = begin + m.Index
	}

	if begin == end {
		return nil, p.internalErrorf("parseSectionLike called with empty span at offset %d", begin)
	}

	p.r.Narrow(begin, end)
	children, err := p.parseElements(innerMode, nil)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(end)
	return &ast.Section{Kind: ast.TypeSection, ContentsBegin: begin, ContentsEnd: end, Children: children}, nil
}

var (
	sameOrShallowerMu    sync.Mutex
	sameOrShallowerCache = map[int]*regexp.Regexp{}
)

func sameOrShallowerHeadingRe(level int) *regexp.Regexp {
	sameOrShallowerMu.Lock()
	defer sameOrShallowerMu.Unlock()
	if re, ok := sameOrShallowerCache[level]; ok {
		return re
	}
	re := regexp.MustCompile(`(?m)^\*{1,` + itoa(level) + `}[ \t]`)
	sameOrShallowerCache[level] = re
	return re
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// parseHeadline parses a headline.
func (p *Parser) parseHeadline() (ast.Node, error) {
	m := p.r.Match(headingAnchoredRe)
	if m == nil {
		return nil, p.internalErrorf("parseHeadline invoked without a heading at the cursor")
	}
	level := len(m.Groups["stars"])
	p.r.AdvanceMatch(m)

	line := p.r.Line()
	rawValue := strings.TrimRight(line, "\n")
	titleBegin := p.r.Offset()
	titleEnd := titleBegin + len(rawValue)

	p.r.Narrow(titleBegin, titleEnd)
	title, err := p.parseObjects(restrictTitle)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(titleBegin + len(line))

	for !p.r.EOF() {
		l := p.r.Line()
		if strings.TrimRight(l, "\n") != "" {
			break
		}
		p.r.Advance(len(l))
	}

	contentsBegin := p.r.Offset()
	contentsEnd := p.r.EndOffset()
	if m2 := p.r.Match(sameOrShallowerHeadingRe(level)); m2 != nil {
		contentsEnd = contentsBegin + m2.Index
	}

	p.r.Narrow(contentsBegin, contentsEnd)
	children, err := p.parseElements(ModeSection, nil)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(contentsEnd)

	return &ast.Headline{
		Kind:          ast.TypeHeadline,
		Level:         level,
		RawValue:      rawValue,
		Title:         title,
		ContentsBegin: contentsBegin,
		ContentsEnd:   contentsEnd,
		Children:      children,
	}, nil
}

// paragraphSeparatorRe recognizes the start of any other element — it marks
// where a paragraph, searched for starting just past its own first line,
// must end.
var paragraphSeparatorRe = regexp.MustCompile(
	`(?m)` +
		`(^[ \t]*$)` +
		`|(^\*+[ \t])` +
		`|(^[ \t]*(?:[-+*]|[0-9]+[.)])[ \t])` +
		`|(^[ \t]*:[A-Za-z_][A-Za-z0-9_-]*:[ \t]*$)` +
		`|(^#\+[^\n:]+:)` +
		`|(^#(?:[ \t]|$))` +
		`|(^[ \t]*\|)`,
)

// parseParagraph is the element-level fallback. It always
// succeeds and always consumes at least its first line, guaranteeing
// progress regardless of how malformed the remaining input is.
func (p *Parser) parseParagraph() (ast.Node, error) {
	begin := p.r.Offset()
	firstLine := p.r.Line()
	searchFrom := begin + len(firstLine)
	end := p.r.EndOffset()

	if searchFrom < end {
		save := p.r.Offset()
		p.r.ResetOffset(searchFrom)
		m := p.r.Match(paragraphSeparatorRe)
		p.r.ResetOffset(save)
		if m != nil {
			end = searchFrom + m.Index
		}
	}

	p.r.Narrow(begin, end)
	children, err := p.parseObjects(restrictDefault)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(end)

	for !p.r.EOF() {
		l := p.r.Line()
		if strings.TrimRight(l, "\n") != "" {
			break
		}
		p.r.Advance(len(l))
	}

	return &ast.Paragraph{Kind: ast.TypeParagraph, ContentsBegin: begin, ContentsEnd: end, Children: children}, nil
}

// parseKeyword implements the `#+KEY: value` extension element.
func (p *Parser) parseKeyword() (ast.Node, error) {
	m := p.r.Match(keywordLineRe)
	if m == nil {
		return p.parseParagraph()
	}
	begin := p.r.Offset()
	line := p.r.Line()
	end := begin + len(strings.TrimRight(line, "\n"))
	node := &ast.Keyword{
		Kind:          ast.TypeKeyword,
		Key:           strings.TrimSpace(m.Groups["key"]),
		Value:         m.Groups["value"],
		ContentsBegin: begin,
		ContentsEnd:   end,
	}
	p.r.Advance(len(line))
	return node, nil
}

// parseComment implements the `# ...` extension element.
func (p *Parser) parseComment() (ast.Node, error) {
	begin := p.r.Offset()
	line := p.r.Line()
	trimmed := strings.TrimRight(line, "\n")
	value := strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " ")
	end := begin + len(trimmed)
	p.r.Advance(len(line))
	return &ast.Comment{Kind: ast.TypeComment, Value: value, ContentsBegin: begin, ContentsEnd: end}, nil
}

var propertyLineRe = regexp.MustCompile(`^[ \t]*:([^:\n]+):[ \t]*(.*)$`)

// parseDrawer implements the `:NAME: ... :END:` extension greater element,
// special-casing PROPERTIES : its lines are exposed as a
// map rather than modeled as AST node children, since a node-property line
// carries no inline structure worth recursing into.
func (p *Parser) parseDrawer() (ast.Node, error) {
	line := p.r.Line()
	header := strings.TrimSpace(strings.TrimRight(line, "\n"))
	m := drawerBeginRe.FindStringSubmatch(header)
	if m == nil {
		return p.parseParagraph()
	}
	name := m[1]
	p.r.Advance(len(line))
	bodyBegin := p.r.Offset()

	if strings.EqualFold(name, "PROPERTIES") {
		props := map[string]string{}
		for !p.r.EOF() {
			l := p.r.Line()
			t := strings.TrimSpace(strings.TrimRight(l, "\n"))
			if strings.EqualFold(t, ":END:") {
				end := p.r.Offset()
				p.r.Advance(len(l))
				return &ast.Drawer{Kind: ast.TypeDrawer, Name: name, Properties: props, ContentsBegin: bodyBegin, ContentsEnd: end}, nil
			}
			if pm := propertyLineRe.FindStringSubmatch(strings.TrimRight(l, "\n")); pm != nil {
				props[pm[1]] = strings.TrimSpace(pm[2])
			}
			p.r.Advance(len(l))
		}
		// Unterminated drawer at buffer end: close it where input ran out.
		return &ast.Drawer{Kind: ast.TypeDrawer, Name: name, Properties: props, ContentsBegin: bodyBegin, ContentsEnd: p.r.Offset()}, nil
	}

	save := p.r.Offset()
	end := p.r.EndOffset()
	for !p.r.EOF() {
		l := p.r.Line()
		t := strings.TrimSpace(strings.TrimRight(l, "\n"))
		if strings.EqualFold(t, ":END:") {
			end = p.r.Offset()
			break
		}
		p.r.Advance(len(l))
	}
	endLineConsumed := !p.r.EOF()
	var endLineLen int
	if endLineConsumed {
		endLineLen = len(p.r.Line())
	}
	p.r.ResetOffset(save)

	p.r.Narrow(bodyBegin, end)
	children, err := p.parseElements(ModeDefault, nil)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(end)
	if endLineConsumed {
		p.r.Advance(endLineLen)
	}

	return &ast.Drawer{Kind: ast.TypeDrawer, Name: name, ContentsBegin: bodyBegin, ContentsEnd: end, Children: children}, nil
}

// parsePlanning implements the SCHEDULED:/DEADLINE:/CLOSED: extension
// element. It is only ever dispatched in ModePlanning (the descend mode
// entered immediately under a headline's section), so a matching line found
// anywhere else is simply never routed here.
func (p *Parser) parsePlanning() (ast.Node, error) {
	begin := p.r.Offset()
	line := p.r.Line()
	trimmed := strings.TrimRight(line, "\n")
	m := planningLineRe.FindStringSubmatch(trimmed)
	if m == nil {
		return p.parseParagraph()
	}
	end := begin + len(trimmed)
	node := &ast.Planning{Kind: ast.TypePlanning, Keyword: m[1], ContentsBegin: begin, ContentsEnd: end}
	if ts := matchTimestamp(begin, trimmed); ts != nil {
		node.Timestamp = ts
	}
	p.r.Advance(len(line))
	return node, nil
}

// parseTable implements the `| a | b |` extension greater element: it scans
// the contiguous run of pipe-led lines, then recurses in ModeTableRow to
// produce one TableRow child per line.
func (p *Parser) parseTable() (ast.Node, error) {
	begin := p.r.Offset()
	save := begin
	for !p.r.EOF() {
		line := p.r.Line()
		if !tableRowLineRe.MatchString(line) {
			break
		}
		p.r.Advance(len(line))
	}
	tableEnd := p.r.Offset()
	p.r.ResetOffset(save)

	p.r.Narrow(begin, tableEnd)
	children, err := p.parseElements(ModeTableRow, nil)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(tableEnd)

	return &ast.Table{Kind: ast.TypeTable, ContentsBegin: begin, ContentsEnd: tableEnd, Children: children}, nil
}

// parseTableRow implements one `| a | b |` row, or a `|---+---|` separator.
func (p *Parser) parseTableRow() (ast.Node, error) {
	begin := p.r.Offset()
	line := p.r.Line()
	trimmed := strings.TrimRight(line, "\n")
	end := begin + len(trimmed)
	t := strings.TrimSpace(trimmed)

	row := &ast.TableRow{Kind: ast.TypeTableRow, ContentsBegin: begin, ContentsEnd: end, IsSeparator: isTableSeparator(t)}
	if !row.IsSeparator {
		inner := strings.Trim(t, "|")
		parts := strings.Split(inner, "|")
		cells := make([]string, len(parts))
		for i, c := range parts {
			cells[i] = strings.TrimSpace(c)
		}
		row.Cells = cells
	}
	p.r.Advance(len(line))
	return row, nil
}

func isTableSeparator(t string) bool {
	if !strings.HasPrefix(t, "|") || !strings.HasSuffix(t, "|") {
		return false
	}
	inner := strings.Trim(t, "|")
	if !strings.Contains(inner, "-") {
		return false
	}
	for _, c := range inner {
		if c != '-' && c != '+' && c != ':' {
			return false
		}
	}
	return true
}

func findDescriptor(structure []ast.ItemDescriptor, begin int) int {
	for i := range structure {
		if structure[i].Begin == begin {
			return i
		}
	}
	return -1
}

func findDescriptorAt(structure []ast.ItemDescriptor, begin, indent int) int {
	for i := range structure {
		if structure[i].Begin == begin && structure[i].Indent == indent {
			return i
		}
	}
	return -1
}

// parsePlainList parses a plain list. When structure is nil, this is a fresh
// top-level (or independently nested) list: the scanner runs once and the
// resulting vector is threaded through every recursive parse of this list's
// items, including nested sublists, so they never trigger a second scan.
func (p *Parser) parsePlainList(structure []ast.ItemDescriptor) (ast.Node, error) {
	if structure == nil {
		structure = listscan.Scan(p.r)
	}

	begin := p.r.Offset()
	idx := findDescriptor(structure, begin)
	if idx < 0 {
		return nil, p.internalErrorf("parsePlainList: no structure entry at offset %d", begin)
	}
	indent := structure[idx].Indent

	cur := structure[idx].End
	for {
		next := findDescriptorAt(structure, cur, indent)
		if next < 0 {
			break
		}
		cur = structure[next].End
	}
	end := cur

	p.r.Narrow(begin, end)
	children, err := p.parseElements(ModeItem, structure)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(end)

	// The blank lines that ended the list belong to no element of their own.
	for !p.r.EOF() {
		l := p.r.Line()
		if strings.TrimSpace(l) != "" {
			break
		}
		p.r.Advance(len(l))
	}

	return &ast.PlainList{
		Kind:          ast.TypePlainList,
		Indent:        indent,
		Structure:     structure,
		ContentsBegin: begin,
		ContentsEnd:   end,
		Children:      children,
	}, nil
}

// parseItem parses a single list item. structure is required (non-nil): item mode
// is only ever entered from within a plain-list's own parse, which always
// supplies it.
func (p *Parser) parseItem(structure []ast.ItemDescriptor) (ast.Node, error) {
	begin := p.r.Offset()
	idx := findDescriptor(structure, begin)
	if idx < 0 {
		return nil, p.internalErrorf("parseItem: no structure entry at offset %d", begin)
	}
	entry := structure[idx]

	line := p.r.Line()
	bullet, _, checkbox, tag, contentOffset, ok := listscan.LineItemFields(line)
	if !ok {
		return nil, p.internalErrorf("parseItem: item line does not match the full item pattern at offset %d", begin)
	}

	contentsBegin := begin + contentOffset
	contentsEnd := entry.End
	if contentsBegin > contentsEnd {
		contentsBegin = contentsEnd
	}

	p.r.Narrow(contentsBegin, contentsEnd)
	children, err := p.parseElements(ModeDefault, structure)
	p.r.Widen(false)
	if err != nil {
		return nil, err
	}
	p.r.ResetOffset(entry.End)

	return &ast.Item{
		Kind:          ast.TypeItem,
		Indent:        entry.Indent,
		Bullet:        bullet,
		Checkbox:      checkbox,
		Tag:           tag,
		Structure:     structure,
		ContentsBegin: contentsBegin,
		ContentsEnd:   contentsEnd,
		Children:      children,
	}, nil
}
