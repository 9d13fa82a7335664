package parser

import (
	"regexp"
	"strings"

	"github.com/rasendubi/braindump/ast"
	"github.com/rasendubi/braindump/reader"
)

// objectKind names the closed set of object-mode dispatch targets.
type objectKind int

const (
	objText objectKind = iota
	objLink
	objEmphasis
	objTimestamp
)

// restriction is the set of object kinds legal at a given position.
// Text is implicitly always legal wherever objects are parsed at all.
type restriction map[objectKind]bool

func newRestriction(kinds ...objectKind) restriction {
	r := make(restriction, len(kinds)+1)
	r[objText] = true
	for _, k := range kinds {
		r[k] = true
	}
	return r
}

var (
	restrictDefault  = newRestriction(objLink, objEmphasis, objTimestamp) // paragraph
	restrictTitle    = newRestriction(objLink, objEmphasis)               // headline title
	restrictLinkDesc = newRestriction(objEmphasis)                        // link description: no nested links
	restrictPlanning = newRestriction(objTimestamp)                      // planning line
)

// objectStartRe is the single alternation regex the object driver uses to
// find the next candidate object anywhere ahead of the cursor. Named
// groups identify which alternative fired; classifyObjectMatch reads them
// back to decide the object kind without re-matching.
var objectStartRe = regexp.MustCompile(
	`(?P<linkBracket>\[\[)` +
		`|(?P<linkPlain>[A-Za-z][A-Za-z0-9.+\-]*:\S+)` +
		`|(?P<tsActive><\d{4}-\d{2}-\d{2}[^>\n]*>)` +
		`|(?P<tsInactive>\[\d{4}-\d{2}-\d{2}[^\]\n]*\])` +
		`|(?P<emph>[*/~=+_])`,
)

var bracketLinkRe = regexp.MustCompile(
	`^\[\[(?P<target>(?:\\.|[^\]\\])+)\](?:\[(?P<desc>(?:\\.|[^\]\\])+)\])?\]`,
)

var linkPlainRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.+\-]*:\S+`)

type emphasisInfo struct {
	marker ast.EmphasisMarker
	closer byte
}

var emphasisMarkers = map[byte]emphasisInfo{
	'*': {ast.EmphasisBold, '*'},
	'/': {ast.EmphasisItalic, '/'},
	'~': {ast.EmphasisCode, '~'},
	'=': {ast.EmphasisVerbatim, '='},
	'+': {ast.EmphasisStrikethrough, '+'},
	'_': {ast.EmphasisUnderline, '_'},
}

// classifyObjectMatch reports which object kind an objectStartRe match
// represents, based on which named group is present.
func classifyObjectMatch(m *reader.Match) (objectKind, bool) {
	switch {
	case has(m, "linkBracket"), has(m, "linkPlain"):
		return objLink, true
	case has(m, "tsActive"), has(m, "tsInactive"):
		return objTimestamp, true
	case has(m, "emph"):
		return objEmphasis, true
	default:
		return 0, false
	}
}

func has(m *reader.Match, key string) bool {
	_, ok := m.Groups[key]
	return ok
}

// parseObjects is the object-mode sibling of parseElements: it
// repeatedly finds the next recognized object ahead of the cursor, flushes
// everything before it as a Text node, dispatches to the object's own
// parser, and recovers from both malformed objects and objects forbidden by
// restriction by folding one byte back into the surrounding text run. It
// always consumes the entire visible window.
func (p *Parser) parseObjects(restriction restriction) ([]ast.Node, error) {
	var nodes []ast.Node
	runStart := p.r.Offset()

	emitText := func(end int, elideBlank bool) {
		if end <= runStart {
			runStart = end
			return
		}
		val := p.r.Substring(runStart, end)
		if elideBlank && strings.TrimSpace(val) == "" {
			runStart = end
			return
		}
		nodes = append(nodes, &ast.Text{Kind: ast.TypeText, Value: val, ContentsBegin: runStart, ContentsEnd: end})
		runStart = end
	}

	for {
		if err := p.checkCancelled(); err != nil {
			return nil, err
		}
		if p.r.EOF() {
			emitText(p.r.Offset(), true)
			return nodes, nil
		}

		before := p.r.Offset()
		m := p.r.Match(objectStartRe)
		if m == nil {
			emitText(p.r.EndOffset(), true)
			p.r.ResetOffset(p.r.EndOffset())
			return nodes, nil
		}

		matchAbs := before + m.Index
		kind, recognized := classifyObjectMatch(m)
		if !recognized || !restriction[kind] {
			p.r.Advance(m.Index + 1)
			continue
		}

		p.r.ResetOffset(matchAbs)
		node, consumed, err := p.dispatchObject(m, restriction)
		if err != nil {
			return nil, err
		}
		if !consumed {
			// The kind looked right but the object's own parser declined
			// (e.g. an unterminated bracket link): recover by treating one
			// byte as text and resuming the search just past it.
			p.r.ResetOffset(before)
			p.r.Advance(matchAbs - before + 1)
			continue
		}

		emitText(matchAbs, false)
		nodes = append(nodes, node)
		runStart = p.r.Offset()

		if p.r.Offset() <= before {
			return nil, p.internalErrorf("no progress in parseObjects")
		}
	}
}

// dispatchObject parses the object whose start m identified, with the
// cursor already positioned exactly at that start. consumed is false (node
// nil, err nil) when the object's finer-grained pattern fails to confirm
// what the coarse alternation suggested — a malformed bracket link being
// the common case.
func (p *Parser) dispatchObject(m *reader.Match, restriction restriction) (ast.Node, bool, error) {
	switch {
	case has(m, "linkBracket"):
		return p.parseBracketLink()
	case has(m, "linkPlain"):
		return p.parsePlainLink()
	case has(m, "tsActive"), has(m, "tsInactive"):
		return p.parseTimestampObject()
	case has(m, "emph"):
		return p.parseEmphasis(m.Text[0], restriction)
	default:
		return nil, false, nil
	}
}

// unescapeBrackets undoes the backslash-escaping bracketLinkRe's target
// pattern allows for literal `]` inside a link target.
func unescapeBrackets(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// parseBracketLink implements the `[[target]]` / `[[target][description]]`
// link form.
func (p *Parser) parseBracketLink() (ast.Node, bool, error) {
	m := p.r.Match(bracketLinkRe)
	if m == nil {
		return nil, false, nil
	}
	begin := p.r.Offset()
	end := begin + len(m.Text)
	target := unescapeBrackets(m.Groups["target"])
	linkType := "fuzzy"
	if idx := strings.IndexByte(target, ':'); idx >= 0 {
		linkType = target[:idx]
	}
	link := &ast.Link{Kind: ast.TypeLink, LinkType: linkType, RawLink: target, ContentsBegin: begin, ContentsEnd: end}

	if rng, ok := m.GroupRanges["desc"]; ok {
		descBegin := begin + rng[0]
		descEnd := begin + rng[1]
		p.r.Narrow(descBegin, descEnd)
		children, err := p.parseObjects(restrictLinkDesc)
		p.r.Widen(false)
		if err != nil {
			return nil, false, err
		}
		link.Children = children
	}
	p.r.ResetOffset(end)
	return link, true, nil
}

// parsePlainLink implements the bare `scheme:path` link form.
func (p *Parser) parsePlainLink() (ast.Node, bool, error) {
	m := p.r.Match(linkPlainRe)
	if m == nil {
		return nil, false, nil
	}
	begin := p.r.Offset()
	end := begin + len(m.Text)
	linkType := m.Text
	if idx := strings.IndexByte(m.Text, ':'); idx >= 0 {
		linkType = m.Text[:idx]
	}
	link := &ast.Link{Kind: ast.TypeLink, LinkType: linkType, RawLink: m.Text, ContentsBegin: begin, ContentsEnd: end}
	p.r.ResetOffset(end)
	return link, true, nil
}

// parseTimestampObject implements the timestamp object form; the active vs.
// inactive distinction is carried in the resulting node's Active field.
func (p *Parser) parseTimestampObject() (ast.Node, bool, error) {
	begin := p.r.Offset()
	ts := matchTimestamp(begin, p.r.Rest())
	if ts == nil || ts.ContentsBegin != begin {
		return nil, false, nil
	}
	p.r.ResetOffset(ts.ContentsEnd)
	return ts, true, nil
}

// parseEmphasis implements the bold/italic/code/verbatim/strikethrough/
// underline inline markers. Code and verbatim are not recursively parsed;
// every other marker recurses into parseObjects under the same restriction.
func (p *Parser) parseEmphasis(marker byte, restriction restriction) (ast.Node, bool, error) {
	info, ok := emphasisMarkers[marker]
	if !ok {
		return nil, false, nil
	}
	rest := p.r.Rest()
	if len(rest) < 3 {
		return nil, false, nil
	}
	closeIdx := strings.IndexByte(rest[1:], info.closer)
	if closeIdx <= 0 {
		return nil, false, nil
	}
	// Emphasis does not cross a blank line.
	inner := rest[1 : 1+closeIdx]
	if strings.Contains(inner, "\n\n") {
		return nil, false, nil
	}

	begin := p.r.Offset()
	end := begin + 1 + closeIdx + 1
	node := &ast.Emphasis{Kind: ast.TypeEmphasis, Marker: info.marker, ContentsBegin: begin, ContentsEnd: end}

	if ast.NonNestableEmphasis(info.marker) {
		node.Value = inner
	} else {
		p.r.Narrow(begin+1, begin+1+closeIdx)
		children, err := p.parseObjects(restriction)
		p.r.Widen(false)
		if err != nil {
			return nil, false, err
		}
		node.Children = children
	}
	p.r.ResetOffset(end)
	return node, true, nil
}
