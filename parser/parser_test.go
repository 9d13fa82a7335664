package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/rasendubi/braindump/ast"
)

func mustParse(t *testing.T, src string) *ast.OrgData {
	t.Helper()
	doc, err := New(src).Parse()
	assert.NoError(t, err)
	return doc
}

// firstSection returns the Section wrapping doc's leading, pre-headline
// content. Any content before the first headline (or the whole document,
// if it has no headlines at all) is always wrapped in exactly one Section,
// so tests that only care about that content unwrap it here rather than
// indexing doc.Children directly.
func firstSection(t *testing.T, doc *ast.OrgData) *ast.Section {
	t.Helper()
	assert.True(t, len(doc.Children) >= 1)
	section, ok := doc.Children[0].(*ast.Section)
	assert.True(t, ok)
	return section
}

func TestParseEmptyDocument(t *testing.T) {
	doc := mustParse(t, "")
	assert.Equal(t, 0, len(doc.Children))
}

func TestParseBareParagraph(t *testing.T) {
	doc := mustParse(t, "hello world\n")
	assert.Equal(t, 1, len(doc.Children))
	section := firstSection(t, doc)
	assert.Equal(t, 1, len(section.Children))
	p, ok := section.Children[0].(*ast.Paragraph)
	assert.True(t, ok)
	assert.Equal(t, 1, len(p.Children))
	text, ok := p.Children[0].(*ast.Text)
	assert.True(t, ok)
	assert.Equal(t, "hello world\n", text.Value)
}

func TestParseHeadlineWithoutSection(t *testing.T) {
	doc := mustParse(t, "* Hello\n")
	assert.Equal(t, 1, len(doc.Children))
	h, ok := doc.Children[0].(*ast.Headline)
	assert.True(t, ok)
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, "Hello", h.RawValue)
	assert.Equal(t, 0, len(h.Children))
}

func TestParseHeadlineWithSectionAndChild(t *testing.T) {
	src := "* Parent\nbody text\n** Child\nchild body\n"
	doc := mustParse(t, src)
	assert.Equal(t, 1, len(doc.Children))
	parent := doc.Children[0].(*ast.Headline)
	assert.Equal(t, 1, parent.Level)
	assert.Equal(t, 2, len(parent.Children))

	section, ok := parent.Children[0].(*ast.Section)
	assert.True(t, ok)
	assert.Equal(t, 1, len(section.Children))
	assert.Equal(t, ast.TypeParagraph, section.Children[0].Type())

	child := parent.Children[1].(*ast.Headline)
	assert.Equal(t, 2, child.Level)
	assert.Equal(t, "Child", child.RawValue)
}

func TestParseSameLevelHeadlinesAreSiblings(t *testing.T) {
	doc := mustParse(t, "* One\n* Two\n* Three\n")
	assert.Equal(t, 3, len(doc.Children))
	for i, raw := range []string{"One", "Two", "Three"} {
		h := doc.Children[i].(*ast.Headline)
		assert.Equal(t, raw, h.RawValue)
	}
}

func TestParseFirstSectionPrecedesHeadlines(t *testing.T) {
	doc := mustParse(t, "intro text\n* Hello\n")
	assert.Equal(t, 2, len(doc.Children))
	section := firstSection(t, doc)
	assert.Equal(t, ast.TypeParagraph, section.Children[0].Type())
	assert.Equal(t, "Hello", doc.Children[1].(*ast.Headline).RawValue)
}

func TestParseNestedPlainList(t *testing.T) {
	src := "- there\n  - nested\n  - list\n- sibling\n"
	doc := mustParse(t, src)
	assert.Equal(t, 1, len(doc.Children))
	section := firstSection(t, doc)
	assert.Equal(t, 1, len(section.Children))
	list := section.Children[0].(*ast.PlainList)
	assert.Equal(t, 2, len(list.Children))

	there := list.Children[0].(*ast.Item)
	assert.Equal(t, 2, len(there.Children))
	assert.Equal(t, ast.TypeParagraph, there.Children[0].Type())
	nested := there.Children[1].(*ast.PlainList)
	assert.Equal(t, 2, len(nested.Children))
	assert.Equal(t, 2, nested.Indent)

	sibling := list.Children[1].(*ast.Item)
	assert.Equal(t, 0, sibling.Indent)
}

func TestParseItemCheckboxAndTag(t *testing.T) {
	doc := mustParse(t, "- [X] term :: done thing\n")
	section := firstSection(t, doc)
	list := section.Children[0].(*ast.PlainList)
	item := list.Children[0].(*ast.Item)
	assert.True(t, item.Checkbox != nil && *item.Checkbox == ast.CheckboxOn)
	assert.Equal(t, "term", item.Tag)
}

func TestParseOrderedListCounter(t *testing.T) {
	doc := mustParse(t, "1. first\n2. second\n")
	section := firstSection(t, doc)
	list := section.Children[0].(*ast.PlainList)
	assert.Equal(t, 2, len(list.Children))
	assert.Equal(t, "1.", list.Children[0].(*ast.Item).Bullet)
}

func TestParseBracketLinkWithDescription(t *testing.T) {
	doc := mustParse(t, "see [[https://example.com][the *site*]] now\n")
	section := firstSection(t, doc)
	p := section.Children[0].(*ast.Paragraph)
	var link *ast.Link
	for _, c := range p.Children {
		if l, ok := c.(*ast.Link); ok {
			link = l
		}
	}
	assert.True(t, link != nil)
	assert.Equal(t, "https://example.com", link.RawLink)
	assert.Equal(t, "https", link.LinkType)
	assert.Equal(t, 2, len(link.Children))
	emph, ok := link.Children[1].(*ast.Emphasis)
	assert.True(t, ok)
	assert.Equal(t, ast.EmphasisBold, emph.Marker)
}

func TestParsePlainLink(t *testing.T) {
	doc := mustParse(t, "hello http://example.com blah\n")
	section := firstSection(t, doc)
	p := section.Children[0].(*ast.Paragraph)
	assert.Equal(t, 3, len(p.Children))
	assert.Equal(t, "hello ", p.Children[0].(*ast.Text).Value)
	link := p.Children[1].(*ast.Link)
	assert.Equal(t, "http://example.com", link.RawLink)
	assert.Equal(t, " blah\n", p.Children[2].(*ast.Text).Value)
}

func TestParseEmphasisNestingAndNonNestable(t *testing.T) {
	doc := mustParse(t, "a /italic ~code~ end/ done\n")
	section := firstSection(t, doc)
	p := section.Children[0].(*ast.Paragraph)
	var italic *ast.Emphasis
	for _, c := range p.Children {
		if e, ok := c.(*ast.Emphasis); ok {
			italic = e
		}
	}
	assert.True(t, italic != nil)
	assert.Equal(t, ast.EmphasisItalic, italic.Marker)
	var code *ast.Emphasis
	for _, c := range italic.Children {
		if e, ok := c.(*ast.Emphasis); ok {
			code = e
		}
	}
	assert.True(t, code != nil)
	assert.Equal(t, ast.EmphasisCode, code.Marker)
	assert.Equal(t, "code", code.Value)
	assert.Equal(t, 0, len(code.Children))
}

func TestParseTimestampObject(t *testing.T) {
	doc := mustParse(t, "due <2024-01-01 Mon 10:00> today\n")
	section := firstSection(t, doc)
	p := section.Children[0].(*ast.Paragraph)
	var ts *ast.Timestamp
	for _, c := range p.Children {
		if v, ok := c.(*ast.Timestamp); ok {
			ts = v
		}
	}
	assert.True(t, ts != nil)
	assert.True(t, ts.Active)
	assert.Equal(t, "2024-01-01", ts.Date)
	assert.Equal(t, "10:00", ts.Time)
}

func TestParseInactiveTimestamp(t *testing.T) {
	doc := mustParse(t, "logged [2024-01-01 Mon]\n")
	section := firstSection(t, doc)
	p := section.Children[0].(*ast.Paragraph)
	ts := p.Children[1].(*ast.Timestamp)
	assert.True(t, !ts.Active)
}

func TestParseKeywordAndComment(t *testing.T) {
	doc := mustParse(t, "#+TITLE: My Doc\n# a remark\n")
	assert.Equal(t, 1, len(doc.Children))
	section := firstSection(t, doc)
	assert.Equal(t, 2, len(section.Children))
	kw := section.Children[0].(*ast.Keyword)
	assert.Equal(t, "TITLE", kw.Key)
	assert.Equal(t, "My Doc", kw.Value)
	c := section.Children[1].(*ast.Comment)
	assert.Equal(t, "a remark", c.Value)
}

func TestParsePropertiesDrawer(t *testing.T) {
	src := "* Task\n:PROPERTIES:\n:ID: abc-123\n:END:\nbody\n"
	doc := mustParse(t, src)
	h := doc.Children[0].(*ast.Headline)
	section := h.Children[0].(*ast.Section)
	drawer := section.Children[0].(*ast.Drawer)
	assert.Equal(t, "PROPERTIES", drawer.Name)
	assert.Equal(t, "abc-123", drawer.Properties["ID"])
	assert.Equal(t, ast.TypeParagraph, section.Children[1].Type())
}

func TestParsePlanningLine(t *testing.T) {
	src := "* Task\nSCHEDULED: <2024-01-01 Mon>\nbody\n"
	doc := mustParse(t, src)
	h := doc.Children[0].(*ast.Headline)
	section := h.Children[0].(*ast.Section)
	planning := section.Children[0].(*ast.Planning)
	assert.Equal(t, "SCHEDULED", planning.Keyword)
	assert.True(t, planning.Timestamp != nil)
	assert.Equal(t, "2024-01-01", planning.Timestamp.Date)
}

func TestParsePlanningOnlyRecognizedImmediatelyUnderHeadline(t *testing.T) {
	src := "* Task\nbody\nSCHEDULED: <2024-01-01 Mon>\n"
	doc := mustParse(t, src)
	h := doc.Children[0].(*ast.Headline)
	section := h.Children[0].(*ast.Section)
	// Once the section's mode has moved off planning, a later
	// SCHEDULED:-looking line is ordinary paragraph text: it continues the
	// "body" paragraph instead of starting a planning element.
	assert.Equal(t, 1, len(section.Children))
	assert.Equal(t, ast.TypeParagraph, section.Children[0].Type())
}

func TestParseTable(t *testing.T) {
	src := "| a | b |\n|---+---|\n| 1 | 2 |\n"
	doc := mustParse(t, src)
	section := firstSection(t, doc)
	table := section.Children[0].(*ast.Table)
	assert.Equal(t, 3, len(table.Children))
	row0 := table.Children[0].(*ast.TableRow)
	assert.Equal(t, []string{"a", "b"}, row0.Cells)
	sep := table.Children[1].(*ast.TableRow)
	assert.True(t, sep.IsSeparator)
	row2 := table.Children[2].(*ast.TableRow)
	assert.Equal(t, []string{"1", "2"}, row2.Cells)
}

func TestParseTableRowsMayVaryInCellCount(t *testing.T) {
	src := "| a | b | c |\n| 1 |\n"
	doc := mustParse(t, src)
	section := firstSection(t, doc)
	table := section.Children[0].(*ast.Table)
	assert.Equal(t, 3, len(table.Children[0].(*ast.TableRow).Cells))
	assert.Equal(t, 1, len(table.Children[1].(*ast.TableRow).Cells))
}

func TestParseMalformedBracketLinkDegradesToText(t *testing.T) {
	doc := mustParse(t, "see [[unterminated\n")
	section := firstSection(t, doc)
	p := section.Children[0].(*ast.Paragraph)
	assert.Equal(t, 1, len(p.Children))
	text := p.Children[0].(*ast.Text)
	assert.Equal(t, "see [[unterminated\n", text.Value)
}

func TestParseDoubleBlankLineEndsList(t *testing.T) {
	src := "- one\n- two\n\n\nnot a list\n"
	doc := mustParse(t, src)
	assert.Equal(t, 1, len(doc.Children))
	section := firstSection(t, doc)
	assert.Equal(t, 2, len(section.Children))
	assert.Equal(t, ast.TypePlainList, section.Children[0].Type())
	assert.Equal(t, ast.TypeParagraph, section.Children[1].Type())
}

func TestParseContentsRangesAreNonOverlappingAndOrdered(t *testing.T) {
	doc := mustParse(t, "* A\nbody one\n* B\nbody two\n")
	var walk func([]ast.Node)
	walk = func(nodes []ast.Node) {
		prevEnd := -1
		for _, n := range nodes {
			assert.True(t, n.Begin() <= n.End())
			assert.True(t, n.Begin() >= prevEnd)
			prevEnd = n.End()
			switch v := n.(type) {
			case *ast.Headline:
				walk(v.Children)
			case *ast.Section:
				walk(v.Children)
			case *ast.Paragraph:
				walk(v.Children)
			}
		}
	}
	walk(doc.Children)
}

func TestParseRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("* Hello\nbody\n", WithContext(ctx)).Parse()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseRespectsContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, err := New("* Hello\nbody\n", WithContext(ctx)).Parse()
	assert.Error(t, err)
}
