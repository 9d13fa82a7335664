// Package listscan implements the list structure scanner: a single forward
// pre-pass over a plain-list region that catalogs every item (at every
// nesting depth) into a flat, begin-offset-sorted vector of ast.ItemDescriptor
// values. The recursive parser consumes this vector afterward to build
// correctly nested list/item trees without re-scanning.
//
// The scanner is called once per top-level list; the resulting slice is
// then threaded by reference through every recursive parse of that list's
// items, including nested sublists, so a nested list never triggers a
// second scan of bytes the first scan already covered.
package listscan

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rasendubi/braindump/ast"
	"github.com/rasendubi/braindump/reader"
)

// bulletRe recognizes the start of an item line: optional leading
// whitespace, then a bullet (-, +, *) or an ordered counter (N. or N)),
// followed by whitespace or end of line.
var bulletRe = regexp.MustCompile(`^([ \t]*)([-+*]|([0-9]+)[.)])([ \t]+|$)`)

// checkboxRe matches a checkbox marker immediately following the bullet.
var checkboxRe = regexp.MustCompile(`^\[([ Xx-])\][ \t]*`)

// tagRe matches a descriptive-list tag ("term :: description").
var tagRe = regexp.MustCompile(`^(.*?)[ \t]::(?:[ \t]+|$)`)

// blankLineRe matches a line containing only whitespace (and its newline).
var blankLineRe = regexp.MustCompile(`^[ \t]*\n?$`)

// IsItemLine reports whether the line at the reader's cursor begins a list
// item, without moving the cursor.
func IsItemLine(r *reader.Reader) bool {
	return bulletRe.MatchString(strings.TrimRight(r.Line(), "\n"))
}

// checkboxFromMarker maps a checkbox marker character to its Checkbox value.
func checkboxFromMarker(s string) ast.Checkbox {
	switch s {
	case "X", "x":
		return ast.CheckboxOn
	case "-":
		return ast.CheckboxTrans
	default:
		return ast.CheckboxOff
	}
}

// LineItemFields extracts the bullet, counter, checkbox and descriptive tag
// from an item line, along with the byte offset within line at which the
// item's own content begins (past the bullet and any checkbox/tag). ok is
// false if line does not begin a list item.
func LineItemFields(line string) (bullet, counter string, checkbox *ast.Checkbox, tag string, contentOffset int, ok bool) {
	trimmed := strings.TrimRight(line, "\n")
	loc := bulletRe.FindStringSubmatchIndex(trimmed)
	if loc == nil {
		return "", "", nil, "", 0, false
	}
	bullet = trimmed[loc[4]:loc[5]]
	if loc[6] >= 0 {
		counter = trimmed[loc[6]:loc[7]]
	}
	contentOffset = loc[1]
	rest := trimmed[contentOffset:]

	if cm := checkboxRe.FindStringSubmatch(rest); cm != nil {
		cb := checkboxFromMarker(cm[1])
		checkbox = &cb
		contentOffset += len(cm[0])
		rest = rest[len(cm[0]):]
	}
	if tm := tagRe.FindStringSubmatch(rest); tm != nil {
		tag = strings.TrimSpace(tm[1])
		contentOffset += len(tm[0])
	}
	return bullet, counter, checkbox, tag, contentOffset, true
}

func indentOf(trimmedLine string) int {
	return len(trimmedLine) - len(strings.TrimLeft(trimmedLine, " \t"))
}

func isBlank(line string) bool {
	return blankLineRe.MatchString(line)
}

// peekLineAt returns the line starting at the given absolute offset, bounded
// by the reader's current visible end, without moving the cursor.
func peekLineAt(r *reader.Reader, offset int) string {
	if offset >= r.EndOffset() {
		return ""
	}
	s := r.Substring(offset, r.EndOffset())
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i+1]
	}
	return s
}

// Scan computes the flat, begin-offset-sorted structure of the list (and any
// nested sublists) beginning at the reader's cursor, then restores the
// cursor to its original position. The cursor must sit at the start of an
// item line when Scan is called.
func Scan(r *reader.Reader) []ast.ItemDescriptor {
	start := r.Offset()
	defer r.ResetOffset(start)

	var open []ast.ItemDescriptor
	var closed []ast.ItemDescriptor

	closeFrom := func(indent, pos int) {
		for len(open) > 0 && open[len(open)-1].Indent >= indent {
			it := open[len(open)-1]
			open = open[:len(open)-1]
			it.End = pos
			closed = append(closed, it)
		}
	}

	for !r.EOF() {
		line := r.Line()

		if isBlank(line) {
			after := r.Offset() + len(line)
			next := peekLineAt(r, after)
			if after >= r.EndOffset() || isBlank(next) {
				// Two consecutive blanks, or a single trailing blank at the
				// end of the window: the list ends here, excluding the
				// blank line(s) from every open item's contents range.
				break
			}
			r.Advance(len(line))
			continue
		}

		trimmed := strings.TrimRight(line, "\n")
		indent := indentOf(trimmed)

		if bulletRe.MatchString(trimmed) {
			closeFrom(indent, r.Offset())
			bullet, counter, checkbox, tag, _, _ := LineItemFields(line)
			open = append(open, ast.ItemDescriptor{
				Begin:    r.Offset(),
				Indent:   indent,
				Bullet:   bullet,
				Counter:  counter,
				Checkbox: checkbox,
				Tag:      tag,
			})
			r.Advance(len(line))
			continue
		}

		// Continuation line. Any open item indented at or past this line's
		// indent has ended; what remains open (if anything) still contains
		// this line as part of its own paragraph/sublist content.
		if len(open) == 0 {
			break
		}
		closeFrom(indent, r.Offset())
		if len(open) == 0 {
			break
		}
		r.Advance(len(line))
	}

	final := r.Offset()
	for _, it := range open {
		it.End = final
		closed = append(closed, it)
	}

	sort.Slice(closed, func(i, j int) bool { return closed[i].Begin < closed[j].Begin })
	return closed
}
