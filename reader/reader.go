// Package reader implements the cursor abstraction the parser drives: a
// position over an immutable text buffer, cheap regex matching anchored at
// that position, and a LIFO stack of "narrow" windows recursive subparses
// use to bound themselves to the byte range they own.
//
// The position/readPosition bookkeeping is the familiar shape from a
// rune-at-a-time lexer; here it is repurposed to expose a window stack
// instead of a token stream, since the parser scans the same bytes under
// several different moods (element mode vs. object mode) rather than
// tokenizing once up front.
package reader

import (
	"fmt"
	"regexp"
	"strings"
)

// window is a saved view: the visible range in effect before a Narrow call,
// and the cursor position to restore on a non-preserving Widen.
type window struct {
	begin, end  int
	savedOffset int
}

// Reader is a cursor over buf. offset always lies in [begin, end]; begin/end
// track the top of the narrow stack (or the whole buffer, absent any narrow).
type Reader struct {
	buf    string
	offset int
	begin  int
	end    int
	stack  []window
}

// New returns a Reader positioned at the start of buf with no narrowing in
// effect.
func New(buf string) *Reader {
	return &Reader{buf: buf, begin: 0, end: len(buf)}
}

// Offset returns the current absolute position.
func (r *Reader) Offset() int { return r.offset }

// EndOffset returns the current visible end: the top of the narrow stack,
// or the buffer length if the stack is empty.
func (r *Reader) EndOffset() int { return r.end }

// BeginOffset returns the current visible start.
func (r *Reader) BeginOffset() int { return r.begin }

// EOF reports whether the cursor has reached the visible end.
func (r *Reader) EOF() bool { return r.offset >= r.end }

// Peek returns up to n visible bytes starting at the cursor.
func (r *Reader) Peek(n int) string {
	end := r.offset + n
	if end > r.end {
		end = r.end
	}
	return r.buf[r.offset:end]
}

// Rest returns every visible byte from the cursor to the window end.
func (r *Reader) Rest() string {
	return r.buf[r.offset:r.end]
}

// Line returns the bytes from the cursor through the next newline
// inclusive, or through the visible end if no newline remains.
func (r *Reader) Line() string {
	rest := r.Rest()
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i+1]
	}
	return rest
}

// Match is the result of a successful Reader.Match call.
type Match struct {
	// Index is the offset of the match's start within the visible slice
	// (zero when the regexp is anchored with ^).
	Index int
	// Text is the full matched substring.
	Text string
	// Groups holds named capture groups present in the match.
	Groups map[string]string
	// GroupRanges holds the [start,end) byte range of each named group
	// present in the match, relative to the same visible slice as Index.
	GroupRanges map[string][2]int

	length int
}

// Match attempts re against the slice from the cursor to the visible end,
// returning the first match found or nil. Multi-line mode and anchoring are
// the caller's responsibility via regexp construction (e.g. a leading `^`
// compiled without (?m) matches only at the cursor itself).
func (r *Reader) Match(re *regexp.Regexp) *Match {
	rest := r.Rest()
	loc := re.FindStringSubmatchIndex(rest)
	if loc == nil {
		return nil
	}
	var groups map[string]string
	var ranges map[string][2]int
	names := re.SubexpNames()
	for i, name := range names {
		if name == "" || 2*i+1 >= len(loc) || loc[2*i] < 0 {
			continue
		}
		if groups == nil {
			groups = make(map[string]string, len(names))
			ranges = make(map[string][2]int, len(names))
		}
		groups[name] = rest[loc[2*i]:loc[2*i+1]]
		ranges[name] = [2]int{loc[2*i], loc[2*i+1]}
	}
	return &Match{
		Index:       loc[0],
		Text:        rest[loc[0]:loc[1]],
		Groups:      groups,
		GroupRanges: ranges,
		length:      loc[1] - loc[0],
	}
}

// Advance moves the cursor forward by n bytes, clamped to the visible end.
func (r *Reader) Advance(n int) {
	r.offset += n
	if r.offset > r.end {
		r.offset = r.end
	}
	if r.offset < r.begin {
		r.offset = r.begin
	}
}

// AdvanceMatch moves the cursor past m (to offset + m.Index + len(m.Text)).
// A nil m is a no-op.
func (r *Reader) AdvanceMatch(m *Match) {
	if m == nil {
		return
	}
	r.Advance(m.Index + m.length)
}

// ResetOffset sets the cursor to an absolute offset, which must lie within
// the current window.
func (r *Reader) ResetOffset(abs int) {
	if abs < r.begin || abs > r.end {
		panic(fmt.Sprintf("reader: resetOffset %d outside window [%d,%d)", abs, r.begin, r.end))
	}
	r.offset = abs
}

// Substring returns buf[a:b], ignoring the current window — callers use
// this to read back text they have already located, e.g. item content.
func (r *Reader) Substring(a, b int) string {
	return r.buf[a:b]
}

// Narrow pushes the current window and cursor, then restricts visibility to
// [begin, end) with the cursor repositioned to begin.
func (r *Reader) Narrow(begin, end int) {
	r.stack = append(r.stack, window{begin: r.begin, end: r.end, savedOffset: r.offset})
	r.begin = begin
	r.end = end
	r.offset = begin
}

// Widen pops the most recent Narrow. By default the cursor is restored to
// the value it held at the time of that Narrow call; pass true to instead
// keep the cursor's current position (translated into the restored window).
func (r *Reader) Widen(preservePosition bool) {
	if len(r.stack) == 0 {
		panic("reader: widen called without a matching narrow")
	}
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	cur := r.offset
	r.begin = top.begin
	r.end = top.end
	if preservePosition {
		r.offset = cur
	} else {
		r.offset = top.savedOffset
	}
}

// Depth reports how many Narrow calls are currently unmatched by a Widen.
// Tests use it to check that the LIFO discipline is respected; the parser
// itself does not call it.
func (r *Reader) Depth() int { return len(r.stack) }
