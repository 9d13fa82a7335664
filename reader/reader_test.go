package reader

import (
	"regexp"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestOffsetAndEOF(t *testing.T) {
	r := New("abc")
	assert.Equal(t, 0, r.Offset())
	assert.True(t, !r.EOF())
	r.Advance(3)
	assert.True(t, r.EOF())
}

func TestPeekAndRest(t *testing.T) {
	r := New("hello world")
	assert.Equal(t, "hello", r.Peek(5))
	assert.Equal(t, "hello world", r.Rest())
	r.Advance(6)
	assert.Equal(t, "world", r.Rest())
}

func TestLine(t *testing.T) {
	r := New("first\nsecond")
	assert.Equal(t, "first\n", r.Line())
	r.Advance(len("first\n"))
	assert.Equal(t, "second", r.Line())
}

func TestMatchNamedGroups(t *testing.T) {
	r := New("key: value")
	re := regexp.MustCompile(`^(?P<key>\w+): (?P<value>.*)`)
	m := r.Match(re)
	assert.True(t, m != nil)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, "key", m.Groups["key"])
	assert.Equal(t, "value", m.Groups["value"])
	rng := m.GroupRanges["value"]
	assert.Equal(t, "value", r.Substring(rng[0], rng[1]))
}

func TestNarrowWidenBoundsVisibility(t *testing.T) {
	r := New("0123456789")
	r.Advance(2)
	r.Narrow(4, 7)
	assert.Equal(t, 4, r.Offset())
	assert.Equal(t, "456", r.Rest())
	assert.True(t, !r.EOF())
	r.Advance(3)
	assert.True(t, r.EOF())
	r.Widen(false)
	assert.Equal(t, 2, r.Offset())
	assert.Equal(t, "23456789", r.Rest())
}

func TestWidenPreservePosition(t *testing.T) {
	r := New("0123456789")
	r.Narrow(2, 8)
	r.Advance(3)
	r.Widen(true)
	assert.Equal(t, 5, r.Offset())
}

func TestNestedNarrow(t *testing.T) {
	r := New("0123456789")
	r.Narrow(1, 9)
	r.Narrow(3, 6)
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "345", r.Rest())
	r.Widen(false)
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, 1, r.Offset())
	r.Widen(false)
	assert.Equal(t, 0, r.Depth())
}

func TestResetOffsetOutOfWindowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic resetting offset out of window")
		}
	}()
	r := New("0123456789")
	r.Narrow(2, 5)
	r.ResetOffset(8)
}

func TestWidenWithoutNarrowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic widening without a matching narrow")
		}
	}()
	New("abc").Widen(false)
}
