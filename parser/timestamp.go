package parser

import (
	"regexp"
	"strings"

	"github.com/rasendubi/braindump/ast"
)

// timestampBodyRe recognizes both active (<...>) and inactive ([...])
// timestamps: a date, an optional day name, an optional time, an optional
// repeater (+1w, ++1w, .+1w) and an optional warning delay (-2d). It is not
// anchored: callers that need the timestamp to start exactly at a given
// offset (e.g. the object-mode path) confirm that themselves rather than
// relying on the regex, since a planning line's timestamp can start
// anywhere after the SCHEDULED:/DEADLINE:/CLOSED: keyword.
var timestampBodyRe = regexp.MustCompile(
	`[<\[](\d{4}-\d{2}-\d{2})(?:[ \t]+[A-Za-z]+)?(?:[ \t]+(\d{1,2}:\d{2}))?(?:[ \t]+(\+{1,2}\d+[hdwmy]|\.\+\d+[hdwmy]))?(?:[ \t]+(-\d+[hdwmy]))?[>\]]`,
)

// matchTimestamp searches text for a timestamp and, if found, returns an
// ast.Timestamp with ContentsBegin/ContentsEnd computed relative to
// baseOffset (the absolute offset at which text begins).
func matchTimestamp(baseOffset int, text string) *ast.Timestamp {
	loc := timestampBodyRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}
	full := text[loc[0]:loc[1]]
	sub := timestampBodyRe.FindStringSubmatch(text)
	ts := &ast.Timestamp{
		Kind:          ast.TypeTimestamp,
		Active:        strings.HasPrefix(full, "<"),
		Date:          sub[1],
		Time:          sub[2],
		Repeat:        sub[3],
		Warning:       sub[4],
		ContentsBegin: baseOffset + loc[0],
		ContentsEnd:   baseOffset + loc[1],
	}
	return ts
}
