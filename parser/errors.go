package parser

import "fmt"

// internalErrorDumpLimit bounds how much of the remaining input an
// InternalError carries, so a pathological runaway doesn't balloon a log
// line or a test failure message.
const internalErrorDumpLimit = 200

// InternalError reports a programmer-error invariant violation inside the
// parser itself: a progress-guard trip, a missing list-structure entry,
// or a dispatch branch whose own regex failed to match after already
// deciding it applied. Malformed *input* never produces an error — it
// degrades to a paragraph or text node — so an InternalError always means a
// parser bug, not a bad document.
type InternalError struct {
	Offset    int
	Msg       string
	Remaining string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("parser: internal error at offset %d: %s (remaining: %q)", e.Offset, e.Msg, e.Remaining)
}

func (p *Parser) internalErrorf(format string, args ...interface{}) error {
	rem := p.r.Rest()
	if len(rem) > internalErrorDumpLimit {
		rem = rem[:internalErrorDumpLimit] + "…"
	}
	err := &InternalError{
		Offset:    p.r.Offset(),
		Msg:       fmt.Sprintf(format, args...),
		Remaining: rem,
	}
	p.logger.Error("internal parser error", "offset", err.Offset, "msg", err.Msg)
	return err
}
