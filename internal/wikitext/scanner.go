// Package wikitext parses MediaWiki template invocations ({{...}} constructs)
// out of raw wiki source text.
package wikitext

import "errors"

// ErrUnbalanced is returned when a close delimiter appears while no template
// is open. The parse that hit it cannot be trusted and is abandoned.
var ErrUnbalanced = errors.New("unbalanced close delimiter in wiki source")

// Span is a half-open index range [Start, End) into a source buffer covering
// one complete, depth-balanced {{...}} invocation including its delimiters.
type Span struct {
	Start int
	End   int
}

// Interior returns the span with the outer delimiters stripped.
func (s Span) Interior(source string) string {
	return source[s.Start+2 : s.End-2]
}

// Text returns the full source slice of the span.
func (s Span) Text(source string) string {
	return source[s.Start:s.End]
}

// Cursor is an explicit scan position. Callers may read or rewrite Pos
// between calls to NextSpan to restart or skip ahead in the buffer.
type Cursor struct {
	Pos int
}

// NextSpan scans source from cur.Pos for the next top-level template span.
// The cursor is advanced past the returned span. It returns ok=false when no
// further complete span exists; an unclosed {{ is not an error, only an
// unmatched }} at depth zero is (ErrUnbalanced).
//
// Delimiters are matched as atomic two-character units: a lone { or } is
// ordinary text. Spans that open inside an already-open span are not surfaced
// here; see SubSpans for explicit recursion into an interior.
func NextSpan(source string, cur *Cursor) (Span, bool, error) {
	depth := 0
	start := -1

	i := cur.Pos
	for i < len(source)-1 {
		switch {
		case source[i] == '{' && source[i+1] == '{':
			if depth == 0 {
				start = i
			}
			depth++
			i += 2
		case source[i] == '}' && source[i+1] == '}':
			if depth == 0 {
				cur.Pos = i
				return Span{}, false, ErrUnbalanced
			}
			depth--
			if depth == 0 {
				sp := Span{Start: start, End: i + 2}
				cur.Pos = sp.End
				return sp, true, nil
			}
			i += 2
		default:
			i++
		}
	}

	cur.Pos = len(source)
	return Span{}, false, nil
}

// FindSpans returns every top-level template span in source, in order of
// their opening delimiter.
func FindSpans(source string) ([]Span, error) {
	var spans []Span
	cur := &Cursor{}
	for {
		sp, ok, err := NextSpan(source, cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			return spans, nil
		}
		spans = append(spans, sp)
	}
}

// SubSpans returns the template spans nested directly inside sp's interior.
// Indexes are relative to source, not to the interior.
func SubSpans(source string, sp Span) ([]Span, error) {
	inner, err := FindSpans(sp.Interior(source))
	if err != nil {
		return nil, err
	}
	offset := sp.Start + 2
	for i := range inner {
		inner[i].Start += offset
		inner[i].End += offset
	}
	return inner, nil
}
