package wikitext

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrBadFilter is returned by NewFinder for a name filter of an unsupported
// type. It is a configuration error and is reported before any scanning.
var ErrBadFilter = errors.New("unsupported name filter type")

// Finder iterates the top-level template invocations of a source buffer as a
// lazy, single-pass sequence. A Finder is not restartable once exhausted;
// construct a new one to re-scan. The scan position is exposed through
// Cursor so callers implementing pagination can rewind or skip between
// calls to Next.
type Finder struct {
	source string
	match  func(string) bool
	cursor Cursor
}

// NewFinder builds a Finder over source with an optional name filter.
//
// The filter may be:
//
//	nil               match every template
//	bool              match all (true) or none (false)
//	string            exact name match
//	[]string          membership
//	*regexp.Regexp    pattern match
//	func(string) bool arbitrary predicate
//
// Any other type is rejected with ErrBadFilter.
func NewFinder(source string, filter any) (*Finder, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	return &Finder{source: source, match: match}, nil
}

// compileFilter resolves the polymorphic filter into a single predicate.
func compileFilter(filter any) (func(string) bool, error) {
	switch v := filter.(type) {
	case nil:
		return func(string) bool { return true }, nil
	case bool:
		return func(string) bool { return v }, nil
	case string:
		return func(name string) bool { return name == v }, nil
	case []string:
		set := make(map[string]struct{}, len(v))
		for _, name := range v {
			set[name] = struct{}{}
		}
		return func(name string) bool {
			_, ok := set[name]
			return ok
		}, nil
	case *regexp.Regexp:
		return v.MatchString, nil
	case func(string) bool:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadFilter, filter)
	}
}

// Cursor returns the Finder's scan cursor. Writing Cursor().Pos between
// calls to Next moves the scan.
func (f *Finder) Cursor() *Cursor {
	return &f.cursor
}

// Next returns the next template whose name passes the filter, in
// left-to-right order of the opening delimiter. ok is false once the buffer
// is exhausted. A malformed buffer (unmatched close delimiter) surfaces
// ErrUnbalanced and ends the scan.
func (f *Finder) Next() (*Template, bool, error) {
	for {
		sp, ok, err := NextSpan(f.source, &f.cursor)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		name, params := splitInterior(sp.Interior(f.source))
		if !f.match(name) {
			continue
		}
		return parsedTemplate(sp.Text(f.source), name, params), true, nil
	}
}

// All drains the Finder and returns the remaining matches.
func (f *Finder) All() ([]*Template, error) {
	var templates []*Template
	for {
		t, ok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return templates, nil
		}
		templates = append(templates, t)
	}
}

// FindAll is a convenience wrapper that scans source in one call.
func FindAll(source string, filter any) ([]*Template, error) {
	f, err := NewFinder(source, filter)
	if err != nil {
		return nil, err
	}
	return f.All()
}
