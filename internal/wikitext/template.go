package wikitext

import (
	"fmt"
	"strconv"
	"strings"
)

// Template is one parsed {{name|params...}} invocation. A Template owns
// copies of its name and parameter strings and is immutable after
// construction; derived forms (StripLinks) produce new values.
type Template struct {
	name   string
	params *Params
	source string // empty when constructed via New; Source synthesizes
}

// Parse builds a Template from source text that must consist of exactly one
// balanced template span.
func Parse(source string) (*Template, error) {
	spans, err := FindSpans(source)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if len(spans) != 1 || spans[0].Start != 0 || spans[0].End != len(source) {
		return nil, fmt.Errorf("parse template: source is not a single template invocation")
	}

	name, params := splitInterior(spans[0].Interior(source))
	return &Template{name: name, params: params, source: source}, nil
}

// New builds a Template from a name and parameter set with no source text.
// Its source is synthesized on demand.
func New(name string, params *Params) *Template {
	if params == nil {
		params = NewParams()
	}
	return &Template{name: name, params: params.Clone()}
}

// parsedTemplate wraps an already-split span without re-parsing.
func parsedTemplate(source, name string, params *Params) *Template {
	return &Template{name: name, params: params, source: source}
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Source returns the original source text, or the canonical synthesized form
// when the Template was built without one. Synthesis emits a positional value
// bare when its key is the next number in strict sequence, matching the
// MediaWiki convention that sequential positional parameters carry no key.
func (t *Template) Source() string {
	if t.source != "" {
		return t.source
	}

	parts := make([]string, 0, t.params.Len()+1)
	parts = append(parts, t.name)
	positional := 0
	for _, p := range t.params.Items() {
		if p.Key == strconv.Itoa(positional+1) {
			parts = append(parts, p.Value)
			positional++
		} else {
			parts = append(parts, p.Key+"="+p.Value)
		}
	}
	return "{{" + strings.Join(parts, "|") + "}}"
}

// Get returns the value for key.
func (t *Template) Get(key string) (string, bool) {
	return t.params.Get(key)
}

// GetIndex returns the value for a positional parameter by number.
func (t *Template) GetIndex(i int) (string, bool) {
	return t.params.Get(strconv.Itoa(i))
}

// GetDefault returns the value for key, or def when absent.
func (t *Template) GetDefault(key, def string) string {
	if v, ok := t.params.Get(key); ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (t *Template) Has(key string) bool {
	return t.params.Has(key)
}

// Len returns the number of parameters.
func (t *Template) Len() int {
	return t.params.Len()
}

// Keys returns the parameter keys in order.
func (t *Template) Keys() []string {
	return t.params.Keys()
}

// Items returns the ordered key/value pairs.
func (t *Template) Items() []Param {
	return t.params.Items()
}

// Equal compares two templates by their source text, not structurally. Two
// templates with equal content but differently ordered parameters compare
// unequal; callers relying on that asymmetry include the round-trip tests.
func (t *Template) Equal(other *Template) bool {
	if other == nil {
		return false
	}
	return t.Source() == other.Source()
}

// StripLinks returns a new Template with [[...]] links in its source reduced
// to their display text. The result is re-parsed, so its parameters reflect
// the stripped values and its cached source is the stripped text.
func (t *Template) StripLinks() (*Template, error) {
	return Parse(StripLinks(t.Source()))
}

func (t *Template) String() string {
	return t.Source()
}
