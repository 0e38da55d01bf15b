package wikiapi

import (
	"strings"

	"github.com/skohara/wikibox/internal/wikitext"
)

// Page is one wiki page's latest revision. Source is the raw wikitext.
type Page struct {
	Title  string `json:"title"`
	PageID int64  `json:"pageid"`
	Source string `json:"source"`
}

// Templates returns a lazy finder over the page's top-level template
// invocations, optionally filtered by name (see wikitext.NewFinder for the
// accepted filter forms).
func (p *Page) Templates(filter any) (*wikitext.Finder, error) {
	return wikitext.NewFinder(p.Source, filter)
}

// Infoboxes returns the page's top-level templates whose name carries the
// Infobox prefix. Thin wrapper templates need chain resolution; see the
// infobox package.
func (p *Page) Infoboxes() ([]*wikitext.Template, error) {
	return wikitext.FindAll(p.Source, func(name string) bool {
		return strings.HasPrefix(name, "Infobox")
	})
}

// Unlink rewrites the page source with [[...]] links reduced to their
// display text.
func (p *Page) Unlink() {
	p.Source = wikitext.StripLinks(p.Source)
}
