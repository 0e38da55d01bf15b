package infobox

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/skohara/wikibox/internal/wikitext"
)

// Prefix is the template name prefix that terminates a redirect chain
// successfully.
const Prefix = "Infobox"

// PageSource supplies raw wiki source for a page title. ok is false when the
// page does not exist; a non-nil error is treated the same way by the
// resolver, which never retries.
type PageSource interface {
	Fetch(ctx context.Context, title string) (source string, ok bool, err error)
}

// Recorder observes finished resolution chains, for persistence.
type Recorder interface {
	RecordChain(ctx context.Context, names []string, isInfobox bool) error
}

// Resolver answers whether a template name ultimately resolves to an infobox
// by following each template definition page's first invocation. Negative
// outcomes are memoized in a shared NegativeCache; positive chains are
// memoized internally so repeat resolutions perform no fetches either way.
type Resolver struct {
	source   PageSource
	cache    *NegativeCache
	prefix   string
	recorder Recorder
	logger   *slog.Logger

	mu       sync.RWMutex
	positive map[string]struct{}
}

// Config holds resolver configuration.
type Config struct {
	// Source provides template definition pages. Required.
	Source PageSource

	// Cache is the shared negative cache. A fresh one is created if nil.
	Cache *NegativeCache

	// Prefix overrides the default "Infobox" target prefix.
	Prefix string

	// Recorder, when set, is told about each finished chain.
	Recorder Recorder

	// Logger for resolution traces.
	Logger *slog.Logger
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	cache := cfg.Cache
	if cache == nil {
		cache = NewNegativeCache()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = Prefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source:   cfg.Source,
		cache:    cache,
		prefix:   prefix,
		recorder: cfg.Recorder,
		logger:   logger,
		positive: make(map[string]struct{}),
	}
}

// Cache returns the resolver's negative cache.
func (r *Resolver) Cache() *NegativeCache {
	return r.cache
}

// Resolve reports whether name, possibly through a chain of template
// redirections, is an infobox template. Fetch failures, missing pages,
// template-free definition pages, and cycles all resolve to false; callers
// never see them distinguished.
func (r *Resolver) Resolve(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	visited := make(map[string]struct{})
	var chain []string

	for {
		if strings.HasPrefix(name, r.prefix) {
			r.markPositive(ctx, chain, name)
			return true
		}
		if r.isPositive(name) {
			r.markPositive(ctx, chain, name)
			return true
		}
		if r.cache.Has(name) {
			r.fail(ctx, chain)
			return false
		}
		if _, seen := visited[name]; seen {
			r.logger.Debug("template redirect cycle", "name", name)
			r.fail(ctx, chain)
			return false
		}
		visited[name] = struct{}{}
		chain = append(chain, name)

		source, ok, err := r.source.Fetch(ctx, "Template:"+name)
		if err != nil {
			r.logger.Debug("template fetch failed", "name", name, "error", err)
			ok = false
		}
		if !ok {
			r.fail(ctx, chain)
			return false
		}

		next, found := firstTemplateName(source)
		if !found {
			r.fail(ctx, chain)
			return false
		}
		r.logger.Debug("template redirect hop", "from", name, "to", next)
		name = next
	}
}

// fail records every name visited in the current chain as non-infobox.
func (r *Resolver) fail(ctx context.Context, chain []string) {
	r.cache.AddAll(chain)
	r.record(ctx, chain, false)
}

func (r *Resolver) isPositive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.positive[name]
	return ok
}

func (r *Resolver) markPositive(ctx context.Context, chain []string, final string) {
	r.mu.Lock()
	for _, name := range chain {
		r.positive[name] = struct{}{}
	}
	r.positive[final] = struct{}{}
	r.mu.Unlock()

	r.record(ctx, append(chain, final), true)
}

func (r *Resolver) record(ctx context.Context, chain []string, isInfobox bool) {
	if r.recorder == nil || len(chain) == 0 {
		return
	}
	if err := r.recorder.RecordChain(ctx, chain, isInfobox); err != nil {
		r.logger.Warn("record resolution chain failed", "chain", chain, "error", err)
	}
}

// firstTemplateName returns the name of the first top-level template
// invocation in source. Malformed source counts as no invocation.
func firstTemplateName(source string) (string, bool) {
	cur := &wikitext.Cursor{}
	sp, ok, err := wikitext.NextSpan(source, cur)
	if err != nil || !ok {
		return "", false
	}
	tmpl, err := wikitext.Parse(sp.Text(source))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(tmpl.Name()), true
}

// InfoboxesIn returns the top-level templates of source that resolve to
// infoboxes, including thin wrappers whose chain ends at the prefix. Only a
// malformed buffer produces an error.
func (r *Resolver) InfoboxesIn(ctx context.Context, source string) ([]*wikitext.Template, error) {
	finder, err := wikitext.NewFinder(source, nil)
	if err != nil {
		return nil, err
	}

	var boxes []*wikitext.Template
	for {
		tmpl, ok, err := finder.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return boxes, nil
		}
		if r.Resolve(ctx, tmpl.Name()) {
			boxes = append(boxes, tmpl)
		}
	}
}
