package wikitext

// Param is one key/value pair of a template invocation.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered set of template parameters with unique keys.
//
// Overwriting an existing key replaces its value and moves the entry to the
// end of the sequence. MediaWiki's own behavior for repeated parameters is
// last-write-wins, and downstream consumers depend on the re-inserted entry
// appearing after everything that preceded the overwrite, so a plain ordered
// map is not a substitute.
type Params struct {
	entries []Param
	index   map[string]int
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{index: make(map[string]int)}
}

// Set inserts or overwrites key. On overwrite the old entry is removed and
// the new one appended at the end.
func (p *Params) Set(key, value string) {
	if pos, ok := p.index[key]; ok {
		p.entries = append(p.entries[:pos], p.entries[pos+1:]...)
		for k, i := range p.index {
			if i > pos {
				p.index[k] = i - 1
			}
		}
	}
	p.index[key] = len(p.entries)
	p.entries = append(p.entries, Param{Key: key, Value: value})
}

// Get returns the value for key.
func (p *Params) Get(key string) (string, bool) {
	pos, ok := p.index[key]
	if !ok {
		return "", false
	}
	return p.entries[pos].Value, true
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.index[key]
	return ok
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.entries)
}

// Keys returns the keys in sequence order.
func (p *Params) Keys() []string {
	keys := make([]string, len(p.entries))
	for i, e := range p.entries {
		keys[i] = e.Key
	}
	return keys
}

// Values returns the values in sequence order.
func (p *Params) Values() []string {
	values := make([]string, len(p.entries))
	for i, e := range p.entries {
		values[i] = e.Value
	}
	return values
}

// Items returns a copy of the ordered key/value sequence.
func (p *Params) Items() []Param {
	items := make([]Param, len(p.entries))
	copy(items, p.entries)
	return items
}

// Clone returns an independent copy of the parameter set.
func (p *Params) Clone() *Params {
	c := NewParams()
	for _, e := range p.entries {
		c.Set(e.Key, e.Value)
	}
	return c
}
