package wikitext

import "regexp"

// linkPattern matches [[target]] and [[target|alias]] wiki links.
var linkPattern = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)

// StripLinks replaces every [[target|alias]] link in source with its alias,
// and every [[target]] link with its target.
func StripLinks(source string) string {
	return linkPattern.ReplaceAllStringFunc(source, func(match string) string {
		m := linkPattern.FindStringSubmatch(match)
		if m[2] != "" {
			return m[2]
		}
		return m[1]
	})
}
