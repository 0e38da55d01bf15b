package wikitext

import (
	"strconv"
	"strings"
)

// bracket kinds tracked while splitting. Both {{...}} templates and [[...]]
// links shield their interior pipes and equals signs from the splitter.
const (
	nestTemplate = '{'
	nestLink     = '['
)

// splitInterior splits the interior of one template span (outer delimiters
// already stripped) into the template name and its ordered parameters.
//
// An interior with no top-level pipe is all name and no parameters.
func splitInterior(interior string) (string, *Params) {
	segments := splitTop(interior)
	name := strings.TrimSpace(segments[0])

	params := NewParams()
	counter := 1
	for _, seg := range segments[1:] {
		key, value, named := splitKeyValue(seg)
		if !named || key == "" {
			key = strconv.Itoa(counter)
			counter++
		}
		params.Set(key, value)
	}
	return name, params
}

// splitTop splits text on pipe characters at nesting depth zero. Pipes inside
// nested {{...}} or [[...]] constructs are left alone. Stray close brackets
// that match nothing are treated as ordinary text.
func splitTop(text string) []string {
	var segments []string
	var nest []byte
	start := 0

	i := 0
	for i < len(text) {
		switch {
		case i+1 < len(text) && text[i] == '{' && text[i+1] == '{':
			nest = append(nest, nestTemplate)
			i += 2
		case i+1 < len(text) && text[i] == '}' && text[i+1] == '}':
			if len(nest) > 0 && nest[len(nest)-1] == nestTemplate {
				nest = nest[:len(nest)-1]
			}
			i += 2
		case i+1 < len(text) && text[i] == '[' && text[i+1] == '[':
			nest = append(nest, nestLink)
			i += 2
		case i+1 < len(text) && text[i] == ']' && text[i+1] == ']':
			if len(nest) > 0 && nest[len(nest)-1] == nestLink {
				nest = nest[:len(nest)-1]
			}
			i += 2
		case text[i] == '|' && len(nest) == 0:
			segments = append(segments, text[start:i])
			start = i + 1
			i++
		default:
			i++
		}
	}

	return append(segments, text[start:])
}

// splitKeyValue splits one parameter segment at its key/value boundary. The
// boundary is the first equals sign at nesting depth zero that occurs before
// any nested bracket construct has opened; an equals after a nested {{...}}
// or [[...]] belongs to the value. Both halves are trimmed.
func splitKeyValue(segment string) (key, value string, named bool) {
	var nest []byte
	nested := false

	i := 0
	for i < len(segment) {
		switch {
		case i+1 < len(segment) && segment[i] == '{' && segment[i+1] == '{':
			nest = append(nest, nestTemplate)
			nested = true
			i += 2
		case i+1 < len(segment) && segment[i] == '}' && segment[i+1] == '}':
			if len(nest) > 0 && nest[len(nest)-1] == nestTemplate {
				nest = nest[:len(nest)-1]
			}
			i += 2
		case i+1 < len(segment) && segment[i] == '[' && segment[i+1] == '[':
			nest = append(nest, nestLink)
			nested = true
			i += 2
		case i+1 < len(segment) && segment[i] == ']' && segment[i+1] == ']':
			if len(nest) > 0 && nest[len(nest)-1] == nestLink {
				nest = nest[:len(nest)-1]
			}
			i += 2
		case segment[i] == '=' && len(nest) == 0 && !nested:
			return strings.TrimSpace(segment[:i]), strings.TrimSpace(segment[i+1:]), true
		default:
			i++
		}
	}

	return "", strings.TrimSpace(segment), false
}
