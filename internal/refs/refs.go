// Package refs finds [[card name]] references in chat text.
package refs

import (
	"iter"
	"strings"
)

const (
	openMarker  = "[["
	closeMarker = "]]"
)

// All yields the text between each [[ and the nearest following ]], left to
// right. The sequence is lazy and can be ranged over any number of times.
//
// An opening marker followed by another [[ before its ]] is abandoned in
// favour of the later one, and a reference never crosses a line break, so
// unbalanced markers cost only their own span. [[]] yields "".
func All(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for {
			start := strings.Index(rest, openMarker)
			if start < 0 {
				return
			}
			rest = rest[start+len(openMarker):]

			end := strings.Index(rest, closeMarker)
			if end < 0 {
				return
			}
			body := rest[:end]
			if i := strings.LastIndex(body, openMarker); i >= 0 {
				// Rescan from the last opener; the close is not consumed.
				rest = rest[i:]
				continue
			}
			if i := strings.IndexByte(body, '\n'); i >= 0 {
				rest = rest[i+1:]
				continue
			}
			if !yield(body) {
				return
			}
			rest = rest[end+len(closeMarker):]
		}
	}
}

// Collect returns every reference in text.
func Collect(text string) []string {
	var refs []string
	for ref := range All(text) {
		refs = append(refs, ref)
	}
	return refs
}
