package uitag

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PartialTagStart returns the offset of the '[' that opens an unfinished tag at
// the end of s, or -1 when the tail of s does not look like one.
//
// A tail counts as unfinished when it has no ']' and is either '[' followed by a
// prefix of a kind keyword ("[", "[ima", "[quiz"), or '[' followed by a full
// keyword, whitespace and anything else ("[link href=\"ht"). This is a
// heuristic: plain text that happens to end in "[image" is held back too, which
// only delays its display until the next chunk or finalization.
func PartialTagStart(s string) int {
	from := strings.LastIndexByte(s, ']') + 1
	for i := from; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		if partialBody(s[i+1:]) {
			return i
		}
	}
	return -1
}

// HasPartialTag reports whether s ends with an unfinished tag.
func HasPartialTag(s string) bool {
	return PartialTagStart(s) >= 0
}

// Settled returns s without its unfinished trailing tag, if any.
func Settled(s string) string {
	if i := PartialTagStart(s); i >= 0 {
		return s[:i]
	}
	return s
}

func partialBody(body string) bool {
	for _, k := range Kinds {
		kw := string(k)
		if len(body) <= len(kw) {
			if strings.HasPrefix(kw, body) {
				return true
			}
			continue
		}
		if !strings.HasPrefix(body, kw) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(body[len(kw):])
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
