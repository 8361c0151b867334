// Package uitag extracts the inline UI tags ([image ...], [video ...], [link ...],
// [quiz ...]) that assistant replies embed in their text, and turns a growing
// stream buffer into a stable render plan.
//
// Everything here is a pure function of its input string. Callers re-derive the
// plan from the whole buffer on every chunk instead of patching previous results.
package uitag

import (
	"regexp"
	"slices"
	"strings"
)

// ─── Kinds ──────────────────────────────────────────────────────────────────

// Kind identifies one of the supported tag types.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindLink  Kind = "link"
	KindQuiz  Kind = "quiz"
)

// Kinds lists every supported kind in grammar order.
var Kinds = []Kind{KindImage, KindVideo, KindLink, KindQuiz}

// Attribute names.
const (
	AttrSrc      = "src"
	AttrAlt      = "alt"
	AttrTitle    = "title"
	AttrHref     = "href"
	AttrQuestion = "question"
	AttrOptions  = "options"
	AttrAnswer   = "answer"
)

// OptionSeparator delimits the choices inside a quiz "options" attribute.
const OptionSeparator = "|"

// ─── Grammar ────────────────────────────────────────────────────────────────

// rule binds a kind to its pattern. Capture group i holds attrs[i].
type rule struct {
	kind  Kind
	re    *regexp.Regexp
	attrs []string
}

var grammar = []rule{
	{
		kind:  KindImage,
		re:    regexp.MustCompile(`\[image\s+src="([^"]+)"\s+alt="([^"]*)"\]`),
		attrs: []string{AttrSrc, AttrAlt},
	},
	{
		kind:  KindVideo,
		re:    regexp.MustCompile(`\[video\s+src="([^"]+)"\s+title="([^"]*)"\]`),
		attrs: []string{AttrSrc, AttrTitle},
	},
	{
		kind:  KindLink,
		re:    regexp.MustCompile(`\[link\s+href="([^"]+)"\s+title="([^"]*)"\]`),
		attrs: []string{AttrHref, AttrTitle},
	},
	{
		kind:  KindQuiz,
		re:    regexp.MustCompile(`\[quiz\s+question="([^"]+)"\s+options="([^"]+)"\s+answer="([^"]+)"\]`),
		attrs: []string{AttrQuestion, AttrOptions, AttrAnswer},
	},
}

// RequiredAttrs returns the attribute names a tag of kind k always carries,
// or nil for an unknown kind.
func RequiredAttrs(k Kind) []string {
	for _, r := range grammar {
		if r.kind == k {
			return slices.Clone(r.attrs)
		}
	}
	return nil
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return RequiredAttrs(k) != nil
}

// ─── Tag ────────────────────────────────────────────────────────────────────

// Tag is a fully matched UI tag.
type Tag struct {
	Kind     Kind              `json:"kind"`
	Attrs    map[string]string `json:"attributes"`
	Position int               `json:"position"` // byte offset of '[' in the source buffer
}

// Attr returns the named attribute, or "" when absent.
func (t Tag) Attr(name string) string {
	return t.Attrs[name]
}

// Equal reports whether two tags have the same kind, position and attributes.
func (t Tag) Equal(o Tag) bool {
	if t.Kind != o.Kind || t.Position != o.Position || len(t.Attrs) != len(o.Attrs) {
		return false
	}
	for k, v := range t.Attrs {
		if ov, ok := o.Attrs[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Options splits a quiz tag's options attribute into its choices.
// It returns nil for non-quiz tags.
func (t Tag) Options() []string {
	if t.Kind != KindQuiz {
		return nil
	}
	return strings.Split(t.Attr(AttrOptions), OptionSeparator)
}

// ─── Parse ──────────────────────────────────────────────────────────────────

// Parsed is the content of a buffer with every complete tag pulled out.
type Parsed struct {
	Text string `json:"text"`
	Tags []Tag  `json:"tags"`
}

// span is one grammar match inside the source string.
type span struct {
	start, end int
	tag        Tag
}

// Parse extracts every complete tag from s. Tags come back ordered by
// position; Text is s with the matched substrings removed and the result
// trimmed. Malformed or unfinished tags are left in Text untouched.
func Parse(s string) Parsed {
	spans := match(s)

	tags := make([]Tag, 0, len(spans))
	var b strings.Builder
	b.Grow(len(s))
	prev := 0
	for _, sp := range spans {
		b.WriteString(s[prev:sp.start])
		prev = sp.end
		tags = append(tags, sp.tag)
	}
	b.WriteString(s[prev:])

	return Parsed{
		Text: strings.TrimSpace(b.String()),
		Tags: tags,
	}
}

// match runs every kind's pattern over s independently and returns the
// accepted spans ordered by start offset.
//
// Spans of different kinds can only overlap in contrived input. When they do,
// the span that ends first wins, ties going to the earlier start. Two kinds
// never share a start offset, so grammar order cannot leak into the result.
// Because a span that is already complete always ends before any span
// that needs more input, appending to s never evicts an accepted tag.
func match(s string) []span {
	if !strings.Contains(s, "[") {
		return nil
	}

	var candidates []span
	for _, r := range grammar {
		for _, loc := range r.re.FindAllStringSubmatchIndex(s, -1) {
			attrs := make(map[string]string, len(r.attrs))
			for i, name := range r.attrs {
				attrs[name] = s[loc[2*i+2]:loc[2*i+3]]
			}
			candidates = append(candidates, span{
				start: loc[0],
				end:   loc[1],
				tag:   Tag{Kind: r.kind, Attrs: attrs, Position: loc[0]},
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b span) int {
		if a.end != b.end {
			return a.end - b.end
		}
		return a.start - b.start
	})

	var accepted []span
	lastEnd := -1
	for _, c := range candidates {
		if c.start < lastEnd {
			continue
		}
		accepted = append(accepted, c)
		lastEnd = c.end
	}

	slices.SortFunc(accepted, func(a, b span) int { return a.start - b.start })
	return accepted
}
