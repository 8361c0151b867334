package uitag

import "strings"

// Plan is what the display layer draws for a message that may still be
// streaming.
type Plan struct {
	Text       string `json:"text"`
	Tags       []Tag  `json:"tags"`
	ShowCursor bool   `json:"show_cursor"`
}

// Reconcile derives the render plan for buffer. It depends only on its
// arguments, so calling it again with the same buffer yields the same plan.
//
// While the stream is open (final == false) an unfinished tag at the tail is
// withheld from Text, and ShowCursor is set when that tail exists or when the
// trimmed buffer is non-empty and does not end with ']'. A final plan is
// exactly Parse(buffer) with the cursor off.
func Reconcile(buffer string, final bool) Plan {
	if final {
		p := Parse(buffer)
		return Plan{Text: p.Text, Tags: p.Tags}
	}

	settled := Settled(buffer)
	p := Parse(settled)

	trimmed := strings.TrimSpace(buffer)
	cursor := len(settled) < len(buffer) || (trimmed != "" && !strings.HasSuffix(trimmed, "]"))

	return Plan{Text: p.Text, Tags: p.Tags, ShowCursor: cursor}
}

// ─── Segments ───────────────────────────────────────────────────────────────

// Segment is one piece of an inline layout: either a text run or a tag.
type Segment struct {
	Text string `json:"text,omitempty"`
	Tag  *Tag   `json:"tag,omitempty"`
}

// IsTag reports whether the segment holds a tag.
func (s Segment) IsTag() bool { return s.Tag != nil }

// Segments splits s into text runs and tags in source order. Text runs are
// trimmed and blank runs dropped. Callers rendering an open stream should pass
// Settled(buffer) so an unfinished tag does not show up as text.
func Segments(s string) []Segment {
	spans := match(s)
	out := make([]Segment, 0, 2*len(spans)+1)

	addText := func(t string) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, Segment{Text: t})
		}
	}

	prev := 0
	for _, sp := range spans {
		addText(s[prev:sp.start])
		tag := sp.tag
		out = append(out, Segment{Tag: &tag})
		prev = sp.end
	}
	addText(s[prev:])
	return out
}
