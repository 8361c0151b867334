package api

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"uichat/internal/render"
	"uichat/internal/uitag"
)

const responseRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// StreamDisplay prints a streamed reply to a plain terminal for the
// non-interactive ask command. Text is printed as it settles; each tag is
// drawn once it is complete. An unfinished tag at the tail is never printed.
type StreamDisplay struct {
	out   io.Writer
	r     *render.Renderer
	debug bool

	stream uitag.Stream

	headerUp    bool
	printedText string // prefix of the plan text already written
	printedTags []uitag.Tag
	atLineStart bool
	diverged    bool // plan text stopped extending printedText
}

func NewStreamDisplay(out io.Writer, r *render.Renderer, debug bool) *StreamDisplay {
	return &StreamDisplay{out: out, r: r, debug: debug, atLineStart: true}
}

// HandleChunk is the StreamCallback for Client.Stream.
func (d *StreamDisplay) HandleChunk(chunk string) {
	plan, err := d.stream.Append(chunk)
	if err != nil {
		return
	}
	if d.debug {
		fmt.Fprintf(d.out, "\n[chunk %q cursor=%v tags=%d]\n", chunk, plan.ShowCursor, len(plan.Tags))
		d.atLineStart = true
	}
	d.apply(plan)
}

// Finish finalizes the stream and prints whatever the open plan withheld.
// When the final text no longer extends what was printed (a tag completed
// over text that had already been shown), the whole reply is printed again.
func (d *StreamDisplay) Finish() uitag.Parsed {
	final := d.stream.Finish()
	plan := uitag.Plan{Text: final.Text, Tags: final.Tags}

	if d.diverged || !strings.HasPrefix(plan.Text, d.printedText) || !d.extendsPrintedTags(plan.Tags) {
		d.reprint(plan)
	} else {
		d.apply(plan)
	}
	if d.headerUp {
		d.newline()
		fmt.Fprintln(d.out)
	}
	return final
}

// Buffer returns the raw reply received so far.
func (d *StreamDisplay) Buffer() string { return d.stream.Buffer() }

func (d *StreamDisplay) apply(plan uitag.Plan) {
	if d.diverged {
		return
	}
	if !strings.HasPrefix(plan.Text, d.printedText) || !d.extendsPrintedTags(plan.Tags) {
		d.diverged = true
		return
	}

	if delta := plan.Text[len(d.printedText):]; delta != "" {
		d.ensureHeader()
		if d.atLineStart {
			delta = strings.TrimLeft(delta, " \t")
		}
		d.write(delta)
		d.printedText = plan.Text
	}

	for _, t := range plan.Tags[len(d.printedTags):] {
		d.ensureHeader()
		d.newline()
		fmt.Fprintln(d.out, d.r.Tag(t))
		d.printedTags = append(d.printedTags, t)
		d.atLineStart = true
	}
}

func (d *StreamDisplay) reprint(plan uitag.Plan) {
	d.ensureHeader()
	d.newline()
	if d.printedText != "" || len(d.printedTags) > 0 {
		fmt.Fprintln(d.out, "  (reply re-rendered)")
	}
	d.diverged = false
	fmt.Fprint(d.out, d.r.Plan(plan))
	d.printedText = plan.Text
	d.printedTags = slices.Clone(plan.Tags)
	d.atLineStart = false
}

// extendsPrintedTags reports whether tags starts with every tag already
// printed, in the same order.
func (d *StreamDisplay) extendsPrintedTags(tags []uitag.Tag) bool {
	if len(tags) < len(d.printedTags) {
		return false
	}
	for i, t := range d.printedTags {
		if !t.Equal(tags[i]) {
			return false
		}
	}
	return true
}

func (d *StreamDisplay) ensureHeader() {
	if d.headerUp {
		return
	}
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, responseRule)
	fmt.Fprintln(d.out, "  💬 Response")
	fmt.Fprintln(d.out, responseRule)
	fmt.Fprintln(d.out)
	d.headerUp = true
	d.atLineStart = true
}

func (d *StreamDisplay) write(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(d.out, s)
	d.atLineStart = strings.HasSuffix(s, "\n")
}

func (d *StreamDisplay) newline() {
	if !d.atLineStart {
		fmt.Fprintln(d.out)
		d.atLineStart = true
	}
}
