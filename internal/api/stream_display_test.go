package api

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uichat/internal/render"
	"uichat/internal/uitag"
)

func newTestDisplay() (*StreamDisplay, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewStreamDisplay(&buf, render.New("dark", 80), false), &buf
}

func feed(d *StreamDisplay, s string) {
	for _, r := range s {
		d.HandleChunk(string(r))
	}
}

func TestStreamDisplayTextOnly(t *testing.T) {
	d, buf := newTestDisplay()

	d.HandleChunk("Hello ")
	d.HandleChunk("world")
	final := d.Finish()

	assert.Equal(t, "Hello world", final.Text)
	out := buf.String()
	assert.Contains(t, out, "💬 Response")
	assert.Contains(t, out, "Hello world")
	assert.Equal(t, 1, strings.Count(out, "Hello"))
}

func TestStreamDisplayNeverPrintsPartialTag(t *testing.T) {
	d, buf := newTestDisplay()

	d.HandleChunk("Look ")
	d.HandleChunk(`[link href="https://a.test" ti`)
	assert.NotContains(t, buf.String(), "[link", "partial tag leaked mid-stream")

	d.HandleChunk(`tle="A"] done`)
	final := d.Finish()

	out := buf.String()
	assert.NotContains(t, out, "[link")
	assert.Contains(t, out, "🔗 A")
	assert.Contains(t, out, "done")
	require.Len(t, final.Tags, 1)
}

func TestStreamDisplayCharByChar(t *testing.T) {
	d, buf := newTestDisplay()

	feed(d, `Intro [image src="https://x.test/a.png" alt="cat"] outro`)
	final := d.Finish()

	out := buf.String()
	assert.NotContains(t, out, "[image")
	assert.Equal(t, 1, strings.Count(out, "cat"))
	assert.Less(t, strings.Index(out, "Intro"), strings.Index(out, "cat"))
	assert.Less(t, strings.Index(out, "cat"), strings.Index(out, "outro"))
	assert.Equal(t, "Intro  outro", final.Text)
}

func TestStreamDisplayUnfinishedTagAtEndIsLiteral(t *testing.T) {
	d, buf := newTestDisplay()

	d.HandleChunk("Hello [ima")
	assert.NotContains(t, buf.String(), "[ima")

	final := d.Finish()
	assert.Equal(t, "Hello [ima", final.Text)
	assert.Contains(t, buf.String(), "[ima")
}

func TestStreamDisplayReprintsOnDivergence(t *testing.T) {
	d, buf := newTestDisplay()

	// The ']' inside the href hides the open tag from the partial detector,
	// so its prefix is shown as text until the tag completes.
	d.HandleChunk(`See [link href="https://x.test/?a[0]`)
	assert.Contains(t, buf.String(), "[link")

	d.HandleChunk(`=1" title="X"]`)
	final := d.Finish()

	require.Len(t, final.Tags, 1)
	assert.Equal(t, "See", final.Text)
	assert.Contains(t, buf.String(), "re-rendered")
	assert.Contains(t, buf.String(), "🔗 X")
}

func TestExtendsPrintedTags(t *testing.T) {
	one := uitag.Parse(`[link href="h" title="one"]`).Tags[0]
	two := uitag.Parse(`[link href="h" title="two"]`).Tags[0]
	img := uitag.Parse(`[image src="a.png" alt="x"]`).Tags[0]

	tests := []struct {
		name    string
		printed []uitag.Tag
		tags    []uitag.Tag
		want    bool
	}{
		{"nothing printed", nil, []uitag.Tag{one}, true},
		{"same tags", []uitag.Tag{one}, []uitag.Tag{one}, true},
		{"one more", []uitag.Tag{one}, []uitag.Tag{one, img}, true},
		{"fewer", []uitag.Tag{one, img}, []uitag.Tag{one}, false},
		{"same count, different tag", []uitag.Tag{one}, []uitag.Tag{two}, false},
		{"new tag ahead of printed one", []uitag.Tag{one}, []uitag.Tag{img, one}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &StreamDisplay{printedTags: tt.printed}
			assert.Equal(t, tt.want, d.extendsPrintedTags(tt.tags))
		})
	}
}

func TestStreamDisplayReprintsWhenPrintedTagDiffers(t *testing.T) {
	d, buf := newTestDisplay()
	d.HandleChunk(`A [link href="h" title="one"] B`)
	require.Len(t, d.printedTags, 1)

	// Same number of tags as the final reply, but not the one on screen.
	d.printedTags[0] = uitag.Parse(`[link href="h" title="other"]`).Tags[0]
	d.Finish()

	assert.Contains(t, buf.String(), "re-rendered")
	assert.Equal(t, 2, strings.Count(buf.String(), "🔗 one"))
}

func TestStreamDisplayEmptyReply(t *testing.T) {
	d, buf := newTestDisplay()
	final := d.Finish()

	assert.Empty(t, final.Text)
	assert.Empty(t, buf.String())
}

func TestStreamDisplayIgnoresChunksAfterFinish(t *testing.T) {
	d, buf := newTestDisplay()
	d.HandleChunk("one")
	d.Finish()
	before := buf.String()

	d.HandleChunk("two")
	assert.Equal(t, before, buf.String())
	assert.Equal(t, "one", d.Buffer())
}
