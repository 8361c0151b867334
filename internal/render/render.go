// Package render turns parsed UI tags and text runs into terminal output.
//
// The uitag package guarantees that every tag it hands over has a known kind
// and all of that kind's attributes. Anything beyond that, including URL
// validity and whether a quiz answer is among its options, is handled here.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"uichat/internal/uitag"
)

const (
	defaultWidth = 80
	maxCardWidth = 72
)

// Cursor marks a message that is still streaming.
const Cursor = "▌"

// ─── Palette ────────────────────────────────────────────────────────────────

type palette struct {
	image  lipgloss.Color
	video  lipgloss.Color
	link   lipgloss.Color
	quiz   lipgloss.Color
	dim    lipgloss.Color
	good   lipgloss.Color
	bad    lipgloss.Color
	cursor lipgloss.Color
}

var darkPalette = palette{
	image:  lipgloss.Color("111"),
	video:  lipgloss.Color("213"),
	link:   lipgloss.Color("75"),
	quiz:   lipgloss.Color("220"),
	dim:    lipgloss.Color("242"),
	good:   lipgloss.Color("78"),
	bad:    lipgloss.Color("196"),
	cursor: lipgloss.Color("#F28C28"),
}

var lightPalette = palette{
	image:  lipgloss.Color("25"),
	video:  lipgloss.Color("127"),
	link:   lipgloss.Color("26"),
	quiz:   lipgloss.Color("130"),
	dim:    lipgloss.Color("245"),
	good:   lipgloss.Color("28"),
	bad:    lipgloss.Color("160"),
	cursor: lipgloss.Color("166"),
}

// ─── Renderer ───────────────────────────────────────────────────────────────

// Renderer draws messages at a fixed terminal width. It is not safe for
// concurrent use; the TUI owns one and rebuilds it on resize.
type Renderer struct {
	theme string
	width int
	pal   palette
	md    *glamour.TermRenderer
}

// New returns a renderer for theme ("dark" or "light") at the given width.
// A non-positive width falls back to 80 columns.
func New(theme string, width int) *Renderer {
	r := &Renderer{theme: theme, pal: darkPalette}
	if theme == "light" {
		r.pal = lightPalette
	}
	r.SetWidth(width)
	return r
}

// Width returns the current wrap width.
func (r *Renderer) Width() int { return r.width }

// SetWidth changes the wrap width and rebuilds the markdown renderer.
func (r *Renderer) SetWidth(width int) {
	if width <= 0 {
		width = defaultWidth
	}
	if width == r.width && r.md != nil {
		return
	}
	r.width = width

	// A fixed style: auto-detection queries the terminal, which races with
	// bubbletea's input reader.
	style := glamourstyles.DarkStyleConfig
	if r.theme == "light" {
		style = glamourstyles.LightStyleConfig
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.md = nil
		return
	}
	r.md = md
}

// Markdown renders a text run. It falls back to the raw text when glamour is
// unavailable or fails.
func (r *Renderer) Markdown(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// Plan draws a render plan: the text first, then each tag in order, then
// the cursor when the message is still streaming.
func (r *Renderer) Plan(p uitag.Plan) string {
	parts := make([]string, 0, len(p.Tags)+1)
	if md := r.Markdown(p.Text); md != "" {
		parts = append(parts, md)
	}
	for _, t := range p.Tags {
		parts = append(parts, r.Tag(t))
	}
	out := strings.Join(parts, "\n")
	if p.ShowCursor {
		cursor := lipgloss.NewStyle().Foreground(r.pal.cursor).Render(Cursor)
		if len(p.Tags) > 0 || out == "" {
			out += "\n" + cursor
		} else {
			out += " " + cursor
		}
	}
	return out
}

// Segments draws text runs and tags interleaved in source order.
func (r *Renderer) Segments(segs []uitag.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.IsTag() {
			parts = append(parts, r.Tag(*s.Tag))
			continue
		}
		if md := r.Markdown(s.Text); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n")
}

// ─── Tags ───────────────────────────────────────────────────────────────────

// Tag draws a single tag. A quiz is drawn unanswered.
func (r *Renderer) Tag(t uitag.Tag) string {
	switch t.Kind {
	case uitag.KindImage:
		return r.image(t)
	case uitag.KindVideo:
		return r.video(t)
	case uitag.KindLink:
		return r.link(t)
	case uitag.KindQuiz:
		return r.Quiz(t, "")
	}
	return ""
}

func (r *Renderer) image(t uitag.Tag) string {
	alt := t.Attr(uitag.AttrAlt)
	if alt == "" {
		alt = "image"
	}
	title := lipgloss.NewStyle().Foreground(r.pal.image).Bold(true).Render("🖼  " + alt)
	return r.card(r.pal.image, title, r.url(t.Attr(uitag.AttrSrc)))
}

func (r *Renderer) video(t uitag.Tag) string {
	src := t.Attr(uitag.AttrSrc)
	title := t.Attr(uitag.AttrTitle)
	if title == "" {
		title = src
	}
	embed, ok := VideoEmbedURL(src)
	if !ok {
		// Not embeddable: a plain link.
		return r.linkLine(r.pal.video, "🎥 "+title, src)
	}
	head := lipgloss.NewStyle().Foreground(r.pal.video).Bold(true).Render("▶ " + title)
	return r.card(r.pal.video, head, r.url(embed))
}

func (r *Renderer) link(t uitag.Tag) string {
	title := t.Attr(uitag.AttrTitle)
	if title == "" {
		title = t.Attr(uitag.AttrHref)
	}
	return r.linkLine(r.pal.link, "🔗 "+title, t.Attr(uitag.AttrHref))
}

func (r *Renderer) linkLine(c lipgloss.Color, label, href string) string {
	head := lipgloss.NewStyle().Foreground(c).Underline(true).Render(label)
	return head + "\n" + r.url(href)
}

// Quiz draws a quiz. When chosen is non-empty the chosen option is marked and
// the feedback line is shown.
func (r *Renderer) Quiz(t uitag.Tag, chosen string) string {
	head := lipgloss.NewStyle().Foreground(r.pal.quiz).Bold(true).Render("🧠 " + t.Attr(uitag.AttrQuestion))
	lines := []string{head}

	letter := lipgloss.NewStyle().Bold(true)
	for _, o := range QuizOptions(t) {
		line := letter.Render(o.Letter+".") + " " + o.Text
		switch {
		case chosen == "":
		case o.Text == t.Attr(uitag.AttrAnswer):
			line = lipgloss.NewStyle().Foreground(r.pal.good).Render(line + " ✓")
		case o.Text == chosen:
			line = lipgloss.NewStyle().Foreground(r.pal.bad).Render(line + " ✗")
		}
		lines = append(lines, line)
	}

	if chosen != "" {
		c := r.pal.bad
		if CheckAnswer(t, chosen) {
			c = r.pal.good
		}
		lines = append(lines, "", lipgloss.NewStyle().Foreground(c).Render(Feedback(t, chosen)))
	}
	return r.card(r.pal.quiz, lines...)
}

// ─── Layout helpers ─────────────────────────────────────────────────────────

func (r *Renderer) cardWidth() int {
	// Rounded border takes two columns.
	w := r.width - 2
	if w > maxCardWidth {
		w = maxCardWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (r *Renderer) card(border lipgloss.Color, lines ...string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(r.cardWidth()).
		Render(strings.Join(lines, "\n"))
}

// url renders a dimmed URL cut to fit one card line.
func (r *Renderer) url(u string) string {
	u = runewidth.Truncate(u, r.cardWidth()-2, "…")
	return lipgloss.NewStyle().Foreground(r.pal.dim).Render(u)
}
