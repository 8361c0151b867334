// Command tagpreview draws one sample of every UI tag kind, in both themes,
// for checking card styles in a real terminal.
package main

import (
	"fmt"
	"os"
	"strconv"

	"uichat/internal/render"
	"uichat/internal/uitag"
)

// ANSI color helpers
const (
	bold  = "\033[1m"
	dim   = "\033[2m"
	reset = "\033[0m"
)

const sample = `Here is a picture [image src="https://picsum.photos/400/300" alt="Random landscape"]
and a video [video src="https://www.youtube.com/watch?v=dQw4w9WgXcQ" title="Never Gonna Give You Up"]
plus a file that cannot be embedded [video src="https://example.com/clip.mp4" title="Sample clip"].
Read more at [link href="https://developer.mozilla.org/" title="MDN Web Docs"].

[quiz question="Which planet is largest?" options="Mars|Jupiter|Venus" answer="Jupiter"]`

func main() {
	width := 80
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		width = w
	}

	for _, theme := range []string{"dark", "light"} {
		r := render.New(theme, width)

		fmt.Println()
		fmt.Printf("%s═══ %s theme ═══%s\n", bold, theme, reset)

		fmt.Println()
		fmt.Println(dim + "Inline layout" + reset)
		fmt.Println()
		fmt.Println(r.Segments(uitag.Segments(sample)))

		fmt.Println()
		fmt.Println(dim + "Streaming, cut inside the quiz tag" + reset)
		fmt.Println()
		fmt.Println(r.Plan(uitag.Reconcile(sample[:len(sample)-30], false)))

		quiz := uitag.Parse(sample).Tags[4]
		fmt.Println()
		fmt.Println(dim + "Quiz answered wrong, then right" + reset)
		fmt.Println()
		fmt.Println(r.Quiz(quiz, "Mars"))
		fmt.Println(r.Quiz(quiz, "Jupiter"))
	}
	fmt.Println()
}
