package display

import (
	"fmt"
	"os"
	"strings"

	"uichat/internal/uitag"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

func Header(text string) {
	fmt.Printf("\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Println(strings.Repeat("─", min(len(text)+4, 80)))
}

func SubHeader(text string) {
	fmt.Printf("%s%s%s\n", Bold+White, text, Reset)
}

func Success(text string) {
	fmt.Printf("%s✓%s %s\n", Green, Reset, text)
}

func Error(text string) {
	fmt.Fprintf(os.Stderr, "%s✗%s %s\n", Red, Reset, text)
}

func Warn(text string) {
	fmt.Printf("%s!%s %s\n", Yellow, Reset, text)
}

func Info(label, value string) {
	fmt.Printf("  %s%-20s%s %s\n", Dim, label, Reset, value)
}

func ClearLine() {
	fmt.Print("\r\033[K")
}

// KindLabel returns a colored label for a tag kind, as used in the parse and
// tags listings.
func KindLabel(k uitag.Kind) string {
	labels := map[uitag.Kind]string{
		uitag.KindImage: Blue + "🖼  image" + Reset,
		uitag.KindVideo: Magenta + "🎥 video" + Reset,
		uitag.KindLink:  Cyan + "🔗 link" + Reset,
		uitag.KindQuiz:  Yellow + "🧠 quiz" + Reset,
	}
	if label, ok := labels[k]; ok {
		return label
	}
	return Gray + string(k) + Reset
}

// HealthLabel colors the status string reported by the server health check.
func HealthLabel(status string) string {
	if strings.EqualFold(status, "ok") {
		return Green + "● " + status + Reset
	}
	if status == "" {
		return Gray + "● unknown" + Reset
	}
	return Red + "● " + status + Reset
}

// Attrs formats a tag's attributes in grammar order, one "name=value" per
// entry, for single-line listings.
func Attrs(t uitag.Tag) string {
	names := uitag.RequiredAttrs(t.Kind)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s%s=%s%q", Dim, n, Reset, t.Attr(n)))
	}
	return strings.Join(parts, " ")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
