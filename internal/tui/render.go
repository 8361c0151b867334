package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"uichat/internal/chat"
	"uichat/internal/render"
	"uichat/internal/uitag"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version, server, transport string, width int) string {
	titleLine := logoTitleStyle.Render("uichat") + " " + versionStyle.Render("v"+version)

	serverDisplay := runewidth.Truncate(server, 40, "...")
	infoLine := welcomeInfoLabel.Render(fmt.Sprintf("%s · %s", serverDisplay, strings.ToUpper(transport)))
	hintLine := welcomeHintStyle.Render("Type a message, or /help for commands")

	logo := renderLogo()
	if width > 0 && width < 30 {
		return fmt.Sprintf("\n%s\n%s\n", titleLine, infoLine)
	}
	return fmt.Sprintf("\n%s\n\n%s\n%s\n%s\n", logo, titleLine, infoLine, hintLine)
}

const bubbleASCIIArt = `
   ****************
  **              **
  **  ++  ++  ++  **
  **              **
   *******  *******
         ** *
         ***
`

func renderLogo() string {
	lines := trimEmptyEdgeLines(strings.Split(bubbleASCIIArt, "\n"))

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := countLeadingSpaces(line)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		if minIndent > 0 && len(line) >= minIndent {
			line = line[minIndent:]
		}
		lines[i] = "  " + colorizeLogoLine(line)
	}
	return strings.Join(lines, "\n")
}

func trimEmptyEdgeLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}

	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func countLeadingSpaces(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// colorizeLogoLine styles runs of '*' as the bubble outline and '+' as the
// typing dots.
func colorizeLogoLine(line string) string {
	var out strings.Builder
	var run strings.Builder
	var current rune

	flush := func() {
		if run.Len() == 0 {
			return
		}
		switch current {
		case '*':
			out.WriteString(logoBodyStyle.Render(run.String()))
		case '+':
			out.WriteString(logoDotStyle.Render(run.String()))
		default:
			out.WriteString(run.String())
		}
		run.Reset()
	}

	for _, r := range line {
		class := r
		if r != '*' && r != '+' {
			class = ' '
		}
		if class != current {
			flush()
			current = class
		}
		run.WriteRune(r)
	}
	flush()
	return out.String()
}

// ─── Messages ───────────────────────────────────────────────────────────────

func renderUserMessage(msg chat.Message) string {
	return userPromptStyle.Render("  ❯ "+msg.Text) + "  " + timeStyle.Render(chat.FormatTime(msg.Time))
}

// renderBotMessage draws a finished reply: a header line, then the text
// and cards from the renderer, indented under it.
func renderBotMessage(r *render.Renderer, msg chat.Message) string {
	head := botLabelStyle.Render("  ◆ Assistant") + "  " + timeStyle.Render(chat.FormatTime(msg.Time))
	if msg.Truncated {
		head += "  " + warnMsgStyle.Render("(incomplete)")
	}
	body := r.Plan(uitag.Plan{Text: msg.Text, Tags: msg.Tags})
	return head + "\n" + indentText(body, "  ")
}

// renderLive draws the in-flight reply shown above the spinner.
func renderLive(r *render.Renderer, p uitag.Plan) string {
	if p.Text == "" && len(p.Tags) == 0 {
		return ""
	}
	return botLabelStyle.Render("  ◆ Assistant") + "\n" + indentText(r.Plan(p), "  ")
}

// ─── Listings ───────────────────────────────────────────────────────────────

// renderTagList lists a message's tags one per line with their attributes.
func renderTagList(tags []uitag.Tag) []string {
	lines := make([]string, 0, len(tags))
	for i, t := range tags {
		var attrs []string
		for _, name := range uitag.RequiredAttrs(t.Kind) {
			attrs = append(attrs, dimStyle.Render(name+"=")+fmt.Sprintf("%q", t.Attr(name)))
		}
		lines = append(lines, fmt.Sprintf("    %d. %s  %s", i+1, kindStyle(t.Kind).Render(string(t.Kind)), strings.Join(attrs, " ")))
	}
	return lines
}

// renderHistoryLine summarises one transcript entry on a single line.
func renderHistoryLine(msg chat.Message, width int) string {
	who := userPromptStyle.Render("you")
	if msg.Role == chat.RoleBot {
		who = botLabelStyle.Render("bot")
	}

	var suffix string
	if len(msg.Tags) > 0 {
		suffix = fmt.Sprintf(" [+%d tags]", len(msg.Tags))
	}
	avail := width - 16 - len(suffix)
	if avail < 20 {
		avail = 20
	}
	text := runewidth.Truncate(strings.Join(strings.Fields(msg.Text), " "), avail, "…")
	if suffix != "" {
		text += dimStyle.Render(suffix)
	}

	return fmt.Sprintf("    %s %s  %s", timeStyle.Render(chat.FormatTime(msg.Time)), who, text)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func indentText(text, prefix string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// tailLines keeps the last n lines of s, so a long reply in the live region
// does not push the input off screen.
func tailLines(s string, n int) string {
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
