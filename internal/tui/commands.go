package tui

import (
	"fmt"
	"strings"

	"uichat/internal/api"
	"uichat/internal/config"
	"uichat/internal/render"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	return m.startStream(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/answer", "/a":
		return m.cmdAnswer(args)
	case "/config":
		return m.cmdConfig()
	case "/health":
		return m, checkHealth(m.client)
	case "/history":
		return m.cmdHistory()
	case "/raw":
		return m.cmdRaw()
	case "/tags":
		return m.cmdTags()
	case "/set":
		return m.cmdSet(args)
	case "/theme":
		return m.cmdSet(append([]string{"theme"}, args...))
	case "/transport":
		return m.cmdSet(append([]string{"transport"}, args...))
	case "/clear":
		return m.cmdClear()
	case "/reset":
		return m.cmdReset()
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s. Type /help", cmd)))
	}
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	pad := func(s string, w int) string {
		if len(s) < w {
			s += strings.Repeat(" ", w-len(s))
		}
		return s
	}
	row := func(usage, desc string) tea.Cmd {
		return tea.Println("  " + hintKeyStyle.Render(pad(usage, 26)) + dimStyle.Render(desc))
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Commands:")),
		tea.Println(""),
		row("/answer <choice>", "Answer the latest quiz (letter, number or text)"),
		row("/tags", "List tags in the last reply"),
		row("/raw", "Show the last reply as received"),
		row("/history", "List messages in this chat"),
		row("/reset", "Forget the chat history"),
		row("/health", "Check the server"),
		row("/set <key> <value>", "Set server, transport or theme"),
		row("/theme dark|light", "Switch theme"),
		row("/transport sse|ws", "Switch transport"),
		row("/config", "Show current configuration"),
		row("/clear", "Clear the screen"),
		row("/quit", "Exit uichat"),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Anything else is sent as a chat message. Esc cancels a reply.")),
		tea.Println(""),
	)
}

// ─── /answer ────────────────────────────────────────────────────────────────

func (m model) cmdAnswer(args []string) (tea.Model, tea.Cmd) {
	quiz, ok := m.transcript.LastQuiz()
	if !ok {
		return m, tea.Println(warnMsgStyle.Render("  ! No quiz to answer yet."))
	}
	if len(args) == 0 {
		return m, tea.Sequence(
			tea.Println(indentText(m.renderer.Quiz(quiz, ""), "  ")),
			tea.Println(dimStyle.Render("  Usage: /answer <letter|number|text>")),
		)
	}

	choice, err := render.ResolveChoice(quiz, strings.Join(args, " "))
	if err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}

	m.quizAnswered++
	if render.CheckAnswer(quiz, choice) {
		m.quizCorrect++
	}
	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(indentText(m.renderer.Quiz(quiz, choice), "  ")),
		tea.Println(""),
	)
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	val := func(s, def string) string {
		if s == "" {
			return def + dimStyle.Render(" (default)")
		}
		return s
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:    %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:     %s", val(m.cfg.Server, config.DefaultServer))),
		tea.Println(fmt.Sprintf("    Transport:  %s", val(m.cfg.Transport, config.TransportSSE))),
		tea.Println(fmt.Sprintf("    Theme:      %s", val(m.cfg.Theme, config.ThemeDark))),
		tea.Println(""),
	)
}

// ─── /health ────────────────────────────────────────────────────────────────

func (m model) handleHealth(msg healthMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Sequence(
			tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Server unreachable: %v", msg.err))),
			tea.Println(dimStyle.Render("    Start one with: uichat serve")),
		)
	}
	status := msg.resp.Status
	if !strings.EqualFold(status, "ok") {
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! Server status: %s", status)))
	}
	line := fmt.Sprintf("  ✓ Connected to %s", m.cfg.ServerURL())
	if msg.resp.Message != "" {
		line += dimStyle.Render(" · " + msg.resp.Message)
	}
	return m, tea.Println(successMsgStyle.Render(line))
}

// ─── /history ───────────────────────────────────────────────────────────────

func (m model) cmdHistory() (tea.Model, tea.Cmd) {
	msgs := m.transcript.Messages()
	if len(msgs) == 0 {
		return m, tea.Println(dimStyle.Render("  No messages yet."))
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  History (%d messages):", len(msgs)))),
	}
	for _, msg := range msgs {
		lines = append(lines, tea.Println(renderHistoryLine(msg, min(m.width, 100))))
	}
	lines = append(lines, tea.Println(""))
	return m, tea.Sequence(lines...)
}

// ─── /raw ───────────────────────────────────────────────────────────────────

func (m model) cmdRaw() (tea.Model, tea.Cmd) {
	last, ok := m.transcript.LastBot()
	if !ok {
		return m, tea.Println(dimStyle.Render("  No reply yet."))
	}
	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Raw reply (%d bytes):", len(last.Raw)))),
		tea.Println(indentText(last.Raw, "    ")),
		tea.Println(""),
	)
}

// ─── /tags ──────────────────────────────────────────────────────────────────

func (m model) cmdTags() (tea.Model, tea.Cmd) {
	last, ok := m.transcript.LastBot()
	if !ok {
		return m, tea.Println(dimStyle.Render("  No reply yet."))
	}
	if len(last.Tags) == 0 {
		return m, tea.Println(dimStyle.Render("  The last reply has no tags."))
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Tags in the last reply (%d):", len(last.Tags)))),
	}
	for _, l := range renderTagList(last.Tags) {
		lines = append(lines, tea.Println(l))
	}
	lines = append(lines, tea.Println(""))
	return m, tea.Sequence(lines...)
}

// ─── /set ───────────────────────────────────────────────────────────────────

func (m model) cmdSet(args []string) (tea.Model, tea.Cmd) {
	if len(args) < 2 {
		return m, tea.Sequence(
			tea.Println(""),
			tea.Println(dimStyle.Render("  Usage: /set server <url>")),
			tea.Println(dimStyle.Render("         /set transport sse|ws")),
			tea.Println(dimStyle.Render("         /set theme dark|light")),
			tea.Println(""),
		)
	}

	key := strings.ToLower(args[0])
	value := args[1]

	next := *m.cfg
	switch key {
	case "server":
		next.Server = strings.TrimRight(value, "/")
	case "transport":
		next.Transport = strings.ToLower(value)
	case "theme":
		next.Theme = strings.ToLower(value)
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown key: %s (valid: server, transport, theme)", key)))
	}
	if err := next.Validate(); err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}
	if err := next.Save(); err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to save config: %v", err)))
	}

	*m.cfg = next
	out := []tea.Cmd{tea.Println(successMsgStyle.Render(fmt.Sprintf("  ✓ %s set to: %s", key, value)))}
	switch key {
	case "server", "transport":
		m.client = api.NewClient(m.cfg)
		if key == "server" {
			out = append(out, checkHealth(m.client))
		}
	case "theme":
		m.renderer = render.New(m.cfg.ThemeName(), m.contentWidth())
	}
	return m, tea.Sequence(out...)
}

// ─── /clear, /reset ─────────────────────────────────────────────────────────

func (m model) cmdClear() (tea.Model, tea.Cmd) {
	return m, tea.ClearScreen
}

func (m model) cmdReset() (tea.Model, tea.Cmd) {
	m.transcript.Clear()
	m.quizAnswered = 0
	m.quizCorrect = 0
	return m, tea.Println(successMsgStyle.Render("  ✓ Chat history cleared"))
}
