package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uichat/internal/api"
	"uichat/internal/chat"
	"uichat/internal/config"
	"uichat/internal/render"
	"uichat/internal/uitag"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── App mode ───────────────────────────────────────────────────────────────

type appMode int

const (
	modeIdle appMode = iota
	modeStreaming
)

const maxHistory = 1000

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/answer", "Answer the latest quiz"},
	{"/clear", "Clear the screen"},
	{"/config", "Show current configuration"},
	{"/health", "Check the server"},
	{"/help", "Show all commands"},
	{"/history", "List messages in this chat"},
	{"/quit", "Exit uichat"},
	{"/raw", "Show the raw text of the last reply"},
	{"/reset", "Forget the chat history"},
	{"/set", "Set server, transport or theme"},
	{"/tags", "List tags in the last reply"},
	{"/theme", "Switch dark/light theme"},
	{"/transport", "Switch SSE/WebSocket"},
}

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// App state
	mode       appMode
	cfg        *config.Config
	client     api.ChatAPI
	renderer   *render.Renderer
	transcript *chat.Transcript
	version    string
	profile    string
	now        func() time.Time

	// Streaming state. stream is a pointer: the model is copied on every
	// Update and the buffer must not be.
	stream      *uitag.Stream
	streamID    int
	cancel      context.CancelFunc
	streamStart time.Time
	live        string // rendered plan of the in-flight reply

	// Quiz score for this session
	quizAnswered int
	quizCorrect  int

	// UI state
	ready        bool
	cmdMenuIdx   int    // selected index in command menu
	cmdMenuOpen  bool   // whether the command menu is visible
	lastInputVal string // track input changes to reset menu index

	// Command history
	history      []string // stored command history
	historyIdx   int      // current position in history (-1 = not browsing)
	historySaved string   // saved input value when entering history mode
}

func initialModel(version, profile string, cfg *config.Config) model {
	ti := textinput.New()
	ti.Placeholder = "Type a message or /help..."
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorOrange)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorOrange)

	if cfg == nil {
		cfg = &config.Config{Profile: profile}
	}

	return model{
		input:      ti,
		spinner:    sp,
		version:    version,
		profile:    profile,
		cfg:        cfg,
		client:     api.NewClient(cfg),
		renderer:   render.New(cfg.ThemeName(), 0),
		transcript: &chat.Transcript{},
		stream:     &uitag.Stream{},
		now:        time.Now,
		mode:       modeIdle,
		history:    make([]string, 0),
		historyIdx: -1,
	}
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		checkHealth(m.client),
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6
		m.renderer.SetWidth(m.contentWidth())
		if m.mode == modeStreaming {
			m.live = renderLive(m.renderer, m.stream.Plan())
		}

		if !m.ready {
			m.ready = true
			welcome := renderWelcome(m.version, m.cfg.ServerURL(), m.client.Transport(), m.width)
			cmds = append(cmds, tea.Println(welcome))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.mode == modeStreaming {
				return m.cancelStream()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			if m.mode == modeStreaming {
				return m.cancelStream()
			}
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx--
						if m.cmdMenuIdx < 0 {
							m.cmdMenuIdx = len(matches) - 1
						}
						return m, nil
					}
				} else if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historySaved = m.input.Value()
						m.historyIdx = len(m.history) - 1
					} else {
						m.historyIdx--
						if m.historyIdx < 0 {
							m.historyIdx = 0
						}
					}
					m.input.SetValue(m.history[m.historyIdx])
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyDown:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx++
						if m.cmdMenuIdx >= len(matches) {
							m.cmdMenuIdx = 0
						}
						return m, nil
					}
				} else if m.historyIdx != -1 {
					m.historyIdx++
					if m.historyIdx >= len(m.history) {
						m.historyIdx = -1
						m.input.SetValue(m.historySaved)
						m.historySaved = ""
					} else {
						m.input.SetValue(m.history[m.historyIdx])
					}
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyTab:
			if m.mode == modeIdle && m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.mode == modeStreaming {
				return m, nil
			}

			// A selected menu entry is completed, not run.
			if m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) && matches[m.cmdMenuIdx].name != strings.TrimSpace(m.input.Value()) {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}

			m.pushHistory(value)
			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			return m.dispatchInput(value)
		}

	// ── Stream messages ───────────────────────────────────────────────
	case streamChunkMsg:
		if msg.id != m.streamID || m.mode != modeStreaming {
			return m, nil
		}
		plan, err := m.stream.Append(msg.text)
		if err == nil {
			m.live = renderLive(m.renderer, plan)
		}
		if activeStreamCh != nil {
			cmds = append(cmds, waitForStream(activeStreamCh, m.streamID))
		}
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		if msg.id != m.streamID || m.mode != modeStreaming {
			return m, nil
		}
		return m.finishStream(nil)

	case streamErrMsg:
		if msg.id != m.streamID || m.mode != modeStreaming {
			return m, nil
		}
		return m.finishStream(msg.err)

	case healthMsg:
		return m.handleHealth(msg)
	}

	// Update sub-components
	var cmd tea.Cmd

	if m.mode != modeStreaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	// Track input changes to open/close command menu and reset selection
	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 && m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
			m.historyIdx = -1
			m.historySaved = ""
		}
		m.cmdMenuOpen = strings.HasPrefix(newVal, "/") && !strings.Contains(newVal, " ")
		m.cmdMenuIdx = 0
	}

	return m, tea.Batch(cmds...)
}

// ─── Streaming lifecycle ────────────────────────────────────────────────────

// startStream records the user message and opens a new reply stream. Only
// one reply streams at a time.
func (m model) startStream(text string) (tea.Model, tea.Cmd) {
	if m.mode == modeStreaming {
		return m, tea.Println(warnMsgStyle.Render("  ! Still receiving a reply. Press Esc to cancel it."))
	}

	user := chat.NewUserMessage(text, m.now())
	m.transcript.Add(user)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.streamID++
	m.stream.Reset()
	m.live = ""
	m.streamStart = m.now()
	m.mode = modeStreaming

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(renderUserMessage(user)),
		beginStream(ctx, m.client, m.streamID, text),
	)
}

// finishStream finalizes the reply. A transport error keeps what arrived as
// an incomplete message and reports the error below it.
func (m model) finishStream(err error) (tea.Model, tea.Cmd) {
	m.mode = modeIdle
	activeStreamCh = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	final := m.stream.Finish()
	reply := chat.NewBotReply(m.stream.Buffer(), final, err != nil, m.now())
	m.stream.Reset()
	m.live = ""

	var out []tea.Cmd
	if m.transcript.Add(reply) {
		out = append(out, tea.Println(""), tea.Println(renderBotMessage(m.renderer, reply)))
		if qs := reply.Quizzes(); len(qs) > 0 && err == nil {
			out = append(out, tea.Println(dimStyle.Render("  Answer with /answer <letter>")))
		}
	} else if err == nil {
		out = append(out, tea.Println(dimStyle.Render("  (empty reply)")))
	}
	if err != nil {
		out = append(out, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Stream error: %s", errorText(err)))))
	}
	out = append(out, tea.Println(""))
	return m, tea.Sequence(out...)
}

// cancelStream stops the in-flight reply and discards what arrived.
func (m model) cancelStream() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mode = modeIdle
	activeStreamCh = nil
	m.resetStreamState()
	return m, tea.Println(warnMsgStyle.Render("  ! Response cancelled."))
}

func (m *model) resetStreamState() {
	m.stream.Reset()
	m.live = ""
	m.streamStart = time.Time{}
}

func (m *model) pushHistory(value string) {
	if len(m.history) == 0 || m.history[len(m.history)-1] != value {
		m.history = append(m.history, value)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.historyIdx = -1
	m.historySaved = ""
}

// contentWidth is the renderer width: the terminal minus the message indent,
// capped for readability.
func (m model) contentWidth() int {
	w := m.width - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: View() shows the in-flight reply, the input prompt and hints.
// Finished messages are printed above via tea.Println.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	if m.mode == modeStreaming {
		if m.live != "" {
			maxLines := m.height - 4
			s.WriteString(tailLines(m.live, maxLines))
			s.WriteString("\n")
		}
		s.WriteString(m.spinner.View() + " " + statusStyle.Render(m.streamStatus()))
	} else {
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	// Separator
	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

func (m model) streamStatus() string {
	n := m.stream.Len()
	if n == 0 {
		return "Waiting for reply..."
	}
	elapsed := m.now().Sub(m.streamStart).Round(100 * time.Millisecond)
	if uitag.HasPartialTag(m.stream.Buffer()) {
		return fmt.Sprintf("Receiving a tag... %d bytes · %s", n, elapsed)
	}
	return fmt.Sprintf("Receiving... %d bytes · %s", n, elapsed)
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	if m.mode == modeStreaming {
		return hintBarStyle.Render("  Esc cancel")
	}

	if m.cmdMenuOpen {
		matches := matchCommands(m.input.Value())
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	hints := "  ? for help"
	if _, ok := m.transcript.LastQuiz(); ok {
		hints += "   /answer <letter> to answer the quiz"
	}
	if m.quizAnswered > 0 {
		hints += fmt.Sprintf("   score %d/%d", m.quizCorrect, m.quizAnswered)
	}
	return hintBarStyle.Render(hints)
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := c.name + strings.Repeat(" ", maxLen-len(c.name))

		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching a prefix.
func matchCommands(prefix string) []slashCmd {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}
