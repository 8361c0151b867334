package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"uichat/internal/api"
	"uichat/internal/chat"
	"uichat/internal/config"
)

const testQuiz = `[quiz question="Best fruit?" options="Apple|Banana|Cherry" answer="Banana"]`

// mockAPI implements api.ChatAPI for testing.
type mockAPI struct {
	chunks []string
	err    error // returned by Stream after the chunks
	block  bool  // hold the stream open until the context is cancelled

	health    *api.HealthResponse
	healthErr error
}

func (m *mockAPI) Health(ctx context.Context) (*api.HealthResponse, error) {
	if m.healthErr != nil {
		return nil, m.healthErr
	}
	if m.health != nil {
		return m.health, nil
	}
	return &api.HealthResponse{Status: "OK"}, nil
}

func (m *mockAPI) Stream(ctx context.Context, message string, cb api.StreamCallback) error {
	for _, c := range m.chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		cb(c)
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

func (m *mockAPI) Transport() string { return config.TransportSSE }

var testNow = time.Date(2024, 5, 1, 14, 3, 0, 0, time.UTC)

func newTestModel(client api.ChatAPI) model {
	m := initialModel("test", "", &config.Config{Server: "http://localhost:3001"})
	m.client = client
	m.now = func() time.Time { return testNow }
	m.ready = true
	m.width = 80
	m.height = 24
	return m
}

// drain feeds stream messages into the model until the reply finishes.
func drain(t *testing.T, m model) model {
	t.Helper()
	ch := activeStreamCh
	if ch == nil {
		t.Fatal("no active stream")
	}
	for i := 0; m.mode == modeStreaming; i++ {
		if i > 100 {
			t.Fatal("stream did not finish")
		}
		result, _ := m.Update(waitForStream(ch, m.streamID)())
		m = result.(model)
	}
	return m
}

func send(t *testing.T, m model, text string) model {
	t.Helper()
	result, _ := m.dispatchInput(text)
	return result.(model)
}

func update(m model, msg tea.Msg) model {
	result, _ := m.Update(msg)
	return result.(model)
}

// ─── Streaming ──────────────────────────────────────────────────────────────

func TestSendStreamsReply(t *testing.T) {
	m := newTestModel(&mockAPI{chunks: []string{
		"Hi ", `[link href="https://a.test" ti`, `tle="A"]`, " bye",
	}})

	m = send(t, m, "hello")
	if m.mode != modeStreaming {
		t.Fatalf("mode = %d, want modeStreaming", m.mode)
	}
	m = drain(t, m)

	if m.mode != modeIdle {
		t.Errorf("mode = %d, want modeIdle", m.mode)
	}
	if m.transcript.Len() != 2 {
		t.Fatalf("transcript has %d messages, want 2", m.transcript.Len())
	}
	last, _ := m.transcript.LastBot()
	if last.Text != "Hi  bye" {
		t.Errorf("text = %q, want %q", last.Text, "Hi  bye")
	}
	if len(last.Tags) != 1 || last.Tags[0].Attr("title") != "A" {
		t.Errorf("tags = %+v, want one link titled A", last.Tags)
	}
	if last.Truncated {
		t.Error("completed reply marked truncated")
	}
	if !last.Time.Equal(testNow) {
		t.Errorf("time = %v, want %v", last.Time, testNow)
	}
	if m.stream.Len() != 0 || m.live != "" {
		t.Error("stream state not reset after reply")
	}
}

func TestLiveRegionHidesPartialTag(t *testing.T) {
	m := newTestModel(&mockAPI{block: true})
	m = send(t, m, "hello")
	t.Cleanup(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})

	m = update(m, streamChunkMsg{id: m.streamID, text: "Hello [ima"})
	if strings.Contains(m.live, "[ima") {
		t.Errorf("live region shows partial tag: %q", m.live)
	}
	if !strings.Contains(m.live, "Hello") {
		t.Errorf("live region missing settled text: %q", m.live)
	}

	view := m.View()
	if !strings.Contains(view, "Esc cancel") {
		t.Errorf("streaming view missing cancel hint:\n%s", view)
	}
	if !strings.Contains(view, "Receiving a tag") {
		t.Errorf("streaming view should report the unfinished tag:\n%s", view)
	}

	m = update(m, streamChunkMsg{id: m.streamID, text: `ge src="https://x.test/a.png" alt="cat"]`})
	if !strings.Contains(m.live, "cat") {
		t.Errorf("live region missing completed image card: %q", m.live)
	}
	if status := m.streamStatus(); strings.Contains(status, "tag") {
		t.Errorf("status = %q after the tag completed", status)
	}
}

func TestCancelDiscardsPartialReply(t *testing.T) {
	m := newTestModel(&mockAPI{block: true})
	m = send(t, m, "hello")
	m = update(m, streamChunkMsg{id: m.streamID, text: "half a rep"})

	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeIdle {
		t.Errorf("mode = %d, want modeIdle", m.mode)
	}
	if m.cancel != nil {
		t.Error("cancel func not cleared")
	}
	if m.transcript.Len() != 1 {
		t.Errorf("transcript has %d messages, want only the user message", m.transcript.Len())
	}
	if m.stream.Len() != 0 {
		t.Errorf("stream buffer = %q, want empty", m.stream.Buffer())
	}

	// A read that was already in flight is dropped.
	m = update(m, streamChunkMsg{id: m.streamID, text: "late"})
	m = update(m, streamDoneMsg{id: m.streamID})
	if m.live != "" || m.transcript.Len() != 1 {
		t.Error("late stream message changed the model after cancel")
	}
}

func TestCtrlCCancelsBeforeQuitting(t *testing.T) {
	m := newTestModel(&mockAPI{block: true})
	m = send(t, m, "hello")

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = result.(model)
	if m.mode != modeIdle {
		t.Errorf("mode = %d, want modeIdle", m.mode)
	}
	if cmd == nil {
		t.Fatal("expected cancel notice cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); ok {
		t.Error("Ctrl-C during a reply quit the program")
	}
}

func TestStreamErrorKeepsPartialReply(t *testing.T) {
	m := newTestModel(&mockAPI{
		chunks: []string{"partial [quiz"},
		err:    &api.StreamError{Message: "upstream went away"},
	})
	m = drain(t, send(t, m, "hello"))

	last, ok := m.transcript.LastBot()
	if !ok {
		t.Fatal("partial reply was not kept")
	}
	if !last.Truncated {
		t.Error("reply cut short by an error should be marked truncated")
	}
	if last.Text != "partial [quiz" {
		t.Errorf("text = %q, want the unfinished tag as literal text", last.Text)
	}
}

func TestEmptyReplyNotRecorded(t *testing.T) {
	m := newTestModel(&mockAPI{})
	m = drain(t, send(t, m, "hello"))

	if m.transcript.Len() != 1 {
		t.Errorf("transcript has %d messages, want 1", m.transcript.Len())
	}
	if _, ok := m.transcript.LastBot(); ok {
		t.Error("empty reply was recorded")
	}
}

func TestSendWhileStreamingRejected(t *testing.T) {
	m := newTestModel(&mockAPI{block: true})
	m = send(t, m, "first")
	id := m.streamID
	t.Cleanup(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})

	result, cmd := m.startStream("second")
	m = result.(model)
	if m.streamID != id {
		t.Errorf("streamID = %d, want %d", m.streamID, id)
	}
	if m.transcript.Len() != 1 {
		t.Errorf("transcript has %d messages, want 1", m.transcript.Len())
	}
	if cmd == nil {
		t.Error("expected a warning cmd")
	}

	m.input.SetValue("third")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.transcript.Len() != 1 {
		t.Error("Enter while streaming sent a message")
	}
}

func TestStaleStreamIgnored(t *testing.T) {
	m := newTestModel(&mockAPI{block: true})
	m = send(t, m, "hello")
	t.Cleanup(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})

	m = update(m, streamChunkMsg{id: m.streamID - 1, text: "old"})
	if m.stream.Len() != 0 {
		t.Errorf("chunk from an old stream was applied: %q", m.stream.Buffer())
	}
	m = update(m, streamErrMsg{id: m.streamID - 1, err: errors.New("old")})
	if m.mode != modeStreaming {
		t.Error("error from an old stream ended the current one")
	}
}

// ─── Commands ───────────────────────────────────────────────────────────────

func TestDispatchCommand(t *testing.T) {
	tests := []struct {
		input   string
		wantCmd bool
	}{
		{"/help", true},
		{"/config", true},
		{"/clear", true},
		{"/health", true},
		{"/history", true},
		{"/raw", true},
		{"/tags", true},
		{"/reset", true},
		{"/quit", true},
		{"/unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel(&mockAPI{})
			result, cmd := m.dispatchCommand(tt.input)
			rm := result.(model)
			if rm.mode != modeIdle {
				t.Errorf("mode = %d, want modeIdle", rm.mode)
			}
			if (cmd != nil) != tt.wantCmd {
				t.Errorf("cmd = %v, want non-nil %v", cmd != nil, tt.wantCmd)
			}
		})
	}
}

func TestDispatchInput(t *testing.T) {
	t.Run("question mark shows help", func(t *testing.T) {
		m := newTestModel(&mockAPI{})
		result, cmd := m.dispatchInput("?")
		if result.(model).mode != modeIdle || cmd == nil {
			t.Error("? should print help and stay idle")
		}
	})

	t.Run("plain text starts a reply", func(t *testing.T) {
		m := newTestModel(&mockAPI{})
		m = send(t, m, "What is Go?")
		if m.mode != modeStreaming {
			t.Errorf("mode = %d, want modeStreaming", m.mode)
		}
		drain(t, m)
	})
}

func TestAnswerQuiz(t *testing.T) {
	tests := []struct {
		input       string
		wantCorrect int
	}{
		{"/answer b", 1},
		{"/answer 2", 1},
		{"/answer banana", 1},
		{"/answer A", 0},
		{"/a cherry", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel(&mockAPI{})
			m.transcript.Add(chat.NewBotMessage("Quiz time "+testQuiz, false, testNow))

			result, cmd := m.dispatchCommand(tt.input)
			rm := result.(model)
			if cmd == nil {
				t.Fatal("expected quiz output")
			}
			if rm.quizAnswered != 1 {
				t.Errorf("quizAnswered = %d, want 1", rm.quizAnswered)
			}
			if rm.quizCorrect != tt.wantCorrect {
				t.Errorf("quizCorrect = %d, want %d", rm.quizCorrect, tt.wantCorrect)
			}
		})
	}
}

func TestAnswerRejectsBadInput(t *testing.T) {
	m := newTestModel(&mockAPI{})

	result, _ := m.dispatchCommand("/answer a")
	if result.(model).quizAnswered != 0 {
		t.Error("answered with no quiz in the chat")
	}

	m.transcript.Add(chat.NewBotMessage(testQuiz, false, testNow))
	for _, in := range []string{"/answer", "/answer z", "/answer 9", "/answer durian"} {
		result, cmd := m.dispatchCommand(in)
		if result.(model).quizAnswered != 0 {
			t.Errorf("%q counted as an answer", in)
		}
		if cmd == nil {
			t.Errorf("%q printed nothing", in)
		}
	}
}

func TestHintsShowQuizAndScore(t *testing.T) {
	m := newTestModel(&mockAPI{})
	if strings.Contains(m.renderHints(), "/answer") {
		t.Error("answer hint shown with no quiz")
	}

	m.transcript.Add(chat.NewBotMessage(testQuiz, false, testNow))
	result, _ := m.dispatchCommand("/answer b")
	m = result.(model)

	hints := m.renderHints()
	if !strings.Contains(hints, "/answer") || !strings.Contains(hints, "score 1/1") {
		t.Errorf("hints = %q", hints)
	}

	result, _ = m.dispatchCommand("/reset")
	m = result.(model)
	if m.transcript.Len() != 0 || m.quizAnswered != 0 {
		t.Error("/reset kept history or score")
	}
}

func TestSetCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m := newTestModel(&mockAPI{})
	oldRenderer := m.renderer

	result, _ := m.dispatchCommand("/theme light")
	m = result.(model)
	if m.cfg.Theme != config.ThemeLight {
		t.Errorf("theme = %q, want light", m.cfg.Theme)
	}
	if m.renderer == oldRenderer {
		t.Error("renderer not rebuilt for the new theme")
	}

	result, _ = m.dispatchCommand("/transport ws")
	m = result.(model)
	if m.cfg.Transport != config.TransportWS || m.client.Transport() != config.TransportWS {
		t.Errorf("transport = %q/%q, want ws", m.cfg.Transport, m.client.Transport())
	}

	loaded, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Theme != config.ThemeLight || loaded.Transport != config.TransportWS {
		t.Errorf("saved config = %+v", loaded)
	}

	for _, in := range []string{"/transport carrier-pigeon", "/set server ftp://x", "/set color red"} {
		result, _ = m.dispatchCommand(in)
		m = result.(model)
	}
	if m.cfg.Transport != config.TransportWS || m.cfg.Server != "http://localhost:3001" {
		t.Errorf("invalid /set changed config: %+v", m.cfg)
	}
}

func TestHandleHealth(t *testing.T) {
	m := newTestModel(&mockAPI{})
	for _, msg := range []healthMsg{
		{resp: &api.HealthResponse{Status: "OK", Message: "up"}},
		{resp: &api.HealthResponse{Status: "degraded"}},
		{err: errors.New("connection refused")},
	} {
		_, cmd := m.handleHealth(msg)
		if cmd == nil {
			t.Errorf("no output for %+v", msg)
		}
	}
}

// ─── History & menu ─────────────────────────────────────────────────────────

func TestHistoryNavigation(t *testing.T) {
	m := newTestModel(&mockAPI{})
	m.pushHistory("one")
	m.pushHistory("two")
	m.pushHistory("two")
	if len(m.history) != 2 {
		t.Fatalf("history = %v, want duplicates collapsed", m.history)
	}

	m.input.SetValue("draft")
	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "two" {
		t.Errorf("up = %q, want two", m.input.Value())
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "one" {
		t.Errorf("up past start = %q, want one", m.input.Value())
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "draft" {
		t.Errorf("down past end = %q, want the saved draft", m.input.Value())
	}
}

func TestHistoryCap(t *testing.T) {
	m := newTestModel(&mockAPI{})
	for i := 0; i < maxHistory+5; i++ {
		m.pushHistory(strings.Repeat("x", i+1))
	}
	if len(m.history) != maxHistory {
		t.Errorf("history len = %d, want %d", len(m.history), maxHistory)
	}
}

func TestMatchCommands(t *testing.T) {
	tests := []struct {
		prefix  string
		wantLen int
	}{
		{"/", len(slashCommands)},
		{"/h", 3}, // /health, /help, /history
		{"/t", 3}, // /tags, /theme, /transport
		{"/r", 2}, // /raw, /reset
		{"/xyz", 0},
		{"/answer", 1},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := matchCommands(tt.prefix)
			if len(got) != tt.wantLen {
				names := make([]string, len(got))
				for i, c := range got {
					names[i] = c.name
				}
				t.Errorf("matchCommands(%q) returned %d matches %v, want %d", tt.prefix, len(got), names, tt.wantLen)
			}
		})
	}
}

func TestViewIdle(t *testing.T) {
	m := newTestModel(&mockAPI{})
	view := m.View()
	if !strings.Contains(view, "? for help") {
		t.Errorf("idle view missing hint:\n%s", view)
	}
	if !strings.Contains(view, "❯") {
		t.Errorf("idle view missing prompt:\n%s", view)
	}

	m.ready = false
	if m.View() != "" {
		t.Error("view before first resize should be empty")
	}
}
