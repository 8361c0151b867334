// Package chat holds the transcript: the immutable list of finished messages.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"uichat/internal/uitag"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a finished transcript entry. Bot messages carry the parsed
// content of their stream buffer; Raw keeps the buffer itself.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Role      Role        `json:"role"`
	Text      string      `json:"text"`
	Tags      []uitag.Tag `json:"tags"`
	Raw       string      `json:"raw,omitempty"`
	Time      time.Time   `json:"time"`
	Truncated bool        `json:"truncated,omitempty"`
}

// NewUserMessage records text the user sent. User input is never parsed for
// tags.
func NewUserMessage(text string, now time.Time) Message {
	return Message{
		ID:   uuid.New(),
		Role: RoleUser,
		Text: text,
		Tags: []uitag.Tag{},
		Time: now,
	}
}

// NewBotMessage finalizes a bot reply from its raw stream buffer. truncated
// marks a reply cut short by a transport error.
func NewBotMessage(raw string, truncated bool, now time.Time) Message {
	return NewBotReply(raw, uitag.Parse(raw), truncated, now)
}

// NewBotReply is NewBotMessage for a buffer that has already been parsed,
// such as the result of uitag.Stream.Finish.
func NewBotReply(raw string, p uitag.Parsed, truncated bool, now time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Role:      RoleBot,
		Text:      p.Text,
		Tags:      p.Tags,
		Raw:       raw,
		Time:      now,
		Truncated: truncated,
	}
}

// Blank reports whether the message has nothing to show.
func (m Message) Blank() bool {
	return strings.TrimSpace(m.Text) == "" && len(m.Tags) == 0
}

// Quizzes returns the message's quiz tags in order.
func (m Message) Quizzes() []uitag.Tag {
	var out []uitag.Tag
	for _, t := range m.Tags {
		if t.Kind == uitag.KindQuiz {
			out = append(out, t)
		}
	}
	return out
}

// FormatTime renders a message timestamp as HH:MM in local time.
func FormatTime(t time.Time) string {
	return t.Local().Format("15:04")
}

// ─── Transcript ─────────────────────────────────────────────────────────────

// Transcript is the append-only history of a chat session.
type Transcript struct {
	messages []Message
}

// Add appends m unless it is a blank bot message, and reports whether it
// was added.
func (t *Transcript) Add(m Message) bool {
	if m.Role == RoleBot && m.Blank() {
		return false
	}
	t.messages = append(t.messages, m)
	return true
}

// Messages returns a copy of the history.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int { return len(t.messages) }

// LastBot returns the most recent bot message.
func (t *Transcript) LastBot() (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleBot {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// LastQuiz returns the most recent quiz tag across all bot messages.
func (t *Transcript) LastQuiz() (uitag.Tag, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		qs := t.messages[i].Quizzes()
		if len(qs) > 0 {
			return qs[len(qs)-1], true
		}
	}
	return uitag.Tag{}, false
}

// Clear drops the history.
func (t *Transcript) Clear() {
	t.messages = nil
}
