package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uichat/internal/uitag"
)

var now = time.Date(2024, 3, 1, 14, 5, 0, 0, time.Local)

func TestNewBotMessageParsesTags(t *testing.T) {
	raw := `See [link href="https://a.test" title="A"] and [quiz question="Q" options="X|Y" answer="Y"]`
	m := NewBotMessage(raw, false, now)

	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, RoleBot, m.Role)
	assert.Equal(t, "See  and", m.Text)
	require.Len(t, m.Tags, 2)
	assert.Equal(t, raw, m.Raw)
	assert.False(t, m.Truncated)

	qs := m.Quizzes()
	require.Len(t, qs, 1)
	assert.Equal(t, "Y", qs[0].Attr(uitag.AttrAnswer))
}

func TestNewBotReplyUsesFinishedStream(t *testing.T) {
	var s uitag.Stream
	for _, chunk := range []string{"Look ", `[image src="a.png" `, `alt="A"] done`} {
		_, err := s.Append(chunk)
		require.NoError(t, err)
	}
	final := s.Finish()

	m := NewBotReply(s.Buffer(), final, true, now)
	assert.Equal(t, final.Text, m.Text)
	assert.Equal(t, final.Tags, m.Tags)
	assert.Equal(t, s.Buffer(), m.Raw)
	assert.True(t, m.Truncated)

	same := NewBotMessage(s.Buffer(), true, now)
	assert.Equal(t, same.Text, m.Text)
	assert.Equal(t, same.Tags, m.Tags)
}

func TestNewUserMessageKeepsBrackets(t *testing.T) {
	m := NewUserMessage(`[image src="a" alt="b"]`, now)
	assert.Equal(t, `[image src="a" alt="b"]`, m.Text)
	assert.Empty(t, m.Tags)
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 50; i++ {
		id := NewUserMessage("x", now).ID
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "14:05", FormatTime(now))
	assert.Equal(t, "09:00", FormatTime(time.Date(2024, 1, 1, 9, 0, 59, 0, time.Local)))
}

func TestTranscriptSkipsBlankBotMessages(t *testing.T) {
	var tr Transcript

	assert.True(t, tr.Add(NewUserMessage("hi", now)))
	assert.False(t, tr.Add(NewBotMessage("   \n", false, now)))
	assert.True(t, tr.Add(NewBotMessage(`[image src="a.png" alt=""]`, false, now)), "tag-only reply is not blank")
	assert.True(t, tr.Add(NewUserMessage("", now)), "user messages are kept as sent")

	assert.Equal(t, 3, tr.Len())
}

func TestTranscriptLastBotAndQuiz(t *testing.T) {
	var tr Transcript

	_, ok := tr.LastBot()
	assert.False(t, ok)
	_, ok = tr.LastQuiz()
	assert.False(t, ok)

	tr.Add(NewBotMessage(`[quiz question="First" options="A|B" answer="A"]`, false, now))
	tr.Add(NewBotMessage("no quiz here", false, now))
	tr.Add(NewUserMessage("ok", now))

	last, ok := tr.LastBot()
	require.True(t, ok)
	assert.Equal(t, "no quiz here", last.Text)

	q, ok := tr.LastQuiz()
	require.True(t, ok)
	assert.Equal(t, "First", q.Attr(uitag.AttrQuestion))

	msgs := tr.Messages()
	msgs[0].Text = "mutated"
	assert.NotEqual(t, "mutated", tr.Messages()[0].Text)

	tr.Clear()
	assert.Zero(t, tr.Len())
}
