package tui

import (
	"context"
	"errors"
	"time"

	"uichat/internal/api"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages sent from stream goroutine to Bubble Tea ──────────────────────
//
// Every message carries the id of the stream that produced it. A cancelled
// stream can still have one read in flight; Update drops messages whose id
// is not the current one.

type streamChunkMsg struct {
	id   int
	text string
}

type streamDoneMsg struct {
	id int
}

type streamErrMsg struct {
	id  int
	err error
}

type healthMsg struct {
	resp *api.HealthResponse
	err  error
}

// ─── Stream command ─────────────────────────────────────────────────────────
//
// Starts the request in a goroutine, forwards chunks through a channel in
// arrival order, and returns a tea.Cmd that reads one message from it. The
// model's Update dispatches another waitForStream after each chunk.

var activeStreamCh chan tea.Msg

const healthTimeout = 5 * time.Second

func beginStream(ctx context.Context, client api.ChatAPI, id int, message string) tea.Cmd {
	ch := make(chan tea.Msg, 64)
	activeStreamCh = ch

	go func() {
		defer close(ch)

		send := func(msg tea.Msg) {
			select {
			case ch <- msg:
			case <-ctx.Done():
			}
		}

		err := client.Stream(ctx, message, func(chunk string) {
			send(streamChunkMsg{id: id, text: chunk})
		})
		switch {
		case ctx.Err() != nil:
			// Cancelled by the user; the model already moved on.
		case err != nil:
			send(streamErrMsg{id: id, err: err})
		default:
			send(streamDoneMsg{id: id})
		}
	}()

	return waitForStream(ch, id)
}

// waitForStream reads the next message from the channel.
func waitForStream(ch <-chan tea.Msg, id int) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return streamDoneMsg{id: id}
		}
		return msg
	}
}

// checkHealth asks the server for its status once at startup.
func checkHealth(client api.ChatAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		resp, err := client.Health(ctx)
		return healthMsg{resp: resp, err: err}
	}
}

// errorText flattens transport errors for the status line.
func errorText(err error) string {
	var se *api.StreamError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
