package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"uichat/internal/protocol"
)

// wsURL derives the WebSocket endpoint from the base URL: https becomes wss,
// http becomes ws.
func (c *Client) wsURL(path string) string {
	u := c.baseURL + path
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// ChatStreamWS sends message over /api/chat/ws and reads one JSON event per
// frame. A normal close before a done event counts as completion.
func (c *Client) ChatStreamWS(ctx context.Context, message string, cb StreamCallback) error {
	// websocket.Dial rejects clients with a Timeout; the context bounds the
	// exchange instead.
	hc := &http.Client{Transport: c.httpClient.Transport}

	conn, _, err := websocket.Dial(ctx, c.wsURL(protocol.PathChatWS), &websocket.DialOptions{
		HTTPClient: hc,
	})
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	defer conn.CloseNow()

	if err := wsjson.Write(ctx, conn, ChatRequest{Message: message}); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	for {
		var ev StreamEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("reading stream: %w", err)
		}

		done, err := dispatch(ev, cb)
		if err != nil || done {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return err
		}
	}
}
