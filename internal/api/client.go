package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"uichat/internal/config"
	"uichat/internal/protocol"
)

type Client struct {
	baseURL    string
	transport  string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.ServerURL(), "/"),
		transport: cfg.TransportName(),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Transport returns "sse" or "ws".
func (c *Client) Transport() string { return c.transport }

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
}

// --- Health ---

type HealthResponse = protocol.HealthResponse

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, "GET", protocol.PathHealth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Chat (Streaming) ---

type ChatRequest = protocol.ChatRequest

type StreamEvent = protocol.StreamEvent

// StreamError is a failure reported by the server inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// StreamCallback is called for each content chunk, in arrival order.
type StreamCallback func(chunk string)

// Stream sends message over the configured transport and calls cb for every
// chunk until the server marks the reply done. A stream that ends without a
// done event is treated as complete.
func (c *Client) Stream(ctx context.Context, message string, cb StreamCallback) error {
	if c.transport == config.TransportWS {
		return c.ChatStreamWS(ctx, message, cb)
	}
	return c.ChatStream(ctx, message, cb)
}

// ChatStream posts message to /api/chat and reads the text/event-stream
// reply.
func (c *Client) ChatStream(ctx context.Context, message string, cb StreamCallback) error {
	body, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+protocol.PathChat, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, true)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	err = readSSE(resp.Body, cb)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// readSSE consumes "data: {...}" lines. Other SSE fields, comments and
// unparseable payloads are skipped.
func readSSE(r io.Reader, cb StreamCallback) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer for large streamed chunks
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}

		var ev StreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		done, err := dispatch(ev, cb)
		if err != nil || done {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

// dispatch applies one event and reports whether the stream is over.
func dispatch(ev StreamEvent, cb StreamCallback) (bool, error) {
	if ev.Error != "" {
		return true, &StreamError{Message: ev.Error}
	}
	if ev.Content != "" {
		cb(ev.Content)
	}
	return ev.Done, nil
}

// --- Generic JSON helper ---

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody interface{}, result interface{}) error {
	var bodyReader io.Reader
	if reqBody != nil && method != "GET" {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, bodyReader != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
