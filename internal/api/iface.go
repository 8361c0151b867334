package api

import "context"

// ChatAPI defines the interface for the chat server client.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type ChatAPI interface {
	Health(ctx context.Context) (*HealthResponse, error)
	Stream(ctx context.Context, message string, cb StreamCallback) error
	Transport() string
}
