// Package protocol holds the JSON wire types and routes shared by the chat
// client and the mock server.
package protocol

const (
	PathHealth = "/health"
	PathChat   = "/api/chat"
	PathChatWS = "/api/chat/ws"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ChatRequest is the body of POST /api/chat and the first WebSocket frame.
type ChatRequest struct {
	Message string `json:"message"`
}

// StreamEvent is one server event. A final event has Done set; a failed
// stream ends with Error set.
type StreamEvent struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}
