// Package server is a mock chat backend. It streams scripted replies that
// contain UI tags over Server-Sent Events and WebSocket, so the client
// pipeline can be exercised without a language model.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"uichat/internal/protocol"
)

const maxBodySize = 1 << 20

// Options configures a Server. Zero Delay and Jitter stream without pauses.
type Options struct {
	Scripts *Scripts
	Delay   time.Duration // pause before each chunk
	Jitter  time.Duration // random extra pause, up to this much
	Logger  *slog.Logger
}

type Server struct {
	scripts *Scripts
	delay   time.Duration
	jitter  time.Duration
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New builds a server. A nil Scripts loads the built-in dataset.
func New(opts Options) (*Server, error) {
	scripts := opts.Scripts
	if scripts == nil {
		var err error
		scripts, err = LoadScripts("")
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		scripts: scripts,
		delay:   opts.Delay,
		jitter:  opts.Jitter,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET "+protocol.PathHealth, s.handleHealth)
	s.mux.HandleFunc("POST "+protocol.PathChat, s.handleChat)
	s.mux.HandleFunc("GET "+protocol.PathChatWS, s.handleChatWS)
	s.mux.HandleFunc("OPTIONS /", s.handlePreflight)
	return s, nil
}

// Handler returns the root handler with CORS headers applied.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control")
		s.mux.ServeHTTP(w, r)
	})
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	s.logger.Info("mock server started", "addr", addr, "scripts", strings.Join(s.scripts.Names(), ","))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.HealthResponse{Status: "OK", Message: "Mock server is running"})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req protocol.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(ev protocol.StreamEvent) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	s.stream(r.Context(), "sse", req.Message, send)
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var req protocol.ChatRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		s.logger.Warn("websocket read failed", "error", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		_ = wsjson.Write(ctx, conn, protocol.StreamEvent{Error: "Message is required", Done: true})
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	// Nothing more is read from the client; CloseRead cancels ctx when it
	// hangs up so the script stops early.
	ctx = conn.CloseRead(ctx)
	send := func(ev protocol.StreamEvent) error {
		return wsjson.Write(ctx, conn, ev)
	}
	if s.stream(ctx, "ws", req.Message, send) {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

// stream plays the script for message through send and reports whether the
// reply ran to completion.
func (s *Server) stream(ctx context.Context, transport, message string, send func(protocol.StreamEvent) error) bool {
	script := s.scripts.Pick(message)
	log := s.logger.With("transport", transport, "script", script.Name)
	log.Info("stream started", "message_len", len(message))
	start := time.Now()

	for i, chunk := range script.Reply(message) {
		if err := s.pause(ctx); err != nil {
			log.Info("stream cancelled", "chunk", i)
			return false
		}
		if err := send(protocol.StreamEvent{Content: chunk}); err != nil {
			log.Warn("stream write failed", "chunk", i, "error", err)
			return false
		}
		log.Debug("chunk sent", "chunk", i, "bytes", len(chunk))
	}

	if err := send(protocol.StreamEvent{Done: true}); err != nil {
		log.Warn("stream write failed", "error", err)
		return false
	}
	log.Info("stream finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return true
}

func (s *Server) pause(ctx context.Context) error {
	d := s.delay
	if s.jitter > 0 {
		d += rand.N(s.jitter)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
