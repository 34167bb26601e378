// Package server exposes the assistant over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"gamesage/internal/answer"
	"gamesage/internal/assistant"
	"gamesage/internal/debug"
	"gamesage/internal/observability"
)

const maxBodyBytes = 1 << 20

type Asker interface {
	Ask(ctx context.Context, query string, history []string) (assistant.Turn, error)
}

type ChatRequest struct {
	Query     string   `json:"query"`
	History   []string `json:"history"`
	SessionID string   `json:"session_id"`
}

type ChatResponse struct {
	Response     string       `json:"response"`
	ResponseHTML string       `json:"response_html,omitempty"`
	Topic        answer.Topic `json:"topic,omitempty"`
	SessionID    string       `json:"session_id,omitempty"`
	TurnID       int64        `json:"turn_id,omitempty"`
	Fallback     bool         `json:"fallback,omitempty"`
}

type Server struct {
	asker Asker
	debug *debug.Logger
}

func New(asker Asker, debug *debug.Logger) *Server {
	return &Server{asker: asker, debug: debug}
}

// RegisterRoutes adds the chat and health endpoints to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Response: "Error: invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Response: "Error: query is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := observability.WithSessionID(r.Context(), req.SessionID)
	turn, err := s.asker.Ask(ctx, req.Query, req.History)
	if err != nil {
		s.debug.Warnf("chat failed for session %s: %v", req.SessionID, err)
		writeJSON(w, http.StatusInternalServerError, ChatResponse{
			Response:  "Error: " + err.Error(),
			SessionID: req.SessionID,
		})
		return
	}

	html, err := RenderHTML(turn.Answer)
	if err != nil {
		s.debug.Warnf("markdown render failed: %v", err)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:     turn.Answer,
		ResponseHTML: html,
		Topic:        turn.Topic,
		SessionID:    req.SessionID,
		TurnID:       turn.ID,
		Fallback:     turn.Fallback,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RenderHTML converts a composed markdown answer to HTML.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Run serves handler on addr until ctx ends.
func Run(ctx context.Context, addr string, handler http.Handler, debug *debug.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on http addr %s: %w", addr, err)
	}
	return Serve(ctx, listener, handler, debug)
}

// Serve serves handler on listener until ctx ends, then shuts down.
func Serve(ctx context.Context, listener net.Listener, handler http.Handler, debug *debug.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	debug.Printf("HTTP server listening at %v", listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}
