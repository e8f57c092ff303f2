package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/tmc/langchaingo/tools"

	"github.com/bryn/sage/pkg/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	BaseURL       string
	Model         string
	MaxIterations int
}

// WSServer exposes the tool-calling agent over a websocket. Each
// connection gets its own agent so histories do not mix.
type WSServer struct {
	config Config
}

func NewWSServer(config Config) *WSServer {
	return &WSServer{config: config}
}

func (s *WSServer) newAgent() (*agent.Agent, error) {
	toolset := []tools.Tool{
		agent.Calculator{},
		agent.Clock{},
		agent.WordCount{},
	}

	return agent.NewWithConfig(agent.AgentConfig{
		Model:         s.config.Model,
		BaseURL:       s.config.BaseURL,
		MaxIterations: s.config.MaxIterations,
	}, toolset...)
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	a, err := s.newAgent()
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Failed to initialize agent: %v", err))
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		s.handleMessage(r.Context(), conn, a, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, a *agent.Agent, msg Message) {
	switch msg.Type {
	case "chat":
		s.sendMessage(conn, "status", "thinking")

		answer, err := a.Run(ctx, msg.Content)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}
		s.sendMessage(conn, "response", answer)

	case "history":
		if err := conn.WriteJSON(Message{Type: "history", Data: a.History()}); err != nil {
			log.Printf("Error sending message: %v", err)
		}

	case "clear":
		a.ClearHistory()
		s.sendMessage(conn, "status", "history cleared")

	default:
		s.sendMessage(conn, "error", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// Handler returns the full route set: the websocket endpoint and a
// health check.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe blocks serving the websocket endpoints on addr.
func (s *WSServer) ListenAndServe(addr string) error {
	log.Printf("Starting WebSocket server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}
