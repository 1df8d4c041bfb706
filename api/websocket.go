package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"github.com/seenimoa/finchat/internal/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// Maximum message size allowed from peer.
	wsMaxMessageSize = 4096
)

// wsChatMessage is one chat exchange over the socket.
type wsChatMessage struct {
	Message   string `json:"message,omitempty"`
	Response  string `json:"response,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleChatSocket upgrades the connection and serves a synchronous
// chat loop: one user message in, one assistant reply out. The whole
// connection shares one session unless the client supplies its own.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	sessionID := chat.NewSessionID()

	for {
		var msg wsChatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}

		if msg.Message == "" {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(wsChatMessage{Error: "message is required", SessionID: sessionID}); err != nil {
				return
			}
			continue
		}

		reply := s.assistant.Respond(r.Context(), sessionID, msg.Message)

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(wsChatMessage{Response: reply, SessionID: sessionID}); err != nil {
			return
		}
	}
}
