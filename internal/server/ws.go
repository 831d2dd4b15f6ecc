package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/passagedb/passage/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type       string `json:"type"` // "query"
	Query      string `json:"query"`
	K          int    `json:"k"`
	Collection string `json:"collection"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type   string                `json:"type"` // "result" or "error"
	Result *pipeline.QueryResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}

		switch req.Type {
		case "query":
			s.handleWSQuery(conn, r, req)
		default:
			s.sendWSError(conn, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleWSQuery(conn *websocket.Conn, r *http.Request, req wsRequest) {
	if req.Query == "" {
		s.sendWSError(conn, "query is required")
		return
	}

	result, err := s.querier.Query(r.Context(), req.Collection, req.Query, req.K)
	if err != nil {
		s.sendWSError(conn, err.Error())
		return
	}

	s.sendWS(conn, wsResponse{Type: "result", Result: result})
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("websocket write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, msg string) {
	s.sendWS(conn, wsResponse{Type: "error", Error: msg})
}
