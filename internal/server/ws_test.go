package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/passagedb/passage/internal/pipeline"
)

func dialWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketQuery(t *testing.T) {
	s := newTestServer(t)
	uploadFile(t, s, "ws.txt", "websocket query test content", "")

	conn := dialWS(t, s)

	if err := conn.WriteJSON(wsRequest{Type: "query", Query: "test content?"}); err != nil {
		t.Fatal(err)
	}

	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "result" || resp.Result == nil {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Result.Answer != "a generated answer" {
		t.Errorf("answer = %q", resp.Result.Answer)
	}
}

func TestWebSocketEmptyCollection(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s)

	if err := conn.WriteJSON(wsRequest{Type: "query", Query: "anything?"}); err != nil {
		t.Fatal(err)
	}

	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "result" || resp.Result == nil || resp.Result.Answer != pipeline.NoContextAnswer {
		t.Errorf("response = %+v", resp)
	}
}

func TestWebSocketErrors(t *testing.T) {
	s := newTestServer(t)
	conn := dialWS(t, s)

	cases := []struct {
		name string
		send any
	}{
		{"unknown type", wsRequest{Type: "bogus", Query: "q"}},
		{"missing query", wsRequest{Type: "query"}},
	}
	for _, tc := range cases {
		if err := conn.WriteJSON(tc.send); err != nil {
			t.Fatal(err)
		}
		var resp wsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Type != "error" || resp.Error == "" {
			t.Errorf("%s: response = %+v, want error", tc.name, resp)
		}
	}
}
