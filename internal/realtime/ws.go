package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 8 << 10
)

type clientMsg struct {
	Op     string `json:"op"`
	ID     string `json:"id"`
	Table  string `json:"table"`
	Filter string `json:"filter"`
}

// Serve pumps frames between conn and the session until either side closes.
// The session is detached on return.
func Serve(conn *websocket.Conn, s *Session) {
	defer s.hub.Detach(s)

	done := make(chan struct{})
	go writePump(conn, s, done)

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ realtime session %s read error: %v", s.ID, err)
			}
			break
		}
		var msg clientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Send(Frame{Op: "error", Error: "invalid message"})
			continue
		}
		handleClientMsg(s, msg)
	}

	close(done)
}

func handleClientMsg(s *Session, msg clientMsg) {
	switch msg.Op {
	case "subscribe":
		if err := s.Subscribe(msg.ID, msg.Table, msg.Filter); err != nil {
			s.Send(Frame{Op: "error", ID: msg.ID, Error: err.Error()})
			return
		}
		s.Send(Frame{Op: "subscribed", ID: msg.ID})
	case "unsubscribe":
		s.Unsubscribe(msg.ID)
		s.Send(Frame{Op: "unsubscribed", ID: msg.ID})
	case "ping":
		s.Send(Frame{Op: "pong"})
	default:
		s.Send(Frame{Op: "error", ID: msg.ID, Error: "unknown op " + msg.Op})
	}
}

func writePump(conn *websocket.Conn, s *Session, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case f, ok := <-s.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
