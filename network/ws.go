package network

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	tokensync "github.com/pvignau/design-tokens-manager"
	"github.com/pvignau/design-tokens-manager/protocol"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client, err := s.relay.Attach(tokensync.KindWS)
	if err != nil {
		s.log.Error("ws: couldn't attach client", "remote", r.RemoteAddr, "err", err)
		_ = conn.Close()
		return
	}

	go s.writePump(client, conn)
	s.readPump(client, conn)
}

// readPump relays inbound messages until the connection drops. A
// malformed message is logged and dropped, the connection stays up.
func (s *Server) readPump(client *tokensync.Client, conn *websocket.Conn) {
	defer func() {
		s.relay.Detach(client.Name)
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("ws: read failed", "name", client.Name, "err", err)
			}
			return
		}

		msg, err := protocol.Parse(raw)
		if err != nil {
			s.log.Warn("ws: dropping malformed message", "name", client.Name, "err", err)
			continue
		}

		if err := s.relay.Deliver(msg, client.Name); err != nil {
			s.log.Error("ws: couldn't deliver message", "name", client.Name, "err", err)
		}
	}
}

// writePump feeds the client's broadcast queue out to the socket.
func (s *Server) writePump(client *tokensync.Client, conn *websocket.Conn) {
	defer func() {
		s.relay.Detach(client.Name)
		_ = conn.Close()
	}()

	for {
		recs, err := client.Feed()
		if err != nil {
			return
		}
		for _, rec := range recs {
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, rec); err != nil {
				s.log.Warn("ws: write failed", "name", client.Name, "err", err)
				return
			}
		}
	}
}
