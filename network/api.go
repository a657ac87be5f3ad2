package network

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pvignau/design-tokens-manager/protocol"
	"github.com/pvignau/design-tokens-manager/tokens"
)

// SourcePost tags mutations arriving on the request/poll channel
// without a source of their own.
const SourcePost = "post"

type clientCounts struct {
	SSE   int `json:"sse"`
	WS    int `json:"ws"`
	Total int `json:"total"`
}

type tokensResponse struct {
	Tokens    []tokens.Token `json:"tokens"`
	Timestamp int64          `json:"timestamp"`
	Clients   clientCounts   `json:"clients"`
}

type postResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SSEClients   int    `json:"sseClients"`
	WSClients    int    `json:"wsClients"`
	TotalClients int    `json:"totalClients"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// corsMiddleware makes the poll surface reachable from the design-tool
// plugin sandbox, which cannot be assumed same-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetTokens(w http.ResponseWriter, r *http.Request) {
	var ts int64
	if last := s.relay.Store().LastSync(); !last.IsZero() {
		ts = last.UnixMilli()
	}

	ws, sse, total := s.relay.Counts()
	writeJSON(w, http.StatusOK, tokensResponse{
		Tokens:    s.relay.Store().Snapshot(),
		Timestamp: ts,
		Clients:   clientCounts{SSE: sse, WS: ws, Total: total},
	})
}

func (s *Server) handlePostTokens(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	msg, err := protocol.Parse(raw)
	if err != nil {
		s.log.WarnCtx(r.Context(), "api: rejecting malformed message", "remote", r.RemoteAddr, "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	origin := msg.Source
	if origin == "" {
		origin = SourcePost
	}
	if err := s.relay.Deliver(msg, origin); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ws, sse, total := s.relay.Counts()
	writeJSON(w, http.StatusOK, postResponse{
		Success:      true,
		Message:      fmt.Sprintf("%s relayed", msg.Type),
		SSEClients:   sse,
		WSClients:    ws,
		TotalClients: total,
	})
}

func (s *Server) handleOptionsTokens(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

const maxBodySize = 8 << 20

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
