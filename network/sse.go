package network

import (
	"fmt"
	"net/http"

	tokensync "github.com/pvignau/design-tokens-manager"
)

// handleStream holds a text/event-stream response open and feeds the
// client's broadcast queue into it. The first event, when state is
// non-empty, is the directed catch-up sync queued by Attach.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	client, err := s.relay.Attach(tokensync.KindSSE)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.InfoCtx(r.Context(), "sse: stream opened", "name", client.Name, "remote", r.RemoteAddr)

	// a dropped request unblocks Feed by detaching the client
	go func() {
		<-r.Context().Done()
		s.relay.Detach(client.Name)
	}()

	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		recs, err := client.Feed()
		if err != nil {
			return
		}
		for _, rec := range recs {
			if _, err := fmt.Fprintf(w, "data: %s\n\n", rec); err != nil {
				s.relay.Detach(client.Name)
				return
			}
		}
		flusher.Flush()
	}
}
