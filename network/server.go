package network

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	tokensync "github.com/pvignau/design-tokens-manager"
	"github.com/pvignau/design-tokens-manager/utils"
)

// Server exposes the relay on both transports: a WebSocket listener
// for push-capable clients and an HTTP listener carrying the poll
// surface (/api/tokens), the event stream (/api/stream) and metrics.
type Server struct {
	log      utils.Logger
	relay    *tokensync.Relay
	opts     tokensync.Options
	registry *prometheus.Registry
	upgrader websocket.Upgrader
}

func NewServer(log utils.Logger, relay *tokensync.Relay, opts tokensync.Options) *Server {
	opts.SetDefaults()

	registry := prometheus.NewRegistry()
	registry.MustRegister(tokensync.NewRelayCollector(relay))

	return &Server{
		log:      log,
		relay:    relay,
		opts:     opts,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// plugin sandboxes and file:// pages are never same-origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// PushHandler accepts WebSocket upgrades on /ws and on the bare root,
// matching clients that dial the port without a path.
func (s *Server) PushHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/", s.handleWS)
	return r
}

// APIHandler serves the request/poll surface.
func (s *Server) APIHandler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)
	api.HandleFunc("/tokens", s.handleGetTokens).Methods(http.MethodGet)
	api.HandleFunc("/tokens", s.handlePostTokens).Methods(http.MethodPost)
	api.HandleFunc("/tokens", s.handleOptionsTokens).Methods(http.MethodOptions)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Serve runs both listeners until ctx is cancelled or one of them
// fails.
func (s *Server) Serve(ctx context.Context) error {
	push := &http.Server{Addr: s.opts.PushListenAddr, Handler: s.PushHandler()}
	api := &http.Server{Addr: s.opts.APIListenAddr, Handler: s.APIHandler()}

	errCh := make(chan error, 2)
	go func() { errCh <- push.ListenAndServe() }()
	go func() { errCh <- api.ListenAndServe() }()

	s.log.Info("network: listening", "push", s.opts.PushListenAddr, "api", s.opts.APIListenAddr)

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		s.log.Error("network: listener failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = push.Shutdown(shutdownCtx)
	_ = api.Shutdown(shutdownCtx)
	s.relay.Close()

	return err
}
