package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Record is one streamed store mutation.
type Record struct {
	// Store is the name the store was registered under with Watch.
	Store string `json:"store"`

	// Key is the changed key for map stores; empty on whole-value
	// replaces.
	Key string `json:"key,omitempty"`

	// Path is the changed path for deep map stores.
	Path string `json:"path,omitempty"`

	// Value is the store's value after the mutation.
	Value any `json:"value"`

	// Seq orders records within one inspector run.
	Seq uint64 `json:"seq"`

	// Time is when the mutation was observed.
	Time time.Time `json:"time"`
}

// Server streams mutation records of watched stores to WebSocket
// clients.
type Server struct {
	config *Config

	hub      *hub
	upgrader websocket.Upgrader

	httpServer *http.Server
	logger     *slog.Logger

	seq atomic.Uint64
}

// New creates an inspector server with the given configuration. A nil
// config uses defaults; unset fields are filled in.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.normalize()
	}

	logger := slog.Default().With("component", "inspect")

	s := &Server{
		config: config,
		hub:    newHub(config.WriteTimeout, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}

	router := chi.NewRouter()
	router.Get("/ws", s.handleWS)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.run()
	defer s.hub.close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "address", s.config.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the server's HTTP handler, for embedding the
// inspector into an existing server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleWS upgrades the connection and attaches it to the hub.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, s.config.SendBuffer),
	}

	select {
	case s.hub.register <- c:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go s.hub.writePump(c)
	go s.hub.readPump(c)
}

// publish encodes and broadcasts one mutation record.
func (s *Server) publish(rec Record) {
	rec.Seq = s.seq.Add(1)
	rec.Time = time.Now()

	msg, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("record encode failed", "store", rec.Store, "error", err)
		return
	}
	s.hub.publish(msg)
}
