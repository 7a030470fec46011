// Package server implements the broadcast transport: a websocket listener
// that holds the live client registry and the most recently published
// snapshot, dispatching inbound queries to the resolver.
package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sensorstream/internal/query"
	"sensorstream/internal/snapshot"
)

// NoDataMessage is the sentinel reply sent before the first Publish.
const NoDataMessage = "No data available"

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
)

// Config holds transport settings.
type Config struct {
	ListenAddr string
	Port       int
	// PushUpdates broadcasts each published snapshot to every client.
	// When false, clients only receive answers to their own queries.
	PushUpdates bool
}

// cached pairs a snapshot with its serialized form so queries and pushes
// always observe one fully-formed capture.
type cached struct {
	snap       *snapshot.Snapshot
	serialized []byte
}

// Server is the broadcast transport. The client registry and the snapshot
// cache are its only shared mutable state: the registry lives under mu, the
// cache behind an atomic pointer swap.
type Server struct {
	cfg Config
	log zerolog.Logger

	upgrader websocket.Upgrader
	cache    atomic.Pointer[cached]

	mu      sync.Mutex
	clients map[uuid.UUID]*client
	ln      net.Listener
	httpSrv *http.Server
	started bool
	stopped bool
}

// New creates an unstarted Server.
func New(cfg Config, log zerolog.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*client),
	}
}

// Start binds the listening port and begins accepting connections. A port
// that is unavailable or already bound surfaces as an error here, not later.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.ListenAddr, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("starting listener on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.ln = ln
	s.httpSrv = &http.Server{Handler: mux}
	s.started = true

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("HTTP server terminated")
		}
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("Transport listening")
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Publish atomically replaces the cached snapshot with a fresh capture.
// Resolutions in flight observe either the previous or the new snapshot in
// its entirety, never a mix.
func (s *Server) Publish(snap *snapshot.Snapshot) error {
	data, err := json.Marshal(snap.Nodes)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	s.cache.Store(&cached{snap: snap, serialized: data})
	s.log.Debug().Int("nodes", len(snap.Nodes)).Int("bytes", len(data)).Msg("Snapshot published")

	if s.cfg.PushUpdates {
		s.Broadcast(data)
	}
	return nil
}

// Broadcast sends payload to every registered client. Each delivery completes
// independently; a failing client is deregistered without affecting others.
func (s *Server) Broadcast(payload []byte) {
	for _, c := range s.clientList() {
		go func(c *client) {
			if err := c.send(payload); err != nil {
				s.dropClient(c, err)
			}
		}(c)
	}
}

// ClientCount returns the number of registered connections.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Stop closes all registered connections, clears the registry and releases
// the listening port. Calling it again, or before Start, is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	clients := s.clients
	s.clients = make(map[uuid.UUID]*client)
	httpSrv := s.httpSrv
	s.mu.Unlock()

	// Close hijacked websocket connections explicitly; http.Server.Close
	// only covers the listener and idle HTTP connections.
	for _, c := range clients {
		c.close()
	}
	if err := httpSrv.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Error closing HTTP server")
	}

	s.log.Info().Msg("Transport stopped")
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Upgrade failed")
		return
	}

	c := &client{id: uuid.New(), conn: conn}
	conn.SetReadLimit(maxMessageSize)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c.id] = c
	s.mu.Unlock()

	s.log.Info().
		Str("client_id", c.id.String()).
		Str("remote", conn.RemoteAddr().String()).
		Msg("Client connected")

	go s.readLoop(c)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"clients":      s.ClientCount(),
		"has_snapshot": s.cache.Load() != nil,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// readLoop answers one client's queries in arrival order until the
// connection closes. A malformed query never terminates the connection.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.removeClient(c)
		c.close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Str("client_id", c.id.String()).Msg("Client read error")
			}
			s.log.Info().Str("client_id", c.id.String()).Msg("Client disconnected")
			return
		}

		if err := s.handleQuery(c, string(msg)); err != nil {
			s.dropClient(c, err)
			return
		}
	}
}

func (s *Server) handleQuery(c *client, raw string) error {
	cur := s.cache.Load()
	if cur == nil {
		return c.send([]byte(NoDataMessage))
	}

	resp := query.Resolve(cur.snap, raw)
	s.log.Debug().
		Str("client_id", c.id.String()).
		Str("query", raw).
		Int("kind", int(resp.Kind)).
		Msg("Query resolved")

	return c.send([]byte(resp.Text()))
}

func (s *Server) clientList() []*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		list = append(list, c)
	}
	return list
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
}

func (s *Server) dropClient(c *client, err error) {
	s.log.Warn().Err(err).Str("client_id", c.id.String()).Msg("Send failed, dropping client")
	s.removeClient(c)
	c.close()
}

// client is one registered connection. Writes are serialized by writeMu so a
// query response and a broadcast never interleave on the wire.
type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) close() {
	c.conn.Close()
}
