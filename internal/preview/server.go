// Package preview serves a live view of the strips over websockets: the
// committed frames, the diagnostics feed and a health document.
package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/coreman2200/pathglow/internal/diagnostics"
	"github.com/coreman2200/pathglow/internal/layout"
)

// backlog is how many diagnostics a new /diag client receives on connect.
const backlog = 32

const writeWait = 200 * time.Millisecond

var _ diagnostics.Reporter = (*Server)(nil)

type Server struct {
	mu        sync.RWMutex
	strips    []layout.Strip
	driver    string
	frameID   uint64
	startTime time.Time

	clients     map[*client]bool
	diagClients map[*client]bool
	recent      []diagnostics.Diagnostic
	watch       map[string]func() any

	log zerolog.Logger
	up  websocket.Upgrader
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func New(strips []layout.Strip, driver string, log zerolog.Logger) *Server {
	return &Server{
		strips:      append([]layout.Strip(nil), strips...),
		driver:      driver,
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		watch:       map[string]func() any{},
		log:         log.With().Str("component", "preview").Logger(),
		up:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Watch adds a section to the /health document, filled by fn on request.
func (s *Server) Watch(name string, fn func() any) {
	s.mu.Lock()
	s.watch[name] = fn
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("preview listening")

	select {
	case err := <-errc:
		return errors.Wrap(err, "preview server")
	case <-ctx.Done():
	}

	shut, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := srv.Shutdown(shut)
	s.closeClients()
	return err
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	s.sendTopology(c)

	go s.drain(c, s.clients)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	s.mu.Lock()
	s.diagClients[c] = true
	past := append([]diagnostics.Diagnostic(nil), s.recent...)
	s.mu.Unlock()

	for _, d := range past {
		b, _ := json.Marshal(d)
		if err := c.send(b); err != nil {
			break
		}
	}

	go s.drain(c, s.diagClients)
}

// drain reads until the peer goes away, then forgets it.
func (s *Server) drain(c *client, set map[*client]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, c)
		s.mu.Unlock()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"strips":   len(s.strips),
		"driver":   s.driver,
		"clients":  len(s.clients),
	}
	watch := make(map[string]func() any, len(s.watch))
	for k, fn := range s.watch {
		watch[k] = fn
	}
	s.mu.RUnlock()

	for k, fn := range watch {
		resp[k] = fn()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type stripInfo struct {
	Channel  int     `json:"channel"`
	Offset   float64 `json:"offset"`
	Length   float64 `json:"length"`
	Count    int     `json:"count"`
	Reversed bool    `json:"reversed"`
}

func (s *Server) sendTopology(c *client) {
	s.mu.RLock()
	top := struct {
		Driver string      `json:"driver"`
		Strips []stripInfo `json:"strips"`
	}{Driver: s.driver}
	for _, st := range s.strips {
		top.Strips = append(top.Strips, stripInfo{
			Channel:  st.Channel,
			Offset:   st.Offset,
			Length:   st.Length,
			Count:    st.Count(),
			Reversed: st.Reversed,
		})
	}
	s.mu.RUnlock()

	b, _ := json.Marshal(top)
	_ = c.send(b)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Channel int    `json:"channel"`
	RGB     []byte `json:"rgb"`
}

// Tap broadcasts a committed frame. It has the signature of render.Tap.
func (s *Server) Tap(channel int, rgb []byte) {
	s.mu.Lock()
	s.frameID++
	id := s.frameID
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	if len(clients) == 0 {
		return
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, Channel: channel, RGB: rgb})
	for _, c := range clients {
		if err := c.send(b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
		}
	}
}

// Report pushes d to every /diag client and keeps it for late joiners.
func (s *Server) Report(d diagnostics.Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	s.mu.Lock()
	s.recent = append(s.recent, d)
	if len(s.recent) > backlog {
		s.recent = s.recent[len(s.recent)-backlog:]
	}
	clients := make([]*client, 0, len(s.diagClients))
	for c := range s.diagClients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	b, _ := json.Marshal(d)
	for _, c := range clients {
		_ = c.send(b)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.conn.Close()
	}
	for c := range s.diagClients {
		c.conn.Close()
	}
}
