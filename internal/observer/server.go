package observer

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dungeoncrawler/server/internal/observerproto"
)

// CommandSink accepts debug commands from observer clients. It is called
// from connection goroutines and must not block.
type CommandSink interface {
	SubmitCommand(cmd observerproto.CommandMsg) bool
}

// Server fans frames built on the game loop out to loopback websocket
// clients and forwards their commands to a CommandSink.
type Server struct {
	sink CommandSink
	log  *zap.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]chan []byte
	latest  []byte
}

func NewServer(sink CommandSink, log *zap.Logger) *Server {
	return &Server{
		sink: sink,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see isLoopbackRemote
		},
		clients: make(map[uint64]chan []byte),
	}
}

// Publish encodes frame once and offers it to every client. Slow clients
// miss frames instead of stalling the game loop.
func (s *Server) Publish(frame observerproto.FrameMsg) {
	b, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("encode frame", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	for _, out := range s.clients {
		select {
		case out <- b:
		default:
		}
	}
}

// Clients reports the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) join() (uint64, chan []byte) {
	id := s.nextID.Add(1)
	out := make(chan []byte, 8)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = out
	if s.latest != nil {
		out <- s.latest
	}
	return id, out
}

func (s *Server) leave(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

// Handler returns the mux serving GET /observer/frame and the /observer/ws stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/observer/frame", s.FrameHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
	return mux
}

// FrameHandler serves the most recent frame as JSON.
func (s *Server) FrameHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		s.mu.Lock()
		b := s.latest
		s.mu.Unlock()
		if b == nil {
			http.Error(rw, "no frame yet", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(b)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := s.join()
		defer s.leave(id)
		s.log.Info("observer connected", zap.Uint64("observer", id), zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: debug commands.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var cmd observerproto.CommandMsg
			if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Type != "COMMAND" {
				s.log.Debug("observer: bad message", zap.Uint64("observer", id))
				continue
			}
			if !s.sink.SubmitCommand(cmd) {
				s.log.Debug("observer: command dropped", zap.Uint64("observer", id), zap.String("action", cmd.Action))
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		s.log.Info("observer disconnected", zap.Uint64("observer", id))
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
