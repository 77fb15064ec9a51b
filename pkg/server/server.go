// Package server exposes a document store over HTTP so that planners on
// different machines can share rooms. Watchers subscribe over a websocket
// and receive a full snapshot frame after every change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/aretw0/aquarium/pkg/core"
)

// Content types accepted by PATCH.
const (
	MergePatchType = "application/merge-patch+json"
	JSONPatchType  = "application/json-patch+json"
)

// MaxDocumentSize bounds request bodies.
const MaxDocumentSize = 4 << 20

// Server serves a core.Store.
type Server struct {
	store    core.Store
	logger   *slog.Logger
	upgrader websocket.Upgrader
	ping     time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPingInterval sets how often idle watch sockets are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		s.ping = d
	}
}

// New creates a server for store.
func New(store core.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ping: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLog)

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.health)
	r.Methods(http.MethodGet).Path("/state").HandlerFunc(s.state)
	r.Methods(http.MethodGet).Path("/rooms/{key}").HandlerFunc(s.getRoom)
	r.Methods(http.MethodPut).Path("/rooms/{key}").HandlerFunc(s.putRoom)
	r.Methods(http.MethodPatch).Path("/rooms/{key}").HandlerFunc(s.patchRoom)
	r.Methods(http.MethodGet).Path("/rooms/{key}/watch").HandlerFunc(s.watchRoom)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("server shutdown failed", "error", err)
	}))

	s.logger.Info("serving rooms", "addr", ln.Addr().String())
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("handled", "method", r.Method, "path", r.URL.Path, "duration", m.Duration, "status", m.Code, "bytes", m.Written)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	inspectable, ok := s.store.(introspection.Introspectable)
	if !ok {
		http.Error(w, "store exposes no state", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, inspectable.State())
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) putRoom(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	merge, _ := strconv.ParseBool(r.URL.Query().Get("merge"))
	if err := s.store.Write(r.Context(), mux.Vars(r)["key"], body, core.WriteOptions{Merge: merge}); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) patchRoom(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["key"]

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	switch mediaType {
	case MergePatchType:
		err = s.store.Write(r.Context(), key, body, core.WriteOptions{Merge: true})
	case JSONPatchType:
		patchable, ok := s.store.(core.Patchable)
		if !ok {
			s.fail(w, core.ErrNotPatchable)
			return
		}
		err = patchable.Patch(r.Context(), key, body)
	default:
		http.Error(w, "unsupported patch type "+mediaType, http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) watchRoom(w http.ResponseWriter, r *http.Request) {
	watchable, ok := s.store.(core.Watchable)
	if !ok {
		s.fail(w, core.ErrNotWatchable)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snaps, err := watchable.Watch(ctx, mux.Vars(r)["key"])
	if err != nil {
		s.fail(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade", "error", err)
		return
	}
	defer conn.Close()

	// The client never sends frames; reading detects when it goes away.
	lifecycle.Go(ctx, func(context.Context) error {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return nil
			}
		}
	})

	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"), time.Now().Add(time.Second))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				s.logger.Debug("watch client gone", "error", err)
				return
			}
		}
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentSize))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if !json.Valid(body) {
		http.Error(w, "body is not valid JSON", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// StatusFor maps store errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyRoom):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotPatchable), errors.Is(err, core.ErrNotWatchable):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}
