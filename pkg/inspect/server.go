package inspect

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/controlstore/internal/errors"
	"github.com/vango-dev/controlstore/pkg/store"
	"github.com/vango-dev/controlstore/pkg/telemetry"
)

// Server serves the inspector routes for a Registry.
type Server struct {
	registry *Registry
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	metrics      http.Handler
	tracer       *telemetry.Tracer
	origins      []string
	writeTimeout time.Duration
	pingInterval time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler serves h at /metrics, typically promhttp.Handler().
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithTracer traces every request.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

// WithAllowedOrigins sets the origins allowed to open watch sockets.
// "*" allows any origin. Default: same origin only.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithPingInterval sets how often watch sockets are pinged.
// Default: 30 seconds.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		s.pingInterval = d
	}
}

// NewServer creates a Server for registry.
func NewServer(registry *Registry, opts ...Option) *Server {
	s := &Server{
		registry:     registry,
		logger:       slog.Default(),
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.tracer != nil {
		r.Use(s.tracer.HTTPMiddleware)
	}

	r.Get("/stores", s.handleList)
	r.Route("/stores/{name}", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Get("/configs", s.handleConfigs)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Get("/watch", s.handleWatch)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// Handler returns the inspector's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("inspector shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// StoreSummary describes a registered store.
type StoreSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Keys       []string `json:"keys"`
	Controlled []string `json:"controlled"`
	Listeners  int      `json:"listeners"`
}

// ConfigView describes the ownership of one key.
type ConfigView struct {
	Mode                string `json:"mode"`
	Component           string `json:"component,omitempty"`
	State               string `json:"state,omitempty"`
	HasValue            bool   `json:"hasValue"`
	HasDefault          bool   `json:"hasDefault"`
	HasOnChange         bool   `json:"hasOnChange"`
	InitiallyControlled bool   `json:"initiallyControlled"`
}

// StateView is the state of one store.
type StateView struct {
	Name  string       `json:"name"`
	State *store.State `json:"state"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.Entries()
	out := make([]StoreSummary, 0, len(entries))
	for _, e := range entries {
		sum := StoreSummary{
			ID:         e.ID.String(),
			Name:       e.Name,
			Keys:       e.Store.Snapshot().Keys(),
			Controlled: []string{},
			Listeners:  e.Store.ListenerCount(),
		}
		if sum.Keys == nil {
			sum.Keys = []string{}
		}
		for _, k := range e.Store.ConfiguredKeys() {
			if e.Store.IsControlled(k) {
				sum.Controlled = append(sum.Controlled, k)
			}
		}
		out = append(out, sum)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Entry, bool) {
	e, err := s.registry.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return e, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, StateView{Name: e.Name, State: e.Store.Snapshot()})
}

func (s *Server) handleConfigs(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	out := make(map[string]ConfigView)
	for _, k := range e.Store.ConfiguredKeys() {
		cfg, _ := e.Store.Config(k)
		initial, _ := e.Store.InitiallyControlled(k)
		out[k] = ConfigView{
			Mode:                cfg.Mode.String(),
			Component:           cfg.Name,
			State:               cfg.State,
			HasValue:            cfg.HasValue,
			HasDefault:          cfg.HasDefault,
			HasOnChange:         cfg.OnChange != nil,
			InitiallyControlled: initial,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, e.Diagnostics())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"message": err.Error()}
	var se *errors.StoreError
	if stderrors.As(err, &se) {
		body["code"] = se.Code
		body["message"] = se.Message
		if se.Detail != "" {
			body["detail"] = se.Detail
		}
	}
	s.writeJSON(w, status, body)
}
