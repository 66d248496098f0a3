// Package server exposes a textcat classifier over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/happyhackingspace/textcat"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 5 << 20

const requestIDHeader = "X-Request-ID"

// Options configures a Server.
type Options struct {
	MaxBodyBytes int64
	// Reload returns a freshly loaded classifier for POST /reload. Nil disables the route.
	Reload func() (*textcat.Classifier, error)
	Logger *slog.Logger
}

// Server serves classification endpoints. The classifier is swapped atomically on reload.
type Server struct {
	classifier atomic.Pointer[textcat.Classifier]
	ready      atomic.Bool
	reload     func() (*textcat.Classifier, error)
	maxBody    int64
	log        *slog.Logger
}

// New creates a Server around c.
func New(c *textcat.Classifier, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		reload:  opts.Reload,
		maxBody: opts.MaxBodyBytes,
		log:     opts.Logger,
	}
	s.Swap(c)
	return s
}

// Swap replaces the served classifier. A nil classifier marks the server not ready.
func (s *Server) Swap(c *textcat.Classifier) {
	s.classifier.Store(c)
	s.ready.Store(c != nil)
}

// SetReady changes the readiness reported by /readyz.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the routes wrapped with request ID logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/classify", s.ClassifyHandler)
	mux.HandleFunc("/info", s.InfoHandler)
	mux.HandleFunc("/reload", s.ReloadHandler)
	mux.HandleFunc("/healthz", HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	return s.withRequestID(mux)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, req)
		s.log.Debug("Request served", "id", id, "method", req.Method, "path", req.URL.Path, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		http.Error(w, `{"error":"failed to marshal response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) readBody(w http.ResponseWriter, req *http.Request) (string, bool) {
	req.Body = http.MaxBytesReader(w, req.Body, s.maxBody)
	defer func() { _ = req.Body.Close() }()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return "", false
		}
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return "", false
	}
	return string(body), true
}

func requireMethod(w http.ResponseWriter, req *http.Request, method string) bool {
	if req.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// classifyRequest is the JSON form of a /classify body. Exactly one field is set.
type classifyRequest struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// ClassifyHandler classifies the request body. A JSON body carries "text" or
// "html"; any other body is treated as HTML, or as text with ?format=text.
func (s *Server) ClassifyHandler(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	c := s.classifier.Load()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "no model loaded")
		return
	}

	body, ok := s.readBody(w, req)
	if !ok {
		return
	}

	isText := req.URL.Query().Get("format") == "text"
	if strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") {
		var cr classifyRequest
		if err := json.Unmarshal([]byte(body), &cr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if (cr.Text == "") == (cr.HTML == "") {
			writeError(w, http.StatusBadRequest, `set exactly one of "text" or "html"`)
			return
		}
		body, isText = cr.HTML, false
		if cr.Text != "" {
			body, isText = cr.Text, true
		}
	}

	var (
		res textcat.Result
		err error
	)
	if isText {
		res, err = c.ClassifyText(body)
	} else {
		res, err = c.ClassifyHTML(body)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// infoResponse describes the loaded model.
type infoResponse struct {
	Version         uint16   `json:"version"`
	Timestamp       string   `json:"timestamp"`
	Locale          string   `json:"locale"`
	Transformations []string `json:"transformations"`
	Classes         []string `json:"classes"`
	Dimension       int      `json:"dimension"`
}

// InfoHandler returns the loaded model metadata.
func (s *Server) InfoHandler(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	c := s.classifier.Load()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "no model loaded")
		return
	}
	writeJSON(w, http.StatusOK, newInfoResponse(c))
}

// ReloadHandler reloads the model and swaps it in. The previous model stays on failure.
func (s *Server) ReloadHandler(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	if s.reload == nil {
		writeError(w, http.StatusNotImplemented, "reload is not configured")
		return
	}

	c, err := s.reload()
	if err != nil {
		s.log.Warn("Model reload failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.Swap(c)
	s.log.Info("Model reloaded", "classes", c.Info().Model.NumClasses())
	writeJSON(w, http.StatusOK, newInfoResponse(c))
}

// HealthHandler returns liveness status for process health checks.
func HealthHandler(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler returns readiness status for traffic checks.
func (s *Server) ReadyHandler(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ListenOptions configures ListenAndServe.
type ListenOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves s until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, opts ListenOptions) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server is listening", "addr", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.SetReady(false)
	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
