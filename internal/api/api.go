// Package api implements the HTTP API server for codemint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/antipattern"
	"github.com/aezell/codemint/internal/replay"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 8 << 20

// Server is the codemint HTTP API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server

	logger        *zap.Logger
	registry      *antipattern.Registry
	validator     *replay.Validator
	validatorOpts []replay.Option
	maxBody       int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry shares a detector registry with the server.
func WithRegistry(r *antipattern.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithValidatorOptions configures the replay validator used by the server.
func WithValidatorOptions(opts ...replay.Option) Option {
	return func(s *Server) {
		s.validatorOpts = append(s.validatorOpts, opts...)
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a new API server.
func New(addr string, opts ...Option) (*Server, error) {
	s := &Server{
		addr:    addr,
		logger:  zap.NewNop(),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		reg, err := antipattern.NewRegistry(antipattern.DefaultRegistrySize, s.logger)
		if err != nil {
			return nil, err
		}
		s.registry = reg
	}
	s.validator = s.newValidator()

	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// newValidator builds a validator from the server's options plus extra.
func (s *Server) newValidator(extra ...replay.Option) *replay.Validator {
	opts := []replay.Option{replay.WithLogger(s.logger)}
	opts = append(opts, s.validatorOpts...)
	opts = append(opts, extra...)
	return replay.New(opts...)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("POST /api/validate", s.handleValidate)
	s.mux.HandleFunc("POST /api/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/detectors", s.handleListDetectors)
	s.mux.HandleFunc("POST /api/detectors", s.handleRegisterDetector)
	s.mux.HandleFunc("DELETE /api/detectors/{pattern_id}", s.handleRemoveDetector)
	s.mux.HandleFunc("POST /api/prompt", s.handlePrompt)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("codemint API server listening", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Registry returns the detector registry.
func (s *Server) Registry() *antipattern.Registry {
	return s.registry
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("json encode error", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

var validate = validator.New()

// readJSON decodes and validates a JSON request body into v.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return checkFields(v)
}

func checkFields(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}
