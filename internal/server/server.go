// Package server exposes schema extraction over HTTP.
//
// Routes:
//
//	GET /v1/schemas/{schema}/ddl   extracted DDL (format=sql|json|csv, view=<filter>, header=true)
//	GET /healthz                   catalog reachability
//	GET /metrics                   Prometheus metrics
//
// Every request gets its own pooled catalog session. Identical concurrent
// requests share one extraction and its completed result.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/audit"
	"github.com/sadopc/matviewddl/internal/config"
	"github.com/sadopc/matviewddl/internal/ddl"
	"github.com/sadopc/matviewddl/internal/extract"
	"github.com/sadopc/matviewddl/internal/metrics"
	"github.com/sadopc/matviewddl/internal/output"
)

// Server serves extracted DDL for one catalog connection.
type Server struct {
	conn    adapter.Connection
	cfg     config.ServerConfig
	logger  *slog.Logger
	auditor *audit.Logger
	dsn     string

	limiter *rateLimiter
	group   singleflight.Group
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithAudit records every extraction in l. dsn is sanitized before it is
// written.
func WithAudit(l *audit.Logger, dsn string) Option {
	return func(s *Server) {
		s.auditor = l
		s.dsn = dsn
	}
}

// New builds a Server for conn. A nil logger discards logs.
func New(conn adapter.Connection, cfg config.ServerConfig, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		limiter: newRateLimiter(RateLimitConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimw.Recoverer)
	r.Use(accessLog(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Get("/schemas/{schema}/ddl", s.handleDDL)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.limiter.run(sweepCtx, 5*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "adapter", s.conn.AdapterName(), "database", s.conn.DatabaseName())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.conn.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "catalog unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"adapter":  s.conn.AdapterName(),
		"database": s.conn.DatabaseName(),
	})
}

type extraction struct {
	result *extract.Result
	runID  string
}

func (s *Server) handleDDL(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	schemaName, err := schemaParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid schema name encoding")
		return
	}
	q := r.URL.Query()
	format, err := output.ParseFormat(q.Get("format"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	header := false
	if v := q.Get("header"); v != "" {
		if header, err = strconv.ParseBool(v); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid header parameter")
			return
		}
	}
	opts := extract.Options{ViewFilter: q.Get("view")}

	if err := extract.ValidateSchemaName(schemaName); err != nil {
		metrics.RecordExtraction(nil, err, 0)
		s.writeExtractError(w, reqID, err)
		return
	}

	key := schemaName + "\x00" + opts.ViewFilter
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.extract(r.Context(), reqID, schemaName, opts)
	})
	if shared {
		metrics.RecordSharedExtraction()
	}
	if err != nil {
		s.writeExtractError(w, reqID, err)
		return
	}
	ex := v.(*extraction)
	res := ex.result

	script := res.DDL()
	w.Header().Set("X-Extraction-ID", ex.runID)
	w.Header().Set("ETag", strconv.Quote(ddl.Checksum(script)))
	switch format {
	case output.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case output.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	err = output.Write(w, res, output.Options{
		Format:   format,
		Header:   header,
		Database: s.conn.DatabaseName(),
		Checksum: ddl.Checksum(script),
	})
	if err != nil {
		s.logger.Warn("write response", "request_id", reqID, "error", err)
	}
}

// schemaParam returns the decoded {schema} segment. chi matches against
// RawPath when the request carries escapes Path cannot represent (such as
// %2F), and only then is the parameter still escaped.
func schemaParam(r *http.Request) (string, error) {
	v := chi.URLParam(r, "schema")
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// extract runs one extraction detached from the caller's cancellation, so
// a disconnecting client does not fail the requests sharing it.
func (s *Server) extract(reqCtx context.Context, reqID, schemaName string, opts extract.Options) (*extraction, error) {
	ctx := context.WithoutCancel(reqCtx)
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	done := metrics.ExtractionStarted()
	defer done()

	runID := uuid.NewString()
	start := time.Now()
	res, err := extract.RunWithOptions(ctx, s.conn, schemaName, opts)
	elapsed := time.Since(start)
	metrics.RecordExtraction(res, err, elapsed)

	entry := audit.Entry{
		Timestamp:    start,
		RunID:        runID,
		Source:       "server",
		Schema:       schemaName,
		Adapter:      s.conn.AdapterName(),
		DatabaseName: s.conn.DatabaseName(),
		DSN:          s.dsn,
		DurationMS:   elapsed.Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
		s.auditor.Log(entry)
		return nil, err
	}
	entry.Views = res.Views
	entry.Indexes = res.Indexes
	entry.Checksum = ddl.Checksum(res.DDL())
	s.auditor.Log(entry)

	s.logger.Info("extracted",
		"request_id", reqID,
		"run_id", runID,
		"schema", schemaName,
		"views", res.Views,
		"indexes", res.Indexes,
		"duration", elapsed,
	)
	return &extraction{result: res, runID: runID}, nil
}

// writeExtractError maps engine errors to HTTP statuses: validation 400,
// connection 503, query 502.
func (s *Server) writeExtractError(w http.ResponseWriter, reqID string, err error) {
	var (
		verr *extract.ValidationError
		cerr *extract.ConnectionError
		qerr *extract.QueryError
	)
	body := errorBody{Message: err.Error()}
	switch {
	case errors.As(err, &verr):
		body.Code = http.StatusBadRequest
	case errors.As(err, &cerr):
		body.Code = http.StatusServiceUnavailable
		body.Phase = string(cerr.Phase)
		body.View = cerr.View
	case errors.As(err, &qerr):
		body.Code = http.StatusBadGateway
		body.Phase = string(qerr.Phase)
		body.View = qerr.View
	default:
		body.Code = http.StatusInternalServerError
	}
	if body.Code >= 500 {
		s.logger.Error("extraction failed", "request_id", reqID, "status", body.Code, "error", err)
	}
	writeJSON(w, body.Code, body)
}
