package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/dict"
	"github.com/example/go-vibrato/internal/metrics"
	"github.com/example/go-vibrato/internal/session"
	"github.com/example/go-vibrato/internal/text"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	requestTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Collector
}

func defaultOptions() options {
	return options{
		maxTextBytes:   65536,
		requestTimeout: 10 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithRequestTimeout bounds how long a request may wait for a free session.
// Tokenization itself is not interruptible.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records request and cache metrics in m and serves them on
// GET /metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	pool *Pool
	opts options
	log  *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /metrics,
// POST /tokenize and POST /surfaces.
func NewHandler(pool *Pool, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		pool: pool,
		opts: opts,
		log:  opts.logger,
	}
	opts.metrics.RegisterCacheStats(pool.CacheStats)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", opts.metrics.Handler())
	mux.HandleFunc("/tokenize", h.handleTokenize)
	mux.HandleFunc("/surfaces", h.handleSurfaces)
	return withRequestID(withMetrics(mux, opts.metrics))
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Workers int    `json:"workers"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:  "ok",
		Version: buildVersion(),
		Workers: h.pool.Size(),
	})
}

type tokenizeRequest struct {
	Text string `json:"text"`
	// Fold applies NFKC before tokenizing; spans then index the folded text.
	Fold bool `json:"fold"`
}

type tokenJSON struct {
	Surface string `json:"surface"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Feature string `json:"feature"`
	Known   bool   `json:"known"`
}

type tokenizeResponse struct {
	Text   string      `json:"text"`
	Tokens []tokenJSON `json:"tokens"`
}

type surfacesResponse struct {
	Surfaces []string `json:"surfaces"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	h.serveTokenization(w, r, "tokenize", func(s *session.Session, input string) (any, int) {
		list := s.Tokenize(input)
		resp := tokenizeResponse{Text: input, Tokens: make([]tokenJSON, 0, list.Len())}
		it := list.Iter()
		for tok, ok := it.Next(); ok; tok, ok = it.Next() {
			resp.Tokens = append(resp.Tokens, tokenJSON{
				Surface: tok.Surface(),
				Start:   tok.Start(),
				End:     tok.End(),
				Feature: tok.Feature(),
				Known:   tok.WordIdentity().Kind() == dict.KindKnown,
			})
		}
		return resp, list.Len()
	})
}

func (h *handler) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	h.serveTokenization(w, r, "surfaces", func(s *session.Session, input string) (any, int) {
		surfaces := s.TokenizeToSurfaces(input)
		return surfacesResponse{Surfaces: surfaces}, len(surfaces)
	})
}

// serveTokenization decodes the request, borrows a session for run and
// writes the result. run must not retain the session.
func (h *handler) serveTokenization(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	run func(s *session.Session, input string) (any, int),
) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	// JSON escapes can make the body larger than the text it carries.
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.opts.maxTextBytes)*6+1024)

	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	input := req.Text
	if req.Fold {
		// NFKC can expand a character many times over.
		input = text.Fold(input)
		if len(input) > h.opts.maxTextBytes {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("folded text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
			return
		}
	}

	// Acquire a session, honouring the request deadline while waiting.
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	waitStart := time.Now()
	s, err := h.pool.Acquire(ctx)
	h.opts.metrics.ObservePoolWait(time.Since(waitStart))
	if err != nil {
		h.log.WarnContext(r.Context(), "no session available",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusServiceUnavailable, "timed out waiting for a tokenization session")
		return
	}

	start := time.Now()
	resp, tokens := run(s, input)
	h.pool.Release(s)
	durationUS := time.Since(start).Microseconds()

	h.opts.metrics.RecordTokenization(len(input), tokens)
	h.log.InfoContext(r.Context(), "tokenization complete",
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("op", op),
		slog.Int("text_len", len(input)),
		slog.Int("tokens", tokens),
		slog.Int64("duration_us", durationUS),
	)

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server serves a session pool built over one shared dictionary.
type Server struct {
	cfg             config.Config
	dict            *dict.Dictionary
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, d *dict.Dictionary) *Server {
	return &Server{
		cfg:             cfg,
		dict:            d,
		logger:          slog.Default(),
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// SessionOptions translates the tokenizer section of cfg.
func SessionOptions(cfg config.Config, logger *slog.Logger) []session.Option {
	return []session.Option{
		session.WithIgnoreSpace(cfg.Tokenizer.IgnoreSpace),
		session.WithMaxGroupingLen(cfg.Tokenizer.MaxGroupingLen),
		session.WithSurfaceCacheSize(cfg.Tokenizer.SurfaceCacheSize),
		session.WithFeatureCacheSize(cfg.Tokenizer.FeatureCacheSize),
		session.WithLogger(logger),
	}
}

// Handler builds the pool and the HTTP handler without listening.
func (s *Server) Handler() (http.Handler, error) {
	pool, err := NewDictionaryPool(s.dict, s.cfg.Server.Workers, SessionOptions(s.cfg, s.logger)...)
	if err != nil {
		return nil, fmt.Errorf("build session pool: %w", err)
	}

	return NewHandler(pool,
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.logger),
		WithMetrics(metrics.NewCollector()),
	), nil
}

// Start listens on cfg.Server.ListenAddr until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for at most the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	h, err := s.Handler()
	if err != nil {
		_ = ln.Close()
		return err
	}

	httpServer := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("listening",
		slog.String("addr", ln.Addr().String()),
		slog.Int("workers", s.cfg.Server.Workers),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

// FetchHealth queries GET /health on addr. A bare ":port" addr targets
// localhost.
func FetchHealth(ctx context.Context, addr string) (Health, error) {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return Health{}, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Health{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decode health: %w", err)
	}
	if h.Status != "ok" {
		return h, fmt.Errorf("server reports status %q", h.Status)
	}

	return h, nil
}
