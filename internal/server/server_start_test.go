package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/go-vibrato/internal/config"
	"github.com/example/go-vibrato/internal/testutil"
)

func TestServe_LifecycleHealthAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	addr := ln.Addr().String()

	cfg := config.DefaultConfig()
	s := New(cfg, testutil.Dictionary(t)).WithShutdownTimeout(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Serve(ctx, ln)
	}()

	if _, err := FetchHealth(context.Background(), addr); err != nil {
		t.Fatalf("FetchHealth: %v", err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d; want 200", resp.StatusCode)
	}

	// Graceful shutdown.
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Serve() returned error on shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return within 5s of context cancel")
	}
}

func TestServe_InvalidWorkers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.Workers = 0

	if err := New(cfg, testutil.Dictionary(t)).Serve(context.Background(), ln); err == nil {
		t.Fatal("Serve() = nil; want pool construction error")
	}
}

func TestStart_InvalidAddress(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.ListenAddr = "not-an-address"

	if err := New(cfg, testutil.Dictionary(t)).Start(context.Background()); err == nil {
		t.Fatal("Start() = nil; want listen error")
	}
}

func TestNew_ShutdownTimeoutFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.ShutdownTimeout = 7

	s := New(cfg, nil)
	if s.shutdownTimeout != 7*time.Second {
		t.Errorf("shutdownTimeout = %v; want 7s", s.shutdownTimeout)
	}

	if s.WithShutdownTimeout(time.Second) != s {
		t.Error("WithShutdownTimeout should return the same *Server")
	}
}

func TestSessionOptions_AppliesTokenizerConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tokenizer.MaxGroupingLen = 24
	cfg.Tokenizer.IgnoreSpace = true

	p, err := NewDictionaryPool(testutil.Dictionary(t), 1, SessionOptions(cfg, slog.Default())...)
	if err != nil {
		t.Fatalf("NewDictionaryPool: %v", err)
	}

	s, _ := p.Acquire(context.Background())
	defer p.Release(s)

	got := s.TokenizeToSurfaces(" 猫 ")
	if len(got) != 1 || got[0] != "猫" {
		t.Errorf("surfaces = %q; want spaces dropped", got)
	}
}

// --- FetchHealth ---

func TestFetchHealth(t *testing.T) {
	p, err := NewDictionaryPool(testutil.Dictionary(t), 2)
	if err != nil {
		t.Fatalf("NewDictionaryPool: %v", err)
	}
	srv := httptest.NewServer(NewHandler(p))
	defer srv.Close()

	h, err := FetchHealth(context.Background(), srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("FetchHealth: %v", err)
	}

	if h.Status != "ok" || h.Workers != 2 || h.Version == "" {
		t.Errorf("health = %+v", h)
	}
}

func TestFetchHealth_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-OK status", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"not JSON", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}},
		{"degraded", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"draining"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if _, err := FetchHealth(context.Background(), srv.Listener.Addr().String()); err == nil {
				t.Error("FetchHealth() = nil error")
			}
		})
	}
}

func TestFetchHealth_ConnectionRefused(t *testing.T) {
	if _, err := FetchHealth(context.Background(), "127.0.0.1:1"); err == nil {
		t.Error("FetchHealth() = nil; want connection error")
	}
}

func TestFetchHealth_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := FetchHealth(ctx, "127.0.0.1:1"); err == nil {
		t.Error("FetchHealth() = nil; want context error")
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHealth_BodyShape(t *testing.T) {
	p, err := NewDictionaryPool(testutil.Dictionary(t), 3)
	if err != nil {
		t.Fatalf("NewDictionaryPool: %v", err)
	}

	rec := httptest.NewRecorder()
	NewHandler(p).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body struct {
		Status  string `json:"status"`
		Workers int    `json:"workers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.Status != "ok" || body.Workers != 3 {
		t.Errorf("health = %+v", body)
	}
}
