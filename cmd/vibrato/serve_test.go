package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/go-vibrato/internal/server"
	"github.com/example/go-vibrato/internal/testutil"
)

func TestServeCmd_MissingDictionary(t *testing.T) {
	_, err := executeRoot(t, "serve", "--dict-path", "/nonexistent/system.dic")
	if err == nil || !strings.Contains(err.Error(), "read dictionary") {
		t.Fatalf("expected dictionary error, got %v", err)
	}
}

func TestHealthCmd_Unreachable(t *testing.T) {
	_, err := executeRoot(t, "health", "--addr", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error querying a closed port")
	}
}

func TestHealthCmd_Live(t *testing.T) {
	d := testutil.Dictionary(t)
	pool, err := server.NewDictionaryPool(d, 1)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.NewHandler(pool))
	defer ts.Close()

	out, err := executeRoot(t, "health", "--addr", strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.HasPrefix(out, "ok version=") || !strings.HasSuffix(out, " workers=1\n") {
		t.Errorf("output = %q", out)
	}
}
