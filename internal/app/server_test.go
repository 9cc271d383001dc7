package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	server, err := NewServer(Options{
		Addr:          "localhost:0",
		DBPath:        filepath.Join(t.TempDir(), "app.db"),
		TokenIssuer:   "taskstack-test",
		TokenAudience: "taskstack-api",
		SigningKey:    base64.StdEncoding.EncodeToString(key),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() {
		if err := server.store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return server
}

func TestNewServerRequiresSigningKey(t *testing.T) {
	t.Parallel()

	_, err := NewServer(Options{
		Addr:          "localhost:0",
		DBPath:        filepath.Join(t.TempDir(), "app.db"),
		TokenIssuer:   "taskstack-test",
		TokenAudience: "taskstack-api",
	})
	if err == nil {
		t.Fatal("expected missing signing key error")
	}
}

func TestHealthEndpointPingsStorage(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/up", nil)
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
}

func TestRoutesAreRegistered(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	recorder := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(recorder, req)

	// No bearer token: the route exists and the guard answers 401.
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}
