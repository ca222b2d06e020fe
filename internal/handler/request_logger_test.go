package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// requestEntry returns the "request" line; other goroutines may log too.
func requestEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		var entry map[string]any
		if json.Unmarshal(line, &entry) == nil && entry["msg"] == "request" {
			return entry
		}
	}
	t.Fatalf("no request line in %q", buf.String())
	return nil
}

func TestRequestLogger(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /api/admin/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "boom")
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	tests := []struct {
		method, path string
		wantLevel    string
		wantRoute    string
		wantStatus   float64
	}{
		{"GET", "/api/health", "DEBUG", "GET /api/health", 200},
		{"GET", "/api/admin/reservations/r1", "WARN", "GET /api/admin/reservations/{id}", 500},
		{"POST", "/api/auth/login", "INFO", "POST /api/auth/login", 401},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf := captureLogs(t)
			RequestLogger(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			entry := requestEntry(t, buf)
			if entry["level"] != tt.wantLevel || entry["route"] != tt.wantRoute ||
				entry["status"] != tt.wantStatus || entry["path"] != tt.path {
				t.Errorf("entry = %v", entry)
			}
		})
	}
}
