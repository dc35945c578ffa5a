package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pmtrack/internal/logging"
	"pmtrack/internal/storage/sqlite"
)

func newStaticServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"index.html":    "<html><body>pmtrack board</body></html>",
		"assets/app.js": "console.log('board')",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "pmtrack.db"), logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, logging.Discard(), Options{StaticDir: dir})
}

func TestStatic_ServesFrontend(t *testing.T) {
	s := newStaticServer(t)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"root", "/", "pmtrack board"},
		{"client route", "/projects/7/board", "pmtrack board"},
		{"asset", "/assets/app.js", "console.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.path, "")
			expectStatus(t, w, http.StatusOK)
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body = %q, want it to contain %q", w.Body.String(), tt.want)
			}
		})
	}

	// API routes still win over the fallback.
	expectStatus(t, do(t, s, http.MethodGet, "/api/healthz", ""), http.StatusOK)
}

func TestStatic_UnknownAPIPath(t *testing.T) {
	for name, s := range map[string]*Server{
		"with frontend": newStaticServer(t),
		"api only":      newTestServer(t),
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/api/unknown", "")
			expectStatus(t, w, http.StatusNotFound)
			var body errorBody
			decode(t, w, &body)
			if !strings.Contains(body.Error, "/api/unknown") {
				t.Errorf("error = %q", body.Error)
			}
			if w.Header().Get(requestIDHeader) == "" {
				t.Error("request id missing on fallback response")
			}
		})
	}
}

func TestStatic_APIOnlyHasNoFallback(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, do(t, s, http.MethodGet, "/projects/7/board", ""), http.StatusNotFound)

	r := httptest.NewRequest(http.MethodPost, "/projects/7/board", nil)
	w := httptest.NewRecorder()
	newStaticServer(t).Engine().ServeHTTP(w, r)
	expectStatus(t, w, http.StatusMethodNotAllowed)
}
