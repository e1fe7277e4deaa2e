package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ylk14/SmartPlant-sub000/pkg/middleware"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	var mw middleware.Stack

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
	if mw.Len() != 2 {
		t.Errorf("len: got %d, want 2", mw.Len())
	}
}

func TestCORSDisabled(t *testing.T) {
	handler := middleware.CORS(&middleware.CORSConfig{Enabled: false})(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS headers should not be set when disabled")
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	handler := middleware.CORS(cfg)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("allow-origin: got %s", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Idempotency-Key") || !strings.Contains(got, middleware.HeaderRequestID) {
		t.Errorf("expose-headers: got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("vary: got %q, want Origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Errorf("allow-methods set outside preflight: %s", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://allowed.com"}}
	handler := middleware.CORS(cfg)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://denied.com")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("should not set allow-origin for disallowed origin")
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	var called bool
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{"allowed origin", "http://example.com", http.StatusNoContent},
		{"disallowed origin", "http://denied.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("OPTIONS", "/observations/abc/mask", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("preflight status: got %d, want %d", rec.Code, tt.want)
			}
			if called {
				t.Error("handler should not be called for preflight")
			}
			if tt.want != http.StatusNoContent {
				return
			}
			if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Idempotency-Key") {
				t.Errorf("allow-headers missing Idempotency-Key: %s", got)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != "3600" {
				t.Errorf("max-age: got %s, want 3600", got)
			}
		})
	}
}

func TestCORSPlainOptionsReachesHandler(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}}

	var called bool
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("OPTIONS", "/observations", nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("OPTIONS without Access-Control-Request-Method is not a preflight")
	}
}

func TestRequestID(t *testing.T) {
	const supplied = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"minted when absent", "", false},
		{"kept when well formed", supplied, true},
		{"replaced when malformed", "not-an-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.RequestIDFrom(r.Context())
			}))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(middleware.HeaderRequestID, tt.incoming)
			}
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(middleware.HeaderRequestID)
			if got == "" || got != seen {
				t.Fatalf("response id %q, context id %q", got, seen)
			}
			if tt.keep != (got == tt.incoming) {
				t.Errorf("id: got %q, incoming %q, keep %v", got, tt.incoming, tt.keep)
			}
		})
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.RequestID(middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/review/abc/approve", nil))

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("client error should log at WARN: %s", out)
	}
	if id := rec.Header().Get(middleware.HeaderRequestID); !strings.Contains(out, "request_id="+id) {
		t.Errorf("log line missing request_id %s: %s", id, out)
	}
	if !strings.Contains(out, "status=409") {
		t.Errorf("log line missing status: %s", out)
	}
	if !strings.Contains(out, "uri=/review/abc/approve") {
		t.Errorf("log line missing uri: %s", out)
	}
}

func TestRecover(t *testing.T) {
	handler := middleware.Recover(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
}

func TestMaxBytes(t *testing.T) {
	handler := middleware.MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"under limit", "short", http.StatusOK},
		{"over limit", "much longer than eight bytes", http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORSConfigFinalizeDefaults(t *testing.T) {
	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if len(cfg.AllowedMethods) != 3 {
		t.Errorf("allowed_methods: got %v", cfg.AllowedMethods)
	}
	if len(cfg.AllowedHeaders) != len(middleware.DefaultAllowedHeaders) {
		t.Errorf("allowed_headers: got %v", cfg.AllowedHeaders)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max_age: got %d, want 3600", cfg.MaxAge)
	}
	if len(cfg.ExposedHeaders) != len(middleware.DefaultExposedHeaders) {
		t.Errorf("exposed_headers: got %v", cfg.ExposedHeaders)
	}
}

func TestCORSConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, http://b.com,")
	t.Setenv("TEST_CORS_CREDS", "true")

	env := &middleware.CORSEnv{
		Enabled:          "TEST_CORS_ENABLED",
		Origins:          "TEST_CORS_ORIGINS",
		AllowCredentials: "TEST_CORS_CREDS",
		AllowedHeaders:   "TEST_CORS_UNSET_HEADERS",
	}

	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled || !cfg.AllowCredentials {
		t.Errorf("bools not applied: %+v", cfg)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[0] != "http://a.com" || cfg.Origins[1] != "http://b.com" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
	if len(cfg.AllowedHeaders) != len(middleware.DefaultAllowedHeaders) {
		t.Errorf("unset env replaced headers: %v", cfg.AllowedHeaders)
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{
		Origins:        []string{"http://base.com"},
		AllowedMethods: []string{"GET"},
		MaxAge:         3600,
	}

	base.Merge(&middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://overlay.com"},
	})

	if !base.Enabled {
		t.Error("enabled should be true after merge")
	}
	if len(base.Origins) != 1 || base.Origins[0] != "http://overlay.com" {
		t.Errorf("origins: got %v", base.Origins)
	}
	if len(base.AllowedMethods) != 1 {
		t.Errorf("methods should survive merge: %v", base.AllowedMethods)
	}
	if base.MaxAge != 3600 {
		t.Errorf("zero overlay max_age should not apply: %d", base.MaxAge)
	}
}
