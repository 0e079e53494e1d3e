package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/rackscan/pkg/module"
)

func TestNewInvalidPrefixPanics(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("expected panic for prefix %q", prefix)
				}
			}()
			module.New(prefix, http.NewServeMux())
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	mux := http.NewServeMux()

	var received []string
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		received = append(received, r.URL.Path)
	})

	m := module.New("/api", mux)
	for _, path := range []string{"/api/scans", "/api"} {
		m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	if len(received) != 2 || received[0] != "/scans" || received[1] != "/" {
		t.Errorf("inner paths: got %v, want [/scans /]", received)
	}
}

func TestModuleMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pipeline", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("X-Module")))
	})

	m := module.New("/api", mux)
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Set("X-Module", "api")
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/pipeline", nil))

	if rec.Body.String() != "api" {
		t.Errorf("module middleware not applied: body %q", rec.Body.String())
	}
}

func TestRouter(t *testing.T) {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /scans", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scans"))
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", apiMux))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"module", "/api/scans", http.StatusOK, "scans"},
		{"trailing slash", "/api/scans/", http.StatusOK, "scans"},
		{"native", "/healthz", http.StatusOK, "ok"},
		{"unmatched", "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
