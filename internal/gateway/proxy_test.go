package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxyRoutesByLongestPrefix(t *testing.T) {
	users := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "users")
	}))
	defer users.Close()
	main := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "main")
	}))
	defer main.Close()

	p, err := NewProxy([]Backend{
		{Prefix: "/api/", Target: main.URL},
		{Prefix: "/api/users/", Target: users.URL},
	})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	cases := []struct {
		path string
		want string
	}{
		{"/api/users/7", "users"},
		{"/api/companies/1", "main"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.path, rec.Code)
		}
		if got := rec.Body.String(); got != tc.want {
			t.Fatalf("%s: routed to %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestProxySplitsUsersSurface(t *testing.T) {
	// Recovery helpers belong to the identity service; user CRUD under the
	// same /api/users space stays with main-service.
	identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "identity")
	}))
	defer identity.Close()
	main := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "main")
	}))
	defer main.Close()

	p, err := NewProxy([]Backend{
		{Prefix: "/api/users/check-email", Target: identity.URL},
		{Prefix: "/api/users/find-email", Target: identity.URL},
		{Prefix: "/api/users/reset-password", Target: identity.URL},
		{Prefix: "/api/users/", Target: main.URL},
	})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	cases := []struct {
		path string
		want string
	}{
		{"/api/users/check-email", "identity"},
		{"/api/users/reset-password", "identity"},
		{"/api/users/7", "main"},
		{"/api/users/7/reservations", "main"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if got := rec.Body.String(); got != tc.want {
			t.Fatalf("%s: routed to %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestProxyForwardsEnrichedHeaders(t *testing.T) {
	var seen http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
	}))
	defer backend.Close()

	p, err := NewProxy([]Backend{{Prefix: "/", Target: backend.URL}})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/companies/1", nil)
	req.Header.Set("X-User-Id", "7")
	req.Header.Set("X-User-Role", "ADMIN")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	if seen.Get("X-User-Id") != "7" || seen.Get("X-User-Role") != "ADMIN" {
		t.Fatalf("identity headers not forwarded: %v", seen)
	}
}

func TestProxyNoRoute(t *testing.T) {
	p, err := NewProxy([]Backend{{Prefix: "/api/", Target: "http://127.0.0.1:1"}})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != 20000 {
		t.Fatalf("code = %d, want 20000", body.Code)
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	// Port 1 is never listening; the error handler must answer 502.
	p, err := NewProxy([]Backend{{Prefix: "/", Target: "http://127.0.0.1:1"}})
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/1", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var body struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != 20001 {
		t.Fatalf("code = %d, want 20001", body.Code)
	}
}

func TestNewProxyRejectsRelativeTarget(t *testing.T) {
	if _, err := NewProxy([]Backend{{Prefix: "/", Target: "main-service:8081"}}); err == nil {
		t.Fatal("expected error for target without scheme")
	}
}
