package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager("test-signing-key", time.Hour)
	t.Cleanup(m.Close)
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("drsmith", "doctor")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	id, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Username != "drsmith" {
		t.Errorf("expected username drsmith, got %s", id.Username)
	}
	if id.Role != "doctor" {
		t.Errorf("expected role doctor, got %s", id.Role)
	}
	if id.JTI == "" {
		t.Error("expected non-empty JTI")
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Parse("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestParse_RejectsWrongKey(t *testing.T) {
	m := newTestManager(t)
	other := NewManager("different-key", time.Hour)
	defer other.Close()

	token, err := other.Issue("drsmith", "doctor")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Error("expected error for token signed with a different key")
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	m := NewManager("test-signing-key", -time.Minute)
	defer m.Close()

	token, err := m.Issue("drsmith", "doctor")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestEnd_RevokesToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("jdoe", "patient")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("token should be valid before End: %v", err)
	}

	m.End(token)

	if _, err := m.Parse(token); err == nil {
		t.Error("expected error for revoked token")
	}
}

func TestEnd_IsIdempotent(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("jdoe", "patient")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	m.End(token)
	m.End(token)
	m.End("garbage")
}

func TestMiddleware_AnonymousPassesThrough(t *testing.T) {
	m := newTestManager(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if FromContext(c.Request().Context()) != nil {
			t.Error("expected anonymous request to carry no identity")
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := m.Middleware()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware_ResolvesIdentity(t *testing.T) {
	m := newTestManager(t)
	token, err := m.Issue("drsmith", "doctor")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		id := FromContext(c.Request().Context())
		if id == nil {
			t.Fatal("expected identity in context")
		}
		if id.Username != "drsmith" || id.Role != "doctor" {
			t.Errorf("unexpected identity: %+v", id)
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := m.Middleware()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware_RejectsInvalidToken(t *testing.T) {
	m := newTestManager(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	err := m.Middleware()(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestRequireRole_Anonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	err := RequireRole("doctor")(handler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous request, got %v", err)
	}
}

func TestRequireRole_WrongRole(t *testing.T) {
	m := newTestManager(t)
	token, _ := m.Issue("jdoe", "patient")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	err := m.Middleware()(RequireRole("doctor")(handler))(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for wrong role, got %v", err)
	}
}

func TestRequireRole_Allows(t *testing.T) {
	m := newTestManager(t)
	token, _ := m.Issue("drsmith", "doctor")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	}

	if err := m.Middleware()(RequireRole("doctor")(handler))(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run")
	}
}

func TestBearerToken(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			if got := BearerToken(c); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRevocationStore_Cleanup(t *testing.T) {
	s := NewRevocationStore()
	defer s.Close()

	s.Revoke("expired-jti", time.Now().Add(-time.Hour))
	s.Revoke("live-jti", time.Now().Add(time.Hour))

	if s.Count() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Count())
	}

	s.cleanup()

	if s.IsRevoked("expired-jti") {
		t.Error("expected expired entry to be removed")
	}
	if !s.IsRevoked("live-jti") {
		t.Error("expected live entry to remain")
	}
}
