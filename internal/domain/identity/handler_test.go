package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/platform/session"
)

func newTestHandler(t *testing.T) (*Handler, *session.Manager, *echo.Echo) {
	t.Helper()
	sessions := session.NewManager("test-signing-key", time.Hour)
	t.Cleanup(sessions.Close)
	h := NewHandler(newTestService(), sessions)
	return h, sessions, echo.New()
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Register(t *testing.T) {
	h, _, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/auth/register", `{"username":"drsmith","password":"s3cretpass","role":"doctor"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var u User
	json.Unmarshal(rec.Body.Bytes(), &u)
	if u.Username != "drsmith" {
		t.Errorf("expected drsmith, got %s", u.Username)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response must not expose the password hash")
	}
}

func TestHandler_Register_Duplicate(t *testing.T) {
	h, _, e := newTestHandler(t)

	body := `{"username":"drsmith","password":"s3cretpass","role":"doctor"}`
	c, _ := postJSON(e, "/api/v1/auth/register", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	c, _ = postJSON(e, "/api/v1/auth/register", body)
	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_Register_BadInput(t *testing.T) {
	h, _, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/auth/register", `{"username":"drsmith","password":"s3cretpass","role":"admin"}`)
	err := h.Register(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	h, sessions, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/auth/register", `{"username":"jdoe","password":"s3cretpass","role":"patient"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	c, rec := postJSON(e, "/api/v1/auth/login", `{"username":"jdoe","password":"s3cretpass","role":"patient"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp sessionResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Fatal("expected session token in response")
	}
	id, err := sessions.Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if id.Username != "jdoe" || id.Role != "patient" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestHandler_Login_BadCredentials(t *testing.T) {
	h, _, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/auth/login", `{"username":"nobody","password":"whatever12","role":"patient"}`)
	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_Login_WrongRole(t *testing.T) {
	h, _, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/auth/register", `{"username":"jdoe","password":"s3cretpass","role":"patient"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	c, _ = postJSON(e, "/api/v1/auth/login", `{"username":"jdoe","password":"s3cretpass","role":"doctor"}`)
	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for login under the wrong role, got %v", err)
	}
}

func TestHandler_Logout(t *testing.T) {
	h, sessions, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/auth/register", `{"username":"jdoe","password":"s3cretpass","role":"patient"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, err := sessions.Issue("jdoe", "patient")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, err := sessions.Parse(token); err == nil {
		t.Error("expected token to be revoked after logout")
	}
}

func TestHandler_Logout_WithoutSession(t *testing.T) {
	h, _, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_Session(t *testing.T) {
	h, sessions, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/auth/register", `{"username":"drsmith","password":"s3cretpass","role":"doctor"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, err := sessions.Issue("drsmith", "doctor")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c = e.NewContext(req, rec)

	handler := sessions.Middleware()(h.Session)
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp sessionResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Username != "drsmith" || resp.Role != "doctor" {
		t.Errorf("unexpected session response: %+v", resp)
	}
	if resp.Token != "" {
		t.Error("session endpoint must not re-issue tokens")
	}
}

func TestHandler_Session_UnknownAccount(t *testing.T) {
	h, sessions, e := newTestHandler(t)

	// A valid token whose account no longer exists must not introspect.
	token, err := sessions.Issue("ghost", "doctor")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler := sessions.Middleware()(h.Session)
	err = handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_Session_Anonymous(t *testing.T) {
	h, _, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	rec := httptest.NewRecorder()
	err := h.Session(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
