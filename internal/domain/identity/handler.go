package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cardio/cardio/internal/platform/session"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	auth := api.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/session", h.Session)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register creates an account. A registered account still has to log in;
// registration does not start a session.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.Register(c.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateUsername):
			return echo.NewHTTPError(http.StatusConflict, ErrDuplicateUsername.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to register user")
		}
	}

	return c.JSON(http.StatusCreated, u)
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to log in")
	}

	token, err := h.sessions.Issue(u.Username, u.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Token:    token,
		Username: u.Username,
		Role:     u.Role,
	})
}

// Logout ends the current session. Succeeds even without a valid session;
// either way the caller ends up anonymous.
func (h *Handler) Logout(c echo.Context) error {
	if token := session.BearerToken(c); token != "" {
		h.sessions.End(token)
	}
	return c.NoContent(http.StatusNoContent)
}

// Session reports the identity bound to the current session. The account is
// looked up again so a token for a since-removed account does not introspect
// as valid.
func (h *Handler) Session(c echo.Context) error {
	id := session.FromContext(c.Request().Context())
	if id == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}

	u, err := h.svc.GetByUsername(c.Request().Context(), id.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve session")
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Username: u.Username,
		Role:     u.Role,
	})
}
