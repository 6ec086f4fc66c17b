// Package session implements explicit token-based sessions for the clinical
// API. A successful login issues a signed JWT carrying the username and role;
// every protected handler resolves the token back into an identity through
// the middleware here. Logout revokes the token's jti so a session can be
// ended before its natural expiry.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "session_identity"

// Identity is the authenticated principal bound to a request.
type Identity struct {
	Username  string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// Claims is the JWT claim set used for session tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Manager issues, parses, and revokes session tokens.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
	revoked    *RevocationStore
}

// NewManager creates a session manager with the given HMAC signing key and
// token lifetime.
func NewManager(signingKey string, ttl time.Duration) *Manager {
	return &Manager{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		revoked:    NewRevocationStore(),
	}
}

// Issue starts a session for the authenticated user and returns the signed
// token. The anonymous -> authenticated transition happens here; there is no
// role-switch transition, a new login issues a new token.
func (m *Manager) Issue(username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a session token and returns the identity it carries.
// Revoked and expired tokens are rejected.
func (m *Manager) Parse(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	if m.revoked.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("session has been ended")
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &Identity{
		Username:  claims.Username,
		Role:      claims.Role,
		JTI:       claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// End revokes the session identified by the token. Ending an already-ended
// or malformed session is not an error; the result is the same anonymous
// state either way.
func (m *Manager) End(tokenStr string) {
	id, err := m.Parse(tokenStr)
	if err != nil {
		return
	}
	m.revoked.Revoke(id.JTI, id.ExpiresAt)
}

// Close releases the manager's background resources.
func (m *Manager) Close() {
	m.revoked.Close()
}

// Middleware resolves the Bearer token into a request-context identity.
// Requests without a token pass through anonymous; role enforcement is left
// to RequireRole so that public routes can share the group.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := BearerToken(c)
			if tokenStr == "" {
				return next(c)
			}

			id, err := m.Parse(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			ctx := context.WithValue(c.Request().Context(), identityKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole returns middleware that rejects anonymous requests with 401 and
// wrong-role requests with 403, so a client can tell a missing session from
// an insufficient one.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := FromContext(c.Request().Context())
			if id == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, required := range roles {
				if id.Role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// FromContext retrieves the session identity from the request context.
// Returns nil for anonymous requests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// BearerToken extracts the Bearer token from the Authorization header, or ""
// if the header is absent or malformed.
func BearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
